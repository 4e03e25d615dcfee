// annotations.go defines the annotation types and the parser for the WGSL pre-processor.
// Annotations are single-line WGSL comments prefixed with @ar: that inject registered struct
// sources, declare buffer and texture bindings by engine slot name, and record which
// specialization constants a shader reads.
package shader

import (
	"fmt"
	"slices"
	"strings"
)

// annotationPrefix is the marker that identifies an annotation within a WGSL comment line.
const annotationPrefix = "@ar:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// annotationTypeInclude injects the WGSL source of a registered struct at the annotation
	// site. It produces no declaration.
	//
	// Syntax: //@ar:include <struct_type>
	//
	// Example: //@ar:include shared_uniforms
	annotationTypeInclude AnnotationType = "include"

	// AnnotationTypeBuffer generates a @group/@binding variable declaration for a buffer slot.
	// The type may be a registered struct key or array<key> for a runtime-sized array.
	//
	// Syntax: //@ar:buffer <buffer_slot> <address_space> <var_name> <type>
	//
	// Example: //@ar:buffer anchor_instance_uniforms storage_read instances array<anchor_instance_uniforms>
	AnnotationTypeBuffer AnnotationType = "buffer"

	// AnnotationTypeTexture generates a texture declaration and its paired sampler. Depth
	// textures are paired with a comparison sampler.
	//
	// Syntax: //@ar:texture <texture_slot> <var_name> <wgsl_texture_type>
	//
	// Example: //@ar:texture color base_color_map texture_2d<f32>
	AnnotationTypeTexture AnnotationType = "texture"

	// AnnotationTypeConstant records that the shader reads a specialization constant. It
	// produces no WGSL; the constant is declared by the prelude the device prepends.
	//
	// Syntax: //@ar:constant <constant_name>
	//
	// Example: //@ar:constant has_normal_map
	AnnotationTypeConstant AnnotationType = "constant"
)

// Annotation represents a single parsed annotation.
type Annotation struct {
	// Type identifies which annotation was parsed.
	Type AnnotationType

	// Args holds the annotation's arguments. The contents depend on Type:
	//   - include:  [0] = struct type key
	//   - buffer:   [0] = address space, [1] = var name, [2] = type key
	//   - texture:  [0] = var name, [1] = WGSL texture type
	//   - constant: [0] = constant name
	Args []AnnotationArg

	// Line is the 1-based line number in the source where the annotation was found.
	Line int

	// Buffer is the slot of a buffer annotation.
	Buffer BufferIndex

	// Texture is the slot of a texture annotation.
	Texture TextureIndex

	// Constant is the index of a constant annotation.
	Constant FunctionConstantIndex
}

// AnnotationArg is a typed string used as an argument in annotations.
type AnnotationArg string

// ── Address space arguments ────────────────────────────────────────────────────

const (
	// annotationArgStorageTypeUniform maps to var<uniform> in WGSL.
	annotationArgStorageTypeUniform AnnotationArg = "storage_uniform"

	// annotationArgStorageTypeRead maps to var<storage, read> in WGSL.
	annotationArgStorageTypeRead AnnotationArg = "storage_read"
)

var validAddressSpaces = []AnnotationArg{
	annotationArgStorageTypeUniform,
	annotationArgStorageTypeRead,
}

// parseAnnotation attempts to parse a single line of WGSL source as an annotation.
// Returns nil with no error for lines that do not contain the annotation prefix. Struct type
// keys are checked against the registry by the caller.
//
// Parameters:
//   - line: the raw WGSL source line to parse
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: a descriptive error if the annotation is malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "//") {
		return nil, nil
	}
	_, after, ok := strings.Cut(trimmed, annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @ar annotation", lineNum)
	}

	switch AnnotationType(args[0]) {
	case annotationTypeInclude:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @ar include annotation requires exactly one argument", lineNum)
		}
		return &Annotation{
			Type: annotationTypeInclude,
			Args: []AnnotationArg{AnnotationArg(args[1])},
			Line: lineNum,
		}, nil
	case AnnotationTypeBuffer:
		if len(args) != 5 {
			return nil, fmt.Errorf("line %d: @ar buffer annotation requires exactly four arguments (buffer slot, address space, var name, type)", lineNum)
		}
		slot, ok := lookupBufferIndex(args[1])
		if !ok {
			return nil, fmt.Errorf("line %d: unknown buffer slot %q in @ar buffer annotation", lineNum, args[1])
		}
		if slot.IsVertexStream() {
			return nil, fmt.Errorf("line %d: buffer slot %q is a vertex stream and cannot be declared as a binding", lineNum, args[1])
		}
		if !slices.Contains(validAddressSpaces, AnnotationArg(args[2])) {
			return nil, fmt.Errorf("line %d: unknown address space %q in @ar buffer annotation", lineNum, args[2])
		}
		return &Annotation{
			Type:   AnnotationTypeBuffer,
			Args:   []AnnotationArg{AnnotationArg(args[2]), AnnotationArg(args[3]), AnnotationArg(args[4])},
			Line:   lineNum,
			Buffer: slot,
		}, nil
	case AnnotationTypeTexture:
		if len(args) != 4 {
			return nil, fmt.Errorf("line %d: @ar texture annotation requires exactly three arguments (texture slot, var name, texture type)", lineNum)
		}
		slot, ok := lookupTextureIndex(args[1])
		if !ok {
			return nil, fmt.Errorf("line %d: unknown texture slot %q in @ar texture annotation", lineNum, args[1])
		}
		if !strings.HasPrefix(args[3], "texture_") {
			return nil, fmt.Errorf("line %d: %q is not a texture type", lineNum, args[3])
		}
		return &Annotation{
			Type:    AnnotationTypeTexture,
			Args:    []AnnotationArg{AnnotationArg(args[2]), AnnotationArg(args[3])},
			Line:    lineNum,
			Texture: slot,
		}, nil
	case AnnotationTypeConstant:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @ar constant annotation requires exactly one argument", lineNum)
		}
		idx, ok := lookupFunctionConstant(args[1])
		if !ok {
			return nil, fmt.Errorf("line %d: unknown function constant %q", lineNum, args[1])
		}
		return &Annotation{
			Type:     AnnotationTypeConstant,
			Args:     []AnnotationArg{AnnotationArg(args[1])},
			Line:     lineNum,
			Constant: idx,
		}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown @ar annotation type %q", lineNum, args[0])
	}
}
