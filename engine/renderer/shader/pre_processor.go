// pre_processor.go implements the WGSL shader pre-processor. It scans shader source for @ar:
// annotations, replaces them with injected struct sources or generated binding declarations,
// and collects the declarations so callers can check which slots and constants a shader uses.
//
// The pre-processor keeps two registries:
//   - structRegistry: maps AnnotationArg keys to embedded WGSL struct sources and their type
//     names, filled through WithStruct by the packages that own the GPU records.
//   - addressSpaceRegistry: maps address space argument keys to WGSL var<> syntax strings.
package shader

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
)

// registryEntry pairs a WGSL struct source string with the WGSL type name used in generated declarations.
type registryEntry struct {
	// Source is the raw WGSL struct definition text injected by @ar:include.
	Source string

	// Type is the WGSL type name emitted in @ar:buffer declarations.
	Type string
}

type preProcessor struct {
	structRegistry       map[AnnotationArg]registryEntry
	addressSpaceRegistry map[AnnotationArg]string

	// declarations accumulates buffer, texture and constant annotations during a Process call.
	declarations []Annotation
}

// PreProcessor turns annotated WGSL into plain WGSL while collecting binding declarations.
type PreProcessor interface {
	// Process replaces every @ar: annotation in source with its WGSL output. A struct is
	// injected at most once per call even when several annotations include it.
	//
	// The declarations list is reset at the start of each call.
	//
	// Parameters:
	//   - source: the raw WGSL shader source code containing annotations
	//
	// Returns:
	//   - string: the processed WGSL
	//   - error: an error if any annotation is malformed or references an unregistered struct
	Process(source string) (string, error)

	// Declarations returns the buffer, texture and constant annotations collected by the most
	// recent Process call, in source order.
	//
	// Returns:
	//   - []Annotation: the declarations collected during the last Process call
	Declarations() []Annotation

	// DefaultConstants returns every constant declared by the last Process call set to false,
	// the values used when a function is compiled unspecialized.
	//
	// Returns:
	//   - *gpu.FunctionConstantValues: the default constant set
	DefaultConstants() *gpu.FunctionConstantValues
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor. Struct types become available to @ar:include and
// @ar:buffer through WithStruct options.
//
// Parameters:
//   - opts: a variadic list of PreProcessorBuilderOption functions
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor(opts ...PreProcessorBuilderOption) PreProcessor {
	p := &preProcessor{
		structRegistry: make(map[AnnotationArg]registryEntry),
		addressSpaceRegistry: map[AnnotationArg]string{
			annotationArgStorageTypeUniform: "var<uniform>",
			annotationArgStorageTypeRead:    "var<storage, read>",
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *preProcessor) resolveType(arg AnnotationArg) (string, bool) {
	if inner, ok := strings.CutPrefix(string(arg), "array<"); ok {
		inner = strings.TrimSuffix(inner, ">")
		entry, ok := p.structRegistry[AnnotationArg(inner)]
		if !ok {
			return "", false
		}
		return fmt.Sprintf("array<%s>", entry.Type), true
	}
	entry, ok := p.structRegistry[arg]
	return entry.Type, ok
}

func (p *preProcessor) Process(source string) (string, error) {
	p.declarations = p.declarations[:0]
	included := make(map[AnnotationArg]struct{})

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case annotationTypeInclude:
			entry, ok := p.structRegistry[a.Args[0]]
			if !ok {
				return "", fmt.Errorf("line %d: unknown @ar:include struct %q", a.Line, a.Args[0])
			}
			if _, done := included[a.Args[0]]; done {
				continue
			}
			included[a.Args[0]] = struct{}{}
			out = append(out, entry.Source)
		case AnnotationTypeBuffer:
			wgslType, ok := p.resolveType(a.Args[2])
			if !ok {
				return "", fmt.Errorf("line %d: unknown struct type %q in @ar:buffer", a.Line, a.Args[2])
			}
			out = append(out, fmt.Sprintf("@group(%d) @binding(%d) %s %s: %s;",
				BufferGroup, a.Buffer.Binding(), p.addressSpaceRegistry[a.Args[0]], a.Args[1], wgslType))
			p.declarations = append(p.declarations, *a)
		case AnnotationTypeTexture:
			samplerType := "sampler"
			if strings.HasPrefix(string(a.Args[1]), "texture_depth_") {
				samplerType = "sampler_comparison"
			}
			out = append(out,
				fmt.Sprintf("@group(%d) @binding(%d) var %s: %s;", TextureGroup, a.Texture.Binding(), a.Args[0], a.Args[1]),
				fmt.Sprintf("@group(%d) @binding(%d) var %s_sampler: %s;", TextureGroup, a.Texture.SamplerBinding(), a.Args[0], samplerType),
			)
			p.declarations = append(p.declarations, *a)
		case AnnotationTypeConstant:
			p.declarations = append(p.declarations, *a)
		default:
			return "", fmt.Errorf("line %d: unknown annotation type %q", a.Line, a.Type)
		}
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}

func (p *preProcessor) DefaultConstants() *gpu.FunctionConstantValues {
	values := gpu.NewFunctionConstantValues()
	var indices []int
	for _, d := range p.declarations {
		if d.Type == AnnotationTypeConstant {
			indices = append(indices, int(d.Constant))
		}
	}
	sort.Ints(indices)
	for _, idx := range indices {
		values.SetBool(idx, FunctionConstantIndex(idx).Name(), false)
	}
	return values
}
