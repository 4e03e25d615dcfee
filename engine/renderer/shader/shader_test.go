package shader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sharedStruct = `struct SharedUniforms {
    view: mat4x4<f32>,
}`

const annotated = `//@ar:include shared_uniforms
//@ar:include shared_uniforms
//@ar:buffer shared_uniforms storage_uniform shared shared_uniforms
//@ar:buffer anchor_instance_uniforms storage_read instances array<shared_uniforms>
//@ar:texture shadow shadow_map texture_depth_2d
//@ar:texture color base_color_map texture_2d<f32>
//@ar:constant has_normal_map
//@ar:constant has_base_color_map
@fragment fn fragment_main() -> @location(0) vec4<f32> { return vec4<f32>(1.0); }`

func TestPreProcessorExpandsAnnotations(t *testing.T) {
	p := NewPreProcessor(WithStruct("shared_uniforms", sharedStruct, "SharedUniforms"))

	out, err := p.Process(annotated)
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out, "struct SharedUniforms"))
	assert.Contains(t, out, "@group(0) @binding(3) var<uniform> shared: SharedUniforms;")
	assert.Contains(t, out, "@group(0) @binding(2) var<storage, read> instances: array<SharedUniforms>;")
	assert.Contains(t, out, "@group(1) @binding(40) var shadow_map: texture_depth_2d;")
	assert.Contains(t, out, "@group(1) @binding(41) var shadow_map_sampler: sampler_comparison;")
	assert.Contains(t, out, "@group(1) @binding(1) var base_color_map_sampler: sampler;")
	assert.NotContains(t, out, "@ar:")

	decls := p.Declarations()
	require.Len(t, decls, 6)
	assert.Equal(t, BufferIndexSharedUniforms, decls[0].Buffer)
	assert.Equal(t, TextureIndexShadowMap, decls[2].Texture)
	assert.Equal(t, FunctionConstantNormalMap, decls[4].Constant)

	defaults := p.DefaultConstants()
	assert.Equal(t, 2, defaults.Len())
	v, ok := defaults.Bool(int(FunctionConstantBaseColorMap))
	assert.True(t, ok)
	assert.False(t, v)

	// Declarations reset on each call.
	_, err = p.Process("@vertex fn v() -> @builtin(position) vec4<f32> { return vec4<f32>(0.0); }")
	require.NoError(t, err)
	assert.Empty(t, p.Declarations())
}

func TestPreProcessorRejectsMalformedAnnotations(t *testing.T) {
	p := NewPreProcessor(WithStruct("shared_uniforms", sharedStruct, "SharedUniforms"))

	for name, src := range map[string]string{
		"empty":           "//@ar:",
		"unknown type":    "//@ar:bogus x",
		"unknown struct":  "//@ar:include missing",
		"vertex stream":   "//@ar:buffer mesh_positions storage_read p shared_uniforms",
		"address space":   "//@ar:buffer shared_uniforms storage_write s shared_uniforms",
		"unknown slot":    "//@ar:texture nope t texture_2d<f32>",
		"not a texture":   "//@ar:texture color t sampler",
		"unknown const":   "//@ar:constant has_wings",
		"buffer arity":    "//@ar:buffer shared_uniforms storage_uniform",
		"unresolved type": "//@ar:buffer shared_uniforms storage_uniform s other",
	} {
		_, err := p.Process(src)
		assert.Error(t, err, name)
	}

	// Ordinary comments pass through untouched.
	out, err := p.Process("// plain comment\nfn f() {}")
	require.NoError(t, err)
	assert.Equal(t, "// plain comment\nfn f() {}", out)
}

func TestParseBindings(t *testing.T) {
	src := `
struct Light {
    direction: vec3<f32>,
    intensity: f32,
    mvp: mat4x4<f32>,
}
// @group(0) @binding(9) var<uniform> commented: Light;
@group(1) @binding(4) var tex: texture_multisampled_2d<f32>;
@group(0) @binding(10) var<uniform> light: Light;
@group(0) @binding(2) var<storage, read_write> scratch: array<f32>;
@group(1) @binding(5) var tex_sampler: sampler;
`
	bindings := ParseBindings(src)
	require.Len(t, bindings, 4)

	assert.Equal(t, 2, bindings[0].Binding)
	assert.Equal(t, ResourceKindStorageBuffer, bindings[0].Kind)
	assert.Equal(t, uint64(4), bindings[0].MinSize, "runtime arrays report one element")

	assert.Equal(t, "light", bindings[1].Name)
	assert.Equal(t, ResourceKindUniformBuffer, bindings[1].Kind)
	assert.Equal(t, uint64(80), bindings[1].MinSize)

	assert.Equal(t, ResourceKindTexture, bindings[2].Kind)
	assert.True(t, bindings[2].Multisampled)
	assert.Equal(t, ResourceKindSampler, bindings[3].Kind)
	assert.False(t, bindings[3].Kind.IsBuffer())
}

func TestStructLayoutsAndEntryPoints(t *testing.T) {
	src := `
struct Pair {
    x: f32,
    y: vec2<f32>,
}
struct Outer {
    p: Pair,
    m: mat4x4<f32>,
}
@vertex fn vertex_main() -> @builtin(position) vec4<f32> { return vec4<f32>(0.0); }
@fragment fn fragment_main() -> @location(0) vec4<f32> { return vec4<f32>(1.0); }
@fragment fn fragment_shadow() -> @location(0) vec4<f32> { return vec4<f32>(0.0); }
`
	layouts := StructLayouts(src)
	assert.Equal(t, TypeLayout{Size: 16, Align: 8}, layouts["Pair"])
	assert.Equal(t, TypeLayout{Size: 80, Align: 16}, layouts["Outer"])

	vertex, fragment := EntryPoints(src)
	assert.Equal(t, []string{"vertex_main"}, vertex)
	assert.Equal(t, []string{"fragment_main", "fragment_shadow"}, fragment)
}

func TestSlotTables(t *testing.T) {
	assert.Equal(t, "shared_uniforms", BufferIndexSharedUniforms.String())
	assert.True(t, BufferIndexMeshGenerics.IsVertexStream())
	assert.False(t, BufferIndexSharedUniforms.IsVertexStream())
	assert.Equal(t, "BufferIndex(-1)", BufferIndex(-1).String())

	assert.Equal(t, 10, TextureIndexNormal.Binding())
	assert.Equal(t, 11, TextureIndexNormal.SamplerBinding())
	assert.Equal(t, "has_clearcoat_gloss_map", FunctionConstantClearcoatGlossMap.Name())
	assert.Equal(t, "function_constant_99", FunctionConstantIndex(99).Name())
}
