// Package shader holds the slot tables shared between the CPU side of the engine and its WGSL
// shaders, the @ar: annotation pre-processor that turns those tables into @group/@binding
// declarations, and a small WGSL parser used to derive bind group layouts and verify that
// Go record layouts match their WGSL structs.
//
// Buffers bind in BufferGroup at @binding equal to their BufferIndex. Textures bind in
// TextureGroup at @binding 2×TextureIndex with their sampler at 2×TextureIndex+1.
package shader

import "fmt"

const (
	// BufferGroup is the bind group holding every buffer binding.
	BufferGroup = 0

	// TextureGroup is the bind group holding every texture and sampler binding.
	TextureGroup = 1
)

// BufferIndex is the slot a buffer is bound to, shared by the encoder calls and the shader declarations.
type BufferIndex int

const (
	BufferIndexMeshPositions BufferIndex = iota
	BufferIndexMeshGenerics
	BufferIndexAnchorInstanceUniforms
	BufferIndexSharedUniforms
	BufferIndexMaterialUniforms
	BufferIndexTrackingPointData
	BufferIndexMeshPalettes
	BufferIndexMeshPaletteIndex
	BufferIndexMeshPaletteSize
	BufferIndexAnchorEffectsUniforms
	BufferIndexEnvironmentUniforms
	BufferIndexPrecalculationOutput
	BufferIndexDrawCallIndex
	BufferIndexDrawCallGroupIndex
	BufferIndexRawVertexData
	BufferIndexCameraVertices
	BufferIndexSceneVertices
	BufferIndexLODRoughness
	BufferIndexInstanceCount
	BufferIndexCommandBufferContainer
	numBufferIndices
)

var bufferIndexNames = [numBufferIndices]string{
	"mesh_positions",
	"mesh_generics",
	"anchor_instance_uniforms",
	"shared_uniforms",
	"material_uniforms",
	"tracking_point_data",
	"mesh_palettes",
	"mesh_palette_index",
	"mesh_palette_size",
	"anchor_effects_uniforms",
	"environment_uniforms",
	"precalculation_output",
	"draw_call_index",
	"draw_call_group_index",
	"raw_vertex_data",
	"camera_vertices",
	"scene_vertices",
	"lod_roughness",
	"instance_count",
	"command_buffer_container",
}

// String returns the annotation name of the buffer slot.
func (b BufferIndex) String() string {
	if b < 0 || b >= numBufferIndices {
		return fmt.Sprintf("BufferIndex(%d)", int(b))
	}
	return bufferIndexNames[b]
}

// Binding returns the @binding of the buffer slot within BufferGroup.
func (b BufferIndex) Binding() int {
	return int(b)
}

// IsVertexStream reports whether the slot carries per-vertex attribute data bound as a vertex
// buffer rather than a uniform or storage binding.
func (b BufferIndex) IsVertexStream() bool {
	return b == BufferIndexMeshPositions || b == BufferIndexMeshGenerics
}

// TextureIndex is the slot a texture is bound to.
type TextureIndex int

const (
	TextureIndexColor TextureIndex = iota
	TextureIndexY
	TextureIndexCbCr
	TextureIndexMetallic
	TextureIndexRoughness
	TextureIndexNormal
	TextureIndexAmbientOcclusion
	TextureIndexEmissionMap
	TextureIndexSubsurfaceMap
	TextureIndexSpecularMap
	TextureIndexSpecularTintMap
	TextureIndexAnisotropicMap
	TextureIndexSheenMap
	TextureIndexSheenTintMap
	TextureIndexClearcoatMap
	TextureIndexClearcoatGlossMap
	TextureIndexEnvironmentMap
	TextureIndexDiffuseIBLMap
	TextureIndexSpecularIBLMap
	TextureIndexBRDFLookupMap
	TextureIndexShadowMap
	TextureIndexSceneColor
	TextureIndexSceneDepth
	TextureIndexAlpha
	TextureIndexDilatedDepth
	numTextureIndices
)

var textureIndexNames = [numTextureIndices]string{
	"color",
	"y",
	"cbcr",
	"metallic",
	"roughness",
	"normal",
	"ambient_occlusion",
	"emission",
	"subsurface",
	"specular",
	"specular_tint",
	"anisotropic",
	"sheen",
	"sheen_tint",
	"clearcoat",
	"clearcoat_gloss",
	"environment",
	"diffuse_ibl",
	"specular_ibl",
	"brdf_lookup",
	"shadow",
	"scene_color",
	"scene_depth",
	"alpha",
	"dilated_depth",
}

// String returns the annotation name of the texture slot.
func (t TextureIndex) String() string {
	if t < 0 || t >= numTextureIndices {
		return fmt.Sprintf("TextureIndex(%d)", int(t))
	}
	return textureIndexNames[t]
}

// Binding returns the @binding of the texture within TextureGroup.
func (t TextureIndex) Binding() int {
	return 2 * int(t)
}

// SamplerBinding returns the @binding of the sampler paired with the texture.
func (t TextureIndex) SamplerBinding() int {
	return 2*int(t) + 1
}

// VertexAttribute is the @location of a mesh vertex attribute.
type VertexAttribute int

const (
	VertexAttributePosition VertexAttribute = iota
	VertexAttributeTexcoord
	VertexAttributeNormal
	VertexAttributeTangent
	VertexAttributeJointIndices
	VertexAttributeJointWeights
	VertexAttributeColor
)

// FunctionConstantIndex identifies one boolean specialization constant. There is one per
// material map, in material map order.
type FunctionConstantIndex int

const (
	FunctionConstantBaseColorMap FunctionConstantIndex = iota
	FunctionConstantNormalMap
	FunctionConstantMetallicMap
	FunctionConstantRoughnessMap
	FunctionConstantAmbientOcclusionMap
	FunctionConstantEmissionMap
	FunctionConstantSubsurfaceMap
	FunctionConstantSpecularMap
	FunctionConstantSpecularTintMap
	FunctionConstantAnisotropicMap
	FunctionConstantSheenMap
	FunctionConstantSheenTintMap
	FunctionConstantClearcoatMap
	FunctionConstantClearcoatGlossMap

	// NumFunctionConstants is the number of function constants.
	NumFunctionConstants
)

var functionConstantNames = [NumFunctionConstants]string{
	"has_base_color_map",
	"has_normal_map",
	"has_metallic_map",
	"has_roughness_map",
	"has_ambient_occlusion_map",
	"has_emission_map",
	"has_subsurface_map",
	"has_specular_map",
	"has_specular_tint_map",
	"has_anisotropic_map",
	"has_sheen_map",
	"has_sheen_tint_map",
	"has_clearcoat_map",
	"has_clearcoat_gloss_map",
}

// Name returns the WGSL identifier of the constant.
func (f FunctionConstantIndex) Name() string {
	if f < 0 || f >= NumFunctionConstants {
		return fmt.Sprintf("function_constant_%d", int(f))
	}
	return functionConstantNames[f]
}

// HeadingType selects how an entity's heading transform combines with its location.
type HeadingType int

const (
	HeadingTypeAbsolute HeadingType = iota
	HeadingTypeRelative
)

func lookupBufferIndex(name string) (BufferIndex, bool) {
	for i, n := range bufferIndexNames {
		if n == name {
			return BufferIndex(i), true
		}
	}
	return 0, false
}

func lookupTextureIndex(name string) (TextureIndex, bool) {
	for i, n := range textureIndexNames {
		if n == name {
			return TextureIndex(i), true
		}
	}
	return 0, false
}

func lookupFunctionConstant(name string) (FunctionConstantIndex, bool) {
	for i, n := range functionConstantNames {
		if n == name {
			return FunctionConstantIndex(i), true
		}
	}
	return 0, false
}
