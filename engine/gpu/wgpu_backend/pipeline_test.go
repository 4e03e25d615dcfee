package wgpu_backend

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const vertexSource = `
struct Shared {
    view_projection: mat4x4<f32>,
}
@group(0) @binding(3) var<uniform> shared: Shared;
@group(0) @binding(2) var<storage, read> instances: array<mat4x4<f32>>;
@vertex fn vertex_main() -> @builtin(position) vec4<f32> { return vec4<f32>(0.0); }
`

const fragmentSource = `
struct Shared {
    view_projection: mat4x4<f32>,
}
@group(0) @binding(3) var<uniform> shared: Shared;
@group(1) @binding(14) var environment_map: texture_cube<f32>;
@group(1) @binding(15) var environment_sampler: sampler;
@group(1) @binding(16) var shadow_map: texture_depth_2d;
@group(1) @binding(17) var shadow_sampler: sampler_comparison;
@fragment fn fragment_main() -> @location(0) vec4<f32> { return vec4<f32>(1.0); }
`

func TestMergeBindingsDeduplicatesAcrossStages(t *testing.T) {
	groups := mergeBindings(vertexSource, fragmentSource)
	require.Len(t, groups, 2)

	var buffers []int
	for _, b := range groups[shader.BufferGroup] {
		buffers = append(buffers, b.Binding.Binding)
	}
	assert.Equal(t, []int{2, 3}, buffers)
	assert.Equal(t, uint64(64), groups[shader.BufferGroup][1].MinSize)

	require.Len(t, groups[shader.TextureGroup], 4)
	assert.Equal(t, wgpu.TextureViewDimensionCube, groups[shader.TextureGroup][0].viewDimension)
	assert.Equal(t, wgpu.TextureViewDimension2D, groups[shader.TextureGroup][2].viewDimension)
}

func TestLayoutEntries(t *testing.T) {
	groups := mergeBindings(vertexSource, fragmentSource)

	uniform := layoutEntry(groups[shader.BufferGroup][1])
	assert.Equal(t, wgpu.BufferBindingTypeUniform, uniform.Buffer.Type)
	assert.Equal(t, uint64(64), uniform.Buffer.MinBindingSize)

	storage := layoutEntry(groups[shader.BufferGroup][0])
	assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, storage.Buffer.Type)

	cube := layoutEntry(groups[shader.TextureGroup][0])
	assert.Equal(t, wgpu.TextureSampleTypeFloat, cube.Texture.SampleType)
	assert.Equal(t, wgpu.TextureViewDimensionCube, cube.Texture.ViewDimension)

	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, layoutEntry(groups[shader.TextureGroup][1]).Sampler.Type)
	assert.Equal(t, wgpu.TextureSampleTypeDepth, layoutEntry(groups[shader.TextureGroup][2]).Texture.SampleType)
	assert.Equal(t, wgpu.SamplerBindingTypeComparison, layoutEntry(groups[shader.TextureGroup][3]).Sampler.Type)
}

func TestFormatConversions(t *testing.T) {
	assert.Equal(t, wgpu.TextureFormatDepth24PlusStencil8, textureFormat(gpu.PixelFormatDepth32FloatStencil8))
	assert.Equal(t, wgpu.TextureFormatUndefined, textureFormat(gpu.PixelFormatInvalid))
	for _, f := range []gpu.PixelFormat{
		gpu.PixelFormatRGBA8Unorm, gpu.PixelFormatRGBA8UnormSRGB, gpu.PixelFormatBGRA8Unorm, gpu.PixelFormatBGRA8UnormSRGB,
	} {
		assert.Equal(t, f, pixelFormat(textureFormat(f)), f.String())
	}

	assert.Equal(t, wgpu.PrimitiveTopologyTriangleStrip, topology(gpu.PrimitiveTypeTriangleStrip))
	assert.True(t, isStrip(gpu.PrimitiveTypeLineStrip))
	assert.False(t, isStrip(gpu.PrimitiveTypeTriangle))
	assert.Equal(t, wgpu.IndexFormatUint16, indexFormat(gpu.IndexTypeUInt16))
	assert.Equal(t, wgpu.LoadOpClear, loadOp(gpu.LoadActionDontCare))
	assert.Equal(t, wgpu.StoreOpDiscard, storeOp(gpu.StoreActionMultisampleResolve))

	usage := textureUsage(gpu.TextureUsageShaderRead|gpu.TextureUsageRenderTarget, gpu.PixelFormatDepth32Float)
	assert.Equal(t, wgpu.TextureUsageTextureBinding|wgpu.TextureUsageRenderAttachment, usage)
	assert.NotZero(t, textureUsage(gpu.TextureUsageShaderRead, gpu.PixelFormatRGBA8Unorm)&wgpu.TextureUsageCopyDst)

	assert.Equal(t, 8, align4(5))
	assert.Equal(t, 16, align4(16))
}
