package model

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func triangle() MeshSource {
	return MeshSource{
		Name: "tri",
		Vertices: []Vertex{
			{Position: [3]float32{0, 1, 0}, Color: [4]float32{1, 1, 1, 1}},
			{Position: [3]float32{-1, 0, 0}, Color: [4]float32{1, 1, 1, 1}},
			{Position: [3]float32{0, 0, 2}, Color: [4]float32{1, 1, 1, 1}},
		},
		Indices: []uint32{0, 1, 2},
	}
}

func TestRecordLayoutsMatchShaderStructs(t *testing.T) {
	cases := []struct {
		source string
		name   string
		size   int
	}{
		{GPUAnchorInstanceUniformsSource, "AnchorInstanceUniforms", (&GPUAnchorInstanceUniforms{}).Size()},
		{GPUAnchorEffectsUniformsSource, "AnchorEffectsUniforms", (&GPUAnchorEffectsUniforms{}).Size()},
		{GPUPaletteSizeSource, "PaletteSize", (&GPUPaletteSize{}).Size()},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			layouts := shader.StructLayouts(c.source)
			require.Contains(t, layouts, c.name)
			assert.Equal(t, uint64(c.size), layouts[c.name].Size)
		})
	}
	assert.Equal(t, 272, (&GPUAnchorInstanceUniforms{}).Size())
	assert.Equal(t, 96, (&GPUAnchorEffectsUniforms{}).Size())
}

func TestVertexStreamsPack(t *testing.T) {
	src := triangle()
	positions, generics := PackVertices(src.Vertices)
	assert.Len(t, positions, 3*12)
	assert.Len(t, generics, 3*76)

	g := GPUVertexGenerics{Color: [4]float32{1, 1, 1, 1}}
	assert.Equal(t, g.Marshal(), generics[:76])

	desc := VertexDescriptor()
	layout, ok := desc.Layout(int(shader.BufferIndexMeshGenerics))
	require.True(t, ok)
	assert.Equal(t, uint64(76), layout.Stride)
	assert.Len(t, desc.Attributes, 7)
}

func TestPackIndicesChoosesSmallestType(t *testing.T) {
	buf, typ := PackIndices([]uint32{0, 1, 2}, 3)
	assert.Equal(t, gpu.IndexTypeUInt16, typ)
	assert.Len(t, buf, 6)

	buf, typ = PackIndices([]uint32{0, 1, 70000}, 70001)
	assert.Equal(t, gpu.IndexTypeUInt32, typ)
	assert.Len(t, buf, 12)
}

func TestUploadBuildsModel(t *testing.T) {
	device := gpu.NewHeadlessDevice()
	m, err := Upload(device, triangle())
	require.NoError(t, err)

	assert.Equal(t, "tri", m.Name())
	assert.Equal(t, 3, m.VertexCount())
	assert.Equal(t, gpu.IndexTypeUInt16, m.IndexType())
	require.Len(t, m.Submeshes(), 1)
	assert.Equal(t, 3, m.Submeshes()[0].IndexCount)
	require.Len(t, m.Materials(), 1, "a default material is created")
	assert.InDelta(t, 2.0, m.BoundingRadius(), 1e-6)
	assert.Nil(t, m.Palette())

	_, err = Upload(device, MeshSource{Name: "empty"})
	assert.Error(t, err)
}

func TestModelBindings(t *testing.T) {
	device := gpu.NewHeadlessDevice()
	base, err := device.MakeTexture(gpu.TextureDescriptor{Label: "base", Width: 1, Height: 1, Format: gpu.PixelFormatRGBA8Unorm})
	require.NoError(t, err)

	src := triangle()
	src.Materials = []material.Material{
		material.NewMaterial(material.WithName("plain")),
		material.NewMaterial(material.WithName("textured"), material.WithTexture(material.TextureSlotBaseColor, base)),
	}
	src.Submeshes = []Submesh{{IndexOffset: 0, IndexCount: 3, MaterialIndex: 1}}
	src.Palette = []mgl32.Mat4{mgl32.Ident4(), mgl32.Ident4()}
	m, err := Upload(device, src)
	require.NoError(t, err)
	assert.True(t, m.PresentSlots().Has(material.TextureSlotBaseColor))
	require.NotNil(t, m.Palette())
	assert.Equal(t, 2, m.Palette().JointCount)

	queue, err := device.MakeCommandQueue("q")
	require.NoError(t, err)
	cb, err := queue.MakeCommandBuffer("cb")
	require.NoError(t, err)
	enc, err := cb.MakeRenderCommandEncoder(&gpu.RenderPassDescriptor{})
	require.NoError(t, err)
	m.BindVertexStreams(enc)
	m.BindMaterial(enc, m.Submeshes()[0], material.QualityLevelHigh)
	enc.EndEncoding()

	var vertexIndices []int
	var materialOffset = -1
	var textures []int
	for _, e := range device.Events() {
		switch e.Kind {
		case gpu.EventSetVertexBuffer:
			vertexIndices = append(vertexIndices, e.Index)
		case gpu.EventSetFragmentBuffer:
			if e.Index == int(shader.BufferIndexMaterialUniforms) {
				materialOffset = e.Offset
			}
		case gpu.EventSetFragmentTexture:
			textures = append(textures, e.Index)
		}
	}
	assert.Equal(t, []int{
		int(shader.BufferIndexMeshPositions),
		int(shader.BufferIndexMeshGenerics),
		int(shader.BufferIndexMeshPalettes),
	}, vertexIndices)
	assert.Equal(t, 256, materialOffset, "second material record sits one aligned stride in")
	assert.Equal(t, []int{int(shader.TextureIndexColor)}, textures)
}
