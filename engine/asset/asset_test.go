package asset

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/material"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// triangleBuffer holds three float positions followed by three uint16 indices.
func triangleBuffer() []byte {
	buf := make([]byte, 36+6)
	positions := []float32{0, 0, 0, 1, 0, 0, 0, 0, -1}
	for i, v := range positions {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	for i, idx := range []uint16{0, 1, 2} {
		binary.LittleEndian.PutUint16(buf[36+i*2:], idx)
	}
	return buf
}

const triangleDocument = `{
  "asset": {"version": "2.0"},
  "scene": 0,
  "scenes": [{"nodes": [0]}],
  "nodes": [{"mesh": 0, "translation": [0, 2, 0]}],
  "meshes": [{"primitives": [{"attributes": {"POSITION": 0}, "indices": 1, "material": 0}]}],
  "materials": [{"name": "red", "pbrMetallicRoughness": {"baseColorFactor": [1, 0, 0, 1], "roughnessFactor": 0.25}}],
  "accessors": [
    {"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"},
    {"bufferView": 1, "componentType": 5123, "count": 3, "type": "SCALAR"}
  ],
  "bufferViews": [
    {"buffer": 0, "byteOffset": 0, "byteLength": 36},
    {"buffer": 0, "byteOffset": 36, "byteLength": 6}
  ],
  "buffers": [{"byteLength": 42%s}]
}`

func TestStaticProviderServesPrimitives(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	p := NewStaticProvider()

	for _, h := range []Handle{HandleQuad, HandleCube, HandleCylinder} {
		data, err := Await(ctx, p, h)
		require.NoError(t, err, h)
		assert.NotEmpty(t, data.Vertices, h)
		assert.Zero(t, len(data.Indices)%3, h)
		for _, idx := range data.Indices {
			assert.Less(t, int(idx), len(data.Vertices), h)
		}
	}

	_, err := Await(ctx, p, "missing")
	assert.ErrorIs(t, err, ErrUnknownGeometry)

	custom := Quad()
	custom.Name = "custom"
	p.Register("custom", custom)
	data, err := Await(ctx, p, "custom")
	require.NoError(t, err)
	assert.Equal(t, "custom", data.Name)
	assert.Len(t, p.Handles(), 4)
}

func TestStaticProviderHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan error, 1)
	NewStaticProvider().LoadGeometry(ctx, HandleCube, func(_ *MeshData, err error) { done <- err })
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("completion was never called")
	}
}

func TestUploadWithoutLoader(t *testing.T) {
	device := gpu.NewHeadlessDevice()
	m, err := Upload(device, Cube(), nil)
	require.NoError(t, err)
	assert.Equal(t, 24, m.VertexCount())
	assert.Len(t, m.Materials(), 1)
	assert.Zero(t, m.PresentSlots())

	_, err = Upload(device, &MeshData{Name: "empty"}, nil)
	assert.ErrorIs(t, err, ErrEmptyGeometry)
}

func TestFileTextureLoader(t *testing.T) {
	device := gpu.NewHeadlessDevice()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "albedo.png"), testPNG(t), 0o644))
	loader := NewFileTextureLoader(dir)

	tex := loader.LoadTexture(device, TextureRef{Name: "albedo", Path: "albedo.png"}, true)
	require.NotNil(t, tex)
	assert.Equal(t, 2, tex.Width())
	assert.Equal(t, gpu.PixelFormatRGBA8UnormSRGB, tex.Format())
	assert.Same(t, tex, loader.LoadTexture(device, TextureRef{Name: "albedo", Path: "albedo.png"}, true))

	linear := loader.LoadTexture(device, TextureRef{Name: "albedo", Path: "albedo.png"}, false)
	require.NotNil(t, linear)
	assert.Equal(t, gpu.PixelFormatRGBA8Unorm, linear.Format())

	embedded := loader.LoadTexture(device, TextureRef{Name: "inline", Data: testPNG(t)}, false)
	assert.NotNil(t, embedded)

	assert.Nil(t, loader.LoadTexture(device, TextureRef{Name: "gone", Path: "gone.png"}, false))
	assert.Nil(t, loader.LoadTexture(device, TextureRef{Name: "junk", Data: []byte("not an image")}, false))
}

func TestUploadSkipsMissingTextures(t *testing.T) {
	device := gpu.NewHeadlessDevice()
	data := Quad()
	data.Materials[0].Textures = map[material.TextureSlot]TextureRef{
		material.TextureSlotBaseColor: {Name: "inline", Data: testPNG(t)},
		material.TextureSlotNormal:    {Name: "missing", Path: "missing.png"},
	}
	m, err := Upload(device, data, NewFileTextureLoader(t.TempDir()))
	require.NoError(t, err)
	assert.True(t, m.PresentSlots().Has(material.TextureSlotBaseColor))
	assert.False(t, m.PresentSlots().Has(material.TextureSlotNormal))
}

func TestDecodeGLTFEmbeddedBuffer(t *testing.T) {
	uri := `, "uri": "data:application/octet-stream;base64,` + base64.StdEncoding.EncodeToString(triangleBuffer()) + `"`
	data, err := DecodeGLTF([]byte(fmt.Sprintf(triangleDocument, uri)), ".", "tri")
	require.NoError(t, err)

	require.Len(t, data.Vertices, 3)
	assert.Equal(t, []uint32{0, 1, 2}, data.Indices)
	assert.Equal(t, [3]float32{1, 2, 0}, data.Vertices[1].Position, "node translation is baked in")
	assert.InDelta(t, 1.0, float64(data.Vertices[0].Normal[1]), 1e-6, "missing normals are generated")

	require.Len(t, data.Submeshes, 1)
	require.Len(t, data.Materials, 1)
	assert.Equal(t, "red", data.Materials[0].Name)
	assert.Equal(t, [4]float32{1, 0, 0, 1}, data.Materials[0].BaseColor)
	assert.InDelta(t, 0.25, float64(data.Materials[0].Scalars.Roughness), 1e-6)
}

func TestDecodeGLB(t *testing.T) {
	jsonChunk := []byte(fmt.Sprintf(triangleDocument, ""))
	for len(jsonChunk)%4 != 0 {
		jsonChunk = append(jsonChunk, ' ')
	}
	bin := triangleBuffer()
	for len(bin)%4 != 0 {
		bin = append(bin, 0)
	}
	var glb bytes.Buffer
	write := func(v uint32) { _ = binary.Write(&glb, binary.LittleEndian, v) }
	write(glbMagic)
	write(glbVersion)
	write(uint32(12 + 8 + len(jsonChunk) + 8 + len(bin)))
	write(uint32(len(jsonChunk)))
	write(glbChunkJSON)
	glb.Write(jsonChunk)
	write(uint32(len(bin)))
	write(glbChunkBIN)
	glb.Write(bin)

	data, err := DecodeGLTF(glb.Bytes(), ".", "tri")
	require.NoError(t, err)
	assert.Len(t, data.Vertices, 3)
}

func TestGLTFProviderLoadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tri.bin"), triangleBuffer(), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tri.gltf"), []byte(fmt.Sprintf(triangleDocument, `, "uri": "tri.bin"`)), 0o644))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	p := NewGLTFProvider(WithBaseDir(dir))

	data, err := Await(ctx, p, "tri.gltf")
	require.NoError(t, err)
	assert.Equal(t, "tri.gltf", data.Name)
	assert.Len(t, data.Indices, 3)

	_, err = Await(ctx, p, "nope.gltf")
	assert.ErrorIs(t, err, ErrUnknownGeometry)
}

func TestChainProviderFallsThroughUnknownHandles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tri.bin"), triangleBuffer(), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tri.gltf"), []byte(fmt.Sprintf(triangleDocument, `, "uri": "tri.bin"`)), 0o644))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	p := NewChainProvider(NewStaticProvider(), NewGLTFProvider(WithBaseDir(dir)))

	cube, err := Await(ctx, p, HandleCube)
	require.NoError(t, err)
	assert.NotEmpty(t, cube.Vertices)

	tri, err := Await(ctx, p, "tri.gltf")
	require.NoError(t, err)
	assert.Len(t, tri.Indices, 3)

	_, err = Await(ctx, p, "missing.glb")
	assert.ErrorIs(t, err, ErrUnknownGeometry)

	_, err = Await(ctx, NewChainProvider(), HandleQuad)
	assert.ErrorIs(t, err, ErrUnknownGeometry)
}

func TestDecodeGLTFRejectsBadInput(t *testing.T) {
	_, err := DecodeGLTF([]byte(`{"asset": {"version": "1.0"}}`), ".", "old")
	assert.ErrorIs(t, err, errInvalidGLTFVersion)

	_, err = DecodeGLTF([]byte(`{"asset": {"version": "2.0"}}`), ".", "empty")
	assert.ErrorIs(t, err, ErrEmptyGeometry)

	_, err = DecodeGLTF([]byte(`{`), ".", "broken")
	assert.Error(t, err)
}
