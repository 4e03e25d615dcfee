package model

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUVertexSource is the canonical WGSL definition of the MeshVertex input struct. Locations
// follow the vertex attribute table; positions come from one stream and everything else from
// the generics stream.
//
//go:embed assets/vertex.wgsl
var GPUVertexSource string

// GPUVertexPosition is one element of the position stream.
// Size: 12 bytes.
type GPUVertexPosition struct {
	Position [3]float32 // offset 0
}

// Size returns the size of the GPUVertexPosition struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUVertexPosition) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUVertexPosition struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 12-byte buffer ready for GPU upload.
func (g *GPUVertexPosition) Marshal() []byte {
	buf := make([]byte, 12)
	putFloats(buf, g.Position[:])
	return buf
}

// GPUVertexGenerics is one element of the generics stream.
// Size: 76 bytes.
type GPUVertexGenerics struct {
	TexCoord     [2]float32 // offset  0
	Normal       [3]float32 // offset  8
	Tangent      [4]float32 // offset 20
	JointIndices [4]uint16  // offset 36
	JointWeights [4]float32 // offset 44
	Color        [4]float32 // offset 60
}

// Size returns the size of the GPUVertexGenerics struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUVertexGenerics) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUVertexGenerics struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 76-byte buffer ready for GPU upload.
func (g *GPUVertexGenerics) Marshal() []byte {
	buf := make([]byte, 76)
	putFloats(buf[0:], g.TexCoord[:])
	putFloats(buf[8:], g.Normal[:])
	putFloats(buf[20:], g.Tangent[:])
	for i, j := range g.JointIndices {
		binary.LittleEndian.PutUint16(buf[36+i*2:], j)
	}
	putFloats(buf[44:], g.JointWeights[:])
	putFloats(buf[60:], g.Color[:])
	return buf
}

// GPUAnchorInstanceUniformsSource is the canonical WGSL definition of the AnchorInstanceUniforms struct.
// Matches GPUAnchorInstanceUniforms layout exactly (272 bytes).
//
//go:embed assets/anchor_instance_uniforms.wgsl
var GPUAnchorInstanceUniformsSource string

// GPUAnchorInstanceUniforms is the per-instance record of every world-placed mesh. The world
// transform is the final model matrix; heading and location are kept separately so shaders
// can rebuild orientation-only effects.
// Size: 272 bytes.
type GPUAnchorInstanceUniforms struct {
	HasGeometry       int32       // offset   0
	HasHeading        int32       // offset   4
	HeadingType       int32       // offset   8
	_                 int32       // offset  12
	HeadingTransform  [16]float32 // offset  16
	LocationTransform [16]float32 // offset  80
	WorldTransform    [16]float32 // offset 144
	MapWeights        [14]float32 // offset 208: one weight per material map, 1 when sampled at the drawn quality level
	_                 [2]float32  // offset 264
}

// Size returns the size of the GPUAnchorInstanceUniforms struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUAnchorInstanceUniforms) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUAnchorInstanceUniforms struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 272-byte buffer ready for GPU upload.
func (g *GPUAnchorInstanceUniforms) Marshal() []byte {
	buf := make([]byte, 272)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(g.HasGeometry))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(g.HasHeading))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(g.HeadingType))
	putFloats(buf[16:], g.HeadingTransform[:])
	putFloats(buf[80:], g.LocationTransform[:])
	putFloats(buf[144:], g.WorldTransform[:])
	putFloats(buf[208:], g.MapWeights[:])
	return buf
}

// GPUAnchorEffectsUniformsSource is the canonical WGSL definition of the AnchorEffectsUniforms struct.
// Matches GPUAnchorEffectsUniforms layout exactly (96 bytes).
//
//go:embed assets/anchor_effects_uniforms.wgsl
var GPUAnchorEffectsUniformsSource string

// GPUAnchorEffectsUniforms carries per-instance fade, glow, tint and scale effects.
// Size: 96 bytes.
type GPUAnchorEffectsUniforms struct {
	Alpha float32     // offset  0
	Glow  float32     // offset  4
	_     [2]float32  // offset  8
	Tint  [3]float32  // offset 16
	_     float32     // offset 28
	Scale [16]float32 // offset 32
}

// Size returns the size of the GPUAnchorEffectsUniforms struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUAnchorEffectsUniforms) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUAnchorEffectsUniforms struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 96-byte buffer ready for GPU upload.
func (g *GPUAnchorEffectsUniforms) Marshal() []byte {
	buf := make([]byte, 96)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Alpha))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Glow))
	putFloats(buf[16:], g.Tint[:])
	putFloats(buf[32:], g.Scale[:])
	return buf
}

// DefaultEffects returns the neutral effects record: opaque, no glow, white tint, unit scale.
//
// Returns:
//   - GPUAnchorEffectsUniforms: the record
func DefaultEffects() GPUAnchorEffectsUniforms {
	return GPUAnchorEffectsUniforms{
		Alpha: 1,
		Tint:  [3]float32{1, 1, 1},
		Scale: [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1},
	}
}

// GPUPaletteSizeSource is the canonical WGSL definition of the PaletteSize struct.
// Matches GPUPaletteSize layout exactly (16 bytes).
//
//go:embed assets/palette_size.wgsl
var GPUPaletteSizeSource string

// GPUPaletteSize tells the skinning vertex shader how many palette matrices are bound.
// Size: 16 bytes.
type GPUPaletteSize struct {
	JointCount uint32    // offset 0
	_          [3]uint32 // offset 4
}

// Size returns the size of the GPUPaletteSize struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUPaletteSize) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUPaletteSize struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload.
func (g *GPUPaletteSize) Marshal() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], g.JointCount)
	return buf
}

func putFloats(buf []byte, values []float32) {
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
}
