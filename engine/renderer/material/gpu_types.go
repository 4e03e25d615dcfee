package material

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUMaterialUniformsSource is the canonical WGSL definition of the MaterialUniforms struct.
// Matches GPUMaterialUniforms layout exactly (80 bytes).
//
//go:embed assets/material_uniforms.wgsl
var GPUMaterialUniformsSource string

// GPUMaterialUniforms is the per-submesh material record read by the PBR fragment shaders.
// Matches the WGSL MaterialUniforms struct layout exactly (see GPUMaterialUniformsSource).
// Size: 80 bytes.
type GPUMaterialUniforms struct {
	BaseColor        [4]float32 // offset 0
	EmissionColor    [4]float32 // offset 16
	Roughness        float32    // offset 32
	Metalness        float32    // offset 36
	AmbientOcclusion float32    // offset 40
	Opacity          float32    // offset 44
	Subsurface       float32    // offset 48
	Specular         float32    // offset 52
	SpecularTint     float32    // offset 56
	Anisotropic      float32    // offset 60
	Sheen            float32    // offset 64
	SheenTint        float32    // offset 68
	Clearcoat        float32    // offset 72
	ClearcoatGloss   float32    // offset 76
}

// Size returns the size of the GPUMaterialUniforms struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUMaterialUniforms) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUMaterialUniforms struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 80-byte buffer ready for GPU upload.
func (g *GPUMaterialUniforms) Marshal() []byte {
	buf := make([]byte, 80)
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.BaseColor[i]))
		binary.LittleEndian.PutUint32(buf[16+i*4:], math.Float32bits(g.EmissionColor[i]))
	}
	scalars := [12]float32{
		g.Roughness, g.Metalness, g.AmbientOcclusion, g.Opacity,
		g.Subsurface, g.Specular, g.SpecularTint, g.Anisotropic,
		g.Sheen, g.SheenTint, g.Clearcoat, g.ClearcoatGloss,
	}
	for i, v := range scalars {
		binary.LittleEndian.PutUint32(buf[32+i*4:], math.Float32bits(v))
	}
	return buf
}
