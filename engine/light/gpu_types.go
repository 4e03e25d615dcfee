package light

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUEnvironmentUniformsSource is the canonical WGSL definition of the EnvironmentUniforms struct.
// Matches GPUEnvironmentUniforms layout exactly (176 bytes).
//
//go:embed assets/environment_uniforms.wgsl
var GPUEnvironmentUniformsSource string

// GPUEnvironmentUniforms is the per-frame lighting record: ambient light, the estimated
// directional light and the matrices used to render and sample its shadow map.
// Size: 176 bytes.
//
// Layout:
//
//	vec3<f32>   ambient_light_color          (offset   0)
//	f32         ambient_light_intensity      (offset  12)
//	vec3<f32>   directional_light_direction  (offset  16)
//	f32         directional_light_intensity  (offset  28)
//	vec3<f32>   directional_light_color      (offset  32)
//	i32         has_environment_map          (offset  44)
//	mat4x4<f32> directional_light_mvp        (offset  48)
//	mat4x4<f32> shadow_mvp_transform         (offset 112)
type GPUEnvironmentUniforms struct {
	AmbientLightColor         [3]float32
	AmbientLightIntensity     float32
	DirectionalLightDirection [3]float32
	DirectionalLightIntensity float32
	DirectionalLightColor     [3]float32
	HasEnvironmentMap         int32
	DirectionalLightMVP       [16]float32
	ShadowMVPTransform        [16]float32
}

// Size returns the size of the GPUEnvironmentUniforms struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (176)
func (g *GPUEnvironmentUniforms) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUEnvironmentUniforms struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 176-byte buffer ready for GPU upload
func (g *GPUEnvironmentUniforms) Marshal() []byte {
	buf := make([]byte, 176)
	put := func(off int, v float32) {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(v))
	}
	for i := range 3 {
		put(i*4, g.AmbientLightColor[i])
		put(16+i*4, g.DirectionalLightDirection[i])
		put(32+i*4, g.DirectionalLightColor[i])
	}
	put(12, g.AmbientLightIntensity)
	put(28, g.DirectionalLightIntensity)
	binary.LittleEndian.PutUint32(buf[44:48], uint32(g.HasEnvironmentMap))
	for i := range 16 {
		put(48+i*4, g.DirectionalLightMVP[i])
		put(112+i*4, g.ShadowMVPTransform[i])
	}
	return buf
}
