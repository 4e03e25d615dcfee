package camera

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// GPUSharedUniformsSource is the canonical WGSL definition of the SharedUniforms struct.
// Matches GPUSharedUniforms layout exactly (144 bytes).
//
//go:embed assets/shared_uniforms.wgsl
var GPUSharedUniformsSource string

// GPUSharedUniforms is the per-frame camera record every module reads.
// Size: 144 bytes.
type GPUSharedUniforms struct {
	Projection [16]float32 // offset   0: camera projection (mat4x4<f32>)
	View       [16]float32 // offset  64: world to camera (mat4x4<f32>)
	UseDepth   int32       // offset 128: 1 when scene depth occlusion is enabled
	_          [3]int32    // offset 132: padding to 144 bytes
}

// Size returns the size of the GPUSharedUniforms struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (144)
func (g *GPUSharedUniforms) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUSharedUniforms struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUSharedUniforms) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.Projection[i]))
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(g.View[i]))
	}
	binary.LittleEndian.PutUint32(buf[128:], uint32(g.UseDepth))
	return buf
}

// NewSharedUniforms builds the shared record from a tracked camera pose.
//
// Parameters:
//   - cameraTransform: camera to world transform of the tracked device
//   - projection: the camera projection
//   - useDepth: whether scene depth occlusion is enabled
//
// Returns:
//   - GPUSharedUniforms: the record with View set to the inverse of cameraTransform
func NewSharedUniforms(cameraTransform, projection mgl32.Mat4, useDepth bool) GPUSharedUniforms {
	u := GPUSharedUniforms{
		Projection: [16]float32(projection),
		View:       [16]float32(cameraTransform.Inv()),
	}
	if useDepth {
		u.UseDepth = 1
	}
	return u
}
