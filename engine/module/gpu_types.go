package module

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

//go:embed assets/mesh.wgsl
var meshShaderSource string

//go:embed assets/camera_background.wgsl
var cameraBackgroundShaderSource string

//go:embed assets/tracking_points.wgsl
var trackingPointsShaderSource string

// GPUDrawCallGroupIndexSource is the canonical WGSL definition of the DrawCallGroupIndex struct.
// Matches GPUDrawCallGroupIndex layout exactly (16 bytes).
//
//go:embed assets/draw_call_group_index.wgsl
var GPUDrawCallGroupIndexSource string

// GPUDrawCallGroupIndex is bound inline before each group is drawn so shaders find the
// group's first record in the module's instance buffers.
// Size: 16 bytes.
type GPUDrawCallGroupIndex struct {
	GroupIndex    uint32    // offset 0
	FirstInstance uint32    // offset 4
	_             [2]uint32 // offset 8
}

// Size returns the size of the GPUDrawCallGroupIndex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUDrawCallGroupIndex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUDrawCallGroupIndex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload.
func (g *GPUDrawCallGroupIndex) Marshal() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], g.GroupIndex)
	binary.LittleEndian.PutUint32(buf[4:8], g.FirstInstance)
	return buf
}

// GPUTrackingPointSource is the canonical WGSL definition of the TrackingPoint struct.
// Matches GPUTrackingPoint layout exactly (16 bytes).
//
//go:embed assets/tracking_point.wgsl
var GPUTrackingPointSource string

// GPUTrackingPoint is one raw feature point of the debug point cloud.
// Size: 16 bytes.
type GPUTrackingPoint struct {
	Position  [3]float32 // offset  0
	PointSize float32    // offset 12: billboard edge length in meters
}

// Size returns the size of the GPUTrackingPoint struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUTrackingPoint) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUTrackingPoint struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload.
func (g *GPUTrackingPoint) Marshal() []byte {
	buf := make([]byte, 16)
	for i, v := range g.Position {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	binary.LittleEndian.PutUint32(buf[12:], math.Float32bits(g.PointSize))
	return buf
}
