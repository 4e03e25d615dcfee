package common

import (
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// StructToBytes reinterprets a pointer to a struct as a raw byte slice using unsafe.
// The returned slice has length equal to the struct's size in memory.
//
// Parameters:
//   - v: pointer to the struct to reinterpret
//
// Returns:
//   - []byte: byte slice view of the struct's memory
func StructToBytes[T any](v *T) []byte {
	size := unsafe.Sizeof(*v)
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), int(size))
}

// Translation returns the translation column of a column-major transform.
//
// Parameters:
//   - m: the transform
//
// Returns:
//   - mgl32.Vec3: the world-space position encoded in m
func Translation(m mgl32.Mat4) mgl32.Vec3 {
	return m.Col(3).Vec3()
}

// WithTranslation returns m with its translation column replaced by p.
//
// Parameters:
//   - m: the source transform
//   - p: the new position
//
// Returns:
//   - mgl32.Mat4: the transform with the new translation
func WithTranslation(m mgl32.Mat4, p mgl32.Vec3) mgl32.Mat4 {
	m.SetCol(3, p.Vec4(1))
	return m
}

// LerpMat4 linearly interpolates every element of two transforms.
// Rotation components are not re-orthonormalised; callers interpolating over small
// fractional steps accept the slight shear this introduces mid-flight.
//
// Parameters:
//   - from: the transform at progress 0
//   - to: the transform at progress 1
//   - progress: the interpolation factor, clamped to [0, 1]
//
// Returns:
//   - mgl32.Mat4: the interpolated transform
func LerpMat4(from, to mgl32.Mat4, progress float32) mgl32.Mat4 {
	progress = mgl32.Clamp(progress, 0, 1)
	var out mgl32.Mat4
	for i := range out {
		out[i] = from[i] + (to[i]-from[i])*progress
	}
	return out
}

// YawToward returns a rotation about +Y that turns the -Z forward axis of an object at
// `from` toward `to`, ignoring any vertical offset between them.
//
// Parameters:
//   - from: the object position
//   - to: the position to face
//
// Returns:
//   - mgl32.Mat4: the yaw-only rotation, identity when both points share the same XZ position
func YawToward(from, to mgl32.Vec3) mgl32.Mat4 {
	dx := to.X() - from.X()
	dz := to.Z() - from.Z()
	if dx == 0 && dz == 0 {
		return mgl32.Ident4()
	}
	yaw := float32(math.Atan2(float64(-dx), float64(-dz)))
	return mgl32.HomogRotate3DY(yaw)
}

// Distance returns the euclidean distance between two points.
//
// Parameters:
//   - a, b: the points to measure between
//
// Returns:
//   - float32: |a - b|
func Distance(a, b mgl32.Vec3) float32 {
	return a.Sub(b).Len()
}

// Mat4Array copies an mgl32 matrix into the plain array form used by GPU records.
//
// Parameters:
//   - m: the matrix to copy
//
// Returns:
//   - [16]float32: the column-major element array
func Mat4Array(m mgl32.Mat4) [16]float32 {
	return [16]float32(m)
}

// zeroToOneDepth remaps clip-space z from [-1, 1] to the [0, 1] range WebGPU expects.
var zeroToOneDepth = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// Perspective builds a right-handed perspective projection with a [0, 1] depth range.
//
// Parameters:
//   - fovy: vertical field of view in radians
//   - aspect: width / height
//   - near, far: the clip plane distances
//
// Returns:
//   - mgl32.Mat4: the projection matrix
func Perspective(fovy, aspect, near, far float32) mgl32.Mat4 {
	return zeroToOneDepth.Mul4(mgl32.Perspective(fovy, aspect, near, far))
}

// Ortho builds a right-handed orthographic projection with a [0, 1] depth range.
//
// Parameters:
//   - left, right, bottom, top: the view volume extents
//   - near, far: the clip plane distances
//
// Returns:
//   - mgl32.Mat4: the projection matrix
func Ortho(left, right, bottom, top, near, far float32) mgl32.Mat4 {
	return zeroToOneDepth.Mul4(mgl32.Ortho(left, right, bottom, top, near, far))
}
