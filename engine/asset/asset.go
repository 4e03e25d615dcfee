// Package asset defines how geometry and textures reach the engine: a Provider loads
// MeshData asynchronously for a geometry Handle, a TextureLoader turns texture references into
// GPU textures, and Upload builds the GPU-resident model.Model from both.
package asset

import (
	"context"
	"errors"

	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ar/engine/model"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrUnknownGeometry is returned when a provider has nothing registered for a handle.
	ErrUnknownGeometry = errors.New("asset: unknown geometry handle")

	// ErrEmptyGeometry is returned when a load produces no drawable triangles.
	ErrEmptyGeometry = errors.New("asset: geometry has no triangles")
)

// Handle identifies one piece of geometry within a Provider, such as a file path or the
// name of a built-in primitive.
type Handle string

// TextureRef points at the image for one material map. Data holds embedded image bytes;
// when it is empty the image is read from Path.
type TextureRef struct {
	Name string
	Path string
	Data []byte
}

// Key returns the identifier used to share loaded textures between materials.
func (r TextureRef) Key() string {
	if r.Path != "" {
		return r.Path
	}
	return r.Name
}

// Material describes a surface before upload. Every map is either a uniform value or a
// texture reference; a reference whose texture fails to load leaves the uniform in effect.
type Material struct {
	Name          string
	BaseColor     [4]float32
	EmissionColor [4]float32
	Scalars       material.Scalars
	Textures      map[material.TextureSlot]TextureRef
}

// DefaultMaterial returns an untextured white, fully rough material.
//
// Parameters:
//   - name: the material name
//
// Returns:
//   - Material: the material
func DefaultMaterial(name string) Material {
	return Material{
		Name:      name,
		BaseColor: [4]float32{1, 1, 1, 1},
		Scalars: material.Scalars{
			Roughness:        1,
			AmbientOcclusion: 1,
			Opacity:          1,
		},
	}
}

// MeshData is the CPU-side result of a geometry load.
type MeshData struct {
	Name      string
	Vertices  []model.Vertex
	Indices   []uint32
	Submeshes []model.Submesh
	Materials []Material

	// Palette holds the joint matrices of a skinned mesh.
	Palette []mgl32.Mat4
}

// Provider loads geometry asynchronously. LoadGeometry returns immediately and calls
// completion exactly once, from any goroutine, with either the data or an error. Failed
// loads are not retried.
type Provider interface {
	LoadGeometry(ctx context.Context, handle Handle, completion func(*MeshData, error))
}

// TextureLoader creates GPU textures from texture references. A failed load returns nil and
// the material slot is treated as absent.
type TextureLoader interface {
	// LoadTexture decodes and uploads the referenced image.
	//
	// Parameters:
	//   - device: the device to allocate the texture on
	//   - ref: the image reference
	//   - srgb: whether the image holds color data to be sampled with sRGB decoding
	//
	// Returns:
	//   - gpu.Texture: the texture, or nil when the image cannot be loaded
	LoadTexture(device gpu.Device, ref TextureRef, srgb bool) gpu.Texture
}

type loadResult struct {
	data *MeshData
	err  error
}

// Await blocks until the provider completes the load of handle or ctx is done.
//
// Parameters:
//   - ctx: bounds the wait
//   - p: the provider
//   - handle: the geometry to load
//
// Returns:
//   - *MeshData: the loaded data
//   - error: the load error or ctx.Err()
func Await(ctx context.Context, p Provider, handle Handle) (*MeshData, error) {
	ch := make(chan loadResult, 1)
	p.LoadGeometry(ctx, handle, func(data *MeshData, err error) {
		ch <- loadResult{data: data, err: err}
	})
	select {
	case r := <-ch:
		return r.data, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
