package asset

import (
	"context"
	"fmt"
	"sync"
)

// StaticProvider serves geometry held in memory. The built-in quad, cube and cylinder are
// always available.
type StaticProvider interface {
	Provider

	// Register makes data available under handle, replacing any earlier registration.
	//
	// Parameters:
	//   - handle: the geometry handle
	//   - data: the mesh data; it is shared, not copied
	Register(handle Handle, data *MeshData)

	// Handles returns every registered handle.
	Handles() []Handle
}

type staticProvider struct {
	mu     sync.RWMutex
	meshes map[Handle]*MeshData
}

var _ StaticProvider = &staticProvider{}

// NewStaticProvider creates a StaticProvider preloaded with the built-in primitives.
//
// Returns:
//   - StaticProvider: the provider
func NewStaticProvider() StaticProvider {
	return &staticProvider{
		meshes: map[Handle]*MeshData{
			HandleQuad:     Quad(),
			HandleCube:     Cube(),
			HandleCylinder: Cylinder(),
		},
	}
}

func (p *staticProvider) Register(handle Handle, data *MeshData) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.meshes[handle] = data
}

func (p *staticProvider) Handles() []Handle {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Handle, 0, len(p.meshes))
	for h := range p.meshes {
		out = append(out, h)
	}
	return out
}

func (p *staticProvider) LoadGeometry(ctx context.Context, handle Handle, completion func(*MeshData, error)) {
	p.mu.RLock()
	data, ok := p.meshes[handle]
	p.mu.RUnlock()
	go func() {
		if err := ctx.Err(); err != nil {
			completion(nil, err)
			return
		}
		if !ok {
			completion(nil, fmt.Errorf("%w: %q", ErrUnknownGeometry, handle))
			return
		}
		completion(data, nil)
	}()
}
