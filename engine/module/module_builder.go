package module

import (
	"github.com/Carmen-Shannon/oxy-ar/engine/asset"
	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
)

// MeshModuleOption is a functional option used to configure a mesh module during construction.
type MeshModuleOption func(*meshModule)

// WithMaxInstances sets how many instances the module can draw in one frame. Instances past the
// capacity are dropped and a warning is logged once.
//
// Parameters:
//   - n: the capacity, ignored when not positive
//
// Returns:
//   - MeshModuleOption: a function that sets the capacity
func WithMaxInstances(n int) MeshModuleOption {
	return func(m *meshModule) {
		if n > 0 {
			m.maxInstances = n
		}
	}
}

// WithCastsShadows sets whether the module's groups are drawn in the shadow pass.
//
// Parameters:
//   - castsShadows: true to draw in the shadow pass
//
// Returns:
//   - MeshModuleOption: a function that sets the flag
func WithCastsShadows(castsShadows bool) MeshModuleOption {
	return func(m *meshModule) {
		m.castsShadows = castsShadows
	}
}

// WithCullMode sets the face culling of every draw call the module builds.
//
// Parameters:
//   - mode: the cull mode
//
// Returns:
//   - MeshModuleOption: a function that sets the cull mode
func WithCullMode(mode gpu.CullMode) MeshModuleOption {
	return func(m *meshModule) {
		m.cullMode = mode
	}
}

// WithGeometries requests geometries up front so the first initialization batch loads them.
//
// Parameters:
//   - handles: the geometries
//
// Returns:
//   - MeshModuleOption: a function that requests the geometries
func WithGeometries(handles ...asset.Handle) MeshModuleOption {
	return func(m *meshModule) {
		for _, h := range handles {
			m.RequestGeometry(h)
		}
	}
}

// WithPathWidth sets the diameter of path segments in meters. Only the paths module reads it.
func WithPathWidth(width float32) MeshModuleOption {
	return func(m *meshModule) {
		if width > 0 {
			m.pathWidth = width
		}
	}
}
