package renderer

import (
	"github.com/Carmen-Shannon/oxy-ar/engine/asset"
	"github.com/Carmen-Shannon/oxy-ar/engine/light"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithConfig replaces the default configuration. Invalid configurations are ignored.
//
// Parameters:
//   - cfg: the configuration
//
// Returns:
//   - RendererBuilderOption: a function that applies the config option to a renderer
func WithConfig(cfg Config) RendererBuilderOption {
	return func(r *renderer) {
		if cfg.Validate() == nil {
			r.cfg = cfg
		}
	}
}

// WithObserver registers an observer before the first state change.
//
// Parameters:
//   - o: the observer
//
// Returns:
//   - RendererBuilderOption: a function that applies the observer option to a renderer
func WithObserver(o Observer) RendererBuilderOption {
	return func(r *renderer) {
		if o != nil {
			r.observers = append(r.observers, o)
		}
	}
}

// WithAssetProvider sets the provider modules load geometry through.
// When not specified, an asset.StaticProvider serving the built-in primitives is used.
//
// Parameters:
//   - p: the provider
//
// Returns:
//   - RendererBuilderOption: a function that applies the provider option to a renderer
func WithAssetProvider(p asset.Provider) RendererBuilderOption {
	return func(r *renderer) {
		r.provider = p
	}
}

// WithTextureLoader sets the loader material textures are read through.
// When not specified, materials keep their uniform values.
//
// Parameters:
//   - l: the texture loader
//
// Returns:
//   - RendererBuilderOption: a function that applies the texture loader option to a renderer
func WithTextureLoader(l asset.TextureLoader) RendererBuilderOption {
	return func(r *renderer) {
		r.textures = l
	}
}

// WithLight sets the scene light. When not specified, light.NewLight() is used.
//
// Parameters:
//   - l: the light
//
// Returns:
//   - RendererBuilderOption: a function that applies the light option to a renderer
func WithLight(l light.Light) RendererBuilderOption {
	return func(r *renderer) {
		r.light = l
	}
}
