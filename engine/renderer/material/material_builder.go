package material

import "github.com/Carmen-Shannon/oxy-ar/engine/gpu"

// MaterialBuilderOption is a function that configures a material during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the material identifier.
//
// Parameters:
//   - name: the name to assign to the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithBaseColor is an option builder that sets the uniform albedo.
//
// Parameters:
//   - color: the RGBA base color
//
// Returns:
//   - MaterialBuilderOption: a function that applies the base color option to a material
func WithBaseColor(color [4]float32) MaterialBuilderOption {
	return func(m *material) {
		m.baseColor = color
	}
}

// WithEmissionColor is an option builder that sets the uniform emission.
//
// Parameters:
//   - color: the RGBA emission color
//
// Returns:
//   - MaterialBuilderOption: a function that applies the emission color option to a material
func WithEmissionColor(color [4]float32) MaterialBuilderOption {
	return func(m *material) {
		m.emissionColor = color
	}
}

// WithScalars is an option builder that replaces every uniform surface parameter.
//
// Parameters:
//   - s: the surface parameters
//
// Returns:
//   - MaterialBuilderOption: a function that applies the parameters to a material
func WithScalars(s Scalars) MaterialBuilderOption {
	return func(m *material) {
		m.scalars = s
	}
}

// WithRoughness is an option builder that sets the roughness factor.
//
// Parameters:
//   - roughness: the roughness factor, 0 is mirror smooth and 1 fully rough
//
// Returns:
//   - MaterialBuilderOption: a function that applies the roughness option to a material
func WithRoughness(roughness float32) MaterialBuilderOption {
	return func(m *material) {
		m.scalars.Roughness = roughness
	}
}

// WithMetalness is an option builder that sets the metalness factor.
//
// Parameters:
//   - metalness: the metalness factor, 0 is dielectric and 1 fully metallic
//
// Returns:
//   - MaterialBuilderOption: a function that applies the metalness option to a material
func WithMetalness(metalness float32) MaterialBuilderOption {
	return func(m *material) {
		m.scalars.Metalness = metalness
	}
}

// WithOpacity is an option builder that sets the opacity.
//
// Parameters:
//   - opacity: the opacity in [0, 1]
//
// Returns:
//   - MaterialBuilderOption: a function that applies the opacity option to a material
func WithOpacity(opacity float32) MaterialBuilderOption {
	return func(m *material) {
		m.scalars.Opacity = opacity
	}
}

// WithTexture is an option builder that sets the texture of one material map.
//
// Parameters:
//   - slot: the material map
//   - tex: the texture
//
// Returns:
//   - MaterialBuilderOption: a function that applies the texture option to a material
func WithTexture(slot TextureSlot, tex gpu.Texture) MaterialBuilderOption {
	return func(m *material) {
		m.SetTexture(slot, tex)
	}
}
