package light

import "github.com/go-gl/mathgl/mgl32"

// LightBuilderOption is a function that configures a Light instance during construction.
type LightBuilderOption func(*lightImpl)

// WithDirection is an option builder that sets the direction of the light.
// The direction is normalized before storing; a zero vector is ignored.
//
// Parameters:
//   - dir: the direction the light travels
//
// Returns:
//   - LightBuilderOption: a function that applies the direction option to a lightImpl
func WithDirection(dir mgl32.Vec3) LightBuilderOption {
	return func(l *lightImpl) {
		if dir.Len() > 0 {
			l.direction = dir.Normalize()
		}
	}
}

// WithColor is an option builder that sets the RGB color of the directional light.
//
// Parameters:
//   - color: color as (r, g, b)
//
// Returns:
//   - LightBuilderOption: a function that applies the color option to a lightImpl
func WithColor(color mgl32.Vec3) LightBuilderOption {
	return func(l *lightImpl) {
		l.color = color
	}
}

// WithIntensity is an option builder that sets the directional light intensity.
//
// Parameters:
//   - intensity: the intensity multiplier
//
// Returns:
//   - LightBuilderOption: a function that applies the intensity option to a lightImpl
func WithIntensity(intensity float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.intensity = intensity
	}
}

// WithAmbient is an option builder that sets the ambient term.
//
// Parameters:
//   - color: ambient color as (r, g, b)
//   - intensity: ambient intensity multiplier
//
// Returns:
//   - LightBuilderOption: a function that applies the ambient option to a lightImpl
func WithAmbient(color mgl32.Vec3, intensity float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.ambientColor = color
		l.ambientIntensity = intensity
	}
}

// WithCastsShadows is an option builder that toggles the shadow pass for this light.
//
// Parameters:
//   - castsShadows: true to render a shadow map
//
// Returns:
//   - LightBuilderOption: a function that applies the shadow casting option to a lightImpl
func WithCastsShadows(castsShadows bool) LightBuilderOption {
	return func(l *lightImpl) {
		l.castsShadows = castsShadows
	}
}

// WithShadowHalfExtent is an option builder that sets the half-size of the shadow frustum.
//
// Parameters:
//   - halfExtent: half-size in meters
//
// Returns:
//   - LightBuilderOption: a function that applies the extent option to a lightImpl
func WithShadowHalfExtent(halfExtent float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.shadowHalfExtent = halfExtent
	}
}
