package light

import (
	"github.com/Carmen-Shannon/oxy-ar/common"
	"github.com/go-gl/mathgl/mgl32"
)

// ShadowMapResolution is the default width and height in texels of the shadow depth texture.
const ShadowMapResolution = 2048

// DefaultShadowHalfExtent is the default orthographic half-extent in meters of the
// directional shadow frustum around the camera.
const DefaultShadowHalfExtent float32 = 4.0

// DefaultShadowNear is the near plane of the directional shadow projection.
const DefaultShadowNear float32 = 0.1

// DefaultShadowFar is the far plane of the directional shadow projection.
const DefaultShadowFar float32 = 20.0

// Depth bias applied while rendering the shadow map.
const (
	ShadowDepthBias       float32 = 0.015
	ShadowDepthSlopeScale float32 = 7
	ShadowDepthBiasClamp  float32 = 0.02
)

// shadowTextureTransform maps light clip space into shadow map texture space: x and y from
// [-1, 1] to [0, 1] with y flipped, depth unchanged.
var shadowTextureTransform = mgl32.Mat4{
	0.5, 0, 0, 0,
	0, -0.5, 0, 0,
	0, 0, 1, 0,
	0.5, 0.5, 0, 1,
}

// DirectionalLightVP builds the orthographic view-projection of a directional light's
// shadow pass, centered on center and looking along dir.
//
// Parameters:
//   - dir: normalized direction the light travels (from the light toward the scene)
//   - center: world-space center of the shadow frustum
//   - halfExtent: half-size of the orthographic frustum in meters
//   - near, far: the clip plane distances
//
// Returns:
//   - mgl32.Mat4: the light view-projection
func DirectionalLightVP(dir, center mgl32.Vec3, halfExtent, near, far float32) mgl32.Mat4 {
	eye := center.Sub(dir.Mul(far * 0.5))

	// Pick an up vector that is not parallel to the light direction.
	up := mgl32.Vec3{0, 1, 0}
	if mgl32.Abs(dir.Y()) > 0.99 {
		up = mgl32.Vec3{1, 0, 0}
	}
	view := mgl32.LookAtV(eye, center, up)
	proj := common.Ortho(-halfExtent, halfExtent, -halfExtent, halfExtent, near, far)
	return proj.Mul4(view)
}

// ShadowTransform converts a light view-projection into the matrix fragment shaders use to
// look up the shadow map: world position in, (u, v, depth) out.
//
// Parameters:
//   - lightVP: the light view-projection
//
// Returns:
//   - mgl32.Mat4: the texture-space shadow transform
func ShadowTransform(lightVP mgl32.Mat4) mgl32.Mat4 {
	return shadowTextureTransform.Mul4(lightVP)
}
