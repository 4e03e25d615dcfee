package light

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-ar/common"
	"github.com/go-gl/mathgl/mgl32"
)

// NeutralAmbientIntensity is the ambient intensity, in lumens, that a tracking session
// reports for a well lit scene. Estimates are divided by it so neutral light is 1.
const NeutralAmbientIntensity float32 = 1000

// NeutralColorTemperature is the color temperature in Kelvin that maps to white light.
const NeutralColorTemperature float32 = 6500

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	mu sync.Mutex

	direction mgl32.Vec3
	color     mgl32.Vec3
	intensity float32

	ambientColor     mgl32.Vec3
	ambientIntensity float32

	castsShadows     bool
	shadowHalfExtent float32
	hasEnvironment   bool
}

// Light is the scene lighting of an AR session: one directional light, usually the
// estimated dominant light source, and an ambient term. Lighting estimates from the tracking
// session update it every frame and it produces the environment uniform record.
type Light interface {
	// Direction returns the normalized direction the light travels.
	//
	// Returns:
	//   - mgl32.Vec3: the direction
	Direction() mgl32.Vec3

	// Color returns the RGB color of the directional light.
	//
	// Returns:
	//   - mgl32.Vec3: color as (r, g, b)
	Color() mgl32.Vec3

	// Intensity returns the scalar intensity of the directional light.
	Intensity() float32

	// AmbientColor returns the RGB color of the ambient term.
	AmbientColor() mgl32.Vec3

	// AmbientIntensity returns the scalar intensity of the ambient term.
	AmbientIntensity() float32

	// CastsShadows reports whether the directional light renders a shadow map.
	CastsShadows() bool

	// SetDirection sets the light direction. The direction is normalized; a zero vector is ignored.
	//
	// Parameters:
	//   - dir: the new direction
	SetDirection(dir mgl32.Vec3)

	// SetHasEnvironmentMap records whether an environment probe texture is bound.
	//
	// Parameters:
	//   - has: true when an environment map is available
	SetHasEnvironmentMap(has bool)

	// ApplyEstimate updates both light terms from a session light estimate. Intensity is
	// normalized by NeutralAmbientIntensity and the color follows the color temperature.
	//
	// Parameters:
	//   - ambientIntensity: the estimated ambient intensity in lumens
	//   - colorTemperature: the estimated color temperature in Kelvin
	ApplyEstimate(ambientIntensity, colorTemperature float32)

	// EnvironmentUniforms builds the per-frame environment record with the shadow frustum
	// centered on center.
	//
	// Parameters:
	//   - center: world-space center of the shadow frustum, usually the camera position
	//
	// Returns:
	//   - GPUEnvironmentUniforms: the record
	EnvironmentUniforms(center mgl32.Vec3) GPUEnvironmentUniforms
}

var _ Light = &lightImpl{}

// NewLight creates a white directional light shining down and slightly forward, with a
// neutral ambient term and shadows enabled.
//
// Parameters:
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: the light
func NewLight(opts ...LightBuilderOption) Light {
	l := &lightImpl{
		direction:        mgl32.Vec3{0.3, -1, -0.4}.Normalize(),
		color:            mgl32.Vec3{1, 1, 1},
		intensity:        1,
		ambientColor:     mgl32.Vec3{1, 1, 1},
		ambientIntensity: 1,
		castsShadows:     true,
		shadowHalfExtent: DefaultShadowHalfExtent,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *lightImpl) Direction() mgl32.Vec3 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.direction
}

func (l *lightImpl) Color() mgl32.Vec3 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.intensity
}

func (l *lightImpl) AmbientColor() mgl32.Vec3 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ambientColor
}

func (l *lightImpl) AmbientIntensity() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ambientIntensity
}

func (l *lightImpl) CastsShadows() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.castsShadows
}

func (l *lightImpl) SetDirection(dir mgl32.Vec3) {
	if dir.Len() == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.direction = dir.Normalize()
}

func (l *lightImpl) SetHasEnvironmentMap(has bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hasEnvironment = has
}

func (l *lightImpl) ApplyEstimate(ambientIntensity, colorTemperature float32) {
	color := ColorFromTemperature(colorTemperature)
	intensity := ambientIntensity / NeutralAmbientIntensity

	l.mu.Lock()
	defer l.mu.Unlock()
	l.ambientIntensity = intensity
	l.ambientColor = color
	l.intensity = intensity
	l.color = color
}

func (l *lightImpl) EnvironmentUniforms(center mgl32.Vec3) GPUEnvironmentUniforms {
	l.mu.Lock()
	defer l.mu.Unlock()
	u := GPUEnvironmentUniforms{
		AmbientLightColor:         l.ambientColor,
		AmbientLightIntensity:     l.ambientIntensity,
		DirectionalLightDirection: l.direction,
		DirectionalLightIntensity: l.intensity,
		DirectionalLightColor:     l.color,
	}
	if l.hasEnvironment {
		u.HasEnvironmentMap = 1
	}
	vp := DirectionalLightVP(l.direction, center, l.shadowHalfExtent, DefaultShadowNear, DefaultShadowFar)
	u.DirectionalLightMVP = common.Mat4Array(vp)
	u.ShadowMVPTransform = common.Mat4Array(ShadowTransform(vp))
	return u
}

// ColorFromTemperature approximates the RGB color of black-body light at the given
// temperature (Tanner Helland's fit), with NeutralColorTemperature mapping to white.
//
// Parameters:
//   - kelvin: the color temperature; values outside [1000, 40000] are clamped
//
// Returns:
//   - mgl32.Vec3: the color with components in [0, 1]
func ColorFromTemperature(kelvin float32) mgl32.Vec3 {
	if kelvin <= 0 {
		kelvin = NeutralColorTemperature
	}
	t := float64(mgl32.Clamp(kelvin, 1000, 40000)) / 100
	var r, g, b float64
	if t <= 66 {
		r = 255
		g = 99.4708025861*math.Log(t) - 161.1195681661
	} else {
		r = 329.698727446 * math.Pow(t-60, -0.1332047592)
		g = 288.1221695283 * math.Pow(t-60, -0.0755148492)
	}
	switch {
	case t >= 66:
		b = 255
	case t <= 19:
		b = 0
	default:
		b = 138.5177312231*math.Log(t-10) - 305.0447927307
	}
	clamp := func(v float64) float32 {
		return mgl32.Clamp(float32(v/255), 0, 1)
	}
	return mgl32.Vec3{clamp(r), clamp(g), clamp(b)}
}
