package light

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvironmentUniformsLayout(t *testing.T) {
	u := NewLight().EnvironmentUniforms(mgl32.Vec3{})
	assert.Equal(t, 176, u.Size())
	assert.Len(t, u.Marshal(), u.Size())

	layouts := shader.StructLayouts(GPUEnvironmentUniformsSource)
	require.Contains(t, layouts, "EnvironmentUniforms")
	assert.Equal(t, uint64(u.Size()), layouts["EnvironmentUniforms"].Size)
}

func TestApplyEstimate(t *testing.T) {
	l := NewLight()
	l.ApplyEstimate(500, NeutralColorTemperature)
	assert.InDelta(t, 0.5, l.AmbientIntensity(), 1e-6)
	assert.InDelta(t, 0.5, l.Intensity(), 1e-6)
	c := l.AmbientColor()
	assert.InDelta(t, 1, c.X(), 0.02)
	assert.InDelta(t, 1, c.Y(), 0.05)
	assert.InDelta(t, 1, c.Z(), 0.05)

	warm := ColorFromTemperature(2000)
	assert.Greater(t, warm.X(), warm.Z(), "low temperatures are red shifted")
}

func TestShadowTransformMapsCenterToMapCenter(t *testing.T) {
	center := mgl32.Vec3{1, 0, -2}
	vp := DirectionalLightVP(mgl32.Vec3{0, -1, 0}, center, 4, DefaultShadowNear, DefaultShadowFar)
	p := ShadowTransform(vp).Mul4x1(center.Vec4(1))
	assert.InDelta(t, 0.5, p.X()/p.W(), 1e-5)
	assert.InDelta(t, 0.5, p.Y()/p.W(), 1e-5)
	assert.InDelta(t, 0.5, p.Z()/p.W(), 0.01, "the center sits halfway between the clip planes")

	edge := ShadowTransform(vp).Mul4x1(center.Add(mgl32.Vec3{0, 0, 4}).Vec4(1))
	assert.InDelta(t, 1, edge.X()/edge.W(), 1e-5)
}
