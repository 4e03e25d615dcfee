package camera

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-ar/common"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertVec3(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-4, "component %d: want %v, got %v", i, want, got)
	}
}

func TestOrbitControllerPosition(t *testing.T) {
	oc := NewOrbitController(WithRadius(2), WithElevation(0), WithAzimuth(0))
	assertVec3(t, mgl32.Vec3{0, 0, 2}, oc.Position())

	oc.Orbit(float32(math.Pi/2), 0)
	assertVec3(t, mgl32.Vec3{2, 0, 0}, oc.Position())

	oc.Orbit(0, 10)
	assert.Less(t, oc.Elevation(), float32(math.Pi/2), "elevation is clamped")

	oc.Zoom(1000)
	assert.Equal(t, float32(0.2), oc.Radius())
}

func TestOrbitControllerKeys(t *testing.T) {
	oc := NewOrbitController(WithOrbitSpeed(0.5))
	assert.True(t, oc.HandleKey(common.KeyD))
	assert.InDelta(t, 0.5, oc.Azimuth(), 1e-6)
	assert.True(t, oc.HandleKey(common.KeyA))
	assert.InDelta(t, 0, oc.Azimuth(), 1e-6)
	assert.False(t, oc.HandleKey(common.KeySpace))
}

func TestCameraPoseFollowsController(t *testing.T) {
	oc := NewOrbitController(WithRadius(3), WithElevation(0), WithTarget(mgl32.Vec3{0, 1, 0}))
	c := NewCamera(WithController(oc), WithAspect(2))

	pos := common.Translation(c.Pose())
	assertVec3(t, mgl32.Vec3{0, 1, 3}, pos)
	identity := c.ViewMatrix().Mul4(c.Pose())
	for i, want := range mgl32.Ident4() {
		assert.InDelta(t, want, identity[i], 1e-5, "element %d", i)
	}

	oc.Orbit(float32(math.Pi), 0)
	c.Update()
	pos = common.Translation(c.Pose())
	assertVec3(t, mgl32.Vec3{0, 1, -3}, pos)
}

func TestProjectionUsesZeroToOneDepth(t *testing.T) {
	c := NewCamera(WithClipPlanes(0.1, 10))
	p := c.ProjectionMatrix()

	near := p.Mul4x1(mgl32.Vec4{0, 0, -0.1, 1})
	far := p.Mul4x1(mgl32.Vec4{0, 0, -10, 1})
	assert.InDelta(t, 0, near.Z()/near.W(), 1e-5)
	assert.InDelta(t, 1, far.Z()/far.W(), 1e-5)
}

func TestSharedUniformsLayout(t *testing.T) {
	c := NewCamera()
	u := c.SharedUniforms(true)
	assert.Equal(t, int32(1), u.UseDepth)
	assert.Equal(t, 144, u.Size())
	assert.Len(t, u.Marshal(), u.Size())

	layouts := shader.StructLayouts(GPUSharedUniformsSource)
	require.Contains(t, layouts, "SharedUniforms")
	assert.Equal(t, uint64(u.Size()), layouts["SharedUniforms"].Size)
}
