package tracking

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-ar/engine/camera"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	interrupted, resumed int
}

func (o *recordingObserver) SessionInterrupted()       { o.interrupted++ }
func (o *recordingObserver) SessionInterruptionEnded() { o.resumed++ }

// overheadSession looks straight down at the origin from 2 m.
func overheadSession(opts ...SyntheticSessionOption) SyntheticSession {
	ctrl := camera.NewOrbitController(
		camera.WithRadius(2),
		camera.WithElevation(1.4),
	)
	cam := camera.NewCamera(camera.WithController(ctrl))
	return NewSyntheticSession(append([]SyntheticSessionOption{WithCamera(cam)}, opts...)...)
}

func TestFrameReportsAnchorChanges(t *testing.T) {
	s := overheadSession()
	assert.Nil(t, s.CurrentFrame(), "no frame before the first Advance")

	id := s.AddAnchor(Anchor{Kind: AnchorKindGeneric, Transform: mgl32.Translate3D(1, 0, 0)})
	assert.NotEqual(t, uuid.Nil, id)

	f := s.Advance(16 * time.Millisecond)
	require.NotNil(t, f)
	assert.Same(t, f, s.CurrentFrame())
	require.Len(t, f.Added, 1)
	assert.Equal(t, id, f.Added[0].ID)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, f.Anchors[0].Position())
	require.NotNil(t, f.LightEstimate)
	assert.Equal(t, float32(1000), f.LightEstimate.AmbientIntensity)

	s.UpdateAnchor(Anchor{ID: id, Transform: mgl32.Translate3D(2, 0, 0)})
	s.UpdateAnchor(Anchor{ID: uuid.New()})
	f = s.Advance(16 * time.Millisecond)
	assert.Empty(t, f.Added)
	require.Len(t, f.Updated, 1)
	assert.Equal(t, mgl32.Vec3{2, 0, 0}, f.Anchors[0].Position())
	assert.Equal(t, 32*time.Millisecond, f.Timestamp)

	s.RemoveAnchor(id)
	f = s.Advance(16 * time.Millisecond)
	assert.Equal(t, []uuid.UUID{id}, f.Removed)
	assert.Empty(t, f.Anchors)
}

func TestInterruptionsNotifyObserver(t *testing.T) {
	obs := &recordingObserver{}
	s := overheadSession(WithObserver(obs))
	s.Advance(time.Millisecond)

	s.Interrupt()
	s.Interrupt()
	assert.Nil(t, s.CurrentFrame())
	assert.Nil(t, s.Advance(time.Millisecond))
	s.EndInterruption()
	assert.NotNil(t, s.Advance(time.Millisecond))
	assert.Equal(t, 1, obs.interrupted)
	assert.Equal(t, 1, obs.resumed)
}

func TestHitTestCenterRay(t *testing.T) {
	s := overheadSession(WithFloorHeight(0))
	assert.Nil(t, s.HitTest(mgl32.Vec2{0.5, 0.5}, HitTestAll), "no hits before a frame")

	plane := Anchor{
		Kind:      AnchorKindPlane,
		Transform: mgl32.Translate3D(0, 0.5, 0),
		Plane:     &Plane{Alignment: PlaneAlignmentHorizontal, Extent: mgl32.Vec2{0.4, 0.4}},
	}
	s.AddAnchor(plane)
	f := s.Advance(time.Millisecond)
	camPos := f.Camera.Position()

	results := s.HitTest(mgl32.Vec2{0.5, 0.5}, HitTestExistingPlaneUsingGeometry|HitTestEstimatedHorizontalPlane)
	require.Len(t, results, 2)
	assert.Equal(t, HitTestExistingPlaneUsingGeometry, results[0].Type, "the raised plane is hit first")
	assert.NotNil(t, results[0].Anchor)
	assert.InDelta(t, 0.5, results[0].Position().Y(), 1e-3)
	assert.Equal(t, HitTestEstimatedHorizontalPlane, results[1].Type)
	assert.InDelta(t, 0, results[1].Position().Y(), 1e-3)
	assert.Less(t, results[0].Distance, results[1].Distance)
	assert.InDelta(t, camPos.Sub(results[1].Position()).Len(), results[1].Distance, 0.05)

	edge := s.HitTest(mgl32.Vec2{0.95, 0.5}, HitTestExistingPlaneUsingGeometry|HitTestExistingPlane)
	require.Len(t, edge, 1, "outside the extent only the infinite plane is hit")
	assert.Equal(t, HitTestExistingPlane, edge[0].Type)
}

func TestHitTestFeaturePoints(t *testing.T) {
	s := overheadSession()
	f := s.Advance(time.Millisecond)
	origin, dir := ScreenRay(f.Camera, mgl32.Vec2{0.5, 0.5})
	onRay := origin.Add(dir.Mul(1))
	s.SetFeaturePoints([]mgl32.Vec3{onRay, {5, 5, 5}})
	s.Advance(time.Millisecond)

	results := s.HitTest(mgl32.Vec2{0.5, 0.5}, HitTestFeaturePoint)
	require.Len(t, results, 1)
	assert.InDelta(t, 1, results[0].Distance, 1e-3)
}

func TestScatterFeaturePointsIsDeterministic(t *testing.T) {
	a := ScatterFeaturePoints(50, 2, -1, 7)
	b := ScatterFeaturePoints(50, 2, -1, 7)
	assert.Equal(t, a, b)
	for _, p := range a {
		assert.Equal(t, float32(-1), p.Y())
		assert.LessOrEqual(t, mgl32.Vec2{p.X(), p.Z()}.Len(), float32(2.0001))
	}
}
