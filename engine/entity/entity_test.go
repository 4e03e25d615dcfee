package entity

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-ar/common"
	"github.com/Carmen-Shannon/oxy-ar/engine/asset"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-ar/engine/tracking"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSession struct {
	results []tracking.HitTestResult
	types   tracking.HitTestType
}

func (s *fixedSession) CurrentFrame() *tracking.Frame { return nil }

func (s *fixedSession) HitTest(_ mgl32.Vec2, types tracking.HitTestType) []tracking.HitTestResult {
	s.types = types
	return s.results
}

func assertVec3(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-4, "component %d: want %v, got %v", i, want, got)
	}
}

func TestRegistryHandles(t *testing.T) {
	r := NewRegistry()
	assert.True(t, Handle{}.IsZero())

	a := r.Add(New(KindAnchor, asset.HandleCube, mgl32.Translate3D(1, 0, 0)))
	b := r.Add(New(KindTracker, asset.HandleQuad, mgl32.Ident4()))
	assert.False(t, a.IsZero())
	assert.Equal(t, 2, r.Len())

	e, ok := r.Get(a)
	require.True(t, ok)
	assert.Equal(t, KindAnchor, e.Kind)
	assertVec3(t, mgl32.Vec3{1, 0, 0}, common.Translation(e.World()))

	assert.True(t, r.Remove(a))
	assert.False(t, r.Remove(a), "second remove is a no-op")
	_, ok = r.Get(a)
	assert.False(t, ok)

	c := r.Add(New(KindAnchor, asset.HandleCube, mgl32.Ident4()))
	assert.Equal(t, a.index, c.index, "freed slot is reused")
	assert.NotEqual(t, a, c)
	_, ok = r.Get(a)
	assert.False(t, ok, "stale handle does not reach the new occupant")

	_, ok = r.Get(Handle{})
	assert.False(t, ok)

	assert.Equal(t, 1, r.Count(KindAnchor))
	assert.Equal(t, 1, r.Count(KindTracker))
	var seen []Handle
	r.Each(KindTracker, func(h Handle, _ *Entity) { seen = append(seen, h) })
	assert.Equal(t, []Handle{b}, seen)
}

func TestUpdateTransformsWalksParents(t *testing.T) {
	r := NewRegistry()
	parent := r.Add(New(KindAnchor, asset.HandleCube, mgl32.Translate3D(1, 0, 0)))

	child := New(KindAnchor, asset.HandleCube, mgl32.Translate3D(0, 1, 0))
	child.Parent = parent
	ch := r.Add(child)

	tracker := New(KindTracker, asset.HandleQuad, mgl32.Translate3D(0, 0, -1))
	tracker.FollowCamera = true
	th := r.Add(tracker)

	r.UpdateTransforms(mgl32.Translate3D(0, 0, 5))

	e, _ := r.Get(ch)
	assertVec3(t, mgl32.Vec3{1, 1, 0}, common.Translation(e.World()))
	e, _ = r.Get(th)
	assertVec3(t, mgl32.Vec3{0, 0, 4}, common.Translation(e.World()))

	r.Remove(parent)
	r.UpdateTransforms(mgl32.Ident4())
	e, _ = r.Get(ch)
	assertVec3(t, mgl32.Vec3{0, 1, 0}, common.Translation(e.World()))
}

func TestUpdateTransformsSurvivesParentCycle(t *testing.T) {
	r := NewRegistry()
	a := r.Add(New(KindAnchor, asset.HandleCube, mgl32.Translate3D(1, 0, 0)))
	b := r.Add(New(KindAnchor, asset.HandleCube, mgl32.Translate3D(0, 1, 0)))
	ea, _ := r.Get(a)
	ea.Parent = b
	eb, _ := r.Get(b)
	eb.Parent = a

	assert.NotPanics(t, func() { r.UpdateTransforms(mgl32.Ident4()) })
}

func TestMoveAnchorRelocatesOverSteps(t *testing.T) {
	r := NewRegistry()
	h := r.Add(New(KindAnchor, asset.HandleCube, mgl32.Ident4()))

	assert.False(t, r.MoveAnchor(Handle{}, mgl32.Ident4()))
	require.True(t, r.MoveAnchor(h, mgl32.Translate3D(10, 0, 0)))
	e, _ := r.Get(h)
	assert.True(t, e.Relocating())

	for i := 0; i < RelocationSteps/2; i++ {
		r.UpdateTransforms(mgl32.Ident4())
	}
	assert.InDelta(t, 5, common.Translation(e.World()).X(), 1e-4)
	assert.True(t, e.Relocating())

	for i := 0; i < RelocationSteps/2; i++ {
		r.UpdateTransforms(mgl32.Ident4())
	}
	assert.False(t, e.Relocating())
	assert.Equal(t, mgl32.Translate3D(10, 0, 0), e.Location)
}

func TestUpdateHeadingFacesCamera(t *testing.T) {
	r := NewRegistry()
	rel := New(KindAnchor, asset.HandleCube, mgl32.Translate3D(0, 0, 0))
	rel.Heading = RelativeHeading()
	rh := r.Add(rel)

	abs := New(KindAnchor, asset.HandleCube, mgl32.Translate3D(2, 0, 0))
	abs.Heading = AbsoluteHeading(mgl32.HomogRotate3DY(mgl32.DegToRad(90)))
	ah := r.Add(abs)

	r.UpdateTransforms(mgl32.Ident4())
	r.UpdateHeading(mgl32.Vec3{5, 3, 0})

	e, _ := r.Get(rh)
	forward := e.World().Mul4x1(mgl32.Vec4{0, 0, -1, 0}).Vec3()
	assertVec3(t, mgl32.Vec3{1, 0, 0}, forward)
	assertVec3(t, mgl32.Vec3{0, 0, 0}, common.Translation(e.World()))

	u := e.InstanceUniforms(true, [14]float32{})
	assert.Equal(t, int32(1), u.HasGeometry)
	assert.Equal(t, int32(1), u.HasHeading)
	assert.Equal(t, int32(shader.HeadingTypeRelative), u.HeadingType)

	e, _ = r.Get(ah)
	assertVec3(t, mgl32.Vec3{2, 0, 0}, common.Translation(e.World()))
	assert.Equal(t, mgl32.HomogRotate3DY(mgl32.DegToRad(90)), e.HeadingTransform())
}

func TestSelectGazeHitPreference(t *testing.T) {
	plane := func(y float32) *tracking.Anchor {
		return &tracking.Anchor{
			ID:        uuid.New(),
			Kind:      tracking.AnchorKindPlane,
			Transform: mgl32.Translate3D(0, y, 0),
			Plane:     &tracking.Plane{Alignment: tracking.PlaneAlignmentHorizontal, Extent: mgl32.Vec2{1, 1}},
		}
	}
	hit := func(typ tracking.HitTestType, dist float32, anchor *tracking.Anchor) tracking.HitTestResult {
		return tracking.HitTestResult{Type: typ, Distance: dist, WorldTransform: mgl32.Translate3D(0, 0, -dist), Anchor: anchor}
	}

	_, ok := SelectGazeHit(nil)
	assert.False(t, ok)

	geometry := hit(tracking.HitTestExistingPlaneUsingGeometry, 3, plane(0.5))
	low := hit(tracking.HitTestExistingPlane, 2, plane(-1))
	high := hit(tracking.HitTestExistingPlane, 1, plane(0))
	vertical := hit(tracking.HitTestEstimatedVerticalPlane, 4, nil)
	horizontal := hit(tracking.HitTestEstimatedHorizontalPlane, 5, nil)

	got, ok := SelectGazeHit([]tracking.HitTestResult{high, low, vertical, geometry})
	require.True(t, ok)
	assert.Equal(t, geometry, got)

	got, _ = SelectGazeHit([]tracking.HitTestResult{high, low, vertical})
	assert.Equal(t, low, got, "lowest horizontal plane is the ground")

	got, _ = SelectGazeHit([]tracking.HitTestResult{horizontal, vertical})
	assert.Equal(t, vertical, got, "nearest estimated surface")

	_, ok = SelectGazeHit([]tracking.HitTestResult{hit(tracking.HitTestFeaturePoint, 1, nil)})
	assert.False(t, ok)
}

func TestUpdateGazeTargetsMovesTargets(t *testing.T) {
	r := NewRegistry()
	session := &fixedSession{}
	r.UpdateGazeTargets(session)
	assert.Zero(t, session.types, "no hit test without gaze targets")

	h := r.Add(New(KindGazeTarget, asset.HandleQuad, mgl32.Ident4()))
	r.UpdateGazeTargets(session)
	assert.NotZero(t, session.types)
	e, _ := r.Get(h)
	assert.Equal(t, mgl32.Ident4(), e.Location, "target stays put without a hit")

	session.results = []tracking.HitTestResult{{
		Type:           tracking.HitTestEstimatedHorizontalPlane,
		Distance:       2,
		WorldTransform: mgl32.Translate3D(0.5, -1, -2),
	}}
	r.UpdateGazeTargets(session)
	assertVec3(t, mgl32.Vec3{0.5, -1, -2}, common.Translation(e.Location))
}

func TestUpdateProbeAssociations(t *testing.T) {
	r := NewRegistry()
	inside := r.Add(New(KindAnchor, asset.HandleCube, mgl32.Translate3D(0.5, 0, 0)))
	outside := r.Add(New(KindAnchor, asset.HandleCube, mgl32.Translate3D(3, 0, 0)))
	r.UpdateTransforms(mgl32.Ident4())

	probe := tracking.Anchor{
		ID:        uuid.New(),
		Kind:      tracking.AnchorKindEnvironmentProbe,
		Transform: mgl32.Ident4(),
		Probe:     &tracking.Probe{Extent: mgl32.Vec3{2, 2, 2}},
	}
	plane := tracking.Anchor{ID: uuid.New(), Kind: tracking.AnchorKindPlane, Transform: mgl32.Ident4()}
	r.UpdateProbeAssociations([]tracking.Anchor{plane, probe})

	e, _ := r.Get(inside)
	assert.Equal(t, probe.ID, e.EnvironmentProbe())
	o, _ := r.Get(outside)
	assert.Equal(t, uuid.Nil, o.EnvironmentProbe())

	e.Location = mgl32.Translate3D(5, 0, 0)
	r.UpdateTransforms(mgl32.Ident4())
	r.UpdateProbeAssociations([]tracking.Anchor{probe})
	assert.Equal(t, uuid.Nil, e.EnvironmentProbe(), "associations are recomputed each time")
}

func TestSyncAnchorsFollowsTracking(t *testing.T) {
	r := NewRegistry()
	id := uuid.New()
	ent := New(KindAnchor, asset.HandleCube, mgl32.Ident4())
	ent.AnchorID = id
	h := r.Add(ent)
	assert.Equal(t, h, r.FindByAnchor(id))

	shared := New(KindAnchor, asset.HandleQuad, mgl32.Translate3D(0, 0, 1))
	shared.AnchorID = id
	sh := r.Add(shared)

	r.SyncAnchors(&tracking.Frame{Updated: []tracking.Anchor{{ID: id, Transform: mgl32.Translate3D(0, 2, 0)}}})
	e, _ := r.Get(h)
	assert.Equal(t, mgl32.Translate3D(0, 2, 0), e.Location)
	e, _ = r.Get(sh)
	assert.Equal(t, mgl32.Translate3D(0, 2, 0), e.Location, "every entity on the anchor follows it")

	r.SyncAnchors(&tracking.Frame{Removed: []uuid.UUID{id}})
	assert.True(t, r.FindByAnchor(id).IsZero())
	_, ok := r.Get(h)
	assert.True(t, ok, "entity survives its anchor")
	e, _ = r.Get(sh)
	assert.Equal(t, uuid.Nil, e.AnchorID)
}
