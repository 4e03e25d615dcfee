package entity

import (
	"github.com/Carmen-Shannon/oxy-ar/common"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-ar/engine/tracking"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// RelocationSteps is the number of frames a smooth relocation takes.
const RelocationSteps = 10

// relocationStep is the progress made by each relocation frame.
const relocationStep = float32(1) / RelocationSteps

type relocation struct {
	from, to mgl32.Mat4
	progress float32
}

type slot struct {
	generation uint32
	alive      bool
	entity     Entity
}

// Registry is the arena of every placed entity. It is owned by the frame loop and is not safe
// for concurrent use.
type Registry struct {
	slots []slot
	free  []uint32
	count int
}

// NewRegistry creates an empty Registry.
//
// Returns:
//   - *Registry: the registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Add stores an entity and returns its handle.
//
// Parameters:
//   - e: the entity
//
// Returns:
//   - Handle: the handle addressing the entity
func (r *Registry) Add(e Entity) Handle {
	if e.world == (mgl32.Mat4{}) {
		e.world = e.Location
	}
	if e.headingMat == (mgl32.Mat4{}) {
		e.headingMat = mgl32.Ident4()
	}
	var idx uint32
	if n := len(r.free); n > 0 {
		idx = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		r.slots = append(r.slots, slot{})
		idx = uint32(len(r.slots) - 1)
	}
	s := &r.slots[idx]
	s.generation++
	s.alive = true
	s.entity = e
	r.count++
	return Handle{index: idx, generation: s.generation}
}

// Get returns the entity addressed by h.
//
// Parameters:
//   - h: the handle
//
// Returns:
//   - *Entity: the entity; valid until it is removed
//   - bool: false when h is stale or zero
func (r *Registry) Get(h Handle) (*Entity, bool) {
	if h.IsZero() || int(h.index) >= len(r.slots) {
		return nil, false
	}
	s := &r.slots[h.index]
	if !s.alive || s.generation != h.generation {
		return nil, false
	}
	return &s.entity, true
}

// Remove deletes the entity addressed by h. Handles to it become stale.
//
// Parameters:
//   - h: the handle
//
// Returns:
//   - bool: false when h was already stale
func (r *Registry) Remove(h Handle) bool {
	if _, ok := r.Get(h); !ok {
		return false
	}
	s := &r.slots[h.index]
	s.alive = false
	s.entity = Entity{}
	r.free = append(r.free, h.index)
	r.count--
	return true
}

// Len returns the number of live entities.
func (r *Registry) Len() int {
	return r.count
}

// Each calls fn for every live entity of kind in slot order.
//
// Parameters:
//   - kind: the entity kind
//   - fn: the callback
func (r *Registry) Each(kind Kind, fn func(Handle, *Entity)) {
	for i := range r.slots {
		s := &r.slots[i]
		if s.alive && s.entity.Kind == kind {
			fn(Handle{index: uint32(i), generation: s.generation}, &s.entity)
		}
	}
}

// Count returns the number of live entities of kind.
func (r *Registry) Count(kind Kind) int {
	n := 0
	r.Each(kind, func(Handle, *Entity) { n++ })
	return n
}

// FindByAnchor returns the first entity attached to a tracking anchor.
//
// Parameters:
//   - id: the anchor identifier
//
// Returns:
//   - Handle: the entity handle, zero when none is attached
func (r *Registry) FindByAnchor(id uuid.UUID) Handle {
	if id == uuid.Nil {
		return Handle{}
	}
	for i := range r.slots {
		s := &r.slots[i]
		if s.alive && s.entity.AnchorID == id {
			return Handle{index: uint32(i), generation: s.generation}
		}
	}
	return Handle{}
}

// MoveAnchor starts a smooth relocation of an entity to target. The move completes after
// RelocationSteps calls to UpdateTransforms.
//
// Parameters:
//   - h: the entity handle
//   - target: the destination transform
//
// Returns:
//   - bool: false when h is stale
func (r *Registry) MoveAnchor(h Handle, target mgl32.Mat4) bool {
	e, ok := r.Get(h)
	if !ok {
		return false
	}
	e.relocation = &relocation{from: e.Location, to: target}
	return true
}

// SyncAnchors moves entities attached to tracking anchors that were updated this frame and
// detaches entities whose anchor was removed.
//
// Parameters:
//   - frame: the tracking frame
func (r *Registry) SyncAnchors(frame *tracking.Frame) {
	for _, a := range frame.Updated {
		for i := range r.slots {
			if s := &r.slots[i]; s.alive && s.entity.AnchorID == a.ID {
				s.entity.Location = a.Transform
			}
		}
	}
	for _, id := range frame.Removed {
		for i := range r.slots {
			if s := &r.slots[i]; s.alive && s.entity.AnchorID == id {
				s.entity.AnchorID = uuid.Nil
			}
		}
	}
}

// UpdateTransforms advances relocations and recomputes every entity's world transform by
// walking its parent chain once. Parent cycles and stale parents end the walk.
//
// Parameters:
//   - cameraTransform: the camera to world transform of the frame
func (r *Registry) UpdateTransforms(cameraTransform mgl32.Mat4) {
	for i := range r.slots {
		s := &r.slots[i]
		if !s.alive || s.entity.relocation == nil {
			continue
		}
		rel := s.entity.relocation
		rel.progress += relocationStep
		if rel.progress >= 1-1e-6 {
			s.entity.Location = rel.to
			s.entity.relocation = nil
			continue
		}
		s.entity.Location = common.LerpMat4(rel.from, rel.to, rel.progress)
	}

	for i := range r.slots {
		s := &r.slots[i]
		if !s.alive {
			continue
		}
		s.entity.world = r.resolve(Handle{index: uint32(i), generation: s.generation}, cameraTransform)
	}
}

// resolve composes h's location with its ancestors' locations.
func (r *Registry) resolve(h Handle, cameraTransform mgl32.Mat4) mgl32.Mat4 {
	world := mgl32.Ident4()
	visited := 0
	for cur := h; visited <= len(r.slots); visited++ {
		e, ok := r.Get(cur)
		if !ok {
			break
		}
		world = e.Location.Mul4(world)
		if e.FollowCamera {
			world = cameraTransform.Mul4(world)
			break
		}
		if e.Parent.IsZero() {
			break
		}
		cur = e.Parent
	}
	return world
}

// UpdateHeading recomputes the yaw-only orientation of every relatively headed entity to face
// cameraPosition, and applies absolute headings. The rotation replaces the orientation of the
// world transform while keeping its position.
//
// Parameters:
//   - cameraPosition: the camera position in world space
func (r *Registry) UpdateHeading(cameraPosition mgl32.Vec3) {
	for i := range r.slots {
		s := &r.slots[i]
		e := &s.entity
		if !s.alive || e.Heading == nil {
			continue
		}
		pos := common.Translation(e.world)
		switch e.Heading.Type {
		case shader.HeadingTypeRelative:
			e.headingMat = common.YawToward(pos, cameraPosition)
		default:
			e.headingMat = e.Heading.Rotation
		}
		e.world = common.WithTranslation(e.headingMat, pos)
	}
}

// UpdateGazeTargets places every gaze target at the preferred surface under the center of the
// screen. Targets keep their position when nothing is hit.
//
// Parameters:
//   - session: the tracking session to hit test
func (r *Registry) UpdateGazeTargets(session tracking.Session) {
	if r.Count(KindGazeTarget) == 0 {
		return
	}
	results := session.HitTest(mgl32.Vec2{0.5, 0.5},
		tracking.HitTestExistingPlaneUsingGeometry|tracking.HitTestExistingPlane|
			tracking.HitTestEstimatedHorizontalPlane|tracking.HitTestEstimatedVerticalPlane)
	hit, ok := SelectGazeHit(results)
	if !ok {
		return
	}
	r.Each(KindGazeTarget, func(_ Handle, e *Entity) {
		e.Location = common.WithTranslation(e.Location, hit.Position())
	})
}

// SelectGazeHit picks the surface a gaze target rests on. An existing plane hit within its
// geometry wins; then the lowest horizontal plane treated as an infinite ground; then the
// nearer of the estimated vertical and horizontal planes.
//
// Parameters:
//   - results: the hit test results
//
// Returns:
//   - tracking.HitTestResult: the chosen hit
//   - bool: false when no result qualifies
func SelectGazeHit(results []tracking.HitTestResult) (tracking.HitTestResult, bool) {
	for _, res := range results {
		if res.Type == tracking.HitTestExistingPlaneUsingGeometry {
			return res, true
		}
	}

	var ground *tracking.HitTestResult
	for i := range results {
		res := &results[i]
		if res.Type != tracking.HitTestExistingPlane || res.Anchor == nil || res.Anchor.Plane == nil ||
			res.Anchor.Plane.Alignment != tracking.PlaneAlignmentHorizontal {
			continue
		}
		if ground == nil || res.Anchor.Position().Y() < ground.Anchor.Position().Y() {
			ground = res
		}
	}
	if ground != nil {
		return *ground, true
	}

	var best *tracking.HitTestResult
	for i := range results {
		res := &results[i]
		if res.Type != tracking.HitTestEstimatedHorizontalPlane && res.Type != tracking.HitTestEstimatedVerticalPlane {
			continue
		}
		if best == nil || res.Distance < best.Distance {
			best = res
		}
	}
	if best != nil {
		return *best, true
	}
	return tracking.HitTestResult{}, false
}

// UpdateProbeAssociations assigns each entity the first environment probe whose box contains
// its world position. Every association is recomputed from scratch.
//
// Parameters:
//   - anchors: the tracked anchors; only environment probes are considered
func (r *Registry) UpdateProbeAssociations(anchors []tracking.Anchor) {
	for i := range r.slots {
		s := &r.slots[i]
		if !s.alive {
			continue
		}
		s.entity.probe = uuid.Nil
		pos := common.Translation(s.entity.world)
		for _, a := range anchors {
			if a.Kind != tracking.AnchorKindEnvironmentProbe || a.Probe == nil {
				continue
			}
			local := a.Transform.Inv().Mul4x1(pos.Vec4(1)).Vec3()
			half := a.Probe.Extent.Mul(0.5)
			if abs(local.X()) <= half.X() && abs(local.Y()) <= half.Y() && abs(local.Z()) <= half.Z() {
				s.entity.probe = a.ID
				break
			}
		}
	}
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
