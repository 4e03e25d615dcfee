package tracking

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-ar/common"
	"github.com/Carmen-Shannon/oxy-ar/engine/camera"
	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// syntheticSession is the implementation of the SyntheticSession interface.
type syntheticSession struct {
	mu sync.Mutex

	camera      camera.Camera
	resolution  [2]int
	floorHeight float32
	observer    Observer

	anchors map[uuid.UUID]Anchor
	order   []uuid.UUID
	added   []Anchor
	updated []Anchor
	removed []uuid.UUID

	light         *LightEstimate
	featurePoints []mgl32.Vec3
	imageY        gpu.Texture
	imageCbCr     gpu.Texture

	elapsed     time.Duration
	frame       *Frame
	interrupted bool
}

// SyntheticSession is a Session that simulates world tracking. The device camera follows an
// orbit controller, the floor is an estimated horizontal plane and anchors are added by the
// caller. Each Advance produces the next Frame.
type SyntheticSession interface {
	Session

	// Camera returns the simulated device camera.
	Camera() camera.Camera

	// AddAnchor starts tracking an anchor. A nil ID is replaced with a new random one.
	//
	// Parameters:
	//   - anchor: the anchor
	//
	// Returns:
	//   - uuid.UUID: the anchor identifier
	AddAnchor(anchor Anchor) uuid.UUID

	// UpdateAnchor replaces a tracked anchor. Unknown identifiers are ignored.
	//
	// Parameters:
	//   - anchor: the anchor with its new state
	UpdateAnchor(anchor Anchor)

	// RemoveAnchor stops tracking an anchor.
	//
	// Parameters:
	//   - id: the anchor identifier
	RemoveAnchor(id uuid.UUID)

	// SetLightEstimate sets the light estimate reported from the next frame on.
	SetLightEstimate(estimate LightEstimate)

	// SetFeaturePoints replaces the raw feature points reported from the next frame on.
	SetFeaturePoints(points []mgl32.Vec3)

	// Advance moves simulated time forward and captures the next frame. While interrupted no
	// frame is produced.
	//
	// Parameters:
	//   - dt: the elapsed time since the previous frame
	//
	// Returns:
	//   - *Frame: the new frame, or nil while interrupted
	Advance(dt time.Duration) *Frame

	// Interrupt simulates losing tracking. CurrentFrame returns nil until EndInterruption.
	Interrupt()

	// EndInterruption resumes tracking.
	EndInterruption()

	// SetObserver replaces the observer notified of interruptions.
	SetObserver(observer Observer)
}

var _ SyntheticSession = &syntheticSession{}

// NewSyntheticSession creates a SyntheticSession. Without options the camera orbits the origin
// at the default orbit controller distance, the floor lies at y = 0 and lighting is neutral.
//
// Parameters:
//   - options: variadic list of SyntheticSessionOption functions
//
// Returns:
//   - SyntheticSession: the session
func NewSyntheticSession(options ...SyntheticSessionOption) SyntheticSession {
	s := &syntheticSession{
		resolution: [2]int{1280, 720},
		anchors:    make(map[uuid.UUID]Anchor),
		light:      &LightEstimate{AmbientIntensity: 1000, AmbientColorTemperature: 6500},
	}
	for _, opt := range options {
		opt(s)
	}
	if s.camera == nil {
		s.camera = camera.NewCamera(
			camera.WithAspect(float32(s.resolution[0])/float32(s.resolution[1])),
			camera.WithController(camera.NewOrbitController()),
		)
	}
	return s
}

func (s *syntheticSession) Camera() camera.Camera {
	return s.camera
}

func (s *syntheticSession) CurrentFrame() *Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.interrupted {
		return nil
	}
	return s.frame
}

func (s *syntheticSession) AddAnchor(anchor Anchor) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if anchor.ID == uuid.Nil {
		anchor.ID = uuid.New()
	}
	if _, exists := s.anchors[anchor.ID]; !exists {
		s.order = append(s.order, anchor.ID)
	}
	s.anchors[anchor.ID] = anchor
	s.added = append(s.added, anchor)
	return anchor.ID
}

func (s *syntheticSession) UpdateAnchor(anchor Anchor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.anchors[anchor.ID]; !ok {
		return
	}
	s.anchors[anchor.ID] = anchor
	s.updated = append(s.updated, anchor)
}

func (s *syntheticSession) RemoveAnchor(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.anchors[id]; !ok {
		return
	}
	delete(s.anchors, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.removed = append(s.removed, id)
}

func (s *syntheticSession) SetLightEstimate(estimate LightEstimate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.light = &estimate
}

func (s *syntheticSession) SetFeaturePoints(points []mgl32.Vec3) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.featurePoints = append([]mgl32.Vec3(nil), points...)
}

func (s *syntheticSession) Advance(dt time.Duration) *Frame {
	s.camera.Update()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.elapsed += dt
	if s.interrupted {
		return nil
	}
	f := &Frame{
		Timestamp: s.elapsed,
		Camera: CameraState{
			Transform:       s.camera.Pose(),
			Projection:      s.camera.ProjectionMatrix(),
			ImageResolution: s.resolution,
			TrackingState:   TrackingStateNormal,
		},
		Anchors:           s.snapshotAnchors(),
		Added:             s.added,
		Updated:           s.updated,
		Removed:           s.removed,
		FeaturePoints:     s.featurePoints,
		CapturedImageY:    s.imageY,
		CapturedImageCbCr: s.imageCbCr,
	}
	if s.light != nil {
		estimate := *s.light
		f.LightEstimate = &estimate
	}
	s.added, s.updated, s.removed = nil, nil, nil
	s.frame = f
	return f
}

func (s *syntheticSession) snapshotAnchors() []Anchor {
	out := make([]Anchor, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.anchors[id])
	}
	return out
}

func (s *syntheticSession) HitTest(point mgl32.Vec2, types HitTestType) []HitTestResult {
	s.mu.Lock()
	frame := s.frame
	anchors := s.snapshotAnchors()
	points := s.featurePoints
	floor := s.floorHeight
	s.mu.Unlock()
	if frame == nil {
		return nil
	}

	origin, dir := ScreenRay(frame.Camera, point)
	results := hitTestPlanes(origin, dir, anchors, floor, types)
	if types&HitTestFeaturePoint != 0 {
		results = append(results, hitTestFeaturePoints(origin, dir, points)...)
	}
	sortResults(results)
	return results
}

func (s *syntheticSession) SetObserver(observer Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = observer
}

func (s *syntheticSession) Interrupt() {
	s.mu.Lock()
	if s.interrupted {
		s.mu.Unlock()
		return
	}
	s.interrupted = true
	obs := s.observer
	s.mu.Unlock()
	common.Logger().Info("tracking session interrupted")
	if obs != nil {
		obs.SessionInterrupted()
	}
}

func (s *syntheticSession) EndInterruption() {
	s.mu.Lock()
	if !s.interrupted {
		s.mu.Unlock()
		return
	}
	s.interrupted = false
	obs := s.observer
	s.mu.Unlock()
	common.Logger().Info("tracking session interruption ended")
	if obs != nil {
		obs.SessionInterruptionEnded()
	}
}

// ScatterFeaturePoints returns count pseudo-random points on the floor within radius of the
// origin. The same seed always yields the same points.
//
// Parameters:
//   - count: the number of points
//   - radius: the scatter radius in meters
//   - floorHeight: the height of the floor
//   - seed: the random seed
//
// Returns:
//   - []mgl32.Vec3: the points
func ScatterFeaturePoints(count int, radius, floorHeight float32, seed int64) []mgl32.Vec3 {
	r := rand.New(rand.NewSource(seed))
	out := make([]mgl32.Vec3, count)
	for i := range out {
		angle := r.Float64() * 2 * math.Pi
		dist := float32(math.Sqrt(r.Float64())) * radius
		out[i] = mgl32.Vec3{dist * float32(math.Cos(angle)), floorHeight, dist * float32(math.Sin(angle))}
	}
	return out
}
