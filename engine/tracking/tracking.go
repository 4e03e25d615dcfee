// Package tracking describes the world-tracking collaborator the renderer consumes: a Session
// that yields one Frame per display refresh with the camera pose, projection, light estimate,
// anchor changes and raw feature points, and answers hit-test queries against detected
// surfaces. A synthetic session driven by a camera.OrbitController ships for headless runs
// and for desktop viewing.
package tracking

import (
	"time"

	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// AnchorKind identifies what a tracked anchor represents.
type AnchorKind int

const (
	AnchorKindGeneric AnchorKind = iota
	AnchorKindPlane
	AnchorKindEnvironmentProbe
)

// PlaneAlignment is the orientation of a detected plane.
type PlaneAlignment int

const (
	PlaneAlignmentHorizontal PlaneAlignment = iota
	PlaneAlignmentVertical
)

// TrackingState is the quality of the camera pose.
type TrackingState int

const (
	TrackingStateNotAvailable TrackingState = iota
	TrackingStateLimited
	TrackingStateNormal
)

// Plane is the extent of a detected plane in its anchor's local space. The plane lies in the
// local XZ plane with +Y as its normal.
type Plane struct {
	Alignment PlaneAlignment
	Center    mgl32.Vec3
	Extent    mgl32.Vec2
}

// Probe is the region of an environment probe: an axis-aligned box of size Extent centered on
// the anchor.
type Probe struct {
	Extent             mgl32.Vec3
	EnvironmentTexture gpu.Texture
}

// Anchor is a fixed position and orientation in the world reported by the session.
type Anchor struct {
	ID        uuid.UUID
	Kind      AnchorKind
	Transform mgl32.Mat4

	// Plane is set for AnchorKindPlane.
	Plane *Plane

	// Probe is set for AnchorKindEnvironmentProbe.
	Probe *Probe
}

// Position returns the world position of the anchor.
func (a Anchor) Position() mgl32.Vec3 {
	return a.Transform.Col(3).Vec3()
}

// LightEstimate is the session's estimate of scene lighting.
type LightEstimate struct {
	// AmbientIntensity is in lumens; 1000 is neutral.
	AmbientIntensity float32

	// AmbientColorTemperature is in Kelvin; 6500 is pure white.
	AmbientColorTemperature float32
}

// CameraState is the device camera for one frame.
type CameraState struct {
	Transform       mgl32.Mat4
	Projection      mgl32.Mat4
	ImageResolution [2]int
	TrackingState   TrackingState
}

// Position returns the world position of the camera.
func (c CameraState) Position() mgl32.Vec3 {
	return c.Transform.Col(3).Vec3()
}

// Forward returns the world direction the camera looks along.
func (c CameraState) Forward() mgl32.Vec3 {
	return c.Transform.Col(2).Vec3().Mul(-1).Normalize()
}

// Frame is one snapshot of the tracked world.
type Frame struct {
	Timestamp time.Duration
	Camera    CameraState

	// LightEstimate is nil when the session does not estimate lighting.
	LightEstimate *LightEstimate

	// Anchors holds every anchor currently tracked.
	Anchors []Anchor

	// Added, Updated and Removed hold the changes since the previous frame.
	Added   []Anchor
	Updated []Anchor
	Removed []uuid.UUID

	FeaturePoints []mgl32.Vec3

	// CapturedImageY and CapturedImageCbCr are the luma and chroma planes of the camera image,
	// nil when the session does not capture images.
	CapturedImageY    gpu.Texture
	CapturedImageCbCr gpu.Texture
}

// HitTestType is a bit set of surface kinds a hit test considers.
type HitTestType int

const (
	HitTestFeaturePoint HitTestType = 1 << iota
	HitTestEstimatedHorizontalPlane
	HitTestEstimatedVerticalPlane
	HitTestExistingPlane
	HitTestExistingPlaneUsingExtent
	HitTestExistingPlaneUsingGeometry

	HitTestAll = HitTestFeaturePoint | HitTestEstimatedHorizontalPlane | HitTestEstimatedVerticalPlane |
		HitTestExistingPlane | HitTestExistingPlaneUsingExtent | HitTestExistingPlaneUsingGeometry
)

// HitTestResult is one surface intersection along a hit-test ray.
type HitTestResult struct {
	Type           HitTestType
	Distance       float32
	WorldTransform mgl32.Mat4

	// Anchor is the plane anchor that was hit, nil for estimated surfaces and feature points.
	Anchor *Anchor
}

// Position returns the world position of the hit.
func (r HitTestResult) Position() mgl32.Vec3 {
	return r.WorldTransform.Col(3).Vec3()
}

// Session is the world-tracking collaborator.
type Session interface {
	// CurrentFrame returns the latest snapshot, or nil when none is available.
	CurrentFrame() *Frame

	// HitTest intersects the ray through a screen point with tracked surfaces.
	//
	// Parameters:
	//   - point: the normalized image point, (0,0) top left and (1,1) bottom right
	//   - types: the surfaces to consider
	//
	// Returns:
	//   - []HitTestResult: the hits ordered nearest first
	HitTest(point mgl32.Vec2, types HitTestType) []HitTestResult
}

// Observer receives session interruptions.
type Observer interface {
	SessionInterrupted()
	SessionInterruptionEnded()
}
