package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-ar/common"
	"github.com/go-gl/mathgl/mgl32"
)

type cameraImpl struct {
	mu *sync.Mutex

	up mgl32.Vec3

	fov    float32
	aspect float32
	near   float32
	far    float32

	pose       mgl32.Mat4
	view       mgl32.Mat4
	projection mgl32.Mat4

	controller OrbitController
}

// Camera is a simulated device camera. It derives its pose from an attached OrbitController
// and exposes the camera-to-world transform and projection a tracking session reports for
// each frame.
type Camera interface {
	// Fov returns the vertical field of view in radians.
	//
	// Returns:
	//   - float32: field of view in radians
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Near returns the near clipping plane distance.
	Near() float32

	// Far returns the far clipping plane distance.
	Far() float32

	// SetAspect sets the aspect ratio and recomputes the projection.
	//
	// Parameters:
	//   - aspect: the aspect ratio
	SetAspect(aspect float32)

	// Pose returns the camera to world transform.
	//
	// Returns:
	//   - mgl32.Mat4: the pose
	Pose() mgl32.Mat4

	// ViewMatrix returns the world to camera transform.
	//
	// Returns:
	//   - mgl32.Mat4: the inverse of Pose
	ViewMatrix() mgl32.Mat4

	// ProjectionMatrix returns the projection with a [0, 1] depth range.
	//
	// Returns:
	//   - mgl32.Mat4: the projection matrix
	ProjectionMatrix() mgl32.Mat4

	// Controller returns the attached OrbitController, or nil.
	Controller() OrbitController

	// SetController attaches a controller and recomputes the pose from it.
	//
	// Parameters:
	//   - ctrl: the controller to attach
	SetController(ctrl OrbitController)

	// Update reads position and target from the controller and recomputes the matrices.
	// Does nothing when no controller is attached.
	Update()

	// SharedUniforms builds the per-frame shared record for the current pose.
	//
	// Parameters:
	//   - useDepth: whether scene depth occlusion is enabled
	//
	// Returns:
	//   - GPUSharedUniforms: the record
	SharedUniforms(useDepth bool) GPUSharedUniforms
}

var _ Camera = &cameraImpl{}

// NewCamera creates a Camera with a 60° field of view, square aspect and 1 cm to 100 m
// clip planes.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:     &sync.Mutex{},
		up:     mgl32.Vec3{0, 1, 0},
		fov:    60.0 * (math.Pi / 180.0),
		aspect: 1.0,
		near:   0.01,
		far:    100.0,
		pose:   mgl32.Ident4(),
		view:   mgl32.Ident4(),
	}
	for _, option := range options {
		option(c)
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if aspect <= 0 {
		return
	}
	c.aspect = aspect
	c.updateMatrices()
}

func (c *cameraImpl) Pose() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pose
}

func (c *cameraImpl) ViewMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

func (c *cameraImpl) ProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projection
}

func (c *cameraImpl) Controller() OrbitController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) SetController(ctrl OrbitController) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controller = ctrl
	c.updateMatrices()
}

func (c *cameraImpl) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.controller == nil {
		return
	}
	c.updateMatrices()
}

func (c *cameraImpl) SharedUniforms(useDepth bool) GPUSharedUniforms {
	c.mu.Lock()
	defer c.mu.Unlock()
	return NewSharedUniforms(c.pose, c.projection, useDepth)
}

// updateMatrices recalculates the pose, view and projection. The pose is left unchanged
// without a controller. Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	c.projection = common.Perspective(c.fov, c.aspect, c.near, c.far)
	if c.controller == nil {
		return
	}
	eye := c.controller.Position()
	target := c.controller.Target()
	if eye.Sub(target).Len() < 1e-6 {
		return
	}
	c.view = mgl32.LookAtV(eye, target, c.up)
	c.pose = c.view.Inv()
}
