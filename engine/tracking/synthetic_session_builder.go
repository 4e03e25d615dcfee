package tracking

import (
	"github.com/Carmen-Shannon/oxy-ar/engine/camera"
	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
)

// SyntheticSessionOption is a functional option for configuring a SyntheticSession.
type SyntheticSessionOption func(*syntheticSession)

// WithCamera sets the simulated device camera.
//
// Parameters:
//   - cam: the camera, normally with an orbit controller attached
//
// Returns:
//   - SyntheticSessionOption: a function that sets the camera
func WithCamera(cam camera.Camera) SyntheticSessionOption {
	return func(s *syntheticSession) {
		s.camera = cam
	}
}

// WithImageResolution sets the reported camera image resolution.
//
// Parameters:
//   - width, height: the resolution in pixels
//
// Returns:
//   - SyntheticSessionOption: a function that sets the resolution
func WithImageResolution(width, height int) SyntheticSessionOption {
	return func(s *syntheticSession) {
		s.resolution = [2]int{width, height}
	}
}

// WithFloorHeight sets the height of the estimated horizontal floor plane.
//
// Parameters:
//   - height: the floor height in meters
//
// Returns:
//   - SyntheticSessionOption: a function that sets the floor height
func WithFloorHeight(height float32) SyntheticSessionOption {
	return func(s *syntheticSession) {
		s.floorHeight = height
	}
}

// WithObserver sets the observer notified of interruptions.
//
// Parameters:
//   - observer: the observer
//
// Returns:
//   - SyntheticSessionOption: a function that sets the observer
func WithObserver(observer Observer) SyntheticSessionOption {
	return func(s *syntheticSession) {
		s.observer = observer
	}
}

// WithCapturedImages sets the luma and chroma textures reported as the camera image.
//
// Parameters:
//   - y: the luma plane
//   - cbcr: the chroma plane
//
// Returns:
//   - SyntheticSessionOption: a function that sets the textures
func WithCapturedImages(y, cbcr gpu.Texture) SyntheticSessionOption {
	return func(s *syntheticSession) {
		s.imageY = y
		s.imageCbCr = cbcr
	}
}

// WithoutLightEstimation disables light estimates.
//
// Returns:
//   - SyntheticSessionOption: a function that clears the light estimate
func WithoutLightEstimation() SyntheticSessionOption {
	return func(s *syntheticSession) {
		s.light = nil
	}
}
