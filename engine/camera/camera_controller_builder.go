package camera

import "github.com/go-gl/mathgl/mgl32"

// OrbitControllerOption is a functional option applied by NewOrbitController.
type OrbitControllerOption func(*orbitController)

// WithRadius sets the initial distance from the pivot.
//
// Parameters:
//   - radius: distance in meters
//
// Returns:
//   - OrbitControllerOption: a function that sets the radius
func WithRadius(radius float32) OrbitControllerOption {
	return func(oc *orbitController) {
		oc.radius = radius
	}
}

// WithAzimuth sets the initial horizontal angle.
//
// Parameters:
//   - azimuth: angle around the Y axis in radians
//
// Returns:
//   - OrbitControllerOption: a function that sets the azimuth
func WithAzimuth(azimuth float32) OrbitControllerOption {
	return func(oc *orbitController) {
		oc.azimuth = azimuth
	}
}

// WithElevation sets the initial vertical angle.
//
// Parameters:
//   - elevation: angle above the horizontal plane in radians
//
// Returns:
//   - OrbitControllerOption: a function that sets the elevation
func WithElevation(elevation float32) OrbitControllerOption {
	return func(oc *orbitController) {
		oc.elevation = elevation
	}
}

// WithTarget sets the pivot point.
//
// Parameters:
//   - target: world-space pivot
//
// Returns:
//   - OrbitControllerOption: a function that sets the pivot
func WithTarget(target mgl32.Vec3) OrbitControllerOption {
	return func(oc *orbitController) {
		oc.target = target
	}
}

// WithRadiusBounds sets the zoom limits.
//
// Parameters:
//   - min, max: the radius bounds in meters
//
// Returns:
//   - OrbitControllerOption: a function that sets the bounds
func WithRadiusBounds(min, max float32) OrbitControllerOption {
	return func(oc *orbitController) {
		oc.minRadius = min
		oc.maxRadius = max
	}
}

// WithOrbitSpeed sets the angle applied per HandleKey step.
//
// Parameters:
//   - speed: radians per step
//
// Returns:
//   - OrbitControllerOption: a function that sets the orbit speed
func WithOrbitSpeed(speed float32) OrbitControllerOption {
	return func(oc *orbitController) {
		oc.orbitSpeed = speed
	}
}

// WithZoomSpeed sets the distance applied per unit of Zoom delta.
//
// Parameters:
//   - speed: meters per unit
//
// Returns:
//   - OrbitControllerOption: a function that sets the zoom speed
func WithZoomSpeed(speed float32) OrbitControllerOption {
	return func(oc *orbitController) {
		oc.zoomSpeed = speed
	}
}
