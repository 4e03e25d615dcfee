package wgpu_backend

import "github.com/cogentcore/webgpu/wgpu"

// DeviceBuilderOption is a functional option used to configure a WebGPU device during construction.
type DeviceBuilderOption func(*device)

// WithName sets the label of the device and the name reported by Device.Name.
//
// Parameters:
//   - name: the device name
//
// Returns:
//   - DeviceBuilderOption: a function that sets the device name
func WithName(name string) DeviceBuilderOption {
	return func(d *device) {
		d.name = name
	}
}

// WithSurfaceDescriptor sets the window surface the device presents to. Without one the device
// renders offscreen only and NewSurfaceDestination fails.
//
// Parameters:
//   - desc: the platform surface descriptor, usually produced by the window package
//
// Returns:
//   - DeviceBuilderOption: a function that sets the surface descriptor
func WithSurfaceDescriptor(desc *wgpu.SurfaceDescriptor) DeviceBuilderOption {
	return func(d *device) {
		d.surfaceDesc = desc
	}
}

// WithForceFallbackAdapter requests the software adapter.
//
// Parameters:
//   - force: whether to force the fallback adapter
//
// Returns:
//   - DeviceBuilderOption: a function that sets the adapter preference
func WithForceFallbackAdapter(force bool) DeviceBuilderOption {
	return func(d *device) {
		d.forceFallback = force
	}
}

// WithPresentMode sets the surface present mode. Defaults to wgpu.PresentModeFifo.
//
// Parameters:
//   - mode: the present mode
//
// Returns:
//   - DeviceBuilderOption: a function that sets the present mode
func WithPresentMode(mode wgpu.PresentMode) DeviceBuilderOption {
	return func(d *device) {
		d.presentMode = mode
	}
}
