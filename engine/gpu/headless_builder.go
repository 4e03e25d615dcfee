package gpu

import "time"

// HeadlessDeviceBuilderOption is a functional option used to configure a headless device during construction.
type HeadlessDeviceBuilderOption func(*headlessDevice)

// WithDeviceName sets the name reported by Device.Name.
//
// Parameters:
//   - name: the device name
//
// Returns:
//   - HeadlessDeviceBuilderOption: a function that sets the device name
func WithDeviceName(name string) HeadlessDeviceBuilderOption {
	return func(d *headlessDevice) {
		d.name = name
	}
}

// WithCompletionLatency delays command buffer completion to simulate GPU execution time.
//
// Parameters:
//   - latency: the delay between Commit and completion handlers firing
//
// Returns:
//   - HeadlessDeviceBuilderOption: a function that sets the simulated latency
func WithCompletionLatency(latency time.Duration) HeadlessDeviceBuilderOption {
	return func(d *headlessDevice) {
		d.latency = latency
	}
}

// WithShaderValidation enables WGSL parsing of library sources and specialized functions.
//
// Parameters:
//   - enabled: whether sources are parsed with naga
//
// Returns:
//   - HeadlessDeviceBuilderOption: a function that toggles validation
func WithShaderValidation(enabled bool) HeadlessDeviceBuilderOption {
	return func(d *headlessDevice) {
		d.validateShaders = enabled
	}
}

// WithEventRecording toggles the command event log. Long soak runs disable it to bound memory.
//
// Parameters:
//   - enabled: whether encoder commands are appended to the event log
//
// Returns:
//   - HeadlessDeviceBuilderOption: a function that toggles recording
func WithEventRecording(enabled bool) HeadlessDeviceBuilderOption {
	return func(d *headlessDevice) {
		d.recordEvents = enabled
	}
}

// WithPipelineFailure makes MakeRenderPipelineState fail for descriptors with the given label,
// used to exercise bootstrap error paths.
//
// Parameters:
//   - label: the pipeline label to reject
//
// Returns:
//   - HeadlessDeviceBuilderOption: a function that registers the failing label
func WithPipelineFailure(label string) HeadlessDeviceBuilderOption {
	return func(d *headlessDevice) {
		d.failingPipelines[label] = struct{}{}
	}
}
