package draw_call

import (
	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ar/engine/model"
)

// DrawCallBuilderOption is a functional option used to configure a DrawCall during construction.
type DrawCallBuilderOption func(*drawCall)

// WithLabel sets the debug label of the draw call.
//
// Parameters:
//   - label: the label
//
// Returns:
//   - DrawCallBuilderOption: a function that sets the label
func WithLabel(label string) DrawCallBuilderOption {
	return func(d *drawCall) {
		d.label = label
	}
}

// WithPipelineStates sets pre-built pipeline states, one per quality level from highest to lowest.
//
// Parameters:
//   - states: the pipeline states
//
// Returns:
//   - DrawCallBuilderOption: a function that sets the pipeline states
func WithPipelineStates(states ...gpu.RenderPipelineState) DrawCallBuilderOption {
	return func(d *drawCall) {
		d.pipelineStates = append([]gpu.RenderPipelineState(nil), states...)
	}
}

// WithDepthStencilState sets a pre-built depth-stencil state.
//
// Parameters:
//   - state: the depth-stencil state
//
// Returns:
//   - DrawCallBuilderOption: a function that sets the depth-stencil state
func WithDepthStencilState(state gpu.DepthStencilState) DrawCallBuilderOption {
	return func(d *drawCall) {
		d.depthStencilState = state
	}
}

// WithDepthCompare sets the compare function used when the pass has no depth compare override.
//
// Parameters:
//   - compare: the fallback compare function
//
// Returns:
//   - DrawCallBuilderOption: a function that sets the fallback compare function
func WithDepthCompare(compare gpu.CompareFunction) DrawCallBuilderOption {
	return func(d *drawCall) {
		d.depthCompare = compare
	}
}

// WithCullMode sets the face culling mode. Back faces are culled by default.
//
// Parameters:
//   - mode: the cull mode
//
// Returns:
//   - DrawCallBuilderOption: a function that sets the cull mode
func WithCullMode(mode gpu.CullMode) DrawCallBuilderOption {
	return func(d *drawCall) {
		d.cullMode = mode
	}
}

// WithDepthBias sets the depth bias applied while the draw call is bound.
//
// Parameters:
//   - bias: the depth bias triple
//
// Returns:
//   - DrawCallBuilderOption: a function that sets the depth bias
func WithDepthBias(bias gpu.DepthBias) DrawCallBuilderOption {
	return func(d *drawCall) {
		d.depthBias = &bias
	}
}

// WithGeometry sets the model the draw call renders.
//
// Parameters:
//   - geometry: the model
//
// Returns:
//   - DrawCallBuilderOption: a function that sets the geometry
func WithGeometry(geometry model.Model) DrawCallBuilderOption {
	return func(d *drawCall) {
		d.geometry = geometry
	}
}
