package render_pass

import "github.com/Carmen-Shannon/oxy-ar/engine/gpu"

// RenderPassBuilderOption is a functional option used to configure a RenderPass during construction.
type RenderPassBuilderOption func(*renderPass)

// WithDescriptor sets fixed attachments for the pass.
//
// Parameters:
//   - desc: the attachments
//
// Returns:
//   - RenderPassBuilderOption: a function that sets the attachments
func WithDescriptor(desc *gpu.RenderPassDescriptor) RenderPassBuilderOption {
	return func(p *renderPass) {
		p.descriptor = desc
	}
}

// WithDestination makes the pass draw into the current drawable of destination, refreshing its
// attachments at every Begin.
//
// Parameters:
//   - destination: the render destination
//
// Returns:
//   - RenderPassBuilderOption: a function that sets the destination
func WithDestination(destination gpu.RenderDestination) RenderPassBuilderOption {
	return func(p *renderPass) {
		p.destination = destination
	}
}

// WithTemplate sets the template pipeline descriptor.
//
// Parameters:
//   - template: the fixed-function baseline shared by every draw call in the pass
//
// Returns:
//   - RenderPassBuilderOption: a function that sets the template
func WithTemplate(template gpu.RenderPipelineDescriptor) RenderPassBuilderOption {
	return func(p *renderPass) {
		p.template = template.Clone()
	}
}

// WithMergePolicies sets the merge policies for the vertex layout, vertex function and
// fragment function.
//
// Parameters:
//   - vertexDescriptor: the policy for the vertex layout
//   - vertexFunction: the policy for the vertex function
//   - fragmentFunction: the policy for the fragment function
//
// Returns:
//   - RenderPassBuilderOption: a function that sets the merge policies
func WithMergePolicies(vertexDescriptor, vertexFunction, fragmentFunction MergePolicy) RenderPassBuilderOption {
	return func(p *renderPass) {
		p.vertexDescriptorPolicy = vertexDescriptor
		p.vertexFunctionPolicy = vertexFunction
		p.fragmentFunctionPolicy = fragmentFunction
	}
}

// WithUses sets the shared inputs the pass consumes.
//
// Parameters:
//   - uses: the flag set
//
// Returns:
//   - RenderPassBuilderOption: a function that sets the flags
func WithUses(uses Uses) RenderPassBuilderOption {
	return func(p *renderPass) {
		p.uses = uses
	}
}

// WithDepthCompare overrides the depth compare function of every draw call in the pass.
//
// Parameters:
//   - compare: the compare function
//
// Returns:
//   - RenderPassBuilderOption: a function that sets the override
func WithDepthCompare(compare gpu.CompareFunction) RenderPassBuilderOption {
	return func(p *renderPass) {
		p.depthCompare = &compare
	}
}

// WithDepthWrite sets whether the pass writes depth.
//
// Parameters:
//   - enabled: the depth write flag
//
// Returns:
//   - RenderPassBuilderOption: a function that sets the flag
func WithDepthWrite(enabled bool) RenderPassBuilderOption {
	return func(p *renderPass) {
		p.depthWrite = enabled
	}
}

// WithDepthBias sets the depth bias draw calls in the pass apply.
//
// Parameters:
//   - bias: the depth bias triple
//
// Returns:
//   - RenderPassBuilderOption: a function that sets the bias
func WithDepthBias(bias gpu.DepthBias) RenderPassBuilderOption {
	return func(p *renderPass) {
		p.depthBias = &bias
	}
}

// WithShadowMap sets the shadow depth texture the pass writes or samples.
//
// Parameters:
//   - tex: the depth texture
//
// Returns:
//   - RenderPassBuilderOption: a function that sets the shadow map
func WithShadowMap(tex gpu.Texture) RenderPassBuilderOption {
	return func(p *renderPass) {
		p.shadowMap = tex
	}
}
