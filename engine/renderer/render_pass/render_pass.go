package render_pass

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/draw_call"
)

// ErrNoDescriptor is returned by Begin when the pass has no attachments for this frame.
var ErrNoDescriptor = errors.New("render pass: no render pass descriptor")

// MergePolicy decides whether a per-draw-call value or the pass template's value wins when
// building a pipeline descriptor.
type MergePolicy int

const (
	// PreferInstance uses the draw call's value.
	PreferInstance MergePolicy = iota

	// PreferTemplate keeps the template's value.
	PreferTemplate
)

// Uses is the set of shared inputs a pass consumes. Modules bind only the buffers and
// textures a pass uses.
type Uses uint8

const (
	UsesGeometry Uses = 1 << iota
	UsesLighting
	UsesSharedBuffer
	UsesEnvironment
	UsesEffects
	UsesCameraOutput
	UsesShadows
)

// Has reports whether every flag in f is set.
func (u Uses) Has(f Uses) bool {
	return u&f == f
}

// renderPass is the implementation of the RenderPass interface.
type renderPass struct {
	label      string
	descriptor *gpu.RenderPassDescriptor
	template   gpu.RenderPipelineDescriptor

	vertexDescriptorPolicy MergePolicy
	vertexFunctionPolicy   MergePolicy
	fragmentFunctionPolicy MergePolicy

	uses         Uses
	depthCompare *gpu.CompareFunction
	depthWrite   bool
	depthBias    *gpu.DepthBias
	shadowMap    gpu.Texture
	destination  gpu.RenderDestination

	encoder gpu.RenderCommandEncoder
	groups  []*draw_call.Group
}

// RenderPass is one traversal of draw calls into one set of attachments. It owns the template
// pipeline descriptor every draw call merges its shader stages into and the flags that tell
// modules which shared inputs to bind.
type RenderPass interface {
	draw_call.PipelineTemplate

	// Uses returns the shared inputs the pass consumes.
	Uses() Uses

	// Descriptor returns the attachments the pass writes this frame, or nil when none are available.
	Descriptor() *gpu.RenderPassDescriptor

	// SetDescriptor replaces the attachments of the pass.
	//
	// Parameters:
	//   - desc: the attachments
	SetDescriptor(desc *gpu.RenderPassDescriptor)

	// Template returns a copy of the template pipeline descriptor.
	Template() gpu.RenderPipelineDescriptor

	// DepthBias returns the depth bias draw calls in this pass apply, or nil.
	DepthBias() *gpu.DepthBias

	// ShadowMap returns the depth texture written by a shadow pass, or sampled by a main pass.
	ShadowMap() gpu.Texture

	// Begin opens the pass encoder on commandBuffer. A pass built for a render destination
	// first refreshes its descriptor from the destination's current drawable.
	//
	// Parameters:
	//   - commandBuffer: the frame's command buffer
	//
	// Returns:
	//   - error: ErrNoDescriptor when no attachments are available, or the encoder creation error
	Begin(commandBuffer gpu.CommandBuffer) error

	// Encoder returns the open encoder, nil outside Begin and End.
	Encoder() gpu.RenderCommandEncoder

	// End closes the open encoder. It is a no-op when none is open.
	End()

	// Groups returns the draw call groups assigned to the pass in draw order.
	Groups() []*draw_call.Group

	// AddGroups appends groups to the pass.
	AddGroups(groups ...*draw_call.Group)

	// RemoveModuleGroups drops every group owned by moduleID.
	RemoveModuleGroups(moduleID string)
}

var _ RenderPass = &renderPass{}

// NewRenderPass creates a RenderPass. Without options the pass uses every input, prefers
// instance values for all three merge policies and writes depth.
//
// Parameters:
//   - label: the pass name
//   - options: variadic list of RenderPassBuilderOption functions
//
// Returns:
//   - RenderPass: the pass
func NewRenderPass(label string, options ...RenderPassBuilderOption) RenderPass {
	p := &renderPass{
		label:      label,
		uses:       UsesGeometry | UsesLighting | UsesSharedBuffer | UsesEnvironment | UsesEffects | UsesCameraOutput | UsesShadows,
		depthWrite: true,
		template:   gpu.RenderPipelineDescriptor{SampleCount: 1},
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *renderPass) Label() string                          { return p.label }
func (p *renderPass) Uses() Uses                             { return p.uses }
func (p *renderPass) Descriptor() *gpu.RenderPassDescriptor  { return p.descriptor }
func (p *renderPass) Template() gpu.RenderPipelineDescriptor { return p.template.Clone() }
func (p *renderPass) DepthBias() *gpu.DepthBias              { return p.depthBias }
func (p *renderPass) ShadowMap() gpu.Texture                 { return p.shadowMap }
func (p *renderPass) Encoder() gpu.RenderCommandEncoder      { return p.encoder }
func (p *renderPass) Groups() []*draw_call.Group             { return p.groups }

func (p *renderPass) SetDescriptor(desc *gpu.RenderPassDescriptor) {
	p.descriptor = desc
}

func (p *renderPass) RenderPipelineDescriptor(vertexDescriptor *gpu.VertexDescriptor, vertexFunction, fragmentFunction gpu.Function) gpu.RenderPipelineDescriptor {
	desc := p.template.Clone()
	if !p.uses.Has(UsesGeometry) {
		desc.VertexDescriptor = nil
		desc.VertexFunction = nil
	} else {
		if p.vertexDescriptorPolicy == PreferInstance {
			desc.VertexDescriptor = vertexDescriptor.Clone()
		}
		if p.vertexFunctionPolicy == PreferInstance {
			desc.VertexFunction = vertexFunction
		}
	}
	if !p.uses.Has(UsesLighting) {
		desc.FragmentFunction = nil
	} else if p.fragmentFunctionPolicy == PreferInstance {
		desc.FragmentFunction = fragmentFunction
	}
	return desc
}

func (p *renderPass) DepthStencilDescriptor(fallback gpu.CompareFunction) gpu.DepthStencilDescriptor {
	compare := fallback
	if p.depthCompare != nil {
		compare = *p.depthCompare
	}
	return gpu.DepthStencilDescriptor{
		Label:                p.label,
		DepthCompareFunction: compare,
		DepthWriteEnabled:    p.depthWrite,
	}
}

func (p *renderPass) Begin(commandBuffer gpu.CommandBuffer) error {
	if p.encoder != nil {
		return fmt.Errorf("render pass %q: already encoding", p.label)
	}
	if p.destination != nil {
		p.descriptor = p.destination.CurrentRenderPassDescriptor()
	}
	if p.descriptor == nil {
		return fmt.Errorf("%w: %s", ErrNoDescriptor, p.label)
	}
	enc, err := commandBuffer.MakeRenderCommandEncoder(p.descriptor)
	if err != nil {
		return fmt.Errorf("render pass %q: %w", p.label, err)
	}
	enc.SetLabel(p.label)
	p.encoder = enc
	return nil
}

func (p *renderPass) End() {
	if p.encoder == nil {
		return
	}
	p.encoder.EndEncoding()
	p.encoder = nil
}

func (p *renderPass) AddGroups(groups ...*draw_call.Group) {
	p.groups = append(p.groups, groups...)
}

func (p *renderPass) RemoveModuleGroups(moduleID string) {
	kept := p.groups[:0]
	for _, g := range p.groups {
		if g.ModuleID != moduleID {
			kept = append(kept, g)
		}
	}
	for i := len(kept); i < len(p.groups); i++ {
		p.groups[i] = nil
	}
	p.groups = kept
}
