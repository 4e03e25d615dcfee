package wgpu_backend

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-ar/common"
	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// resourceBinding is one declared binding along with the layout entry built for it.
type resourceBinding struct {
	shader.Binding
	viewDimension wgpu.TextureViewDimension
}

// pipelineState holds the layout shared by every variant of a pipeline. WebGPU bakes cull mode,
// depth-stencil state, depth bias and topology into the pipeline, so the concrete
// wgpu.RenderPipeline objects are created per encoder state the first time a draw needs them.
type pipelineState struct {
	device *device
	desc   gpu.RenderPipelineDescriptor

	vertex   *function
	fragment *function

	groups       [][]resourceBinding
	layouts      []*wgpu.BindGroupLayout
	layout       *wgpu.PipelineLayout
	vertexSlots  []gpu.VertexBufferLayout
	vertexLayout []wgpu.VertexBufferLayout

	mu       sync.Mutex
	variants map[variantKey]*wgpu.RenderPipeline
}

type variantKey struct {
	depth     gpu.DepthStencilDescriptor
	cull      gpu.CullMode
	bias      gpu.DepthBias
	primitive gpu.PrimitiveType
	index     gpu.IndexType
}

func newPipelineState(d *device, desc *gpu.RenderPipelineDescriptor) (*pipelineState, error) {
	vertex, ok := desc.VertexFunction.(*function)
	if !ok {
		return nil, fmt.Errorf("%w: vertex function of %q was not created by this device", gpu.ErrInvalidDescriptor, desc.Label)
	}
	p := &pipelineState{
		device:   d,
		desc:     desc.Clone(),
		vertex:   vertex,
		variants: make(map[variantKey]*wgpu.RenderPipeline),
	}
	sources := []string{vertex.code}
	if desc.FragmentFunction != nil {
		fragment, ok := desc.FragmentFunction.(*function)
		if !ok {
			return nil, fmt.Errorf("%w: fragment function of %q was not created by this device", gpu.ErrInvalidDescriptor, desc.Label)
		}
		p.fragment = fragment
		if fragment.code != vertex.code {
			sources = append(sources, fragment.code)
		}
	}

	p.groups = mergeBindings(sources...)
	p.layouts = make([]*wgpu.BindGroupLayout, len(p.groups))
	for g, bindings := range p.groups {
		entries := make([]wgpu.BindGroupLayoutEntry, 0, len(bindings))
		for _, b := range bindings {
			entries = append(entries, layoutEntry(b))
		}
		layout, err := d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label:   fmt.Sprintf("%s group %d", desc.Label, g),
			Entries: entries,
		})
		if err != nil {
			p.release()
			return nil, fmt.Errorf("failed to create bind group layout for group %d: %w", g, err)
		}
		p.layouts[g] = layout
	}

	layout, err := d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: p.layouts,
	})
	if err != nil {
		p.release()
		return nil, fmt.Errorf("failed to create pipeline layout for %q: %w", desc.Label, err)
	}
	p.layout = layout

	if desc.VertexDescriptor != nil {
		p.vertexSlots = append(p.vertexSlots, desc.VertexDescriptor.Layouts...)
		sort.Slice(p.vertexSlots, func(i, j int) bool { return p.vertexSlots[i].BufferIndex < p.vertexSlots[j].BufferIndex })
		for _, slot := range p.vertexSlots {
			vl := wgpu.VertexBufferLayout{
				ArrayStride: slot.Stride,
				StepMode:    stepMode(slot.StepFunction),
			}
			for _, a := range desc.VertexDescriptor.Attributes {
				if a.BufferIndex != slot.BufferIndex {
					continue
				}
				vl.Attributes = append(vl.Attributes, wgpu.VertexAttribute{
					Format:         vertexFormat(a.Format),
					Offset:         a.Offset,
					ShaderLocation: uint32(a.Location),
				})
			}
			p.vertexLayout = append(p.vertexLayout, vl)
		}
	}

	// Build the common variant eagerly so descriptor errors surface at creation.
	if _, err := p.variant(variantKey{
		depth:     gpu.DepthStencilDescriptor{DepthCompareFunction: gpu.CompareFunctionLess, DepthWriteEnabled: true},
		cull:      gpu.CullModeBack,
		primitive: gpu.PrimitiveTypeTriangle,
		index:     gpu.IndexTypeUInt32,
	}); err != nil {
		p.release()
		return nil, err
	}
	return p, nil
}

func (p *pipelineState) Label() string                            { return p.desc.Label }
func (p *pipelineState) Descriptor() gpu.RenderPipelineDescriptor { return p.desc.Clone() }

// vertexSlot returns the vertex buffer slot a buffer index is bound to, if the pipeline
// consumes it as a vertex stream.
func (p *pipelineState) vertexSlot(bufferIndex int) (uint32, bool) {
	for i, s := range p.vertexSlots {
		if s.BufferIndex == bufferIndex {
			return uint32(i), true
		}
	}
	return 0, false
}

func (p *pipelineState) variant(key variantKey) (*wgpu.RenderPipeline, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if rp, ok := p.variants[key]; ok {
		return rp, nil
	}

	desc := &wgpu.RenderPipelineDescriptor{
		Label:  p.desc.Label,
		Layout: p.layout,
		Vertex: wgpu.VertexState{
			Module:     p.vertex.module,
			EntryPoint: p.vertex.name,
			Buffers:    p.vertexLayout,
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  topology(key.primitive),
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  cullMode(key.cull),
		},
		Multisample: wgpu.MultisampleState{
			Count: uint32(max(p.desc.SampleCount, 1)),
			Mask:  0xFFFFFFFF,
		},
	}
	if isStrip(key.primitive) {
		desc.Primitive.StripIndexFormat = indexFormat(key.index)
	}
	if p.fragment != nil {
		targets := make([]wgpu.ColorTargetState, 0, len(p.desc.ColorAttachments))
		for _, c := range p.desc.ColorAttachments {
			state := wgpu.ColorTargetState{
				Format:    textureFormat(c.Format),
				WriteMask: wgpu.ColorWriteMaskAll,
			}
			if c.BlendingEnabled {
				state.Blend = alphaBlend
			}
			targets = append(targets, state)
		}
		desc.Fragment = &wgpu.FragmentState{
			Module:     p.fragment.module,
			EntryPoint: p.fragment.name,
			Targets:    targets,
		}
	}
	if p.desc.DepthAttachmentFormat != gpu.PixelFormatInvalid {
		desc.DepthStencil = &wgpu.DepthStencilState{
			Format:              textureFormat(p.desc.DepthAttachmentFormat),
			DepthWriteEnabled:   key.depth.DepthWriteEnabled,
			DepthCompare:        compareFunction(key.depth.DepthCompareFunction),
			DepthBias:           int32(key.bias.Bias),
			DepthBiasSlopeScale: key.bias.SlopeScale,
			DepthBiasClamp:      key.bias.Clamp,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		}
	}

	rp, err := p.device.device.CreateRenderPipeline(desc)
	if err != nil {
		return nil, fmt.Errorf("failed to create render pipeline %q: %w", p.desc.Label, err)
	}
	common.Logger().Debug("render pipeline variant created", "pipeline", p.desc.Label, "variants", len(p.variants)+1)
	p.variants[key] = rp
	return rp, nil
}

func (p *pipelineState) release() {
	for _, rp := range p.variants {
		rp.Release()
	}
	p.variants = nil
	if p.layout != nil {
		p.layout.Release()
	}
	for _, l := range p.layouts {
		if l != nil {
			l.Release()
		}
	}
}

// mergeBindings collects the bindings declared across the vertex and fragment sources, indexed
// by group. A binding declared in both sources is kept once.
func mergeBindings(sources ...string) [][]resourceBinding {
	seen := make(map[[2]int]bool)
	var groups [][]resourceBinding
	for _, src := range sources {
		for _, b := range shader.ParseBindings(src) {
			key := [2]int{b.Group, b.Binding}
			if seen[key] {
				continue
			}
			seen[key] = true
			for len(groups) <= b.Group {
				groups = append(groups, nil)
			}
			groups[b.Group] = append(groups[b.Group], resourceBinding{Binding: b, viewDimension: viewDimension(b.Type)})
		}
	}
	for _, g := range groups {
		sort.Slice(g, func(i, j int) bool { return g[i].Binding.Binding < g[j].Binding.Binding })
	}
	return groups
}

func viewDimension(typeName string) wgpu.TextureViewDimension {
	switch {
	case strings.HasPrefix(typeName, "texture_cube"), strings.HasPrefix(typeName, "texture_depth_cube"):
		return wgpu.TextureViewDimensionCube
	case strings.Contains(typeName, "2d_array"):
		return wgpu.TextureViewDimension2DArray
	case strings.HasPrefix(typeName, "texture_3d"):
		return wgpu.TextureViewDimension3D
	}
	return wgpu.TextureViewDimension2D
}

func layoutEntry(b resourceBinding) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    uint32(b.Binding.Binding),
		Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
	}
	switch b.Kind {
	case shader.ResourceKindUniformBuffer:
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
		entry.Buffer.MinBindingSize = b.MinSize
	case shader.ResourceKindStorageBuffer:
		entry.Buffer.Type = wgpu.BufferBindingTypeStorage
		entry.Visibility = wgpu.ShaderStageFragment
	case shader.ResourceKindReadOnlyStorageBuffer:
		entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
	case shader.ResourceKindTexture:
		entry.Texture.SampleType = wgpu.TextureSampleTypeFloat
		entry.Texture.ViewDimension = b.viewDimension
		entry.Texture.Multisampled = b.Multisampled
	case shader.ResourceKindDepthTexture:
		entry.Texture.SampleType = wgpu.TextureSampleTypeDepth
		entry.Texture.ViewDimension = b.viewDimension
		entry.Texture.Multisampled = b.Multisampled
	case shader.ResourceKindSampler:
		entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	case shader.ResourceKindComparisonSampler:
		entry.Sampler.Type = wgpu.SamplerBindingTypeComparison
	}
	return entry
}
