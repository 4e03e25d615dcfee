package render_pass

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/draw_call"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSource = `
@vertex fn vs_a() -> @builtin(position) vec4<f32> { return vec4<f32>(0.0); }
@vertex fn vs_b() -> @builtin(position) vec4<f32> { return vec4<f32>(0.0); }
@fragment fn fs_a() -> @location(0) vec4<f32> { return vec4<f32>(1.0); }
@fragment fn fs_b() -> @location(0) vec4<f32> { return vec4<f32>(1.0); }
`

type functions struct {
	vsA, vsB, fsA, fsB gpu.Function
}

func makeFunctions(t *testing.T) functions {
	t.Helper()
	lib, err := gpu.NewHeadlessDevice().MakeLibrary("lib", testSource, nil)
	require.NoError(t, err)
	get := func(name string) gpu.Function {
		fn, err := lib.MakeFunction(name)
		require.NoError(t, err)
		return fn
	}
	return functions{vsA: get("vs_a"), vsB: get("vs_b"), fsA: get("fs_a"), fsB: get("fs_b")}
}

func TestRenderPipelineDescriptorMerge(t *testing.T) {
	fns := makeFunctions(t)
	templateLayout := &gpu.VertexDescriptor{Layouts: []gpu.VertexBufferLayout{{BufferIndex: 0, Stride: 12}}}
	instanceLayout := &gpu.VertexDescriptor{Layouts: []gpu.VertexBufferLayout{{BufferIndex: 0, Stride: 16}}}
	template := gpu.RenderPipelineDescriptor{
		VertexFunction:   fns.vsA,
		FragmentFunction: fns.fsA,
		VertexDescriptor: templateLayout,
		ColorAttachments: []gpu.ColorAttachmentDescriptor{{Format: gpu.PixelFormatBGRA8Unorm, BlendingEnabled: true}},
		SampleCount:      4,
	}

	t.Run("prefer instance", func(t *testing.T) {
		p := NewRenderPass("p", WithTemplate(template))
		desc := p.RenderPipelineDescriptor(instanceLayout, fns.vsB, fns.fsB)
		assert.Same(t, fns.vsB, desc.VertexFunction)
		assert.Same(t, fns.fsB, desc.FragmentFunction)
		assert.Equal(t, uint64(16), desc.VertexDescriptor.Layouts[0].Stride)
		assert.Equal(t, 4, desc.SampleCount)
		assert.True(t, desc.ColorAttachments[0].BlendingEnabled)
	})

	t.Run("prefer template", func(t *testing.T) {
		p := NewRenderPass("p", WithTemplate(template), WithMergePolicies(PreferTemplate, PreferInstance, PreferTemplate))
		desc := p.RenderPipelineDescriptor(instanceLayout, fns.vsB, fns.fsB)
		assert.Equal(t, uint64(12), desc.VertexDescriptor.Layouts[0].Stride)
		assert.Same(t, fns.vsB, desc.VertexFunction)
		assert.Same(t, fns.fsA, desc.FragmentFunction)
	})

	t.Run("no lighting clears fragment", func(t *testing.T) {
		p := NewRenderPass("p", WithTemplate(template), WithUses(UsesGeometry))
		desc := p.RenderPipelineDescriptor(instanceLayout, fns.vsB, fns.fsB)
		assert.Nil(t, desc.FragmentFunction)
		assert.Same(t, fns.vsB, desc.VertexFunction)
	})

	t.Run("no geometry clears vertex stage", func(t *testing.T) {
		p := NewRenderPass("p", WithTemplate(template), WithUses(UsesLighting))
		desc := p.RenderPipelineDescriptor(instanceLayout, fns.vsB, fns.fsB)
		assert.Nil(t, desc.VertexFunction)
		assert.Nil(t, desc.VertexDescriptor)
		assert.Same(t, fns.fsB, desc.FragmentFunction)
	})

	t.Run("template is not mutated", func(t *testing.T) {
		p := NewRenderPass("p", WithTemplate(template))
		desc := p.RenderPipelineDescriptor(instanceLayout, fns.vsB, fns.fsB)
		desc.VertexDescriptor.Layouts[0].Stride = 99
		assert.Same(t, fns.vsA, p.Template().VertexFunction)
		assert.Equal(t, uint64(16), instanceLayout.Layouts[0].Stride)
	})
}

func TestDepthStencilDescriptor(t *testing.T) {
	p := NewRenderPass("p", WithDepthWrite(false))
	d := p.DepthStencilDescriptor(gpu.CompareFunctionGreater)
	assert.Equal(t, gpu.CompareFunctionGreater, d.DepthCompareFunction)
	assert.False(t, d.DepthWriteEnabled)

	p = NewRenderPass("p", WithDepthCompare(gpu.CompareFunctionAlways))
	d = p.DepthStencilDescriptor(gpu.CompareFunctionGreater)
	assert.Equal(t, gpu.CompareFunctionAlways, d.DepthCompareFunction)
	assert.True(t, d.DepthWriteEnabled)
}

func TestShadowPass(t *testing.T) {
	device := gpu.NewHeadlessDevice()
	p, err := NewShadowPass(device, 1024)
	require.NoError(t, err)

	assert.False(t, p.Uses().Has(UsesLighting))
	assert.True(t, p.Uses().Has(UsesGeometry))
	require.NotNil(t, p.DepthBias())
	assert.Equal(t, float32(0.015), p.DepthBias().Bias)
	assert.Equal(t, float32(7), p.DepthBias().SlopeScale)
	assert.Equal(t, float32(0.02), p.DepthBias().Clamp)

	require.NotNil(t, p.ShadowMap())
	assert.Equal(t, 1024, p.ShadowMap().Width())
	assert.Equal(t, gpu.PixelFormatDepth32Float, p.ShadowMap().Format())
	assert.Empty(t, p.Descriptor().ColorAttachments)
	assert.Equal(t, gpu.PixelFormatDepth32Float, p.Template().DepthAttachmentFormat)

	_, err = NewShadowPass(device, 0)
	assert.Error(t, err)
}

func TestMainPassBeginEnd(t *testing.T) {
	device := gpu.NewHeadlessDevice()
	dest := gpu.NewHeadlessDestination(device, 64, 32)
	shadow, err := NewShadowPass(device, 16)
	require.NoError(t, err)
	p := NewMainPass(dest, shadow.ShadowMap())

	tpl := p.Template()
	require.Len(t, tpl.ColorAttachments, 1)
	assert.True(t, tpl.ColorAttachments[0].BlendingEnabled)
	assert.Equal(t, gpu.PixelFormatDepth32FloatStencil8, tpl.StencilAttachmentFormat)
	assert.Same(t, shadow.ShadowMap(), p.ShadowMap())

	queue, err := device.MakeCommandQueue("q")
	require.NoError(t, err)
	cb, err := queue.MakeCommandBuffer("frame")
	require.NoError(t, err)

	require.NoError(t, shadow.Begin(cb))
	assert.Error(t, shadow.Begin(cb), "a pass cannot be opened twice")
	shadow.End()
	require.NoError(t, p.Begin(cb))
	require.NotNil(t, p.Encoder())
	assert.NotNil(t, p.Descriptor().Stencil)
	p.End()
	assert.Nil(t, p.Encoder())
	p.End()

	var order []string
	for _, e := range device.Events() {
		if e.Kind == gpu.EventBeginEncoding || e.Kind == gpu.EventEndEncoding {
			order = append(order, e.Kind.String()+":"+e.Encoder)
		}
	}
	assert.Equal(t, []string{
		"begin-encoding:frame/encoder-1",
		"end-encoding:shadow",
		"begin-encoding:frame/encoder-2",
		"end-encoding:main",
	}, order)

	dest.SetAvailable(false)
	cb2, err := queue.MakeCommandBuffer("frame-2")
	require.NoError(t, err)
	assert.ErrorIs(t, p.Begin(cb2), ErrNoDescriptor)
}

func TestGroups(t *testing.T) {
	p := NewRenderPass("p")
	a := draw_call.NewGroup("a", "anchors", 0)
	b := draw_call.NewGroup("b", "paths", 0)
	c := draw_call.NewGroup("c", "anchors", 1)
	p.AddGroups(a, b, c)
	p.RemoveModuleGroups("anchors")
	require.Len(t, p.Groups(), 1)
	assert.Same(t, b, p.Groups()[0])
}
