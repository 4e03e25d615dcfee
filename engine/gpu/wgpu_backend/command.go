package wgpu_backend

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-ar/common"
	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

type commandQueue struct {
	device *device
	label  string
}

func (q *commandQueue) Label() string { return q.label }

func (q *commandQueue) MakeCommandBuffer(label string) (gpu.CommandBuffer, error) {
	enc, err := q.device.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("failed to create command encoder %q: %w", label, err)
	}
	return &commandBuffer{device: q.device, label: label, encoder: enc, done: make(chan struct{})}, nil
}

// releaser is anything with a Release method, held by a command buffer until it completes.
type releaser interface{ Release() }

type commandBuffer struct {
	device  *device
	label   string
	encoder *wgpu.CommandEncoder

	mu          sync.Mutex
	handlers    []func(gpu.CommandBuffer)
	status      gpu.CommandBufferStatus
	openEncoder *renderEncoder
	encoders    int
	drawables   []*drawable
	transient   []releaser
	done        chan struct{}
}

func (c *commandBuffer) Label() string { return c.label }

func (c *commandBuffer) Status() gpu.CommandBufferStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *commandBuffer) AddCompletedHandler(handler func(gpu.CommandBuffer)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, handler)
}

func (c *commandBuffer) hold(r releaser) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transient = append(c.transient, r)
}

func (c *commandBuffer) MakeRenderCommandEncoder(desc *gpu.RenderPassDescriptor) (gpu.RenderCommandEncoder, error) {
	if desc == nil {
		return nil, fmt.Errorf("%w: nil render pass descriptor", gpu.ErrInvalidDescriptor)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != gpu.CommandBufferStatusNotEnqueued {
		return nil, errors.New("wgpu: command buffer already committed")
	}
	if c.openEncoder != nil {
		return nil, fmt.Errorf("wgpu: encoder %q is still open", c.openEncoder.label)
	}

	pass, sampleCount, err := renderPassDescriptor(desc)
	if err != nil {
		return nil, err
	}
	c.encoders++
	enc := &renderEncoder{
		buffer:      c,
		device:      c.device,
		label:       fmt.Sprintf("%s/encoder-%d", c.label, c.encoders),
		pass:        c.encoder.BeginRenderPass(pass),
		sampleCount: sampleCount,
		depth:       gpu.DepthStencilDescriptor{DepthCompareFunction: gpu.CompareFunctionAlways},
		buffers:     make(map[int]boundBuffer),
		textures:    make(map[int]*texture),
	}
	c.openEncoder = enc
	return enc, nil
}

func renderPassDescriptor(desc *gpu.RenderPassDescriptor) (*wgpu.RenderPassDescriptor, int, error) {
	out := &wgpu.RenderPassDescriptor{}
	sampleCount := 1
	for i, a := range desc.ColorAttachments {
		tex, ok := a.Texture.(*texture)
		if !ok {
			return nil, 0, fmt.Errorf("%w: colour attachment %d was not created by this device", gpu.ErrInvalidDescriptor, i)
		}
		sampleCount = max(sampleCount, tex.desc.SampleCount)
		ca := wgpu.RenderPassColorAttachment{
			View:    tex.view,
			LoadOp:  loadOp(a.LoadAction),
			StoreOp: storeOp(a.StoreAction),
			ClearValue: wgpu.Color{
				R: a.ClearColor[0], G: a.ClearColor[1], B: a.ClearColor[2], A: a.ClearColor[3],
			},
		}
		if resolve, ok := a.ResolveTexture.(*texture); ok && resolve != nil {
			ca.ResolveTarget = resolve.view
		}
		out.ColorAttachments = append(out.ColorAttachments, ca)
	}
	if desc.Depth != nil {
		tex, ok := desc.Depth.Texture.(*texture)
		if !ok {
			return nil, 0, fmt.Errorf("%w: depth attachment was not created by this device", gpu.ErrInvalidDescriptor)
		}
		sampleCount = max(sampleCount, tex.desc.SampleCount)
		ds := &wgpu.RenderPassDepthStencilAttachment{
			View:            tex.view,
			DepthLoadOp:     loadOp(desc.Depth.LoadAction),
			DepthStoreOp:    storeOp(desc.Depth.StoreAction),
			DepthClearValue: float32(desc.Depth.ClearDepth),
		}
		if tex.desc.Format.HasStencil() {
			ds.StencilLoadOp = wgpu.LoadOpClear
			ds.StencilStoreOp = wgpu.StoreOpDiscard
			if desc.Stencil != nil {
				ds.StencilLoadOp = loadOp(desc.Stencil.LoadAction)
				ds.StencilStoreOp = storeOp(desc.Stencil.StoreAction)
				ds.StencilClearValue = desc.Stencil.ClearStencil
			}
		}
		out.DepthStencilAttachment = ds
	}
	return out, sampleCount, nil
}

func (c *commandBuffer) encoderEnded(enc *renderEncoder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.openEncoder == enc {
		c.openEncoder = nil
	}
}

func (c *commandBuffer) Present(d gpu.Drawable) {
	dr, ok := d.(*drawable)
	if !ok || dr == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drawables = append(c.drawables, dr)
}

func (c *commandBuffer) Commit() {
	c.mu.Lock()
	if c.status != gpu.CommandBufferStatusNotEnqueued {
		c.mu.Unlock()
		return
	}
	c.status = gpu.CommandBufferStatusCommitted
	handlers := slices.Clone(c.handlers)
	drawables := c.drawables
	c.mu.Unlock()

	cb, err := c.encoder.Finish(&wgpu.CommandBufferDescriptor{Label: c.label})
	c.encoder.Release()
	if err != nil {
		common.Logger().Warn("failed to finish command buffer", "label", c.label, "error", err)
		c.complete(gpu.CommandBufferStatusError, handlers)
		return
	}
	c.device.queue.Submit(cb)
	cb.Release()

	for _, d := range drawables {
		d.present()
	}

	go func() {
		c.device.device.Poll(true, nil)
		c.complete(gpu.CommandBufferStatusCompleted, handlers)
	}()
}

func (c *commandBuffer) complete(status gpu.CommandBufferStatus, handlers []func(gpu.CommandBuffer)) {
	c.mu.Lock()
	c.status = status
	transient := c.transient
	c.transient = nil
	c.mu.Unlock()

	for _, r := range transient {
		r.Release()
	}
	for _, h := range handlers {
		h(c)
	}
	close(c.done)
}

func (c *commandBuffer) WaitUntilCompleted() {
	if c.Status() == gpu.CommandBufferStatusNotEnqueued {
		return
	}
	<-c.done
}

type boundBuffer struct {
	raw    *wgpu.Buffer
	offset uint64
}

// renderEncoder records state into a wgpu render pass. Resource bindings are collected by slot
// and turned into bind groups when a draw is issued.
type renderEncoder struct {
	buffer      *commandBuffer
	device      *device
	label       string
	pass        *wgpu.RenderPassEncoder
	sampleCount int
	ended       bool

	pipeline *pipelineState
	depth    gpu.DepthStencilDescriptor
	cull     gpu.CullMode
	bias     gpu.DepthBias
	buffers  map[int]boundBuffer
	textures map[int]*texture
}

func (e *renderEncoder) Label() string { return e.label }

func (e *renderEncoder) SetLabel(label string) {
	e.label = label
}

func (e *renderEncoder) check(op string) {
	if e.ended {
		panic(fmt.Errorf("%w: %s on %q", gpu.ErrEncoderEnded, op, e.label))
	}
}

func (e *renderEncoder) SetRenderPipelineState(state gpu.RenderPipelineState) {
	e.check("set-pipeline-state")
	p, ok := state.(*pipelineState)
	if !ok {
		panic(fmt.Sprintf("wgpu: pipeline state %T was not created by this device", state))
	}
	e.pipeline = p
}

func (e *renderEncoder) SetDepthStencilState(state gpu.DepthStencilState) {
	e.check("set-depth-stencil-state")
	if state == nil {
		e.depth = gpu.DepthStencilDescriptor{DepthCompareFunction: gpu.CompareFunctionAlways}
		return
	}
	e.depth = state.Descriptor()
	e.depth.Label = ""
}

func (e *renderEncoder) SetCullMode(mode gpu.CullMode) {
	e.check("set-cull-mode")
	e.cull = mode
}

func (e *renderEncoder) SetDepthBias(bias gpu.DepthBias) {
	e.check("set-depth-bias")
	e.bias = bias
}

func (e *renderEncoder) setBuffer(buf gpu.Buffer, offset, index int) {
	if buf == nil {
		delete(e.buffers, index)
		return
	}
	b, ok := buf.(*buffer)
	if !ok || b.raw == nil {
		panic(fmt.Sprintf("wgpu: buffer %q was not created by this device", buf.Label()))
	}
	e.buffers[index] = boundBuffer{raw: b.raw, offset: uint64(offset)}
}

func (e *renderEncoder) SetVertexBuffer(buf gpu.Buffer, offset, index int) {
	e.check("set-vertex-buffer")
	e.setBuffer(buf, offset, index)
}

func (e *renderEncoder) SetFragmentBuffer(buf gpu.Buffer, offset, index int) {
	e.check("set-fragment-buffer")
	e.setBuffer(buf, offset, index)
}

// setBytes copies data into a transient buffer released when the command buffer completes.
func (e *renderEncoder) setBytes(data []byte, index int) {
	size := uint64(align4(max(len(data), 16)))
	raw, err := e.device.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: fmt.Sprintf("%s bytes %d", e.label, index),
		Size:  size,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		common.Logger().Warn("failed to allocate inline constant buffer", "encoder", e.label, "index", index, "error", err)
		return
	}
	padded := make([]byte, size)
	copy(padded, data)
	e.device.queue.WriteBuffer(raw, 0, padded)
	e.buffer.hold(raw)
	e.buffers[index] = boundBuffer{raw: raw}
}

func (e *renderEncoder) SetVertexBytes(data []byte, index int) {
	e.check("set-vertex-bytes")
	e.setBytes(data, index)
}

func (e *renderEncoder) SetFragmentBytes(data []byte, index int) {
	e.check("set-fragment-bytes")
	e.setBytes(data, index)
}

func (e *renderEncoder) SetFragmentTexture(tex gpu.Texture, index int) {
	e.check("set-fragment-texture")
	if tex == nil {
		delete(e.textures, index)
		return
	}
	t, ok := tex.(*texture)
	if !ok {
		panic(fmt.Sprintf("wgpu: texture %q was not created by this device", tex.Label()))
	}
	e.textures[index] = t
}

// prepare binds the pipeline variant, the vertex streams and the bind groups for a draw.
func (e *renderEncoder) prepare(primitive gpu.PrimitiveType, index gpu.IndexType) error {
	if e.pipeline == nil {
		panic(fmt.Sprintf("wgpu: draw on %q without a pipeline state", e.label))
	}
	depth := e.depth
	if e.pipeline.desc.DepthAttachmentFormat == gpu.PixelFormatInvalid {
		depth = gpu.DepthStencilDescriptor{}
	}
	rp, err := e.pipeline.variant(variantKey{depth: depth, cull: e.cull, bias: e.bias, primitive: primitive, index: index})
	if err != nil {
		return err
	}
	e.pass.SetPipeline(rp)

	for i, slot := range e.pipeline.vertexSlots {
		bound, ok := e.buffers[slot.BufferIndex]
		if !ok {
			return fmt.Errorf("vertex stream %d is not bound", slot.BufferIndex)
		}
		e.pass.SetVertexBuffer(uint32(i), bound.raw, bound.offset, wgpu.WholeSize)
	}

	for g, bindings := range e.pipeline.groups {
		entries := make([]wgpu.BindGroupEntry, 0, len(bindings))
		for _, b := range bindings {
			entry, err := e.entry(g, b)
			if err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		bg, err := e.device.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:   fmt.Sprintf("%s group %d", e.pipeline.desc.Label, g),
			Layout:  e.pipeline.layouts[g],
			Entries: entries,
		})
		if err != nil {
			return fmt.Errorf("failed to create bind group %d: %w", g, err)
		}
		e.buffer.hold(bg)
		e.pass.SetBindGroup(uint32(g), bg, nil)
	}
	return nil
}

func (e *renderEncoder) entry(group int, b resourceBinding) (wgpu.BindGroupEntry, error) {
	slot := b.Binding.Binding
	out := wgpu.BindGroupEntry{Binding: uint32(slot)}
	switch {
	case b.Kind.IsBuffer():
		if bound, ok := e.buffers[slot]; ok && group == shader.BufferGroup {
			out.Buffer, out.Offset, out.Size = bound.raw, bound.offset, wgpu.WholeSize
			return out, nil
		}
		zero, err := e.device.zeroBuffer(b.MinSize)
		if err != nil {
			return out, err
		}
		out.Buffer, out.Size = zero, wgpu.WholeSize
	case b.Kind == shader.ResourceKindSampler:
		out.Sampler = e.device.filtering
	case b.Kind == shader.ResourceKindComparisonSampler:
		out.Sampler = e.device.comparison
	default:
		tex := e.textures[slot/2]
		if tex == nil || group != shader.TextureGroup {
			var err error
			tex, err = e.device.fallbackTexture(b.Kind == shader.ResourceKindDepthTexture, b.viewDimension == wgpu.TextureViewDimensionCube)
			if err != nil {
				return out, err
			}
		}
		view, err := tex.viewFor(b.viewDimension)
		if err != nil {
			return out, err
		}
		out.TextureView = view
	}
	return out, nil
}

func (e *renderEncoder) DrawPrimitives(primitive gpu.PrimitiveType, vertexStart, vertexCount, instanceCount int) {
	e.check("draw")
	if err := e.prepare(primitive, gpu.IndexTypeUInt32); err != nil {
		common.Logger().Debug("draw skipped", "encoder", e.label, "pipeline", e.pipeline.Label(), "error", err)
		return
	}
	e.pass.Draw(uint32(vertexCount), uint32(instanceCount), uint32(vertexStart), 0)
}

func (e *renderEncoder) DrawIndexedPrimitives(primitive gpu.PrimitiveType, indexCount int, indexType gpu.IndexType, indexBuffer gpu.Buffer, indexBufferOffset, instanceCount int) {
	e.check("draw-indexed")
	ib, ok := indexBuffer.(*buffer)
	if !ok || ib.raw == nil {
		common.Logger().Debug("draw skipped", "encoder", e.label, "reason", "index buffer not created by this device")
		return
	}
	if err := e.prepare(primitive, indexType); err != nil {
		common.Logger().Debug("draw skipped", "encoder", e.label, "pipeline", e.pipeline.Label(), "error", err)
		return
	}
	e.pass.SetIndexBuffer(ib.raw, indexFormat(indexType), 0, wgpu.WholeSize)
	e.pass.DrawIndexed(uint32(indexCount), uint32(instanceCount), uint32(indexBufferOffset/indexType.Size()), 0, 0)
}

func (e *renderEncoder) PushDebugGroup(name string) {
	e.check("push-debug-group")
	e.pass.PushDebugGroup(name)
}

func (e *renderEncoder) PopDebugGroup() {
	e.check("pop-debug-group")
	e.pass.PopDebugGroup()
}

func (e *renderEncoder) EndEncoding() {
	e.check("end-encoding")
	e.pass.End()
	e.pass.Release()
	e.ended = true
	e.buffer.encoderEnded(e)
}
