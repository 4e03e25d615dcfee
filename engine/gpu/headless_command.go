package gpu

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"
)

type headlessCommandBuffer struct {
	device *headlessDevice
	label  string

	mu          sync.Mutex
	handlers    []func(CommandBuffer)
	status      CommandBufferStatus
	openEncoder *headlessEncoder
	encoders    int
	done        chan struct{}
}

func (c *headlessCommandBuffer) Label() string { return c.label }

func (c *headlessCommandBuffer) Status() CommandBufferStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *headlessCommandBuffer) AddCompletedHandler(handler func(CommandBuffer)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, handler)
}

func (c *headlessCommandBuffer) MakeRenderCommandEncoder(desc *RenderPassDescriptor) (RenderCommandEncoder, error) {
	if desc == nil {
		return nil, fmt.Errorf("%w: nil render pass descriptor", ErrInvalidDescriptor)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != CommandBufferStatusNotEnqueued {
		return nil, errors.New("gpu: command buffer already committed")
	}
	if c.openEncoder != nil {
		return nil, fmt.Errorf("gpu: encoder %q is still open", c.openEncoder.label)
	}
	c.encoders++
	enc := &headlessEncoder{
		buffer: c,
		label:  fmt.Sprintf("%s/encoder-%d", c.label, c.encoders),
	}
	c.openEncoder = enc
	c.device.record(Event{Kind: EventBeginEncoding, CommandBuffer: c.label, Encoder: enc.label, Count: len(desc.ColorAttachments)})
	return enc, nil
}

func (c *headlessCommandBuffer) encoderEnded(enc *headlessEncoder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.openEncoder == enc {
		c.openEncoder = nil
	}
}

func (c *headlessCommandBuffer) Present(drawable Drawable) {
	name := ""
	if drawable != nil && drawable.Texture() != nil {
		name = drawable.Texture().Label()
	}
	if hd, ok := drawable.(*headlessDrawable); ok {
		hd.presented.Store(true)
	}
	c.device.record(Event{Kind: EventPresent, CommandBuffer: c.label, Name: name})
}

func (c *headlessCommandBuffer) Commit() {
	c.mu.Lock()
	if c.status != CommandBufferStatusNotEnqueued {
		c.mu.Unlock()
		return
	}
	c.status = CommandBufferStatusCommitted
	handlers := slices.Clone(c.handlers)
	c.mu.Unlock()

	c.device.committed.Add(1)
	c.device.record(Event{Kind: EventCommit, CommandBuffer: c.label})

	go func() {
		if c.device.latency > 0 {
			time.Sleep(c.device.latency)
		}
		c.mu.Lock()
		c.status = CommandBufferStatusCompleted
		c.mu.Unlock()
		c.device.record(Event{Kind: EventCompleted, CommandBuffer: c.label})
		c.device.completed.Add(1)
		for _, h := range handlers {
			h(c)
		}
		close(c.done)
	}()
}

func (c *headlessCommandBuffer) WaitUntilCompleted() {
	if c.Status() == CommandBufferStatusNotEnqueued {
		return
	}
	<-c.done
}

type headlessEncoder struct {
	buffer   *headlessCommandBuffer
	label    string
	ended    bool
	pipeline RenderPipelineState
	groups   []string
}

func (e *headlessEncoder) Label() string { return e.label }

func (e *headlessEncoder) SetLabel(label string) {
	e.label = label
}

func (e *headlessEncoder) emit(ev Event) {
	if e.ended {
		panic(fmt.Errorf("%w: %s on %q", ErrEncoderEnded, ev.Kind, e.label))
	}
	ev.CommandBuffer = e.buffer.label
	ev.Encoder = e.label
	e.buffer.device.record(ev)
}

func labelOf(l interface{ Label() string }) string {
	if l == nil {
		return ""
	}
	return l.Label()
}

func (e *headlessEncoder) SetRenderPipelineState(state RenderPipelineState) {
	e.pipeline = state
	e.emit(Event{Kind: EventSetPipelineState, Name: labelOf(state)})
}

func (e *headlessEncoder) SetDepthStencilState(state DepthStencilState) {
	e.emit(Event{Kind: EventSetDepthStencilState, Name: labelOf(state)})
}

func (e *headlessEncoder) SetCullMode(mode CullMode) {
	e.emit(Event{Kind: EventSetCullMode, CullMode: mode})
}

func (e *headlessEncoder) SetDepthBias(bias DepthBias) {
	e.emit(Event{Kind: EventSetDepthBias, DepthBias: bias})
}

func (e *headlessEncoder) SetVertexBuffer(buf Buffer, offset, index int) {
	e.emit(Event{Kind: EventSetVertexBuffer, Name: labelOf(buf), Offset: offset, Index: index})
}

func (e *headlessEncoder) SetFragmentBuffer(buf Buffer, offset, index int) {
	e.emit(Event{Kind: EventSetFragmentBuffer, Name: labelOf(buf), Offset: offset, Index: index})
}

func (e *headlessEncoder) SetVertexBytes(data []byte, index int) {
	e.emit(Event{Kind: EventSetVertexBytes, Index: index, Count: len(data)})
}

func (e *headlessEncoder) SetFragmentBytes(data []byte, index int) {
	e.emit(Event{Kind: EventSetFragmentBytes, Index: index, Count: len(data)})
}

func (e *headlessEncoder) SetFragmentTexture(tex Texture, index int) {
	e.emit(Event{Kind: EventSetFragmentTexture, Name: labelOf(tex), Index: index})
}

func (e *headlessEncoder) DrawPrimitives(primitive PrimitiveType, vertexStart, vertexCount, instanceCount int) {
	if e.pipeline == nil {
		panic(fmt.Sprintf("gpu: draw on %q without a pipeline state", e.label))
	}
	e.emit(Event{Kind: EventDraw, Name: e.pipeline.Label(), Offset: vertexStart, Count: vertexCount, InstanceCount: instanceCount})
}

func (e *headlessEncoder) DrawIndexedPrimitives(primitive PrimitiveType, indexCount int, indexType IndexType, indexBuffer Buffer, indexBufferOffset, instanceCount int) {
	if e.pipeline == nil {
		panic(fmt.Sprintf("gpu: draw on %q without a pipeline state", e.label))
	}
	e.emit(Event{Kind: EventDrawIndexed, Name: e.pipeline.Label(), Offset: indexBufferOffset, Count: indexCount, InstanceCount: instanceCount})
}

func (e *headlessEncoder) PushDebugGroup(name string) {
	e.groups = append(e.groups, name)
}

func (e *headlessEncoder) PopDebugGroup() {
	if len(e.groups) > 0 {
		e.groups = e.groups[:len(e.groups)-1]
	}
}

func (e *headlessEncoder) EndEncoding() {
	e.emit(Event{Kind: EventEndEncoding})
	e.ended = true
	e.buffer.encoderEnded(e)
}
