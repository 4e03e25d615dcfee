package gpu

import (
	"fmt"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/naga"
)

// EventKind identifies a recorded command.
type EventKind int

const (
	EventBeginEncoding EventKind = iota
	EventSetPipelineState
	EventSetDepthStencilState
	EventSetCullMode
	EventSetDepthBias
	EventSetVertexBuffer
	EventSetFragmentBuffer
	EventSetVertexBytes
	EventSetFragmentBytes
	EventSetFragmentTexture
	EventDraw
	EventDrawIndexed
	EventEndEncoding
	EventPresent
	EventCommit
	EventCompleted
)

func (k EventKind) String() string {
	switch k {
	case EventBeginEncoding:
		return "begin-encoding"
	case EventSetPipelineState:
		return "set-pipeline-state"
	case EventSetDepthStencilState:
		return "set-depth-stencil-state"
	case EventSetCullMode:
		return "set-cull-mode"
	case EventSetDepthBias:
		return "set-depth-bias"
	case EventSetVertexBuffer:
		return "set-vertex-buffer"
	case EventSetFragmentBuffer:
		return "set-fragment-buffer"
	case EventSetVertexBytes:
		return "set-vertex-bytes"
	case EventSetFragmentBytes:
		return "set-fragment-bytes"
	case EventSetFragmentTexture:
		return "set-fragment-texture"
	case EventDraw:
		return "draw"
	case EventDrawIndexed:
		return "draw-indexed"
	case EventEndEncoding:
		return "end-encoding"
	case EventPresent:
		return "present"
	case EventCommit:
		return "commit"
	case EventCompleted:
		return "completed"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is one command recorded by the headless device. Seq is strictly increasing across the
// whole device so events from different encoders and command buffers can be ordered.
type Event struct {
	Seq           uint64
	Kind          EventKind
	CommandBuffer string
	Encoder       string
	// Name is the bound pipeline label for draws, the state or buffer label for binds.
	Name          string
	Index         int
	Offset        int
	Count         int
	InstanceCount int
	CullMode      CullMode
	DepthBias     DepthBias
}

// HeadlessDevice is a Device that executes nothing and records every command it is given.
type HeadlessDevice interface {
	Device

	// Events returns a snapshot of the recorded command log.
	Events() []Event

	// ResetEvents clears the command log.
	ResetEvents()

	// Committed returns how many command buffers have been committed.
	Committed() int

	// Completed returns how many command buffers have finished and run their handlers.
	Completed() int

	// PipelineStatesCreated returns how many render pipeline states have been built.
	PipelineStatesCreated() int
}

type headlessDevice struct {
	name             string
	latency          time.Duration
	validateShaders  bool
	recordEvents     bool
	failingPipelines map[string]struct{}

	mu     sync.Mutex
	seq    uint64
	events []Event

	committed atomic.Int64
	completed atomic.Int64
	pipelines atomic.Int64
}

var _ HeadlessDevice = &headlessDevice{}

// NewHeadlessDevice creates a recording device that needs no GPU.
//
// Parameters:
//   - opts: a variadic list of HeadlessDeviceBuilderOption functions
//
// Returns:
//   - HeadlessDevice: the device
func NewHeadlessDevice(opts ...HeadlessDeviceBuilderOption) HeadlessDevice {
	d := &headlessDevice{
		name:             "headless",
		recordEvents:     true,
		failingPipelines: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *headlessDevice) Name() string {
	return d.name
}

func (d *headlessDevice) record(e Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	if !d.recordEvents {
		return
	}
	e.Seq = d.seq
	d.events = append(d.events, e)
}

func (d *headlessDevice) Events() []Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Event(nil), d.events...)
}

func (d *headlessDevice) ResetEvents() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = nil
}

func (d *headlessDevice) Committed() int {
	return int(d.committed.Load())
}

func (d *headlessDevice) Completed() int {
	return int(d.completed.Load())
}

func (d *headlessDevice) PipelineStatesCreated() int {
	return int(d.pipelines.Load())
}

func (d *headlessDevice) MakeBuffer(length int, mode StorageMode, label string) (Buffer, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: buffer %q has length %d", ErrInvalidDescriptor, label, length)
	}
	return &headlessBuffer{label: label, mode: mode, data: make([]byte, length)}, nil
}

func (d *headlessDevice) MakeTexture(desc TextureDescriptor) (Texture, error) {
	if desc.Width <= 0 || desc.Height <= 0 || desc.Format == PixelFormatInvalid {
		return nil, fmt.Errorf("%w: texture %q is %dx%d %s", ErrInvalidDescriptor, desc.Label, desc.Width, desc.Height, desc.Format)
	}
	return &headlessTexture{desc: desc}, nil
}

var entryPointPattern = regexp.MustCompile(`@(?:vertex|fragment|compute)\s+fn\s+([A-Za-z_][A-Za-z0-9_]*)`)

func (d *headlessDevice) MakeLibrary(label, source string, defaults *FunctionConstantValues) (Library, error) {
	if defaults == nil {
		defaults = NewFunctionConstantValues()
	}
	if d.validateShaders {
		if _, err := naga.Parse(defaults.WGSLPrelude() + source); err != nil {
			return nil, fmt.Errorf("%w: library %q: %w", ErrShaderValidation, label, err)
		}
	}
	lib := &headlessLibrary{
		device:      d,
		label:       label,
		source:      source,
		defaults:    defaults,
		specialized: make(map[string]Function),
	}
	for _, m := range entryPointPattern.FindAllStringSubmatch(source, -1) {
		lib.names = append(lib.names, m[1])
	}
	return lib, nil
}

func (d *headlessDevice) MakeRenderPipelineState(desc *RenderPipelineDescriptor) (RenderPipelineState, error) {
	if desc == nil || desc.VertexFunction == nil {
		return nil, fmt.Errorf("%w: render pipeline requires a vertex function", ErrInvalidDescriptor)
	}
	if _, fail := d.failingPipelines[desc.Label]; fail {
		return nil, fmt.Errorf("failed to create render pipeline %q", desc.Label)
	}
	d.pipelines.Add(1)
	return &headlessPipelineState{desc: desc.Clone()}, nil
}

func (d *headlessDevice) MakeDepthStencilState(desc *DepthStencilDescriptor) (DepthStencilState, error) {
	if desc == nil {
		return nil, fmt.Errorf("%w: nil depth stencil descriptor", ErrInvalidDescriptor)
	}
	return &headlessDepthStencilState{desc: *desc}, nil
}

func (d *headlessDevice) MakeCommandQueue(label string) (CommandQueue, error) {
	return &headlessQueue{device: d, label: label}, nil
}

type headlessBuffer struct {
	label    string
	mode     StorageMode
	data     []byte
	modified atomic.Int64
}

func (b *headlessBuffer) Label() string            { return b.label }
func (b *headlessBuffer) Length() int              { return len(b.data) }
func (b *headlessBuffer) StorageMode() StorageMode { return b.mode }

func (b *headlessBuffer) Contents() []byte {
	if !b.mode.CPUAccessible() {
		return nil
	}
	return b.data
}

func (b *headlessBuffer) DidModifyRange(offset, length int) {
	b.modified.Add(1)
}

func (b *headlessBuffer) Release() {
	b.data = nil
}

type headlessTexture struct {
	desc   TextureDescriptor
	pixels []byte
}

func (t *headlessTexture) Label() string       { return t.desc.Label }
func (t *headlessTexture) Width() int          { return t.desc.Width }
func (t *headlessTexture) Height() int         { return t.desc.Height }
func (t *headlessTexture) Format() PixelFormat { return t.desc.Format }

func (t *headlessTexture) Replace(pixels []byte, bytesPerRow int) error {
	if bytesPerRow < t.desc.Width*t.desc.Format.BytesPerPixel() || len(pixels) < bytesPerRow*t.desc.Height {
		return fmt.Errorf("%w: %d bytes at pitch %d do not cover %dx%d texture %q",
			ErrInvalidDescriptor, len(pixels), bytesPerRow, t.desc.Width, t.desc.Height, t.desc.Label)
	}
	t.pixels = append(t.pixels[:0], pixels...)
	return nil
}

func (t *headlessTexture) Release() {
	t.pixels = nil
}

type headlessLibrary struct {
	device   *headlessDevice
	label    string
	source   string
	defaults *FunctionConstantValues
	names    []string

	mu          sync.Mutex
	specialized map[string]Function
}

func (l *headlessLibrary) Label() string                             { return l.label }
func (l *headlessLibrary) Source() string                            { return l.source }
func (l *headlessLibrary) DefaultConstants() *FunctionConstantValues { return l.defaults }

func (l *headlessLibrary) FunctionNames() []string {
	return append([]string(nil), l.names...)
}

func (l *headlessLibrary) has(name string) bool {
	for _, n := range l.names {
		if n == name {
			return true
		}
	}
	return false
}

func (l *headlessLibrary) MakeFunction(name string) (Function, error) {
	if !l.has(name) {
		return nil, fmt.Errorf("%w: %q in %q", ErrFunctionNotFound, name, l.label)
	}
	return &headlessFunction{name: name, library: l}, nil
}

func (l *headlessLibrary) MakeSpecializedFunction(name string, values *FunctionConstantValues) (Function, error) {
	if !l.has(name) {
		return nil, fmt.Errorf("%w: %q in %q", ErrFunctionNotFound, name, l.label)
	}
	key := name + "|" + values.Key()

	l.mu.Lock()
	defer l.mu.Unlock()
	if fn, ok := l.specialized[key]; ok {
		return fn, nil
	}
	if l.device.validateShaders {
		if _, err := naga.Parse(values.Merge(l.defaults).WGSLPrelude() + l.source); err != nil {
			return nil, fmt.Errorf("%w: %q specialized as %s: %w", ErrShaderValidation, name, values.Key(), err)
		}
	}
	fn := &headlessFunction{name: name, library: l, constants: values}
	l.specialized[key] = fn
	return fn, nil
}

type headlessFunction struct {
	name      string
	library   Library
	constants *FunctionConstantValues
}

func (f *headlessFunction) Name() string                            { return f.name }
func (f *headlessFunction) Library() Library                        { return f.library }
func (f *headlessFunction) ConstantValues() *FunctionConstantValues { return f.constants }

type headlessPipelineState struct {
	desc RenderPipelineDescriptor
}

func (p *headlessPipelineState) Label() string                        { return p.desc.Label }
func (p *headlessPipelineState) Descriptor() RenderPipelineDescriptor { return p.desc.Clone() }

type headlessDepthStencilState struct {
	desc DepthStencilDescriptor
}

func (s *headlessDepthStencilState) Label() string                      { return s.desc.Label }
func (s *headlessDepthStencilState) Descriptor() DepthStencilDescriptor { return s.desc }

type headlessQueue struct {
	device *headlessDevice
	label  string
}

func (q *headlessQueue) Label() string { return q.label }

func (q *headlessQueue) MakeCommandBuffer(label string) (CommandBuffer, error) {
	return &headlessCommandBuffer{device: q.device, label: label, done: make(chan struct{})}, nil
}
