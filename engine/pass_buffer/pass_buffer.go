// Package pass_buffer provides ring-buffered GPU storage for per-frame uniform and instance records.
// One allocation holds frameCount slots of instanceCount records each, so the CPU can fill frame k+1
// while the GPU still reads frame k.
package pass_buffer

import (
	"fmt"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
)

// BufferAlignment is the byte boundary every frame slot starts on, required for constant buffer offsets.
const BufferAlignment = 256

// AlignedSize rounds recordSize × instanceCount up to the next multiple of BufferAlignment.
// The result is never zero so an empty slot still has a valid offset.
//
// Parameters:
//   - recordSize: the size of one record in bytes
//   - instanceCount: the number of records per frame
//
// Returns:
//   - int: the size of one frame slot in bytes
func AlignedSize(recordSize, instanceCount int) int {
	n := recordSize * instanceCount
	if n <= 0 {
		return BufferAlignment
	}
	return ((n + BufferAlignment - 1) / BufferAlignment) * BufferAlignment
}

// PassBuffer is a typed, frame-multiplexed GPU buffer. T must be a plain value type with a
// fixed layout (no Go pointers, slices, maps or strings) that matches the shader-side struct.
type PassBuffer[T any] interface {
	// Label returns the debug label of the buffer.
	Label() string

	// InstanceCount returns the number of records per frame slot.
	InstanceCount() int

	// FrameCount returns the number of frame slots.
	FrameCount() int

	// RecordStride returns the size of one record in bytes.
	RecordStride() int

	// AlignedSize returns the size of one frame slot in bytes, a multiple of BufferAlignment.
	AlignedSize() int

	// TotalSize returns AlignedSize × FrameCount.
	TotalSize() int

	// IsInitialized reports whether a backing allocation exists.
	IsInitialized() bool

	// Initialize allocates the backing buffer. Calling it again releases the previous allocation;
	// any record pointers obtained before are invalid afterwards.
	//
	// Parameters:
	//   - device: the device to allocate from
	//   - mode: the storage mode; Private buffers expose no CPU pointers
	//
	// Returns:
	//   - error: an error if the allocation fails
	Initialize(device gpu.Device, mode gpu.StorageMode) error

	// Update selects the frame slot subsequent writes and binds address. Indices at or beyond
	// FrameCount, and calls on an uninitialized buffer, are ignored.
	//
	// Parameters:
	//   - frameIndex: the ring index of the frame being prepared
	Update(frameIndex int)

	// FrameIndex returns the slot selected by the last successful Update.
	FrameIndex() int

	// CurrentFrameOffset returns AlignedSize × FrameIndex.
	CurrentFrameOffset() int

	// InstancePointer returns a pointer to record j of the current frame slot.
	//
	// Parameters:
	//   - j: the instance index
	//
	// Returns:
	//   - *T: the record, or nil when j is out of range or the memory is not CPU visible
	InstancePointer(j int) *T

	// Write copies v into record j of the current frame slot.
	//
	// Returns:
	//   - bool: false when the record is not addressable
	Write(j int, v T) bool

	// Read returns a copy of record j of the current frame slot.
	//
	// Returns:
	//   - T: the record
	//   - bool: false when the record is not addressable
	Read(j int) (T, bool)

	// Flush marks the current frame slot as modified so Managed memory reaches the GPU.
	Flush()

	// StorageMode returns the mode of the current allocation.
	StorageMode() gpu.StorageMode

	// Buffer returns the backing GPU buffer, nil when uninitialized.
	Buffer() gpu.Buffer

	// BindVertex binds the current frame slot to the vertex stage.
	BindVertex(encoder gpu.RenderCommandEncoder, index int)

	// BindFragment binds the current frame slot to the fragment stage.
	BindFragment(encoder gpu.RenderCommandEncoder, index int)

	// Release frees the backing buffer and returns to the uninitialized state.
	Release()
}

type passBuffer[T any] struct {
	label         string
	instanceCount int
	frameCount    int
	recordStride  int
	alignedSize   int

	buffer      gpu.Buffer
	mode        gpu.StorageMode
	frameIndex  int
	frameOffset int
	frameBase   []byte
}

var _ PassBuffer[float32] = &passBuffer[float32]{}

// NewPassBuffer creates an uninitialized PassBuffer.
//
// Parameters:
//   - instanceCount: the number of records per frame slot
//   - frameCount: the number of frame slots, usually the renderer's in-flight frame count
//   - opts: a variadic list of PassBufferBuilderOption functions
//
// Returns:
//   - PassBuffer[T]: the buffer, allocated later by Initialize
func NewPassBuffer[T any](instanceCount, frameCount int, opts ...PassBufferBuilderOption) PassBuffer[T] {
	var cfg passBufferConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if instanceCount < 0 {
		instanceCount = 0
	}
	if frameCount < 1 {
		frameCount = 1
	}
	var zero T
	stride := int(unsafe.Sizeof(zero))
	if cfg.label == "" {
		cfg.label = fmt.Sprintf("pass-buffer[%T]", zero)
	}
	return &passBuffer[T]{
		label:         cfg.label,
		instanceCount: instanceCount,
		frameCount:    frameCount,
		recordStride:  stride,
		alignedSize:   AlignedSize(stride, instanceCount),
		mode:          gpu.StorageModeShared,
	}
}

func (p *passBuffer[T]) Label() string      { return p.label }
func (p *passBuffer[T]) InstanceCount() int { return p.instanceCount }
func (p *passBuffer[T]) FrameCount() int    { return p.frameCount }
func (p *passBuffer[T]) RecordStride() int  { return p.recordStride }
func (p *passBuffer[T]) AlignedSize() int   { return p.alignedSize }
func (p *passBuffer[T]) TotalSize() int     { return p.alignedSize * p.frameCount }
func (p *passBuffer[T]) IsInitialized() bool {
	return p.buffer != nil
}

func (p *passBuffer[T]) Initialize(device gpu.Device, mode gpu.StorageMode) error {
	buf, err := device.MakeBuffer(p.TotalSize(), mode, p.label)
	if err != nil {
		return fmt.Errorf("failed to allocate pass buffer %q: %w", p.label, err)
	}
	if p.buffer != nil {
		p.buffer.Release()
	}
	p.buffer = buf
	p.mode = mode
	p.frameIndex = 0
	p.frameOffset = 0
	p.frameBase = nil
	if contents := buf.Contents(); mode.CPUAccessible() && contents != nil {
		p.frameBase = contents[:p.alignedSize]
	}
	return nil
}

func (p *passBuffer[T]) Update(frameIndex int) {
	if p.buffer == nil || frameIndex < 0 || frameIndex >= p.frameCount {
		return
	}
	p.frameIndex = frameIndex
	p.frameOffset = p.alignedSize * frameIndex
	if !p.mode.CPUAccessible() {
		p.frameBase = nil
		return
	}
	contents := p.buffer.Contents()
	if contents == nil {
		p.frameBase = nil
		return
	}
	p.frameBase = contents[p.frameOffset : p.frameOffset+p.alignedSize]
}

func (p *passBuffer[T]) FrameIndex() int         { return p.frameIndex }
func (p *passBuffer[T]) CurrentFrameOffset() int { return p.frameOffset }

func (p *passBuffer[T]) InstancePointer(j int) *T {
	if j < 0 || j >= p.instanceCount || p.frameBase == nil {
		return nil
	}
	return (*T)(unsafe.Pointer(&p.frameBase[j*p.recordStride]))
}

func (p *passBuffer[T]) Write(j int, v T) bool {
	ptr := p.InstancePointer(j)
	if ptr == nil {
		return false
	}
	*ptr = v
	return true
}

func (p *passBuffer[T]) Read(j int) (T, bool) {
	ptr := p.InstancePointer(j)
	if ptr == nil {
		var zero T
		return zero, false
	}
	return *ptr, true
}

func (p *passBuffer[T]) Flush() {
	if p.buffer == nil || p.mode != gpu.StorageModeManaged {
		return
	}
	p.buffer.DidModifyRange(p.frameOffset, p.alignedSize)
}

func (p *passBuffer[T]) StorageMode() gpu.StorageMode { return p.mode }
func (p *passBuffer[T]) Buffer() gpu.Buffer           { return p.buffer }

func (p *passBuffer[T]) BindVertex(encoder gpu.RenderCommandEncoder, index int) {
	if p.buffer == nil {
		return
	}
	encoder.SetVertexBuffer(p.buffer, p.frameOffset, index)
}

func (p *passBuffer[T]) BindFragment(encoder gpu.RenderCommandEncoder, index int) {
	if p.buffer == nil {
		return
	}
	encoder.SetFragmentBuffer(p.buffer, p.frameOffset, index)
}

func (p *passBuffer[T]) Release() {
	if p.buffer != nil {
		p.buffer.Release()
	}
	p.buffer = nil
	p.frameBase = nil
	p.frameIndex = 0
	p.frameOffset = 0
}
