// Package gpu defines the explicit-encoder GPU model the engine renders through: devices that
// allocate buffers, textures and pipeline states; command queues that hand out command buffers;
// and render command encoders that record state and draws in order. Two implementations exist:
// the headless recording device in this package and the WebGPU device in wgpu_backend.
package gpu

import "errors"

var (
	// ErrFunctionNotFound is returned when a library has no entry point with the requested name.
	ErrFunctionNotFound = errors.New("gpu: function not found in library")

	// ErrInvalidDescriptor is returned when a descriptor is missing a required field.
	ErrInvalidDescriptor = errors.New("gpu: invalid descriptor")

	// ErrShaderValidation wraps WGSL parse failures reported while building a library or function.
	ErrShaderValidation = errors.New("gpu: shader validation failed")

	// ErrEncoderEnded is returned when a command is recorded after EndEncoding.
	ErrEncoderEnded = errors.New("gpu: encoder already ended")
)

// Device allocates every GPU object the engine uses.
type Device interface {
	// Name returns a human readable device name for logging.
	Name() string

	// MakeBuffer allocates a buffer of the given length.
	//
	// Parameters:
	//   - length: the size of the buffer in bytes, must be greater than zero
	//   - mode: the storage mode of the allocation
	//   - label: a debug label
	//
	// Returns:
	//   - Buffer: the new buffer
	//   - error: an error if the allocation fails
	MakeBuffer(length int, mode StorageMode, label string) (Buffer, error)

	// MakeTexture allocates a texture.
	//
	// Parameters:
	//   - desc: the texture descriptor
	//
	// Returns:
	//   - Texture: the new texture
	//   - error: an error if the allocation fails
	MakeTexture(desc TextureDescriptor) (Texture, error)

	// MakeLibrary compiles a shader library from source.
	//
	// Parameters:
	//   - label: a debug label
	//   - source: the WGSL source containing one or more entry points
	//   - defaults: the function constant values used when a function is not specialized, and for
	//     any constant a specialization leaves unset; may be nil
	//
	// Returns:
	//   - Library: the compiled library
	//   - error: an error wrapping ErrShaderValidation if the source does not parse
	MakeLibrary(label, source string, defaults *FunctionConstantValues) (Library, error)

	// MakeRenderPipelineState builds a pipeline state object. This is expensive; callers cache the result.
	//
	// Parameters:
	//   - desc: the pipeline descriptor
	//
	// Returns:
	//   - RenderPipelineState: the pipeline state
	//   - error: an error if the descriptor is incomplete or compilation fails
	MakeRenderPipelineState(desc *RenderPipelineDescriptor) (RenderPipelineState, error)

	// MakeDepthStencilState builds a depth-stencil state object.
	//
	// Parameters:
	//   - desc: the depth-stencil descriptor
	//
	// Returns:
	//   - DepthStencilState: the state
	//   - error: an error if creation fails
	MakeDepthStencilState(desc *DepthStencilDescriptor) (DepthStencilState, error)

	// MakeCommandQueue creates the in-order submission queue.
	//
	// Returns:
	//   - CommandQueue: the queue
	//   - error: an error if creation fails
	MakeCommandQueue(label string) (CommandQueue, error)
}

// Buffer is a linear GPU allocation.
type Buffer interface {
	// Label returns the debug label.
	Label() string

	// Length returns the size in bytes.
	Length() int

	// StorageMode returns the memory mode the buffer was allocated with.
	StorageMode() StorageMode

	// Contents returns the CPU-visible bytes of the buffer, or nil for Private buffers.
	// The slice aliases buffer memory and stays valid until Release.
	Contents() []byte

	// DidModifyRange notifies the device that the CPU wrote the given byte range.
	// Required for Managed buffers, harmless for Shared ones.
	//
	// Parameters:
	//   - offset: the start of the written range
	//   - length: the number of bytes written
	DidModifyRange(offset, length int)

	// Release frees the allocation. Contents must not be used afterwards.
	Release()
}

// Texture is an image allocation.
type Texture interface {
	Label() string
	Width() int
	Height() int
	Format() PixelFormat

	// Replace uploads tightly packed pixels covering the whole first mip level.
	//
	// Parameters:
	//   - pixels: the texel data
	//   - bytesPerRow: the row pitch of pixels
	//
	// Returns:
	//   - error: an error if the data is too short for the texture
	Replace(pixels []byte, bytesPerRow int) error

	Release()
}

// Library is a compiled collection of shader entry points.
type Library interface {
	Label() string

	// FunctionNames returns the entry points found in the library.
	FunctionNames() []string

	// Source returns the WGSL source the library was built from, without any constant prelude.
	Source() string

	// DefaultConstants returns the constant values unspecialized functions are compiled with.
	DefaultConstants() *FunctionConstantValues

	// MakeFunction returns the entry point compiled with the default constants.
	//
	// Returns:
	//   - Function: the function
	//   - error: ErrFunctionNotFound if no such entry point exists
	MakeFunction(name string) (Function, error)

	// MakeSpecializedFunction returns the entry point compiled with the given constant values.
	// Identical constant assignments return the same cached function.
	//
	// Parameters:
	//   - name: the entry point name
	//   - values: the specialization constants
	//
	// Returns:
	//   - Function: the specialized function
	//   - error: ErrFunctionNotFound, or a wrapped ErrShaderValidation when the specialized source does not parse
	MakeSpecializedFunction(name string, values *FunctionConstantValues) (Function, error)
}

// Function is one shader entry point, optionally specialized.
type Function interface {
	Name() string
	Library() Library

	// ConstantValues returns the specialization constants, nil when unspecialized.
	ConstantValues() *FunctionConstantValues
}

// RenderPipelineState is a compiled, immutable pipeline.
type RenderPipelineState interface {
	Label() string

	// Descriptor returns a copy of the descriptor the state was built from.
	Descriptor() RenderPipelineDescriptor
}

// DepthStencilState is an immutable depth-stencil configuration.
type DepthStencilState interface {
	Label() string
	Descriptor() DepthStencilDescriptor
}

// CommandQueue hands out command buffers that execute in commit order.
type CommandQueue interface {
	Label() string

	// MakeCommandBuffer returns a fresh command buffer.
	MakeCommandBuffer(label string) (CommandBuffer, error)
}

// CommandBuffer holds the encoded passes of one frame.
type CommandBuffer interface {
	Label() string

	// AddCompletedHandler registers a callback run once the GPU has finished executing the buffer.
	// Handlers run on an arbitrary goroutine in registration order.
	AddCompletedHandler(handler func(CommandBuffer))

	// MakeRenderCommandEncoder opens a render pass. Only one encoder may be open at a time.
	//
	// Parameters:
	//   - desc: the attachments the pass writes
	//
	// Returns:
	//   - RenderCommandEncoder: the open encoder
	//   - error: an error if another encoder is still open or the descriptor is invalid
	MakeRenderCommandEncoder(desc *RenderPassDescriptor) (RenderCommandEncoder, error)

	// Present schedules the drawable to be shown once the buffer completes.
	Present(drawable Drawable)

	// Commit submits the buffer. Execution is asynchronous; Commit returns immediately.
	Commit()

	// WaitUntilCompleted blocks until the completion handlers have run.
	WaitUntilCompleted()

	Status() CommandBufferStatus
}

// RenderCommandEncoder records state changes and draws for one render pass.
type RenderCommandEncoder interface {
	Label() string
	SetLabel(label string)

	SetRenderPipelineState(state RenderPipelineState)
	SetDepthStencilState(state DepthStencilState)
	SetCullMode(mode CullMode)
	SetDepthBias(bias DepthBias)

	// SetVertexBuffer binds buf at the given buffer index for the vertex stage.
	SetVertexBuffer(buf Buffer, offset, index int)

	// SetFragmentBuffer binds buf at the given buffer index for the fragment stage.
	SetFragmentBuffer(buf Buffer, offset, index int)

	// SetVertexBytes binds a small inline constant block at the given buffer index.
	SetVertexBytes(data []byte, index int)

	// SetFragmentBytes binds a small inline constant block at the given buffer index.
	SetFragmentBytes(data []byte, index int)

	// SetFragmentTexture binds tex at the given texture index.
	SetFragmentTexture(tex Texture, index int)

	// DrawPrimitives issues a non-indexed instanced draw.
	DrawPrimitives(primitive PrimitiveType, vertexStart, vertexCount, instanceCount int)

	// DrawIndexedPrimitives issues an indexed instanced draw.
	DrawIndexedPrimitives(primitive PrimitiveType, indexCount int, indexType IndexType, indexBuffer Buffer, indexBufferOffset, instanceCount int)

	PushDebugGroup(name string)
	PopDebugGroup()

	// EndEncoding closes the pass. No further commands may be recorded.
	EndEncoding()
}

// Drawable is a presentable surface image.
type Drawable interface {
	Texture() Texture
}

// RenderDestination provides the per-frame drawable and the attachment formats of the output
// surface. The engine writes the formats it requires once during bootstrap.
type RenderDestination interface {
	// CurrentDrawable returns the drawable for this frame, or nil if none is available.
	CurrentDrawable() Drawable

	// CurrentRenderPassDescriptor returns attachments targeting the current drawable,
	// or nil if no drawable is available.
	CurrentRenderPassDescriptor() *RenderPassDescriptor

	ColorPixelFormat() PixelFormat
	SetColorPixelFormat(format PixelFormat)
	DepthStencilPixelFormat() PixelFormat
	SetDepthStencilPixelFormat(format PixelFormat)
	SampleCount() int
	SetSampleCount(count int)

	// DrawableSize returns the size of the surface in pixels.
	DrawableSize() (width, height int)
}
