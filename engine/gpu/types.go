package gpu

import "fmt"

// StorageMode describes where a buffer or texture lives and whether the CPU can address it.
type StorageMode int

const (
	// StorageModeShared memory is visible to both the CPU and the GPU.
	StorageModeShared StorageMode = iota

	// StorageModeManaged memory keeps a CPU copy that must be flushed with DidModifyRange.
	StorageModeManaged

	// StorageModePrivate memory is GPU-only; the CPU cannot read or write it.
	StorageModePrivate
)

// CPUAccessible reports whether a CPU-visible view of the memory exists in this mode.
//
// Returns:
//   - bool: true for Shared and Managed, false for Private
func (m StorageMode) CPUAccessible() bool {
	return m == StorageModeShared || m == StorageModeManaged
}

func (m StorageMode) String() string {
	switch m {
	case StorageModeShared:
		return "shared"
	case StorageModeManaged:
		return "managed"
	case StorageModePrivate:
		return "private"
	}
	return fmt.Sprintf("StorageMode(%d)", int(m))
}

// PixelFormat enumerates the texture and attachment formats the engine uses.
type PixelFormat int

const (
	PixelFormatInvalid PixelFormat = iota
	PixelFormatR8Unorm
	PixelFormatRG8Unorm
	PixelFormatRGBA8Unorm
	PixelFormatRGBA8UnormSRGB
	PixelFormatBGRA8Unorm
	PixelFormatBGRA8UnormSRGB
	PixelFormatDepth32Float
	PixelFormatDepth24PlusStencil8
	PixelFormatDepth32FloatStencil8
)

// HasDepth reports whether the format carries a depth aspect.
func (f PixelFormat) HasDepth() bool {
	return f == PixelFormatDepth32Float || f == PixelFormatDepth24PlusStencil8 || f == PixelFormatDepth32FloatStencil8
}

// HasStencil reports whether the format carries a stencil aspect.
func (f PixelFormat) HasStencil() bool {
	return f == PixelFormatDepth24PlusStencil8 || f == PixelFormatDepth32FloatStencil8
}

// BytesPerPixel returns the texel size of colour formats, or 4 for depth formats.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case PixelFormatR8Unorm:
		return 1
	case PixelFormatRG8Unorm:
		return 2
	case PixelFormatInvalid:
		return 0
	}
	return 4
}

func (f PixelFormat) String() string {
	switch f {
	case PixelFormatInvalid:
		return "invalid"
	case PixelFormatR8Unorm:
		return "r8unorm"
	case PixelFormatRG8Unorm:
		return "rg8unorm"
	case PixelFormatRGBA8Unorm:
		return "rgba8unorm"
	case PixelFormatRGBA8UnormSRGB:
		return "rgba8unorm-srgb"
	case PixelFormatBGRA8Unorm:
		return "bgra8unorm"
	case PixelFormatBGRA8UnormSRGB:
		return "bgra8unorm-srgb"
	case PixelFormatDepth32Float:
		return "depth32float"
	case PixelFormatDepth24PlusStencil8:
		return "depth24plus-stencil8"
	case PixelFormatDepth32FloatStencil8:
		return "depth32float-stencil8"
	}
	return fmt.Sprintf("PixelFormat(%d)", int(f))
}

// CullMode selects which triangle faces are discarded during rasterization.
type CullMode int

const (
	CullModeNone CullMode = iota
	CullModeFront
	CullModeBack
)

// CompareFunction is the depth and stencil comparison operator.
type CompareFunction int

const (
	CompareFunctionNever CompareFunction = iota
	CompareFunctionLess
	CompareFunctionEqual
	CompareFunctionLessEqual
	CompareFunctionGreater
	CompareFunctionNotEqual
	CompareFunctionGreaterEqual
	CompareFunctionAlways
)

// PrimitiveType is the topology used to assemble vertices for a draw.
type PrimitiveType int

const (
	PrimitiveTypeTriangle PrimitiveType = iota
	PrimitiveTypeTriangleStrip
	PrimitiveTypeLine
	PrimitiveTypeLineStrip
	PrimitiveTypePoint
)

// IndexType is the element size of an index buffer.
type IndexType int

const (
	IndexTypeUInt16 IndexType = iota
	IndexTypeUInt32
)

// Size returns the size of one index in bytes.
func (t IndexType) Size() int {
	if t == IndexTypeUInt16 {
		return 2
	}
	return 4
}

// VertexFormat is the data type of one vertex attribute.
type VertexFormat int

const (
	VertexFormatFloat VertexFormat = iota
	VertexFormatFloat2
	VertexFormatFloat3
	VertexFormatFloat4
	VertexFormatUShort4
	VertexFormatUChar4Normalized
)

// Size returns the size of the attribute in bytes.
func (f VertexFormat) Size() uint64 {
	switch f {
	case VertexFormatFloat:
		return 4
	case VertexFormatFloat2:
		return 8
	case VertexFormatFloat3:
		return 12
	case VertexFormatFloat4:
		return 16
	case VertexFormatUShort4:
		return 8
	case VertexFormatUChar4Normalized:
		return 4
	}
	return 0
}

// StepFunction selects whether a vertex buffer advances per vertex or per instance.
type StepFunction int

const (
	StepFunctionPerVertex StepFunction = iota
	StepFunctionPerInstance
)

// TextureUsage is a bitmask describing how a texture will be bound.
type TextureUsage int

const (
	TextureUsageShaderRead TextureUsage = 1 << iota
	TextureUsageRenderTarget
	TextureUsageCopyDestination
)

// LoadAction controls attachment contents at the start of a pass.
type LoadAction int

const (
	LoadActionDontCare LoadAction = iota
	LoadActionLoad
	LoadActionClear
)

// StoreAction controls attachment contents at the end of a pass.
type StoreAction int

const (
	StoreActionDontCare StoreAction = iota
	StoreActionStore
	StoreActionMultisampleResolve
)

// DepthBias is the {bias, slopeScale, clamp} triple applied while rasterizing depth.
type DepthBias struct {
	Bias       float32
	SlopeScale float32
	Clamp      float32
}

// VertexAttribute describes one shader input location.
type VertexAttribute struct {
	Location    int
	Format      VertexFormat
	Offset      uint64
	BufferIndex int
}

// VertexBufferLayout describes the stride of one bound vertex buffer.
type VertexBufferLayout struct {
	BufferIndex  int
	Stride       uint64
	StepFunction StepFunction
}

// VertexDescriptor is the full vertex input layout of a pipeline.
type VertexDescriptor struct {
	Attributes []VertexAttribute
	Layouts    []VertexBufferLayout
}

// Clone returns a deep copy of the descriptor, nil-safe.
func (v *VertexDescriptor) Clone() *VertexDescriptor {
	if v == nil {
		return nil
	}
	return &VertexDescriptor{
		Attributes: append([]VertexAttribute(nil), v.Attributes...),
		Layouts:    append([]VertexBufferLayout(nil), v.Layouts...),
	}
}

// Layout returns the layout for the given buffer index if one is declared.
func (v *VertexDescriptor) Layout(bufferIndex int) (VertexBufferLayout, bool) {
	if v == nil {
		return VertexBufferLayout{}, false
	}
	for _, l := range v.Layouts {
		if l.BufferIndex == bufferIndex {
			return l, true
		}
	}
	return VertexBufferLayout{}, false
}

// ColorAttachmentDescriptor is the per-target fixed-function state of a pipeline.
type ColorAttachmentDescriptor struct {
	Format          PixelFormat
	BlendingEnabled bool
}

// RenderPipelineDescriptor collects everything needed to build a RenderPipelineState.
type RenderPipelineDescriptor struct {
	Label                   string
	VertexFunction          Function
	FragmentFunction        Function
	VertexDescriptor        *VertexDescriptor
	ColorAttachments        []ColorAttachmentDescriptor
	DepthAttachmentFormat   PixelFormat
	StencilAttachmentFormat PixelFormat
	SampleCount             int
}

// Clone returns a copy that shares functions but not slices.
func (d RenderPipelineDescriptor) Clone() RenderPipelineDescriptor {
	out := d
	out.VertexDescriptor = d.VertexDescriptor.Clone()
	out.ColorAttachments = append([]ColorAttachmentDescriptor(nil), d.ColorAttachments...)
	return out
}

// DepthStencilDescriptor describes a DepthStencilState.
type DepthStencilDescriptor struct {
	Label                string
	DepthCompareFunction CompareFunction
	DepthWriteEnabled    bool
}

// TextureDescriptor describes a texture allocation.
type TextureDescriptor struct {
	Label       string
	Format      PixelFormat
	Width       int
	Height      int
	MipLevels   int
	SampleCount int
	Usage       TextureUsage
	StorageMode StorageMode
}

// ColorAttachment is one colour target of a render pass.
type ColorAttachment struct {
	Texture        Texture
	ResolveTexture Texture
	LoadAction     LoadAction
	StoreAction    StoreAction
	ClearColor     [4]float64
}

// DepthAttachment is the depth target of a render pass.
type DepthAttachment struct {
	Texture     Texture
	LoadAction  LoadAction
	StoreAction StoreAction
	ClearDepth  float64
}

// StencilAttachment is the stencil target of a render pass.
type StencilAttachment struct {
	Texture      Texture
	LoadAction   LoadAction
	StoreAction  StoreAction
	ClearStencil uint32
}

// RenderPassDescriptor lists the attachments a render command encoder writes.
type RenderPassDescriptor struct {
	ColorAttachments []ColorAttachment
	Depth            *DepthAttachment
	Stencil          *StencilAttachment
}

// CommandBufferStatus tracks a command buffer through submission.
type CommandBufferStatus int

const (
	CommandBufferStatusNotEnqueued CommandBufferStatus = iota
	CommandBufferStatusCommitted
	CommandBufferStatusCompleted
	CommandBufferStatusError
)
