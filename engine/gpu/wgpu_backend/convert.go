package wgpu_backend

import (
	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// textureFormat maps an engine pixel format to its WebGPU equivalent. Depth32FloatStencil8 is an
// optional WebGPU feature, so it is served by Depth24PlusStencil8 which every adapter supports.
func textureFormat(f gpu.PixelFormat) wgpu.TextureFormat {
	switch f {
	case gpu.PixelFormatR8Unorm:
		return wgpu.TextureFormatR8Unorm
	case gpu.PixelFormatRG8Unorm:
		return wgpu.TextureFormatRG8Unorm
	case gpu.PixelFormatRGBA8Unorm:
		return wgpu.TextureFormatRGBA8Unorm
	case gpu.PixelFormatRGBA8UnormSRGB:
		return wgpu.TextureFormatRGBA8UnormSrgb
	case gpu.PixelFormatBGRA8Unorm:
		return wgpu.TextureFormatBGRA8Unorm
	case gpu.PixelFormatBGRA8UnormSRGB:
		return wgpu.TextureFormatBGRA8UnormSrgb
	case gpu.PixelFormatDepth32Float:
		return wgpu.TextureFormatDepth32Float
	case gpu.PixelFormatDepth24PlusStencil8, gpu.PixelFormatDepth32FloatStencil8:
		return wgpu.TextureFormatDepth24PlusStencil8
	}
	return wgpu.TextureFormatUndefined
}

// pixelFormat maps a surface format reported by the adapter back to the engine's formats.
func pixelFormat(f wgpu.TextureFormat) gpu.PixelFormat {
	switch f {
	case wgpu.TextureFormatRGBA8Unorm:
		return gpu.PixelFormatRGBA8Unorm
	case wgpu.TextureFormatRGBA8UnormSrgb:
		return gpu.PixelFormatRGBA8UnormSRGB
	case wgpu.TextureFormatBGRA8Unorm:
		return gpu.PixelFormatBGRA8Unorm
	case wgpu.TextureFormatBGRA8UnormSrgb:
		return gpu.PixelFormatBGRA8UnormSRGB
	}
	return gpu.PixelFormatInvalid
}

func compareFunction(f gpu.CompareFunction) wgpu.CompareFunction {
	switch f {
	case gpu.CompareFunctionNever:
		return wgpu.CompareFunctionNever
	case gpu.CompareFunctionLess:
		return wgpu.CompareFunctionLess
	case gpu.CompareFunctionEqual:
		return wgpu.CompareFunctionEqual
	case gpu.CompareFunctionLessEqual:
		return wgpu.CompareFunctionLessEqual
	case gpu.CompareFunctionGreater:
		return wgpu.CompareFunctionGreater
	case gpu.CompareFunctionNotEqual:
		return wgpu.CompareFunctionNotEqual
	case gpu.CompareFunctionGreaterEqual:
		return wgpu.CompareFunctionGreaterEqual
	}
	return wgpu.CompareFunctionAlways
}

func cullMode(m gpu.CullMode) wgpu.CullMode {
	switch m {
	case gpu.CullModeFront:
		return wgpu.CullModeFront
	case gpu.CullModeBack:
		return wgpu.CullModeBack
	}
	return wgpu.CullModeNone
}

func topology(p gpu.PrimitiveType) wgpu.PrimitiveTopology {
	switch p {
	case gpu.PrimitiveTypeTriangleStrip:
		return wgpu.PrimitiveTopologyTriangleStrip
	case gpu.PrimitiveTypeLine:
		return wgpu.PrimitiveTopologyLineList
	case gpu.PrimitiveTypeLineStrip:
		return wgpu.PrimitiveTopologyLineStrip
	case gpu.PrimitiveTypePoint:
		return wgpu.PrimitiveTopologyPointList
	}
	return wgpu.PrimitiveTopologyTriangleList
}

func isStrip(p gpu.PrimitiveType) bool {
	return p == gpu.PrimitiveTypeTriangleStrip || p == gpu.PrimitiveTypeLineStrip
}

func indexFormat(t gpu.IndexType) wgpu.IndexFormat {
	if t == gpu.IndexTypeUInt16 {
		return wgpu.IndexFormatUint16
	}
	return wgpu.IndexFormatUint32
}

func vertexFormat(f gpu.VertexFormat) wgpu.VertexFormat {
	switch f {
	case gpu.VertexFormatFloat:
		return wgpu.VertexFormatFloat32
	case gpu.VertexFormatFloat2:
		return wgpu.VertexFormatFloat32x2
	case gpu.VertexFormatFloat3:
		return wgpu.VertexFormatFloat32x3
	case gpu.VertexFormatFloat4:
		return wgpu.VertexFormatFloat32x4
	case gpu.VertexFormatUShort4:
		return wgpu.VertexFormatUint16x4
	case gpu.VertexFormatUChar4Normalized:
		return wgpu.VertexFormatUnorm8x4
	}
	return wgpu.VertexFormatUndefined
}

func stepMode(s gpu.StepFunction) wgpu.VertexStepMode {
	if s == gpu.StepFunctionPerInstance {
		return wgpu.VertexStepModeInstance
	}
	return wgpu.VertexStepModeVertex
}

func loadOp(a gpu.LoadAction) wgpu.LoadOp {
	if a == gpu.LoadActionLoad {
		return wgpu.LoadOpLoad
	}
	return wgpu.LoadOpClear
}

func storeOp(a gpu.StoreAction) wgpu.StoreOp {
	if a == gpu.StoreActionStore {
		return wgpu.StoreOpStore
	}
	return wgpu.StoreOpDiscard
}

func textureUsage(u gpu.TextureUsage, format gpu.PixelFormat) wgpu.TextureUsage {
	var out wgpu.TextureUsage
	if u&gpu.TextureUsageShaderRead != 0 {
		out |= wgpu.TextureUsageTextureBinding
	}
	if u&gpu.TextureUsageRenderTarget != 0 {
		out |= wgpu.TextureUsageRenderAttachment
	}
	if u&gpu.TextureUsageCopyDestination != 0 || !format.HasDepth() {
		out |= wgpu.TextureUsageCopyDst
	}
	return out
}

// alphaBlend is the straight-alpha blend used by every colour target with blending enabled.
var alphaBlend = &wgpu.BlendState{
	Color: wgpu.BlendComponent{
		Operation: wgpu.BlendOperationAdd,
		SrcFactor: wgpu.BlendFactorSrcAlpha,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
	},
	Alpha: wgpu.BlendComponent{
		Operation: wgpu.BlendOperationAdd,
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
	},
}

func align4(n int) int {
	return (n + 3) &^ 3
}
