package render_pass

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ar/engine/light"
)

// Labels of the two passes the renderer encodes every frame.
const (
	ShadowPassLabel = "shadow"
	MainPassLabel   = "main"
)

// ShadowDepthBias is the depth bias applied to every draw in the shadow pass.
var ShadowDepthBias = gpu.DepthBias{
	Bias:       light.ShadowDepthBias,
	SlopeScale: light.ShadowDepthSlopeScale,
	Clamp:      light.ShadowDepthBiasClamp,
}

// NewShadowPass creates the depth-only pass that renders shadow casters from the light's point
// of view into a size×size depth texture. The pass has no fragment stage.
//
// Parameters:
//   - device: the device to allocate the shadow map on
//   - size: the shadow map resolution in pixels
//
// Returns:
//   - RenderPass: the shadow pass
//   - error: an error if the shadow map cannot be allocated
func NewShadowPass(device gpu.Device, size int) (RenderPass, error) {
	shadowMap, err := device.MakeTexture(gpu.TextureDescriptor{
		Label:       "shadow-map",
		Format:      gpu.PixelFormatDepth32Float,
		Width:       size,
		Height:      size,
		MipLevels:   1,
		SampleCount: 1,
		Usage:       gpu.TextureUsageRenderTarget | gpu.TextureUsageShaderRead,
		StorageMode: gpu.StorageModePrivate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create shadow map: %w", err)
	}
	return NewRenderPass(ShadowPassLabel,
		WithDescriptor(&gpu.RenderPassDescriptor{
			Depth: &gpu.DepthAttachment{
				Texture:     shadowMap,
				LoadAction:  gpu.LoadActionClear,
				StoreAction: gpu.StoreActionStore,
				ClearDepth:  1,
			},
		}),
		WithTemplate(gpu.RenderPipelineDescriptor{
			DepthAttachmentFormat: gpu.PixelFormatDepth32Float,
			SampleCount:           1,
		}),
		WithUses(UsesGeometry|UsesSharedBuffer|UsesEnvironment),
		WithDepthCompare(gpu.CompareFunctionLessEqual),
		WithDepthWrite(true),
		WithDepthBias(ShadowDepthBias),
		WithShadowMap(shadowMap),
	), nil
}

// NewMainPass creates the alpha-blended colour, depth and stencil pass drawing into the
// destination's current drawable and sampling the shadow map.
//
// Parameters:
//   - destination: the render destination
//   - shadowMap: the shadow pass depth texture, may be nil
//
// Returns:
//   - RenderPass: the main pass
func NewMainPass(destination gpu.RenderDestination, shadowMap gpu.Texture) RenderPass {
	depthFormat := destination.DepthStencilPixelFormat()
	stencilFormat := gpu.PixelFormatInvalid
	if depthFormat.HasStencil() {
		stencilFormat = depthFormat
	}
	return NewRenderPass(MainPassLabel,
		WithDestination(destination),
		WithTemplate(gpu.RenderPipelineDescriptor{
			ColorAttachments: []gpu.ColorAttachmentDescriptor{
				{Format: destination.ColorPixelFormat(), BlendingEnabled: true},
			},
			DepthAttachmentFormat:   depthFormat,
			StencilAttachmentFormat: stencilFormat,
			SampleCount:             max(destination.SampleCount(), 1),
		}),
		WithDepthCompare(gpu.CompareFunctionLess),
		WithDepthWrite(true),
		WithShadowMap(shadowMap),
	)
}
