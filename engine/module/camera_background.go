package module

import (
	"context"

	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/draw_call"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/render_pass"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/shader"
)

// cameraBackgroundModule draws the captured camera image behind everything else as a
// full-screen strip converted from YCbCr.
type cameraBackgroundModule struct {
	base

	library  gpu.Library
	drawCall draw_call.DrawCall

	y    gpu.Texture
	cbcr gpu.Texture
}

var _ RenderModule = &cameraBackgroundModule{}

// NewCameraBackgroundModule creates the camera background module. It draws only in passes
// that write the camera output and only on frames carrying both image planes.
//
// Returns:
//   - RenderModule: the module
func NewCameraBackgroundModule() RenderModule {
	m := &cameraBackgroundModule{}
	m.init(IDCameraBackground, RenderLayerCameraBackground)
	return m
}

func (m *cameraBackgroundModule) InitializeBuffers(device gpu.Device, _ int) error {
	if device == nil {
		return ErrNoDevice
	}
	return nil
}

func (m *cameraBackgroundModule) LoadAssets(context.Context, Assets) error {
	return nil
}

func (m *cameraBackgroundModule) LoadPipeline(device gpu.Device, pass render_pass.RenderPass) ([]*draw_call.Group, error) {
	if device == nil {
		return nil, ErrNoDevice
	}
	if !pass.Uses().Has(render_pass.UsesCameraOutput) || isShadowPass(pass) {
		return nil, nil
	}
	if m.drawCall == nil {
		if m.library == nil {
			lib, err := compileLibrary(device, m.id, cameraBackgroundShaderSource)
			if err != nil {
				return nil, err
			}
			m.library = lib
		}
		dss, err := device.MakeDepthStencilState(&gpu.DepthStencilDescriptor{
			Label:                m.id,
			DepthCompareFunction: gpu.CompareFunctionAlways,
		})
		if err != nil {
			return nil, err
		}
		dc, err := draw_call.NewWithFunctions(device, m.library, "vs_background", "fs_background", pass, nil, 0, 1,
			draw_call.WithLabel(m.id),
			draw_call.WithCullMode(gpu.CullModeNone),
			draw_call.WithDepthStencilState(dss),
		)
		if err != nil {
			return nil, err
		}
		m.drawCall = dc
	}
	g := draw_call.NewGroup(m.id, m.id, 0)
	g.Append(m.drawCall)
	return []*draw_call.Group{g}, nil
}

func (m *cameraBackgroundModule) UpdateBufferState(int) {}

func (m *cameraBackgroundModule) UpdateBuffers(frame *FrameState) {
	m.y = frame.Frame.CapturedImageY
	m.cbcr = frame.Frame.CapturedImageCbCr
}

func (m *cameraBackgroundModule) Draw(pass render_pass.RenderPass, _ SharedBindings) {
	enc := pass.Encoder()
	if enc == nil || m.y == nil || m.cbcr == nil {
		return
	}
	for _, g := range pass.Groups() {
		if g.ModuleID != m.id {
			continue
		}
		enc.PushDebugGroup(m.id)
		enc.SetFragmentTexture(m.y, int(shader.TextureIndexY))
		enc.SetFragmentTexture(m.cbcr, int(shader.TextureIndexCbCr))
		for _, dc := range g.DrawCalls() {
			dc.PrepareDrawCall(enc, 0)
			enc.DrawPrimitives(gpu.PrimitiveTypeTriangleStrip, 0, 4, 1)
		}
		enc.PopDebugGroup()
	}
}
