package module

import (
	"context"

	"github.com/Carmen-Shannon/oxy-ar/engine/camera"
	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ar/engine/light"
	"github.com/Carmen-Shannon/oxy-ar/engine/pass_buffer"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/draw_call"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/render_pass"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-ar/engine/tracking"
)

// sharedModule owns the camera and environment records every other module reads.
type sharedModule struct {
	base

	light       light.Light
	useDepth    bool
	shared      pass_buffer.PassBuffer[camera.GPUSharedUniforms]
	environment pass_buffer.PassBuffer[light.GPUEnvironmentUniforms]
}

// SharedModule is the render module holding cross-module uniforms. It never draws.
type SharedModule interface {
	RenderModule
	SharedBindings

	// Light returns the scene light the environment record is built from.
	Light() light.Light

	// SharedUniforms returns the camera record written for the current frame slot.
	SharedUniforms() (camera.GPUSharedUniforms, bool)

	// EnvironmentUniforms returns the environment record written for the current frame slot.
	EnvironmentUniforms() (light.GPUEnvironmentUniforms, bool)
}

var _ SharedModule = &sharedModule{}

// NewSharedModule creates the shared module.
//
// Parameters:
//   - l: the scene light; a default light is used when nil
//   - useDepth: whether shaders occlude against scene depth
//
// Returns:
//   - SharedModule: the module
func NewSharedModule(l light.Light, useDepth bool) SharedModule {
	if l == nil {
		l = light.NewLight()
	}
	m := &sharedModule{light: l, useDepth: useDepth}
	m.init(IDShared, RenderLayerShared)
	return m
}

func (m *sharedModule) Light() light.Light { return m.light }

func (m *sharedModule) InitializeBuffers(device gpu.Device, maxInFlight int) error {
	if device == nil {
		return ErrNoDevice
	}
	if m.shared == nil {
		m.shared = pass_buffer.NewPassBuffer[camera.GPUSharedUniforms](1, maxInFlight, pass_buffer.WithLabel("shared-uniforms"))
		if err := m.shared.Initialize(device, gpu.StorageModeShared); err != nil {
			m.shared = nil
			return err
		}
	}
	if m.environment == nil {
		m.environment = pass_buffer.NewPassBuffer[light.GPUEnvironmentUniforms](1, maxInFlight, pass_buffer.WithLabel("environment-uniforms"))
		if err := m.environment.Initialize(device, gpu.StorageModeShared); err != nil {
			m.environment = nil
			return err
		}
	}
	return nil
}

func (m *sharedModule) LoadAssets(context.Context, Assets) error {
	return nil
}

func (m *sharedModule) LoadPipeline(gpu.Device, render_pass.RenderPass) ([]*draw_call.Group, error) {
	return nil, nil
}

func (m *sharedModule) UpdateBufferState(frameIndex int) {
	if m.shared != nil {
		m.shared.Update(frameIndex)
	}
	if m.environment != nil {
		m.environment.Update(frameIndex)
	}
}

func (m *sharedModule) UpdateBuffers(frame *FrameState) {
	if m.shared == nil || m.environment == nil {
		return
	}
	cam := frame.Frame.Camera
	m.shared.Write(0, camera.NewSharedUniforms(cam.Transform, cam.Projection, m.useDepth))
	m.shared.Flush()

	if est := frame.Frame.LightEstimate; est != nil {
		m.light.ApplyEstimate(est.AmbientIntensity, est.AmbientColorTemperature)
	}
	hasProbe := false
	for _, a := range frame.Frame.Anchors {
		if a.Kind == tracking.AnchorKindEnvironmentProbe && a.Probe != nil && a.Probe.EnvironmentTexture != nil {
			hasProbe = true
			break
		}
	}
	m.light.SetHasEnvironmentMap(hasProbe)
	m.environment.Write(0, m.light.EnvironmentUniforms(cam.Position()))
	m.environment.Flush()
}

// Draw is a no-op: the shared module only provides bindings.
func (m *sharedModule) Draw(render_pass.RenderPass, SharedBindings) {}

func (m *sharedModule) BindShared(pass render_pass.RenderPass) {
	enc := pass.Encoder()
	if enc == nil {
		return
	}
	uses := pass.Uses()
	if uses.Has(render_pass.UsesSharedBuffer) && m.shared != nil {
		m.shared.BindVertex(enc, int(shader.BufferIndexSharedUniforms))
		m.shared.BindFragment(enc, int(shader.BufferIndexSharedUniforms))
	}
	if uses.Has(render_pass.UsesEnvironment) && m.environment != nil {
		m.environment.BindVertex(enc, int(shader.BufferIndexEnvironmentUniforms))
		m.environment.BindFragment(enc, int(shader.BufferIndexEnvironmentUniforms))
	}
	if uses.Has(render_pass.UsesShadows|render_pass.UsesLighting) && pass.ShadowMap() != nil {
		enc.SetFragmentTexture(pass.ShadowMap(), int(shader.TextureIndexShadowMap))
	}
}

func (m *sharedModule) SharedUniforms() (camera.GPUSharedUniforms, bool) {
	if m.shared == nil {
		return camera.GPUSharedUniforms{}, false
	}
	return m.shared.Read(0)
}

func (m *sharedModule) EnvironmentUniforms() (light.GPUEnvironmentUniforms, bool) {
	if m.environment == nil {
		return light.GPUEnvironmentUniforms{}, false
	}
	return m.environment.Read(0)
}
