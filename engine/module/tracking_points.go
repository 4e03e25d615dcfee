package module

import (
	"context"

	"github.com/Carmen-Shannon/oxy-ar/common"
	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ar/engine/pass_buffer"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/draw_call"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/render_pass"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/shader"
)

const (
	// DefaultMaxTrackingPoints caps how many feature points are drawn per frame.
	DefaultMaxTrackingPoints = 1024

	// DefaultTrackingPointSize is the billboard diameter of a feature point in meters.
	DefaultTrackingPointSize float32 = 0.008
)

// trackingPointsModule draws the session's raw feature points as camera-facing discs.
type trackingPointsModule struct {
	base

	maxPoints int
	pointSize float32

	library  gpu.Library
	drawCall draw_call.DrawCall
	points   pass_buffer.PassBuffer[GPUTrackingPoint]
	count    int
}

var _ RenderModule = &trackingPointsModule{}

// NewTrackingPointsModule creates the tracking points module.
//
// Parameters:
//   - maxPoints: the per-frame capacity, DefaultMaxTrackingPoints when not positive
//   - pointSize: the disc diameter, DefaultTrackingPointSize when not positive
//
// Returns:
//   - RenderModule: the module
func NewTrackingPointsModule(maxPoints int, pointSize float32) RenderModule {
	m := &trackingPointsModule{
		maxPoints: common.Coalesce(max(maxPoints, 0), DefaultMaxTrackingPoints),
		pointSize: common.Coalesce(max(pointSize, 0), DefaultTrackingPointSize),
	}
	m.init(IDTrackingPoints, RenderLayerTrackingPoints)
	return m
}

func (m *trackingPointsModule) InitializeBuffers(device gpu.Device, maxInFlight int) error {
	if device == nil {
		return ErrNoDevice
	}
	if m.points != nil {
		return nil
	}
	m.points = pass_buffer.NewPassBuffer[GPUTrackingPoint](m.maxPoints, maxInFlight, pass_buffer.WithLabel("tracking-points"))
	if err := m.points.Initialize(device, gpu.StorageModeShared); err != nil {
		m.points = nil
		return err
	}
	return nil
}

func (m *trackingPointsModule) LoadAssets(context.Context, Assets) error {
	return nil
}

func (m *trackingPointsModule) LoadPipeline(device gpu.Device, pass render_pass.RenderPass) ([]*draw_call.Group, error) {
	if device == nil {
		return nil, ErrNoDevice
	}
	if !pass.Uses().Has(render_pass.UsesCameraOutput) || isShadowPass(pass) {
		return nil, nil
	}
	if m.drawCall == nil {
		if m.library == nil {
			lib, err := compileLibrary(device, m.id, trackingPointsShaderSource)
			if err != nil {
				return nil, err
			}
			m.library = lib
		}
		dc, err := draw_call.NewWithFunctions(device, m.library, "vs_points", "fs_points", pass, nil, 0, 1,
			draw_call.WithLabel(m.id),
			draw_call.WithCullMode(gpu.CullModeNone),
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

func (m *trackingPointsModule) UpdateBufferState(frameIndex int) {
	if m.points != nil {
		m.points.Update(frameIndex)
	}
}

func (m *trackingPointsModule) UpdateBuffers(frame *FrameState) {
	m.count = 0
	if m.points == nil {
		return
	}
	for _, p := range frame.Frame.FeaturePoints {
		if m.count >= m.maxPoints {
			break
		}
		m.points.Write(m.count, GPUTrackingPoint{Position: [3]float32(p), PointSize: m.pointSize})
		m.count++
	}
	m.points.Flush()
}

func (m *trackingPointsModule) Draw(pass render_pass.RenderPass, shared SharedBindings) {
	enc := pass.Encoder()
	if enc == nil || m.count == 0 {
		return
	}
	for _, g := range pass.Groups() {
		if g.ModuleID != m.id {
			continue
		}
		enc.PushDebugGroup(m.id)
		if shared != nil {
			shared.BindShared(pass)
		}
		m.points.BindVertex(enc, int(shader.BufferIndexTrackingPointData))
		for _, dc := range g.DrawCalls() {
			dc.PrepareDrawCall(enc, 0)
			enc.DrawPrimitives(gpu.PrimitiveTypeTriangleStrip, 0, 4, m.count)
		}
		enc.PopDebugGroup()
	}
}
