package module

import (
	"context"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-ar/common"
	"github.com/Carmen-Shannon/oxy-ar/engine/asset"
	"github.com/Carmen-Shannon/oxy-ar/engine/entity"
	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/render_pass"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-ar/engine/tracking"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFrame() *tracking.Frame {
	return &tracking.Frame{
		Camera: tracking.CameraState{
			Transform:  mgl32.Ident4(),
			Projection: common.Perspective(mgl32.DegToRad(60), 1, 0.1, 200),
		},
	}
}

func newDevice() gpu.HeadlessDevice {
	return gpu.NewHeadlessDevice(gpu.WithEventRecording(true))
}

// prepare runs a module through buffer, asset and pipeline setup and assigns its groups to passes.
func prepare(t *testing.T, device gpu.Device, m RenderModule, passes ...render_pass.RenderPass) {
	t.Helper()
	require.NoError(t, m.InitializeBuffers(device, 3))
	require.NoError(t, m.LoadAssets(context.Background(), Assets{Device: device, Provider: asset.NewStaticProvider()}))
	for _, p := range passes {
		groups, err := m.LoadPipeline(device, p)
		require.NoError(t, err)
		p.AddGroups(groups...)
	}
	m.SetState(StateParticipating)
}

func encode(t *testing.T, device gpu.Device, pass render_pass.RenderPass, draw func()) {
	t.Helper()
	queue, err := device.MakeCommandQueue("queue")
	require.NoError(t, err)
	cb, err := queue.MakeCommandBuffer("frame")
	require.NoError(t, err)
	require.NoError(t, pass.Begin(cb))
	draw()
	pass.End()
}

func eventsOf(device gpu.HeadlessDevice, kind gpu.EventKind) []gpu.Event {
	var out []gpu.Event
	for _, ev := range device.Events() {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

func addAnchor(r *entity.Registry, geometry asset.Handle, position mgl32.Vec3, shadows bool) entity.Handle {
	e := entity.New(entity.KindAnchor, geometry, mgl32.Translate3D(position.X(), position.Y(), position.Z()))
	e.CastsShadows = shadows
	return r.Add(e)
}

func TestGPUTypeLayouts(t *testing.T) {
	idx := GPUDrawCallGroupIndex{GroupIndex: 3, FirstInstance: 7}
	assert.Equal(t, 16, idx.Size())
	assert.Len(t, idx.Marshal(), 16)
	layouts := shader.StructLayouts(GPUDrawCallGroupIndexSource)
	require.Contains(t, layouts, "DrawCallGroupIndex")
	assert.Equal(t, uint64(idx.Size()), layouts["DrawCallGroupIndex"].Size)

	pt := GPUTrackingPoint{Position: [3]float32{1, 2, 3}, PointSize: 0.5}
	assert.Equal(t, 16, pt.Size())
	assert.Len(t, pt.Marshal(), 16)
	layouts = shader.StructLayouts(GPUTrackingPointSource)
	require.Contains(t, layouts, "TrackingPoint")
	assert.Equal(t, uint64(pt.Size()), layouts["TrackingPoint"].Size)
}

func TestProcessShaders(t *testing.T) {
	for name, src := range map[string]string{
		"mesh":              meshShaderSource,
		"camera-background": cameraBackgroundShaderSource,
		"tracking-points":   trackingPointsShaderSource,
	} {
		t.Run(name, func(t *testing.T) {
			processed, constants, err := ProcessShader(src)
			require.NoError(t, err)
			assert.NotContains(t, processed, "//@ar:")
			assert.NotNil(t, constants)
		})
	}

	processed, constants, err := ProcessShader(meshShaderSource)
	require.NoError(t, err)
	assert.Contains(t, processed, "struct AnchorInstanceUniforms")
	assert.Contains(t, processed, "struct DrawCallGroupIndex")
	assert.Contains(t, constants.WGSLPrelude(), "has_base_color_map")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "participating", StateParticipating.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "State(42)", State(42).String())
}

func TestRequestGeometryRegresses(t *testing.T) {
	device := newDevice()
	m := NewAnchorsModule(WithGeometries(asset.HandleCube))
	prepare(t, device, m)
	assert.True(t, m.Loaded(asset.HandleCube))
	assert.Equal(t, StateParticipating, m.State())

	assert.False(t, m.RequestGeometry(asset.HandleCube))
	assert.Equal(t, StateParticipating, m.State())

	assert.True(t, m.RequestGeometry(asset.HandleQuad))
	assert.Equal(t, StateBuffersInitialized, m.State())
	assert.Equal(t, []asset.Handle{asset.HandleCube, asset.HandleQuad}, m.Geometries())

	require.NoError(t, m.LoadAssets(context.Background(), Assets{Device: device, Provider: asset.NewStaticProvider()}))
	assert.True(t, m.Loaded(asset.HandleQuad))

	m.SetState(StateFailed)
	m.RequestGeometry("other")
	assert.Equal(t, StateFailed, m.State())
}

func TestLoadAssetsJoinsErrors(t *testing.T) {
	device := newDevice()
	m := NewUnanchoredModule(WithGeometries("missing", asset.HandleCube))
	require.NoError(t, m.InitializeBuffers(device, 3))
	err := m.LoadAssets(context.Background(), Assets{Device: device, Provider: asset.NewStaticProvider()})
	require.Error(t, err)
	assert.ErrorIs(t, err, asset.ErrUnknownGeometry)
	assert.True(t, m.Loaded(asset.HandleCube))
	assert.False(t, m.Loaded("missing"))

	assert.ErrorIs(t, m.InitializeBuffers(nil, 3), ErrNoDevice)
}

func TestMeshModuleCullsAndDraws(t *testing.T) {
	device := newDevice()
	main := render_pass.NewMainPass(gpu.NewHeadlessDestination(device, 64, 64), nil)
	m := NewAnchorsModule(WithGeometries(asset.HandleCube))
	prepare(t, device, m, main)

	reg := entity.NewRegistry()
	addAnchor(reg, asset.HandleCube, mgl32.Vec3{0, 0, -3}, true)
	addAnchor(reg, asset.HandleCube, mgl32.Vec3{0.5, 0, -4}, true)
	addAnchor(reg, asset.HandleCube, mgl32.Vec3{0, 0, 5}, true)

	m.UpdateBufferState(1)
	m.UpdateBuffers(&FrameState{FrameIndex: 1, Frame: newFrame(), Entities: reg})
	assert.Equal(t, 2, m.DrawnInstances(asset.HandleCube))

	device.ResetEvents()
	encode(t, device, main, func() { m.Draw(main, nil) })

	draws := eventsOf(device, gpu.EventDrawIndexed)
	require.Len(t, draws, 1)
	assert.Equal(t, 2, draws[0].InstanceCount)
	assert.True(t, strings.HasSuffix(draws[0].Name, "/high"), draws[0].Name)

	var groupIndexSeq, drawSeq uint64
	for _, ev := range device.Events() {
		switch {
		case ev.Kind == gpu.EventSetVertexBytes && ev.Index == int(shader.BufferIndexDrawCallGroupIndex):
			groupIndexSeq = ev.Seq
			assert.Equal(t, 16, ev.Count)
		case ev.Kind == gpu.EventDrawIndexed:
			drawSeq = ev.Seq
		}
	}
	assert.NotZero(t, groupIndexSeq)
	assert.Less(t, groupIndexSeq, drawSeq)

	instanceBinds := 0
	for _, ev := range eventsOf(device, gpu.EventSetVertexBuffer) {
		if ev.Index == int(shader.BufferIndexAnchorInstanceUniforms) {
			instanceBinds++
			assert.Equal(t, "anchors-instances", ev.Name)
			assert.NotZero(t, ev.Offset)
		}
	}
	assert.Equal(t, 1, instanceBinds)
}

func TestMeshModuleLevelOfDetail(t *testing.T) {
	device := newDevice()
	main := render_pass.NewMainPass(gpu.NewHeadlessDestination(device, 64, 64), nil)
	m := NewAnchorsModule(WithGeometries(asset.HandleCube))
	prepare(t, device, m, main)

	medium := entity.NewRegistry()
	addAnchor(medium, asset.HandleCube, mgl32.Vec3{0, 0, -30}, true)
	low := entity.NewRegistry()
	addAnchor(low, asset.HandleCube, mgl32.Vec3{0, 0, -100}, true)

	for _, tc := range []struct {
		reg  *entity.Registry
		lod  bool
		want string
	}{
		{medium, true, "/medium"},
		{medium, false, "/high"},
		{low, true, "/low"},
	} {
		m.UpdateBufferState(0)
		m.UpdateBuffers(&FrameState{Frame: newFrame(), Entities: tc.reg, LODEnabled: tc.lod})
		device.ResetEvents()
		encode(t, device, main, func() { m.Draw(main, nil) })
		draws := eventsOf(device, gpu.EventDrawIndexed)
		require.Len(t, draws, 1)
		assert.True(t, strings.HasSuffix(draws[0].Name, tc.want), draws[0].Name)
	}
}

func TestShadowPassDrawsCastersOnly(t *testing.T) {
	device := newDevice()
	shadowPass, err := render_pass.NewShadowPass(device, 256)
	require.NoError(t, err)
	main := render_pass.NewMainPass(gpu.NewHeadlessDestination(device, 64, 64), shadowPass.ShadowMap())

	anchors := NewAnchorsModule(WithGeometries(asset.HandleCube))
	surfaces := NewSurfacesModule()
	prepare(t, device, anchors, shadowPass, main)
	prepare(t, device, surfaces, shadowPass, main)

	for _, g := range shadowPass.Groups() {
		assert.Equal(t, IDAnchors, g.ModuleID)
		assert.True(t, g.CastsShadows)
	}

	reg := entity.NewRegistry()
	addAnchor(reg, asset.HandleCube, mgl32.Vec3{0, 0, -3}, true)
	addAnchor(reg, asset.HandleCube, mgl32.Vec3{1, 0, -3}, false)
	anchors.UpdateBufferState(0)
	anchors.UpdateBuffers(&FrameState{Frame: newFrame(), Entities: reg})

	device.ResetEvents()
	encode(t, device, shadowPass, func() { anchors.Draw(shadowPass, nil) })
	draws := eventsOf(device, gpu.EventDrawIndexed)
	require.Len(t, draws, 1)
	assert.Equal(t, 1, draws[0].InstanceCount)
	assert.True(t, strings.HasPrefix(draws[0].Name, render_pass.ShadowPassLabel+"/"), draws[0].Name)
	require.NotEmpty(t, eventsOf(device, gpu.EventSetDepthBias))
	assert.Equal(t, render_pass.ShadowDepthBias, eventsOf(device, gpu.EventSetDepthBias)[0].DepthBias)

	device.ResetEvents()
	encode(t, device, main, func() { anchors.Draw(main, nil) })
	draws = eventsOf(device, gpu.EventDrawIndexed)
	require.Len(t, draws, 1)
	assert.Equal(t, 2, draws[0].InstanceCount)
}

func TestSegmentTransform(t *testing.T) {
	a := mgl32.Vec3{1, 0, 0}
	b := mgl32.Vec3{1, 2, 2}
	m, ok := SegmentTransform(a, b, 0.1)
	require.True(t, ok)

	start := m.Mul4x1(mgl32.Vec4{0, 0, 0, 1}).Vec3()
	end := m.Mul4x1(mgl32.Vec4{0, 1, 0, 1}).Vec3()
	assert.InDelta(t, 0, start.Sub(a).Len(), 1e-5)
	assert.InDelta(t, 0, end.Sub(b).Len(), 1e-5)

	rim := m.Mul4x1(mgl32.Vec4{0.5, 0, 0, 1}).Vec3()
	assert.InDelta(t, 0.05, rim.Sub(a).Len(), 1e-5)

	_, ok = SegmentTransform(a, a, 0.1)
	assert.False(t, ok)
}

func TestPathsModuleJoinsConsecutivePoints(t *testing.T) {
	device := newDevice()
	m := NewPathsModule(WithPathWidth(0.05))
	prepare(t, device, m)
	assert.True(t, m.Loaded(asset.HandleCylinder))

	reg := entity.NewRegistry()
	path := uuid.New()
	for _, p := range []mgl32.Vec3{{0, 0, -3}, {1, 0, -3}, {1, 1, -3}} {
		e := entity.New(entity.KindPathPoint, "", mgl32.Translate3D(p.X(), p.Y(), p.Z()))
		e.PathID = path
		reg.Add(e)
	}
	lone := entity.New(entity.KindPathPoint, "", mgl32.Translate3D(0, 0, -4))
	lone.PathID = uuid.New()
	reg.Add(lone)

	m.UpdateBufferState(0)
	m.UpdateBuffers(&FrameState{Frame: newFrame(), Entities: reg})
	assert.Equal(t, 2, m.DrawnInstances(asset.HandleCylinder))
}

func TestSurfacesModuleDrawsPlanes(t *testing.T) {
	device := newDevice()
	m := NewSurfacesModule()
	prepare(t, device, m)

	plane := tracking.Anchor{
		ID:        uuid.New(),
		Kind:      tracking.AnchorKindPlane,
		Transform: mgl32.Translate3D(0, -1, -3),
		Plane:     &tracking.Plane{Center: mgl32.Vec3{0.5, 0, 0}, Extent: mgl32.Vec2{2, 4}},
	}
	corner := SurfaceTransform(plane).Mul4x1(mgl32.Vec4{0.5, 0, 0.5, 1}).Vec3()
	assert.InDelta(t, 1.5, corner.X(), 1e-5)
	assert.InDelta(t, -1, corner.Y(), 1e-5)
	assert.InDelta(t, -1, corner.Z(), 1e-5)

	frame := newFrame()
	frame.Anchors = []tracking.Anchor{plane, {ID: uuid.New(), Kind: tracking.AnchorKindGeneric, Transform: mgl32.Ident4()}}
	m.UpdateBufferState(0)
	m.UpdateBuffers(&FrameState{Frame: frame, Entities: entity.NewRegistry()})
	assert.Equal(t, 1, m.DrawnInstances(asset.HandleQuad))
}

func TestSharedModuleBindsByUses(t *testing.T) {
	device := newDevice()
	shadowPass, err := render_pass.NewShadowPass(device, 128)
	require.NoError(t, err)
	main := render_pass.NewMainPass(gpu.NewHeadlessDestination(device, 64, 64), shadowPass.ShadowMap())

	m := NewSharedModule(nil, true)
	prepare(t, device, m, shadowPass, main)
	assert.Empty(t, main.Groups())

	frame := newFrame()
	frame.LightEstimate = &tracking.LightEstimate{AmbientIntensity: 500, AmbientColorTemperature: 6500}
	m.UpdateBufferState(2)
	m.UpdateBuffers(&FrameState{FrameIndex: 2, Frame: frame})

	_, ok := m.SharedUniforms()
	assert.True(t, ok)
	env, ok := m.EnvironmentUniforms()
	require.True(t, ok)
	assert.Equal(t, int32(0), env.HasEnvironmentMap)

	device.ResetEvents()
	encode(t, device, main, func() { m.BindShared(main) })
	indices := map[int]bool{}
	for _, ev := range eventsOf(device, gpu.EventSetFragmentBuffer) {
		indices[ev.Index] = true
	}
	assert.True(t, indices[int(shader.BufferIndexSharedUniforms)])
	assert.True(t, indices[int(shader.BufferIndexEnvironmentUniforms)])
	textures := eventsOf(device, gpu.EventSetFragmentTexture)
	require.Len(t, textures, 1)
	assert.Equal(t, int(shader.TextureIndexShadowMap), textures[0].Index)

	device.ResetEvents()
	encode(t, device, shadowPass, func() { m.BindShared(shadowPass) })
	assert.Empty(t, eventsOf(device, gpu.EventSetFragmentTexture))
	assert.NotEmpty(t, eventsOf(device, gpu.EventSetVertexBuffer))
}

func TestSharedModuleDetectsProbeTextures(t *testing.T) {
	device := newDevice()
	m := NewSharedModule(nil, false)
	require.NoError(t, m.InitializeBuffers(device, 3))
	tex, err := device.MakeTexture(gpu.TextureDescriptor{Label: "probe", Format: gpu.PixelFormatRGBA8Unorm, Width: 4, Height: 4})
	require.NoError(t, err)

	frame := newFrame()
	frame.Anchors = []tracking.Anchor{{
		ID:        uuid.New(),
		Kind:      tracking.AnchorKindEnvironmentProbe,
		Transform: mgl32.Ident4(),
		Probe:     &tracking.Probe{Extent: mgl32.Vec3{1, 1, 1}, EnvironmentTexture: tex},
	}}
	m.UpdateBufferState(0)
	m.UpdateBuffers(&FrameState{Frame: frame})
	env, ok := m.EnvironmentUniforms()
	require.True(t, ok)
	assert.Equal(t, int32(1), env.HasEnvironmentMap)
}

func TestCameraBackgroundNeedsImage(t *testing.T) {
	device := newDevice()
	shadowPass, err := render_pass.NewShadowPass(device, 128)
	require.NoError(t, err)
	main := render_pass.NewMainPass(gpu.NewHeadlessDestination(device, 64, 64), nil)
	m := NewCameraBackgroundModule()
	prepare(t, device, m, shadowPass, main)
	assert.Empty(t, shadowPass.Groups())
	require.Len(t, main.Groups(), 1)

	frame := newFrame()
	m.UpdateBuffers(&FrameState{Frame: frame})
	device.ResetEvents()
	encode(t, device, main, func() { m.Draw(main, nil) })
	assert.Empty(t, eventsOf(device, gpu.EventDraw))

	y, err := device.MakeTexture(gpu.TextureDescriptor{Label: "y", Format: gpu.PixelFormatR8Unorm, Width: 8, Height: 8})
	require.NoError(t, err)
	cbcr, err := device.MakeTexture(gpu.TextureDescriptor{Label: "cbcr", Format: gpu.PixelFormatRG8Unorm, Width: 4, Height: 4})
	require.NoError(t, err)
	frame.CapturedImageY, frame.CapturedImageCbCr = y, cbcr
	m.UpdateBuffers(&FrameState{Frame: frame})
	device.ResetEvents()
	encode(t, device, main, func() { m.Draw(main, nil) })
	draws := eventsOf(device, gpu.EventDraw)
	require.Len(t, draws, 1)
	assert.Equal(t, 4, draws[0].Count)
	assert.Len(t, eventsOf(device, gpu.EventSetFragmentTexture), 2)
}

func TestTrackingPointsCapped(t *testing.T) {
	device := newDevice()
	main := render_pass.NewMainPass(gpu.NewHeadlessDestination(device, 64, 64), nil)
	m := NewTrackingPointsModule(2, 0)
	prepare(t, device, m, main)

	frame := newFrame()
	frame.FeaturePoints = []mgl32.Vec3{{0, 0, -1}, {0, 1, -1}, {1, 0, -1}, {1, 1, -1}}
	m.UpdateBufferState(0)
	m.UpdateBuffers(&FrameState{Frame: frame})

	device.ResetEvents()
	encode(t, device, main, func() { m.Draw(main, nil) })
	draws := eventsOf(device, gpu.EventDraw)
	require.Len(t, draws, 1)
	assert.Equal(t, 2, draws[0].InstanceCount)
}
