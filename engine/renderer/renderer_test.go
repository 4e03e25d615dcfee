package renderer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-ar/engine/asset"
	"github.com/Carmen-Shannon/oxy-ar/engine/entity"
	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ar/engine/module"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/render_pass"
	"github.com/Carmen-Shannon/oxy-ar/engine/tracking"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frameTime = 16 * time.Millisecond

type recordingObserver struct {
	mu            sync.Mutex
	batches       [][]SeriousError
	transitions   [][2]State
	interruptions int
	resumptions   int
}

func (o *recordingObserver) SeriousErrors(errs []SeriousError) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.batches = append(o.batches, errs)
}

func (o *recordingObserver) SessionInterrupted() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.interruptions++
}

func (o *recordingObserver) SessionInterruptionEnded() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.resumptions++
}

func (o *recordingObserver) StateChanged(from, to State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transitions = append(o.transitions, [2]State{from, to})
}

// countingProvider counts geometry loads per handle.
type countingProvider struct {
	asset.Provider

	mu    sync.Mutex
	loads map[asset.Handle]int
}

func newCountingProvider() *countingProvider {
	return &countingProvider{Provider: asset.NewStaticProvider(), loads: make(map[asset.Handle]int)}
}

func (p *countingProvider) LoadGeometry(ctx context.Context, handle asset.Handle, completion func(*asset.MeshData, error)) {
	p.mu.Lock()
	p.loads[handle]++
	p.mu.Unlock()
	p.Provider.LoadGeometry(ctx, handle, completion)
}

func (p *countingProvider) count(handle asset.Handle) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loads[handle]
}

type fixture struct {
	r           *renderer
	device      gpu.HeadlessDevice
	destination gpu.HeadlessDestination
	session     tracking.SyntheticSession
}

func newFixture(t *testing.T, deviceOpts []gpu.HeadlessDeviceBuilderOption, opts ...RendererBuilderOption) *fixture {
	t.Helper()
	device := gpu.NewHeadlessDevice(deviceOpts...)
	destination := gpu.NewHeadlessDestination(device, 64, 64)
	session := tracking.NewSyntheticSession()
	r := NewRenderer(device, destination, session, opts...).(*renderer)
	t.Cleanup(r.Close)
	return &fixture{r: r, device: device, destination: destination, session: session}
}

func (f *fixture) start(t *testing.T) {
	t.Helper()
	require.NoError(t, f.r.Initialize())
	f.r.Run()
	require.Equal(t, StateRunning, f.r.State())
}

func (f *fixture) frame() {
	f.session.Advance(frameTime)
	f.r.Update()
}

func eventsIn(device gpu.HeadlessDevice, commandBuffer string) []gpu.Event {
	var out []gpu.Event
	for _, ev := range device.Events() {
		if ev.CommandBuffer == commandBuffer {
			out = append(out, ev)
		}
	}
	return out
}

func TestStateMachine(t *testing.T) {
	obs := &recordingObserver{}
	f := newFixture(t, nil, WithObserver(obs))
	f.session.Advance(frameTime)

	f.r.Run()
	f.r.Pause()
	f.r.Update()
	assert.Equal(t, StateUninitialized, f.r.State())
	assert.Zero(t, f.device.Committed())

	require.NoError(t, f.r.Initialize())
	require.NoError(t, f.r.Initialize())
	assert.Equal(t, StateInitialized, f.r.State())
	f.r.Pause()
	assert.Equal(t, StateInitialized, f.r.State())
	f.r.Update()
	assert.Zero(t, f.device.Committed())

	f.r.Run()
	f.r.Pause()
	f.r.Update()
	assert.Zero(t, f.device.Committed())
	f.r.Run()
	f.r.Update()
	assert.Equal(t, 1, f.device.Committed())

	obs.mu.Lock()
	defer obs.mu.Unlock()
	assert.Equal(t, [][2]State{
		{StateUninitialized, StateInitialized},
		{StateInitialized, StateRunning},
		{StateRunning, StatePaused},
		{StatePaused, StateRunning},
	}, obs.transitions)
}

func TestInitializeConfiguresDestination(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleCount = 4
	f := newFixture(t, nil, WithConfig(cfg))
	f.destination.SetDepthStencilPixelFormat(gpu.PixelFormatInvalid)
	require.NoError(t, f.r.Initialize())

	assert.Equal(t, gpu.PixelFormatDepth32FloatStencil8, f.destination.DepthStencilPixelFormat())
	assert.Equal(t, 4, f.destination.SampleCount())
	shared, ok := f.r.Module(module.IDShared)
	require.True(t, ok)
	assert.Equal(t, module.StateParticipating, shared.State())
}

func TestShadowPassEncodedBeforeMainPass(t *testing.T) {
	f := newFixture(t, []gpu.HeadlessDeviceBuilderOption{gpu.WithEventRecording(true)})
	f.start(t)
	f.r.AddAnchor(uuid.Nil, asset.HandleCube, mgl32.Ident4())
	const frames = 2 * MaxBuffersInFlight
	for i := 0; i < frames; i++ {
		f.frame()
	}
	f.r.Close()

	for i := 1; i <= frames; i++ {
		label := fmt.Sprintf("frame-%d", i)
		events := eventsIn(f.device, label)
		require.NotEmpty(t, events, label)

		var shadowEnd, mainBegin, present, commit uint64
		var shadowDraws, mainDraws int
		begins := 0
		for _, ev := range events {
			switch ev.Kind {
			case gpu.EventBeginEncoding:
				begins++
				if begins == 2 {
					mainBegin = ev.Seq
				}
			case gpu.EventEndEncoding:
				if ev.Encoder == render_pass.ShadowPassLabel {
					shadowEnd = ev.Seq
				}
			case gpu.EventDrawIndexed:
				switch ev.Encoder {
				case render_pass.ShadowPassLabel:
					shadowDraws++
				case render_pass.MainPassLabel:
					mainDraws++
				}
			case gpu.EventPresent:
				present = ev.Seq
			case gpu.EventCommit:
				commit = ev.Seq
			}
		}
		assert.Equal(t, 2, begins, label)
		assert.Less(t, shadowEnd, mainBegin, label)
		assert.Less(t, present, commit, label)
		assert.Positive(t, shadowDraws, label)
		assert.Positive(t, mainDraws, label)
	}
}

// shadowlessDevice fails to allocate the shadow map.
type shadowlessDevice struct {
	gpu.Device
}

func (d shadowlessDevice) MakeTexture(desc gpu.TextureDescriptor) (gpu.Texture, error) {
	if desc.Label == "shadow-map" {
		return nil, gpu.ErrInvalidDescriptor
	}
	return d.Device.MakeTexture(desc)
}

func TestInitializeReportsBootstrapFailure(t *testing.T) {
	obs := &recordingObserver{}
	device := gpu.NewHeadlessDevice()
	r := NewRenderer(shadowlessDevice{device}, gpu.NewHeadlessDestination(device, 64, 64), tracking.NewSyntheticSession(), WithObserver(obs))
	t.Cleanup(r.Close)

	err := r.Initialize()
	require.ErrorIs(t, err, gpu.ErrInvalidDescriptor)
	assert.Equal(t, StateUninitialized, r.State())

	obs.mu.Lock()
	defer obs.mu.Unlock()
	require.Len(t, obs.batches, 1)
	require.Len(t, obs.batches[0], 1)
	assert.Equal(t, BootstrapID, obs.batches[0][0].ModuleID)
}

func TestInFlightFramesBounded(t *testing.T) {
	f := newFixture(t, []gpu.HeadlessDeviceBuilderOption{gpu.WithCompletionLatency(200 * time.Microsecond)})
	f.start(t)
	f.r.AddAnchor(uuid.Nil, asset.HandleCube, mgl32.Ident4())

	for i := 0; i < 1000; i++ {
		f.frame()
		committed := f.device.Committed()
		completed := f.device.Completed()
		require.LessOrEqual(t, committed-completed, MaxBuffersInFlight)
	}
	f.r.Close()

	assert.Equal(t, 1000, f.device.Committed())
	assert.Equal(t, 1000, f.device.Completed())
	assert.LessOrEqual(t, int(f.r.peakInUse.Load()), MaxBuffersInFlight)
	assert.Zero(t, f.r.InFlight())

	anchors, ok := f.r.Module(module.IDAnchors)
	require.True(t, ok)
	assert.Eventually(t, func() bool {
		return anchors.(interface{ CompletedFrames() int64 }).CompletedFrames() >= 999
	}, time.Second, time.Millisecond)
}

func TestInitializeModulesIsIdempotent(t *testing.T) {
	provider := newCountingProvider()
	f := newFixture(t, nil, WithAssetProvider(provider))
	f.start(t)
	f.r.AddAnchor(uuid.Nil, asset.HandleCube, mgl32.Ident4())
	f.frame()
	require.Equal(t, 1, provider.count(asset.HandleCube))
	pipelines := f.device.PipelineStatesCreated()

	require.NoError(t, f.r.InitializeModules())
	require.NoError(t, f.r.InitializeModules())
	f.frame()
	assert.Equal(t, 1, provider.count(asset.HandleCube))
	assert.Equal(t, pipelines, f.device.PipelineStatesCreated())

	f.r.AddAnchor(uuid.Nil, asset.HandleQuad, mgl32.Translate3D(0.5, 0, 0))
	f.frame()
	f.frame()
	assert.Equal(t, 1, provider.count(asset.HandleCube))
	assert.Equal(t, 1, provider.count(asset.HandleQuad))

	anchors, ok := f.r.Module(module.IDAnchors)
	require.True(t, ok)
	assert.Equal(t, module.StateParticipating, anchors.State())
	assert.Equal(t, []asset.Handle{asset.HandleCube, asset.HandleQuad}, anchors.(module.MeshModule).Geometries())
}

func TestSeriousErrorsBroadcastOnce(t *testing.T) {
	obs := &recordingObserver{}
	f := newFixture(t, []gpu.HeadlessDeviceBuilderOption{gpu.WithEventRecording(true)}, WithObserver(obs))
	f.start(t)
	f.r.AddAnchor(uuid.Nil, "missing.glb", mgl32.Ident4())
	f.r.AddTracker(asset.HandleCube, mgl32.Translate3D(0, 0, -1), true)
	f.frame()
	f.frame()
	f.r.Close()

	anchors, ok := f.r.Module(module.IDAnchors)
	require.True(t, ok)
	assert.Equal(t, module.StateFailed, anchors.State())
	unanchored, ok := f.r.Module(module.IDUnanchored)
	require.True(t, ok)
	assert.Equal(t, module.StateParticipating, unanchored.State())

	obs.mu.Lock()
	defer obs.mu.Unlock()
	require.Len(t, obs.batches, 1)
	require.Len(t, obs.batches[0], 1)
	assert.Equal(t, module.IDAnchors, obs.batches[0][0].ModuleID)
	assert.ErrorIs(t, obs.batches[0][0], asset.ErrUnknownGeometry)
	assert.Equal(t, 2, f.device.Committed())

	for _, ev := range f.device.Events() {
		if ev.Kind == gpu.EventDrawIndexed {
			assert.False(t, strings.Contains(ev.Name, "/anchors/"), ev.Name)
		}
	}
}

func TestPipelineFailureIsSerious(t *testing.T) {
	obs := &recordingObserver{}
	f := newFixture(t, []gpu.HeadlessDeviceBuilderOption{
		gpu.WithPipelineFailure("main/anchors/builtin:cube/high"),
	}, WithObserver(obs))
	f.start(t)
	f.r.AddAnchor(uuid.Nil, asset.HandleCube, mgl32.Ident4())
	f.frame()

	err := f.r.InitializeModules()
	assert.NoError(t, err)

	anchors, ok := f.r.Module(module.IDAnchors)
	require.True(t, ok)
	assert.Equal(t, module.StateFailed, anchors.State())
	for _, pass := range []render_pass.RenderPass{f.r.shadowPass, f.r.mainPass} {
		for _, g := range pass.Groups() {
			assert.NotEqual(t, module.IDAnchors, g.ModuleID)
		}
	}
	obs.mu.Lock()
	defer obs.mu.Unlock()
	require.Len(t, obs.batches, 1)
	assert.Equal(t, module.IDAnchors, obs.batches[0][0].ModuleID)
}

func TestMissingFrameReleasesSlot(t *testing.T) {
	f := newFixture(t, nil)
	f.start(t)
	for i := 0; i < 2*MaxBuffersInFlight; i++ {
		f.r.Update()
	}
	assert.Zero(t, f.device.Committed())
	assert.Zero(t, f.r.InFlight())

	f.session.Interrupt()
	f.frame()
	assert.Zero(t, f.device.Committed())
}

func TestUnavailableDestinationSkipsFrame(t *testing.T) {
	f := newFixture(t, []gpu.HeadlessDeviceBuilderOption{gpu.WithEventRecording(true)})
	f.start(t)
	f.r.AddAnchor(uuid.Nil, asset.HandleCube, mgl32.Ident4())
	f.destination.SetAvailable(false)
	for i := 0; i < 2*MaxBuffersInFlight; i++ {
		f.frame()
	}
	f.r.Close()

	assert.Zero(t, f.device.Committed())
	assert.Zero(t, f.r.InFlight())
	assert.Empty(t, f.device.Events(), "nothing is encoded without a destination")

	f.destination.SetAvailable(true)
	f.frame()
	f.r.Close()
	presents := 0
	for _, ev := range f.device.Events() {
		if ev.Kind == gpu.EventPresent {
			presents++
		}
	}
	assert.Equal(t, 1, presents)
}

func TestModulesInstantiatedLazily(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ShowTrackingPoints = true
	f := newFixture(t, nil, WithConfig(cfg))
	f.start(t)
	f.frame()
	_, ok := f.r.Module(module.IDAnchors)
	assert.False(t, ok)

	f.r.AddAnchor(uuid.Nil, asset.HandleCube, mgl32.Ident4())
	f.r.AddGazeTarget(asset.HandleCube)
	_, path := f.r.AddPath([]mgl32.Vec3{{0, 0, 0}, {0.5, 0, 0}, {0.5, 0, 0.5}})
	require.Len(t, path, 3)
	f.session.AddAnchor(tracking.Anchor{
		Kind:      tracking.AnchorKindPlane,
		Transform: mgl32.Ident4(),
		Plane:     &tracking.Plane{Extent: mgl32.Vec2{1, 1}},
	})
	f.session.SetFeaturePoints([]mgl32.Vec3{{0, 0, 0}, {0.1, 0, 0}})
	f.frame()

	for _, id := range []string{module.IDAnchors, module.IDUnanchored, module.IDPaths, module.IDSurfaces, module.IDTrackingPoints} {
		m, ok := f.r.Module(id)
		require.True(t, ok, id)
		assert.Equal(t, module.StateParticipating, m.State(), id)
	}
	_, ok = f.r.Module(module.IDCameraBackground)
	assert.False(t, ok)

	paths, _ := f.r.Module(module.IDPaths)
	assert.Equal(t, 2, paths.(module.MeshModule).DrawnInstances(asset.HandleCylinder))
}

func TestRemoveModule(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ShowTrackingPoints = true
	f := newFixture(t, nil, WithConfig(cfg))
	f.start(t)
	f.session.SetFeaturePoints([]mgl32.Vec3{{0, 0, 0}})
	f.frame()
	_, ok := f.r.Module(module.IDTrackingPoints)
	require.True(t, ok)

	f.session.SetFeaturePoints(nil)
	f.r.RemoveModule(module.IDTrackingPoints)
	f.frame()
	_, ok = f.r.Module(module.IDTrackingPoints)
	assert.False(t, ok)
	for _, g := range f.r.mainPass.Groups() {
		assert.NotEqual(t, module.IDTrackingPoints, g.ModuleID)
	}
}

func TestEntityAPI(t *testing.T) {
	f := newFixture(t, nil)
	f.start(t)
	h := f.r.AddAnchor(uuid.Nil, asset.HandleCube, mgl32.Ident4())

	assert.True(t, f.r.WithEntity(h, func(e *entity.Entity) {
		e.Effects.Alpha = 0.5
	}))
	require.True(t, f.r.MoveAnchor(h, mgl32.Translate3D(1, 0, 0)))
	for i := 0; i < entity.RelocationSteps; i++ {
		f.frame()
	}
	var world mgl32.Mat4
	f.r.WithEntity(h, func(e *entity.Entity) { world = e.World() })
	assert.InDelta(t, 1, world.Col(3).X(), 1e-5)

	assert.True(t, f.r.RemoveEntity(h))
	assert.False(t, f.r.RemoveEntity(h))
	assert.False(t, f.r.WithEntity(h, func(*entity.Entity) {}))
	assert.False(t, f.r.MoveAnchor(h, mgl32.Ident4()))
}

func TestSessionInterruptionsForwarded(t *testing.T) {
	obs := &recordingObserver{}
	f := newFixture(t, nil, WithObserver(obs))
	f.start(t)
	f.session.Interrupt()
	f.session.EndInterruption()

	obs.mu.Lock()
	defer obs.mu.Unlock()
	assert.Equal(t, 1, obs.interruptions)
	assert.Equal(t, 1, obs.resumptions)
	assert.Equal(t, StateRunning, f.r.State())
}
