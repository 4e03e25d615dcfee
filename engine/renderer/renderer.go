package renderer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-ar/common"
	"github.com/Carmen-Shannon/oxy-ar/engine/asset"
	"github.com/Carmen-Shannon/oxy-ar/engine/entity"
	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ar/engine/light"
	"github.com/Carmen-Shannon/oxy-ar/engine/module"
	"github.com/Carmen-Shannon/oxy-ar/engine/profiler"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/render_pass"
	"github.com/Carmen-Shannon/oxy-ar/engine/tracking"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	// mu guards the entity registry and the pending module removals.
	mu sync.Mutex

	cfg         Config
	device      gpu.Device
	destination gpu.RenderDestination
	session     tracking.Session
	provider    asset.Provider
	textures    asset.TextureLoader
	light       light.Light

	observersMu sync.RWMutex
	observers   []Observer

	state atomic.Int32

	queue     gpu.CommandQueue
	inFlight  *semaphore.Weighted
	inUse     atomic.Int32
	peakInUse atomic.Int32

	ctx        *Context
	entities   *entity.Registry
	shadowPass render_pass.RenderPass
	mainPass   render_pass.RenderPass
	pool       worker.DynamicWorkerPool
	profiler   *profiler.Profiler

	loadCtx     context.Context
	cancelLoads context.CancelFunc

	pendingRemovals []string
	probesDirty     bool
}

// Renderer is the top-level orchestrator of the engine. It owns the command queue, the
// in-flight frame semaphore, the shadow and main passes, the module arena and the entity
// registry, and turns one tracking snapshot into one committed command buffer per Update.
//
// Update, InitializeModules and Module must be called from a single goroutine, the one
// driving the frame loop. The entity methods may be called from any goroutine.
type Renderer interface {
	tracking.Observer

	// State returns the lifecycle position of the renderer.
	//
	// Returns:
	//   - State: the current state
	State() State

	// Config returns the configuration the renderer was built with.
	//
	// Returns:
	//   - Config: the configuration
	Config() Config

	// Initialize performs the one-time bootstrap: creates the command queue, configures the
	// render destination's depth format and sample count, builds the shadow and main passes
	// and registers the shared module. It is a no-op unless the renderer is Uninitialized.
	//
	// Returns:
	//   - error: an error if the command queue or the shadow map cannot be created
	Initialize() error

	// Run moves an Initialized or Paused renderer to Running. Other states are left alone.
	Run()

	// Pause moves a Running renderer to Paused. Other states are left alone.
	Pause()

	// Update encodes and commits one frame. It blocks while MaxBuffersInFlight frames are
	// still being consumed by the GPU, and returns before the GPU executes anything. Update is
	// a no-op unless the renderer is Running. Frames without a tracking snapshot or without a
	// render destination descriptor are skipped.
	Update()

	// InitializeModules progresses every module that is neither participating nor failed
	// through buffer, asset and pipeline setup. Asset loads run on the worker pool; pipelines are
	// built once every load has finished. Modules that fail are marked Failed and their errors
	// are broadcast to observers as one batch. Calling it again with nothing new to load does
	// no work.
	//
	// Returns:
	//   - error: the joined serious errors of this batch, nil when there were none
	InitializeModules() error

	// Module returns the module registered under id.
	//
	// Parameters:
	//   - id: the module identifier
	//
	// Returns:
	//   - module.RenderModule: the module
	//   - bool: false when no module is registered under id
	Module(id string) (module.RenderModule, bool)

	// RemoveModule queues a module for removal at the start of the next frame. Modules whose
	// preconditions still hold are instantiated again.
	//
	// Parameters:
	//   - id: the module identifier
	RemoveModule(id string)

	// AddObserver registers an observer for serious errors, interruptions and state changes.
	//
	// Parameters:
	//   - o: the observer
	AddObserver(o Observer)

	// AddAnchor places geometry attached to a tracking anchor. The entity follows the anchor's
	// updates and detaches when the anchor is removed.
	//
	// Parameters:
	//   - anchorID: the tracking anchor, uuid.Nil for an entity fixed at transform
	//   - geometry: the geometry to draw
	//   - transform: the initial world transform
	//
	// Returns:
	//   - entity.Handle: the entity handle
	AddAnchor(anchorID uuid.UUID, geometry asset.Handle, transform mgl32.Mat4) entity.Handle

	// AddTracker places geometry that is not attached to the world. A tracker following the
	// camera keeps location relative to the camera every frame.
	//
	// Parameters:
	//   - geometry: the geometry to draw
	//   - location: the transform, camera-relative when followCamera is set
	//   - followCamera: pins the tracker to the camera
	//
	// Returns:
	//   - entity.Handle: the entity handle
	AddTracker(geometry asset.Handle, location mgl32.Mat4, followCamera bool) entity.Handle

	// AddGazeTarget places geometry that rests on the surface under the center of the screen
	// and turns to face the camera.
	//
	// Parameters:
	//   - geometry: the geometry to draw
	//
	// Returns:
	//   - entity.Handle: the entity handle
	AddGazeTarget(geometry asset.Handle) entity.Handle

	// AddPath places a path drawn as segments joining consecutive points.
	//
	// Parameters:
	//   - points: the world positions along the path
	//
	// Returns:
	//   - uuid.UUID: the path identifier
	//   - []entity.Handle: the point entities in path order
	AddPath(points []mgl32.Vec3) (uuid.UUID, []entity.Handle)

	// AddEntity places an entity built by the caller.
	//
	// Parameters:
	//   - e: the entity
	//
	// Returns:
	//   - entity.Handle: the entity handle
	AddEntity(e entity.Entity) entity.Handle

	// WithEntity runs fn on the entity addressed by h while holding the registry lock.
	//
	// Parameters:
	//   - h: the entity handle
	//   - fn: the callback; the pointer must not escape it
	//
	// Returns:
	//   - bool: false when h is stale
	WithEntity(h entity.Handle, fn func(e *entity.Entity)) bool

	// RemoveEntity deletes an entity. Modules keep running with fewer instances.
	//
	// Parameters:
	//   - h: the entity handle
	//
	// Returns:
	//   - bool: false when h is stale
	RemoveEntity(h entity.Handle) bool

	// MoveAnchor relocates an entity smoothly over entity.RelocationSteps frames.
	//
	// Parameters:
	//   - h: the entity handle
	//   - target: the destination transform
	//
	// Returns:
	//   - bool: false when h is stale
	MoveAnchor(h entity.Handle, target mgl32.Mat4) bool

	// InFlight returns how many committed frames the GPU has not finished.
	//
	// Returns:
	//   - int: the number of frames holding a ring slot
	InFlight() int

	// Close waits for every in-flight frame and stops pending asset loads.
	Close()
}

var _ Renderer = &renderer{}

// NewRenderer creates a renderer drawing the world of session into destination.
//
// Parameters:
//   - device: the GPU device
//   - destination: the render destination presenting frames
//   - session: the tracking session queried once per Update
//   - opts: functional options
//
// Returns:
//   - Renderer: the renderer in the Uninitialized state
func NewRenderer(device gpu.Device, destination gpu.RenderDestination, session tracking.Session, opts ...RendererBuilderOption) Renderer {
	r := &renderer{
		cfg:         DefaultConfig(),
		device:      device,
		destination: destination,
		session:     session,
		entities:    entity.NewRegistry(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.provider == nil {
		r.provider = asset.NewStaticProvider()
	}
	if r.light == nil {
		r.light = light.NewLight()
	}
	r.inFlight = semaphore.NewWeighted(int64(r.cfg.MaxBuffersInFlight))
	r.ctx = NewContext(r.cfg.MaxBuffersInFlight)
	r.pool = worker.NewDynamicWorkerPool(r.cfg.Workers, 256, 1*time.Second)
	r.loadCtx, r.cancelLoads = context.WithCancel(context.Background())
	if r.cfg.Profile {
		r.profiler = profiler.NewProfiler()
	}
	if s, ok := session.(interface{ SetObserver(tracking.Observer) }); ok {
		s.SetObserver(r)
	}
	return r
}

func (r *renderer) State() State {
	return State(r.state.Load())
}

func (r *renderer) Config() Config {
	return r.cfg
}

func (r *renderer) setState(to State) {
	from := State(r.state.Swap(int32(to)))
	if from == to {
		return
	}
	common.Logger().Info("renderer state changed", "from", from.String(), "to", to.String())
	for _, o := range r.observerList() {
		o.StateChanged(from, to)
	}
}

func (r *renderer) Initialize() error {
	if r.State() != StateUninitialized {
		return nil
	}
	queue, err := r.device.MakeCommandQueue("renderer")
	if err != nil {
		return r.reportSerious([]SeriousError{{ModuleID: BootstrapID, Err: fmt.Errorf("failed to create command queue: %w", err)}})
	}
	if r.destination.DepthStencilPixelFormat() == gpu.PixelFormatInvalid {
		r.destination.SetDepthStencilPixelFormat(gpu.PixelFormatDepth32FloatStencil8)
	}
	r.destination.SetSampleCount(r.cfg.SampleCount)

	shadowPass, err := render_pass.NewShadowPass(r.device, r.cfg.ShadowMapSize)
	if err != nil {
		return r.reportSerious([]SeriousError{{ModuleID: BootstrapID, Err: err}})
	}
	r.shadowPass = shadowPass
	r.mainPass = render_pass.NewMainPass(r.destination, shadowPass.ShadowMap())
	r.ctx.Register(module.NewSharedModule(r.light, r.cfg.UseDepth))
	r.queue = queue

	if err := r.InitializeModules(); err != nil {
		common.Logger().Error("shared module failed to initialize", "error", err)
	}
	r.setState(StateInitialized)
	return nil
}

func (r *renderer) Run() {
	switch r.State() {
	case StateInitialized, StatePaused:
		r.setState(StateRunning)
	}
}

func (r *renderer) Pause() {
	if r.State() == StateRunning {
		r.setState(StatePaused)
	}
}

func (r *renderer) Update() {
	if r.State() != StateRunning || r.queue == nil {
		return
	}

	// Unbounded wait: a stalled frame is preferred over a dropped one.
	if err := r.inFlight.Acquire(context.Background(), 1); err != nil {
		return
	}
	r.acquired()

	frameIndex := r.ctx.AdvanceFrame()
	for _, m := range r.ctx.Modules() {
		m.UpdateBufferState(frameIndex)
	}

	frame := r.session.CurrentFrame()
	if frame == nil {
		common.Logger().Debug("no tracking frame, skipping", "frame", r.ctx.Frames())
		r.release()
		return
	}

	r.mu.Lock()
	r.updateEntities(frame)
	r.removePendingModules()
	r.instantiateModules(frame)
	if r.needsInitialization() {
		if err := r.InitializeModules(); err != nil {
			common.Logger().Warn("modules failed to initialize", "frame", r.ctx.Frames(), "error", err)
		}
		for _, m := range r.ctx.Modules() {
			m.UpdateBufferState(frameIndex)
		}
	}

	participating := r.participating()
	state := &module.FrameState{
		FrameIndex: frameIndex,
		Frame:      frame,
		Entities:   r.entities,
		LODEnabled: r.cfg.LODEnabled,
	}
	for _, m := range participating {
		m.UpdateBuffers(state)
	}
	r.mu.Unlock()

	if r.destination.CurrentRenderPassDescriptor() == nil {
		common.Logger().Debug("no render destination descriptor, skipping", "frame", r.ctx.Frames())
		for _, m := range participating {
			m.FrameEncodingComplete()
		}
		r.release()
		return
	}

	cb, err := r.queue.MakeCommandBuffer(fmt.Sprintf("frame-%d", r.ctx.Frames()))
	if err != nil {
		common.Logger().Warn("failed to create command buffer", "frame", r.ctx.Frames(), "error", err)
		r.release()
		return
	}
	cb.AddCompletedHandler(func(gpu.CommandBuffer) {
		for _, m := range participating {
			m.FrameEncodingComplete()
		}
		r.release()
	})

	var shared module.SharedBindings
	if s := r.ctx.Shared(); s != nil && s.State() == module.StateParticipating {
		shared = s
	}

	if err := encodePass(cb, r.shadowPass, participating, shared); err != nil {
		common.Logger().Debug("shadow pass skipped", "frame", r.ctx.Frames(), "error", err)
	}
	if err := encodePass(cb, r.mainPass, participating, shared); err != nil {
		common.Logger().Warn("main pass failed", "frame", r.ctx.Frames(), "error", err)
		cb.Commit()
		return
	}

	if drawable := r.destination.CurrentDrawable(); drawable != nil {
		cb.Present(drawable)
	}
	cb.Commit()

	if r.profiler != nil {
		r.profiler.Tick(r.InFlight())
	}
}

// encodePass draws every module into pass on its own encoder.
func encodePass(cb gpu.CommandBuffer, pass render_pass.RenderPass, modules []module.RenderModule, shared module.SharedBindings) error {
	if err := pass.Begin(cb); err != nil {
		return err
	}
	for _, m := range modules {
		m.Draw(pass, shared)
	}
	pass.End()
	return nil
}

func (r *renderer) acquired() {
	n := r.inUse.Add(1)
	for {
		peak := r.peakInUse.Load()
		if n <= peak || r.peakInUse.CompareAndSwap(peak, n) {
			return
		}
	}
}

func (r *renderer) release() {
	r.inUse.Add(-1)
	r.inFlight.Release(1)
}

func (r *renderer) InFlight() int {
	return int(r.inUse.Load())
}

// updateEntities applies the tracking snapshot to the registry. Callers hold mu.
func (r *renderer) updateEntities(frame *tracking.Frame) {
	r.entities.SyncAnchors(frame)
	r.entities.UpdateGazeTargets(r.session)
	r.entities.UpdateTransforms(frame.Camera.Transform)

	probeChanged := r.probesDirty
	for _, changes := range [][]tracking.Anchor{frame.Added, frame.Updated} {
		for _, a := range changes {
			if a.Kind == tracking.AnchorKindEnvironmentProbe {
				probeChanged = true
			}
		}
	}
	if probeChanged {
		r.entities.UpdateProbeAssociations(frame.Anchors)
		r.probesDirty = false
	}
	r.entities.UpdateHeading(frame.Camera.Position())
}

// meshModule returns the mesh module registered under id, registering a new one when absent.
func (r *renderer) meshModule(id string, ctor func(...module.MeshModuleOption) module.MeshModule) module.MeshModule {
	if h, ok := r.ctx.Lookup(id); ok {
		if m, ok := r.ctx.Module(h); ok {
			if mesh, ok := m.(module.MeshModule); ok {
				return mesh
			}
		}
	}
	m := ctor(module.WithMaxInstances(r.cfg.MaxInstances))
	r.register(m)
	return m
}

func (r *renderer) register(m module.RenderModule) {
	r.ctx.Register(m)
	common.Logger().Info("module registered", "module", m.ID(), "layer", int(m.RenderLayer()))
}

func (r *renderer) registered(id string) bool {
	_, ok := r.ctx.Lookup(id)
	return ok
}

// instantiateModules registers the modules whose content just appeared and requests every
// geometry placed entities draw. Callers hold mu.
func (r *renderer) instantiateModules(frame *tracking.Frame) {
	if r.entities.Count(entity.KindAnchor) > 0 {
		anchors := r.meshModule(module.IDAnchors, module.NewAnchorsModule)
		r.entities.Each(entity.KindAnchor, func(_ entity.Handle, e *entity.Entity) {
			anchors.RequestGeometry(e.Geometry)
		})
	}
	if r.entities.Count(entity.KindTracker)+r.entities.Count(entity.KindGazeTarget) > 0 {
		unanchored := r.meshModule(module.IDUnanchored, module.NewUnanchoredModule)
		for _, kind := range []entity.Kind{entity.KindTracker, entity.KindGazeTarget} {
			r.entities.Each(kind, func(_ entity.Handle, e *entity.Entity) {
				unanchored.RequestGeometry(e.Geometry)
			})
		}
	}
	if r.entities.Count(entity.KindPathPoint) > 0 {
		r.meshModule(module.IDPaths, module.NewPathsModule)
	}
	if r.cfg.ShowSurfaces && hasPlane(frame) {
		r.meshModule(module.IDSurfaces, module.NewSurfacesModule)
	}
	if r.cfg.ShowTrackingPoints && len(frame.FeaturePoints) > 0 && !r.registered(module.IDTrackingPoints) {
		r.register(module.NewTrackingPointsModule(r.cfg.MaxTrackingPoints, 0))
	}
	if frame.CapturedImageY != nil && !r.registered(module.IDCameraBackground) {
		r.register(module.NewCameraBackgroundModule())
	}
}

func hasPlane(frame *tracking.Frame) bool {
	for _, a := range frame.Anchors {
		if a.Kind == tracking.AnchorKindPlane && a.Plane != nil {
			return true
		}
	}
	return false
}

// removePendingModules drops the modules queued by RemoveModule. Callers hold mu.
func (r *renderer) removePendingModules() {
	for _, id := range r.pendingRemovals {
		h, ok := r.ctx.Lookup(id)
		if !ok {
			continue
		}
		r.shadowPass.RemoveModuleGroups(id)
		r.mainPass.RemoveModuleGroups(id)
		r.ctx.Remove(h)
		common.Logger().Info("module removed", "module", id)
	}
	r.pendingRemovals = nil
}

func (r *renderer) needsInitialization() bool {
	for _, m := range r.ctx.Modules() {
		if s := m.State(); s != module.StateParticipating && s != module.StateFailed {
			return true
		}
	}
	return false
}

func (r *renderer) participating() []module.RenderModule {
	var out []module.RenderModule
	for _, m := range r.ctx.Modules() {
		if m.State() == module.StateParticipating {
			out = append(out, m)
		}
	}
	return out
}

func (r *renderer) InitializeModules() error {
	if r.queue == nil && r.shadowPass == nil {
		return nil
	}
	var serious []SeriousError
	fail := func(m module.RenderModule, err error) {
		m.SetState(module.StateFailed)
		serious = append(serious, SeriousError{ModuleID: m.ID(), Err: err})
	}

	var pending []module.RenderModule
	for _, m := range r.ctx.Modules() {
		switch m.State() {
		case module.StateParticipating, module.StateFailed:
			continue
		case module.StateRegistered:
			if err := m.InitializeBuffers(r.device, r.cfg.MaxBuffersInFlight); err != nil {
				fail(m, fmt.Errorf("failed to initialize buffers: %w", err))
				continue
			}
			m.SetState(module.StateBuffersInitialized)
		}
		pending = append(pending, m)
	}
	if len(pending) == 0 {
		return nil
	}

	// Loads run on the pool; the WaitGroup is the barrier before any pipeline is built.
	assets := module.Assets{Device: r.device, Provider: r.provider, Textures: r.textures}
	loadErrs := make([]error, len(pending))
	var wg sync.WaitGroup
	for i, m := range pending {
		if m.State() != module.StateBuffersInitialized {
			continue
		}
		wg.Add(1)
		r.pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				loadErrs[i] = m.LoadAssets(r.loadCtx, assets)
				return nil, loadErrs[i]
			},
		})
	}
	wg.Wait()

	for i, m := range pending {
		if loadErrs[i] != nil {
			fail(m, fmt.Errorf("failed to load assets: %w", loadErrs[i]))
			continue
		}
		if m.State() == module.StateBuffersInitialized {
			m.SetState(module.StateAssetsLoaded)
		}
		h, _ := r.ctx.Lookup(m.ID())
		var pipelineErr error
		for _, pass := range []render_pass.RenderPass{r.shadowPass, r.mainPass} {
			groups, err := m.LoadPipeline(r.device, pass)
			if err != nil {
				pipelineErr = fmt.Errorf("failed to load %s pipeline: %w", pass.Label(), err)
				break
			}
			r.ctx.SetGroups(h, pass.Label(), groups)
		}
		if pipelineErr != nil {
			r.ctx.SetGroups(h, r.shadowPass.Label(), nil)
			r.ctx.SetGroups(h, r.mainPass.Label(), nil)
			fail(m, pipelineErr)
			continue
		}
		m.SetState(module.StatePipelineLoaded)
		m.SetState(module.StateParticipating)
		common.Logger().Debug("module participating", "module", m.ID())
	}

	r.assignGroups()

	if len(serious) == 0 {
		return nil
	}
	return r.reportSerious(serious)
}

// reportSerious logs one batch of serious errors, hands it to every observer and returns the
// joined error.
func (r *renderer) reportSerious(serious []SeriousError) error {
	err := JoinSeriousErrors(serious)
	common.Logger().Error("serious errors during initialization", "count", len(serious), "error", err)
	for _, o := range r.observerList() {
		o.SeriousErrors(serious)
	}
	return err
}

// assignGroups rebuilds both passes' group lists from the participating modules in layer order.
func (r *renderer) assignGroups() {
	modules := r.ctx.Modules()
	for _, pass := range []render_pass.RenderPass{r.shadowPass, r.mainPass} {
		shadow := pass == r.shadowPass
		for _, m := range modules {
			pass.RemoveModuleGroups(m.ID())
		}
		for _, m := range modules {
			if m.State() != module.StateParticipating {
				continue
			}
			h, _ := r.ctx.Lookup(m.ID())
			for _, g := range r.ctx.Groups(h, pass.Label()) {
				if shadow && !g.CastsShadows {
					continue
				}
				pass.AddGroups(g)
			}
		}
	}
}

func (r *renderer) Module(id string) (module.RenderModule, bool) {
	h, ok := r.ctx.Lookup(id)
	if !ok {
		return nil, false
	}
	return r.ctx.Module(h)
}

func (r *renderer) RemoveModule(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pendingRemovals = append(r.pendingRemovals, id)
}

func (r *renderer) AddObserver(o Observer) {
	if o == nil {
		return
	}
	r.observersMu.Lock()
	defer r.observersMu.Unlock()
	r.observers = append(r.observers, o)
}

func (r *renderer) observerList() []Observer {
	r.observersMu.RLock()
	defer r.observersMu.RUnlock()
	return append([]Observer(nil), r.observers...)
}

func (r *renderer) SessionInterrupted() {
	common.Logger().Info("tracking session interrupted")
	for _, o := range r.observerList() {
		o.SessionInterrupted()
	}
}

func (r *renderer) SessionInterruptionEnded() {
	common.Logger().Info("tracking session interruption ended")
	for _, o := range r.observerList() {
		o.SessionInterruptionEnded()
	}
}

func (r *renderer) AddEntity(e entity.Entity) entity.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.probesDirty = true
	return r.entities.Add(e)
}

func (r *renderer) AddAnchor(anchorID uuid.UUID, geometry asset.Handle, transform mgl32.Mat4) entity.Handle {
	e := entity.New(entity.KindAnchor, geometry, transform)
	e.AnchorID = anchorID
	return r.AddEntity(e)
}

func (r *renderer) AddTracker(geometry asset.Handle, location mgl32.Mat4, followCamera bool) entity.Handle {
	e := entity.New(entity.KindTracker, geometry, location)
	e.FollowCamera = followCamera
	return r.AddEntity(e)
}

func (r *renderer) AddGazeTarget(geometry asset.Handle) entity.Handle {
	e := entity.New(entity.KindGazeTarget, geometry, mgl32.Ident4())
	e.Heading = entity.RelativeHeading()
	return r.AddEntity(e)
}

func (r *renderer) AddPath(points []mgl32.Vec3) (uuid.UUID, []entity.Handle) {
	id := uuid.New()
	handles := make([]entity.Handle, 0, len(points))
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range points {
		e := entity.New(entity.KindPathPoint, asset.HandleCylinder, mgl32.Translate3D(p.X(), p.Y(), p.Z()))
		e.PathID = id
		handles = append(handles, r.entities.Add(e))
	}
	r.probesDirty = true
	return id, handles
}

func (r *renderer) WithEntity(h entity.Handle, fn func(e *entity.Entity)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entities.Get(h)
	if !ok {
		return false
	}
	fn(e)
	return true
}

func (r *renderer) RemoveEntity(h entity.Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entities.Remove(h)
}

func (r *renderer) MoveAnchor(h entity.Handle, target mgl32.Mat4) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.probesDirty = true
	return r.entities.MoveAnchor(h, target)
}

func (r *renderer) Close() {
	r.cancelLoads()
	n := int64(r.cfg.MaxBuffersInFlight)
	if err := r.inFlight.Acquire(context.Background(), n); err != nil {
		return
	}
	r.inFlight.Release(n)
}
