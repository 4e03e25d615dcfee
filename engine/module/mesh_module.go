package module

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxy-ar/common"
	"github.com/Carmen-Shannon/oxy-ar/engine/asset"
	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ar/engine/model"
	"github.com/Carmen-Shannon/oxy-ar/engine/pass_buffer"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/draw_call"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/render_pass"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
)

// DefaultMaxInstances is the per-frame instance capacity of a mesh module.
const DefaultMaxInstances = 256

// Instance is one mesh placement a mesh module draws this frame.
type Instance struct {
	Geometry asset.Handle

	// Uniforms carries the final model matrix with the heading and location it was built from.
	Uniforms model.GPUAnchorInstanceUniforms
	Effects  model.GPUAnchorEffectsUniforms

	CastsShadows bool

	// Probe is the environment texture lighting the instance, nil for the global environment.
	Probe gpu.Texture
}

// collectFunc gathers the instances a mesh module draws for one frame.
type collectFunc func(frame *FrameState) []Instance

// geometryFrame is the per-frame draw range of one geometry in the instance buffers.
type geometryFrame struct {
	first   int
	count   int
	casters int
	level   material.QualityLevel
	probe   gpu.Texture
}

// meshModule draws instanced indexed geometry. Every geometry it has been asked for becomes
// one draw call group, and every frame its instances are bucketed per geometry into a
// contiguous range of the instance buffers.
type meshModule struct {
	base

	mu           sync.Mutex
	wanted       []asset.Handle
	models       map[asset.Handle]model.Model
	library      gpu.Library
	drawCalls    map[string]map[asset.Handle]draw_call.DrawCall
	maxInstances int
	castsShadows bool
	cullMode     gpu.CullMode
	collect      collectFunc
	pathWidth    float32

	instances pass_buffer.PassBuffer[model.GPUAnchorInstanceUniforms]
	effects   pass_buffer.PassBuffer[model.GPUAnchorEffectsUniforms]

	frame      map[asset.Handle]geometryFrame
	overflowed bool
}

// MeshModule is a render module drawing instanced meshes.
type MeshModule interface {
	RenderModule

	// RequestGeometry adds a geometry the module will draw. A module past buffer
	// initialization returns to it so the next initialization batch loads the geometry.
	//
	// Parameters:
	//   - handle: the geometry
	//
	// Returns:
	//   - bool: true if the geometry was not already requested
	RequestGeometry(handle asset.Handle) bool

	// Geometries returns the requested geometries in group order.
	Geometries() []asset.Handle

	// Loaded reports whether the geometry has been uploaded.
	Loaded(handle asset.Handle) bool

	// DrawnInstances returns how many instances of handle were written for the current frame.
	DrawnInstances(handle asset.Handle) int
}

var _ MeshModule = &meshModule{}

func newMeshModule(id string, layer RenderLayer, collect collectFunc, options ...MeshModuleOption) *meshModule {
	m := &meshModule{
		models:       make(map[asset.Handle]model.Model),
		drawCalls:    make(map[string]map[asset.Handle]draw_call.DrawCall),
		maxInstances: DefaultMaxInstances,
		castsShadows: true,
		cullMode:     gpu.CullModeBack,
		collect:      collect,
		pathWidth:    DefaultPathWidth,
		frame:        make(map[asset.Handle]geometryFrame),
	}
	m.init(id, layer)
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *meshModule) RequestGeometry(handle asset.Handle) bool {
	m.mu.Lock()
	for _, h := range m.wanted {
		if h == handle {
			m.mu.Unlock()
			return false
		}
	}
	m.wanted = append(m.wanted, handle)
	m.mu.Unlock()
	m.regress()
	return true
}

func (m *meshModule) Geometries() []asset.Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]asset.Handle, len(m.wanted))
	copy(out, m.wanted)
	return out
}

func (m *meshModule) Loaded(handle asset.Handle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.models[handle]
	return ok
}

func (m *meshModule) DrawnInstances(handle asset.Handle) int {
	return m.frame[handle].count
}

func (m *meshModule) InitializeBuffers(device gpu.Device, maxInFlight int) error {
	if device == nil {
		return ErrNoDevice
	}
	if m.instances == nil {
		m.instances = pass_buffer.NewPassBuffer[model.GPUAnchorInstanceUniforms](m.maxInstances, maxInFlight,
			pass_buffer.WithLabel(m.id+"-instances"))
		if err := m.instances.Initialize(device, gpu.StorageModeShared); err != nil {
			m.instances = nil
			return err
		}
	}
	if m.effects == nil {
		m.effects = pass_buffer.NewPassBuffer[model.GPUAnchorEffectsUniforms](m.maxInstances, maxInFlight,
			pass_buffer.WithLabel(m.id+"-effects"))
		if err := m.effects.Initialize(device, gpu.StorageModeShared); err != nil {
			m.effects = nil
			return err
		}
	}
	return nil
}

func (m *meshModule) LoadAssets(ctx context.Context, assets Assets) error {
	if assets.Device == nil {
		return ErrNoDevice
	}
	if assets.Provider == nil {
		return fmt.Errorf("module %s: no asset provider", m.id)
	}
	var errs []error
	for _, handle := range m.Geometries() {
		if m.Loaded(handle) {
			continue
		}
		data, err := asset.Await(ctx, assets.Provider, handle)
		if err != nil {
			errs = append(errs, fmt.Errorf("module %s: geometry %q: %w", m.id, handle, err))
			continue
		}
		mdl, err := asset.Upload(assets.Device, data, assets.Textures)
		if err != nil {
			errs = append(errs, fmt.Errorf("module %s: geometry %q: %w", m.id, handle, err))
			continue
		}
		m.mu.Lock()
		m.models[handle] = mdl
		m.mu.Unlock()
		common.Logger().Debug("geometry loaded", "module", m.id, "geometry", string(handle),
			"vertices", mdl.VertexCount(), "submeshes", len(mdl.Submeshes()))
	}
	return errors.Join(errs...)
}

func (m *meshModule) LoadPipeline(device gpu.Device, pass render_pass.RenderPass) ([]*draw_call.Group, error) {
	if device == nil {
		return nil, ErrNoDevice
	}
	shadow := isShadowPass(pass)
	if shadow && !m.castsShadows {
		return nil, nil
	}
	if m.library == nil {
		lib, err := compileLibrary(device, m.id, meshShaderSource)
		if err != nil {
			return nil, err
		}
		m.library = lib
	}
	vertexName := "vs_main"
	if shadow {
		vertexName = "vs_shadow"
	}

	cache, ok := m.drawCalls[pass.Label()]
	if !ok {
		cache = make(map[asset.Handle]draw_call.DrawCall)
		m.drawCalls[pass.Label()] = cache
	}

	var groups []*draw_call.Group
	for i, handle := range m.Geometries() {
		m.mu.Lock()
		mdl, loaded := m.models[handle]
		m.mu.Unlock()
		if !loaded {
			continue
		}
		dc, ok := cache[handle]
		if !ok {
			opts := []draw_call.DrawCallBuilderOption{
				draw_call.WithLabel(fmt.Sprintf("%s/%s", m.id, handle)),
				draw_call.WithGeometry(mdl),
				draw_call.WithCullMode(m.cullMode),
			}
			if bias := pass.DepthBias(); bias != nil {
				opts = append(opts, draw_call.WithDepthBias(*bias))
			}
			var err error
			dc, err = draw_call.NewWithFunctions(device, m.library, vertexName, "fs_main", pass,
				model.VertexDescriptor(), mdl.PresentSlots(), material.NumQualityLevels, opts...)
			if err != nil {
				return nil, fmt.Errorf("module %s: %w", m.id, err)
			}
			cache[handle] = dc
		}
		g := draw_call.NewGroup(fmt.Sprintf("%s/%s", m.id, handle), m.id, i)
		g.CastsShadows = m.castsShadows
		g.Append(dc)
		groups = append(groups, g)
	}
	return groups, nil
}

func (m *meshModule) UpdateBufferState(frameIndex int) {
	if m.instances != nil {
		m.instances.Update(frameIndex)
	}
	if m.effects != nil {
		m.effects.Update(frameIndex)
	}
}

func (m *meshModule) UpdateBuffers(frame *FrameState) {
	clear(m.frame)
	if m.instances == nil || m.effects == nil || m.collect == nil {
		return
	}

	frustum := common.FrustumFromMatrix(frame.ViewProjection())
	cameraPos := frame.Frame.Camera.Position()

	type bucket struct {
		casters []Instance
		others  []Instance
		nearest float32
		probe   gpu.Texture
	}
	buckets := make(map[asset.Handle]*bucket)
	for _, inst := range m.collect(frame) {
		m.mu.Lock()
		mdl, ok := m.models[inst.Geometry]
		m.mu.Unlock()
		if !ok {
			continue
		}
		world := mgl32.Mat4(inst.Uniforms.WorldTransform).Mul4(mgl32.Mat4(inst.Effects.Scale))
		center := common.Translation(world)
		radius := mdl.BoundingRadius() * maxScale(world)
		if !frustum.IntersectsSphere(center, radius) {
			continue
		}
		b, ok := buckets[inst.Geometry]
		if !ok {
			b = &bucket{nearest: -1}
			buckets[inst.Geometry] = b
		}
		if d := common.Distance(center, cameraPos); b.nearest < 0 || d < b.nearest {
			b.nearest = d
		}
		if b.probe == nil {
			b.probe = inst.Probe
		}
		if inst.CastsShadows {
			b.casters = append(b.casters, inst)
		} else {
			b.others = append(b.others, inst)
		}
	}

	handles := make([]asset.Handle, 0, len(buckets))
	for h := range buckets {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })

	next := 0
	dropped := 0
	for _, h := range handles {
		b := buckets[h]
		level := draw_call.QualityLevelForDistance(b.nearest, frame.LODEnabled)
		weights := material.MapWeights(level)
		gf := geometryFrame{first: next, level: level, probe: b.probe}
		for i, list := range [2][]Instance{b.casters, b.others} {
			for _, inst := range list {
				if next >= m.maxInstances {
					dropped++
					continue
				}
				u := inst.Uniforms
				u.HasGeometry = 1
				u.MapWeights = weights
				m.instances.Write(next, u)
				m.effects.Write(next, inst.Effects)
				next++
				gf.count++
				if i == 0 {
					gf.casters++
				}
			}
		}
		if gf.count > 0 {
			m.frame[h] = gf
		}
	}
	if dropped > 0 && !m.overflowed {
		m.overflowed = true
		common.Logger().Warn("instance capacity exceeded", "module", m.id, "capacity", m.maxInstances, "dropped", dropped)
	}
	m.instances.Flush()
	m.effects.Flush()
}

func (m *meshModule) Draw(pass render_pass.RenderPass, shared SharedBindings) {
	enc := pass.Encoder()
	if enc == nil || m.instances == nil || m.effects == nil || len(m.frame) == 0 {
		return
	}
	shadow := isShadowPass(pass)
	if shadow && !m.castsShadows {
		return
	}

	enc.PushDebugGroup(m.id)
	defer enc.PopDebugGroup()

	if shared != nil {
		shared.BindShared(pass)
	}
	m.instances.BindVertex(enc, int(shader.BufferIndexAnchorInstanceUniforms))
	m.instances.BindFragment(enc, int(shader.BufferIndexAnchorInstanceUniforms))
	m.effects.BindVertex(enc, int(shader.BufferIndexAnchorEffectsUniforms))
	m.effects.BindFragment(enc, int(shader.BufferIndexAnchorEffectsUniforms))

	wanted := m.Geometries()
	bindMaterials := pass.Uses().Has(render_pass.UsesLighting)
	for _, g := range pass.Groups() {
		if g.ModuleID != m.id || g.Index < 0 || g.Index >= len(wanted) {
			continue
		}
		gf, ok := m.frame[wanted[g.Index]]
		if !ok {
			continue
		}
		count := gf.count
		if shadow {
			count = gf.casters
		}
		if count == 0 {
			continue
		}
		index := GPUDrawCallGroupIndex{GroupIndex: uint32(g.Index), FirstInstance: uint32(gf.first)}
		enc.SetVertexBytes(index.Marshal(), int(shader.BufferIndexDrawCallGroupIndex))
		enc.SetFragmentBytes(index.Marshal(), int(shader.BufferIndexDrawCallGroupIndex))
		if !shadow && gf.probe != nil {
			enc.SetFragmentTexture(gf.probe, int(shader.TextureIndexEnvironmentMap))
		}
		for _, dc := range g.DrawCalls() {
			dc.PrepareDrawCall(enc, gf.level)
			dc.EncodeDraws(enc, gf.level, count, bindMaterials)
		}
	}
}

// maxScale returns the largest axis scale of an affine transform.
func maxScale(m mgl32.Mat4) float32 {
	s := m.Col(0).Vec3().Len()
	if y := m.Col(1).Vec3().Len(); y > s {
		s = y
	}
	if z := m.Col(2).Vec3().Len(); z > s {
		s = z
	}
	return s
}
