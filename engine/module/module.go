// Package module holds the render modules. Each module owns one category of renderable
// content, the pass buffers that feed it and the draw call groups that draw it. The renderer
// drives every module through the same lifecycle and calls the same per-frame entry points,
// so the set of content types is closed behind the RenderModule interface.
package module

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-ar/engine/asset"
	"github.com/Carmen-Shannon/oxy-ar/engine/camera"
	"github.com/Carmen-Shannon/oxy-ar/engine/entity"
	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ar/engine/light"
	"github.com/Carmen-Shannon/oxy-ar/engine/model"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/draw_call"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/render_pass"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-ar/engine/tracking"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrNoDevice is returned by lifecycle steps that allocate when no device was supplied.
var ErrNoDevice = errors.New("module: no device")

// State is the lifecycle position of a module.
type State int

const (
	StateRegistered State = iota
	StateBuffersInitialized
	StateAssetsLoaded
	StatePipelineLoaded
	StateParticipating

	// StateFailed marks a module whose assets or pipeline could not be created. It never draws.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateRegistered:
		return "registered"
	case StateBuffersInitialized:
		return "buffers-initialized"
	case StateAssetsLoaded:
		return "assets-loaded"
	case StatePipelineLoaded:
		return "pipeline-loaded"
	case StateParticipating:
		return "participating"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// RenderLayer orders modules within a pass. Lower layers draw first.
type RenderLayer int

const (
	RenderLayerShared           RenderLayer = -1
	RenderLayerCameraBackground RenderLayer = 0
	RenderLayerSurfaces         RenderLayer = 10
	RenderLayerAnchors          RenderLayer = 20
	RenderLayerPaths            RenderLayer = 30
	RenderLayerUnanchored       RenderLayer = 40
	RenderLayerTrackingPoints   RenderLayer = 50
)

// Module identifiers.
const (
	IDShared           = "shared"
	IDCameraBackground = "camera-background"
	IDAnchors          = "anchors"
	IDUnanchored       = "unanchored"
	IDPaths            = "paths"
	IDSurfaces         = "surfaces"
	IDTrackingPoints   = "tracking-points"
)

// FrameState is the world state a module reads while writing its buffers for one frame.
type FrameState struct {
	// FrameIndex is the ring slot being written.
	FrameIndex int

	// Frame is the tracking snapshot; never nil.
	Frame *tracking.Frame

	// Entities are the placed entities with transforms already updated for Frame.
	Entities *entity.Registry

	// LODEnabled selects quality levels by distance; when false everything draws at high quality.
	LODEnabled bool
}

// ViewProjection returns the camera view-projection of the frame.
func (f *FrameState) ViewProjection() mgl32.Mat4 {
	cam := f.Frame.Camera
	return cam.Projection.Mul4(cam.Transform.Inv())
}

// Assets are the collaborators a module loads geometry through.
type Assets struct {
	Device   gpu.Device
	Provider asset.Provider

	// Textures may be nil, in which case materials keep their uniform values.
	Textures asset.TextureLoader
}

// SharedBindings binds the cross-module buffers owned by the shared module.
type SharedBindings interface {
	// BindShared binds the shared camera and environment records, and the shadow map, that
	// pass uses on its open encoder.
	//
	// Parameters:
	//   - pass: the pass being encoded
	BindShared(pass render_pass.RenderPass)
}

// RenderModule is one owner of renderable content.
type RenderModule interface {
	// ID returns the module identifier, unique within a renderer.
	ID() string

	// RenderLayer returns the draw order of the module.
	RenderLayer() RenderLayer

	// State returns the lifecycle position of the module.
	State() State

	// SetState moves the module to state. Only the renderer calls it.
	SetState(state State)

	// InitializeBuffers allocates the module's pass buffers with one slot per in-flight frame.
	// Buffers that already exist are kept.
	//
	// Parameters:
	//   - device: the device to allocate from
	//   - maxInFlight: the number of frame slots
	//
	// Returns:
	//   - error: an error if an allocation fails
	InitializeBuffers(device gpu.Device, maxInFlight int) error

	// LoadAssets loads and uploads every geometry the module needs that is not already loaded.
	// It may run on a worker goroutine.
	//
	// Parameters:
	//   - ctx: bounds the loads
	//   - assets: the asset collaborators
	//
	// Returns:
	//   - error: the joined load failures
	LoadAssets(ctx context.Context, assets Assets) error

	// LoadPipeline builds the module's draw call groups for pass. Draw calls built by earlier
	// calls are reused.
	//
	// Parameters:
	//   - device: the device to create pipeline states on
	//   - pass: the pass the groups will be drawn in
	//
	// Returns:
	//   - []*draw_call.Group: the groups in draw order, empty when the module does not draw in pass
	//   - error: a pipeline or library creation failure
	LoadPipeline(device gpu.Device, pass render_pass.RenderPass) ([]*draw_call.Group, error)

	// UpdateBufferState points every pass buffer at the frame slot.
	//
	// Parameters:
	//   - frameIndex: the ring slot
	UpdateBufferState(frameIndex int)

	// UpdateBuffers writes this frame's records.
	//
	// Parameters:
	//   - frame: the world state of the frame
	UpdateBuffers(frame *FrameState)

	// Draw encodes the module's groups assigned to pass.
	//
	// Parameters:
	//   - pass: the pass with an open encoder
	//   - shared: the shared bindings, nil when the shared module is unavailable
	Draw(pass render_pass.RenderPass, shared SharedBindings)

	// FrameEncodingComplete is called from the command buffer completion handler once the GPU
	// has consumed a frame.
	FrameEncodingComplete()
}

// base carries the identity and lifecycle bookkeeping every module shares.
type base struct {
	id        string
	layer     RenderLayer
	state     atomic.Int32
	completed atomic.Int64
}

func (b *base) init(id string, layer RenderLayer) {
	b.id = id
	b.layer = layer
}

func (b *base) ID() string               { return b.id }
func (b *base) RenderLayer() RenderLayer { return b.layer }
func (b *base) State() State             { return State(b.state.Load()) }
func (b *base) SetState(state State)     { b.state.Store(int32(state)) }

// regress moves a module that has progressed past BuffersInitialized back to it, so the next
// initialization batch loads what is missing without reallocating buffers.
func (b *base) regress() {
	for {
		cur := b.state.Load()
		if State(cur) <= StateBuffersInitialized || State(cur) == StateFailed {
			return
		}
		if b.state.CompareAndSwap(cur, int32(StateBuffersInitialized)) {
			return
		}
	}
}

func (b *base) FrameEncodingComplete() {
	b.completed.Add(1)
}

// CompletedFrames returns how many frames the GPU has finished since the module was created.
func (b *base) CompletedFrames() int64 {
	return b.completed.Load()
}

// newPreProcessor registers every GPU record the module shaders include.
func newPreProcessor() shader.PreProcessor {
	return shader.NewPreProcessor(
		shader.WithStruct("mesh_vertex", model.GPUVertexSource, "MeshVertex"),
		shader.WithStruct("shared_uniforms", camera.GPUSharedUniformsSource, "SharedUniforms"),
		shader.WithStruct("environment_uniforms", light.GPUEnvironmentUniformsSource, "EnvironmentUniforms"),
		shader.WithStruct("anchor_instance_uniforms", model.GPUAnchorInstanceUniformsSource, "AnchorInstanceUniforms"),
		shader.WithStruct("anchor_effects_uniforms", model.GPUAnchorEffectsUniformsSource, "AnchorEffectsUniforms"),
		shader.WithStruct("material_uniforms", material.GPUMaterialUniformsSource, "MaterialUniforms"),
		shader.WithStruct("draw_call_group_index", GPUDrawCallGroupIndexSource, "DrawCallGroupIndex"),
		shader.WithStruct("tracking_point", GPUTrackingPointSource, "TrackingPoint"),
	)
}

// ProcessShader expands the annotations of a module shader.
//
// Parameters:
//   - source: the annotated WGSL
//
// Returns:
//   - string: plain WGSL
//   - *gpu.FunctionConstantValues: the constants the shader declares, all false
//   - error: an annotation error
func ProcessShader(source string) (string, *gpu.FunctionConstantValues, error) {
	pre := newPreProcessor()
	processed, err := pre.Process(source)
	if err != nil {
		return "", nil, err
	}
	return processed, pre.DefaultConstants(), nil
}

func compileLibrary(device gpu.Device, label, source string) (gpu.Library, error) {
	processed, defaults, err := ProcessShader(source)
	if err != nil {
		return nil, fmt.Errorf("failed to process %s shader: %w", label, err)
	}
	lib, err := device.MakeLibrary(label, processed, defaults)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s library: %w", label, err)
	}
	return lib, nil
}

// isShadowPass reports whether pass renders depth only.
func isShadowPass(pass render_pass.RenderPass) bool {
	return !pass.Uses().Has(render_pass.UsesLighting)
}
