package draw_call

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ar/engine/model"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/material"
)

// PipelineTemplate supplies the pass-level pipeline and depth-stencil baselines a DrawCall
// merges its own shader stages into. A render pass implements it.
type PipelineTemplate interface {
	// Label returns the pass name used to label built pipeline states.
	Label() string

	// RenderPipelineDescriptor merges per-draw-call stages into the pass template.
	//
	// Parameters:
	//   - vertexDescriptor: the draw call's vertex layout
	//   - vertexFunction: the draw call's vertex function
	//   - fragmentFunction: the draw call's fragment function
	//
	// Returns:
	//   - gpu.RenderPipelineDescriptor: the merged descriptor
	RenderPipelineDescriptor(vertexDescriptor *gpu.VertexDescriptor, vertexFunction, fragmentFunction gpu.Function) gpu.RenderPipelineDescriptor

	// DepthStencilDescriptor resolves the pass's depth state against a per-call fallback compare function.
	//
	// Parameters:
	//   - fallback: the compare function used when the pass has no override
	//
	// Returns:
	//   - gpu.DepthStencilDescriptor: the resolved descriptor
	DepthStencilDescriptor(fallback gpu.CompareFunction) gpu.DepthStencilDescriptor
}

// drawCall is the implementation of the DrawCall interface.
type drawCall struct {
	label             string
	pipelineStates    []gpu.RenderPipelineState
	depthStencilState gpu.DepthStencilState
	depthCompare      gpu.CompareFunction
	cullMode          gpu.CullMode
	depthBias         *gpu.DepthBias
	geometry          model.Model
}

// DrawCall is one bound pipeline, state and geometry ready to be drawn. It holds one pipeline
// state per quality level, index 0 being the highest quality, and is immutable after
// construction.
type DrawCall interface {
	// Label returns the debug label of the draw call.
	Label() string

	// QualityLevels returns the number of pipeline state variants.
	//
	// Returns:
	//   - int: the variant count, always at least 1
	QualityLevels() int

	// PipelineState returns the variant for a quality level.
	//
	// Parameters:
	//   - level: the quality level
	//
	// Returns:
	//   - gpu.RenderPipelineState: the pipeline state, nil when level is out of range
	PipelineState(level material.QualityLevel) gpu.RenderPipelineState

	// DepthStencilState returns the depth-stencil state bound with the draw call.
	DepthStencilState() gpu.DepthStencilState

	// CullMode returns the face culling mode.
	CullMode() gpu.CullMode

	// DepthBias returns the depth bias triple, or nil when none is applied.
	DepthBias() *gpu.DepthBias

	// Geometry returns the model the draw call renders, or nil for geometry-less draws.
	Geometry() model.Model

	// PrepareDrawCall binds the pipeline state of the given level, the depth-stencil state, the
	// cull mode and the depth bias into encoder. Requesting a level outside the built variants is
	// a programming error and panics.
	//
	// Parameters:
	//   - encoder: the active encoder of the pass being drawn
	//   - level: the quality level
	PrepareDrawCall(encoder gpu.RenderCommandEncoder, level material.QualityLevel)

	// EncodeDraws binds the vertex streams and issues one indexed instanced draw per submesh.
	// Materials are bound only when bindMaterials is set.
	//
	// Parameters:
	//   - encoder: the active encoder
	//   - level: the quality level the materials are bound for
	//   - instanceCount: the number of instances to draw, nothing is drawn when zero
	//   - bindMaterials: whether to bind each submesh's material
	EncodeDraws(encoder gpu.RenderCommandEncoder, level material.QualityLevel, instanceCount int, bindMaterials bool)
}

var _ DrawCall = &drawCall{}

// New creates a DrawCall from already built pipeline states, one per quality level. At least
// one pipeline state is required.
//
// Parameters:
//   - options: variadic list of DrawCallBuilderOption functions, normally including WithPipelineStates
//
// Returns:
//   - DrawCall: the draw call
func New(options ...DrawCallBuilderOption) DrawCall {
	d := &drawCall{cullMode: gpu.CullModeBack, depthCompare: gpu.CompareFunctionLess}
	for _, opt := range options {
		opt(d)
	}
	if len(d.pipelineStates) == 0 {
		panic(fmt.Sprintf("draw call %q: at least one pipeline state is required", d.label))
	}
	return d
}

// NewWithFunctions creates a DrawCall by building one pipeline state per quality level. For
// each level the vertex and fragment functions are specialized with the material maps that
// are present and still sampled at that level, merged into the pass template and compiled.
// The depth-stencil state is built from the pass template unless one is supplied with
// WithDepthStencilState.
//
// A zero quality level count or an empty function name panics. GPU object creation failures
// are returned.
//
// Parameters:
//   - device: the device to build pipeline states on
//   - library: the library holding both functions
//   - vertexName: the vertex entry point
//   - fragmentName: the fragment entry point
//   - pass: the pass template to merge into
//   - vertexDescriptor: the vertex layout of the geometry
//   - present: the material maps the geometry has textures for
//   - qualityLevels: the number of variants to build
//   - options: variadic list of DrawCallBuilderOption functions
//
// Returns:
//   - DrawCall: the draw call
//   - error: an error if a function, pipeline state or depth-stencil state cannot be created
func NewWithFunctions(device gpu.Device, library gpu.Library, vertexName, fragmentName string, pass PipelineTemplate, vertexDescriptor *gpu.VertexDescriptor, present material.SlotSet, qualityLevels int, options ...DrawCallBuilderOption) (DrawCall, error) {
	if qualityLevels <= 0 {
		panic(fmt.Sprintf("draw call %s/%s: quality level count must be at least 1, got %d", vertexName, fragmentName, qualityLevels))
	}
	if vertexName == "" || fragmentName == "" {
		panic("draw call: vertex and fragment function names are required")
	}
	d := &drawCall{
		label:        vertexName + "/" + fragmentName,
		cullMode:     gpu.CullModeBack,
		depthCompare: gpu.CompareFunctionLess,
	}
	for _, opt := range options {
		opt(d)
	}

	d.pipelineStates = make([]gpu.RenderPipelineState, 0, qualityLevels)
	for i := 0; i < qualityLevels; i++ {
		level := material.QualityLevel(i)
		constants := material.FunctionConstants(present, level)
		vf, err := library.MakeSpecializedFunction(vertexName, constants)
		if err != nil {
			return nil, fmt.Errorf("draw call %q: vertex function: %w", d.label, err)
		}
		ff, err := library.MakeSpecializedFunction(fragmentName, constants)
		if err != nil {
			return nil, fmt.Errorf("draw call %q: fragment function: %w", d.label, err)
		}
		desc := pass.RenderPipelineDescriptor(vertexDescriptor, vf, ff)
		desc.Label = fmt.Sprintf("%s/%s/%s", pass.Label(), d.label, level)
		state, err := device.MakeRenderPipelineState(&desc)
		if err != nil {
			return nil, fmt.Errorf("draw call %q: pipeline state for %s quality: %w", d.label, level, err)
		}
		d.pipelineStates = append(d.pipelineStates, state)
	}

	if d.depthStencilState == nil {
		dsd := pass.DepthStencilDescriptor(d.depthCompare)
		dsd.Label = pass.Label() + "/" + d.label
		dss, err := device.MakeDepthStencilState(&dsd)
		if err != nil {
			return nil, fmt.Errorf("draw call %q: depth stencil state: %w", d.label, err)
		}
		d.depthStencilState = dss
	}
	return d, nil
}

func (d *drawCall) Label() string                            { return d.label }
func (d *drawCall) QualityLevels() int                       { return len(d.pipelineStates) }
func (d *drawCall) DepthStencilState() gpu.DepthStencilState { return d.depthStencilState }
func (d *drawCall) CullMode() gpu.CullMode                   { return d.cullMode }
func (d *drawCall) DepthBias() *gpu.DepthBias                { return d.depthBias }
func (d *drawCall) Geometry() model.Model                    { return d.geometry }

func (d *drawCall) PipelineState(level material.QualityLevel) gpu.RenderPipelineState {
	if level < 0 || int(level) >= len(d.pipelineStates) {
		return nil
	}
	return d.pipelineStates[level]
}

func (d *drawCall) PrepareDrawCall(encoder gpu.RenderCommandEncoder, level material.QualityLevel) {
	if level < 0 || int(level) >= len(d.pipelineStates) {
		panic(fmt.Sprintf("draw call %q: quality level %s out of range, %d variants built", d.label, level, len(d.pipelineStates)))
	}
	encoder.SetRenderPipelineState(d.pipelineStates[level])
	if d.depthStencilState != nil {
		encoder.SetDepthStencilState(d.depthStencilState)
	}
	encoder.SetCullMode(d.cullMode)
	if d.depthBias != nil {
		encoder.SetDepthBias(*d.depthBias)
	}
}

func (d *drawCall) EncodeDraws(encoder gpu.RenderCommandEncoder, level material.QualityLevel, instanceCount int, bindMaterials bool) {
	if d.geometry == nil || instanceCount <= 0 {
		return
	}
	d.geometry.BindVertexStreams(encoder)
	for _, sub := range d.geometry.Submeshes() {
		if bindMaterials {
			d.geometry.BindMaterial(encoder, sub, level)
		}
		encoder.DrawIndexedPrimitives(sub.Primitive, sub.IndexCount, d.geometry.IndexType(), d.geometry.IndexBuffer(), sub.IndexOffset, instanceCount)
	}
}
