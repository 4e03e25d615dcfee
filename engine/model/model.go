package model

import (
	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ar/engine/pass_buffer"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/shader"
)

// model is the implementation of the Model interface.
type model struct {
	name           string
	positions      gpu.Buffer
	generics       gpu.Buffer
	vertexCount    int
	indices        gpu.Buffer
	indexType      gpu.IndexType
	submeshes      []Submesh
	materials      []material.Material
	materialBuffer gpu.Buffer
	palette        *Palette
	boundingRadius float32
}

// Model is the GPU-resident geometry of one asset: two vertex streams, an index buffer split
// into submeshes, one material per submesh and an optional joint palette. It is produced by
// the asset layer once a geometry load completes.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// VertexCount returns the number of vertices in each stream.
	VertexCount() int

	// IndexBuffer returns the index buffer shared by every submesh.
	IndexBuffer() gpu.Buffer

	// IndexType returns the element size of the index buffer.
	IndexType() gpu.IndexType

	// Submeshes returns the draw ranges of the model.
	//
	// Returns:
	//   - []Submesh: the submeshes in draw order
	Submeshes() []Submesh

	// Materials returns the materials referenced by submeshes.
	//
	// Returns:
	//   - []material.Material: the materials
	Materials() []material.Material

	// PresentSlots returns the union of maps present across every material, used to choose
	// shader specializations for the whole model.
	//
	// Returns:
	//   - material.SlotSet: the present maps
	PresentSlots() material.SlotSet

	// Palette returns the joint palette, or nil for rigid meshes.
	Palette() *Palette

	// BoundingRadius returns the radius of the sphere around the model origin enclosing every vertex.
	BoundingRadius() float32

	// BindVertexStreams binds both vertex streams and, when present, the joint palette.
	//
	// Parameters:
	//   - encoder: the encoder to bind on
	BindVertexStreams(encoder gpu.RenderCommandEncoder)

	// BindMaterial binds the uniforms and active textures of a submesh's material.
	//
	// Parameters:
	//   - encoder: the encoder to bind on
	//   - submesh: the submesh about to be drawn
	//   - level: the quality level being drawn
	BindMaterial(encoder gpu.RenderCommandEncoder, submesh Submesh, level material.QualityLevel)

	// Release frees every GPU buffer the model owns.
	Release()
}

var _ Model = &model{}

// materialStride is the distance between material records, one constant buffer alignment each.
func materialStride() int {
	return pass_buffer.AlignedSize((&material.GPUMaterialUniforms{}).Size(), 1)
}

// NewModel creates a Model from already uploaded buffers. Materials are uploaded into a
// per-model uniform buffer with one 256-byte aligned record per material.
//
// Parameters:
//   - device: the device used to allocate the material uniform buffer
//   - options: variadic list of ModelBuilderOption functions to configure the model
//
// Returns:
//   - Model: the model
//   - error: an error if the material uniform buffer cannot be allocated
func NewModel(device gpu.Device, options ...ModelBuilderOption) (Model, error) {
	m := &model{}
	for _, opt := range options {
		opt(m)
	}
	if len(m.materials) == 0 {
		m.materials = []material.Material{material.NewMaterial(material.WithName(m.name + "-default"))}
	}

	stride := materialStride()
	buf, err := device.MakeBuffer(stride*len(m.materials), gpu.StorageModeShared, m.name+"-materials")
	if err != nil {
		return nil, err
	}
	contents := buf.Contents()
	for i, mat := range m.materials {
		u := mat.Uniforms()
		copy(contents[i*stride:], u.Marshal())
	}
	buf.DidModifyRange(0, buf.Length())
	m.materialBuffer = buf
	return m, nil
}

func (m *model) Name() string                   { return m.name }
func (m *model) VertexCount() int               { return m.vertexCount }
func (m *model) IndexBuffer() gpu.Buffer        { return m.indices }
func (m *model) IndexType() gpu.IndexType       { return m.indexType }
func (m *model) Submeshes() []Submesh           { return m.submeshes }
func (m *model) Materials() []material.Material { return m.materials }
func (m *model) Palette() *Palette              { return m.palette }
func (m *model) BoundingRadius() float32        { return m.boundingRadius }

func (m *model) PresentSlots() material.SlotSet {
	var set material.SlotSet
	for _, mat := range m.materials {
		set |= mat.PresentSlots()
	}
	return set
}

func (m *model) BindVertexStreams(encoder gpu.RenderCommandEncoder) {
	encoder.SetVertexBuffer(m.positions, 0, int(shader.BufferIndexMeshPositions))
	encoder.SetVertexBuffer(m.generics, 0, int(shader.BufferIndexMeshGenerics))
	if m.palette != nil && m.palette.Buffer != nil {
		encoder.SetVertexBuffer(m.palette.Buffer, 0, int(shader.BufferIndexMeshPalettes))
		size := GPUPaletteSize{JointCount: uint32(m.palette.JointCount)}
		encoder.SetVertexBytes(size.Marshal(), int(shader.BufferIndexMeshPaletteSize))
	}
}

func (m *model) BindMaterial(encoder gpu.RenderCommandEncoder, submesh Submesh, level material.QualityLevel) {
	idx := submesh.MaterialIndex
	if idx < 0 || idx >= len(m.materials) {
		idx = 0
	}
	encoder.SetFragmentBuffer(m.materialBuffer, idx*materialStride(), int(shader.BufferIndexMaterialUniforms))
	m.materials[idx].BindTextures(encoder, level)
}

func (m *model) Release() {
	for _, b := range []gpu.Buffer{m.positions, m.generics, m.indices, m.materialBuffer} {
		if b != nil {
			b.Release()
		}
	}
	if m.palette != nil && m.palette.Buffer != nil {
		m.palette.Buffer.Release()
	}
}
