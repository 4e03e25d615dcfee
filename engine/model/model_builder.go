package model

import (
	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/material"
)

// ModelBuilderOption is a functional option for configuring a Model via NewModel.
type ModelBuilderOption func(*model)

// WithName is an option builder that sets the name of the Model.
//
// Parameters:
//   - name: the model identifier
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithVertexStreams is an option builder that sets the position and generics vertex buffers.
//
// Parameters:
//   - positions: the buffer of GPUVertexPosition records
//   - generics: the buffer of GPUVertexGenerics records
//   - vertexCount: the number of records in each buffer
//
// Returns:
//   - ModelBuilderOption: a function that applies the vertex streams to a model
func WithVertexStreams(positions, generics gpu.Buffer, vertexCount int) ModelBuilderOption {
	return func(m *model) {
		m.positions = positions
		m.generics = generics
		m.vertexCount = vertexCount
	}
}

// WithIndexBuffer is an option builder that sets the index buffer.
//
// Parameters:
//   - indices: the index buffer
//   - indexType: the element size of the buffer
//
// Returns:
//   - ModelBuilderOption: a function that applies the index buffer to a model
func WithIndexBuffer(indices gpu.Buffer, indexType gpu.IndexType) ModelBuilderOption {
	return func(m *model) {
		m.indices = indices
		m.indexType = indexType
	}
}

// WithSubmeshes is an option builder that sets the draw ranges.
//
// Parameters:
//   - submeshes: the submeshes in draw order
//
// Returns:
//   - ModelBuilderOption: a function that applies the submeshes to a model
func WithSubmeshes(submeshes []Submesh) ModelBuilderOption {
	return func(m *model) {
		m.submeshes = submeshes
	}
}

// WithMaterials is an option builder that sets the materials referenced by submeshes.
//
// Parameters:
//   - materials: the materials
//
// Returns:
//   - ModelBuilderOption: a function that applies the materials to a model
func WithMaterials(materials []material.Material) ModelBuilderOption {
	return func(m *model) {
		m.materials = materials
	}
}

// WithPalette is an option builder that sets the joint palette of a skinned mesh.
//
// Parameters:
//   - palette: the palette
//
// Returns:
//   - ModelBuilderOption: a function that applies the palette to a model
func WithPalette(palette *Palette) ModelBuilderOption {
	return func(m *model) {
		m.palette = palette
	}
}

// WithBoundingRadius is an option builder that sets the bounding sphere radius.
//
// Parameters:
//   - radius: the radius around the model origin
//
// Returns:
//   - ModelBuilderOption: a function that applies the radius to a model
func WithBoundingRadius(radius float32) ModelBuilderOption {
	return func(m *model) {
		m.boundingRadius = radius
	}
}
