package model

import (
	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
)

// Vertex is the CPU-side description of one mesh vertex before it is split into the position
// and generics streams.
type Vertex struct {
	Position     [3]float32
	TexCoord     [2]float32
	Normal       [3]float32
	Tangent      [4]float32
	JointIndices [4]uint16
	JointWeights [4]float32
	Color        [4]float32
}

// Submesh is one indexed draw range of a model sharing a single material.
type Submesh struct {
	// IndexOffset is the byte offset of the first index in the index buffer.
	IndexOffset int

	// IndexCount is the number of indices drawn.
	IndexCount int

	// Primitive is the topology of the range.
	Primitive gpu.PrimitiveType

	// MaterialIndex indexes the model's materials.
	MaterialIndex int
}

// Palette is the optional joint matrix palette of a skinned mesh.
type Palette struct {
	// Buffer holds JointCount column-major 4×4 matrices.
	Buffer gpu.Buffer

	// JointCount is the number of matrices in Buffer.
	JointCount int
}
