package model

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-ar/common"
	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
)

// VertexDescriptor returns the two-stream vertex layout every mesh pipeline uses.
//
// Returns:
//   - *gpu.VertexDescriptor: a fresh descriptor the caller may modify
func VertexDescriptor() *gpu.VertexDescriptor {
	positions := int(shader.BufferIndexMeshPositions)
	generics := int(shader.BufferIndexMeshGenerics)
	return &gpu.VertexDescriptor{
		Attributes: []gpu.VertexAttribute{
			{Location: int(shader.VertexAttributePosition), Format: gpu.VertexFormatFloat3, Offset: 0, BufferIndex: positions},
			{Location: int(shader.VertexAttributeTexcoord), Format: gpu.VertexFormatFloat2, Offset: 0, BufferIndex: generics},
			{Location: int(shader.VertexAttributeNormal), Format: gpu.VertexFormatFloat3, Offset: 8, BufferIndex: generics},
			{Location: int(shader.VertexAttributeTangent), Format: gpu.VertexFormatFloat4, Offset: 20, BufferIndex: generics},
			{Location: int(shader.VertexAttributeJointIndices), Format: gpu.VertexFormatUShort4, Offset: 36, BufferIndex: generics},
			{Location: int(shader.VertexAttributeJointWeights), Format: gpu.VertexFormatFloat4, Offset: 44, BufferIndex: generics},
			{Location: int(shader.VertexAttributeColor), Format: gpu.VertexFormatFloat4, Offset: 60, BufferIndex: generics},
		},
		Layouts: []gpu.VertexBufferLayout{
			{BufferIndex: positions, Stride: uint64((&GPUVertexPosition{}).Size()), StepFunction: gpu.StepFunctionPerVertex},
			{BufferIndex: generics, Stride: uint64((&GPUVertexGenerics{}).Size()), StepFunction: gpu.StepFunctionPerVertex},
		},
	}
}

// PackVertices splits vertices into the position and generics streams.
//
// Parameters:
//   - vertices: the vertices
//
// Returns:
//   - []byte: the position stream
//   - []byte: the generics stream
func PackVertices(vertices []Vertex) ([]byte, []byte) {
	positions := make([]GPUVertexPosition, len(vertices))
	generics := make([]GPUVertexGenerics, len(vertices))
	for i, v := range vertices {
		positions[i] = GPUVertexPosition{Position: v.Position}
		generics[i] = GPUVertexGenerics{
			TexCoord:     v.TexCoord,
			Normal:       v.Normal,
			Tangent:      v.Tangent,
			JointIndices: v.JointIndices,
			JointWeights: v.JointWeights,
			Color:        v.Color,
		}
	}
	return common.SliceToBytes(positions), common.SliceToBytes(generics)
}

// PackIndices encodes indices with the smallest index type that can address vertexCount vertices.
//
// Parameters:
//   - indices: the triangle indices
//   - vertexCount: the number of vertices the indices address
//
// Returns:
//   - []byte: the encoded indices
//   - gpu.IndexType: the element size used
func PackIndices(indices []uint32, vertexCount int) ([]byte, gpu.IndexType) {
	if vertexCount <= math.MaxUint16 {
		buf := make([]byte, len(indices)*2)
		for i, idx := range indices {
			binary.LittleEndian.PutUint16(buf[i*2:], uint16(idx))
		}
		return buf, gpu.IndexTypeUInt16
	}
	buf := make([]byte, len(indices)*4)
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(buf[i*4:], idx)
	}
	return buf, gpu.IndexTypeUInt32
}

// BoundingRadius returns the largest distance from the origin to any vertex.
//
// Parameters:
//   - vertices: the vertices
//
// Returns:
//   - float32: the radius
func BoundingRadius(vertices []Vertex) float32 {
	var r float32
	for _, v := range vertices {
		if l := mgl32.Vec3(v.Position).Len(); l > r {
			r = l
		}
	}
	return r
}

// MeshSource is the CPU-side geometry Upload turns into a Model.
type MeshSource struct {
	Name      string
	Vertices  []Vertex
	Indices   []uint32
	Submeshes []Submesh
	Materials []material.Material

	// Palette holds the joint matrices of a skinned mesh, empty for rigid meshes.
	Palette []mgl32.Mat4
}

// Upload copies a mesh into GPU buffers and builds the Model around them. Submesh index
// offsets are given in indices and converted to byte offsets for the chosen index type. A mesh
// without submeshes is drawn as one triangle list using the first material.
//
// Parameters:
//   - device: the device to allocate from
//   - src: the mesh
//
// Returns:
//   - Model: the uploaded model
//   - error: an error if the mesh is empty or an allocation fails
func Upload(device gpu.Device, src MeshSource) (Model, error) {
	if len(src.Vertices) == 0 || len(src.Indices) == 0 {
		return nil, fmt.Errorf("mesh %q has no geometry", src.Name)
	}
	posBytes, genBytes := PackVertices(src.Vertices)
	idxBytes, indexType := PackIndices(src.Indices, len(src.Vertices))

	var created []gpu.Buffer
	upload := func(data []byte, label string) (gpu.Buffer, error) {
		buf, err := device.MakeBuffer(len(data), gpu.StorageModeShared, label)
		if err != nil {
			for _, b := range created {
				b.Release()
			}
			return nil, fmt.Errorf("failed to upload %s: %w", label, err)
		}
		copy(buf.Contents(), data)
		buf.DidModifyRange(0, len(data))
		created = append(created, buf)
		return buf, nil
	}

	positions, err := upload(posBytes, src.Name+"-positions")
	if err != nil {
		return nil, err
	}
	generics, err := upload(genBytes, src.Name+"-generics")
	if err != nil {
		return nil, err
	}
	indices, err := upload(idxBytes, src.Name+"-indices")
	if err != nil {
		return nil, err
	}

	var palette *Palette
	if len(src.Palette) > 0 {
		mats := make([][16]float32, len(src.Palette))
		for i, m := range src.Palette {
			mats[i] = common.Mat4Array(m)
		}
		buf, err := upload(common.SliceToBytes(mats), src.Name+"-palette")
		if err != nil {
			return nil, err
		}
		palette = &Palette{Buffer: buf, JointCount: len(src.Palette)}
	}

	submeshes := make([]Submesh, 0, len(src.Submeshes))
	for _, s := range src.Submeshes {
		s.IndexOffset *= indexType.Size()
		submeshes = append(submeshes, s)
	}
	if len(submeshes) == 0 {
		submeshes = append(submeshes, Submesh{IndexCount: len(src.Indices), Primitive: gpu.PrimitiveTypeTriangle})
	}

	m, err := NewModel(device,
		WithName(src.Name),
		WithVertexStreams(positions, generics, len(src.Vertices)),
		WithIndexBuffer(indices, indexType),
		WithSubmeshes(submeshes),
		WithMaterials(src.Materials),
		WithPalette(palette),
		WithBoundingRadius(BoundingRadius(src.Vertices)),
	)
	if err != nil {
		for _, b := range created {
			b.Release()
		}
		return nil, err
	}
	return m, nil
}
