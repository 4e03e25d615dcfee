package asset

import (
	"math"

	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ar/engine/model"
)

// Built-in geometry every StaticProvider serves.
const (
	HandleQuad     Handle = "builtin:quad"
	HandleCube     Handle = "builtin:cube"
	HandleCylinder Handle = "builtin:cylinder"
)

// cylinderSegments is the number of sides of the built-in cylinder.
const cylinderSegments = 16

var white = [4]float32{1, 1, 1, 1}

// Quad returns a unit square in the XZ plane facing +Y, centered on the origin.
//
// Returns:
//   - *MeshData: the quad
func Quad() *MeshData {
	n := [3]float32{0, 1, 0}
	t := [4]float32{1, 0, 0, 1}
	return &MeshData{
		Name: string(HandleQuad),
		Vertices: []model.Vertex{
			{Position: [3]float32{-0.5, 0, -0.5}, TexCoord: [2]float32{0, 0}, Normal: n, Tangent: t, Color: white},
			{Position: [3]float32{-0.5, 0, 0.5}, TexCoord: [2]float32{0, 1}, Normal: n, Tangent: t, Color: white},
			{Position: [3]float32{0.5, 0, 0.5}, TexCoord: [2]float32{1, 1}, Normal: n, Tangent: t, Color: white},
			{Position: [3]float32{0.5, 0, -0.5}, TexCoord: [2]float32{1, 0}, Normal: n, Tangent: t, Color: white},
		},
		Indices:   []uint32{0, 1, 2, 0, 2, 3},
		Materials: []Material{DefaultMaterial("quad")},
	}
}

// Cube returns a unit cube centered on the origin with per-face normals.
//
// Returns:
//   - *MeshData: the cube
func Cube() *MeshData {
	faces := []struct {
		normal, u, v [3]float32
	}{
		{[3]float32{1, 0, 0}, [3]float32{0, 0, -1}, [3]float32{0, 1, 0}},
		{[3]float32{-1, 0, 0}, [3]float32{0, 0, 1}, [3]float32{0, 1, 0}},
		{[3]float32{0, 1, 0}, [3]float32{1, 0, 0}, [3]float32{0, 0, -1}},
		{[3]float32{0, -1, 0}, [3]float32{1, 0, 0}, [3]float32{0, 0, 1}},
		{[3]float32{0, 0, 1}, [3]float32{1, 0, 0}, [3]float32{0, 1, 0}},
		{[3]float32{0, 0, -1}, [3]float32{-1, 0, 0}, [3]float32{0, 1, 0}},
	}
	data := &MeshData{Name: string(HandleCube), Materials: []Material{DefaultMaterial("cube")}}
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	for _, f := range faces {
		base := uint32(len(data.Vertices))
		for _, c := range corners {
			var p [3]float32
			for i := range 3 {
				p[i] = 0.5 * (f.normal[i] + c[0]*f.u[i] + c[1]*f.v[i])
			}
			data.Vertices = append(data.Vertices, model.Vertex{
				Position: p,
				TexCoord: [2]float32{(c[0] + 1) / 2, (1 - c[1]) / 2},
				Normal:   f.normal,
				Tangent:  [4]float32{f.u[0], f.u[1], f.u[2], 1},
				Color:    white,
			})
		}
		data.Indices = append(data.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return data
}

// Cylinder returns an open cylinder of radius 0.5 running along +Y from y=0 to y=1, so a
// transform scaling Y by a length spans exactly that length.
//
// Returns:
//   - *MeshData: the cylinder
func Cylinder() *MeshData {
	data := &MeshData{Name: string(HandleCylinder), Materials: []Material{DefaultMaterial("cylinder")}}
	for i := 0; i <= cylinderSegments; i++ {
		a := 2 * math.Pi * float64(i) / cylinderSegments
		x, z := float32(math.Cos(a)), float32(math.Sin(a))
		u := float32(i) / cylinderSegments
		n := [3]float32{x, 0, z}
		t := [4]float32{-z, 0, x, 1}
		data.Vertices = append(data.Vertices,
			model.Vertex{Position: [3]float32{x / 2, 0, z / 2}, TexCoord: [2]float32{u, 1}, Normal: n, Tangent: t, Color: white},
			model.Vertex{Position: [3]float32{x / 2, 1, z / 2}, TexCoord: [2]float32{u, 0}, Normal: n, Tangent: t, Color: white},
		)
	}
	for i := uint32(0); i < cylinderSegments; i++ {
		b := i * 2
		data.Indices = append(data.Indices, b, b+1, b+3, b, b+3, b+2)
	}
	data.Submeshes = []model.Submesh{{IndexCount: len(data.Indices), Primitive: gpu.PrimitiveTypeTriangle}}
	return data
}
