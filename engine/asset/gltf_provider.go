package asset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Carmen-Shannon/oxy-ar/common"
	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ar/engine/model"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/sync/singleflight"
)

// GLTFProviderOption is a functional option for configuring a glTF provider via NewGLTFProvider.
type GLTFProviderOption func(*gltfProvider)

// WithBaseDir is an option builder that sets the directory geometry handles are resolved against.
//
// Parameters:
//   - dir: the asset root
//
// Returns:
//   - GLTFProviderOption: a function that applies the base directory to a provider
func WithBaseDir(dir string) GLTFProviderOption {
	return func(p *gltfProvider) {
		p.baseDir = dir
	}
}

type gltfProvider struct {
	baseDir string
	loads   singleflight.Group
}

var _ Provider = &gltfProvider{}

// NewGLTFProvider creates a Provider that loads .gltf and .glb files. A handle is a path
// relative to the base directory. Every mesh reachable from the default scene is flattened
// into one MeshData with node transforms baked into the vertices; each primitive becomes a
// submesh. Concurrent loads of the same handle share one parse.
//
// Parameters:
//   - options: variadic list of GLTFProviderOption functions to configure the provider
//
// Returns:
//   - Provider: the provider
func NewGLTFProvider(options ...GLTFProviderOption) Provider {
	p := &gltfProvider{baseDir: "."}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *gltfProvider) LoadGeometry(ctx context.Context, handle Handle, completion func(*MeshData, error)) {
	path := filepath.Join(p.baseDir, filepath.FromSlash(string(handle)))
	go func() {
		if err := ctx.Err(); err != nil {
			completion(nil, err)
			return
		}
		v, err, _ := p.loads.Do(path, func() (any, error) {
			return loadGLTFFile(path, string(handle))
		})
		if err != nil {
			common.Logger().Warn("geometry load failed", "handle", string(handle), "error", err)
			completion(nil, err)
			return
		}
		completion(v.(*MeshData), nil)
	}()
}

func loadGLTFFile(path, name string) (*MeshData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownGeometry, name)
		}
		return nil, err
	}
	return DecodeGLTF(raw, filepath.Dir(path), name)
}

// DecodeGLTF converts glTF or GLB bytes into MeshData.
//
// Parameters:
//   - data: the file contents
//   - baseDir: the directory external buffers and images are resolved against
//   - name: the name given to the result
//
// Returns:
//   - *MeshData: the flattened mesh
//   - error: an error if the document is malformed or holds no triangles
func DecodeGLTF(data []byte, baseDir, name string) (*MeshData, error) {
	doc, err := parseGLTF(data, baseDir)
	if err != nil {
		return nil, err
	}
	out := &MeshData{Name: name}
	for i, m := range doc.Materials {
		out.Materials = append(out.Materials, doc.material(i, m, baseDir))
	}
	defaultMaterial := -1

	var visit func(node int, parent mgl32.Mat4, depth int) error
	visit = func(node int, parent mgl32.Mat4, depth int) error {
		if node < 0 || node >= len(doc.Nodes) || depth > len(doc.Nodes) {
			return fmt.Errorf("invalid node %d", node)
		}
		n := doc.Nodes[node]
		world := parent.Mul4(n.localTransform())
		if n.Mesh != nil {
			if *n.Mesh < 0 || *n.Mesh >= len(doc.Meshes) {
				return fmt.Errorf("node %d references mesh %d", node, *n.Mesh)
			}
			for pi, prim := range doc.Meshes[*n.Mesh].Primitives {
				if prim.Mode != nil && *prim.Mode != gltfModeTriangles {
					common.Logger().Debug("skipping non-triangle primitive", "mesh", *n.Mesh, "primitive", pi, "mode", *prim.Mode)
					continue
				}
				matIndex := -1
				if prim.Material != nil && *prim.Material >= 0 && *prim.Material < len(out.Materials) {
					matIndex = *prim.Material
				}
				if matIndex < 0 {
					if defaultMaterial < 0 {
						defaultMaterial = len(out.Materials)
						out.Materials = append(out.Materials, DefaultMaterial(name+"-default"))
					}
					matIndex = defaultMaterial
				}
				if err := doc.appendPrimitive(out, prim, world, matIndex); err != nil {
					return fmt.Errorf("mesh %d primitive %d: %w", *n.Mesh, pi, err)
				}
			}
		}
		for _, child := range n.Children {
			if err := visit(child, world, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	for _, root := range doc.rootNodes() {
		if err := visit(root, mgl32.Ident4(), 0); err != nil {
			return nil, err
		}
	}
	if len(out.Indices) < 3 {
		return nil, ErrEmptyGeometry
	}
	return out, nil
}

// rootNodes returns the nodes of the default scene, or every parentless node when the
// document declares no scenes.
func (d *gltfDocument) rootNodes() []int {
	if len(d.Scenes) > 0 {
		scene := 0
		if d.Scene != nil && *d.Scene >= 0 && *d.Scene < len(d.Scenes) {
			scene = *d.Scene
		}
		return d.Scenes[scene].Nodes
	}
	isChild := make([]bool, len(d.Nodes))
	for _, n := range d.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(isChild) {
				isChild[c] = true
			}
		}
	}
	var roots []int
	for i := range d.Nodes {
		if !isChild[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

func (n gltfNode) localTransform() mgl32.Mat4 {
	if n.Matrix != nil {
		return mgl32.Mat4(*n.Matrix)
	}
	t := mgl32.Ident4()
	if n.Translation != nil {
		t = mgl32.Translate3D(n.Translation[0], n.Translation[1], n.Translation[2])
	}
	r := mgl32.Ident4()
	if n.Rotation != nil {
		q := mgl32.Quat{W: n.Rotation[3], V: mgl32.Vec3{n.Rotation[0], n.Rotation[1], n.Rotation[2]}}
		r = q.Normalize().Mat4()
	}
	s := mgl32.Ident4()
	if n.Scale != nil {
		s = mgl32.Scale3D(n.Scale[0], n.Scale[1], n.Scale[2])
	}
	return t.Mul4(r).Mul4(s)
}

// appendPrimitive appends one triangle primitive to out as a new submesh, transforming its
// vertices by world.
func (d *gltfDocument) appendPrimitive(out *MeshData, prim gltfPrimitive, world mgl32.Mat4, matIndex int) error {
	posIndex, ok := prim.Attributes["POSITION"]
	if !ok {
		return fmt.Errorf("primitive has no POSITION attribute")
	}
	positions, err := d.readComponents(posIndex, 3)
	if err != nil {
		return err
	}
	count := len(positions) / 3
	optional := func(name string, n int) ([]float32, error) {
		idx, ok := prim.Attributes[name]
		if !ok {
			return nil, nil
		}
		values, err := d.readComponents(idx, n)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if len(values) != count*n {
			return nil, fmt.Errorf("%s has %d elements, want %d", name, len(values)/n, count)
		}
		return values, nil
	}
	normals, err := optional("NORMAL", 3)
	if err != nil {
		return err
	}
	texcoords, err := optional("TEXCOORD_0", 2)
	if err != nil {
		return err
	}
	tangents, err := optional("TANGENT", 4)
	if err != nil {
		return err
	}
	joints, err := optional("JOINTS_0", 4)
	if err != nil {
		return err
	}
	weights, err := optional("WEIGHTS_0", 4)
	if err != nil {
		return err
	}
	var colors []float32
	if idx, ok := prim.Attributes["COLOR_0"]; ok {
		n := componentCount(d.Accessors[idx].Type)
		if colors, err = d.readComponents(idx, n); err != nil {
			return fmt.Errorf("COLOR_0: %w", err)
		}
		if n == 3 {
			rgba := make([]float32, count*4)
			for i := 0; i < count; i++ {
				copy(rgba[i*4:], colors[i*3:i*3+3])
				rgba[i*4+3] = 1
			}
			colors = rgba
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		if indices, err = d.readIndices(*prim.Indices); err != nil {
			return fmt.Errorf("indices: %w", err)
		}
	} else {
		indices = make([]uint32, count)
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	indices = indices[:len(indices)-len(indices)%3]
	for _, idx := range indices {
		if int(idx) >= count {
			return fmt.Errorf("index %d out of range for %d vertices", idx, count)
		}
	}
	if normals == nil {
		normals = faceNormals(positions, indices)
	}

	normalMatrix := world.Mat3().Inv().Transpose()
	base := uint32(len(out.Vertices))
	for i := 0; i < count; i++ {
		p := world.Mul4x1(mgl32.Vec4{positions[i*3], positions[i*3+1], positions[i*3+2], 1}).Vec3()
		n := normalMatrix.Mul3x1(mgl32.Vec3{normals[i*3], normals[i*3+1], normals[i*3+2]})
		if n.Len() > 0 {
			n = n.Normalize()
		}
		v := model.Vertex{Position: p, Normal: n, Color: white}
		if texcoords != nil {
			v.TexCoord = [2]float32{texcoords[i*2], texcoords[i*2+1]}
		}
		if tangents != nil {
			t := world.Mat3().Mul3x1(mgl32.Vec3{tangents[i*4], tangents[i*4+1], tangents[i*4+2]})
			if t.Len() > 0 {
				t = t.Normalize()
			}
			v.Tangent = [4]float32{t[0], t[1], t[2], tangents[i*4+3]}
		}
		if joints != nil {
			for c := 0; c < 4; c++ {
				v.JointIndices[c] = uint16(joints[i*4+c])
			}
		}
		if weights != nil {
			copy(v.JointWeights[:], weights[i*4:i*4+4])
		}
		if colors != nil {
			copy(v.Color[:], colors[i*4:i*4+4])
		}
		out.Vertices = append(out.Vertices, v)
	}

	offset := len(out.Indices)
	for _, idx := range indices {
		out.Indices = append(out.Indices, base+idx)
	}
	out.Submeshes = append(out.Submeshes, model.Submesh{
		IndexOffset:   offset,
		IndexCount:    len(indices),
		Primitive:     gpu.PrimitiveTypeTriangle,
		MaterialIndex: matIndex,
	})
	return nil
}

// faceNormals accumulates area-weighted triangle normals per vertex.
func faceNormals(positions []float32, indices []uint32) []float32 {
	out := make([]float32, len(positions))
	at := func(i uint32) mgl32.Vec3 {
		return mgl32.Vec3{positions[i*3], positions[i*3+1], positions[i*3+2]}
	}
	for t := 0; t+2 < len(indices); t += 3 {
		a, b, c := indices[t], indices[t+1], indices[t+2]
		n := at(b).Sub(at(a)).Cross(at(c).Sub(at(a)))
		for _, i := range []uint32{a, b, c} {
			out[i*3] += n[0]
			out[i*3+1] += n[1]
			out[i*3+2] += n[2]
		}
	}
	return out
}

// material maps a glTF metallic-roughness material onto the engine's material slots. The
// packed metallic-roughness image feeds both the metallic and roughness maps.
func (d *gltfDocument) material(index int, m gltfMaterial, baseDir string) Material {
	name := m.Name
	if name == "" {
		name = fmt.Sprintf("material-%d", index)
	}
	out := DefaultMaterial(name)
	out.Textures = map[material.TextureSlot]TextureRef{}
	texture := func(slot material.TextureSlot, info *gltfTextureInfo) {
		if info == nil {
			return
		}
		if ref, ok := d.image(info.Index, baseDir); ok {
			out.Textures[slot] = ref
		}
	}
	out.Scalars.Metalness = 1
	if pbr := m.PbrMetallicRoughness; pbr != nil {
		if pbr.BaseColorFactor != nil {
			out.BaseColor = *pbr.BaseColorFactor
		}
		if pbr.MetallicFactor != nil {
			out.Scalars.Metalness = *pbr.MetallicFactor
		}
		if pbr.RoughnessFactor != nil {
			out.Scalars.Roughness = *pbr.RoughnessFactor
		}
		texture(material.TextureSlotBaseColor, pbr.BaseColorTexture)
		texture(material.TextureSlotMetallic, pbr.MetallicRoughnessTexture)
		texture(material.TextureSlotRoughness, pbr.MetallicRoughnessTexture)
	}
	texture(material.TextureSlotNormal, m.NormalTexture)
	texture(material.TextureSlotAmbientOcclusion, m.OcclusionTexture)
	texture(material.TextureSlotEmission, m.EmissiveTexture)
	if m.EmissiveFactor != nil {
		out.EmissionColor = [4]float32{m.EmissiveFactor[0], m.EmissiveFactor[1], m.EmissiveFactor[2], 1}
	}
	if m.AlphaMode == "BLEND" {
		out.Scalars.Opacity = out.BaseColor[3]
	}
	return out
}
