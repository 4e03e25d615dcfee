package asset

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// glTF 2.0 document subset read by the glTF provider: meshes, the node hierarchy, PBR
// metallic-roughness materials and their images. Skins, animations and morph targets are
// ignored.

var (
	errInvalidGLTFVersion = errors.New("gltf: unsupported asset version")
	errInvalidGLB         = errors.New("gltf: malformed GLB container")
	errSparseAccessor     = errors.New("gltf: sparse accessors are not supported")
)

const (
	glbMagic     = 0x46546C67 // "glTF"
	glbVersion   = 2
	glbChunkJSON = 0x4E4F534A // "JSON"
	glbChunkBIN  = 0x004E4942 // "BIN\0"
)

const (
	gltfComponentByte          = 5120
	gltfComponentUnsignedByte  = 5121
	gltfComponentShort         = 5122
	gltfComponentUnsignedShort = 5123
	gltfComponentUnsignedInt   = 5125
	gltfComponentFloat         = 5126

	gltfModeTriangles = 4
)

type gltfDocument struct {
	Asset struct {
		Version string `json:"version"`
	} `json:"asset"`
	Scene       *int             `json:"scene,omitempty"`
	Scenes      []gltfScene      `json:"scenes,omitempty"`
	Nodes       []gltfNode       `json:"nodes,omitempty"`
	Meshes      []gltfMesh       `json:"meshes,omitempty"`
	Accessors   []gltfAccessor   `json:"accessors,omitempty"`
	BufferViews []gltfBufferView `json:"bufferViews,omitempty"`
	Buffers     []gltfBuffer     `json:"buffers,omitempty"`
	Materials   []gltfMaterial   `json:"materials,omitempty"`
	Textures    []gltfTexture    `json:"textures,omitempty"`
	Images      []gltfImage      `json:"images,omitempty"`
}

type gltfScene struct {
	Nodes []int `json:"nodes,omitempty"`
}

type gltfNode struct {
	Name        string       `json:"name,omitempty"`
	Children    []int        `json:"children,omitempty"`
	Mesh        *int         `json:"mesh,omitempty"`
	Matrix      *[16]float32 `json:"matrix,omitempty"`
	Translation *[3]float32  `json:"translation,omitempty"`
	Rotation    *[4]float32  `json:"rotation,omitempty"`
	Scale       *[3]float32  `json:"scale,omitempty"`
}

type gltfMesh struct {
	Name       string          `json:"name,omitempty"`
	Primitives []gltfPrimitive `json:"primitives"`
}

type gltfPrimitive struct {
	Attributes map[string]int `json:"attributes"`
	Indices    *int           `json:"indices,omitempty"`
	Material   *int           `json:"material,omitempty"`
	Mode       *int           `json:"mode,omitempty"`
}

type gltfAccessor struct {
	BufferView    *int            `json:"bufferView,omitempty"`
	ByteOffset    int             `json:"byteOffset,omitempty"`
	ComponentType int             `json:"componentType"`
	Normalized    bool            `json:"normalized,omitempty"`
	Count         int             `json:"count"`
	Type          string          `json:"type"`
	Sparse        json.RawMessage `json:"sparse,omitempty"`
}

type gltfBufferView struct {
	Buffer     int  `json:"buffer"`
	ByteOffset int  `json:"byteOffset,omitempty"`
	ByteLength int  `json:"byteLength"`
	ByteStride *int `json:"byteStride,omitempty"`
}

type gltfBuffer struct {
	URI        string `json:"uri,omitempty"`
	ByteLength int    `json:"byteLength"`
	data       []byte
}

type gltfTextureInfo struct {
	Index int `json:"index"`
}

type gltfMaterial struct {
	Name                 string `json:"name,omitempty"`
	PbrMetallicRoughness *struct {
		BaseColorFactor          *[4]float32      `json:"baseColorFactor,omitempty"`
		BaseColorTexture         *gltfTextureInfo `json:"baseColorTexture,omitempty"`
		MetallicFactor           *float32         `json:"metallicFactor,omitempty"`
		RoughnessFactor          *float32         `json:"roughnessFactor,omitempty"`
		MetallicRoughnessTexture *gltfTextureInfo `json:"metallicRoughnessTexture,omitempty"`
	} `json:"pbrMetallicRoughness,omitempty"`
	NormalTexture    *gltfTextureInfo `json:"normalTexture,omitempty"`
	OcclusionTexture *gltfTextureInfo `json:"occlusionTexture,omitempty"`
	EmissiveTexture  *gltfTextureInfo `json:"emissiveTexture,omitempty"`
	EmissiveFactor   *[3]float32      `json:"emissiveFactor,omitempty"`
	AlphaMode        string           `json:"alphaMode,omitempty"`
}

type gltfTexture struct {
	Source *int `json:"source,omitempty"`
}

type gltfImage struct {
	Name       string `json:"name,omitempty"`
	URI        string `json:"uri,omitempty"`
	BufferView *int   `json:"bufferView,omitempty"`
}

// parseGLTF decodes a .gltf or .glb file and loads every buffer it references. External
// URIs resolve against baseDir.
func parseGLTF(data []byte, baseDir string) (*gltfDocument, error) {
	var jsonChunk, binChunk []byte
	if len(data) >= 4 && binary.LittleEndian.Uint32(data) == glbMagic {
		var err error
		jsonChunk, binChunk, err = splitGLB(data)
		if err != nil {
			return nil, err
		}
	} else {
		jsonChunk = data
	}

	var doc gltfDocument
	if err := json.Unmarshal(jsonChunk, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse glTF JSON: %w", err)
	}
	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return nil, fmt.Errorf("%w: %q", errInvalidGLTFVersion, doc.Asset.Version)
	}
	for i := range doc.Buffers {
		buf := &doc.Buffers[i]
		switch {
		case buf.URI == "" && i == 0 && binChunk != nil:
			buf.data = binChunk
		case buf.URI == "":
			return nil, fmt.Errorf("buffer %d has no data", i)
		default:
			b, _, err := readURI(buf.URI, baseDir)
			if err != nil {
				return nil, fmt.Errorf("buffer %d: %w", i, err)
			}
			buf.data = b
		}
		if len(buf.data) < buf.ByteLength {
			return nil, fmt.Errorf("buffer %d holds %d of %d bytes", i, len(buf.data), buf.ByteLength)
		}
	}
	return &doc, nil
}

// splitGLB returns the JSON and BIN chunks of a GLB container.
func splitGLB(data []byte) ([]byte, []byte, error) {
	r := bytes.NewReader(data)
	var header struct{ Magic, Version, Length uint32 }
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errInvalidGLB, err)
	}
	if header.Version != glbVersion {
		return nil, nil, fmt.Errorf("%w: version %d", errInvalidGLB, header.Version)
	}
	var jsonChunk, binChunk []byte
	for {
		var chunk struct{ Length, Type uint32 }
		if err := binary.Read(r, binary.LittleEndian, &chunk); err != nil {
			if err == io.EOF {
				break
			}
			return nil, nil, fmt.Errorf("%w: %v", errInvalidGLB, err)
		}
		body := make([]byte, chunk.Length)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", errInvalidGLB, err)
		}
		switch chunk.Type {
		case glbChunkJSON:
			jsonChunk = body
		case glbChunkBIN:
			binChunk = body
		}
	}
	if jsonChunk == nil {
		return nil, nil, fmt.Errorf("%w: missing JSON chunk", errInvalidGLB)
	}
	return jsonChunk, binChunk, nil
}

// readURI loads a data: URI or a file relative to baseDir. The returned path is empty for
// data URIs.
func readURI(uri, baseDir string) ([]byte, string, error) {
	if rest, ok := strings.CutPrefix(uri, "data:"); ok {
		header, payload, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(header, ";base64") {
			return nil, "", fmt.Errorf("unsupported data URI %q", header)
		}
		b, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", fmt.Errorf("failed to decode data URI: %w", err)
		}
		return b, "", nil
	}
	path := filepath.Join(baseDir, filepath.FromSlash(uri))
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, path, err
	}
	return b, path, nil
}

func componentSize(componentType int) int {
	switch componentType {
	case gltfComponentByte, gltfComponentUnsignedByte:
		return 1
	case gltfComponentShort, gltfComponentUnsignedShort:
		return 2
	case gltfComponentUnsignedInt, gltfComponentFloat:
		return 4
	}
	return 0
}

func componentCount(accessorType string) int {
	switch accessorType {
	case "SCALAR":
		return 1
	case "VEC2":
		return 2
	case "VEC3":
		return 3
	case "VEC4", "MAT2":
		return 4
	case "MAT3":
		return 9
	case "MAT4":
		return 16
	}
	return 0
}

// readComponents returns every component of an accessor as float32 values, n per element.
// Normalized integer components are mapped to [0, 1] or [-1, 1].
func (d *gltfDocument) readComponents(index, n int) ([]float32, error) {
	if index < 0 || index >= len(d.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", index)
	}
	acc := &d.Accessors[index]
	if len(acc.Sparse) > 0 {
		return nil, errSparseAccessor
	}
	if got := componentCount(acc.Type); got != n {
		return nil, fmt.Errorf("accessor %d is %s, want %d components", index, acc.Type, n)
	}
	out := make([]float32, acc.Count*n)
	if acc.BufferView == nil {
		return out, nil
	}
	bv := &d.BufferViews[*acc.BufferView]
	data := d.Buffers[bv.Buffer].data
	size := componentSize(acc.ComponentType)
	if size == 0 {
		return nil, fmt.Errorf("accessor %d has component type %d", index, acc.ComponentType)
	}
	stride := size * n
	if bv.ByteStride != nil && *bv.ByteStride > 0 {
		stride = *bv.ByteStride
	}
	base := bv.ByteOffset + acc.ByteOffset
	if acc.Count > 0 && base+(acc.Count-1)*stride+size*n > len(data) {
		return nil, fmt.Errorf("accessor %d overruns its buffer", index)
	}
	for i := 0; i < acc.Count; i++ {
		for c := 0; c < n; c++ {
			off := base + i*stride + c*size
			out[i*n+c] = decodeComponent(data[off:], acc.ComponentType, acc.Normalized)
		}
	}
	return out, nil
}

func decodeComponent(b []byte, componentType int, normalized bool) float32 {
	var v, scale float32
	switch componentType {
	case gltfComponentFloat:
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	case gltfComponentUnsignedInt:
		return float32(binary.LittleEndian.Uint32(b))
	case gltfComponentUnsignedByte:
		v, scale = float32(b[0]), 255
	case gltfComponentByte:
		v, scale = float32(int8(b[0])), 127
	case gltfComponentUnsignedShort:
		v, scale = float32(binary.LittleEndian.Uint16(b)), 65535
	case gltfComponentShort:
		v, scale = float32(int16(binary.LittleEndian.Uint16(b))), 32767
	}
	if normalized {
		return max(v/scale, -1)
	}
	return v
}

// readIndices returns an index accessor widened to uint32.
func (d *gltfDocument) readIndices(index int) ([]uint32, error) {
	values, err := d.readComponents(index, 1)
	if err != nil {
		return nil, err
	}
	if acc := d.Accessors[index]; acc.ComponentType == gltfComponentUnsignedInt && acc.BufferView != nil {
		// Large uint32 indices lose precision as float32; re-read them directly.
		bv := &d.BufferViews[*acc.BufferView]
		data := d.Buffers[bv.Buffer].data[bv.ByteOffset+acc.ByteOffset:]
		stride := 4
		if bv.ByteStride != nil && *bv.ByteStride > 0 {
			stride = *bv.ByteStride
		}
		out := make([]uint32, acc.Count)
		for i := range out {
			out[i] = binary.LittleEndian.Uint32(data[i*stride:])
		}
		return out, nil
	}
	out := make([]uint32, len(values))
	for i, v := range values {
		out[i] = uint32(v)
	}
	return out, nil
}

// image returns the reference for a texture index, or false when it has no image.
func (d *gltfDocument) image(textureIndex int, baseDir string) (TextureRef, bool) {
	if textureIndex < 0 || textureIndex >= len(d.Textures) || d.Textures[textureIndex].Source == nil {
		return TextureRef{}, false
	}
	imageIndex := *d.Textures[textureIndex].Source
	if imageIndex < 0 || imageIndex >= len(d.Images) {
		return TextureRef{}, false
	}
	img := d.Images[imageIndex]
	name := img.Name
	if name == "" {
		name = fmt.Sprintf("image-%d", imageIndex)
	}
	switch {
	case img.BufferView != nil:
		bv := d.BufferViews[*img.BufferView]
		data := d.Buffers[bv.Buffer].data
		return TextureRef{Name: name, Data: data[bv.ByteOffset : bv.ByteOffset+bv.ByteLength]}, true
	case strings.HasPrefix(img.URI, "data:"):
		b, _, err := readURI(img.URI, baseDir)
		if err != nil {
			return TextureRef{}, false
		}
		return TextureRef{Name: name, Data: b}, true
	case img.URI != "":
		return TextureRef{Name: name, Path: filepath.Join(baseDir, filepath.FromSlash(img.URI))}, true
	}
	return TextureRef{}, false
}
