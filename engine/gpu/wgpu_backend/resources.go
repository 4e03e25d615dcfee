package wgpu_backend

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/naga"
)

// buffer keeps a CPU shadow copy for Shared and Managed modes; DidModifyRange uploads the
// written range through the queue.
type buffer struct {
	device *device
	label  string
	mode   gpu.StorageMode
	length int
	raw    *wgpu.Buffer
	shadow []byte
}

func (b *buffer) Label() string                { return b.label }
func (b *buffer) Length() int                  { return b.length }
func (b *buffer) StorageMode() gpu.StorageMode { return b.mode }

func (b *buffer) Contents() []byte {
	if b.shadow == nil {
		return nil
	}
	return b.shadow[:b.length]
}

func (b *buffer) DidModifyRange(offset, length int) {
	if b.shadow == nil || b.raw == nil || length <= 0 {
		return
	}
	start := offset &^ 3
	end := min(align4(offset+length), len(b.shadow))
	if start >= end {
		return
	}
	b.device.queue.WriteBuffer(b.raw, uint64(start), b.shadow[start:end])
}

func (b *buffer) Release() {
	if b.raw != nil {
		b.raw.Release()
		b.raw = nil
	}
	b.shadow = nil
}

// texture wraps a WebGPU texture and its default view. Textures whose height is six times their
// width are allocated as six-layer cube textures, one face per square, stacked top to bottom.
type texture struct {
	device *device
	desc   gpu.TextureDescriptor
	layers uint32
	raw    *wgpu.Texture
	view   *wgpu.TextureView

	mu       sync.Mutex
	cubeView *wgpu.TextureView
}

func (d *device) newTexture(desc gpu.TextureDescriptor) (*texture, error) {
	t := &texture{device: d, desc: desc, layers: 1}
	width, height := uint32(desc.Width), uint32(desc.Height)
	if !desc.Format.HasDepth() && desc.Height == 6*desc.Width {
		t.layers = 6
		height = width
	}
	raw, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: desc.Label,
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: t.layers,
		},
		MipLevelCount: uint32(max(desc.MipLevels, 1)),
		SampleCount:   uint32(max(desc.SampleCount, 1)),
		Dimension:     wgpu.TextureDimension2D,
		Format:        textureFormat(desc.Format),
		Usage:         textureUsage(desc.Usage, desc.Format),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create texture %q: %w", desc.Label, err)
	}
	view, err := raw.CreateView(nil)
	if err != nil {
		raw.Release()
		return nil, fmt.Errorf("failed to create view for texture %q: %w", desc.Label, err)
	}
	t.raw, t.view = raw, view
	return t, nil
}

func (t *texture) Label() string           { return t.desc.Label }
func (t *texture) Width() int              { return t.desc.Width }
func (t *texture) Height() int             { return t.desc.Height }
func (t *texture) Format() gpu.PixelFormat { return t.desc.Format }

func (t *texture) Replace(pixels []byte, bytesPerRow int) error {
	if bytesPerRow < t.desc.Width*t.desc.Format.BytesPerPixel() || len(pixels) < bytesPerRow*t.desc.Height {
		return fmt.Errorf("%w: %d bytes at pitch %d do not cover %dx%d texture %q",
			gpu.ErrInvalidDescriptor, len(pixels), bytesPerRow, t.desc.Width, t.desc.Height, t.desc.Label)
	}
	rows := uint32(t.desc.Height) / t.layers
	t.device.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  t.raw,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(bytesPerRow),
			RowsPerImage: rows,
		},
		&wgpu.Extent3D{
			Width:              uint32(t.desc.Width),
			Height:             rows,
			DepthOrArrayLayers: t.layers,
		},
	)
	return nil
}

// viewFor returns the view matching the dimension a shader declares for the binding.
func (t *texture) viewFor(dim wgpu.TextureViewDimension) (*wgpu.TextureView, error) {
	if dim != wgpu.TextureViewDimensionCube || t.layers != 6 {
		return t.view, nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cubeView == nil {
		v, err := t.raw.CreateView(&wgpu.TextureViewDescriptor{
			Label:           t.desc.Label + " cube",
			Format:          textureFormat(t.desc.Format),
			Dimension:       wgpu.TextureViewDimensionCube,
			BaseMipLevel:    0,
			MipLevelCount:   1,
			BaseArrayLayer:  0,
			ArrayLayerCount: 6,
			Aspect:          wgpu.TextureAspectAll,
		})
		if err != nil {
			return nil, err
		}
		t.cubeView = v
	}
	return t.cubeView, nil
}

func (t *texture) Release() {
	if t.cubeView != nil {
		t.cubeView.Release()
		t.cubeView = nil
	}
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.raw != nil {
		t.raw.Release()
		t.raw = nil
	}
}

var entryPointPattern = regexp.MustCompile(`@(?:vertex|fragment|compute)\s+fn\s+([A-Za-z_][A-Za-z0-9_]*)`)

// library compiles one shader module per distinct constant assignment.
type library struct {
	device   *device
	label    string
	source   string
	defaults *gpu.FunctionConstantValues
	names    []string

	mu          sync.Mutex
	modules     map[string]*wgpu.ShaderModule
	specialized map[string]gpu.Function
}

func newLibrary(d *device, label, source string, defaults *gpu.FunctionConstantValues) *library {
	l := &library{
		device:      d,
		label:       label,
		source:      source,
		defaults:    defaults,
		modules:     make(map[string]*wgpu.ShaderModule),
		specialized: make(map[string]gpu.Function),
	}
	for _, m := range entryPointPattern.FindAllStringSubmatch(source, -1) {
		l.names = append(l.names, m[1])
	}
	return l
}

func (l *library) Label() string                                 { return l.label }
func (l *library) Source() string                                { return l.source }
func (l *library) DefaultConstants() *gpu.FunctionConstantValues { return l.defaults }

func (l *library) FunctionNames() []string {
	return append([]string(nil), l.names...)
}

func (l *library) has(name string) bool {
	for _, n := range l.names {
		if n == name {
			return true
		}
	}
	return false
}

// module returns the compiled module for the given effective constants. Must hold l.mu.
func (l *library) module(values *gpu.FunctionConstantValues) (*wgpu.ShaderModule, string, error) {
	code := values.WGSLPrelude() + l.source
	key := values.Key()
	if m, ok := l.modules[key]; ok {
		return m, code, nil
	}
	m, err := l.device.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: l.label + " " + key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: code,
		},
	})
	if err != nil {
		return nil, "", fmt.Errorf("%w: library %q: %w", gpu.ErrShaderValidation, l.label, err)
	}
	l.modules[key] = m
	return m, code, nil
}

func (l *library) MakeFunction(name string) (gpu.Function, error) {
	return l.makeFunction(name, nil)
}

func (l *library) MakeSpecializedFunction(name string, values *gpu.FunctionConstantValues) (gpu.Function, error) {
	return l.makeFunction(name, values)
}

func (l *library) makeFunction(name string, values *gpu.FunctionConstantValues) (gpu.Function, error) {
	if !l.has(name) {
		return nil, fmt.Errorf("%w: %q in %q", gpu.ErrFunctionNotFound, name, l.label)
	}
	key := name + "|" + values.Key()

	l.mu.Lock()
	defer l.mu.Unlock()
	if fn, ok := l.specialized[key]; ok {
		return fn, nil
	}
	effective := values.Merge(l.defaults)
	if values != nil {
		if _, err := naga.Parse(effective.WGSLPrelude() + l.source); err != nil {
			return nil, fmt.Errorf("%w: %q specialized as %s: %w", gpu.ErrShaderValidation, name, values.Key(), err)
		}
	}
	m, code, err := l.module(effective)
	if err != nil {
		return nil, err
	}
	fn := &function{name: name, library: l, constants: values, module: m, code: code}
	l.specialized[key] = fn
	return fn, nil
}

type function struct {
	name      string
	library   gpu.Library
	constants *gpu.FunctionConstantValues
	module    *wgpu.ShaderModule
	code      string
}

func (f *function) Name() string                                { return f.name }
func (f *function) Library() gpu.Library                        { return f.library }
func (f *function) ConstantValues() *gpu.FunctionConstantValues { return f.constants }

type depthStencilState struct {
	desc gpu.DepthStencilDescriptor
}

func (s *depthStencilState) Label() string                          { return s.desc.Label }
func (s *depthStencilState) Descriptor() gpu.DepthStencilDescriptor { return s.desc }
