package wgpu_backend

import (
	"errors"
	"sync"

	"github.com/Carmen-Shannon/oxy-ar/common"
	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrNoSurface is returned by NewSurfaceDestination when the device was created without a
// surface descriptor.
var ErrNoSurface = errors.New("wgpu: device has no surface")

// SurfaceDestination is a RenderDestination presenting to a window surface.
type SurfaceDestination interface {
	gpu.RenderDestination

	// Resize reconfigures the surface. Attachments are recreated on the next frame.
	Resize(width, height int)
}

type drawable struct {
	dest    *surfaceDestination
	texture *texture

	once sync.Once
}

func (d *drawable) Texture() gpu.Texture { return d.texture }

// present shows the surface image and releases it. Only the first call has any effect.
func (d *drawable) present() {
	d.once.Do(func() {
		d.dest.mu.Lock()
		defer d.dest.mu.Unlock()
		d.dest.device.surface.Present()
		d.texture.Release()
		if d.dest.current == d {
			d.dest.current = nil
		}
	})
}

type surfaceDestination struct {
	device *device

	mu          sync.Mutex
	width       int
	height      int
	colorFormat gpu.PixelFormat
	depthFormat gpu.PixelFormat
	sampleCount int
	alphaMode   wgpu.CompositeAlphaMode
	configured  bool
	current     *drawable
	msaa        *texture
	depth       *texture
}

var _ SurfaceDestination = &surfaceDestination{}

func (d *device) NewSurfaceDestination(width, height int) (SurfaceDestination, error) {
	if d.surface == nil {
		return nil, ErrNoSurface
	}
	caps := d.surface.GetCapabilities(d.adapter)
	s := &surfaceDestination{
		device:      d,
		width:       width,
		height:      height,
		colorFormat: gpu.PixelFormatBGRA8Unorm,
		depthFormat: gpu.PixelFormatDepth32FloatStencil8,
		sampleCount: 1,
	}
	for _, f := range caps.Formats {
		if pf := pixelFormat(f); pf != gpu.PixelFormatInvalid {
			s.colorFormat = pf
			break
		}
	}
	if len(caps.AlphaModes) > 0 {
		s.alphaMode = caps.AlphaModes[0]
	}
	return s, nil
}

// configure (re)applies the surface configuration and drops stale attachments. Must hold s.mu.
func (s *surfaceDestination) configure() {
	if s.configured {
		return
	}
	s.device.surface.Configure(s.device.adapter, s.device.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      textureFormat(s.colorFormat),
		Width:       uint32(s.width),
		Height:      uint32(s.height),
		PresentMode: s.device.presentMode,
		AlphaMode:   s.alphaMode,
	})
	s.releaseAttachments()
	s.configured = true
	common.Logger().Debug("surface configured", "width", s.width, "height", s.height, "format", s.colorFormat.String(), "samples", s.sampleCount)
}

func (s *surfaceDestination) releaseAttachments() {
	if s.msaa != nil {
		s.msaa.Release()
		s.msaa = nil
	}
	if s.depth != nil {
		s.depth.Release()
		s.depth = nil
	}
}

func (s *surfaceDestination) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if width == s.width && height == s.height {
		return
	}
	s.width, s.height = width, height
	s.configured = false
}

func (s *surfaceDestination) CurrentDrawable() gpu.Drawable {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width <= 0 || s.height <= 0 {
		return nil
	}
	if s.current != nil {
		return s.current
	}
	s.configure()

	raw, err := s.device.surface.GetCurrentTexture()
	if err != nil {
		common.Logger().Debug("surface texture unavailable", "error", err)
		return nil
	}
	view, err := raw.CreateView(nil)
	if err != nil {
		raw.Release()
		return nil
	}
	s.current = &drawable{
		dest: s,
		texture: &texture{
			device: s.device,
			desc: gpu.TextureDescriptor{
				Label:  "drawable",
				Format: s.colorFormat,
				Width:  s.width,
				Height: s.height,
				Usage:  gpu.TextureUsageRenderTarget,
			},
			layers: 1,
			raw:    raw,
			view:   view,
		},
	}
	return s.current
}

func (s *surfaceDestination) CurrentRenderPassDescriptor() *gpu.RenderPassDescriptor {
	d := s.CurrentDrawable()
	if d == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sampleCount > 1 && s.msaa == nil {
		t, err := s.device.newTexture(gpu.TextureDescriptor{
			Label:       "msaa colour",
			Format:      s.colorFormat,
			Width:       s.width,
			Height:      s.height,
			SampleCount: s.sampleCount,
			Usage:       gpu.TextureUsageRenderTarget,
			StorageMode: gpu.StorageModePrivate,
		})
		if err != nil {
			common.Logger().Warn("failed to create msaa attachment", "error", err)
			return nil
		}
		s.msaa = t
	}
	if s.depth == nil && s.depthFormat != gpu.PixelFormatInvalid {
		t, err := s.device.newTexture(gpu.TextureDescriptor{
			Label:       "destination depth",
			Format:      s.depthFormat,
			Width:       s.width,
			Height:      s.height,
			SampleCount: s.sampleCount,
			Usage:       gpu.TextureUsageRenderTarget,
			StorageMode: gpu.StorageModePrivate,
		})
		if err != nil {
			common.Logger().Warn("failed to create depth attachment", "error", err)
			return nil
		}
		s.depth = t
	}

	color := gpu.ColorAttachment{
		Texture:     d.Texture(),
		LoadAction:  gpu.LoadActionClear,
		StoreAction: gpu.StoreActionStore,
		ClearColor:  [4]float64{0, 0, 0, 1},
	}
	if s.msaa != nil {
		color.Texture = s.msaa
		color.ResolveTexture = d.Texture()
		color.StoreAction = gpu.StoreActionMultisampleResolve
	}
	desc := &gpu.RenderPassDescriptor{ColorAttachments: []gpu.ColorAttachment{color}}
	if s.depth != nil {
		desc.Depth = &gpu.DepthAttachment{Texture: s.depth, LoadAction: gpu.LoadActionClear, StoreAction: gpu.StoreActionDontCare, ClearDepth: 1}
		if s.depthFormat.HasStencil() {
			desc.Stencil = &gpu.StencilAttachment{Texture: s.depth, LoadAction: gpu.LoadActionClear, StoreAction: gpu.StoreActionDontCare}
		}
	}
	return desc
}

func (s *surfaceDestination) ColorPixelFormat() gpu.PixelFormat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.colorFormat
}

func (s *surfaceDestination) SetColorPixelFormat(format gpu.PixelFormat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if format == s.colorFormat {
		return
	}
	s.colorFormat = format
	s.configured = false
}

func (s *surfaceDestination) DepthStencilPixelFormat() gpu.PixelFormat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.depthFormat
}

func (s *surfaceDestination) SetDepthStencilPixelFormat(format gpu.PixelFormat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.depthFormat = format
	s.releaseAttachments()
}

func (s *surfaceDestination) SampleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sampleCount
}

func (s *surfaceDestination) SetSampleCount(count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sampleCount = max(count, 1)
	s.releaseAttachments()
}

func (s *surfaceDestination) DrawableSize() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}
