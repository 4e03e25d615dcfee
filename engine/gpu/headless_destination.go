package gpu

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// HeadlessDestination is an offscreen RenderDestination backed by headless textures.
// The drawable returned by CurrentDrawable stays current until it is presented.
type HeadlessDestination interface {
	RenderDestination

	// SetAvailable controls whether a drawable is handed out, simulating a surface that is
	// not ready yet.
	SetAvailable(available bool)

	// Resize changes the drawable size; attachments are recreated on the next frame.
	Resize(width, height int)
}

type headlessDestination struct {
	device Device

	mu           sync.Mutex
	width        int
	height       int
	colorFormat  PixelFormat
	depthFormat  PixelFormat
	sampleCount  int
	available    bool
	frame        int
	current      *headlessDrawable
	depthTexture Texture
}

var _ HeadlessDestination = &headlessDestination{}

// NewHeadlessDestination creates an offscreen destination of the given size.
//
// Parameters:
//   - device: the device used to allocate attachment textures
//   - width, height: the drawable size in pixels
//
// Returns:
//   - HeadlessDestination: the destination
func NewHeadlessDestination(device Device, width, height int) HeadlessDestination {
	return &headlessDestination{
		device:      device,
		width:       width,
		height:      height,
		colorFormat: PixelFormatBGRA8Unorm,
		depthFormat: PixelFormatDepth32FloatStencil8,
		sampleCount: 1,
		available:   true,
	}
}

type headlessDrawable struct {
	texture   Texture
	presented atomic.Bool
}

func (d *headlessDrawable) Texture() Texture { return d.texture }

func (h *headlessDestination) SetAvailable(available bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.available = available
}

func (h *headlessDestination) Resize(width, height int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.width, h.height = width, height
	h.current = nil
	h.depthTexture = nil
}

func (h *headlessDestination) CurrentDrawable() Drawable {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.available {
		return nil
	}
	if h.current != nil && !h.current.presented.Load() {
		return h.current
	}
	h.frame++
	tex, err := h.device.MakeTexture(TextureDescriptor{
		Label:  fmt.Sprintf("drawable-%d", h.frame),
		Format: h.colorFormat,
		Width:  h.width,
		Height: h.height,
		Usage:  TextureUsageRenderTarget,
	})
	if err != nil {
		return nil
	}
	h.current = &headlessDrawable{texture: tex}
	return h.current
}

func (h *headlessDestination) CurrentRenderPassDescriptor() *RenderPassDescriptor {
	drawable := h.CurrentDrawable()
	if drawable == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.depthTexture == nil && h.depthFormat != PixelFormatInvalid {
		tex, err := h.device.MakeTexture(TextureDescriptor{
			Label:       "destination-depth",
			Format:      h.depthFormat,
			Width:       h.width,
			Height:      h.height,
			SampleCount: h.sampleCount,
			Usage:       TextureUsageRenderTarget,
			StorageMode: StorageModePrivate,
		})
		if err != nil {
			return nil
		}
		h.depthTexture = tex
	}
	desc := &RenderPassDescriptor{
		ColorAttachments: []ColorAttachment{{
			Texture:     drawable.Texture(),
			LoadAction:  LoadActionClear,
			StoreAction: StoreActionStore,
			ClearColor:  [4]float64{0, 0, 0, 1},
		}},
	}
	if h.depthTexture != nil {
		desc.Depth = &DepthAttachment{Texture: h.depthTexture, LoadAction: LoadActionClear, StoreAction: StoreActionDontCare, ClearDepth: 1}
		if h.depthFormat.HasStencil() {
			desc.Stencil = &StencilAttachment{Texture: h.depthTexture, LoadAction: LoadActionClear, StoreAction: StoreActionDontCare}
		}
	}
	return desc
}

func (h *headlessDestination) ColorPixelFormat() PixelFormat {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.colorFormat
}

func (h *headlessDestination) SetColorPixelFormat(format PixelFormat) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.colorFormat = format
}

func (h *headlessDestination) DepthStencilPixelFormat() PixelFormat {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.depthFormat
}

func (h *headlessDestination) SetDepthStencilPixelFormat(format PixelFormat) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.depthFormat = format
	h.depthTexture = nil
}

func (h *headlessDestination) SampleCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sampleCount
}

func (h *headlessDestination) SetSampleCount(count int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sampleCount = count
	h.depthTexture = nil
}

func (h *headlessDestination) DrawableSize() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.width, h.height
}
