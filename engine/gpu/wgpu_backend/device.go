// Package wgpu_backend implements the engine's gpu interfaces on WebGPU through wgpu-native.
//
// Buffers bound with SetVertexBuffer at an index the pipeline's vertex descriptor declares are
// bound as vertex streams; every other buffer, texture and sampler is resolved against the
// @group/@binding declarations of the pipeline's shaders and bound through per-draw bind groups.
package wgpu_backend

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-ar/common"
	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/naga"
)

// Device is a gpu.Device backed by a WebGPU adapter.
type Device interface {
	gpu.Device

	// NewSurfaceDestination configures the window surface the device was created with and
	// returns it as a render destination.
	//
	// Parameters:
	//   - width, height: the initial drawable size in pixels
	//
	// Returns:
	//   - SurfaceDestination: the destination
	//   - error: an error if the device was created without a surface
	NewSurfaceDestination(width, height int) (SurfaceDestination, error)

	// Release frees the device, the adapter and the instance.
	Release()
}

type device struct {
	name          string
	forceFallback bool
	presentMode   wgpu.PresentMode
	surfaceDesc   *wgpu.SurfaceDescriptor

	instance *wgpu.Instance
	surface  *wgpu.Surface
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	// filtering and comparison are bound at every odd texture-group binding.
	filtering  *wgpu.Sampler
	comparison *wgpu.Sampler

	fallbackMu sync.Mutex
	fallbacks  map[string]*texture
	zeroes     map[uint64]*wgpu.Buffer
}

var _ Device = &device{}

// NewDevice creates the WebGPU instance, adapter, device and queue. The calling goroutine is
// locked to its OS thread, since surfaces created from a window must be used from that thread.
//
// Parameters:
//   - opts: a variadic list of DeviceBuilderOption functions
//
// Returns:
//   - Device: the device
//   - error: an error if no adapter or device can be obtained
func NewDevice(opts ...DeviceBuilderOption) (Device, error) {
	runtime.LockOSThread()
	d := &device{
		name:        "wgpu",
		presentMode: wgpu.PresentModeFifo,
		fallbacks:   make(map[string]*texture),
		zeroes:      make(map[uint64]*wgpu.Buffer),
	}
	for _, opt := range opts {
		opt(d)
	}

	d.instance = wgpu.CreateInstance(nil)
	if d.surfaceDesc != nil {
		d.surface = d.instance.CreateSurface(d.surfaceDesc)
	}

	a, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: d.forceFallback,
		CompatibleSurface:    d.surface,
	})
	if err != nil {
		d.Release()
		return nil, fmt.Errorf("failed to request adapter: %w", err)
	}
	d.adapter = a

	limits := wgpu.DefaultLimits()
	limits.MaxBindGroups = 8

	dev, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: d.name,
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		d.Release()
		return nil, fmt.Errorf("failed to request device: %w", err)
	}
	d.device = dev
	d.queue = dev.GetQueue()

	d.filtering, err = dev.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "filtering sampler",
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeRepeat,
		AddressModeW:  wgpu.AddressModeRepeat,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		d.Release()
		return nil, fmt.Errorf("failed to create filtering sampler: %w", err)
	}
	d.comparison, err = dev.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "comparison sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		Compare:       wgpu.CompareFunctionLess,
		MaxAnisotropy: 1,
	})
	if err != nil {
		d.Release()
		return nil, fmt.Errorf("failed to create comparison sampler: %w", err)
	}

	common.Logger().Info("wgpu device ready", "name", d.name, "surface", d.surface != nil)
	return d, nil
}

func (d *device) Name() string {
	return d.name
}

func (d *device) Release() {
	for _, t := range d.fallbacks {
		t.Release()
	}
	for _, b := range d.zeroes {
		b.Release()
	}
	if d.filtering != nil {
		d.filtering.Release()
	}
	if d.comparison != nil {
		d.comparison.Release()
	}
	if d.queue != nil {
		d.queue.Release()
	}
	if d.device != nil {
		d.device.Release()
	}
	if d.adapter != nil {
		d.adapter.Release()
	}
	if d.surface != nil {
		d.surface.Release()
	}
	if d.instance != nil {
		d.instance.Release()
	}
}

func (d *device) MakeBuffer(length int, mode gpu.StorageMode, label string) (gpu.Buffer, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: buffer %q has length %d", gpu.ErrInvalidDescriptor, label, length)
	}
	size := align4(length)
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  uint64(size),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageIndex | wgpu.BufferUsageUniform |
			wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create buffer %q: %w", label, err)
	}
	b := &buffer{device: d, label: label, mode: mode, length: length, raw: buf}
	if mode.CPUAccessible() {
		b.shadow = make([]byte, size)
	}
	return b, nil
}

func (d *device) MakeTexture(desc gpu.TextureDescriptor) (gpu.Texture, error) {
	if desc.Width <= 0 || desc.Height <= 0 || desc.Format == gpu.PixelFormatInvalid {
		return nil, fmt.Errorf("%w: texture %q is %dx%d %s", gpu.ErrInvalidDescriptor, desc.Label, desc.Width, desc.Height, desc.Format)
	}
	return d.newTexture(desc)
}

func (d *device) MakeLibrary(label, source string, defaults *gpu.FunctionConstantValues) (gpu.Library, error) {
	if defaults == nil {
		defaults = gpu.NewFunctionConstantValues()
	}
	if _, err := naga.Parse(defaults.WGSLPrelude() + source); err != nil {
		return nil, fmt.Errorf("%w: library %q: %w", gpu.ErrShaderValidation, label, err)
	}
	return newLibrary(d, label, source, defaults), nil
}

func (d *device) MakeRenderPipelineState(desc *gpu.RenderPipelineDescriptor) (gpu.RenderPipelineState, error) {
	if desc == nil || desc.VertexFunction == nil {
		return nil, fmt.Errorf("%w: render pipeline requires a vertex function", gpu.ErrInvalidDescriptor)
	}
	return newPipelineState(d, desc)
}

func (d *device) MakeDepthStencilState(desc *gpu.DepthStencilDescriptor) (gpu.DepthStencilState, error) {
	if desc == nil {
		return nil, fmt.Errorf("%w: nil depth stencil descriptor", gpu.ErrInvalidDescriptor)
	}
	return &depthStencilState{desc: *desc}, nil
}

func (d *device) MakeCommandQueue(label string) (gpu.CommandQueue, error) {
	return &commandQueue{device: d, label: label}, nil
}

// fallbackTexture returns a 1×1 texture bound when a draw leaves a declared texture slot empty.
func (d *device) fallbackTexture(depth, cube bool) (*texture, error) {
	key := fmt.Sprintf("depth=%t,cube=%t", depth, cube)
	d.fallbackMu.Lock()
	defer d.fallbackMu.Unlock()
	if t, ok := d.fallbacks[key]; ok {
		return t, nil
	}

	desc := gpu.TextureDescriptor{
		Label:  "fallback " + key,
		Format: gpu.PixelFormatRGBA8Unorm,
		Width:  1,
		Height: 1,
		Usage:  gpu.TextureUsageShaderRead,
	}
	if depth {
		desc.Format = gpu.PixelFormatDepth32Float
		desc.Usage |= gpu.TextureUsageRenderTarget
	}
	if cube {
		desc.Height = 6
	}
	t, err := d.newTexture(desc)
	if err != nil {
		return nil, err
	}
	if !depth {
		white := make([]byte, 4*desc.Height)
		for i := range white {
			white[i] = 0xff
		}
		if err := t.Replace(white, 4); err != nil {
			t.Release()
			return nil, err
		}
	}
	d.fallbacks[key] = t
	return t, nil
}

// zeroBuffer returns a zero-filled buffer of at least size bytes bound when a draw leaves a
// declared buffer slot empty.
func (d *device) zeroBuffer(size uint64) (*wgpu.Buffer, error) {
	size = uint64(align4(max(int(size), 16)))
	d.fallbackMu.Lock()
	defer d.fallbackMu.Unlock()
	if b, ok := d.zeroes[size]; ok {
		return b, nil
	}
	b, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: fmt.Sprintf("zero buffer %d", size),
		Size:  size,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	d.zeroes[size] = b
	return b, nil
}
