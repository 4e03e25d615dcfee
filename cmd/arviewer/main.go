// Command arviewer renders a simulated AR session. On the desktop the window stands in for the
// device screen: drag orbits the device camera, scroll and Q/E move it closer or further, and a
// click places a cube on the surface under the cursor. With -headless the same frames are
// encoded against the recording device and the command exits after -frames frames.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/Carmen-Shannon/oxy-ar/common"
	"github.com/Carmen-Shannon/oxy-ar/engine"
	"github.com/Carmen-Shannon/oxy-ar/engine/asset"
	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ar/engine/gpu/wgpu_backend"
	"github.com/Carmen-Shannon/oxy-ar/engine/light"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ar/engine/tracking"
	"github.com/Carmen-Shannon/oxy-ar/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

type options struct {
	configPath string
	headless   bool
	frames     int
	logLevel   string
	vsync      bool
	assetDir   string
	model      string
	width      int
	height     int
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "renderer configuration file (TOML)")
	flag.BoolVar(&opts.headless, "headless", false, "render without a window or GPU")
	flag.IntVar(&opts.frames, "frames", 120, "frames to render in headless mode")
	flag.StringVar(&opts.logLevel, "log-level", "", "overrides the configured log level")
	flag.BoolVar(&opts.vsync, "vsync", true, "present with vertical sync")
	flag.StringVar(&opts.assetDir, "assets", ".", "directory glTF handles are resolved against")
	flag.StringVar(&opts.model, "model", "", "glTF model placed on the floor anchor instead of a cube")
	flag.IntVar(&opts.width, "width", 1280, "window width")
	flag.IntVar(&opts.height, "height", 720, "window height")
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, "arviewer:", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	cfg := renderer.DefaultConfig()
	if opts.configPath != "" {
		loaded, err := renderer.LoadConfig(opts.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	common.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	var (
		win         window.Window
		device      gpu.Device
		destination gpu.RenderDestination
	)
	if opts.headless {
		device = gpu.NewHeadlessDevice(gpu.WithDeviceName("arviewer"))
		destination = gpu.NewHeadlessDestination(device, opts.width, opts.height)
	} else {
		win, err = window.NewWindow(
			window.WithTitle("oxy-ar viewer"),
			window.WithSize(opts.width, opts.height),
		)
		if err != nil {
			return err
		}
		presentMode := wgpu.PresentModeFifo
		if !opts.vsync {
			presentMode = wgpu.PresentModeImmediate
		}
		dev, err := wgpu_backend.NewDevice(
			wgpu_backend.WithName("arviewer"),
			wgpu_backend.WithSurfaceDescriptor(win.SurfaceDescriptor()),
			wgpu_backend.WithPresentMode(presentMode),
		)
		if err != nil {
			_ = win.Close()
			return err
		}
		defer dev.Release()
		surface, err := dev.NewSurfaceDestination(win.Width(), win.Height())
		if err != nil {
			_ = win.Close()
			return err
		}
		device, destination = dev, surface
	}

	width, height := opts.width, opts.height
	if win != nil {
		width, height = win.Width(), win.Height()
	}
	session, err := newSession(device, width, height)
	if err != nil {
		return err
	}

	r := renderer.NewRenderer(device, destination, session,
		renderer.WithConfig(cfg),
		renderer.WithObserver(logObserver{}),
		renderer.WithAssetProvider(asset.NewChainProvider(
			asset.NewStaticProvider(),
			asset.NewGLTFProvider(asset.WithBaseDir(opts.assetDir)),
		)),
		renderer.WithTextureLoader(asset.NewFileTextureLoader(opts.assetDir)),
		renderer.WithLight(light.NewLight(
			light.WithDirection(mgl32.Vec3{-0.4, -1, -0.3}),
			light.WithIntensity(3),
			light.WithAmbient(mgl32.Vec3{1, 1, 1}, 0.2),
			light.WithCastsShadows(true),
		)),
	)
	session.SetObserver(r)
	populate(r, session, asset.Handle(opts.model))

	engineOpts := []engine.EngineBuilderOption{
		engine.WithRenderer(r, session),
		engine.WithTickRate(60),
	}
	if opts.headless {
		engineOpts = append(engineOpts, engine.WithFrameCount(opts.frames))
	} else {
		engineOpts = append(engineOpts, engine.WithWindow(win))
	}
	eng := engine.NewEngine(engineOpts...)

	if win != nil {
		bindInput(win, r, session, destination)
	}
	return eng.Run()
}

// bindInput routes window gestures to the session camera and tap placement.
func bindInput(win window.Window, r renderer.Renderer, session tracking.SyntheticSession, destination gpu.RenderDestination) {
	const orbitPerPixel = 0.005

	// Replaces the engine's resize handler, which only updates the camera aspect.
	win.SetResizeCallback(func(width, height int) {
		if s, ok := destination.(wgpu_backend.SurfaceDestination); ok {
			s.Resize(width, height)
		}
		if height > 0 {
			session.Camera().SetAspect(float32(width) / float32(height))
		}
	})
	win.SetKeyDownCallback(func(key int) {
		switch key {
		case common.KeySpace:
			if r.State() == renderer.StateRunning {
				r.Pause()
			} else {
				r.Run()
			}
		case common.KeyT:
			session.Interrupt()
		case common.KeyG:
			session.EndInterruption()
		default:
			session.Camera().Controller().HandleKey(key)
		}
	})
	win.SetDragCallback(func(dx, dy float32) {
		session.Camera().Controller().Orbit(-dx*orbitPerPixel, dy*orbitPerPixel)
	})
	win.SetScrollCallback(func(delta float32) {
		session.Camera().Controller().Zoom(delta)
	})
	win.SetTapCallback(func(point mgl32.Vec2) {
		hits := session.HitTest(point, tracking.HitTestExistingPlaneUsingExtent|tracking.HitTestEstimatedHorizontalPlane)
		if len(hits) == 0 {
			common.Logger().Debug("tap missed every surface", "point", point)
			return
		}
		id := session.AddAnchor(tracking.Anchor{Transform: hits[0].WorldTransform})
		h := placeAnchored(r, id, asset.HandleCube, hits[0].WorldTransform, 0.1)
		common.Logger().Info("placed anchor", "anchor", id, "entity", h, "position", hits[0].Position())
	})
}

// logObserver reports renderer notifications through the engine logger.
type logObserver struct{}

func (logObserver) SeriousErrors(errs []renderer.SeriousError) {
	for _, e := range errs {
		common.Logger().Error("module failed", "module", e.ModuleID, "error", e.Err)
	}
}

func (logObserver) SessionInterrupted() {
	common.Logger().Warn("tracking interrupted")
}

func (logObserver) SessionInterruptionEnded() {
	common.Logger().Info("tracking resumed")
}

func (logObserver) StateChanged(from, to renderer.State) {
	common.Logger().Info("renderer state changed", "from", from, "to", to)
}
