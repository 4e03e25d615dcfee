package window

import (
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// Window is the desktop stand-in for an AR device screen: it provides the WebGPU surface the
// renderer presents to and turns mouse and keyboard input into camera and tap gestures.
type Window interface {
	// SetUpdateCallback sets the function called each message loop iteration.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback sets the callback for mouse scroll wheel events.
	//
	// Parameters:
	//   - callback: function receiving scroll delta (positive = up/zoom in, negative = down/zoom out)
	SetScrollCallback(callback func(delta float32))

	// SetKeyDownCallback sets the callback for key press and repeat events.
	//
	// Parameters:
	//   - callback: function receiving the key code, see the common.Key* constants
	SetKeyDownCallback(callback func(key int))

	// SetDragCallback sets the callback for left-button drags.
	//
	// Parameters:
	//   - callback: function receiving the cursor movement since the last event, in pixels
	SetDragCallback(callback func(dx, dy float32))

	// SetTapCallback sets the callback for left clicks that did not turn into a drag.
	//
	// Parameters:
	//   - callback: function receiving the tap position normalized to [0, 1] with the origin
	//     at the top-left corner, the convention used by session hit tests
	SetTapCallback(callback func(point mgl32.Vec2))

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor for the window, created by the
	// wgpuglfw bridge from the underlying GLFW window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning returns true until the window is closed or Escape is pressed.
	IsRunning() bool

	// Close destroys the window and terminates GLFW.
	//
	// Returns:
	//   - error: an error if the window was already closed
	Close() error

	// ProcessMessages runs the message loop until the window closes, calling the update
	// callback once per iteration.
	ProcessMessages()

	// Width returns the framebuffer width in pixels.
	Width() int

	// Height returns the framebuffer height in pixels.
	Height() int
}

type engineWindow struct {
	title     string
	width     int
	height    int
	minWidth  int
	minHeight int
	maxWidth  int
	maxHeight int

	// dragThreshold is how far in pixels the cursor may move with the button held before a
	// click becomes a drag.
	dragThreshold float32

	platform *glfwWindow
	gesture  gestureTracker

	onUpdate func()
	onResize func(width, height int)
	onScroll func(delta float32)
	onKey    func(key int)
	onDrag   func(dx, dy float32)
	onTap    func(point mgl32.Vec2)
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a window. Must be called from the main goroutine; the goroutine
// is locked to its OS thread.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the window
//   - error: an error if GLFW cannot be initialized or the window cannot be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		title:         "oxy-ar",
		width:         1280,
		height:        720,
		minWidth:      320,
		minHeight:     240,
		maxWidth:      -1,
		maxHeight:     -1,
		dragThreshold: 4,
	}
	for _, opt := range options {
		opt(w)
	}
	w.gesture.threshold = w.dragThreshold
	if err := newPlatformWindow(w); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(key int)) {
	w.onKey = callback
}

func (w *engineWindow) SetDragCallback(callback func(dx, dy float32)) {
	w.onDrag = callback
}

func (w *engineWindow) SetTapCallback(callback func(point mgl32.Vec2)) {
	w.onTap = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return w.platform.surfaceDescriptor()
}

func (w *engineWindow) IsRunning() bool {
	return w.platform.isRunning()
}

func (w *engineWindow) Close() error {
	return w.platform.close()
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if !w.platform.poll() {
			break
		}
		if w.onUpdate != nil {
			w.onUpdate()
		}
		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}

// gestureTracker splits a left-button press into either a tap or a drag.
type gestureTracker struct {
	threshold float32

	pressed  bool
	dragging bool
	start    mgl32.Vec2
	last     mgl32.Vec2
}

func (g *gestureTracker) press(x, y float32) {
	g.pressed, g.dragging = true, false
	g.start = mgl32.Vec2{x, y}
	g.last = g.start
}

// move returns the cursor delta once the press has become a drag.
func (g *gestureTracker) move(x, y float32) (dx, dy float32, ok bool) {
	if !g.pressed {
		return 0, 0, false
	}
	p := mgl32.Vec2{x, y}
	if !g.dragging && p.Sub(g.start).Len() < g.threshold {
		return 0, 0, false
	}
	g.dragging = true
	d := p.Sub(g.last)
	g.last = p
	return d.X(), d.Y(), true
}

// release reports whether the press ended as a tap.
func (g *gestureTracker) release() bool {
	tap := g.pressed && !g.dragging
	g.pressed, g.dragging = false, false
	return tap
}

// normalizedPoint converts window coordinates to the [0, 1] range.
func normalizedPoint(x, y float32, width, height int) mgl32.Vec2 {
	if width <= 0 || height <= 0 {
		return mgl32.Vec2{}
	}
	return mgl32.Vec2{
		mgl32.Clamp(x/float32(width), 0, 1),
		mgl32.Clamp(y/float32(height), 0, 1),
	}
}
