package renderer

import (
	"sort"

	"github.com/Carmen-Shannon/oxy-ar/engine/module"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/draw_call"
)

// ModuleHandle addresses a module registered in a Context. The zero handle refers to nothing.
type ModuleHandle struct {
	index      uint32
	generation uint32
}

// IsZero reports whether h is the zero handle.
func (h ModuleHandle) IsZero() bool {
	return h.generation == 0
}

type moduleSlot struct {
	generation uint32
	module     module.RenderModule

	// groups are the module's draw call groups keyed by pass label.
	groups map[string][]*draw_call.Group
}

// Context is the renderer state threaded through the frame loop: the module arena, the
// shared module, and the frame ring counter. It is owned by the goroutine driving Update.
type Context struct {
	slots  []moduleSlot
	free   []uint32
	byID   map[string]ModuleHandle
	shared ModuleHandle

	frameCount int
	frameIndex int
	frames     uint64
}

// NewContext creates an empty context.
//
// Parameters:
//   - frameCount: the ring depth, at least 1
//
// Returns:
//   - *Context: the context
func NewContext(frameCount int) *Context {
	return &Context{
		byID:       make(map[string]ModuleHandle),
		frameCount: max(frameCount, 1),
		frameIndex: -1,
	}
}

// Register adds a module, replacing nothing. A module whose ID is already registered is not
// added and the existing handle is returned.
//
// Parameters:
//   - m: the module
//
// Returns:
//   - ModuleHandle: the handle of the module registered under m.ID()
func (c *Context) Register(m module.RenderModule) ModuleHandle {
	if h, ok := c.byID[m.ID()]; ok {
		return h
	}
	var idx uint32
	if n := len(c.free); n > 0 {
		idx = c.free[n-1]
		c.free = c.free[:n-1]
	} else {
		c.slots = append(c.slots, moduleSlot{})
		idx = uint32(len(c.slots) - 1)
	}
	s := &c.slots[idx]
	s.generation++
	s.module = m
	s.groups = make(map[string][]*draw_call.Group)
	h := ModuleHandle{index: idx, generation: s.generation}
	c.byID[m.ID()] = h
	if m.ID() == module.IDShared {
		c.shared = h
	}
	return h
}

// Module returns the module addressed by h, or false when h is stale.
func (c *Context) Module(h ModuleHandle) (module.RenderModule, bool) {
	if h.IsZero() || int(h.index) >= len(c.slots) {
		return nil, false
	}
	s := &c.slots[h.index]
	if s.generation != h.generation || s.module == nil {
		return nil, false
	}
	return s.module, true
}

// Lookup returns the handle of the module registered under id.
func (c *Context) Lookup(id string) (ModuleHandle, bool) {
	h, ok := c.byID[id]
	return h, ok
}

// Remove unregisters the module addressed by h. Handles to it become stale.
//
// Returns:
//   - bool: false when h was already stale
func (c *Context) Remove(h ModuleHandle) bool {
	m, ok := c.Module(h)
	if !ok {
		return false
	}
	delete(c.byID, m.ID())
	if c.shared == h {
		c.shared = ModuleHandle{}
	}
	c.slots[h.index].module = nil
	c.slots[h.index].groups = nil
	c.free = append(c.free, h.index)
	return true
}

// Shared returns the shared module, or nil when none is registered.
func (c *Context) Shared() module.SharedModule {
	m, ok := c.Module(c.shared)
	if !ok {
		return nil
	}
	shared, _ := m.(module.SharedModule)
	return shared
}

// Modules returns every registered module in ascending render layer order.
func (c *Context) Modules() []module.RenderModule {
	out := make([]module.RenderModule, 0, len(c.byID))
	for i := range c.slots {
		if c.slots[i].module != nil {
			out = append(out, c.slots[i].module)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RenderLayer() < out[j].RenderLayer()
	})
	return out
}

// Len returns the number of registered modules.
func (c *Context) Len() int {
	return len(c.byID)
}

// SetGroups records the groups a module built for a pass.
func (c *Context) SetGroups(h ModuleHandle, passLabel string, groups []*draw_call.Group) {
	if _, ok := c.Module(h); !ok {
		return
	}
	c.slots[h.index].groups[passLabel] = groups
}

// Groups returns the groups a module built for a pass.
func (c *Context) Groups(h ModuleHandle, passLabel string) []*draw_call.Group {
	if _, ok := c.Module(h); !ok {
		return nil
	}
	return c.slots[h.index].groups[passLabel]
}

// AdvanceFrame moves to the next ring slot.
//
// Returns:
//   - int: the new frame index
func (c *Context) AdvanceFrame() int {
	c.frameIndex = (c.frameIndex + 1) % c.frameCount
	c.frames++
	return c.frameIndex
}

// FrameIndex returns the ring slot of the current frame, -1 before the first frame.
func (c *Context) FrameIndex() int {
	return c.frameIndex
}

// Frames returns how many frames have been started.
func (c *Context) Frames() uint64 {
	return c.frames
}
