package draw_call

// Group is an ordered list of draw calls sharing one purpose, such as every submesh batch of
// one mesh type. Groups are drawn in the order they were assigned to a pass and their calls
// in list order.
type Group struct {
	// Label names the group in debug groups and logs.
	Label string

	// ModuleID identifies the render module that owns the group.
	ModuleID string

	// CastsShadows selects the group for the shadow pass.
	CastsShadows bool

	// Index is the group's slot in the owning module's per-group buffers, bound as a small
	// constant so shaders can find the group's records.
	Index int

	calls []DrawCall
}

// NewGroup creates an empty group.
//
// Parameters:
//   - label: the group label
//   - moduleID: the owning module identifier
//   - index: the group's slot in its module's per-group buffers
//
// Returns:
//   - *Group: the group
func NewGroup(label, moduleID string, index int) *Group {
	return &Group{Label: label, ModuleID: moduleID, Index: index}
}

// Append adds draw calls to the end of the group.
func (g *Group) Append(calls ...DrawCall) {
	g.calls = append(g.calls, calls...)
}

// Remove deletes the draw call at i, keeping the order of the rest.
func (g *Group) Remove(i int) {
	if i < 0 || i >= len(g.calls) {
		return
	}
	g.calls = append(g.calls[:i], g.calls[i+1:]...)
}

// DrawCalls returns the draw calls in draw order. The slice must not be modified.
func (g *Group) DrawCalls() []DrawCall {
	return g.calls
}

// Len returns the number of draw calls.
func (g *Group) Len() int {
	return len(g.calls)
}
