package window

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestGestureTrackerTap(t *testing.T) {
	g := gestureTracker{threshold: 4}
	g.press(100, 100)
	_, _, ok := g.move(102, 101)
	assert.False(t, ok)
	assert.True(t, g.release())

	// moves without a press are ignored
	_, _, ok = g.move(200, 200)
	assert.False(t, ok)
	assert.False(t, g.release())
}

func TestGestureTrackerDrag(t *testing.T) {
	g := gestureTracker{threshold: 4}
	g.press(10, 10)

	dx, dy, ok := g.move(20, 15)
	assert.True(t, ok)
	assert.Equal(t, float32(10), dx)
	assert.Equal(t, float32(5), dy)

	// once dragging, small moves are reported relative to the last position
	dx, dy, ok = g.move(21, 15)
	assert.True(t, ok)
	assert.Equal(t, float32(1), dx)
	assert.Equal(t, float32(0), dy)

	assert.False(t, g.release())
}

func TestNormalizedPoint(t *testing.T) {
	assert.Equal(t, mgl32.Vec2{0.5, 0.25}, normalizedPoint(640, 180, 1280, 720))
	assert.Equal(t, mgl32.Vec2{1, 0}, normalizedPoint(2000, -5, 1280, 720))
	assert.Equal(t, mgl32.Vec2{}, normalizedPoint(1, 1, 0, 0))
}
