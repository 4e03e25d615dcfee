package engine

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ar/engine/tracking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHeadlessEngine(t *testing.T, opts ...EngineBuilderOption) (Engine, gpu.HeadlessDevice) {
	t.Helper()
	device := gpu.NewHeadlessDevice()
	destination := gpu.NewHeadlessDestination(device, 64, 64)
	session := tracking.NewSyntheticSession()
	r := renderer.NewRenderer(device, destination, session)
	return NewEngine(append([]EngineBuilderOption{WithRenderer(r, session)}, opts...)...), device
}

func TestRunRendersFrameCount(t *testing.T) {
	var renders atomic.Int32
	e, device := newHeadlessEngine(t, WithFrameCount(5), WithTickRate(240))
	e.SetRenderCallback(func(float32) { renders.Add(1) })

	require.NoError(t, e.Run())

	assert.Equal(t, 5, e.Rendered())
	assert.Equal(t, int32(5), renders.Load())
	assert.Equal(t, 5, device.Committed())
	assert.Equal(t, device.Committed(), device.Completed())
	assert.Zero(t, e.Renderer().InFlight())
	assert.Equal(t, renderer.StateRunning, e.Renderer().State())
}

func TestQuitStopsUnboundedRun(t *testing.T) {
	e, _ := newHeadlessEngine(t, WithRenderFrameLimit(500))

	var ticks atomic.Int32
	e.SetTickCallback(func(float32) { ticks.Add(1) })

	done := make(chan error, 1)
	go func() { done <- e.Run() }()

	assert.Eventually(t, func() bool { return e.Rendered() > 2 && ticks.Load() > 0 }, 2*time.Second, 5*time.Millisecond)
	e.Quit()
	e.Quit()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Quit")
	}
}

func TestRunRequiresRenderer(t *testing.T) {
	assert.ErrorIs(t, NewEngine().Run(), ErrMissingRenderer)
}

func TestIntervals(t *testing.T) {
	assert.Equal(t, time.Second/60, tickInterval(0))
	assert.Equal(t, 10*time.Millisecond, tickInterval(100))
	assert.Zero(t, frameInterval(-1))
	assert.Equal(t, 20*time.Millisecond, frameInterval(50))
}
