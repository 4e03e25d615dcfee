package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTickReportsOncePerInterval(t *testing.T) {
	start := time.Unix(0, 0)
	now := start
	p := NewProfiler(WithInterval(time.Second), WithClock(func() time.Time { return now }))

	for i := 1; i < 60; i++ {
		now = start.Add(time.Duration(i) * time.Second / 60)
		assert.False(t, p.Tick(1))
	}
	now = start.Add(time.Second)
	assert.True(t, p.Tick(3))
	assert.InDelta(t, 60, p.FPS(), 0.01)

	now = now.Add(time.Millisecond)
	assert.False(t, p.Tick(1))
}

func TestWithIntervalIgnoresNonPositive(t *testing.T) {
	p := NewProfiler(WithInterval(0))
	assert.Equal(t, time.Second, p.updateInterval)
}
