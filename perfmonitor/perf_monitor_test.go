package perfmonitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewPerformanceMonitor(t *testing.T) {
	pm := NewPerformanceMonitor()

	assert.NotNil(t, pm)
	assert.True(t, pm.startTime.IsZero())
	assert.True(t, pm.endTime.IsZero())
}

func TestStartStop(t *testing.T) {
	t.Run("stop sets end time after start", func(t *testing.T) {
		pm := NewPerformanceMonitor()

		pm.Start()
		pm.Stop()

		assert.False(t, pm.endTime.IsZero())
		assert.False(t, pm.endTime.Before(pm.startTime))
	})

	t.Run("stop without start is a no-op", func(t *testing.T) {
		pm := NewPerformanceMonitor()

		pm.Stop()

		assert.True(t, pm.endTime.IsZero())
	})

	t.Run("start clears a previous end time", func(t *testing.T) {
		pm := NewPerformanceMonitor()

		pm.Start()
		pm.Stop()
		pm.Start()

		assert.True(t, pm.endTime.IsZero())
		assert.Zero(t, pm.Elapsed())
	})

	t.Run("stop after reset does nothing", func(t *testing.T) {
		pm := NewPerformanceMonitor()

		pm.Start()
		pm.Reset()
		pm.Stop()

		assert.True(t, pm.startTime.IsZero())
		assert.True(t, pm.endTime.IsZero())
	})
}

func TestStartAt(t *testing.T) {
	pm := NewPerformanceMonitor()

	pm.StartAt(time.Now().Add(-50 * time.Millisecond))
	pm.Stop()

	assert.GreaterOrEqual(t, pm.Elapsed(), 50*time.Millisecond)
}

func TestElapsedMilliseconds(t *testing.T) {
	t.Run("zero while incomplete", func(t *testing.T) {
		pm := NewPerformanceMonitor()
		assert.Equal(t, 0.0, pm.ElapsedMilliseconds())

		pm.Start()
		assert.Equal(t, 0.0, pm.ElapsedMilliseconds())
	})

	t.Run("measures a sleep", func(t *testing.T) {
		pm := NewPerformanceMonitor()

		pm.Start()
		time.Sleep(20 * time.Millisecond)
		pm.Stop()

		elapsed := pm.ElapsedMilliseconds()
		assert.Greater(t, elapsed, 15.0)
		assert.Less(t, elapsed, 200.0)
	})

	t.Run("second stop extends the measurement", func(t *testing.T) {
		pm := NewPerformanceMonitor()

		pm.Start()
		pm.Stop()
		first := pm.ElapsedMilliseconds()
		time.Sleep(10 * time.Millisecond)
		pm.Stop()

		assert.Greater(t, pm.ElapsedMilliseconds(), first)
	})

	t.Run("zero after reset", func(t *testing.T) {
		pm := NewPerformanceMonitor()

		pm.Start()
		pm.Stop()
		pm.Reset()

		assert.Equal(t, 0.0, pm.ElapsedMilliseconds())
	})
}
