package quiz

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemaining(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("resume subtracts wall clock elapsed", func(t *testing.T) {
		assert.Equal(t, 1700, Remaining(now, now.Add(-100*time.Second), 1800))
	})

	t.Run("partial seconds are floored", func(t *testing.T) {
		assert.Equal(t, 1700, Remaining(now, now.Add(-100*time.Second-900*time.Millisecond), 1800))
	})

	t.Run("never below zero", func(t *testing.T) {
		assert.Equal(t, 0, Remaining(now, now.Add(-2*time.Hour), 1800))
	})

	t.Run("start in the future grants nothing extra", func(t *testing.T) {
		assert.Equal(t, 1800, Remaining(now, now.Add(time.Minute), 1800))
	})
}

func TestTimerNeverIncreases(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	current := start.Add(100 * time.Second)
	now := func() time.Time { return current }

	t.Run("resume keeps the lower recorded value", func(t *testing.T) {
		timer := ResumeTimer(start, 1800, 1500, now)
		assert.Equal(t, 1500, timer.Remaining())
	})

	t.Run("clock moving backwards", func(t *testing.T) {
		timer := NewTimer(start, 1800, now)
		require.Equal(t, 1700, timer.Remaining())

		current = start.Add(10 * time.Second)
		assert.Equal(t, 1700, timer.Remaining())

		current = start.Add(200 * time.Second)
		assert.Equal(t, 1600, timer.Remaining())
	})
}

func TestTimerTicks(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("ends after zero", func(t *testing.T) {
		var calls atomic.Int64
		now := func() time.Time {
			return start.Add(time.Duration(calls.Add(1)) * time.Second)
		}
		timer := NewTimer(start, 3, now)

		var got []int
		for left := range timer.Ticks(context.Background(), time.Millisecond) {
			got = append(got, left)
		}
		assert.Equal(t, []int{2, 1, 0}, got)
	})

	t.Run("stops on cancel", func(t *testing.T) {
		timer := NewTimer(time.Now(), 3600, nil)
		ctx, cancel := context.WithCancel(context.Background())
		ticks := timer.Ticks(ctx, time.Millisecond)

		<-ticks
		cancel()

		require.Eventually(t, func() bool {
			select {
			case _, ok := <-ticks:
				return !ok
			default:
				return false
			}
		}, time.Second, time.Millisecond)
	})
}
