package quiz

import (
	"context"
	"sync"
	"time"
)

// Remaining returns the whole seconds left of a countdown of totalSeconds that
// started at startedAt. Wall-clock elapsed time is authoritative, so missed
// ticks or a suspended client do not stretch the quiz.
func Remaining(now, startedAt time.Time, totalSeconds int) int {
	elapsed := int(now.Sub(startedAt) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	left := totalSeconds - elapsed
	if left < 0 {
		return 0
	}
	return left
}

// Timer is the countdown of one session. Its value never increases, even if
// the clock it reads moves backwards.
type Timer struct {
	mu        sync.Mutex
	startedAt time.Time
	total     int
	floor     int
	now       func() time.Time
}

// NewTimer creates a countdown of total seconds starting at startedAt.
func NewTimer(startedAt time.Time, total int, now func() time.Time) *Timer {
	if now == nil {
		now = time.Now
	}
	return &Timer{startedAt: startedAt, total: total, floor: total, now: now}
}

// ResumeTimer rebuilds a timer from a snapshot. lastRemaining is the value the
// snapshot recorded; the resumed timer never reports more than that.
func ResumeTimer(startedAt time.Time, total, lastRemaining int, now func() time.Time) *Timer {
	t := NewTimer(startedAt, total, now)
	if lastRemaining >= 0 && lastRemaining < t.floor {
		t.floor = lastRemaining
	}
	return t
}

// StartedAt returns the start of the countdown.
func (t *Timer) StartedAt() time.Time { return t.startedAt }

// Total returns the full duration in seconds.
func (t *Timer) Total() int { return t.total }

// Remaining returns the seconds left now.
func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	left := Remaining(t.now(), t.startedAt, t.total)
	if left > t.floor {
		left = t.floor
	}
	t.floor = left
	return left
}

// Ticks emits the remaining seconds once per interval. The channel is closed
// after 0 has been sent or when ctx is cancelled.
func (t *Timer) Ticks(ctx context.Context, interval time.Duration) <-chan int {
	out := make(chan int, 1)

	go func() {
		defer close(out)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				left := t.Remaining()
				select {
				case out <- left:
				case <-ctx.Done():
					return
				}
				if left == 0 {
					return
				}
			}
		}
	}()

	return out
}
