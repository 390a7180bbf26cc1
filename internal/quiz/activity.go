package quiz

import "time"

// EventKind tags an ActivityEvent.
type EventKind string

const (
	TabHidden       EventKind = "hidden"
	TabShown        EventKind = "shown"
	UserActive      EventKind = "active"
	UnloadAttempted EventKind = "unload"
)

// Valid reports whether k is one of the known activity kinds.
func (k EventKind) Valid() bool {
	switch k {
	case TabHidden, TabShown, UserActive, UnloadAttempted:
		return true
	}
	return false
}

// ActivityEvent is a single signal from the quiz page.
type ActivityEvent struct {
	Kind EventKind
	At   time.Time
}

// ActivityBus carries page activity to whoever reduces it. Page wiring
// publishes, the integrity monitor's owner subscribes.
type ActivityBus struct {
	h *hub[ActivityEvent]
}

// NewActivityBus creates an ActivityBus.
func NewActivityBus() *ActivityBus {
	return &ActivityBus{h: newHub[ActivityEvent](64)}
}

// Publish delivers ev to every subscriber. It reports false if any
// subscriber's buffer was full.
func (b *ActivityBus) Publish(ev ActivityEvent) bool {
	return b.h.publish(ev) == 0
}

// Subscribe returns a channel of events and a func that detaches it.
func (b *ActivityBus) Subscribe() (<-chan ActivityEvent, func()) {
	return b.h.subscribe()
}

// Close detaches all subscribers. Later publishes are dropped.
func (b *ActivityBus) Close() {
	b.h.close()
}
