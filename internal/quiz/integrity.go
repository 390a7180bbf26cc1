package quiz

import (
	"time"

	"github.com/stemsi/quizdesk-backend/internal/model"
)

// Policy holds the integrity thresholds.
type Policy struct {
	// MaxViolations is the ceiling; the session is failed once the count exceeds it.
	MaxViolations int
	// HiddenGrace is how long the tab may stay hidden before the return
	// counts as an additional violation.
	HiddenGrace time.Duration
}

// DefaultPolicy fails a session on its fourth violation and treats an absence
// longer than ten seconds as a violation of its own.
func DefaultPolicy() Policy {
	return Policy{MaxViolations: 3, HiddenGrace: 10 * time.Second}
}

// Outcome is what a single observed event means for the session.
type Outcome struct {
	Violation bool
	Cheating  bool
	Beacon    bool
}

// Monitor reduces activity events into a violation record. Hide events and
// prolonged absences feed one counter.
type Monitor struct {
	policy       Policy
	count        int
	hidden       bool
	lastHiddenAt *time.Time
	lastActivity time.Time
	cheater      bool
	detached     bool
}

// NewMonitor creates a Monitor seeded with a previously recorded count.
func NewMonitor(policy Policy, count int, lastHiddenAt *time.Time) *Monitor {
	return &Monitor{policy: policy, count: count, lastHiddenAt: lastHiddenAt}
}

// Observe applies ev. Events are ignored once the monitor is detached or has
// already flagged cheating.
func (m *Monitor) Observe(ev ActivityEvent) Outcome {
	if m.detached || m.cheater {
		return Outcome{}
	}

	var out Outcome
	switch ev.Kind {
	case TabHidden:
		if m.hidden {
			return out
		}
		m.hidden = true
		at := ev.At
		m.lastHiddenAt = &at
		out.Violation = m.violate()

	case TabShown:
		if !m.hidden {
			return out
		}
		m.hidden = false
		m.lastActivity = ev.At
		if m.lastHiddenAt != nil && ev.At.Sub(*m.lastHiddenAt) > m.policy.HiddenGrace {
			out.Violation = m.violate()
		}

	case UserActive:
		m.lastActivity = ev.At

	case UnloadAttempted:
		out.Beacon = true
	}

	out.Cheating = m.cheater
	return out
}

func (m *Monitor) violate() bool {
	m.count++
	if m.count > m.policy.MaxViolations {
		m.cheater = true
	}
	return true
}

// Touch records user activity that did not come through the bus.
func (m *Monitor) Touch(at time.Time) {
	m.lastActivity = at
}

// Detach stops the monitor from reacting to further events.
func (m *Monitor) Detach() {
	m.detached = true
}

// Count returns the number of violations so far.
func (m *Monitor) Count() int { return m.count }

// LastActivity returns the time of the last observed user activity.
func (m *Monitor) LastActivity() time.Time { return m.lastActivity }

// Record returns the current violation record.
func (m *Monitor) Record() model.ViolationRecord {
	return model.ViolationRecord{
		Count:        m.count,
		LastHiddenAt: m.lastHiddenAt,
		CheaterFlag:  m.cheater,
	}
}
