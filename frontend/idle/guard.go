// Package idle locks a kiosk screen behind an overlay after a period without input.
package idle

import "time"

// DefaultTimeout is the inactivity period before the overlay is shown.
const DefaultTimeout = 60 * time.Second

type State int

const (
	Active State = iota
	Idle
)

func (s State) String() string {
	if s == Idle {
		return "idle"
	}
	return "active"
}

// Guard is the Active/Idle state machine. It holds no timer of its own;
// the owning screen loop arms one for Deadline and calls Expire when it fires.
type Guard struct {
	timeout  time.Duration
	deadline time.Time
	state    State
}

func New(timeout time.Duration, now time.Time) *Guard {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Guard{timeout: timeout, deadline: now.Add(timeout), state: Active}
}

// Observe records an input event. It reports true when the guard left Idle.
func (g *Guard) Observe(now time.Time) bool {
	g.deadline = now.Add(g.timeout)
	if g.state == Idle {
		g.state = Active
		return true
	}
	return false
}

// Expire moves to Idle when the deadline has passed. A stale timer firing
// before the current deadline is ignored. It reports true on the transition.
func (g *Guard) Expire(now time.Time) bool {
	if g.state == Idle || now.Before(g.deadline) {
		return false
	}
	g.state = Idle
	return true
}

func (g *Guard) State() State {
	return g.state
}

func (g *Guard) Deadline() time.Time {
	return g.deadline
}

func (g *Guard) Timeout() time.Duration {
	return g.timeout
}
