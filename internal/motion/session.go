package motion

import (
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/parkpilot-core/internal/geo"
)

// Session is one auto-drive run towards a target.
//
// It owns the tick timer. A Session is not safe for concurrent use; the
// navigator loop is its only user.
type Session struct {
	ID        string
	Target    geo.Facility
	StartedAt time.Time

	ticker *time.Ticker
	active bool
}

// SessionInfo is the read-only view of a session for callers and sinks.
type SessionInfo struct {
	ID        string       `json:"id"`
	Target    geo.Facility `json:"target"`
	StartedAt time.Time    `json:"started_at"`
	Active    bool         `json:"active"`
}

// NewSession starts a session ticking every interval.
func NewSession(target geo.Facility, interval time.Duration) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Target:    target,
		StartedAt: time.Now(),
		ticker:    time.NewTicker(interval),
		active:    true,
	}
}

// C returns the tick channel, or nil once the session has stopped so a
// select on it blocks forever.
func (s *Session) C() <-chan time.Time {
	if s == nil || !s.active {
		return nil
	}
	return s.ticker.C
}

// Stop halts the timer and marks the session inactive.
// It reports whether the session was active. Safe to call more than once.
func (s *Session) Stop() bool {
	if s == nil || !s.active {
		return false
	}
	s.ticker.Stop()
	s.active = false
	return true
}

// Active reports whether the session is still running.
func (s *Session) Active() bool {
	return s != nil && s.active
}

// Info returns a snapshot of the session.
func (s *Session) Info() SessionInfo {
	return SessionInfo{
		ID:        s.ID,
		Target:    s.Target,
		StartedAt: s.StartedAt,
		Active:    s.active,
	}
}
