package core

import "time"

// Session is one logical multi-turn conversation tracked by an opaque
// identifier. The record unifies the turn history and the last-activity
// timestamp so the two can never drift apart.
//
// Sessions are plain records: the owning SessionStore serializes all access
// and hands out clones, so no internal locking is required.
type Session struct {
	ID         string    `json:"id"`
	Turns      []Turn    `json:"turns"`
	Created    time.Time `json:"created"`
	LastActive time.Time `json:"last_active"`
}

// NewSession creates an empty session with both timestamps set to now.
func NewSession(id string, now time.Time) *Session {
	return &Session{ID: id, Turns: []Turn{}, Created: now, LastActive: now}
}

// Clone returns a deep copy safe for independent mutation by callers.
func (s *Session) Clone() *Session {
	clone := &Session{ID: s.ID, Turns: make([]Turn, len(s.Turns)), Created: s.Created, LastActive: s.LastActive}
	copy(clone.Turns, s.Turns)
	return clone
}

// Idle reports how long the session has been inactive relative to now.
func (s *Session) Idle(now time.Time) time.Duration {
	return now.Sub(s.LastActive)
}
