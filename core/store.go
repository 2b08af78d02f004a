package core

// SessionStore owns all session records. Identifiers are handed to callers
// which thread them back on the next request; no other component holds a
// long-lived reference to a Session.
//
// Contract:
//   - Create mints a globally unique identifier with an empty history.
//   - Get is read-only and does not refresh the last-activity timestamp.
//   - Update replaces (not appends) the stored history and refreshes the
//     timestamp; unknown identifiers are upserted rather than rejected.
//   - Cleanup evicts every session idle longer than the configured timeout.
//
// Implementations must be safe for concurrent use.
type SessionStore interface {
	Create() (*Session, error)
	Get(id string) (*Session, error)
	Update(id string, turns []Turn) error
	Cleanup()
	ActiveSessions() int
}
