package core

import "fmt"

var (
	// ErrSessionNotFound is returned when the given identifier does not
	// exist in the store, either because it was never created or because
	// it has been evicted. Evicted and unknown identifiers are
	// indistinguishable to callers.
	ErrSessionNotFound = fmt.Errorf("session not found")
)
