package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gptbotio/gptbot/core"
	"github.com/gptbotio/gptbot/logging"
)

// Options configures an InMemoryStore.
type Options struct {
	// IdleTimeout is the duration after which a session with no activity
	// becomes eligible for eviction.
	IdleTimeout time.Duration

	// CleanupInterval triggers an eviction sweep as a side effect of
	// Update whenever the number of resident sessions is a multiple of
	// this value. Set to 0 to disable the counter trigger entirely
	// (sweeps then only happen via Cleanup or PeriodicCleanup).
	//
	// Note the trigger is a counter check, not a timer: a store that
	// receives no further updates never evicts on its own. Use
	// PeriodicCleanup when idle memory growth matters.
	CleanupInterval int

	// EvictionHook, if set, is called after each sweep that removed at
	// least one session with the number of sessions removed. Used to
	// feed metrics; must not call back into the store.
	EvictionHook func(evicted int)

	// Logger receives store lifecycle events. Defaults to NoOpLogger.
	Logger logging.Logger
}

// InMemoryStore is a volatile core.SessionStore implementation storing
// sessions in a process local map. It is safe for concurrent access. Each
// returned session is cloned to prevent external mutation of internal state.
//
// History and last-activity timestamp live in a single Session record, so
// they can never be observed out of lockstep: Update swaps in a fresh record
// under the write lock, which readers observe as one atomic unit.
//
// Growth is unbounded: sessions are only removed by the idle-eviction sweep.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*core.Session

	idleTimeout     time.Duration
	cleanupInterval int
	evictionHook    func(int)
	logger          logging.Logger

	// now is swapped out in tests to drive eviction deterministically.
	now func() time.Time
}

// NewInMemoryStore constructs an empty in-memory session store. Defaults
// match the service configuration defaults (30 minute idle timeout, sweep
// every 10th resident session on update).
func NewInMemoryStore(optFns ...func(o *Options)) *InMemoryStore {
	opts := Options{
		IdleTimeout:     30 * time.Minute,
		CleanupInterval: 10,
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &InMemoryStore{
		sessions:        make(map[string]*core.Session),
		idleTimeout:     opts.IdleTimeout,
		cleanupInterval: opts.CleanupInterval,
		evictionHook:    opts.EvictionHook,
		logger:          opts.Logger,
		now:             time.Now,
	}
}

// Create mints a new session with a random identifier and empty history.
// Collisions in the 128-bit identifier space are treated as negligible, so
// Create has no failure path; the error return exists for interface
// compatibility with durable backends.
func (s *InMemoryStore) Create() (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := core.NewSession(uuid.NewString(), s.now())
	s.sessions[sess.ID] = sess
	s.logger.Debug("session created", "session_id", sess.ID)
	return sess.Clone(), nil
}

// Get returns a clone of the session or core.ErrSessionNotFound. It is
// read-only: the last-activity timestamp is not refreshed, so polling a
// session does not keep it alive.
func (s *InMemoryStore) Get(id string) (*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, core.ErrSessionNotFound
	}
	return sess.Clone(), nil
}

// Update replaces the stored history for id with turns and refreshes the
// last-activity timestamp. This is replace, not append: callers pass the
// full history including any newly generated turns.
//
// Unknown identifiers are upserted rather than rejected, so a caller
// presenting an evicted (or mistyped) identifier silently starts a fresh
// conversation under that id. The recreate is logged at warn level to keep
// client bugs observable.
//
// As a side effect, every update that leaves the resident session count at
// a multiple of the cleanup interval runs the idle-eviction sweep
// synchronously before returning.
func (s *InMemoryStore) Update(id string, turns []core.Turn) error {
	now := s.now()
	history := make([]core.Turn, len(turns))
	copy(history, turns)

	s.mu.Lock()
	created := now
	if prev, ok := s.sessions[id]; ok {
		created = prev.Created
	} else {
		s.logger.Warn("update for unknown session, recreating", "session_id", id)
	}
	s.sessions[id] = &core.Session{ID: id, Turns: history, Created: created, LastActive: now}
	sweep := s.cleanupInterval > 0 && len(s.sessions)%s.cleanupInterval == 0
	s.mu.Unlock()

	if sweep {
		s.Cleanup()
	}
	return nil
}

// Cleanup removes every session idle longer than the configured timeout.
// It is a no-op on an empty store and safe to call concurrently with reads
// and writes.
//
// Candidates are selected from a point-in-time snapshot under the read lock
// so a large scan never blocks writers for its full duration. Each candidate
// is re-checked under the write lock before removal: a session refreshed
// after the snapshot is kept, so a fresh write never vanishes.
func (s *InMemoryStore) Cleanup() {
	now := s.now()

	s.mu.RLock()
	var candidates []string
	for id, sess := range s.sessions {
		if sess.Idle(now) > s.idleTimeout {
			candidates = append(candidates, id)
		}
	}
	s.mu.RUnlock()

	if len(candidates) == 0 {
		return
	}

	evicted := 0
	s.mu.Lock()
	for _, id := range candidates {
		sess, ok := s.sessions[id]
		if !ok || sess.Idle(now) <= s.idleTimeout {
			continue
		}
		delete(s.sessions, id)
		evicted++
	}
	remaining := len(s.sessions)
	s.mu.Unlock()

	if evicted > 0 {
		s.logger.Info("evicted idle sessions", "evicted", evicted, "active", remaining)
		if s.evictionHook != nil {
			s.evictionHook(evicted)
		}
	}
}

// ActiveSessions returns the number of sessions currently resident in the
// store. Observability only; callers must not base correctness decisions
// on it.
func (s *InMemoryStore) ActiveSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// PeriodicCleanup runs the eviction sweep every interval until stop is
// closed or receives a value. It complements the counter trigger in Update,
// which never fires in a quiet store; run it in its own goroutine when idle
// memory growth matters.
func (s *InMemoryStore) PeriodicCleanup(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Cleanup()
		case <-stop:
			return
		}
	}
}
