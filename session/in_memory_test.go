package session

import (
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gptbotio/gptbot/core"
)

// Interface compliance (compile-time assertion)
var _ core.SessionStore = (*InMemoryStore)(nil)

// fakeClock drives eviction deterministically in tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestStore(clock *fakeClock, optFns ...func(o *Options)) *InMemoryStore {
	s := NewInMemoryStore(optFns...)
	if clock != nil {
		s.now = clock.Now
	}
	return s
}

func TestCreate_ReturnsEmptyHistory(t *testing.T) {
	s := NewInMemoryStore()

	sess, err := s.Create()
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)

	got, err := s.Get(sess.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Turns)
	assert.Equal(t, 1, s.ActiveSessions())
}

func TestCreate_UniqueIDs(t *testing.T) {
	s := NewInMemoryStore()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		sess, err := s.Create()
		require.NoError(t, err)
		if seen[sess.ID] {
			t.Fatalf("duplicate session id: %s", sess.ID)
		}
		seen[sess.ID] = true
	}
}

func TestGet_NotFound(t *testing.T) {
	s := NewInMemoryStore()
	_, err := s.Get("nope")
	if !errors.Is(err, core.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestUpdate_LastWriteWins(t *testing.T) {
	s := NewInMemoryStore()
	sess, err := s.Create()
	require.NoError(t, err)

	first := []core.Turn{core.NewUserTurn("hi")}
	second := []core.Turn{core.NewUserTurn("hi"), core.NewAssistantTurn("hello")}

	require.NoError(t, s.Update(sess.ID, first))
	require.NoError(t, s.Update(sess.ID, second))

	got, err := s.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, second, got.Turns)
}

func TestUpdate_UpsertsUnknownID(t *testing.T) {
	s := NewInMemoryStore()
	history := []core.Turn{core.NewUserTurn("hello"), core.NewAssistantTurn("hi there")}

	require.NoError(t, s.Update("never-created", history))

	got, err := s.Get("never-created")
	require.NoError(t, err)
	assert.Equal(t, history, got.Turns)
	assert.Equal(t, 1, s.ActiveSessions())
}

func TestUpdate_CopiesCallerSlice(t *testing.T) {
	s := NewInMemoryStore()
	sess, _ := s.Create()

	history := []core.Turn{core.NewUserTurn("original")}
	require.NoError(t, s.Update(sess.ID, history))
	history[0].Text = "mutated"

	got, err := s.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", got.Turns[0].Text)
}

func TestGet_DoesNotRefreshTimestamp(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(clock, func(o *Options) { o.IdleTimeout = 30 * time.Minute })

	sess, _ := s.Create()

	clock.Advance(31 * time.Minute)
	// A read must not keep the session alive.
	_, err := s.Get(sess.ID)
	require.NoError(t, err)

	s.Cleanup()

	_, err = s.Get(sess.ID)
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
}

func TestCleanup_EvictsExpiredKeepsFresh(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(clock, func(o *Options) { o.IdleTimeout = 30 * time.Minute })

	stale, _ := s.Create()
	clock.Advance(20 * time.Minute)
	fresh, _ := s.Create()
	freshHistory := []core.Turn{core.NewUserTurn("still here")}
	require.NoError(t, s.Update(fresh.ID, freshHistory))

	clock.Advance(15 * time.Minute) // stale is 35m idle, fresh 15m
	s.Cleanup()

	_, err := s.Get(stale.ID)
	assert.ErrorIs(t, err, core.ErrSessionNotFound)

	got, err := s.Get(fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, freshHistory, got.Turns)
	assert.Equal(t, 1, s.ActiveSessions())
}

func TestCleanup_ExactTimeoutIsNotExpired(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(clock, func(o *Options) { o.IdleTimeout = 30 * time.Minute })

	sess, _ := s.Create()
	clock.Advance(30 * time.Minute) // idle == timeout, strictly-greater rule keeps it
	s.Cleanup()

	_, err := s.Get(sess.ID)
	assert.NoError(t, err)
}

func TestCleanup_EmptyStoreIsNoOp(t *testing.T) {
	s := NewInMemoryStore()
	s.Cleanup()
	assert.Equal(t, 0, s.ActiveSessions())
}

func TestCleanup_EvictionHook(t *testing.T) {
	clock := newFakeClock()
	var total int
	s := newTestStore(clock, func(o *Options) {
		o.IdleTimeout = 10 * time.Minute
		o.EvictionHook = func(n int) { total += n }
	})

	for i := 0; i < 3; i++ {
		_, err := s.Create()
		require.NoError(t, err)
	}
	clock.Advance(11 * time.Minute)
	s.Cleanup()
	s.Cleanup() // second sweep finds nothing, hook not called again

	assert.Equal(t, 3, total)
	assert.Equal(t, 0, s.ActiveSessions())
}

// Scenario from the service contract: timeout 30m, cleanup interval 5.
// Five sessions go idle; the update that refreshes one of them lands on the
// interval boundary and sweeps the other four.
func TestUpdate_CounterTriggeredSweep(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(clock, func(o *Options) {
		o.IdleTimeout = 30 * time.Minute
		o.CleanupInterval = 5
	})

	ids := make([]string, 5)
	for i := range ids {
		sess, err := s.Create()
		require.NoError(t, err)
		ids[i] = sess.ID
	}

	clock.Advance(31 * time.Minute)
	refreshed := []core.Turn{core.NewUserTurn("back again")}
	require.NoError(t, s.Update(ids[0], refreshed))

	// ids[0] was refreshed by the triggering update; the rest are 31m idle.
	got, err := s.Get(ids[0])
	require.NoError(t, err)
	assert.Equal(t, refreshed, got.Turns)

	for _, id := range ids[1:] {
		_, err := s.Get(id)
		assert.ErrorIs(t, err, core.ErrSessionNotFound, "session %s should be evicted", id)
	}
	assert.Equal(t, 1, s.ActiveSessions())
}

func TestUpdate_NoSweepOffBoundary(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(clock, func(o *Options) {
		o.IdleTimeout = 30 * time.Minute
		o.CleanupInterval = 5
	})

	stale, _ := s.Create()
	other, _ := s.Create()

	clock.Advance(31 * time.Minute)
	// Two resident sessions, interval 5: no sweep fires, the stale session
	// survives until a later update lands on the boundary.
	require.NoError(t, s.Update(other.ID, []core.Turn{core.NewUserTurn("hi")}))

	_, err := s.Get(stale.ID)
	assert.NoError(t, err)
}

func TestEvictedIDBehavesLikeUnknown(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(clock, func(o *Options) { o.IdleTimeout = 5 * time.Minute })

	sess, _ := s.Create()
	require.NoError(t, s.Update(sess.ID, []core.Turn{core.NewUserTurn("old")}))

	clock.Advance(6 * time.Minute)
	s.Cleanup()

	_, err := s.Get(sess.ID)
	require.ErrorIs(t, err, core.ErrSessionNotFound)

	// Presenting the evicted id upserts a fresh conversation; the old
	// history stays gone.
	fresh := []core.Turn{core.NewUserTurn("new")}
	require.NoError(t, s.Update(sess.ID, fresh))

	got, err := s.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, fresh, got.Turns)
}

func TestCleanup_KeepsSessionRefreshedDuringSweep(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(clock, func(o *Options) { o.IdleTimeout = 10 * time.Minute })

	sess, _ := s.Create()
	clock.Advance(11 * time.Minute)

	// Simulate a writer racing the sweep: refresh between snapshot and
	// delete by refreshing first, then sweeping with the old notion of now.
	staleNow := clock.Now()
	require.NoError(t, s.Update(sess.ID, []core.Turn{core.NewUserTurn("fresh")}))

	s.mu.RLock()
	var candidates []string
	for id, rec := range s.sessions {
		if rec.Idle(staleNow) > s.idleTimeout {
			candidates = append(candidates, id)
		}
	}
	s.mu.RUnlock()
	assert.Empty(t, candidates, "refreshed session must not be an eviction candidate")

	s.Cleanup()
	_, err := s.Get(sess.ID)
	assert.NoError(t, err)
}

func TestConcurrentUpdates_EndOnOneHistory(t *testing.T) {
	s := NewInMemoryStore()
	sess, _ := s.Create()

	histA := []core.Turn{core.NewUserTurn("a"), core.NewAssistantTurn("A")}
	histB := []core.Turn{core.NewUserTurn("b"), core.NewAssistantTurn("B")}

	for i := 0; i < 200; i++ {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() { defer wg.Done(); _ = s.Update(sess.ID, histA) }()
		go func() { defer wg.Done(); _ = s.Update(sess.ID, histB) }()
		wg.Wait()

		got, err := s.Get(sess.ID)
		require.NoError(t, err)
		if !reflect.DeepEqual(got.Turns, histA) && !reflect.DeepEqual(got.Turns, histB) {
			t.Fatalf("hybrid history observed: %+v", got.Turns)
		}
	}
}

func TestConcurrentTraffic(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(clock, func(o *Options) {
		o.IdleTimeout = time.Hour
		o.CleanupInterval = 7
	})

	const workers = 16
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				sess, err := s.Create()
				if err != nil {
					t.Error(err)
					return
				}
				if err := s.Update(sess.ID, []core.Turn{core.NewUserTurn("m")}); err != nil {
					t.Error(err)
					return
				}
				if _, err := s.Get(sess.ID); err != nil {
					t.Error(err)
					return
				}
				_ = s.ActiveSessions()
			}
		}()
	}
	wg.Wait()

	// Nothing aged past the timeout, so every created session survives the
	// counter-triggered sweeps: no undercount, no double count.
	assert.Equal(t, workers*100, s.ActiveSessions())
}

func TestPeriodicCleanup(t *testing.T) {
	s := NewInMemoryStore(func(o *Options) { o.IdleTimeout = 10 * time.Millisecond })

	sess, err := s.Create()
	require.NoError(t, err)

	stop := make(chan struct{})
	go s.PeriodicCleanup(20*time.Millisecond, stop)
	time.Sleep(60 * time.Millisecond)
	close(stop)

	_, err = s.Get(sess.ID)
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
	assert.Equal(t, 0, s.ActiveSessions())
}
