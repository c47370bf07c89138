package ratelimit

import (
	"context"
	"sync"
	"time"
)

// sweepInterval bounds how often the memory store scans for dead
// counters. The sweep is amortized over CheckAndIncrement calls rather
// than running in a background task.
const sweepInterval = 60 * time.Second

// Decision is the outcome of a rate limit check.
type Decision struct {
	// Allowed is false when the request exceeds the rule's budget.
	Allowed bool

	// Remaining is the number of requests left in the current window.
	Remaining int

	// ResetAt is when the current window rolls over.
	ResetAt time.Time
}

// Store tracks request counts per (client, rule) key.
//
// Implementations must be safe for concurrent use; reads and writes of a
// single counter's count/window pair must not tear.
type Store interface {
	// CheckAndIncrement checks the counter for (clientID, ruleKey)
	// against the limit and increments it if allowed. A denied request
	// does not consume budget.
	CheckAndIncrement(ctx context.Context, clientID, ruleKey string, limit int, window time.Duration) (Decision, error)
}

type counterKey struct {
	client string
	rule   string
}

type counter struct {
	count       int
	windowStart time.Time
	window      time.Duration
}

// MemoryStore is the in-process Store used for single-process
// deployments. Counters live in a map guarded by a mutex; expired
// entries are swept lazily to bound memory without a background task.
type MemoryStore struct {
	mu        sync.Mutex
	counters  map[counterKey]*counter
	lastSweep time.Time

	// now is swappable for tests.
	now func() time.Time
}

// NewMemoryStore creates an empty in-memory rate limit store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		counters:  make(map[counterKey]*counter),
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// CheckAndIncrement implements Store. The returned error is always nil;
// it exists to satisfy the interface shared with RedisStore.
func (s *MemoryStore) CheckAndIncrement(_ context.Context, clientID, ruleKey string, limit int, window time.Duration) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	key := counterKey{client: clientID, rule: ruleKey}
	c, ok := s.counters[key]
	if !ok {
		c = &counter{windowStart: now, window: window}
		s.counters[key] = c
	}

	// Fixed-window rollover.
	if now.Sub(c.windowStart) >= window {
		c.count = 0
		c.windowStart = now
	}

	resetAt := c.windowStart.Add(window)

	if c.count >= limit {
		return Decision{Allowed: false, Remaining: 0, ResetAt: resetAt}, nil
	}

	c.count++
	remaining := limit - c.count
	if remaining < 0 {
		remaining = 0
	}

	return Decision{Allowed: true, Remaining: remaining, ResetAt: resetAt}, nil
}

// Len returns the number of live counters. Exposed for tests and
// observability.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.counters)
}

// sweep drops counters idle for more than twice their own window, so a
// check on a short-window rule cannot purge a live longer-window
// counter. Called with the mutex held, at most once per sweepInterval.
func (s *MemoryStore) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < sweepInterval {
		return
	}

	for key, c := range s.counters {
		if now.Sub(c.windowStart) > 2*c.window {
			delete(s.counters, key)
		}
	}

	s.lastSweep = now
}
