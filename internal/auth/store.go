package auth

import (
	"context" // deadlines and cancellation
	"sync"    // mutexes
	"time"    // timeouts and clocks

	"github.com/iliyamo/cms-auth/internal/logging" // structured logging
)

// CounterStore is a keyed counter with per-key expiry.  IncrWithTTL adds one
// and sets the key to expire ttl from now as a single step, atomic with
// respect to concurrent callers for the same key.  A non-positive ttl leaves
// the key without expiry.  An expired key reads as zero and is removed.
type CounterStore interface {
	Get(ctx context.Context, key string) (int64, error)
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Delete(ctx context.Context, key string) error
}

type counter struct {
	n         int64
	expiresAt time.Time // zero: no expiry
}

func (c *counter) expired(now time.Time) bool {
	return !c.expiresAt.IsZero() && !now.Before(c.expiresAt)
}

// MemoryStore is a process-local CounterStore.  State is not shared between
// instances; use RedisStore when running more than one.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*counter
	now     func() time.Time
}

// NewMemoryStore returns an empty store using the wall clock.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*counter), now: time.Now}
}

// WithClock replaces the time source.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
	return s
}

// lookup returns the live entry for key, dropping it if expired.  mu must be held.
func (s *MemoryStore) lookup(key string) *counter {
	c, ok := s.entries[key]
	if !ok {
		return nil
	}
	if c.expired(s.now()) {
		delete(s.entries, key)
		return nil
	}
	return c
}

func (s *MemoryStore) Get(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c := s.lookup(key); c != nil {
		return c.n, nil
	}
	return 0, nil
}

func (s *MemoryStore) IncrWithTTL(_ context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.lookup(key)
	if c == nil {
		c = &counter{}
		s.entries[key] = c
	}
	c.n++
	c.expiresAt = time.Time{}
	if ttl > 0 {
		c.expiresAt = s.now().Add(ttl)
	}
	return c.n, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Len returns the number of entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep removes expired entries and returns how many were dropped.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for k, c := range s.entries {
		if c.expired(now) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

// StartJanitor sweeps the store every interval until ctx is cancelled.
func (s *MemoryStore) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.Sweep(); n > 0 {
					logging.Debug().Int("removed", n).Msg("counter store sweep")
				}
			}
		}
	}()
}
