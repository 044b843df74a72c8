package auth

import (
	"context" // deadlines and cancellation
	"strings" // string manipulation utilities
	"time"    // timeouts and clocks
)

// Default lockout policy.
const (
	DefaultMaxAttempts   = 5
	DefaultLockoutWindow = 15 * time.Minute
)

// BruteForceGuard counts failed logins per identifier.  Each counted
// attempt refreshes the window, so an identifier stays locked until window
// has passed since its last attempt.
type BruteForceGuard struct {
	store       CounterStore
	maxAttempts int64
	window      time.Duration
}

// NewBruteForceGuard returns a guard over store.  Non-positive arguments
// fall back to the defaults.
func NewBruteForceGuard(store CounterStore, maxAttempts int, window time.Duration) *BruteForceGuard {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if window <= 0 {
		window = DefaultLockoutWindow
	}
	return &BruteForceGuard{store: store, maxAttempts: int64(maxAttempts), window: window}
}

func bruteForceKey(identifier string) string {
	return "login:" + strings.ToLower(strings.TrimSpace(identifier))
}

// RecordFailure increments the failure count and returns the new value.
func (g *BruteForceGuard) RecordFailure(ctx context.Context, identifier string) (int64, error) {
	return g.store.IncrWithTTL(ctx, bruteForceKey(identifier), g.window)
}

// TryAcquire reserves an attempt for identifier before its password is
// checked.  The reservation counts as a failure until Clear is called, so
// concurrent attempts can never evaluate more than MaxAttempts passwords per
// window.  allowed is false once the reservation is over the threshold;
// attempt is the reservation's position in the window.
func (g *BruteForceGuard) TryAcquire(ctx context.Context, identifier string) (attempt int64, allowed bool, err error) {
	n, err := g.store.IncrWithTTL(ctx, bruteForceKey(identifier), g.window)
	if err != nil {
		return 0, false, err
	}
	return n, n <= g.maxAttempts, nil
}

// IsLocked reports whether identifier has reached the failure threshold
// within the window.  An elapsed window reads as unlocked and resets the count.
func (g *BruteForceGuard) IsLocked(ctx context.Context, identifier string) (bool, error) {
	n, err := g.store.Get(ctx, bruteForceKey(identifier))
	if err != nil {
		return false, err
	}
	return n >= g.maxAttempts, nil
}

// Clear forgets all failures for identifier.
func (g *BruteForceGuard) Clear(ctx context.Context, identifier string) error {
	return g.store.Delete(ctx, bruteForceKey(identifier))
}

// MaxAttempts is the lockout threshold.
func (g *BruteForceGuard) MaxAttempts() int64 { return g.maxAttempts }
