// Package ratelimit provides the process-wide throttle for outgoing
// metadata provider calls.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Throttle enforces a minimum spacing between requests. It is a token-less
// throttle: no two callers proceed closer together than the spacing,
// nothing more. Safe for concurrent use.
type Throttle struct {
	mu      sync.Mutex
	spacing time.Duration
	next    time.Time
}

// New creates a throttle with the given minimum spacing.
func New(spacing time.Duration) *Throttle {
	return &Throttle{spacing: spacing}
}

// Spacing returns the configured minimum spacing.
func (t *Throttle) Spacing() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.spacing
}

// Wait blocks until the caller may proceed, or until the context is done.
// Each caller reserves its slot under the lock, so the spacing invariant
// holds across all callers even when several wait at once.
func (t *Throttle) Wait(ctx context.Context) error {
	t.mu.Lock()
	now := time.Now()
	var delay time.Duration
	if now.Before(t.next) {
		delay = t.next.Sub(now)
		t.next = t.next.Add(t.spacing)
	} else {
		t.next = now.Add(t.spacing)
	}
	t.mu.Unlock()

	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
