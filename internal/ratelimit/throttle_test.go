package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestThrottle_FirstCallDoesNotWait(t *testing.T) {
	throttle := New(100 * time.Millisecond)

	start := time.Now()
	if err := throttle.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("first Wait() took %v, want immediate", elapsed)
	}
}

func TestThrottle_EnforcesSpacing(t *testing.T) {
	spacing := 50 * time.Millisecond
	throttle := New(spacing)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := throttle.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}

	// Three calls: the first is immediate, the next two wait one spacing each.
	if elapsed := time.Since(start); elapsed < 2*spacing {
		t.Errorf("3 calls completed in %v, want at least %v", elapsed, 2*spacing)
	}
}

func TestThrottle_SpacingHoldsAcrossConcurrentCallers(t *testing.T) {
	spacing := 20 * time.Millisecond
	throttle := New(spacing)

	const callers = 5
	times := make([]time.Time, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := throttle.Wait(context.Background()); err != nil {
				t.Errorf("Wait() error = %v", err)
				return
			}
			times[i] = time.Now()
		}(i)
	}
	wg.Wait()

	// Sort completion times and verify pairwise spacing. A small tolerance
	// absorbs timer scheduling jitter.
	for i := 0; i < callers; i++ {
		for j := i + 1; j < callers; j++ {
			if times[j].Before(times[i]) {
				times[i], times[j] = times[j], times[i]
			}
		}
	}
	tolerance := 5 * time.Millisecond
	for i := 1; i < callers; i++ {
		if gap := times[i].Sub(times[i-1]); gap < spacing-tolerance {
			t.Errorf("calls %d and %d only %v apart, want >= %v", i-1, i, gap, spacing)
		}
	}
}

func TestThrottle_WaitHonorsContext(t *testing.T) {
	throttle := New(time.Hour)

	// Burn the free slot so the next call would block for an hour.
	if err := throttle.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := throttle.Wait(ctx)
	if err == nil {
		t.Fatal("Wait() = nil, want context error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cancelled Wait() took %v", elapsed)
	}
}
