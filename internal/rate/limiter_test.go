package rate

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestLimiter(maxAttempts int, windowDur time.Duration, clock *time.Time) *Limiter {
	return New(Config{
		MaxAttempts: maxAttempts,
		Window:      windowDur,
		Now:         func() time.Time { return *clock },
	})
}

func TestAllowWithinBudget(t *testing.T) {
	clock := time.Now()
	l := newTestLimiter(5, 15*time.Minute, &clock)

	for i := 0; i < 5; i++ {
		if err := l.Allow("1.2.3.4"); err != nil {
			t.Fatalf("attempt %d: unexpected error %v", i+1, err)
		}
	}
	if err := l.Allow("1.2.3.4"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited on attempt 6, got %v", err)
	}
}

func TestKeysAreIndependent(t *testing.T) {
	clock := time.Now()
	l := newTestLimiter(1, time.Minute, &clock)

	if err := l.Allow("a"); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if err := l.Allow("b"); err != nil {
		t.Fatalf("key b must have its own window, got %v", err)
	}
	if err := l.Allow("a"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected key a to be limited, got %v", err)
	}
}

func TestWindowResetsAfterElapse(t *testing.T) {
	clock := time.Now()
	l := newTestLimiter(2, 15*time.Minute, &clock)

	l.Allow("k")
	l.Allow("k")
	if err := l.Allow("k"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	clock = clock.Add(15 * time.Minute)
	if err := l.Allow("k"); err != nil {
		t.Fatalf("expected fresh window after elapse, got %v", err)
	}
}

func TestReset(t *testing.T) {
	clock := time.Now()
	l := newTestLimiter(1, time.Minute, &clock)

	l.Allow("k")
	if err := l.Allow("k"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	l.Reset("k")
	if err := l.Allow("k"); err != nil {
		t.Fatalf("expected success after reset, got %v", err)
	}
}

func TestPrune(t *testing.T) {
	clock := time.Now()
	l := newTestLimiter(5, time.Minute, &clock)

	l.Allow("a")
	l.Allow("b")
	if dropped := l.Prune(); dropped != 0 {
		t.Fatalf("nothing should be prunable yet, dropped %d", dropped)
	}

	clock = clock.Add(2 * time.Minute)
	if dropped := l.Prune(); dropped != 2 {
		t.Fatalf("expected 2 pruned windows, got %d", dropped)
	}
}

func TestConcurrentAllowNeverOverAdmits(t *testing.T) {
	clock := time.Now()
	l := newTestLimiter(50, time.Hour, &clock)

	var admitted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if l.Allow("shared") == nil {
					admitted.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	if got := admitted.Load(); got != 50 {
		t.Fatalf("expected exactly 50 admitted attempts, got %d", got)
	}
}
