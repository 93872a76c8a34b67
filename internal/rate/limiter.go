package rate

import (
	"sync"
	"time"
)

// Config holds throttle tuning parameters.
type Config struct {
	MaxAttempts int
	Window      time.Duration

	// Now overrides the clock, for tests. Nil means time.Now.
	Now func() time.Time
}

type window struct {
	start time.Time
	count int
}

// Limiter enforces a fixed attempt window per key (client IP or an
// equivalent identifier). The window starts at the first attempt for a
// key and resets once it elapses.
type Limiter struct {
	mu      sync.Mutex
	config  Config
	now     func() time.Time
	windows map[string]*window
}

// New creates a Limiter.
func New(cfg Config) *Limiter {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Limiter{
		config:  cfg,
		now:     now,
		windows: make(map[string]*window),
	}
}

// Allow records one attempt for key and returns ErrRateLimited when the
// attempt exceeds the budget for the current window. Check and increment
// are a single critical section, so two concurrent attempts cannot both
// claim the last slot.
func (l *Limiter) Allow(key string) error {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.config.Window {
		l.windows[key] = &window{start: now, count: 1}
		return nil
	}

	w.count++
	if w.count > l.config.MaxAttempts {
		return ErrRateLimited
	}
	return nil
}

// Reset clears the window for key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// Prune drops windows that have already elapsed and reports how many were
// removed. Optional housekeeping; correctness never depends on it because
// Allow restarts elapsed windows on contact.
func (l *Limiter) Prune() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	dropped := 0
	for key, w := range l.windows {
		if now.Sub(w.start) >= l.config.Window {
			delete(l.windows, key)
			dropped++
		}
	}
	return dropped
}
