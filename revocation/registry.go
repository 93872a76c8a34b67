package revocation

import (
	"sync"
	"time"
)

// Config tunes the registry. Now overrides the clock for tests; nil means
// time.Now.
type Config struct {
	Now func() time.Time
}

// Registry is a concurrent-safe set of revoked token strings. Insert and
// membership check are safe under concurrent access; Sweep may run from a
// background janitor independent of request handling.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	now     func() time.Time
}

// New returns an empty registry.
func New(cfg Config) *Registry {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Registry{
		entries: make(map[string]time.Time),
		now:     now,
	}
}

// Revoke inserts a token. Idempotent: re-revoking keeps the later expiry
// so an entry is never dropped before its token's natural expiry.
// A zero expiresAt marks the entry as unsweepable.
func (r *Registry) Revoke(token string, expiresAt time.Time) {
	if token == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.entries[token]
	if ok && (current.IsZero() || !expiresAt.IsZero() && current.After(expiresAt)) {
		return
	}
	r.entries[token] = expiresAt
}

// IsRevoked reports membership. Entries past their expiry still report
// revoked until swept; the codec rejects them as expired anyway.
func (r *Registry) IsRevoked(token string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.entries[token]
	return ok
}

// Sweep removes entries whose token expiry has passed and reports how many
// were dropped.
func (r *Registry) Sweep() int {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	dropped := 0
	for token, expiresAt := range r.entries {
		if !expiresAt.IsZero() && expiresAt.Before(now) {
			delete(r.entries, token)
			dropped++
		}
	}
	return dropped
}

// Len reports the current entry count.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
