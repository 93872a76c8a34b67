package authcore

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"authcore/internal/rate"
	"authcore/jwt"
	"authcore/revocation"
)

// Engine orchestrates the token lifecycle: registration, login, refresh
// rotation, logout and bulk invalidation. Configure it once through the
// [Builder]; a built Engine is immutable and safe for concurrent use.
type Engine struct {
	config  Config
	store   UserStore
	hasher  Hasher
	codec   *jwt.Manager
	revoked *revocation.Registry
	limiter *rate.Limiter
	metrics *Metrics
	audit   *auditDispatcher
	now     func() time.Time

	janitorStop chan struct{}
	janitorWG   sync.WaitGroup
	closeOnce   sync.Once
}

// Close stops the background janitor (if configured) and flushes the
// audit queue. The Engine must not be used afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.closeOnce.Do(func() {
		if e.janitorStop != nil {
			close(e.janitorStop)
			e.janitorWG.Wait()
		}
		e.audit.Close()
	})
}

// MetricsSnapshot returns a point-in-time copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

// AuditDropped reports how many audit events were discarded because the
// queue was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// RevokedCount reports the current size of the revocation registry.
func (e *Engine) RevokedCount() int {
	if e == nil {
		return 0
	}
	return e.revoked.Len()
}

func (e *Engine) startJanitor(interval time.Duration) {
	e.janitorStop = make(chan struct{})
	e.janitorWG.Add(1)

	go func() {
		defer e.janitorWG.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				e.revoked.Sweep()
				e.limiter.Prune()
			case <-e.janitorStop:
				return
			}
		}
	}()
}

func (e *Engine) metricInc(id MetricID) {
	e.metrics.Inc(id)
}

func (e *Engine) emitAudit(eventType, email, ip string, success bool, opErr error, metadata map[string]string) {
	if e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: e.now(),
		EventType: eventType,
		Email:     email,
		IP:        ip,
		Success:   success,
		Metadata:  metadata,
	}
	if opErr != nil {
		event.Error = opErr.Error()
	}
	e.audit.Emit(event)
}

// serverFailure wraps unexpected collaborator errors so internal detail is
// available to operators via errors.Unwrap but never shapes the client
// response beyond a generic server error.
func serverFailure(err error) error {
	return fmt.Errorf("%w: %v", ErrServerError, err)
}

// normalizeEmail is applied before every store call: emails are identity
// keys and must compare case-insensitively and ignore padding.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
