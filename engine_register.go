package authcore

import (
	"context"
	"errors"
)

// Register creates a new account with role user and session version 0.
// No tokens are issued; the caller logs in separately. The email is
// lower-cased and trimmed before any store interaction, so registration
// and login agree on identity regardless of submitted casing.
func (e *Engine) Register(ctx context.Context, email, plaintext string) (*User, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	email = normalizeEmail(email)
	if email == "" || plaintext == "" {
		e.metricInc(MetricRegisterRejected)
		return nil, ErrInvalidInput
	}
	if len(plaintext) < e.config.Password.MinLength {
		e.metricInc(MetricRegisterRejected)
		e.emitAudit(auditEventRegisterFailure, email, clientIPFromContext(ctx), false, ErrWeakPassword, nil)
		return nil, ErrWeakPassword
	}

	// Pre-check for a friendlier duplicate error; Create re-checks
	// atomically so a racing registration still maps to ErrEmailTaken.
	switch _, err := e.store.FindByEmail(ctx, email); {
	case err == nil:
		e.metricInc(MetricRegisterRejected)
		e.emitAudit(auditEventRegisterFailure, email, clientIPFromContext(ctx), false, ErrEmailTaken, nil)
		return nil, ErrEmailTaken
	case errors.Is(err, ErrUserNotFound):
	default:
		return nil, serverFailure(err)
	}

	hash, err := e.hasher.Hash(plaintext)
	if err != nil {
		return nil, serverFailure(err)
	}

	user, err := e.store.Create(ctx, email, hash, RoleUser)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			e.metricInc(MetricRegisterRejected)
			e.emitAudit(auditEventRegisterFailure, email, clientIPFromContext(ctx), false, err, nil)
			return nil, ErrEmailTaken
		}
		return nil, serverFailure(err)
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(auditEventRegisterSuccess, email, clientIPFromContext(ctx), true, nil, nil)
	return user, nil
}
