package authcore

import (
	"context"
	"errors"

	"authcore/internal/rate"
)

// Login verifies credentials and issues an access+refresh pair. The
// refresh token is persisted as the user's single current value, which
// means a second login from another device invalidates the first device's
// refresh token — one active refresh chain per user is a product
// decision, not an accident.
//
// Unknown user and wrong password return the same [ErrInvalidCredentials]
// so the endpoint cannot be used to enumerate accounts. Attempts are
// throttled per client address (see [WithClientIP]); without one, the
// submitted email keys the throttle.
func (e *Engine) Login(ctx context.Context, email, plaintext string) (*TokenPair, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	email = normalizeEmail(email)
	ip := clientIPFromContext(ctx)
	if email == "" || plaintext == "" {
		return nil, ErrInvalidInput
	}

	throttleKey := ip
	if throttleKey == "" {
		throttleKey = email
	}
	if err := e.limiter.Allow(throttleKey); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			e.metricInc(MetricLoginRateLimited)
			e.emitAudit(auditEventLoginRateLimited, email, ip, false, ErrRateLimited, nil)
			return nil, ErrRateLimited
		}
		return nil, err
	}

	user, err := e.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.metricInc(MetricLoginFailure)
			e.emitAudit(auditEventLoginFailure, email, ip, false, ErrUserNotFound, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, serverFailure(err)
	}

	ok, err := e.hasher.Verify(plaintext, user.PasswordHash)
	if err != nil || !ok {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(auditEventLoginFailure, email, ip, false, ErrInvalidCredentials, nil)
		return nil, ErrInvalidCredentials
	}

	pair, err := e.issuePair(user)
	if err != nil {
		return nil, err
	}

	if err := e.store.SetRefreshToken(ctx, email, pair.RefreshToken); err != nil {
		return nil, serverFailure(err)
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(auditEventLoginSuccess, email, ip, true, nil, nil)
	return pair, nil
}

// issuePair signs a fresh access+refresh pair for the user's current
// session version.
func (e *Engine) issuePair(user *User) (*TokenPair, error) {
	access, err := e.codec.IssueAccess(user.Email, user.Role.String(), user.SessionVersion)
	if err != nil {
		return nil, serverFailure(err)
	}
	refresh, err := e.codec.IssueRefresh(user.Email)
	if err != nil {
		return nil, serverFailure(err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
