package authcore

import (
	"context"
	"errors"

	"authcore/jwt"
)

// Logout revokes the presented access token and cuts the user's refresh
// chain, forcing full re-authentication. Other unexpired access tokens
// for the same user stay valid; LogoutAll is the bulk mechanism.
//
// The only client-visible failure is [ErrMissingToken]: logging out with
// a token the engine cannot attribute still revokes the exact string, it
// just cannot clear a refresh token for an unknown owner.
func (e *Engine) Logout(ctx context.Context, accessToken string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}
	if accessToken == "" {
		return ErrMissingToken
	}

	ip := clientIPFromContext(ctx)

	claims, err := e.codec.ParseAccess(accessToken)
	if err != nil && !errors.Is(err, jwt.ErrExpired) {
		// Unattributable token: deny the string itself, bounded by the
		// longest possible remaining access lifetime.
		e.revoked.Revoke(accessToken, e.now().Add(e.config.JWT.AccessTTL))
		e.metricInc(MetricLogout)
		e.emitAudit(auditEventLogout, "", ip, true, nil, map[string]string{"reason": "unattributed"})
		return nil
	}

	expiresAt := e.now().Add(e.config.JWT.AccessTTL)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	e.revoked.Revoke(accessToken, expiresAt)

	email := normalizeEmail(claims.Email)
	if err := e.store.SetRefreshToken(ctx, email, ""); err != nil && !errors.Is(err, ErrUserNotFound) {
		return serverFailure(err)
	}

	e.metricInc(MetricLogout)
	e.emitAudit(auditEventLogout, email, ip, true, nil, nil)
	return nil
}

// LogoutAll bumps the user's session version, which invalidates every
// access token issued before this call — including tokens this process
// never saw — and clears the stored refresh token in the same atomic
// store operation. The presented token must verify, since it is the proof
// of identity for the bulk invalidation.
func (e *Engine) LogoutAll(ctx context.Context, accessToken string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}
	if accessToken == "" {
		return ErrMissingToken
	}

	ip := clientIPFromContext(ctx)

	claims, err := e.codec.ParseAccess(accessToken)
	if err != nil {
		e.emitAudit(auditEventLogoutAll, "", ip, false, err, nil)
		return ErrUnauthorized
	}

	email := normalizeEmail(claims.Email)
	if _, err := e.store.BumpSessionVersion(ctx, email); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.emitAudit(auditEventLogoutAll, email, ip, false, err, nil)
			return ErrUserNotFound
		}
		return serverFailure(err)
	}

	e.metricInc(MetricLogoutAll)
	e.emitAudit(auditEventLogoutAll, email, ip, true, nil, nil)
	return nil
}
