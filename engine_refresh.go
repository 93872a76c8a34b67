package authcore

import (
	"context"
	"errors"
)

// Refresh exchanges a refresh token for a fresh access+refresh pair.
// Rotation is by replacement: the moment the new refresh token is stored,
// the presented one stops resolving, so each refresh-token value is
// single-use. The store write is a compare-and-set against the presented
// value, so of two concurrent refreshes with the same token exactly one
// succeeds and the loser gets [ErrInvalidToken] — no two valid refresh
// tokens ever coexist for one user.
//
// Every failure past the missing-token check maps to [ErrInvalidToken];
// whether the token was unknown, expired, forged or mismatched is for the
// audit log only.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}
	if refreshToken == "" {
		return nil, ErrMissingToken
	}

	ip := clientIPFromContext(ctx)

	user, err := e.store.FindByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.metricInc(MetricRefreshFailure)
			e.emitAudit(auditEventRefreshFailure, "", ip, false, err, map[string]string{"reason": "unknown_token"})
			return nil, ErrInvalidToken
		}
		return nil, serverFailure(err)
	}

	claims, err := e.codec.ParseRefresh(refreshToken)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(auditEventRefreshFailure, user.Email, ip, false, err, map[string]string{"reason": "verification"})
		return nil, ErrInvalidToken
	}
	// The stored token must have been issued for this exact user.
	if normalizeEmail(claims.Email) != user.Email {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(auditEventRefreshFailure, user.Email, ip, false, ErrInvalidToken, map[string]string{"reason": "owner_mismatch"})
		return nil, ErrInvalidToken
	}

	pair, err := e.issuePair(user)
	if err != nil {
		return nil, err
	}

	if err := e.store.RotateRefreshToken(ctx, user.Email, refreshToken, pair.RefreshToken); err != nil {
		switch {
		case errors.Is(err, ErrRefreshMismatch), errors.Is(err, ErrUserNotFound):
			// Lost the rotation race (or the user vanished): the presented
			// value is no longer the stored one.
			e.metricInc(MetricRefreshFailure)
			e.emitAudit(auditEventRefreshFailure, user.Email, ip, false, err, map[string]string{"reason": "rotation_race"})
			return nil, ErrInvalidToken
		default:
			return nil, serverFailure(err)
		}
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(auditEventRefreshSuccess, user.Email, ip, true, nil, nil)
	return pair, nil
}
