package authcore

import (
	"context"
	"errors"
)

// Validate authenticates an access token and returns the resolved
// identity. The checks run in a fixed order:
//
//  1. a missing token is ErrUnauthorized
//  2. a revoked token is ErrRevoked, before any parsing — revocation
//     wins even over expiry
//  3. signature/expiry failures are ErrForbidden
//  4. a user that no longer exists is ErrUnauthorized
//  5. a session version below the user's current counter is
//     ErrUnauthorized — the token predates a LogoutAll
//
// The user is re-resolved from the store on every call so role changes
// and session-version bumps take effect immediately; only the signature
// check is satisfied from the token itself.
func (e *Engine) Validate(ctx context.Context, accessToken string) (*Identity, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}
	if accessToken == "" {
		e.metricInc(MetricValidateRejected)
		return nil, ErrUnauthorized
	}

	if e.revoked.IsRevoked(accessToken) {
		e.metricInc(MetricValidateRejected)
		return nil, ErrRevoked
	}

	claims, err := e.codec.ParseAccess(accessToken)
	if err != nil {
		e.metricInc(MetricValidateRejected)
		return nil, ErrForbidden
	}

	user, err := e.store.FindByEmail(ctx, normalizeEmail(claims.Email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.metricInc(MetricValidateRejected)
			return nil, ErrUnauthorized
		}
		return nil, serverFailure(err)
	}

	if claims.SessionVersion != user.SessionVersion {
		e.metricInc(MetricValidateRejected)
		return nil, ErrUnauthorized
	}

	e.metricInc(MetricValidateSuccess)
	return &Identity{
		Email: user.Email,
		Role:  user.Role,
		User:  user,
	}, nil
}

// Authorize checks the identity against a required role. Roles are
// ordered, so an admin passes a user-gated check.
func (e *Engine) Authorize(identity *Identity, required Role) error {
	if identity == nil {
		return ErrUnauthorized
	}
	if !identity.Role.Satisfies(required) {
		return ErrForbidden
	}
	return nil
}
