package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"authcore"
)

type identityContextKey struct{}

// IdentityFromContext returns the identity attached by [Guard].
func IdentityFromContext(ctx context.Context) (*authcore.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey{}).(*authcore.Identity)
	return identity, ok
}

// Guard returns middleware that authenticates the request's bearer token
// and enforces the required role. Revoked and verification failures map
// to 403, missing identity to 401, per the engine's error taxonomy.
func Guard(engine *authcore.Engine, required authcore.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := BearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			identity, err := engine.Validate(r.Context(), token)
			if err != nil {
				status, message := statusForError(err)
				http.Error(w, message, status)
				return
			}

			if err := engine.Authorize(identity, required); err != nil {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}
	return token, true
}

func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, authcore.ErrRevoked):
		return http.StatusForbidden, "revoked"
	case errors.Is(err, authcore.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, authcore.ErrServerError):
		return http.StatusInternalServerError, "server error"
	default:
		return http.StatusUnauthorized, "unauthorized"
	}
}
