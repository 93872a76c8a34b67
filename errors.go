package authcore

import "errors"

var (
	// ErrEngineNotReady is returned when an Engine method is called before
	// required collaborators were supplied to the Builder.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrInvalidInput is returned when a required field is missing or malformed.
	ErrInvalidInput = errors.New("invalid input")
	// ErrWeakPassword is returned when a password is shorter than the configured minimum.
	ErrWeakPassword = errors.New("password too weak")
	// ErrEmailTaken is returned on registration with an already registered email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned for both unknown-user and wrong-password
	// login failures. The two cases are deliberately indistinguishable to the
	// caller so failed logins cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrMissingToken is returned when an operation requires a token and none was supplied.
	ErrMissingToken = errors.New("token required")
	// ErrInvalidToken is returned when a refresh token fails lookup, verification,
	// or lost a rotation race.
	ErrInvalidToken = errors.New("invalid token")
	// ErrRevoked is returned by Validate for an access token that was explicitly logged out.
	ErrRevoked = errors.New("token revoked")
	// ErrUnauthorized is returned when no usable identity can be established.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when an identity is established but lacks the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrRateLimited is returned when the login throttle budget is exhausted.
	ErrRateLimited = errors.New("too many attempts, retry later")
	// ErrUserNotFound is returned by UserStore lookups that match no record.
	ErrUserNotFound = errors.New("user not found")
	// ErrRefreshMismatch is returned by UserStore.RotateRefreshToken when the
	// stored refresh token no longer equals the expected current value.
	ErrRefreshMismatch = errors.New("refresh token mismatch")
	// ErrServerError wraps unexpected collaborator failures (store
	// unreachable, hashing or signing failure) so internal detail never
	// reaches clients.
	ErrServerError = errors.New("server error")
)
