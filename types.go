package authcore

import (
	"context"
	"time"
)

// User is the account record consumed from the external [UserStore].
// The Engine is the only writer of RefreshToken and SessionVersion; it
// mutates them exclusively through the store's atomic operations.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role

	// RefreshToken is the single currently valid refresh token for the
	// user, empty when none. Issuing a new one invalidates the previous
	// value by replacement.
	RefreshToken string

	// SessionVersion is a monotonic counter. Bumping it invalidates every
	// access token issued before the bump without enumerating them.
	SessionVersion int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TokenPair is returned by Login and Refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Identity is the authenticated principal attached to a request by
// [Engine.Validate].
type Identity struct {
	Email string
	Role  Role
	User  *User
}

// UserStore is the persistent-storage collaborator. Implementations must
// keep email unique (case handling is the Engine's concern: emails arrive
// lower-cased and trimmed) and must make the refresh-token and
// session-version mutations atomic per record, so that two concurrent
// rotations can never both succeed.
//
// Adapters for an in-memory map, Redis and Postgres are provided under
// stores/.
type UserStore interface {
	// FindByEmail returns the user for an email, or ErrUserNotFound.
	FindByEmail(ctx context.Context, email string) (*User, error)
	// FindByRefreshToken returns the user whose stored refresh token equals
	// the exact value, or ErrUserNotFound.
	FindByRefreshToken(ctx context.Context, token string) (*User, error)
	// Create persists a new user with session version 0 and no refresh
	// token. Returns ErrEmailTaken when the email is already registered.
	Create(ctx context.Context, email, passwordHash string, role Role) (*User, error)
	// SetRefreshToken unconditionally replaces the stored refresh token.
	// An empty token clears it.
	SetRefreshToken(ctx context.Context, email, token string) error
	// RotateRefreshToken replaces current with next only if current is
	// still the stored value (compare-and-set). Returns ErrRefreshMismatch
	// when the stored value changed underneath, ErrUserNotFound when the
	// user is gone.
	RotateRefreshToken(ctx context.Context, email, current, next string) error
	// BumpSessionVersion atomically increments the session version and
	// clears the stored refresh token, returning the new version.
	BumpSessionVersion(ctx context.Context, email string) (int64, error)
}

// Hasher is the password-hashing collaborator. The default implementation
// is [password.Argon2].
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, encoded string) (bool, error)
}
