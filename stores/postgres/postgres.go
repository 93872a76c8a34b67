package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"authcore"
)

// Schema creates the users table. Hosts that manage migrations themselves
// can apply it through their own tooling instead of Init.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
    id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    email           TEXT NOT NULL UNIQUE,
    password_hash   TEXT NOT NULL,
    role            TEXT NOT NULL DEFAULT 'user',
    refresh_token   TEXT,
    session_version BIGINT NOT NULL DEFAULT 0,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS users_refresh_token_idx
    ON users (refresh_token) WHERE refresh_token IS NOT NULL;
`

const userColumns = `id, email, password_hash, role, COALESCE(refresh_token, ''), session_version, created_at, updated_at`

// Store implements authcore.UserStore over a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store. The pool is owned by the caller.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Init applies Schema.
func (s *Store) Init(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, Schema)
	return err
}

func scanUser(row pgx.Row) (*authcore.User, error) {
	var u authcore.User
	var role string
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&role,
		&u.RefreshToken,
		&u.SessionVersion,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, authcore.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	u.Role, err = authcore.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("corrupt user record: %w", err)
	}
	return &u, nil
}

// FindByEmail implements authcore.UserStore.
func (s *Store) FindByEmail(ctx context.Context, email string) (*authcore.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// FindByRefreshToken implements authcore.UserStore.
func (s *Store) FindByRefreshToken(ctx context.Context, token string) (*authcore.User, error) {
	if token == "" {
		return nil, authcore.ErrUserNotFound
	}
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE refresh_token = $1`, token)
	return scanUser(row)
}

// Create implements authcore.UserStore.
func (s *Store) Create(ctx context.Context, email, passwordHash string, role authcore.Role) (*authcore.User, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, role)
		 VALUES ($1, $2, $3)
		 RETURNING `+userColumns, email, passwordHash, role.String())

	u, err := scanUser(row)
	if isUniqueViolation(err) {
		return nil, authcore.ErrEmailTaken
	}
	return u, err
}

// SetRefreshToken implements authcore.UserStore.
func (s *Store) SetRefreshToken(ctx context.Context, email, token string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET refresh_token = NULLIF($1, ''), updated_at = now()
		 WHERE email = $2`, token, email)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return authcore.ErrUserNotFound
	}
	return nil
}

// RotateRefreshToken implements authcore.UserStore. The WHERE clause is
// the compare half of the compare-and-set: of two concurrent rotations
// from the same current value, the second sees zero affected rows.
func (s *Store) RotateRefreshToken(ctx context.Context, email, current, next string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET refresh_token = NULLIF($1, ''), updated_at = now()
		 WHERE email = $2 AND COALESCE(refresh_token, '') = $3`, next, email, current)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing user from a lost race.
		if _, lookupErr := s.FindByEmail(ctx, email); errors.Is(lookupErr, authcore.ErrUserNotFound) {
			return authcore.ErrUserNotFound
		}
		return authcore.ErrRefreshMismatch
	}
	return nil
}

// BumpSessionVersion implements authcore.UserStore.
func (s *Store) BumpSessionVersion(ctx context.Context, email string) (int64, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE users
		 SET session_version = session_version + 1,
		     refresh_token = NULL,
		     updated_at = now()
		 WHERE email = $1
		 RETURNING session_version`, email)

	var version int64
	if err := row.Scan(&version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, authcore.ErrUserNotFound
		}
		return 0, err
	}
	return version, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" // unique_violation
}
