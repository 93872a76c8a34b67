package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"authcore"
)

// Store implements authcore.UserStore over in-process maps.
type Store struct {
	mu        sync.Mutex
	byEmail   map[string]*authcore.User
	byRefresh map[string]string // refresh token -> email
	now       func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		byEmail:   make(map[string]*authcore.User),
		byRefresh: make(map[string]string),
		now:       time.Now,
	}
}

// FindByEmail implements authcore.UserStore.
func (s *Store) FindByEmail(ctx context.Context, email string) (*authcore.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byEmail[email]
	if !ok {
		return nil, authcore.ErrUserNotFound
	}
	return cloneUser(u), nil
}

// FindByRefreshToken implements authcore.UserStore.
func (s *Store) FindByRefreshToken(ctx context.Context, token string) (*authcore.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token == "" {
		return nil, authcore.ErrUserNotFound
	}
	email, ok := s.byRefresh[token]
	if !ok {
		return nil, authcore.ErrUserNotFound
	}
	return cloneUser(s.byEmail[email]), nil
}

// Create implements authcore.UserStore.
func (s *Store) Create(ctx context.Context, email, passwordHash string, role authcore.Role) (*authcore.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[email]; ok {
		return nil, authcore.ErrEmailTaken
	}

	now := s.now()
	u := &authcore.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.byEmail[email] = u
	return cloneUser(u), nil
}

// SetRefreshToken implements authcore.UserStore.
func (s *Store) SetRefreshToken(ctx context.Context, email, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byEmail[email]
	if !ok {
		return authcore.ErrUserNotFound
	}

	s.replaceRefreshLocked(u, token)
	return nil
}

// RotateRefreshToken implements authcore.UserStore. The compare half of
// the compare-and-set runs under the store mutex, so of two concurrent
// rotations from the same current value exactly one succeeds.
func (s *Store) RotateRefreshToken(ctx context.Context, email, current, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byEmail[email]
	if !ok {
		return authcore.ErrUserNotFound
	}
	if u.RefreshToken != current {
		return authcore.ErrRefreshMismatch
	}

	s.replaceRefreshLocked(u, next)
	return nil
}

// BumpSessionVersion implements authcore.UserStore.
func (s *Store) BumpSessionVersion(ctx context.Context, email string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byEmail[email]
	if !ok {
		return 0, authcore.ErrUserNotFound
	}

	u.SessionVersion++
	s.replaceRefreshLocked(u, "")
	return u.SessionVersion, nil
}

func (s *Store) replaceRefreshLocked(u *authcore.User, token string) {
	if u.RefreshToken != "" {
		delete(s.byRefresh, u.RefreshToken)
	}
	u.RefreshToken = token
	u.UpdatedAt = s.now()
	if token != "" {
		s.byRefresh[token] = u.Email
	}
}

func cloneUser(u *authcore.User) *authcore.User {
	if u == nil {
		return nil
	}
	copied := *u
	return &copied
}

// Seed creates a user with an already-hashed password, for bootstrapping
// examples and tests with a known account.
func Seed(ctx context.Context, s *Store, hasher authcore.Hasher, email, plaintext string, role authcore.Role) (*authcore.User, error) {
	hash, err := hasher.Hash(plaintext)
	if err != nil {
		return nil, err
	}
	return s.Create(ctx, email, hash, role)
}
