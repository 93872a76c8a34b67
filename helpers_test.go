package authcore

import (
	"context"
	"sync"
	"testing"
	"time"
)

// testClock is a hand-advanced clock shared by the engine and its
// subcomponents in tests.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// mockStore is a map-backed UserStore for engine tests, mirroring the
// semantics required of real adapters.
type mockStore struct {
	mu        sync.Mutex
	byEmail   map[string]*User
	byRefresh map[string]string
	failWith  error // when set, every call fails with this error
	nextID    int
}

func newMockStore() *mockStore {
	return &mockStore{
		byEmail:   map[string]*User{},
		byRefresh: map[string]string{},
	}
}

func (s *mockStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	u, ok := s.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *mockStore) FindByRefreshToken(ctx context.Context, token string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	email, ok := s.byRefresh[token]
	if token == "" || !ok {
		return nil, ErrUserNotFound
	}
	copied := *s.byEmail[email]
	return &copied, nil
}

func (s *mockStore) Create(ctx context.Context, email, passwordHash string, role Role) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	if _, ok := s.byEmail[email]; ok {
		return nil, ErrEmailTaken
	}
	s.nextID++
	u := &User{
		ID:           string(rune('a' + s.nextID)),
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
	}
	s.byEmail[email] = u
	copied := *u
	return &copied, nil
}

func (s *mockStore) SetRefreshToken(ctx context.Context, email, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	u, ok := s.byEmail[email]
	if !ok {
		return ErrUserNotFound
	}
	s.replaceRefreshLocked(u, token)
	return nil
}

func (s *mockStore) RotateRefreshToken(ctx context.Context, email, current, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	u, ok := s.byEmail[email]
	if !ok {
		return ErrUserNotFound
	}
	if u.RefreshToken != current {
		return ErrRefreshMismatch
	}
	s.replaceRefreshLocked(u, next)
	return nil
}

func (s *mockStore) BumpSessionVersion(ctx context.Context, email string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return 0, s.failWith
	}
	u, ok := s.byEmail[email]
	if !ok {
		return 0, ErrUserNotFound
	}
	u.SessionVersion++
	s.replaceRefreshLocked(u, "")
	return u.SessionVersion, nil
}

func (s *mockStore) replaceRefreshLocked(u *User, token string) {
	if u.RefreshToken != "" {
		delete(s.byRefresh, u.RefreshToken)
	}
	u.RefreshToken = token
	if token != "" {
		s.byRefresh[token] = u.Email
	}
}

// plainHasher avoids argon2 cost in engine tests; codec and policy
// behavior is what these tests exercise.
type plainHasher struct{}

func (plainHasher) Hash(plaintext string) (string, error) { return "plain:" + plaintext, nil }

func (plainHasher) Verify(plaintext, encoded string) (bool, error) {
	return encoded == "plain:"+plaintext, nil
}

func testEngineConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.PrivateKey = []byte("test-secret")
	return cfg
}

func newTestEngine(t *testing.T, cfg Config, store UserStore, clock *testClock) *Engine {
	t.Helper()

	engine, err := New().
		WithConfig(cfg).
		WithUserStore(store).
		WithHasher(plainHasher{}).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

// registerAndLogin is shorthand for tests that need an authenticated user.
func registerAndLogin(t *testing.T, engine *Engine, email, password string) *TokenPair {
	t.Helper()

	ctx := context.Background()
	if _, err := engine.Register(ctx, email, password); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	pair, err := engine.Login(ctx, email, password)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	return pair
}
