package authcore

import (
	"context"
	"errors"
	"testing"
	"time"

	"authcore/jwt"
)

func TestLoginSuccessIssuesPair(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	clock := newTestClock()
	engine := newTestEngine(t, testEngineConfig(), store, clock)

	pair := registerAndLogin(t, engine, "a@x.com", "longpass1")
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens")
	}

	// The refresh token is persisted as the user's single current value.
	u, err := store.FindByRefreshToken(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh token not persisted: %v", err)
	}
	if u.Email != "a@x.com" {
		t.Fatalf("refresh token persisted for wrong user %q", u.Email)
	}

	// The access token carries the session version current at issuance.
	claims, err := engine.codec.ParseAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccess failed: %v", err)
	}
	if claims.SessionVersion != u.SessionVersion {
		t.Fatalf("claims version %d != user version %d", claims.SessionVersion, u.SessionVersion)
	}
}

func TestLoginEnumerationSafe(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, testEngineConfig(), newMockStore(), newTestClock())

	if _, err := engine.Register(ctx, "a@x.com", "longpass1"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	_, unknownUser := engine.Login(ctx, "nobody@x.com", "longpass1")
	_, wrongPassword := engine.Login(ctx, "a@x.com", "wrongpass1")

	if !errors.Is(unknownUser, ErrInvalidCredentials) || !errors.Is(wrongPassword, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for both, got %v / %v", unknownUser, wrongPassword)
	}
	if unknownUser.Error() != wrongPassword.Error() {
		t.Fatal("unknown-user and wrong-password must be indistinguishable")
	}
}

func TestLoginCaseInsensitiveEmail(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, testEngineConfig(), newMockStore(), newTestClock())

	if _, err := engine.Register(ctx, "A@X.com", "longpass1"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := engine.Login(ctx, "a@x.COM", "longpass1"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
}

func TestLoginRateLimited(t *testing.T) {
	store := newMockStore()
	clock := newTestClock()
	cfg := testEngineConfig()
	cfg.Security.MaxLoginAttempts = 3
	cfg.Security.LoginWindow = 15 * time.Minute
	engine := newTestEngine(t, cfg, store, clock)

	ctx := WithClientIP(context.Background(), "10.0.0.1")
	if _, err := engine.Register(ctx, "a@x.com", "longpass1"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		engine.Login(ctx, "a@x.com", "wrongpass1")
	}
	if _, err := engine.Login(ctx, "a@x.com", "longpass1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	// Other clients are unaffected.
	otherCtx := WithClientIP(context.Background(), "10.0.0.2")
	if _, err := engine.Login(otherCtx, "a@x.com", "longpass1"); err != nil {
		t.Fatalf("other client should not be throttled, got %v", err)
	}

	// The window resets after it elapses.
	clock.Advance(15 * time.Minute)
	if _, err := engine.Login(ctx, "a@x.com", "longpass1"); err != nil {
		t.Fatalf("expected fresh window after elapse, got %v", err)
	}
}

func TestLoginThrottleDoesNotGateRefresh(t *testing.T) {
	store := newMockStore()
	clock := newTestClock()
	cfg := testEngineConfig()
	cfg.Security.MaxLoginAttempts = 1
	engine := newTestEngine(t, cfg, store, clock)

	ctx := WithClientIP(context.Background(), "10.0.0.9")
	if _, err := engine.Register(ctx, "a@x.com", "longpass1"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	pair, err := engine.Login(ctx, "a@x.com", "longpass1")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	// Login budget for this client is now spent...
	if _, err := engine.Login(ctx, "a@x.com", "longpass1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	// ...but refresh is outside the throttle's scope.
	if _, err := engine.Refresh(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("Refresh must not be throttled, got %v", err)
	}
}

func TestSecondLoginReplacesRefreshToken(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	engine := newTestEngine(t, testEngineConfig(), store, newTestClock())

	first := registerAndLogin(t, engine, "a@x.com", "longpass1")
	second, err := engine.Login(ctx, "a@x.com", "longpass1")
	if err != nil {
		t.Fatalf("second Login failed: %v", err)
	}
	if first.RefreshToken == second.RefreshToken {
		t.Fatal("expected distinct refresh tokens per login")
	}

	// The first device's refresh chain is cut by the overwrite.
	if _, err := engine.Refresh(ctx, first.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for superseded refresh token, got %v", err)
	}
	if _, err := engine.Refresh(ctx, second.RefreshToken); err != nil {
		t.Fatalf("current refresh token must work, got %v", err)
	}
}

func TestLoginMissingFields(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, testEngineConfig(), newMockStore(), newTestClock())

	if _, err := engine.Login(ctx, "", "longpass1"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := engine.Login(ctx, "a@x.com", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestLoginTokenLifetimes(t *testing.T) {
	store := newMockStore()
	clock := newTestClock()
	engine := newTestEngine(t, testEngineConfig(), store, clock)

	pair := registerAndLogin(t, engine, "a@x.com", "longpass1")

	access, err := engine.codec.ParseAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccess failed: %v", err)
	}
	if got := access.ExpiresAt.Sub(access.IssuedAt.Time); got != time.Hour {
		t.Fatalf("expected 1h access lifetime, got %v", got)
	}

	refresh, err := engine.codec.ParseRefresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("ParseRefresh failed: %v", err)
	}
	if got := refresh.ExpiresAt.Sub(refresh.IssuedAt.Time); got != 7*24*time.Hour {
		t.Fatalf("expected 7d refresh lifetime, got %v", got)
	}

	// Past its lifetime the access token stops verifying.
	clock.Advance(2 * time.Hour)
	if _, err := engine.codec.ParseAccess(pair.AccessToken); !errors.Is(err, jwt.ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}
