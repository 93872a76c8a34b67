package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"authcore"
)

// Integration tests run only when AUTHCORE_POSTGRES_DSN points at a
// database, e.g.
//
//	AUTHCORE_POSTGRES_DSN=postgres://localhost/authcore_test go test ./stores/postgres
func newIntegrationStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("AUTHCORE_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("AUTHCORE_POSTGRES_DSN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("pgxpool.New: %v", err)
	}
	t.Cleanup(pool.Close)

	s := New(pool)
	if err := s.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE users`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return s
}

func TestIntegrationCreateFindRotate(t *testing.T) {
	ctx := context.Background()
	s := newIntegrationStore(t)

	u, err := s.Create(ctx, "a@x.com", "hash", authcore.RoleUser)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if u.ID == "" || u.SessionVersion != 0 {
		t.Fatalf("unexpected record %+v", u)
	}

	if _, err := s.Create(ctx, "a@x.com", "hash", authcore.RoleUser); !errors.Is(err, authcore.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	if err := s.SetRefreshToken(ctx, "a@x.com", "tok-1"); err != nil {
		t.Fatalf("SetRefreshToken failed: %v", err)
	}
	if _, err := s.FindByRefreshToken(ctx, "tok-1"); err != nil {
		t.Fatalf("FindByRefreshToken failed: %v", err)
	}

	if err := s.RotateRefreshToken(ctx, "a@x.com", "tok-1", "tok-2"); err != nil {
		t.Fatalf("RotateRefreshToken failed: %v", err)
	}
	if err := s.RotateRefreshToken(ctx, "a@x.com", "tok-1", "tok-3"); !errors.Is(err, authcore.ErrRefreshMismatch) {
		t.Fatalf("expected ErrRefreshMismatch, got %v", err)
	}

	v, err := s.BumpSessionVersion(ctx, "a@x.com")
	if err != nil || v != 1 {
		t.Fatalf("BumpSessionVersion: v=%d err=%v", v, err)
	}
	after, _ := s.FindByEmail(ctx, "a@x.com")
	if after.RefreshToken != "" {
		t.Fatal("bump must clear the stored refresh token")
	}
}

func TestIntegrationConcurrentRotate(t *testing.T) {
	ctx := context.Background()
	s := newIntegrationStore(t)

	if _, err := s.Create(ctx, "race@x.com", "hash", authcore.RoleUser); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := s.SetRefreshToken(ctx, "race@x.com", "current"); err != nil {
		t.Fatalf("SetRefreshToken failed: %v", err)
	}

	var wins atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			next := fmt.Sprintf("next-%d", n)
			if s.RotateRefreshToken(ctx, "race@x.com", "current", next) == nil {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if got := wins.Load(); got != 1 {
		t.Fatalf("expected exactly one winning rotation, got %d", got)
	}
}
