package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"authcore"
)

// ErrRedisUnavailable wraps transport-level Redis failures.
var ErrRedisUnavailable = errors.New("redis unavailable")

const (
	statusUserMissing int64 = -1
	statusMismatch    int64 = 0
	statusOK          int64 = 1
)

// createUserScript creates the user hash only if the email key is free.
const createUserScript = `
if redis.call("EXISTS", KEYS[1]) == 1 then
  return 0
end
redis.call("HSET", KEYS[1],
  "id", ARGV[1],
  "email", ARGV[2],
  "password_hash", ARGV[3],
  "role", ARGV[4],
  "refresh_token", "",
  "session_version", "0",
  "created_at", ARGV[5],
  "updated_at", ARGV[5])
return 1
`

// setRefreshScript unconditionally replaces the stored refresh token and
// keeps the token index in step. ARGV[1] prefix, ARGV[2] next token,
// ARGV[3] email, ARGV[4] updated_at.
const setRefreshScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return -1
end
local old = redis.call("HGET", KEYS[1], "refresh_token")
if old and old ~= "" then
  redis.call("DEL", ARGV[1] .. "refresh:" .. old)
end
redis.call("HSET", KEYS[1], "refresh_token", ARGV[2], "updated_at", ARGV[4])
if ARGV[2] ~= "" then
  redis.call("SET", ARGV[1] .. "refresh:" .. ARGV[2], ARGV[3])
end
return 1
`

// rotateRefreshScript is setRefreshScript guarded by a compare against the
// expected current value. ARGV[1] prefix, ARGV[2] current, ARGV[3] next,
// ARGV[4] email, ARGV[5] updated_at.
const rotateRefreshScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return -1
end
local old = redis.call("HGET", KEYS[1], "refresh_token")
if old ~= ARGV[2] then
  return 0
end
if old and old ~= "" then
  redis.call("DEL", ARGV[1] .. "refresh:" .. old)
end
redis.call("HSET", KEYS[1], "refresh_token", ARGV[3], "updated_at", ARGV[5])
if ARGV[3] ~= "" then
  redis.call("SET", ARGV[1] .. "refresh:" .. ARGV[3], ARGV[4])
end
return 1
`

// bumpVersionScript increments session_version and clears the refresh
// token in the same script, so no token issued against the old version can
// slip in between. ARGV[1] prefix, ARGV[2] updated_at.
const bumpVersionScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return -1
end
local old = redis.call("HGET", KEYS[1], "refresh_token")
if old and old ~= "" then
  redis.call("DEL", ARGV[1] .. "refresh:" .. old)
end
redis.call("HSET", KEYS[1], "refresh_token", "", "updated_at", ARGV[2])
return redis.call("HINCRBY", KEYS[1], "session_version", 1)
`

var (
	createUserLua    = redis.NewScript(createUserScript)
	setRefreshLua    = redis.NewScript(setRefreshScript)
	rotateRefreshLua = redis.NewScript(rotateRefreshScript)
	bumpVersionLua   = redis.NewScript(bumpVersionScript)
)

// Config holds adapter settings.
type Config struct {
	// Prefix namespaces all keys, e.g. "authcore:".
	Prefix string
}

// Store implements authcore.UserStore over a Redis client.
type Store struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// New creates a Store backed by the given client.
func New(client redis.UniversalClient, cfg Config) *Store {
	return &Store{
		client: client,
		prefix: cfg.Prefix,
		now:    time.Now,
	}
}

func (s *Store) userKey(email string) string    { return s.prefix + "user:" + email }
func (s *Store) refreshKey(token string) string { return s.prefix + "refresh:" + token }

// FindByEmail implements authcore.UserStore.
func (s *Store) FindByEmail(ctx context.Context, email string) (*authcore.User, error) {
	fields, err := s.client.HGetAll(ctx, s.userKey(email)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, authcore.ErrUserNotFound
	}
	return decodeUser(fields)
}

// FindByRefreshToken implements authcore.UserStore.
func (s *Store) FindByRefreshToken(ctx context.Context, token string) (*authcore.User, error) {
	if token == "" {
		return nil, authcore.ErrUserNotFound
	}

	email, err := s.client.Get(ctx, s.refreshKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, authcore.ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return s.FindByEmail(ctx, email)
}

// Create implements authcore.UserStore.
func (s *Store) Create(ctx context.Context, email, passwordHash string, role authcore.Role) (*authcore.User, error) {
	now := s.now()
	id := uuid.NewString()

	created, err := createUserLua.Run(ctx, s.client,
		[]string{s.userKey(email)},
		id, email, passwordHash, role.String(), strconv.FormatInt(now.Unix(), 10),
	).Int64()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if created == 0 {
		return nil, authcore.ErrEmailTaken
	}

	return &authcore.User{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now.Truncate(time.Second),
		UpdatedAt:    now.Truncate(time.Second),
	}, nil
}

// SetRefreshToken implements authcore.UserStore.
func (s *Store) SetRefreshToken(ctx context.Context, email, token string) error {
	status, err := setRefreshLua.Run(ctx, s.client,
		[]string{s.userKey(email)},
		s.prefix, token, email, strconv.FormatInt(s.now().Unix(), 10),
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if status == statusUserMissing {
		return authcore.ErrUserNotFound
	}
	return nil
}

// RotateRefreshToken implements authcore.UserStore.
func (s *Store) RotateRefreshToken(ctx context.Context, email, current, next string) error {
	status, err := rotateRefreshLua.Run(ctx, s.client,
		[]string{s.userKey(email)},
		s.prefix, current, next, email, strconv.FormatInt(s.now().Unix(), 10),
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	switch status {
	case statusUserMissing:
		return authcore.ErrUserNotFound
	case statusMismatch:
		return authcore.ErrRefreshMismatch
	default:
		return nil
	}
}

// BumpSessionVersion implements authcore.UserStore.
func (s *Store) BumpSessionVersion(ctx context.Context, email string) (int64, error) {
	version, err := bumpVersionLua.Run(ctx, s.client,
		[]string{s.userKey(email)},
		s.prefix, strconv.FormatInt(s.now().Unix(), 10),
	).Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if version == statusUserMissing {
		return 0, authcore.ErrUserNotFound
	}
	return version, nil
}

func decodeUser(fields map[string]string) (*authcore.User, error) {
	role, err := authcore.ParseRole(fields["role"])
	if err != nil {
		return nil, fmt.Errorf("corrupt user record: %w", err)
	}
	version, err := strconv.ParseInt(fields["session_version"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt user record: bad session_version %q", fields["session_version"])
	}
	createdAt, _ := strconv.ParseInt(fields["created_at"], 10, 64)
	updatedAt, _ := strconv.ParseInt(fields["updated_at"], 10, 64)

	return &authcore.User{
		ID:             fields["id"],
		Email:          fields["email"],
		PasswordHash:   fields["password_hash"],
		Role:           role,
		RefreshToken:   fields["refresh_token"],
		SessionVersion: version,
		CreatedAt:      time.Unix(createdAt, 0),
		UpdatedAt:      time.Unix(updatedAt, 0),
	}, nil
}
