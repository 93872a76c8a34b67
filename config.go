package authcore

import (
	"errors"
	"time"
)

// Config groups all Engine tuning parameters. Zero values are filled with
// defaults during Build; invalid combinations fail Build rather than being
// silently corrected.
type Config struct {
	JWT        JWTConfig
	Password   PasswordConfig
	Security   SecurityConfig
	Revocation RevocationConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures the token codec. The signing key is process-wide
// configuration loaded once at startup; rotating it invalidates every
// outstanding token.
type JWTConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte // ed25519 only
	Issuer        string
	Leeway        time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds password policy. Hash parameters belong to the
// hasher itself (see password.Config).
type PasswordConfig struct {
	MinLength int
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig tunes the login throttle: a fixed window of LoginWindow
// allowing at most MaxLoginAttempts attempts per client key.
type SecurityConfig struct {
	MaxLoginAttempts int
	LoginWindow      time.Duration
}

/*
====================================
REVOCATION CONFIG
====================================
*/

// RevocationConfig tunes the revocation registry. SweepInterval > 0 starts
// a background janitor that drops entries past their token's natural
// expiry; 0 disables it (correctness does not depend on eviction).
type RevocationConfig struct {
	SweepInterval time.Duration
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled   bool
	QueueSize int
}

// MetricsConfig controls the atomic counter set.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the documented defaults: 1h access tokens, 7d
// refresh tokens, 8-character password minimum, 5 login attempts per 15
// minute window.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     time.Hour,
			RefreshTTL:    7 * 24 * time.Hour,
			SigningMethod: "hs256",
		},
		Password: PasswordConfig{
			MinLength: 8,
		},
		Security: SecurityConfig{
			MaxLoginAttempts: 5,
			LoginWindow:      15 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:   false,
			QueueSize: 256,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func validateConfig(cfg Config) error {
	if cfg.JWT.AccessTTL <= 0 {
		return errors.New("config: JWT.AccessTTL must be positive")
	}
	if cfg.JWT.RefreshTTL <= 0 {
		return errors.New("config: JWT.RefreshTTL must be positive")
	}
	if cfg.JWT.RefreshTTL <= cfg.JWT.AccessTTL {
		return errors.New("config: JWT.RefreshTTL must exceed JWT.AccessTTL")
	}
	if len(cfg.JWT.PrivateKey) == 0 {
		return errors.New("config: JWT.PrivateKey is required")
	}
	if cfg.Password.MinLength < 1 {
		return errors.New("config: Password.MinLength must be positive")
	}
	if cfg.Security.MaxLoginAttempts < 1 {
		return errors.New("config: Security.MaxLoginAttempts must be positive")
	}
	if cfg.Security.LoginWindow <= 0 {
		return errors.New("config: Security.LoginWindow must be positive")
	}
	if cfg.Revocation.SweepInterval < 0 {
		return errors.New("config: Revocation.SweepInterval must not be negative")
	}
	if cfg.Audit.Enabled && cfg.Audit.QueueSize < 1 {
		return errors.New("config: Audit.QueueSize must be positive when audit is enabled")
	}
	return nil
}
