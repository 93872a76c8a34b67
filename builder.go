package authcore

import (
	"errors"
	"time"

	"authcore/internal/rate"
	"authcore/jwt"
	"authcore/password"
	"authcore/revocation"
)

// Builder assembles an [Engine]. All validation happens in Build, so a
// half-configured Builder is harmless.
type Builder struct {
	config    Config
	store     UserStore
	hasher    Hasher
	auditSink AuditSink
	now       func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithUserStore supplies the persistent-storage collaborator. Required.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.store = store
	return b
}

// WithHasher overrides the default argon2id hasher.
func (b *Builder) WithHasher(h Hasher) *Builder {
	b.hasher = h
	return b
}

// WithAuditSink supplies the audit destination. Only consulted when
// Config.Audit.Enabled is set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock overrides the engine clock, for tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration and constructs the Engine. A Builder
// builds at most once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.store == nil {
		return nil, errors.New("user store is required")
	}
	if err := validateConfig(b.config); err != nil {
		return nil, err
	}

	now := b.now
	if now == nil {
		now = time.Now
	}

	codec, err := jwt.NewManager(jwt.Config{
		AccessTTL:     b.config.JWT.AccessTTL,
		RefreshTTL:    b.config.JWT.RefreshTTL,
		SigningMethod: jwt.SigningMethod(b.config.JWT.SigningMethod),
		PrivateKey:    b.config.JWT.PrivateKey,
		PublicKey:     b.config.JWT.PublicKey,
		Issuer:        b.config.JWT.Issuer,
		Leeway:        b.config.JWT.Leeway,
		Now:           now,
	})
	if err != nil {
		return nil, err
	}

	hasher := b.hasher
	if hasher == nil {
		hasher, err = password.NewArgon2(password.DefaultConfig())
		if err != nil {
			return nil, err
		}
	}

	engine := &Engine{
		config: b.config,
		store:  b.store,
		hasher: hasher,
		codec:  codec,
		revoked: revocation.New(revocation.Config{
			Now: now,
		}),
		limiter: rate.New(rate.Config{
			MaxAttempts: b.config.Security.MaxLoginAttempts,
			Window:      b.config.Security.LoginWindow,
			Now:         now,
		}),
		metrics: newMetrics(b.config.Metrics),
		audit:   newAuditDispatcher(b.config.Audit, b.auditSink),
		now:     now,
	}

	if b.config.Revocation.SweepInterval > 0 {
		engine.startJanitor(b.config.Revocation.SweepInterval)
	}

	b.built = true
	return engine, nil
}
