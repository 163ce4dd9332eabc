package authcore

import (
	"errors"

	"github.com/edenmap/authcore/internal"
	"github.com/edenmap/authcore/password"
	"github.com/edenmap/authcore/token"
)

// Builder assembles an [Engine]. Construction is allocation-only until
// Build, which validates the configuration and wires every component.
type Builder struct {
	config Config

	store UserStore
	mail  MailDispatcher
	codes CodeSource
	sink  AuditSink

	built bool
}

// New returns a Builder preloaded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithUserStore wires the account persistence collaborator. Required.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.store = store
	return b
}

// WithMailDispatcher wires the recovery-code delivery collaborator.
// Optional; without one, delivery always degrades per the fallback
// configuration.
func (b *Builder) WithMailDispatcher(mail MailDispatcher) *Builder {
	b.mail = mail
	return b
}

// WithCodeSource replaces the default crypto/rand code source.
func (b *Builder) WithCodeSource(codes CodeSource) *Builder {
	b.codes = codes
	return b
}

// WithAuditSink wires the destination for audit events.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.sink = sink
	return b
}

// WithMetricsEnabled toggles the in-process operation counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, constructs the hasher and token
// manager, starts the audit dispatcher, and returns a ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.store == nil {
		return nil, errors.New("user store required")
	}

	cfg := cloneConfig(b.config)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	hasher, err := password.NewHasher(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	tokens, err := token.NewManager(token.Config{
		Secret: cfg.Token.Secret,
		TTL:    cfg.Token.TTL,
		Leeway: cfg.Token.Leeway,
		Now:    cfg.Now,
	})
	if err != nil {
		return nil, err
	}

	codes := b.codes
	if codes == nil {
		codes = cryptoCodeSource{}
	}

	engine := &Engine{
		config:       cfg,
		passwordHash: hasher,
		tokens:       tokens,
		plans:        NewPlanTable(cfg.Plans),
		store:        b.store,
		mail:         b.mail,
		codes:        codes,
		audit:        newAuditDispatcher(cfg.Audit, b.sink),
		metrics:      NewMetrics(cfg.Metrics),
	}

	b.built = true
	return engine, nil
}

// cryptoCodeSource draws uniform numeric codes from crypto/rand.
type cryptoCodeSource struct{}

func (cryptoCodeSource) Code(digits int) (string, error) {
	return internal.NewNumericCode(digits)
}
