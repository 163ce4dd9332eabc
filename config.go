package authcore

import (
	"errors"
	"strings"
	"time"
)

// Config defines the full engine configuration. It is supplied once
// through [Builder.WithConfig] and treated as immutable afterwards; there
// is no ambient or process-global configuration state.
type Config struct {
	Token    TokenConfig
	Password PasswordConfig
	Recovery RecoveryConfig
	Plans    PlansConfig
	Audit    AuditConfig
	Metrics  MetricsConfig

	// Now supplies the engine clock. Defaults to time.Now; injected in
	// tests to drive token and challenge expiry.
	Now func() time.Time
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig configures session-token issuance and verification.
type TokenConfig struct {
	Secret        []byte
	SigningMethod string // "hs256" (default and only supported method)
	TTL           time.Duration
	Leeway        time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig carries the Argon2id parameters for credential hashing.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

/*
====================================
RECOVERY CONFIG
====================================
*/

// RecoveryConfig configures the password-recovery challenge flow.
//
// AllowPlaintextFallback controls the deliberate degrade path of
// RequestCode: when mail delivery fails or DeliveryEnabled is false, the
// plaintext code is returned to the caller instead of being delivered
// out of band. This is a trust trade-off — it keeps self-service recovery
// working without a mail backend, at the cost of handing the code to
// whoever issued the request. It defaults to off; hardened deployments
// should leave it off so a delivery outage surfaces as
// [ErrDeliveryUnavailable] rather than a leaked code.
type RecoveryConfig struct {
	Enabled                bool
	CodeDigits             int
	ChallengeTTL           time.Duration
	DeliveryEnabled        bool
	AllowPlaintextFallback bool
}

// PlansConfig overrides entries of the built-in plan table. Keys are plan
// names, values are validity in days. Entries merge over the defaults.
type PlansConfig map[string]int

// AuditConfig configures the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig enables the in-process operation counters.
type MetricsConfig struct {
	Enabled bool
}

const (
	defaultTokenTTL     = 30 * 24 * time.Hour
	defaultChallengeTTL = 15 * time.Minute
	defaultCodeDigits   = 4
	minSecretBytes      = 32
)

// DefaultConfig returns the baseline configuration: 30-day HS256 tokens,
// Argon2id at 64 MB, 4-digit recovery codes valid 15 minutes. Callers
// must still supply a token secret.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			SigningMethod: "hs256",
			TTL:           defaultTokenTTL,
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Recovery: RecoveryConfig{
			Enabled:         true,
			CodeDigits:      defaultCodeDigits,
			ChallengeTTL:    defaultChallengeTTL,
			DeliveryEnabled: true,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Now: time.Now,
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if cfg.Plans != nil {
		out.Plans = make(PlansConfig, len(cfg.Plans))
		for name, days := range cfg.Plans {
			out.Plans[name] = days
		}
	}
	if cfg.Token.Secret != nil {
		out.Token.Secret = append([]byte(nil), cfg.Token.Secret...)
	}
	return out
}

func validateConfig(cfg *Config) error {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	cfg.Token.SigningMethod = strings.ToLower(strings.TrimSpace(cfg.Token.SigningMethod))
	if cfg.Token.SigningMethod == "" {
		cfg.Token.SigningMethod = "hs256"
	}
	if cfg.Token.SigningMethod != "hs256" {
		return errors.New("unsupported token signing method")
	}
	if len(cfg.Token.Secret) < minSecretBytes {
		return errors.New("token secret must be at least 32 bytes")
	}
	if cfg.Token.TTL <= 0 {
		cfg.Token.TTL = defaultTokenTTL
	}
	if cfg.Token.Leeway < 0 || cfg.Token.Leeway > 2*time.Minute {
		return errors.New("invalid token leeway configuration")
	}

	if cfg.Recovery.CodeDigits == 0 {
		cfg.Recovery.CodeDigits = defaultCodeDigits
	}
	if cfg.Recovery.CodeDigits < 4 || cfg.Recovery.CodeDigits > 10 {
		return errors.New("recovery code digits must be between 4 and 10")
	}
	if cfg.Recovery.ChallengeTTL == 0 {
		cfg.Recovery.ChallengeTTL = defaultChallengeTTL
	}
	if cfg.Recovery.ChallengeTTL < 0 {
		return errors.New("invalid recovery challenge TTL")
	}

	for name, days := range cfg.Plans {
		if strings.TrimSpace(name) == "" {
			return errors.New("plan override with empty name")
		}
		if days <= 0 {
			return errors.New("plan override duration must be positive")
		}
	}

	if cfg.Audit.Enabled && cfg.Audit.BufferSize <= 0 {
		cfg.Audit.BufferSize = 256
	}

	return nil
}
