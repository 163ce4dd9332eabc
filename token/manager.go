package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalid is returned for malformed, tampered, wrongly signed, or
// semantically empty tokens.
var ErrInvalid = errors.New("invalid token")

// ErrExpired is returned for well-formed tokens past their expiry.
var ErrExpired = errors.New("token expired")

// Version is the claims schema version stamped onto every issued token.
const Version = "1.0"

// Config configures a [Manager]. Secret is required; TTL is the default
// validity window applied by [Manager.Issue].
type Config struct {
	Secret []byte
	TTL    time.Duration
	Leeway time.Duration
	Now    func() time.Time
}

// Claims is the fixed payload carried by a session token. Unknown fields
// in a presented token are ignored; a decoded user id of zero makes the
// whole token invalid regardless of signature.
type Claims struct {
	UserID      int64  `json:"user_id"`
	Email       string `json:"email"`
	Login       string `json:"login"`
	Role        string `json:"role"`
	DurationTag string `json:"token_duration"`
	Version     string `json:"token_version"`
	jwt.RegisteredClaims
}

// Manager issues and verifies session tokens. Both operations are pure
// functions of (input, clock, secret) and are safe for unsynchronized
// concurrent use.
type Manager struct {
	config Config
}

// NewManager validates cfg and returns a ready Manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token secret required")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Manager{config: cfg}, nil
}

// Issue signs a token for the given identity with the default TTL.
func (m *Manager) Issue(userID int64, email, login, role string) (string, error) {
	return m.IssueWithTTL(userID, email, login, role, m.config.TTL)
}

// IssueWithTTL signs a token with an explicit validity window. Expiry is
// always issued-at plus ttl.
func (m *Manager) IssueWithTTL(userID int64, email, login, role string, ttl time.Duration) (string, error) {
	if userID <= 0 {
		return "", ErrInvalid
	}
	if ttl <= 0 {
		ttl = m.config.TTL
	}

	now := m.config.Now()
	claims := Claims{
		UserID:      userID,
		Email:       email,
		Login:       login,
		Role:        role,
		DurationTag: DurationTag(ttl),
		Version:     Version,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.Secret)
}

// Parse verifies the signature and expiry of tokenStr and returns its
// claims. Expiry is checked against the Manager's injected clock, so the
// result is reproducible in tests.
func (m *Manager) Parse(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.config.Now),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.config.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalid
	}
	// A structurally valid token without an identity is still invalid.
	if claims.UserID <= 0 {
		return nil, ErrInvalid
	}

	return claims, nil
}

// DurationTag renders the display/audit label for a validity window.
// The default 30-day window keeps its historical "1_month" label.
func DurationTag(ttl time.Duration) string {
	const day = 24 * time.Hour

	switch {
	case ttl == 30*day:
		return "1_month"
	case ttl >= day:
		return fmt.Sprintf("%d_days", int(ttl/day))
	default:
		return fmt.Sprintf("%d_minutes", int(ttl/time.Minute))
	}
}
