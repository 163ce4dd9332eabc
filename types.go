package authcore

import (
	"context"
	"time"
)

// Role is the closed set of account role tags.
type Role string

const (
	// RoleAdmin has full access to the system.
	RoleAdmin Role = "admin"
	// RoleTester is used for test and validation accounts.
	RoleTester Role = "tester"
	// RoleCustomer is the default end-user role.
	RoleCustomer Role = "customer"
)

// Valid reports whether r is one of the known role tags.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTester, RoleCustomer:
		return true
	}
	return false
}

// Challenge is the transient recovery sub-state of an account: the SHA-256
// hash of a numeric code and its absolute expiry. At most one challenge is
// active per account; issuing a new one overwrites the previous.
type Challenge struct {
	CodeHash  string
	ExpiresAt time.Time
}

// UserAccount is the account record exchanged with the [UserStore]
// collaborator. The engine only reads it and patches specific fields; the
// store owns the rest of its lifecycle.
type UserAccount struct {
	ID           int64
	Login        string
	Email        string
	Role         Role
	Plan         string
	PlanStart    *time.Time
	PasswordHash string
	Challenge    *Challenge
	CreatedAt    time.Time
}

// AccountPatch is the narrow update applied through [UserStore.Patch].
// Only the fields explicitly set are touched; stores must apply the whole
// patch atomically so a password write and a challenge clear can never be
// observed separately.
type AccountPatch struct {
	// PasswordHash replaces the stored credential hash when non-nil.
	PasswordHash *string
	// Challenge installs a new recovery challenge when non-nil,
	// overwriting any prior one.
	Challenge *Challenge
	// ClearChallenge removes the active challenge. Mutually exclusive
	// with Challenge.
	ClearChallenge bool
}

// UserStore is the persistence collaborator. Lookups must treat email and
// login as case-normalized unique keys and return [ErrUserNotFound] when
// no account matches. Patch must be atomic across all fields it touches.
//
// Calls are synchronous and carry no engine-imposed timeout; deadline and
// retry policy belong to the store implementation.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*UserAccount, error)
	FindByLogin(ctx context.Context, login string) (*UserAccount, error)
	FindByID(ctx context.Context, id int64) (*UserAccount, error)
	Patch(ctx context.Context, id int64, patch AccountPatch) error
}

// MailDispatcher delivers recovery codes out of band. Delivery is
// best-effort: implementations report failure by returning false and must
// never panic or block indefinitely.
type MailDispatcher interface {
	SendRecoveryCode(ctx context.Context, email, login, code string) bool
}

// CodeSource produces numeric recovery codes with uniform distribution.
// The default source draws from crypto/rand.
type CodeSource interface {
	Code(digits int) (string, error)
}

// SessionUser is the minimal identity echo attached to a [Session].
type SessionUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
	Plan  string `json:"plan,omitempty"`
}

// Session is returned by [Engine.Login] and [Engine.LoginWithToken]. Both
// paths produce the same shape: a fresh signed token, its nominal window,
// and the account's plan metadata.
type Session struct {
	AccessToken   string      `json:"access_token"`
	TokenType     string      `json:"token_type"`
	DurationTag   string      `json:"token_duration"`
	ExpiresIn     int64       `json:"expires_in"`
	PlanDays      int         `json:"plan_days"`
	RemainingDays int         `json:"remaining_days"`
	User          SessionUser `json:"user"`
}

// RecoveryReceipt is returned by [Engine.RequestCode]. Code is populated
// only on the plaintext fallback path; after successful delivery the code
// never leaves the engine.
type RecoveryReceipt struct {
	Code      string        `json:"code,omitempty"`
	Delivered bool          `json:"delivered"`
	ExpiresIn time.Duration `json:"-"`
}
