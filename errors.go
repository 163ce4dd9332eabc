package authcore

import "errors"

var (
	// ErrEngineNotReady is returned when an Engine method is called before
	// the required collaborators were wired through [Builder.Build].
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrUserNotFound is returned when an identity resolves to no account.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned on a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenInvalid is returned for malformed, tampered, or semantically
	// empty session tokens.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is returned for structurally valid tokens past their
	// expiry timestamp.
	ErrTokenExpired = errors.New("token expired")
	// ErrRecoveryDisabled is returned when the recovery flow is switched
	// off in configuration.
	ErrRecoveryDisabled = errors.New("password recovery disabled")
	// ErrNoActiveChallenge is returned when validate/reset is attempted
	// with no recovery challenge pending on the account.
	ErrNoActiveChallenge = errors.New("no active recovery challenge")
	// ErrCodeInvalid is returned when a presented recovery code does not
	// match the stored challenge hash.
	ErrCodeInvalid = errors.New("invalid recovery code")
	// ErrCodeExpired is returned when the recovery challenge is past its
	// validity window; detection clears the challenge as a side effect.
	ErrCodeExpired = errors.New("recovery code expired")
	// ErrPasswordPolicy is returned when a new password violates the
	// strength policy enforced by the password package.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrDeliveryUnavailable is returned by RequestCode when mail delivery
	// failed or is disabled and the plaintext fallback is not allowed.
	ErrDeliveryUnavailable = errors.New("recovery code delivery unavailable")
	// ErrStoreUnavailable is returned when the account store fails; the
	// originating operation leaves no partial state behind.
	ErrStoreUnavailable = errors.New("account store unavailable")
)
