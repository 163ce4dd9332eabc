package authcore

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

const (
	auditEventLoginSuccess           = "login_success"
	auditEventLoginFailure           = "login_failure"
	auditEventTokenRenewalSuccess    = "token_renewal_success"
	auditEventTokenRenewalFailure    = "token_renewal_failure"
	auditEventPasswordChangeSuccess  = "password_change_success"
	auditEventPasswordChangeFailure  = "password_change_failure"
	auditEventRecoveryRequest        = "recovery_request"
	auditEventRecoveryFallback       = "recovery_plaintext_fallback"
	auditEventRecoveryValidate       = "recovery_validate"
	auditEventRecoveryReset          = "recovery_reset"
	auditEventRecoveryChallengeSwept = "recovery_challenge_expired"
)

// AuditErrorCode is the normalized error label stamped onto audit events.
type AuditErrorCode string

const (
	auditErrUserNotFound        AuditErrorCode = "user_not_found"
	auditErrInvalidCredentials  AuditErrorCode = "invalid_credentials"
	auditErrInvalidToken        AuditErrorCode = "invalid_token"
	auditErrTokenExpired        AuditErrorCode = "token_expired"
	auditErrRecoveryDisabled    AuditErrorCode = "recovery_disabled"
	auditErrNoActiveChallenge   AuditErrorCode = "no_active_challenge"
	auditErrCodeInvalid         AuditErrorCode = "code_invalid"
	auditErrCodeExpired         AuditErrorCode = "code_expired"
	auditErrPasswordPolicy      AuditErrorCode = "password_policy"
	auditErrDeliveryUnavailable AuditErrorCode = "delivery_unavailable"
	auditErrStoreUnavailable    AuditErrorCode = "store_unavailable"
	auditErrInternal            AuditErrorCode = "internal_error"
)

func auditErrorCode(err error) AuditErrorCode {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrTokenInvalid):
		return auditErrInvalidToken
	case errors.Is(err, ErrTokenExpired):
		return auditErrTokenExpired
	case errors.Is(err, ErrRecoveryDisabled):
		return auditErrRecoveryDisabled
	case errors.Is(err, ErrNoActiveChallenge):
		return auditErrNoActiveChallenge
	case errors.Is(err, ErrCodeInvalid):
		return auditErrCodeInvalid
	case errors.Is(err, ErrCodeExpired):
		return auditErrCodeExpired
	case errors.Is(err, ErrPasswordPolicy):
		return auditErrPasswordPolicy
	case errors.Is(err, ErrDeliveryUnavailable):
		return auditErrDeliveryUnavailable
	case errors.Is(err, ErrStoreUnavailable):
		return auditErrStoreUnavailable
	default:
		return auditErrInternal
	}
}

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID int64,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		EventID:   uuid.NewString(),
		Timestamp: e.now().UTC(),
		EventType: eventType,
		UserID:    userID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}
