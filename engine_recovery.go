package authcore

import (
	"context"

	"github.com/edenmap/authcore/internal"
	"github.com/edenmap/authcore/password"
)

// RequestCode starts the recovery flow for an identity. A numeric code is
// generated, its hash and an expiry of now plus the challenge TTL are
// stored on the account — overwriting any prior challenge, which is
// thereby silently invalidated — and delivery through the mail dispatcher
// is attempted.
//
// When delivery succeeds the plaintext code never leaves the engine. When
// delivery fails or is disabled, the code is returned in the receipt only
// if [RecoveryConfig.AllowPlaintextFallback] is set; otherwise the call
// fails with [ErrDeliveryUnavailable]. The fallback path is additionally
// flagged on the audit stream.
//
// Concurrent requests for the same account race last-write-wins by
// contract: the most recently stored code is the one that validates.
func (e *Engine) RequestCode(ctx context.Context, identity string) (*RecoveryReceipt, error) {
	if e == nil || e.store == nil || e.codes == nil {
		return nil, ErrEngineNotReady
	}
	if !e.config.Recovery.Enabled {
		return nil, ErrRecoveryDisabled
	}

	user, err := e.resolveAccount(ctx, identity)
	if err != nil {
		e.emitAudit(ctx, auditEventRecoveryRequest, false, 0, err, func() map[string]string {
			return map[string]string{
				"identity": normalizeIdentity(identity),
			}
		})
		return nil, err
	}

	code, err := e.codes.Code(e.config.Recovery.CodeDigits)
	if err != nil {
		e.emitAudit(ctx, auditEventRecoveryRequest, false, user.ID, err, nil)
		return nil, ErrDeliveryUnavailable
	}

	challenge := Challenge{
		CodeHash:  internal.HashCode(code),
		ExpiresAt: e.now().Add(e.config.Recovery.ChallengeTTL),
	}
	if err := e.store.Patch(ctx, user.ID, AccountPatch{Challenge: &challenge}); err != nil {
		e.emitAudit(ctx, auditEventRecoveryRequest, false, user.ID, ErrStoreUnavailable, nil)
		return nil, ErrStoreUnavailable
	}

	delivered := false
	if e.config.Recovery.DeliveryEnabled && e.mail != nil {
		delivered = e.mail.SendRecoveryCode(ctx, user.Email, user.Login, code)
	}

	receipt := &RecoveryReceipt{
		Delivered: delivered,
		ExpiresIn: e.config.Recovery.ChallengeTTL,
	}

	if !delivered {
		if !e.config.Recovery.AllowPlaintextFallback {
			// The challenge stays stored; a later request simply
			// overwrites it.
			e.emitAudit(ctx, auditEventRecoveryRequest, false, user.ID, ErrDeliveryUnavailable, nil)
			return nil, ErrDeliveryUnavailable
		}
		receipt.Code = code
		e.metricInc(MetricRecoveryFallback)
		e.emitAudit(ctx, auditEventRecoveryFallback, true, user.ID, nil, func() map[string]string {
			return map[string]string{
				"reason": "delivery_unavailable",
			}
		})
	}

	e.metricInc(MetricRecoveryRequest)
	e.emitAudit(ctx, auditEventRecoveryRequest, true, user.ID, nil, func() map[string]string {
		return map[string]string{
			"delivered": boolLabel(delivered),
		}
	})
	return receipt, nil
}

// ValidateCode checks a presented code against the account's active
// challenge. On success the challenge is left intact — it stays valid for
// the final reset step until it expires. Fails with [ErrUserNotFound],
// [ErrNoActiveChallenge], [ErrCodeExpired] (clearing the stale challenge
// as a side effect), or [ErrCodeInvalid].
func (e *Engine) ValidateCode(ctx context.Context, identity, code string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}
	if !e.config.Recovery.Enabled {
		return ErrRecoveryDisabled
	}

	user, err := e.resolveAccount(ctx, identity)
	if err != nil {
		e.metricInc(MetricRecoveryValidateFailure)
		e.emitAudit(ctx, auditEventRecoveryValidate, false, 0, err, nil)
		return err
	}

	if err := e.checkChallenge(ctx, user, code); err != nil {
		e.metricInc(MetricRecoveryValidateFailure)
		e.emitAudit(ctx, auditEventRecoveryValidate, false, user.ID, err, nil)
		return err
	}

	e.metricInc(MetricRecoveryValidateSuccess)
	e.emitAudit(ctx, auditEventRecoveryValidate, true, user.ID, nil, nil)
	return nil
}

// ResetPassword consumes the active challenge: it re-runs the same checks
// as ValidateCode, enforces the password strength policy, then writes the
// new credential hash and clears the challenge in one atomic patch. A
// store failure surfaces as [ErrStoreUnavailable] with no partial state —
// the store contract guarantees the password write and the challenge
// clear land together or not at all.
func (e *Engine) ResetPassword(ctx context.Context, identity, code, newPassword string) error {
	if e == nil || e.store == nil || e.passwordHash == nil {
		return ErrEngineNotReady
	}
	if !e.config.Recovery.Enabled {
		return ErrRecoveryDisabled
	}

	user, err := e.resolveAccount(ctx, identity)
	if err != nil {
		e.metricInc(MetricRecoveryResetFailure)
		e.emitAudit(ctx, auditEventRecoveryReset, false, 0, err, nil)
		return err
	}

	if err := e.checkChallenge(ctx, user, code); err != nil {
		e.metricInc(MetricRecoveryResetFailure)
		e.emitAudit(ctx, auditEventRecoveryReset, false, user.ID, err, nil)
		return err
	}

	if strong, _ := password.Strength(newPassword); !strong {
		e.metricInc(MetricRecoveryResetFailure)
		e.emitAudit(ctx, auditEventRecoveryReset, false, user.ID, ErrPasswordPolicy, nil)
		return ErrPasswordPolicy
	}

	newHash, err := e.passwordHash.Hash(newPassword)
	if err != nil {
		e.metricInc(MetricRecoveryResetFailure)
		e.emitAudit(ctx, auditEventRecoveryReset, false, user.ID, err, nil)
		return ErrPasswordPolicy
	}

	patch := AccountPatch{
		PasswordHash:   &newHash,
		ClearChallenge: true,
	}
	if err := e.store.Patch(ctx, user.ID, patch); err != nil {
		e.metricInc(MetricRecoveryResetFailure)
		e.emitAudit(ctx, auditEventRecoveryReset, false, user.ID, ErrStoreUnavailable, nil)
		return ErrStoreUnavailable
	}

	e.metricInc(MetricRecoveryResetSuccess)
	e.emitAudit(ctx, auditEventRecoveryReset, true, user.ID, nil, nil)
	return nil
}

// checkChallenge runs the shared validate/reset checks. Expiry is
// detected lazily here — there is no background sweeper — and a stale
// challenge is cleared on detection so it cannot be probed again.
func (e *Engine) checkChallenge(ctx context.Context, user *UserAccount, code string) error {
	if user.Challenge == nil {
		return ErrNoActiveChallenge
	}

	if e.now().After(user.Challenge.ExpiresAt) {
		if err := e.store.Patch(ctx, user.ID, AccountPatch{ClearChallenge: true}); err != nil {
			// The challenge stays stored but remains expired; the next
			// attempt re-detects it. Record the sweep failure either way.
			e.emitAudit(ctx, auditEventRecoveryChallengeSwept, false, user.ID, ErrStoreUnavailable, nil)
		} else {
			e.emitAudit(ctx, auditEventRecoveryChallengeSwept, true, user.ID, nil, nil)
		}
		return ErrCodeExpired
	}

	if !internal.IsNumericString(code) || !internal.CodeHashEqual(code, user.Challenge.CodeHash) {
		return ErrCodeInvalid
	}

	return nil
}

func boolLabel(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
