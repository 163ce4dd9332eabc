package authcore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/edenmap/authcore/password"
	"github.com/edenmap/authcore/token"
)

// Engine composes the credential hasher, token manager, plan table, and
// recovery flow over the wired collaborators. Construct one through
// [Builder.Build]; after that every method is safe for concurrent use.
type Engine struct {
	config       Config
	passwordHash *password.Hasher
	tokens       *token.Manager
	plans        PlanTable
	store        UserStore
	mail         MailDispatcher
	codes        CodeSource
	audit        *auditDispatcher
	metrics      *Metrics
}

// Close drains and stops the audit dispatcher. The Engine must not be
// used after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of the operation counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) now() time.Time {
	if e == nil || e.config.Now == nil {
		return time.Now()
	}
	return e.config.Now()
}

// Plans exposes the merged plan table.
func (e *Engine) Plans() PlanTable {
	return e.plans
}

// Login authenticates by identity (email or login) and password and
// returns a fresh session. Fails with [ErrUserNotFound] when the identity
// resolves to no account and [ErrInvalidCredentials] on a wrong password.
func (e *Engine) Login(ctx context.Context, identity, plaintext string) (*Session, error) {
	if e == nil || e.store == nil || e.passwordHash == nil || e.tokens == nil {
		return nil, ErrEngineNotReady
	}

	user, err := e.resolveAccount(ctx, identity)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, 0, err, func() map[string]string {
			return map[string]string{
				"identity": normalizeIdentity(identity),
			}
		})
		return nil, err
	}

	ok, verifyErr := e.passwordHash.Verify(plaintext, user.PasswordHash)
	if verifyErr != nil || !ok {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, user.ID, ErrInvalidCredentials, nil)
		return nil, ErrInvalidCredentials
	}

	session, err := e.sessionFor(user)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, user.ID, err, nil)
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, user.ID, nil, nil)
	return session, nil
}

// LoginWithToken verifies a previously issued token and performs sliding
// renewal: the account is re-resolved by the embedded id and a brand-new
// token is issued with the full validity window. The old token's remaining
// lifetime is not inherited. Fails with [ErrTokenExpired]/[ErrTokenInvalid]
// on the token itself, or [ErrUserNotFound] when the account no longer
// exists even though the token still verifies structurally.
func (e *Engine) LoginWithToken(ctx context.Context, tokenStr string) (*Session, error) {
	if e == nil || e.store == nil || e.tokens == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.tokens.Parse(tokenStr)
	if err != nil {
		mapped := mapTokenError(err)
		e.metricInc(MetricTokenRenewalFailure)
		e.emitAudit(ctx, auditEventTokenRenewalFailure, false, 0, mapped, nil)
		return nil, mapped
	}

	user, err := e.store.FindByID(ctx, claims.UserID)
	if err != nil {
		mapped := mapStoreError(err)
		e.metricInc(MetricTokenRenewalFailure)
		e.emitAudit(ctx, auditEventTokenRenewalFailure, false, claims.UserID, mapped, nil)
		return nil, mapped
	}

	session, err := e.sessionFor(user)
	if err != nil {
		e.metricInc(MetricTokenRenewalFailure)
		e.emitAudit(ctx, auditEventTokenRenewalFailure, false, user.ID, err, nil)
		return nil, err
	}

	e.metricInc(MetricTokenRenewalSuccess)
	e.emitAudit(ctx, auditEventTokenRenewalSuccess, true, user.ID, nil, nil)
	return session, nil
}

// ChangePassword replaces the password of an authenticated account after
// verifying the current one. The new password must pass the strength
// policy.
func (e *Engine) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	if e == nil || e.store == nil || e.passwordHash == nil {
		return ErrEngineNotReady
	}

	user, err := e.store.FindByID(ctx, userID)
	if err != nil {
		mapped := mapStoreError(err)
		e.metricInc(MetricPasswordChangeFailure)
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, userID, mapped, nil)
		return mapped
	}

	ok, verifyErr := e.passwordHash.Verify(current, user.PasswordHash)
	if verifyErr != nil || !ok {
		e.metricInc(MetricPasswordChangeFailure)
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, user.ID, ErrInvalidCredentials, nil)
		return ErrInvalidCredentials
	}

	if strong, _ := password.Strength(next); !strong {
		e.metricInc(MetricPasswordChangeFailure)
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, user.ID, ErrPasswordPolicy, nil)
		return ErrPasswordPolicy
	}

	newHash, err := e.passwordHash.Hash(next)
	if err != nil {
		e.metricInc(MetricPasswordChangeFailure)
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, user.ID, err, nil)
		return ErrPasswordPolicy
	}

	if err := e.store.Patch(ctx, user.ID, AccountPatch{PasswordHash: &newHash}); err != nil {
		e.metricInc(MetricPasswordChangeFailure)
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, user.ID, ErrStoreUnavailable, nil)
		return ErrStoreUnavailable
	}

	e.metricInc(MetricPasswordChangeSuccess)
	e.emitAudit(ctx, auditEventPasswordChangeSuccess, true, user.ID, nil, nil)
	return nil
}

func (e *Engine) sessionFor(user *UserAccount) (*Session, error) {
	accessToken, err := e.tokens.Issue(user.ID, user.Email, user.Login, string(user.Role))
	if err != nil {
		return nil, ErrTokenInvalid
	}

	return &Session{
		AccessToken:   accessToken,
		TokenType:     "bearer",
		DurationTag:   token.DurationTag(e.config.Token.TTL),
		ExpiresIn:     int64(e.config.Token.TTL / time.Second),
		PlanDays:      e.plans.TotalDays(user.Plan),
		RemainingDays: e.plans.RemainingDays(user.Plan, user.PlanStart, e.now()),
		User: SessionUser{
			ID:    user.ID,
			Login: user.Login,
			Email: user.Email,
			Role:  user.Role,
			Plan:  user.Plan,
		},
	}, nil
}

// resolveAccount looks an identity up by email first, then by login,
// after case normalization.
func (e *Engine) resolveAccount(ctx context.Context, identity string) (*UserAccount, error) {
	normalized := normalizeIdentity(identity)
	if normalized == "" {
		return nil, ErrUserNotFound
	}

	user, err := e.store.FindByEmail(ctx, normalized)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, mapStoreError(err)
	}

	user, err = e.store.FindByLogin(ctx, normalized)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return user, nil
}

func normalizeIdentity(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, token.ErrExpired):
		return ErrTokenExpired
	default:
		return ErrTokenInvalid
	}
}

func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrUserNotFound):
		return ErrUserNotFound
	default:
		return ErrStoreUnavailable
	}
}
