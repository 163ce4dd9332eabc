package userstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/edenmap/authcore"
)

// ErrRedisUnavailable wraps transport-level Redis failures so callers can
// distinguish them from a missing account.
var ErrRedisUnavailable = errors.New("redis unavailable")

const (
	fieldID               = "id"
	fieldLogin            = "login"
	fieldEmail            = "email"
	fieldRole             = "role"
	fieldPlan             = "plan"
	fieldPlanStart        = "plan_start"
	fieldPasswordHash     = "password_hash"
	fieldChallengeHash    = "challenge_hash"
	fieldChallengeExpires = "challenge_expires_at"
	fieldCreatedAt        = "created_at"
)

const patchScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
if ARGV[1] == "1" then
  redis.call("HSET", KEYS[1], "password_hash", ARGV[2])
end
if ARGV[3] == "1" then
  redis.call("HSET", KEYS[1], "challenge_hash", ARGV[4], "challenge_expires_at", ARGV[5])
elseif ARGV[6] == "1" then
  redis.call("HDEL", KEYS[1], "challenge_hash", "challenge_expires_at")
end
return 1
`

var patchLua = redis.NewScript(patchScript)

// RedisStore is a Redis-backed [authcore.UserStore]. Each account lives in
// a hash keyed by numeric ID, with email and login resolved through plain
// string index keys.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisStore creates a [RedisStore] with the given key prefix. An empty
// prefix defaults to "auth".
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "auth"
	}
	return &RedisStore{redis: client, prefix: prefix}
}

func (s *RedisStore) accountKey(id int64) string {
	return s.prefix + ":acct:" + strconv.FormatInt(id, 10)
}

func (s *RedisStore) emailKey(email string) string {
	return s.prefix + ":email:" + normalizeKey(email)
}

func (s *RedisStore) loginKey(login string) string {
	return s.prefix + ":login:" + normalizeKey(login)
}

func normalizeKey(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// Save writes the full account record and both index keys in one
// transaction. Intended for seeding and account provisioning; the engine
// itself never calls it.
func (s *RedisStore) Save(ctx context.Context, acct *authcore.UserAccount) error {
	fields := map[string]interface{}{
		fieldID:           acct.ID,
		fieldLogin:        acct.Login,
		fieldEmail:        acct.Email,
		fieldRole:         string(acct.Role),
		fieldPlan:         acct.Plan,
		fieldPasswordHash: acct.PasswordHash,
		fieldCreatedAt:    acct.CreatedAt.Unix(),
	}
	if acct.PlanStart != nil {
		fields[fieldPlanStart] = acct.PlanStart.Unix()
	}
	if acct.Challenge != nil {
		fields[fieldChallengeHash] = acct.Challenge.CodeHash
		fields[fieldChallengeExpires] = acct.Challenge.ExpiresAt.Unix()
	}

	key := s.accountKey(acct.ID)
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, fields)
		pipe.Set(ctx, s.emailKey(acct.Email), acct.ID, 0)
		pipe.Set(ctx, s.loginKey(acct.Login), acct.ID, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// FindByEmail resolves the email index and loads the account.
func (s *RedisStore) FindByEmail(ctx context.Context, email string) (*authcore.UserAccount, error) {
	return s.findByIndex(ctx, s.emailKey(email))
}

// FindByLogin resolves the login index and loads the account.
func (s *RedisStore) FindByLogin(ctx context.Context, login string) (*authcore.UserAccount, error) {
	return s.findByIndex(ctx, s.loginKey(login))
}

// FindByID loads the account hash directly.
func (s *RedisStore) FindByID(ctx context.Context, id int64) (*authcore.UserAccount, error) {
	return s.fetch(ctx, id)
}

// Patch applies the update atomically through a Lua script so the password
// hash and challenge fields change in a single step.
func (s *RedisStore) Patch(ctx context.Context, id int64, patch authcore.AccountPatch) error {
	setPassword, password := "0", ""
	if patch.PasswordHash != nil {
		setPassword, password = "1", *patch.PasswordHash
	}
	setChallenge, codeHash, expiresAt := "0", "", ""
	if patch.Challenge != nil {
		setChallenge = "1"
		codeHash = patch.Challenge.CodeHash
		expiresAt = strconv.FormatInt(patch.Challenge.ExpiresAt.Unix(), 10)
	}
	clearChallenge := "0"
	if patch.ClearChallenge {
		clearChallenge = "1"
	}

	result, err := patchLua.Run(
		ctx,
		s.redis,
		[]string{s.accountKey(id)},
		setPassword, password,
		setChallenge, codeHash, expiresAt,
		clearChallenge,
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if result == 0 {
		return authcore.ErrUserNotFound
	}
	return nil
}

func (s *RedisStore) findByIndex(ctx context.Context, indexKey string) (*authcore.UserAccount, error) {
	id, err := s.redis.Get(ctx, indexKey).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, authcore.ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return s.fetch(ctx, id)
}

func (s *RedisStore) fetch(ctx context.Context, id int64) (*authcore.UserAccount, error) {
	fields, err := s.redis.HGetAll(ctx, s.accountKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, authcore.ErrUserNotFound
	}
	return decodeAccount(fields)
}

func decodeAccount(fields map[string]string) (*authcore.UserAccount, error) {
	id, err := strconv.ParseInt(fields[fieldID], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: corrupt account id %q", ErrRedisUnavailable, fields[fieldID])
	}

	acct := &authcore.UserAccount{
		ID:           id,
		Login:        fields[fieldLogin],
		Email:        fields[fieldEmail],
		Role:         authcore.Role(fields[fieldRole]),
		Plan:         fields[fieldPlan],
		PasswordHash: fields[fieldPasswordHash],
	}

	if raw, ok := fields[fieldCreatedAt]; ok {
		unix, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: corrupt created_at %q", ErrRedisUnavailable, raw)
		}
		acct.CreatedAt = time.Unix(unix, 0).UTC()
	}

	if raw, ok := fields[fieldPlanStart]; ok {
		unix, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: corrupt plan_start %q", ErrRedisUnavailable, raw)
		}
		start := time.Unix(unix, 0).UTC()
		acct.PlanStart = &start
	}

	if hash, ok := fields[fieldChallengeHash]; ok {
		raw := fields[fieldChallengeExpires]
		unix, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: corrupt challenge_expires_at %q", ErrRedisUnavailable, raw)
		}
		acct.Challenge = &authcore.Challenge{
			CodeHash:  hash,
			ExpiresAt: time.Unix(unix, 0).UTC(),
		}
	}

	return acct, nil
}
