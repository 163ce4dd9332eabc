package userstore

import (
	"context"
	"sync"

	"github.com/edenmap/authcore"
)

// MemoryStore is an in-memory [authcore.UserStore] for tests and examples.
// All methods are safe for concurrent use; accounts are copied on the way
// in and out so callers never share state with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[int64]*authcore.UserAccount
	byEmail map[string]int64
	byLogin map[string]int64
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[int64]*authcore.UserAccount),
		byEmail: make(map[string]int64),
		byLogin: make(map[string]int64),
	}
}

// Save inserts or replaces an account and its index entries.
func (s *MemoryStore) Save(_ context.Context, acct *authcore.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.byID[acct.ID]; ok {
		delete(s.byEmail, normalizeKey(prev.Email))
		delete(s.byLogin, normalizeKey(prev.Login))
	}
	clone := cloneAccount(acct)
	s.byID[acct.ID] = clone
	s.byEmail[normalizeKey(acct.Email)] = acct.ID
	s.byLogin[normalizeKey(acct.Login)] = acct.ID
	return nil
}

// Delete removes an account and its index entries. Deleting a missing
// account is a no-op.
func (s *MemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.byID[id]
	if !ok {
		return nil
	}
	delete(s.byEmail, normalizeKey(acct.Email))
	delete(s.byLogin, normalizeKey(acct.Login))
	delete(s.byID, id)
	return nil
}

// FindByEmail looks up an account by its case-normalized email.
func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*authcore.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[normalizeKey(email)]
	if !ok {
		return nil, authcore.ErrUserNotFound
	}
	return cloneAccount(s.byID[id]), nil
}

// FindByLogin looks up an account by its case-normalized login.
func (s *MemoryStore) FindByLogin(_ context.Context, login string) (*authcore.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byLogin[normalizeKey(login)]
	if !ok {
		return nil, authcore.ErrUserNotFound
	}
	return cloneAccount(s.byID[id]), nil
}

// FindByID looks up an account by numeric ID.
func (s *MemoryStore) FindByID(_ context.Context, id int64) (*authcore.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, ok := s.byID[id]
	if !ok {
		return nil, authcore.ErrUserNotFound
	}
	return cloneAccount(acct), nil
}

// Patch applies the update under the write lock, so the whole patch is
// observed atomically.
func (s *MemoryStore) Patch(_ context.Context, id int64, patch authcore.AccountPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.byID[id]
	if !ok {
		return authcore.ErrUserNotFound
	}
	if patch.PasswordHash != nil {
		acct.PasswordHash = *patch.PasswordHash
	}
	switch {
	case patch.Challenge != nil:
		ch := *patch.Challenge
		acct.Challenge = &ch
	case patch.ClearChallenge:
		acct.Challenge = nil
	}
	return nil
}

func cloneAccount(acct *authcore.UserAccount) *authcore.UserAccount {
	clone := *acct
	if acct.PlanStart != nil {
		start := *acct.PlanStart
		clone.PlanStart = &start
	}
	if acct.Challenge != nil {
		ch := *acct.Challenge
		clone.Challenge = &ch
	}
	return &clone
}
