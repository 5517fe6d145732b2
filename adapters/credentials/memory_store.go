package credentials

import (
	"context"
	"fmt"
	"sync"

	"github.com/layer-3/encore/core"
)

// MemoryStore is an in-memory CredentialStore, seeded at startup
type MemoryStore struct {
	byUsername map[string]*core.Credential
	byID       map[string]*core.Credential
	mu         sync.RWMutex
}

// NewMemoryStore creates an empty in-memory credential store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byUsername: make(map[string]*core.Credential),
		byID:       make(map[string]*core.Credential),
	}
}

// Put stores a credential. Usernames and user IDs must both be unique.
func (s *MemoryStore) Put(ctx context.Context, c core.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byUsername[c.Username]; exists {
		return fmt.Errorf("username %q already exists", c.Username)
	}
	if _, exists := s.byID[c.UserID]; exists {
		return fmt.Errorf("user id %q already exists", c.UserID)
	}

	s.byUsername[c.Username] = &c
	s.byID[c.UserID] = &c
	return nil
}

// FindByUsername returns a copy of the credential, or nil if unknown
func (s *MemoryStore) FindByUsername(ctx context.Context, username string) (*core.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.byUsername[username]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

// FindByID returns a copy of the credential, or nil if unknown
func (s *MemoryStore) FindByID(ctx context.Context, userID string) (*core.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.byID[userID]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}
