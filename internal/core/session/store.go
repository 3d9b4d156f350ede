package session

import (
	"context"
	"sync"
)

// Fixed keys of the two storage locations
const (
	// SessionKey holds the JSON session object in the cookie store
	SessionKey = "einvoice_session"
	// AccessTokenKey holds the bearer token in the token store
	AccessTokenKey = "access_token"
	// RefreshTokenKey holds the refresh token in the token store
	RefreshTokenKey = "refresh_token"
)

// Store is one storage location holding part of the session.
// Get reports false when the key is absent.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// MemoryStore is an in-process Store
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty in-process store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
