// Package store provides optional persistence for the user registry. The
// lobby is authoritative and purely in-memory; a store only mirrors the
// users(id, username UNIQUE) table so identities survive inspection and
// restarts of external tooling.
package store

import (
	"context"
	"sync"
)

// UserRecord is one persisted identity.
type UserRecord struct {
	ID       int64
	Username string
}

// UserStore mirrors user identities. Implementations must be safe for
// concurrent use.
type UserStore interface {
	SaveUser(ctx context.Context, id int64, username string) error
	DeleteUser(ctx context.Context, id int64) error
	GetUser(ctx context.Context, id int64) (*UserRecord, error)
	Close() error
}

// MemoryStore implements UserStore with an in-memory map (default backend,
// also used by tests).
type MemoryStore struct {
	mu    sync.RWMutex
	users map[int64]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[int64]string)}
}

func (s *MemoryStore) SaveUser(ctx context.Context, id int64, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = username
	return nil
}

func (s *MemoryStore) DeleteUser(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id int64) (*UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	username, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &UserRecord{ID: id, Username: username}, nil
}

func (s *MemoryStore) Close() error { return nil }
