// Package session maps opaque bearer tokens to user ids.
package session

import (
	"context"
	"errors"
	"sync"

	"henritrip/api/internal/auth"
)

// ErrNotFound is returned for unknown, expired or revoked tokens.
var ErrNotFound = errors.New("session not found or expired")

// MemoryStore keeps sessions in process memory. Sessions live until they are
// revoked or the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]int64
	byUser map[int64]map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tokens: map[string]int64{},
		byUser: map[int64]map[string]struct{}{},
	}
}

func (s *MemoryStore) Create(_ context.Context, token string, userID int64) error {
	key := auth.HashToken(token)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[key] = userID
	if s.byUser[userID] == nil {
		s.byUser[userID] = map[string]struct{}{}
	}
	s.byUser[userID][key] = struct{}{}
	return nil
}

func (s *MemoryStore) Lookup(_ context.Context, token string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.tokens[auth.HashToken(token)]
	if !ok {
		return 0, ErrNotFound
	}
	return userID, nil
}

func (s *MemoryStore) Revoke(_ context.Context, token string) error {
	key := auth.HashToken(token)
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.tokens[key]
	if !ok {
		return nil
	}
	delete(s.tokens, key)
	delete(s.byUser[userID], key)
	if len(s.byUser[userID]) == 0 {
		delete(s.byUser, userID)
	}
	return nil
}

// RevokeUser drops every session of userID.
func (s *MemoryStore) RevokeUser(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.byUser[userID] {
		delete(s.tokens, key)
	}
	delete(s.byUser, userID)
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
