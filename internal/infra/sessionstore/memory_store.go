package sessionstore

import (
	"context"
	"sync"
	"time"

	"github.com/atmosai/atmosai/internal/domain/auth"
)

type sessionRecord struct {
	userID    int64
	expiresAt time.Time
}

// MemoryStore is an in-memory session store for tests/dev.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]sessionRecord
}

// NewMemoryStore constructs a store backed by process memory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]sessionRecord)}
}

// Save records a live session.
func (s *MemoryStore) Save(_ context.Context, sessionID string, userID int64, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp := time.Time{}
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	s.sessions[sessionID] = sessionRecord{userID: userID, expiresAt: exp}
	return nil
}

// Get reports whether the session is still live.
func (s *MemoryStore) Get(_ context.Context, sessionID string) (int64, bool, error) {
	s.mu.RLock()
	record, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return 0, false, nil
	}
	if hasExpired(record.expiresAt) {
		s.mu.Lock()
		delete(s.sessions, sessionID)
		s.mu.Unlock()
		return 0, false, nil
	}
	return record.userID, true, nil
}

// Delete revokes the session.
func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func hasExpired(ts time.Time) bool {
	if ts.IsZero() {
		return false
	}
	return ts.Before(time.Now())
}

var _ auth.SessionStore = (*MemoryStore)(nil)
