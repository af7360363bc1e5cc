package profilerepo

import (
	"context"
	"sync"

	"github.com/atmosai/atmosai/internal/domain/profile"
)

// MemoryRepository provides an in-memory profile store for tests/dev.
type MemoryRepository struct {
	mu       sync.RWMutex
	profiles map[int64]profile.HealthProfile
}

// NewMemoryRepository constructs a new in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{profiles: make(map[int64]profile.HealthProfile)}
}

// Get loads the profile for a user.
func (r *MemoryRepository) Get(_ context.Context, userID int64) (profile.HealthProfile, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.profiles[userID]
	return stored, ok, nil
}

// Upsert writes the full profile for a user.
func (r *MemoryRepository) Upsert(_ context.Context, userID int64, p profile.HealthProfile) (profile.HealthProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[userID] = p
	return p, nil
}

var _ profile.Repository = (*MemoryRepository)(nil)
