package profile

import (
	"context"
	"log/slog"

	apperrors "github.com/atmosai/atmosai/pkg/errors"
)

// Repository abstracts profile persistence.
type Repository interface {
	Get(ctx context.Context, userID int64) (HealthProfile, bool, error)
	Upsert(ctx context.Context, userID int64, p HealthProfile) (HealthProfile, error)
}

// Service exposes profile reads and partial-patch writes. The server copy is
// authoritative; any client-side cache merges under it.
type Service interface {
	Get(ctx context.Context, userID int64) (HealthProfile, error)
	Update(ctx context.Context, userID int64, patch Patch) (HealthProfile, error)
	EnsureDefault(ctx context.Context, userID int64) error
}

type service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService wires up the profile domain.
func NewService(repo Repository, logger *slog.Logger) Service {
	return &service{
		repo:   repo,
		logger: logger.With("component", "profile.service"),
	}
}

func (s *service) Get(ctx context.Context, userID int64) (HealthProfile, error) {
	stored, found, err := s.repo.Get(ctx, userID)
	if err != nil {
		return HealthProfile{}, apperrors.Wrap(apperrors.CodeInternal, "failed to load profile", err)
	}
	if !found {
		return HealthProfile{}, apperrors.Wrap(apperrors.CodeNotFound, "profile not found", nil)
	}
	return stored, nil
}

func (s *service) Update(ctx context.Context, userID int64, patch Patch) (HealthProfile, error) {
	stored, found, err := s.repo.Get(ctx, userID)
	if err != nil {
		return HealthProfile{}, apperrors.Wrap(apperrors.CodeInternal, "failed to load profile", err)
	}
	if !found {
		return HealthProfile{}, apperrors.Wrap(apperrors.CodeNotFound, "profile not found", nil)
	}

	merged := apply(stored, patch)
	updated, err := s.repo.Upsert(ctx, userID, merged)
	if err != nil {
		return HealthProfile{}, apperrors.Wrap(apperrors.CodeInternal, "failed to save profile", err)
	}
	s.logger.Info("profile saved", "userId", userID)
	return updated, nil
}

// EnsureDefault creates an empty profile row for a new account. Existing rows
// are left untouched, so partial saves survive repeated sign-ins.
func (s *service) EnsureDefault(ctx context.Context, userID int64) error {
	_, found, err := s.repo.Get(ctx, userID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to load profile", err)
	}
	if found {
		return nil
	}
	if _, err := s.repo.Upsert(ctx, userID, HealthProfile{}); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to create profile", err)
	}
	s.logger.Info("default profile created", "userId", userID)
	return nil
}

// apply merges a patch over the stored profile. Omitted fields keep their
// stored values.
func apply(stored HealthProfile, patch Patch) HealthProfile {
	if patch.Name != nil {
		stored.Name = *patch.Name
	}
	if patch.Age != nil {
		stored.Age = *patch.Age
	}
	if patch.Location != nil {
		stored.Location = *patch.Location
	}
	if patch.PastIllness != nil {
		stored.PastIllness = patch.PastIllness
	}
	if patch.Habits != nil {
		stored.Habits = *patch.Habits
	}
	if patch.AlertsEnabled != nil {
		stored.AlertsEnabled = *patch.AlertsEnabled
	}
	return stored
}
