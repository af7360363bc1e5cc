package profilerepo

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atmosai/atmosai/internal/domain/profile"
)

// PostgresRepository persists health profiles in Postgres, one row per user.
// Illness history and habits are stored as JSONB so the shape can evolve
// without migrations.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Get loads the profile for a user.
func (r *PostgresRepository) Get(ctx context.Context, userID int64) (profile.HealthProfile, bool, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT name, age, location, past_illness, habits, alerts_enabled
		FROM health_profiles
		WHERE user_id = $1
		LIMIT 1
	`, userID)
	if err != nil {
		return profile.HealthProfile{}, false, err
	}
	defer rows.Close()
	if !rows.Next() {
		return profile.HealthProfile{}, false, rows.Err()
	}
	var (
		stored      profile.HealthProfile
		illnessJSON []byte
		habitsJSON  []byte
	)
	if err := rows.Scan(&stored.Name, &stored.Age, &stored.Location, &illnessJSON, &habitsJSON, &stored.AlertsEnabled); err != nil {
		return profile.HealthProfile{}, false, err
	}
	if len(illnessJSON) > 0 {
		if err := json.Unmarshal(illnessJSON, &stored.PastIllness); err != nil {
			return profile.HealthProfile{}, false, err
		}
	}
	if len(habitsJSON) > 0 {
		if err := json.Unmarshal(habitsJSON, &stored.Habits); err != nil {
			return profile.HealthProfile{}, false, err
		}
	}
	return stored, true, rows.Err()
}

// Upsert writes the full profile for a user.
func (r *PostgresRepository) Upsert(ctx context.Context, userID int64, p profile.HealthProfile) (profile.HealthProfile, error) {
	illnessJSON, err := json.Marshal(p.PastIllness)
	if err != nil {
		return profile.HealthProfile{}, err
	}
	habitsJSON, err := json.Marshal(p.Habits)
	if err != nil {
		return profile.HealthProfile{}, err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO health_profiles (user_id, name, age, location, past_illness, habits, alerts_enabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			name = EXCLUDED.name,
			age = EXCLUDED.age,
			location = EXCLUDED.location,
			past_illness = EXCLUDED.past_illness,
			habits = EXCLUDED.habits,
			alerts_enabled = EXCLUDED.alerts_enabled,
			updated_at = now()
	`, userID, p.Name, p.Age, p.Location, illnessJSON, habitsJSON, p.AlertsEnabled)
	if err != nil {
		return profile.HealthProfile{}, err
	}
	return p, nil
}

var _ profile.Repository = (*PostgresRepository)(nil)
