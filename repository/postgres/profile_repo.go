package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
)

type profileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository returns a Postgres-backed profile repository.
func NewProfileRepository(pool *pgxpool.Pool) repository.ProfileRepository {
	return &profileRepository{pool: pool}
}

func (r *profileRepository) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	const query = `SELECT user_id, points, level FROM profiles WHERE user_id = $1`

	var profile domain.Profile
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&profile.UserID, &profile.Points, &profile.Level); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) Upsert(ctx context.Context, profile *domain.Profile) error {
	if profile == nil || profile.UserID == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO profiles (user_id, points, level, updated_at)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT (user_id) DO UPDATE
	SET points = EXCLUDED.points,
		level = EXCLUDED.level,
		updated_at = NOW()
	`

	_, err := r.pool.Exec(ctx, query, profile.UserID, profile.Points, profile.Level)
	return err
}
