package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
)

type profileRepository struct {
	db *DB
}

func NewProfileRepository(db *DB) repository.ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	var profile domain.Profile
	err := r.db.db.QueryRowContext(ctx,
		`SELECT user_id, points, level FROM profiles WHERE user_id = ?`, userID,
	).Scan(&profile.UserID, &profile.Points, &profile.Level)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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
	_, err := r.db.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, points, level, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE
		 SET points = excluded.points, level = excluded.level, updated_at = excluded.updated_at`,
		profile.UserID, profile.Points, profile.Level, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("upsert profile %s: %w", profile.UserID, err)
	}
	return nil
}
