package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/lyrafy/lyrafy-recommender/internal/taste"
)

// ProfileRepository handles durable preference profile operations.
type ProfileRepository struct {
	pool Querier
}

// NewProfileRepository creates a repository over the given querier.
func NewProfileRepository(pool Querier) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

// Upsert creates or fully overwrites the preference profile for a user.
func (r *ProfileRepository) Upsert(ctx context.Context, p *taste.PreferenceProfile) error {
	query := `
		INSERT INTO user_profiles (
			user_id, genres, artists, decades, moods, features,
			confidence, total_interactions, last_retrained_at, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			genres = EXCLUDED.genres,
			artists = EXCLUDED.artists,
			decades = EXCLUDED.decades,
			moods = EXCLUDED.moods,
			features = EXCLUDED.features,
			confidence = EXCLUDED.confidence,
			total_interactions = EXCLUDED.total_interactions,
			last_retrained_at = EXCLUDED.last_retrained_at,
			updated_at = NOW()
	`
	_, err := r.pool.Exec(ctx, query,
		p.UserID,
		p.Genres,
		p.Artists,
		p.Decades,
		p.Moods,
		p.Features,
		p.Confidence,
		p.TotalInteractions,
		p.LastRetrainedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting profile: %w", err)
	}
	return nil
}

// Get retrieves the preference profile for a user.
// Returns ErrNotFound when the user has no profile.
func (r *ProfileRepository) Get(ctx context.Context, userID string) (*taste.PreferenceProfile, error) {
	query := `
		SELECT user_id, genres, artists, decades, moods, features,
			confidence, total_interactions, last_retrained_at
		FROM user_profiles
		WHERE user_id = $1
	`
	var p taste.PreferenceProfile
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&p.UserID,
		&p.Genres,
		&p.Artists,
		&p.Decades,
		&p.Moods,
		&p.Features,
		&p.Confidence,
		&p.TotalInteractions,
		&p.LastRetrainedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying profile: %w", err)
	}
	return &p, nil
}

// IncrementInteractions atomically increments the interaction counter for a
// user and returns the new count. Returns ErrNotFound when the user has no
// profile.
func (r *ProfileRepository) IncrementInteractions(ctx context.Context, userID string) (int, error) {
	query := `
		UPDATE user_profiles
		SET total_interactions = total_interactions + 1, updated_at = NOW()
		WHERE user_id = $1
		RETURNING total_interactions
	`
	var count int
	err := r.pool.QueryRow(ctx, query, userID).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("incrementing interactions: %w", err)
	}
	return count, nil
}

// UpdateTraining records the outcome of a retraining pass.
func (r *ProfileRepository) UpdateTraining(ctx context.Context, userID string, confidence float64, retrainedAt time.Time) error {
	query := `
		UPDATE user_profiles
		SET confidence = $2, last_retrained_at = $3, updated_at = NOW()
		WHERE user_id = $1
	`
	tag, err := r.pool.Exec(ctx, query, userID, confidence, retrainedAt)
	if err != nil {
		return fmt.Errorf("updating training state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
