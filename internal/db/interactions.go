package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Interaction is an append-only record of a user acting on a track.
// Never mutated after creation.
type Interaction struct {
	ID         uuid.UUID
	UserID     string
	TrackID    string
	Action     string // "like", "dislike" or "skip"
	Context    *string
	OccurredAt time.Time
	CreatedAt  time.Time
}

// InteractionRepository handles interaction event operations.
type InteractionRepository struct {
	pool Querier
}

// NewInteractionRepository creates a repository over the given querier.
func NewInteractionRepository(pool Querier) *InteractionRepository {
	return &InteractionRepository{pool: pool}
}

// Insert appends an interaction event. A zero ID is replaced with a fresh
// UUID; CreatedAt is set by the database.
func (r *InteractionRepository) Insert(ctx context.Context, event *Interaction) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	query := `
		INSERT INTO user_interactions (id, user_id, track_id, action, context, occurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING created_at
	`
	err := r.pool.QueryRow(ctx, query,
		event.ID,
		event.UserID,
		event.TrackID,
		event.Action,
		event.Context,
		event.OccurredAt,
	).Scan(&event.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting interaction: %w", err)
	}
	return nil
}

// CountForUser returns the number of stored interactions for a user.
func (r *InteractionRepository) CountForUser(ctx context.Context, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM user_interactions WHERE user_id = $1`

	var count int
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting interactions: %w", err)
	}
	return count, nil
}

// ListForUser returns all interactions for a user, newest first.
func (r *InteractionRepository) ListForUser(ctx context.Context, userID string) ([]Interaction, error) {
	query := `
		SELECT id, user_id, track_id, action, context, occurred_at, created_at
		FROM user_interactions
		WHERE user_id = $1
		ORDER BY occurred_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying interactions: %w", err)
	}
	defer rows.Close()

	var events []Interaction
	for rows.Next() {
		var e Interaction
		if err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.TrackID,
			&e.Action,
			&e.Context,
			&e.OccurredAt,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning interaction: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
