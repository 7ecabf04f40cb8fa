// Package learn records user interactions and maintains profile
// confidence through periodic retraining.
package learn

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/lyrafy/lyrafy-recommender/internal/db"
	"github.com/lyrafy/lyrafy-recommender/internal/taste"
)

// ErrInvalidAction is returned when an interaction action is not one of
// like, dislike or skip.
var ErrInvalidAction = errors.New("invalid interaction action")

const (
	// MinInteractionsForRetrain is the interaction count below which
	// Retrain is a no-op.
	MinInteractionsForRetrain = 10

	// retrainEvery triggers a retraining pass on every Nth interaction.
	retrainEvery = 20

	// confidenceStep is added to profile confidence per successful retrain.
	confidenceStep = 0.1
)

var validActions = map[string]bool{
	"like":    true,
	"dislike": true,
	"skip":    true,
}

// ProfileStore is the durable profile access the learner needs.
type ProfileStore interface {
	Get(ctx context.Context, userID string) (*taste.PreferenceProfile, error)
	IncrementInteractions(ctx context.Context, userID string) (int, error)
	UpdateTraining(ctx context.Context, userID string, confidence float64, retrainedAt time.Time) error
}

// InteractionStore is the event log access the learner needs.
type InteractionStore interface {
	Insert(ctx context.Context, event *db.Interaction) error
	CountForUser(ctx context.Context, userID string) (int, error)
	ListForUser(ctx context.Context, userID string) ([]db.Interaction, error)
}

// Trainer recomputes profile weights from interaction history. The default
// implementation does nothing; a collaborative-filtering model can be
// plugged in here without touching the bookkeeping around it.
type Trainer interface {
	Train(ctx context.Context, userID string, events []db.Interaction) error
}

// NoopTrainer is the default Trainer. It performs no weight recomputation.
type NoopTrainer struct{}

// Train implements Trainer as a no-op.
func (NoopTrainer) Train(context.Context, string, []db.Interaction) error { return nil }

// Service records interactions and runs retraining bookkeeping.
type Service struct {
	profiles     ProfileStore
	interactions InteractionStore
	trainer      Trainer
	now          func() time.Time
	log          *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithTrainer replaces the default no-op trainer.
func WithTrainer(t Trainer) Option {
	return func(s *Service) {
		if t != nil {
			s.trainer = t
		}
	}
}

// WithClock replaces the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a learner service.
func NewService(profiles ProfileStore, interactions InteractionStore, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		profiles:     profiles,
		interactions: interactions,
		trainer:      NoopTrainer{},
		now:          time.Now,
		log:          log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record appends an interaction event and updates the profile's interaction
// counter. Every 20th interaction triggers a synchronous retraining pass.
// A zero occurredAt defaults to the current time; trackContext is optional
// free-form text about where the interaction happened. Persistence failures
// on the event write are returned to the caller, never swallowed.
func (s *Service) Record(ctx context.Context, userID, trackID, action string, trackContext *string, occurredAt time.Time) error {
	if !validActions[action] {
		return fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
	if occurredAt.IsZero() {
		occurredAt = s.now()
	}

	event := &db.Interaction{
		UserID:     userID,
		TrackID:    trackID,
		Action:     action,
		Context:    trackContext,
		OccurredAt: occurredAt,
	}
	if err := s.interactions.Insert(ctx, event); err != nil {
		return fmt.Errorf("recording interaction: %w", err)
	}

	count, err := s.profiles.IncrementInteractions(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		// Interaction is stored; there is just no profile to learn into yet.
		s.log.Warn("interaction recorded for user without profile",
			zap.String("user_id", userID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("updating interaction count: %w", err)
	}

	if count > 0 && count%retrainEvery == 0 {
		if _, err := s.Retrain(ctx, userID); err != nil {
			s.log.Warn("periodic retrain failed",
				zap.String("user_id", userID),
				zap.Error(err))
		}
	}
	return nil
}

// Retrain runs a retraining pass for a user. Below
// MinInteractionsForRetrain stored interactions it returns (false, nil)
// and changes nothing. On success it raises confidence by 0.1 (capped at
// 1.0), stamps the retrain time, and returns (true, nil).
func (s *Service) Retrain(ctx context.Context, userID string) (bool, error) {
	count, err := s.interactions.CountForUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("counting interactions: %w", err)
	}
	if count < MinInteractionsForRetrain {
		return false, nil
	}

	profile, err := s.profiles.Get(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("loading profile: %w", err)
	}

	events, err := s.interactions.ListForUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("loading interactions: %w", err)
	}

	if err := s.trainer.Train(ctx, userID, events); err != nil {
		return false, fmt.Errorf("training model: %w", err)
	}

	confidence := math.Min(1.0, profile.Confidence+confidenceStep)
	retrainedAt := s.now()
	if err := s.profiles.UpdateTraining(ctx, userID, confidence, retrainedAt); err != nil {
		return false, fmt.Errorf("saving training state: %w", err)
	}

	s.log.Info("profile retrained",
		zap.String("user_id", userID),
		zap.Int("interactions", count),
		zap.Float64("confidence", confidence))
	return true, nil
}
