package learn

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lyrafy/lyrafy-recommender/internal/db"
	"github.com/lyrafy/lyrafy-recommender/internal/taste"
)

// fakeProfileStore is an in-memory ProfileStore.
type fakeProfileStore struct {
	profiles map[string]*taste.PreferenceProfile
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{profiles: make(map[string]*taste.PreferenceProfile)}
}

func (f *fakeProfileStore) Get(_ context.Context, userID string) (*taste.PreferenceProfile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, db.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (f *fakeProfileStore) IncrementInteractions(_ context.Context, userID string) (int, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return 0, db.ErrNotFound
	}
	p.TotalInteractions++
	return p.TotalInteractions, nil
}

func (f *fakeProfileStore) UpdateTraining(_ context.Context, userID string, confidence float64, retrainedAt time.Time) error {
	p, ok := f.profiles[userID]
	if !ok {
		return db.ErrNotFound
	}
	p.Confidence = confidence
	p.LastRetrainedAt = &retrainedAt
	return nil
}

// fakeInteractionStore is an in-memory InteractionStore.
type fakeInteractionStore struct {
	events    []db.Interaction
	insertErr error
}

func (f *fakeInteractionStore) Insert(_ context.Context, event *db.Interaction) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.events = append(f.events, *event)
	return nil
}

func (f *fakeInteractionStore) CountForUser(_ context.Context, userID string) (int, error) {
	count := 0
	for _, e := range f.events {
		if e.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (f *fakeInteractionStore) ListForUser(_ context.Context, userID string) ([]db.Interaction, error) {
	var out []db.Interaction
	for _, e := range f.events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

// countingTrainer records Train invocations.
type countingTrainer struct {
	calls int
}

func (c *countingTrainer) Train(context.Context, string, []db.Interaction) error {
	c.calls++
	return nil
}

func seedEvents(store *fakeInteractionStore, userID string, n int) {
	for i := 0; i < n; i++ {
		store.events = append(store.events, db.Interaction{
			UserID:     userID,
			TrackID:    "t",
			Action:     "like",
			OccurredAt: time.Now(),
		})
	}
}

func TestRecord(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects invalid action", func(t *testing.T) {
		s := NewService(newFakeProfileStore(), &fakeInteractionStore{}, zap.NewNop())
		err := s.Record(ctx, "u1", "t1", "love", nil, time.Time{})
		assert.ErrorIs(t, err, ErrInvalidAction)
	})

	t.Run("defaults timestamp to now", func(t *testing.T) {
		now := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
		profiles := newFakeProfileStore()
		profiles.profiles["u1"] = &taste.PreferenceProfile{UserID: "u1"}
		interactions := &fakeInteractionStore{}

		s := NewService(profiles, interactions, zap.NewNop(),
			WithClock(func() time.Time { return now }))

		require.NoError(t, s.Record(ctx, "u1", "t1", "like", nil, time.Time{}))
		require.Len(t, interactions.events, 1)
		assert.True(t, interactions.events[0].OccurredAt.Equal(now))
	})

	t.Run("stores the optional context", func(t *testing.T) {
		profiles := newFakeProfileStore()
		profiles.profiles["u1"] = &taste.PreferenceProfile{UserID: "u1"}
		interactions := &fakeInteractionStore{}
		s := NewService(profiles, interactions, zap.NewNop())

		trackContext := "discover-feed"
		require.NoError(t, s.Record(ctx, "u1", "t1", "like", &trackContext, time.Now()))
		require.Len(t, interactions.events, 1)
		require.NotNil(t, interactions.events[0].Context)
		assert.Equal(t, "discover-feed", *interactions.events[0].Context)
	})

	t.Run("increments interaction counter", func(t *testing.T) {
		profiles := newFakeProfileStore()
		profiles.profiles["u1"] = &taste.PreferenceProfile{UserID: "u1"}
		s := NewService(profiles, &fakeInteractionStore{}, zap.NewNop())

		require.NoError(t, s.Record(ctx, "u1", "t1", "skip", nil, time.Now()))
		assert.Equal(t, 1, profiles.profiles["u1"].TotalInteractions)
	})

	t.Run("propagates event write failure", func(t *testing.T) {
		s := NewService(newFakeProfileStore(), &fakeInteractionStore{insertErr: assert.AnError}, zap.NewNop())
		err := s.Record(ctx, "u1", "t1", "like", nil, time.Now())
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("twentieth interaction triggers retrain", func(t *testing.T) {
		profiles := newFakeProfileStore()
		profiles.profiles["u1"] = &taste.PreferenceProfile{
			UserID:            "u1",
			Confidence:        0.7,
			TotalInteractions: 19,
		}
		interactions := &fakeInteractionStore{}
		seedEvents(interactions, "u1", 19)

		trainer := &countingTrainer{}
		s := NewService(profiles, interactions, zap.NewNop(), WithTrainer(trainer))

		require.NoError(t, s.Record(ctx, "u1", "t1", "like", nil, time.Now()))

		assert.Equal(t, 1, trainer.calls)
		assert.InDelta(t, 0.8, profiles.profiles["u1"].Confidence, 1e-9)
		assert.NotNil(t, profiles.profiles["u1"].LastRetrainedAt)
	})

	t.Run("missing profile still stores the event", func(t *testing.T) {
		interactions := &fakeInteractionStore{}
		s := NewService(newFakeProfileStore(), interactions, zap.NewNop())

		require.NoError(t, s.Record(ctx, "nobody", "t1", "like", nil, time.Now()))
		assert.Len(t, interactions.events, 1)
	})
}

func TestRetrain(t *testing.T) {
	ctx := context.Background()

	t.Run("below minimum is a no-op", func(t *testing.T) {
		profiles := newFakeProfileStore()
		profiles.profiles["u1"] = &taste.PreferenceProfile{UserID: "u1", Confidence: 0.7}
		interactions := &fakeInteractionStore{}
		seedEvents(interactions, "u1", 9)

		s := NewService(profiles, interactions, zap.NewNop())

		retrained, err := s.Retrain(ctx, "u1")
		require.NoError(t, err)
		assert.False(t, retrained)
		assert.Equal(t, 0.7, profiles.profiles["u1"].Confidence)
		assert.Nil(t, profiles.profiles["u1"].LastRetrainedAt)
	})

	t.Run("raises confidence and stamps time", func(t *testing.T) {
		now := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
		profiles := newFakeProfileStore()
		profiles.profiles["u1"] = &taste.PreferenceProfile{UserID: "u1", Confidence: 0.7}
		interactions := &fakeInteractionStore{}
		seedEvents(interactions, "u1", 10)

		s := NewService(profiles, interactions, zap.NewNop(),
			WithClock(func() time.Time { return now }))

		retrained, err := s.Retrain(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, retrained)
		assert.InDelta(t, 0.8, profiles.profiles["u1"].Confidence, 1e-9)
		require.NotNil(t, profiles.profiles["u1"].LastRetrainedAt)
		assert.True(t, profiles.profiles["u1"].LastRetrainedAt.Equal(now))
	})

	t.Run("confidence capped at one", func(t *testing.T) {
		profiles := newFakeProfileStore()
		profiles.profiles["u1"] = &taste.PreferenceProfile{UserID: "u1", Confidence: 0.95}
		interactions := &fakeInteractionStore{}
		seedEvents(interactions, "u1", 40)

		s := NewService(profiles, interactions, zap.NewNop())

		retrained, err := s.Retrain(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, retrained)
		assert.Equal(t, 1.0, profiles.profiles["u1"].Confidence)
	})

	t.Run("missing profile is not retrained", func(t *testing.T) {
		interactions := &fakeInteractionStore{}
		seedEvents(interactions, "ghost", 15)

		s := NewService(newFakeProfileStore(), interactions, zap.NewNop())

		retrained, err := s.Retrain(ctx, "ghost")
		require.NoError(t, err)
		assert.False(t, retrained)
	})
}
