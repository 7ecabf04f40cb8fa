package db

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lyrafy/lyrafy-recommender/internal/taste"
)

func TestProfileRepository_Upsert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	profile := &taste.PreferenceProfile{
		UserID:     "u1",
		Genres:     map[string]float64{"rock": 0.6},
		Artists:    map[string]float64{"X": 1.0},
		Decades:    map[string]float64{"1990s": 1.0},
		Moods:      map[string]float64{"happy_energetic": 1.0},
		Features:   map[string]taste.FeaturePreference{"energy": {Preferred: 0.7, Std: 0.1}},
		Confidence: 0.7,
	}

	mock.ExpectExec("INSERT INTO user_profiles").
		WithArgs(profile.UserID, profile.Genres, profile.Artists, profile.Decades,
			profile.Moods, profile.Features, profile.Confidence,
			profile.TotalInteractions, profile.LastRetrainedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewProfileRepository(mock)
	require.NoError(t, repo.Upsert(context.Background(), profile))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_Get(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	retrained := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{
		"user_id", "genres", "artists", "decades", "moods", "features",
		"confidence", "total_interactions", "last_retrained_at",
	}).AddRow(
		"u1",
		map[string]float64{"rock": 0.6},
		map[string]float64{"X": 1.0},
		map[string]float64{"1990s": 1.0},
		map[string]float64{"neutral": 1.0},
		map[string]taste.FeaturePreference{"energy": {Preferred: 0.7, Std: 0.1}},
		0.8,
		21,
		&retrained,
	)

	mock.ExpectQuery("SELECT (.+) FROM user_profiles").
		WithArgs("u1").
		WillReturnRows(rows)

	repo := NewProfileRepository(mock)
	got, err := repo.Get(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, 0.8, got.Confidence)
	assert.Equal(t, 21, got.TotalInteractions)
	assert.Equal(t, 0.6, got.Genres["rock"])
	require.NotNil(t, got.LastRetrainedAt)
	assert.True(t, got.LastRetrainedAt.Equal(retrained))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_GetNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM user_profiles").
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	repo := NewProfileRepository(mock)
	_, err = repo.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProfileRepository_IncrementInteractions(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("UPDATE user_profiles").
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows([]string{"total_interactions"}).AddRow(20))

	repo := NewProfileRepository(mock)
	count, err := repo.IncrementInteractions(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 20, count)
}

func TestProfileRepository_UpdateTraining(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	mock.ExpectExec("UPDATE user_profiles").
		WithArgs("u1", 0.8, now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	repo := NewProfileRepository(mock)
	require.NoError(t, repo.UpdateTraining(context.Background(), "u1", 0.8, now))

	mock.ExpectExec("UPDATE user_profiles").
		WithArgs("ghost", 0.8, now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = repo.UpdateTraining(context.Background(), "ghost", 0.8, now)
	assert.ErrorIs(t, err, ErrNotFound)
}
