// Package recommend orchestrates candidate gathering and scoring into
// ranked recommendation lists.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/lyrafy/lyrafy-recommender/internal/db"
	"github.com/lyrafy/lyrafy-recommender/internal/taste"
)

// DefaultLimit is used when a caller asks for a non-positive number of
// recommendations.
const DefaultLimit = 20

// minHeuristicScore drops weak matches from the similar-tracks path.
const minHeuristicScore = 0.1

// ProfileSource loads durable preference profiles.
type ProfileSource interface {
	Get(ctx context.Context, userID string) (*taste.PreferenceProfile, error)
}

// CandidateSource gathers candidate tracks for scoring.
type CandidateSource interface {
	GatherVibeCandidates(ctx context.Context, terms []string) ([]taste.Track, error)
}

// FeatureSource resolves audio features for candidate tracks.
type FeatureSource interface {
	FetchAudioFeatures(ctx context.Context, trackIDs []string) (map[string]taste.AudioFeatures, error)
}

// Service produces ranked recommendations for a user.
type Service struct {
	profiles   ProfileSource
	candidates CandidateSource
	features   FeatureSource
	cache      *taste.Cache
	log        *zap.Logger
}

// NewService creates a recommendation service.
func NewService(profiles ProfileSource, candidates CandidateSource, features FeatureSource, cache *taste.Cache, log *zap.Logger) *Service {
	return &Service{
		profiles:   profiles,
		candidates: candidates,
		features:   features,
		cache:      cache,
		log:        log,
	}
}

// Recommend returns up to limit tracks ranked by the weighted scorer.
// vibeMode, when set, steers the candidate search; otherwise the user's top
// profile genres and moods do. Returns taste.ErrProfileNotFound when the
// user has no durable profile. A failed audio feature lookup degrades to
// scoring without the audio term.
func (s *Service) Recommend(ctx context.Context, userID, vibeMode string, limit int, excludeIDs []string) ([]taste.ScoredTrack, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	profile, err := s.profiles.Get(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, taste.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}

	terms := s.vibeTerms(profile, vibeMode)
	pool, err := s.candidates.GatherVibeCandidates(ctx, terms)
	if err != nil {
		return nil, fmt.Errorf("gathering candidates: %w", err)
	}

	ids := make([]string, len(pool))
	for i, t := range pool {
		ids[i] = t.ID
	}

	features, err := s.features.FetchAudioFeatures(ctx, ids)
	if err != nil {
		s.log.Warn("audio features unavailable, scoring without them",
			zap.String("user_id", userID),
			zap.Error(err))
		features = nil
	}

	ranked := taste.RankTracks(pool, excludeIDs, limit, func(t taste.Track) taste.ScoredTrack {
		var f *taste.AudioFeatures
		if af, ok := features[t.ID]; ok {
			feature := af
			f = &feature
		}
		return taste.ScoreWeighted(t, f, profile)
	})

	s.log.Info("recommendations ranked",
		zap.String("user_id", userID),
		zap.Int("candidates", len(pool)),
		zap.Int("returned", len(ranked)))
	return ranked, nil
}

// FindSimilar ranks the given candidates against the user's in-memory
// heuristic profile, dropping matches scoring at or below 0.1. Returns
// taste.ErrProfileNotFound when the user has not been analyzed yet.
func (s *Service) FindSimilar(userID string, candidates []taste.Track, excludeIDs []string, limit int) ([]taste.ScoredTrack, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	profile, err := s.cache.Get(userID)
	if err != nil {
		return nil, err
	}

	ranked := taste.RankTracks(candidates, excludeIDs, -1, func(t taste.Track) taste.ScoredTrack {
		return taste.ScoreHeuristic(t, profile)
	})

	kept := ranked[:0:0]
	for _, st := range ranked {
		if st.Score > minHeuristicScore {
			kept = append(kept, st)
		}
	}
	if len(kept) > limit {
		kept = kept[:limit]
	}
	return kept, nil
}

// vibeTerms picks the search terms steering candidate gathering: the
// explicit vibe mode when given, otherwise the user's top 3 genres and top
// 2 moods by weight.
func (s *Service) vibeTerms(p *taste.PreferenceProfile, vibeMode string) []string {
	if vibeMode != "" {
		return []string{vibeMode}
	}

	terms := topWeighted(p.Genres, 3)
	terms = append(terms, topWeighted(p.Moods, 2)...)
	if len(terms) == 0 {
		terms = []string{"popular"}
	}
	return terms
}

// topWeighted returns up to k keys ordered by weight descending, ties broken
// alphabetically for determinism.
func topWeighted(weights map[string]float64, k int) []string {
	keys := make([]string, 0, len(weights))
	for key := range weights {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if weights[keys[i]] != weights[keys[j]] {
			return weights[keys[i]] > weights[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > k {
		keys = keys[:k]
	}
	return keys
}
