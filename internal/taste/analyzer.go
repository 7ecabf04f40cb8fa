package taste

import (
	"errors"

	"go.uber.org/zap"
)

// ErrNoTracks is returned when a taste analysis is requested with an empty
// track batch.
var ErrNoTracks = errors.New("no tracks provided for analysis")

// Analyzer derives taste profiles from raw track batches.
type Analyzer struct {
	cache *Cache
	log   *zap.Logger
}

// NewAnalyzer creates an Analyzer writing heuristic profiles to cache.
func NewAnalyzer(cache *Cache, log *zap.Logger) *Analyzer {
	return &Analyzer{cache: cache, log: log}
}

// AnalyzeTaste builds the heuristic profile for a user from their top
// tracks and stores it in the in-memory cache. Returns ErrNoTracks on an
// empty batch.
func (a *Analyzer) AnalyzeTaste(userID string, tracks []Track) (*Profile, error) {
	if len(tracks) == 0 {
		return nil, ErrNoTracks
	}

	a.log.Info("analyzing music taste",
		zap.String("user_id", userID),
		zap.Int("tracks", len(tracks)))

	var artists []string
	var popularity []float64
	for _, t := range tracks {
		artists = append(artists, t.Artists...)
		popularity = append(popularity, t.Popularity)
	}

	p := &Profile{
		Genres:     ExtractGenres(tracks),
		Artists:    DedupCapped(artists, 20),
		Decades:    ExtractDecades(tracks),
		Moods:      DeriveMoods(tracks),
		Popularity: ComputeStats(popularity),
	}

	p.Tempo = trackFeatureStats(tracks, "tempo")
	p.Energy = trackFeatureStats(tracks, "energy")
	p.Danceability = trackFeatureStats(tracks, "danceability")
	p.Valence = trackFeatureStats(tracks, "valence")
	p.Acousticness = trackFeatureStats(tracks, "acousticness")
	p.Instrumentalness = trackFeatureStats(tracks, "instrumentalness")

	if name, ok := ClusterVibeName(tracks); ok {
		p.VibeCluster = name
	}

	a.cache.Put(userID, p)
	return p, nil
}

// BuildPreferenceProfile builds the durable weighted profile for a user
// from their top tracks and any fetched audio features. The caller is
// responsible for persisting it. Returns ErrNoTracks on an empty batch.
func (a *Analyzer) BuildPreferenceProfile(userID string, tracks []Track, features []AudioFeatures) (*PreferenceProfile, error) {
	if len(tracks) == 0 {
		return nil, ErrNoTracks
	}

	var genres, artists, decades []string
	for _, t := range tracks {
		genres = append(genres, t.Genres...)
		artists = append(artists, t.Artists...)
		if decade, ok := ParseDecade(t.ReleaseDate); ok {
			decades = append(decades, decade)
		}
	}

	return &PreferenceProfile{
		UserID:     userID,
		Genres:     WeightedPreferences(genres),
		Artists:    WeightedPreferences(artists),
		Decades:    WeightedPreferences(decades),
		Moods:      MoodFromFeatures(features),
		Features:   AudioPreferences(features),
		Confidence: initialConfidence,
	}, nil
}

// initialConfidence is the confidence assigned to a freshly built profile.
// Retraining raises it in 0.1 steps up to 1.0.
const initialConfidence = 0.7

// trackFeatureStats computes stats for one named feature over the tracks
// that carry audio features. Zero-filled when none do.
func trackFeatureStats(tracks []Track, name string) FeatureStats {
	var values []float64
	for _, t := range tracks {
		if v, ok := FeatureValue(t.Features, name); ok {
			values = append(values, v)
		}
	}
	return ComputeStats(values)
}
