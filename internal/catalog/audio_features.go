package catalog

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"

	"github.com/lyrafy/lyrafy-recommender/internal/taste"
)

// maxTracksPerRequest is the Spotify audio features batch limit.
const maxTracksPerRequest = 100

// FetchAudioFeatures retrieves audio features for the given track IDs,
// batching requests to max 100 tracks per request per Spotify API limits.
// Tracks without available features are simply absent from the result.
func (c *Client) FetchAudioFeatures(ctx context.Context, trackIDs []string) (map[string]taste.AudioFeatures, error) {
	out := make(map[string]taste.AudioFeatures, len(trackIDs))
	if len(trackIDs) == 0 {
		return out, nil
	}

	ids := make([]spotify.ID, len(trackIDs))
	for i, id := range trackIDs {
		ids[i] = spotify.ID(id)
	}

	total := len(ids)
	for i := 0; i < total; i += maxTracksPerRequest {
		end := min(i+maxTracksPerRequest, total)
		batch := ids[i:end]

		features, err := c.api.GetAudioFeatures(ctx, batch...)
		if err != nil {
			return nil, fmt.Errorf("fetching audio features (batch %d-%d): %w", i+1, end, err)
		}

		for _, f := range features {
			if f == nil {
				continue // track has no audio features
			}
			out[f.ID.String()] = taste.AudioFeatures{
				Tempo:            float64(f.Tempo),
				Energy:           float64(f.Energy),
				Danceability:     float64(f.Danceability),
				Valence:          float64(f.Valence),
				Acousticness:     float64(f.Acousticness),
				Instrumentalness: float64(f.Instrumentalness),
			}
		}
	}
	return out, nil
}

// AttachAudioFeatures fetches features for the given tracks and fills in the
// Features field on each track that has them.
func (c *Client) AttachAudioFeatures(ctx context.Context, tracks []taste.Track) error {
	ids := make([]string, len(tracks))
	for i, t := range tracks {
		ids[i] = t.ID
	}

	features, err := c.FetchAudioFeatures(ctx, ids)
	if err != nil {
		return err
	}

	for i := range tracks {
		if f, ok := features[tracks[i].ID]; ok {
			feature := f
			tracks[i].Features = &feature
		}
	}
	return nil
}
