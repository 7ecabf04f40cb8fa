// Package catalog provides track discovery against the Spotify Web API.
package catalog

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"

	"github.com/lyrafy/lyrafy-recommender/internal/taste"
)

// searcher abstracts the Spotify search API for testing.
type searcher interface {
	Search(ctx context.Context, query string, t spotify.SearchType, opts ...spotify.RequestOption) (*spotify.SearchResult, error)
}

// featureFetcher abstracts the audio features API for testing.
type featureFetcher interface {
	GetAudioFeatures(ctx context.Context, ids ...spotify.ID) ([]*spotify.AudioFeatures, error)
}

// spotifyAPI is the slice of the Spotify client the catalog uses.
type spotifyAPI interface {
	searcher
	featureFetcher
}

// Client wraps the Spotify API client with catalog discovery methods.
type Client struct {
	api spotifyAPI
}

// New creates a new catalog client wrapper.
// The underlying client should already be authenticated.
func New(api *spotify.Client) *Client {
	return &Client{api: api}
}

// SearchTracks runs a single track search and converts the results.
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) ([]taste.Track, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	result, err := c.api.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(limit))
	if err != nil {
		return nil, fmt.Errorf("searching tracks: %w", err)
	}
	if result.Tracks == nil {
		return []taste.Track{}, nil
	}

	tracks := make([]taste.Track, 0, len(result.Tracks.Tracks))
	for _, t := range result.Tracks.Tracks {
		tracks = append(tracks, convertTrack(t))
	}
	return tracks, nil
}

// convertTrack converts a Spotify FullTrack to taste.Track.
// Genre tags are not carried on search results; downstream scoring
// infers them from title and artist text.
func convertTrack(t spotify.FullTrack) taste.Track {
	artists := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = a.Name
	}

	return taste.Track{
		ID:          t.ID.String(),
		Title:       t.Name,
		Artists:     artists,
		ReleaseDate: t.Album.ReleaseDate,
		Popularity:  float64(t.Popularity),
	}
}
