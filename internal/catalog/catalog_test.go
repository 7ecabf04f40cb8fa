package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/zmb3/spotify/v2"
	"go.uber.org/zap"

	"github.com/lyrafy/lyrafy-recommender/internal/taste"
)

// fakeAPI implements spotifyAPI with canned responses.
type fakeAPI struct {
	mu            sync.Mutex
	searchResults map[string][]spotify.FullTrack
	searchErr     error
	searchCalls   []string
	features      map[spotify.ID]*spotify.AudioFeatures
	featureCalls  int
}

func (f *fakeAPI) Search(_ context.Context, query string, _ spotify.SearchType, _ ...spotify.RequestOption) (*spotify.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls = append(f.searchCalls, query)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return &spotify.SearchResult{
		Tracks: &spotify.FullTrackPage{Tracks: f.searchResults[query]},
	}, nil
}

func (f *fakeAPI) GetAudioFeatures(_ context.Context, ids ...spotify.ID) ([]*spotify.AudioFeatures, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.featureCalls++
	out := make([]*spotify.AudioFeatures, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.features[id]) // nil for unknown tracks
	}
	return out, nil
}

func fullTrack(id, name string, artists []string, releaseDate string, popularity int) spotify.FullTrack {
	simple := make([]spotify.SimpleArtist, len(artists))
	for i, a := range artists {
		simple[i] = spotify.SimpleArtist{Name: a}
	}
	return spotify.FullTrack{
		SimpleTrack: spotify.SimpleTrack{
			ID:      spotify.ID(id),
			Name:    name,
			Artists: simple,
		},
		Album:      spotify.SimpleAlbum{ReleaseDate: releaseDate},
		Popularity: spotify.Numeric(popularity),
	}
}

func TestConvertTrack(t *testing.T) {
	tests := []struct {
		name         string
		in           spotify.FullTrack
		wantID       string
		wantTitle    string
		wantArtists  []string
		wantDate     string
		wantPopality float64
	}{
		{
			name:         "single artist",
			in:           fullTrack("track123", "Test Song", []string{"Artist One"}, "2024-01-15", 75),
			wantID:       "track123",
			wantTitle:    "Test Song",
			wantArtists:  []string{"Artist One"},
			wantDate:     "2024-01-15",
			wantPopality: 75,
		},
		{
			name:         "multiple artists",
			in:           fullTrack("track456", "Collab Track", []string{"Artist A", "Artist B"}, "1995", 40),
			wantID:       "track456",
			wantTitle:    "Collab Track",
			wantArtists:  []string{"Artist A", "Artist B"},
			wantDate:     "1995",
			wantPopality: 40,
		},
		{
			name:         "no artists",
			in:           fullTrack("track000", "Unknown Track", nil, "", 0),
			wantID:       "track000",
			wantTitle:    "Unknown Track",
			wantArtists:  []string{},
			wantDate:     "",
			wantPopality: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := convertTrack(tt.in)

			if got.ID != tt.wantID {
				t.Errorf("ID = %q, want %q", got.ID, tt.wantID)
			}
			if got.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", got.Title, tt.wantTitle)
			}
			if len(got.Artists) != len(tt.wantArtists) {
				t.Fatalf("Artists = %v, want %v", got.Artists, tt.wantArtists)
			}
			for i := range got.Artists {
				if got.Artists[i] != tt.wantArtists[i] {
					t.Errorf("Artists[%d] = %q, want %q", i, got.Artists[i], tt.wantArtists[i])
				}
			}
			if got.ReleaseDate != tt.wantDate {
				t.Errorf("ReleaseDate = %q, want %q", got.ReleaseDate, tt.wantDate)
			}
			if got.Popularity != tt.wantPopality {
				t.Errorf("Popularity = %v, want %v", got.Popularity, tt.wantPopality)
			}
		})
	}
}

func TestSearchTracks(t *testing.T) {
	api := &fakeAPI{
		searchResults: map[string][]spotify.FullTrack{
			"rock music": {
				fullTrack("t1", "Song One", []string{"Band"}, "2001-05-01", 60),
				fullTrack("t2", "Song Two", []string{"Band"}, "2002-05-01", 55),
			},
		},
	}
	c := &Client{api: api}

	tracks, err := c.SearchTracks(context.Background(), "rock music", 20)
	if err != nil {
		t.Fatalf("SearchTracks() error = %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("got %d tracks, want 2", len(tracks))
	}
	if tracks[0].ID != "t1" || tracks[1].ID != "t2" {
		t.Errorf("got IDs %q, %q", tracks[0].ID, tracks[1].ID)
	}
}

func TestSearchTracksError(t *testing.T) {
	api := &fakeAPI{searchErr: errors.New("rate limited")}
	c := &Client{api: api}

	if _, err := c.SearchTracks(context.Background(), "anything", 20); err == nil {
		t.Fatal("SearchTracks() error = nil, want error")
	}
}

func TestBuildVibeQueries(t *testing.T) {
	queries := buildVibeQueries([]string{"rock", "chill"})

	want := 2*len(vibeQueryTemplates) + len(popularArtists)
	if len(queries) != want {
		t.Fatalf("got %d queries, want %d", len(queries), want)
	}

	if queries[0] != "rock music" {
		t.Errorf("queries[0] = %q, want %q", queries[0], "rock music")
	}

	last := queries[len(queries)-1]
	if last != "artist:Future" {
		t.Errorf("last query = %q, want %q", last, "artist:Future")
	}
}

func TestGatherVibeCandidates(t *testing.T) {
	results := make(map[string][]spotify.FullTrack)
	for i, q := range buildVibeQueries([]string{"rock"}) {
		results[q] = []spotify.FullTrack{
			fullTrack(fmt.Sprintf("t%d", i), "Song", []string{"Band"}, "2020", 50),
			fullTrack("shared", "Shared Song", []string{"Band"}, "2020", 50),
		}
	}

	api := &fakeAPI{searchResults: results}
	g := NewGatherer(&Client{api: api}, zap.NewNop())

	tracks, err := g.GatherVibeCandidates(context.Background(), []string{"rock"})
	if err != nil {
		t.Fatalf("GatherVibeCandidates() error = %v", err)
	}

	wantQueries := len(vibeQueryTemplates) + len(popularArtists)
	if len(api.searchCalls) != wantQueries {
		t.Errorf("made %d search calls, want %d", len(api.searchCalls), wantQueries)
	}

	// One unique track per query plus the shared one, deduplicated.
	want := wantQueries + 1
	if len(tracks) != want {
		t.Errorf("got %d candidates, want %d", len(tracks), want)
	}

	seen := make(map[string]bool)
	for _, track := range tracks {
		if seen[track.ID] {
			t.Errorf("duplicate candidate %q", track.ID)
		}
		seen[track.ID] = true
	}
}

func TestGatherVibeCandidatesAllFail(t *testing.T) {
	api := &fakeAPI{searchErr: errors.New("down")}
	g := NewGatherer(&Client{api: api}, zap.NewNop())

	if _, err := g.GatherVibeCandidates(context.Background(), []string{"rock"}); err == nil {
		t.Fatal("GatherVibeCandidates() error = nil, want error when every query fails")
	}
}

func TestGatherVibeCandidatesCap(t *testing.T) {
	results := make(map[string][]spotify.FullTrack)
	for i, q := range buildVibeQueries([]string{"rock", "pop", "jazz"}) {
		var batch []spotify.FullTrack
		for j := 0; j < 20; j++ {
			batch = append(batch, fullTrack(fmt.Sprintf("q%d-t%d", i, j), "Song", []string{"Band"}, "2020", 50))
		}
		results[q] = batch
	}

	api := &fakeAPI{searchResults: results}
	g := NewGatherer(&Client{api: api}, zap.NewNop())

	tracks, err := g.GatherVibeCandidates(context.Background(), []string{"rock", "pop", "jazz"})
	if err != nil {
		t.Fatalf("GatherVibeCandidates() error = %v", err)
	}
	if len(tracks) > maxVibeCandidates {
		t.Errorf("got %d candidates, want at most %d", len(tracks), maxVibeCandidates)
	}
}

func TestFetchAudioFeatures(t *testing.T) {
	api := &fakeAPI{
		features: map[spotify.ID]*spotify.AudioFeatures{
			"t1": {ID: "t1", Tempo: 120, Energy: 0.8, Danceability: 0.7, Valence: 0.6, Acousticness: 0.1, Instrumentalness: 0.05},
		},
	}
	c := &Client{api: api}

	got, err := c.FetchAudioFeatures(context.Background(), []string{"t1", "missing"})
	if err != nil {
		t.Fatalf("FetchAudioFeatures() error = %v", err)
	}

	f, ok := got["t1"]
	if !ok {
		t.Fatal("missing features for t1")
	}
	if f.Tempo != 120 || f.Energy != 0.8 {
		t.Errorf("features = %+v", f)
	}
	if _, ok := got["missing"]; ok {
		t.Error("unexpected features for track without any")
	}
}

func TestFetchAudioFeaturesBatches(t *testing.T) {
	api := &fakeAPI{features: map[spotify.ID]*spotify.AudioFeatures{}}
	c := &Client{api: api}

	ids := make([]string, 250)
	for i := range ids {
		ids[i] = fmt.Sprintf("t%d", i)
	}

	if _, err := c.FetchAudioFeatures(context.Background(), ids); err != nil {
		t.Fatalf("FetchAudioFeatures() error = %v", err)
	}
	if api.featureCalls != 3 {
		t.Errorf("made %d API calls, want 3", api.featureCalls)
	}
}

func TestAttachAudioFeatures(t *testing.T) {
	api := &fakeAPI{
		features: map[spotify.ID]*spotify.AudioFeatures{
			"t1": {ID: "t1", Energy: 0.9},
		},
	}
	c := &Client{api: api}

	tracks := []taste.Track{{ID: "t1"}, {ID: "t2"}}
	if err := c.AttachAudioFeatures(context.Background(), tracks); err != nil {
		t.Fatalf("AttachAudioFeatures() error = %v", err)
	}

	if tracks[0].Features == nil || tracks[0].Features.Energy != 0.9 {
		t.Errorf("tracks[0].Features = %+v", tracks[0].Features)
	}
	if tracks[1].Features != nil {
		t.Error("tracks[1].Features should be nil")
	}
}
