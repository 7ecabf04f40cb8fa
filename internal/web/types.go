package web

import (
	"time"

	"github.com/lyrafy/lyrafy-recommender/internal/taste"
)

// trackPayload is the wire form of a track in requests and responses.
type trackPayload struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Artists     []string         `json:"artists"`
	Genres      []string         `json:"genres,omitempty"`
	ReleaseDate string           `json:"release_date,omitempty"`
	Popularity  float64          `json:"popularity"`
	Features    *featuresPayload `json:"audio_features,omitempty"`
}

type featuresPayload struct {
	Tempo            float64 `json:"tempo"`
	Energy           float64 `json:"energy"`
	Danceability     float64 `json:"danceability"`
	Valence          float64 `json:"valence"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
}

func (p trackPayload) toTrack() taste.Track {
	t := taste.Track{
		ID:          p.ID,
		Title:       p.Title,
		Artists:     p.Artists,
		Genres:      p.Genres,
		ReleaseDate: p.ReleaseDate,
		Popularity:  p.Popularity,
	}
	if p.Features != nil {
		t.Features = &taste.AudioFeatures{
			Tempo:            p.Features.Tempo,
			Energy:           p.Features.Energy,
			Danceability:     p.Features.Danceability,
			Valence:          p.Features.Valence,
			Acousticness:     p.Features.Acousticness,
			Instrumentalness: p.Features.Instrumentalness,
		}
	}
	return t
}

func toTrackPayload(t taste.Track) trackPayload {
	p := trackPayload{
		ID:          t.ID,
		Title:       t.Title,
		Artists:     t.Artists,
		Genres:      t.Genres,
		ReleaseDate: t.ReleaseDate,
		Popularity:  t.Popularity,
	}
	if t.Features != nil {
		p.Features = &featuresPayload{
			Tempo:            t.Features.Tempo,
			Energy:           t.Features.Energy,
			Danceability:     t.Features.Danceability,
			Valence:          t.Features.Valence,
			Acousticness:     t.Features.Acousticness,
			Instrumentalness: t.Features.Instrumentalness,
		}
	}
	return p
}

type analyzeRequest struct {
	UserID string         `json:"user_id"`
	Tracks []trackPayload `json:"tracks"`
}

type analyzeResponse struct {
	UserID  string   `json:"user_id"`
	Genres  []string `json:"genres"`
	Artists []string `json:"artists"`
	Decades []string `json:"decades"`
	Moods   []string `json:"moods"`
}

type recommendRequest struct {
	UserID     string   `json:"user_id"`
	VibeMode   string   `json:"vibe_mode,omitempty"`
	Limit      int      `json:"limit,omitempty"`
	ExcludeIDs []string `json:"exclude_ids,omitempty"`
}

type scoredTrackPayload struct {
	Track   trackPayload `json:"track"`
	Score   float64      `json:"score"`
	Reasons []string     `json:"reasons"`
}

type scoredTracksResponse struct {
	Tracks []scoredTrackPayload `json:"tracks"`
}

func toScoredResponse(scored []taste.ScoredTrack) scoredTracksResponse {
	out := scoredTracksResponse{Tracks: make([]scoredTrackPayload, 0, len(scored))}
	for _, st := range scored {
		reasons := st.Reasons
		if reasons == nil {
			reasons = []string{}
		}
		out.Tracks = append(out.Tracks, scoredTrackPayload{
			Track:   toTrackPayload(st.Track),
			Score:   st.Score,
			Reasons: reasons,
		})
	}
	return out
}

type similarTracksRequest struct {
	UserID     string         `json:"user_id"`
	Candidates []trackPayload `json:"candidates"`
	ExcludeIDs []string       `json:"exclude_ids,omitempty"`
	Limit      int            `json:"limit,omitempty"`
}

type interactionRequest struct {
	UserID    string     `json:"user_id"`
	TrackID   string     `json:"track_id"`
	Action    string     `json:"action"`
	Context   *string    `json:"context,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

type profileResponse struct {
	UserID            string                             `json:"user_id"`
	Genres            map[string]float64                 `json:"genres"`
	Artists           map[string]float64                 `json:"artists"`
	Decades           map[string]float64                 `json:"decades"`
	Moods             map[string]float64                 `json:"moods"`
	Features          map[string]taste.FeaturePreference `json:"audio_preferences"`
	Confidence        float64                            `json:"confidence"`
	TotalInteractions int                                `json:"total_interactions"`
	LastRetrainedAt   *time.Time                         `json:"last_retrained_at,omitempty"`
}

func toProfileResponse(p *taste.PreferenceProfile) profileResponse {
	return profileResponse{
		UserID:            p.UserID,
		Genres:            p.Genres,
		Artists:           p.Artists,
		Decades:           p.Decades,
		Moods:             p.Moods,
		Features:          p.Features,
		Confidence:        p.Confidence,
		TotalInteractions: p.TotalInteractions,
		LastRetrainedAt:   p.LastRetrainedAt,
	}
}

type retrainResponse struct {
	Retrained bool `json:"retrained"`
}

type vibeNameResponse struct {
	VibeName string `json:"vibe_name"`
}

type tokenRequest struct {
	State string `json:"state"`
	Code  string `json:"code"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry"`
}

type previewResponse struct {
	TrackID    int64  `json:"track_id"`
	PreviewURL string `json:"preview_url"`
}

type errorResponse struct {
	Error string `json:"error"`
}
