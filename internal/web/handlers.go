package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/lyrafy/lyrafy-recommender/internal/auth"
	"github.com/lyrafy/lyrafy-recommender/internal/db"
	"github.com/lyrafy/lyrafy-recommender/internal/deezer"
	"github.com/lyrafy/lyrafy-recommender/internal/learn"
	"github.com/lyrafy/lyrafy-recommender/internal/taste"
)

// Analyzer builds taste profiles from track batches.
type Analyzer interface {
	AnalyzeTaste(userID string, tracks []taste.Track) (*taste.Profile, error)
	BuildPreferenceProfile(userID string, tracks []taste.Track, features []taste.AudioFeatures) (*taste.PreferenceProfile, error)
}

// ProfileStore is the durable profile access the handlers need.
type ProfileStore interface {
	Upsert(ctx context.Context, p *taste.PreferenceProfile) error
	Get(ctx context.Context, userID string) (*taste.PreferenceProfile, error)
}

// Recommender produces ranked track lists.
type Recommender interface {
	Recommend(ctx context.Context, userID, vibeMode string, limit int, excludeIDs []string) ([]taste.ScoredTrack, error)
	FindSimilar(userID string, candidates []taste.Track, excludeIDs []string, limit int) ([]taste.ScoredTrack, error)
}

// Learner records interactions and retrains profiles.
type Learner interface {
	Record(ctx context.Context, userID, trackID, action string, trackContext *string, occurredAt time.Time) error
	Retrain(ctx context.Context, userID string) (bool, error)
}

// Previewer resolves Deezer tracks and preview streams.
type Previewer interface {
	Search(ctx context.Context, query string, limit int) ([]deezer.Track, error)
	PreviewURL(ctx context.Context, trackID int64) (string, error)
}

// Authorizer drives the PKCE token flow.
type Authorizer interface {
	BeginAuthorization() (*auth.Authorization, error)
	Exchange(ctx context.Context, state, code string) (*oauth2.Token, error)
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	analyzer    Analyzer
	profiles    ProfileStore
	recommender Recommender
	learner     Learner
	previews    Previewer
	authorizer  Authorizer
	cache       *taste.Cache
	log         *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(analyzer Analyzer, profiles ProfileStore, recommender Recommender, learner Learner, previews Previewer, authorizer Authorizer, cache *taste.Cache, log *zap.Logger) *Handlers {
	return &Handlers{
		analyzer:    analyzer,
		profiles:    profiles,
		recommender: recommender,
		learner:     learner,
		previews:    previews,
		authorizer:  authorizer,
		cache:       cache,
		log:         log,
	}
}

// Health reports service liveness (GET /health).
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// AnalyzeTaste builds both taste profiles from a track batch
// (POST /analyze-taste). The heuristic profile lands in the in-memory
// cache; the weighted profile is persisted.
func (h *Handlers) AnalyzeTaste(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	tracks := make([]taste.Track, 0, len(req.Tracks))
	var features []taste.AudioFeatures
	for _, p := range req.Tracks {
		t := p.toTrack()
		tracks = append(tracks, t)
		if t.Features != nil {
			features = append(features, *t.Features)
		}
	}

	profile, err := h.analyzer.AnalyzeTaste(req.UserID, tracks)
	if errors.Is(err, taste.ErrNoTracks) {
		writeError(w, http.StatusBadRequest, "tracks must not be empty")
		return
	}
	if err != nil {
		h.log.Error("taste analysis failed", zap.String("user_id", req.UserID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	preference, err := h.analyzer.BuildPreferenceProfile(req.UserID, tracks, features)
	if err != nil {
		// The heuristic profile is already cached; analysis still answers.
		h.log.Warn("building preference profile failed",
			zap.String("user_id", req.UserID), zap.Error(err))
	} else if err := h.profiles.Upsert(r.Context(), preference); err != nil {
		h.log.Error("persisting preference profile failed",
			zap.String("user_id", req.UserID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "saving profile failed")
		return
	}

	writeJSON(w, http.StatusOK, analyzeResponse{
		UserID:  req.UserID,
		Genres:  profile.Genres,
		Artists: profile.Artists,
		Decades: profile.Decades,
		Moods:   profile.Moods,
	})
}

// Recommendations returns ranked recommendations (POST /recommendations).
func (h *Handlers) Recommendations(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	ranked, err := h.recommender.Recommend(r.Context(), req.UserID, req.VibeMode, req.Limit, req.ExcludeIDs)
	if errors.Is(err, taste.ErrProfileNotFound) {
		writeError(w, http.StatusNotFound, "no profile for user")
		return
	}
	if err != nil {
		h.log.Error("recommendation failed", zap.String("user_id", req.UserID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "recommendation failed")
		return
	}

	writeJSON(w, http.StatusOK, toScoredResponse(ranked))
}

// SimilarTracks ranks caller-provided candidates against the cached
// heuristic profile (POST /similar-tracks).
func (h *Handlers) SimilarTracks(w http.ResponseWriter, r *http.Request) {
	var req similarTracksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	candidates := make([]taste.Track, 0, len(req.Candidates))
	for _, p := range req.Candidates {
		candidates = append(candidates, p.toTrack())
	}

	ranked, err := h.recommender.FindSimilar(req.UserID, candidates, req.ExcludeIDs, req.Limit)
	if errors.Is(err, taste.ErrProfileNotFound) {
		writeError(w, http.StatusNotFound, "no profile for user")
		return
	}
	if err != nil {
		h.log.Error("similar tracks failed", zap.String("user_id", req.UserID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "similarity ranking failed")
		return
	}

	writeJSON(w, http.StatusOK, toScoredResponse(ranked))
}

// VibeName names the user's current vibe (GET /vibe-name?user_id=...).
// The cluster-derived name from analysis wins when the source tracks
// carried audio features; otherwise the heuristic name is used. A user
// without a cached profile gets the fallback name, not an error.
func (h *Handlers) VibeName(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	profile, err := h.cache.Get(userID)
	if err != nil {
		writeJSON(w, http.StatusOK, vibeNameResponse{VibeName: taste.FallbackVibeName})
		return
	}

	name := taste.VibeName(profile)
	if profile.VibeCluster != "" {
		name = profile.VibeCluster
	}
	writeJSON(w, http.StatusOK, vibeNameResponse{VibeName: name})
}

// RecordInteraction appends an interaction event (POST /interactions).
func (h *Handlers) RecordInteraction(w http.ResponseWriter, r *http.Request) {
	var req interactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" || req.TrackID == "" {
		writeError(w, http.StatusBadRequest, "user_id and track_id are required")
		return
	}

	var occurredAt time.Time
	if req.Timestamp != nil {
		occurredAt = *req.Timestamp
	}

	err := h.learner.Record(r.Context(), req.UserID, req.TrackID, req.Action, req.Context, occurredAt)
	if errors.Is(err, learn.ErrInvalidAction) {
		writeError(w, http.StatusBadRequest, "action must be like, dislike or skip")
		return
	}
	if err != nil {
		h.log.Error("recording interaction failed", zap.String("user_id", req.UserID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "recording interaction failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

// GetProfile returns the durable preference profile (GET /profile/{userID}).
func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	profile, err := h.profiles.Get(r.Context(), userID)
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no profile for user")
		return
	}
	if err != nil {
		h.log.Error("loading profile failed", zap.String("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "loading profile failed")
		return
	}

	writeJSON(w, http.StatusOK, toProfileResponse(profile))
}

// Retrain triggers a retraining pass (POST /profile/{userID}/retrain).
func (h *Handlers) Retrain(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	retrained, err := h.learner.Retrain(r.Context(), userID)
	if err != nil {
		h.log.Error("retrain failed", zap.String("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "retrain failed")
		return
	}

	writeJSON(w, http.StatusOK, retrainResponse{Retrained: retrained})
}

// Authorize starts the PKCE flow (GET /auth/authorize).
func (h *Handlers) Authorize(w http.ResponseWriter, r *http.Request) {
	authz, err := h.authorizer.BeginAuthorization()
	if err != nil {
		h.log.Error("starting authorization failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "authorization failed")
		return
	}
	writeJSON(w, http.StatusOK, authz)
}

// ExchangeToken trades an authorization code for a token (POST /auth/token).
func (h *Handlers) ExchangeToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.State == "" || req.Code == "" {
		writeError(w, http.StatusBadRequest, "state and code are required")
		return
	}

	token, err := h.authorizer.Exchange(r.Context(), req.State, req.Code)
	if errors.Is(err, auth.ErrStateMismatch) {
		writeError(w, http.StatusBadRequest, "unknown or expired state")
		return
	}
	if err != nil {
		h.log.Error("token exchange failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "token exchange failed")
		return
	}

	writeJSON(w, http.StatusOK, toTokenResponse(token))
}

// RefreshToken refreshes an access token (POST /auth/refresh).
func (h *Handlers) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	token, err := h.authorizer.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.log.Error("token refresh failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "token refresh failed")
		return
	}

	writeJSON(w, http.StatusOK, toTokenResponse(token))
}

// DeezerSearch proxies a preview search (GET /deezer/search?q=...&limit=...).
// A failed lookup degrades to an empty result list.
func (h *Handlers) DeezerSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	tracks, err := h.previews.Search(r.Context(), query, limit)
	if err != nil {
		h.log.Warn("deezer search failed", zap.String("query", query), zap.Error(err))
		tracks = []deezer.Track{}
	}

	writeJSON(w, http.StatusOK, map[string][]deezer.Track{"tracks": tracks})
}

// DeezerPreview resolves a preview URL (GET /deezer/preview/{trackID}).
func (h *Handlers) DeezerPreview(w http.ResponseWriter, r *http.Request) {
	trackID, err := strconv.ParseInt(chi.URLParam(r, "trackID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "track id must be numeric")
		return
	}

	url, err := h.previews.PreviewURL(r.Context(), trackID)
	if errors.Is(err, deezer.ErrTrackNotFound) {
		writeError(w, http.StatusNotFound, "no preview for track")
		return
	}
	if err != nil {
		h.log.Error("preview lookup failed", zap.Int64("track_id", trackID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "preview lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, previewResponse{TrackID: trackID, PreviewURL: url})
}

func toTokenResponse(token *oauth2.Token) tokenResponse {
	return tokenResponse{
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
