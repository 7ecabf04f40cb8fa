// Package deezer provides a client for the Deezer public API, used to
// resolve 30-second audio previews for tracks.
package deezer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"
)

const (
	baseURL   = "https://api.deezer.com"
	userAgent = "lyrafy-recommender/1.0"
)

// Deezer API error codes.
const (
	errCodeQuota        = 4
	errCodeItemsLimit   = 100
	errCodeDataNotFound = 800
	errCodeServiceBusy  = 700
)

// Sentinel errors.
var (
	// ErrRateLimited is returned when the API quota is exceeded after retries.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrTrackNotFound is returned when a track ID does not exist.
	ErrTrackNotFound = errors.New("track not found")
)

// Client is a Deezer API client with caching and rate limit retry.
type Client struct {
	httpClient *http.Client
	baseURL    string

	// In-memory cache: key = "search:{query}" or "track:{id}"
	cache   map[string][]Track
	cacheMu sync.RWMutex
}

// NewClient creates a new Deezer API client.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
		cache:   make(map[string][]Track),
	}
}

// Search finds tracks matching the query. Results are cached in memory.
// Returns an empty slice (not nil) when nothing matches.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Track, error) {
	if limit <= 0 || limit > 25 {
		limit = 10
	}
	cacheKey := fmt.Sprintf("search:%d:%s", limit, query)

	c.cacheMu.RLock()
	if cached, ok := c.cache[cacheKey]; ok {
		c.cacheMu.RUnlock()
		return cached, nil
	}
	c.cacheMu.RUnlock()

	params := url.Values{
		"q":     {query},
		"limit": {fmt.Sprintf("%d", limit)},
	}

	body, err := c.doRequest(ctx, c.baseURL+"/search?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("searching tracks: %w", err)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}

	tracks := resp.Data
	if tracks == nil {
		tracks = []Track{}
	}

	c.cacheMu.Lock()
	c.cache[cacheKey] = tracks
	c.cacheMu.Unlock()

	return tracks, nil
}

// Track fetches a single track by its Deezer ID (with caching).
func (c *Client) Track(ctx context.Context, trackID int64) (*Track, error) {
	cacheKey := fmt.Sprintf("track:%d", trackID)

	c.cacheMu.RLock()
	if cached, ok := c.cache[cacheKey]; ok && len(cached) == 1 {
		c.cacheMu.RUnlock()
		track := cached[0]
		return &track, nil
	}
	c.cacheMu.RUnlock()

	body, err := c.doRequest(ctx, fmt.Sprintf("%s/track/%d", c.baseURL, trackID))
	if err != nil {
		return nil, fmt.Errorf("fetching track %d: %w", trackID, err)
	}

	var track Track
	if err := json.Unmarshal(body, &track); err != nil {
		return nil, fmt.Errorf("parsing track response: %w", err)
	}

	c.cacheMu.Lock()
	c.cache[cacheKey] = []Track{track}
	c.cacheMu.Unlock()

	return &track, nil
}

// PreviewURL resolves the preview stream URL for a track.
// Returns ErrTrackNotFound when the track has no preview.
func (c *Client) PreviewURL(ctx context.Context, trackID int64) (string, error) {
	track, err := c.Track(ctx, trackID)
	if err != nil {
		return "", err
	}
	if track.Preview == "" {
		return "", ErrTrackNotFound
	}
	return track.Preview, nil
}

// doRequest performs an HTTP GET request with retry on rate limit.
// Retries up to 3 times with exponential backoff (1s, 2s, 4s).
func (c *Client) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	delays := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
	var lastErr error

	for attempt := 0; attempt <= len(delays); attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delays[attempt-1]):
			}
		}

		body, err := c.doSingleRequest(ctx, reqURL)
		if err == nil {
			return body, nil
		}

		if errors.Is(err, ErrRateLimited) {
			lastErr = err
			continue
		}

		return nil, err
	}

	return nil, lastErr
}

// doSingleRequest performs a single HTTP request.
func (c *Client) doSingleRequest(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	// Deezer reports errors in a 200 body.
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Code != 0 {
		switch apiErr.Error.Code {
		case errCodeQuota, errCodeServiceBusy:
			return nil, ErrRateLimited
		case errCodeDataNotFound:
			return nil, ErrTrackNotFound
		default:
			return nil, fmt.Errorf("API error %d: %s", apiErr.Error.Code, apiErr.Error.Message)
		}
	}

	return body, nil
}
