package taste

import (
	"errors"
	"sync"
	"time"
)

// ErrProfileNotFound is returned when no taste profile exists for a user.
var ErrProfileNotFound = errors.New("taste profile not found")

// Profile is the lightweight heuristic taste profile kept in memory.
// It holds ranked lists and membership sets rather than weights.
type Profile struct {
	Genres  []string // top 10 by frequency
	Artists []string // membership set, up to 20
	Decades []string // top 3, "1990s"-style labels
	Moods   []string // up to 5 labels

	// VibeCluster is the dominant-mood name derived by clustering the
	// source tracks' audio features. Empty when too few tracks carried
	// features for clustering.
	VibeCluster string

	Tempo            FeatureStats
	Energy           FeatureStats
	Danceability     FeatureStats
	Valence          FeatureStats
	Acousticness     FeatureStats
	Instrumentalness FeatureStats
	Popularity       FeatureStats
}

// PreferenceProfile is the durable weighted profile backing the weighted
// scorer. It is persisted by the profile repository.
type PreferenceProfile struct {
	UserID  string
	Genres  map[string]float64
	Artists map[string]float64
	Decades map[string]float64
	Moods   map[string]float64

	Features map[string]FeaturePreference

	Confidence        float64
	TotalInteractions int
	LastRetrainedAt   *time.Time
}

// Cache is a process-local store of heuristic profiles keyed by user ID.
// The latest profile for a user overwrites any prior one. Safe for
// concurrent use.
type Cache struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
}

// NewCache creates an empty profile cache.
func NewCache() *Cache {
	return &Cache{profiles: make(map[string]*Profile)}
}

// Put stores the profile for a user, replacing any existing one.
func (c *Cache) Put(userID string, p *Profile) {
	c.mu.Lock()
	c.profiles[userID] = p
	c.mu.Unlock()
}

// Get returns the current profile for a user, or ErrProfileNotFound.
func (c *Cache) Get(userID string) (*Profile, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return p, nil
}

// Clear removes all cached profiles.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.profiles = make(map[string]*Profile)
	c.mu.Unlock()
}
