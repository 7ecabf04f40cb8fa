package catalog

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/lyrafy/lyrafy-recommender/internal/taste"
)

// Default concurrency for candidate gathering.
const DefaultConcurrency = 5

// maxVibeCandidates caps the candidate pool returned by GatherVibeCandidates.
const maxVibeCandidates = 300

// vibeQueryTemplates expand a genre or mood term into search queries.
var vibeQueryTemplates = []string{
	"%s music",
	"popular %s",
	"%s hits",
	"trending %s",
	"best %s songs",
	"%s 2024",
	"%s 2023",
	"top %s artists",
}

// popularArtists seed the candidate pool when a profile is thin.
var popularArtists = []string{
	"Drake", "Taylor Swift", "The Weeknd", "Billie Eilish", "Ariana Grande",
	"Ed Sheeran", "Post Malone", "Dua Lipa", "Olivia Rodrigo", "Harry Styles",
	"Bad Bunny", "Travis Scott", "Kendrick Lamar", "J. Cole", "Future",
}

// Gatherer collects candidate tracks for scoring.
type Gatherer struct {
	client      *Client
	concurrency int
	log         *zap.Logger
}

// GathererOption configures a Gatherer.
type GathererOption func(*Gatherer)

// WithConcurrency sets the number of concurrent search requests.
func WithConcurrency(n int) GathererOption {
	return func(g *Gatherer) {
		if n > 0 {
			g.concurrency = n
		}
	}
}

// NewGatherer creates a candidate gatherer.
func NewGatherer(client *Client, log *zap.Logger, opts ...GathererOption) *Gatherer {
	g := &Gatherer{
		client:      client,
		concurrency: DefaultConcurrency,
		log:         log,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GatherVibeCandidates fans search queries out over the vibe terms and the
// popular artist seeds, deduplicates by track ID, and caps the pool at 300.
// Individual search failures are logged and skipped rather than failing the
// batch; an error is returned only when every query failed.
func (g *Gatherer) GatherVibeCandidates(ctx context.Context, terms []string) ([]taste.Track, error) {
	queries := buildVibeQueries(terms)

	workCh := make(chan string, len(queries))
	for _, q := range queries {
		workCh <- q
	}
	close(workCh)

	var (
		mu       sync.Mutex
		pool     []taste.Track
		seen     = make(map[string]bool)
		failures int
	)

	var wg sync.WaitGroup
	for i := 0; i < g.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for query := range workCh {
				select {
				case <-ctx.Done():
					continue
				default:
				}

				tracks, err := g.client.SearchTracks(ctx, query, 20)
				if err != nil {
					g.log.Warn("candidate search failed",
						zap.String("query", query),
						zap.Error(err))
					mu.Lock()
					failures++
					mu.Unlock()
					continue
				}

				mu.Lock()
				for _, t := range tracks {
					if seen[t.ID] || len(pool) >= maxVibeCandidates {
						continue
					}
					seen[t.ID] = true
					pool = append(pool, t)
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if ctx.Err() != nil {
		return pool, ctx.Err()
	}
	if failures == len(queries) {
		return nil, fmt.Errorf("gathering candidates: all %d queries failed", len(queries))
	}

	g.log.Info("gathered vibe candidates",
		zap.Int("queries", len(queries)),
		zap.Int("failures", failures),
		zap.Int("candidates", len(pool)))
	return pool, nil
}

// buildVibeQueries expands the vibe terms through the query templates and
// appends the popular artist seed queries.
func buildVibeQueries(terms []string) []string {
	var queries []string
	for _, term := range terms {
		for _, tmpl := range vibeQueryTemplates {
			queries = append(queries, fmt.Sprintf(tmpl, term))
		}
	}
	for _, artist := range popularArtists {
		queries = append(queries, fmt.Sprintf("artist:%s", artist))
	}
	return queries
}
