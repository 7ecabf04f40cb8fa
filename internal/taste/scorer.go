package taste

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

const maxReasons = 3

// ScoredTrack pairs a candidate track with its similarity score and up to
// 3 human-readable match reasons. Produced per ranking call, never persisted.
type ScoredTrack struct {
	Track   Track
	Score   float64
	Reasons []string
}

// ScoreHeuristic scores a candidate against a lightweight profile.
// The score is bounded to [0,1]; missing candidate fields simply contribute
// nothing.
func ScoreHeuristic(t Track, p *Profile) ScoredTrack {
	var score float64
	var reasons []string

	for _, artist := range t.Artists {
		if containsString(p.Artists, artist) {
			score += 0.5
			reasons = append(reasons, "By preferred artist")
			break
		}
	}

	if decade, ok := ParseDecade(t.ReleaseDate); ok && containsString(p.Decades, decade) {
		score += 0.3
		reasons = append(reasons, fmt.Sprintf("From preferred decade (%s)", decade))
	}

	// The substring check runs both directions on purpose: it catches a
	// genre appearing inside a title as well as degenerate short titles
	// contained in a genre name.
	title := strings.ToLower(t.Title)
	for _, genre := range p.Genres {
		g := strings.ToLower(genre)
		if strings.Contains(title, g) || strings.Contains(g, title) {
			score += 0.2
			reasons = append(reasons, "Contains preferred genre keywords")
			break
		}
	}

	diff := math.Abs(t.Popularity - p.Popularity.Average)
	score += math.Max(0, 1-diff/100) * 0.1

	if len(reasons) >= 2 {
		score += 0.1
	}

	if len(reasons) > maxReasons {
		reasons = reasons[:maxReasons]
	}

	return ScoredTrack{
		Track:   t,
		Score:   math.Min(1, score),
		Reasons: reasons,
	}
}

// ScoreWeighted scores a candidate against a durable weighted profile.
// features may be nil when the catalog had none for the track; the audio
// term then contributes nothing.
func ScoreWeighted(t Track, features *AudioFeatures, p *PreferenceProfile) ScoredTrack {
	var score float64
	var reasons []string

	if matched, sum := matchWeights(t.Genres, p.Genres); len(matched) > 0 {
		score += sum * 0.3
		reasons = append(reasons, "Matches genres: "+strings.Join(matched, ", "))
	}

	if matched, sum := matchWeights(t.Artists, p.Artists); len(matched) > 0 {
		score += sum * 0.4
		reasons = append(reasons, "Matches artists: "+strings.Join(matched, ", "))
	}

	audio := audioSimilarity(features, p.Features)
	score += audio * 0.3
	if audio > 0.5 {
		reasons = append(reasons, "Similar audio characteristics")
	}

	return ScoredTrack{
		Track:   t,
		Score:   math.Min(1.0, score),
		Reasons: reasons,
	}
}

// matchWeights intersects candidate values with profile weight keys and
// returns the matched names (sorted for determinism) and their summed weight.
func matchWeights(values []string, weights map[string]float64) ([]string, float64) {
	if len(values) == 0 || len(weights) == 0 {
		return nil, 0
	}

	var matched []string
	var sum float64
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		if w, ok := weights[v]; ok {
			matched = append(matched, v)
			sum += w
		}
	}
	sort.Strings(matched)
	return matched, sum
}

// audioSimilarity averages per-feature similarity over every feature present
// in both the candidate features and the profile preferences. A feature with
// zero std is skipped rather than dividing by zero.
func audioSimilarity(features *AudioFeatures, prefs map[string]FeaturePreference) float64 {
	if features == nil || len(prefs) == 0 {
		return 0
	}

	var sum float64
	var compared int
	for _, name := range FeatureNames {
		pref, ok := prefs[name]
		if !ok {
			continue
		}
		value, ok := FeatureValue(features, name)
		if !ok {
			continue
		}

		window := pref.Std * 2
		if window <= 0 {
			continue
		}
		sum += math.Max(0, 1-math.Abs(value-pref.Preferred)/window)
		compared++
	}

	if compared == 0 {
		return 0
	}
	return sum / float64(compared)
}

func containsString(items []string, s string) bool {
	for _, item := range items {
		if item == s {
			return true
		}
	}
	return false
}
