// Package taste implements the taste-profiling and similarity-scoring engine.
package taste

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Track is a raw track record received from a catalog client.
// It is immutable once built; the engine never modifies it.
type Track struct {
	ID          string
	Title       string
	Artists     []string
	Genres      []string // explicit catalog genre tags, may be empty
	ReleaseDate string   // "1994" or "1994-03-02"; empty if unknown
	Popularity  float64  // 0-100
	Features    *AudioFeatures
}

// AudioFeatures holds the numeric audio features of a track.
type AudioFeatures struct {
	Tempo            float64
	Energy           float64
	Danceability     float64
	Valence          float64
	Acousticness     float64
	Instrumentalness float64
}

// FeatureNames lists the tracked audio features in canonical order.
var FeatureNames = []string{"tempo", "energy", "danceability", "valence", "acousticness", "instrumentalness"}

// FeatureValue returns the named feature value from f.
// Unknown names return (0, false).
func FeatureValue(f *AudioFeatures, name string) (float64, bool) {
	if f == nil {
		return 0, false
	}
	switch name {
	case "tempo":
		return f.Tempo, true
	case "energy":
		return f.Energy, true
	case "danceability":
		return f.Danceability, true
	case "valence":
		return f.Valence, true
	case "acousticness":
		return f.Acousticness, true
	case "instrumentalness":
		return f.Instrumentalness, true
	}
	return 0, false
}

// DefaultGenre is assigned when no keyword pattern matches a track.
const DefaultGenre = "Pop"

// genreKeywords maps keyword sets to genre labels, evaluated in order.
// A track may match several rows.
var genreKeywords = []struct {
	genre    string
	keywords []string
}{
	{"Hip-Hop", []string{"rap", "hip", "hop"}},
	{"Rock", []string{"rock", "metal", "punk"}},
	{"Pop", []string{"pop", "mainstream"}},
	{"Jazz", []string{"jazz", "blues", "soul"}},
	{"Electronic", []string{"electronic", "edm", "techno", "house"}},
	{"Country", []string{"country", "folk", "bluegrass"}},
	{"Classical", []string{"classical", "orchestral", "symphony"}},
	{"Reggae", []string{"reggae", "ska", "dancehall"}},
	{"Indie", []string{"indie", "alternative", "underground"}},
	{"R&B", []string{"r&b", "rnb", "soul"}},
}

// InferGenres returns the genres for a single track. Explicit catalog tags
// win; otherwise genres are inferred by case-insensitive substring matching
// of title plus artist names against the keyword table. Falls back to
// DefaultGenre when nothing matches.
func InferGenres(t Track) []string {
	if len(t.Genres) > 0 {
		return t.Genres
	}

	text := strings.ToLower(t.Title + " " + strings.Join(t.Artists, " "))

	var genres []string
	for _, row := range genreKeywords {
		for _, kw := range row.keywords {
			if strings.Contains(text, kw) {
				genres = append(genres, row.genre)
				break
			}
		}
	}

	if len(genres) == 0 {
		genres = append(genres, DefaultGenre)
	}
	return genres
}

// ExtractGenres infers genres for every track in the batch and returns the
// top 10 by frequency, ties broken by first-seen order.
func ExtractGenres(tracks []Track) []string {
	var observed []string
	for _, t := range tracks {
		observed = append(observed, InferGenres(t)...)
	}
	return TopByFrequency(observed, 10)
}

// ParseDecade parses a release date that is either a bare 4-digit year or an
// ISO-style date and returns a label like "1990s". Returns ("", false) for
// missing or unparseable dates.
func ParseDecade(releaseDate string) (string, bool) {
	if releaseDate == "" {
		return "", false
	}

	yearStr, _, _ := strings.Cut(releaseDate, "-")
	year, err := strconv.Atoi(yearStr)
	if err != nil || year <= 0 {
		return "", false
	}

	decade := (year / 10) * 10
	return strconv.Itoa(decade) + "s", true
}

// ExtractDecades returns the top 3 decades across the batch by frequency,
// ties broken by first-seen order. Unparseable dates are skipped.
func ExtractDecades(tracks []Track) []string {
	var observed []string
	for _, t := range tracks {
		if decade, ok := ParseDecade(t.ReleaseDate); ok {
			observed = append(observed, decade)
		}
	}
	return TopByFrequency(observed, 3)
}

// moodKeywords maps title keyword buckets to mood label pairs.
var moodKeywords = []struct {
	keywords []string
	moods    []string
}{
	{[]string{"happy", "joy", "smile", "dance", "party", "celebration"}, []string{"Happy", "Upbeat"}},
	{[]string{"energy", "power", "fire", "rock", "metal", "intense"}, []string{"Energetic", "Intense"}},
	{[]string{"calm", "peace", "quiet", "chill", "soft", "gentle"}, []string{"Calm", "Relaxed"}},
	{[]string{"sad", "lonely", "tears", "heartbreak", "melancholy", "blue"}, []string{"Melancholic", "Sad"}},
}

const maxMoods = 5

// DeriveMoods derives up to 5 mood labels for the batch from track title
// keywords and the batch's mean popularity. The result is deduplicated and
// sorted for determinism.
func DeriveMoods(tracks []Track) []string {
	titles := make([]string, len(tracks))
	for i, t := range tracks {
		titles[i] = strings.ToLower(t.Title)
	}
	text := strings.Join(titles, " ")

	var moods []string
	for _, bucket := range moodKeywords {
		for _, kw := range bucket.keywords {
			if strings.Contains(text, kw) {
				moods = append(moods, bucket.moods...)
				break
			}
		}
	}

	if len(tracks) > 0 {
		var sum float64
		for _, t := range tracks {
			sum += t.Popularity
		}
		switch avg := sum / float64(len(tracks)); {
		case avg > 70:
			moods = append(moods, "Popular", "Mainstream")
		case avg > 40:
			moods = append(moods, "Moderate", "Balanced")
		default:
			moods = append(moods, "Underground", "Alternative")
		}
	}

	if len(moods) == 0 {
		moods = append(moods, "Diverse", "Mixed")
	}

	// Dedup in first-seen order, cap, then sort for stable output.
	seen := make(map[string]bool, len(moods))
	deduped := moods[:0]
	for _, m := range moods {
		if !seen[m] {
			seen[m] = true
			deduped = append(deduped, m)
		}
	}
	if len(deduped) > maxMoods {
		deduped = deduped[:maxMoods]
	}
	sort.Strings(deduped)
	return deduped
}

// MoodFromFeatures classifies the batch mean valence/energy into a single
// weighted mood label. Returns an empty map when the batch has no features.
func MoodFromFeatures(features []AudioFeatures) map[string]float64 {
	if len(features) == 0 {
		return map[string]float64{}
	}

	var valence, energy float64
	for _, f := range features {
		valence += f.Valence
		energy += f.Energy
	}
	valence /= float64(len(features))
	energy /= float64(len(features))

	var mood string
	switch {
	case valence > 0.7 && energy > 0.7:
		mood = "happy_energetic"
	case valence > 0.7 && energy < 0.3:
		mood = "happy_calm"
	case valence < 0.3 && energy > 0.7:
		mood = "sad_energetic"
	case valence < 0.3 && energy < 0.3:
		mood = "sad_calm"
	default:
		mood = "neutral"
	}

	return map[string]float64{mood: 1.0}
}

// FeatureStats summarizes a numeric feature over a batch of tracks.
type FeatureStats struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Average float64 `json:"average"`
}

// ComputeStats computes min/max/mean over values, ignoring NaNs.
// Returns a zero-filled record when no valid values exist.
func ComputeStats(values []float64) FeatureStats {
	var valid []float64
	for _, v := range values {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return FeatureStats{}
	}

	stats := FeatureStats{Min: valid[0], Max: valid[0]}
	var sum float64
	for _, v := range valid {
		stats.Min = math.Min(stats.Min, v)
		stats.Max = math.Max(stats.Max, v)
		sum += v
	}
	stats.Average = sum / float64(len(valid))
	return stats
}

// stddev returns the sample standard deviation, or 0 for fewer than two values.
func stddev(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)-1))
}
