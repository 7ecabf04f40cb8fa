package taste

import (
	"fmt"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

// FallbackVibeName is used when a user has no profile to name a vibe from.
const FallbackVibeName = "Your Vibe"

// VibeName generates a vibe mode name from a heuristic profile by combining
// an energy descriptor with the top mood and top genre.
func VibeName(p *Profile) string {
	if p == nil {
		return FallbackVibeName
	}

	topGenre := "Music"
	if len(p.Genres) > 0 {
		topGenre = p.Genres[0]
	}
	topMood := "Chill"
	if len(p.Moods) > 0 {
		topMood = p.Moods[0]
	}

	var energyDesc string
	switch avg := p.Energy.Average; {
	case avg > 0.7:
		energyDesc = "High Energy"
	case avg > 0.4:
		energyDesc = "Moderate"
	default:
		energyDesc = "Chill"
	}

	return fmt.Sprintf("%s %s %s", energyDesc, topMood, topGenre)
}

const vibeClusterCount = 3

// trackObservation adapts a track's feature vector to the clusters package.
type trackObservation struct {
	coords clusters.Coordinates
}

func (o trackObservation) Coordinates() clusters.Coordinates {
	return o.coords
}

func (o trackObservation) Distance(point clusters.Coordinates) float64 {
	return o.coords.Distance(point)
}

// ClusterVibeName names the dominant mood of a track batch by k-means
// clustering over energy/valence/danceability/acousticness and labeling the
// largest cluster's centroid. Returns ("", false) when too few tracks carry
// audio features for clustering to be meaningful.
func ClusterVibeName(tracks []Track) (string, bool) {
	var obs clusters.Observations
	for _, t := range tracks {
		if t.Features == nil {
			continue
		}
		obs = append(obs, trackObservation{coords: clusters.Coordinates{
			t.Features.Energy,
			t.Features.Valence,
			t.Features.Danceability,
			t.Features.Acousticness,
		}})
	}

	if len(obs) < vibeClusterCount {
		return "", false
	}

	km := kmeans.New()
	result, err := km.Partition(obs, vibeClusterCount)
	if err != nil {
		return "", false
	}

	// Name the largest cluster; it represents the user's dominant listening mood.
	dominant := result[0]
	for _, c := range result[1:] {
		if len(c.Observations) > len(dominant.Observations) {
			dominant = c
		}
	}

	return moodQuadrantName(dominant.Center), true
}

// moodQuadrantName maps a centroid (energy, valence, danceability,
// acousticness) to a descriptive mood name using an energy/valence quadrant
// scheme with an acousticness modifier.
func moodQuadrantName(center clusters.Coordinates) string {
	energy, valence, acousticness := center[0], center[1], center[3]

	var name string
	switch {
	case energy > 0.6 && valence > 0.5:
		name = "Upbeat Party"
	case energy > 0.6:
		name = "Intense & Dark"
	case valence > 0.5:
		name = "Chill & Happy"
	default:
		name = "Reflective & Melancholy"
	}

	if acousticness > 0.6 {
		name += " (Acoustic)"
	}
	return name
}
