package taste

import "sort"

// RankTracks filters out excluded candidates, scores each survivor, sorts
// by score descending (stable, so ties keep input order) and truncates to
// limit. The input slice is never mutated. An empty pool after exclusion
// yields an empty result.
func RankTracks(candidates []Track, excludeIDs []string, limit int, score func(Track) ScoredTrack) []ScoredTrack {
	excluded := make(map[string]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = true
	}

	scored := make([]ScoredTrack, 0, len(candidates))
	for _, t := range candidates {
		if excluded[t.ID] {
			continue
		}
		scored = append(scored, score(t))
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if limit >= 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}
