package taste

import "sort"

const maxWeightedPreferences = 20

// countInOrder counts occurrences of each item, remembering first-seen order.
func countInOrder(items []string) (map[string]int, []string) {
	counts := make(map[string]int, len(items))
	var order []string
	for _, item := range items {
		if counts[item] == 0 {
			order = append(order, item)
		}
		counts[item]++
	}
	return counts, order
}

// WeightedPreferences counts occurrences of each observation and normalizes
// by the total observation count, keeping the top 20 items by weight.
// Ties are broken by first-seen order so repeated calls on the same input
// produce identical results.
func WeightedPreferences(items []string) map[string]float64 {
	if len(items) == 0 {
		return map[string]float64{}
	}

	counts, order := countInOrder(items)

	// Stable sort keeps first-seen order among equal counts.
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > maxWeightedPreferences {
		order = order[:maxWeightedPreferences]
	}

	total := float64(len(items))
	prefs := make(map[string]float64, len(order))
	for _, item := range order {
		prefs[item] = float64(counts[item]) / total
	}
	return prefs
}

// TopByFrequency returns the k most frequent distinct items, most frequent
// first, ties broken by first-seen order.
func TopByFrequency(items []string, k int) []string {
	if len(items) == 0 || k <= 0 {
		return nil
	}

	counts, order := countInOrder(items)
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > k {
		order = order[:k]
	}
	return order
}

// DedupCapped removes duplicates preserving first-seen order, keeping at
// most k items.
func DedupCapped(items []string, k int) []string {
	seen := make(map[string]bool, len(items))
	var out []string
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
		if len(out) == k {
			break
		}
	}
	return out
}

// FeaturePreference summarizes a user's preferred range for one audio feature.
type FeaturePreference struct {
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Preferred float64 `json:"preferred"`
	Std       float64 `json:"std"`
}

// AudioPreferences aggregates per-feature preference summaries over a batch.
// Features with no observed values are omitted entirely, unlike ComputeStats
// which zero-fills.
func AudioPreferences(features []AudioFeatures) map[string]FeaturePreference {
	prefs := make(map[string]FeaturePreference)
	if len(features) == 0 {
		return prefs
	}

	for _, name := range FeatureNames {
		values := make([]float64, 0, len(features))
		for i := range features {
			if v, ok := FeatureValue(&features[i], name); ok {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			continue
		}

		stats := ComputeStats(values)
		prefs[name] = FeaturePreference{
			Min:       stats.Min,
			Max:       stats.Max,
			Preferred: stats.Average,
			Std:       stddev(values, stats.Average),
		}
	}
	return prefs
}
