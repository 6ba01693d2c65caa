package suggest

import "sort"

// RankSuggestions orders suggestions by Priority (critical first), then by
// ImpactScore descending. Full ties keep rule order. The input is not
// modified.
func RankSuggestions(suggestions []Suggestion) []Suggestion {
	sorted := make([]Suggestion, len(suggestions))
	copy(sorted, suggestions)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority < sorted[j].Priority
		}
		return sorted[i].ImpactScore > sorted[j].ImpactScore
	})
	return sorted
}

// ComputeImpact calculates an impact score for a suggestion.
// Formula: (affectedSessions * frequency * gain) / effort
//
// Parameters:
//   - affectedSessions: number of sessions the finding covers
//   - frequency: share of the period affected (0.0-1.0)
//   - gain: estimated score points recovered by acting on it
//   - effort: estimated minutes of work to act on it
//
// Returns 0 if effort is zero to avoid division by zero.
func ComputeImpact(affectedSessions int, frequency float64, gain float64, effort float64) float64 {
	if effort <= 0 {
		return 0
	}
	return (float64(affectedSessions) * frequency * gain) / effort
}
