package suggest

import (
	"fmt"
	"strings"

	"github.com/blackwell-systems/impactlog/internal/catalog"
	"github.com/blackwell-systems/impactlog/internal/outcome"
)

// VanityShareThreshold is the share of logged minutes at level C above
// which VanityHeavy fires.
const VanityShareThreshold = 0.5

// PendingOutcomes asks for past-due checks to be filled in. Unrecorded
// checks score zero, so every other number in the review understates.
func PendingOutcomes(ctx *ReviewContext) []Suggestion {
	if ctx.DueChecks == 0 {
		return nil
	}
	return []Suggestion{{
		Category: "tracking",
		Priority: PriorityCritical,
		Title:    fmt.Sprintf("Record %d pending outcome check(s)", ctx.DueChecks),
		Description: fmt.Sprintf(
			"%d check(s) are past due with no outcome. Sessions score zero until "+
				"an outcome is recorded. Run `impactlog due` to list them.",
			ctx.DueChecks,
		),
		ImpactScore: ComputeImpact(ctx.DueChecks, 1.0, 5.0, 2.0),
	}}
}

// ScoreRegression flags a period that scores below the last saved review.
func ScoreRegression(ctx *ReviewContext) []Suggestion {
	if ctx.PreviousScore == nil || ctx.TotalScore >= *ctx.PreviousScore {
		return nil
	}
	prev := *ctx.PreviousScore
	drop := prev - ctx.TotalScore
	frequency := 1.0
	if prev > 0 {
		frequency = drop / prev
	}
	return []Suggestion{{
		Category: "trend",
		Priority: PriorityHigh,
		Title:    fmt.Sprintf("Score dropped %.1f points since the last review", drop),
		Description: fmt.Sprintf(
			"Total score went from %.1f to %.1f. Compare this week's top actions "+
				"with the last review and repeat what produced business outcomes.",
			prev, ctx.TotalScore,
		),
		ImpactScore: ComputeImpact(max(len(ctx.Sessions), 1), frequency, drop, 15.0),
	}}
}

// VanityHeavy fires when more than half of the logged time went to
// level C sessions.
func VanityHeavy(ctx *ReviewContext) []Suggestion {
	var total, vanity, count int
	for _, s := range ctx.Sessions {
		total += s.DurationMinutes
		if s.PrimaryLevel == catalog.LevelC {
			vanity += s.DurationMinutes
			count++
		}
	}
	if total == 0 {
		return nil
	}
	share := float64(vanity) / float64(total)
	if share <= VanityShareThreshold {
		return nil
	}

	desc := fmt.Sprintf(
		"%.0f%% of logged time (%d of %d minutes) went to %s metrics.",
		share*100, vanity, total, strings.ToLower(catalog.LevelC.Name()),
	)
	if steps := stepLabels(ctx.Catalog, catalog.LevelC); steps != "" {
		desc += " Next: " + steps + "."
	}
	return []Suggestion{{
		Category:    "focus",
		Priority:    PriorityHigh,
		Title:       "Move time from vanity metrics to predictive signals",
		Description: desc,
		ImpactScore: ComputeImpact(count, share, 10.0, 15.0),
	}}
}

// NoBusinessSessions fires when the period has sessions but none aimed at
// a business outcome.
func NoBusinessSessions(ctx *ReviewContext) []Suggestion {
	if len(ctx.Sessions) == 0 {
		return nil
	}
	for _, s := range ctx.Sessions {
		if s.PrimaryLevel == catalog.LevelA {
			return nil
		}
	}

	desc := fmt.Sprintf("None of the %d sessions targeted a business metric.", len(ctx.Sessions))
	if steps := stepLabels(ctx.Catalog, catalog.LevelB); steps != "" {
		desc += " Next: " + steps + "."
	}
	return []Suggestion{{
		Category:    "focus",
		Priority:    PriorityMedium,
		Title:       "Plan at least one business-level session",
		Description: desc,
		ImpactScore: ComputeImpact(len(ctx.Sessions), 0.5, 15.0, 30.0),
	}}
}

// UnknownMetrics reports sessions whose primary metric is not in the
// catalog. They always score zero.
func UnknownMetrics(ctx *ReviewContext) []Suggestion {
	if ctx.Catalog == nil {
		return nil
	}
	counts := map[string]int{}
	var order []string
	for _, s := range ctx.Sessions {
		if _, ok := ctx.Catalog.FindMetric(s.PrimaryMetricKey); ok {
			continue
		}
		if counts[s.PrimaryMetricKey] == 0 {
			order = append(order, s.PrimaryMetricKey)
		}
		counts[s.PrimaryMetricKey]++
	}

	var suggestions []Suggestion
	for _, key := range order {
		n := counts[key]
		suggestions = append(suggestions, Suggestion{
			Category: "catalog",
			Priority: PriorityMedium,
			Title:    fmt.Sprintf("Add metric %q to the catalog", key),
			Description: fmt.Sprintf(
				"%d session(s) track %q, which the catalog does not define. "+
					"They score zero until the metric is added with a level and check windows.",
				n, key,
			),
			ImpactScore: ComputeImpact(n, 1.0, 2.0, 5.0),
		})
	}
	return suggestions
}

// LowYieldSessions flags sessions with a recorded outcome whose score per
// hour is under half the period average.
func LowYieldSessions(ctx *ReviewContext) []Suggestion {
	var recorded int
	var sum float64
	for _, s := range ctx.Sessions {
		if s.OutcomeLevel != outcome.None {
			recorded++
			sum += s.ScorePerHour
		}
	}
	if recorded < 2 || sum == 0 {
		return nil
	}
	avg := sum / float64(recorded)

	var suggestions []Suggestion
	for _, s := range ctx.Sessions {
		if s.OutcomeLevel == outcome.None || s.ScorePerHour >= avg/2 {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			Category: "yield",
			Priority: PriorityLow,
			Title:    fmt.Sprintf("Rethink %q", s.Title),
			Description: fmt.Sprintf(
				"Scored %.2f per hour against a period average of %.2f. "+
					"Shorten it or swap it for a higher level activity.",
				s.ScorePerHour, avg,
			),
			ImpactScore: ComputeImpact(1, 1.0, avg-s.ScorePerHour, float64(s.DurationMinutes)),
		})
	}
	return suggestions
}

func stepLabels(c *catalog.Catalog, level catalog.Level) string {
	if c == nil {
		return ""
	}
	steps := NextSteps(c, level)
	labels := make([]string, len(steps))
	for i, s := range steps {
		labels[i] = s.Label
	}
	return strings.Join(labels, ", ")
}
