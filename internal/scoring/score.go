// Package scoring converts an outcome observation into a session score and
// a score-per-hour rate.
package scoring

import (
	"math"

	"github.com/blackwell-systems/impactlog/internal/catalog"
	"github.com/blackwell-systems/impactlog/internal/outcome"
)

// MinHours is the duration floor used when computing ScorePerHour.
const MinHours = 0.1

// Input is a single outcome observation for a session.
type Input struct {
	MetricKey       string
	Level           outcome.Level
	MetricValue     *float64
	DurationMinutes int
}

// Result holds a session's score and its components.
type Result struct {
	Score        float64 `json:"score"`
	ScorePerHour float64 `json:"score_per_hour"`
	Base         float64 `json:"base"`
	Bonus        float64 `json:"bonus"`
}

// Score computes the score of a single observation.
//
//	base         = levelWeight(metric.level) × outcomeWeight(level)
//	bonus        = min(rule bonus, global cap), only for metricValue > 0
//	score        = base + bonus
//	scorePerHour = round(score / max(minutes/60, 0.1), 2)
//
// Unknown metrics and unrecorded (NONE) outcomes score zero, whatever the
// metric value.
func Score(c *catalog.Catalog, in Input) Result {
	m, ok := c.FindMetric(in.MetricKey)
	if !ok || in.Level == outcome.None {
		return Result{}
	}

	base := c.LevelWeight(m.Level) * in.Level.Weight()

	bonus := 0.0
	if in.MetricValue != nil && *in.MetricValue > 0 {
		bonus = ruleBonus(m.Bonus, *in.MetricValue)
	}
	bonus = math.Min(bonus, c.BonusCap())

	score := base + bonus
	hours := math.Max(float64(in.DurationMinutes)/60, MinHours)

	return Result{
		Score:        score,
		ScorePerHour: Round(score/hours, 2),
		Base:         base,
		Bonus:        bonus,
	}
}

// ruleBonus applies a metric's bonus rule, including its own cap.
func ruleBonus(rule catalog.BonusRule, value float64) float64 {
	switch r := rule.(type) {
	case catalog.PerUnit:
		return value * r.Rate
	case catalog.PerThousand:
		b := (value / 1000) * r.Rate
		if r.Cap > 0 {
			b = math.Min(b, r.Cap)
		}
		return b
	case catalog.NoBonus:
		return 0
	default:
		return 0
	}
}

// Round rounds x to the given number of decimal places, halves away from zero.
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
