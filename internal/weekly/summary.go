// Package weekly folds scored sessions into the weekly review summary.
package weekly

import (
	"sort"
	"time"

	"github.com/blackwell-systems/impactlog/internal/catalog"
	"github.com/blackwell-systems/impactlog/internal/outcome"
	"github.com/blackwell-systems/impactlog/internal/scoring"
)

// TopActionCount is the number of sessions reported as top actions.
const TopActionCount = 2

// SessionSummary is a session together with its score.
type SessionSummary struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	DurationMinutes  int           `json:"duration_minutes"`
	CreatedAt        time.Time     `json:"created_at"`
	PrimaryMetricKey string        `json:"primary_metric_key"`
	PrimaryLevel     catalog.Level `json:"primary_level"`
	Score            float64       `json:"score"`
	ScorePerHour     float64       `json:"score_per_hour"`
	OutcomeLevel     outcome.Level `json:"outcome_level"`
	MetricValue      *float64      `json:"metric_value"`
	Notes            string        `json:"notes,omitempty"`
}

// Decisions is the Stop/Start/Continue block of a review.
type Decisions struct {
	Stop     string `json:"stop"`
	Start    string `json:"start"`
	Continue string `json:"continue"`
}

// Recommendations holds hints for moving sessions up one level.
type Recommendations struct {
	CToB string `json:"c_to_b,omitempty"`
	BToA string `json:"b_to_a,omitempty"`
}

// Template is the fixed review text copied into every Summary.
type Template struct {
	Decisions       Decisions       `json:"decisions"`
	Recommendations Recommendations `json:"recommendations"`
}

// Summary is the weekly review of a set of sessions.
type Summary struct {
	TotalScore      float64                            `json:"total_score"`
	ByLevel         map[catalog.Level][]SessionSummary `json:"by_level"`
	TopActions      []SessionSummary                   `json:"top_actions"`
	Decisions       Decisions                          `json:"decisions"`
	Recommendations Recommendations                    `json:"recommendations"`
}

// Aggregate builds the weekly summary. Sessions keep their input order
// inside each level bucket; top actions are the highest score-per-hour
// sessions, ties in input order.
func Aggregate(sessions []SessionSummary, tmpl Template) Summary {
	byLevel := make(map[catalog.Level][]SessionSummary, len(catalog.Levels()))
	for _, l := range catalog.Levels() {
		byLevel[l] = []SessionSummary{}
	}

	total := 0.0
	for _, s := range sessions {
		byLevel[s.PrimaryLevel] = append(byLevel[s.PrimaryLevel], s)
		total += s.Score
	}

	return Summary{
		TotalScore:      scoring.Round(total, 1),
		ByLevel:         byLevel,
		TopActions:      TopActions(sessions, TopActionCount),
		Decisions:       tmpl.Decisions,
		Recommendations: tmpl.Recommendations,
	}
}

// TopActions returns the n sessions with the highest score per hour using
// a stable sort.
func TopActions(sessions []SessionSummary, n int) []SessionSummary {
	sorted := make([]SessionSummary, len(sessions))
	copy(sorted, sessions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ScorePerHour > sorted[j].ScorePerHour
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// Summarize scores a session from its most relevant check, the one with
// the largest window. Sessions whose primary metric is unknown are placed
// at level C and score zero.
func Summarize(c *catalog.Catalog, s Session, checks []outcome.Check) SessionSummary {
	sum := SessionSummary{
		ID:               s.ID,
		Title:            s.Title,
		DurationMinutes:  s.DurationMinutes,
		CreatedAt:        s.CreatedAt,
		PrimaryMetricKey: s.PrimaryMetricKey,
		PrimaryLevel:     PrimaryLevel(c, s.PrimaryMetricKey),
		OutcomeLevel:     outcome.None,
		Notes:            s.Notes,
	}

	if latest, ok := outcome.Latest(checks); ok {
		sum.OutcomeLevel = latest.Level
		sum.MetricValue = latest.MetricValue
	}

	r := scoring.Score(c, scoring.Input{
		MetricKey:       s.PrimaryMetricKey,
		Level:           sum.OutcomeLevel,
		MetricValue:     sum.MetricValue,
		DurationMinutes: s.DurationMinutes,
	})
	sum.Score = r.Score
	sum.ScorePerHour = r.ScorePerHour
	return sum
}

// PrimaryLevel returns the level of a metric, defaulting to C for unknown keys.
func PrimaryLevel(c *catalog.Catalog, metricKey string) catalog.Level {
	if m, ok := c.FindMetric(metricKey); ok {
		return m.Level
	}
	return catalog.LevelC
}

// Session is the subset of session fields the summary needs.
type Session struct {
	ID               string
	Title            string
	DurationMinutes  int
	CreatedAt        time.Time
	PrimaryMetricKey string
	Notes            string
}
