// Package store provides SQLite persistence for work sessions, their
// outcome checks, and saved weekly reviews.
package store

import (
	"time"

	"github.com/blackwell-systems/impactlog/internal/outcome"
)

// timeLayout is a fixed-width UTC layout so stored timestamps sort
// lexicographically.
const timeLayout = "2006-01-02T15:04:05.000Z"

// SessionRow is a stored work session with its checks ordered by window.
type SessionRow struct {
	ID                  string          `json:"id"`
	Title               string          `json:"title"`
	Notes               string          `json:"notes,omitempty"`
	DurationMinutes     int             `json:"duration_minutes"`
	CreatedAt           time.Time       `json:"created_at"`
	PrimaryMetricKey    string          `json:"primary_metric_key"`
	SecondaryMetricKeys []string        `json:"secondary_metric_keys"`
	Checks              []outcome.Check `json:"outcome_checks"`
}

// CheckPatch is a partial update of an outcome check. Nil fields are left
// unchanged; the Clear flags reset a field to null.
type CheckPatch struct {
	Level            *outcome.Level
	MetricValue      *float64
	Note             *string
	ClearMetricValue bool
	ClearNote        bool
}

// Empty reports whether the patch changes nothing.
func (p CheckPatch) Empty() bool {
	return p.Level == nil && p.MetricValue == nil && p.Note == nil && !p.ClearMetricValue && !p.ClearNote
}

// ReviewRow is a saved weekly review.
type ReviewRow struct {
	ID           int64     `json:"id"`
	TakenAt      time.Time `json:"taken_at"`
	PeriodStart  time.Time `json:"period_start"`
	PeriodEnd    time.Time `json:"period_end"`
	TotalScore   float64   `json:"total_score"`
	SessionCount int       `json:"session_count"`
	Version      string    `json:"version"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t
}
