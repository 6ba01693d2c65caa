package outcome

import (
	"time"

	"github.com/blackwell-systems/impactlog/internal/catalog"
)

// DefaultWindowDays is the single check window used when a session's
// primary metric is not in the catalog.
const DefaultWindowDays = 7

// Check is a scheduled follow-up observation for a session.
type Check struct {
	ID              string    `json:"id,omitempty"`
	SessionID       string    `json:"session_id,omitempty"`
	MetricKey       string    `json:"metric_key"`
	CheckWindowDays int       `json:"check_window_days"`
	DueAt           time.Time `json:"due_at"`
	Level           Level     `json:"outcome_level"`
	MetricValue     *float64  `json:"metric_value"`
	Note            *string   `json:"note"`
}

// BuildChecks returns one draft check per default window of the metric,
// ascending by window. Unknown metrics get a single 7-day check. Drafts
// carry no ID; assigning one is up to the store.
func BuildChecks(c *catalog.Catalog, metricKey string, createdAt time.Time) []Check {
	windows := []int{DefaultWindowDays}
	if m, ok := c.FindMetric(metricKey); ok {
		windows = m.Windows
	}

	checks := make([]Check, 0, len(windows))
	for _, days := range windows {
		checks = append(checks, Check{
			MetricKey:       metricKey,
			CheckWindowDays: days,
			DueAt:           createdAt.AddDate(0, 0, days),
			Level:           None,
		})
	}
	return checks
}

// Latest returns the check with the largest window, which is the one used
// to score a session. ok is false when there are no checks.
func Latest(checks []Check) (Check, bool) {
	if len(checks) == 0 {
		return Check{}, false
	}
	best := checks[0]
	for _, ch := range checks[1:] {
		if ch.CheckWindowDays > best.CheckWindowDays {
			best = ch
		}
	}
	return best, true
}

// Due returns the checks that are past due and still have no outcome,
// preserving input order.
func Due(checks []Check, now time.Time) []Check {
	var due []Check
	for _, ch := range checks {
		if ch.Level == None && !ch.DueAt.After(now) {
			due = append(due, ch)
		}
	}
	return due
}
