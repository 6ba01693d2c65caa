package watcher

import (
	"fmt"
	"time"

	"github.com/blackwell-systems/impactlog/internal/tracker"
)

// Overdue thresholds for alert levels.
const (
	warnAfter     = 24 * time.Hour
	criticalAfter = 7 * 24 * time.Hour
)

// dueAlert builds the reminder for a single due check. The level rises
// with how long the check has been waiting.
func dueAlert(d tracker.DueCheck, now time.Time) Alert {
	waited := now.Sub(d.DueAt)

	level := "info"
	switch {
	case waited >= criticalAfter:
		level = "critical"
	case waited >= warnAfter:
		level = "warning"
	}

	msg := fmt.Sprintf("%dd check of %s is due", d.CheckWindowDays, d.MetricKey)
	if waited >= warnAfter {
		msg = fmt.Sprintf("%dd check of %s is %d day(s) overdue", d.CheckWindowDays, d.MetricKey, int(waited/(24*time.Hour)))
	}

	return Alert{
		Level:   level,
		Title:   fmt.Sprintf("Record outcome: %s", d.SessionTitle),
		Message: msg,
		CheckID: d.ID,
		Time:    now,
	}
}
