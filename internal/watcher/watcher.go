// Package watcher polls for outcome checks that have come due and emits
// reminders for them.
package watcher

import (
	"context"
	"fmt"
	"time"

	"github.com/blackwell-systems/impactlog/internal/tracker"
	"github.com/rs/zerolog/log"
)

// Source lists the checks that are due and still have no outcome.
// *tracker.Tracker satisfies it.
type Source interface {
	Due(ctx context.Context) ([]tracker.DueCheck, error)
}

// Alert is a reminder emitted by the watcher.
type Alert struct {
	Level   string // "info", "warning", "critical"
	Title   string
	Message string
	CheckID string
	Time    time.Time
}

// Watcher polls a Source at a regular interval and emits one alert per
// check the first time it is seen due.
type Watcher struct {
	src      Source
	interval time.Duration
	alertFn  func(Alert)
	now      func() time.Time

	// notified holds the IDs of due checks already reported. A check that
	// leaves the due list is forgotten, so it alerts again if reset to NONE.
	notified map[string]bool
}

// New creates a Watcher over src.
func New(src Source, interval time.Duration, alertFn func(Alert)) *Watcher {
	return &Watcher{
		src:      src,
		interval: interval,
		alertFn:  alertFn,
		now:      time.Now,
		notified: make(map[string]bool),
	}
}

// Run checks immediately, then at every interval. Blocks until ctx is
// cancelled and returns ctx.Err().
func (w *Watcher) Run(ctx context.Context) error {
	w.emit(w.Check(ctx))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.emit(w.Check(ctx))
		}
	}
}

func (w *Watcher) emit(alerts []Alert) {
	if w.alertFn == nil {
		return
	}
	for _, a := range alerts {
		w.alertFn(a)
	}
}

// Check performs a single poll and returns alerts for checks that became
// due since the previous poll. A failed poll yields one warning and keeps
// the previous state.
func (w *Watcher) Check(ctx context.Context) []Alert {
	due, err := w.src.Due(ctx)
	if err != nil {
		return []Alert{{
			Level:   "warning",
			Title:   "Check failed",
			Message: fmt.Sprintf("Could not read due checks: %v", err),
			Time:    w.now(),
		}}
	}

	current := make(map[string]bool, len(due))
	var alerts []Alert
	for _, d := range due {
		current[d.ID] = true
		if w.notified[d.ID] {
			continue
		}
		alerts = append(alerts, dueAlert(d, w.now()))
	}
	w.notified = current

	log.Debug().Int("due", len(due)).Int("new", len(alerts)).Msg("watch poll")
	return alerts
}

// Pending returns the number of due checks seen on the last poll.
func (w *Watcher) Pending() int {
	return len(w.notified)
}
