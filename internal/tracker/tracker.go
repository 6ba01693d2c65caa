// Package tracker validates user input and wires the scoring core to the
// session store. It is shared by the CLI and the MCP server.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blackwell-systems/impactlog/internal/catalog"
	"github.com/blackwell-systems/impactlog/internal/outcome"
	"github.com/blackwell-systems/impactlog/internal/store"
	"github.com/blackwell-systems/impactlog/internal/suggest"
	"github.com/blackwell-systems/impactlog/internal/weekly"
	"github.com/rs/zerolog/log"
)

// ErrInvalidInput is returned for requests rejected at the boundary.
var ErrInvalidInput = errors.New("invalid input")

// MaxSecondaryMetrics is the number of secondary metrics a session may track.
const MaxSecondaryMetrics = 2

// Tracker creates sessions, records check outcomes, and builds reviews.
type Tracker struct {
	cat  *catalog.Catalog
	db   *store.DB
	tmpl weekly.Template
	now  func() time.Time
}

// New returns a Tracker backed by db.
func New(cat *catalog.Catalog, db *store.DB, tmpl weekly.Template) *Tracker {
	return &Tracker{cat: cat, db: db, tmpl: tmpl, now: time.Now}
}

// WithClock replaces the time source, for tests.
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

// Catalog returns the metric catalog in use.
func (t *Tracker) Catalog() *catalog.Catalog {
	return t.cat
}

// NewSession is the input for CreateSession.
type NewSession struct {
	Title               string   `json:"title"`
	Notes               string   `json:"notes,omitempty"`
	DurationMinutes     int      `json:"duration_minutes"`
	PrimaryMetricKey    string   `json:"primary_metric_key"`
	SecondaryMetricKeys []string `json:"secondary_metric_keys,omitempty"`
}

// Validate checks the required fields and the secondary metric rules.
func (n NewSession) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if n.DurationMinutes <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %d minutes", ErrInvalidInput, n.DurationMinutes)
	}
	if strings.TrimSpace(n.PrimaryMetricKey) == "" {
		return fmt.Errorf("%w: primary metric is required", ErrInvalidInput)
	}
	if len(n.SecondaryMetricKeys) > MaxSecondaryMetrics {
		return fmt.Errorf("%w: at most %d secondary metrics, got %d", ErrInvalidInput, MaxSecondaryMetrics, len(n.SecondaryMetricKeys))
	}
	seen := make(map[string]bool, len(n.SecondaryMetricKeys))
	for _, k := range n.SecondaryMetricKeys {
		switch {
		case k == "":
			return fmt.Errorf("%w: empty secondary metric", ErrInvalidInput)
		case k == n.PrimaryMetricKey:
			return fmt.Errorf("%w: secondary metric %q repeats the primary metric", ErrInvalidInput, k)
		case seen[k]:
			return fmt.Errorf("%w: duplicate secondary metric %q", ErrInvalidInput, k)
		}
		seen[k] = true
	}
	return nil
}

// CreateSession validates the input, schedules the outcome checks for the
// primary metric, and stores everything atomically. An unknown primary
// metric is accepted: the session gets a single 7-day check and scores
// zero until the catalog knows the metric.
func (t *Tracker) CreateSession(ctx context.Context, in NewSession) (*store.SessionRow, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	if _, ok := t.cat.FindMetric(in.PrimaryMetricKey); !ok {
		log.Warn().Str("metric", in.PrimaryMetricKey).Msg("unknown primary metric; session will score zero")
	}
	for _, k := range in.SecondaryMetricKeys {
		if _, ok := t.cat.FindMetric(k); !ok {
			log.Warn().Str("metric", k).Msg("unknown secondary metric")
		}
	}

	createdAt := t.now().UTC().Truncate(time.Millisecond)
	s := &store.SessionRow{
		Title:               strings.TrimSpace(in.Title),
		Notes:               in.Notes,
		DurationMinutes:     in.DurationMinutes,
		CreatedAt:           createdAt,
		PrimaryMetricKey:    in.PrimaryMetricKey,
		SecondaryMetricKeys: append([]string{}, in.SecondaryMetricKeys...),
		Checks:              outcome.BuildChecks(t.cat, in.PrimaryMetricKey, createdAt),
	}
	if err := t.db.CreateSession(ctx, s); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	log.Debug().Str("session", s.ID).Int("checks", len(s.Checks)).Msg("session created")
	return s, nil
}

// CheckUpdate is a partial update of a check. Level is a wire token
// (NONE, LOW, MED, HIGH; case-insensitive); empty leaves it unchanged.
// The Clear flags reset a recorded value or note to empty and cannot be
// combined with a new value for the same field.
type CheckUpdate struct {
	Level            string   `json:"outcome_level,omitempty"`
	MetricValue      *float64 `json:"metric_value,omitempty"`
	Note             *string  `json:"note,omitempty"`
	ClearMetricValue bool     `json:"clear_metric_value,omitempty"`
	ClearNote        bool     `json:"clear_note,omitempty"`
}

// UpdateCheck parses and applies a partial check update.
func (t *Tracker) UpdateCheck(ctx context.Context, id string, u CheckUpdate) (*outcome.Check, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: check id is required", ErrInvalidInput)
	}

	var patch store.CheckPatch
	if u.Level != "" {
		l, err := outcome.ParseLevel(u.Level)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		patch.Level = &l
	}
	if u.ClearMetricValue && u.MetricValue != nil {
		return nil, fmt.Errorf("%w: metric value cannot be both set and cleared", ErrInvalidInput)
	}
	if u.ClearNote && u.Note != nil {
		return nil, fmt.Errorf("%w: note cannot be both set and cleared", ErrInvalidInput)
	}
	patch.MetricValue = u.MetricValue
	patch.Note = u.Note
	patch.ClearMetricValue = u.ClearMetricValue
	patch.ClearNote = u.ClearNote
	if patch.Empty() {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}

	ch, err := t.db.UpdateCheck(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("check", id).Str("level", ch.Level.String()).Msg("check updated")
	return ch, nil
}

// Sessions lists sessions created in the last days days, newest first.
// days <= 0 lists every session.
func (t *Tracker) Sessions(ctx context.Context, days int) ([]store.SessionRow, error) {
	return t.db.ListSessions(ctx, t.since(days))
}

// Session returns a session by ID or unique ID prefix.
func (t *Tracker) Session(ctx context.Context, idPrefix string) (*store.SessionRow, error) {
	return t.db.GetSession(ctx, idPrefix)
}

// DeleteSession removes a session and its checks.
func (t *Tracker) DeleteSession(ctx context.Context, id string) error {
	return t.db.DeleteSession(ctx, id)
}

// Summarize scores a stored session.
func (t *Tracker) Summarize(s store.SessionRow) weekly.SessionSummary {
	return weekly.Summarize(t.cat, weekly.Session{
		ID:               s.ID,
		Title:            s.Title,
		DurationMinutes:  s.DurationMinutes,
		CreatedAt:        s.CreatedAt,
		PrimaryMetricKey: s.PrimaryMetricKey,
		Notes:            s.Notes,
	}, s.Checks)
}

// Summaries lists scored sessions from the last days days, newest first.
func (t *Tracker) Summaries(ctx context.Context, days int) ([]weekly.SessionSummary, error) {
	sessions, err := t.Sessions(ctx, days)
	if err != nil {
		return nil, err
	}
	return t.summarizeAll(sessions), nil
}

func (t *Tracker) summarizeAll(sessions []store.SessionRow) []weekly.SessionSummary {
	out := make([]weekly.SessionSummary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, t.Summarize(s))
	}
	return out
}

// DueCheck is a pending check together with its session title.
type DueCheck struct {
	outcome.Check
	SessionTitle string `json:"session_title"`
}

// Due returns every check that is past due and still has no outcome,
// oldest due date first within each session, newest session first.
func (t *Tracker) Due(ctx context.Context) ([]DueCheck, error) {
	sessions, err := t.db.ListSessions(ctx, time.Time{})
	if err != nil {
		return nil, err
	}
	now := t.now()
	due := []DueCheck{}
	for _, s := range sessions {
		for _, ch := range outcome.Due(s.Checks, now) {
			due = append(due, DueCheck{Check: ch, SessionTitle: s.Title})
		}
	}
	return due, nil
}

// NextSteps returns the suggested actions for a level.
func (t *Tracker) NextSteps(level catalog.Level) []catalog.Step {
	return suggest.NextSteps(t.cat, level)
}

// NextStepsForMetric returns the suggested actions for the level of a
// metric. Unknown metrics are treated as level C.
func (t *Tracker) NextStepsForMetric(metricKey string) []catalog.Step {
	return t.NextSteps(weekly.PrimaryLevel(t.cat, metricKey))
}

// CurrentLevel returns the primary level of the newest session, or C when
// there are no sessions yet.
func (t *Tracker) CurrentLevel(ctx context.Context) (catalog.Level, error) {
	sessions, err := t.db.ListSessions(ctx, time.Time{})
	if err != nil {
		return "", err
	}
	if len(sessions) == 0 {
		return catalog.LevelC, nil
	}
	return weekly.PrimaryLevel(t.cat, sessions[0].PrimaryMetricKey), nil
}

func (t *Tracker) since(days int) time.Time {
	if days <= 0 {
		return time.Time{}
	}
	return t.now().AddDate(0, 0, -days)
}
