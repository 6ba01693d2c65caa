package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/blackwell-systems/impactlog/internal/scoring"
	"github.com/blackwell-systems/impactlog/internal/store"
	"github.com/blackwell-systems/impactlog/internal/suggest"
	"github.com/blackwell-systems/impactlog/internal/weekly"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Review is a weekly summary over a period, with the last saved review
// for comparison.
type Review struct {
	PeriodStart  time.Time        `json:"period_start"`
	PeriodEnd    time.Time        `json:"period_end"`
	SessionCount int              `json:"session_count"`
	Summary      weekly.Summary   `json:"summary"`
	Previous     *store.ReviewRow `json:"previous,omitempty"`

	sessions []weekly.SessionSummary
}

// Delta is the change in total score since the previous saved review.
// It reports false when no review has been saved yet.
func (r *Review) Delta() (float64, bool) {
	if r.Previous == nil {
		return 0, false
	}
	return scoring.Round(r.Summary.TotalScore-r.Previous.TotalScore, 1), true
}

// Review builds the summary of sessions created in the last days days.
// Sessions and the last saved review are loaded concurrently.
func (t *Tracker) Review(ctx context.Context, days int) (*Review, error) {
	if days <= 0 {
		return nil, fmt.Errorf("%w: review period must be positive, got %d days", ErrInvalidInput, days)
	}
	end := t.now().UTC()
	start := end.AddDate(0, 0, -days)

	var (
		sessions []store.SessionRow
		previous *store.ReviewRow
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sessions, err = t.db.ListSessions(gctx, start)
		return err
	})
	g.Go(func() error {
		var err error
		previous, err = t.db.GetLatestReview(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("loading review data: %w", err)
	}

	scored := t.summarizeAll(sessions)
	summary := weekly.Aggregate(scored, t.tmpl)
	log.Debug().Int("sessions", len(sessions)).Float64("total", summary.TotalScore).Msg("review built")

	return &Review{
		PeriodStart:  start,
		PeriodEnd:    end,
		SessionCount: len(sessions),
		Summary:      summary,
		Previous:     previous,
		sessions:     scored,
	}, nil
}

// Advice runs the suggestion rules over a review.
func (t *Tracker) Advice(ctx context.Context, r *Review) ([]suggest.Suggestion, error) {
	due, err := t.Due(ctx)
	if err != nil {
		return nil, err
	}
	rc := &suggest.ReviewContext{
		Catalog:    t.cat,
		Sessions:   r.sessions,
		DueChecks:  len(due),
		TotalScore: r.Summary.TotalScore,
	}
	if r.Previous != nil {
		prev := r.Previous.TotalScore
		rc.PreviousScore = &prev
	}
	return suggest.NewEngine().Run(rc), nil
}

// SaveReview stores the review's headline numbers so the next review can
// report a delta.
func (t *Tracker) SaveReview(ctx context.Context, r *Review, version string) (*store.ReviewRow, error) {
	row := &store.ReviewRow{
		TakenAt:      t.now().UTC(),
		PeriodStart:  r.PeriodStart,
		PeriodEnd:    r.PeriodEnd,
		TotalScore:   r.Summary.TotalScore,
		SessionCount: r.SessionCount,
		Version:      version,
	}
	if _, err := t.db.InsertReview(ctx, row); err != nil {
		return nil, fmt.Errorf("saving review: %w", err)
	}
	return row, nil
}

// History returns up to n saved reviews, newest first.
func (t *Tracker) History(ctx context.Context, n int) ([]store.ReviewRow, error) {
	return t.db.ListReviews(ctx, n)
}
