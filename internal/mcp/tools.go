package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/blackwell-systems/impactlog/internal/catalog"
	"github.com/blackwell-systems/impactlog/internal/outcome"
	"github.com/blackwell-systems/impactlog/internal/store"
	"github.com/blackwell-systems/impactlog/internal/suggest"
	"github.com/blackwell-systems/impactlog/internal/tracker"
	"github.com/blackwell-systems/impactlog/internal/weekly"
)

const (
	defaultListDays = 7
	maxListDays     = 365
)

// MetricsResult lists catalog metrics.
type MetricsResult struct {
	Metrics []catalog.Metric `json:"metrics"`
}

// SessionsResult lists scored sessions with their checks.
type SessionsResult struct {
	Sessions []SessionDetail `json:"sessions"`
}

// SessionDetail is a scored session with its outcome checks.
type SessionDetail struct {
	weekly.SessionSummary
	SecondaryMetricKeys []string        `json:"secondary_metric_keys"`
	Checks              []outcome.Check `json:"outcome_checks"`
}

// DueResult lists pending checks.
type DueResult struct {
	Checks []tracker.DueCheck `json:"checks"`
}

// ReviewResult is a weekly review with its delta and advice.
type ReviewResult struct {
	*tracker.Review
	ScoreDelta *float64             `json:"delta,omitempty"`
	Saved      *store.ReviewRow     `json:"saved,omitempty"`
	Advice     []suggest.Suggestion `json:"advice"`
}

// NextStepsResult lists suggested actions for a level.
type NextStepsResult struct {
	Level catalog.Level  `json:"level"`
	Steps []catalog.Step `json:"steps"`
}

var (
	noArgsSchema = json.RawMessage(`{"type":"object","properties":{},"additionalProperties":false}`)

	listMetricsSchema = json.RawMessage(`{"type":"object","properties":{"level":{"type":"string","enum":["A","B","C"],"description":"Only metrics of this level"}},"additionalProperties":false}`)

	createSessionSchema = json.RawMessage(`{"type":"object","properties":{` +
		`"title":{"type":"string"},` +
		`"duration_minutes":{"type":"integer","minimum":1},` +
		`"primary_metric_key":{"type":"string","description":"Catalog metric key, see list_metrics"},` +
		`"secondary_metric_keys":{"type":"array","items":{"type":"string"},"maxItems":2},` +
		`"notes":{"type":"string"}},` +
		`"required":["title","duration_minutes","primary_metric_key"],"additionalProperties":false}`)

	updateCheckSchema = json.RawMessage(`{"type":"object","properties":{` +
		`"check_id":{"type":"string"},` +
		`"outcome_level":{"type":"string","enum":["NONE","LOW","MED","HIGH"]},` +
		`"metric_value":{"type":"number"},` +
		`"note":{"type":"string"},` +
		`"clear_metric_value":{"type":"boolean","description":"Remove the recorded metric value"},` +
		`"clear_note":{"type":"boolean","description":"Remove the note"}},` +
		`"required":["check_id"],"additionalProperties":false}`)

	daysSchema = json.RawMessage(`{"type":"object","properties":{"days":{"type":"integer","description":"Look-back window in days (default 7)"}},"additionalProperties":false}`)

	weeklyReviewSchema = json.RawMessage(`{"type":"object","properties":{` +
		`"days":{"type":"integer","description":"Look-back window in days (default 7)"},` +
		`"save":{"type":"boolean","description":"Store the review so the next one reports a delta"}},` +
		`"additionalProperties":false}`)

	nextStepsSchema = json.RawMessage(`{"type":"object","properties":{` +
		`"level":{"type":"string","enum":["A","B","C"]},` +
		`"metric_key":{"type":"string"}},"additionalProperties":false}`)
)

// addTools registers all MCP tool handlers on s.
func addTools(s *Server) {
	s.registerTool(toolDef{
		Name:        "list_metrics",
		Description: "Catalog of trackable metrics with level (A business, B predictive, C vanity), check windows and bonus rules.",
		InputSchema: listMetricsSchema,
		Handler:     s.handleListMetrics,
	})
	s.registerTool(toolDef{
		Name:        "create_session",
		Description: "Log a work session against a primary metric. Schedules its outcome checks.",
		InputSchema: createSessionSchema,
		Handler:     s.handleCreateSession,
	})
	s.registerTool(toolDef{
		Name:        "update_check",
		Description: "Record the outcome level, metric value or note of an outcome check.",
		InputSchema: updateCheckSchema,
		Handler:     s.handleUpdateCheck,
	})
	s.registerTool(toolDef{
		Name:        "list_sessions",
		Description: "Recent sessions with score, score per hour and outcome checks, newest first.",
		InputSchema: daysSchema,
		Handler:     s.handleListSessions,
	})
	s.registerTool(toolDef{
		Name:        "due_checks",
		Description: "Outcome checks that are past due and have no outcome recorded yet.",
		InputSchema: noArgsSchema,
		Handler:     s.handleDueChecks,
	})
	s.registerTool(toolDef{
		Name:        "weekly_review",
		Description: "Weekly summary: total score, sessions by level, top actions, decisions and advice.",
		InputSchema: weeklyReviewSchema,
		Handler:     s.handleWeeklyReview,
	})
	s.registerTool(toolDef{
		Name:        "next_steps",
		Description: "Suggested actions to move up one level. Defaults to the level of the newest session.",
		InputSchema: nextStepsSchema,
		Handler:     s.handleNextSteps,
	})
}

// decodeArgs unmarshals tool arguments, treating null as empty.
func decodeArgs(args json.RawMessage, v any) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// clampDays applies the default and upper bound to a look-back window.
func clampDays(days *int) int {
	if days == nil || *days <= 0 {
		return defaultListDays
	}
	return min(*days, maxListDays)
}

func (s *Server) handleListMetrics(_ context.Context, args json.RawMessage) (any, error) {
	var params struct {
		Level string `json:"level"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return nil, err
	}
	cat := s.tracker.Catalog()
	if params.Level == "" {
		return MetricsResult{Metrics: cat.Metrics()}, nil
	}
	l, err := catalog.ParseLevel(params.Level)
	if err != nil {
		return nil, err
	}
	return MetricsResult{Metrics: cat.MetricsByLevel(l)}, nil
}

func (s *Server) handleCreateSession(ctx context.Context, args json.RawMessage) (any, error) {
	var in tracker.NewSession
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	return s.tracker.CreateSession(ctx, in)
}

func (s *Server) handleUpdateCheck(ctx context.Context, args json.RawMessage) (any, error) {
	var params struct {
		CheckID string `json:"check_id"`
		tracker.CheckUpdate
	}
	if err := decodeArgs(args, &params); err != nil {
		return nil, err
	}
	ch, err := s.tracker.UpdateCheck(ctx, params.CheckID, params.CheckUpdate)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("no check with id %q", params.CheckID)
	}
	return ch, err
}

func (s *Server) handleListSessions(ctx context.Context, args json.RawMessage) (any, error) {
	var params struct {
		Days *int `json:"days"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return nil, err
	}
	sessions, err := s.tracker.Sessions(ctx, clampDays(params.Days))
	if err != nil {
		return nil, err
	}
	result := make([]SessionDetail, 0, len(sessions))
	for _, row := range sessions {
		result = append(result, SessionDetail{
			SessionSummary:      s.tracker.Summarize(row),
			SecondaryMetricKeys: row.SecondaryMetricKeys,
			Checks:              row.Checks,
		})
	}
	return SessionsResult{Sessions: result}, nil
}

func (s *Server) handleDueChecks(ctx context.Context, _ json.RawMessage) (any, error) {
	due, err := s.tracker.Due(ctx)
	if err != nil {
		return nil, err
	}
	return DueResult{Checks: due}, nil
}

func (s *Server) handleWeeklyReview(ctx context.Context, args json.RawMessage) (any, error) {
	var params struct {
		Days *int `json:"days"`
		Save bool `json:"save"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return nil, err
	}
	r, err := s.tracker.Review(ctx, clampDays(params.Days))
	if err != nil {
		return nil, err
	}
	advice, err := s.tracker.Advice(ctx, r)
	if err != nil {
		return nil, err
	}
	result := ReviewResult{Review: r, Advice: advice}
	if d, ok := r.Delta(); ok {
		result.ScoreDelta = &d
	}
	if params.Save {
		saved, err := s.tracker.SaveReview(ctx, r, s.version)
		if err != nil {
			return nil, err
		}
		result.Saved = saved
	}
	return result, nil
}

func (s *Server) handleNextSteps(ctx context.Context, args json.RawMessage) (any, error) {
	var params struct {
		Level     string `json:"level"`
		MetricKey string `json:"metric_key"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return nil, err
	}

	var level catalog.Level
	switch {
	case params.Level != "":
		l, err := catalog.ParseLevel(params.Level)
		if err != nil {
			return nil, err
		}
		level = l
	case params.MetricKey != "":
		level = weekly.PrimaryLevel(s.tracker.Catalog(), params.MetricKey)
	default:
		l, err := s.tracker.CurrentLevel(ctx)
		if err != nil {
			return nil, err
		}
		level = l
	}
	return NextStepsResult{Level: level, Steps: s.tracker.NextSteps(level)}, nil
}
