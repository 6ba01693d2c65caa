// Package suggest turns catalog conversion rules and review data into
// recommended actions.
package suggest

import (
	"github.com/blackwell-systems/impactlog/internal/catalog"
	"github.com/blackwell-systems/impactlog/internal/weekly"
)

// Priority levels for suggestions.
const (
	PriorityCritical = 1
	PriorityHigh     = 2
	PriorityMedium   = 3
	PriorityLow      = 4
)

// Suggestion is an actionable recommendation produced from a review.
type Suggestion struct {
	Category    string  `json:"category"`
	Priority    int     `json:"priority"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ImpactScore float64 `json:"impact_score"`
}

// ReviewContext is the data the rules examine. It is assembled by the
// tracker from a review period.
type ReviewContext struct {
	// Catalog resolves metrics and conversion rules.
	Catalog *catalog.Catalog `json:"-"`

	// Sessions are the scored sessions of the period.
	Sessions []weekly.SessionSummary `json:"sessions"`

	// DueChecks is the number of past-due checks without an outcome.
	DueChecks int `json:"due_checks"`

	// TotalScore is the rounded score of the period.
	TotalScore float64 `json:"total_score"`

	// PreviousScore is the total of the last saved review, if any.
	PreviousScore *float64 `json:"previous_score,omitempty"`
}

// Rule examines the review context and produces zero or more suggestions.
type Rule func(ctx *ReviewContext) []Suggestion
