package suggest

import (
	"strings"
	"testing"

	"github.com/blackwell-systems/impactlog/internal/catalog"
	"github.com/blackwell-systems/impactlog/internal/outcome"
	"github.com/blackwell-systems/impactlog/internal/weekly"
)

func session(title, metric string, level catalog.Level, minutes int, out outcome.Level, perHour float64) weekly.SessionSummary {
	return weekly.SessionSummary{
		Title:            title,
		PrimaryMetricKey: metric,
		PrimaryLevel:     level,
		DurationMinutes:  minutes,
		OutcomeLevel:     out,
		ScorePerHour:     perHour,
	}
}

func ptr(f float64) *float64 { return &f }

// --- PendingOutcomes ---

func TestPendingOutcomes_NoneDue(t *testing.T) {
	if got := PendingOutcomes(&ReviewContext{}); len(got) != 0 {
		t.Fatalf("expected 0 suggestions, got %d", len(got))
	}
}

func TestPendingOutcomes_Due(t *testing.T) {
	got := PendingOutcomes(&ReviewContext{DueChecks: 3})
	if len(got) != 1 {
		t.Fatalf("expected 1 suggestion, got %d", len(got))
	}
	s := got[0]
	if s.Priority != PriorityCritical {
		t.Errorf("expected priority %d, got %d", PriorityCritical, s.Priority)
	}
	if !strings.Contains(s.Title, "3") {
		t.Errorf("expected title to mention the count, got %q", s.Title)
	}
	if s.ImpactScore != 7.5 {
		t.Errorf("expected impact 7.5, got %f", s.ImpactScore)
	}
}

// --- ScoreRegression ---

func TestScoreRegression(t *testing.T) {
	tests := []struct {
		name     string
		total    float64
		previous *float64
		want     int
	}{
		{"no previous review", 10, nil, 0},
		{"improved", 12, ptr(10), 0},
		{"unchanged", 10, ptr(10), 0},
		{"dropped", 6, ptr(10), 1},
		{"dropped from zero baseline", -1, ptr(0), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreRegression(&ReviewContext{TotalScore: tt.total, PreviousScore: tt.previous})
			if len(got) != tt.want {
				t.Fatalf("expected %d suggestions, got %d", tt.want, len(got))
			}
			if tt.want == 1 && got[0].ImpactScore <= 0 {
				t.Errorf("expected positive impact, got %f", got[0].ImpactScore)
			}
		})
	}
}

func TestScoreRegression_TitleShowsDrop(t *testing.T) {
	got := ScoreRegression(&ReviewContext{TotalScore: 6.5, PreviousScore: ptr(10)})
	if len(got) != 1 {
		t.Fatalf("expected 1 suggestion, got %d", len(got))
	}
	if !strings.Contains(got[0].Title, "3.5") {
		t.Errorf("expected title to contain the drop, got %q", got[0].Title)
	}
}

// --- VanityHeavy ---

func TestVanityHeavy_MostlyVanity(t *testing.T) {
	ctx := &ReviewContext{
		Catalog: catalog.Default(),
		Sessions: []weekly.SessionSummary{
			session("Post", "likes", catalog.LevelC, 90, outcome.Low, 1),
			session("DMs", "dm_started", catalog.LevelB, 30, outcome.Med, 8),
		},
	}
	got := VanityHeavy(ctx)
	if len(got) != 1 {
		t.Fatalf("expected 1 suggestion, got %d", len(got))
	}
	if !strings.Contains(got[0].Description, "75%") {
		t.Errorf("expected share in description, got %q", got[0].Description)
	}
	if !strings.Contains(got[0].Description, "Start 10 targeted DMs") {
		t.Errorf("expected next steps in description, got %q", got[0].Description)
	}
}

func TestVanityHeavy_AtThreshold(t *testing.T) {
	ctx := &ReviewContext{
		Sessions: []weekly.SessionSummary{
			session("Post", "likes", catalog.LevelC, 60, outcome.Low, 1),
			session("Call", "meetings", catalog.LevelA, 60, outcome.High, 15),
		},
	}
	if got := VanityHeavy(ctx); len(got) != 0 {
		t.Fatalf("expected 0 suggestions at exactly half, got %d", len(got))
	}
}

func TestVanityHeavy_NoSessions(t *testing.T) {
	if got := VanityHeavy(&ReviewContext{}); len(got) != 0 {
		t.Fatalf("expected 0 suggestions, got %d", len(got))
	}
}

// --- NoBusinessSessions ---

func TestNoBusinessSessions(t *testing.T) {
	noA := &ReviewContext{
		Catalog: catalog.Default(),
		Sessions: []weekly.SessionSummary{
			session("DMs", "dm_started", catalog.LevelB, 30, outcome.Med, 8),
		},
	}
	got := NoBusinessSessions(noA)
	if len(got) != 1 {
		t.Fatalf("expected 1 suggestion, got %d", len(got))
	}
	if !strings.Contains(got[0].Description, "Close 1 deal") {
		t.Errorf("expected B conversion steps in description, got %q", got[0].Description)
	}

	withA := &ReviewContext{
		Sessions: []weekly.SessionSummary{
			session("DMs", "dm_started", catalog.LevelB, 30, outcome.Med, 8),
			session("Call", "meetings", catalog.LevelA, 60, outcome.None, 0),
		},
	}
	if got := NoBusinessSessions(withA); len(got) != 0 {
		t.Fatalf("expected 0 suggestions, got %d", len(got))
	}

	if got := NoBusinessSessions(&ReviewContext{}); len(got) != 0 {
		t.Fatalf("expected 0 suggestions for an empty period, got %d", len(got))
	}
}

// --- UnknownMetrics ---

func TestUnknownMetrics_GroupsByKey(t *testing.T) {
	ctx := &ReviewContext{
		Catalog: catalog.Default(),
		Sessions: []weekly.SessionSummary{
			session("A", "podcast_guests", catalog.LevelC, 30, outcome.None, 0),
			session("B", "meetings", catalog.LevelA, 30, outcome.None, 0),
			session("C", "podcast_guests", catalog.LevelC, 30, outcome.None, 0),
			session("D", "webinar_signups", catalog.LevelC, 30, outcome.None, 0),
		},
	}
	got := UnknownMetrics(ctx)
	if len(got) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(got))
	}
	if !strings.Contains(got[0].Title, "podcast_guests") {
		t.Errorf("expected first suggestion for podcast_guests, got %q", got[0].Title)
	}
	if !strings.HasPrefix(got[0].Description, "2 session(s)") {
		t.Errorf("expected count in description, got %q", got[0].Description)
	}
	if got[0].ImpactScore <= got[1].ImpactScore {
		t.Errorf("expected more sessions to weigh more: %f vs %f", got[0].ImpactScore, got[1].ImpactScore)
	}
}

func TestUnknownMetrics_NilCatalog(t *testing.T) {
	ctx := &ReviewContext{Sessions: []weekly.SessionSummary{session("A", "x", catalog.LevelC, 30, outcome.None, 0)}}
	if got := UnknownMetrics(ctx); len(got) != 0 {
		t.Fatalf("expected 0 suggestions, got %d", len(got))
	}
}

// --- LowYieldSessions ---

func TestLowYieldSessions(t *testing.T) {
	ctx := &ReviewContext{
		Sessions: []weekly.SessionSummary{
			session("Great", "meetings", catalog.LevelA, 60, outcome.High, 15),
			session("Okay", "dm_started", catalog.LevelB, 60, outcome.Med, 8),
			session("Weak", "likes", catalog.LevelC, 60, outcome.Low, 1),
			session("Pending", "likes", catalog.LevelC, 60, outcome.None, 0),
		},
	}
	// Average over recorded sessions is 8; anything under 4 is flagged.
	got := LowYieldSessions(ctx)
	if len(got) != 1 {
		t.Fatalf("expected 1 suggestion, got %d", len(got))
	}
	if !strings.Contains(got[0].Title, "Weak") {
		t.Errorf("expected Weak to be flagged, got %q", got[0].Title)
	}
}

func TestLowYieldSessions_TooFewRecorded(t *testing.T) {
	ctx := &ReviewContext{
		Sessions: []weekly.SessionSummary{
			session("Only", "likes", catalog.LevelC, 60, outcome.Low, 1),
			session("Pending", "likes", catalog.LevelC, 60, outcome.None, 0),
		},
	}
	if got := LowYieldSessions(ctx); len(got) != 0 {
		t.Fatalf("expected 0 suggestions, got %d", len(got))
	}
}
