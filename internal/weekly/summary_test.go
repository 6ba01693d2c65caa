package weekly

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/blackwell-systems/impactlog/internal/catalog"
	"github.com/blackwell-systems/impactlog/internal/outcome"
	"github.com/blackwell-systems/impactlog/internal/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tmpl = Template{
	Decisions: Decisions{
		Stop:     "Generic posts without a direct call to action.",
		Start:    "Targeted outreach series on 15 ICP accounts.",
		Continue: "Editorial format plus short case studies.",
	},
	Recommendations: Recommendations{
		CToB: "Convert impressions into DMs with 10 ICP contacts.",
		BToA: "Turn positive replies into qualified meetings.",
	},
}

func sampleSessions() []SessionSummary {
	return []SessionSummary{
		{ID: "s1", Title: "LinkedIn ICP post", PrimaryLevel: catalog.LevelC, Score: 1.4, ScorePerHour: 0.53},
		{ID: "s2", Title: "Targeted DM outreach", PrimaryLevel: catalog.LevelB, Score: 3.2, ScorePerHour: 2.74},
		{ID: "s3", Title: "Call and proposal", PrimaryLevel: catalog.LevelA, Score: 6.8, ScorePerHour: 8.16},
		{ID: "s4", Title: "Short case study", PrimaryLevel: catalog.LevelA, Score: 5.1, ScorePerHour: 3.4},
	}
}

func ids(sessions []SessionSummary) []string {
	out := make([]string, len(sessions))
	for i, s := range sessions {
		out[i] = s.ID
	}
	return out
}

func TestAggregate(t *testing.T) {
	sum := Aggregate(sampleSessions(), tmpl)

	assert.Equal(t, 16.5, sum.TotalScore)
	assert.Equal(t, []string{"s3", "s4"}, ids(sum.ByLevel[catalog.LevelA]))
	assert.Equal(t, []string{"s2"}, ids(sum.ByLevel[catalog.LevelB]))
	assert.Equal(t, []string{"s1"}, ids(sum.ByLevel[catalog.LevelC]))
	assert.Equal(t, []string{"s3", "s4"}, ids(sum.TopActions))
	assert.Equal(t, tmpl.Decisions, sum.Decisions)
	assert.Equal(t, tmpl.Recommendations, sum.Recommendations)
}

func TestAggregate_Empty(t *testing.T) {
	sum := Aggregate(nil, tmpl)
	assert.Equal(t, 0.0, sum.TotalScore)
	assert.Empty(t, sum.TopActions)
	for _, l := range catalog.Levels() {
		assert.NotNil(t, sum.ByLevel[l], "bucket %s should be an empty slice", l)
		assert.Empty(t, sum.ByLevel[l])
	}
}

func TestAggregate_TotalScoreIsRoundedSum(t *testing.T) {
	sessions := []SessionSummary{
		{ID: "a", PrimaryLevel: catalog.LevelA, Score: 20},
		{ID: "b", PrimaryLevel: catalog.LevelC, Score: 1},
		{ID: "c", PrimaryLevel: catalog.LevelB, Score: 5.000000000000001},
		{ID: "d", PrimaryLevel: catalog.LevelB, Score: 0.26},
	}
	raw := 0.0
	for _, s := range sessions {
		raw += s.Score
	}
	sum := Aggregate(sessions, tmpl)
	assert.Equal(t, scoring.Round(raw, 1), sum.TotalScore)
	assert.Equal(t, 26.3, sum.TotalScore)
}

func TestTopActions_StableOnTies(t *testing.T) {
	sessions := []SessionSummary{
		{ID: "a", ScorePerHour: 1},
		{ID: "b", ScorePerHour: 4},
		{ID: "c", ScorePerHour: 4},
		{ID: "d", ScorePerHour: 4},
	}
	assert.Equal(t, []string{"b", "c"}, ids(TopActions(sessions, 2)))
	assert.Equal(t, []string{"b", "c", "d", "a"}, ids(TopActions(sessions, 10)))

	// Input is not reordered.
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(sessions))
}

func TestSummarize_UsesLargestWindow(t *testing.T) {
	cat := catalog.Default()
	created := time.Date(2026, 1, 2, 15, 40, 0, 0, time.UTC)
	s := Session{
		ID:               "s1",
		Title:            "Revenue push",
		DurationMinutes:  120,
		CreatedAt:        created,
		PrimaryMetricKey: "revenue_eur",
	}

	early := 1000.0
	late := 5000.0
	checks := []outcome.Check{
		{CheckWindowDays: 7, Level: outcome.Low, MetricValue: &early},
		{CheckWindowDays: 30, Level: outcome.High, MetricValue: &late},
	}

	sum := Summarize(cat, s, checks)
	assert.Equal(t, catalog.LevelA, sum.PrimaryLevel)
	assert.Equal(t, outcome.High, sum.OutcomeLevel)
	require.NotNil(t, sum.MetricValue)
	assert.Equal(t, 5000.0, *sum.MetricValue)
	assert.Equal(t, 20.0, sum.Score)
	assert.Equal(t, 10.0, sum.ScorePerHour)
}

func TestSummarize_NoChecks(t *testing.T) {
	sum := Summarize(catalog.Default(), Session{ID: "x", PrimaryMetricKey: "meetings", DurationMinutes: 30}, nil)
	assert.Equal(t, outcome.None, sum.OutcomeLevel)
	assert.Nil(t, sum.MetricValue)
	assert.Equal(t, 0.0, sum.Score)
}

func TestSummarize_UnknownMetric(t *testing.T) {
	checks := []outcome.Check{{CheckWindowDays: 7, Level: outcome.High}}
	sum := Summarize(catalog.Default(), Session{ID: "x", PrimaryMetricKey: "ghost", DurationMinutes: 30}, checks)
	assert.Equal(t, catalog.LevelC, sum.PrimaryLevel)
	assert.Equal(t, 0.0, sum.Score)
	assert.Equal(t, 0.0, sum.ScorePerHour)
}

func TestSummary_JSON(t *testing.T) {
	sum := Aggregate(sampleSessions()[:1], tmpl)
	data, err := json.Marshal(sum)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	byLevel, ok := decoded["by_level"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, byLevel, "A")
	assert.Contains(t, byLevel, "C")
}
