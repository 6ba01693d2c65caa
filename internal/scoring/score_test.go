package scoring

import (
	"math"
	"testing"

	"github.com/blackwell-systems/impactlog/internal/catalog"
	"github.com/blackwell-systems/impactlog/internal/outcome"
	"github.com/stretchr/testify/suite"
)

type ScoreSuite struct {
	suite.Suite
	cat *catalog.Catalog
}

func (s *ScoreSuite) SetupTest() {
	s.cat = catalog.Default()
}

func TestScoreSuite(t *testing.T) {
	suite.Run(t, new(ScoreSuite))
}

func ptr(v float64) *float64 { return &v }

// =============================================================================
// Reference scenarios
// =============================================================================

func (s *ScoreSuite) TestRevenueHigh() {
	r := Score(s.cat, Input{
		MetricKey:       "revenue_eur",
		Level:           outcome.High,
		MetricValue:     ptr(5000),
		DurationMinutes: 120,
	})

	// base = 5 × 3, bonus = min(5000/1000 × 1, 10) = 5, hours = 2
	s.Equal(15.0, r.Base)
	s.Equal(5.0, r.Bonus)
	s.Equal(20.0, r.Score)
	s.Equal(10.0, r.ScorePerHour)
}

func (s *ScoreSuite) TestImpressionsLow() {
	r := Score(s.cat, Input{
		MetricKey:       "impressions",
		Level:           outcome.Low,
		MetricValue:     ptr(1800),
		DurationMinutes: 160,
	})

	s.Equal(1.0, r.Base)
	s.Equal(0.0, r.Bonus)
	s.Equal(1.0, r.Score)
	s.Equal(0.38, r.ScorePerHour)
}

func (s *ScoreSuite) TestDMStartedMed() {
	r := Score(s.cat, Input{
		MetricKey:       "dm_started",
		Level:           outcome.Med,
		MetricValue:     ptr(10),
		DurationMinutes: 70,
	})

	s.Equal(4.0, r.Base)
	s.InDelta(1.0, r.Bonus, 1e-9)
	s.InDelta(5.0, r.Score, 1e-9)
	s.Equal(4.29, r.ScorePerHour)
}

// =============================================================================
// Edge cases
// =============================================================================

func (s *ScoreSuite) TestUnknownMetricScoresZero() {
	r := Score(s.cat, Input{
		MetricKey:       "nonexistent",
		Level:           outcome.High,
		MetricValue:     ptr(100),
		DurationMinutes: 60,
	})
	s.Equal(Result{}, r)
}

func (s *ScoreSuite) TestNoneLevelScoresZero() {
	for _, m := range s.cat.Metrics() {
		for _, v := range []*float64{nil, ptr(0), ptr(10), ptr(5000), ptr(1e9)} {
			r := Score(s.cat, Input{MetricKey: m.Key, Level: outcome.None, MetricValue: v, DurationMinutes: 60})
			s.Equal(Result{}, r, m.Key)
		}
	}
}

// A value recorded before the outcome level does not earn a bonus.
func (s *ScoreSuite) TestNoneLevelIgnoresBonus() {
	r := Score(s.cat, Input{MetricKey: "dm_started", Level: outcome.None, MetricValue: ptr(10), DurationMinutes: 60})
	s.Zero(r.Bonus)
	s.Zero(r.Score)
	s.Zero(r.ScorePerHour)
}

func (s *ScoreSuite) TestBonusNeverExceedsGlobalCap() {
	for _, m := range s.cat.Metrics() {
		for _, v := range []float64{0, 1, 10, 1e3, 1e6, 1e12} {
			r := Score(s.cat, Input{
				MetricKey:       m.Key,
				Level:           outcome.Med,
				MetricValue:     ptr(v),
				DurationMinutes: 45,
			})
			s.LessOrEqual(r.Bonus, s.cat.BonusCap(), "%s value %g", m.Key, v)
			s.GreaterOrEqual(r.Bonus, 0.0, "%s value %g", m.Key, v)
			s.InDelta(r.Base+r.Bonus, r.Score, 1e-9)
		}
	}
}

func (s *ScoreSuite) TestDealsSignedHitsGlobalCap() {
	// 2.0 per deal × 8 = 16, clamped to the global cap of 10.
	r := Score(s.cat, Input{
		MetricKey:       "deals_signed",
		Level:           outcome.High,
		MetricValue:     ptr(8),
		DurationMinutes: 60,
	})
	s.Equal(10.0, r.Bonus)
	s.Equal(25.0, r.Score)
	s.Equal(25.0, r.ScorePerHour)
}

func (s *ScoreSuite) TestRevenuePerRuleCap() {
	r := Score(s.cat, Input{
		MetricKey:       "revenue_eur",
		Level:           outcome.Low,
		MetricValue:     ptr(50000),
		DurationMinutes: 60,
	})
	s.Equal(10.0, r.Bonus)
	s.Equal(15.0, r.Score)
}

func (s *ScoreSuite) TestNonPositiveValueGivesNoBonus() {
	for _, v := range []*float64{nil, ptr(0), ptr(-5)} {
		r := Score(s.cat, Input{
			MetricKey:       "meetings",
			Level:           outcome.Low,
			MetricValue:     v,
			DurationMinutes: 60,
		})
		s.Equal(0.0, r.Bonus)
		s.Equal(5.0, r.Score)
	}
}

func (s *ScoreSuite) TestDurationFloor() {
	// Zero minutes uses the 0.1h floor instead of dividing by zero.
	r := Score(s.cat, Input{
		MetricKey:       "meetings",
		Level:           outcome.Low,
		DurationMinutes: 0,
	})
	s.Equal(5.0, r.Score)
	s.Equal(50.0, r.ScorePerHour)
	s.False(math.IsInf(r.ScorePerHour, 0))
	s.False(math.IsNaN(r.ScorePerHour))

	// 3 minutes is below the floor as well.
	r = Score(s.cat, Input{MetricKey: "meetings", Level: outcome.Low, DurationMinutes: 3})
	s.Equal(50.0, r.ScorePerHour)
}

func (s *ScoreSuite) TestCustomCatalogWeights() {
	cat, err := catalog.Parse([]byte(`
bonus_cap: 2
level_weights: {A: 10, B: 4, C: 1}
metrics:
  - {key: calls, label: Calls, level: B, unit: count, check_windows_days: [3], bonus: {per_unit: 1}}
`))
	s.Require().NoError(err)

	r := Score(cat, Input{MetricKey: "calls", Level: outcome.High, MetricValue: ptr(5), DurationMinutes: 60})
	s.Equal(12.0, r.Base)
	s.Equal(2.0, r.Bonus)
	s.Equal(14.0, r.Score)
}

func TestRound(t *testing.T) {
	tests := []struct {
		x      float64
		places int
		want   float64
	}{
		{0.375, 2, 0.38},
		{4.285714285714286, 2, 4.29},
		{28.55, 1, 28.6},
		{1.04, 1, 1.0},
		{10, 2, 10},
	}
	for _, tc := range tests {
		if got := Round(tc.x, tc.places); got != tc.want {
			t.Errorf("Round(%v, %d) = %v, want %v", tc.x, tc.places, got, tc.want)
		}
	}
}
