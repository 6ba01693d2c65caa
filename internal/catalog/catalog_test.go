package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_FindMetricRoundTrip(t *testing.T) {
	c := Default()
	metrics := c.Metrics()
	require.Len(t, metrics, 14)

	for _, m := range metrics {
		got, ok := c.FindMetric(m.Key)
		require.True(t, ok, "metric %s not found", m.Key)
		assert.Equal(t, m, got)
	}
}

func TestFindMetric_Unknown(t *testing.T) {
	c := Default()

	_, ok := c.FindMetric("nonexistent")
	assert.False(t, ok)

	// Lookup is case-sensitive.
	_, ok = c.FindMetric("Revenue_EUR")
	assert.False(t, ok)
}

func TestDefault_KnownMetrics(t *testing.T) {
	c := Default()

	rev, ok := c.FindMetric("revenue_eur")
	require.True(t, ok)
	assert.Equal(t, LevelA, rev.Level)
	assert.Equal(t, UnitCurrency, rev.Unit)
	assert.Equal(t, []int{30}, rev.Windows)
	assert.Equal(t, PerThousand{Rate: 1, Cap: 10}, rev.Bonus)

	dm, ok := c.FindMetric("dm_started")
	require.True(t, ok)
	assert.Equal(t, LevelB, dm.Level)
	assert.Equal(t, []int{2, 7}, dm.Windows)
	assert.Equal(t, PerUnit{Rate: 0.1}, dm.Bonus)

	imp, ok := c.FindMetric("impressions")
	require.True(t, ok)
	assert.Equal(t, LevelC, imp.Level)
	assert.Equal(t, NoBonus{}, imp.Bonus)
}

func TestDefault_Invariants(t *testing.T) {
	c := Default()
	seen := make(map[string]bool)
	for _, m := range c.Metrics() {
		assert.False(t, seen[m.Key], "duplicate key %s", m.Key)
		seen[m.Key] = true

		require.NotEmpty(t, m.Windows, m.Key)
		for i := 1; i < len(m.Windows); i++ {
			assert.Greater(t, m.Windows[i], m.Windows[i-1], "windows of %s not strictly increasing", m.Key)
		}
		assert.NotNil(t, m.Bonus, m.Key)
	}
}

func TestLevelWeight(t *testing.T) {
	c := Default()
	assert.Equal(t, 5.0, c.LevelWeight(LevelA))
	assert.Equal(t, 2.0, c.LevelWeight(LevelB))
	assert.Equal(t, 1.0, c.LevelWeight(LevelC))
	assert.Equal(t, 0.0, c.LevelWeight(Level("Z")))
	assert.Equal(t, 10.0, c.BonusCap())
}

func TestFindMetric_ReturnsCopy(t *testing.T) {
	c := Default()
	m, ok := c.FindMetric("meetings")
	require.True(t, ok)
	m.Windows[0] = 999

	again, _ := c.FindMetric("meetings")
	assert.Equal(t, []int{7, 30}, again.Windows)
}

func TestLevels_FreshSlice(t *testing.T) {
	ls := Levels()
	ls[0] = LevelC
	assert.Equal(t, []Level{LevelA, LevelB, LevelC}, Levels())
}

func TestLevel_Ordering(t *testing.T) {
	assert.Greater(t, LevelA.Rank(), LevelB.Rank())
	assert.Greater(t, LevelB.Rank(), LevelC.Rank())
	assert.Equal(t, 0, Level("D").Rank())
	assert.Equal(t, "Business", LevelA.Name())
	assert.Equal(t, "Predictive", LevelB.Name())
	assert.Equal(t, "Vanity", LevelC.Name())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"A", LevelA, false},
		{"b", LevelB, false},
		{" c ", LevelC, false},
		{"D", "", true},
		{"", "", true},
	}
	for _, tc := range tests {
		got, err := ParseLevel(tc.in)
		if tc.wantErr {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestRule(t *testing.T) {
	c := Default()

	r, ok := c.Rule(LevelC)
	require.True(t, ok)
	assert.Len(t, r.SuggestNext, 3)
	assert.Len(t, r.ThenPush, 1)

	_, ok = c.Rule(LevelA)
	assert.False(t, ok, "top level has no conversion rule")
}

const minimalCatalog = `
level_weights: {A: 5, B: 2, C: 1}
metrics:
  - key: leads
    label: Leads
    level: A
    unit: count
    check_windows_days: [7]
`

func TestParse_Minimal(t *testing.T) {
	c, err := Parse([]byte(minimalCatalog))
	require.NoError(t, err)
	assert.Equal(t, DefaultBonusCap, c.BonusCap())

	m, ok := c.FindMetric("leads")
	require.True(t, ok)
	assert.Equal(t, NoBonus{}, m.Bonus)
	assert.Empty(t, c.Rules())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "empty",
			yaml: "",
			want: "empty catalog",
		},
		{
			name: "unknown field",
			yaml: minimalCatalog + "extra: true\n",
			want: "extra",
		},
		{
			name: "missing weights",
			yaml: `
metrics:
  - {key: a, label: A, level: A, unit: count, check_windows_days: [1]}
`,
			want: "missing weight for level A",
		},
		{
			name: "duplicate key",
			yaml: `
level_weights: {A: 5, B: 2, C: 1}
metrics:
  - {key: a, label: A, level: A, unit: count, check_windows_days: [1]}
  - {key: a, label: A2, level: B, unit: count, check_windows_days: [1]}
`,
			want: `duplicate key "a"`,
		},
		{
			name: "windows not increasing",
			yaml: `
level_weights: {A: 5, B: 2, C: 1}
metrics:
  - {key: a, label: A, level: A, unit: count, check_windows_days: [7, 7]}
`,
			want: "strictly increasing",
		},
		{
			name: "empty windows",
			yaml: `
level_weights: {A: 5, B: 2, C: 1}
metrics:
  - {key: a, label: A, level: A, unit: count, check_windows_days: []}
`,
			want: "must not be empty",
		},
		{
			name: "bad unit",
			yaml: `
level_weights: {A: 5, B: 2, C: 1}
metrics:
  - {key: a, label: A, level: A, unit: usd, check_windows_days: [1]}
`,
			want: "unknown unit",
		},
		{
			name: "both bonus kinds",
			yaml: `
level_weights: {A: 5, B: 2, C: 1}
metrics:
  - {key: a, label: A, level: A, unit: count, check_windows_days: [1], bonus: {per_unit: 1, per_thousand: 1}}
`,
			want: "mutually exclusive",
		},
		{
			name: "rule refers to unknown metric",
			yaml: minimalCatalog + `
conversion_rules:
  - expected_level: C
    suggest_next: [{metric_key: ghost, target: 1, label: Ghost}]
`,
			want: `unknown metric "ghost"`,
		},
		{
			name: "duplicate rule",
			yaml: minimalCatalog + `
conversion_rules:
  - {expected_level: C}
  - {expected_level: c}
`,
			want: "duplicate rule for level C",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoad(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Len(t, c.Metrics(), 14)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalCatalog), 0o644))
	c, err = Load(path)
	require.NoError(t, err)
	assert.Len(t, c.Metrics(), 1)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "+0.3 / unit", Describe(PerUnit{Rate: 0.3}))
	assert.Equal(t, "+1 / 1000 (cap 10)", Describe(PerThousand{Rate: 1, Cap: 10}))
	assert.Equal(t, "+2 / 1000", Describe(PerThousand{Rate: 2}))
	assert.Equal(t, "-", Describe(NoBonus{}))
}
