// Package catalog provides the metric definitions, level weights, and
// conversion rules that drive outcome scheduling and scoring.
package catalog

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Level is the business-value tier of a metric.
type Level string

// Metric levels, from direct business outcome down to vanity signal.
const (
	LevelA Level = "A"
	LevelB Level = "B"
	LevelC Level = "C"
)

// Levels lists every level ordered by business value (A first). Each call
// returns a new slice.
func Levels() []Level {
	return []Level{LevelA, LevelB, LevelC}
}

// Name returns the human-readable name of the level.
func (l Level) Name() string {
	switch l {
	case LevelA:
		return "Business"
	case LevelB:
		return "Predictive"
	case LevelC:
		return "Vanity"
	default:
		return "Unknown"
	}
}

// Rank orders levels by business value: A > B > C. Unknown levels rank 0.
func (l Level) Rank() int {
	switch l {
	case LevelA:
		return 3
	case LevelB:
		return 2
	case LevelC:
		return 1
	default:
		return 0
	}
}

// Valid reports whether l is one of the known levels.
func (l Level) Valid() bool {
	return l.Rank() > 0
}

// ParseLevel converts a case-insensitive token into a Level.
func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToUpper(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("unknown level %q (expected A, B or C)", s)
	}
	return l, nil
}

// Unit is the measurement unit of a metric observation.
type Unit string

// Supported units.
const (
	UnitCount    Unit = "count"
	UnitCurrency Unit = "currency"
)

// Valid reports whether u is a supported unit.
func (u Unit) Valid() bool {
	return u == UnitCount || u == UnitCurrency
}

// BonusKind identifies the variant of a BonusRule.
type BonusKind string

// Bonus rule variants.
const (
	BonusNone        BonusKind = "none"
	BonusPerUnit     BonusKind = "per_unit"
	BonusPerThousand BonusKind = "per_thousand"
)

// BonusRule converts a raw metric observation into extra score. It is a
// closed set: PerUnit, PerThousand, or NoBonus.
type BonusRule interface {
	Kind() BonusKind
	isBonusRule()
}

// PerUnit awards Rate points per observed unit.
type PerUnit struct {
	Rate float64
}

// PerThousand awards Rate points per thousand observed units, clamped to Cap.
// A zero Cap leaves the rule uncapped (the global cap still applies).
type PerThousand struct {
	Rate float64
	Cap  float64
}

// NoBonus never awards a bonus.
type NoBonus struct{}

func (PerUnit) Kind() BonusKind     { return BonusPerUnit }
func (PerThousand) Kind() BonusKind { return BonusPerThousand }
func (NoBonus) Kind() BonusKind     { return BonusNone }

func (PerUnit) isBonusRule()     {}
func (PerThousand) isBonusRule() {}
func (NoBonus) isBonusRule()     {}

// MarshalJSON encodes the rule with an explicit type tag.
func (r PerUnit) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type BonusKind `json:"type"`
		Rate float64   `json:"rate"`
	}{BonusPerUnit, r.Rate})
}

// MarshalJSON encodes the rule with an explicit type tag.
func (r PerThousand) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type BonusKind `json:"type"`
		Rate float64   `json:"rate"`
		Cap  float64   `json:"cap,omitempty"`
	}{BonusPerThousand, r.Rate, r.Cap})
}

// MarshalJSON encodes the rule with an explicit type tag.
func (NoBonus) MarshalJSON() ([]byte, error) {
	return []byte(`{"type":"none"}`), nil
}

// Describe returns a short human-readable form of a bonus rule.
func Describe(r BonusRule) string {
	switch b := r.(type) {
	case PerUnit:
		return fmt.Sprintf("+%g / unit", b.Rate)
	case PerThousand:
		if b.Cap > 0 {
			return fmt.Sprintf("+%g / 1000 (cap %g)", b.Rate, b.Cap)
		}
		return fmt.Sprintf("+%g / 1000", b.Rate)
	default:
		return "-"
	}
}

// Metric is a single trackable outcome metric.
type Metric struct {
	Key     string    `json:"key"`
	Label   string    `json:"label"`
	Level   Level     `json:"level"`
	Unit    Unit      `json:"unit"`
	Windows []int     `json:"default_check_windows_days"`
	Bonus   BonusRule `json:"bonus"`
}

func (m Metric) clone() Metric {
	m.Windows = append([]int(nil), m.Windows...)
	return m
}

// Step is one suggested next action in a conversion rule.
type Step struct {
	MetricKey string `json:"metric_key" yaml:"metric_key"`
	Target    int    `json:"target" yaml:"target"`
	Label     string `json:"label" yaml:"label"`
}

// ConversionRule maps an expected level to the actions that move a session
// toward the next level up.
type ConversionRule struct {
	ExpectedLevel Level  `json:"expected_level"`
	SuggestNext   []Step `json:"suggest_next"`
	ThenPush      []Step `json:"then_push"`
}

func (r ConversionRule) clone() ConversionRule {
	r.SuggestNext = append([]Step(nil), r.SuggestNext...)
	r.ThenPush = append([]Step(nil), r.ThenPush...)
	return r
}
