package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultYAML []byte

// rawCatalog mirrors the YAML layout of a catalog file.
type rawCatalog struct {
	BonusCap        *float64            `yaml:"bonus_cap"`
	LevelWeights    map[string]float64  `yaml:"level_weights"`
	Metrics         []rawMetric         `yaml:"metrics"`
	ConversionRules []rawConversionRule `yaml:"conversion_rules"`
}

type rawMetric struct {
	Key     string    `yaml:"key"`
	Label   string    `yaml:"label"`
	Level   string    `yaml:"level"`
	Unit    string    `yaml:"unit"`
	Windows []int     `yaml:"check_windows_days"`
	Bonus   *rawBonus `yaml:"bonus"`
}

type rawBonus struct {
	PerUnit     *float64 `yaml:"per_unit"`
	PerThousand *float64 `yaml:"per_thousand"`
	Cap         *float64 `yaml:"cap"`
}

type rawConversionRule struct {
	ExpectedLevel string `yaml:"expected_level"`
	SuggestNext   []Step `yaml:"suggest_next"`
	ThenPush      []Step `yaml:"then_push"`
}

// Default returns the built-in catalog. The embedded table is covered by
// tests, so a parse failure here is a programming error.
func Default() *Catalog {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded catalog is invalid: %v", err))
	}
	return c
}

// Load reads and validates a catalog file. An empty path returns the
// built-in catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a YAML catalog. Unknown fields are rejected.
// All validation problems are reported together.
func Parse(data []byte) (*Catalog, error) {
	var raw rawCatalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty catalog")
		}
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	return build(&raw)
}

func build(raw *rawCatalog) (*Catalog, error) {
	var result *multierror.Error

	c := &Catalog{
		index:    make(map[string]int, len(raw.Metrics)),
		weights:  make(map[Level]float64, len(Levels())),
		bonusCap: DefaultBonusCap,
	}

	if raw.BonusCap != nil {
		if *raw.BonusCap <= 0 {
			result = multierror.Append(result, fmt.Errorf("bonus_cap must be positive, got %g", *raw.BonusCap))
		}
		c.bonusCap = *raw.BonusCap
	}

	for name, w := range raw.LevelWeights {
		l, err := ParseLevel(name)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("level_weights: %w", err))
			continue
		}
		if w <= 0 {
			result = multierror.Append(result, fmt.Errorf("level_weights.%s must be positive, got %g", l, w))
		}
		c.weights[l] = w
	}
	for _, l := range Levels() {
		if _, ok := c.weights[l]; !ok {
			result = multierror.Append(result, fmt.Errorf("level_weights: missing weight for level %s", l))
		}
	}

	if len(raw.Metrics) == 0 {
		result = multierror.Append(result, errors.New("no metrics defined"))
	}
	for i, rm := range raw.Metrics {
		m, errs := buildMetric(rm)
		for _, err := range errs {
			result = multierror.Append(result, fmt.Errorf("metrics[%d] %q: %w", i, rm.Key, err))
		}
		if rm.Key == "" {
			continue
		}
		if _, dup := c.index[rm.Key]; dup {
			result = multierror.Append(result, fmt.Errorf("metrics[%d]: duplicate key %q", i, rm.Key))
			continue
		}
		c.index[rm.Key] = len(c.metrics)
		c.metrics = append(c.metrics, m)
	}

	seen := make(map[Level]bool)
	for i, rr := range raw.ConversionRules {
		l, err := ParseLevel(rr.ExpectedLevel)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("conversion_rules[%d]: %w", i, err))
			continue
		}
		if seen[l] {
			result = multierror.Append(result, fmt.Errorf("conversion_rules[%d]: duplicate rule for level %s", i, l))
			continue
		}
		seen[l] = true
		for _, s := range append(append([]Step(nil), rr.SuggestNext...), rr.ThenPush...) {
			if _, ok := c.index[s.MetricKey]; !ok {
				result = multierror.Append(result, fmt.Errorf("conversion_rules[%d]: step %q refers to unknown metric %q", i, s.Label, s.MetricKey))
			}
		}
		c.rules = append(c.rules, ConversionRule{
			ExpectedLevel: l,
			SuggestNext:   rr.SuggestNext,
			ThenPush:      rr.ThenPush,
		})
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return c, nil
}

func buildMetric(rm rawMetric) (Metric, []error) {
	var errs []error

	if rm.Key == "" {
		errs = append(errs, errors.New("key is required"))
	}
	if rm.Label == "" {
		errs = append(errs, errors.New("label is required"))
	}
	level, err := ParseLevel(rm.Level)
	if err != nil {
		errs = append(errs, err)
	}
	unit := Unit(rm.Unit)
	if !unit.Valid() {
		errs = append(errs, fmt.Errorf("unknown unit %q (expected count or currency)", rm.Unit))
	}

	if len(rm.Windows) == 0 {
		errs = append(errs, errors.New("check_windows_days must not be empty"))
	}
	for i, d := range rm.Windows {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("check window %d must be positive", d))
		}
		if i > 0 && d <= rm.Windows[i-1] {
			errs = append(errs, fmt.Errorf("check windows must be strictly increasing: %v", rm.Windows))
			break
		}
	}

	bonus, err := buildBonus(rm.Bonus)
	if err != nil {
		errs = append(errs, err)
	}

	return Metric{
		Key:     rm.Key,
		Label:   rm.Label,
		Level:   level,
		Unit:    unit,
		Windows: append([]int(nil), rm.Windows...),
		Bonus:   bonus,
	}, errs
}

func buildBonus(rb *rawBonus) (BonusRule, error) {
	switch {
	case rb == nil:
		return NoBonus{}, nil
	case rb.PerUnit != nil && rb.PerThousand != nil:
		return NoBonus{}, errors.New("bonus: per_unit and per_thousand are mutually exclusive")
	case rb.PerUnit != nil:
		if rb.Cap != nil {
			return NoBonus{}, errors.New("bonus: cap only applies to per_thousand")
		}
		if *rb.PerUnit < 0 {
			return NoBonus{}, fmt.Errorf("bonus: per_unit must not be negative, got %g", *rb.PerUnit)
		}
		return PerUnit{Rate: *rb.PerUnit}, nil
	case rb.PerThousand != nil:
		if *rb.PerThousand < 0 {
			return NoBonus{}, fmt.Errorf("bonus: per_thousand must not be negative, got %g", *rb.PerThousand)
		}
		r := PerThousand{Rate: *rb.PerThousand}
		if rb.Cap != nil {
			if *rb.Cap <= 0 {
				return NoBonus{}, fmt.Errorf("bonus: cap must be positive, got %g", *rb.Cap)
			}
			r.Cap = *rb.Cap
		}
		return r, nil
	default:
		if rb.Cap != nil {
			return NoBonus{}, errors.New("bonus: cap only applies to per_thousand")
		}
		return NoBonus{}, nil
	}
}
