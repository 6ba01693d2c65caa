package catalog

// DefaultBonusCap is the maximum bonus a single session can earn from its
// metric observation.
const DefaultBonusCap = 10.0

// Catalog is the immutable, validated metric table. It is built once at
// startup by Default, Load, or Parse and is safe for concurrent use.
type Catalog struct {
	metrics  []Metric
	index    map[string]int
	weights  map[Level]float64
	bonusCap float64
	rules    []ConversionRule
}

// FindMetric returns the metric with the given key. Lookup is exact and
// case-sensitive; ok is false for unknown keys.
func (c *Catalog) FindMetric(key string) (Metric, bool) {
	i, ok := c.index[key]
	if !ok {
		return Metric{}, false
	}
	return c.metrics[i].clone(), true
}

// LevelWeight returns the scoring weight of a level, or 0 for unknown levels.
func (c *Catalog) LevelWeight(l Level) float64 {
	return c.weights[l]
}

// BonusCap returns the global per-session bonus cap.
func (c *Catalog) BonusCap() float64 {
	return c.bonusCap
}

// Metrics returns all metrics in catalog order.
func (c *Catalog) Metrics() []Metric {
	out := make([]Metric, len(c.metrics))
	for i, m := range c.metrics {
		out[i] = m.clone()
	}
	return out
}

// MetricsByLevel returns the metrics of a single level in catalog order.
func (c *Catalog) MetricsByLevel(l Level) []Metric {
	var out []Metric
	for _, m := range c.metrics {
		if m.Level == l {
			out = append(out, m.clone())
		}
	}
	return out
}

// Rules returns the conversion rules in table order.
func (c *Catalog) Rules() []ConversionRule {
	out := make([]ConversionRule, len(c.rules))
	for i, r := range c.rules {
		out[i] = r.clone()
	}
	return out
}

// Rule returns the conversion rule for the given expected level.
func (c *Catalog) Rule(l Level) (ConversionRule, bool) {
	for _, r := range c.rules {
		if r.ExpectedLevel == l {
			return r.clone(), true
		}
	}
	return ConversionRule{}, false
}
