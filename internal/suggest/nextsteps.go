// Package suggest resolves the next suggested actions for a session level
// from the catalog's conversion rules.
package suggest

import "github.com/blackwell-systems/impactlog/internal/catalog"

// NextSteps returns the actions that would push a session at the given
// level up to the next one: the rule's suggested signals first, then the
// outcome that completes the push. Levels without a rule (the top level)
// have no next steps and yield an empty slice.
func NextSteps(c *catalog.Catalog, level catalog.Level) []catalog.Step {
	rule, ok := c.Rule(level)
	if !ok {
		return []catalog.Step{}
	}
	steps := make([]catalog.Step, 0, len(rule.SuggestNext)+len(rule.ThenPush))
	steps = append(steps, rule.SuggestNext...)
	steps = append(steps, rule.ThenPush...)
	return steps
}
