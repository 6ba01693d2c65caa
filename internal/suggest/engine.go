package suggest

// Engine runs all registered rules against a ReviewContext and collects
// the resulting suggestions.
type Engine struct {
	rules []Rule
}

// NewEngine creates a new suggest engine with all built-in rules registered.
func NewEngine() *Engine {
	return &Engine{
		rules: []Rule{
			PendingOutcomes,
			ScoreRegression,
			VanityHeavy,
			NoBusinessSessions,
			UnknownMetrics,
			LowYieldSessions,
		},
	}
}

// Run executes all registered rules against the given context and returns
// the collected suggestions ranked by RankSuggestions.
func (e *Engine) Run(ctx *ReviewContext) []Suggestion {
	all := []Suggestion{}
	for _, rule := range e.rules {
		all = append(all, rule(ctx)...)
	}
	return RankSuggestions(all)
}
