package app

import (
	"fmt"
	"io"
	"slices"

	"github.com/blackwell-systems/impactlog/internal/output"
	"github.com/blackwell-systems/impactlog/internal/suggest"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	suggestLimit    int
	suggestCategory string
	suggestDays     int
)

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Generate ranked advice for the review period",
	Long: `Analyze the sessions of the review period, pending checks and the last
saved review to generate ranked advice. Suggestions are scored by impact
and sorted from highest to lowest priority.

Categories: tracking, trend, focus, catalog, yield.`,
	Args: cobra.NoArgs,
	RunE: runSuggest,
}

func init() {
	suggestCmd.Flags().IntVar(&suggestLimit, "limit", 10, "Maximum number of suggestions to show")
	suggestCmd.Flags().StringVar(&suggestCategory, "category", "", "Filter by category")
	suggestCmd.Flags().IntVar(&suggestDays, "days", 0, "Period in days (default: review_days from config)")
	rootCmd.AddCommand(suggestCmd)
}

func runSuggest(cmd *cobra.Command, _ []string) error {
	tr, closeDB, err := openTracker()
	if err != nil {
		return err
	}
	defer closeDB()

	days := suggestDays
	if days <= 0 {
		days = appConfig.ReviewDays
	}

	ctx := cmd.Context()
	r, err := tr.Review(ctx, days)
	if err != nil {
		return err
	}
	suggestions, err := tr.Advice(ctx, r)
	if err != nil {
		return err
	}

	if suggestCategory != "" {
		suggestions = filterByCategory(suggestions, suggestCategory)
	}
	if suggestLimit > 0 && len(suggestions) > suggestLimit {
		suggestions = suggestions[:suggestLimit]
	}

	w := cmd.OutOrStdout()
	if flagJSON {
		if suggestions == nil {
			suggestions = []suggest.Suggestion{}
		}
		return writeJSON(w, suggestions)
	}
	renderSuggestions(w, suggestions)
	return nil
}

func filterByCategory(suggestions []suggest.Suggestion, category string) []suggest.Suggestion {
	return slices.DeleteFunc(slices.Clone(suggestions), func(s suggest.Suggestion) bool {
		return s.Category != category
	})
}

func renderSuggestions(w io.Writer, suggestions []suggest.Suggestion) {
	fmt.Fprintln(w, output.Section("Suggestions"))
	fmt.Fprintln(w)
	if len(suggestions) == 0 {
		fmt.Fprintln(w, " No suggestions. The week looks on track.")
		return
	}

	for i, s := range suggestions {
		badge := priorityStyle(s.Priority).Render(priorityToLabel(s.Priority))
		fmt.Fprintf(w, " %2d. %s %s\n", i+1, badge, output.StyleBold.Render(s.Title))
		fmt.Fprintf(w, "     %s\n", s.Description)
		fmt.Fprintln(w, output.StyleMuted.Render(fmt.Sprintf("     %s · impact %.1f", s.Category, s.ImpactScore)))
		fmt.Fprintln(w)
	}
}

var priorityLabels = map[int]string{
	suggest.PriorityCritical: "[CRITICAL]",
	suggest.PriorityHigh:     "[HIGH]",
	suggest.PriorityMedium:   "[MEDIUM]",
	suggest.PriorityLow:      "[LOW]",
}

func priorityToLabel(priority int) string {
	if label, ok := priorityLabels[priority]; ok {
		return label
	}
	return "[UNKNOWN]"
}

func priorityStyle(priority int) lipgloss.Style {
	switch {
	case priority <= suggest.PriorityHigh:
		return output.StyleError
	case priority == suggest.PriorityMedium:
		return output.StyleWarning
	default:
		return output.StyleMuted
	}
}
