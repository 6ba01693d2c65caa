package app

import (
	"fmt"
	"io"

	"github.com/blackwell-systems/impactlog/internal/catalog"
	"github.com/blackwell-systems/impactlog/internal/output"
	"github.com/blackwell-systems/impactlog/internal/suggest"
	"github.com/blackwell-systems/impactlog/internal/tracker"
	"github.com/blackwell-systems/impactlog/internal/weekly"
	"github.com/spf13/cobra"
)

var (
	reviewDays int
	reviewSave bool
)

// maxAdvice caps the suggestions printed under a review.
const maxAdvice = 5

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Weekly review: score by level, top actions, decisions",
	Long: `Summarize the sessions of the review period: total score, sessions
grouped by level, the two sessions with the best score per hour, the
Stop/Start/Continue decisions and ranked advice.

With --save, the review is stored so the next one shows the change in
total score.`,
	Args: cobra.NoArgs,
	RunE: runReview,
}

func init() {
	reviewCmd.Flags().IntVar(&reviewDays, "days", 0, "Review period in days (default: review_days from config)")
	reviewCmd.Flags().BoolVar(&reviewSave, "save", false, "Store this review for future comparison")
	rootCmd.AddCommand(reviewCmd)
}

// reviewOutput is the JSON-serializable output for the review command.
type reviewOutput struct {
	*tracker.Review
	ScoreDelta *float64             `json:"delta,omitempty"`
	Advice     []suggest.Suggestion `json:"advice"`
	Saved      bool                 `json:"saved"`
}

func runReview(cmd *cobra.Command, _ []string) error {
	tr, closeDB, err := openTracker()
	if err != nil {
		return err
	}
	defer closeDB()

	days := reviewDays
	if days <= 0 {
		days = appConfig.ReviewDays
	}

	ctx := cmd.Context()
	r, err := tr.Review(ctx, days)
	if err != nil {
		return err
	}
	advice, err := tr.Advice(ctx, r)
	if err != nil {
		return err
	}
	if reviewSave {
		if _, err := tr.SaveReview(ctx, r, appVersion); err != nil {
			return err
		}
	}

	w := cmd.OutOrStdout()
	if flagJSON {
		out := reviewOutput{Review: r, Advice: advice, Saved: reviewSave}
		if d, ok := r.Delta(); ok {
			out.ScoreDelta = &d
		}
		return writeJSON(w, out)
	}

	renderReview(w, r, advice)
	if reviewSave {
		fmt.Fprintln(w)
		fmt.Fprintln(w, output.StyleMuted.Render(" Review saved."))
	}
	return nil
}

func renderReview(w io.Writer, r *tracker.Review, advice []suggest.Suggestion) {
	sum := r.Summary

	fmt.Fprintln(w, output.Section(fmt.Sprintf("Weekly review  %s → %s",
		r.PeriodStart.Local().Format("Jan 2"), r.PeriodEnd.Local().Format("Jan 2"))))
	total := fmt.Sprintf("%.1f", sum.TotalScore)
	if d, ok := r.Delta(); ok {
		total += "  " + output.TrendArrow(d, true) + output.StyleMuted.Render(" vs last saved review")
	}
	fmt.Fprintln(w, output.KeyValue("Total score", output.StyleBold.Render(total)))
	fmt.Fprintln(w, output.KeyValue("Sessions", fmt.Sprintf("%d", r.SessionCount)))

	for _, l := range catalog.Levels() {
		sessions := sum.ByLevel[l]
		fmt.Fprintln(w, output.Section(fmt.Sprintf("%s %s (%d)", output.LevelBadge(l), l.Name(), len(sessions))))
		if len(sessions) == 0 {
			fmt.Fprintln(w, output.StyleMuted.Render(" none"))
			continue
		}
		tbl := output.NewTable("Title", "Metric", "Min", "Outcome", "Score", "/h").AlignRight(2, 4, 5)
		for _, s := range sessions {
			tbl.AddRow(
				output.Truncate(s.Title, titleWidth()),
				s.PrimaryMetricKey,
				fmt.Sprintf("%d", s.DurationMinutes),
				output.OutcomeBadge(s.OutcomeLevel),
				fmt.Sprintf("%.1f", s.Score),
				fmt.Sprintf("%.2f", s.ScorePerHour),
			)
		}
		tbl.Fprint(w)
	}

	if len(sum.TopActions) > 0 {
		fmt.Fprintln(w, output.Section("Top actions"))
		best := sum.TopActions[0].ScorePerHour
		for i, s := range sum.TopActions {
			fmt.Fprintf(w, " %d. %-*s %s\n", i+1, titleWidth(), output.Truncate(s.Title, titleWidth()), output.RateBar(s.ScorePerHour, best, 20))
		}
	}

	renderDecisions(w, sum)

	if len(advice) > 0 {
		fmt.Fprintln(w, output.Section("Advice"))
		for i, a := range advice {
			if i == maxAdvice {
				break
			}
			fmt.Fprintf(w, " %s %s\n", priorityMark(a.Priority), output.StyleBold.Render(a.Title))
			fmt.Fprintf(w, "   %s\n", output.StyleMuted.Render(a.Description))
		}
	}
}

func renderDecisions(w io.Writer, sum weekly.Summary) {
	fmt.Fprintln(w, output.Section("Decisions"))
	fmt.Fprintln(w, output.KeyValue("Stop", sum.Decisions.Stop))
	fmt.Fprintln(w, output.KeyValue("Start", sum.Decisions.Start))
	fmt.Fprintln(w, output.KeyValue("Continue", sum.Decisions.Continue))

	if sum.Recommendations.CToB == "" && sum.Recommendations.BToA == "" {
		return
	}
	fmt.Fprintln(w, output.Section("Recommendations"))
	if sum.Recommendations.CToB != "" {
		fmt.Fprintln(w, output.KeyValue("C → B", sum.Recommendations.CToB))
	}
	if sum.Recommendations.BToA != "" {
		fmt.Fprintln(w, output.KeyValue("B → A", sum.Recommendations.BToA))
	}
}

func priorityMark(p int) string {
	switch p {
	case suggest.PriorityCritical:
		return output.StyleError.Render("!!")
	case suggest.PriorityHigh:
		return output.StyleWarning.Render("! ")
	default:
		return output.StyleMuted.Render("· ")
	}
}
