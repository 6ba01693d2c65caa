package app

import (
	"fmt"
	"io"
	"slices"

	"github.com/blackwell-systems/impactlog/internal/output"
	"github.com/blackwell-systems/impactlog/internal/store"
	"github.com/spf13/cobra"
)

var historyCount int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the total score of saved reviews over time",
	Long: `List the most recent reviews stored with 'impactlog review --save',
oldest first, with the change in total score between consecutive reviews.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyCount, "count", "n", 8, "Number of saved reviews to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	tr, closeDB, err := openTracker()
	if err != nil {
		return err
	}
	defer closeDB()

	reviews, err := tr.History(cmd.Context(), historyCount)
	if err != nil {
		return fmt.Errorf("loading reviews: %w", err)
	}

	// Chronological: oldest first.
	slices.Reverse(reviews)

	w := cmd.OutOrStdout()
	if flagJSON {
		if reviews == nil {
			reviews = []store.ReviewRow{}
		}
		return writeJSON(w, reviews)
	}
	renderHistory(w, reviews)
	return nil
}

// renderHistory shows saved reviews as a timeline table.
func renderHistory(w io.Writer, reviews []store.ReviewRow) {
	if len(reviews) == 0 {
		fmt.Fprintln(w, " No saved reviews. Run 'impactlog review --save' to create one.")
		return
	}

	fmt.Fprintln(w, output.Section("Review history"))
	fmt.Fprintln(w)

	tbl := output.NewTable("#", "Saved", "Period", "Sessions", "Total", "Trend").AlignRight(0, 3, 4)
	for i, r := range reviews {
		trend := ""
		if i > 0 {
			trend = output.TrendArrow(r.TotalScore-reviews[i-1].TotalScore, true)
		}
		tbl.AddRow(
			fmt.Sprintf("%d", r.ID),
			r.TakenAt.Local().Format("Jan 02 15:04"),
			fmt.Sprintf("%s → %s", r.PeriodStart.Local().Format("Jan 02"), r.PeriodEnd.Local().Format("Jan 02")),
			fmt.Sprintf("%d", r.SessionCount),
			fmt.Sprintf("%.1f", r.TotalScore),
			trend,
		)
	}
	tbl.Fprint(w)
}
