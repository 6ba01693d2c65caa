package app

import (
	"fmt"
	"strings"

	"github.com/blackwell-systems/impactlog/internal/output"
	"github.com/spf13/cobra"
)

var sessionsFlagDays int

var sessionsCmd = &cobra.Command{
	Use:   "sessions [session-id]",
	Short: "List and inspect logged sessions",
	Long: `List sessions newest first with their level, outcome and score, or
inspect a single session and its checks by ID prefix.

Examples:
  impactlog sessions                 # last 7 days
  impactlog sessions --days 30       # last 30 days
  impactlog sessions --days 0        # everything
  impactlog sessions 3f2a9c1e        # inspect one session`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSessions,
}

func init() {
	sessionsCmd.Flags().IntVar(&sessionsFlagDays, "days", 7, "Number of days to look back (0 for all)")
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, args []string) error {
	tr, closeDB, err := openTracker()
	if err != nil {
		return err
	}
	defer closeDB()

	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	if len(args) == 1 {
		s, err := tr.Session(ctx, args[0])
		if err != nil {
			return err
		}
		sum := tr.Summarize(*s)
		if flagJSON {
			return writeJSON(w, map[string]any{"session": s, "summary": sum})
		}

		fmt.Fprintln(w, output.Section(s.Title))
		fmt.Fprintln(w, output.KeyValue("ID", s.ID))
		fmt.Fprintln(w, output.KeyValue("Created", s.CreatedAt.Local().Format("2006-01-02 15:04")))
		fmt.Fprintln(w, output.KeyValue("Duration", fmt.Sprintf("%d min", s.DurationMinutes)))
		fmt.Fprintln(w, output.KeyValue("Primary metric", output.LevelBadge(sum.PrimaryLevel)+" "+s.PrimaryMetricKey))
		if len(s.SecondaryMetricKeys) > 0 {
			fmt.Fprintln(w, output.KeyValue("Secondary", strings.Join(s.SecondaryMetricKeys, ", ")))
		}
		fmt.Fprintln(w, output.KeyValue("Score", fmt.Sprintf("%.1f  (%.2f/h)", sum.Score, sum.ScorePerHour)))
		if s.Notes != "" {
			fmt.Fprintln(w, output.KeyValue("Notes", s.Notes))
		}
		fmt.Fprintln(w)
		printChecks(w, s)
		return nil
	}

	summaries, err := tr.Summaries(ctx, sessionsFlagDays)
	if err != nil {
		return err
	}
	if flagJSON {
		return writeJSON(w, summaries)
	}
	if len(summaries) == 0 {
		fmt.Fprintln(w, output.StyleMuted.Render(" No sessions yet. Log one with 'impactlog session new'."))
		return nil
	}

	tbl := output.NewTable("ID", "Date", "Lvl", "Title", "Metric", "Min", "Outcome", "Score", "/h").AlignRight(5, 7, 8)
	for _, s := range summaries {
		tbl.AddRow(
			shortID(s.ID),
			s.CreatedAt.Local().Format("01-02"),
			output.LevelBadge(s.PrimaryLevel),
			output.Truncate(s.Title, titleWidth()),
			s.PrimaryMetricKey,
			fmt.Sprintf("%d", s.DurationMinutes),
			output.OutcomeBadge(s.OutcomeLevel),
			fmt.Sprintf("%.1f", s.Score),
			fmt.Sprintf("%.2f", s.ScorePerHour),
		)
	}
	tbl.Fprint(w)
	return nil
}
