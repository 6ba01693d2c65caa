package app

import (
	"fmt"

	"github.com/blackwell-systems/impactlog/internal/output"
	"github.com/blackwell-systems/impactlog/internal/tracker"
	"github.com/spf13/cobra"
)

var (
	checkValue      float64
	checkNote       string
	checkClearValue bool
	checkClearNote  bool
)

var checkCmd = &cobra.Command{
	Use:   "check <check-id> [NONE|LOW|MED|HIGH]",
	Short: "Record the outcome of a check",
	Long: `Record the outcome level of a scheduled check, and optionally the
observed metric value and a note. Omitted fields are left unchanged.

Examples:
  impactlog check 6b1d...e4 HIGH --value 2
  impactlog check 6b1d...e4 --note "follow-up booked"
  impactlog check 6b1d...e4 --clear-value`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().Float64Var(&checkValue, "value", 0, "Observed metric value")
	checkCmd.Flags().StringVar(&checkNote, "note", "", "Note to attach to the check")
	checkCmd.Flags().BoolVar(&checkClearValue, "clear-value", false, "Remove the recorded metric value")
	checkCmd.Flags().BoolVar(&checkClearNote, "clear-note", false, "Remove the note")
	checkCmd.MarkFlagsMutuallyExclusive("value", "clear-value")
	checkCmd.MarkFlagsMutuallyExclusive("note", "clear-note")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	u := tracker.CheckUpdate{ClearMetricValue: checkClearValue, ClearNote: checkClearNote}
	if len(args) == 2 {
		u.Level = args[1]
	}
	if cmd.Flags().Changed("value") {
		v := checkValue
		u.MetricValue = &v
	}
	if cmd.Flags().Changed("note") {
		n := checkNote
		u.Note = &n
	}

	tr, closeDB, err := openTracker()
	if err != nil {
		return err
	}
	defer closeDB()

	ch, err := tr.UpdateCheck(cmd.Context(), args[0], u)
	if err != nil {
		return err
	}

	if flagJSON {
		return writeJSON(cmd.OutOrStdout(), ch)
	}
	fmt.Fprintf(cmd.OutOrStdout(), " %s %s %dd check of %s is %s\n",
		output.StyleSuccess.Render("✓"), shortID(ch.ID), ch.CheckWindowDays, ch.MetricKey, output.OutcomeBadge(ch.Level))
	return nil
}
