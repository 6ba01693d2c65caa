package app

import (
	"fmt"
	"time"

	"github.com/blackwell-systems/impactlog/internal/output"
	"github.com/spf13/cobra"
)

var dueCmd = &cobra.Command{
	Use:   "due",
	Short: "List checks that are due and have no outcome yet",
	Args:  cobra.NoArgs,
	RunE:  runDue,
}

func init() {
	rootCmd.AddCommand(dueCmd)
}

func runDue(cmd *cobra.Command, _ []string) error {
	tr, closeDB, err := openTracker()
	if err != nil {
		return err
	}
	defer closeDB()

	due, err := tr.Due(cmd.Context())
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if flagJSON {
		return writeJSON(w, due)
	}
	if len(due) == 0 {
		fmt.Fprintln(w, output.StyleSuccess.Render(" Nothing due."))
		return nil
	}

	tbl := output.NewTable("Check ID", "Session", "Metric", "Window", "Overdue")
	now := time.Now()
	for _, d := range due {
		tbl.AddRow(
			d.ID,
			output.Truncate(d.SessionTitle, titleWidth()),
			d.MetricKey,
			fmt.Sprintf("%dd", d.CheckWindowDays),
			overdue(now.Sub(d.DueAt)),
		)
	}
	tbl.Fprint(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, output.StyleMuted.Render(" Record with: impactlog check <check-id> <NONE|LOW|MED|HIGH> [--value N]"))
	return nil
}

// overdue renders how long ago a check became due.
func overdue(d time.Duration) string {
	switch {
	case d < time.Hour:
		return "just now"
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
