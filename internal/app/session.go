package app

import (
	"fmt"
	"io"

	"github.com/blackwell-systems/impactlog/internal/output"
	"github.com/blackwell-systems/impactlog/internal/store"
	"github.com/blackwell-systems/impactlog/internal/tracker"
	"github.com/spf13/cobra"
)

var (
	sessionTitle     string
	sessionMinutes   int
	sessionMetric    string
	sessionSecondary []string
	sessionNotes     string
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Create or delete work sessions",
}

var sessionNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Log a work session and schedule its outcome checks",
	Long: `Log a work session against a primary metric. One outcome check is
scheduled per check window of the metric; record results later with
'impactlog check'.

Examples:
  impactlog session new --title "DM outreach" --minutes 45 --metric dm_started
  impactlog session new -t "Discovery calls" -m 60 --metric meetings --secondary proposals_sent`,
	Args: cobra.NoArgs,
	RunE: runSessionNew,
}

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a session and its checks",
	Long: `Delete a session by ID or unique ID prefix. Its outcome checks are
removed with it.`,
	Args: cobra.ExactArgs(1),
	RunE: runSessionDelete,
}

func init() {
	f := sessionNewCmd.Flags()
	f.StringVarP(&sessionTitle, "title", "t", "", "What the session was about (required)")
	f.IntVarP(&sessionMinutes, "minutes", "m", 0, "Time spent in minutes (required)")
	f.StringVar(&sessionMetric, "metric", "", "Primary metric key, see 'impactlog metrics' (required)")
	f.StringSliceVar(&sessionSecondary, "secondary", nil, "Up to two secondary metric keys")
	f.StringVar(&sessionNotes, "notes", "", "Free-form notes")
	_ = sessionNewCmd.MarkFlagRequired("title")
	_ = sessionNewCmd.MarkFlagRequired("minutes")
	_ = sessionNewCmd.MarkFlagRequired("metric")

	sessionCmd.AddCommand(sessionNewCmd, sessionDeleteCmd)
	rootCmd.AddCommand(sessionCmd)
}

func runSessionNew(cmd *cobra.Command, _ []string) error {
	tr, closeDB, err := openTracker()
	if err != nil {
		return err
	}
	defer closeDB()

	s, err := tr.CreateSession(cmd.Context(), tracker.NewSession{
		Title:               sessionTitle,
		Notes:               sessionNotes,
		DurationMinutes:     sessionMinutes,
		PrimaryMetricKey:    sessionMetric,
		SecondaryMetricKeys: sessionSecondary,
	})
	if err != nil {
		return err
	}

	if flagJSON {
		return writeJSON(cmd.OutOrStdout(), s)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, " %s %s %s\n", output.StyleSuccess.Render("✓"), "Logged", output.StyleBold.Render(s.Title))
	if _, ok := tr.Catalog().FindMetric(s.PrimaryMetricKey); !ok {
		fmt.Fprintln(w, output.StyleWarning.Render(fmt.Sprintf(
			" metric %q is not in the catalog; this session will score 0", s.PrimaryMetricKey)))
	}
	fmt.Fprintln(w)
	printChecks(w, s)
	return nil
}

func runSessionDelete(cmd *cobra.Command, args []string) error {
	tr, closeDB, err := openTracker()
	if err != nil {
		return err
	}
	defer closeDB()

	ctx := cmd.Context()
	s, err := tr.Session(ctx, args[0])
	if err != nil {
		return err
	}
	if err := tr.DeleteSession(ctx, s.ID); err != nil {
		return err
	}

	if flagJSON {
		return writeJSON(cmd.OutOrStdout(), map[string]string{"deleted": s.ID})
	}
	fmt.Fprintf(cmd.OutOrStdout(), " Deleted %s %s\n", shortID(s.ID), s.Title)
	return nil
}

// printChecks renders a session's outcome checks with their full IDs.
func printChecks(w io.Writer, s *store.SessionRow) {
	tbl := output.NewTable("Check ID", "Window", "Due", "Outcome", "Value", "Note")
	for _, ch := range s.Checks {
		value := ""
		if ch.MetricValue != nil {
			value = fmt.Sprintf("%g", *ch.MetricValue)
		}
		note := ""
		if ch.Note != nil {
			note = output.Truncate(*ch.Note, 40)
		}
		tbl.AddRow(
			ch.ID,
			fmt.Sprintf("%dd", ch.CheckWindowDays),
			ch.DueAt.Local().Format("2006-01-02"),
			output.OutcomeBadge(ch.Level),
			value,
			note,
		)
	}
	tbl.Fprint(w)
}
