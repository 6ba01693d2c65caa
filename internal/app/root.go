// Package app contains the Cobra command tree for impactlog.
package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/blackwell-systems/impactlog/internal/config"
	"github.com/blackwell-systems/impactlog/internal/output"
	"github.com/spf13/cobra"
)

var appVersion = "dev"

// SetVersion sets the application version (called from main with ldflags value).
func SetVersion(v string) {
	appVersion = v
	rootCmd.Version = v
}

var (
	flagNoColor bool
	flagJSON    bool
	flagVerbose bool
	flagConfig  string
)

// appConfig is loaded once per invocation by the root pre-run hook.
var appConfig *config.Config

var rootCmd = &cobra.Command{
	Use:   "impactlog",
	Short: "Score work sessions by the business outcomes they produce",
	Long: `impactlog records work sessions against outcome metrics, schedules
follow-up checks, and scores each session by the level of the metric it
moved: A (business), B (predictive) or C (vanity).

Run 'impactlog' with no arguments to see a quick dashboard summary.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE:              runDashboard,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/impactlog/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")
}

// setup loads configuration and applies the output and logging settings
// before any subcommand runs.
func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	appConfig = cfg

	if flagNoColor || !cfg.Output.Color || !output.IsTerminal(os.Stdout) {
		output.SetNoColor(true)
	}
	return setupLogging(cfg.Log.Level, flagVerbose, cmd.ErrOrStderr())
}

// titleWidth is how much of a session title fits in a table row at the
// configured output width. The default 80 columns leaves 32.
func titleWidth() int {
	width := config.DefaultOutput.Width
	if appConfig != nil {
		width = appConfig.Output.Width
	}
	return min(max(width-48, 16), 80)
}

func runDashboard(cmd *cobra.Command, _ []string) error {
	tr, closeDB, err := openTracker()
	if err != nil {
		return err
	}
	defer closeDB()

	ctx := cmd.Context()
	r, err := tr.Review(ctx, appConfig.ReviewDays)
	if err != nil {
		return err
	}
	due, err := tr.Due(ctx)
	if err != nil {
		return err
	}
	level, err := tr.CurrentLevel(ctx)
	if err != nil {
		return err
	}
	steps := tr.NextSteps(level)

	if flagJSON {
		return writeJSON(cmd.OutOrStdout(), map[string]any{
			"version":     appVersion,
			"total_score": r.Summary.TotalScore,
			"sessions":    r.SessionCount,
			"due_checks":  len(due),
			"level":       level,
			"next_steps":  steps,
		})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, output.StyleBold.Render("impactlog"), output.StyleMuted.Render(appVersion))
	fmt.Fprintln(w, output.Section(fmt.Sprintf("Last %d days", appConfig.ReviewDays)))
	fmt.Fprintln(w, output.KeyValue("Total score", fmt.Sprintf("%.1f across %d session(s)", r.Summary.TotalScore, r.SessionCount)))
	fmt.Fprintln(w, output.KeyValue("Due checks", dueLine(len(due))))
	fmt.Fprintln(w, output.KeyValue("Current level", output.LevelBadge(level)+" "+level.Name()))

	if len(steps) > 0 {
		labels := make([]string, len(steps))
		for i, s := range steps {
			labels[i] = s.Label
		}
		fmt.Fprintln(w, output.KeyValue("Next", strings.Join(labels, ", ")))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, output.StyleMuted.Render(" Commands: session new, check, due, sessions, review, next, metrics, mcp"))
	return nil
}

func dueLine(n int) string {
	if n == 0 {
		return output.StyleSuccess.Render("none")
	}
	return output.StyleWarning.Render(fmt.Sprintf("%d", n)) + output.StyleMuted.Render("  (run 'impactlog due')")
}
