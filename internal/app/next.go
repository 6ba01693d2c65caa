package app

import (
	"fmt"

	"github.com/blackwell-systems/impactlog/internal/catalog"
	"github.com/blackwell-systems/impactlog/internal/output"
	"github.com/spf13/cobra"
)

var nextCmd = &cobra.Command{
	Use:   "next [A|B|C]",
	Short: "Suggest actions that move work up one level",
	Long: `Show the actions that push a session at the given level toward the
next level up. Without an argument, the level of the newest session is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNext,
}

func init() {
	rootCmd.AddCommand(nextCmd)
}

func runNext(cmd *cobra.Command, args []string) error {
	tr, closeDB, err := openTracker()
	if err != nil {
		return err
	}
	defer closeDB()

	var level catalog.Level
	if len(args) == 1 {
		level, err = catalog.ParseLevel(args[0])
	} else {
		level, err = tr.CurrentLevel(cmd.Context())
	}
	if err != nil {
		return err
	}
	steps := tr.NextSteps(level)

	w := cmd.OutOrStdout()
	if flagJSON {
		return writeJSON(w, map[string]any{"level": level, "steps": steps})
	}

	fmt.Fprintln(w, output.Section("Next steps from "+output.LevelBadge(level)+" "+level.Name()))
	if len(steps) == 0 {
		fmt.Fprintln(w, output.StyleSuccess.Render(" Already at the top level. Keep closing."))
		return nil
	}
	for i, s := range steps {
		fmt.Fprintf(w, " %d. %s %s\n", i+1, s.Label, output.StyleMuted.Render(fmt.Sprintf("(%s ≥ %d)", s.MetricKey, s.Target)))
	}
	return nil
}
