package app

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/blackwell-systems/impactlog/internal/catalog"
	"github.com/blackwell-systems/impactlog/internal/output"
	"github.com/spf13/cobra"
)

var metricsLevel string

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "List the metric catalog",
	Long: `Show every trackable metric with its level, unit, check windows and
bonus rule. Levels are A (business outcome), B (predictive signal) and
C (vanity).

The catalog is embedded; set catalog_file in config.yaml to use your own.`,
	Args: cobra.NoArgs,
	RunE: runMetrics,
}

func init() {
	metricsCmd.Flags().StringVar(&metricsLevel, "level", "", "Only show metrics of this level (A, B or C)")
	rootCmd.AddCommand(metricsCmd)
}

func runMetrics(cmd *cobra.Command, _ []string) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}

	metrics := cat.Metrics()
	if metricsLevel != "" {
		l, err := catalog.ParseLevel(metricsLevel)
		if err != nil {
			return err
		}
		metrics = cat.MetricsByLevel(l)
	}

	if flagJSON {
		return writeJSON(cmd.OutOrStdout(), metrics)
	}

	tbl := output.NewTable("Key", "Level", "Label", "Unit", "Checks", "Bonus")
	for _, m := range metrics {
		tbl.AddRow(
			m.Key,
			output.LevelBadge(m.Level),
			m.Label,
			string(m.Unit),
			formatWindows(m.Windows),
			catalog.Describe(m.Bonus),
		)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, output.Section("Metric catalog"))
	fmt.Fprintln(w)
	tbl.Fprint(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, output.StyleMuted.Render(fmt.Sprintf(
		" Weights A=%g B=%g C=%g, bonus cap %g",
		cat.LevelWeight(catalog.LevelA), cat.LevelWeight(catalog.LevelB),
		cat.LevelWeight(catalog.LevelC), cat.BonusCap(),
	)))
	return nil
}

// formatWindows renders check windows as "2d, 7d".
func formatWindows(days []int) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(d) + "d"
	}
	return strings.Join(parts, ", ")
}
