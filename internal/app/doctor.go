package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/blackwell-systems/impactlog/internal/config"
	"github.com/blackwell-systems/impactlog/internal/output"
	"github.com/blackwell-systems/impactlog/internal/store"
	"github.com/blackwell-systems/impactlog/internal/tracker"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check whether the impactlog setup is healthy",
	Long: `Run a series of health checks against your impactlog configuration,
metric catalog and database. Prints a pass/fail line for each check and a
summary of how many checks passed.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// doctorCheck holds the result of a single health check.
type doctorCheck struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// doctorOutput is the JSON-serializable result of the doctor command.
type doctorOutput struct {
	Checks      []doctorCheck `json:"checks"`
	PassedCount int           `json:"passed"`
	TotalCount  int           `json:"total"`
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	checks := []doctorCheck{
		healthCheck("Config file", func() (string, error) { return configFileStatus(flagConfig) }),
		healthCheck("Metric catalog", func() (string, error) { return catalogStatus(appConfig.CatalogFile) }),
		healthCheck("Review template", func() (string, error) { return reviewTemplateStatus(appConfig.Review) }),
		healthCheck("SQLite database", func() (string, error) { return databaseStatus(appConfig.DBPath) }),
		healthCheck("Watch daemon", daemonStatus),
	}
	if _, err := os.Stat(appConfig.DBPath); err == nil {
		checks = append(checks, healthCheck("Due checks", func() (string, error) {
			tr, closeDB, err := openTracker()
			if err != nil {
				return "", err
			}
			defer closeDB()
			return dueStatus(ctx, tr)
		}))
	}

	res := doctorOutput{Checks: checks, TotalCount: len(checks)}
	for _, c := range checks {
		if c.Passed {
			res.PassedCount++
		}
	}

	w := cmd.OutOrStdout()
	if flagJSON {
		return writeJSON(w, res)
	}
	renderDoctor(w, res)
	return nil
}

// healthCheck runs one check. A returned error fails the check and
// becomes its message.
func healthCheck(name string, run func() (string, error)) doctorCheck {
	msg, err := run()
	if err != nil {
		return doctorCheck{Name: name, Message: err.Error()}
	}
	return doctorCheck{Name: name, Passed: true, Message: msg}
}

func renderDoctor(w io.Writer, res doctorOutput) {
	fmt.Fprintln(w, output.Section("Doctor"))
	fmt.Fprintln(w)
	for _, c := range res.Checks {
		mark := output.StyleSuccess.Render("✓")
		if !c.Passed {
			mark = output.StyleWarning.Render("✗")
		}
		fmt.Fprintf(w, "  %s  %s %s\n", mark, output.StyleLabel.Render(c.Name), output.StyleMuted.Render(c.Message))
	}

	summary, style := fmt.Sprintf("%d/%d checks passed", res.PassedCount, res.TotalCount), output.StyleSuccess
	if res.PassedCount < res.TotalCount {
		style = output.StyleWarning
	}
	fmt.Fprintf(w, "\n %s\n\n", style.Render(summary))
}

// configFileStatus names the config file in effect. Without --config a
// missing file is fine: built-in defaults apply.
func configFileStatus(cfgFile string) (string, error) {
	if cfgFile == "" {
		path := filepath.Join(config.ConfigDir(), config.DefaultConfigFile)
		if _, err := os.Stat(path); err != nil {
			return "using built-in defaults", nil
		}
		return path, nil
	}
	if _, err := os.Stat(cfgFile); err != nil {
		return "", fmt.Errorf("%s: %w", cfgFile, err)
	}
	return cfgFile, nil
}

func catalogStatus(path string) (string, error) {
	cat, err := loadCatalog()
	if err != nil {
		return "", err
	}
	if path == "" {
		path = "embedded default"
	}
	return fmt.Sprintf("%d metrics, %d conversion rules (%s)", len(cat.Metrics()), len(cat.Rules()), path), nil
}

// reviewTemplateStatus requires text for every Stop/Start/Continue decision.
func reviewTemplateStatus(r config.Review) (string, error) {
	for _, f := range []struct{ key, text string }{
		{"stop", r.Decisions.Stop},
		{"start", r.Decisions.Start},
		{"continue", r.Decisions.Continue},
	} {
		if f.text == "" {
			return "", fmt.Errorf("review.decisions.%s is empty", f.key)
		}
	}
	return "decisions configured", nil
}

// databaseStatus opens the database, which also migrates it, and reports
// the schema version. A missing file is not created here.
func databaseStatus(dbPath string) (string, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return "", fmt.Errorf("not found at %s (run 'impactlog session new' to create)", dbPath)
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return "", err
	}
	defer func() { _ = db.Close() }()

	version, err := db.SchemaVersion()
	if err != nil {
		return "", fmt.Errorf("reading schema version: %w", err)
	}
	return fmt.Sprintf("%s (schema v%d)", dbPath, version), nil
}

func daemonStatus() (string, error) {
	pid, err := readPID()
	if err != nil {
		return "", errors.New("not running (no PID file)")
	}
	if !processExists(pid) {
		return "", fmt.Errorf("PID %d is not running (stale PID file)", pid)
	}
	return fmt.Sprintf("running (PID %d)", pid), nil
}

// dueStatus fails while any outcome check is waiting.
func dueStatus(ctx context.Context, tr *tracker.Tracker) (string, error) {
	due, err := tr.Due(ctx)
	if err != nil {
		return "", err
	}
	if n := len(due); n > 0 {
		return "", fmt.Errorf("%d waiting for an outcome (run 'impactlog due')", n)
	}
	return "none pending", nil
}
