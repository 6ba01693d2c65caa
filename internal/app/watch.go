package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/blackwell-systems/impactlog/internal/config"
	"github.com/blackwell-systems/impactlog/internal/output"
	"github.com/blackwell-systems/impactlog/internal/watcher"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// minWatchInterval is the shortest accepted poll interval.
const minWatchInterval = 30 * time.Second

var (
	watchDaemon   bool
	watchInterval string
	watchStop     bool
	watchQuiet    bool
	watchNotify   bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Remind you when outcome checks come due",
	Long: `Poll the session log and raise a reminder the first time each outcome
check comes due. Reminders are printed to the terminal and, with --notify,
sent as desktop notifications. A check that stays due is only reported once
per run.

Examples:
  impactlog watch                    # run in foreground (ctrl-c to stop)
  impactlog watch --notify           # also send desktop notifications
  impactlog watch --interval 1h      # check every hour (default: 15m)
  impactlog watch --daemon           # run detached, write PID and log files
  impactlog watch --stop             # stop the background daemon`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchDaemon, "daemon", false, "Run in background mode (write PID file, log to file)")
	watchCmd.Flags().StringVar(&watchInterval, "interval", "15m", "Check interval as duration string (e.g. 5m, 1h)")
	watchCmd.Flags().BoolVar(&watchStop, "stop", false, "Stop a running background daemon")
	watchCmd.Flags().BoolVar(&watchQuiet, "quiet", false, "Suppress terminal output, only send notifications")
	watchCmd.Flags().BoolVar(&watchNotify, "notify", false, "Send desktop notifications")
	rootCmd.AddCommand(watchCmd)
}

func pidFilePath() string { return filepath.Join(config.ConfigDir(), "watch.pid") }
func logFilePath() string { return filepath.Join(config.ConfigDir(), "watch.log") }

// parseInterval parses a poll interval and enforces the minimum.
func parseInterval(s string) (time.Duration, error) {
	interval, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid interval %q: %w", s, err)
	}
	if interval < minWatchInterval {
		return 0, fmt.Errorf("interval must be at least %s, got %s", minWatchInterval, interval)
	}
	return interval, nil
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if watchStop {
		return stopDaemon(cmd.OutOrStdout())
	}

	interval, err := parseInterval(watchInterval)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), shutdownSignals...)
	defer stop()

	if watchDaemon {
		return runDaemon(ctx, interval)
	}
	return runForeground(ctx, cmd.OutOrStdout(), interval)
}

// runForeground prints reminders to w until ctx is cancelled.
func runForeground(ctx context.Context, w io.Writer, interval time.Duration) error {
	tr, closeDB, err := openTracker()
	if err != nil {
		return err
	}
	defer closeDB()

	if !watchQuiet {
		fmt.Fprintf(w, "impactlog watching... (checking every %s)\n", interval)
	}

	wt := watcher.New(tr, interval, func(a watcher.Alert) {
		if watchNotify {
			_ = watcher.Notify(a)
		}
		if !watchQuiet {
			printAlert(w, a)
		}
	})
	return untilStopped(ctx, wt, func(pending int) {
		if !watchQuiet {
			fmt.Fprintf(w, "\nStopped. %d check(s) still due.\n", pending)
		}
	})
}

// runDaemon runs the watcher with a PID file and a JSON log file in the
// config directory. Detaching from the terminal is left to the caller
// (nohup, a service manager) because Go cannot fork safely.
func runDaemon(ctx context.Context, interval time.Duration) error {
	release, err := claimPIDFile()
	if err != nil {
		return err
	}
	defer release()

	logFile, err := os.OpenFile(logFilePath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()
	logger := zerolog.New(logFile).With().Timestamp().Int("pid", os.Getpid()).Logger()

	tr, closeDB, err := openTracker()
	if err != nil {
		return err
	}
	defer closeDB()

	logger.Info().Dur("interval", interval).Msg("daemon started")
	wt := watcher.New(tr, interval, func(a watcher.Alert) {
		_ = watcher.Notify(a)
		logger.Info().Str("alert", a.Level).Str("check", a.CheckID).Str("title", a.Title).Msg(a.Message)
	})
	return untilStopped(ctx, wt, func(pending int) {
		logger.Info().Int("pending", pending).Msg("daemon stopped")
	})
}

// untilStopped runs wt and treats cancellation as a clean stop.
func untilStopped(ctx context.Context, wt *watcher.Watcher, stopped func(pending int)) error {
	err := wt.Run(ctx)
	if errors.Is(err, context.Canceled) {
		stopped(wt.Pending())
		return nil
	}
	return err
}

// claimPIDFile records this process as the running daemon. A PID file
// left by a dead process is taken over. The returned func removes it.
func claimPIDFile() (func(), error) {
	if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
		return nil, fmt.Errorf("creating config dir: %w", err)
	}
	if pid, err := readPID(); err == nil && processExists(pid) {
		return nil, fmt.Errorf("daemon already running (PID %d). Use --stop to stop it", pid)
	}

	path := pidFilePath()
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		return nil, fmt.Errorf("writing PID file: %w", err)
	}
	return func() { _ = os.Remove(path) }, nil
}

// readPID returns the PID recorded by a running or crashed daemon.
func readPID() (int, error) {
	data, err := os.ReadFile(pidFilePath())
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

// printAlert writes a reminder with the command that resolves it.
func printAlert(w io.Writer, a watcher.Alert) {
	const indent = "            "
	fmt.Fprintf(w, "%s %s %s\n", a.Time.Local().Format("15:04:05"), alertIcon(a.Level), a.Title)
	if a.Message != "" {
		fmt.Fprintln(w, indent+a.Message)
	}
	if a.CheckID != "" {
		fmt.Fprintln(w, indent+output.StyleMuted.Render("impactlog check "+a.CheckID+" <LEVEL>"))
	}
}

func alertIcon(level string) string {
	switch level {
	case "critical":
		return output.StyleError.Render("!!")
	case "warning":
		return output.StyleWarning.Render(" !")
	case "info":
		return output.StyleHeader.Render(" >")
	}
	return "  "
}
