package watcher

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
)

// Notify shows alert as a desktop notification: osascript on macOS,
// notify-send on Linux. When neither works the alert goes to stderr.
func Notify(alert Alert) error {
	name, args := notifyCommand(runtime.GOOS, alert)
	if name == "" {
		return writeAlert(os.Stderr, alert)
	}
	if _, err := exec.LookPath(name); err != nil {
		return writeAlert(os.Stderr, alert)
	}
	if err := exec.Command(name, args...).Run(); err != nil {
		return writeAlert(os.Stderr, alert)
	}
	return nil
}

// notifyCommand returns the notifier invocation for goos, or an empty name
// when the platform has none.
func notifyCommand(goos string, alert Alert) (string, []string) {
	switch goos {
	case "darwin":
		script := fmt.Sprintf(`display notification %q with title "impactlog" subtitle %q`,
			alert.Message, alert.Title)
		return "osascript", []string{"-e", script}
	case "linux":
		var args []string
		if alert.Level == "critical" {
			args = append(args, "--urgency=critical")
		}
		return "notify-send", append(args, "impactlog: "+alert.Title, alert.Message)
	default:
		return "", nil
	}
}

// writeAlert writes the one-line plain form of alert.
func writeAlert(w io.Writer, alert Alert) error {
	_, err := fmt.Fprintf(w, "[%s] %s: %s\n", alert.Level, alert.Title, alert.Message)
	return err
}
