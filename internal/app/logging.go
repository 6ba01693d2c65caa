package app

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/blackwell-systems/impactlog/internal/output"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// setupLogging configures the global zerolog logger. Logs always go to w
// (stderr) so stdout stays clean for command output and the MCP protocol.
func setupLogging(level string, verbose bool, w io.Writer) error {
	lvl := zerolog.InfoLevel
	if level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}
	if verbose {
		lvl = zerolog.DebugLevel
	}

	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    output.IsNoColor(),
		TimeFormat: time.Kitchen,
	})
	return nil
}
