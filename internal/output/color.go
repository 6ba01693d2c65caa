// Package output provides styled terminal rendering helpers for impactlog.
package output

import (
	"os"

	"github.com/blackwell-systems/impactlog/internal/catalog"
	"github.com/blackwell-systems/impactlog/internal/outcome"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Palette. Levels reuse the status colors: A is success, B is warning,
// C is muted.
var (
	ColorPrimary = lipgloss.Color("#64b5f6")
	ColorSuccess = lipgloss.Color("#66bb6a")
	ColorError   = lipgloss.Color("#ef5350")
	ColorWarning = lipgloss.Color("#fff59d")
	ColorMuted   = lipgloss.Color("#888888")
)

// labelWidth is the key column width of key/value blocks.
const labelWidth = 22

// Shared styles. SetNoColor swaps them between colored and plain.
var (
	StyleHeader  lipgloss.Style
	StyleSuccess lipgloss.Style
	StyleError   lipgloss.Style
	StyleWarning lipgloss.Style
	StyleMuted   lipgloss.Style
	StyleBold    lipgloss.Style
	StyleLabel   lipgloss.Style
)

var noColor bool

func init() {
	applyStyles(true)
}

// SetNoColor turns colored output off or back on for every shared style.
func SetNoColor(disabled bool) {
	noColor = disabled
	applyStyles(!disabled)
}

// IsNoColor reports whether colored output is off.
func IsNoColor() bool {
	return noColor
}

func applyStyles(color bool) {
	fg := func(c lipgloss.Color) lipgloss.Style {
		if !color {
			return lipgloss.NewStyle()
		}
		return lipgloss.NewStyle().Foreground(c)
	}
	StyleHeader = fg(ColorPrimary).Bold(color)
	StyleSuccess = fg(ColorSuccess)
	StyleError = fg(ColorError)
	StyleWarning = fg(ColorWarning)
	StyleMuted = fg(ColorMuted)
	StyleBold = lipgloss.NewStyle().Bold(color)
	StyleLabel = lipgloss.NewStyle().Width(labelWidth)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// LevelBadge renders a metric level as a short colored tag, e.g. "[A]".
func LevelBadge(l catalog.Level) string {
	tag := "[" + string(l) + "]"
	switch l {
	case catalog.LevelA:
		return StyleSuccess.Bold(!noColor).Render(tag)
	case catalog.LevelB:
		return StyleWarning.Render(tag)
	default:
		return StyleMuted.Render(tag)
	}
}

// OutcomeBadge renders an outcome level. Unrecorded checks render muted.
func OutcomeBadge(l outcome.Level) string {
	switch l {
	case outcome.High:
		return StyleSuccess.Render(l.String())
	case outcome.Med:
		return StyleWarning.Render(l.String())
	case outcome.Low:
		return StyleError.Render(l.String())
	default:
		return StyleMuted.Render(l.String())
	}
}
