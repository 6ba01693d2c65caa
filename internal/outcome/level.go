// Package outcome defines outcome levels and the follow-up checks that are
// scheduled for every work session.
package outcome

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidLevel is returned when an outcome token is not one of NONE,
// LOW, MED, or HIGH.
var ErrInvalidLevel = errors.New("invalid outcome level")

// Level is the observed outcome of a check. The numeric value is the weight
// used in scoring.
type Level int

// Outcome levels in ascending order.
const (
	None Level = iota
	Low
	Med
	High
)

// Levels lists every outcome level in ascending order. Each call returns a
// new slice.
func Levels() []Level {
	return []Level{None, Low, Med, High}
}

// Weight returns the scoring weight of the level.
func (l Level) Weight() float64 {
	switch l {
	case Low:
		return 1
	case Med:
		return 2
	case High:
		return 3
	default:
		return 0
	}
}

// String returns the wire token for the level.
func (l Level) String() string {
	switch l {
	case None:
		return "NONE"
	case Low:
		return "LOW"
	case Med:
		return "MED"
	case High:
		return "HIGH"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// ParseLevel converts a case-insensitive token into a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NONE":
		return None, nil
	case "LOW":
		return Low, nil
	case "MED":
		return Med, nil
	case "HIGH":
		return High, nil
	}
	return None, fmt.Errorf("%w: %q (expected NONE, LOW, MED or HIGH)", ErrInvalidLevel, s)
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	if l < None || l > High {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLevel, int(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	v, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = v
	return nil
}
