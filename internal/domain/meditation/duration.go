// Package meditation provides meditation duration presets and display helpers.
package meditation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	MinMinutes     = 1
	MaxMinutes     = 60
	DefaultMinutes = 30

	MinSeconds = MinMinutes * 60
	MaxSeconds = MaxMinutes * 60
)

// ErrInvalidPreset is returned when a preset label cannot be parsed.
var ErrInvalidPreset = errors.New("invalid duration preset")

// Presets are the quick-pick durations in minutes.
var Presets = []int{5, 10, 20, 30}

// ClampMinutes bounds a free-form minute value to the supported range.
func ClampMinutes(minutes int) int {
	if minutes < MinMinutes {
		return MinMinutes
	}
	if minutes > MaxMinutes {
		return MaxMinutes
	}
	return minutes
}

// ValidSeconds reports whether a session length is within the supported range.
func ValidSeconds(seconds int) bool {
	return seconds >= MinSeconds && seconds <= MaxSeconds
}

// PresetLabel returns the button label for a preset, e.g. "5m".
func PresetLabel(minutes int) string {
	return strconv.Itoa(minutes) + "m"
}

// ParsePreset parses a label such as "20m" or "20" into minutes.
func ParsePreset(label string) (int, error) {
	trimmed := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(label)), "m")
	minutes, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidPreset, "%q", label)
	}
	if minutes < MinMinutes || minutes > MaxMinutes {
		return 0, errors.Wrapf(ErrInvalidPreset, "%q out of range %d-%d minutes", label, MinMinutes, MaxMinutes)
	}
	return minutes, nil
}

// FormatClock renders whole seconds as MM:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
