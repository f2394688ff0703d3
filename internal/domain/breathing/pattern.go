// Package breathing provides the breathing pattern catalog.
package breathing

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrUnknownPattern is returned when a pattern identifier is not in the catalog.
var ErrUnknownPattern = errors.New("unknown breathing pattern")

// PhaseKind identifies a segment of a breathing cycle.
type PhaseKind int

const (
	PhaseInhale          PhaseKind = iota // Breathe in
	PhaseHold                             // Hold after inhale
	PhaseExhale                           // Breathe out
	PhaseHoldAfterExhale                  // Hold after exhale (may be skipped)
)

// String returns the string representation of the phase kind.
func (k PhaseKind) String() string {
	switch k {
	case PhaseInhale:
		return "inhale"
	case PhaseHold:
		return "hold"
	case PhaseExhale:
		return "exhale"
	case PhaseHoldAfterExhale:
		return "hold_after_exhale"
	default:
		return "unknown"
	}
}

// Instruction returns the text shown to the user during the phase.
func (k PhaseKind) Instruction() string {
	switch k {
	case PhaseInhale:
		return "Breathe In"
	case PhaseHold, PhaseHoldAfterExhale:
		return "Hold"
	case PhaseExhale:
		return "Breathe Out"
	default:
		return ""
	}
}

// Scale returns the relative size the breathing circle grows or shrinks to during the phase.
func (k PhaseKind) Scale() float64 {
	switch k {
	case PhaseInhale, PhaseHold:
		return 1.5
	default:
		return 0.8
	}
}

// Phase is one entry of a pattern: a kind and how long it lasts.
type Phase struct {
	Kind        PhaseKind
	Seconds     int // 0 means the phase is skipped
	Instruction string
}

// PatternID identifies a built-in breathing pattern.
type PatternID string

const (
	PatternBox            PatternID = "box"
	PatternFourSevenEight PatternID = "4-7-8"
)

// Pattern is an immutable breathing pattern.
type Pattern struct {
	ID          PatternID
	Name        string
	Description string
	phases      []Phase
}

// Phases returns a copy of the ordered phase list.
func (p Pattern) Phases() []Phase {
	result := make([]Phase, len(p.phases))
	copy(result, p.phases)
	return result
}

// Phase returns the phase of the given kind.
func (p Pattern) Phase(kind PhaseKind) (Phase, bool) {
	for _, ph := range p.phases {
		if ph.Kind == kind {
			return ph, true
		}
	}
	return Phase{}, false
}

// CycleSeconds returns the length of one repetition in seconds.
func (p Pattern) CycleSeconds() int {
	total := 0
	for _, ph := range p.phases {
		total += ph.Seconds
	}
	return total
}

func newPattern(id PatternID, name, description string, inhale, hold, exhale, holdAfter int) Pattern {
	return Pattern{
		ID:          id,
		Name:        name,
		Description: description,
		phases: []Phase{
			{Kind: PhaseInhale, Seconds: inhale, Instruction: PhaseInhale.Instruction()},
			{Kind: PhaseHold, Seconds: hold, Instruction: PhaseHold.Instruction()},
			{Kind: PhaseExhale, Seconds: exhale, Instruction: PhaseExhale.Instruction()},
			{Kind: PhaseHoldAfterExhale, Seconds: holdAfter, Instruction: PhaseHoldAfterExhale.Instruction()},
		},
	}
}

// catalog lists the built-in patterns in display order.
var catalog = []Pattern{
	newPattern(PatternBox, "Box Breathing", "Inhale 4 • Hold 4 • Exhale 4 • Hold 4", 4, 4, 4, 4),
	newPattern(PatternFourSevenEight, "4-7-8 Breathing", "Inhale 4 • Hold 7 • Exhale 8", 4, 7, 8, 0),
}

// Patterns returns all built-in patterns.
func Patterns() []Pattern {
	result := make([]Pattern, len(catalog))
	copy(result, catalog)
	return result
}

// Lookup returns the pattern with the given identifier.
func Lookup(id PatternID) (Pattern, bool) {
	for _, p := range catalog {
		if p.ID == id {
			return p, true
		}
	}
	return Pattern{}, false
}

// ParsePatternID converts user input into a catalog identifier.
func ParsePatternID(s string) (PatternID, error) {
	id := PatternID(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := Lookup(id); !ok {
		return "", errors.Wrapf(ErrUnknownPattern, "%q", s)
	}
	return id, nil
}
