package breathing

import pattern "github.com/osa030/calmbox/internal/domain/breathing"

// EventType represents a breathing event type.
type EventType int

const (
	EventPhaseStarted EventType = iota // A phase began; Remaining is its full length
	EventTick                          // One second elapsed in the current phase
	EventRepetition                    // A repetition finished
	EventCompleted                     // All repetitions finished
	EventSkipped                       // The user skipped the exercise
	EventStopped                       // The user stopped the exercise
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventPhaseStarted:
		return "phase_started"
	case EventTick:
		return "tick"
	case EventRepetition:
		return "repetition"
	case EventCompleted:
		return "completed"
	case EventSkipped:
		return "skipped"
	case EventStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Event represents a breathing event.
type Event struct {
	Type        EventType
	Pattern     pattern.PatternID
	Phase       pattern.PhaseKind
	Instruction string
	Remaining   int // Seconds left in the phase
	Repetition  int // Repetitions completed so far
	Total       int // Repetitions configured
}

// IsCompletion reports whether the event ends the session lifecycle.
func (e Event) IsCompletion() bool {
	return e.Type == EventCompleted || e.Type == EventSkipped
}
