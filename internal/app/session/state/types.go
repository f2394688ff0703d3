// Package state provides session state management.
package state

// Phase represents the session lifecycle phase.
type Phase int

const (
	PhaseWaiting    Phase = iota // Created, not started
	PhaseBreathing               // Breathing exercise running
	PhaseMeditating              // Meditation running
	PhaseTerminated              // Session has ended
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseWaiting:
		return "waiting"
	case PhaseBreathing:
		return "breathing"
	case PhaseMeditating:
		return "meditating"
	case PhaseTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Outcome represents how a session ended.
type Outcome int

const (
	OutcomeNone      Outcome = iota // Not ended yet
	OutcomeCompleted                // Every leg ran to completion
	OutcomeSkipped                  // Breathing-only session skipped by the user
	OutcomeStopped                  // Stopped by the user
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeCompleted:
		return "completed"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
