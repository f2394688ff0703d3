// Package breathing provides the breathing cycle controller.
package breathing

// State represents the controller lifecycle state.
type State int

const (
	StateIdle      State = iota // Configured, never started
	StateRunning                // Cycling through phases
	StateStopped                // Stopped by the user
	StateCompleted              // All repetitions done
	StateSkipped                // Skipped by the user
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	case StateCompleted:
		return "completed"
	case StateSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}
