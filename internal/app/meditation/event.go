package meditation

import "time"

// EventType represents a meditation event type.
type EventType int

const (
	EventStarted      EventType = iota // Countdown began
	EventTick                          // One second elapsed
	EventStopped                       // Stopped by the user; nothing is recorded
	EventCompleted                     // Countdown reached zero
	EventRecorded                      // The completed session was written to the health store
	EventRecordFailed                  // The health store write failed; Err is set
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventStarted:
		return "started"
	case EventTick:
		return "tick"
	case EventStopped:
		return "stopped"
	case EventCompleted:
		return "completed"
	case EventRecorded:
		return "recorded"
	case EventRecordFailed:
		return "record_failed"
	default:
		return "unknown"
	}
}

// Event represents a meditation event.
type Event struct {
	Type      EventType
	Total     int           // Configured seconds
	Remaining int           // Seconds left
	Elapsed   time.Duration // Completed length (EventCompleted, EventRecorded, EventRecordFailed)
	StartedAt time.Time     // Zero unless the event belongs to a started session
	Err       error         // EventRecordFailed only
}

// IsCompletion reports whether the event ends the countdown lifecycle.
func (e Event) IsCompletion() bool {
	return e.Type == EventCompleted
}
