package notification

// Source identifies the component a notification comes from.
type Source int

const (
	SourceSession    Source = iota // Session manager
	SourceBreathing                // Breathing controller
	SourceMeditation               // Meditation controller
)

// String returns the string representation of the source.
func (s Source) String() string {
	switch s {
	case SourceSession:
		return "session"
	case SourceBreathing:
		return "breathing"
	case SourceMeditation:
		return "meditation"
	default:
		return "unknown"
	}
}

// Notification is a user-facing progress update.
type Notification struct {
	SequenceNo  uint64 // Assigned by Manager.Broadcast
	Source      Source
	Kind        string  // Event type of the source, e.g. "tick" or "completed"
	Phase       string  // Breathing phase kind
	Instruction string  // Breathing instruction text
	Scale       float64 // Breathing circle size the phase animates to
	Remaining   int     // Seconds left in the phase or session
	Repetition  int
	Total       int    // Repetitions, or seconds for meditation
	Message     string // Configured message text, if any
	Error       string
}
