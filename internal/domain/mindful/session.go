// Package mindful provides the mindful session record kept by the health store.
package mindful

import (
	"time"

	"github.com/google/uuid"
)

// Session is a completed meditation as written to the health store.
type Session struct {
	ID        string    // UUID
	StartedAt time.Time // Session start
	EndedAt   time.Time // StartedAt + duration
}

// NewSession creates a session record spanning duration from startedAt.
func NewSession(startedAt time.Time, duration time.Duration) Session {
	return Session{
		ID:        uuid.New().String(),
		StartedAt: startedAt,
		EndedAt:   startedAt.Add(duration),
	}
}

// Duration returns the length of the session.
func (s Session) Duration() time.Duration {
	return s.EndedAt.Sub(s.StartedAt)
}

// DayBounds returns the start of the local day containing t and the start of the next day.
func DayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

// TotalDuration sums the duration of the given sessions.
func TotalDuration(sessions []Session) time.Duration {
	var total time.Duration
	for _, s := range sessions {
		total += s.Duration()
	}
	return total
}
