package state

import (
	"sync"
	"time"
)

// Info is a snapshot of the session state.
type Info struct {
	SessionID string
	Phase     Phase
	Outcome   Outcome
	StartTime *time.Time
	EndTime   *time.Time
}

// Manager manages session state with thread-safe access.
type Manager struct {
	mu sync.RWMutex

	// Session identity
	sessionID string

	// Session lifecycle
	phase   Phase
	outcome Outcome

	// Schedule
	startTime *time.Time
	endTime   *time.Time
}

// New creates a new state manager.
func New(sessionID string) *Manager {
	return &Manager{
		sessionID: sessionID,
		phase:     PhaseWaiting,
		outcome:   OutcomeNone,
	}
}

// GetPhase returns the current session phase.
func (m *Manager) GetPhase() Phase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.phase
}

// SetPhase sets the session phase.
func (m *Manager) SetPhase(p Phase) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phase = p
}

// Terminate moves the session to PhaseTerminated with the given outcome and records the end time.
// It returns false if the session was already terminated.
func (m *Manager) Terminate(outcome Outcome, at time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase == PhaseTerminated {
		return false
	}
	m.phase = PhaseTerminated
	m.outcome = outcome
	m.endTime = &at
	return true
}

// GetSessionID returns the session ID.
func (m *Manager) GetSessionID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessionID
}

// SetStartTime sets the start time.
func (m *Manager) SetStartTime(start time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startTime = &start
}

// Info returns a snapshot of the session state.
func (m *Manager) Info() Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Info{
		SessionID: m.sessionID,
		Phase:     m.phase,
		Outcome:   m.outcome,
		StartTime: m.startTime,
		EndTime:   m.endTime,
	}
}
