package session

import (
	pattern "github.com/osa030/calmbox/internal/domain/breathing"
)

// Plan selects which exercises a session runs.
type Plan int

const (
	PlanBreathing               Plan = iota // Breathing exercise only
	PlanMeditation                          // Meditation only
	PlanBreathingThenMeditation             // Breathing, then meditation once breathing completes or is skipped
)

// String returns the string representation of the plan.
func (p Plan) String() string {
	switch p {
	case PlanBreathing:
		return "breathing"
	case PlanMeditation:
		return "meditation"
	case PlanBreathingThenMeditation:
		return "breathing_then_meditation"
	default:
		return "unknown"
	}
}

func (p Plan) hasBreathing() bool {
	return p == PlanBreathing || p == PlanBreathingThenMeditation
}

func (p Plan) hasMeditation() bool {
	return p == PlanMeditation || p == PlanBreathingThenMeditation
}

// Options configures a session. Zero values fall back to the configuration file.
type Options struct {
	Plan              Plan
	Pattern           pattern.PatternID
	Repetitions       int
	MeditationSeconds int
}
