package breathing

import (
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/calmbox/internal/app/countdown"
	pattern "github.com/osa030/calmbox/internal/domain/breathing"
)

const (
	DefaultRepetitions    = 10
	DefaultMinRepetitions = 10
	DefaultMaxRepetitions = 30
)

// Errors
var (
	ErrInvalidRepetitions = errors.New("repetitions out of range")
	ErrSessionRunning     = errors.New("breathing session is running")
)

// Config holds controller configuration.
type Config struct {
	Pattern        pattern.PatternID // Defaults to box breathing
	Repetitions    int               // Defaults to DefaultRepetitions
	MinRepetitions int               // Lower bound accepted by Configure
	MaxRepetitions int               // Upper bound accepted by Configure
}

// Snapshot is a copy of the controller state for display.
type Snapshot struct {
	State       State
	Pattern     pattern.Pattern
	Phase       pattern.PhaseKind
	Instruction string
	Remaining   int
	Repetition  int
	Total       int
}

// Controller sequences the phases of a breathing pattern for a number of repetitions.
type Controller struct {
	mu sync.Mutex

	minRepetitions int
	maxRepetitions int

	engine     *countdown.Engine
	dispatcher *countdown.Dispatcher[Event]

	// Session
	pattern    pattern.Pattern
	phases     []pattern.Phase
	total      int
	repetition int
	phaseIndex int
	remaining  int
	state      State
	generation uint64 // invalidates callbacks of a stopped session
}

// NewController creates a breathing controller.
// Events are delivered to handler in order, never while the controller lock is held.
func NewController(cfg Config, source countdown.TickSource, handler func(Event)) (*Controller, error) {
	if cfg.Pattern == "" {
		cfg.Pattern = pattern.PatternBox
	}
	if cfg.Repetitions == 0 {
		cfg.Repetitions = DefaultRepetitions
	}
	if cfg.MinRepetitions <= 0 {
		cfg.MinRepetitions = DefaultMinRepetitions
	}
	if cfg.MaxRepetitions <= 0 {
		cfg.MaxRepetitions = DefaultMaxRepetitions
	}
	if cfg.MinRepetitions > cfg.MaxRepetitions {
		return nil, errors.Newf("invalid repetition range %d-%d", cfg.MinRepetitions, cfg.MaxRepetitions)
	}

	c := &Controller{
		minRepetitions: cfg.MinRepetitions,
		maxRepetitions: cfg.MaxRepetitions,
		engine:         countdown.NewEngine(source),
		dispatcher:     countdown.NewDispatcher(handler),
		state:          StateIdle,
	}
	if err := c.Configure(cfg.Pattern, cfg.Repetitions); err != nil {
		return nil, err
	}
	return c, nil
}

// Configure selects the pattern and repetition count for the next session.
// It is rejected while a session is running or when repetitions are outside the configured range;
// the current configuration is left unchanged in both cases.
func (c *Controller) Configure(id pattern.PatternID, repetitions int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateRunning {
		return ErrSessionRunning
	}

	p, ok := pattern.Lookup(id)
	if !ok {
		return errors.Wrapf(pattern.ErrUnknownPattern, "%q", id)
	}

	if repetitions < c.minRepetitions || repetitions > c.maxRepetitions {
		return errors.Wrapf(ErrInvalidRepetitions, "%d not in %d-%d", repetitions, c.minRepetitions, c.maxRepetitions)
	}

	c.pattern = p
	c.phases = p.Phases()
	c.total = repetitions

	// Show the first phase until the session starts.
	c.phaseIndex = c.firstPhaseIndex()
	c.remaining = c.phases[c.phaseIndex].Seconds

	zlog.Debug().Msgf("breathing: configured: pattern=%s repetitions=%d", p.ID, repetitions)
	return nil
}

// Start begins a session from the first repetition. It is a no-op if a session is running.
func (c *Controller) Start() {
	c.mu.Lock()

	if c.state == StateRunning {
		c.mu.Unlock()
		return
	}

	c.generation++
	c.state = StateRunning
	c.repetition = 0

	zlog.Debug().Msgf("breathing: started: pattern=%s repetitions=%d", c.pattern.ID, c.total)

	c.dispatcher.Queue(c.beginPhaseLocked(c.firstPhaseIndex()))
	c.dispatcher.Flush(&c.mu)
}

// Stop cancels the running session and keeps its progress for display. It is a no-op if not running.
func (c *Controller) Stop() {
	c.mu.Lock()

	if c.state != StateRunning {
		c.mu.Unlock()
		return
	}

	c.haltLocked(StateStopped)
	zlog.Debug().Msgf("breathing: stopped: repetition=%d/%d", c.repetition, c.total)

	c.dispatcher.Queue(c.eventLocked(EventStopped))
	c.dispatcher.Flush(&c.mu)
}

// Skip stops the running session and emits EventSkipped. It is a no-op if not running.
func (c *Controller) Skip() {
	c.mu.Lock()

	if c.state != StateRunning {
		c.mu.Unlock()
		return
	}

	c.haltLocked(StateSkipped)

	zlog.Debug().Msgf("breathing: skipped: repetition=%d/%d", c.repetition, c.total)

	c.dispatcher.Queue(c.eventLocked(EventSkipped))
	c.dispatcher.Flush(&c.mu)
}

// Snapshot returns the current session state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	phase := c.phases[c.phaseIndex]
	return Snapshot{
		State:       c.state,
		Pattern:     c.pattern,
		Phase:       phase.Kind,
		Instruction: phase.Instruction,
		Remaining:   c.remaining,
		Repetition:  c.repetition,
		Total:       c.total,
	}
}

// IsRunning reports whether a session is in progress.
func (c *Controller) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateRunning
}

func (c *Controller) onTick(generation uint64, remaining int) {
	c.mu.Lock()
	if c.state != StateRunning || generation != c.generation {
		c.mu.Unlock()
		return
	}

	c.remaining = remaining
	c.dispatcher.Queue(c.eventLocked(EventTick))
	c.dispatcher.Flush(&c.mu)
}

func (c *Controller) onPhaseExpired(generation uint64) {
	c.mu.Lock()
	if c.state != StateRunning || generation != c.generation {
		c.mu.Unlock()
		return
	}

	c.dispatcher.Queue(c.advanceLocked()...)
	c.dispatcher.Flush(&c.mu)
}

// advanceLocked moves to the next phase with a non-zero duration, or completes the repetition.
// Must be called with lock held.
func (c *Controller) advanceLocked() []Event {
	for next := c.phaseIndex + 1; next < len(c.phases); next++ {
		if c.phases[next].Seconds > 0 {
			return []Event{c.beginPhaseLocked(next)}
		}
	}

	c.repetition++
	events := []Event{c.eventLocked(EventRepetition)}
	zlog.Debug().Msgf("breathing: repetition complete: repetition=%d/%d", c.repetition, c.total)

	if c.repetition >= c.total {
		c.haltLocked(StateCompleted)
		zlog.Debug().Msgf("breathing: completed: pattern=%s repetitions=%d", c.pattern.ID, c.total)
		return append(events, c.eventLocked(EventCompleted))
	}

	return append(events, c.beginPhaseLocked(c.firstPhaseIndex()))
}

// beginPhaseLocked loads the phase at index and starts counting it down.
// Must be called with lock held.
func (c *Controller) beginPhaseLocked(index int) Event {
	phase := c.phases[index]
	c.phaseIndex = index
	c.remaining = phase.Seconds

	generation := c.generation
	c.engine.Start(phase.Seconds,
		func(remaining int) { c.onTick(generation, remaining) },
		func() { c.onPhaseExpired(generation) },
	)

	return c.eventLocked(EventPhaseStarted)
}

// haltLocked invalidates pending callbacks, then cancels the engine.
// Must be called with lock held.
func (c *Controller) haltLocked(state State) {
	c.generation++
	c.state = state
	c.engine.Stop()
}

func (c *Controller) firstPhaseIndex() int {
	for i, phase := range c.phases {
		if phase.Seconds > 0 {
			return i
		}
	}
	return 0
}

func (c *Controller) eventLocked(eventType EventType) Event {
	phase := c.phases[c.phaseIndex]
	return Event{
		Type:        eventType,
		Pattern:     c.pattern.ID,
		Phase:       phase.Kind,
		Instruction: phase.Instruction,
		Remaining:   c.remaining,
		Repetition:  c.repetition,
		Total:       c.total,
	}
}
