package breathing

import (
	"fmt"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/calmbox/internal/app/countdown"
	pattern "github.com/osa030/calmbox/internal/domain/breathing"
)

type eventLog struct {
	events []Event
}

func (l *eventLog) handle(e Event) { l.events = append(l.events, e) }

func (l *eventLog) ofType(t EventType) []Event {
	var result []Event
	for _, e := range l.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

func (l *eventLog) completions() int {
	n := 0
	for _, e := range l.events {
		if e.IsCompletion() {
			n++
		}
	}
	return n
}

func newTestController(t *testing.T, cfg Config) (*Controller, *countdown.Manual, *eventLog) {
	t.Helper()
	source := countdown.NewManual()
	log := &eventLog{}
	c, err := NewController(cfg, source, log.handle)
	require.NoError(t, err)
	return c, source, log
}

func TestController_BoxSingleRepetitionTickSequence(t *testing.T) {
	c, source, log := newTestController(t, Config{
		Pattern:        pattern.PatternBox,
		Repetitions:    1,
		MinRepetitions: 1,
	})

	c.Start()
	source.FireN(16)

	perPhase := map[pattern.PhaseKind][]int{}
	var order []pattern.PhaseKind
	for _, e := range log.ofType(EventTick) {
		if _, seen := perPhase[e.Phase]; !seen {
			order = append(order, e.Phase)
		}
		perPhase[e.Phase] = append(perPhase[e.Phase], e.Remaining)
	}

	assert.Equal(t, []pattern.PhaseKind{
		pattern.PhaseInhale,
		pattern.PhaseHold,
		pattern.PhaseExhale,
		pattern.PhaseHoldAfterExhale,
	}, order)
	for _, kind := range order {
		assert.Equal(t, []int{3, 2, 1, 0}, perPhase[kind], kind.String())
	}

	require.Equal(t, 1, log.completions())
	last := log.events[len(log.events)-1]
	assert.Equal(t, EventCompleted, last.Type)
	assert.Equal(t, 1, last.Repetition)
	assert.Equal(t, StateCompleted, c.Snapshot().State)
}

func TestController_FourSevenEightSkipsEmptyHold(t *testing.T) {
	c, source, log := newTestController(t, Config{
		Pattern:        pattern.PatternFourSevenEight,
		Repetitions:    1,
		MinRepetitions: 1,
	})

	c.Start()
	source.FireN(18)
	assert.Zero(t, log.completions(), "not complete before the 19th tick")

	source.Fire()
	assert.Equal(t, 1, log.completions())

	for _, e := range log.events {
		assert.NotEqual(t, pattern.PhaseHoldAfterExhale, e.Phase, "hold after exhale must never be observed")
	}

	// exhale reaching zero is followed directly by the repetition boundary
	n := len(log.events)
	require.GreaterOrEqual(t, n, 3)
	assert.Equal(t, EventTick, log.events[n-3].Type)
	assert.Equal(t, pattern.PhaseExhale, log.events[n-3].Phase)
	assert.Equal(t, 0, log.events[n-3].Remaining)
	assert.Equal(t, EventRepetition, log.events[n-2].Type)
	assert.Equal(t, EventCompleted, log.events[n-1].Type)
}

func TestController_CompletesAfterExactTickCount(t *testing.T) {
	for _, p := range pattern.Patterns() {
		for _, reps := range []int{10, 17, 30} {
			t.Run(fmt.Sprintf("%s/%d", p.ID, reps), func(t *testing.T) {
				c, source, log := newTestController(t, Config{Pattern: p.ID, Repetitions: reps})

				c.Start()
				source.FireN(p.CycleSeconds()*reps - 1)
				assert.Zero(t, log.completions())

				source.Fire()
				assert.Equal(t, 1, log.completions())
				assert.Len(t, log.ofType(EventRepetition), reps)

				snap := c.Snapshot()
				assert.Equal(t, reps, snap.Repetition)
				assert.False(t, c.IsRunning())
				assert.Equal(t, 0, source.Live())

				// nothing happens after completion
				before := len(log.events)
				source.FireN(20)
				source.FireAll()
				assert.Len(t, log.events, before)
			})
		}
	}
}

func TestController_StopIgnoresStrayTicks(t *testing.T) {
	c, source, log := newTestController(t, Config{})

	c.Start()
	source.FireN(6)
	c.Stop()

	snap := c.Snapshot()
	before := len(log.events)

	for i := 0; i < 50; i++ {
		source.FireAll()
	}

	assert.Len(t, log.events, before)
	assert.Equal(t, snap, c.Snapshot())
	assert.Equal(t, StateStopped, snap.State)
	assert.Equal(t, pattern.PhaseHold, snap.Phase, "progress is kept for display")
	assert.Equal(t, 2, snap.Remaining)
	assert.Len(t, log.ofType(EventStopped), 1)
}

func TestController_StopIsIdempotent(t *testing.T) {
	c, _, log := newTestController(t, Config{})

	c.Stop()
	assert.Empty(t, log.events)

	c.Start()
	c.Stop()
	c.Stop()
	assert.Len(t, log.ofType(EventStopped), 1)
}

func TestController_DoubleStartKeepsOneSubscription(t *testing.T) {
	c, source, log := newTestController(t, Config{})

	c.Start()
	c.Start()
	assert.Equal(t, 1, source.Live())
	assert.Len(t, log.ofType(EventPhaseStarted), 1)

	source.Fire()
	ticks := log.ofType(EventTick)
	require.Len(t, ticks, 1)
	assert.Equal(t, 3, ticks[0].Remaining)
}

func TestController_LiveSubscriptionsNeverExceedOne(t *testing.T) {
	c, source, _ := newTestController(t, Config{Pattern: pattern.PatternFourSevenEight})

	c.Start()
	for i := 0; i < 60; i++ {
		source.Fire()
		assert.LessOrEqual(t, source.Live(), 1)
	}
	c.Stop()
	assert.Equal(t, 0, source.Live())
}

func TestController_Configure(t *testing.T) {
	tests := []struct {
		name        string
		id          pattern.PatternID
		repetitions int
		wantErr     error
	}{
		{name: "lower bound", id: pattern.PatternBox, repetitions: 10},
		{name: "upper bound", id: pattern.PatternFourSevenEight, repetitions: 30},
		{name: "below range", id: pattern.PatternBox, repetitions: 9, wantErr: ErrInvalidRepetitions},
		{name: "above range", id: pattern.PatternBox, repetitions: 31, wantErr: ErrInvalidRepetitions},
		{name: "unknown pattern", id: "triangle", repetitions: 10, wantErr: pattern.ErrUnknownPattern},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _ := newTestController(t, Config{Pattern: pattern.PatternBox, Repetitions: 12})

			err := c.Configure(tt.id, tt.repetitions)

			snap := c.Snapshot()
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				assert.Equal(t, pattern.PatternBox, snap.Pattern.ID, "configuration unchanged")
				assert.Equal(t, 12, snap.Total)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, snap.Pattern.ID)
			assert.Equal(t, tt.repetitions, snap.Total)
			assert.Equal(t, pattern.PhaseInhale, snap.Phase)
			assert.Equal(t, 4, snap.Remaining)
		})
	}
}

func TestController_ConfigureWhileRunning(t *testing.T) {
	c, _, _ := newTestController(t, Config{})
	c.Start()

	err := c.Configure(pattern.PatternFourSevenEight, 20)

	assert.True(t, errors.Is(err, ErrSessionRunning))
	assert.Equal(t, pattern.PatternBox, c.Snapshot().Pattern.ID)
}

func TestNewController_Invalid(t *testing.T) {
	_, err := NewController(Config{Repetitions: 5}, countdown.NewManual(), nil)
	assert.True(t, errors.Is(err, ErrInvalidRepetitions))

	_, err = NewController(Config{MinRepetitions: 20, MaxRepetitions: 10}, countdown.NewManual(), nil)
	assert.Error(t, err)
}

func TestController_Skip(t *testing.T) {
	c, source, log := newTestController(t, Config{})

	c.Start()
	source.FireN(5)
	c.Skip()

	require.Len(t, log.ofType(EventSkipped), 1)
	assert.Empty(t, log.ofType(EventStopped), "skip is a single terminal event")
	assert.Equal(t, StateSkipped, c.Snapshot().State)
	assert.Equal(t, 0, source.Live())

	// only one completion per lifecycle
	c.Skip()
	assert.Equal(t, 1, log.completions())

	before := len(log.events)
	source.FireAll()
	assert.Len(t, log.events, before)
}

func TestController_SkipAfterCompletion(t *testing.T) {
	c, source, log := newTestController(t, Config{Repetitions: 1, MinRepetitions: 1})

	c.Start()
	source.FireN(16)
	c.Skip()

	assert.Equal(t, 1, log.completions())
	assert.Len(t, log.ofType(EventCompleted), 1)
	assert.Empty(t, log.ofType(EventSkipped))
}

func TestController_SkipWhenNotRunning(t *testing.T) {
	t.Run("before start", func(t *testing.T) {
		c, _, log := newTestController(t, Config{})

		c.Skip()

		assert.Empty(t, log.events)
		assert.Equal(t, StateIdle, c.Snapshot().State)
	})

	t.Run("after stop", func(t *testing.T) {
		c, source, log := newTestController(t, Config{})

		c.Start()
		source.FireN(3)
		c.Stop()
		c.Skip()

		assert.Len(t, log.ofType(EventStopped), 1)
		assert.Empty(t, log.ofType(EventSkipped), "one terminal event per lifecycle")
		assert.Equal(t, StateStopped, c.Snapshot().State)
	})
}

func TestController_RestartResetsProgress(t *testing.T) {
	c, source, log := newTestController(t, Config{Repetitions: 2, MinRepetitions: 1})

	c.Start()
	source.FireN(20)
	c.Stop()
	assert.Equal(t, 1, c.Snapshot().Repetition)

	c.Start()
	snap := c.Snapshot()
	assert.Equal(t, 0, snap.Repetition)
	assert.Equal(t, pattern.PhaseInhale, snap.Phase)
	assert.Equal(t, 4, snap.Remaining)

	source.FireN(32)
	assert.Equal(t, 1, log.completions())
}

func TestController_RepetitionEvents(t *testing.T) {
	c, source, log := newTestController(t, Config{Repetitions: 3, MinRepetitions: 1})

	c.Start()
	source.FireN(48)

	reps := log.ofType(EventRepetition)
	require.Len(t, reps, 3)
	for i, e := range reps {
		assert.Equal(t, i+1, e.Repetition)
		assert.Equal(t, 3, e.Total)
	}
}

func TestController_HandlerMayStopController(t *testing.T) {
	source := countdown.NewManual()
	log := &eventLog{}
	var c *Controller
	c, err := NewController(Config{}, source, func(e Event) {
		log.handle(e)
		if e.Type == EventRepetition {
			c.Stop()
		}
	})
	require.NoError(t, err)

	c.Start()
	source.FireN(40)

	assert.Len(t, log.ofType(EventRepetition), 1)
	assert.Len(t, log.ofType(EventStopped), 1)
	assert.False(t, c.IsRunning())

	// the next inhale was announced before the handler stopped the session
	last := log.events[len(log.events)-1]
	assert.Equal(t, EventStopped, last.Type)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "completed", StateCompleted.String())
	assert.Equal(t, "unknown", State(99).String())
	assert.Equal(t, "phase_started", EventPhaseStarted.String())
	assert.Equal(t, "unknown", EventType(99).String())
}
