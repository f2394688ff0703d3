// Package meditation provides the meditation session controller.
package meditation

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/calmbox/internal/app/countdown"
	durations "github.com/osa030/calmbox/internal/domain/meditation"
)

const (
	DefaultSeconds       = durations.DefaultMinutes * 60
	DefaultRecordTimeout = 10 * time.Second
)

// Errors
var (
	ErrInvalidDuration     = errors.New("meditation duration out of range")
	ErrSessionRunning      = errors.New("meditation session is running")
	ErrRecorderUnavailable = errors.New("health recorder is not configured")
)

// Recorder stores completed meditation sessions.
type Recorder interface {
	RecordSession(ctx context.Context, duration time.Duration, startedAt time.Time) error
}

// Config holds controller configuration.
type Config struct {
	TotalSeconds   int              // Defaults to DefaultSeconds
	DefaultSeconds int              // Length restored after a natural completion
	RecordTimeout  time.Duration    // Bound on a single health store write
	Now            func() time.Time // Defaults to time.Now
}

// Snapshot is a copy of the controller state for display.
type Snapshot struct {
	Running   bool
	Total     int
	Remaining int
	StartedAt time.Time // Zero when not running
}

// Controller runs a flat countdown and records the session when it ends naturally.
type Controller struct {
	mu sync.Mutex

	defaultSeconds int
	recordTimeout  time.Duration
	now            func() time.Time

	engine     *countdown.Engine
	dispatcher *countdown.Dispatcher[Event]
	recorder   Recorder
	recording  sync.WaitGroup

	// Session
	total      int
	remaining  int
	startedAt  time.Time
	running    bool
	generation uint64 // invalidates callbacks of a stopped session
}

// NewController creates a meditation controller.
// A nil recorder makes every completed session report EventRecordFailed.
func NewController(cfg Config, source countdown.TickSource, recorder Recorder, handler func(Event)) (*Controller, error) {
	if cfg.TotalSeconds == 0 {
		cfg.TotalSeconds = DefaultSeconds
	}
	if cfg.DefaultSeconds == 0 {
		cfg.DefaultSeconds = DefaultSeconds
	}
	if cfg.RecordTimeout <= 0 {
		cfg.RecordTimeout = DefaultRecordTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if !durations.ValidSeconds(cfg.DefaultSeconds) {
		return nil, errors.Wrapf(ErrInvalidDuration, "default %d seconds", cfg.DefaultSeconds)
	}

	c := &Controller{
		defaultSeconds: cfg.DefaultSeconds,
		recordTimeout:  cfg.RecordTimeout,
		now:            cfg.Now,
		engine:         countdown.NewEngine(source),
		dispatcher:     countdown.NewDispatcher(handler),
		recorder:       recorder,
	}
	if err := c.Configure(cfg.TotalSeconds); err != nil {
		return nil, err
	}
	return c, nil
}

// Configure sets the session length. Values outside 1 to 60 minutes are rejected
// and the current configuration is left unchanged.
func (c *Controller) Configure(totalSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return ErrSessionRunning
	}
	if !durations.ValidSeconds(totalSeconds) {
		return errors.Wrapf(ErrInvalidDuration, "%d not in %d-%d seconds", totalSeconds, durations.MinSeconds, durations.MaxSeconds)
	}

	c.total = totalSeconds
	c.remaining = totalSeconds

	zlog.Debug().Msgf("meditation: configured: seconds=%d", totalSeconds)
	return nil
}

// Start begins the countdown from the configured length. It is a no-op if running.
func (c *Controller) Start() {
	c.mu.Lock()

	if c.running {
		c.mu.Unlock()
		return
	}

	c.generation++
	generation := c.generation
	c.running = true
	c.remaining = c.total
	c.startedAt = c.now()

	c.engine.Start(c.total,
		func(remaining int) { c.onTick(generation, remaining) },
		func() { c.onExpire(generation) },
	)

	zlog.Debug().Msgf("meditation: started: seconds=%d", c.total)

	c.dispatcher.Queue(c.eventLocked(EventStarted))
	c.dispatcher.Flush(&c.mu)
}

// Stop cancels the countdown without recording. It is a no-op if not running.
func (c *Controller) Stop() {
	c.mu.Lock()

	if !c.running {
		c.mu.Unlock()
		return
	}

	c.generation++
	c.engine.Stop()
	c.running = false
	c.startedAt = time.Time{}

	zlog.Debug().Msgf("meditation: stopped: remaining=%d", c.remaining)

	c.dispatcher.Queue(c.eventLocked(EventStopped))
	c.dispatcher.Flush(&c.mu)
}

// Snapshot returns the current session state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		Running:   c.running,
		Total:     c.total,
		Remaining: c.remaining,
		StartedAt: c.startedAt,
	}
}

// IsRunning reports whether a session is in progress.
func (c *Controller) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Wait blocks until in-flight health store writes have reported their result.
func (c *Controller) Wait() {
	c.recording.Wait()
}

func (c *Controller) onTick(generation uint64, remaining int) {
	c.mu.Lock()
	if !c.running || generation != c.generation {
		c.mu.Unlock()
		return
	}

	c.remaining = remaining
	c.dispatcher.Queue(c.eventLocked(EventTick))
	c.dispatcher.Flush(&c.mu)
}

func (c *Controller) onExpire(generation uint64) {
	c.mu.Lock()
	if !c.running || generation != c.generation {
		c.mu.Unlock()
		return
	}

	// The engine always runs to exactly zero, so the whole configured length elapsed.
	elapsed := time.Duration(c.total) * time.Second
	startedAt := c.startedAt

	completed := c.eventLocked(EventCompleted)
	completed.Elapsed = elapsed

	c.generation++
	c.running = false
	c.total = c.defaultSeconds
	c.remaining = c.defaultSeconds
	c.startedAt = time.Time{}

	zlog.Debug().Msgf("meditation: completed: elapsed=%s", elapsed)

	c.recording.Add(1)
	go c.record(elapsed, startedAt)

	c.dispatcher.Queue(completed)
	c.dispatcher.Flush(&c.mu)
}

// record makes a single best-effort write and reports its outcome as an event.
func (c *Controller) record(elapsed time.Duration, startedAt time.Time) {
	defer c.recording.Done()

	err := ErrRecorderUnavailable
	if c.recorder != nil {
		ctx, cancel := context.WithTimeout(context.Background(), c.recordTimeout)
		err = c.recorder.RecordSession(ctx, elapsed, startedAt)
		cancel()
	}

	event := Event{
		Type:      EventRecorded,
		Elapsed:   elapsed,
		StartedAt: startedAt,
	}
	if err != nil {
		zlog.Warn().Err(err).Msgf("meditation: failed to record session: elapsed=%s", elapsed)
		event.Type = EventRecordFailed
		event.Err = errors.Wrap(err, "failed to record session")
	} else {
		zlog.Debug().Msgf("meditation: session recorded: elapsed=%s", elapsed)
	}

	c.mu.Lock()
	event.Total = c.total
	event.Remaining = c.remaining
	c.dispatcher.Queue(event)
	c.dispatcher.Flush(&c.mu)
}

func (c *Controller) eventLocked(eventType EventType) Event {
	return Event{
		Type:      eventType,
		Total:     c.total,
		Remaining: c.remaining,
		StartedAt: c.startedAt,
	}
}
