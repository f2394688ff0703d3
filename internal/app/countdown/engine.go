package countdown

import (
	"sync"
	"time"
)

// Engine counts whole seconds down to zero, one tick at a time.
// At most one tick subscription is live per engine.
type Engine struct {
	mu sync.Mutex

	source   TickSource
	interval time.Duration

	// Current subscription
	cancel     func()
	generation uint64 // bumped on every start and stop; stale ticks are discarded
	running    bool

	remaining int
	onTick    func(remaining int)
	onExpire  func()
}

// NewEngine creates an engine ticking once per second on source.
// A nil source uses the wall clock.
func NewEngine(source TickSource) *Engine {
	if source == nil {
		source = WallClock{}
	}
	return &Engine{
		source:   source,
		interval: time.Second,
	}
}

// Start begins counting down from initialSeconds.
// It returns false without side effects if the engine is already running or initialSeconds is not positive.
func (e *Engine) Start(initialSeconds int, onTick func(remaining int), onExpire func()) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running || initialSeconds <= 0 {
		return false
	}

	e.generation++
	generation := e.generation
	e.running = true
	e.remaining = initialSeconds
	e.onTick = onTick
	e.onExpire = onExpire
	e.cancel = e.source.Every(e.interval, func() {
		e.tick(generation)
	})

	return true
}

// Tick decrements the running countdown by one second, as if the tick source had fired.
func (e *Engine) Tick() {
	e.mu.Lock()
	generation := e.generation
	e.mu.Unlock()

	e.tick(generation)
}

// Stop cancels the tick subscription. Ticks delivered afterwards are ignored.
// It returns false if the engine was not running.
func (e *Engine) Stop() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return false
	}
	e.stopLocked()
	return true
}

// Running reports whether a countdown is in progress.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Remaining returns the seconds left in the current (or last) countdown.
func (e *Engine) Remaining() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.remaining
}

func (e *Engine) tick(generation uint64) {
	e.mu.Lock()
	if !e.running || generation != e.generation {
		e.mu.Unlock()
		return
	}

	e.remaining--
	remaining := e.remaining
	onTick := e.onTick
	onExpire := e.onExpire

	expired := remaining <= 0
	if expired {
		e.stopLocked()
	}
	e.mu.Unlock()

	// Callbacks run unlocked so they may restart the engine.
	if onTick != nil {
		onTick(remaining)
	}
	if expired && onExpire != nil {
		onExpire()
	}
}

// stopLocked cancels the subscription before any further state changes.
// Must be called with lock held.
func (e *Engine) stopLocked() {
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.generation++
	e.running = false
	e.onTick = nil
	e.onExpire = nil
}
