// Package session provides the session manager.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/calmbox/internal/app/breathing"
	"github.com/osa030/calmbox/internal/app/countdown"
	"github.com/osa030/calmbox/internal/app/meditation"
	"github.com/osa030/calmbox/internal/app/notification"
	"github.com/osa030/calmbox/internal/app/session/state"
	pattern "github.com/osa030/calmbox/internal/domain/breathing"
	"github.com/osa030/calmbox/internal/infra/config"
)

var (
	ErrSessionNotRunning = errors.New("session is not running")
	ErrSessionRunning    = errors.New("session has already started")
)

// Availability is implemented by recorders that can report a missing capability.
type Availability interface {
	IsAvailable() bool
}

// Status is a snapshot of the session and both controllers.
type Status struct {
	Info       state.Info
	Plan       Plan
	Breathing  breathing.Snapshot
	Meditation meditation.Snapshot
}

// Manager runs one session: a breathing exercise, a meditation, or breathing followed by meditation.
// The controllers never see each other; the manager starts the meditation from the breathing completion event.
type Manager struct {
	// Guards phase transitions. Controller methods called under mu must not emit
	// completion or record events, which are the only events whose handlers take mu.
	mu sync.Mutex

	// Configuration
	config *config.Config

	// Components
	stateMgr     *state.Manager
	breathing    *breathing.Controller
	meditation   *meditation.Controller
	notification *notification.Manager
	recorder     meditation.Recorder

	plan Plan

	// Channels
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a new session manager.
// Both controllers tick on source; completed meditations are written to recorder.
func NewManager(
	cfg *config.Config,
	source countdown.TickSource,
	recorder meditation.Recorder,
) (*Manager, error) {
	ctx, cancel := context.WithCancel(context.Background())

	patternID, err := pattern.ParsePatternID(cfg.Breathing.Pattern)
	if err != nil {
		cancel()
		return nil, errors.Wrap(err, "invalid breathing pattern")
	}

	m := &Manager{
		config:       cfg,
		stateMgr:     state.New(uuid.New().String()),
		notification: notification.NewManager(),
		recorder:     recorder,

		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	m.breathing, err = breathing.NewController(breathing.Config{
		Pattern:     patternID,
		Repetitions: cfg.Breathing.Repetitions,
	}, source, m.onBreathingEvent)
	if err != nil {
		cancel()
		return nil, errors.Wrap(err, "failed to create breathing controller")
	}

	defaultSeconds := cfg.Meditation.DefaultMinutes * 60
	m.meditation, err = meditation.NewController(meditation.Config{
		TotalSeconds:   defaultSeconds,
		DefaultSeconds: defaultSeconds,
	}, source, recorder, m.onMeditationEvent)
	if err != nil {
		cancel()
		return nil, errors.Wrap(err, "failed to create meditation controller")
	}

	return m, nil
}

// Start configures the controllers for opts and starts the first exercise.
// Canceling ctx stops the session immediately.
func (m *Manager) Start(ctx context.Context, opts Options) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stateMgr.GetPhase() != state.PhaseWaiting {
		return ErrSessionRunning
	}

	opts = m.withDefaults(opts)

	if !opts.Plan.hasBreathing() && !opts.Plan.hasMeditation() {
		return errors.Newf("unknown plan: %d", opts.Plan)
	}
	if opts.Plan.hasBreathing() {
		if err := m.breathing.Configure(opts.Pattern, opts.Repetitions); err != nil {
			return errors.Wrap(err, "failed to configure breathing")
		}
	}
	if opts.Plan.hasMeditation() {
		if err := m.meditation.Configure(opts.MeditationSeconds); err != nil {
			return errors.Wrap(err, "failed to configure meditation")
		}
	}

	m.plan = opts.Plan
	m.stateMgr.SetStartTime(time.Now())

	phase := state.PhaseMeditating
	if opts.Plan.hasBreathing() {
		phase = state.PhaseBreathing
	}
	m.stateMgr.SetPhase(phase)
	zlog.Info().Msgf("phase changed: phase=%s session_id=%s plan=%s", phase, m.stateMgr.GetSessionID(), m.plan)

	go m.watchContext(ctx)

	// Start emits only start events, whose handlers do not take mu.
	if phase == state.PhaseBreathing {
		m.breathing.Start()
	} else {
		m.meditation.Start()
	}

	return nil
}

// Skip skips the running breathing exercise. With PlanBreathingThenMeditation the meditation starts next.
func (m *Manager) Skip() error {
	m.mu.Lock()
	phase := m.stateMgr.GetPhase()
	m.mu.Unlock()

	if phase != state.PhaseBreathing {
		return errors.Wrapf(ErrSessionNotRunning, "no breathing exercise to skip: phase=%s", phase)
	}

	m.breathing.Skip()
	return nil
}

// StopImmediate stops the active exercise and terminates the session.
// A stopped meditation is not recorded. Once the meditation has run out, the session is
// already complete and ends with the record outcome instead.
func (m *Manager) StopImmediate() error {
	m.mu.Lock()

	phase := m.stateMgr.GetPhase()
	if phase == state.PhaseTerminated {
		m.mu.Unlock()
		return nil
	}
	if phase == state.PhaseMeditating && !m.meditation.IsRunning() {
		m.mu.Unlock()
		zlog.Info().Msgf("stop deferred until the session is recorded: session_id=%s", m.stateMgr.GetSessionID())
		return nil
	}

	m.stateMgr.Terminate(state.OutcomeStopped, time.Now())
	m.mu.Unlock()

	switch phase {
	case state.PhaseBreathing:
		m.breathing.Stop()
	case state.PhaseMeditating:
		m.meditation.Stop()
	}

	m.finish(state.OutcomeStopped, m.config.GetMessage(config.MessageStopped))
	return nil
}

// Done returns a channel that is closed when the session is terminated.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Status returns a snapshot of the session.
func (m *Manager) Status() Status {
	m.mu.Lock()
	plan := m.plan
	m.mu.Unlock()

	return Status{
		Info:       m.stateMgr.Info(),
		Plan:       plan,
		Breathing:  m.breathing.Snapshot(),
		Meditation: m.meditation.Snapshot(),
	}
}

// GetNotificationManager returns the notification manager.
func (m *Manager) GetNotificationManager() *notification.Manager {
	return m.notification
}

// Close stops the session if needed and waits for pending health store writes.
func (m *Manager) Close() {
	_ = m.StopImmediate()
	m.meditation.Wait()
	m.notification.Close()
}

func (m *Manager) withDefaults(opts Options) Options {
	if opts.Pattern == "" {
		if id, err := pattern.ParsePatternID(m.config.Breathing.Pattern); err == nil {
			opts.Pattern = id
		}
	}
	if opts.Repetitions == 0 {
		opts.Repetitions = m.config.Breathing.Repetitions
	}
	if opts.MeditationSeconds == 0 {
		opts.MeditationSeconds = m.config.Meditation.DefaultMinutes * 60
	}
	return opts
}

// watchContext stops the session when ctx is canceled.
func (m *Manager) watchContext(ctx context.Context) {
	select {
	case <-ctx.Done():
		zlog.Info().Msgf("session canceled: session_id=%s", m.stateMgr.GetSessionID())
		_ = m.StopImmediate()
	case <-m.ctx.Done():
	}
}

func (m *Manager) onBreathingEvent(e breathing.Event) {
	n := &notification.Notification{
		Source:      notification.SourceBreathing,
		Kind:        e.Type.String(),
		Phase:       e.Phase.String(),
		Instruction: e.Instruction,
		Scale:       e.Phase.Scale(),
		Remaining:   e.Remaining,
		Repetition:  e.Repetition,
		Total:       e.Total,
	}
	switch e.Type {
	case breathing.EventCompleted:
		n.Message = m.config.GetMessage(config.MessageBreathingComplete)
	case breathing.EventSkipped:
		n.Message = m.config.GetMessage(config.MessageBreathingSkipped)
	}
	m.notification.Broadcast(n)

	if !e.IsCompletion() {
		return
	}

	m.mu.Lock()

	if m.stateMgr.GetPhase() != state.PhaseBreathing {
		m.mu.Unlock()
		return
	}

	if m.plan.hasMeditation() {
		m.stateMgr.SetPhase(state.PhaseMeditating)
		zlog.Info().Msgf("phase changed: phase=%s session_id=%s after=%s", state.PhaseMeditating, m.stateMgr.GetSessionID(), e.Type)
		m.meditation.Start()
		m.mu.Unlock()
		return
	}

	// No praise for a skipped exercise.
	outcome := state.OutcomeCompleted
	message := m.config.GetCyclesMessage(e.Repetition)
	if e.Type == breathing.EventSkipped {
		outcome = state.OutcomeSkipped
		message = ""
	}
	terminated := m.stateMgr.Terminate(outcome, time.Now())
	m.mu.Unlock()

	if terminated {
		m.finish(outcome, message)
	}
}

func (m *Manager) onMeditationEvent(e meditation.Event) {
	n := &notification.Notification{
		Source:    notification.SourceMeditation,
		Kind:      e.Type.String(),
		Remaining: e.Remaining,
		Total:     e.Total,
	}
	switch e.Type {
	case meditation.EventCompleted:
		n.Message = m.config.GetMessage(config.MessageMeditationComplete)
	case meditation.EventRecorded:
		n.Message = m.config.GetMessage(config.MessageRecorded)
	case meditation.EventRecordFailed:
		n.Message = m.recordFailureMessage(e.Err)
		if e.Err != nil {
			n.Error = e.Err.Error()
		}
	}
	m.notification.Broadcast(n)

	// The session ends once the outcome of the health store write is known.
	if e.Type != meditation.EventRecorded && e.Type != meditation.EventRecordFailed {
		return
	}

	m.mu.Lock()
	if m.stateMgr.GetPhase() != state.PhaseMeditating {
		m.mu.Unlock()
		return
	}
	terminated := m.stateMgr.Terminate(state.OutcomeCompleted, time.Now())
	m.mu.Unlock()

	if terminated {
		m.finish(state.OutcomeCompleted, m.config.GetMessage(config.MessageGreatJob))
	}
}

func (m *Manager) recordFailureMessage(err error) string {
	if errors.Is(err, meditation.ErrRecorderUnavailable) {
		return m.config.GetMessage(config.MessageHealthUnavailable)
	}
	if a, ok := m.recorder.(Availability); ok && !a.IsAvailable() {
		return m.config.GetMessage(config.MessageHealthUnavailable)
	}
	return m.config.GetMessage(config.MessageRecordFailed)
}

// finish broadcasts the end of the session and releases Done.
// Must be called once, after a successful state transition to PhaseTerminated.
// A controller's stopped event can still arrive after "ended" when a tick was mid-delivery.
func (m *Manager) finish(outcome state.Outcome, message string) {
	sessionID := m.stateMgr.GetSessionID()
	zlog.Info().Msgf("phase changed: phase=%s session_id=%s outcome=%s subscribers=%d",
		state.PhaseTerminated, sessionID, outcome, m.notification.SubscriberCount())

	m.notification.Broadcast(&notification.Notification{
		Source:  notification.SourceSession,
		Kind:    "ended",
		Message: message,
	})

	m.cancel()
	close(m.done)
}
