package meditation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/calmbox/internal/app/countdown"
)

type recordCall struct {
	duration  time.Duration
	startedAt time.Time
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recordCall
	err   error
}

func (r *fakeRecorder) RecordSession(ctx context.Context, duration time.Duration, startedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recordCall{duration: duration, startedAt: startedAt})
	return r.err
}

func (r *fakeRecorder) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) handle(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) ofType(t EventType) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var result []Event
	for _, e := range l.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

func (l *eventLog) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

var fixedStart = time.Date(2026, 3, 14, 7, 30, 0, 0, time.UTC)

func newTestController(t *testing.T, seconds int, recorder Recorder) (*Controller, *countdown.Manual, *eventLog) {
	t.Helper()
	source := countdown.NewManual()
	log := &eventLog{}
	c, err := NewController(Config{
		TotalSeconds: seconds,
		Now:          func() time.Time { return fixedStart },
	}, source, recorder, log.handle)
	require.NoError(t, err)
	return c, source, log
}

func TestController_NaturalCompletionRecordsOnce(t *testing.T) {
	recorder := &fakeRecorder{}
	c, source, log := newTestController(t, 60, recorder)

	c.Start()
	source.FireN(59)
	assert.Empty(t, log.ofType(EventCompleted))
	assert.Equal(t, 1, c.Snapshot().Remaining)

	source.Fire()
	c.Wait()

	require.Equal(t, 1, recorder.callCount())
	assert.Equal(t, 60*time.Second, recorder.calls[0].duration)
	assert.Equal(t, fixedStart, recorder.calls[0].startedAt)

	completed := log.ofType(EventCompleted)
	require.Len(t, completed, 1)
	assert.Equal(t, 60*time.Second, completed[0].Elapsed)
	assert.Equal(t, fixedStart, completed[0].StartedAt)
	assert.Len(t, log.ofType(EventRecorded), 1)
	assert.Empty(t, log.ofType(EventRecordFailed))

	// stray ticks after completion do nothing
	source.FireN(10)
	source.FireAll()
	c.Wait()
	assert.Equal(t, 1, recorder.callCount())
	assert.Len(t, log.ofType(EventCompleted), 1)
}

func TestController_ResetsToDefaultAfterCompletion(t *testing.T) {
	c, source, _ := newTestController(t, 60, &fakeRecorder{})

	c.Start()
	source.FireN(60)
	c.Wait()

	snap := c.Snapshot()
	assert.False(t, snap.Running)
	assert.Equal(t, DefaultSeconds, snap.Total)
	assert.Equal(t, DefaultSeconds, snap.Remaining)
	assert.True(t, snap.StartedAt.IsZero())
	assert.Equal(t, 0, source.Live())
}

func TestController_StopNeverRecords(t *testing.T) {
	recorder := &fakeRecorder{}
	c, source, log := newTestController(t, 60, recorder)

	c.Start()
	source.FireN(30)
	c.Stop()

	for i := 0; i < 100; i++ {
		source.FireAll()
	}
	c.Wait()

	assert.Zero(t, recorder.callCount())
	assert.Empty(t, log.ofType(EventCompleted))
	assert.Len(t, log.ofType(EventStopped), 1)

	snap := c.Snapshot()
	assert.False(t, snap.Running)
	assert.Equal(t, 30, snap.Remaining)
	assert.True(t, snap.StartedAt.IsZero())
}

func TestController_RecordFailureReportedOnce(t *testing.T) {
	recorder := &fakeRecorder{err: errors.New("authorization denied")}
	c, source, log := newTestController(t, 60, recorder)

	c.Start()
	source.FireN(60)
	c.Wait()

	assert.Equal(t, 1, recorder.callCount(), "no retry")
	failed := log.ofType(EventRecordFailed)
	require.Len(t, failed, 1)
	assert.ErrorContains(t, failed[0].Err, "authorization denied")
	assert.Empty(t, log.ofType(EventRecorded))
	assert.Len(t, log.ofType(EventCompleted), 1, "completion is not affected by the failure")
}

func TestController_NilRecorder(t *testing.T) {
	c, source, log := newTestController(t, 60, nil)

	c.Start()
	source.FireN(60)
	c.Wait()

	failed := log.ofType(EventRecordFailed)
	require.Len(t, failed, 1)
	assert.True(t, errors.Is(failed[0].Err, ErrRecorderUnavailable))
}

func TestController_CompletionPrecedesRecordResult(t *testing.T) {
	c, source, log := newTestController(t, 60, &fakeRecorder{})

	c.Start()
	source.FireN(60)
	c.Wait()

	log.mu.Lock()
	defer log.mu.Unlock()
	n := len(log.events)
	require.GreaterOrEqual(t, n, 2)
	assert.Equal(t, EventCompleted, log.events[n-2].Type)
	assert.Equal(t, EventRecorded, log.events[n-1].Type)
}

func TestController_Configure(t *testing.T) {
	tests := []struct {
		name    string
		seconds int
		wantErr bool
	}{
		{name: "one minute", seconds: 60},
		{name: "one hour", seconds: 3600},
		{name: "twenty minutes", seconds: 1200},
		{name: "too short", seconds: 59, wantErr: true},
		{name: "too long", seconds: 3601, wantErr: true},
		{name: "zero", seconds: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _ := newTestController(t, 600, nil)

			err := c.Configure(tt.seconds)

			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidDuration))
				assert.Equal(t, 600, c.Snapshot().Total)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.seconds, c.Snapshot().Total)
			assert.Equal(t, tt.seconds, c.Snapshot().Remaining)
		})
	}
}

func TestController_ConfigureWhileRunning(t *testing.T) {
	c, _, _ := newTestController(t, 600, nil)
	c.Start()

	err := c.Configure(300)

	assert.True(t, errors.Is(err, ErrSessionRunning))
	assert.Equal(t, 600, c.Snapshot().Total)
}

func TestController_DoubleStart(t *testing.T) {
	c, source, log := newTestController(t, 60, nil)

	c.Start()
	c.Start()
	assert.Equal(t, 1, source.Live())
	assert.Len(t, log.ofType(EventStarted), 1)

	source.Fire()
	assert.Equal(t, 59, c.Snapshot().Remaining)
}

func TestController_StopIsIdempotent(t *testing.T) {
	c, _, log := newTestController(t, 60, nil)

	c.Stop()
	assert.Zero(t, log.count())

	c.Start()
	c.Stop()
	c.Stop()
	assert.Len(t, log.ofType(EventStopped), 1)
}

func TestController_StartRecordsTimestamp(t *testing.T) {
	c, _, log := newTestController(t, 60, nil)

	assert.True(t, c.Snapshot().StartedAt.IsZero())

	c.Start()

	assert.Equal(t, fixedStart, c.Snapshot().StartedAt)
	started := log.ofType(EventStarted)
	require.Len(t, started, 1)
	assert.Equal(t, 60, started[0].Remaining)
}

func TestNewController_Defaults(t *testing.T) {
	c, err := NewController(Config{}, countdown.NewManual(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultSeconds, c.Snapshot().Total)

	_, err = NewController(Config{TotalSeconds: 30}, countdown.NewManual(), nil, nil)
	assert.True(t, errors.Is(err, ErrInvalidDuration))

	_, err = NewController(Config{DefaultSeconds: 7200}, countdown.NewManual(), nil, nil)
	assert.True(t, errors.Is(err, ErrInvalidDuration))
}

func TestEventType_String(t *testing.T) {
	assert.Equal(t, "record_failed", EventRecordFailed.String())
	assert.Equal(t, "unknown", EventType(42).String())
}
