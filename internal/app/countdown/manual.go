package countdown

import (
	"sync"
	"time"
)

type manualSubscription struct {
	fn       func()
	canceled bool
}

// Manual is a TickSource driven by explicit Fire calls.
// Tests use it to step controllers deterministically.
type Manual struct {
	mu   sync.Mutex
	subs []*manualSubscription
}

// NewManual creates a manual tick source.
func NewManual() *Manual {
	return &Manual{}
}

// Every registers fn. The interval is ignored; each Fire counts as one interval.
func (m *Manual) Every(_ time.Duration, fn func()) func() {
	sub := &manualSubscription{fn: fn}

	m.mu.Lock()
	m.subs = append(m.subs, sub)
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		sub.canceled = true
	}
}

// Fire delivers one tick to every live subscription.
// Subscriptions created while firing receive their first tick on the next Fire.
func (m *Manual) Fire() {
	for _, sub := range m.snapshot(false) {
		sub.fn()
	}
}

// FireN calls Fire n times.
func (m *Manual) FireN(n int) {
	for i := 0; i < n; i++ {
		m.Fire()
	}
}

// FireAll delivers one tick to every subscription ever registered, canceled ones included.
// It reproduces ticks that race with cancellation.
func (m *Manual) FireAll() {
	for _, sub := range m.snapshot(true) {
		sub.fn()
	}
}

// Live returns the number of subscriptions that have not been canceled.
func (m *Manual) Live() int {
	return len(m.snapshot(false))
}

func (m *Manual) snapshot(includeCanceled bool) []*manualSubscription {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]*manualSubscription, 0, len(m.subs))
	for _, sub := range m.subs {
		if includeCanceled || !sub.canceled {
			result = append(result, sub)
		}
	}
	return result
}
