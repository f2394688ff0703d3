package countdown

import "sync"

// Dispatcher delivers events to a handler in the order they were queued,
// without holding the owner's lock while the handler runs.
// A handler may call back into its owner; events it causes are delivered after it returns.
type Dispatcher[T any] struct {
	handler  func(T)
	pending  []T
	draining bool
}

// NewDispatcher creates a dispatcher for handler. A nil handler discards events.
func NewDispatcher[T any](handler func(T)) *Dispatcher[T] {
	return &Dispatcher[T]{handler: handler}
}

// Queue appends events. The owner's lock must be held.
func (d *Dispatcher[T]) Queue(events ...T) {
	d.pending = append(d.pending, events...)
}

// Flush delivers queued events and releases mu, which must be held by the caller.
// If another goroutine is already delivering, it picks up the queued events instead,
// so Flush may return before they reach the handler. Callers that publish their own
// follow-up must not assume the owner's events were already seen.
func (d *Dispatcher[T]) Flush(mu sync.Locker) {
	if d.draining {
		mu.Unlock()
		return
	}

	d.draining = true
	for len(d.pending) > 0 {
		event := d.pending[0]
		d.pending = d.pending[1:]

		mu.Unlock()
		if d.handler != nil {
			d.handler(event)
		}
		mu.Lock()
	}
	d.draining = false
	mu.Unlock()
}
