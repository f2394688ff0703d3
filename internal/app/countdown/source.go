// Package countdown provides the one-second countdown engine shared by the session controllers.
package countdown

import (
	"context"
	"time"
)

// TickSource schedules fn once per interval until the returned cancel func is called.
type TickSource interface {
	Every(interval time.Duration, fn func()) (cancel func())
}

// WallClock is a TickSource that fires once per elapsed wall-clock interval.
type WallClock struct {
	// Resolution is how often the wall clock is sampled. Defaults to 100ms.
	Resolution time.Duration
}

// Every starts a goroutine that calls fn each time another interval of wall-clock time has passed.
// Missed intervals (e.g. after the machine slept) are delivered back to back.
func (w WallClock) Every(interval time.Duration, fn func()) func() {
	ctx, cancel := context.WithCancel(context.Background())

	resolution := w.Resolution
	if resolution <= 0 {
		resolution = 100 * time.Millisecond
	}
	if resolution > interval {
		resolution = interval
	}

	go func() {
		next := toWallTime(time.Now()).Add(interval)
		ticker := time.NewTicker(resolution)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				now := toWallTime(time.Now())
				for !now.Before(next) {
					if ctx.Err() != nil {
						return
					}
					fn()
					next = next.Add(interval)
				}
			}
		}
	}()

	return cancel
}

// toWallTime returns the time with monotonic clock stripped.
// This ensures that time differences are calculated using wall clock time.
func toWallTime(t time.Time) time.Time {
	return time.Unix(t.Unix(), int64(t.Nanosecond()))
}
