// Package healthstore provides the store for completed mindful sessions.
package healthstore

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/calmbox/internal/domain/mindful"
)

// ErrUnavailable is returned by every operation of a store that lacks the capability.
var ErrUnavailable = errors.New("health records are not available")

// Store records mindful sessions.
type Store interface {
	// IsAvailable reports whether sessions can be recorded.
	IsAvailable() bool

	// RecordSession saves a session spanning startedAt to startedAt+duration.
	RecordSession(ctx context.Context, duration time.Duration, startedAt time.Time) error

	// Sessions returns every recorded session, newest first.
	Sessions(ctx context.Context) ([]mindful.Session, error)

	// TodayTotal sums the sessions that started on the local day of now.
	TodayTotal(ctx context.Context, now time.Time) (time.Duration, error)

	Close() error
}
