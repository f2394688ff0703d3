package healthstore

import (
	"context"
	"time"

	"github.com/osa030/calmbox/internal/domain/mindful"
)

// Unavailable is the store used when health records are disabled.
type Unavailable struct{}

var _ Store = Unavailable{}

func (Unavailable) IsAvailable() bool { return false }

func (Unavailable) RecordSession(context.Context, time.Duration, time.Time) error {
	return ErrUnavailable
}

func (Unavailable) Sessions(context.Context) ([]mindful.Session, error) {
	return nil, ErrUnavailable
}

func (Unavailable) TodayTotal(context.Context, time.Time) (time.Duration, error) {
	return 0, ErrUnavailable
}

func (Unavailable) Close() error { return nil }
