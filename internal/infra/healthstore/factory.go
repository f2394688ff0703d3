package healthstore

import (
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/calmbox/internal/infra/config"
)

// NewFromConfig creates the store selected by the health configuration.
func NewFromConfig(cfg config.HealthConfig) (Store, error) {
	zlog.Debug().Msgf("creating health store: type=%s settings=%+v", cfg.Type, cfg.Settings)

	switch cfg.Type {
	case "sqlite":
		store, err := NewSQLiteStore(cfg.Settings)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create sqlite health store")
		}
		zlog.Info().Msgf("health store: sqlite path=%s", store.Path())
		return store, nil

	case "none":
		return Unavailable{}, nil

	default:
		return nil, errors.Newf("unsupported health store type: %s", cfg.Type)
	}
}
