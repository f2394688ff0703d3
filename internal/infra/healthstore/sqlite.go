package healthstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/calmbox/internal/domain/mindful"

	_ "modernc.org/sqlite"
)

// SQLiteConfig holds the settings of the sqlite store.
type SQLiteConfig struct {
	Path          string `yaml:"path" mapstructure:"path"`
	BusyTimeoutMs int    `yaml:"busy_timeout_ms" mapstructure:"busy_timeout_ms" default:"5000" validate:"gte=0,lte=60000"`
}

// SQLiteStore keeps mindful sessions in a local sqlite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a store from the raw settings of the health configuration.
// An empty path uses calmbox/health.db under the user configuration directory.
func NewSQLiteStore(settings map[string]any) (*SQLiteStore, error) {
	var cfg SQLiteConfig
	if err := mapstructure.Decode(settings, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	zlog.Debug().Msgf("sqlite health store config: %+v", cfg)
	if err := validator.New().Struct(cfg); err != nil {
		zlog.Error().Msgf("sqlite health store validation failed: %v", err)
		return nil, errors.Wrap(err, "validation failed")
	}
	return OpenSQLite(cfg)
}

// OpenSQLite opens (creating if needed) the database at cfg.Path.
func OpenSQLite(cfg SQLiteConfig) (*SQLiteStore, error) {
	path := cfg.Path
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, errors.Wrap(err, "failed to resolve user config dir")
		}
		path = filepath.Join(dir, "calmbox", "health.db")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create database dir")
	}

	db, err := sql.Open("sqlite", fmt.Sprintf("%s?_pragma=busy_timeout(%d)", path, cfg.BusyTimeoutMs))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open sqlite")
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, path: path}
	if err := s.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	zlog.Debug().Msgf("healthstore: opened: path=%s", path)
	return s, nil
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS mindful_sessions (
  id TEXT PRIMARY KEY,
  started_at INTEGER NOT NULL,
  ended_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_mindful_sessions_started_at ON mindful_sessions(started_at);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return errors.Wrap(err, "failed to create mindful_sessions table")
	}
	return nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) IsAvailable() bool {
	return true
}

func (s *SQLiteStore) RecordSession(ctx context.Context, duration time.Duration, startedAt time.Time) error {
	if duration <= 0 {
		return errors.Newf("invalid session duration: %s", duration)
	}

	session := mindful.NewSession(startedAt, duration)

	const stmt = `INSERT INTO mindful_sessions (id, started_at, ended_at) VALUES (?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, stmt,
		session.ID,
		session.StartedAt.UnixMilli(),
		session.EndedAt.UnixMilli(),
	); err != nil {
		return errors.Wrap(err, "failed to insert mindful session")
	}

	zlog.Debug().Msgf("healthstore: recorded: id=%s duration=%s", session.ID, duration)
	return nil
}

func (s *SQLiteStore) Sessions(ctx context.Context) ([]mindful.Session, error) {
	const query = `
SELECT id, started_at, ended_at
FROM mindful_sessions
ORDER BY started_at DESC, id
`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query mindful sessions")
	}
	defer rows.Close()

	var sessions []mindful.Session
	for rows.Next() {
		var (
			id               string
			startedAt, ended int64
		)
		if err := rows.Scan(&id, &startedAt, &ended); err != nil {
			return nil, errors.Wrap(err, "failed to scan mindful session")
		}
		sessions = append(sessions, mindful.Session{
			ID:        id,
			StartedAt: time.UnixMilli(startedAt),
			EndedAt:   time.UnixMilli(ended),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read mindful sessions")
	}
	return sessions, nil
}

func (s *SQLiteStore) TodayTotal(ctx context.Context, now time.Time) (time.Duration, error) {
	from, to := mindful.DayBounds(now)

	const query = `
SELECT COALESCE(SUM(ended_at - started_at), 0)
FROM mindful_sessions
WHERE started_at >= ? AND started_at < ?
`
	var totalMs int64
	if err := s.db.QueryRowContext(ctx, query, from.UnixMilli(), to.UnixMilli()).Scan(&totalMs); err != nil {
		return 0, errors.Wrap(err, "failed to sum mindful sessions")
	}
	return time.Duration(totalMs) * time.Millisecond, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
