package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/haldolabs/ingress-aprs/internal/pkg/domain"
	"github.com/jmoiron/sqlx"

	_ "modernc.org/sqlite"
)

type Config struct {
	Path string
}

// Storage appends station observations to a local SQLite database. It is
// the sole writer; observations are never updated or deleted once written.
type Storage struct {
	db *sqlx.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS station_observations (
	callsign TEXT NOT NULL,
	class TEXT,
	type TEXT,
	symbol TEXT,
	srccall TEXT,
	dstcall TEXT,
	path TEXT,
	comment TEXT,
	position_time INTEGER NOT NULL,
	report_time INTEGER NOT NULL,
	lat REAL,
	lng REAL,
	altitude REAL,
	course REAL,
	speed REAL,
	location TEXT,
	last_beaconed_heading REAL,
	last_beaconed_time INTEGER
);
CREATE UNIQUE INDEX IF NOT EXISTS station_observations_callsign_report_time
	ON station_observations (callsign, report_time);
`

func New(ctx context.Context, cfg Config) (*Storage, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("empty database path")
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to ensure database directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// a single serialized connection; this process is the only writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	for _, pragma := range []string{"pragma journal_mode=WAL", "pragma busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %s: %w", pragma, err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	logging.GetFromContext(ctx).Info("database opened", "path", cfg.Path)

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

const insertObservation = `
INSERT INTO station_observations (
	callsign, class, type, symbol, srccall, dstcall, path, comment,
	position_time, report_time, lat, lng, altitude, course, speed,
	location, last_beaconed_heading, last_beaconed_time
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (callsign, report_time) DO NOTHING`

// Append writes a batch of observations in a single transaction and
// returns the number of rows that were actually inserted. An observation
// that matches an already stored (callsign, report time) pair has been
// seen before and is skipped.
func (s *Storage) Append(ctx context.Context, observations []domain.StationObservation) (int, error) {
	if len(observations) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	inserted := 0

	for _, obs := range observations {
		var location any
		if wkt, ok := obs.WKT(); ok {
			location = wkt
		}

		result, err := tx.ExecContext(ctx, insertObservation,
			obs.Callsign, obs.Class, obs.Type, obs.Symbol,
			obs.SrcCall, obs.DstCall, obs.Path, obs.Comment,
			obs.PositionAt, obs.ReportedAt,
			obs.Lat, obs.Lng, obs.Altitude, obs.Course, obs.Speed,
			location, obs.Course, obs.ReportedAt,
		)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("failed to insert observation for %s: %w", obs.Callsign, err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("failed to count inserted rows: %w", err)
		}

		inserted += int(rows)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return inserted, nil
}

// Observations returns the stored history for a station, oldest first.
func (s *Storage) Observations(ctx context.Context, callsign string) ([]domain.StationObservation, error) {
	observations := []domain.StationObservation{}

	err := s.db.SelectContext(ctx, &observations,
		`SELECT callsign, class, type, symbol, srccall, dstcall, path, comment,
			position_time, report_time, lat, lng, altitude, course, speed
		 FROM station_observations WHERE callsign = ? ORDER BY report_time`,
		callsign,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to select observations for %s: %w", callsign, err)
	}

	return observations, nil
}
