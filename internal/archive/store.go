// Package archive persists committed bucket values outside the meter core.
//
// It is the storage collaborator the core deliberately knows nothing about:
// the daemon feeds it tick outcomes and snapshots, and it writes readings to
// an embedded DuckDB database plus month-end parquet exports. Losing the
// archive never affects counting.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/qpulse/pulsemeter/internal/clock"
	"github.com/qpulse/pulsemeter/internal/errors"
	"github.com/qpulse/pulsemeter/internal/logging"
	"github.com/qpulse/pulsemeter/internal/meter"
)

var log = logging.Component("archive")

// Level names a bucket granularity in the readings table.
type Level string

const (
	LevelMinute Level = "minute"
	LevelHour   Level = "hour"
	LevelDay    Level = "day"
	LevelMonth  Level = "month"
	LevelYear   Level = "year"
)

const schema = `
CREATE TABLE IF NOT EXISTS readings (
	channel      INTEGER   NOT NULL,
	level        VARCHAR   NOT NULL,
	slot         INTEGER   NOT NULL,
	value        BIGINT    NOT NULL,
	committed_at TIMESTAMP NOT NULL
)`

// Store appends committed readings to a DuckDB database.
//
// Store is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the readings database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// reading is one committed bucket value.
type reading struct {
	channel int
	level   Level
	slot    int
	value   int64
}

// RecordTick persists the bucket values that the given tick committed. The
// levels that committed are derived from the calendar position exactly the
// way the rollover engine gates its cascade. Suppressed ticks are a no-op.
func (s *Store) RecordTick(ctx context.Context, cal clock.Calendar, status meter.Status, snaps []meter.Snapshot) error {
	if status == meter.StatusSuppressed {
		return nil
	}

	var rows []reading
	for _, snap := range snaps {
		r := snap.Record

		rows = append(rows, reading{snap.Channel, LevelMinute, cal.Min, int64(r.Minutes[cal.Min])})
		if cal.Min != 0 {
			continue
		}
		rows = append(rows, reading{snap.Channel, LevelHour, cal.Hour, int64(r.Hours[cal.Hour])})
		if cal.Hour != 0 {
			continue
		}
		rows = append(rows, reading{snap.Channel, LevelDay, cal.Day - 1, int64(r.Days[cal.Day-1])})
		if cal.Day != 1 {
			continue
		}
		rows = append(rows, reading{snap.Channel, LevelMonth, cal.Month, int64(r.Months[cal.Month])})
		if cal.Month != 0 {
			continue
		}
		rows = append(rows, reading{snap.Channel, LevelYear, 0, int64(r.Year)})
	}

	committedAt := time.Date(cal.Year, time.Month(cal.Month+1), cal.Day, cal.Hour, cal.Min, 0, 0, time.UTC)
	if err := s.insert(ctx, rows, committedAt); err != nil {
		// Tagged retriable: a transient database failure loses this tick's
		// rows but the next tick writes fresh ones.
		return errors.Wrapf(errors.ErrDatabase, "record tick: %v", err)
	}

	log.Debug("tick archived", "at", cal.String(), "rows", len(rows))
	return nil
}

func (s *Store) insert(ctx context.Context, rows []reading, committedAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO readings (channel, level, slot, value, committed_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.channel, string(r.level), r.slot, r.value, committedAt); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert reading: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Reading is a row returned by queries.
type Reading struct {
	Channel     int
	Level       Level
	Slot        int
	Value       int64
	CommittedAt time.Time
}

// Query returns readings for one channel and level inside [from, to).
func (s *Store) Query(ctx context.Context, channel int, level Level, from, to time.Time) ([]Reading, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT channel, level, slot, value, committed_at
		   FROM readings
		  WHERE channel = ? AND level = ? AND committed_at >= ? AND committed_at < ?
		  ORDER BY committed_at, slot`,
		channel, string(level), from, to)
	if err != nil {
		return nil, errors.Wrap(err, "query readings")
	}
	defer rows.Close()

	var out []Reading
	for rows.Next() {
		var r Reading
		var level string
		if err := rows.Scan(&r.Channel, &level, &r.Slot, &r.Value, &r.CommittedAt); err != nil {
			return nil, errors.Wrap(err, "scan reading")
		}
		r.Level = Level(level)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Health checks database connectivity.
func (s *Store) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
