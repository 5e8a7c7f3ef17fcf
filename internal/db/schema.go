package db

import (
	"context"
	"fmt"
)

// EnsureSchema creates the tables the engine writes to. Statements are
// idempotent so the service can start against a fresh or existing database.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS postgis`,
		`CREATE TABLE IF NOT EXISTS lines (
			line_id     TEXT PRIMARY KEY,
			line_name   TEXT NOT NULL,
			product     TEXT NOT NULL,
			line_number TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS trips (
			trip_id        TEXT PRIMARY KEY,
			line_id        TEXT NOT NULL,
			direction      TEXT,
			service_date   DATE NOT NULL,
			departure_time TIME
		)`,
		`CREATE TABLE IF NOT EXISTS stops (
			stop_id   TEXT PRIMARY KEY,
			stop_name TEXT NOT NULL,
			location  geometry(Point, 4326) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS vehicle_positions (
			trip_id       TEXT NOT NULL,
			"timestamp"   TIMESTAMPTZ NOT NULL,
			location      geometry(Point, 4326) NOT NULL,
			delay_seconds INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (trip_id, "timestamp")
		)`,
		`CREATE TABLE IF NOT EXISTS stop_events (
			trip_id                 TEXT NOT NULL,
			stop_id                 TEXT NOT NULL,
			event_type              TEXT NOT NULL,
			stop_sequence           INTEGER NOT NULL,
			"timestamp"             TIMESTAMPTZ NOT NULL,
			planned_time            TIMESTAMPTZ,
			actual_time             TIMESTAMPTZ,
			arrival_delay_seconds   INTEGER,
			departure_delay_seconds INTEGER,
			PRIMARY KEY (trip_id, stop_id, event_type)
		)`,
		`CREATE INDEX IF NOT EXISTS vehicle_positions_ts_idx
			ON vehicle_positions (trip_id, "timestamp" DESC)`,
		`CREATE INDEX IF NOT EXISTS stop_events_stop_idx
			ON stop_events (stop_id, planned_time)`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
