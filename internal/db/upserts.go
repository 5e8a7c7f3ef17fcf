package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ledahosn/holding-graz-statistik/internal/transit"
)

func (s *Store) UpsertLine(ctx context.Context, line transit.Line) error {
	q := `INSERT INTO lines (line_id, line_name, product, line_number)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (line_id) DO UPDATE SET
			line_name = EXCLUDED.line_name,
			product = EXCLUDED.product,
			line_number = EXCLUDED.line_number`
	if _, err := s.db.ExecContext(ctx, q, line.ID, line.Name, line.Product, nullString(line.LineNumber)); err != nil {
		return fmt.Errorf("upsert line %s: %w", line.ID, err)
	}
	return nil
}

func (s *Store) UpsertTrip(ctx context.Context, trip transit.Trip) error {
	q := `INSERT INTO trips (trip_id, line_id, direction, service_date, departure_time)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (trip_id) DO UPDATE SET
			line_id = EXCLUDED.line_id,
			direction = EXCLUDED.direction,
			service_date = EXCLUDED.service_date,
			departure_time = EXCLUDED.departure_time`
	if _, err := s.db.ExecContext(ctx, q, trip.ID, trip.LineID, nullString(trip.Direction), trip.ServiceDate, trip.DepartureTime); err != nil {
		return fmt.Errorf("upsert trip %s: %w", trip.ID, err)
	}
	return nil
}

// UpsertStop inserts a stop if unseen; existing rows win (stops are
// effectively immutable once observed).
func (s *Store) UpsertStop(ctx context.Context, stop transit.Stop) error {
	q := `INSERT INTO stops (stop_id, stop_name, location)
		VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326))
		ON CONFLICT (stop_id) DO NOTHING`
	if _, err := s.db.ExecContext(ctx, q, stop.ID, stop.Name, stop.Lon, stop.Lat); err != nil {
		return fmt.Errorf("upsert stop %s: %w", stop.ID, err)
	}
	return nil
}

// InsertVehiclePosition appends a point-in-time position fact. An exact
// (trip_id, timestamp) duplicate is silently suppressed.
func (s *Store) InsertVehiclePosition(ctx context.Context, pos transit.VehiclePosition) error {
	q := `INSERT INTO vehicle_positions (trip_id, "timestamp", location, delay_seconds)
		VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326), $5)
		ON CONFLICT (trip_id, "timestamp") DO NOTHING`
	if _, err := s.db.ExecContext(ctx, q, pos.TripID, pos.Timestamp, pos.Lon, pos.Lat, pos.DelaySeconds); err != nil {
		return fmt.Errorf("insert vehicle position for trip %s: %w", pos.TripID, err)
	}
	return nil
}

// GetStopEvent returns the persisted event for the given key, or nil if none
// exists yet.
func (s *Store) GetStopEvent(ctx context.Context, tripID, stopID string, eventType transit.EventType) (*transit.StopEvent, error) {
	q := `SELECT stop_sequence, "timestamp", planned_time, actual_time,
			arrival_delay_seconds, departure_delay_seconds
		FROM stop_events
		WHERE trip_id = $1 AND stop_id = $2 AND event_type = $3`
	ev := transit.StopEvent{TripID: tripID, StopID: stopID, EventType: eventType}
	var planned, actual sql.NullTime
	var arrDelay, depDelay sql.NullInt64
	err := s.db.QueryRowContext(ctx, q, tripID, stopID, string(eventType)).
		Scan(&ev.StopSequence, &ev.Timestamp, &planned, &actual, &arrDelay, &depDelay)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get stop event (%s, %s, %s): %w", tripID, stopID, eventType, err)
	}
	if planned.Valid {
		ev.PlannedTime = &planned.Time
	}
	if actual.Valid {
		ev.ActualTime = &actual.Time
	}
	if arrDelay.Valid {
		d := int(arrDelay.Int64)
		ev.ArrivalDelaySeconds = &d
	}
	if depDelay.Valid {
		d := int(depDelay.Int64)
		ev.DepartureDelaySeconds = &d
	}
	return &ev, nil
}

// PutStopEvent writes an event observation, replacing all mutable fields on
// conflict. The decision whether a write is allowed at all is made by the
// caller; this is the unconditional half of the upsert.
func (s *Store) PutStopEvent(ctx context.Context, ev transit.StopEvent) error {
	q := `INSERT INTO stop_events (trip_id, stop_id, event_type, stop_sequence,
			"timestamp", planned_time, actual_time, arrival_delay_seconds, departure_delay_seconds)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (trip_id, stop_id, event_type) DO UPDATE SET
			stop_sequence = EXCLUDED.stop_sequence,
			"timestamp" = EXCLUDED."timestamp",
			planned_time = EXCLUDED.planned_time,
			actual_time = EXCLUDED.actual_time,
			arrival_delay_seconds = EXCLUDED.arrival_delay_seconds,
			departure_delay_seconds = EXCLUDED.departure_delay_seconds`
	_, err := s.db.ExecContext(ctx, q, ev.TripID, ev.StopID, string(ev.EventType), ev.StopSequence,
		ev.Timestamp, ev.PlannedTime, ev.ActualTime, ev.ArrivalDelaySeconds, ev.DepartureDelaySeconds)
	if err != nil {
		return fmt.Errorf("put stop event (%s, %s, %s): %w", ev.TripID, ev.StopID, ev.EventType, err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
