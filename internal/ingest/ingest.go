// Package ingest implements the discovery-and-ingestion engine: a periodic
// scheduler polls a growing frontier of stops for departures, deduplicates
// the trips it sees, and ingests each trip's detail into the store.
package ingest

import (
	"context"
	"time"

	"github.com/ledahosn/holding-graz-statistik/internal/hafas"
	"github.com/ledahosn/holding-graz-statistik/internal/transit"
)

// Upstream is the journey-planning provider the engine polls.
type Upstream interface {
	Departures(ctx context.Context, stopID string, window time.Duration) ([]hafas.Departure, error)
	Trip(ctx context.Context, tripID string) (*hafas.Trip, error)
}

// Store is the write path into the persistent store. All operations are
// idempotent upserts; the engine never treats local state as authoritative.
type Store interface {
	UpsertLine(ctx context.Context, line transit.Line) error
	UpsertTrip(ctx context.Context, trip transit.Trip) error
	UpsertStop(ctx context.Context, stop transit.Stop) error
	InsertVehiclePosition(ctx context.Context, pos transit.VehiclePosition) error
	GetStopEvent(ctx context.Context, tripID, stopID string, eventType transit.EventType) (*transit.StopEvent, error)
	PutStopEvent(ctx context.Context, ev transit.StopEvent) error
}

// Publisher pushes freshly observed vehicle positions to the live feed.
type Publisher interface {
	PublishPosition(lineID, tripID string, pos transit.VehiclePosition) error
}
