package ingest

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ledahosn/holding-graz-statistik/internal/hafas"
	"github.com/ledahosn/holding-graz-statistik/internal/metrics"
	"github.com/ledahosn/holding-graz-statistik/internal/transit"
)

// Ingestor turns one trip id into persisted facts: line, trip, vehicle
// position and per-stopover events. Newly seen in-region stops are fed back
// into the frontier.
type Ingestor struct {
	upstream   Upstream
	store      Store
	events     *EventWriter
	classifier *Classifier
	frontier   *Frontier
	pub        Publisher
	metrics    *metrics.Collector
	now        func() time.Time
}

func NewIngestor(upstream Upstream, store Store, events *EventWriter, classifier *Classifier, frontier *Frontier, pub Publisher, m *metrics.Collector) *Ingestor {
	return &Ingestor{
		upstream:   upstream,
		store:      store,
		events:     events,
		classifier: classifier,
		frontier:   frontier,
		pub:        pub,
		metrics:    m,
		now:        time.Now,
	}
}

// IngestTrip fetches the trip detail and persists everything it carries.
// Store failures drop the single affected write and never abort the rest of
// the trip. The only error returned is an upstream fetch failure.
func (ing *Ingestor) IngestTrip(ctx context.Context, tripID string) error {
	trip, err := ing.upstream.Trip(ctx, tripID)
	if err != nil {
		return fmt.Errorf("fetch trip: %w", err)
	}

	if trip.Line == nil || !ing.classifier.IsMonitoredLine(trip.Line) {
		if ing.metrics != nil {
			ing.metrics.TripsFiltered.Inc()
		}
		return nil
	}

	now := ing.now().UTC()

	line := transit.Line{
		ID:         trip.Line.ID,
		Name:       trip.Line.Name,
		Product:    trip.Line.Product,
		LineNumber: LineNumber(trip.Line.Name),
	}
	if err := ing.store.UpsertLine(ctx, line); err != nil {
		ing.storeError(err)
	}

	ing.upsertTrip(ctx, trip, now)
	ing.recordPosition(ctx, trip, line.ID, now)
	ing.processStopovers(ctx, trip)

	if ing.metrics != nil {
		ing.metrics.TripsIngested.Inc()
	}
	return nil
}

func (ing *Ingestor) upsertTrip(ctx context.Context, trip *hafas.Trip, now time.Time) {
	serviceInstant := now
	if trip.PlannedDeparture != nil {
		serviceInstant = trip.PlannedDeparture.UTC()
	}
	t := transit.Trip{
		ID:          trip.ID,
		LineID:      trip.Line.ID,
		Direction:   trip.Direction,
		ServiceDate: serviceInstant.Format("2006-01-02"),
	}
	for _, so := range trip.Stopovers {
		if so.PlannedDeparture != nil {
			dep := so.PlannedDeparture.UTC().Format("15:04:05")
			t.DepartureTime = &dep
			break
		}
	}
	if err := ing.store.UpsertTrip(ctx, t); err != nil {
		ing.storeError(err)
	}
}

// recordPosition persists the current vehicle location, timestamped at
// ingestion time so "latest position" queries stay monotonic regardless of
// upstream clock skew.
func (ing *Ingestor) recordPosition(ctx context.Context, trip *hafas.Trip, lineID string, now time.Time) {
	loc := trip.CurrentLocation
	if loc == nil || loc.Latitude == nil || loc.Longitude == nil {
		return
	}
	delay := 0
	if trip.DepartureDelay != nil {
		delay = *trip.DepartureDelay
	} else if trip.ArrivalDelay != nil {
		delay = *trip.ArrivalDelay
	}
	pos := transit.VehiclePosition{
		TripID:       trip.ID,
		Timestamp:    now,
		Lat:          *loc.Latitude,
		Lon:          *loc.Longitude,
		DelaySeconds: delay,
	}
	if err := ing.store.InsertVehiclePosition(ctx, pos); err != nil {
		ing.storeError(err)
		return
	}
	if ing.pub != nil {
		if err := ing.pub.PublishPosition(lineID, trip.ID, pos); err != nil {
			log.Printf("publish position for trip %s: %v", trip.ID, err)
		}
	}
}

func (ing *Ingestor) processStopovers(ctx context.Context, trip *hafas.Trip) {
	for i, so := range trip.Stopovers {
		if so.Stop == nil || so.Stop.ID == "" || so.Stop.Location == nil {
			// Malformed stopover; siblings are unaffected.
			continue
		}
		seq := i + 1
		if so.StopSequence != nil {
			seq = *so.StopSequence
		}

		if ing.classifier.IsInsideRegion(so.Stop.Location) {
			stop := transit.Stop{
				ID:   so.Stop.ID,
				Name: so.Stop.Name,
				Lat:  *so.Stop.Location.Latitude,
				Lon:  *so.Stop.Location.Longitude,
			}
			if err := ing.store.UpsertStop(ctx, stop); err != nil {
				ing.storeError(err)
			}
			if ing.frontier.Discover(so.Stop.ID) {
				log.Printf("discovered stop %s (%s)", so.Stop.Name, so.Stop.ID)
				if ing.metrics != nil {
					ing.metrics.DiscoveredStops.Set(float64(ing.frontier.Discovered()))
				}
			}
		}

		if so.Arrival != nil || so.PlannedArrival != nil {
			ev := transit.StopEvent{
				TripID:              trip.ID,
				StopID:              so.Stop.ID,
				EventType:           transit.EventArrival,
				StopSequence:        seq,
				PlannedTime:         so.PlannedArrival,
				ActualTime:          so.Arrival,
				ArrivalDelaySeconds: so.ArrivalDelay,
			}
			if err := ing.events.Record(ctx, ev); err != nil {
				ing.storeError(err)
			}
		}
		if so.Departure != nil || so.PlannedDeparture != nil {
			ev := transit.StopEvent{
				TripID:                trip.ID,
				StopID:                so.Stop.ID,
				EventType:             transit.EventDeparture,
				StopSequence:          seq,
				PlannedTime:           so.PlannedDeparture,
				ActualTime:            so.Departure,
				DepartureDelaySeconds: so.DepartureDelay,
			}
			if err := ing.events.Record(ctx, ev); err != nil {
				ing.storeError(err)
			}
		}
	}
}

func (ing *Ingestor) storeError(err error) {
	log.Printf("store: %v", err)
	if ing.metrics != nil {
		ing.metrics.StoreErrs.Inc()
	}
}
