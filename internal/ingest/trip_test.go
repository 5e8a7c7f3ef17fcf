package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledahosn/holding-graz-statistik/internal/hafas"
	"github.com/ledahosn/holding-graz-statistik/internal/transit"
)

var ingestNow = time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

func newTestIngestor(t *testing.T, upstream Upstream, store Store) (*Ingestor, *Frontier) {
	t.Helper()
	classifier := grazClassifier(t)
	frontier := NewFrontier([]string{"seed"})
	events := NewEventWriter(store, nil)
	events.now = func() time.Time { return ingestNow }
	ing := NewIngestor(upstream, store, events, classifier, frontier, nil, nil)
	ing.now = func() time.Time { return ingestNow }
	return ing, frontier
}

func tramTrip() *hafas.Trip {
	dep := time.Date(2024, 1, 1, 9, 45, 0, 0, time.UTC)
	arr1 := dep.Add(5 * time.Minute)
	return &hafas.Trip{
		ID:               "trip-4a",
		Line:             &hafas.Line{ID: "line-4", Name: "Tram 4", Product: "tram"},
		Direction:        "Andritz",
		PlannedDeparture: &dep,
		DepartureDelay:   intPtr(60),
		CurrentLocation:  loc(47.06, 15.43),
		Stopovers: []hafas.Stopover{
			{
				Stop:             &hafas.Stop{ID: "stop-1", Name: "Jakominiplatz", Location: loc(47.07, 15.44)},
				PlannedDeparture: &dep,
			},
			{
				Stop:             &hafas.Stop{ID: "stop-2", Name: "Hauptplatz", Location: loc(47.071, 15.438)},
				StopSequence:     intPtr(2),
				PlannedArrival:   &arr1,
				ArrivalDelay:     intPtr(60),
				PlannedDeparture: timePtr(arr1.Add(30 * time.Second)),
			},
		},
	}
}

func TestIngestTripPersistsEverything(t *testing.T) {
	upstream := newFakeUpstream()
	store := newFakeStore()
	trip := tramTrip()
	upstream.trips[trip.ID] = trip

	ing, frontier := newTestIngestor(t, upstream, store)
	require.NoError(t, ing.IngestTrip(context.Background(), trip.ID))

	line, ok := store.lines["line-4"]
	require.True(t, ok)
	assert.Equal(t, "4", line.LineNumber)
	assert.Equal(t, "tram", line.Product)

	row, ok := store.trips[trip.ID]
	require.True(t, ok)
	assert.Equal(t, "line-4", row.LineID)
	assert.Equal(t, "2024-01-01", row.ServiceDate)
	require.NotNil(t, row.DepartureTime)
	assert.Equal(t, "09:45:00", *row.DepartureTime)

	require.Len(t, store.positions, 1)
	assert.Equal(t, ingestNow, store.positions[0].Timestamp, "position is stamped at ingestion time")
	assert.Equal(t, 60, store.positions[0].DelaySeconds)

	// both stops are inside the region and newly discovered
	assert.Len(t, store.stops, 2)
	assert.True(t, frontier.Seen("stop-1"))
	assert.True(t, frontier.Seen("stop-2"))

	// first stopover only departs, second arrives and departs
	_, ok = store.event(trip.ID, "stop-1", transit.EventDeparture)
	assert.True(t, ok)
	_, ok = store.event(trip.ID, "stop-1", transit.EventArrival)
	assert.False(t, ok)

	arrival, ok := store.event(trip.ID, "stop-2", transit.EventArrival)
	require.True(t, ok)
	assert.Equal(t, 2, arrival.StopSequence)
	require.NotNil(t, arrival.ArrivalDelaySeconds)
	assert.Equal(t, 60, *arrival.ArrivalDelaySeconds)
	_, ok = store.event(trip.ID, "stop-2", transit.EventDeparture)
	assert.True(t, ok)
}

func TestIngestTripFiltersUnmonitoredLines(t *testing.T) {
	upstream := newFakeUpstream()
	store := newFakeStore()
	trip := tramTrip()
	trip.Line = &hafas.Line{ID: "line-501", Name: "Regional 501", Product: "city-bus"}
	upstream.trips[trip.ID] = trip

	ing, _ := newTestIngestor(t, upstream, store)
	require.NoError(t, ing.IngestTrip(context.Background(), trip.ID), "a filtered trip is not an error")

	assert.Empty(t, store.lines)
	assert.Empty(t, store.trips)
	assert.Empty(t, store.stops)
}

func TestIngestTripReturnsUpstreamErrors(t *testing.T) {
	upstream := newFakeUpstream()
	upstream.tripErrs["trip-x"] = errors.New("timeout")

	ing, _ := newTestIngestor(t, upstream, newFakeStore())
	assert.Error(t, ing.IngestTrip(context.Background(), "trip-x"))
}

func TestIngestTripSkipsOutOfRegionStops(t *testing.T) {
	upstream := newFakeUpstream()
	store := newFakeStore()
	trip := tramTrip()
	// Vienna is well outside the Graz box
	trip.Stopovers[1].Stop.Location = loc(48.21, 16.37)
	upstream.trips[trip.ID] = trip

	ing, frontier := newTestIngestor(t, upstream, store)
	require.NoError(t, ing.IngestTrip(context.Background(), trip.ID))

	_, ok := store.stops["stop-2"]
	assert.False(t, ok, "out-of-region stop must not be persisted")
	assert.False(t, frontier.Seen("stop-2"))
	// its stop events are still recorded for the trip's history
	_, ok = store.event(trip.ID, "stop-2", transit.EventArrival)
	assert.True(t, ok)
}

func TestIngestTripSkipsMalformedStopovers(t *testing.T) {
	upstream := newFakeUpstream()
	store := newFakeStore()
	trip := tramTrip()
	trip.Stopovers[1].Stop = &hafas.Stop{ID: "stop-2", Name: "Hauptplatz"} // no location
	upstream.trips[trip.ID] = trip

	ing, _ := newTestIngestor(t, upstream, store)
	require.NoError(t, ing.IngestTrip(context.Background(), trip.ID))

	_, ok := store.stops["stop-2"]
	assert.False(t, ok)
	_, ok = store.event(trip.ID, "stop-1", transit.EventDeparture)
	assert.True(t, ok, "sibling stopovers are unaffected")
}

func TestIngestTripIsIdempotent(t *testing.T) {
	upstream := newFakeUpstream()
	store := newFakeStore()
	trip := tramTrip()
	upstream.trips[trip.ID] = trip

	ing, _ := newTestIngestor(t, upstream, store)
	ctx := context.Background()
	require.NoError(t, ing.IngestTrip(ctx, trip.ID))

	linesBefore := store.lines["line-4"]
	eventsBefore, _ := store.event(trip.ID, "stop-2", transit.EventArrival)

	require.NoError(t, ing.IngestTrip(ctx, trip.ID))

	assert.Equal(t, linesBefore, store.lines["line-4"])
	eventsAfter, _ := store.event(trip.ID, "stop-2", transit.EventArrival)
	assert.Equal(t, eventsBefore, eventsAfter)
	assert.Len(t, store.stops, 2)
	assert.Len(t, store.positions, 1, "identical timestamp+trip duplicate is suppressed")
}
