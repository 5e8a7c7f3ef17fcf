package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/ledahosn/holding-graz-statistik/internal/hafas"
	"github.com/ledahosn/holding-graz-statistik/internal/transit"
)

func timePtr(t time.Time) *time.Time { return &t }
func intPtr(i int) *int              { return &i }
func floatPtr(f float64) *float64    { return &f }

func loc(lat, lon float64) *hafas.Location {
	return &hafas.Location{Latitude: floatPtr(lat), Longitude: floatPtr(lon)}
}

type eventKey struct {
	tripID    string
	stopID    string
	eventType transit.EventType
}

// fakeStore is an in-memory ingest.Store.
type fakeStore struct {
	mu        sync.Mutex
	lines     map[string]transit.Line
	trips     map[string]transit.Trip
	stops     map[string]transit.Stop
	positions []transit.VehiclePosition
	events    map[eventKey]transit.StopEvent

	getErr error
	putErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		lines:  make(map[string]transit.Line),
		trips:  make(map[string]transit.Trip),
		stops:  make(map[string]transit.Stop),
		events: make(map[eventKey]transit.StopEvent),
	}
}

func (s *fakeStore) UpsertLine(_ context.Context, line transit.Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines[line.ID] = line
	return nil
}

func (s *fakeStore) UpsertTrip(_ context.Context, trip transit.Trip) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trips[trip.ID] = trip
	return nil
}

func (s *fakeStore) UpsertStop(_ context.Context, stop transit.Stop) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.stops[stop.ID]; !ok {
		s.stops[stop.ID] = stop
	}
	return nil
}

func (s *fakeStore) InsertVehiclePosition(_ context.Context, pos transit.VehiclePosition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.positions {
		if p.TripID == pos.TripID && p.Timestamp.Equal(pos.Timestamp) {
			return nil
		}
	}
	s.positions = append(s.positions, pos)
	return nil
}

func (s *fakeStore) GetStopEvent(_ context.Context, tripID, stopID string, eventType transit.EventType) (*transit.StopEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	ev, ok := s.events[eventKey{tripID, stopID, eventType}]
	if !ok {
		return nil, nil
	}
	return &ev, nil
}

func (s *fakeStore) PutStopEvent(_ context.Context, ev transit.StopEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	s.events[eventKey{ev.TripID, ev.StopID, ev.EventType}] = ev
	return nil
}

func (s *fakeStore) event(tripID, stopID string, eventType transit.EventType) (transit.StopEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[eventKey{tripID, stopID, eventType}]
	return ev, ok
}

// fakeUpstream is a canned ingest.Upstream that records its calls.
type fakeUpstream struct {
	mu            sync.Mutex
	departures    map[string][]hafas.Departure
	departureErrs map[string]error
	trips         map[string]*hafas.Trip
	tripErrs      map[string]error
	tripCalls     []string
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{
		departures:    make(map[string][]hafas.Departure),
		departureErrs: make(map[string]error),
		trips:         make(map[string]*hafas.Trip),
		tripErrs:      make(map[string]error),
	}
}

func (u *fakeUpstream) Departures(_ context.Context, stopID string, _ time.Duration) ([]hafas.Departure, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.departureErrs[stopID]; err != nil {
		return nil, err
	}
	return u.departures[stopID], nil
}

func (u *fakeUpstream) Trip(_ context.Context, tripID string) (*hafas.Trip, error) {
	u.mu.Lock()
	u.tripCalls = append(u.tripCalls, tripID)
	u.mu.Unlock()
	if err := u.tripErrs[tripID]; err != nil {
		return nil, err
	}
	return u.trips[tripID], nil
}

func (u *fakeUpstream) calls() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.tripCalls...)
}
