package transit

import "time"

// EventType distinguishes the two stop-level events a stopover can produce.
type EventType string

const (
	EventArrival   EventType = "arrival"
	EventDeparture EventType = "departure"
)

type Line struct {
	ID         string
	Name       string
	Product    string
	LineNumber string
}

type Trip struct {
	ID            string
	LineID        string
	Direction     string
	ServiceDate   string  // YYYY-MM-DD, UTC calendar date of the planned departure
	DepartureTime *string // HH:MM:SS of the first planned stopover departure, if any
}

type Stop struct {
	ID   string
	Name string
	Lat  float64
	Lon  float64
}

type VehiclePosition struct {
	TripID       string
	Timestamp    time.Time
	Lat          float64
	Lon          float64
	DelaySeconds int
}

// StopEvent is unique by (TripID, StopID, EventType). Timestamp records when
// the observation was written, not when the event happens.
type StopEvent struct {
	TripID                string
	StopID                string
	EventType             EventType
	StopSequence          int
	Timestamp             time.Time
	PlannedTime           *time.Time
	ActualTime            *time.Time
	ArrivalDelaySeconds   *int
	DepartureDelaySeconds *int
}

// BestTime returns the actual time if known, else the planned time. A nil
// result means the event carries no usable instant at all.
func (e *StopEvent) BestTime() *time.Time {
	if e.ActualTime != nil {
		return e.ActualTime
	}
	return e.PlannedTime
}
