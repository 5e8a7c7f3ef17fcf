package hafas

import "time"

// Wire types for the HAFAS REST API (hafas-client JSON shape). Every field
// the upstream may omit is pointer-typed so missing data is an explicit nil,
// never a zero value mistaken for a real one.

type Location struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type Stop struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Location *Location `json:"location"`
}

type Line struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Product string `json:"product"`
}

type Departure struct {
	TripID      string     `json:"tripId"`
	Direction   string     `json:"direction"`
	When        *time.Time `json:"when"`
	PlannedWhen *time.Time `json:"plannedWhen"`
	Delay       *int       `json:"delay"`
	Line        *Line      `json:"line"`
	Stop        *Stop      `json:"stop"`
}

type Stopover struct {
	Stop             *Stop      `json:"stop"`
	StopSequence     *int       `json:"stopSequence"`
	Arrival          *time.Time `json:"arrival"`
	PlannedArrival   *time.Time `json:"plannedArrival"`
	ArrivalDelay     *int       `json:"arrivalDelay"`
	Departure        *time.Time `json:"departure"`
	PlannedDeparture *time.Time `json:"plannedDeparture"`
	DepartureDelay   *int       `json:"departureDelay"`
}

type Trip struct {
	ID               string     `json:"id"`
	Line             *Line      `json:"line"`
	Direction        string     `json:"direction"`
	PlannedDeparture *time.Time `json:"plannedDeparture"`
	DepartureDelay   *int       `json:"departureDelay"`
	ArrivalDelay     *int       `json:"arrivalDelay"`
	CurrentLocation  *Location  `json:"currentLocation"`
	Stopovers        []Stopover `json:"stopovers"`
}

type departuresResponse struct {
	Departures []Departure `json:"departures"`
}

type tripResponse struct {
	Trip *Trip `json:"trip"`
}
