package model

import "time"

// EventSummary is the listing view of an event with live occupancy and the
// viewer's registration state.
type EventSummary struct {
	ReservationID string    `json:"reservationId,omitempty"`
	EventID       string    `json:"eventId"`
	Name          string    `json:"name"`
	Location      string    `json:"location"`
	Host          string    `json:"host"`
	Filled        int       `json:"filled"`
	Capacity      int       `json:"capacity"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
	Description   string    `json:"description"`
	IsRegistered  bool      `json:"isRegistered"`
}

// Occupancy returns the summary's filled/capacity pair.
func (s EventSummary) Occupancy() Occupancy {
	return Occupancy{Filled: s.Filled, Capacity: s.Capacity}
}

// EventDetail is the single-event view: the summary plus who is coming.
type EventDetail struct {
	EventSummary
	Attendees []Attendee `json:"attendees"`
}

// ArrivalSummary is an arrival option with its live occupancy.
type ArrivalSummary struct {
	ArrivalID   string    `json:"arrivalId"`
	ArrivalTime time.Time `json:"arrivalTime"`
	Filled      int       `json:"filled"`
	Capacity    int       `json:"capacity"`
}

// Attendee is a user holding an active reservation for an event.
type Attendee struct {
	Username    string    `json:"username"`
	Picture     string    `json:"picture"`
	ArrivalTime time.Time `json:"arrivalTime"`
}

// SearchHit is a compact search result.
type SearchHit struct {
	EventID  string `json:"eventId"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

// EventFilter selects which upcoming events a listing returns.
type EventFilter int

const (
	// FilterAll lists every upcoming event.
	FilterAll EventFilter = iota
	// FilterOpen lists upcoming events that are not full.
	FilterOpen
	// FilterUnregistered lists upcoming events the viewer holds no active reservation for.
	FilterUnregistered
)
