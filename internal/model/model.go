// Package model defines the core domain types for the event reservation system.
package model

import "time"

// User is an account that can publish events and hold reservations.
type User struct {
	ID           string  `json:"userId"`
	Username     string  `json:"username"`
	Picture      string  `json:"picture"`
	Email        string  `json:"email"`
	PasswordHash string  `json:"-"`
	SessionToken *string `json:"-"`
}

// Event is a hosted activity owned by the user that created it.
type Event struct {
	ID          string    `json:"eventId"`
	OwnerID     string    `json:"userId"`
	Name        string    `json:"name"`
	Location    string    `json:"location"`
	Host        string    `json:"host"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Ended reports whether the event finished strictly before now.
func (e *Event) Ended(now time.Time) bool {
	return e.EndTime.Before(now)
}

// Label returns the "name @ location" form used in search and conflict messages.
func (e *Event) Label() string {
	return EventLabel(e.Name, e.Location)
}

// ArrivalOption is one arrival slot of an event. Capacity is either a
// positive seat count or Unlimited.
type ArrivalOption struct {
	ID          string    `json:"arrivalId"`
	EventID     string    `json:"eventId"`
	ArrivalTime time.Time `json:"arrivalTime"`
	Capacity    int       `json:"capacity"`
}

// Reservation is a user's claim on an arrival option. Withdrawal sets
// Canceled; rows are only removed together with their event.
type Reservation struct {
	ID        string    `json:"reservationId"`
	UserID    string    `json:"userId"`
	ArrivalID string    `json:"arrivalId"`
	Canceled  bool      `json:"isCanceled"`
	CreatedAt time.Time `json:"createdAt"`
}

// Booking is an active reservation joined with the arrival and event it
// points at. It carries what the conflict detector needs.
type Booking struct {
	ReservationID string
	ArrivalID     string
	EventID       string
	EventName     string
	Location      string
	ArrivalTime   time.Time
	EventEnd      time.Time
}

// Label returns the "name @ location" of the booked event.
func (b Booking) Label() string {
	return EventLabel(b.EventName, b.Location)
}

// Span returns the time the user is committed to for this booking.
func (b Booking) Span() Span {
	return Span{Arrival: b.ArrivalTime, End: b.EventEnd}
}

// EventLabel joins an event name and location as "name @ location".
func EventLabel(name, location string) string {
	return name + " @ " + location
}

// Credentials identify a signed-in user.
type Credentials struct {
	UserID string `json:"userId"`
	Token  string `json:"sessionToken"`
}

// Session is returned after a successful login or token validation.
type Session struct {
	UserID   string `json:"userId"`
	Token    string `json:"sessionToken"`
	Username string `json:"username"`
	Picture  string `json:"picture"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
