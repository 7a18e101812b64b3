// Package repository implements all persistence for the reservation system.
// Postgres uses pgx directly (no ORM); Memory keeps the same four relations
// in process for local runs and tests.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Shivanand-hulikatti/eventure/internal/model"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned when a user signs up with an email that is
// already taken.
var ErrDuplicateEmail = errors.New("email already in use")

// SearchLimit caps the number of search hits.
const SearchLimit = 5

// Queries is every read and write the engine performs. Both the pool-backed
// store and a transaction expose it.
type Queries interface {
	CreateUser(ctx context.Context, u model.User) error
	GetUserByID(ctx context.Context, userID string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	SetSessionToken(ctx context.Context, userID string, token *string) error

	InsertEvent(ctx context.Context, e model.Event) error
	InsertArrival(ctx context.Context, a model.ArrivalOption) error
	GetEvent(ctx context.Context, eventID string) (*model.Event, error)
	GetArrival(ctx context.Context, arrivalID string) (*model.ArrivalOption, error)
	DeleteEventReservations(ctx context.Context, eventID string) (int64, error)
	DeleteEventArrivals(ctx context.Context, eventID string) (int64, error)
	DeleteEvent(ctx context.Context, eventID string) error

	ArrivalOccupancy(ctx context.Context, arrivalID string) (model.Occupancy, error)
	EventOccupancy(ctx context.Context, eventID string) (model.Occupancy, error)

	InsertReservation(ctx context.Context, r model.Reservation) error
	ActiveBookings(ctx context.Context, userID string) ([]model.Booking, error)
	HasActiveReservation(ctx context.Context, userID, eventID string) (bool, error)
	CancelReservations(ctx context.Context, userID, eventID string) (int64, error)

	ListEvents(ctx context.Context, viewerID string, filter model.EventFilter, now time.Time) ([]model.EventSummary, error)
	GetEventSummary(ctx context.Context, viewerID, eventID string) (*model.EventSummary, error)
	ListEventsByOwner(ctx context.Context, ownerID string) ([]model.EventSummary, error)
	ListReservationHistory(ctx context.Context, userID string) ([]model.EventSummary, error)
	ListArrivals(ctx context.Context, eventID string) ([]model.ArrivalSummary, error)
	ListAttendees(ctx context.Context, eventID string) ([]model.Attendee, error)
	Search(ctx context.Context, term string, now time.Time, limit int) ([]model.SearchHit, error)

	// LockUser, LockArrival and LockEvent take exclusive row locks for the
	// rest of the transaction. Outside a transaction they only check existence.
	LockUser(ctx context.Context, userID string) error
	LockArrival(ctx context.Context, arrivalID string) error
	LockEvent(ctx context.Context, eventID string) error
}

// Store is Queries plus transactions.
type Store interface {
	Queries
	// InTx runs fn inside one transaction. Concurrent InTx calls that lock
	// the same rows are serialised; fn's error aborts the transaction.
	InTx(ctx context.Context, fn func(q Queries) error) error
}
