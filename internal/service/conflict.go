package service

import (
	"context"
	"fmt"

	"github.com/Shivanand-hulikatti/eventure/internal/model"
	"github.com/Shivanand-hulikatti/eventure/internal/repository"
)

// firstOverlap returns the first booking whose span overlaps candidate.
func firstOverlap(candidate model.Span, bookings []model.Booking) (model.Booking, bool) {
	for _, b := range bookings {
		if candidate.Overlaps(b.Span()) {
			return b, true
		}
	}
	return model.Booking{}, false
}

// findConflict scans the user's active bookings for one that overlaps the
// candidate span and returns its "name @ location" label, or "".
func findConflict(ctx context.Context, q repository.Queries, userID string, candidate model.Span) (string, error) {
	bookings, err := q.ActiveBookings(ctx, userID)
	if err != nil {
		return "", err
	}
	if b, ok := firstOverlap(candidate, bookings); ok {
		return b.Label(), nil
	}
	return "", nil
}

// FindConflict returns the label of the first of the user's active
// reservations that overlaps a reservation on arrivalID, or "" when there
// is none. It does not exclude the arrival's own event; reservation
// validation checks for duplicates first.
func (s *EventService) FindConflict(ctx context.Context, userID, arrivalID string) (string, error) {
	a, err := s.store.GetArrival(ctx, arrivalID)
	if err != nil {
		return "", fmt.Errorf("get arrival: %w", err)
	}
	e, err := s.store.GetEvent(ctx, a.EventID)
	if err != nil {
		return "", fmt.Errorf("get event: %w", err)
	}
	return findConflict(ctx, s.store, userID, model.Span{Arrival: a.ArrivalTime, End: e.EndTime})
}
