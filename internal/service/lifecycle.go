package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/eventure/internal/model"
	"github.com/Shivanand-hulikatti/eventure/internal/repository"
)

// createEvent writes the event row and one arrival row per planned option.
// It trusts plan to be validated.
func (s *EventService) createEvent(ctx context.Context, q repository.Queries, ownerID string, plan *EventPlan) (string, error) {
	e := model.Event{
		ID:          s.newID(),
		OwnerID:     ownerID,
		Name:        plan.Spec.Name,
		Location:    plan.Spec.Location,
		Host:        plan.Spec.Host,
		StartTime:   plan.Start,
		EndTime:     plan.End,
		Description: plan.Spec.Description,
		CreatedAt:   s.now(),
	}
	if err := q.InsertEvent(ctx, e); err != nil {
		return "", fmt.Errorf("insert event: %w", err)
	}
	for _, a := range plan.Arrivals {
		opt := model.ArrivalOption{
			ID:          s.newID(),
			EventID:     e.ID,
			ArrivalTime: a.At,
			Capacity:    a.Capacity,
		}
		if err := q.InsertArrival(ctx, opt); err != nil {
			return "", fmt.Errorf("insert arrival: %w", err)
		}
	}
	return e.ID, nil
}

// deleteEvent removes reservations, then arrival options, then the event.
// Ownership and futurity must already be checked.
func (s *EventService) deleteEvent(ctx context.Context, q repository.Queries, eventID string) error {
	reservations, err := q.DeleteEventReservations(ctx, eventID)
	if err != nil {
		return fmt.Errorf("delete reservations: %w", err)
	}
	arrivals, err := q.DeleteEventArrivals(ctx, eventID)
	if err != nil {
		return fmt.Errorf("delete arrivals: %w", err)
	}
	if err := q.DeleteEvent(ctx, eventID); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	s.log.Debug("event removed", "event_id", eventID, "arrivals", arrivals, "reservations", reservations)
	return nil
}

func newUUID() string { return uuid.New().String() }
