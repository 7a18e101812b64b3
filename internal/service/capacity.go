package service

import (
	"context"
	"errors"

	"github.com/Shivanand-hulikatti/eventure/internal/model"
	"github.com/Shivanand-hulikatti/eventure/internal/repository"
)

// ArrivalOccupancy returns live filled/capacity for one arrival option.
func (s *EventService) ArrivalOccupancy(ctx context.Context, arrivalID string) (model.Occupancy, error) {
	o, err := s.store.ArrivalOccupancy(ctx, arrivalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Occupancy{}, invalid(MsgArrivalNotFound)
		}
		return model.Occupancy{}, internal("arrival occupancy", err)
	}
	return o, nil
}

// EventOccupancy returns live filled/capacity summed over an event's
// arrival options.
func (s *EventService) EventOccupancy(ctx context.Context, eventID string) (model.Occupancy, error) {
	o, err := s.store.EventOccupancy(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Occupancy{}, invalid(MsgEventNotFound)
		}
		return model.Occupancy{}, internal("event occupancy", err)
	}
	return o, nil
}
