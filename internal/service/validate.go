package service

import (
	"context"
	"errors"
	"time"

	"github.com/Shivanand-hulikatti/eventure/internal/model"
	"github.com/Shivanand-hulikatti/eventure/internal/repository"
)

// maxDuration is the exclusive upper bound on an event's length.
const maxDuration = 24 * time.Hour

// myriad is the first year an event may no longer start in.
const myriad = 10000

// EventPlan is a create request that passed validation, with every time
// and capacity parsed.
type EventPlan struct {
	Spec     model.EventSpec
	Start    time.Time
	End      time.Time
	Arrivals []ArrivalPlan
}

// ArrivalPlan is one parsed arrival option.
type ArrivalPlan struct {
	At       time.Time
	Capacity int
}

// gateRules checks that the ids are present and that the session token
// belongs to the user. Every mutating pipeline starts with them.
func (s *EventService) gateRules(creds model.Credentials, ids ...string) []rule {
	return []rule{
		check(MsgMissing, func() bool {
			return missing(creds.UserID, creds.Token) || missing(ids...)
		}),
		{
			kind: KindDenied,
			msg:  MsgDenied,
			fails: func(ctx context.Context) (bool, error) {
				ok, err := s.gate.VerifySessionToken(ctx, creds.UserID, creds.Token)
				return !ok, err
			},
		},
	}
}

func (s *EventService) authenticate(ctx context.Context, op string, creds model.Credentials, ids ...string) error {
	return firstFailure(ctx, op, s.gateRules(creds, ids...))
}

// ValidateCreateEvent runs the full create pipeline without writing.
func (s *EventService) ValidateCreateEvent(ctx context.Context, creds model.Credentials, spec model.EventSpec) error {
	_, err := s.planEvent(ctx, creds, spec)
	return err
}

// planEvent validates a create request and returns its parsed form.
func (s *EventService) planEvent(ctx context.Context, creds model.Credentials, spec model.EventSpec) (*EventPlan, error) {
	plan := &EventPlan{Spec: spec}
	now := s.now()

	rules := []rule{
		check(MsgMissing, func() bool { return specMissing(spec) }),
	}
	rules = append(rules, s.gateRules(creds)...)
	rules = append(rules,
		check(MsgUnparsableTimes, func() bool {
			var err error
			if plan.Start, err = parseInstant(spec.StartTime, s.loc); err != nil {
				return true
			}
			if plan.End, err = parseInstant(spec.EndTime, s.loc); err != nil {
				return true
			}
			plan.Arrivals = make([]ArrivalPlan, len(spec.Arrivals))
			for i, a := range spec.Arrivals {
				if plan.Arrivals[i].At, err = parseInstant(a.ArrivalTime, s.loc); err != nil {
					return true
				}
			}
			return false
		}),
		check(MsgMyriad, func() bool { return plan.Start.In(s.loc).Year() >= myriad }),
		check(MsgPastStart, func() bool { return !plan.Start.After(now) }),
		check(MsgStartNotBeforeEnd, func() bool { return !plan.Start.Before(plan.End) }),
		check(MsgTooLong, func() bool { return plan.End.Sub(plan.Start) >= maxDuration }),
		check(MsgArrivalOutside, func() bool {
			for _, a := range plan.Arrivals {
				if a.At.Before(plan.Start) || !a.At.Before(plan.End) {
					return true
				}
			}
			return false
		}),
		check(MsgDuplicateArrival, func() bool {
			seen := make(map[instantKey]struct{}, len(plan.Arrivals))
			for _, a := range plan.Arrivals {
				k := keyOf(a.At)
				if _, ok := seen[k]; ok {
					return true
				}
				seen[k] = struct{}{}
			}
			return false
		}),
		check(MsgBadCapacity, func() bool {
			for i, a := range spec.Arrivals {
				n, ok := parseCapacity(string(a.Capacity))
				if !ok {
					return true
				}
				plan.Arrivals[i].Capacity = n
			}
			return false
		}),
	)

	if err := firstFailure(ctx, "validate create event", rules); err != nil {
		return nil, err
	}
	return plan, nil
}

func specMissing(spec model.EventSpec) bool {
	if missing(spec.Name, spec.Location, spec.Host, spec.StartTime, spec.EndTime, spec.Description) {
		return true
	}
	if len(spec.Arrivals) == 0 {
		return true
	}
	for _, a := range spec.Arrivals {
		if missing(a.ArrivalTime, string(a.Capacity)) {
			return true
		}
	}
	return false
}

// ValidateDeleteEvent runs the full delete pipeline against the store
// without writing.
func (s *EventService) ValidateDeleteEvent(ctx context.Context, creds model.Credentials, eventID string) error {
	if err := s.authenticate(ctx, "validate delete event", creds, eventID); err != nil {
		return err
	}
	return s.checkDelete(ctx, s.store, creds.UserID, eventID)
}

func (s *EventService) checkDelete(ctx context.Context, q repository.Queries, userID, eventID string) error {
	var e *model.Event
	now := s.now()
	return firstFailure(ctx, "validate delete event", []rule{
		{
			msg: MsgEventNotFound,
			fails: func(ctx context.Context) (bool, error) {
				var err error
				e, err = lookup(q.GetEvent(ctx, eventID))
				return e == nil, err
			},
		},
		check(MsgNotOwner, func() bool { return e.OwnerID != userID }),
		check(MsgDeletePast, func() bool { return e.Ended(now) }),
	})
}

// ValidateReserve runs the full reserve pipeline against the store
// without writing.
func (s *EventService) ValidateReserve(ctx context.Context, creds model.Credentials, arrivalID string) error {
	if err := s.authenticate(ctx, "validate reserve", creds, arrivalID); err != nil {
		return err
	}
	return s.checkReserve(ctx, s.store, creds.UserID, arrivalID)
}

// checkReserve evaluates the reserve rules. The duplicate check runs
// before the conflict scan, so an active booking on the same event is
// never reported as a conflict with itself.
func (s *EventService) checkReserve(ctx context.Context, q repository.Queries, userID, arrivalID string) error {
	var (
		a        *model.ArrivalOption
		e        *model.Event
		conflict string
	)
	now := s.now()
	return firstFailure(ctx, "validate reserve", []rule{
		{
			msg: MsgArrivalNotFound,
			fails: func(ctx context.Context) (bool, error) {
				var err error
				if a, err = lookup(q.GetArrival(ctx, arrivalID)); err != nil || a == nil {
					return a == nil, err
				}
				e, err = q.GetEvent(ctx, a.EventID)
				return false, err
			},
		},
		check(MsgReservePast, func() bool { return e.Ended(now) }),
		{
			msg: MsgAlreadyRegistered,
			fails: func(ctx context.Context) (bool, error) {
				return q.HasActiveReservation(ctx, userID, e.ID)
			},
		},
		{
			msg: MsgFullyBooked,
			fails: func(ctx context.Context) (bool, error) {
				o, err := q.ArrivalOccupancy(ctx, a.ID)
				return o.Full(), err
			},
		},
		{
			fails: func(ctx context.Context) (bool, error) {
				var err error
				conflict, err = findConflict(ctx, q, userID, model.Span{Arrival: a.ArrivalTime, End: e.EndTime})
				return conflict != "", err
			},
			describe: func() string { return ConflictMessage(conflict) },
		},
	})
}

// ValidateWithdraw runs the full withdraw pipeline against the store
// without writing.
func (s *EventService) ValidateWithdraw(ctx context.Context, creds model.Credentials, eventID string) error {
	if err := s.authenticate(ctx, "validate withdraw", creds, eventID); err != nil {
		return err
	}
	return s.checkWithdraw(ctx, s.store, creds.UserID, eventID)
}

func (s *EventService) checkWithdraw(ctx context.Context, q repository.Queries, userID, eventID string) error {
	var e *model.Event
	now := s.now()
	return firstFailure(ctx, "validate withdraw", []rule{
		{
			msg: MsgEventNotFound,
			fails: func(ctx context.Context) (bool, error) {
				var err error
				e, err = lookup(q.GetEvent(ctx, eventID))
				return e == nil, err
			},
		},
		{
			msg: MsgNotRegistered,
			fails: func(ctx context.Context) (bool, error) {
				ok, err := q.HasActiveReservation(ctx, userID, eventID)
				return !ok, err
			},
		},
		check(MsgWithdrawPast, func() bool { return e.Ended(now) }),
	})
}

// lookup turns repository.ErrNotFound into a nil result so a missing row
// is a rule violation rather than a fault.
func lookup[T any](v *T, err error) (*T, error) {
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return v, err
}
