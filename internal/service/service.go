// Package service is the reservation consistency engine: it validates
// create, delete, reserve and withdraw requests in a fixed order, runs the
// writes they green-light inside one store transaction, and serves the
// listing views with live occupancy.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/eventure/internal/auth"
	"github.com/Shivanand-hulikatti/eventure/internal/model"
	"github.com/Shivanand-hulikatti/eventure/internal/notify"
	"github.com/Shivanand-hulikatti/eventure/internal/repository"
)

// Publisher receives domain events after their transaction commits.
type Publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// EventService orchestrates every operation of the engine.
type EventService struct {
	store repository.Store
	gate  *auth.Gate
	pub   Publisher
	log   *slog.Logger
	loc   *time.Location
	now   func() time.Time
	newID func() string
}

// Option configures an EventService.
type Option func(*EventService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *EventService) { s.now = now }
}

// WithLocation sets the zone used to read timestamps without an offset.
func WithLocation(loc *time.Location) Option {
	return func(s *EventService) { s.loc = loc }
}

// WithPublisher sets where domain events go.
func WithPublisher(p Publisher) Option {
	return func(s *EventService) { s.pub = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *EventService) { s.log = l }
}

// WithIDGenerator replaces the UUID generator for events, arrivals and
// reservations.
func WithIDGenerator(gen func() string) Option {
	return func(s *EventService) { s.newID = gen }
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(store repository.Store, gate *auth.Gate, opts ...Option) *EventService {
	s := &EventService{
		store: store,
		gate:  gate,
		pub:   notify.Nop{},
		log:   slog.Default(),
		loc:   time.Local,
		now:   time.Now,
		newID: newUUID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ─── Credentials ──────────────────────────────────────────────────────────────

// SignUp registers a new user.
func (s *EventService) SignUp(ctx context.Context, username, picture, email, password string) (*model.User, error) {
	if missing(username, picture, email, password) {
		return nil, invalid(MsgMissing)
	}
	u, err := s.gate.SignUp(ctx, username, picture, email, password)
	switch {
	case err == nil:
		s.log.Info("user created", "user_id", u.ID)
		return u, nil
	case errors.Is(err, repository.ErrDuplicateEmail):
		return nil, invalid(EmailInUseMessage(email))
	case errors.Is(err, auth.ErrPasswordTooLong):
		return nil, invalid(MsgPasswordTooLong)
	default:
		return nil, internal("sign up", err)
	}
}

// Login checks an email and password and starts a new session.
func (s *EventService) Login(ctx context.Context, email, password string) (model.Session, error) {
	if missing(email, password) {
		return model.Session{}, invalid(MsgMissing)
	}
	sess, err := s.gate.Login(ctx, email, password)
	switch {
	case err == nil:
		return sess, nil
	case errors.Is(err, auth.ErrDenied):
		return model.Session{}, denied(MsgDenied)
	default:
		return model.Session{}, internal("login", err)
	}
}

// ValidateSession returns the session for a matching user id and token.
func (s *EventService) ValidateSession(ctx context.Context, creds model.Credentials) (model.Session, error) {
	if missing(creds.UserID, creds.Token) {
		return model.Session{}, invalid(MsgMissing)
	}
	sess, err := s.gate.Validate(ctx, creds.UserID, creds.Token)
	switch {
	case err == nil:
		return sess, nil
	case errors.Is(err, auth.ErrDenied):
		return model.Session{}, denied(MsgInvalidSession)
	default:
		return model.Session{}, internal("validate session", err)
	}
}

// Logout ends the session if the token matches. A wrong token is not an
// error.
func (s *EventService) Logout(ctx context.Context, creds model.Credentials) error {
	if missing(creds.UserID) {
		return invalid(MsgMissing)
	}
	if err := s.gate.Logout(ctx, creds.UserID, creds.Token); err != nil {
		return internal("logout", err)
	}
	return nil
}

// ─── Listings ─────────────────────────────────────────────────────────────────

// ListUpcomingEvents returns every event that has not ended, soonest first.
func (s *EventService) ListUpcomingEvents(ctx context.Context, creds model.Credentials) ([]model.EventSummary, error) {
	return s.listEvents(ctx, creds, model.FilterAll)
}

// ListOpenEvents returns upcoming events that still have a seat.
func (s *EventService) ListOpenEvents(ctx context.Context, creds model.Credentials) ([]model.EventSummary, error) {
	return s.listEvents(ctx, creds, model.FilterOpen)
}

// ListUnregisteredEvents returns upcoming events the user is not booked on.
func (s *EventService) ListUnregisteredEvents(ctx context.Context, creds model.Credentials) ([]model.EventSummary, error) {
	return s.listEvents(ctx, creds, model.FilterUnregistered)
}

// ListFilteredEvents resolves a filter name ("open" or "unregistered",
// case-insensitive) and lists with it.
func (s *EventService) ListFilteredEvents(ctx context.Context, creds model.Credentials, name string) ([]model.EventSummary, error) {
	if err := s.authenticate(ctx, "list events", creds); err != nil {
		return nil, err
	}
	var filter model.EventFilter
	switch strings.ToLower(name) {
	case "open":
		filter = model.FilterOpen
	case "unregistered":
		filter = model.FilterUnregistered
	default:
		return nil, invalid(MsgUnknownFilter)
	}
	return s.listEvents(ctx, creds, filter)
}

func (s *EventService) listEvents(ctx context.Context, creds model.Credentials, filter model.EventFilter) ([]model.EventSummary, error) {
	if err := s.authenticate(ctx, "list events", creds); err != nil {
		return nil, err
	}
	events, err := s.store.ListEvents(ctx, creds.UserID, filter, s.now())
	if err != nil {
		return nil, internal("list events", err)
	}
	return nonNil(events), nil
}

// GetEvent returns one event with its attendees.
func (s *EventService) GetEvent(ctx context.Context, creds model.Credentials, eventID string) (*model.EventDetail, error) {
	if err := s.authenticate(ctx, "get event", creds, eventID); err != nil {
		return nil, err
	}
	summary, err := s.store.GetEventSummary(ctx, creds.UserID, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalid(MsgEventNotFound)
		}
		return nil, internal("get event", err)
	}
	attendees, err := s.store.ListAttendees(ctx, eventID)
	if err != nil {
		return nil, internal("list attendees", err)
	}
	return &model.EventDetail{EventSummary: *summary, Attendees: nonNil(attendees)}, nil
}

// GetArrivalsForEvent returns an event's arrival options with occupancy,
// earliest first. It needs no session.
func (s *EventService) GetArrivalsForEvent(ctx context.Context, eventID string) ([]model.ArrivalSummary, error) {
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalid(MsgEventNotFound)
		}
		return nil, internal("get event", err)
	}
	arrivals, err := s.store.ListArrivals(ctx, eventID)
	if err != nil {
		return nil, internal("list arrivals", err)
	}
	return nonNil(arrivals), nil
}

// SearchEvents matches term case-insensitively against "name @ location"
// of upcoming events. A blank term matches nothing.
func (s *EventService) SearchEvents(ctx context.Context, term string) ([]model.SearchHit, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []model.SearchHit{}, nil
	}
	hits, err := s.store.Search(ctx, term, s.now(), repository.SearchLimit)
	if err != nil {
		return nil, internal("search events", err)
	}
	return nonNil(hits), nil
}

// ListUserCreatedEvents returns the events the user published, newest first.
func (s *EventService) ListUserCreatedEvents(ctx context.Context, creds model.Credentials) ([]model.EventSummary, error) {
	if err := s.authenticate(ctx, "list created events", creds); err != nil {
		return nil, err
	}
	events, err := s.store.ListEventsByOwner(ctx, creds.UserID)
	if err != nil {
		return nil, internal("list created events", err)
	}
	return nonNil(events), nil
}

// ListUserReservations returns the user's reservations, newest first,
// canceled ones included.
func (s *EventService) ListUserReservations(ctx context.Context, creds model.Credentials) ([]model.EventSummary, error) {
	if err := s.authenticate(ctx, "list reservations", creds); err != nil {
		return nil, err
	}
	events, err := s.store.ListReservationHistory(ctx, creds.UserID)
	if err != nil {
		return nil, internal("list reservations", err)
	}
	return nonNil(events), nil
}

// ─── Mutations ────────────────────────────────────────────────────────────────

// CreateEvent validates spec and stores the event with its arrival
// options. It returns the new event id.
func (s *EventService) CreateEvent(ctx context.Context, creds model.Credentials, spec model.EventSpec) (string, error) {
	plan, err := s.planEvent(ctx, creds, spec)
	if err != nil {
		return "", err
	}
	var eventID string
	err = s.store.InTx(ctx, func(q repository.Queries) error {
		var err error
		eventID, err = s.createEvent(ctx, q, creds.UserID, plan)
		return err
	})
	if err != nil {
		return "", internal("create event", err)
	}
	s.log.Info("event created", "event_id", eventID, "user_id", creds.UserID, "arrivals", len(plan.Arrivals))
	s.publish(ctx, notify.EventCreated, notify.EventPayload{EventID: eventID, UserID: creds.UserID})
	return eventID, nil
}

// DeleteEvent removes an upcoming event the user owns, together with its
// arrival options and every reservation on them.
func (s *EventService) DeleteEvent(ctx context.Context, creds model.Credentials, eventID string) error {
	if err := s.authenticate(ctx, "delete event", creds, eventID); err != nil {
		return err
	}
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		if err := q.LockEvent(ctx, eventID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return internal("lock event", err)
		}
		if err := s.checkDelete(ctx, q, creds.UserID, eventID); err != nil {
			return err
		}
		if err := s.deleteEvent(ctx, q, eventID); err != nil {
			return internal("delete event", err)
		}
		return nil
	})
	if err != nil {
		return asServiceError("delete event", err)
	}
	s.log.Info("event deleted", "event_id", eventID, "user_id", creds.UserID)
	s.publish(ctx, notify.EventDeleted, notify.EventPayload{EventID: eventID, UserID: creds.UserID})
	return nil
}

// Reserve books the user onto one arrival option and returns the
// reservation id. The user and arrival rows stay locked from the first
// check until the insert commits, so two requests cannot both take the
// last seat.
func (s *EventService) Reserve(ctx context.Context, creds model.Credentials, arrivalID string) (string, error) {
	if err := s.authenticate(ctx, "reserve", creds, arrivalID); err != nil {
		return "", err
	}
	r := model.Reservation{
		ID:        s.newID(),
		UserID:    creds.UserID,
		ArrivalID: arrivalID,
	}
	var eventID string
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		if err := q.LockUser(ctx, creds.UserID); err != nil {
			return internal("lock user", err)
		}
		if err := q.LockArrival(ctx, arrivalID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return internal("lock arrival", err)
		}
		if err := s.checkReserve(ctx, q, creds.UserID, arrivalID); err != nil {
			return err
		}
		a, err := q.GetArrival(ctx, arrivalID)
		if err != nil {
			return internal("get arrival", err)
		}
		eventID = a.EventID
		r.CreatedAt = s.now()
		if err := q.InsertReservation(ctx, r); err != nil {
			return internal("insert reservation", err)
		}
		return nil
	})
	if err != nil {
		return "", asServiceError("reserve", err)
	}
	s.log.Info("reservation created", "reservation_id", r.ID, "user_id", r.UserID, "arrival_id", arrivalID)
	s.publish(ctx, notify.ReservationCreated, notify.ReservationPayload{
		ReservationID: r.ID,
		UserID:        r.UserID,
		ArrivalID:     arrivalID,
		EventID:       eventID,
	})
	return r.ID, nil
}

// Withdraw cancels every active reservation the user holds for the event.
func (s *EventService) Withdraw(ctx context.Context, creds model.Credentials, eventID string) error {
	if err := s.authenticate(ctx, "withdraw", creds, eventID); err != nil {
		return err
	}
	var canceled int64
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		if err := q.LockUser(ctx, creds.UserID); err != nil {
			return internal("lock user", err)
		}
		if err := s.checkWithdraw(ctx, q, creds.UserID, eventID); err != nil {
			return err
		}
		var err error
		if canceled, err = q.CancelReservations(ctx, creds.UserID, eventID); err != nil {
			return internal("cancel reservations", err)
		}
		return nil
	})
	if err != nil {
		return asServiceError("withdraw", err)
	}
	s.log.Info("reservation withdrawn", "event_id", eventID, "user_id", creds.UserID, "canceled", canceled)
	s.publish(ctx, notify.ReservationWithdrawn, notify.WithdrawalPayload{
		UserID:   creds.UserID,
		EventID:  eventID,
		Canceled: canceled,
	})
	return nil
}

// publish hands a committed change to the publisher. Failures are logged
// and never undo the change.
func (s *EventService) publish(ctx context.Context, key string, payload any) {
	if err := s.pub.PublishJSON(ctx, key, payload); err != nil {
		s.log.Warn("publish domain event", "key", key, "err", err)
	}
}

// asServiceError keeps service errors raised inside a transaction and
// classifies anything else, such as a failed commit, as internal.
func asServiceError(op string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return internal(op, err)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
