package repository

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/eventure/internal/model"
)

// Memory is an in-process Store holding the same four relations as the
// PostgreSQL schema. InTx calls are serialised one at a time; plain reads
// outside a transaction are not. A failing transaction keeps the writes it
// already made, so callers must validate before they write.
type Memory struct {
	txMu sync.Mutex

	mu           sync.RWMutex
	users        map[string]model.User
	emails       map[string]string
	events       map[string]model.Event
	arrivals     map[string]model.ArrivalOption
	reservations []model.Reservation
}

var _ Store = (*Memory)(nil)

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:    make(map[string]model.User),
		emails:   make(map[string]string),
		events:   make(map[string]model.Event),
		arrivals: make(map[string]model.ArrivalOption),
	}
}

// InTx runs fn while holding the store-wide transaction lock.
func (m *Memory) InTx(ctx context.Context, fn func(q Queries) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(m)
}

func (m *Memory) CreateUser(_ context.Context, u model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.emails[u.Email]; ok {
		return ErrDuplicateEmail
	}
	if _, ok := m.users[u.ID]; ok {
		return fmt.Errorf("insert user: duplicate id %q", u.ID)
	}
	u.SessionToken = nil
	m.users[u.ID] = u
	m.emails[u.Email] = u.ID
	return nil
}

func (m *Memory) GetUserByID(_ context.Context, userID string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(u), nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.emails[email]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(m.users[id]), nil
}

func copyUser(u model.User) *model.User {
	if u.SessionToken != nil {
		t := *u.SessionToken
		u.SessionToken = &t
	}
	return &u
}

func (m *Memory) SetSessionToken(_ context.Context, userID string, token *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	if token != nil {
		t := *token
		token = &t
	}
	u.SessionToken = token
	m.users[userID] = u
	return nil
}

func (m *Memory) InsertEvent(_ context.Context, e model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[e.OwnerID]; !ok {
		return fmt.Errorf("insert event: owner %q: %w", e.OwnerID, ErrNotFound)
	}
	if _, ok := m.events[e.ID]; ok {
		return fmt.Errorf("insert event: duplicate id %q", e.ID)
	}
	m.events[e.ID] = e
	return nil
}

func (m *Memory) InsertArrival(_ context.Context, a model.ArrivalOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[a.EventID]; !ok {
		return fmt.Errorf("insert arrival: event %q: %w", a.EventID, ErrNotFound)
	}
	if _, ok := m.arrivals[a.ID]; ok {
		return fmt.Errorf("insert arrival: duplicate id %q", a.ID)
	}
	m.arrivals[a.ID] = a
	return nil
}

func (m *Memory) GetEvent(_ context.Context, eventID string) (*model.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.events[eventID]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (m *Memory) GetArrival(_ context.Context, arrivalID string) (*model.ArrivalOption, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.arrivals[arrivalID]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (m *Memory) DeleteEventReservations(_ context.Context, eventID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	before := len(m.reservations)
	m.reservations = slices.DeleteFunc(m.reservations, func(r model.Reservation) bool {
		return m.arrivals[r.ArrivalID].EventID == eventID
	})
	return int64(before - len(m.reservations)), nil
}

func (m *Memory) DeleteEventArrivals(_ context.Context, eventID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reservations {
		if m.arrivals[r.ArrivalID].EventID == eventID {
			return 0, fmt.Errorf("delete arrivals: arrival %q still has reservations", r.ArrivalID)
		}
	}
	var n int64
	for id, a := range m.arrivals {
		if a.EventID == eventID {
			delete(m.arrivals, id)
			n++
		}
	}
	return n, nil
}

func (m *Memory) DeleteEvent(_ context.Context, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[eventID]; !ok {
		return ErrNotFound
	}
	for _, a := range m.arrivals {
		if a.EventID == eventID {
			return fmt.Errorf("delete event: arrival %q still exists", a.ID)
		}
	}
	delete(m.events, eventID)
	return nil
}

func (m *Memory) ArrivalOccupancy(_ context.Context, arrivalID string) (model.Occupancy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.arrivals[arrivalID]
	if !ok {
		return model.Occupancy{}, ErrNotFound
	}
	return model.Occupancy{Filled: m.filledLocked(arrivalID), Capacity: a.Capacity}, nil
}

func (m *Memory) EventOccupancy(_ context.Context, eventID string) (model.Occupancy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.events[eventID]; !ok {
		return model.Occupancy{}, ErrNotFound
	}
	return m.eventOccupancyLocked(eventID), nil
}

func (m *Memory) filledLocked(arrivalID string) int {
	n := 0
	for _, r := range m.reservations {
		if r.ArrivalID == arrivalID && !r.Canceled {
			n++
		}
	}
	return n
}

func (m *Memory) eventArrivalsLocked(eventID string) []model.ArrivalOption {
	var out []model.ArrivalOption
	for _, a := range m.arrivals {
		if a.EventID == eventID {
			out = append(out, a)
		}
	}
	slices.SortFunc(out, func(x, y model.ArrivalOption) int {
		if c := x.ArrivalTime.Compare(y.ArrivalTime); c != 0 {
			return c
		}
		return cmp.Compare(x.ID, y.ID)
	})
	return out
}

func (m *Memory) eventOccupancyLocked(eventID string) model.Occupancy {
	var o model.Occupancy
	var capacities []int
	for _, a := range m.eventArrivalsLocked(eventID) {
		o.Filled += m.filledLocked(a.ID)
		capacities = append(capacities, a.Capacity)
	}
	o.Capacity = model.EffectiveCapacity(capacities...)
	return o
}

func (m *Memory) InsertReservation(_ context.Context, r model.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[r.UserID]; !ok {
		return fmt.Errorf("insert reservation: user %q: %w", r.UserID, ErrNotFound)
	}
	if _, ok := m.arrivals[r.ArrivalID]; !ok {
		return fmt.Errorf("insert reservation: arrival %q: %w", r.ArrivalID, ErrNotFound)
	}
	m.reservations = append(m.reservations, r)
	return nil
}

func (m *Memory) ActiveBookings(_ context.Context, userID string) ([]model.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Booking
	for _, r := range m.sortedReservationsLocked(false) {
		if r.UserID != userID || r.Canceled {
			continue
		}
		a := m.arrivals[r.ArrivalID]
		e := m.events[a.EventID]
		out = append(out, model.Booking{
			ReservationID: r.ID,
			ArrivalID:     a.ID,
			EventID:       e.ID,
			EventName:     e.Name,
			Location:      e.Location,
			ArrivalTime:   a.ArrivalTime,
			EventEnd:      e.EndTime,
		})
	}
	return out, nil
}

func (m *Memory) HasActiveReservation(_ context.Context, userID, eventID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.registeredLocked(userID, eventID), nil
}

func (m *Memory) registeredLocked(userID, eventID string) bool {
	for _, r := range m.reservations {
		if r.UserID == userID && !r.Canceled && m.arrivals[r.ArrivalID].EventID == eventID {
			return true
		}
	}
	return false
}

func (m *Memory) CancelReservations(_ context.Context, userID, eventID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i, r := range m.reservations {
		if r.UserID == userID && !r.Canceled && m.arrivals[r.ArrivalID].EventID == eventID {
			m.reservations[i].Canceled = true
			n++
		}
	}
	return n, nil
}

// sortedReservationsLocked orders reservations by creation time, oldest
// first unless newest is set; ids break ties.
func (m *Memory) sortedReservationsLocked(newest bool) []model.Reservation {
	out := slices.Clone(m.reservations)
	slices.SortStableFunc(out, func(x, y model.Reservation) int {
		c := x.CreatedAt.Compare(y.CreatedAt)
		if newest {
			c = -c
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(x.ID, y.ID)
	})
	return out
}

func (m *Memory) summaryLocked(viewerID string, e model.Event) model.EventSummary {
	o := m.eventOccupancyLocked(e.ID)
	return model.EventSummary{
		EventID:      e.ID,
		Name:         e.Name,
		Location:     e.Location,
		Host:         e.Host,
		Filled:       o.Filled,
		Capacity:     o.Capacity,
		StartTime:    e.StartTime,
		EndTime:      e.EndTime,
		Description:  e.Description,
		IsRegistered: m.registeredLocked(viewerID, e.ID),
	}
}

func (m *Memory) ListEvents(_ context.Context, viewerID string, filter model.EventFilter, now time.Time) ([]model.EventSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var events []model.Event
	for _, e := range m.events {
		if e.EndTime.After(now) {
			events = append(events, e)
		}
	}
	slices.SortFunc(events, func(x, y model.Event) int {
		if c := x.StartTime.Compare(y.StartTime); c != 0 {
			return c
		}
		return cmp.Compare(x.ID, y.ID)
	})

	var out []model.EventSummary
	for _, e := range events {
		s := m.summaryLocked(viewerID, e)
		switch filter {
		case model.FilterOpen:
			if len(m.eventArrivalsLocked(e.ID)) == 0 || s.Occupancy().Full() {
				continue
			}
		case model.FilterUnregistered:
			if s.IsRegistered {
				continue
			}
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *Memory) GetEventSummary(_ context.Context, viewerID, eventID string) (*model.EventSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.events[eventID]
	if !ok {
		return nil, ErrNotFound
	}
	s := m.summaryLocked(viewerID, e)
	return &s, nil
}

func (m *Memory) ListEventsByOwner(_ context.Context, ownerID string) ([]model.EventSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var events []model.Event
	for _, e := range m.events {
		if e.OwnerID == ownerID {
			events = append(events, e)
		}
	}
	slices.SortFunc(events, func(x, y model.Event) int {
		if c := y.CreatedAt.Compare(x.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(x.ID, y.ID)
	})

	out := make([]model.EventSummary, 0, len(events))
	for _, e := range events {
		out = append(out, m.summaryLocked(ownerID, e))
	}
	return out, nil
}

func (m *Memory) ListReservationHistory(_ context.Context, userID string) ([]model.EventSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.EventSummary
	for _, r := range m.sortedReservationsLocked(true) {
		if r.UserID != userID {
			continue
		}
		e := m.events[m.arrivals[r.ArrivalID].EventID]
		s := m.summaryLocked(userID, e)
		s.ReservationID = r.ID
		s.IsRegistered = !r.Canceled
		out = append(out, s)
	}
	return out, nil
}

func (m *Memory) ListArrivals(_ context.Context, eventID string) ([]model.ArrivalSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.ArrivalSummary
	for _, a := range m.eventArrivalsLocked(eventID) {
		out = append(out, model.ArrivalSummary{
			ArrivalID:   a.ID,
			ArrivalTime: a.ArrivalTime,
			Filled:      m.filledLocked(a.ID),
			Capacity:    a.Capacity,
		})
	}
	return out, nil
}

func (m *Memory) ListAttendees(_ context.Context, eventID string) ([]model.Attendee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.Attendee
	for _, r := range m.reservations {
		a := m.arrivals[r.ArrivalID]
		if r.Canceled || a.EventID != eventID {
			continue
		}
		u := m.users[r.UserID]
		out = append(out, model.Attendee{Username: u.Username, Picture: u.Picture, ArrivalTime: a.ArrivalTime})
	}
	slices.SortStableFunc(out, func(x, y model.Attendee) int {
		return cmp.Compare(x.Username, y.Username)
	})
	return out, nil
}

func (m *Memory) Search(_ context.Context, term string, now time.Time, limit int) ([]model.SearchHit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(term)
	var events []model.Event
	for _, e := range m.events {
		if e.EndTime.After(now) && strings.Contains(strings.ToLower(e.Label()), needle) {
			events = append(events, e)
		}
	}
	slices.SortFunc(events, func(x, y model.Event) int {
		if c := x.StartTime.Compare(y.StartTime); c != 0 {
			return c
		}
		return cmp.Compare(x.ID, y.ID)
	})
	if len(events) > limit {
		events = events[:limit]
	}

	out := make([]model.SearchHit, 0, len(events))
	for _, e := range events {
		out = append(out, model.SearchHit{EventID: e.ID, Name: e.Name, Location: e.Location})
	}
	return out, nil
}

func (m *Memory) LockUser(_ context.Context, userID string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.users[userID]; !ok {
		return ErrNotFound
	}
	return nil
}

func (m *Memory) LockArrival(_ context.Context, arrivalID string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.arrivals[arrivalID]; !ok {
		return ErrNotFound
	}
	return nil
}

func (m *Memory) LockEvent(_ context.Context, eventID string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.events[eventID]; !ok {
		return ErrNotFound
	}
	return nil
}
