package service

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/eventure/internal/model"
	"github.com/Shivanand-hulikatti/eventure/internal/notify"
)

func TestReserveLastSeatEndToEnd(t *testing.T) {
	h := newHarness(t)
	owner := h.signIn("owner")
	first := h.signIn("first")
	second := h.signIn("second")
	third := h.signIn("third")

	eventID, arrivals := h.createEvent(owner, eventSpec("Workshop",
		"2030-01-02T10:00:00Z", "2030-01-02T12:00:00Z", arrival("2030-01-02T10:00:00Z", "1")))
	require.Len(t, arrivals, 1)

	id, err := h.svc.Reserve(h.ctx, first, arrivals[0])
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = h.svc.Reserve(h.ctx, second, arrivals[0])
	requireMessage(t, err, KindInvalid, MsgFullyBooked)

	require.NoError(t, h.svc.Withdraw(h.ctx, first, eventID))

	id3, err := h.svc.Reserve(h.ctx, third, arrivals[0])
	require.NoError(t, err)
	assert.NotEqual(t, id, id3)

	o, err := h.svc.ArrivalOccupancy(h.ctx, arrivals[0])
	require.NoError(t, err)
	assert.Equal(t, model.Occupancy{Filled: 1, Capacity: 1}, o)

	assert.Equal(t, []string{
		notify.EventCreated,
		notify.ReservationCreated,
		notify.ReservationWithdrawn,
		notify.ReservationCreated,
	}, h.pub.published())
}

func TestReserveNeverOverfills(t *testing.T) {
	h := newHarness(t)
	owner := h.signIn("owner")
	_, arrivals := h.createEvent(owner, eventSpec("Concert",
		"2030-01-02T18:00:00Z", "2030-01-02T22:00:00Z", arrival("2030-01-02T18:00:00Z", "3")))

	const guests = 12
	creds := make([]model.Credentials, guests)
	for i := range creds {
		creds[i] = h.signIn(fmt.Sprintf("guest%02d", i))
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		full    int
		unknown []error
	)
	for _, c := range creds {
		wg.Add(1)
		go func(c model.Credentials) {
			defer wg.Done()
			_, err := h.svc.Reserve(h.ctx, c, arrivals[0])
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case MessageOf(err) == MsgFullyBooked:
				full++
			default:
				unknown = append(unknown, err)
			}
		}(c)
	}
	wg.Wait()

	assert.Empty(t, unknown)
	assert.Equal(t, 3, ok)
	assert.Equal(t, guests-3, full)

	o, err := h.svc.ArrivalOccupancy(h.ctx, arrivals[0])
	require.NoError(t, err)
	assert.Equal(t, model.Occupancy{Filled: 3, Capacity: 3}, o)
}

func TestReservePrecedence(t *testing.T) {
	h := newHarness(t)
	owner := h.signIn("owner")
	guest := h.signIn("guest")
	other := h.signIn("other")

	// Two arrivals on one event, one seat each.
	_, twoSlots := h.createEvent(owner, eventSpec("Morning",
		"2030-01-02T09:00:00Z", "2030-01-02T10:00:00Z",
		arrival("2030-01-02T09:00:00Z", "1"),
		arrival("2030-01-02T09:30:00Z", "1"),
	))
	// Overlaps Morning and is full.
	_, fullOverlap := h.createEvent(owner, eventSpec("Brunch",
		"2030-01-02T09:30:00Z", "2030-01-02T11:00:00Z", arrival("2030-01-02T09:30:00Z", "1")))

	_, err := h.svc.Reserve(h.ctx, other, fullOverlap[0])
	require.NoError(t, err)

	_, err = h.svc.Reserve(h.ctx, guest, "no-such-arrival")
	requireMessage(t, err, KindInvalid, MsgArrivalNotFound)

	_, err = h.svc.Reserve(h.ctx, guest, twoSlots[0])
	require.NoError(t, err)

	// Same event, other slot: duplicate wins over the overlap with itself.
	_, err = h.svc.Reserve(h.ctx, guest, twoSlots[1])
	requireMessage(t, err, KindInvalid, MsgAlreadyRegistered)

	// Full and conflicting: full wins.
	_, err = h.svc.Reserve(h.ctx, guest, fullOverlap[0])
	requireMessage(t, err, KindInvalid, MsgFullyBooked)

	// Past event wins over already registered.
	h.advance(48 * time.Hour)
	_, err = h.svc.Reserve(h.ctx, guest, twoSlots[1])
	requireMessage(t, err, KindInvalid, MsgReservePast)
}

func TestConflictSymmetry(t *testing.T) {
	h := newHarness(t)
	owner := h.signIn("owner")
	alice := h.signIn("alice")
	bob := h.signIn("bob")

	_, a := h.createEvent(owner, eventSpec("A",
		"2030-01-02T09:00:00Z", "2030-01-02T10:00:00Z", arrival("2030-01-02T09:00:00Z", "10")))
	_, b := h.createEvent(owner, eventSpec("B",
		"2030-01-02T09:30:00Z", "2030-01-02T10:30:00Z", arrival("2030-01-02T09:30:00Z", "10")))

	_, err := h.svc.Reserve(h.ctx, alice, a[0])
	require.NoError(t, err)
	_, err = h.svc.Reserve(h.ctx, alice, b[0])
	requireMessage(t, err, KindInvalid, ConflictMessage("A @ Hall"))

	_, err = h.svc.Reserve(h.ctx, bob, b[0])
	require.NoError(t, err)
	_, err = h.svc.Reserve(h.ctx, bob, a[0])
	requireMessage(t, err, KindInvalid, ConflictMessage("B @ Hall"))

	label, err := h.svc.FindConflict(h.ctx, alice.UserID, b[0])
	require.NoError(t, err)
	assert.Equal(t, "A @ Hall", label)
}

func TestBackToBackIsNotAConflict(t *testing.T) {
	h := newHarness(t)
	owner := h.signIn("owner")
	guest := h.signIn("guest")

	_, a := h.createEvent(owner, eventSpec("A",
		"2030-01-02T09:00:00Z", "2030-01-02T10:00:00Z", arrival("2030-01-02T09:00:00Z", "10")))
	_, b := h.createEvent(owner, eventSpec("B",
		"2030-01-02T09:30:00Z", "2030-01-02T11:00:00Z", arrival("2030-01-02T10:00:00Z", "10")))

	_, err := h.svc.Reserve(h.ctx, guest, a[0])
	require.NoError(t, err)
	_, err = h.svc.Reserve(h.ctx, guest, b[0])
	assert.NoError(t, err, "B's arrival at 10:00 starts when A ends")

	label, err := h.svc.FindConflict(h.ctx, guest.UserID, a[0])
	require.NoError(t, err)
	assert.Equal(t, "A @ Hall", label, "the detector alone does not exclude the candidate's own event")
}

func TestFirstOverlap(t *testing.T) {
	at := func(hhmm string) time.Time {
		t, _ := time.Parse("15:04", hhmm)
		return t
	}
	bookings := []model.Booking{
		{EventName: "Early", Location: "X", ArrivalTime: at("07:00"), EventEnd: at("08:00")},
		{EventName: "Mid", Location: "Y", ArrivalTime: at("09:00"), EventEnd: at("11:00")},
		{EventName: "Late", Location: "Z", ArrivalTime: at("10:00"), EventEnd: at("12:00")},
	}

	b, ok := firstOverlap(model.Span{Arrival: at("10:30"), End: at("13:00")}, bookings)
	require.True(t, ok)
	assert.Equal(t, "Mid @ Y", b.Label(), "first in store order")

	_, ok = firstOverlap(model.Span{Arrival: at("08:00"), End: at("09:00")}, bookings)
	assert.False(t, ok)

	_, ok = firstOverlap(model.Span{Arrival: at("08:00"), End: at("09:00")}, nil)
	assert.False(t, ok)
}

func TestWithdraw(t *testing.T) {
	h := newHarness(t)
	owner := h.signIn("owner")
	guest := h.signIn("guest")
	eventID, arrivals := h.createEvent(owner, eventSpec("Dinner",
		"2030-01-02T18:00:00Z", "2030-01-02T20:00:00Z", arrival("2030-01-02T18:00:00Z", "4")))

	requireMessage(t, h.svc.Withdraw(h.ctx, guest, "missing"), KindInvalid, MsgEventNotFound)
	requireMessage(t, h.svc.Withdraw(h.ctx, guest, eventID), KindInvalid, MsgNotRegistered)

	_, err := h.svc.Reserve(h.ctx, guest, arrivals[0])
	require.NoError(t, err)
	require.NoError(t, h.svc.Withdraw(h.ctx, guest, eventID))
	requireMessage(t, h.svc.Withdraw(h.ctx, guest, eventID), KindInvalid, MsgNotRegistered)

	history, err := h.svc.ListUserReservations(h.ctx, guest)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.False(t, history[0].IsRegistered)

	// Withdrawn users may book again.
	_, err = h.svc.Reserve(h.ctx, guest, arrivals[0])
	require.NoError(t, err)

	h.advance(72 * time.Hour)
	requireMessage(t, h.svc.Withdraw(h.ctx, guest, eventID), KindInvalid, MsgWithdrawPast)
	requireMessage(t, h.svc.Withdraw(h.ctx, owner, eventID), KindInvalid, MsgNotRegistered)
}
