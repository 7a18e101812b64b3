package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/eventure/internal/notify"
)

func TestDeleteEventRemovesEverything(t *testing.T) {
	h := newHarness(t)
	owner := h.signIn("owner")
	guest := h.signIn("guest")

	eventID, arrivals := h.createEvent(owner, eventSpec("Gala",
		"2030-01-02T18:00:00Z", "2030-01-02T23:00:00Z",
		arrival("2030-01-02T18:00:00Z", "10"),
		arrival("2030-01-02T19:00:00Z", "-1"),
	))
	keepID, keepArrivals := h.createEvent(owner, eventSpec("Brunch",
		"2030-01-03T10:00:00Z", "2030-01-03T12:00:00Z", arrival("2030-01-03T10:00:00Z", "5")))
	_, err := h.svc.Reserve(h.ctx, guest, arrivals[1])
	require.NoError(t, err)
	_, err = h.svc.Reserve(h.ctx, guest, keepArrivals[0])
	require.NoError(t, err)

	require.NoError(t, h.svc.DeleteEvent(h.ctx, owner, eventID))

	_, err = h.svc.GetEvent(h.ctx, guest, eventID)
	requireMessage(t, err, KindInvalid, MsgEventNotFound)
	_, err = h.svc.GetArrivalsForEvent(h.ctx, eventID)
	requireMessage(t, err, KindInvalid, MsgEventNotFound)
	for _, id := range arrivals {
		_, err = h.svc.ArrivalOccupancy(h.ctx, id)
		requireMessage(t, err, KindInvalid, MsgArrivalNotFound)
		_, err = h.svc.Reserve(h.ctx, guest, id)
		requireMessage(t, err, KindInvalid, MsgArrivalNotFound)
	}
	requireMessage(t, h.svc.Withdraw(h.ctx, guest, eventID), KindInvalid, MsgEventNotFound)

	history, err := h.svc.ListUserReservations(h.ctx, guest)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, keepID, history[0].EventID)

	requireMessage(t, h.svc.DeleteEvent(h.ctx, owner, eventID), KindInvalid, MsgEventNotFound)
	assert.Contains(t, h.pub.published(), notify.EventDeleted)
}

func TestDeleteEventPrecedence(t *testing.T) {
	h := newHarness(t)
	owner := h.signIn("owner")
	intruder := h.signIn("intruder")

	eventID, _ := h.createEvent(owner, eventSpec("Meetup",
		"2030-01-02T18:00:00Z", "2030-01-02T20:00:00Z", arrival("2030-01-02T18:00:00Z", "10")))

	requireMessage(t, h.svc.DeleteEvent(h.ctx, owner, "missing"), KindInvalid, MsgEventNotFound)
	requireMessage(t, h.svc.ValidateDeleteEvent(h.ctx, intruder, eventID), KindInvalid, MsgNotOwner)
	requireMessage(t, h.svc.DeleteEvent(h.ctx, intruder, eventID), KindInvalid, MsgNotOwner)

	// An event that is running but not over can still be deleted.
	h.advance(31 * time.Hour)
	require.NoError(t, h.svc.ValidateDeleteEvent(h.ctx, owner, eventID))

	// Ownership is checked before futurity.
	h.advance(2 * time.Hour)
	requireMessage(t, h.svc.DeleteEvent(h.ctx, intruder, eventID), KindInvalid, MsgNotOwner)
	requireMessage(t, h.svc.DeleteEvent(h.ctx, owner, eventID), KindInvalid, MsgDeletePast)

	created, err := h.svc.ListUserCreatedEvents(h.ctx, owner)
	require.NoError(t, err)
	assert.Len(t, created, 1, "failed deletes leave the event in place")
}
