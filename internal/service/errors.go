package service

import (
	"errors"
	"fmt"
)

// User-facing messages. Callers and tests match on these exact strings.
const (
	MsgMissing           = "Missing required parameters"
	MsgDenied            = "Access denied. Please sign in again"
	MsgInvalidSession    = "Invalid session token"
	MsgInternal          = "Something went wrong. Please try again"
	MsgUnknownFilter     = "Unrecognized filter"
	MsgPasswordTooLong   = "Password must be at most 72 bytes"
	MsgUnparsableTimes   = "Unable to parse provided times"
	MsgMyriad            = "Event must start in this myriad"
	MsgPastStart         = "Event cannot start at a past date or time"
	MsgStartNotBeforeEnd = "Event start time must be earlier than the event end time"
	MsgTooLong           = "Event duration must be less than 24 hours"
	MsgArrivalOutside    = "Arrival time must be within the event times"
	MsgDuplicateArrival  = "Arrival times cannot be identical"
	MsgBadCapacity       = "Capacity must either be a positive integer or -1 for infinite capacity"
	MsgEventNotFound     = "Event does not exist"
	MsgNotOwner          = "You do not have permission to delete this event. It belongs to another user"
	MsgDeletePast        = "Unable to delete a past event"
	MsgArrivalNotFound   = "Arrival time does not exist"
	MsgReservePast       = "Unable to register for a past event"
	MsgAlreadyRegistered = "Already registered for event"
	MsgFullyBooked       = "Arrival time is fully booked"
	MsgNotRegistered     = "Not registered for this event"
	MsgWithdrawPast      = "Unable to withdraw from a past event"
)

// ConflictMessage names the already reserved event that overlaps.
func ConflictMessage(label string) string {
	return fmt.Sprintf("You have already reserved '%s' for this time. "+
		"Please withdraw or update your arrival time before proceeding", label)
}

// EmailInUseMessage rejects a sign-up with a taken email.
func EmailInUseMessage(email string) string {
	return fmt.Sprintf("'%s' is already in use", email)
}

// Kind classifies a failed operation for the calling layer.
type Kind int

const (
	// KindInvalid covers malformed input, business-rule violations and
	// unknown ids.
	KindInvalid Kind = iota + 1
	// KindDenied covers bad credentials or session tokens.
	KindDenied
	// KindInternal covers store and infrastructure faults.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindDenied:
		return "denied"
	case KindInternal:
		return "internal"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is the single error type the service returns. Msg is safe to show
// to users; Err holds the internal cause and is only for logs.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func invalid(msg string) *Error { return &Error{Kind: KindInvalid, Msg: msg} }

func denied(msg string) *Error { return &Error{Kind: KindDenied, Msg: msg} }

func internal(op string, err error) *Error {
	return &Error{Kind: KindInternal, Msg: MsgInternal, Err: fmt.Errorf("%s: %w", op, err)}
}

// KindOf returns the classification of err. Errors that did not come from
// the service count as internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the user-facing message for err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return MsgInternal
}
