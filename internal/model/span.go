package model

import "time"

// Span is the window a reservation occupies: from the chosen arrival time
// until the event ends.
type Span struct {
	Arrival time.Time
	End     time.Time
}

// Overlaps reports whether two spans intersect. Back-to-back spans, where
// one ends exactly when the other's arrival begins, do not overlap.
func (s Span) Overlaps(other Span) bool {
	disjoint := !s.End.After(other.Arrival) || !other.End.After(s.Arrival)
	return !disjoint
}
