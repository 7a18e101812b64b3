package model

// Unlimited is the stored capacity of an arrival option without a seat limit.
const Unlimited = -1

// Occupancy is the live filled/capacity pair of an arrival option or event.
type Occupancy struct {
	Filled   int `json:"filled"`
	Capacity int `json:"capacity"`
}

// Full reports whether no seat is left. Only an exact match counts, so an
// unlimited scope is never full.
func (o Occupancy) Full() bool {
	return o.Filled == o.Capacity
}

// Unlimited reports whether the scope has no seat limit.
func (o Occupancy) Unlimited() bool {
	return o.Capacity < 0
}

// Remaining returns the number of open seats, or Unlimited.
func (o Occupancy) Remaining() int {
	if o.Unlimited() {
		return Unlimited
	}
	if o.Filled >= o.Capacity {
		return 0
	}
	return o.Capacity - o.Filled
}

// EffectiveCapacity aggregates the capacities of an event's arrival
// options: Unlimited if any option is unlimited, otherwise the sum.
func EffectiveCapacity(capacities ...int) int {
	total := 0
	for _, c := range capacities {
		if c < 0 {
			return Unlimited
		}
		total += c
	}
	return total
}
