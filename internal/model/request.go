package model

import (
	"bytes"
	"encoding/json"
)

// EventSpec is the raw, unvalidated payload for creating an event. Times
// and capacities stay strings until validation parses them.
type EventSpec struct {
	Name        string        `json:"name"`
	Location    string        `json:"location"`
	Host        string        `json:"host"`
	StartTime   string        `json:"startTime"`
	EndTime     string        `json:"endTime"`
	Description string        `json:"description"`
	Arrivals    []ArrivalSpec `json:"arrivals"`
}

// ArrivalSpec is one requested arrival option.
type ArrivalSpec struct {
	ArrivalTime string       `json:"arrivalTime"`
	Capacity    CapacityText `json:"capacity"`
}

// CapacityText holds a capacity exactly as the client sent it. Clients send
// either a JSON number or a string; both are kept as text so validation sees
// "01" or "1.5" as written.
type CapacityText string

// UnmarshalJSON accepts a JSON string, a JSON number or null.
func (c *CapacityText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*c = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = CapacityText(s)
		return nil
	default:
		*c = CapacityText(b)
		return nil
	}
}
