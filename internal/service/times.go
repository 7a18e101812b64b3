package service

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"
)

// zonedLayouts carry their own offset; localLayouts are read in the
// service's configured location.
var (
	zonedLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04Z07:00"}
	localLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02 15:04",
	}
)

// expandedYear matches ISO 8601 expanded years such as +010000-01-01T00:00Z.
var expandedYear = regexp.MustCompile(`^([+-]\d{6})(-\d{2}-\d{2}(?:[T ].*)?)$`)

// capacityPattern accepts -1 or a positive integer without leading zeros.
var capacityPattern = regexp.MustCompile(`^-1$|^[1-9]\d*$`)

// parseInstant parses an event or arrival timestamp. A bare date is
// midnight UTC.
func parseInstant(s string, loc *time.Location) (time.Time, error) {
	if m := expandedYear.FindStringSubmatch(s); m != nil {
		year, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, err
		}
		// 2000 is a leap year, so Feb 29 parses before the real year is put back.
		t, err := parseInstant("2000"+m[2], loc)
		if err != nil {
			return time.Time{}, err
		}
		return time.Date(year, t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location()), nil
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}

// parseCapacity accepts "-1" or a positive integer that fits a 32-bit
// column.
func parseCapacity(s string) (int, bool) {
	if !capacityPattern.MatchString(s) {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n > math.MaxInt32 {
		return 0, false
	}
	return n, true
}

// instantKey identifies an instant independent of its location.
type instantKey struct {
	sec  int64
	nsec int
}

func keyOf(t time.Time) instantKey {
	return instantKey{sec: t.Unix(), nsec: t.Nanosecond()}
}
