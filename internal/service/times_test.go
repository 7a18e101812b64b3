package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInstant(t *testing.T) {
	berlin := time.FixedZone("CET", 3600)

	tests := []struct {
		in   string
		want time.Time
	}{
		{"2030-01-02T10:00:00Z", time.Date(2030, 1, 2, 10, 0, 0, 0, time.UTC)},
		{"2030-01-02T10:00:00.250Z", time.Date(2030, 1, 2, 10, 0, 0, 250_000_000, time.UTC)},
		{"2030-01-02T10:00Z", time.Date(2030, 1, 2, 10, 0, 0, 0, time.UTC)},
		{"2030-01-02T11:00:00+01:00", time.Date(2030, 1, 2, 10, 0, 0, 0, time.UTC)},
		{"2030-01-02T10:00:00", time.Date(2030, 1, 2, 10, 0, 0, 0, berlin)},
		{"2030-01-02T10:00", time.Date(2030, 1, 2, 10, 0, 0, 0, berlin)},
		{"2030-01-02 10:00:30", time.Date(2030, 1, 2, 10, 0, 30, 0, berlin)},
		{"2030-01-02 10:00", time.Date(2030, 1, 2, 10, 0, 0, 0, berlin)},
		{"2030-01-02", time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"+010000-01-01T00:00:00Z", time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"+012024-02-29T08:00:00Z", time.Date(12024, 2, 29, 8, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseInstant(tt.in, berlin)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %v, got %v", tt.want, got)
		})
	}

	for _, bad := range []string{"", "tomorrow", "2030-02-30T10:00:00Z", "10:00", "2030/01/02 10:00", "+10000-01-01T00:00:00Z"} {
		_, err := parseInstant(bad, berlin)
		assert.Error(t, err, "%q", bad)
	}
}

func TestKeyOfIgnoresLocation(t *testing.T) {
	utc := time.Date(2030, 1, 2, 10, 0, 0, 0, time.UTC)
	plusOne := utc.In(time.FixedZone("", 3600))
	assert.Equal(t, keyOf(utc), keyOf(plusOne))
	assert.NotEqual(t, keyOf(utc), keyOf(utc.Add(time.Nanosecond)))
}
