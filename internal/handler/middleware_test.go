package handler

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/eventure/internal/model"
)

func TestRateLimiterPerKey(t *testing.T) {
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 2)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"), "buckets are independent")

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("a"), "one token refilled")
	assert.False(t, rl.Allow("a"))
}

func TestRateLimiterDropsIdleBuckets(t *testing.T) {
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 1)
	rl.now = func() time.Time { return now }
	rl.idleTTL = time.Minute

	rl.Allow("a")
	rl.Allow("b")
	require.Len(t, rl.buckets, 2)

	now = now.Add(30 * time.Second)
	rl.Allow("b")

	now = now.Add(45 * time.Second)
	rl.Allow("c")
	assert.Len(t, rl.buckets, 2)
	assert.NotContains(t, rl.buckets, "a")
	assert.Contains(t, rl.buckets, "b")
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.7:51234"
	assert.Equal(t, "10.0.0.7", clientIP(r))

	r.RemoteAddr = "10.0.0.7"
	assert.Equal(t, "10.0.0.7", clientIP(r))
}

func TestCORSPreflight(t *testing.T) {
	called := false
	h := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/user/reserve", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.False(t, called)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/user/reserve", nil))
	assert.True(t, called)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestLoggerRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	h := Logger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/brew", nil))
	assert.Contains(t, buf.String(), "status=418")
	assert.Contains(t, buf.String(), "path=/brew")
}

func TestParseEventSpec(t *testing.T) {
	for _, raw := range []string{"", "null", `""`, "  "} {
		_, ok, err := parseEventSpec([]byte(raw))
		require.NoError(t, err, raw)
		assert.False(t, ok, raw)
	}

	spec, ok, err := parseEventSpec([]byte(`{"name":"Gig","arrivals":[{"arrivalTime":"x","capacity":"-1"}]}`))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Gig", spec.Name)
	require.Len(t, spec.Arrivals, 1)
	assert.Equal(t, model.CapacityText("-1"), spec.Arrivals[0].Capacity)

	spec, ok, err = parseEventSpec([]byte(`"{\"name\":\"Gig\"}"`))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Gig", spec.Name)

	_, _, err = parseEventSpec([]byte(`{"name":`))
	assert.Error(t, err)
}
