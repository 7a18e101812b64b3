package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TIMEZONE", "UTC")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, StorePostgres, c.Store)
	assert.Equal(t, 12, c.BcryptCost)
	assert.Equal(t, 5.0, c.RateLimitRPS)
	assert.Equal(t, 10, c.RateLimitBurst)
	assert.Equal(t, "eventure.events", c.EventExchange)
	assert.Equal(t, int32(20), c.DB.MaxConns)
	assert.Equal(t, "host=localhost port=5432 user=postgres password=postgres dbname=eventure sslmode=disable", c.DB.DSN())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE", "memory")
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/ev")
	t.Setenv("DB_MAX_CONNS", "5")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", c.Port)
	assert.Equal(t, StoreMemory, c.Store)
	assert.Equal(t, 4, c.BcryptCost)
	assert.Equal(t, int32(5), c.DB.MaxConns)
	assert.Equal(t, "postgres://u:p@db:5432/ev", c.DB.DSN())
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown store", "STORE", "sqlite"},
		{"cost too low", "BCRYPT_COST", "3"},
		{"cost too high", "BCRYPT_COST", "32"},
		{"cost not a number", "BCRYPT_COST", "high"},
		{"zero rate", "RATE_LIMIT_RPS", "0"},
		{"negative burst", "RATE_LIMIT_BURST", "-1"},
		{"unknown zone", "TIMEZONE", "Mars/Olympus_Mons"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TIMEZONE", "UTC")
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLocation(t *testing.T) {
	loc, err := Config{Timezone: "UTC"}.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}
