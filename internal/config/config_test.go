package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, 10*time.Second, cfg.Tracker.NotificationInterval)
	assert.Equal(t, 30*time.Second, cfg.Tracker.IdleInterval)
	assert.Equal(t, 5*time.Minute, cfg.Tracker.IdleThreshold)
	assert.Equal(t, 10, cfg.Tracker.FreeTaskLimit)
	assert.Equal(t, 24*time.Hour, cfg.JWT.GetExpiration())
	assert.False(t, cfg.Stripe.StripeEnabled())
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	require.NoError(t, os.Unsetenv("JWT_SECRET"))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_UnsupportedDriver(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORAGE_DRIVER", "mysql")

	_, err := Load()
	assert.Error(t, err)
}

func TestStorageConfig_DSN(t *testing.T) {
	s := StorageConfig{User: "u", Password: "p", Host: "h", Port: "1", Name: "db", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:1/db?sslmode=disable", s.DSN())
}

func TestTrackerConfig_Location(t *testing.T) {
	loc, err := TrackerConfig{Timezone: "UTC"}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	_, err = TrackerConfig{Timezone: "Not/AZone"}.Location()
	assert.Error(t, err)
}
