package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: \"9090\"\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "stockpulse.db", cfg.Database.DSN)
	assert.Equal(t, "stockpulse-notifications", cfg.Kafka.GroupID)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "binance", cfg.PriceFeed.Provider)
	assert.Equal(t, 30, cfg.Monitor.IntervalSeconds)
	assert.Equal(t, 5, cfg.Sweep.IntervalMinutes)
	assert.Equal(t, 3, cfg.Sweep.MaxRetries)
	assert.Equal(t, 24, cfg.Sweep.RetryWindowHours)
	assert.Equal(t, 30, cfg.Sweep.ReadRetentionDays)
	assert.Equal(t, 90, cfg.Sweep.MaxRetentionDays)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSaveAndReloadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Kafka.Brokers = []string{"kafka-1:9092", "kafka-2:9092"}
	cfg.Sweep.MaxRetries = 5
	require.NoError(t, SaveConfig(cfg, path))

	reloaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Kafka.Brokers, reloaded.Kafka.Brokers)
	assert.Equal(t, 5, reloaded.Sweep.MaxRetries)
}

func TestUserDirectoryResolveEmail(t *testing.T) {
	dir := &UserDirectory{Users: []UserDirectoryEntry{
		{UserID: "user-1", Name: "Alice", Email: "alice@example.com", IsActive: true},
		{UserID: "user-2", Name: "Bob", Email: "bob@example.com", IsActive: false},
		{UserID: "user-3", Name: "Carol", IsActive: true},
	}}

	t.Run("active user with address", func(t *testing.T) {
		email, err := dir.ResolveEmail("user-1")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", email)
	})

	t.Run("inactive user", func(t *testing.T) {
		_, err := dir.ResolveEmail("user-2")
		assert.ErrorContains(t, err, "inactive")
	})

	t.Run("user without address", func(t *testing.T) {
		_, err := dir.ResolveEmail("user-3")
		assert.ErrorContains(t, err, "no email")
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := dir.ResolveEmail("user-9")
		assert.ErrorContains(t, err, "not found")
	})
}

func TestUserDirectoryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.yaml")

	dir := &UserDirectory{Users: []UserDirectoryEntry{
		{UserID: "user-1", Name: "Alice", Email: "alice@example.com", IsActive: true},
	}}
	require.NoError(t, SaveUserDirectory(dir, path))

	loaded, err := LoadUserDirectory(path)
	require.NoError(t, err)
	require.Len(t, loaded.Users, 1)
	assert.Equal(t, "alice@example.com", loaded.Users[0].Email)
}
