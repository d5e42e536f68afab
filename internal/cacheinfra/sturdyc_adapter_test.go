package cacheinfra

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 10000, cfg.Capacity)
	assert.Equal(t, 64, cfg.NumShards)
	assert.Equal(t, 10*time.Minute, cfg.TTL)
	assert.Equal(t, 10, cfg.EvictionPercentage)
	assert.NoError(t, cfg.Validate(), "default config should be valid")
}

func TestConfig_Validate(t *testing.T) {
	base := func() Config {
		return Config{Capacity: 1000, NumShards: 8, TTL: time.Minute, EvictionPercentage: 10}
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "zero capacity", mutate: func(c *Config) { c.Capacity = 0 }, wantField: "Capacity"},
		{name: "zero shards", mutate: func(c *Config) { c.NumShards = 0 }, wantField: "NumShards"},
		{name: "more shards than capacity", mutate: func(c *Config) { c.NumShards = 2000 }, wantField: "NumShards"},
		{name: "zero ttl", mutate: func(c *Config) { c.TTL = 0 }, wantField: "TTL"},
		{name: "eviction too low", mutate: func(c *Config) { c.EvictionPercentage = 0 }, wantField: "EvictionPercentage"},
		{name: "eviction too high", mutate: func(c *Config) { c.EvictionPercentage = 101 }, wantField: "EvictionPercentage"},
		{name: "negative interval", mutate: func(c *Config) { c.EvictionInterval = -time.Second }, wantField: "EvictionInterval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()

			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.wantField, cfgErr.Field)
		})
	}
}

func TestConfig_ToSturdycOptions(t *testing.T) {
	cfg := DefaultConfig()
	assert.Empty(t, cfg.ToSturdycOptions(), "expected no options for default config")

	cfg.EvictionInterval = time.Second
	assert.Len(t, cfg.ToSturdycOptions(), 1, "expected 1 option with an eviction interval")
}

func TestConfigError_Error(t *testing.T) {
	err := &ConfigError{Field: "TestField", Message: "test message"}
	assert.EqualError(t, err, "config error in field TestField: test message")
}

func TestNewEntryStore_InvalidConfig(t *testing.T) {
	store, err := NewEntryStore[string](Config{})
	require.Error(t, err, "expected error for zero config")
	assert.Nil(t, store, "expected nil store when config is invalid")
	assert.EqualError(t, err, "config error in field Capacity: must be greater than 0")
}

func newTestStore(t *testing.T, ttl time.Duration) *EntryStore[string] {
	t.Helper()
	store, err := NewEntryStore[string](Config{
		Capacity:           100,
		NumShards:          2,
		TTL:                ttl,
		EvictionPercentage: 10,
	})
	require.NoError(t, err, "failed to create store")
	return store
}

func TestEntryStore_ParkPeekTake(t *testing.T) {
	store := newTestStore(t, time.Minute)

	store.Park(`["tasks"]`, "task list")

	value, ok := store.Peek(`["tasks"]`)
	require.True(t, ok)
	require.Equal(t, "task list", value)
	assert.Equal(t, 1, store.Size())

	value, ok = store.Take(`["tasks"]`)
	require.True(t, ok)
	require.Equal(t, "task list", value, "expected Take to return the parked value")

	_, ok = store.Peek(`["tasks"]`)
	assert.False(t, ok, "Take must remove the entry")
	_, ok = store.Take(`["missing"]`)
	assert.False(t, ok, "Take on a missing key must report false")
}

func TestEntryStore_Expiry(t *testing.T) {
	store := newTestStore(t, 20*time.Millisecond)

	store.Park(`["cleaning"]`, "jobs")
	time.Sleep(60 * time.Millisecond)

	_, ok := store.Peek(`["cleaning"]`)
	assert.False(t, ok, "expected entry to expire after its TTL")
	_, ok = store.Take(`["cleaning"]`)
	assert.False(t, ok, "expected Take to miss an expired entry")
}

func TestEntryStore_KeysWithPrefix(t *testing.T) {
	store := newTestStore(t, time.Minute)

	store.Park(`["tasks"]`, "a")
	store.Park(`["tasks","status","pending"]`, "b")
	store.Park(`["reservations"]`, "c")

	keys := store.KeysWithPrefix(`["tasks"`)
	assert.ElementsMatch(t, []string{`["tasks"]`, `["tasks","status","pending"]`}, keys)
	assert.Len(t, store.Keys(), 3)

	store.Delete(`["reservations"]`)
	_, ok := store.Peek(`["reservations"]`)
	assert.False(t, ok, "Delete must drop the entry")

	store.Clear()
	assert.Zero(t, store.Size(), "expected empty store after Clear")
}
