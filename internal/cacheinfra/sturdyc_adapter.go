package cacheinfra

import (
	"strings"
	"time"

	"github.com/viccon/sturdyc"
)

// Config holds the configuration for the sturdyc-backed entry store.
type Config struct {
	// Capacity defines the maximum number of entries the store keeps.
	// Must be greater than 0.
	Capacity int

	// NumShards determines the number of shards for concurrent access.
	// Must be greater than 0. Default: 64
	NumShards int

	// TTL is how long an entry survives without being read back.
	// The cache uses its GC window here. Must be greater than 0.
	TTL time.Duration

	// EvictionPercentage specifies what percentage of entries to evict
	// when the store reaches its capacity. Must be between 1-100.
	EvictionPercentage int

	// EvictionInterval sets how often expired entries are swept.
	// Zero uses the sturdyc default.
	EvictionInterval time.Duration
}

// DefaultConfig returns a Config sized for a single dashboard session.
func DefaultConfig() Config {
	return Config{
		Capacity:           10000,
		NumShards:          64,
		TTL:                10 * time.Minute,
		EvictionPercentage: 10,
		EvictionInterval:   0,
	}
}

// ToSturdycOptions converts the optional parts of Config to sturdyc options.
// Capacity, NumShards, TTL and EvictionPercentage go straight to sturdyc.New.
func (c Config) ToSturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option
	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}
	return options
}

// Validate checks if the configuration values are valid.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}

	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}

	if c.NumShards > c.Capacity {
		return &ConfigError{Field: "NumShards", Message: "must not exceed Capacity"}
	}

	if c.TTL <= 0 {
		return &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}

	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}

	if c.EvictionInterval < 0 {
		return &ConfigError{Field: "EvictionInterval", Message: "must be non-negative"}
	}

	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

// EntryStore keeps values that nobody is watching until their TTL runs out.
// Reading a value back does not extend its lifetime; callers that want to
// keep an entry alive Take it out and Park it again later.
type EntryStore[T any] struct {
	client *sturdyc.Client[T]
}

// NewEntryStore validates cfg and builds a sturdyc client from it.
func NewEntryStore[T any](cfg Config) (*EntryStore[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[T](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.ToSturdycOptions()...,
	)

	return &EntryStore[T]{client: client}, nil
}

// Park stores value under key, restarting its TTL.
func (s *EntryStore[T]) Park(key string, value T) {
	s.client.Set(key, value)
}

// Peek returns the parked value without removing it.
// Expired values are reported as missing.
func (s *EntryStore[T]) Peek(key string) (T, bool) {
	return s.client.Get(key)
}

// Take removes and returns the parked value.
func (s *EntryStore[T]) Take(key string) (T, bool) {
	value, ok := s.client.Get(key)
	if ok {
		s.client.Delete(key)
	}
	return value, ok
}

// Delete drops key if present.
func (s *EntryStore[T]) Delete(key string) {
	s.client.Delete(key)
}

// Keys lists every parked key, including ones that expired but were not swept yet.
func (s *EntryStore[T]) Keys() []string {
	return s.client.ScanKeys()
}

// KeysWithPrefix lists parked keys starting with prefix.
func (s *EntryStore[T]) KeysWithPrefix(prefix string) []string {
	var out []string
	for _, key := range s.client.ScanKeys() {
		if strings.HasPrefix(key, prefix) {
			out = append(out, key)
		}
	}
	return out
}

// Size returns the number of stored entries.
func (s *EntryStore[T]) Size() int {
	return s.client.Size()
}

// Clear deletes every parked entry.
func (s *EntryStore[T]) Clear() {
	for _, key := range s.client.ScanKeys() {
		s.client.Delete(key)
	}
}
