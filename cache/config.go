package cache

import (
	"time"

	"github.com/goliatone/go-opsboard/internal/cacheinfra"
)

// ConfigError is returned by Config.Validate.
type ConfigError = cacheinfra.ConfigError

// RetryDelayFunc returns the wait before retry number attempt (0 based).
type RetryDelayFunc func(attempt int) time.Duration

const (
	baseRetryDelay = time.Second
	maxRetryDelay  = 30 * time.Second
)

// DefaultRetryDelay doubles from one second and caps at thirty:
// 0 → 1s, 1 → 2s, 2 → 4s, ... , 5+ → 30s.
func DefaultRetryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	// 1s << 5 already exceeds the cap; stop shifting before it can overflow.
	if attempt >= 5 {
		return maxRetryDelay
	}
	return min(baseRetryDelay<<attempt, maxRetryDelay)
}

// Config exposes cache configuration options for consumers of the cache package.
type Config struct {
	// StaleTime is how long fetched data counts as fresh.
	StaleTime time.Duration

	// GCTime is how long an entry with no observers is retained.
	GCTime time.Duration

	// Retry is the number of retries after a failed fetch.
	Retry int

	// RetryDelay computes the backoff between query retries.
	RetryDelay RetryDelayFunc

	// MutationRetry is the default number of retries for mutations.
	MutationRetry int

	RefetchOnWindowFocus bool
	RefetchOnReconnect   bool

	// Sizing of the store that holds unobserved entries.
	Capacity           int
	NumShards          int
	EvictionPercentage int
	EvictionInterval   time.Duration
}

// DefaultConfig returns a Config populated with the dashboard defaults.
func DefaultConfig() Config {
	store := cacheinfra.DefaultConfig()
	return Config{
		StaleTime:            5 * time.Minute,
		GCTime:               store.TTL,
		Retry:                3,
		RetryDelay:           DefaultRetryDelay,
		MutationRetry:        1,
		RefetchOnWindowFocus: false,
		RefetchOnReconnect:   true,
		Capacity:             store.Capacity,
		NumShards:            store.NumShards,
		EvictionPercentage:   store.EvictionPercentage,
		EvictionInterval:     store.EvictionInterval,
	}
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	if c.StaleTime < 0 {
		return &ConfigError{Field: "StaleTime", Message: "must be non-negative"}
	}
	if c.Retry < 0 {
		return &ConfigError{Field: "Retry", Message: "must be non-negative"}
	}
	if c.MutationRetry < 0 {
		return &ConfigError{Field: "MutationRetry", Message: "must be non-negative"}
	}
	if err := c.toInternal().Validate(); err != nil {
		if cfgErr, ok := err.(*ConfigError); ok && cfgErr.Field == "TTL" {
			return &ConfigError{Field: "GCTime", Message: cfgErr.Message}
		}
		return err
	}
	return nil
}

func (c Config) retryDelay(attempt int) time.Duration {
	if c.RetryDelay == nil {
		return DefaultRetryDelay(attempt)
	}
	return c.RetryDelay(attempt)
}

func (c Config) toInternal() cacheinfra.Config {
	return cacheinfra.Config{
		Capacity:           c.Capacity,
		NumShards:          c.NumShards,
		TTL:                c.GCTime,
		EvictionPercentage: c.EvictionPercentage,
		EvictionInterval:   c.EvictionInterval,
	}
}
