package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-opsboard/querykey"
)

// Observation marks a key as watched. While at least one observation is
// open the entry is never garbage collected and Invalidate refetches it.
type Observation struct {
	ID string

	client *Client
	entry  *entry
	once   sync.Once
}

// Observe registers an observer for key and ensures its data in the
// background. fetch may be nil when a fetch function is already registered.
func (c *Client) Observe(key querykey.Key, fetch FetchFn[any]) (*Observation, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	e := c.lookupLocked(key, true)
	if fetch != nil {
		e.fetch = fetch
	}
	c.observeLocked(e)
	hasFetch := e.fetch != nil
	if hasFetch {
		c.bg.Add(1)
	}
	c.mu.Unlock()

	if hasFetch {
		go func() {
			defer c.bg.Done()
			_, err := c.EnsureFresh(context.Background(), key, nil)
			if err != nil && !errors.Is(err, ErrFetchCancelled) && !errors.Is(err, ErrClosed) {
				c.logger.Debug("initial fetch for observer failed",
					slog.String("key", key.String()),
					slog.String("error", err.Error()),
				)
			}
		}()
	}

	return &Observation{
		ID:     uuid.NewString(),
		client: c,
		entry:  e,
	}, nil
}

// Key returns the observed key.
func (o *Observation) Key() querykey.Key {
	return o.entry.key
}

// Close releases the observation. Once the last observer is gone the entry
// starts its GC window. Close is idempotent.
func (o *Observation) Close() {
	o.once.Do(func() {
		o.client.mu.Lock()
		o.client.unobserveLocked(o.entry)
		o.client.mu.Unlock()
	})
}
