package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/goliatone/go-opsboard/querykey"
)

// Result is what a read hands to its consumer: the last known data plus the
// state of the entry behind it.
type Result[T any] struct {
	Data      T
	HasData   bool
	Status    Status
	Err       error
	Stale     bool
	FetchedAt time.Time
}

// IsLoading reports a first fetch with nothing to show yet.
func (r Result[T]) IsLoading() bool {
	return !r.HasData && (r.Status == StatusFetching || r.Status == StatusIdle)
}

// IsError reports whether the last fetch failed.
func (r Result[T]) IsError() bool {
	return r.Status == StatusError
}

// Query binds a key to the function that fetches it.
type Query[T any] struct {
	client *Client
	key    querykey.Key
	fetch  FetchFn[T]
}

// NewQuery builds a Query. It does not touch the cache.
func NewQuery[T any](c *Client, key querykey.Key, fetch FetchFn[T]) *Query[T] {
	return &Query[T]{client: c, key: key, fetch: fetch}
}

// Key returns the bound key.
func (q *Query[T]) Key() querykey.Key {
	return q.key
}

// Use ensures the data is fresh and returns the resulting state. A failed
// fetch still returns the last known data with Err set.
func (q *Query[T]) Use(ctx context.Context) Result[T] {
	_, err := q.client.EnsureFresh(ctx, q.key, Erase(q.fetch))
	res := q.Peek()
	if err != nil && res.Err == nil && !errors.Is(err, ErrFetchCancelled) {
		res.Err = err
	}
	return res
}

// Fetch ensures the data is fresh and returns it typed.
func (q *Query[T]) Fetch(ctx context.Context) (T, error) {
	return EnsureQueryData(ctx, q.client, q.key, q.fetch)
}

// Refetch bypasses staleness and fetches now.
func (q *Query[T]) Refetch(ctx context.Context) Result[T] {
	c := q.client
	c.mu.Lock()
	e := c.lookupLocked(q.key, true)
	e.fetch = Erase(q.fetch)
	c.mu.Unlock()

	_, err := c.Refetch(ctx, q.key)
	res := q.Peek()
	if err != nil && res.Err == nil && !errors.Is(err, ErrFetchCancelled) {
		res.Err = err
	}
	return res
}

// Peek returns the current state without fetching.
func (q *Query[T]) Peek() Result[T] {
	entry, ok := q.client.Get(q.key)
	if !ok {
		return Result[T]{Status: StatusIdle, Stale: true}
	}
	return resultFrom[T](entry, q.client.clock.Now())
}

// Observe opens an observer that keeps the entry alive and reports changes.
func (q *Query[T]) Observe() (*Observer[T], error) {
	o := &Observer[T]{
		query:   q,
		updates: make(chan Result[T], 1),
	}
	o.unsubscribe = q.client.Subscribe(func(ev Event) {
		if !ev.Key.Equal(q.key) {
			return
		}
		o.publish(q.Peek())
	})

	obs, err := q.client.Observe(q.key, Erase(q.fetch))
	if err != nil {
		o.unsubscribe()
		return nil, err
	}
	o.Observation = obs
	return o, nil
}

func resultFrom[T any](entry Entry, now time.Time) Result[T] {
	res := Result[T]{
		Status:    entry.Status,
		Err:       entry.Err,
		Stale:     entry.IsStale(now),
		FetchedAt: entry.FetchedAt,
	}
	if entry.HasData {
		v, ok := entry.Data.(T)
		if ok {
			res.Data = v
			res.HasData = true
		} else if res.Err == nil {
			res.Err = ErrInvalidResultType
		}
	}
	return res
}

// Observer is a typed Observation that also streams Results.
type Observer[T any] struct {
	*Observation

	query       *Query[T]
	unsubscribe func()

	mu      sync.Mutex
	updates chan Result[T]
	closed  bool
}

// Current returns the latest state of the observed key.
func (o *Observer[T]) Current() Result[T] {
	return o.query.Peek()
}

// Updates delivers the newest Result after each change. Only the latest
// Result is buffered; a slow reader skips intermediate states.
func (o *Observer[T]) Updates() <-chan Result[T] {
	return o.updates
}

func (o *Observer[T]) publish(res Result[T]) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	select {
	case <-o.updates:
	default:
	}
	o.updates <- res
}

// Close stops updates and releases the observation.
func (o *Observer[T]) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	close(o.updates)
	o.mu.Unlock()

	o.unsubscribe()
	o.Observation.Close()
}
