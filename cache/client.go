package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-opsboard/internal/cacheinfra"
	"github.com/goliatone/go-opsboard/querykey"
)

// Clock supplies the current time. Tests swap it to move time forward.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock replaces the wall clock used for staleness.
func WithClock(clock Clock) Option {
	return func(c *Client) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// Client is the server-state cache for one running session. Build it once
// with New and share it; every component reads and invalidates through it.
//
// Observed entries live in an in-memory map. Entries nobody observes are
// parked in a TTL store for GCTime and dropped afterwards, so the next read
// fetches from scratch.
type Client struct {
	cfg    Config
	logger *slog.Logger
	clock  Clock

	mu     sync.Mutex
	active map[string]*entry
	parked *cacheinfra.EntryStore[*entry]
	closed bool

	flights singleflight.Group
	bg      sync.WaitGroup

	subMu   sync.RWMutex
	subs    map[uint64]func(Event)
	nextSub uint64
}

// New validates cfg and builds a Client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	parked, err := cacheinfra.NewEntryStore[*entry](cfg.toInternal())
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:    cfg,
		logger: slog.Default(),
		clock:  systemClock{},
		active: make(map[string]*entry),
		parked: parked,
		subs:   make(map[uint64]func(Event)),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(slog.String("component", "cache"))

	return c, nil
}

// Config returns the configuration the client was built with.
func (c *Client) Config() Config {
	return c.cfg
}

// Now returns the time according to the client's clock.
func (c *Client) Now() time.Time {
	return c.clock.Now()
}

// Get returns a snapshot of the entry for key. It never fetches.
func (c *Client) Get(key querykey.Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.lookupLocked(key, false)
	if e == nil {
		return Entry{}, false
	}
	return e.snapshot(c.cfg.StaleTime), true
}

// Entries returns snapshots of every live entry under prefix.
func (c *Client) Entries(prefix querykey.Key) []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	matched := c.matchLocked(prefix)
	out := make([]Entry, 0, len(matched))
	for _, e := range matched {
		out = append(out, e.snapshot(c.cfg.StaleTime))
	}
	return out
}

// EnsureFresh returns cached data when it is fresh. Otherwise it fetches,
// sharing the request with any concurrent caller for the same key. A nil
// fetch reuses the function registered earlier for key.
//
// When a fetch fails the last known data is returned together with the error.
// If ctx ends first the caller stops waiting but the fetch keeps running.
func (c *Client) EnsureFresh(ctx context.Context, key querykey.Key, fetch FetchFn[any]) (any, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	e := c.lookupLocked(key, true)
	if fetch != nil {
		e.fetch = fetch
	}
	if !e.stale(c.clock.Now(), c.cfg.StaleTime) {
		data := e.data
		c.mu.Unlock()
		recordHit(ctx, key.Resource())
		return data, nil
	}
	c.mu.Unlock()

	recordMiss(ctx, key.Resource())
	return c.fetchEntry(ctx, e)
}

// Refetch fetches key now with its registered fetch function. Any older
// fetch still in flight is superseded and its result discarded.
func (c *Client) Refetch(ctx context.Context, key querykey.Key) (any, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	e := c.lookupLocked(key, false)
	if e == nil || e.fetch == nil {
		c.mu.Unlock()
		return nil, ErrNoFetcher
	}
	c.supersedeLocked(e)
	c.mu.Unlock()

	return c.fetchEntry(ctx, e)
}

// SetData replaces the entry's data with updater(old). old is nil when the
// entry has no data. A nil result leaves the cache untouched. FetchedAt and
// Status are not modified; an entry is created in the Idle state if needed.
func (c *Client) SetData(key querykey.Key, updater func(old any) any) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	written := c.setDataLocked(key, c.lookupLocked(key, false), updater)
	c.mu.Unlock()

	if written {
		c.emit(Event{Type: EventUpdated, Key: key})
	}
	return written
}

// Snapshot is the data an entry held when ApplyOptimistic ran.
type Snapshot struct {
	Data    any
	HasData bool

	// Applied reports whether the updater's value was written.
	Applied bool
}

// ApplyOptimistic cancels the fetch in flight for key, captures its data
// through clone and writes the result of updater, under one lock so no
// other write lands between the capture and the update. A nil clone keeps
// the data as is; a nil updater only cancels and captures.
func (c *Client) ApplyOptimistic(key querykey.Key, clone func(any) any, updater func(old any) any) Snapshot {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Snapshot{}
	}

	var snap Snapshot
	e := c.lookupLocked(key, false)
	if e != nil {
		c.supersedeLocked(e)
		if e.hasData {
			snap.Data, snap.HasData = e.data, true
			if clone != nil {
				snap.Data = clone(e.data)
			}
		}
	}
	if updater != nil {
		snap.Applied = c.setDataLocked(key, e, updater)
	}
	c.mu.Unlock()

	if snap.Applied {
		c.emit(Event{Type: EventUpdated, Key: key})
	}
	return snap
}

// setDataLocked writes updater's result to e, creating the entry for key
// when e is nil. A nil result writes nothing.
func (c *Client) setDataLocked(key querykey.Key, e *entry, updater func(old any) any) bool {
	var old any
	if e != nil && e.hasData {
		old = e.data
	}
	next := updater(old)
	if next == nil {
		return false
	}

	if e == nil {
		e = c.lookupLocked(key, true)
	}
	e.data = next
	e.hasData = true
	e.fpValid = false
	c.touchLocked(e)
	return true
}

// Invalidate marks every entry under prefix stale and refetches the ones
// that have observers in the background. It returns the number of entries
// marked.
func (c *Client) Invalidate(prefix querykey.Key) int {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0
	}
	matched := c.matchLocked(prefix)
	var refetch []querykey.Key
	for _, e := range matched {
		e.invalidated = true
		e.invalidations++
		if e.observers > 0 && e.fetch != nil {
			refetch = append(refetch, e.key)
		}
	}
	c.bg.Add(len(refetch))
	c.mu.Unlock()

	recordInvalidations(context.Background(), prefix.Resource(), len(matched))
	c.logger.Debug("invalidated queries",
		slog.String("prefix", prefix.String()),
		slog.Int("matched", len(matched)),
		slog.Int("refetching", len(refetch)),
	)

	for _, e := range matched {
		c.emit(Event{Type: EventInvalidated, Key: e.key})
	}
	for _, key := range refetch {
		go func(key querykey.Key) {
			defer c.bg.Done()
			c.backgroundRefetch(key)
		}(key)
	}

	return len(matched)
}

// CancelInFlight discards the result of any pending fetch for key and
// cancels its context. The status reverts to what it was before the fetch.
func (c *Client) CancelInFlight(key querykey.Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.lookupLocked(key, false)
	if e == nil {
		return
	}
	c.supersedeLocked(e)
}

// OnReconnect refetches every stale entry that has observers, when
// RefetchOnReconnect is enabled. It returns how many entries were refetched.
func (c *Client) OnReconnect(ctx context.Context) (int, error) {
	if !c.cfg.RefetchOnReconnect {
		return 0, nil
	}
	return c.refetchStaleObserved(ctx)
}

// OnWindowFocus is a no-op unless RefetchOnWindowFocus is enabled.
func (c *Client) OnWindowFocus(ctx context.Context) (int, error) {
	if !c.cfg.RefetchOnWindowFocus {
		return 0, nil
	}
	return c.refetchStaleObserved(ctx)
}

// Remove drops key from the cache and discards any fetch in flight for it.
func (c *Client) Remove(key querykey.Key) bool {
	c.mu.Lock()
	e := c.lookupLocked(key, false)
	if e == nil {
		c.mu.Unlock()
		return false
	}
	c.dropLocked(e)
	c.mu.Unlock()

	c.emit(Event{Type: EventRemoved, Key: key})
	return true
}

// Clear drops every entry.
func (c *Client) Clear() {
	c.mu.Lock()
	all := c.matchLocked(querykey.New())
	for _, e := range all {
		c.dropLocked(e)
	}
	c.parked.Clear()
	c.mu.Unlock()

	for _, e := range all {
		c.emit(Event{Type: EventRemoved, Key: e.key})
	}
}

// Drain waits for background refetches started by Invalidate and Observe.
func (c *Client) Drain() {
	c.bg.Wait()
}

// Close cancels fetches in flight, waits for background work and rejects
// further use.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	for _, e := range c.matchLocked(querykey.New()) {
		c.supersedeLocked(e)
	}
	c.mu.Unlock()

	c.bg.Wait()
	return nil
}

func (c *Client) refetchStaleObserved(ctx context.Context) (int, error) {
	c.mu.Lock()
	now := c.clock.Now()
	var keys []querykey.Key
	for _, e := range c.active {
		if e.observers > 0 && e.fetch != nil && e.stale(now, c.cfg.StaleTime) {
			keys = append(keys, e.key)
		}
	}
	c.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, key := range keys {
		g.Go(func() error {
			_, err := c.Refetch(gctx, key)
			return err
		})
	}
	return len(keys), g.Wait()
}

func (c *Client) backgroundRefetch(key querykey.Key) {
	if _, err := c.Refetch(context.Background(), key); err != nil && !errors.Is(err, ErrFetchCancelled) && !errors.Is(err, ErrClosed) {
		c.logger.Warn("background refetch failed",
			slog.String("key", key.String()),
			slog.String("error", err.Error()),
		)
	}
}

// maxSupersededJoins bounds how often one caller follows a fetch that was
// superseded while it waited.
const maxSupersededJoins = 3

// fetchEntry joins or starts the fetch for e's current generation. When that
// fetch is superseded while the caller waits, the caller follows the newer
// fetch, takes the data that replaced it, or starts a fetch of its own when
// the entry is still empty.
func (c *Client) fetchEntry(ctx context.Context, e *entry) (any, error) {
	for joins := 0; ; joins++ {
		c.mu.Lock()
		fn := e.fetch
		gen := e.generation
		c.mu.Unlock()

		if fn == nil {
			return nil, ErrNoFetcher
		}

		flight := e.id + "#" + strconv.FormatUint(gen, 10)
		ch := c.flights.DoChan(flight, func() (any, error) {
			return c.runFetch(e, gen, fn)
		})

		var res singleflight.Result
		select {
		case res = <-ch:
		case <-ctx.Done():
			c.mu.Lock()
			data := e.data
			c.mu.Unlock()
			return data, ctx.Err()
		}

		if !errors.Is(res.Err, ErrFetchCancelled) || joins >= maxSupersededJoins || ctx.Err() != nil {
			return res.Val, res.Err
		}

		c.mu.Lock()
		switch {
		case c.closed || e.removed:
			c.mu.Unlock()
			return res.Val, res.Err
		case e.status == StatusFetching:
			// a newer fetch is running, join it
		case e.hasData:
			data := e.data
			c.mu.Unlock()
			return data, nil
		}
		c.mu.Unlock()
	}
}

// runFetch executes fn with retries on a context owned by the entry.
func (c *Client) runFetch(e *entry, gen uint64, fn FetchFn[any]) (any, error) {
	fctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c.mu.Lock()
	if e.generation != gen {
		data := e.data
		c.mu.Unlock()
		return data, ErrFetchCancelled
	}
	// A caller that saw the entry stale just before an earlier flight of
	// this generation committed does not need another request.
	if e.committedGen == gen+1 && !e.stale(c.clock.Now(), c.cfg.StaleTime) {
		data := e.data
		c.mu.Unlock()
		return data, nil
	}
	if e.status != StatusFetching {
		e.prevStatus = e.status
	}
	e.status = StatusFetching
	e.cancel = cancel
	inv := e.invalidations
	c.mu.Unlock()

	resource := e.key.Resource()
	fctx, span := startFetchSpan(fctx, e.id)
	started := time.Now()

	attempts := 0
	var lastErr error
	for attempt := 0; ; attempt++ {
		attempts++
		recordFetchAttempt(fctx, resource)

		data, err := fn(fctx)
		if err == nil {
			out, commitErr := c.commitSuccess(e, gen, inv, data)
			endFetchSpan(span, attempts, commitErr)
			recordFetchLatency(fctx, resource, time.Since(started), commitErr == nil)
			return out, commitErr
		}
		lastErr = err

		if c.superseded(e, gen) {
			break
		}
		if attempt >= c.cfg.Retry {
			break
		}

		c.mu.Lock()
		e.retryCount = attempt + 1
		c.mu.Unlock()

		delay := c.cfg.retryDelay(attempt)
		c.logger.Debug("fetch failed, retrying",
			slog.String("key", e.id),
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()),
		)

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-fctx.Done():
			timer.Stop()
		}
		if c.superseded(e, gen) {
			break
		}
	}

	out, err := c.commitFailure(e, gen, lastErr, attempts)
	endFetchSpan(span, attempts, err)
	recordFetchLatency(fctx, resource, time.Since(started), false)
	return out, err
}

// commitSuccess stores data unless the fetch was superseded. An entry
// invalidated while the fetch was running stays invalidated.
func (c *Client) commitSuccess(e *entry, gen, inv uint64, data any) (any, error) {
	fp, fpOK := fingerprint(data)

	c.mu.Lock()
	if e.generation != gen {
		current := e.data
		c.mu.Unlock()
		return current, ErrFetchCancelled
	}

	changed := !(e.hasData && e.fpValid && fpOK && e.fingerprint == fp)
	if changed {
		e.data = data
	}
	e.fingerprint = fp
	e.fpValid = fpOK
	e.hasData = true
	e.fetchedAt = c.clock.Now()
	e.status = StatusSuccess
	e.err = nil
	e.retryCount = 0
	e.invalidated = e.invalidations != inv
	e.cancel = nil
	e.committedGen = gen + 1
	result := e.data
	c.touchLocked(e)
	c.mu.Unlock()

	if changed {
		c.emit(Event{Type: EventUpdated, Key: e.key})
	}
	return result, nil
}

func (c *Client) commitFailure(e *entry, gen uint64, err error, attempts int) (any, error) {
	c.mu.Lock()
	if e.generation != gen {
		current := e.data
		c.mu.Unlock()
		return current, ErrFetchCancelled
	}

	e.status = StatusError
	e.err = err
	e.retryCount = attempts - 1
	e.cancel = nil
	data := e.data
	c.touchLocked(e)
	c.mu.Unlock()

	recordFetchError(context.Background(), e.key.Resource())
	c.logger.Warn("fetch failed",
		slog.String("key", e.id),
		slog.Int("attempts", attempts),
		slog.String("error", err.Error()),
	)
	c.emit(Event{Type: EventFetchFailed, Key: e.key, Err: err})
	return data, err
}

func (c *Client) superseded(e *entry, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return e.generation != gen
}

// supersedeLocked bumps the generation so the running fetch, if any, can no
// longer commit, and restores the status it replaced.
func (c *Client) supersedeLocked(e *entry) {
	e.generation++
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	if e.status == StatusFetching {
		e.status = e.prevStatus
	}
}

func (c *Client) dropLocked(e *entry) {
	c.supersedeLocked(e)
	e.removed = true
	delete(c.active, e.id)
	c.parked.Delete(e.id)
}

// lookupLocked finds the entry for key among observed and parked entries,
// creating a parked Idle entry when create is set.
func (c *Client) lookupLocked(key querykey.Key, create bool) *entry {
	id := storeKey(key)
	if e, ok := c.active[id]; ok {
		return e
	}
	if e, ok := c.parked.Peek(id); ok && !e.removed {
		return e
	}
	if !create {
		return nil
	}
	e := &entry{key: key, id: id, status: StatusIdle}
	c.parked.Park(id, e)
	return e
}

func (c *Client) matchLocked(prefix querykey.Key) []*entry {
	var out []*entry
	for _, e := range c.active {
		if e.key.HasPrefix(prefix) {
			out = append(out, e)
		}
	}
	for _, id := range c.parked.KeysWithPrefix(storePrefix(prefix)) {
		if _, observed := c.active[id]; observed {
			continue
		}
		e, ok := c.parked.Peek(id)
		if !ok || e.removed || !e.key.HasPrefix(prefix) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// touchLocked restarts the GC window of an unobserved entry.
func (c *Client) touchLocked(e *entry) {
	if e.removed || e.observers > 0 {
		return
	}
	c.parked.Park(e.id, e)
}

func (c *Client) observeLocked(e *entry) {
	e.observers++
	if e.observers == 1 {
		c.parked.Delete(e.id)
		c.active[e.id] = e
	}
}

func (c *Client) unobserveLocked(e *entry) {
	if e.observers == 0 {
		return
	}
	e.observers--
	if e.observers == 0 && !e.removed {
		delete(c.active, e.id)
		c.parked.Park(e.id, e)
	}
}

// fingerprint hashes the JSON form of v. Values that cannot be encoded are
// never considered equal to anything.
func fingerprint(v any) (uint64, bool) {
	raw, err := json.Marshal(v)
	if err != nil {
		return 0, false
	}
	return xxhash.Sum64(raw), true
}
