package cache

import (
	"log/slog"

	"github.com/goliatone/go-opsboard/querykey"
)

// EventType identifies a change to the cache.
type EventType int

const (
	EventUpdated EventType = iota + 1
	EventInvalidated
	EventFetchFailed
	EventRemoved
)

func (t EventType) String() string {
	switch t {
	case EventUpdated:
		return "updated"
	case EventInvalidated:
		return "invalidated"
	case EventFetchFailed:
		return "fetch_failed"
	case EventRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribers after the change is applied.
type Event struct {
	Type EventType
	Key  querykey.Key
	Err  error
}

// Subscribe registers fn for every cache event and returns a function that
// removes it. fn runs on the goroutine that made the change and must not block.
func (c *Client) Subscribe(fn func(Event)) (unsubscribe func()) {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *Client) emit(ev Event) {
	c.subMu.RLock()
	if len(c.subs) == 0 {
		c.subMu.RUnlock()
		return
	}
	fns := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.RUnlock()

	for _, fn := range fns {
		c.deliver(fn, ev)
	}
}

func (c *Client) deliver(fn func(Event), ev Event) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("cache subscriber panicked",
				slog.String("event", ev.Type.String()),
				slog.String("key", ev.Key.String()),
				slog.Any("panic", r),
			)
		}
	}()
	fn(ev)
}
