package cache

import (
	"context"
	"time"

	"github.com/goliatone/go-opsboard/querykey"
)

// Status is the fetch state of an entry.
type Status int

const (
	StatusIdle Status = iota
	StatusFetching
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusFetching:
		return "fetching"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Entry is a point-in-time copy of a cached query.
type Entry struct {
	Key        querykey.Key
	Data       any
	HasData    bool
	FetchedAt  time.Time
	StaleAfter time.Time
	Status     Status
	Err        error
	RetryCount int
	Observers  int

	// Invalidated is set by Invalidate and cleared by the next successful fetch.
	Invalidated bool
}

// IsStale reports whether the entry should be refetched at now.
func (e Entry) IsStale(now time.Time) bool {
	return e.Invalidated || !e.HasData || now.After(e.StaleAfter)
}

// entry is the mutable record behind Entry. All fields are guarded by Client.mu.
type entry struct {
	key querykey.Key
	id  string

	data        any
	hasData     bool
	fingerprint uint64
	fpValid     bool

	fetchedAt     time.Time
	status        Status
	prevStatus    Status
	err           error
	retryCount    int
	observers     int
	invalidated   bool
	invalidations uint64
	removed       bool

	fetch        FetchFn[any]
	generation   uint64
	committedGen uint64
	cancel       context.CancelFunc
}

func (e *entry) snapshot(staleTime time.Duration) Entry {
	out := Entry{
		Key:         e.key,
		Data:        e.data,
		HasData:     e.hasData,
		FetchedAt:   e.fetchedAt,
		Status:      e.status,
		Err:         e.err,
		RetryCount:  e.retryCount,
		Observers:   e.observers,
		Invalidated: e.invalidated,
	}
	if !e.fetchedAt.IsZero() {
		out.StaleAfter = e.fetchedAt.Add(staleTime)
	}
	return out
}

func (e *entry) stale(now time.Time, staleTime time.Duration) bool {
	if e.invalidated || !e.hasData || e.fetchedAt.IsZero() {
		return true
	}
	return now.After(e.fetchedAt.Add(staleTime))
}

// storeKey is the serialized key used by the parked store. Trimming the
// closing bracket turns it into a usable string prefix for descendants.
func storeKey(key querykey.Key) string {
	return key.String()
}

func storePrefix(key querykey.Key) string {
	s := key.String()
	return s[:len(s)-1]
}
