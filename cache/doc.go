// Package cache is the server-state cache shared by every read and write of
// an opsboard session.
//
// # Overview
//
// A Client stores one entry per querykey.Key. Reads go through EnsureFresh,
// which returns cached data while it is fresh and otherwise fetches it,
// sharing a single in-flight request between concurrent callers of the same
// key. Writes from mutations go through SetData, which replaces the data
// synchronously without touching the fetch state.
//
//	client, err := cache.New(cache.DefaultConfig(), cache.WithLogger(logger))
//	tasks := cache.NewQuery(client, querykey.Tasks.All(), fetcher.Tasks)
//	res := tasks.Use(ctx)
//
// # Staleness and invalidation
//
// Data is fresh for Config.StaleTime after a successful fetch. Invalidate
// marks every entry under a key prefix stale, so invalidating ["tasks"] also
// covers ["tasks","status","pending"]. Entries with open observers are
// refetched right away; the rest refetch on their next read.
//
// # Failures
//
// A failed fetch is retried Config.Retry times with Config.RetryDelay between
// attempts. When it still fails the entry moves to StatusError and keeps its
// previous data, so consumers keep showing the last known state.
//
// # Cancellation
//
// CancelInFlight discards whatever a pending fetch returns. The request
// context is cancelled too, but the contract is only that the late response
// never reaches the cache.
//
// # Garbage collection
//
// Entries without observers are kept for Config.GCTime in a sturdyc-backed
// store and dropped afterwards.
package cache
