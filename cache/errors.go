package cache

import (
	goerrors "github.com/goliatone/go-errors"
)

var (
	// ErrFetchCancelled is returned to callers waiting on a fetch whose result
	// was discarded by CancelInFlight, Refetch or Remove.
	ErrFetchCancelled = goerrors.New("fetch result discarded", goerrors.CategoryOperation).
				WithTextCode("FETCH_CANCELLED")

	// ErrNoFetcher is returned when a key must be fetched but no fetch
	// function was ever registered for it.
	ErrNoFetcher = goerrors.New("no fetch function registered for key", goerrors.CategoryBadInput).
			WithTextCode("NO_FETCHER")

	// ErrInvalidResultType is returned by the typed helpers when the cached
	// value does not have the requested type.
	ErrInvalidResultType = goerrors.New("cached value has an unexpected type", goerrors.CategoryInternal).
				WithTextCode("INVALID_RESULT_TYPE")

	// ErrClosed is returned after Close.
	ErrClosed = goerrors.New("cache client is closed", goerrors.CategoryOperation).
			WithTextCode("CACHE_CLOSED")
)
