package cache

import (
	"context"

	"github.com/goliatone/go-opsboard/querykey"
)

// FetchFn is the function signature the cache expects when fetching from the source of truth.
type FetchFn[T any] func(ctx context.Context) (T, error)

// Erase adapts a typed fetch function to the untyped form stored by Client.
func Erase[T any](fn FetchFn[T]) FetchFn[any] {
	if fn == nil {
		return nil
	}
	return func(ctx context.Context) (any, error) {
		v, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

// GetQueryData returns the cached data for key as T.
// The boolean is false when there is no data or it has another type.
func GetQueryData[T any](c *Client, key querykey.Key) (T, bool) {
	var zero T
	entry, ok := c.Get(key)
	if !ok || !entry.HasData {
		return zero, false
	}
	v, ok := entry.Data.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// EnsureQueryData is the typed form of Client.EnsureFresh.
func EnsureQueryData[T any](ctx context.Context, c *Client, key querykey.Key, fetch FetchFn[T]) (T, error) {
	var zero T
	result, err := c.EnsureFresh(ctx, key, Erase(fetch))
	if result == nil {
		return zero, err
	}
	v, ok := result.(T)
	if !ok {
		if err != nil {
			return zero, err
		}
		return zero, ErrInvalidResultType
	}
	return v, err
}

// SetQueryData stores value under key without touching its fetch state.
func SetQueryData[T any](c *Client, key querykey.Key, value T) {
	c.SetData(key, func(any) any { return value })
}

// UpdateQueryData applies fn to the current typed data. fn receives ok=false
// when the key has no data; returning false from fn leaves the cache unchanged.
// Data of a different type is left untouched and reported with ErrInvalidResultType.
func UpdateQueryData[T any](c *Client, key querykey.Key, fn func(old T, ok bool) (T, bool)) (bool, error) {
	var typeErr error
	changed := c.SetData(key, func(old any) any {
		var current T
		has := false
		if old != nil {
			v, ok := old.(T)
			if !ok {
				typeErr = ErrInvalidResultType
				return nil
			}
			current, has = v, true
		}
		next, write := fn(current, has)
		if !write {
			return nil
		}
		return next
	})
	return changed, typeErr
}
