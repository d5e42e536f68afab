// Package data holds one fetch function per Workers API read. Fetchers
// return errors to the caller so the cache can retry them; they never hide a
// failure behind an empty result.
package data

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/goliatone/go-opsboard/gateway"
	"github.com/goliatone/go-opsboard/model"
)

// Fetcher reads entities through the gateway.
type Fetcher struct {
	api    *gateway.Client
	logger *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// New returns a Fetcher over api.
func New(api *gateway.Client, opts ...Option) *Fetcher {
	f := &Fetcher{api: api, logger: slog.Default()}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With(slog.String("component", "data"))
	return f
}

// list reads a collection endpoint and never returns a nil slice.
func list[T any](ctx context.Context, f *Fetcher, path string) ([]T, error) {
	items, err := gateway.Get[[]T](ctx, f.api, path)
	if err != nil {
		f.logger.Warn("fetch failed", slog.String("path", path), slog.String("error", err.Error()))
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func withQuery(path string, params url.Values) string {
	if len(params) == 0 {
		return path
	}
	return path + "?" + params.Encode()
}

// byID indexes properties for joins.
func byID(properties []model.Property) map[string]*model.Property {
	index := make(map[string]*model.Property, len(properties))
	for i := range properties {
		index[properties[i].ID] = &properties[i]
	}
	return index
}
