// Package hooks binds every dashboard read to its query key and every write
// to its optimistic update and invalidation set.
//
// Reads are cache.Query values keyed through the querykey registry. Writes
// are mutation.Mutation values that call the actions layer; a Result that
// did not succeed counts as a failed mutation and is rolled back.
package hooks

import (
	"log/slog"

	"github.com/goliatone/go-opsboard/actions"
	"github.com/goliatone/go-opsboard/cache"
	"github.com/goliatone/go-opsboard/data"
	"github.com/goliatone/go-opsboard/model"
	"github.com/goliatone/go-opsboard/mutation"
)

// DashboardParams are the sizes the dashboard reads ask for.
type DashboardParams struct {
	UpcomingLimit     int
	ActivityLimit     int
	TrendDays         int
	PerformanceLimit  int
	PerformancePeriod int
}

// DefaultDashboardParams returns the dashboard's standard sizes.
func DefaultDashboardParams() DashboardParams {
	return DashboardParams{
		UpcomingLimit:     data.DefaultUpcomingLimit,
		ActivityLimit:     data.DefaultActivityLimit,
		TrendDays:         data.DefaultTrendDays,
		PerformanceLimit:  data.DefaultPerformanceLimit,
		PerformancePeriod: data.DefaultPerformancePeriod,
	}
}

// Option configures Hooks.
type Option func(*Hooks)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hooks) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithDashboardParams overrides the dashboard read sizes. Zero fields keep
// their defaults.
func WithDashboardParams(p DashboardParams) Option {
	return func(h *Hooks) {
		if p.UpcomingLimit > 0 {
			h.dashboard.UpcomingLimit = p.UpcomingLimit
		}
		if p.ActivityLimit > 0 {
			h.dashboard.ActivityLimit = p.ActivityLimit
		}
		if p.TrendDays > 0 {
			h.dashboard.TrendDays = p.TrendDays
		}
		if p.PerformanceLimit > 0 {
			h.dashboard.PerformanceLimit = p.PerformanceLimit
		}
		if p.PerformancePeriod > 0 {
			h.dashboard.PerformancePeriod = p.PerformancePeriod
		}
	}
}

// Hooks is the read and write surface consumers use.
type Hooks struct {
	cache     *cache.Client
	fetch     *data.Fetcher
	actions   *actions.Service
	logger    *slog.Logger
	dashboard DashboardParams

	UpdateTask           *mutation.Mutation[TaskUpdateVars]
	DeleteTask           *mutation.Mutation[string]
	UpdateCleaningStatus *mutation.Mutation[CleaningStatusVars]
	CreateTask           *mutation.Mutation[model.TaskInput]
	SyncData             *mutation.Mutation[struct{}]
}

// New wires reads to fetcher and writes to svc, all against client.
func New(client *cache.Client, fetcher *data.Fetcher, svc *actions.Service, opts ...Option) *Hooks {
	h := &Hooks{
		cache:     client,
		fetch:     fetcher,
		actions:   svc,
		logger:    slog.Default(),
		dashboard: DefaultDashboardParams(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With(slog.String("component", "hooks"))
	h.initMutations()
	return h
}

// Cache returns the underlying cache client.
func (h *Hooks) Cache() *cache.Client {
	return h.cache
}
