package hooks

import (
	"context"

	"github.com/goliatone/go-opsboard/cache"
	"github.com/goliatone/go-opsboard/model"
	"github.com/goliatone/go-opsboard/querykey"
)

func (h *Hooks) Tasks() *cache.Query[[]model.Task] {
	return cache.NewQuery(h.cache, querykey.Tasks.All(), h.fetch.Tasks)
}

func (h *Hooks) TasksByStatus(status model.TaskStatus) *cache.Query[[]model.Task] {
	return cache.NewQuery(h.cache, querykey.Tasks.ByStatus(string(status)), func(ctx context.Context) ([]model.Task, error) {
		return h.fetch.TasksByStatus(ctx, status)
	})
}

func (h *Hooks) TasksByProperty(propertyID string) *cache.Query[[]model.Task] {
	return cache.NewQuery(h.cache, querykey.Tasks.ByProperty(propertyID), func(ctx context.Context) ([]model.Task, error) {
		return h.fetch.TasksByProperty(ctx, propertyID)
	})
}

func (h *Hooks) CleaningJobs() *cache.Query[[]model.CleaningJob] {
	return cache.NewQuery(h.cache, querykey.Cleaning.All(), h.fetch.CleaningJobs)
}

func (h *Hooks) CleaningJobsByDate(date string) *cache.Query[[]model.CleaningJob] {
	return cache.NewQuery(h.cache, querykey.Cleaning.ByDate(date), func(ctx context.Context) ([]model.CleaningJob, error) {
		return h.fetch.CleaningJobsByDate(ctx, date)
	})
}

func (h *Hooks) CleaningJobsByProperty(propertyID string) *cache.Query[[]model.CleaningJob] {
	return cache.NewQuery(h.cache, querykey.Cleaning.ByProperty(propertyID), func(ctx context.Context) ([]model.CleaningJob, error) {
		return h.fetch.CleaningJobsByProperty(ctx, propertyID)
	})
}

func (h *Hooks) Properties() *cache.Query[[]model.Property] {
	return cache.NewQuery(h.cache, querykey.Properties.All(), h.fetch.Properties)
}

// Property reads one property with its related collections. The data is nil
// when the API returned no property.
func (h *Hooks) Property(id string) *cache.Query[*model.PropertyWithDetails] {
	return cache.NewQuery(h.cache, querykey.Properties.Detail(id), func(ctx context.Context) (*model.PropertyWithDetails, error) {
		return h.fetch.Property(ctx, id)
	})
}

func (h *Hooks) Reservations() *cache.Query[[]model.Reservation] {
	return cache.NewQuery(h.cache, querykey.Reservations.All(), h.fetch.Reservations)
}

func (h *Hooks) ReservationsByProperty(propertyID string) *cache.Query[[]model.Reservation] {
	return cache.NewQuery(h.cache, querykey.Reservations.ByProperty(propertyID), func(ctx context.Context) ([]model.Reservation, error) {
		return h.fetch.ReservationsByProperty(ctx, propertyID)
	})
}

func (h *Hooks) ReservationsByDateRange(from, to string) *cache.Query[[]model.Reservation] {
	return cache.NewQuery(h.cache, querykey.Reservations.ByDateRange(from, to), func(ctx context.Context) ([]model.Reservation, error) {
		return h.fetch.ReservationsByDateRange(ctx, from, to)
	})
}

func (h *Hooks) Reservation(id string) *cache.Query[*model.Reservation] {
	return cache.NewQuery(h.cache, querykey.Reservations.Detail(id), func(ctx context.Context) (*model.Reservation, error) {
		return h.fetch.Reservation(ctx, id)
	})
}

func (h *Hooks) DashboardStats() *cache.Query[model.DashboardStats] {
	return cache.NewQuery(h.cache, querykey.Dashboard.Stats(), h.fetch.DashboardStats)
}

func (h *Hooks) UpcomingCheckIns() *cache.Query[[]model.UpcomingCheckIn] {
	limit := h.dashboard.UpcomingLimit
	return cache.NewQuery(h.cache, querykey.Dashboard.UpcomingCheckIns(), func(ctx context.Context) ([]model.UpcomingCheckIn, error) {
		return h.fetch.UpcomingCheckIns(ctx, limit)
	})
}

func (h *Hooks) TodayCleaning() *cache.Query[[]model.TodayCleaningJob] {
	return cache.NewQuery(h.cache, querykey.Dashboard.TodayCleaning(), h.fetch.TodayCleaning)
}

func (h *Hooks) RecentActivity() *cache.Query[[]model.Activity] {
	limit := h.dashboard.ActivityLimit
	return cache.NewQuery(h.cache, querykey.Dashboard.RecentActivity(), func(ctx context.Context) ([]model.Activity, error) {
		return h.fetch.RecentActivity(ctx, limit)
	})
}

func (h *Hooks) OccupancyTrends() *cache.Query[[]model.OccupancyPoint] {
	days := h.dashboard.TrendDays
	return cache.NewQuery(h.cache, querykey.Dashboard.OccupancyTrends(), func(ctx context.Context) ([]model.OccupancyPoint, error) {
		return h.fetch.OccupancyTrends(ctx, days)
	})
}

func (h *Hooks) RevenueTrends() *cache.Query[[]model.RevenuePoint] {
	days := h.dashboard.TrendDays
	return cache.NewQuery(h.cache, querykey.Dashboard.RevenueTrends(), func(ctx context.Context) ([]model.RevenuePoint, error) {
		return h.fetch.RevenueTrends(ctx, days)
	})
}

func (h *Hooks) BookingSources() *cache.Query[[]model.BookingSource] {
	return cache.NewQuery(h.cache, querykey.Dashboard.BookingSources(), h.fetch.BookingSources)
}

func (h *Hooks) PropertyPerformance() *cache.Query[[]model.PropertyPerformance] {
	limit, period := h.dashboard.PerformanceLimit, h.dashboard.PerformancePeriod
	return cache.NewQuery(h.cache, querykey.Dashboard.PropertyPerformance(), func(ctx context.Context) ([]model.PropertyPerformance, error) {
		return h.fetch.PropertyPerformance(ctx, limit, period)
	})
}

func (h *Hooks) TaskPriorityBreakdown() *cache.Query[[]model.PriorityBucket] {
	return cache.NewQuery(h.cache, querykey.Dashboard.TaskPriority(), h.fetch.TaskPriorityBreakdown)
}
