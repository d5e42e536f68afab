package data

import (
	"context"
	"net/url"
	"strconv"

	"github.com/goliatone/go-opsboard/gateway"
	"github.com/goliatone/go-opsboard/model"
)

// Dashboard read defaults.
const (
	DefaultUpcomingLimit     = 50
	DefaultActivityLimit     = 15
	DefaultTrendDays         = 30
	DefaultPerformanceLimit  = 5
	DefaultPerformancePeriod = 30
)

func count(name string, n int) url.Values {
	return url.Values{name: {strconv.Itoa(n)}}
}

// DashboardStats returns the headline KPIs.
func (f *Fetcher) DashboardStats(ctx context.Context) (model.DashboardStats, error) {
	return gateway.Get[model.DashboardStats](ctx, f.api, "/api/dashboard/stats")
}

// UpcomingCheckIns lists up to limit arrivals.
func (f *Fetcher) UpcomingCheckIns(ctx context.Context, limit int) ([]model.UpcomingCheckIn, error) {
	return list[model.UpcomingCheckIn](ctx, f, withQuery("/api/dashboard/upcoming", count("limit", limit)))
}

// TodayCleaning lists cleaning jobs scheduled today.
func (f *Fetcher) TodayCleaning(ctx context.Context) ([]model.TodayCleaningJob, error) {
	return list[model.TodayCleaningJob](ctx, f, "/api/dashboard/today-cleaning")
}

// RecentActivity lists the latest limit activity lines.
func (f *Fetcher) RecentActivity(ctx context.Context, limit int) ([]model.Activity, error) {
	return list[model.Activity](ctx, f, withQuery("/api/dashboard/recent-activity", count("limit", limit)))
}

// OccupancyTrends returns one occupancy point per day for the last days.
func (f *Fetcher) OccupancyTrends(ctx context.Context, days int) ([]model.OccupancyPoint, error) {
	return list[model.OccupancyPoint](ctx, f, withQuery("/api/dashboard/occupancy-trends", count("days", days)))
}

// RevenueTrends returns one revenue point per day for the last days.
func (f *Fetcher) RevenueTrends(ctx context.Context, days int) ([]model.RevenuePoint, error) {
	return list[model.RevenuePoint](ctx, f, withQuery("/api/dashboard/revenue-trends", count("days", days)))
}

// BookingSources aggregates bookings per platform.
func (f *Fetcher) BookingSources(ctx context.Context) ([]model.BookingSource, error) {
	return list[model.BookingSource](ctx, f, "/api/dashboard/booking-sources")
}

// PropertyPerformance ranks the top limit properties over the last period days.
func (f *Fetcher) PropertyPerformance(ctx context.Context, limit, period int) ([]model.PropertyPerformance, error) {
	params := count("limit", limit)
	params.Set("period", strconv.Itoa(period))
	return list[model.PropertyPerformance](ctx, f, withQuery("/api/dashboard/property-performance", params))
}

// TaskPriorityBreakdown counts open tasks per priority.
func (f *Fetcher) TaskPriorityBreakdown(ctx context.Context) ([]model.PriorityBucket, error) {
	return list[model.PriorityBucket](ctx, f, "/api/dashboard/task-priority-breakdown")
}
