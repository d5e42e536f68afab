package data

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-opsboard/gateway"
	"github.com/goliatone/go-opsboard/model"
	"github.com/goliatone/go-opsboard/pkg/testsupport"
)

func newFetcher(t *testing.T, opts ...testsupport.BackendOption) (*Fetcher, *testsupport.Backend) {
	t.Helper()
	backend := testsupport.NewBackend(t, opts...)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	api := gateway.New(backend.URL(), gateway.WithLogger(logger))
	return New(api, WithLogger(logger)), backend
}

func TestTasks_JoinsProperties(t *testing.T) {
	f, backend := newFetcher(t)

	tasks, err := f.Tasks(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 4)

	for _, task := range tasks {
		if task.PropertyID == "" {
			assert.Nil(t, task.Property, "task %s has no property", task.ID)
			continue
		}
		require.NotNil(t, task.Property, "task %s should be joined", task.ID)
		assert.Equal(t, task.PropertyID, task.Property.ID)
	}

	assert.Equal(t, 1, backend.Count(http.MethodGet, "/api/tasks"))
	assert.Equal(t, 1, backend.Count(http.MethodGet, "/api/properties"))
}

func TestFilteredReads_EscapeParams(t *testing.T) {
	f, backend := newFetcher(t)
	ctx := context.Background()

	pending, err := f.TasksByStatus(ctx, model.TaskPending)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	jobs, err := f.CleaningJobsByDate(ctx, testsupport.SeedDate)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)

	none, err := f.TasksByProperty(ctx, "p 1&x=y")
	require.NoError(t, err)
	assert.NotNil(t, none, "empty results are never nil")
	assert.Empty(t, none)

	var sawEscaped bool
	for _, r := range backend.Requests() {
		if r.Path == "/api/tasks" && r.Query == "property_id=p+1%26x%3Dy" {
			sawEscaped = true
		}
	}
	assert.True(t, sawEscaped, "property id should be query escaped")

	inRange, err := f.ReservationsByDateRange(ctx, "2025-06-01", "2025-06-05")
	require.NoError(t, err)
	assert.Len(t, inRange, 2)
}

func TestProperty_AggregatesDetails(t *testing.T) {
	f, _ := newFetcher(t)

	detail, err := f.Property(context.Background(), "p1")
	require.NoError(t, err)
	require.NotNil(t, detail)

	assert.Equal(t, "Harbor Loft", detail.Name)
	assert.Len(t, detail.Reservations, 2)
	assert.Len(t, detail.CleaningJobs, 2)
	assert.Len(t, detail.Tasks, 2)
}

func TestProperty_NotFoundPropagates(t *testing.T) {
	f, _ := newFetcher(t)

	detail, err := f.Property(context.Background(), "missing")
	require.Error(t, err)
	assert.Nil(t, detail)
	assert.True(t, goerrors.IsNotFound(err))
	assert.Equal(t, "Property not found", err.Error())
}

func TestErrorsPropagate(t *testing.T) {
	f, backend := newFetcher(t)
	backend.FailNext(http.MethodGet, "/api/properties", http.StatusInternalServerError, `{"error":"database unavailable"}`)

	_, err := f.CleaningJobs(context.Background())
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, gateway.StatusCode(err))
}

func TestDashboardReads(t *testing.T) {
	f, backend := newFetcher(t)
	ctx := context.Background()

	stats, err := f.DashboardStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalProperties)
	assert.Equal(t, 3, stats.PendingCleaning)
	assert.Equal(t, 3, stats.TaskIssues)

	upcoming, err := f.UpcomingCheckIns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, "Harbor Loft", upcoming[0].PropertyName)

	today, err := f.TodayCleaning(ctx)
	require.NoError(t, err)
	assert.Len(t, today, 2)

	activity, err := f.RecentActivity(ctx, DefaultActivityLimit)
	require.NoError(t, err)
	assert.Len(t, activity, 3)

	occupancy, err := f.OccupancyTrends(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, occupancy, 2)

	revenue, err := f.RevenueTrends(ctx, DefaultTrendDays)
	require.NoError(t, err)
	assert.Len(t, revenue, 4)

	sources, err := f.BookingSources(ctx)
	require.NoError(t, err)
	assert.Len(t, sources, 3)

	perf, err := f.PropertyPerformance(ctx, 2, DefaultPerformancePeriod)
	require.NoError(t, err)
	require.Len(t, perf, 2)
	assert.Equal(t, "Harbor Loft", perf[0].Name)

	buckets, err := f.TaskPriorityBreakdown(ctx)
	require.NoError(t, err)
	assert.Len(t, buckets, 4)

	var perfQuery string
	for _, r := range backend.Requests() {
		if r.Path == "/api/dashboard/property-performance" {
			perfQuery = r.Query
		}
	}
	assert.Equal(t, "limit=2&period=30", perfQuery)
}
