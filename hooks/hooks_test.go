package hooks

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-opsboard/actions"
	"github.com/goliatone/go-opsboard/cache"
	"github.com/goliatone/go-opsboard/data"
	"github.com/goliatone/go-opsboard/gateway"
	"github.com/goliatone/go-opsboard/model"
	"github.com/goliatone/go-opsboard/mutation"
	"github.com/goliatone/go-opsboard/pkg/testsupport"
	"github.com/goliatone/go-opsboard/querykey"
)

type fixture struct {
	hooks   *Hooks
	cache   *cache.Client
	backend *testsupport.Backend
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend := testsupport.NewBackend(t)

	cfg := cache.DefaultConfig()
	cfg.Retry = 0
	cfg.RetryDelay = func(int) time.Duration { return time.Millisecond }
	client, err := cache.New(cfg, cache.WithLogger(logger))
	require.NoError(t, err, "failed to create cache")
	t.Cleanup(func() { _ = client.Close() })

	api := gateway.New(backend.URL(), gateway.WithLogger(logger))
	svc := actions.New(api, actions.WithLogger(logger))
	h := New(client, data.New(api, data.WithLogger(logger)), svc, WithLogger(logger))

	return fixture{hooks: h, cache: client, backend: backend}
}

// invalidations records every key the cache reports as invalidated.
type invalidations struct {
	mu   sync.Mutex
	keys []querykey.Key
}

func recordInvalidations(t *testing.T, c *cache.Client) *invalidations {
	rec := &invalidations{}
	unsubscribe := c.Subscribe(func(ev cache.Event) {
		if ev.Type != cache.EventInvalidated {
			return
		}
		rec.mu.Lock()
		rec.keys = append(rec.keys, ev.Key)
		rec.mu.Unlock()
	})
	t.Cleanup(unsubscribe)
	return rec
}

func (r *invalidations) has(key querykey.Key) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range r.keys {
		if k.Equal(key) {
			return true
		}
	}
	return false
}

func TestUpdateCleaningStatus_EndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cache.SetQueryData(f.cache, querykey.Cleaning.All(), []model.CleaningJob{{ID: "c1", Status: model.CleaningPending}})
	require.NoError(t, f.hooks.TodayCleaning().Use(ctx).Err, "loading today's cleaning")
	rec := recordInvalidations(t, f.cache)

	release := f.backend.Hold(http.MethodPatch, "/api/cleaning/c1/status")
	call := f.hooks.UpdateCleaningStatus.Start(ctx, CleaningStatusVars{JobID: "c1", Status: model.CleaningVerified})

	jobs, ok := cache.GetQueryData[[]model.CleaningJob](f.cache, querykey.Cleaning.All())
	require.True(t, ok)
	require.Len(t, jobs, 1)
	require.Equal(t, model.CleaningVerified, jobs[0].Status, "optimistic status must be visible before the network call resolves")
	assert.True(t, f.hooks.UpdateCleaningStatus.IsPending(), "mutation should be pending while the request is held")

	release()
	require.NoError(t, call.Wait())

	for _, key := range []querykey.Key{querykey.Cleaning.All(), querykey.Dashboard.TodayCleaning()} {
		assert.True(t, rec.has(key), "expected %s to be invalidated on settle", key)
	}
	e, _ := f.cache.Get(querykey.Dashboard.TodayCleaning())
	assert.True(t, e.Invalidated, "today's cleaning entry should be marked stale")

	job, _ := f.backend.CleaningJob("c1")
	assert.Equal(t, model.CleaningVerified, job.Status, "backend should hold the new status")

	// The next read refetches the authoritative list.
	res := f.hooks.CleaningJobs().Use(ctx)
	require.NoError(t, res.Err)
	assert.Len(t, res.Data, 4)
}

func TestUpdateTask_RollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	before := f.hooks.Tasks().Use(ctx)
	require.NoError(t, before.Err)

	// The mutation retries once, so fail both attempts.
	for range 2 {
		f.backend.FailNext(http.MethodPatch, "/api/tasks/t1", http.StatusInternalServerError, `{"error":"database unavailable"}`)
	}

	call := f.hooks.UpdateTask.Start(ctx, TaskUpdateVars{TaskID: "t1", Update: model.StatusUpdate(model.TaskCompleted)})
	tasks, _ := cache.GetQueryData[[]model.Task](f.cache, querykey.Tasks.All())
	require.Equal(t, model.TaskCompleted, tasks[0].Status, "expected optimistic completed status")

	err := call.Wait()
	require.Error(t, err)
	assert.ErrorIs(t, err, actions.ErrActionFailed)
	assert.EqualError(t, err, "Failed to update task")
	assert.Equal(t, 2, f.backend.Count(http.MethodPatch, "/api/tasks/t1"))

	after, _ := cache.GetQueryData[[]model.Task](f.cache, querykey.Tasks.All())
	assert.Equal(t, before.Data, after, "expected rollback to the snapshot")

	state, ok := f.hooks.UpdateTask.State().(mutation.Failed[TaskUpdateVars])
	require.True(t, ok, "expected failed state, got %s", mutation.StateName[TaskUpdateVars](f.hooks.UpdateTask.State()))
	assert.True(t, state.RolledBack, "failed state should record the rollback")
}

func TestUpdateTask_RollbackRestoresJoinedProperty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	seeded := []model.Task{{ID: "t1", Title: "Fix tap", Status: model.TaskPending, Property: &model.Property{ID: "p1", Name: "Ocean View"}}}
	cache.SetQueryData(f.cache, querykey.Tasks.All(), seeded)

	for range 2 {
		f.backend.FailNext(http.MethodPatch, "/api/tasks/t1", http.StatusInternalServerError, `{"error":"database unavailable"}`)
	}
	call := f.hooks.UpdateTask.Start(ctx, TaskUpdateVars{TaskID: "t1", Update: model.StatusUpdate(model.TaskCompleted)})

	// A reader editing the optimistic copy's joined property in place must
	// not leak into the snapshot used for rollback.
	optimistic, _ := cache.GetQueryData[[]model.Task](f.cache, querykey.Tasks.All())
	optimistic[0].Property.Name = "edited while pending"

	require.Error(t, call.Wait())

	after, _ := cache.GetQueryData[[]model.Task](f.cache, querykey.Tasks.All())
	require.Len(t, after, 1)
	assert.Equal(t, model.TaskPending, after[0].Status)
	require.NotNil(t, after[0].Property)
	assert.Equal(t, "Ocean View", after[0].Property.Name)
}

func TestCloneSlice(t *testing.T) {
	t.Run("tasks", func(t *testing.T) {
		tasks := []model.Task{{ID: "t1", Property: &model.Property{ID: "p1", Name: "Ocean View"}}, {ID: "t2"}}

		cloned, ok := cloneSlice[model.Task](tasks).([]model.Task)
		require.True(t, ok)
		require.Equal(t, tasks, cloned)
		assert.NotSame(t, tasks[0].Property, cloned[0].Property)
		assert.Nil(t, cloned[1].Property)

		cloned[0].Property.Name = "changed"
		assert.Equal(t, "Ocean View", tasks[0].Property.Name)
	})

	t.Run("cleaning jobs", func(t *testing.T) {
		jobs := []model.CleaningJob{{
			ID:             "c1",
			IssuesReported: []string{"broken lamp"},
			Property:       &model.Property{ID: "p1", Name: "Ocean View"},
		}}

		cloned := cloneSlice[model.CleaningJob](jobs).([]model.CleaningJob)
		cloned[0].IssuesReported[0] = "fixed"
		cloned[0].Property.Name = "changed"

		assert.Equal(t, "broken lamp", jobs[0].IssuesReported[0])
		assert.Equal(t, "Ocean View", jobs[0].Property.Name)
	})

	t.Run("other values pass through", func(t *testing.T) {
		assert.Equal(t, "not a list", cloneSlice[model.Task]("not a list"))
		assert.Nil(t, cloneSlice[model.Task]([]model.Task(nil)))
	})
}

func TestDeleteTask_OptimisticRemoval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.Len(t, f.hooks.Tasks().Use(ctx).Data, 4)

	release := f.backend.Hold(http.MethodDelete, "/api/tasks/t2")
	call := f.hooks.DeleteTask.Start(ctx, "t2")

	tasks, _ := cache.GetQueryData[[]model.Task](f.cache, querykey.Tasks.All())
	require.Len(t, tasks, 3, "expected optimistic removal")
	for _, task := range tasks {
		require.NotEqual(t, "t2", task.ID, "t2 should be gone from the cache")
	}

	release()
	require.NoError(t, call.Wait())

	res := f.hooks.Tasks().Use(ctx)
	require.Len(t, res.Data, 3)
	assert.Equal(t, 2, f.backend.Count(http.MethodGet, "/api/tasks"), "expected a refetch after settle")
}

func TestUpdateTask_ItemNotCached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.hooks.Tasks().Use(ctx)
	call := f.hooks.UpdateTask.Start(ctx, TaskUpdateVars{TaskID: "t-unknown", Update: model.StatusUpdate(model.TaskCompleted)})
	assert.False(t, call.Context.Applied, "no optimistic write expected for a task that is not cached")
	require.Error(t, call.Wait(), "expected the backend to reject an unknown task")
	assert.NotZero(t, f.backend.Count(http.MethodPatch, "/api/tasks/t-unknown"), "the backend call should still run")
}

func TestCreateTask_InvalidatesTasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.hooks.Tasks().Use(ctx)
	f.hooks.TaskPriorityBreakdown().Use(ctx)

	require.NoError(t, f.hooks.CreateTask.Mutate(ctx, model.TaskInput{Title: "Deep clean oven", PropertyID: "p3"}))

	for _, key := range []querykey.Key{querykey.Tasks.All(), querykey.Dashboard.TaskPriority()} {
		e, _ := f.cache.Get(key)
		assert.True(t, e.Invalidated, "expected %s to be invalidated", key)
	}

	assert.Len(t, f.hooks.Tasks().Use(ctx).Data, 5)
}

func TestSyncData_InvalidatesEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.hooks.Properties().Use(ctx)
	f.hooks.ReservationsByProperty("p1").Use(ctx)
	f.hooks.CleaningJobsByDate(testsupport.SeedDate).Use(ctx)
	f.hooks.TasksByStatus(model.TaskPending).Use(ctx)
	f.hooks.DashboardStats().Use(ctx)
	f.hooks.RevenueTrends().Use(ctx)

	require.NoError(t, f.hooks.SyncData.Mutate(ctx, struct{}{}))

	entries := 0
	for _, prefix := range []querykey.Key{
		querykey.Properties.All(),
		querykey.Reservations.All(),
		querykey.Cleaning.All(),
		querykey.Tasks.All(),
		querykey.Dashboard.All(),
	} {
		for _, e := range f.cache.Entries(prefix) {
			entries++
			assert.True(t, e.Invalidated, "expected %s to be invalidated", e.Key)
		}
	}
	assert.Equal(t, 6, entries)
}

func TestObservedQueryRefetchesAfterMutation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	obs, err := f.hooks.DashboardStats().Observe()
	require.NoError(t, err)
	defer obs.Close()

	require.Eventually(t, func() bool { return obs.Current().HasData }, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, 3, obs.Current().Data.PendingCleaning)

	f.hooks.CleaningJobs().Use(ctx)
	require.NoError(t, f.hooks.UpdateCleaningStatus.Mutate(ctx, CleaningStatusVars{JobID: "c2", Status: model.CleaningCompleted}))
	f.cache.Drain()

	assert.Eventually(t, func() bool { return obs.Current().Data.PendingCleaning == 2 }, 2*time.Second, 5*time.Millisecond)
}

func TestDashboardParams(t *testing.T) {
	f := newFixture(t)
	h := New(f.cache, nil, nil, WithDashboardParams(DashboardParams{UpcomingLimit: 3}))

	assert.Equal(t, 3, h.dashboard.UpcomingLimit)
	assert.Equal(t, data.DefaultTrendDays, h.dashboard.TrendDays, "zero fields keep defaults")
}

func TestReadKeys(t *testing.T) {
	f := newFixture(t)
	h := f.hooks

	tests := []struct {
		got  querykey.Key
		want querykey.Key
	}{
		{h.Tasks().Key(), querykey.New("tasks")},
		{h.TasksByStatus(model.TaskPending).Key(), querykey.New("tasks", "status", "pending")},
		{h.CleaningJobsByProperty("p1").Key(), querykey.New("cleaning", "property", "p1")},
		{h.Property("p1").Key(), querykey.New("properties", "p1")},
		{h.Reservation("r1").Key(), querykey.New("reservations", "r1")},
		{h.ReservationsByDateRange("a", "b").Key(), querykey.New("reservations", "dateRange", "a", "b")},
		{h.UpcomingCheckIns().Key(), querykey.New("dashboard", "upcoming-checkins")},
		{h.TodayCleaning().Key(), querykey.New("dashboard", "today-cleaning")},
		{h.RecentActivity().Key(), querykey.New("dashboard", "recent-activity")},
		{h.OccupancyTrends().Key(), querykey.New("dashboard", "occupancy-trends")},
		{h.BookingSources().Key(), querykey.New("dashboard", "booking-sources")},
		{h.PropertyPerformance().Key(), querykey.New("dashboard", "property-performance")},
		{h.TaskPriorityBreakdown().Key(), querykey.New("dashboard", "task-priority")},
	}
	for _, tt := range tests {
		assert.True(t, tt.got.Equal(tt.want), "expected key %s, got %s", tt.want, tt.got)
	}
}
