package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-opsboard/actions"
	"github.com/goliatone/go-opsboard/cache"
	"github.com/goliatone/go-opsboard/data"
	"github.com/goliatone/go-opsboard/gateway"
	"github.com/goliatone/go-opsboard/hooks"
	"github.com/goliatone/go-opsboard/model"
	"github.com/goliatone/go-opsboard/pkg/testsupport"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type harness struct {
	server  *Server
	backend *testsupport.Backend
	cache   *cache.Client
}

func setup(t *testing.T, opts ...Option) harness {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend := testsupport.NewBackend(t)

	cfg := cache.DefaultConfig()
	cfg.Retry = 0
	cfg.RetryDelay = func(int) time.Duration { return time.Millisecond }
	client, err := cache.New(cfg, cache.WithLogger(logger))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	api := gateway.New(backend.URL(), gateway.WithLogger(logger))
	svc := actions.New(api,
		actions.WithLogger(logger),
		actions.WithRevalidator(actions.NewCacheRevalidator(client, logger)),
	)
	h := hooks.New(client, data.New(api, data.WithLogger(logger)), svc, hooks.WithLogger(logger))

	opts = append([]Option{WithLogger(logger)}, opts...)
	return harness{server: New(h, opts...), backend: backend, cache: client}
}

func (h harness) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	h := setup(t)
	w := h.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListTasksIsCached(t *testing.T) {
	h := setup(t)

	w := h.do(t, http.MethodGet, "/api/tasks", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode[readResponse[[]model.Task]](t, w)
	assert.Len(t, body.Data, 4)
	assert.Equal(t, "success", body.Status)
	assert.False(t, body.Stale)
	assert.False(t, body.FetchedAt.IsZero())

	w = h.do(t, http.MethodGet, "/api/tasks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, h.backend.Count(http.MethodGet, "/api/tasks"), "second read should be served from cache")
}

func TestListTasksFilters(t *testing.T) {
	h := setup(t)

	w := h.do(t, http.MethodGet, "/api/tasks?status=pending", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[readResponse[[]model.Task]](t, w).Data, 2)

	w = h.do(t, http.MethodGet, "/api/tasks?property_id=p1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[readResponse[[]model.Task]](t, w).Data, 2)

	w = h.do(t, http.MethodGet, "/api/tasks?status=someday", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	errBody := decode[errorResponse](t, w)
	require.Len(t, errBody.Fields, 1)
	assert.Equal(t, "status", errBody.Fields[0].Field)
	assert.Equal(t, 2, h.backend.Count(http.MethodGet, "/api/tasks"), "the rejected filter never reaches the backend")
}

func TestListCleaningByDate(t *testing.T) {
	h := setup(t)

	w := h.do(t, http.MethodGet, "/api/cleaning?date=2025-06-01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	jobs := decode[readResponse[[]model.CleaningJob]](t, w).Data
	assert.Len(t, jobs, 2)

	w = h.do(t, http.MethodGet, "/api/cleaning?date=June", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReservationDateRangeNeedsBothEnds(t *testing.T) {
	h := setup(t)

	w := h.do(t, http.MethodGet, "/api/reservations?from=2025-06-01", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodGet, "/api/reservations?from=2025-06-01&to=2025-06-30", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPropertyNotFound(t *testing.T) {
	h := setup(t)

	w := h.do(t, http.MethodGet, "/api/properties/p9", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Property not found", decode[errorResponse](t, w).Error)
}

func TestPropertyDetail(t *testing.T) {
	h := setup(t)

	w := h.do(t, http.MethodGet, "/api/properties/p1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	detail := decode[readResponse[model.PropertyWithDetails]](t, w).Data
	assert.Equal(t, "p1", detail.ID)
	assert.NotEmpty(t, detail.Tasks)
}

func TestDashboardReads(t *testing.T) {
	h := setup(t)

	w := h.do(t, http.MethodGet, "/api/dashboard/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[readResponse[model.DashboardStats]](t, w).Data
	assert.Equal(t, 2, stats.ActiveReservations)
	assert.Equal(t, 3, stats.PendingCleaning)
	assert.Equal(t, 3, stats.TaskIssues)
	assert.Equal(t, 3, stats.TotalProperties)

	for _, name := range []string{
		"upcoming-checkins", "today-cleaning", "recent-activity", "occupancy-trends",
		"revenue-trends", "booking-sources", "property-performance", "task-priority",
	} {
		w := h.do(t, http.MethodGet, "/api/dashboard/"+name, nil)
		assert.Equal(t, http.StatusOK, w.Code, name)
	}

	w = h.do(t, http.MethodGet, "/api/dashboard/weather", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateCleaningStatusRefreshesStats(t *testing.T) {
	h := setup(t)

	w := h.do(t, http.MethodGet, "/api/dashboard/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 3, decode[readResponse[model.DashboardStats]](t, w).Data.PendingCleaning)

	w = h.do(t, http.MethodPatch, "/api/cleaning/c2/status", model.CleaningStatusUpdate{Status: model.CleaningCompleted})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decode[writeResponse](t, w).Success)

	job, ok := h.backend.CleaningJob("c2")
	require.True(t, ok)
	assert.Equal(t, model.CleaningCompleted, job.Status)

	w = h.do(t, http.MethodGet, "/api/dashboard/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decode[readResponse[model.DashboardStats]](t, w).Data.PendingCleaning)
	assert.Equal(t, 2, h.backend.Count(http.MethodGet, "/api/dashboard/stats"))
}

func TestUpdateCleaningStatusRejectsUnknownStatus(t *testing.T) {
	h := setup(t)

	w := h.do(t, http.MethodPatch, "/api/cleaning/c2/status", map[string]string{"status": "sparkling"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decode[errorResponse](t, w)
	assert.False(t, body.Success)
	assert.Equal(t, "Failed to update cleaning status", body.Error)
	assert.Equal(t, "INVALID_STATUS", body.Code)
	assert.Zero(t, h.backend.Count(http.MethodPatch, "/api/cleaning/c2/status"))
}

func TestUpdateTaskBackendFailure(t *testing.T) {
	h := setup(t)

	// one failure per attempt: the first try and the single retry
	h.backend.FailNext(http.MethodPatch, "/api/tasks/t1", http.StatusInternalServerError, `{"error":"boom"}`)
	h.backend.FailNext(http.MethodPatch, "/api/tasks/t1", http.StatusInternalServerError, `{"error":"boom"}`)

	w := h.do(t, http.MethodPatch, "/api/tasks/t1", model.StatusUpdate(model.TaskCompleted))
	require.Equal(t, http.StatusBadGateway, w.Code, w.Body.String())
	assert.Equal(t, "Failed to update task", decode[errorResponse](t, w).Error)
	assert.Equal(t, 2, h.backend.Count(http.MethodPatch, "/api/tasks/t1"))
}

func TestUpdateTaskRejectsEmptyPatch(t *testing.T) {
	h := setup(t)

	w := h.do(t, http.MethodPatch, "/api/tasks/t1", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, h.backend.Count(http.MethodPatch, "/api/tasks/t1"))
}

func TestTaskLifecycle(t *testing.T) {
	h := setup(t)

	w := h.do(t, http.MethodPost, "/api/tasks", model.TaskInput{Title: "Fix the gate"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Len(t, h.backend.Tasks(), 5)

	w = h.do(t, http.MethodPost, "/api/tasks", model.TaskInput{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodPatch, "/api/tasks/t1", model.StatusUpdate(model.TaskCompleted))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = h.do(t, http.MethodDelete, "/api/tasks/t4", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	tasks := h.backend.Tasks()
	assert.Len(t, tasks, 4)
	for _, task := range tasks {
		assert.NotEqual(t, "t4", task.ID)
		if task.ID == "t1" {
			assert.Equal(t, model.TaskCompleted, task.Status)
		}
	}
}

func TestSyncWithoutSources(t *testing.T) {
	h := setup(t)

	w := h.do(t, http.MethodPost, "/api/sync", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Sync complete", decode[writeResponse](t, w).Message)
}

func TestCacheEndpoints(t *testing.T) {
	h := setup(t)

	require.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/api/tasks", nil).Code)
	require.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/api/dashboard/stats", nil).Code)

	type listing struct {
		Data  []cacheEntry `json:"data"`
		Count int          `json:"count"`
	}

	all := decode[listing](t, h.do(t, http.MethodGet, "/api/cache", nil))
	assert.Equal(t, 2, all.Count)

	tasks := decode[listing](t, h.do(t, http.MethodGet, "/api/cache?prefix=tasks", nil))
	require.Equal(t, 1, tasks.Count)
	assert.Equal(t, `["tasks"]`, tasks.Data[0].Key.String())
	assert.False(t, tasks.Data[0].Stale)

	w := h.do(t, http.MethodPost, "/api/cache/invalidate", map[string]any{"key": []string{"dashboard"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, w)["invalidated"])

	stats := decode[listing](t, h.do(t, http.MethodGet, "/api/cache?prefix=dashboard/stats", nil))
	require.Equal(t, 1, stats.Count)
	assert.True(t, stats.Data[0].Invalidated)
	assert.True(t, stats.Data[0].Stale)

	w = h.do(t, http.MethodPost, "/api/cache/reconnect", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode[map[string]any](t, w)["refetched"], "nothing is observed")

	w = h.do(t, http.MethodPost, "/api/cache/focus", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsHandler(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("opsboard_cache_hits_total 1\n"))
	})
	h := setup(t, WithMetricsHandler("/metrics", metrics))

	w := h.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "opsboard_cache_hits_total")
}

func TestStatusFor(t *testing.T) {
	res := actions.Result{Success: false, Error: "x"}
	assert.Equal(t, http.StatusBadGateway, statusFor(res.Err()))
}
