package testsupport

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/goliatone/go-opsboard/model"
)

// Request is one call the fake backend received.
type Request struct {
	Method        string
	Path          string
	Query         string
	Authorization string
}

type failure struct {
	status int
	body   string
}

// Backend is an in-memory fake of the Workers API served over httptest.
// Writes change the in-memory state, so a refetch after a mutation sees the
// new data the way the real backend would.
type Backend struct {
	mu           sync.Mutex
	seed         Seed
	today        string
	apiKey       string
	requests     []Request
	failures     map[string][]failure
	holds        map[string]chan struct{}
	nextTaskID   int
	server       *httptest.Server
	propertyByID map[string]model.Property
}

// BackendOption configures a Backend.
type BackendOption func(*Backend)

// WithSeed replaces the default seed data.
func WithSeed(seed Seed) BackendOption {
	return func(b *Backend) {
		b.seed = seed
	}
}

// WithAPIKey makes the backend reject requests without "Bearer <key>".
func WithAPIKey(key string) BackendOption {
	return func(b *Backend) {
		b.apiKey = key
	}
}

// WithToday sets the date the dashboard endpoints treat as today.
func WithToday(date string) BackendOption {
	return func(b *Backend) {
		b.today = date
	}
}

// NewBackend starts a fake backend that is shut down when the test ends.
func NewBackend(t testing.TB, opts ...BackendOption) *Backend {
	t.Helper()

	b := &Backend{
		today:      SeedDate,
		failures:   make(map[string][]failure),
		holds:      make(map[string]chan struct{}),
		nextTaskID: 100,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.seed.Properties == nil {
		b.seed = DefaultSeed(t)
	}
	b.indexProperties()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(b.record, b.authorize, b.hold, b.inject)
	b.routes(r)

	b.server = httptest.NewServer(r)
	t.Cleanup(func() {
		b.releaseAll()
		b.server.Close()
	})
	return b
}

// URL is the base URL to point a gateway at.
func (b *Backend) URL() string {
	return b.server.URL
}

// Requests returns every request received so far.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.requests)
}

// Count returns how many requests matched method and path.
func (b *Backend) Count(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, r := range b.requests {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// FailNext makes the next request to method and path fail with status and a
// raw body. Calls queue up.
func (b *Backend) FailNext(method, path string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	k := method + " " + path
	b.failures[k] = append(b.failures[k], failure{status: status, body: body})
}

// Hold blocks requests to method and path until the returned release func
// is called.
func (b *Backend) Hold(method, path string) (release func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	k := method + " " + path
	ch := make(chan struct{})
	b.holds[k] = ch
	return func() {
		b.mu.Lock()
		owned := b.holds[k] == ch
		if owned {
			delete(b.holds, k)
		}
		b.mu.Unlock()
		if owned {
			close(ch)
		}
	}
}

// Tasks returns the backend's current tasks.
func (b *Backend) Tasks() []model.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.seed.Tasks)
}

// CleaningJob returns the backend's current copy of a cleaning job.
func (b *Backend) CleaningJob(id string) (model.CleaningJob, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, j := range b.seed.CleaningJobs {
		if j.ID == id {
			return j, true
		}
	}
	return model.CleaningJob{}, false
}

func (b *Backend) releaseAll() {
	b.mu.Lock()
	holds := b.holds
	b.holds = make(map[string]chan struct{})
	b.mu.Unlock()
	for _, ch := range holds {
		close(ch)
	}
}

func (b *Backend) indexProperties() {
	b.propertyByID = make(map[string]model.Property, len(b.seed.Properties))
	for _, p := range b.seed.Properties {
		b.propertyByID[p.ID] = p
	}
}

func (b *Backend) record(c *gin.Context) {
	b.mu.Lock()
	b.requests = append(b.requests, Request{
		Method:        c.Request.Method,
		Path:          c.Request.URL.Path,
		Query:         c.Request.URL.RawQuery,
		Authorization: c.GetHeader("Authorization"),
	})
	b.mu.Unlock()
	c.Next()
}

func (b *Backend) authorize(c *gin.Context) {
	if b.apiKey != "" && c.GetHeader("Authorization") != "Bearer "+b.apiKey {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	c.Next()
}

func (b *Backend) hold(c *gin.Context) {
	b.mu.Lock()
	ch := b.holds[c.Request.Method+" "+c.Request.URL.Path]
	b.mu.Unlock()
	if ch != nil {
		select {
		case <-ch:
		case <-c.Request.Context().Done():
			c.Abort()
			return
		}
	}
	c.Next()
}

func (b *Backend) inject(c *gin.Context) {
	k := c.Request.Method + " " + c.Request.URL.Path
	b.mu.Lock()
	queue := b.failures[k]
	var f *failure
	if len(queue) > 0 {
		f = &queue[0]
		b.failures[k] = queue[1:]
	}
	b.mu.Unlock()
	if f != nil {
		c.Data(f.status, "application/json", []byte(f.body))
		c.Abort()
		return
	}
	c.Next()
}

func (b *Backend) routes(r *gin.Engine) {
	api := r.Group("/api")

	api.GET("/properties", b.listProperties)
	api.GET("/properties/:id", b.getProperty)

	api.GET("/reservations", b.listReservations)
	api.GET("/reservations/:id", b.getReservation)

	api.GET("/tasks", b.listTasks)
	api.POST("/tasks", b.createTask)
	api.PATCH("/tasks/:id", b.updateTask)
	api.DELETE("/tasks/:id", b.deleteTask)

	api.GET("/cleaning", b.listCleaning)
	api.PATCH("/cleaning/:id/status", b.updateCleaningStatus)

	dash := api.Group("/dashboard")
	dash.GET("/stats", b.stats)
	dash.GET("/upcoming", b.upcoming)
	dash.GET("/today-cleaning", b.todayCleaning)
	dash.GET("/recent-activity", b.recentActivity)
	dash.GET("/occupancy-trends", b.occupancyTrends)
	dash.GET("/revenue-trends", b.revenueTrends)
	dash.GET("/booking-sources", b.bookingSources)
	dash.GET("/property-performance", b.propertyPerformance)
	dash.GET("/task-priority-breakdown", b.taskPriority)
}

func list[T any](c *gin.Context, items []T) {
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, gin.H{"data": items, "count": len(items)})
}

func notFound(c *gin.Context, what string) {
	c.JSON(http.StatusNotFound, gin.H{"error": what + " not found"})
}

func (b *Backend) listProperties(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list(c, slices.Clone(b.seed.Properties))
}

func (b *Backend) getProperty(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.propertyByID[c.Param("id")]
	if !ok {
		notFound(c, "Property")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": p})
}

func (b *Backend) listReservations(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	propertyID, from, to := c.Query("property_id"), c.Query("from"), c.Query("to")
	var out []model.Reservation
	for _, r := range b.seed.Reservations {
		if propertyID != "" && r.PropertyID != propertyID {
			continue
		}
		if from != "" && r.CheckOutDate < from {
			continue
		}
		if to != "" && r.CheckInDate > to {
			continue
		}
		out = append(out, r)
	}
	list(c, out)
}

func (b *Backend) getReservation(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range b.seed.Reservations {
		if r.ID == c.Param("id") {
			c.JSON(http.StatusOK, gin.H{"data": r})
			return
		}
	}
	notFound(c, "Reservation")
}

func (b *Backend) listTasks(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	status, propertyID := c.Query("status"), c.Query("property_id")
	var out []model.Task
	for _, t := range b.seed.Tasks {
		if status != "" && string(t.Status) != status {
			continue
		}
		if propertyID != "" && t.PropertyID != propertyID {
			continue
		}
		out = append(out, t)
	}
	list(c, out)
}

func (b *Backend) createTask(c *gin.Context) {
	var in model.TaskInput
	if err := c.ShouldBindJSON(&in); err != nil || strings.TrimSpace(in.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}
	in = in.Normalize()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextTaskID++
	task := model.Task{
		ID:          "t" + strconv.Itoa(b.nextTaskID),
		PropertyID:  in.PropertyID,
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Priority:    in.Priority,
		Status:      in.Status,
		AssignedTo:  in.AssignedTo,
		DueDate:     in.DueDate,
		CreatedBy:   "api",
		CreatedAt:   b.today + "T00:00:00Z",
		UpdatedAt:   b.today + "T00:00:00Z",
	}
	if task.Category == "" {
		task.Category = model.TaskGeneral
	}
	b.seed.Tasks = append(b.seed.Tasks, task)
	c.JSON(http.StatusCreated, gin.H{"data": task})
}

func (b *Backend) updateTask(c *gin.Context) {
	var patch model.TaskUpdate
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid body"})
		return
	}
	if patch.Status != nil && !patch.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status", "code": "INVALID_STATUS"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for i, t := range b.seed.Tasks {
		if t.ID != c.Param("id") {
			continue
		}
		updated := patch.Apply(t)
		updated.UpdatedAt = b.today + "T12:00:00Z"
		b.seed.Tasks[i] = updated
		c.JSON(http.StatusOK, gin.H{"data": updated})
		return
	}
	notFound(c, "Task")
}

func (b *Backend) deleteTask(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, t := range b.seed.Tasks {
		if t.ID == c.Param("id") {
			b.seed.Tasks = slices.Delete(b.seed.Tasks, i, i+1)
			c.JSON(http.StatusOK, gin.H{"success": true})
			return
		}
	}
	notFound(c, "Task")
}

func (b *Backend) listCleaning(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	date, propertyID := c.Query("date"), c.Query("property_id")
	var out []model.CleaningJob
	for _, j := range b.seed.CleaningJobs {
		if date != "" && j.ScheduledDate != date {
			continue
		}
		if propertyID != "" && j.PropertyID != propertyID {
			continue
		}
		out = append(out, j)
	}
	list(c, out)
}

func (b *Backend) updateCleaningStatus(c *gin.Context) {
	var body model.CleaningStatusUpdate
	if err := c.ShouldBindJSON(&body); err != nil || !body.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status", "code": "INVALID_STATUS"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for i, j := range b.seed.CleaningJobs {
		if j.ID != c.Param("id") {
			continue
		}
		j.Status = body.Status
		b.seed.CleaningJobs[i] = j
		c.JSON(http.StatusOK, gin.H{"data": j})
		return
	}
	notFound(c, "Cleaning job")
}

func (b *Backend) stats(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var stats model.DashboardStats
	stats.TotalProperties = len(b.seed.Properties)
	for _, r := range b.seed.Reservations {
		if r.Status == "accepted" {
			stats.ActiveReservations++
			stats.TotalRevenue += r.TotalPrice
		}
	}
	for _, j := range b.seed.CleaningJobs {
		if j.Status == model.CleaningPending || j.Status == model.CleaningAssigned {
			stats.PendingCleaning++
		}
	}
	for _, t := range b.seed.Tasks {
		if t.Status != model.TaskCompleted {
			stats.TaskIssues++
		}
	}
	c.JSON(http.StatusOK, gin.H{"data": stats})
}

func intQuery(c *gin.Context, name string, def int) int {
	if v, err := strconv.Atoi(c.Query(name)); err == nil && v > 0 {
		return v
	}
	return def
}

func (b *Backend) upcoming(c *gin.Context) {
	limit := intQuery(c, "limit", 50)
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []model.UpcomingCheckIn
	for _, r := range b.seed.Reservations {
		if r.CheckInDate < b.today || r.Status == "cancelled" {
			continue
		}
		p := b.propertyByID[r.PropertyID]
		out = append(out, model.UpcomingCheckIn{
			ID:           r.ID,
			PropertyID:   r.PropertyID,
			GuestName:    r.GuestName,
			CheckInDate:  r.CheckInDate,
			CheckOutDate: r.CheckOutDate,
			Platform:     r.Platform,
			Status:       r.Status,
			PropertyName: p.Name,
			CheckInTime:  p.CheckInTime,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckInDate < out[j].CheckInDate })
	if len(out) > limit {
		out = out[:limit]
	}
	list(c, out)
}

func (b *Backend) todayCleaning(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []model.TodayCleaningJob
	for _, j := range b.seed.CleaningJobs {
		if j.ScheduledDate != b.today {
			continue
		}
		out = append(out, model.TodayCleaningJob{
			CleaningJob:  j,
			PropertyName: b.propertyByID[j.PropertyID].Name,
		})
	}
	list(c, out)
}

func (b *Backend) recentActivity(c *gin.Context) {
	limit := intQuery(c, "limit", 15)
	b.mu.Lock()
	defer b.mu.Unlock()
	out := slices.Clone(b.seed.Activity)
	if len(out) > limit {
		out = out[:limit]
	}
	list(c, out)
}

func tail[T any](items []T, n int) []T {
	if len(items) > n {
		return slices.Clone(items[len(items)-n:])
	}
	return slices.Clone(items)
}

func (b *Backend) occupancyTrends(c *gin.Context) {
	days := intQuery(c, "days", 30)
	b.mu.Lock()
	defer b.mu.Unlock()
	list(c, tail(b.seed.Occupancy, days))
}

func (b *Backend) revenueTrends(c *gin.Context) {
	days := intQuery(c, "days", 30)
	b.mu.Lock()
	defer b.mu.Unlock()
	list(c, tail(b.seed.Revenue, days))
}

func (b *Backend) bookingSources(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	byPlatform := make(map[string]*model.BookingSource)
	var order []string
	for _, r := range b.seed.Reservations {
		src, ok := byPlatform[r.Platform]
		if !ok {
			src = &model.BookingSource{Name: r.Platform}
			byPlatform[r.Platform] = src
			order = append(order, r.Platform)
		}
		src.Value++
		src.Revenue += r.TotalPrice
	}
	out := make([]model.BookingSource, 0, len(order))
	for _, name := range order {
		out = append(out, *byPlatform[name])
	}
	list(c, out)
}

func (b *Backend) propertyPerformance(c *gin.Context) {
	limit := intQuery(c, "limit", 5)
	b.mu.Lock()
	defer b.mu.Unlock()
	perf := make(map[string]*model.PropertyPerformance)
	for _, p := range b.seed.Properties {
		perf[p.ID] = &model.PropertyPerformance{Name: p.Name}
	}
	for _, r := range b.seed.Reservations {
		if pp, ok := perf[r.PropertyID]; ok && r.Status != "cancelled" {
			pp.Revenue += r.TotalPrice
			pp.Bookings++
		}
	}
	out := make([]model.PropertyPerformance, 0, len(perf))
	for _, pp := range perf {
		out = append(out, *pp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	list(c, out)
}

func (b *Backend) taskPriority(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	priorities := []model.TaskPriority{model.PriorityUrgent, model.PriorityHigh, model.PriorityMedium, model.PriorityLow}
	counts := make(map[model.TaskPriority]int)
	for _, t := range b.seed.Tasks {
		if t.Status != model.TaskCompleted {
			counts[t.Priority]++
		}
	}
	out := make([]model.PriorityBucket, 0, len(priorities))
	for _, p := range priorities {
		out = append(out, model.PriorityBucket{
			Label:       strings.ToUpper(string(p[:1])) + string(p[1:]),
			Count:       counts[p],
			FilterParam: fmt.Sprintf("priority=%s", p),
		})
	}
	list(c, out)
}
