package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-opsboard/cache"
	"github.com/goliatone/go-opsboard/model"
)

type readResponse[T any] struct {
	Data      T         `json:"data"`
	Status    string    `json:"status"`
	Stale     bool      `json:"stale"`
	FetchedAt time.Time `json:"fetched_at"`
	Error     string    `json:"error,omitempty"`
}

// respond writes res. A failed read that still has data is served with the
// error attached; one with nothing to show becomes an error response.
func respond[T any](c *gin.Context, res cache.Result[T]) {
	if res.Err != nil && !res.HasData {
		writeError(c, res.Err)
		return
	}
	body := readResponse[T]{
		Data:      res.Data,
		Status:    res.Status.String(),
		Stale:     res.Stale,
		FetchedAt: res.FetchedAt,
	}
	if res.Err != nil {
		body.Error = res.Err.Error()
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) listProperties(c *gin.Context) {
	respond(c, s.hooks.Properties().Use(c.Request.Context()))
}

func (s *Server) getProperty(c *gin.Context) {
	res := s.hooks.Property(c.Param("id")).Use(c.Request.Context())
	if res.Err == nil && res.HasData && res.Data == nil {
		writeError(c, goerrors.New("Property not found", goerrors.CategoryNotFound))
		return
	}
	respond(c, res)
}

func (s *Server) listReservations(c *gin.Context) {
	ctx := c.Request.Context()
	from, to := c.Query("from"), c.Query("to")

	switch {
	case from != "" || to != "":
		if from == "" || to == "" {
			writeError(c, goerrors.NewValidation("invalid date range",
				goerrors.FieldError{Field: "from", Message: "from and to are both required"}))
			return
		}
		respond(c, s.hooks.ReservationsByDateRange(from, to).Use(ctx))
	case c.Query("property_id") != "":
		respond(c, s.hooks.ReservationsByProperty(c.Query("property_id")).Use(ctx))
	default:
		respond(c, s.hooks.Reservations().Use(ctx))
	}
}

func (s *Server) getReservation(c *gin.Context) {
	res := s.hooks.Reservation(c.Param("id")).Use(c.Request.Context())
	if res.Err == nil && res.HasData && res.Data == nil {
		writeError(c, goerrors.New("Reservation not found", goerrors.CategoryNotFound))
		return
	}
	respond(c, res)
}

func (s *Server) listTasks(c *gin.Context) {
	ctx := c.Request.Context()

	if status := c.Query("status"); status != "" {
		if !model.TaskStatus(status).Valid() {
			writeError(c, goerrors.NewValidation("invalid task filter",
				goerrors.FieldError{Field: "status", Message: "unknown task status", Value: status}))
			return
		}
		respond(c, s.hooks.TasksByStatus(model.TaskStatus(status)).Use(ctx))
		return
	}
	if propertyID := c.Query("property_id"); propertyID != "" {
		respond(c, s.hooks.TasksByProperty(propertyID).Use(ctx))
		return
	}
	respond(c, s.hooks.Tasks().Use(ctx))
}

func (s *Server) listCleaning(c *gin.Context) {
	ctx := c.Request.Context()

	if date := c.Query("date"); date != "" {
		if _, err := time.Parse(time.DateOnly, date); err != nil {
			writeError(c, goerrors.NewValidation("invalid cleaning filter",
				goerrors.FieldError{Field: "date", Message: "must be YYYY-MM-DD", Value: date}))
			return
		}
		respond(c, s.hooks.CleaningJobsByDate(date).Use(ctx))
		return
	}
	if propertyID := c.Query("property_id"); propertyID != "" {
		respond(c, s.hooks.CleaningJobsByProperty(propertyID).Use(ctx))
		return
	}
	respond(c, s.hooks.CleaningJobs().Use(ctx))
}

func (s *Server) dashboard(c *gin.Context) {
	ctx := c.Request.Context()

	switch c.Param("name") {
	case "stats":
		respond(c, s.hooks.DashboardStats().Use(ctx))
	case "upcoming-checkins":
		respond(c, s.hooks.UpcomingCheckIns().Use(ctx))
	case "today-cleaning":
		respond(c, s.hooks.TodayCleaning().Use(ctx))
	case "recent-activity":
		respond(c, s.hooks.RecentActivity().Use(ctx))
	case "occupancy-trends":
		respond(c, s.hooks.OccupancyTrends().Use(ctx))
	case "revenue-trends":
		respond(c, s.hooks.RevenueTrends().Use(ctx))
	case "booking-sources":
		respond(c, s.hooks.BookingSources().Use(ctx))
	case "property-performance":
		respond(c, s.hooks.PropertyPerformance().Use(ctx))
	case "task-priority":
		respond(c, s.hooks.TaskPriorityBreakdown().Use(ctx))
	default:
		writeError(c, goerrors.New("unknown dashboard read "+c.Param("name"), goerrors.CategoryNotFound))
	}
}
