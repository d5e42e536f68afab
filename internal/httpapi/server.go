// Package httpapi serves the dashboard reads and writes as JSON over gin.
//
// Reads go through the hooks' cache queries, so repeated requests within the
// stale window are answered from memory. Writes run the hooks' mutations and
// therefore apply the same optimistic updates and invalidations a UI would.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/goliatone/go-opsboard/hooks"
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsHandler mounts h at path, typically a promhttp handler.
func WithMetricsHandler(path string, h http.Handler) Option {
	return func(s *Server) {
		if path != "" && h != nil {
			s.metricsPath = path
			s.metrics = h
		}
	}
}

// Server is the HTTP surface over Hooks.
type Server struct {
	hooks  *hooks.Hooks
	logger *slog.Logger
	engine *gin.Engine

	metricsPath string
	metrics     http.Handler
}

// New builds the router. Call Handler to serve it.
func New(h *hooks.Hooks, opts ...Option) *Server {
	s := &Server{
		hooks:  h,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("component", "httpapi"))

	s.engine = gin.New()
	s.engine.Use(gin.Recovery(), s.requestLogger())
	s.routes()
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	r := s.engine
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.metrics != nil {
		r.GET(s.metricsPath, gin.WrapH(s.metrics))
	}

	api := r.Group("/api")

	api.GET("/properties", s.listProperties)
	api.GET("/properties/:id", s.getProperty)

	api.GET("/reservations", s.listReservations)
	api.GET("/reservations/:id", s.getReservation)

	api.GET("/tasks", s.listTasks)
	api.POST("/tasks", s.createTask)
	api.PATCH("/tasks/:id", s.updateTask)
	api.DELETE("/tasks/:id", s.deleteTask)

	api.GET("/cleaning", s.listCleaning)
	api.PATCH("/cleaning/:id/status", s.updateCleaningStatus)

	api.GET("/dashboard/:name", s.dashboard)

	api.POST("/sync", s.syncData)

	cache := api.Group("/cache")
	cache.GET("", s.cacheEntries)
	cache.POST("/reconnect", s.reconnect)
	cache.POST("/focus", s.windowFocus)
	cache.POST("/invalidate", s.invalidate)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
		)
	}
}
