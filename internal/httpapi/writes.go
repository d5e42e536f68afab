package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-opsboard/hooks"
	"github.com/goliatone/go-opsboard/model"
	"github.com/goliatone/go-opsboard/querykey"
)

type writeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func badBody(c *gin.Context, err error) {
	writeError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid request body"))
}

func (s *Server) createTask(c *gin.Context) {
	var in model.TaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badBody(c, err)
		return
	}
	if err := s.hooks.CreateTask.Mutate(c.Request.Context(), in); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, writeResponse{Success: true})
}

func (s *Server) updateTask(c *gin.Context) {
	var update model.TaskUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		badBody(c, err)
		return
	}
	if update.IsEmpty() {
		writeError(c, goerrors.New("update changes nothing", goerrors.CategoryBadInput))
		return
	}

	vars := hooks.TaskUpdateVars{TaskID: c.Param("id"), Update: update}
	if err := s.hooks.UpdateTask.Mutate(c.Request.Context(), vars); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, writeResponse{Success: true})
}

func (s *Server) deleteTask(c *gin.Context) {
	if err := s.hooks.DeleteTask.Mutate(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, writeResponse{Success: true})
}

func (s *Server) updateCleaningStatus(c *gin.Context) {
	var body model.CleaningStatusUpdate
	if err := c.ShouldBindJSON(&body); err != nil {
		badBody(c, err)
		return
	}

	vars := hooks.CleaningStatusVars{JobID: c.Param("id"), Status: body.Status}
	if err := s.hooks.UpdateCleaningStatus.Mutate(c.Request.Context(), vars); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, writeResponse{Success: true})
}

func (s *Server) syncData(c *gin.Context) {
	if err := s.hooks.SyncData.Mutate(c.Request.Context(), struct{}{}); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, writeResponse{Success: true, Message: "Sync complete"})
}

type cacheEntry struct {
	Key         querykey.Key `json:"key"`
	Status      string       `json:"status"`
	HasData     bool         `json:"has_data"`
	Stale       bool         `json:"stale"`
	Invalidated bool         `json:"invalidated"`
	Observers   int          `json:"observers"`
	Error       string       `json:"error,omitempty"`
}

// cacheEntries lists the entries under ?prefix=a/b, or every entry.
func (s *Server) cacheEntries(c *gin.Context) {
	cl := s.hooks.Cache()
	now := cl.Now()

	entries := cl.Entries(prefixParam(c.Query("prefix")))
	out := make([]cacheEntry, 0, len(entries))
	for _, e := range entries {
		ce := cacheEntry{
			Key:         e.Key,
			Status:      e.Status.String(),
			HasData:     e.HasData,
			Stale:       e.IsStale(now),
			Invalidated: e.Invalidated,
			Observers:   e.Observers,
		}
		if e.Err != nil {
			ce.Error = e.Err.Error()
		}
		out = append(out, ce)
	}
	c.JSON(http.StatusOK, gin.H{"data": out, "count": len(out)})
}

func prefixParam(raw string) querykey.Key {
	raw = strings.Trim(raw, "/")
	if raw == "" {
		return querykey.New()
	}
	return querykey.New(strings.Split(raw, "/")...)
}

func (s *Server) reconnect(c *gin.Context) {
	n, err := s.hooks.Cache().OnReconnect(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"refetched": n})
}

func (s *Server) windowFocus(c *gin.Context) {
	n, err := s.hooks.Cache().OnWindowFocus(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"refetched": n})
}

type invalidateRequest struct {
	Key querykey.Key `json:"key"`
}

func (s *Server) invalidate(c *gin.Context) {
	var req invalidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}
	n := s.hooks.Cache().Invalidate(req.Key)
	c.JSON(http.StatusOK, gin.H{"invalidated": n})
}
