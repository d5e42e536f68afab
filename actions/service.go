package actions

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-opsboard/gateway"
	"github.com/goliatone/go-opsboard/model"
)

// Option configures a Service.
type Option func(*Service)

// WithRevalidator sets what is told about out-of-date reads.
func WithRevalidator(r Revalidator) Option {
	return func(s *Service) {
		if r != nil {
			s.revalidator = r
		}
	}
}

// WithSources sets the platforms SyncData pulls from.
func WithSources(sources ...Source) Option {
	return func(s *Service) {
		s.sources = append(s.sources, sources...)
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Service runs writes against the Workers API.
type Service struct {
	api         *gateway.Client
	revalidator Revalidator
	sources     []Source
	logger      *slog.Logger
}

// New returns a Service over api. Without WithRevalidator nothing is
// revalidated.
func New(api *gateway.Client, opts ...Option) *Service {
	s := &Service{
		api:         api,
		revalidator: NopRevalidator{},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("component", "actions"))
	return s
}

// CreateTask creates a task. Empty status and priority default to pending
// and medium.
func (s *Service) CreateTask(ctx context.Context, in model.TaskInput) Result {
	in = in.Normalize()
	if strings.TrimSpace(in.Title) == "" {
		return failed("Failed to create task", goerrors.New("title is required", goerrors.CategoryValidation))
	}

	err := s.api.Request(ctx, "/api/tasks", gateway.RequestOptions{Method: http.MethodPost, Body: in}, nil)
	if err != nil {
		s.logger.Error("create task failed", slog.String("error", err.Error()))
		return failed("Failed to create task", err)
	}
	s.revalidate(ctx, []string{PathTasks}, nil)
	return succeeded("")
}

// UpdateTask applies a partial update to a task.
func (s *Service) UpdateTask(ctx context.Context, id string, update model.TaskUpdate) Result {
	if update.Status != nil && !update.Status.Valid() {
		return failed("Failed to update task", invalidStatus(string(*update.Status)))
	}

	err := s.api.Request(ctx, "/api/tasks/"+url.PathEscape(id), gateway.RequestOptions{Method: http.MethodPatch, Body: update}, nil)
	if err != nil {
		s.logger.Error("update task failed", slog.String("task", id), slog.String("error", err.Error()))
		return failed("Failed to update task", err)
	}
	s.revalidate(ctx, []string{PathTasks}, nil)
	return succeeded("")
}

// DeleteTask deletes a task.
func (s *Service) DeleteTask(ctx context.Context, id string) Result {
	err := s.api.Request(ctx, "/api/tasks/"+url.PathEscape(id), gateway.RequestOptions{Method: http.MethodDelete}, nil)
	if err != nil {
		s.logger.Error("delete task failed", slog.String("task", id), slog.String("error", err.Error()))
		return failed("Failed to delete task", err)
	}
	s.revalidate(ctx, []string{PathTasks}, nil)
	return succeeded("")
}

// UpdateCleaningJobStatus moves a cleaning job to status.
func (s *Service) UpdateCleaningJobStatus(ctx context.Context, id string, status model.CleaningStatus) Result {
	if !status.Valid() {
		return failed("Failed to update cleaning status", invalidStatus(string(status)))
	}

	path := "/api/cleaning/" + url.PathEscape(id) + "/status"
	err := s.api.Request(ctx, path, gateway.RequestOptions{
		Method: http.MethodPatch,
		Body:   model.CleaningStatusUpdate{Status: status},
	}, nil)
	if err != nil {
		s.logger.Error("update cleaning status failed",
			slog.String("job", id),
			slog.String("status", string(status)),
			slog.String("error", err.Error()),
		)
		return failed("Failed to update cleaning status", err)
	}
	s.revalidate(ctx, []string{PathCleaning}, []string{TagCleaningJobs})
	return succeeded("")
}

// SyncData pulls every source concurrently. The first failure fails the
// whole sync and nothing is revalidated.
func (s *Service) SyncData(ctx context.Context) Result {
	g, gctx := errgroup.WithContext(ctx)
	for _, src := range s.sources {
		g.Go(func() error {
			_, err := src.Sync(gctx)
			if err != nil {
				return goerrors.Wrap(err, goerrors.CategoryExternal, "sync "+src.Name())
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("Sync failed", slog.String("error", err.Error()))
		return Result{Success: false, Message: "Sync failed", cause: err}
	}

	s.revalidate(ctx, []string{PathDashboard}, []string{TagProperties, TagReservations, TagCleaningJobs, TagTasks})
	return succeeded("Sync complete")
}

func (s *Service) revalidate(ctx context.Context, paths, tags []string) {
	for _, p := range paths {
		s.revalidator.RevalidatePath(p)
	}
	for _, tag := range normalizeTags(append(tags, revalidationTagsFromContext(ctx)...)) {
		s.revalidator.RevalidateTag(tag)
	}
}

func invalidStatus(status string) error {
	return goerrors.New("invalid status "+status, goerrors.CategoryValidation).
		WithTextCode("INVALID_STATUS")
}
