package actions

import (
	"log/slog"
	"strings"

	"github.com/goliatone/go-opsboard/cache"
	"github.com/goliatone/go-opsboard/querykey"
)

// Revalidation tags.
const (
	TagProperties   = "properties"
	TagReservations = "reservations"
	TagCleaningJobs = "cleaning-jobs"
	TagTasks        = "tasks"
)

// Revalidation paths.
const (
	PathDashboard    = "/"
	PathTasks        = "/tasks"
	PathCleaning     = "/cleaning"
	PathProperties   = "/properties"
	PathReservations = "/reservations"
)

// Revalidator is told which reads went out of date after a write.
type Revalidator interface {
	RevalidatePath(path string)
	RevalidateTag(tag string)
}

// NopRevalidator ignores every call.
type NopRevalidator struct{}

func (NopRevalidator) RevalidatePath(string) {}
func (NopRevalidator) RevalidateTag(string)  {}

var (
	tagPrefixes = map[string]querykey.Key{
		TagProperties:   querykey.Properties.All(),
		TagReservations: querykey.Reservations.All(),
		TagCleaningJobs: querykey.Cleaning.All(),
		TagTasks:        querykey.Tasks.All(),
	}
	pathPrefixes = map[string]querykey.Key{
		PathDashboard:    querykey.Dashboard.All(),
		PathTasks:        querykey.Tasks.All(),
		PathCleaning:     querykey.Cleaning.All(),
		PathProperties:   querykey.Properties.All(),
		PathReservations: querykey.Reservations.All(),
	}
)

// CacheRevalidator invalidates the query key prefix behind each path or tag.
type CacheRevalidator struct {
	client *cache.Client
	logger *slog.Logger
}

// NewCacheRevalidator returns a Revalidator over client. logger may be nil.
func NewCacheRevalidator(client *cache.Client, logger *slog.Logger) *CacheRevalidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &CacheRevalidator{client: client, logger: logger.With(slog.String("component", "revalidator"))}
}

// RevalidatePath invalidates the reads behind a page path. A detail path such
// as /properties/p1 invalidates only that entity's detail key.
func (r *CacheRevalidator) RevalidatePath(path string) {
	path = "/" + strings.Trim(path, "/")
	if prefix, ok := pathPrefixes[path]; ok {
		r.invalidate("path", path, prefix)
		return
	}

	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(segments) == 2 {
		if parent, ok := pathPrefixes["/"+segments[0]]; ok {
			r.invalidate("path", path, parent.Append(segments[1]))
			return
		}
	}
	r.logger.Debug("no reads registered for path", slog.String("path", path))
}

// RevalidateTag invalidates the reads behind an entity tag.
func (r *CacheRevalidator) RevalidateTag(tag string) {
	tag = toKebab(tag)
	prefix, ok := tagPrefixes[tag]
	if !ok {
		r.logger.Debug("no reads registered for tag", slog.String("tag", tag))
		return
	}
	r.invalidate("tag", tag, prefix)
}

func (r *CacheRevalidator) invalidate(kind, name string, prefix querykey.Key) {
	n := r.client.Invalidate(prefix)
	r.logger.Debug("revalidated",
		slog.String(kind, name),
		slog.String("prefix", prefix.String()),
		slog.Int("entries", n),
	)
}
