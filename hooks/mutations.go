package hooks

import (
	"context"
	"slices"

	"github.com/goliatone/go-opsboard/model"
	"github.com/goliatone/go-opsboard/mutation"
	"github.com/goliatone/go-opsboard/querykey"
)

// TaskUpdateVars are the variables of UpdateTask.
type TaskUpdateVars struct {
	TaskID string
	Update model.TaskUpdate
}

// CleaningStatusVars are the variables of UpdateCleaningStatus.
type CleaningStatusVars struct {
	JobID  string
	Status model.CleaningStatus
}

func (h *Hooks) initMutations() {
	opt := mutation.WithLogger(h.logger)

	h.UpdateTask = mutation.New(h.cache, mutation.Options[TaskUpdateVars]{
		Name:   "update-task",
		Target: func(TaskUpdateVars) querykey.Key { return querykey.Tasks.All() },
		Optimistic: func(old any, v TaskUpdateVars) (any, bool) {
			return replaceTask(old, v.TaskID, v.Update.Apply)
		},
		Clone: cloneSlice[model.Task],
		Mutate: func(ctx context.Context, v TaskUpdateVars) error {
			return h.actions.UpdateTask(ctx, v.TaskID, v.Update).Err()
		},
		Invalidates: func(TaskUpdateVars) []querykey.Key {
			return []querykey.Key{querykey.Dashboard.Stats(), querykey.Dashboard.TaskPriority()}
		},
	}, opt)

	h.DeleteTask = mutation.New(h.cache, mutation.Options[string]{
		Name:   "delete-task",
		Target: func(string) querykey.Key { return querykey.Tasks.All() },
		Optimistic: func(old any, id string) (any, bool) {
			tasks, ok := old.([]model.Task)
			if !ok {
				return nil, false
			}
			i := slices.IndexFunc(tasks, func(t model.Task) bool { return t.ID == id })
			if i < 0 {
				return nil, false
			}
			return slices.Delete(slices.Clone(tasks), i, i+1), true
		},
		Clone: cloneSlice[model.Task],
		Mutate: func(ctx context.Context, id string) error {
			return h.actions.DeleteTask(ctx, id).Err()
		},
		Invalidates: func(string) []querykey.Key {
			return []querykey.Key{querykey.Dashboard.Stats(), querykey.Dashboard.TaskPriority()}
		},
	}, opt)

	h.UpdateCleaningStatus = mutation.New(h.cache, mutation.Options[CleaningStatusVars]{
		Name:   "update-cleaning-status",
		Target: func(CleaningStatusVars) querykey.Key { return querykey.Cleaning.All() },
		Optimistic: func(old any, v CleaningStatusVars) (any, bool) {
			jobs, ok := old.([]model.CleaningJob)
			if !ok {
				return nil, false
			}
			i := slices.IndexFunc(jobs, func(j model.CleaningJob) bool { return j.ID == v.JobID })
			if i < 0 {
				return nil, false
			}
			next := slices.Clone(jobs)
			next[i].Status = v.Status
			return next, true
		},
		Clone: cloneSlice[model.CleaningJob],
		Mutate: func(ctx context.Context, v CleaningStatusVars) error {
			return h.actions.UpdateCleaningJobStatus(ctx, v.JobID, v.Status).Err()
		},
		Invalidates: func(CleaningStatusVars) []querykey.Key {
			return []querykey.Key{querykey.Dashboard.TodayCleaning(), querykey.Dashboard.Stats()}
		},
	}, opt)

	h.CreateTask = mutation.New(h.cache, mutation.Options[model.TaskInput]{
		Name: "create-task",
		Mutate: func(ctx context.Context, in model.TaskInput) error {
			return h.actions.CreateTask(ctx, in).Err()
		},
		Invalidates: func(model.TaskInput) []querykey.Key {
			return []querykey.Key{querykey.Tasks.All(), querykey.Dashboard.TaskPriority()}
		},
	}, opt)

	h.SyncData = mutation.New(h.cache, mutation.Options[struct{}]{
		Name: "sync-data",
		Mutate: func(ctx context.Context, _ struct{}) error {
			return h.actions.SyncData(ctx).Err()
		},
		Invalidates: func(struct{}) []querykey.Key {
			return []querykey.Key{
				querykey.Properties.All(),
				querykey.Reservations.All(),
				querykey.Cleaning.All(),
				querykey.Tasks.All(),
				querykey.Dashboard.All(),
			}
		},
	}, opt)
}

func replaceTask(old any, id string, apply func(model.Task) model.Task) (any, bool) {
	tasks, ok := old.([]model.Task)
	if !ok {
		return nil, false
	}
	i := slices.IndexFunc(tasks, func(t model.Task) bool { return t.ID == id })
	if i < 0 {
		return nil, false
	}
	next := slices.Clone(tasks)
	next[i] = apply(next[i])
	return next, true
}

// cloneSlice deep-copies a cached list so a rollback snapshot does not
// share nested values with the optimistic copy.
func cloneSlice[T interface{ Clone() T }](v any) any {
	s, ok := v.([]T)
	if !ok || s == nil {
		return v
	}
	out := make([]T, len(s))
	for i := range s {
		out[i] = s[i].Clone()
	}
	return out
}
