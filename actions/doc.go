// Package actions performs writes against the Workers API and keeps cached
// reads coherent afterwards.
//
// # Overview
//
// Every action sends one write through the gateway and reports the outcome
// as a Result instead of an error. A successful write revalidates the paths
// and tags that depend on it; a failed write revalidates nothing and leaves
// rollback to the caller.
//
//	svc := actions.New(api, actions.WithRevalidator(actions.NewCacheRevalidator(client)))
//	res := svc.UpdateCleaningJobStatus(ctx, "c1", model.CleaningVerified)
//	if err := res.Err(); err != nil {
//		return err
//	}
//
// # Revalidation
//
// Paths and tags name groups of reads the way the dashboard pages do:
//
//   - "/" is the dashboard, "/tasks" and "/cleaning" are their lists
//   - "properties", "reservations", "cleaning-jobs" and "tasks" are entity tags
//
// CacheRevalidator turns each of them into a query key prefix and invalidates
// it. Callers can attach extra tags to a single action with
// WithRevalidationTags.
//
// # Sync
//
// SyncData runs every configured Source concurrently. A Source whose
// credential is missing is skipped with a warning and does not fail the sync.
package actions
