package data

import (
	"context"
	"net/url"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-opsboard/gateway"
	"github.com/goliatone/go-opsboard/model"
)

// Properties lists every property.
func (f *Fetcher) Properties(ctx context.Context) ([]model.Property, error) {
	return list[model.Property](ctx, f, "/api/properties")
}

// Property returns a property with its reservations, cleaning jobs and tasks,
// all read concurrently. It returns nil when the API has no data for id.
func (f *Fetcher) Property(ctx context.Context, id string) (*model.PropertyWithDetails, error) {
	var (
		property     *model.Property
		reservations []model.Reservation
		cleaningJobs []model.CleaningJob
		tasks        []model.Task
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		property, err = gateway.Get[*model.Property](gctx, f.api, "/api/properties/"+url.PathEscape(id))
		return err
	})
	g.Go(func() (err error) {
		reservations, err = f.ReservationsByProperty(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		cleaningJobs, err = f.CleaningJobsByProperty(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		tasks, err = f.TasksByProperty(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if property == nil {
		return nil, nil
	}
	return &model.PropertyWithDetails{
		Property:     *property,
		Reservations: reservations,
		CleaningJobs: cleaningJobs,
		Tasks:        tasks,
	}, nil
}

// Reservations lists every reservation joined with its property.
func (f *Fetcher) Reservations(ctx context.Context) ([]model.Reservation, error) {
	var (
		reservations []model.Reservation
		properties   []model.Property
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		reservations, err = list[model.Reservation](gctx, f, "/api/reservations")
		return err
	})
	g.Go(func() (err error) {
		properties, err = f.Properties(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	index := byID(properties)
	for i := range reservations {
		reservations[i].Property = index[reservations[i].PropertyID]
	}
	return reservations, nil
}

// ReservationsByProperty lists the reservations of one property.
func (f *Fetcher) ReservationsByProperty(ctx context.Context, propertyID string) ([]model.Reservation, error) {
	return list[model.Reservation](ctx, f, withQuery("/api/reservations", url.Values{"property_id": {propertyID}}))
}

// ReservationsByDateRange lists reservations overlapping [from, to].
func (f *Fetcher) ReservationsByDateRange(ctx context.Context, from, to string) ([]model.Reservation, error) {
	return list[model.Reservation](ctx, f, withQuery("/api/reservations", url.Values{"from": {from}, "to": {to}}))
}

// Reservation returns one reservation, or nil when the API has no data for id.
func (f *Fetcher) Reservation(ctx context.Context, id string) (*model.Reservation, error) {
	return gateway.Get[*model.Reservation](ctx, f.api, "/api/reservations/"+url.PathEscape(id))
}

// Tasks lists every task joined with its property, when it has one.
func (f *Fetcher) Tasks(ctx context.Context) ([]model.Task, error) {
	var (
		tasks      []model.Task
		properties []model.Property
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		tasks, err = list[model.Task](gctx, f, "/api/tasks")
		return err
	})
	g.Go(func() (err error) {
		properties, err = f.Properties(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	index := byID(properties)
	for i := range tasks {
		if tasks[i].PropertyID != "" {
			tasks[i].Property = index[tasks[i].PropertyID]
		}
	}
	return tasks, nil
}

// TasksByProperty lists the tasks of one property.
func (f *Fetcher) TasksByProperty(ctx context.Context, propertyID string) ([]model.Task, error) {
	return list[model.Task](ctx, f, withQuery("/api/tasks", url.Values{"property_id": {propertyID}}))
}

// TasksByStatus lists tasks in one status.
func (f *Fetcher) TasksByStatus(ctx context.Context, status model.TaskStatus) ([]model.Task, error) {
	return list[model.Task](ctx, f, withQuery("/api/tasks", url.Values{"status": {string(status)}}))
}

// CleaningJobs lists every cleaning job joined with its property.
func (f *Fetcher) CleaningJobs(ctx context.Context) ([]model.CleaningJob, error) {
	var (
		jobs       []model.CleaningJob
		properties []model.Property
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		jobs, err = list[model.CleaningJob](gctx, f, "/api/cleaning")
		return err
	})
	g.Go(func() (err error) {
		properties, err = f.Properties(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	index := byID(properties)
	for i := range jobs {
		jobs[i].Property = index[jobs[i].PropertyID]
	}
	return jobs, nil
}

// CleaningJobsByDate lists cleaning jobs scheduled on date (YYYY-MM-DD).
func (f *Fetcher) CleaningJobsByDate(ctx context.Context, date string) ([]model.CleaningJob, error) {
	return list[model.CleaningJob](ctx, f, withQuery("/api/cleaning", url.Values{"date": {date}}))
}

// CleaningJobsByProperty lists the cleaning jobs of one property.
func (f *Fetcher) CleaningJobsByProperty(ctx context.Context, propertyID string) ([]model.CleaningJob, error) {
	return list[model.CleaningJob](ctx, f, withQuery("/api/cleaning", url.Values{"property_id": {propertyID}}))
}
