// Package mutation applies writes with optimistic cache updates.
//
// Every invocation runs the same steps in order: cancel the fetch in flight
// for the target key, snapshot its data, apply the optimistic transform,
// call the backend, write the snapshot back if the call failed, and finally
// invalidate the target and any dependent keys. The first three steps happen
// before Start returns, so readers see the optimistic value immediately.
package mutation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-opsboard/cache"
	"github.com/goliatone/go-opsboard/querykey"
)

// ErrMutationPending is returned by Reset while an invocation is running.
var ErrMutationPending = goerrors.New("mutation still pending", goerrors.CategoryConflict).
	WithTextCode("MUTATION_PENDING")

// Options describe one kind of write.
type Options[V any] struct {
	// Name labels logs, spans and metrics.
	Name string

	// Target returns the key that receives the optimistic write. Nil means
	// the mutation has no optimistic step.
	Target func(vars V) querykey.Key

	// Optimistic builds the new value for Target from the cached one. It must
	// return a new value and leave old untouched. Returning false skips the
	// write, e.g. when the item is not in the cached collection.
	Optimistic func(old any, vars V) (any, bool)

	// Clone copies the snapshot taken before the optimistic write. The
	// default keeps the cached value as is. Clone and Optimistic run under
	// the cache lock and must not call back into the client.
	Clone func(any) any

	// Mutate performs the backend call.
	Mutate func(ctx context.Context, vars V) error

	// Invalidates lists dependent keys to invalidate on settle, in addition
	// to Target.
	Invalidates func(vars V) []querykey.Key

	// Retry overrides the client's MutationRetry when positive. A negative
	// value disables retries.
	Retry int
}

// Option configures a Mutation.
type Option func(*settings)

type settings struct {
	logger *slog.Logger
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Mutation runs invocations of one kind of write against a cache.
type Mutation[V any] struct {
	client *cache.Client
	opts   Options[V]
	logger *slog.Logger

	mu      sync.Mutex
	state   State[V]
	seq     uint64
	running int
}

// New builds a Mutation. opts.Mutate is required.
func New[V any](client *cache.Client, opts Options[V], options ...Option) *Mutation[V] {
	s := settings{logger: slog.Default()}
	for _, opt := range options {
		opt(&s)
	}
	if opts.Name == "" {
		opts.Name = "mutation"
	}
	return &Mutation[V]{
		client: client,
		opts:   opts,
		logger: s.logger.With(slog.String("mutation", opts.Name)),
		state:  Idle[V]{},
	}
}

// Call is one running invocation.
type Call[V any] struct {
	Context Context[V]

	done chan struct{}
	err  error
}

// Done is closed once the invocation settled.
func (c *Call[V]) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the invocation settled and returns its error. The error
// is returned after any rollback has been applied.
func (c *Call[V]) Wait() error {
	<-c.done
	return c.err
}

// Mutate runs an invocation and waits for it to settle.
func (m *Mutation[V]) Mutate(ctx context.Context, vars V) error {
	return m.Start(ctx, vars).Wait()
}

// Start applies the optimistic write and returns while the backend call
// runs in the background.
func (m *Mutation[V]) Start(ctx context.Context, vars V) *Call[V] {
	mctx := Context[V]{ID: uuid.NewString(), Variables: vars}

	var target querykey.Key
	hasTarget := m.opts.Target != nil
	if hasTarget {
		target = m.opts.Target(vars)

		var optimistic func(any) any
		if m.opts.Optimistic != nil {
			optimistic = func(old any) any {
				next, ok := m.opts.Optimistic(old, vars)
				if !ok {
					return nil
				}
				return next
			}
		}

		snap := m.client.ApplyOptimistic(target, m.opts.Clone, optimistic)
		mctx.Previous = snap.Data
		mctx.HasPrevious = snap.HasData
		mctx.Applied = snap.Applied
	}

	m.mu.Lock()
	m.seq++
	seq := m.seq
	m.running++
	m.state = Pending[V]{Context: mctx}
	m.mu.Unlock()

	m.logger.Debug("mutation started",
		slog.String("id", mctx.ID),
		slog.Bool("optimistic", mctx.Applied),
	)

	call := &Call[V]{Context: mctx, done: make(chan struct{})}
	go m.run(ctx, seq, target, hasTarget, call)
	return call
}

func (m *Mutation[V]) run(ctx context.Context, seq uint64, target querykey.Key, hasTarget bool, call *Call[V]) {
	defer close(call.done)
	mctx := call.Context

	ctx, span := tracer.Start(ctx, "Mutation."+m.opts.Name,
		trace.WithAttributes(
			attribute.String("mutation.id", mctx.ID),
			attribute.Bool("mutation.optimistic", mctx.Applied),
		),
	)
	defer span.End()

	err := m.execute(ctx, mctx.Variables)

	rolledBack := false
	if err != nil && hasTarget && mctx.HasPrevious {
		previous := mctx.Previous
		m.client.SetData(target, func(any) any { return previous })
		rolledBack = true
		recordRollback(ctx, m.opts.Name)
	}

	m.settle(target, hasTarget, mctx.Variables)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		m.logger.Warn("mutation failed",
			slog.String("id", mctx.ID),
			slog.Bool("rolled_back", rolledBack),
			slog.String("error", err.Error()),
		)
	}
	recordSettled(ctx, m.opts.Name, err == nil)

	m.mu.Lock()
	m.running--
	if seq == m.seq {
		if err != nil {
			m.state = Failed[V]{Context: mctx, Err: err, RolledBack: rolledBack}
		} else {
			m.state = Succeeded[V]{Context: mctx}
		}
	}
	m.mu.Unlock()

	call.err = err
}

// execute calls Mutate, retrying per the configured policy.
func (m *Mutation[V]) execute(ctx context.Context, vars V) error {
	if m.opts.Mutate == nil {
		return goerrors.New("mutation has no Mutate function", goerrors.CategoryInternal)
	}

	cfg := m.client.Config()
	retries := cfg.MutationRetry
	switch {
	case m.opts.Retry > 0:
		retries = m.opts.Retry
	case m.opts.Retry < 0:
		retries = 0
	}
	delay := cfg.RetryDelay
	if delay == nil {
		delay = cache.DefaultRetryDelay
	}

	var err error
	for attempt := 0; ; attempt++ {
		err = m.opts.Mutate(ctx, vars)
		if err == nil || attempt >= retries || ctx.Err() != nil {
			return err
		}

		wait := delay(attempt)
		m.logger.Debug("mutation failed, retrying",
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", wait),
			slog.String("error", err.Error()),
		)

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return err
		}
	}
}

// settle invalidates the target and dependent keys so the next read
// reflects server state. The last invocation to settle wins.
func (m *Mutation[V]) settle(target querykey.Key, hasTarget bool, vars V) {
	if hasTarget {
		m.client.Invalidate(target)
	}
	if m.opts.Invalidates == nil {
		return
	}
	for _, key := range m.opts.Invalidates(vars) {
		if hasTarget && key.Equal(target) {
			continue
		}
		m.client.Invalidate(key)
	}
}

// State returns the state of the most recently started invocation.
func (m *Mutation[V]) State() State[V] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsPending reports whether any invocation is still running.
func (m *Mutation[V]) IsPending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running > 0
}

// Reset returns the state to Idle.
func (m *Mutation[V]) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running > 0 {
		return ErrMutationPending
	}
	m.state = Idle[V]{}
	return nil
}
