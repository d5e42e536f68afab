package cache

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("opsboard.cache")
	meter  = otel.Meter("opsboard.cache")
)

var (
	queryHits          metric.Int64Counter
	queryMisses        metric.Int64Counter
	queryFetches       metric.Int64Counter
	queryFetchErrors   metric.Int64Counter
	queryInvalidations metric.Int64Counter
	queryFetchLatency  metric.Float64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the instruments. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		queryHits, err = meter.Int64Counter(
			"opsboard_query_hits_total",
			metric.WithDescription("Reads served from fresh cached data"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		queryMisses, err = meter.Int64Counter(
			"opsboard_query_misses_total",
			metric.WithDescription("Reads that had to fetch"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		queryFetches, err = meter.Int64Counter(
			"opsboard_query_fetches_total",
			metric.WithDescription("Fetch attempts sent to the backend, retries included"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		queryFetchErrors, err = meter.Int64Counter(
			"opsboard_query_fetch_errors_total",
			metric.WithDescription("Fetches that failed after exhausting retries"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		queryInvalidations, err = meter.Int64Counter(
			"opsboard_query_invalidations_total",
			metric.WithDescription("Entries marked stale by invalidation"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		queryFetchLatency, err = meter.Float64Histogram(
			"opsboard_query_fetch_duration_seconds",
			metric.WithDescription("Duration of a fetch including retries"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func resourceAttr(resource string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("query.resource", resource))
}

func recordHit(ctx context.Context, resource string) {
	if err := initMetrics(); err != nil {
		return
	}
	queryHits.Add(ctx, 1, resourceAttr(resource))
}

func recordMiss(ctx context.Context, resource string) {
	if err := initMetrics(); err != nil {
		return
	}
	queryMisses.Add(ctx, 1, resourceAttr(resource))
}

func recordFetchAttempt(ctx context.Context, resource string) {
	if err := initMetrics(); err != nil {
		return
	}
	queryFetches.Add(ctx, 1, resourceAttr(resource))
}

func recordFetchError(ctx context.Context, resource string) {
	if err := initMetrics(); err != nil {
		return
	}
	queryFetchErrors.Add(ctx, 1, resourceAttr(resource))
}

func recordInvalidations(ctx context.Context, resource string, n int) {
	if n == 0 {
		return
	}
	if err := initMetrics(); err != nil {
		return
	}
	queryInvalidations.Add(ctx, int64(n), resourceAttr(resource))
}

func recordFetchLatency(ctx context.Context, resource string, d time.Duration, ok bool) {
	if err := initMetrics(); err != nil {
		return
	}
	queryFetchLatency.Record(ctx, d.Seconds(),
		metric.WithAttributes(
			attribute.String("query.resource", resource),
			attribute.Bool("ok", ok),
		),
	)
}

// startFetchSpan creates a span around one fetch cycle.
func startFetchSpan(ctx context.Context, key string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Client.fetch",
		trace.WithAttributes(attribute.String("query.key", key)),
	)
}

func endFetchSpan(span trace.Span, attempts int, err error) {
	span.SetAttributes(attribute.Int("query.attempts", attempts))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
