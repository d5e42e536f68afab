package mutation

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	tracer = otel.Tracer("opsboard.mutation")
	meter  = otel.Meter("opsboard.mutation")
)

var (
	mutationsTotal metric.Int64Counter
	rollbacksTotal metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		mutationsTotal, err = meter.Int64Counter(
			"opsboard_mutations_total",
			metric.WithDescription("Settled mutations by outcome"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		rollbacksTotal, err = meter.Int64Counter(
			"opsboard_mutation_rollbacks_total",
			metric.WithDescription("Optimistic writes undone after a failed mutation"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordSettled(ctx context.Context, name string, ok bool) {
	if err := initMetrics(); err != nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "error"
	}
	mutationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mutation", name),
		attribute.String("outcome", outcome),
	))
}

func recordRollback(ctx context.Context, name string) {
	if err := initMetrics(); err != nil {
		return
	}
	rollbacksTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("mutation", name)))
}
