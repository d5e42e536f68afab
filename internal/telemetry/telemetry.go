// Package telemetry exposes the cache and mutation instruments in the
// Prometheus text format.
package telemetry

import (
	"context"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics is an installed meter provider and the handler that serves it.
type Metrics struct {
	provider *sdkmetric.MeterProvider
	handler  http.Handler
}

// Setup installs a global meter provider backed by a private Prometheus
// registry. Instruments created through otel.Meter, before or after the
// call, report to it.
func Setup() (*Metrics, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "register go collector")
	}

	exporter, err := promexporter.New(promexporter.WithRegisterer(reg))
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "create prometheus exporter")
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	return &Metrics{
		provider: provider,
		handler:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}, nil
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return m.handler
}

// Shutdown flushes and stops the meter provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	return m.provider.Shutdown(ctx)
}
