package actions

import (
	"context"
	"log/slog"

	"github.com/goliatone/go-opsboard/gateway"
	"github.com/goliatone/go-opsboard/model"
)

// Source is an upstream platform SyncData pulls from.
type Source interface {
	Name() string
	// Sync pulls the platform's records and reports how many it saw.
	Sync(ctx context.Context) (int, error)
}

// HospitableSource pulls reservations synced from Hospitable.
type HospitableSource struct {
	// APIKey is HOSPITABLE_API_KEY; the source is skipped when it is empty.
	APIKey string
	API    *gateway.Client
	Logger *slog.Logger
}

func (s HospitableSource) Name() string { return "hospitable" }

func (s HospitableSource) Sync(ctx context.Context) (int, error) {
	return pull[model.Reservation](ctx, s.Name(), s.APIKey, "HOSPITABLE_API_KEY", s.API, s.Logger, "/api/reservations")
}

// TurnoSource pulls cleaning jobs synced from Turno.
type TurnoSource struct {
	// APIToken is TURNO_API_TOKEN; the source is skipped when it is empty.
	APIToken string
	API      *gateway.Client
	Logger   *slog.Logger
}

func (s TurnoSource) Name() string { return "turno" }

func (s TurnoSource) Sync(ctx context.Context) (int, error) {
	return pull[model.CleaningJob](ctx, s.Name(), s.APIToken, "TURNO_API_TOKEN", s.API, s.Logger, "/api/cleaning")
}

func pull[T any](ctx context.Context, name, credential, env string, api *gateway.Client, logger *slog.Logger, path string) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("source", name))

	if credential == "" {
		logger.Warn("skipping sync, credential missing", slog.String("env", env))
		return 0, nil
	}
	if api == nil {
		logger.Warn("skipping sync, no gateway configured")
		return 0, nil
	}

	logger.Info("syncing")
	items, err := gateway.Get[[]T](ctx, api, path)
	if err != nil {
		return 0, err
	}
	logger.Info("synced", slog.Int("records", len(items)))
	return len(items), nil
}
