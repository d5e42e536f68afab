package commands

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-opsboard/internal/httpapi"
	"github.com/goliatone/go-opsboard/internal/logging"
	"github.com/goliatone/go-opsboard/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

func (c *CLI) newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the cached reads and writes over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = c.cfg.Server.Addr
			}
			return c.serve(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}

func (c *CLI) serve(ctx context.Context, addr string) error {
	container, err := c.session()
	if err != nil {
		return err
	}

	metrics, err := telemetry.Setup()
	if err != nil {
		return err
	}

	api := httpapi.New(container.Hooks(),
		httpapi.WithLogger(c.logger),
		httpapi.WithMetricsHandler(c.cfg.Server.MetricsPath, metrics.Handler()),
	)

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.logger.Info("listening", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		c.logger.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			c.logger.Warn("http shutdown", logging.Error(err))
		}
		if err := metrics.Shutdown(shutdownCtx); err != nil {
			c.logger.Warn("metrics shutdown", logging.Error(err))
		}
		return nil
	})
	return g.Wait()
}
