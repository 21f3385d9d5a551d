package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fallousenghor/visit-backend/internal/handler"
	"github.com/fallousenghor/visit-backend/internal/middleware"
	"github.com/fallousenghor/visit-backend/pkg/metrics"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()

			if migrate {
				if err := runMigrations(a); err != nil {
					return err
				}
			}
			return runServe(a)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply schema migrations before serving")
	return cmd
}

func runServe(a *app) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpMetrics := metrics.NewHTTPMetrics(a.cfg.ServiceName)
	svc, err := a.services(ctx, httpMetrics.Registry)
	if err != nil {
		return err
	}

	limiter := middleware.NewIPRateLimiter(a.cfg.RateLimit.ScanRPS, a.cfg.RateLimit.ScanBurst)
	go limiter.RunCleanup(ctx)

	if a.cfg.Card.BackfillInterval > 0 {
		a.log.Info("Card backfill enabled", zap.Duration("interval", a.cfg.Card.BackfillInterval))
		go svc.cards.RunBackfill(ctx, a.cfg.Card.BackfillInterval, backfillBatch)
	}

	e := handler.NewServer(handler.Deps{
		Config:      a.cfg,
		Auth:        svc.auth,
		Merchants:   svc.merchants,
		Cards:       svc.cards,
		Stats:       svc.stats,
		Tokens:      svc.jwt,
		HTTPMetrics: httpMetrics,
		ScanLimiter: limiter,
	})

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("Starting server", zap.String("port", a.cfg.Server.Port))
		if err := e.Start(":" + a.cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	a.log.Info("Server stopped")
	return nil
}
