package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/groomer-price-service/internal/adapter/httpadapter"
	"github.com/couchcryptid/groomer-price-service/internal/admission"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP price API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, true)
		if err != nil {
			return err
		}
		defer a.close()
		cfg, logger := a.cfg, a.logger

		limiter := admission.NewRateLimiter(admission.RateLimitConfig{
			Window:     cfg.RateLimitWindow,
			Max:        cfg.RateLimitMax,
			MaxClients: cfg.RateLimitMaxClients,
		}, nil)
		go limiter.Run(ctx, cfg.RateLimitSweepInterval, func(removed, remaining int) {
			a.metrics.RateLimitClients.Set(float64(remaining))
			if removed > 0 {
				logger.Debug("rate limiter swept", "removed", removed, "remaining", remaining)
			}
		})

		srv := httpadapter.NewServer(cfg.HTTPAddr, a.service, a.service, limiter, httpadapter.Options{
			StaticDir:      cfg.StaticDir,
			AllowedOrigins: cfg.CORSAllowedOrigins,
		}, a.metrics, logger)

		errCh := make(chan error, 1)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		select {
		case <-ctx.Done():
		case err := <-errCh:
			logger.Error("http server error", "error", err)
			return err
		}
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
		logger.Info("shutdown complete")
		return nil
	},
}
