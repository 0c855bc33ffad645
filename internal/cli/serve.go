package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"github.com/suteetoe/tenant-onboarding/internal/handler"
	"github.com/suteetoe/tenant-onboarding/pkg/config"
	"github.com/suteetoe/tenant-onboarding/pkg/logger"
	"github.com/suteetoe/tenant-onboarding/pkg/metrics"
	"github.com/suteetoe/tenant-onboarding/pkg/middleware"
	"go.uber.org/zap"
)

func newServeCommand(getConfig func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the onboarding HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig()
			log := startupLog(cfg, "onboarding API")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.close()

			e := newServer(a)
			errCh := make(chan error, 1)
			go func() {
				log.Info("Starting server", zap.String("port", cfg.Server.Port))
				if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return err
				}
			case <-ctx.Done():
			}

			log.Info("Shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := e.Shutdown(shutdownCtx); err != nil {
				log.Error("Server shutdown failed", zap.Error(err))
			}

			log.Info("Waiting for onboarding branches to finish")
			a.orchestrator.Wait()
			return nil
		},
	}
}

func newServer(a *app) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// order matters: the request id must exist before the logger reads it
	e.Use(echomiddleware.Recover())
	e.Use(middleware.RequestIDMiddleware())
	e.Use(logger.Middleware())
	e.Use(metrics.NewHTTPMetrics(a.cfg.Metrics.Prefix).Middleware())

	e.GET("/health", handler.HealthCheck(a.cfg.ServiceName))
	e.GET("/metrics", echo.WrapHandler(metrics.GetPrometheusHandler()))

	tenants := handler.NewTenantHandler(a.orchestrator, a.tenants)
	e.POST("/registration", tenants.Register)
	e.GET("/tenants/:id", tenants.GetTenant)

	stacks := handler.NewStackHandler(a.mappings, a.bridge)
	internal := e.Group("/internal")
	internal.Use(middleware.JWTAuthMiddleware(a.jwt))
	internal.GET("/tenant-stacks", stacks.ListTenantStacks)
	internal.PUT("/tenant-stacks/:path/status", stacks.UpdateStatus)
	internal.POST("/pipeline/jobs/:jobId/resolve", stacks.ResolveJob)

	return e
}
