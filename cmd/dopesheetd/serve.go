package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dopesheet/infrastructure/config"
	"dopesheet/infrastructure/di"
	"dopesheet/pkg/observability"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the dope sheet REST API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, opts)
		},
	}
}

// loadConfig loads the configuration of the current environment and applies
// the command line overrides.
func loadConfig(opts *rootOptions) (*config.Loader, *config.Config, error) {
	loader := config.NewLoader(opts.configDir, config.GetEnvironment())
	cfg, err := loader.Load()
	if err != nil {
		return nil, nil, err
	}
	if opts.scene != "" {
		cfg.ScenePath = opts.scene
	}
	return loader, cfg, nil
}

func serve(ctx context.Context, opts *rootOptions) error {
	loader, cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	container, cleanup, err := di.InitializeContainer(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	defer cleanup()
	logger := container.Logger

	tp, err := observability.InitTracing(ctx, cfg.TracingConfig(version), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Tracer shutdown failed", zap.Error(err))
		}
	}()

	if cfg.IsDevelopment() {
		watcher := config.NewWatcher(loader, cfg, logger.Named("config"))
		watcher.OnChange(func(next *config.Config) {
			if opts.scene != "" {
				next.ScenePath = opts.scene
			}
			if err := container.ApplyConfig(next); err != nil {
				logger.Warn("Configuration change not applied", zap.Error(err))
			}
		})
		if err := watcher.Start(); err != nil {
			logger.Warn("Configuration hot reload disabled", zap.Error(err))
		} else {
			defer watcher.Stop()
		}
	}

	var ready atomic.Bool
	container.Router.SetReadiness(ready.Load)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      container.Router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server",
			zap.String("address", srv.Addr),
			zap.String("environment", string(cfg.Environment)),
			zap.String("version", version),
			zap.Strings("config_sources", cfg.LoadedFrom),
		)
		ready.Store(true)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	ready.Store(false)
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}
