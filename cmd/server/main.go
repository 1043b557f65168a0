package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/breadlens/backend/config"
	"github.com/breadlens/backend/internal/bootstrap"
	httpDelivery "github.com/breadlens/backend/internal/delivery/http"
	"github.com/breadlens/backend/internal/infrastructure/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "breadlens server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	log, err := bootstrap.NewLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting BreadLens Backend v1.0.0",
		logger.String("environment", cfg.Server.Environment),
		logger.String("port", cfg.Server.Port),
		logger.String("storage_driver", cfg.Storage.Driver),
		logger.Float64("match_threshold", cfg.Matching.Threshold),
		logger.String("key_order", cfg.Matching.KeyOrder))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize services
	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Error("Failed to close analysis store", logger.Error(err))
		}
	}()

	scheduler, err := app.NewScheduler(ctx)
	if err != nil {
		return err
	}
	if scheduler != nil {
		scheduler.Start()
		defer func() { <-scheduler.Stop().Done() }()
		log.Info("Scheduled scraping enabled", logger.String("schedule", cfg.Scraper.Schedule))
	}

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(app.Analysis, app.Scraper, log)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler, httpDelivery.RouterDeps{
		Log:      log,
		Metrics:  app.Metrics,
		Gatherer: app.Registry,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server listening", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("start server: %w", err)
		}
	case <-ctx.Done():
		log.Info("Shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
