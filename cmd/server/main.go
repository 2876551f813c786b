package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "fleet-rental-backend/internal/api/http"
	"fleet-rental-backend/internal/app"
	"fleet-rental-backend/internal/config"
	"fleet-rental-backend/internal/logger"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	extendOnStart := flag.Bool("extend-on-start", true, "Seed missing availability days before serving")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Fleet Rental Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "driver", cfg.Database.Driver, "host", cfg.Database.Host, "database", cfg.Database.Database)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Wire stores, fleet and services
	a, err := app.Build(ctx, cfg)
	if err != nil {
		logger.Error("Failed to build rental engine", "error", err)
		log.Fatalf("Failed to build rental engine: %v", err)
	}
	defer a.Close()

	if *extendOnStart {
		seeded, err := a.Rental.ExtendAvailabilityWindow(ctx, cfg.Rental.WindowDays)
		if err != nil {
			logger.Error("Failed to seed availability", "error", err)
			log.Fatalf("Failed to seed availability: %v", err)
		}
		logger.Info("Availability window checked", "seeded", seeded)
	}

	srv := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           httpapi.NewRouter(a.Rental, a.Health),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server listening", "address", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Failed to serve HTTP", "error", err)
		log.Fatalf("Failed to serve: %v", err)
	}
	logger.Info("Server stopped. Goodbye!")
}
