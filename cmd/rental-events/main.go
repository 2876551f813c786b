package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"fleet-rental-backend/internal/config"
	"fleet-rental-backend/internal/events"
	"fleet-rental-backend/internal/logger"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Fleet Rental Event Listener...", "queue", cfg.Broker.Queue)

	if !cfg.Broker.Enabled {
		logger.Error("Broker is disabled in configuration")
		log.Fatalf("Broker is disabled; set broker.enabled or BROKER_ENABLED=true")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = events.Consume(ctx, cfg.Broker.URL, cfg.Broker.Queue, logEvent)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Event listener stopped", "error", err)
		log.Fatalf("Event listener stopped: %v", err)
	}
	logger.Info("Event listener stopped. Goodbye!")
}

func logEvent(_ context.Context, e events.Event) error {
	args := []any{"type", e.Type, "occurred_at", e.OccurredAt}
	switch e.Type {
	case events.ReservationCreated, events.ReservationCancelled:
		args = append(args, "rentalID", e.RentalID, "renterID", e.RenterID,
			"class", e.CarClass, "from", e.DateFrom, "to", e.DateTo)
	case events.RentalFulfilled:
		args = append(args, "rentalID", e.RentalID, "renterID", e.RenterID, "carID", e.CarID,
			"class", e.CarClass, "requested", e.RequestedClass, "upgraded", e.Upgraded)
	case events.RentalReturned:
		args = append(args, "carID", e.CarID, "from", e.DateFrom, "expected", e.DateTo, "received", e.DateReceived)
	default:
		logger.Warn("Unknown rental event", args...)
		return nil
	}
	logger.Info("Rental event", args...)
	return nil
}
