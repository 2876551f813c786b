package jobs

import (
	"context"
	"time"

	"fleet-rental-backend/internal/domain"
	"fleet-rental-backend/internal/logger"
)

const jobTimeout = 10 * time.Minute

// ExtendAvailabilityWindow seeds the day that just entered the booking window.
// Days that already have counts are left alone.
func (jr *JobRunner) ExtendAvailabilityWindow() {
	jr.runWithRecovery("ExtendAvailabilityWindow", func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		seeded, err := jr.rental.ExtendAvailabilityWindow(ctx, jr.config.Rental.WindowDays)
		if err != nil {
			logger.Error("Failed to extend availability window", "error", err, "seeded", seeded)
			return
		}
		logger.Info("Availability window extended", "seeded", seeded, "windowDays", jr.config.Rental.WindowDays)
	})
}

// ReseedAvailability overwrites the whole window with full fleet capacity.
// Outstanding reservations are not subtracted, so this is manual only.
func (jr *JobRunner) ReseedAvailability() {
	jr.runWithRecovery("ReseedAvailability", func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		if err := jr.rental.Initialize(ctx, jr.config.Rental.WindowDays); err != nil {
			logger.Error("Failed to reseed availability", "error", err)
			return
		}
		logger.Info("Availability reseeded", "windowDays", jr.config.Rental.WindowDays)
	})
}

// ReportOverdueRentals logs every car still out after its expected return date
func (jr *JobRunner) ReportOverdueRentals() {
	jr.runWithRecovery("ReportOverdueRentals", func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		overdue, err := jr.overdueRentals(ctx)
		if err != nil {
			logger.Error("Failed to list open rentals", "error", err)
			return
		}
		for _, rec := range overdue {
			logger.Warn("Rental overdue",
				"carID", rec.CarID,
				"rentalID", rec.RentalID,
				"renterID", rec.RenterID,
				"dateTo", domain.FormatDay(rec.DateTo),
			)
		}
		logger.Info("Overdue rentals reported", "count", len(overdue))
	})
}

func (jr *JobRunner) overdueRentals(ctx context.Context) ([]domain.HistoryRecord, error) {
	open, err := jr.history.List(ctx, domain.HistoryFilter{OpenOnly: true})
	if err != nil {
		return nil, err
	}
	today := domain.Day(jr.clock.Now())
	var overdue []domain.HistoryRecord
	for _, rec := range open {
		if rec.DateTo.Before(today) {
			overdue = append(overdue, rec)
		}
	}
	return overdue, nil
}
