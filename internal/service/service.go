package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"fleet-rental-backend/internal/domain"
)

// RentalService is the reservation and allocation engine.
type RentalService interface {
	// Reserve takes one unit of class capacity on every day of [dateFrom, dateTo].
	Reserve(ctx context.Context, dateFrom time.Time, renterID uuid.UUID, dateTo time.Time, class domain.CarClass) (uuid.UUID, error)
	// FulfillForClient binds a physical car to each of the renter's reservations
	// starting on date, upgrading when the booked class is exhausted.
	FulfillForClient(ctx context.Context, date time.Time, renterID uuid.UUID) ([]domain.Car, error)
	ReturnCar(ctx context.Context, carID int32, dateOut, dateReturned, dateExpected time.Time) error
	CancelReservation(ctx context.Context, dateFrom time.Time, renterID, rentalID uuid.UUID, dateTo time.Time, class domain.CarClass) error
	// Initialize overwrites the next windowDays days with full class capacity.
	Initialize(ctx context.Context, windowDays int) error
	// ExtendAvailabilityWindow seeds only the days that have no entry yet and
	// returns how many entries it wrote.
	ExtendAvailabilityWindow(ctx context.Context, windowDays int) (int, error)
	AvailableClasses(ctx context.Context, date time.Time) ([]domain.CarClass, error)
	CarHistory(ctx context.Context, carID int32, openOnly bool) ([]domain.HistoryRecord, error)
}

// CarCatalog is the read-only fleet reference the engine allocates from.
type CarCatalog interface {
	CarIDsInClass(class domain.CarClass) []int32
	Details(carID int32) (domain.Car, error)
	ClassesFrom(class domain.CarClass) ([]domain.CarClass, error)
	Size(class domain.CarClass) int
}
