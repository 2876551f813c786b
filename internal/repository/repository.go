package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"fleet-rental-backend/internal/domain"
)

// AvailabilityRepository is the per (day, class) remaining-capacity ledger.
// Get followed by Adjust is not atomic as a pair; callers must not assume it is.
type AvailabilityRepository interface {
	// Get returns domain.ErrNotInitialized when the entry was never seeded.
	Get(ctx context.Context, day time.Time, class domain.CarClass) (int64, error)
	// Adjust adds delta to the stored count without clamping.
	Adjust(ctx context.Context, day time.Time, class domain.CarClass, delta int64) error
	Set(ctx context.Context, day time.Time, class domain.CarClass, count int64) error
}

// AssignmentRepository is the per-car renter slot.
type AssignmentRepository interface {
	// Claim sets the slot to renterID only if it is currently empty. It is a
	// single conditional write; false means another renter got there first.
	Claim(ctx context.Context, carID int32, renterID uuid.UUID) (bool, error)
	// Release clears the slot. Releasing an empty slot is not an error.
	Release(ctx context.Context, carID int32) error
	// CurrentRenter returns nil when the car is free.
	CurrentRenter(ctx context.Context, carID int32) (*uuid.UUID, error)
}

type ReservationRepository interface {
	Create(ctx context.Context, reservation *domain.Reservation) error
	ListByDateAndRenter(ctx context.Context, dateFrom time.Time, renterID uuid.UUID) ([]domain.Reservation, error)
	Delete(ctx context.Context, dateFrom time.Time, renterID, rentalID uuid.UUID) error
}

type HistoryRepository interface {
	Create(ctx context.Context, record *domain.HistoryRecord) error
	MarkReceived(ctx context.Context, carID int32, dateFrom, dateTo, received time.Time) error
	List(ctx context.Context, filter domain.HistoryFilter) ([]domain.HistoryRecord, error)
}

// CarRepository is the persisted copy of the fleet reference data.
type CarRepository interface {
	List(ctx context.Context) ([]domain.Car, error)
	Upsert(ctx context.Context, car domain.Car) error
}
