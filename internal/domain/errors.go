package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error kinds surfaced by the rental engine. Callers match them with errors.Is.
var (
	ErrInvalidDateRange         = errors.New("invalid date range")
	ErrInsufficientAvailability = errors.New("not enough cars available for this reservation")
	ErrNoCarAvailable           = errors.New("no cars available for rental")
	ErrStoreUnavailable         = errors.New("store unavailable")
	ErrNotFound                 = errors.New("not found")
	ErrNotInitialized           = errors.New("availability not initialized, run initialize")
)

// AllocationError reports a reservation whose whole upgrade path was exhausted.
type AllocationError struct {
	RentalID       uuid.UUID
	RequestedClass CarClass
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("%s (including upgrades) for reservation %s, class %s", ErrNoCarAvailable, e.RentalID, e.RequestedClass)
}

func (e *AllocationError) Unwrap() error { return ErrNoCarAvailable }

// StoreError wraps a backend failure so that it matches ErrStoreUnavailable
// while keeping the driver error in the chain.
func StoreError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
