package domain

import (
	"time"

	"github.com/google/uuid"
)

// Reservation is a pending claim on one unit of a car class for a date range.
// It is kept after fulfilment as the provenance of the assignment.
type Reservation struct {
	DateFrom time.Time `json:"date_from"`
	DateTo   time.Time `json:"date_to"`
	RenterID uuid.UUID `json:"renter_id"`
	RentalID uuid.UUID `json:"rental_id"`
	CarClass CarClass  `json:"car_class"`
}

// HistoryRecord binds a car to a reservation. DateReceived is set when the
// car comes back.
type HistoryRecord struct {
	CarID        int32      `json:"car_id"`
	DateFrom     time.Time  `json:"date_from"`
	DateTo       time.Time  `json:"date_to"`
	RenterID     uuid.UUID  `json:"renter_id"`
	RentalID     uuid.UUID  `json:"rental_id"`
	DateReceived *time.Time `json:"date_received,omitempty"`
}

// Open reports whether the car has not been returned yet.
func (h HistoryRecord) Open() bool {
	return h.DateReceived == nil
}

// HistoryFilter narrows a history listing.
type HistoryFilter struct {
	CarID    int32
	OpenOnly bool
}
