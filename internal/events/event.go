// Package events carries rental lifecycle notifications to RabbitMQ.
// Publishing is best effort: the rental store is the source of truth and a
// lost event never rolls back a reservation or an assignment.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"fleet-rental-backend/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Type string

const (
	ReservationCreated   Type = "reservation.created"
	ReservationCancelled Type = "reservation.cancelled"
	RentalFulfilled      Type = "rental.fulfilled"
	RentalReturned       Type = "rental.returned"
)

// Event is the wire shape of every message on the rental queue. Fields that
// do not apply to a Type are left empty.
type Event struct {
	Type           Type            `json:"type"`
	RentalID       uuid.UUID       `json:"rental_id"`
	RenterID       uuid.UUID       `json:"renter_id"`
	CarID          int32           `json:"car_id,omitempty"`
	CarClass       domain.CarClass `json:"car_class,omitempty"`
	RequestedClass domain.CarClass `json:"requested_class,omitempty"`
	Upgraded       bool            `json:"upgraded,omitempty"`
	DateFrom       string          `json:"date_from,omitempty"`
	DateTo         string          `json:"date_to,omitempty"`
	DateReceived   string          `json:"date_received,omitempty"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

func Encode(e Event) ([]byte, error) {
	return json.Marshal(e)
}

func Decode(body []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(body, &e)
	return e, err
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// NopPublisher drops every event. It is used when the broker is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
