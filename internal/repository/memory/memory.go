// Package memory holds process-local repositories. They back the engine in
// tests and in single-process deployments with driver "memory".
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"fleet-rental-backend/internal/domain"
)

type Store struct {
	Availability *AvailabilityRepository
	Assignments  *AssignmentRepository
	Reservations *ReservationRepository
	History      *HistoryRepository
	Cars         *CarRepository
}

func NewStore() *Store {
	return &Store{
		Availability: NewAvailabilityRepository(),
		Assignments:  NewAssignmentRepository(),
		Reservations: NewReservationRepository(),
		History:      NewHistoryRepository(),
		Cars:         NewCarRepository(),
	}
}

type ledgerKey struct {
	day   string
	class domain.CarClass
}

type AvailabilityRepository struct {
	mu     sync.Mutex
	counts map[ledgerKey]int64
}

func NewAvailabilityRepository() *AvailabilityRepository {
	return &AvailabilityRepository{counts: make(map[ledgerKey]int64)}
}

func (r *AvailabilityRepository) Get(_ context.Context, day time.Time, class domain.CarClass) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count, ok := r.counts[ledgerKey{domain.FormatDay(day), class}]
	if !ok {
		return 0, fmt.Errorf("%w: %s class %s", domain.ErrNotInitialized, domain.FormatDay(day), class)
	}
	return count, nil
}

func (r *AvailabilityRepository) Adjust(_ context.Context, day time.Time, class domain.CarClass, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[ledgerKey{domain.FormatDay(day), class}] += delta
	return nil
}

func (r *AvailabilityRepository) Set(_ context.Context, day time.Time, class domain.CarClass, count int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[ledgerKey{domain.FormatDay(day), class}] = count
	return nil
}

type AssignmentRepository struct {
	mu      sync.Mutex
	renters map[int32]uuid.UUID
}

func NewAssignmentRepository() *AssignmentRepository {
	return &AssignmentRepository{renters: make(map[int32]uuid.UUID)}
}

func (r *AssignmentRepository) Claim(_ context.Context, carID int32, renterID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.renters[carID]; taken {
		return false, nil
	}
	r.renters[carID] = renterID
	return true, nil
}

func (r *AssignmentRepository) Release(_ context.Context, carID int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.renters, carID)
	return nil
}

func (r *AssignmentRepository) CurrentRenter(_ context.Context, carID int32) (*uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	renter, ok := r.renters[carID]
	if !ok {
		return nil, nil
	}
	return &renter, nil
}

type reservationKey struct {
	dateFrom string
	renterID uuid.UUID
	rentalID uuid.UUID
}

type ReservationRepository struct {
	mu           sync.RWMutex
	reservations map[reservationKey]domain.Reservation
}

func NewReservationRepository() *ReservationRepository {
	return &ReservationRepository{reservations: make(map[reservationKey]domain.Reservation)}
}

func (r *ReservationRepository) Create(_ context.Context, res *domain.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reservations[reservationKey{domain.FormatDay(res.DateFrom), res.RenterID, res.RentalID}] = *res
	return nil
}

func (r *ReservationRepository) ListByDateAndRenter(_ context.Context, dateFrom time.Time, renterID uuid.UUID) ([]domain.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	from := domain.FormatDay(dateFrom)
	var out []domain.Reservation
	for k, res := range r.reservations {
		if k.dateFrom == from && k.renterID == renterID {
			out = append(out, res)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RentalID.String() < out[j].RentalID.String()
	})
	return out, nil
}

func (r *ReservationRepository) Delete(_ context.Context, dateFrom time.Time, renterID, rentalID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.reservations, reservationKey{domain.FormatDay(dateFrom), renterID, rentalID})
	return nil
}

type historyKey struct {
	carID    int32
	dateFrom string
	dateTo   string
}

type HistoryRepository struct {
	mu      sync.RWMutex
	records map[historyKey]domain.HistoryRecord
}

func NewHistoryRepository() *HistoryRepository {
	return &HistoryRepository{records: make(map[historyKey]domain.HistoryRecord)}
}

func (r *HistoryRepository) Create(_ context.Context, rec *domain.HistoryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *rec
	stored.DateReceived = nil
	r.records[historyKey{rec.CarID, domain.FormatDay(rec.DateFrom), domain.FormatDay(rec.DateTo)}] = stored
	return nil
}

func (r *HistoryRepository) MarkReceived(_ context.Context, carID int32, dateFrom, dateTo, received time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := historyKey{carID, domain.FormatDay(dateFrom), domain.FormatDay(dateTo)}
	rec, ok := r.records[key]
	if !ok {
		return nil
	}
	day := domain.Day(received)
	rec.DateReceived = &day
	r.records[key] = rec
	return nil
}

func (r *HistoryRepository) List(_ context.Context, filter domain.HistoryFilter) ([]domain.HistoryRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.HistoryRecord
	for _, rec := range r.records {
		if filter.CarID != 0 && rec.CarID != filter.CarID {
			continue
		}
		if filter.OpenOnly && !rec.Open() {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.CarID != b.CarID {
			return a.CarID < b.CarID
		}
		if !a.DateFrom.Equal(b.DateFrom) {
			return a.DateFrom.Before(b.DateFrom)
		}
		return a.DateTo.Before(b.DateTo)
	})
	return out, nil
}

type CarRepository struct {
	mu   sync.RWMutex
	cars map[int32]domain.Car
}

func NewCarRepository() *CarRepository {
	return &CarRepository{cars: make(map[int32]domain.Car)}
}

func (r *CarRepository) List(_ context.Context) ([]domain.Car, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Car, 0, len(r.cars))
	for _, c := range r.cars {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *CarRepository) Upsert(_ context.Context, car domain.Car) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cars[car.ID] = car
	return nil
}
