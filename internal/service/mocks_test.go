package service_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"fleet-rental-backend/internal/domain"
	"fleet-rental-backend/internal/events"
)

// MockCatalog
type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) CarIDsInClass(class domain.CarClass) []int32 {
	args := m.Called(class)
	return args.Get(0).([]int32)
}
func (m *MockCatalog) Details(carID int32) (domain.Car, error) {
	args := m.Called(carID)
	return args.Get(0).(domain.Car), args.Error(1)
}
func (m *MockCatalog) ClassesFrom(class domain.CarClass) ([]domain.CarClass, error) {
	args := m.Called(class)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CarClass), args.Error(1)
}
func (m *MockCatalog) Size(class domain.CarClass) int {
	args := m.Called(class)
	return args.Int(0)
}

// MockAvailabilityRepo
type MockAvailabilityRepo struct {
	mock.Mock
}

func (m *MockAvailabilityRepo) Get(ctx context.Context, day time.Time, class domain.CarClass) (int64, error) {
	args := m.Called(ctx, day, class)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockAvailabilityRepo) Adjust(ctx context.Context, day time.Time, class domain.CarClass, delta int64) error {
	args := m.Called(ctx, day, class, delta)
	return args.Error(0)
}
func (m *MockAvailabilityRepo) Set(ctx context.Context, day time.Time, class domain.CarClass, count int64) error {
	args := m.Called(ctx, day, class, count)
	return args.Error(0)
}

// MockAssignmentRepo
type MockAssignmentRepo struct {
	mock.Mock
}

func (m *MockAssignmentRepo) Claim(ctx context.Context, carID int32, renterID uuid.UUID) (bool, error) {
	args := m.Called(ctx, carID, renterID)
	return args.Bool(0), args.Error(1)
}
func (m *MockAssignmentRepo) Release(ctx context.Context, carID int32) error {
	args := m.Called(ctx, carID)
	return args.Error(0)
}
func (m *MockAssignmentRepo) CurrentRenter(ctx context.Context, carID int32) (*uuid.UUID, error) {
	args := m.Called(ctx, carID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*uuid.UUID), args.Error(1)
}

// MockReservationRepo
type MockReservationRepo struct {
	mock.Mock
}

func (m *MockReservationRepo) Create(ctx context.Context, res *domain.Reservation) error {
	args := m.Called(ctx, res)
	return args.Error(0)
}
func (m *MockReservationRepo) ListByDateAndRenter(ctx context.Context, dateFrom time.Time, renterID uuid.UUID) ([]domain.Reservation, error) {
	args := m.Called(ctx, dateFrom, renterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reservation), args.Error(1)
}
func (m *MockReservationRepo) Delete(ctx context.Context, dateFrom time.Time, renterID, rentalID uuid.UUID) error {
	args := m.Called(ctx, dateFrom, renterID, rentalID)
	return args.Error(0)
}

// MockHistoryRepo
type MockHistoryRepo struct {
	mock.Mock
}

func (m *MockHistoryRepo) Create(ctx context.Context, rec *domain.HistoryRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}
func (m *MockHistoryRepo) MarkReceived(ctx context.Context, carID int32, dateFrom, dateTo, received time.Time) error {
	args := m.Called(ctx, carID, dateFrom, dateTo, received)
	return args.Error(0)
}
func (m *MockHistoryRepo) List(ctx context.Context, filter domain.HistoryFilter) ([]domain.HistoryRecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.HistoryRecord), args.Error(1)
}

// MockPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, e events.Event) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}
func (m *MockPublisher) Close() error {
	return m.Called().Error(0)
}

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

var now = fixedClock(time.Date(2026, 10, 16, 10, 30, 0, 0, time.UTC))

func day(offset int) time.Time {
	return time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}
