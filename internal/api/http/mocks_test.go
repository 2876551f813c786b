package http

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"fleet-rental-backend/internal/domain"
)

// MockRentalService
type MockRentalService struct {
	mock.Mock
}

func (m *MockRentalService) Reserve(ctx context.Context, dateFrom time.Time, renterID uuid.UUID, dateTo time.Time, class domain.CarClass) (uuid.UUID, error) {
	args := m.Called(ctx, dateFrom, renterID, dateTo, class)
	return args.Get(0).(uuid.UUID), args.Error(1)
}
func (m *MockRentalService) FulfillForClient(ctx context.Context, date time.Time, renterID uuid.UUID) ([]domain.Car, error) {
	args := m.Called(ctx, date, renterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Car), args.Error(1)
}
func (m *MockRentalService) ReturnCar(ctx context.Context, carID int32, dateOut, dateReturned, dateExpected time.Time) error {
	args := m.Called(ctx, carID, dateOut, dateReturned, dateExpected)
	return args.Error(0)
}
func (m *MockRentalService) CancelReservation(ctx context.Context, dateFrom time.Time, renterID, rentalID uuid.UUID, dateTo time.Time, class domain.CarClass) error {
	args := m.Called(ctx, dateFrom, renterID, rentalID, dateTo, class)
	return args.Error(0)
}
func (m *MockRentalService) Initialize(ctx context.Context, windowDays int) error {
	args := m.Called(ctx, windowDays)
	return args.Error(0)
}
func (m *MockRentalService) ExtendAvailabilityWindow(ctx context.Context, windowDays int) (int, error) {
	args := m.Called(ctx, windowDays)
	return args.Int(0), args.Error(1)
}
func (m *MockRentalService) AvailableClasses(ctx context.Context, date time.Time) ([]domain.CarClass, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CarClass), args.Error(1)
}
func (m *MockRentalService) CarHistory(ctx context.Context, carID int32, openOnly bool) ([]domain.HistoryRecord, error) {
	args := m.Called(ctx, carID, openOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.HistoryRecord), args.Error(1)
}
