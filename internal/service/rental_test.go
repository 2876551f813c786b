package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"fleet-rental-backend/internal/domain"
	"fleet-rental-backend/internal/events"
	"fleet-rental-backend/internal/service"
)

type fixture struct {
	catalog      *MockCatalog
	availability *MockAvailabilityRepo
	assignments  *MockAssignmentRepo
	reservations *MockReservationRepo
	history      *MockHistoryRepo
	publisher    *MockPublisher
	svc          service.RentalService
}

func newFixture() *fixture {
	f := &fixture{
		catalog:      new(MockCatalog),
		availability: new(MockAvailabilityRepo),
		assignments:  new(MockAssignmentRepo),
		reservations: new(MockReservationRepo),
		history:      new(MockHistoryRepo),
		publisher:    new(MockPublisher),
	}
	f.svc = service.NewRentalService(f.catalog, f.availability, f.assignments, f.reservations, f.history, f.publisher, now, 30)
	return f
}

func eventOfType(typ events.Type) interface{} {
	return mock.MatchedBy(func(e events.Event) bool { return e.Type == typ })
}

func TestRentalService_Reserve(t *testing.T) {
	ctx := context.Background()
	renter := uuid.New()

	t.Run("Success", func(t *testing.T) {
		f := newFixture()
		for i := 1; i <= 3; i++ {
			f.availability.On("Get", ctx, day(i), domain.CarClassB).Return(int64(2), nil)
			f.availability.On("Adjust", ctx, day(i), domain.CarClassB, int64(-1)).Return(nil)
		}
		f.reservations.On("Create", ctx, mock.MatchedBy(func(r *domain.Reservation) bool {
			return r.RenterID == renter && r.CarClass == domain.CarClassB &&
				r.DateFrom.Equal(day(1)) && r.DateTo.Equal(day(3))
		})).Return(nil)
		f.publisher.On("Publish", ctx, eventOfType(events.ReservationCreated)).Return(nil)

		id, err := f.svc.Reserve(ctx, day(1), renter, day(3), domain.CarClass(" b "))
		assert.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, id)
		f.availability.AssertExpectations(t)
		f.reservations.AssertExpectations(t)
		f.publisher.AssertExpectations(t)
	})

	t.Run("InsufficientAvailabilityWritesNothing", func(t *testing.T) {
		f := newFixture()
		f.availability.On("Get", ctx, day(1), domain.CarClassA).Return(int64(1), nil)
		f.availability.On("Get", ctx, day(2), domain.CarClassA).Return(int64(0), nil)

		_, err := f.svc.Reserve(ctx, day(1), renter, day(3), domain.CarClassA)
		assert.ErrorIs(t, err, domain.ErrInsufficientAvailability)
		f.availability.AssertNotCalled(t, "Get", ctx, day(3), domain.CarClassA)
		f.availability.AssertNotCalled(t, "Adjust", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.reservations.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("NotInitialized", func(t *testing.T) {
		f := newFixture()
		f.availability.On("Get", ctx, day(1), domain.CarClassA).Return(int64(0), domain.ErrNotInitialized)

		_, err := f.svc.Reserve(ctx, day(1), renter, day(2), domain.CarClassA)
		assert.ErrorIs(t, err, domain.ErrNotInitialized)
		f.reservations.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("UnknownClass", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Reserve(ctx, day(1), renter, day(2), domain.CarClass("Z"))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	invalid := []struct {
		name     string
		from, to int
	}{
		{"SameDay", 2, 2},
		{"Inverted", 3, 1},
		{"StartsInPast", -1, 2},
		{"BeyondWindow", 29, 31},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.svc.Reserve(ctx, day(tc.from), renter, day(tc.to), domain.CarClassA)
			assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
			f.availability.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
		})
	}

	t.Run("LastBookableDay", func(t *testing.T) {
		f := newFixture()
		for _, d := range []int{29, 30} {
			f.availability.On("Get", ctx, day(d), domain.CarClassA).Return(int64(1), nil)
			f.availability.On("Adjust", ctx, day(d), domain.CarClassA, int64(-1)).Return(nil)
		}
		f.reservations.On("Create", ctx, mock.Anything).Return(nil)
		f.publisher.On("Publish", ctx, mock.Anything).Return(nil)

		_, err := f.svc.Reserve(ctx, day(29), renter, day(30), domain.CarClassA)
		assert.NoError(t, err)
	})

	t.Run("PublishFailureIsIgnored", func(t *testing.T) {
		f := newFixture()
		f.availability.On("Get", ctx, mock.Anything, domain.CarClassC).Return(int64(5), nil)
		f.availability.On("Adjust", ctx, mock.Anything, domain.CarClassC, int64(-1)).Return(nil)
		f.reservations.On("Create", ctx, mock.Anything).Return(nil)
		f.publisher.On("Publish", ctx, mock.Anything).Return(errors.New("broker down"))

		_, err := f.svc.Reserve(ctx, day(0), renter, day(1), domain.CarClassC)
		assert.NoError(t, err)
	})
}

func TestRentalService_FulfillForClient(t *testing.T) {
	ctx := context.Background()
	renter := uuid.New()
	first := domain.Reservation{DateFrom: day(0), DateTo: day(2), RenterID: renter, RentalID: uuid.New(), CarClass: domain.CarClassE}
	second := domain.Reservation{DateFrom: day(0), DateTo: day(4), RenterID: renter, RentalID: uuid.New(), CarClass: domain.CarClassE}

	t.Run("StoreErrorAbortsBatch", func(t *testing.T) {
		f := newFixture()
		f.reservations.On("ListByDateAndRenter", ctx, day(0), renter).Return([]domain.Reservation{first, second}, nil)
		f.catalog.On("ClassesFrom", domain.CarClassE).Return([]domain.CarClass{domain.CarClassE, domain.CarClassF, domain.CarClassS}, nil)
		f.catalog.On("CarIDsInClass", domain.CarClassE).Return([]int32{10, 11})
		f.catalog.On("Details", int32(10)).Return(domain.Car{ID: 10, Class: domain.CarClassE}, nil)
		f.assignments.On("Claim", ctx, int32(10), renter).Return(true, nil).Once()
		f.assignments.On("Claim", ctx, int32(10), renter).Return(false, nil).Once()
		f.assignments.On("Claim", ctx, int32(11), renter).Return(false, domain.StoreError("claim car", errors.New("timeout")))
		f.history.On("Create", ctx, mock.MatchedBy(func(r *domain.HistoryRecord) bool {
			return r.CarID == 10 && r.RentalID == first.RentalID
		})).Return(nil)
		f.publisher.On("Publish", ctx, eventOfType(events.RentalFulfilled)).Return(nil)

		cars, err := f.svc.FulfillForClient(ctx, day(0), renter)
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
		require.Len(t, cars, 1)
		assert.Equal(t, int32(10), cars[0].ID)
	})

	t.Run("StoreErrorKeepsEarlierFailures", func(t *testing.T) {
		f := newFixture()
		sports := domain.Reservation{DateFrom: day(0), DateTo: day(2), RenterID: renter, RentalID: uuid.New(), CarClass: domain.CarClassS}
		compact := domain.Reservation{DateFrom: day(0), DateTo: day(2), RenterID: renter, RentalID: uuid.New(), CarClass: domain.CarClassA}
		f.reservations.On("ListByDateAndRenter", ctx, day(0), renter).Return([]domain.Reservation{sports, compact}, nil)
		f.catalog.On("ClassesFrom", domain.CarClassS).Return([]domain.CarClass{domain.CarClassS}, nil)
		f.catalog.On("ClassesFrom", domain.CarClassA).Return([]domain.CarClass{domain.CarClassA}, nil)
		f.catalog.On("CarIDsInClass", domain.CarClassS).Return([]int32{30})
		f.catalog.On("CarIDsInClass", domain.CarClassA).Return([]int32{1})
		f.assignments.On("Claim", ctx, int32(30), renter).Return(false, nil)
		f.assignments.On("Claim", ctx, int32(1), renter).Return(false, domain.StoreError("claim car", errors.New("timeout")))

		cars, err := f.svc.FulfillForClient(ctx, day(0), renter)
		assert.Empty(t, cars)
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
		assert.ErrorIs(t, err, domain.ErrNoCarAvailable)
		var allocErr *domain.AllocationError
		require.ErrorAs(t, err, &allocErr)
		assert.Equal(t, sports.RentalID, allocErr.RentalID)
		f.history.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("NoReservations", func(t *testing.T) {
		f := newFixture()
		f.reservations.On("ListByDateAndRenter", ctx, day(0), renter).Return(nil, nil)

		cars, err := f.svc.FulfillForClient(ctx, day(0), renter)
		assert.NoError(t, err)
		assert.Empty(t, cars)
	})

	t.Run("UpgradeIsFlaggedOnEvent", func(t *testing.T) {
		f := newFixture()
		f.reservations.On("ListByDateAndRenter", ctx, day(0), renter).Return([]domain.Reservation{first}, nil)
		f.catalog.On("ClassesFrom", domain.CarClassE).Return([]domain.CarClass{domain.CarClassE, domain.CarClassF}, nil)
		f.catalog.On("CarIDsInClass", domain.CarClassE).Return([]int32{10})
		f.catalog.On("CarIDsInClass", domain.CarClassF).Return([]int32{20})
		f.catalog.On("Details", int32(20)).Return(domain.Car{ID: 20, Class: domain.CarClassF}, nil)
		f.assignments.On("Claim", ctx, int32(10), renter).Return(false, nil)
		f.assignments.On("Claim", ctx, int32(20), renter).Return(true, nil)
		f.history.On("Create", ctx, mock.Anything).Return(nil)
		f.publisher.On("Publish", ctx, mock.MatchedBy(func(e events.Event) bool {
			return e.Type == events.RentalFulfilled && e.Upgraded &&
				e.CarClass == domain.CarClassF && e.RequestedClass == domain.CarClassE && e.CarID == 20
		})).Return(nil)

		cars, err := f.svc.FulfillForClient(ctx, day(0), renter)
		assert.NoError(t, err)
		require.Len(t, cars, 1)
		assert.Equal(t, domain.CarClassF, cars[0].Class)
		f.publisher.AssertExpectations(t)
	})
}

func TestRentalService_ReturnCar(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newFixture()
		f.catalog.On("Details", int32(3)).Return(domain.Car{ID: 3, Class: domain.CarClassB}, nil)
		f.assignments.On("Release", ctx, int32(3)).Return(nil)
		f.history.On("MarkReceived", ctx, int32(3), day(0), day(4), day(3)).Return(nil)
		f.publisher.On("Publish", ctx, eventOfType(events.RentalReturned)).Return(nil)

		err := f.svc.ReturnCar(ctx, 3, day(0), day(3), day(4))
		assert.NoError(t, err)
		f.history.AssertExpectations(t)
	})

	t.Run("UnknownCar", func(t *testing.T) {
		f := newFixture()
		f.catalog.On("Details", int32(99)).Return(domain.Car{}, domain.ErrNotFound)

		err := f.svc.ReturnCar(ctx, 99, day(0), day(1), day(1))
		assert.ErrorIs(t, err, domain.ErrNotFound)
		f.assignments.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
	})

	t.Run("ReleaseFailureSkipsHistory", func(t *testing.T) {
		f := newFixture()
		f.catalog.On("Details", int32(3)).Return(domain.Car{ID: 3, Class: domain.CarClassB}, nil)
		f.assignments.On("Release", ctx, int32(3)).Return(domain.StoreError("release car", errors.New("reset")))

		err := f.svc.ReturnCar(ctx, 3, day(0), day(1), day(1))
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
		f.history.AssertNotCalled(t, "MarkReceived", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestRentalService_CancelReservation(t *testing.T) {
	ctx := context.Background()
	renter, rental := uuid.New(), uuid.New()

	t.Run("RestoresEveryDayThenDeletes", func(t *testing.T) {
		f := newFixture()
		for i := 2; i <= 4; i++ {
			f.availability.On("Adjust", ctx, day(i), domain.CarClassD, int64(1)).Return(nil).Once()
		}
		f.reservations.On("Delete", ctx, day(2), renter, rental).Return(nil)
		f.publisher.On("Publish", ctx, eventOfType(events.ReservationCancelled)).Return(nil)

		err := f.svc.CancelReservation(ctx, day(2), renter, rental, day(4), domain.CarClassD)
		assert.NoError(t, err)
		f.availability.AssertExpectations(t)
		f.reservations.AssertExpectations(t)
	})

	t.Run("InvertedRange", func(t *testing.T) {
		f := newFixture()
		err := f.svc.CancelReservation(ctx, day(4), renter, rental, day(2), domain.CarClassD)
		assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
	})

	t.Run("UnknownClass", func(t *testing.T) {
		f := newFixture()
		err := f.svc.CancelReservation(ctx, day(2), renter, rental, day(4), domain.CarClass(""))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("PartialFailureKeepsReservation", func(t *testing.T) {
		f := newFixture()
		f.availability.On("Adjust", ctx, day(2), domain.CarClassD, int64(1)).Return(nil)
		f.availability.On("Adjust", ctx, day(3), domain.CarClassD, int64(1)).Return(domain.StoreError("adjust", errors.New("timeout")))

		err := f.svc.CancelReservation(ctx, day(2), renter, rental, day(4), domain.CarClassD)
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
		f.reservations.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestRentalService_Initialize(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	for _, class := range domain.AllCarClasses() {
		f.catalog.On("Size", class).Return(2)
	}
	f.availability.On("Set", ctx, mock.Anything, mock.Anything, int64(2)).Return(nil)

	require.NoError(t, f.svc.Initialize(ctx, 3))
	f.availability.AssertNumberOfCalls(t, "Set", 3*len(domain.AllCarClasses()))
	f.availability.AssertCalled(t, "Set", ctx, day(0), domain.CarClassA, int64(2))
	f.availability.AssertCalled(t, "Set", ctx, day(2), domain.CarClassS, int64(2))
	f.availability.AssertNotCalled(t, "Set", ctx, day(3), domain.CarClassA, int64(2))
}

func TestRentalService_AvailableClasses(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newFixture()
		for _, class := range domain.AllCarClasses() {
			count := int64(0)
			if class == domain.CarClassB || class == domain.CarClassF {
				count = 1
			}
			f.availability.On("Get", ctx, day(1), class).Return(count, nil)
		}

		classes, err := f.svc.AvailableClasses(ctx, day(1))
		assert.NoError(t, err)
		assert.Equal(t, []domain.CarClass{domain.CarClassB, domain.CarClassF}, classes)
	})

	t.Run("NotInitialized", func(t *testing.T) {
		f := newFixture()
		f.availability.On("Get", ctx, day(1), domain.CarClassA).Return(int64(0), domain.ErrNotInitialized)

		_, err := f.svc.AvailableClasses(ctx, day(1))
		assert.ErrorIs(t, err, domain.ErrNotInitialized)
	})
}

func TestRentalService_CarHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.catalog.On("Details", int32(3)).Return(domain.Car{ID: 3, Class: domain.CarClassB}, nil)
	f.catalog.On("Details", int32(4)).Return(domain.Car{}, domain.ErrNotFound)
	records := []domain.HistoryRecord{{CarID: 3, DateFrom: day(0), DateTo: day(1)}}
	f.history.On("List", ctx, domain.HistoryFilter{CarID: 3, OpenOnly: true}).Return(records, nil)

	got, err := f.svc.CarHistory(ctx, 3, true)
	assert.NoError(t, err)
	assert.Equal(t, records, got)

	_, err = f.svc.CarHistory(ctx, 4, false)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
