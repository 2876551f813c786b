package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fleet-rental-backend/internal/domain"
	"fleet-rental-backend/internal/events"
	"fleet-rental-backend/internal/logger"
	"fleet-rental-backend/internal/repository"
)

const DefaultWindowDays = 30

type rentalService struct {
	catalog          CarCatalog
	availabilityRepo repository.AvailabilityRepository
	assignmentRepo   repository.AssignmentRepository
	reservationRepo  repository.ReservationRepository
	historyRepo      repository.HistoryRepository
	publisher        events.Publisher
	clock            Clock
	windowDays       int
}

func NewRentalService(
	catalog CarCatalog,
	availabilityRepo repository.AvailabilityRepository,
	assignmentRepo repository.AssignmentRepository,
	reservationRepo repository.ReservationRepository,
	historyRepo repository.HistoryRepository,
	publisher events.Publisher,
	clock Clock,
	windowDays int,
) RentalService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	return &rentalService{
		catalog:          catalog,
		availabilityRepo: availabilityRepo,
		assignmentRepo:   assignmentRepo,
		reservationRepo:  reservationRepo,
		historyRepo:      historyRepo,
		publisher:        publisher,
		clock:            clock,
		windowDays:       windowDays,
	}
}

func (s *rentalService) Reserve(ctx context.Context, dateFrom time.Time, renterID uuid.UUID, dateTo time.Time, class domain.CarClass) (uuid.UUID, error) {
	const method = "rentalService.Reserve"
	logger.EnterMethod(method, "renterID", renterID, "class", class,
		"dateFrom", domain.FormatDay(dateFrom), "dateTo", domain.FormatDay(dateTo))

	class, err := domain.ParseCarClass(string(class))
	if err != nil {
		logger.ExitMethodWithError(method, err, "renterID", renterID)
		return uuid.Nil, err
	}
	from, to := domain.Day(dateFrom), domain.Day(dateTo)
	if err := s.checkBookingWindow(from, to); err != nil {
		logger.ExitMethodWithError(method, err, "renterID", renterID)
		return uuid.Nil, err
	}

	days := domain.DaysInRange(from, to)
	for _, day := range days {
		count, err := s.availabilityRepo.Get(ctx, day, class)
		if err != nil {
			logger.ExitMethodWithError(method, err, "day", domain.FormatDay(day))
			return uuid.Nil, err
		}
		if count <= 0 {
			err := fmt.Errorf("%w: class %s on %s", domain.ErrInsufficientAvailability, class, domain.FormatDay(day))
			logger.ExitMethodWithError(method, err, "renterID", renterID)
			return uuid.Nil, err
		}
	}

	res := &domain.Reservation{
		DateFrom: from,
		DateTo:   to,
		RenterID: renterID,
		RentalID: uuid.New(),
		CarClass: class,
	}
	if err := s.reservationRepo.Create(ctx, res); err != nil {
		logger.ExitMethodWithError(method, err, "rentalID", res.RentalID)
		return uuid.Nil, err
	}
	// Another reserve may have passed its check concurrently; the ledger can
	// go negative here and the next check pass will refuse the class.
	for _, day := range days {
		if err := s.availabilityRepo.Adjust(ctx, day, class, -1); err != nil {
			logger.ExitMethodWithError(method, err, "rentalID", res.RentalID, "day", domain.FormatDay(day))
			return uuid.Nil, err
		}
	}

	s.publish(ctx, events.Event{
		Type:     events.ReservationCreated,
		RentalID: res.RentalID,
		RenterID: renterID,
		CarClass: class,
		DateFrom: domain.FormatDay(from),
		DateTo:   domain.FormatDay(to),
	})

	logger.ExitMethod(method, "rentalID", res.RentalID, "days", len(days))
	return res.RentalID, nil
}

func (s *rentalService) checkBookingWindow(from, to time.Time) error {
	if !to.After(from) {
		return fmt.Errorf("%w: end date %s must be after start date %s",
			domain.ErrInvalidDateRange, domain.FormatDay(to), domain.FormatDay(from))
	}
	today := domain.Day(s.clock.Now())
	limit := today.AddDate(0, 0, s.windowDays)
	if from.Before(today) {
		return fmt.Errorf("%w: start date %s is in the past", domain.ErrInvalidDateRange, domain.FormatDay(from))
	}
	if to.After(limit) {
		return fmt.Errorf("%w: dates must be within %d days from today (last bookable day %s)",
			domain.ErrInvalidDateRange, s.windowDays, domain.FormatDay(limit))
	}
	return nil
}

func (s *rentalService) FulfillForClient(ctx context.Context, date time.Time, renterID uuid.UUID) ([]domain.Car, error) {
	const method = "rentalService.FulfillForClient"
	logger.EnterMethod(method, "renterID", renterID, "date", domain.FormatDay(date))

	reservations, err := s.reservationRepo.ListByDateAndRenter(ctx, domain.Day(date), renterID)
	if err != nil {
		logger.ExitMethodWithError(method, err, "renterID", renterID)
		return nil, err
	}

	var cars []domain.Car
	var failures []error
	for _, res := range reservations {
		car, err := s.allocate(ctx, res)
		var allocErr *domain.AllocationError
		switch {
		case errors.As(err, &allocErr):
			logger.Warn("No car available for reservation", "rentalID", res.RentalID, "class", res.CarClass)
			failures = append(failures, err)
		case err != nil:
			logger.ExitMethodWithError(method, err, "renterID", renterID, "assigned", len(cars))
			// Reservations that already ran out of cars are still reported.
			return cars, errors.Join(append(failures, err)...)
		default:
			cars = append(cars, car)
		}
	}

	logger.ExitMethod(method, "renterID", renterID, "reservations", len(reservations),
		"assigned", len(cars), "failed", len(failures))
	return cars, errors.Join(failures...)
}

// allocate walks the upgrade path for one reservation and returns the first
// car whose claim succeeds.
func (s *rentalService) allocate(ctx context.Context, res domain.Reservation) (domain.Car, error) {
	path, err := s.catalog.ClassesFrom(res.CarClass)
	if err != nil {
		return domain.Car{}, err
	}
	for _, class := range path {
		for _, carID := range s.catalog.CarIDsInClass(class) {
			ok, err := s.assignmentRepo.Claim(ctx, carID, res.RenterID)
			if err != nil {
				return domain.Car{}, err
			}
			if !ok {
				continue
			}

			rec := &domain.HistoryRecord{
				CarID:    carID,
				DateFrom: res.DateFrom,
				DateTo:   res.DateTo,
				RenterID: res.RenterID,
				RentalID: res.RentalID,
			}
			if err := s.historyRepo.Create(ctx, rec); err != nil {
				return domain.Car{}, err
			}
			car, err := s.catalog.Details(carID)
			if err != nil {
				return domain.Car{}, err
			}

			s.publish(ctx, events.Event{
				Type:           events.RentalFulfilled,
				RentalID:       res.RentalID,
				RenterID:       res.RenterID,
				CarID:          carID,
				CarClass:       car.Class,
				RequestedClass: res.CarClass,
				Upgraded:       car.Class != res.CarClass,
				DateFrom:       domain.FormatDay(res.DateFrom),
				DateTo:         domain.FormatDay(res.DateTo),
			})
			return car, nil
		}
	}
	return domain.Car{}, &domain.AllocationError{RentalID: res.RentalID, RequestedClass: res.CarClass}
}

func (s *rentalService) ReturnCar(ctx context.Context, carID int32, dateOut, dateReturned, dateExpected time.Time) error {
	const method = "rentalService.ReturnCar"
	logger.EnterMethod(method, "carID", carID, "dateOut", domain.FormatDay(dateOut),
		"dateReturned", domain.FormatDay(dateReturned), "dateExpected", domain.FormatDay(dateExpected))

	car, err := s.catalog.Details(carID)
	if err != nil {
		logger.ExitMethodWithError(method, err, "carID", carID)
		return err
	}
	if err := s.assignmentRepo.Release(ctx, carID); err != nil {
		logger.ExitMethodWithError(method, err, "carID", carID)
		return err
	}
	err = s.historyRepo.MarkReceived(ctx, carID, domain.Day(dateOut), domain.Day(dateExpected), domain.Day(dateReturned))
	if err != nil {
		logger.ExitMethodWithError(method, err, "carID", carID)
		return err
	}

	s.publish(ctx, events.Event{
		Type:         events.RentalReturned,
		CarID:        carID,
		CarClass:     car.Class,
		DateFrom:     domain.FormatDay(dateOut),
		DateTo:       domain.FormatDay(dateExpected),
		DateReceived: domain.FormatDay(dateReturned),
	})

	logger.ExitMethod(method, "carID", carID)
	return nil
}

// CancelReservation does not check that the reservation still exists, so a
// repeated cancel restores the ledger twice.
func (s *rentalService) CancelReservation(ctx context.Context, dateFrom time.Time, renterID, rentalID uuid.UUID, dateTo time.Time, class domain.CarClass) error {
	const method = "rentalService.CancelReservation"
	logger.EnterMethod(method, "renterID", renterID, "rentalID", rentalID, "class", class)

	class, err := domain.ParseCarClass(string(class))
	if err != nil {
		logger.ExitMethodWithError(method, err, "rentalID", rentalID)
		return err
	}
	from, to := domain.Day(dateFrom), domain.Day(dateTo)
	if to.Before(from) {
		err := fmt.Errorf("%w: end date %s is before start date %s",
			domain.ErrInvalidDateRange, domain.FormatDay(to), domain.FormatDay(from))
		logger.ExitMethodWithError(method, err, "rentalID", rentalID)
		return err
	}

	for _, day := range domain.DaysInRange(from, to) {
		if err := s.availabilityRepo.Adjust(ctx, day, class, 1); err != nil {
			logger.ExitMethodWithError(method, err, "rentalID", rentalID, "day", domain.FormatDay(day))
			return err
		}
	}
	if err := s.reservationRepo.Delete(ctx, from, renterID, rentalID); err != nil {
		logger.ExitMethodWithError(method, err, "rentalID", rentalID)
		return err
	}

	s.publish(ctx, events.Event{
		Type:     events.ReservationCancelled,
		RentalID: rentalID,
		RenterID: renterID,
		CarClass: class,
		DateFrom: domain.FormatDay(from),
		DateTo:   domain.FormatDay(to),
	})

	logger.ExitMethod(method, "rentalID", rentalID)
	return nil
}

func (s *rentalService) Initialize(ctx context.Context, windowDays int) error {
	const method = "rentalService.Initialize"
	if windowDays <= 0 {
		windowDays = s.windowDays
	}
	logger.EnterMethod(method, "windowDays", windowDays)

	today := domain.Day(s.clock.Now())
	for _, class := range domain.AllCarClasses() {
		size := int64(s.catalog.Size(class))
		for i := 0; i < windowDays; i++ {
			day := today.AddDate(0, 0, i)
			if err := s.availabilityRepo.Set(ctx, day, class, size); err != nil {
				logger.ExitMethodWithError(method, err, "class", class, "day", domain.FormatDay(day))
				return err
			}
		}
	}

	logger.ExitMethod(method, "windowDays", windowDays, "from", domain.FormatDay(today))
	return nil
}

func (s *rentalService) ExtendAvailabilityWindow(ctx context.Context, windowDays int) (int, error) {
	const method = "rentalService.ExtendAvailabilityWindow"
	if windowDays <= 0 {
		windowDays = s.windowDays
	}
	logger.EnterMethod(method, "windowDays", windowDays)

	today := domain.Day(s.clock.Now())
	seeded := 0
	for _, class := range domain.AllCarClasses() {
		size := int64(s.catalog.Size(class))
		for i := 0; i <= windowDays; i++ {
			day := today.AddDate(0, 0, i)
			_, err := s.availabilityRepo.Get(ctx, day, class)
			if err == nil {
				continue
			}
			if !errors.Is(err, domain.ErrNotInitialized) {
				logger.ExitMethodWithError(method, err, "class", class, "day", domain.FormatDay(day))
				return seeded, err
			}
			if err := s.availabilityRepo.Set(ctx, day, class, size); err != nil {
				logger.ExitMethodWithError(method, err, "class", class, "day", domain.FormatDay(day))
				return seeded, err
			}
			seeded++
		}
	}

	logger.ExitMethod(method, "windowDays", windowDays, "seeded", seeded)
	return seeded, nil
}

func (s *rentalService) AvailableClasses(ctx context.Context, date time.Time) ([]domain.CarClass, error) {
	day := domain.Day(date)
	var classes []domain.CarClass
	for _, class := range domain.AllCarClasses() {
		count, err := s.availabilityRepo.Get(ctx, day, class)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			classes = append(classes, class)
		}
	}
	return classes, nil
}

func (s *rentalService) CarHistory(ctx context.Context, carID int32, openOnly bool) ([]domain.HistoryRecord, error) {
	if _, err := s.catalog.Details(carID); err != nil {
		return nil, err
	}
	return s.historyRepo.List(ctx, domain.HistoryFilter{CarID: carID, OpenOnly: openOnly})
}

func (s *rentalService) publish(ctx context.Context, e events.Event) {
	e.OccurredAt = s.clock.Now().UTC()
	if err := s.publisher.Publish(ctx, e); err != nil {
		logger.WarnContext(ctx, "Failed to publish rental event", "type", e.Type, "rentalID", e.RentalID, "error", err)
	}
}
