package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fleet-rental-backend/internal/domain"
	"fleet-rental-backend/internal/logger"
)

type ReservationRepository struct {
	settings
	insertStmt *sql.Stmt
	selectStmt *sql.Stmt
	deleteStmt *sql.Stmt
}

func NewReservationRepository(ctx context.Context, db *sql.DB, opts ...Option) (*ReservationRepository, error) {
	r := &ReservationRepository{settings: newSettings(opts)}
	err := prepare(ctx, db,
		preparedQuery{qInsertReservation, &r.insertStmt},
		preparedQuery{qSelectReservations, &r.selectStmt},
		preparedQuery{qDeleteReservation, &r.deleteStmt},
	)
	if err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func (r *ReservationRepository) Close() error {
	return closeAll(r.insertStmt, r.selectStmt, r.deleteStmt)
}

func (r *ReservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	logger.DatabaseCall(qInsertReservation.name, qInsertReservation.sql, "rental_id", res.RentalID, "renter_id", res.RenterID)
	_, err := r.insertStmt.ExecContext(ctx,
		domain.FormatDay(res.DateFrom),
		res.RenterID.String(),
		res.RentalID.String(),
		domain.FormatDay(res.DateTo),
		res.CarClass.String(),
	)
	if err != nil {
		logger.DatabaseResult(qInsertReservation.name, 0, err, "rental_id", res.RentalID)
		return domain.StoreError("create reservation", err)
	}
	logger.DatabaseResult(qInsertReservation.name, 1, nil, "rental_id", res.RentalID)
	return nil
}

func (r *ReservationRepository) ListByDateAndRenter(ctx context.Context, dateFrom time.Time, renterID uuid.UUID) ([]domain.Reservation, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	dayStr := domain.FormatDay(dateFrom)
	logger.DatabaseCall(qSelectReservations.name, qSelectReservations.sql, "date_from", dayStr, "renter_id", renterID)
	rows, err := r.selectStmt.QueryContext(ctx, dayStr, renterID.String())
	if err != nil {
		logger.DatabaseResult(qSelectReservations.name, 0, err)
		return nil, domain.StoreError("list reservations", err)
	}
	defer rows.Close()

	var reservations []domain.Reservation
	for rows.Next() {
		var from, renter, rental, to, class string
		if err := rows.Scan(&from, &renter, &rental, &to, &class); err != nil {
			return nil, domain.StoreError("list reservations", err)
		}
		res, err := reservationFromRow(from, renter, rental, to, class)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StoreError("list reservations", err)
	}
	logger.DatabaseResult(qSelectReservations.name, int64(len(reservations)), nil)
	return reservations, nil
}

func (r *ReservationRepository) Delete(ctx context.Context, dateFrom time.Time, renterID, rentalID uuid.UUID) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	logger.DatabaseCall(qDeleteReservation.name, qDeleteReservation.sql, "rental_id", rentalID)
	res, err := r.deleteStmt.ExecContext(ctx, domain.FormatDay(dateFrom), renterID.String(), rentalID.String())
	if err != nil {
		logger.DatabaseResult(qDeleteReservation.name, 0, err, "rental_id", rentalID)
		return domain.StoreError("delete reservation", err)
	}
	rows, _ := res.RowsAffected()
	logger.DatabaseResult(qDeleteReservation.name, rows, nil, "rental_id", rentalID)
	return nil
}

func reservationFromRow(from, renter, rental, to, class string) (domain.Reservation, error) {
	var res domain.Reservation
	var err error
	if res.DateFrom, err = domain.ParseDay(from); err != nil {
		return res, fmt.Errorf("rental_log row: %w", err)
	}
	if res.DateTo, err = domain.ParseDay(to); err != nil {
		return res, fmt.Errorf("rental_log row: %w", err)
	}
	if res.RenterID, err = uuid.Parse(renter); err != nil {
		return res, fmt.Errorf("rental_log row: renter_id: %w", err)
	}
	if res.RentalID, err = uuid.Parse(rental); err != nil {
		return res, fmt.Errorf("rental_log row: rental_id: %w", err)
	}
	res.CarClass = domain.CarClass(class)
	return res, nil
}
