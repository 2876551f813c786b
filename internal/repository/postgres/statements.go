package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// queryDescriptor names one SQL statement. The full set is fixed at compile
// time and every repository prepares its descriptors once, at construction.
type queryDescriptor struct {
	name string
	sql  string
}

var (
	qSelectAvailable = queryDescriptor{"select_available_cars",
		`SELECT count FROM available_cars WHERE day = $1 AND car_class = $2`}
	qAdjustAvailable = queryDescriptor{"adjust_available_cars",
		`INSERT INTO available_cars (day, car_class, count) VALUES ($1, $2, $3)
		 ON CONFLICT (day, car_class) DO UPDATE SET count = available_cars.count + EXCLUDED.count`}
	qSetAvailable = queryDescriptor{"set_available_cars",
		`INSERT INTO available_cars (day, car_class, count) VALUES ($1, $2, $3)
		 ON CONFLICT (day, car_class) DO UPDATE SET count = EXCLUDED.count`}

	qClaimCar = queryDescriptor{"claim_car",
		`INSERT INTO car_rentals (car_id, renter_id) VALUES ($1, $2)
		 ON CONFLICT (car_id) DO UPDATE SET renter_id = EXCLUDED.renter_id WHERE car_rentals.renter_id IS NULL`}
	qReleaseCar = queryDescriptor{"release_car",
		`UPDATE car_rentals SET renter_id = NULL WHERE car_id = $1`}
	qSelectCarRenter = queryDescriptor{"select_car_renter",
		`SELECT renter_id FROM car_rentals WHERE car_id = $1`}

	qInsertReservation = queryDescriptor{"insert_reservation",
		`INSERT INTO rental_log (date_from, renter_id, rental_id, date_to, car_class) VALUES ($1, $2, $3, $4, $5)`}
	qSelectReservations = queryDescriptor{"select_reservations",
		`SELECT date_from, renter_id, rental_id, date_to, car_class FROM rental_log
		 WHERE date_from = $1 AND renter_id = $2 ORDER BY rental_id`}
	qDeleteReservation = queryDescriptor{"delete_reservation",
		`DELETE FROM rental_log WHERE date_from = $1 AND renter_id = $2 AND rental_id = $3`}

	qInsertHistory = queryDescriptor{"insert_history",
		`INSERT INTO car_history (car_id, date_from, date_to, renter_id, rental_id) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (car_id, date_from, date_to) DO UPDATE
		 SET renter_id = EXCLUDED.renter_id, rental_id = EXCLUDED.rental_id, date_received = NULL`}
	qUpdateDateReceived = queryDescriptor{"update_date_received",
		`UPDATE car_history SET date_received = $1 WHERE car_id = $2 AND date_from = $3 AND date_to = $4`}
)

// preparedQuery binds a descriptor to the field that will hold its statement.
type preparedQuery struct {
	desc queryDescriptor
	dest **sql.Stmt
}

func prepare(ctx context.Context, db *sql.DB, queries ...preparedQuery) error {
	for _, q := range queries {
		stmt, err := db.PrepareContext(ctx, q.desc.sql)
		if err != nil {
			return fmt.Errorf("failed to prepare %s: %w", q.desc.name, err)
		}
		*q.dest = stmt
	}
	return nil
}

func closeAll(stmts ...*sql.Stmt) error {
	var firstErr error
	for _, s := range stmts {
		if s == nil {
			continue
		}
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Option configures the SQL repositories.
type Option func(*settings)

type settings struct {
	queryTimeout time.Duration
}

// WithQueryTimeout bounds every statement. Zero leaves the caller's context as is.
func WithQueryTimeout(d time.Duration) Option {
	return func(s *settings) { s.queryTimeout = d }
}

func newSettings(opts []Option) settings {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func (s settings) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.queryTimeout)
}
