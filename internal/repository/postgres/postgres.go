package postgres

import (
	"context"
	"database/sql"
	"errors"

	"fleet-rental-backend/internal/repository"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know about.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

type Store struct {
	db *sql.DB

	Availability repository.AvailabilityRepository
	Assignments  repository.AssignmentRepository
	Reservations repository.ReservationRepository
	History      repository.HistoryRepository
	Cars         repository.CarRepository

	closers []func() error
}

// NewStore prepares every statement the engine issues against db. driver is
// the database/sql driver name db was opened with ("postgres", "pgx" or "sqlite").
func NewStore(ctx context.Context, db *sql.DB, driver string, opts ...Option) (*Store, error) {
	availability, err := NewAvailabilityRepository(ctx, db, opts...)
	if err != nil {
		return nil, err
	}
	assignments, err := NewAssignmentRepository(ctx, db, opts...)
	if err != nil {
		availability.Close()
		return nil, err
	}
	reservations, err := NewReservationRepository(ctx, db, opts...)
	if err != nil {
		availability.Close()
		assignments.Close()
		return nil, err
	}
	history, err := NewHistoryRepository(ctx, db, opts...)
	if err != nil {
		availability.Close()
		assignments.Close()
		reservations.Close()
		return nil, err
	}

	return &Store{
		db:           db,
		Availability: availability,
		Assignments:  assignments,
		Reservations: reservations,
		History:      history,
		Cars:         NewCarRepository(db, driver, opts...),
		closers:      []func() error{availability.Close, assignments.Close, reservations.Close, history.Close},
	}, nil
}

// Close releases the prepared statements. The *sql.DB stays open.
func (s *Store) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
