package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fleet-rental-backend/internal/domain"
	"fleet-rental-backend/internal/logger"
)

type AvailabilityRepository struct {
	settings
	selectStmt *sql.Stmt
	adjustStmt *sql.Stmt
	setStmt    *sql.Stmt
}

func NewAvailabilityRepository(ctx context.Context, db *sql.DB, opts ...Option) (*AvailabilityRepository, error) {
	r := &AvailabilityRepository{settings: newSettings(opts)}
	err := prepare(ctx, db,
		preparedQuery{qSelectAvailable, &r.selectStmt},
		preparedQuery{qAdjustAvailable, &r.adjustStmt},
		preparedQuery{qSetAvailable, &r.setStmt},
	)
	if err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func (r *AvailabilityRepository) Close() error {
	return closeAll(r.selectStmt, r.adjustStmt, r.setStmt)
}

func (r *AvailabilityRepository) Get(ctx context.Context, day time.Time, class domain.CarClass) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	dayStr := domain.FormatDay(day)
	logger.DatabaseCall(qSelectAvailable.name, qSelectAvailable.sql, "day", dayStr, "car_class", class)

	var count int64
	err := r.selectStmt.QueryRowContext(ctx, dayStr, class.String()).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		logger.DatabaseResult(qSelectAvailable.name, 0, nil, "day", dayStr, "car_class", class)
		return 0, fmt.Errorf("%w: %s class %s", domain.ErrNotInitialized, dayStr, class)
	}
	if err != nil {
		logger.DatabaseResult(qSelectAvailable.name, 0, err)
		return 0, domain.StoreError("get availability", err)
	}
	logger.DatabaseResult(qSelectAvailable.name, 1, nil, "count", count)
	return count, nil
}

func (r *AvailabilityRepository) Adjust(ctx context.Context, day time.Time, class domain.CarClass, delta int64) error {
	return r.write(ctx, qAdjustAvailable, r.adjustStmt, day, class, delta)
}

func (r *AvailabilityRepository) Set(ctx context.Context, day time.Time, class domain.CarClass, count int64) error {
	return r.write(ctx, qSetAvailable, r.setStmt, day, class, count)
}

func (r *AvailabilityRepository) write(ctx context.Context, q queryDescriptor, stmt *sql.Stmt, day time.Time, class domain.CarClass, value int64) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	dayStr := domain.FormatDay(day)
	logger.DatabaseCall(q.name, q.sql, "day", dayStr, "car_class", class, "value", value)

	res, err := stmt.ExecContext(ctx, dayStr, class.String(), value)
	if err != nil {
		logger.DatabaseResult(q.name, 0, err)
		return domain.StoreError(q.name, err)
	}
	rows, _ := res.RowsAffected()
	logger.DatabaseResult(q.name, rows, nil)
	return nil
}
