package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"fleet-rental-backend/internal/domain"
	"fleet-rental-backend/internal/logger"
)

type AssignmentRepository struct {
	settings
	claimStmt   *sql.Stmt
	releaseStmt *sql.Stmt
	selectStmt  *sql.Stmt
}

func NewAssignmentRepository(ctx context.Context, db *sql.DB, opts ...Option) (*AssignmentRepository, error) {
	r := &AssignmentRepository{settings: newSettings(opts)}
	err := prepare(ctx, db,
		preparedQuery{qClaimCar, &r.claimStmt},
		preparedQuery{qReleaseCar, &r.releaseStmt},
		preparedQuery{qSelectCarRenter, &r.selectStmt},
	)
	if err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func (r *AssignmentRepository) Close() error {
	return closeAll(r.claimStmt, r.releaseStmt, r.selectStmt)
}

// Claim relies on the upsert's WHERE clause: a row that already carries a
// renter is left untouched and reports zero affected rows.
func (r *AssignmentRepository) Claim(ctx context.Context, carID int32, renterID uuid.UUID) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	logger.DatabaseCall(qClaimCar.name, qClaimCar.sql, "car_id", carID, "renter_id", renterID)
	res, err := r.claimStmt.ExecContext(ctx, carID, renterID.String())
	if err != nil {
		logger.DatabaseResult(qClaimCar.name, 0, err, "car_id", carID)
		return false, domain.StoreError("claim car", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, domain.StoreError("claim car", err)
	}
	logger.DatabaseResult(qClaimCar.name, rows, nil, "car_id", carID)
	return rows == 1, nil
}

func (r *AssignmentRepository) Release(ctx context.Context, carID int32) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	logger.DatabaseCall(qReleaseCar.name, qReleaseCar.sql, "car_id", carID)
	res, err := r.releaseStmt.ExecContext(ctx, carID)
	if err != nil {
		logger.DatabaseResult(qReleaseCar.name, 0, err, "car_id", carID)
		return domain.StoreError("release car", err)
	}
	rows, _ := res.RowsAffected()
	logger.DatabaseResult(qReleaseCar.name, rows, nil, "car_id", carID)
	return nil
}

func (r *AssignmentRepository) CurrentRenter(ctx context.Context, carID int32) (*uuid.UUID, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var renter sql.NullString
	err := r.selectStmt.QueryRowContext(ctx, carID).Scan(&renter)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !renter.Valid) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.StoreError("current renter", err)
	}
	id, err := uuid.Parse(renter.String)
	if err != nil {
		return nil, fmt.Errorf("car %d has malformed renter id %q: %w", carID, renter.String, err)
	}
	return &id, nil
}
