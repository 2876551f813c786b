package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"

	"fleet-rental-backend/internal/domain"
	"fleet-rental-backend/internal/logger"
)

type HistoryRepository struct {
	settings
	db          *sql.DB
	dialect     goqu.DialectWrapper
	insertStmt  *sql.Stmt
	receiveStmt *sql.Stmt
}

func NewHistoryRepository(ctx context.Context, db *sql.DB, opts ...Option) (*HistoryRepository, error) {
	r := &HistoryRepository{
		settings: newSettings(opts),
		db:       db,
		dialect:  goqu.Dialect("postgres"),
	}
	err := prepare(ctx, db,
		preparedQuery{qInsertHistory, &r.insertStmt},
		preparedQuery{qUpdateDateReceived, &r.receiveStmt},
	)
	if err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func (r *HistoryRepository) Close() error {
	return closeAll(r.insertStmt, r.receiveStmt)
}

func (r *HistoryRepository) Create(ctx context.Context, rec *domain.HistoryRecord) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	logger.DatabaseCall(qInsertHistory.name, qInsertHistory.sql, "car_id", rec.CarID, "rental_id", rec.RentalID)
	_, err := r.insertStmt.ExecContext(ctx,
		rec.CarID,
		domain.FormatDay(rec.DateFrom),
		domain.FormatDay(rec.DateTo),
		rec.RenterID.String(),
		rec.RentalID.String(),
	)
	if err != nil {
		logger.DatabaseResult(qInsertHistory.name, 0, err, "car_id", rec.CarID)
		return domain.StoreError("create history", err)
	}
	logger.DatabaseResult(qInsertHistory.name, 1, nil, "car_id", rec.CarID)
	return nil
}

// MarkReceived stamps the return date. A missing history row is not an error;
// it is logged and the return still counts.
func (r *HistoryRepository) MarkReceived(ctx context.Context, carID int32, dateFrom, dateTo, received time.Time) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	logger.DatabaseCall(qUpdateDateReceived.name, qUpdateDateReceived.sql, "car_id", carID)
	res, err := r.receiveStmt.ExecContext(ctx,
		domain.FormatDay(received),
		carID,
		domain.FormatDay(dateFrom),
		domain.FormatDay(dateTo),
	)
	if err != nil {
		logger.DatabaseResult(qUpdateDateReceived.name, 0, err, "car_id", carID)
		return domain.StoreError("mark received", err)
	}
	rows, _ := res.RowsAffected()
	logger.DatabaseResult(qUpdateDateReceived.name, rows, nil, "car_id", carID)
	if rows == 0 {
		logger.Warn("No history row for returned car", "car_id", carID,
			"date_from", domain.FormatDay(dateFrom), "date_to", domain.FormatDay(dateTo))
	}
	return nil
}

// List builds its query per call since the filter shape varies. CarID zero
// means every car.
func (r *HistoryRepository) List(ctx context.Context, filter domain.HistoryFilter) ([]domain.HistoryRecord, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	ds := r.dialect.From("car_history").
		Select("car_id", "date_from", "date_to", "renter_id", "rental_id", "date_received").
		Order(goqu.C("car_id").Asc(), goqu.C("date_from").Asc(), goqu.C("date_to").Asc()).
		Prepared(true)
	if filter.CarID != 0 {
		ds = ds.Where(goqu.Ex{"car_id": filter.CarID})
	}
	if filter.OpenOnly {
		ds = ds.Where(goqu.C("date_received").IsNull())
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build history query: %w", err)
	}

	logger.DatabaseCall("list_history", query, "car_id", filter.CarID, "open_only", filter.OpenOnly)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.DatabaseResult("list_history", 0, err)
		return nil, domain.StoreError("list history", err)
	}
	defer rows.Close()

	var records []domain.HistoryRecord
	for rows.Next() {
		var (
			rec                      domain.HistoryRecord
			from, to, renter, rental string
			received                 sql.NullString
		)
		if err := rows.Scan(&rec.CarID, &from, &to, &renter, &rental, &received); err != nil {
			return nil, domain.StoreError("list history", err)
		}
		if rec.DateFrom, err = domain.ParseDay(from); err != nil {
			return nil, fmt.Errorf("car_history row: %w", err)
		}
		if rec.DateTo, err = domain.ParseDay(to); err != nil {
			return nil, fmt.Errorf("car_history row: %w", err)
		}
		if rec.RenterID, err = uuid.Parse(renter); err != nil {
			return nil, fmt.Errorf("car_history row: renter_id: %w", err)
		}
		if rec.RentalID, err = uuid.Parse(rental); err != nil {
			return nil, fmt.Errorf("car_history row: rental_id: %w", err)
		}
		if received.Valid {
			day, err := domain.ParseDay(received.String)
			if err != nil {
				return nil, fmt.Errorf("car_history row: %w", err)
			}
			rec.DateReceived = &day
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StoreError("list history", err)
	}
	logger.DatabaseResult("list_history", int64(len(records)), nil)
	return records, nil
}
