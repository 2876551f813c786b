package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"fleet-rental-backend/internal/domain"
	"fleet-rental-backend/internal/logger"
)

const (
	listCarsQuery  = `SELECT car_id, car_name, car_class, license_plate FROM cars ORDER BY car_id`
	upsertCarQuery = `INSERT INTO cars (car_id, car_name, car_class, license_plate)
		VALUES (:car_id, :car_name, :car_class, :license_plate)
		ON CONFLICT (car_id) DO UPDATE
		SET car_name = EXCLUDED.car_name, car_class = EXCLUDED.car_class, license_plate = EXCLUDED.license_plate`
)

type carRow struct {
	ID    int32  `db:"car_id"`
	Name  string `db:"car_name"`
	Class string `db:"car_class"`
	Plate string `db:"license_plate"`
}

// CarRepository reads and mirrors the fleet reference table. It only runs at
// start-up, so it goes through sqlx instead of prepared statements.
type CarRepository struct {
	settings
	db *sqlx.DB
}

func NewCarRepository(db *sql.DB, driver string, opts ...Option) *CarRepository {
	return &CarRepository{settings: newSettings(opts), db: sqlx.NewDb(db, driver)}
}

func (r *CarRepository) List(ctx context.Context) ([]domain.Car, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	logger.DatabaseCall("list_cars", listCarsQuery)
	var rows []carRow
	if err := r.db.SelectContext(ctx, &rows, listCarsQuery); err != nil {
		logger.DatabaseResult("list_cars", 0, err)
		return nil, domain.StoreError("list cars", err)
	}
	logger.DatabaseResult("list_cars", int64(len(rows)), nil)

	cars := make([]domain.Car, 0, len(rows))
	for _, row := range rows {
		class, err := domain.ParseCarClass(row.Class)
		if err != nil {
			return nil, err
		}
		cars = append(cars, domain.Car{ID: row.ID, Name: row.Name, Class: class, Plate: row.Plate})
	}
	return cars, nil
}

func (r *CarRepository) Upsert(ctx context.Context, car domain.Car) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	row := carRow{ID: car.ID, Name: car.Name, Class: car.Class.String(), Plate: car.Plate}
	logger.DatabaseCall("upsert_car", upsertCarQuery, "car_id", car.ID)
	res, err := r.db.NamedExecContext(ctx, upsertCarQuery, row)
	if err != nil {
		logger.DatabaseResult("upsert_car", 0, err, "car_id", car.ID)
		return domain.StoreError("upsert car", err)
	}
	rows, _ := res.RowsAffected()
	logger.DatabaseResult("upsert_car", rows, nil, "car_id", car.ID)
	return nil
}
