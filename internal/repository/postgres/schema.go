package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"fleet-rental-backend/internal/logger"
)

// Days are stored as YYYY-MM-DD text and ids as text so the same schema and
// statements run on PostgreSQL and SQLite.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS cars (
		car_id        INTEGER PRIMARY KEY,
		car_name      TEXT NOT NULL,
		car_class     TEXT NOT NULL,
		license_plate TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS available_cars (
		day       TEXT NOT NULL,
		car_class TEXT NOT NULL,
		count     BIGINT NOT NULL,
		PRIMARY KEY (day, car_class)
	)`,
	`CREATE TABLE IF NOT EXISTS car_rentals (
		car_id    INTEGER PRIMARY KEY,
		renter_id TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS rental_log (
		date_from TEXT NOT NULL,
		renter_id TEXT NOT NULL,
		rental_id TEXT NOT NULL,
		date_to   TEXT NOT NULL,
		car_class TEXT NOT NULL,
		PRIMARY KEY (date_from, renter_id, rental_id)
	)`,
	`CREATE TABLE IF NOT EXISTS car_history (
		car_id        INTEGER NOT NULL,
		date_from     TEXT NOT NULL,
		date_to       TEXT NOT NULL,
		renter_id     TEXT NOT NULL,
		rental_id     TEXT NOT NULL,
		date_received TEXT,
		PRIMARY KEY (car_id, date_from, date_to)
	)`,
}

// Migrate creates any missing tables. It is safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d failed: %w", i+1, err)
		}
	}
	logger.Info("Database schema is up to date", "tables", len(schema))
	return nil
}
