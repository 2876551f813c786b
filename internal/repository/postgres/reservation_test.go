package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-rental-backend/internal/domain"
	"fleet-rental-backend/internal/repository/postgres"
)

func TestReservationRepository(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	insertPrep := mock.ExpectPrepare("INSERT INTO rental_log")
	selectPrep := mock.ExpectPrepare("SELECT date_from, renter_id, rental_id, date_to, car_class FROM rental_log")
	deletePrep := mock.ExpectPrepare("DELETE FROM rental_log")

	ctx := context.Background()
	repo, err := postgres.NewReservationRepository(ctx, db)
	require.NoError(t, err)

	res := domain.Reservation{
		DateFrom: time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC),
		DateTo:   time.Date(2026, 10, 22, 0, 0, 0, 0, time.UTC),
		RenterID: uuid.New(),
		RentalID: uuid.New(),
		CarClass: domain.CarClassB,
	}

	t.Run("Create", func(t *testing.T) {
		insertPrep.ExpectExec().
			WithArgs("2026-10-20", res.RenterID.String(), res.RentalID.String(), "2026-10-22", "B").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Create(ctx, &res))
	})

	t.Run("ListByDateAndRenter", func(t *testing.T) {
		selectPrep.ExpectQuery().
			WithArgs("2026-10-20", res.RenterID.String()).
			WillReturnRows(sqlmock.NewRows([]string{"date_from", "renter_id", "rental_id", "date_to", "car_class"}).
				AddRow("2026-10-20", res.RenterID.String(), res.RentalID.String(), "2026-10-22", "B"))

		got, err := repo.ListByDateAndRenter(ctx, res.DateFrom, res.RenterID)
		assert.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, res, got[0])
	})

	t.Run("ListMalformedRow", func(t *testing.T) {
		selectPrep.ExpectQuery().
			WithArgs("2026-10-20", res.RenterID.String()).
			WillReturnRows(sqlmock.NewRows([]string{"date_from", "renter_id", "rental_id", "date_to", "car_class"}).
				AddRow("2026-10-20", "not-a-uuid", res.RentalID.String(), "2026-10-22", "B"))

		_, err := repo.ListByDateAndRenter(ctx, res.DateFrom, res.RenterID)
		assert.ErrorContains(t, err, "renter_id")
	})

	t.Run("Delete", func(t *testing.T) {
		deletePrep.ExpectExec().
			WithArgs("2026-10-20", res.RenterID.String(), res.RentalID.String()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(ctx, res.DateFrom, res.RenterID, res.RentalID))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
