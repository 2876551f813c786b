package postgres_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-rental-backend/internal/repository/postgres"
)

func TestAssignmentRepository(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	claimPrep := mock.ExpectPrepare("INSERT INTO car_rentals")
	releasePrep := mock.ExpectPrepare("UPDATE car_rentals SET renter_id = NULL")
	selectPrep := mock.ExpectPrepare("SELECT renter_id FROM car_rentals")

	ctx := context.Background()
	repo, err := postgres.NewAssignmentRepository(ctx, db)
	require.NoError(t, err)

	renter := uuid.New()

	t.Run("ClaimFreeCar", func(t *testing.T) {
		claimPrep.ExpectExec().
			WithArgs(int32(1), renter.String()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.Claim(ctx, 1, renter)
		assert.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("ClaimTakenCar", func(t *testing.T) {
		claimPrep.ExpectExec().
			WithArgs(int32(1), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.Claim(ctx, 1, uuid.New())
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("CurrentRenter", func(t *testing.T) {
		selectPrep.ExpectQuery().
			WithArgs(int32(1)).
			WillReturnRows(sqlmock.NewRows([]string{"renter_id"}).AddRow(renter.String()))

		got, err := repo.CurrentRenter(ctx, 1)
		assert.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, renter, *got)
	})

	t.Run("Release", func(t *testing.T) {
		releasePrep.ExpectExec().
			WithArgs(int32(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Release(ctx, 1))
	})

	t.Run("CurrentRenterAfterRelease", func(t *testing.T) {
		selectPrep.ExpectQuery().
			WithArgs(int32(1)).
			WillReturnRows(sqlmock.NewRows([]string{"renter_id"}).AddRow(nil))

		got, err := repo.CurrentRenter(ctx, 1)
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("ReleaseUnknownCar", func(t *testing.T) {
		releasePrep.ExpectExec().
			WithArgs(int32(99)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.NoError(t, repo.Release(ctx, 99))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
