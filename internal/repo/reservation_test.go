package repo_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/rideshare/internal/domain"
	"github.com/pkordes/rideshare/internal/repo"
	"github.com/pkordes/rideshare/testutil"
)

// reservationSetup creates an owner, a rider and a 3-seat trip in a rolled-back tx.
func reservationSetup(t *testing.T) (repo.ReservationRepo, repo.TripRepo, domain.Trip, uuid.UUID) {
	t.Helper()
	tx := newTestTx(t)
	trips := repo.NewTripRepo(tx)
	owner := testutil.InsertUser(t, tx, "Ada")
	rider := testutil.InsertUser(t, tx, "Bo")

	trip, err := trips.Create(context.Background(), tripFixture(owner))
	require.NoError(t, err)
	return repo.NewReservationRepo(tx), trips, trip, rider
}

func TestReservationRepo_Create(t *testing.T) {
	r, _, trip, rider := reservationSetup(t)

	got, err := r.Create(context.Background(), domain.Reservation{TripID: trip.ID, UserID: rider, Seats: 2})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Equal(t, trip.ID, got.TripID)
	assert.Equal(t, rider, got.UserID)
	assert.Equal(t, 2, got.Seats)
	assert.False(t, got.Paid)
	assert.Nil(t, got.PaidAt)
}

func TestReservationRepo_Create_Duplicate(t *testing.T) {
	r, _, trip, rider := reservationSetup(t)
	ctx := context.Background()

	_, err := r.Create(ctx, domain.Reservation{TripID: trip.ID, UserID: rider, Seats: 1})
	require.NoError(t, err)

	_, err = r.Create(ctx, domain.Reservation{TripID: trip.ID, UserID: rider, Seats: 1})

	assert.ErrorIs(t, err, domain.ErrDuplicateReservation)
}

func TestReservationRepo_FindByTripAndUser(t *testing.T) {
	r, _, trip, rider := reservationSetup(t)
	ctx := context.Background()

	_, err := r.FindByTripAndUser(ctx, trip.ID, rider)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	created, err := r.Create(ctx, domain.Reservation{TripID: trip.ID, UserID: rider, Seats: 1})
	require.NoError(t, err)

	got, err := r.FindByTripAndUser(ctx, trip.ID, rider)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestReservationRepo_SumAndCount(t *testing.T) {
	r, _, trip, rider := reservationSetup(t)
	ctx := context.Background()

	sum, err := r.SumSeats(ctx, trip.ID)
	require.NoError(t, err)
	assert.Zero(t, sum)

	_, err = r.Create(ctx, domain.Reservation{TripID: trip.ID, UserID: rider, Seats: 2})
	require.NoError(t, err)

	sum, err = r.SumSeats(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, sum)

	n, err := r.CountByTrip(ctx, trip.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestReservationRepo_ListByUserAndTrip(t *testing.T) {
	r, _, trip, rider := reservationSetup(t)
	ctx := context.Background()

	created, err := r.Create(ctx, domain.Reservation{TripID: trip.ID, UserID: rider, Seats: 1})
	require.NoError(t, err)

	mine, err := r.ListByUser(ctx, rider)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, created.ID, mine[0].ID)

	onTrip, err := r.ListByTrip(ctx, trip.ID)
	require.NoError(t, err)
	require.Len(t, onTrip, 1)

	none, err := r.ListByUser(ctx, uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, none, "empty list should be [], not nil")
	assert.Empty(t, none)
}

func TestReservationRepo_MarkPaid(t *testing.T) {
	r, _, trip, rider := reservationSetup(t)
	ctx := context.Background()
	at := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	created, err := r.Create(ctx, domain.Reservation{TripID: trip.ID, UserID: rider, Seats: 1})
	require.NoError(t, err)

	paid, err := r.MarkPaid(ctx, created.ID, at)
	require.NoError(t, err)
	assert.True(t, paid.Paid)
	require.NotNil(t, paid.PaidAt)
	assert.True(t, paid.PaidAt.Equal(at))

	_, err = r.MarkPaid(ctx, created.ID, at)
	assert.ErrorIs(t, err, domain.ErrAlreadyPaid)

	_, err = r.MarkPaid(ctx, uuid.New(), at)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReservationRepo_DeletePending(t *testing.T) {
	r, _, trip, rider := reservationSetup(t)
	ctx := context.Background()

	created, err := r.Create(ctx, domain.Reservation{TripID: trip.ID, UserID: rider, Seats: 1})
	require.NoError(t, err)

	require.NoError(t, r.DeletePending(ctx, created.ID))

	_, err = r.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = r.DeletePending(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReservationRepo_DeletePending_Paid(t *testing.T) {
	r, _, trip, rider := reservationSetup(t)
	ctx := context.Background()

	created, err := r.Create(ctx, domain.Reservation{TripID: trip.ID, UserID: rider, Seats: 1})
	require.NoError(t, err)
	_, err = r.MarkPaid(ctx, created.ID, time.Now())
	require.NoError(t, err)

	err = r.DeletePending(ctx, created.ID)

	assert.ErrorIs(t, err, domain.ErrAlreadyPaid)
	_, err = r.GetByID(ctx, created.ID)
	assert.NoError(t, err, "paid reservation must survive")
}

func TestStore_InTx_CommitsAndRollsBack(t *testing.T) {
	tx := newTestTx(t)
	store := repo.NewStore(tx)
	ctx := context.Background()
	owner := testutil.InsertUser(t, tx, "Ada")
	rider := testutil.InsertUser(t, tx, "Bo")

	var trip domain.Trip
	err := store.InTx(ctx, func(r repo.Repos) error {
		var err error
		trip, err = r.Trips.Create(ctx, tripFixture(owner))
		return err
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = store.InTx(ctx, func(r repo.Repos) error {
		if _, err := r.Trips.LockByID(ctx, trip.ID); err != nil {
			return err
		}
		if _, err := r.Reservations.Create(ctx, domain.Reservation{TripID: trip.ID, UserID: rider, Seats: 1}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	// The nested transaction is a savepoint: the trip stays, the reservation is gone.
	got, err := repo.NewTripRepo(tx).GetByID(ctx, trip.ID)
	require.NoError(t, err)
	assert.Zero(t, got.ReservedSeats)
}
