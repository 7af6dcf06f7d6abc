package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/rideshare/internal/domain"
	"github.com/pkordes/rideshare/internal/metrics"
	"github.com/pkordes/rideshare/internal/repo"
)

// Ledger owns the per-trip critical section. Every write that depends on a
// trip's reservations (admission, reservation removal, trip removal) runs
// through it, so at most one such write per trip is in flight.
//
// Two layers hold the section: an in-process lock keyed by trip ID and the
// trip's row lock inside a Postgres transaction. The first keeps goroutines
// of one process from piling onto the row lock; the second serializes
// processes. Different trips never contend.
type Ledger struct {
	store repo.Store
	locks *keyedMutex
}

// NewLedger constructs a Ledger over the provided Store.
// Share one Ledger between every service that writes reservations or trips.
func NewLedger(store repo.Store) *Ledger {
	return &Ledger{store: store, locks: newKeyedMutex()}
}

// WithTrip runs fn inside tripID's critical section with the trip loaded and
// row-locked. fn's repos are bound to the transaction; returning an error
// rolls it back. Returns domain.ErrNotFound if the trip does not exist.
func (l *Ledger) WithTrip(ctx context.Context, tripID uuid.UUID, fn func(r repo.Repos, trip domain.Trip) error) error {
	unlock, err := l.locks.lock(ctx, tripID)
	if err != nil {
		return fmt.Errorf("service.Ledger.WithTrip: %w", err)
	}
	defer unlock()

	return l.store.InTx(ctx, func(r repo.Repos) error {
		trip, err := r.Trips.LockByID(ctx, tripID)
		if err != nil {
			return err
		}
		return fn(r, trip)
	})
}

// TryReserve atomically admits or rejects a request for seats on a trip.
//
// The reserved-seat sum is re-read inside the critical section on every
// call and the insert commits in the same transaction, so two concurrent
// requests can never both take the last seats.
func (l *Ledger) TryReserve(ctx context.Context, actor, tripID uuid.UUID, seats int) (domain.Reservation, error) {
	req := domain.ReservationRequest{TripID: tripID, UserID: actor, Seats: seats}
	if err := req.Validate(); err != nil {
		metrics.Admissions.WithLabelValues(admissionOutcome(err)).Inc()
		return domain.Reservation{}, err
	}

	start := time.Now()
	var created domain.Reservation
	err := l.WithTrip(ctx, tripID, func(r repo.Repos, trip domain.Trip) error {
		reserved, err := r.Reservations.SumSeats(ctx, trip.ID)
		if err != nil {
			return err
		}

		_, err = r.Reservations.FindByTripAndUser(ctx, trip.ID, actor)
		hasExisting := err == nil
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		if err := domain.Admit(trip, reserved, hasExisting, req); err != nil {
			return err
		}

		created, err = r.Reservations.Create(ctx, domain.Reservation{
			TripID: trip.ID,
			UserID: actor,
			Seats:  seats,
		})
		return err
	})
	metrics.AdmissionDuration.Observe(time.Since(start).Seconds())
	metrics.Admissions.WithLabelValues(admissionOutcome(err)).Inc()

	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.Ledger.TryReserve: %w", err)
	}
	return created, nil
}

// admissionOutcome is the metrics label for an admission result.
func admissionOutcome(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, domain.ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, domain.ErrDuplicateReservation):
		return "duplicate"
	case errors.Is(err, domain.ErrOwnTripReservation):
		return "own_trip"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}
