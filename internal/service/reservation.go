package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/rideshare/internal/cache"
	"github.com/pkordes/rideshare/internal/domain"
	"github.com/pkordes/rideshare/internal/repo"
)

// ReservationService implements the reservation lifecycle:
// pending → paid, or pending → removed.
type ReservationService struct {
	ledger *Ledger
	reads  repo.Repos
	reader *cache.Reader
	inval  Invalidation
	log    *slog.Logger
	now    func() time.Time
}

// NewReservationService constructs a ReservationService.
// reads serves lookups that need no lock; writes on a trip's seats go through ledger.
func NewReservationService(ledger *Ledger, reads repo.Repos, reader *cache.Reader, inval Invalidation, log *slog.Logger) *ReservationService {
	return &ReservationService{
		ledger: ledger,
		reads:  reads,
		reader: reader,
		inval:  inval,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create reserves seats on a trip for actor.
// Returns domain.ErrOwnTripReservation, domain.ErrDuplicateReservation or
// domain.ErrCapacityExceeded when the admission is rejected.
func (s *ReservationService) Create(ctx context.Context, actor, tripID uuid.UUID, seats int) (domain.Reservation, error) {
	res, err := s.ledger.TryReserve(ctx, actor, tripID, seats)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.Create: %w", err)
	}
	if err := s.inval.committed(ctx); err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.Create: invalidate: %w", err)
	}
	s.log.InfoContext(ctx, "reservation created",
		"reservation_id", res.ID, "trip_id", res.TripID, "user_id", actor, "seats", res.Seats)
	return res, nil
}

// Pay marks actor's pending reservation as paid.
// Returns domain.ErrNotOwner if actor did not make the reservation and
// domain.ErrAlreadyPaid if it was paid before.
func (s *ReservationService) Pay(ctx context.Context, actor, id uuid.UUID) (domain.Reservation, error) {
	res, err := s.reads.Reservations.GetByID(ctx, id)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.Pay: %w", err)
	}
	paid, err := res.Pay(actor, s.now())
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.Pay: %w", err)
	}

	// The conditional update settles a race with a concurrent Pay or Remove.
	result, err := s.reads.Reservations.MarkPaid(ctx, id, *paid.PaidAt)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.Pay: %w", err)
	}
	if err := s.inval.committed(ctx); err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.Pay: invalidate: %w", err)
	}
	s.log.InfoContext(ctx, "reservation paid", "reservation_id", id, "user_id", actor)
	return result, nil
}

// Remove deletes actor's pending reservation and frees its seats.
// Paid reservations cannot be removed (domain.ErrAlreadyPaid).
func (s *ReservationService) Remove(ctx context.Context, actor, id uuid.UUID) (domain.Reservation, error) {
	res, err := s.reads.Reservations.GetByID(ctx, id)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.Remove: %w", err)
	}
	if err := res.CheckRemovable(actor); err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.Remove: %w", err)
	}

	err = s.ledger.WithTrip(ctx, res.TripID, func(r repo.Repos, _ domain.Trip) error {
		return r.Reservations.DeletePending(ctx, res.ID)
	})
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.Remove: %w", err)
	}
	if err := s.inval.committed(ctx); err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.Remove: invalidate: %w", err)
	}
	s.log.InfoContext(ctx, "reservation removed", "reservation_id", id, "trip_id", res.TripID, "user_id", actor)
	return res, nil
}

// ListMine returns actor's reservations, newest first.
func (s *ReservationService) ListMine(ctx context.Context, actor uuid.UUID) ([]domain.Reservation, error) {
	out, err := cache.Fetch(ctx, s.reader, []cache.Tag{cache.TagReservation}, "reservations:user:"+actor.String(),
		func(ctx context.Context) ([]domain.Reservation, error) {
			return s.reads.Reservations.ListByUser(ctx, actor)
		})
	if err != nil {
		return nil, fmt.Errorf("service.ReservationService.ListMine: %w", err)
	}
	return out, nil
}

// ListForTrip returns the passenger list of a trip. Only the trip's owner may see it.
func (s *ReservationService) ListForTrip(ctx context.Context, actor, tripID uuid.UUID) ([]domain.Reservation, error) {
	trip, err := s.reads.Trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.ReservationService.ListForTrip: %w", err)
	}
	if err := domain.RequireOwner(trip, actor, "trip"); err != nil {
		return nil, fmt.Errorf("service.ReservationService.ListForTrip: %w", err)
	}

	out, err := cache.Fetch(ctx, s.reader, []cache.Tag{cache.TagReservation}, "reservations:trip:"+tripID.String(),
		func(ctx context.Context) ([]domain.Reservation, error) {
			return s.reads.Reservations.ListByTrip(ctx, tripID)
		})
	if err != nil {
		return nil, fmt.Errorf("service.ReservationService.ListForTrip: %w", err)
	}
	return out, nil
}
