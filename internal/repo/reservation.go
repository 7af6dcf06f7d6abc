package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/rideshare/internal/domain"
)

const reservationColumns = `id, trip_id, user_id, seats, paid, paid_at, created_at`

// ReservationRepo defines the persistence operations for Reservations.
type ReservationRepo interface {
	// Create inserts a reservation. Returns domain.ErrDuplicateReservation if
	// the user already holds one on the trip.
	Create(ctx context.Context, res domain.Reservation) (domain.Reservation, error)

	// GetByID returns domain.ErrNotFound if no reservation has that ID.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Reservation, error)

	// FindByTripAndUser returns domain.ErrNotFound if the user holds nothing on the trip.
	FindByTripAndUser(ctx context.Context, tripID, userID uuid.UUID) (domain.Reservation, error)

	// SumSeats returns the seats held on a trip across all reservations.
	SumSeats(ctx context.Context, tripID uuid.UUID) (int, error)

	// CountByTrip returns the number of reservations on a trip.
	CountByTrip(ctx context.Context, tripID uuid.UUID) (int64, error)

	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Reservation, error)
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Reservation, error)

	// MarkPaid flips a pending reservation to paid and returns the new row.
	// Returns domain.ErrAlreadyPaid if it was paid already and
	// domain.ErrNotFound if it does not exist.
	MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) (domain.Reservation, error)

	// DeletePending removes a reservation that has not been paid.
	// Returns domain.ErrAlreadyPaid or domain.ErrNotFound like MarkPaid.
	DeletePending(ctx context.Context, id uuid.UUID) error
}

type pgReservationRepo struct {
	db           db
	reservations table[domain.Reservation]
}

// NewReservationRepo constructs a ReservationRepo backed by the provided db connection.
func NewReservationRepo(db db) ReservationRepo {
	return &pgReservationRepo{
		db: db,
		reservations: table[domain.Reservation]{
			db:      db,
			from:    "reservations",
			columns: reservationColumns,
			scan:    scanReservation,
		},
	}
}

func (r *pgReservationRepo) Create(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	const q = `
		INSERT INTO reservations (trip_id, user_id, seats)
		VALUES (@trip_id, @user_id, @seats)
		RETURNING ` + reservationColumns

	args := pgx.NamedArgs{
		"trip_id": res.TripID,
		"user_id": res.UserID,
		"seats":   res.Seats,
	}

	result, err := scanReservation(r.db.QueryRow(ctx, q, args))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.Create: %w", domain.ErrDuplicateReservation)
		}
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgReservationRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	result, err := r.reservations.findOne(ctx, "id = @id", pgx.NamedArgs{"id": id})
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgReservationRepo) FindByTripAndUser(ctx context.Context, tripID, userID uuid.UUID) (domain.Reservation, error) {
	result, err := r.reservations.findOne(ctx, "trip_id = @trip_id AND user_id = @user_id",
		pgx.NamedArgs{"trip_id": tripID, "user_id": userID})
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.FindByTripAndUser: %w", err)
	}
	return result, nil
}

func (r *pgReservationRepo) SumSeats(ctx context.Context, tripID uuid.UUID) (int, error) {
	const q = `SELECT COALESCE(SUM(seats), 0) FROM reservations WHERE trip_id = @trip_id`

	var n int
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"trip_id": tripID}).Scan(&n); err != nil {
		return 0, fmt.Errorf("repo.ReservationRepo.SumSeats: %w", err)
	}
	return n, nil
}

func (r *pgReservationRepo) CountByTrip(ctx context.Context, tripID uuid.UUID) (int64, error) {
	n, err := r.reservations.count(ctx, "trip_id = @trip_id", pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return 0, fmt.Errorf("repo.ReservationRepo.CountByTrip: %w", err)
	}
	return n, nil
}

func (r *pgReservationRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Reservation, error) {
	out, err := r.reservations.find(ctx, "user_id = @user_id", "ORDER BY created_at DESC",
		pgx.NamedArgs{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("repo.ReservationRepo.ListByUser: %w", err)
	}
	return out, nil
}

func (r *pgReservationRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Reservation, error) {
	out, err := r.reservations.find(ctx, "trip_id = @trip_id", "ORDER BY created_at",
		pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.ReservationRepo.ListByTrip: %w", err)
	}
	return out, nil
}

// MarkPaid only touches unpaid rows, so two concurrent payments cannot both succeed.
func (r *pgReservationRepo) MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) (domain.Reservation, error) {
	const q = `
		UPDATE reservations SET paid = true, paid_at = @paid_at
		WHERE id = @id AND paid = false
		RETURNING ` + reservationColumns

	result, err := scanReservation(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "paid_at": at}))
	if errors.Is(err, domain.ErrNotFound) {
		err = r.whyUnchanged(ctx, id)
	}
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.MarkPaid: %w", err)
	}
	return result, nil
}

func (r *pgReservationRepo) DeletePending(ctx context.Context, id uuid.UUID) error {
	n, err := r.reservations.removeMany(ctx, "id = @id AND paid = false", pgx.NamedArgs{"id": id})
	if err == nil && n == 0 {
		err = r.whyUnchanged(ctx, id)
	}
	if err != nil {
		return fmt.Errorf("repo.ReservationRepo.DeletePending: %w", err)
	}
	return nil
}

// whyUnchanged explains a conditional write that matched no rows.
func (r *pgReservationRepo) whyUnchanged(ctx context.Context, id uuid.UUID) error {
	res, err := r.reservations.findOne(ctx, "id = @id", pgx.NamedArgs{"id": id})
	if err != nil {
		return err
	}
	if res.Paid {
		return domain.ErrAlreadyPaid
	}
	return errors.New("reservation changed concurrently")
}

func scanReservation(s scanner) (domain.Reservation, error) {
	var (
		res            domain.Reservation
		id, trip, user pgtype.UUID
		paidAt         pgtype.Timestamptz
	)

	if err := s.Scan(&id, &trip, &user, &res.Seats, &res.Paid, &paidAt, &res.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Reservation{}, domain.ErrNotFound
		}
		return domain.Reservation{}, err
	}

	res.ID = uuid.UUID(id.Bytes)
	res.TripID = uuid.UUID(trip.Bytes)
	res.UserID = uuid.UUID(user.Bytes)
	if paidAt.Valid {
		t := paidAt.Time
		res.PaidAt = &t
	}
	return res, nil
}
