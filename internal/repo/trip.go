package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/rideshare/internal/domain"
)

const (
	tripColumns = `t.id, t.user_id, t.series_id, t.from_location, t.from_date, t.to_location,
		t.to_date, t.seats, t.luggage_size, t.talk, t.smoke, t.repeat, t.end_repeat, t.created_at`

	// reservedSeats is the live sum of seats held on trip t.
	reservedSeats = `COALESCE((SELECT SUM(r.seats) FROM reservations r WHERE r.trip_id = t.id), 0)`
)

// TripRepo defines the persistence operations for Trips.
// The service layer depends on this interface, not the concrete Postgres implementation,
// which allows the service to be unit-tested with a mock.
type TripRepo interface {
	// Create inserts a new trip and returns the persisted record (with DB-generated
	// id and created_at populated).
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// GetByID retrieves a single trip with its ReservedSeats projection.
	// Returns domain.ErrNotFound if no trip with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)

	// LockByID retrieves a trip and takes a row lock on it until the
	// surrounding transaction ends. Only meaningful inside Store.InTx.
	// ReservedSeats is not populated.
	LockByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)

	// ListPaged returns one page of trips matching f ordered by departure,
	// plus the total number of matches.
	ListPaged(ctx context.Context, f domain.TripFilter, p domain.PaginationParams) ([]domain.Trip, int64, error)

	// Delete removes a trip by ID. Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db    db
	trips table[domain.Trip]
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{
		db: db,
		trips: table[domain.Trip]{
			db:      db,
			from:    "trips t",
			columns: tripColumns + ", " + reservedSeats,
			scan:    scanTrip,
		},
	}
}

// Create inserts a new trip row and returns the full persisted record.
func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		INSERT INTO trips AS t (user_id, series_id, from_location, from_date, to_location, to_date,
			seats, luggage_size, talk, smoke, repeat, end_repeat)
		VALUES (@user_id, @series_id, @from_location, @from_date, @to_location, @to_date,
			@seats, @luggage_size, @talk, @smoke, @repeat, @end_repeat)
		RETURNING ` + tripColumns + `, 0`

	args := pgx.NamedArgs{
		"user_id":       trip.UserID,
		"series_id":     trip.SeriesID,
		"from_location": trip.FromLocation,
		"from_date":     trip.FromDate,
		"to_location":   trip.ToLocation,
		"to_date":       trip.ToDate,
		"seats":         trip.Seats,
		"luggage_size":  string(trip.LuggageSize),
		"talk":          string(trip.Talk),
		"smoke":         trip.Smoke,
		"repeat":        string(trip.Repeat),
		"end_repeat":    trip.EndRepeat, // nil becomes NULL
	}

	result, err := scanTrip(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves a trip by primary key.
func (r *pgTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	result, err := r.trips.findOne(ctx, "t.id = @id", pgx.NamedArgs{"id": id})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	return result, nil
}

// LockByID selects the trip FOR UPDATE. Concurrent admissions on the same
// trip queue on this row lock; other trips are unaffected.
func (r *pgTripRepo) LockByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	const q = `SELECT ` + tripColumns + `, 0 FROM trips t WHERE t.id = @id FOR UPDATE`

	result, err := scanTrip(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.LockByID: %w", err)
	}
	return result, nil
}

// ListPaged returns one page of matching trips ordered by from_date ascending.
func (r *pgTripRepo) ListPaged(ctx context.Context, f domain.TripFilter, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	where, args := tripWhere(f)

	total, err := r.trips.count(ctx, where, args)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListPaged: count: %w", err)
	}

	args["limit"] = p.Limit
	args["offset"] = p.Offset()
	trips, err := r.trips.find(ctx, where, "ORDER BY t.from_date, t.id LIMIT @limit OFFSET @offset", args)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListPaged: %w", err)
	}
	return trips, total, nil
}

// Delete removes a trip by primary key.
func (r *pgTripRepo) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := table[domain.Trip]{db: r.db, from: "trips"}.removeMany(ctx, "id = @id", pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.TripRepo.Delete: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("repo.TripRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// tripWhere translates a filter into a WHERE clause and its named args.
func tripWhere(f domain.TripFilter) (string, pgx.NamedArgs) {
	clauses := []string{"TRUE"}
	args := pgx.NamedArgs{}

	if f.From != "" {
		clauses = append(clauses, "t.from_location ILIKE '%' || @from || '%'")
		args["from"] = f.From
	}
	if f.To != "" {
		clauses = append(clauses, "t.to_location ILIKE '%' || @to || '%'")
		args["to"] = f.To
	}
	if f.DepartAfter != nil {
		clauses = append(clauses, "t.from_date >= @depart_after")
		args["depart_after"] = *f.DepartAfter
	}
	if f.DepartBefore != nil {
		clauses = append(clauses, "t.from_date < @depart_before")
		args["depart_before"] = *f.DepartBefore
	}
	if f.UserID != nil {
		clauses = append(clauses, "t.user_id = @user_id")
		args["user_id"] = *f.UserID
	}
	if f.MinSeats > 0 {
		clauses = append(clauses, "t.seats - "+reservedSeats+" >= @min_seats")
		args["min_seats"] = f.MinSeats
	}
	return strings.Join(clauses, " AND "), args
}

// scanTrip maps a single database row into a domain.Trip.
// It handles the UUID, enum and nullable end_repeat conversions.
func scanTrip(s scanner) (domain.Trip, error) {
	var (
		t                    domain.Trip
		id, userID, seriesID pgtype.UUID
		luggage, talk, rep   string
		endRepeat            pgtype.Timestamptz
	)

	err := s.Scan(&id, &userID, &seriesID, &t.FromLocation, &t.FromDate, &t.ToLocation,
		&t.ToDate, &t.Seats, &luggage, &talk, &t.Smoke, &rep, &endRepeat, &t.CreatedAt,
		&t.ReservedSeats)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, domain.ErrNotFound
		}
		return domain.Trip{}, err
	}

	t.ID = uuid.UUID(id.Bytes)
	t.UserID = uuid.UUID(userID.Bytes)
	t.SeriesID = uuid.UUID(seriesID.Bytes)
	t.LuggageSize = domain.LuggageSize(luggage)
	t.Talk = domain.Talk(talk)
	t.Repeat = domain.Repeat(rep)
	if endRepeat.Valid {
		er := endRepeat.Time
		t.EndRepeat = &er
	}
	return t, nil
}
