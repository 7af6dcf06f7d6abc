package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/rideshare/internal/cache"
	"github.com/pkordes/rideshare/internal/domain"
	"github.com/pkordes/rideshare/internal/repo"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// memDB is an in-memory stand-in for Postgres used by the service tests.
// Every method is safe for concurrent use. It has no row locks: seat
// safety under concurrency must come from the Ledger itself.
type memDB struct {
	mu           sync.Mutex
	users        map[uuid.UUID]domain.User
	trips        map[uuid.UUID]domain.Trip
	reservations map[uuid.UUID]domain.Reservation
	txs          int
	failCreateAt int // fail the n-th trip insert (1-based); 0 disables
	tripInserts  int
}

func newMemDB() *memDB {
	return &memDB{
		users:        map[uuid.UUID]domain.User{},
		trips:        map[uuid.UUID]domain.Trip{},
		reservations: map[uuid.UUID]domain.Reservation{},
	}
}

func (m *memDB) addUser(name string) domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	u := domain.User{
		ID:          id,
		Email:       id.String() + "@example.test",
		FirstName:   name,
		LastName:    "Test-" + id.String()[:8],
		Seats:       3,
		LuggageSize: domain.LuggageMedium,
		Talk:        domain.TalkYes,
	}
	m.users[u.ID] = u
	return u
}

func (m *memDB) addTrip(owner uuid.UUID, seats int) domain.Trip {
	m.mu.Lock()
	defer m.mu.Unlock()
	from := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	t := domain.Trip{
		ID:           uuid.New(),
		UserID:       owner,
		SeriesID:     uuid.New(),
		FromLocation: "Lyon",
		FromDate:     from,
		ToLocation:   "Turin",
		ToDate:       from.Add(4 * time.Hour),
		Seats:        seats,
		LuggageSize:  domain.LuggageSmall,
		Talk:         domain.TalkNo,
		Repeat:       domain.RepeatNone,
	}
	m.trips[t.ID] = t
	return t
}

func (m *memDB) reservedLocked(tripID uuid.UUID) int {
	sum := 0
	for _, r := range m.reservations {
		if r.TripID == tripID {
			sum += r.Seats
		}
	}
	return sum
}

func (m *memDB) repos() repo.Repos {
	return repo.Repos{Trips: memTrips{m}, Reservations: memReservations{m}}
}

// InTx runs fn directly against the maps. Writes made before fn fails are
// not rolled back; tests that depend on rollback live in the repo package.
func (m *memDB) InTx(_ context.Context, fn func(repo.Repos) error) error {
	m.mu.Lock()
	m.txs++
	m.mu.Unlock()
	return fn(m.repos())
}

var _ repo.Store = (*memDB)(nil)

type memTrips struct{ db *memDB }

func (r memTrips) Create(_ context.Context, t domain.Trip) (domain.Trip, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.tripInserts++
	if r.db.failCreateAt > 0 && r.db.tripInserts == r.db.failCreateAt {
		return domain.Trip{}, errors.New("insert failed")
	}
	t.ID = uuid.New()
	t.CreatedAt = time.Now()
	r.db.trips[t.ID] = t
	return t, nil
}

func (r memTrips) GetByID(_ context.Context, id uuid.UUID) (domain.Trip, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.trips[id]
	if !ok {
		return domain.Trip{}, domain.ErrNotFound
	}
	t.ReservedSeats = r.db.reservedLocked(id)
	return t, nil
}

func (r memTrips) LockByID(_ context.Context, id uuid.UUID) (domain.Trip, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.trips[id]
	if !ok {
		return domain.Trip{}, domain.ErrNotFound
	}
	return t, nil
}

func (r memTrips) ListPaged(_ context.Context, f domain.TripFilter, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []domain.Trip{}
	for _, t := range r.db.trips {
		if f.UserID != nil && t.UserID != *f.UserID {
			continue
		}
		t.ReservedSeats = r.db.reservedLocked(t.ID)
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FromDate.Before(out[j].FromDate) })
	total := int64(len(out))
	start := min(p.Offset(), len(out))
	end := min(start+p.Limit, len(out))
	return out[start:end], total, nil
}

func (r memTrips) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.trips[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.db.trips, id)
	return nil
}

type memReservations struct{ db *memDB }

func (r memReservations) Create(_ context.Context, res domain.Reservation) (domain.Reservation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.reservations {
		if existing.TripID == res.TripID && existing.UserID == res.UserID {
			return domain.Reservation{}, domain.ErrDuplicateReservation
		}
	}
	res.ID = uuid.New()
	res.CreatedAt = time.Now()
	r.db.reservations[res.ID] = res
	return res, nil
}

func (r memReservations) GetByID(_ context.Context, id uuid.UUID) (domain.Reservation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	res, ok := r.db.reservations[id]
	if !ok {
		return domain.Reservation{}, domain.ErrNotFound
	}
	return res, nil
}

func (r memReservations) FindByTripAndUser(_ context.Context, tripID, userID uuid.UUID) (domain.Reservation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, res := range r.db.reservations {
		if res.TripID == tripID && res.UserID == userID {
			return res, nil
		}
	}
	return domain.Reservation{}, domain.ErrNotFound
}

func (r memReservations) SumSeats(_ context.Context, tripID uuid.UUID) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.db.reservedLocked(tripID), nil
}

func (r memReservations) CountByTrip(_ context.Context, tripID uuid.UUID) (int64, error) {
	list, _ := r.ListByTrip(context.Background(), tripID)
	return int64(len(list)), nil
}

func (r memReservations) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Reservation, error) {
	return r.filter(func(res domain.Reservation) bool { return res.UserID == userID }), nil
}

func (r memReservations) ListByTrip(_ context.Context, tripID uuid.UUID) ([]domain.Reservation, error) {
	return r.filter(func(res domain.Reservation) bool { return res.TripID == tripID }), nil
}

func (r memReservations) filter(keep func(domain.Reservation) bool) []domain.Reservation {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []domain.Reservation{}
	for _, res := range r.db.reservations {
		if keep(res) {
			out = append(out, res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r memReservations) MarkPaid(_ context.Context, id uuid.UUID, at time.Time) (domain.Reservation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	res, ok := r.db.reservations[id]
	switch {
	case !ok:
		return domain.Reservation{}, domain.ErrNotFound
	case res.Paid:
		return domain.Reservation{}, domain.ErrAlreadyPaid
	}
	res.Paid = true
	res.PaidAt = &at
	r.db.reservations[id] = res
	return res, nil
}

func (r memReservations) DeletePending(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	res, ok := r.db.reservations[id]
	switch {
	case !ok:
		return domain.ErrNotFound
	case res.Paid:
		return domain.ErrAlreadyPaid
	}
	delete(r.db.reservations, id)
	return nil
}

type memUsers struct{ db *memDB }

func (r memUsers) GetByID(_ context.Context, id uuid.UUID) (domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (r memUsers) ListByIDs(_ context.Context, ids []uuid.UUID) ([]domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []domain.User{}
	for _, id := range ids {
		if u, ok := r.db.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r memUsers) UpdateProfile(_ context.Context, u domain.User) (domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.users[u.ID]; !ok {
		return domain.User{}, domain.ErrNotFound
	}
	for id, other := range r.db.users {
		if id == u.ID {
			continue
		}
		if u.Email != "" && other.Email == u.Email {
			return domain.User{}, domain.NewFieldError("email", "exists")
		}
		if other.FirstName == u.FirstName && other.LastName == u.LastName {
			return domain.User{}, domain.NewFieldError("username", "exists")
		}
	}
	u.UpdatedAt = time.Now()
	r.db.users[u.ID] = u
	return u, nil
}

// Delete mirrors the ON DELETE RESTRICT references from trips and
// reservations.
func (r memUsers) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.users[id]; !ok {
		return domain.ErrNotFound
	}
	for _, t := range r.db.trips {
		if t.UserID == id {
			return domain.ErrHasActiveReservations
		}
	}
	for _, res := range r.db.reservations {
		if res.UserID == id {
			return domain.ErrHasActiveReservations
		}
	}
	delete(r.db.users, id)
	return nil
}

var (
	_ repo.TripRepo        = memTrips{}
	_ repo.ReservationRepo = memReservations{}
	_ repo.UserRepo        = memUsers{}
)

// recordingInvalidator records every Invalidate call and optionally fails.
type recordingInvalidator struct {
	mu    sync.Mutex
	calls [][]cache.Tag
	err   error
}

func (r *recordingInvalidator) Invalidate(_ context.Context, tags ...cache.Tag) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, tags)
	return r.err
}

func (r *recordingInvalidator) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}
