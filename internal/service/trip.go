package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/rideshare/internal/cache"
	"github.com/pkordes/rideshare/internal/domain"
	"github.com/pkordes/rideshare/internal/repo"
)

// TripPage is one page of a trip listing.
type TripPage struct {
	Trips []domain.Trip `json:"trips"`
	Total int64         `json:"total"`
}

// readTags are the domains a cached trip projection depends on: the trip
// itself, its reserved-seat sum and, when populated, the owner's profile.
var readTags = []cache.Tag{cache.TagTrip, cache.TagReservation, cache.TagUser}

// TripService implements business logic for Trip operations.
type TripService struct {
	store  repo.Store
	ledger *Ledger
	trips  repo.TripRepo
	users  repo.UserRepo
	reader *cache.Reader
	inval  Invalidation
	log    *slog.Logger
}

// NewTripService constructs a TripService backed by the provided repos.
func NewTripService(store repo.Store, ledger *Ledger, trips repo.TripRepo, users repo.UserRepo, reader *cache.Reader, inval Invalidation, log *slog.Logger) *TripService {
	return &TripService{
		store:  store,
		ledger: ledger,
		trips:  trips,
		users:  users,
		reader: reader,
		inval:  inval,
		log:    log,
	}
}

// Create publishes a trip for actor and returns every persisted instance.
//
// Preferences not set in prefs are copied from actor's profile. A repeating
// template is expanded and all instances are inserted in one transaction
// under a shared series ID; either all of them exist afterwards or none.
// Returns domain.ErrValidation or domain.ErrInvalidRecurrence for bad input.
func (s *TripService) Create(ctx context.Context, actor uuid.UUID, template domain.Trip, prefs domain.TripPreferences) ([]domain.Trip, error) {
	owner, err := s.users.GetByID(ctx, actor)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.Create: owner: %w", err)
	}

	template.UserID = actor
	template.ApplyPreferences(prefs, owner)
	if template.Repeat == "" {
		template.Repeat = domain.RepeatNone
	}
	if err := domain.ValidateTrip(template); err != nil {
		return nil, err
	}
	instances, err := domain.Expand(template)
	if err != nil {
		return nil, err
	}

	series := uuid.New()
	created := make([]domain.Trip, 0, len(instances))
	err = s.store.InTx(ctx, func(r repo.Repos) error {
		created = created[:0]
		for _, inst := range instances {
			inst.SeriesID = series
			t, err := r.Trips.Create(ctx, inst)
			if err != nil {
				return err
			}
			created = append(created, t)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("service.TripService.Create: %w", err)
	}
	if err := s.inval.committed(ctx); err != nil {
		return nil, fmt.Errorf("service.TripService.Create: invalidate: %w", err)
	}
	s.log.InfoContext(ctx, "trip created",
		"series_id", series, "user_id", actor, "instances", len(created), "repeat", template.Repeat)
	return created, nil
}

// GetByID returns a single trip with its reserved-seat projection.
// Returns domain.ErrNotFound if no trip with that ID exists.
func (s *TripService) GetByID(ctx context.Context, id uuid.UUID, populateOwner bool) (domain.Trip, error) {
	key := "trip:" + id.String() + ":owner=" + strconv.FormatBool(populateOwner)
	trip, err := cache.Fetch(ctx, s.reader, readTags, key, func(ctx context.Context) (domain.Trip, error) {
		t, err := s.trips.GetByID(ctx, id)
		if err != nil || !populateOwner {
			return t, err
		}
		trips := []domain.Trip{t}
		if err := s.populateOwners(ctx, trips); err != nil {
			return domain.Trip{}, err
		}
		return trips[0], nil
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetByID: %w", err)
	}
	return trip, nil
}

// List returns one page of trips matching f ordered by departure.
// Always returns a non-nil slice so callers can safely range over it.
func (s *TripService) List(ctx context.Context, f domain.TripFilter, p domain.PaginationParams) (TripPage, error) {
	page, err := cache.Fetch(ctx, s.reader, readTags, listKey(f, p), func(ctx context.Context) (TripPage, error) {
		trips, total, err := s.trips.ListPaged(ctx, f, p)
		if err != nil {
			return TripPage{}, err
		}
		if f.PopulateOwner {
			if err := s.populateOwners(ctx, trips); err != nil {
				return TripPage{}, err
			}
		}
		return TripPage{Trips: trips, Total: total}, nil
	})
	if err != nil {
		return TripPage{}, fmt.Errorf("service.TripService.List: %w", err)
	}
	if page.Trips == nil {
		page.Trips = []domain.Trip{}
	}
	return page, nil
}

// Delete removes actor's trip and returns it.
// Returns domain.ErrNotOwner if actor does not own it and
// domain.ErrHasActiveReservations while any reservation, paid or not, remains.
func (s *TripService) Delete(ctx context.Context, actor, id uuid.UUID) (domain.Trip, error) {
	var removed domain.Trip
	err := s.ledger.WithTrip(ctx, id, func(r repo.Repos, trip domain.Trip) error {
		if err := domain.RequireOwner(trip, actor, "trip"); err != nil {
			return err
		}
		n, err := r.Reservations.CountByTrip(ctx, trip.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: %d reservation(s) on trip %s", domain.ErrHasActiveReservations, n, trip.ID)
		}
		removed = trip
		return r.Trips.Delete(ctx, trip.ID)
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Delete: %w", err)
	}
	if err := s.inval.committed(ctx); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Delete: invalidate: %w", err)
	}
	s.log.InfoContext(ctx, "trip deleted", "trip_id", id, "user_id", actor)
	return removed, nil
}

// populateOwners attaches each trip's owner profile in one query.
func (s *TripService) populateOwners(ctx context.Context, trips []domain.Trip) error {
	seen := make(map[uuid.UUID]bool, len(trips))
	ids := make([]uuid.UUID, 0, len(trips))
	for _, t := range trips {
		if !seen[t.UserID] {
			seen[t.UserID] = true
			ids = append(ids, t.UserID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	users, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("owners: %w", err)
	}
	profiles := make(map[uuid.UUID]domain.Profile, len(users))
	for _, u := range users {
		profiles[u.ID] = u.Profile()
	}
	for i := range trips {
		if p, ok := profiles[trips[i].UserID]; ok {
			trips[i].Owner = &p
		}
	}
	return nil
}

// listKey is a stable cache key for a listing query.
func listKey(f domain.TripFilter, p domain.PaginationParams) string {
	v := url.Values{}
	v.Set("from", f.From)
	v.Set("to", f.To)
	if f.DepartAfter != nil {
		v.Set("after", f.DepartAfter.UTC().Format(time.RFC3339Nano))
	}
	if f.DepartBefore != nil {
		v.Set("before", f.DepartBefore.UTC().Format(time.RFC3339Nano))
	}
	if f.UserID != nil {
		v.Set("user", f.UserID.String())
	}
	v.Set("min_seats", strconv.Itoa(f.MinSeats))
	v.Set("owner", strconv.FormatBool(f.PopulateOwner))
	v.Set("page", strconv.Itoa(p.Page))
	v.Set("limit", strconv.Itoa(p.Limit))
	return "trips:list?" + v.Encode()
}
