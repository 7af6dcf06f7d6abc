package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/rideshare/internal/domain"
)

// createTripRequest is the body of POST /trips. The preference fields
// override the driver's profile for this trip only.
type createTripRequest struct {
	FromLocation string              `json:"from_location" validate:"required,min=2"`
	FromDate     time.Time           `json:"from_date" validate:"required"`
	ToLocation   string              `json:"to_location" validate:"required,min=2"`
	ToDate       time.Time           `json:"to_date" validate:"required"`
	Repeat       domain.Repeat       `json:"repeat,omitempty" validate:"omitempty,oneof=no daily weekly monthly"`
	EndRepeat    *openapi_types.Date `json:"end_repeat,omitempty"`
	Seats        *int                `json:"seats,omitempty" validate:"omitempty,min=1,max=10"`
	LuggageSize  *domain.LuggageSize `json:"luggage_size,omitempty" validate:"omitempty,oneof=small medium large"`
	Talk         *domain.Talk        `json:"talk,omitempty" validate:"omitempty,oneof=no little yes"`
	Smoke        *bool               `json:"smoke,omitempty"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// TripList is the body of GET /trips.
type TripList struct {
	Data       []domain.Trip `json:"data"`
	Pagination Pagination    `json:"pagination"`
}

// CreateTrip handles POST /trips. A repeating trip answers with every
// expanded instance.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req createTripRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	template, prefs := req.toDomain()
	created, err := s.trips.Create(r.Context(), actorID, template, prefs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListTrips handles GET /trips.
// Filters: from, to, depart_after, depart_before, user, min_seats, populate=owner.
// Pagination: ?page= and ?limit= (defaults page=1, limit=20, max=100).
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	f, page, err := parseTripQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.trips.List(r.Context(), f, page)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data := res.Trips
	if data == nil {
		data = []domain.Trip{}
	}
	writeJSON(w, http.StatusOK, TripList{
		Data:       data,
		Pagination: Pagination{Page: page.Page, Limit: page.Limit, Total: res.Total},
	})
}

// GetTrip handles GET /trips/{id}. ?populate=owner attaches the driver's profile.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	populate, err := parsePopulate(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	trip, err := s.trips.GetByID(r.Context(), id, populate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

// DeleteTrip handles DELETE /trips/{id} and answers with the removed trip.
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	removed, err := s.trips.Delete(r.Context(), actorID, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, removed)
}

// ListTripReservations handles GET /trips/{id}/reservations: the driver's
// passenger list.
func (s *Server) ListTripReservations(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	list, err := s.reservations.ListForTrip(r.Context(), actorID, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

// --- mapping helpers --------------------------------------------------------

func (req createTripRequest) toDomain() (domain.Trip, domain.TripPreferences) {
	t := domain.Trip{
		FromLocation: req.FromLocation,
		FromDate:     req.FromDate,
		ToLocation:   req.ToLocation,
		ToDate:       req.ToDate,
		Repeat:       req.Repeat,
	}
	if req.EndRepeat != nil {
		end := endOfDay(req.EndRepeat.Time)
		t.EndRepeat = &end
	}
	return t, domain.TripPreferences{
		Seats:       req.Seats,
		LuggageSize: req.LuggageSize,
		Talk:        req.Talk,
		Smoke:       req.Smoke,
	}
}

// endOfDay turns an end_repeat calendar date into its last instant in UTC,
// so an instance departing on that date is still included.
func endOfDay(d time.Time) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, 23, 59, 59, 999999999, time.UTC)
}

func parseTripQuery(r *http.Request) (domain.TripFilter, domain.PaginationParams, error) {
	q := r.URL.Query()
	var (
		from, to                  *string
		departAfter, departBefore *time.Time
		user                      *uuid.UUID
		minSeats, page, limit     *int
	)
	for name, dest := range map[string]any{
		"from":          &from,
		"to":            &to,
		"depart_after":  &departAfter,
		"depart_before": &departBefore,
		"user":          &user,
		"min_seats":     &minSeats,
		"page":          &page,
		"limit":         &limit,
	} {
		if err := bindQuery(q, name, dest); err != nil {
			return domain.TripFilter{}, domain.PaginationParams{}, err
		}
	}

	var f domain.TripFilter
	if from != nil {
		f.From = *from
	}
	if to != nil {
		f.To = *to
	}
	f.DepartAfter = departAfter
	f.DepartBefore = departBefore
	f.UserID = user
	if minSeats != nil {
		if *minSeats < 0 {
			return domain.TripFilter{}, domain.PaginationParams{}, domain.NewFieldError("min_seats", "must be at least 0")
		}
		f.MinSeats = *minSeats
	}
	populate, err := parsePopulate(r)
	if err != nil {
		return domain.TripFilter{}, domain.PaginationParams{}, err
	}
	f.PopulateOwner = populate
	return f, domain.NewPaginationParams(page, limit), nil
}

func parsePopulate(r *http.Request) (bool, error) {
	var populate *string
	if err := bindQuery(r.URL.Query(), "populate", &populate); err != nil {
		return false, err
	}
	if populate == nil {
		return false, nil
	}
	if *populate != "owner" {
		return false, domain.NewFieldError("populate", "must be owner")
	}
	return true, nil
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
