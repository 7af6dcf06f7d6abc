// Package handler implements the HTTP handlers for the rideshare API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, trip.go, reservation.go, ...) but share the Server struct
// so they can reach its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/rideshare/internal/domain"
	"github.com/pkordes/rideshare/internal/service"
)

// TripServicer defines the trip operations the handlers depend on.
// Interfaces live here, in the consumer, so handler tests can inject
// function-field mocks without a database.
type TripServicer interface {
	Create(ctx context.Context, actor uuid.UUID, template domain.Trip, prefs domain.TripPreferences) ([]domain.Trip, error)
	GetByID(ctx context.Context, id uuid.UUID, populateOwner bool) (domain.Trip, error)
	List(ctx context.Context, f domain.TripFilter, p domain.PaginationParams) (service.TripPage, error)
	Delete(ctx context.Context, actor, id uuid.UUID) (domain.Trip, error)
}

// ReservationServicer defines the reservation operations the handlers depend on.
type ReservationServicer interface {
	Create(ctx context.Context, actor, tripID uuid.UUID, seats int) (domain.Reservation, error)
	Pay(ctx context.Context, actor, id uuid.UUID) (domain.Reservation, error)
	Remove(ctx context.Context, actor, id uuid.UUID) (domain.Reservation, error)
	ListMine(ctx context.Context, actor uuid.UUID) ([]domain.Reservation, error)
	ListForTrip(ctx context.Context, actor, tripID uuid.UUID) ([]domain.Reservation, error)
}

// FavoriteServicer defines the favorite operations the handlers depend on.
type FavoriteServicer interface {
	Add(ctx context.Context, actor uuid.UUID, article string) (domain.Favorite, error)
	Has(ctx context.Context, article string, user uuid.UUID) (bool, error)
	Count(ctx context.Context, f domain.FavoriteFilter) (int64, error)
	Delete(ctx context.Context, actor uuid.UUID, article string) error
	RemoveByArticle(ctx context.Context, article string) (int64, error)
}

// UserServicer defines the account and profile operations the handlers depend on.
type UserServicer interface {
	Me(ctx context.Context, actor uuid.UUID) (domain.User, error)
	Profile(ctx context.Context, id uuid.UUID) (domain.Profile, error)
	UpdateProfile(ctx context.Context, actor uuid.UUID, upd domain.ProfileUpdate) (domain.User, error)
	Delete(ctx context.Context, actor uuid.UUID) error
}

// Server holds the services behind every endpoint.
type Server struct {
	trips        TripServicer
	reservations ReservationServicer
	favorites    FavoriteServicer
	users        UserServicer
	log          *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
func NewServer(trips TripServicer, reservations ReservationServicer, favorites FavoriteServicer, users UserServicer, log *slog.Logger) *Server {
	return &Server{
		trips:        trips,
		reservations: reservations,
		favorites:    favorites,
		users:        users,
		log:          log,
	}
}

// Routes returns the API router. requireAuth guards every mutating endpoint
// and every endpoint that acts on the caller's own data.
//
// requireService guards the cascades other services trigger when an entity
// they own goes away. It must verify a credential end users never hold. When
// it is nil those routes are not mounted at all.
func (s *Server) Routes(requireAuth, requireService func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Get("/trips", s.ListTrips)
	r.Get("/trips/{id}", s.GetTrip)
	r.Get("/favorites/has", s.HasFavorite)
	r.Get("/favorites/count", s.CountFavorites)
	r.Get("/users/{id}", s.GetUser)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)

		r.Post("/trips", s.CreateTrip)
		r.Delete("/trips/{id}", s.DeleteTrip)
		r.Get("/trips/{id}/reservations", s.ListTripReservations)

		r.Post("/reservations", s.CreateReservation)
		r.Get("/reservations", s.ListMyReservations)
		r.Post("/reservations/{id}/pay", s.PayReservation)
		r.Delete("/reservations/{id}", s.RemoveReservation)

		r.Post("/favorites", s.AddFavorite)
		r.Delete("/favorites", s.DeleteFavorite)

		r.Get("/me", s.GetMe)
		r.Put("/me", s.UpdateMe)
		r.Delete("/me", s.DeleteMe)
	})

	if requireService != nil {
		r.Group(func(r chi.Router) {
			r.Use(requireService)

			r.Delete("/internal/articles/{article}/favorites", s.RemoveArticleFavorites)
		})
	}

	return r
}
