package handler_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/rideshare/internal/domain"
	"github.com/pkordes/rideshare/internal/handler"
	"github.com/pkordes/rideshare/internal/middleware"
	"github.com/pkordes/rideshare/internal/service"
)

// Test doubles for the handler's servicer interfaces.
// Set only the method fields your test needs; calling an unset one panics,
// which flags an unexpected call.

type mockTripServicer struct {
	create  func(ctx context.Context, actor uuid.UUID, template domain.Trip, prefs domain.TripPreferences) ([]domain.Trip, error)
	getByID func(ctx context.Context, id uuid.UUID, populateOwner bool) (domain.Trip, error)
	list    func(ctx context.Context, f domain.TripFilter, p domain.PaginationParams) (service.TripPage, error)
	delete  func(ctx context.Context, actor, id uuid.UUID) (domain.Trip, error)
}

func (m *mockTripServicer) Create(ctx context.Context, actor uuid.UUID, template domain.Trip, prefs domain.TripPreferences) ([]domain.Trip, error) {
	return m.create(ctx, actor, template, prefs)
}
func (m *mockTripServicer) GetByID(ctx context.Context, id uuid.UUID, populateOwner bool) (domain.Trip, error) {
	return m.getByID(ctx, id, populateOwner)
}
func (m *mockTripServicer) List(ctx context.Context, f domain.TripFilter, p domain.PaginationParams) (service.TripPage, error) {
	return m.list(ctx, f, p)
}
func (m *mockTripServicer) Delete(ctx context.Context, actor, id uuid.UUID) (domain.Trip, error) {
	return m.delete(ctx, actor, id)
}

type mockReservationServicer struct {
	create      func(ctx context.Context, actor, tripID uuid.UUID, seats int) (domain.Reservation, error)
	pay         func(ctx context.Context, actor, id uuid.UUID) (domain.Reservation, error)
	remove      func(ctx context.Context, actor, id uuid.UUID) (domain.Reservation, error)
	listMine    func(ctx context.Context, actor uuid.UUID) ([]domain.Reservation, error)
	listForTrip func(ctx context.Context, actor, tripID uuid.UUID) ([]domain.Reservation, error)
}

func (m *mockReservationServicer) Create(ctx context.Context, actor, tripID uuid.UUID, seats int) (domain.Reservation, error) {
	return m.create(ctx, actor, tripID, seats)
}
func (m *mockReservationServicer) Pay(ctx context.Context, actor, id uuid.UUID) (domain.Reservation, error) {
	return m.pay(ctx, actor, id)
}
func (m *mockReservationServicer) Remove(ctx context.Context, actor, id uuid.UUID) (domain.Reservation, error) {
	return m.remove(ctx, actor, id)
}
func (m *mockReservationServicer) ListMine(ctx context.Context, actor uuid.UUID) ([]domain.Reservation, error) {
	return m.listMine(ctx, actor)
}
func (m *mockReservationServicer) ListForTrip(ctx context.Context, actor, tripID uuid.UUID) ([]domain.Reservation, error) {
	return m.listForTrip(ctx, actor, tripID)
}

type mockFavoriteServicer struct {
	add             func(ctx context.Context, actor uuid.UUID, article string) (domain.Favorite, error)
	has             func(ctx context.Context, article string, user uuid.UUID) (bool, error)
	count           func(ctx context.Context, f domain.FavoriteFilter) (int64, error)
	delete          func(ctx context.Context, actor uuid.UUID, article string) error
	removeByArticle func(ctx context.Context, article string) (int64, error)
}

func (m *mockFavoriteServicer) Add(ctx context.Context, actor uuid.UUID, article string) (domain.Favorite, error) {
	return m.add(ctx, actor, article)
}
func (m *mockFavoriteServicer) Has(ctx context.Context, article string, user uuid.UUID) (bool, error) {
	return m.has(ctx, article, user)
}
func (m *mockFavoriteServicer) Count(ctx context.Context, f domain.FavoriteFilter) (int64, error) {
	return m.count(ctx, f)
}
func (m *mockFavoriteServicer) Delete(ctx context.Context, actor uuid.UUID, article string) error {
	return m.delete(ctx, actor, article)
}
func (m *mockFavoriteServicer) RemoveByArticle(ctx context.Context, article string) (int64, error) {
	return m.removeByArticle(ctx, article)
}

type mockUserServicer struct {
	me            func(ctx context.Context, actor uuid.UUID) (domain.User, error)
	profile       func(ctx context.Context, id uuid.UUID) (domain.Profile, error)
	updateProfile func(ctx context.Context, actor uuid.UUID, upd domain.ProfileUpdate) (domain.User, error)
	delete        func(ctx context.Context, actor uuid.UUID) error
}

func (m *mockUserServicer) Me(ctx context.Context, actor uuid.UUID) (domain.User, error) {
	return m.me(ctx, actor)
}
func (m *mockUserServicer) Profile(ctx context.Context, id uuid.UUID) (domain.Profile, error) {
	return m.profile(ctx, id)
}
func (m *mockUserServicer) Delete(ctx context.Context, actor uuid.UUID) error {
	return m.delete(ctx, actor)
}
func (m *mockUserServicer) UpdateProfile(ctx context.Context, actor uuid.UUID, upd domain.ProfileUpdate) (domain.User, error) {
	return m.updateProfile(ctx, actor, upd)
}

// compile-time checks: the mocks must satisfy the handler interfaces.
var (
	_ handler.TripServicer        = (*mockTripServicer)(nil)
	_ handler.ReservationServicer = (*mockReservationServicer)(nil)
	_ handler.FavoriteServicer    = (*mockFavoriteServicer)(nil)
	_ handler.UserServicer        = (*mockUserServicer)(nil)
)

// ---- helpers ---------------------------------------------------------------

const (
	testSecret    = "handler-test-secret"
	serviceSecret = "handler-test-service-secret"
)

// services bundles the mocks for one test; nil fields get empty mocks.
type services struct {
	trips        *mockTripServicer
	reservations *mockReservationServicer
	favorites    *mockFavoriteServicer
	users        *mockUserServicer
}

// newHTTPHandler wires a Server over the mocks behind the real bearer-token
// middleware, the way main.go does: user tokens and service tokens are
// signed with different keys.
func newHTTPHandler(svc services) http.Handler {
	if svc.trips == nil {
		svc.trips = &mockTripServicer{}
	}
	if svc.reservations == nil {
		svc.reservations = &mockReservationServicer{}
	}
	if svc.favorites == nil {
		svc.favorites = &mockFavoriteServicer{}
	}
	if svc.users == nil {
		svc.users = &mockUserServicer{}
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := handler.NewServer(svc.trips, svc.reservations, svc.favorites, svc.users, log)
	return srv.Routes(
		middleware.NewAuthenticator(testSecret).Require(),
		middleware.NewAuthenticator(serviceSecret).Require(),
	)
}

// request performs one call; a non-Nil user sends a valid user token.
func request(t *testing.T, h http.Handler, method, target string, user uuid.UUID, body any) *httptest.ResponseRecorder {
	t.Helper()
	return requestSigned(t, h, testSecret, method, target, user, body)
}

// serviceRequest performs one call carrying a service token.
func serviceRequest(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	return requestSigned(t, h, serviceSecret, method, target, uuid.New(), nil)
}

func requestSigned(t *testing.T, h http.Handler, secret, method, target string, user uuid.UUID, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != uuid.Nil {
		token, err := middleware.NewAuthenticator(secret).Issue(user, time.Minute)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorDetail {
	t.Helper()
	return decode[handler.ErrorResponse](t, rec).Error
}
