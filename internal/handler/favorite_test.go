package handler_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/rideshare/internal/domain"
	"github.com/pkordes/rideshare/internal/handler"
	"github.com/pkordes/rideshare/internal/middleware"
)

func TestAddFavorite(t *testing.T) {
	user := uuid.New()

	t.Run("201", func(t *testing.T) {
		favorites := &mockFavoriteServicer{
			add: func(_ context.Context, actor uuid.UUID, article string) (domain.Favorite, error) {
				assert.Equal(t, user, actor)
				return domain.Favorite{ID: uuid.New(), Article: article, UserID: actor}, nil
			},
		}
		rec := request(t, newHTTPHandler(services{favorites: favorites}), http.MethodPost, "/favorites", user,
			map[string]any{"article": "road-trip-tips"})

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "road-trip-tips", decode[domain.Favorite](t, rec).Article)
	})

	t.Run("409 twice", func(t *testing.T) {
		favorites := &mockFavoriteServicer{
			add: func(context.Context, uuid.UUID, string) (domain.Favorite, error) {
				return domain.Favorite{}, domain.ErrAlreadyFavorited
			},
		}
		rec := request(t, newHTTPHandler(services{favorites: favorites}), http.MethodPost, "/favorites", user,
			map[string]any{"article": "road-trip-tips"})

		require.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "already_favorited", errorCode(t, rec).Code)
	})

	t.Run("422 blank", func(t *testing.T) {
		rec := request(t, newHTTPHandler(services{}), http.MethodPost, "/favorites", user, map[string]any{"article": ""})

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "article", errorCode(t, rec).Field)
	})
}

func TestHasFavorite(t *testing.T) {
	user := uuid.New()
	favorites := &mockFavoriteServicer{
		has: func(_ context.Context, article string, got uuid.UUID) (bool, error) {
			return article == "a1" && got == user, nil
		},
	}
	h := newHTTPHandler(services{favorites: favorites})

	rec := request(t, h, http.MethodGet, "/favorites/has?article=a1&user="+user.String(), uuid.Nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[handler.FavoriteStatus](t, rec).Favorited)

	rec = request(t, h, http.MethodGet, "/favorites/has?article=a2&user="+user.String(), uuid.Nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[handler.FavoriteStatus](t, rec).Favorited)

	rec = request(t, h, http.MethodGet, "/favorites/has?article=a1", uuid.Nil, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "user", errorCode(t, rec).Field)
}

func TestCountFavorites_OptionalFilters(t *testing.T) {
	user := uuid.New()
	var got domain.FavoriteFilter
	favorites := &mockFavoriteServicer{
		count: func(_ context.Context, f domain.FavoriteFilter) (int64, error) {
			got = f
			return 7, nil
		},
	}
	h := newHTTPHandler(services{favorites: favorites})

	rec := request(t, h, http.MethodGet, "/favorites/count?article=a1", uuid.Nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), decode[handler.FavoriteCount](t, rec).Count)
	assert.Equal(t, domain.FavoriteFilter{Article: "a1"}, got)

	rec = request(t, h, http.MethodGet, "/favorites/count?user="+user.String(), uuid.Nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got.UserID)
	assert.Equal(t, user, *got.UserID)
	assert.Empty(t, got.Article)
}

func TestDeleteFavorite(t *testing.T) {
	user := uuid.New()
	favorites := &mockFavoriteServicer{
		delete: func(_ context.Context, actor uuid.UUID, article string) error {
			assert.Equal(t, user, actor)
			if article == "missing" {
				return domain.ErrNotFound
			}
			return nil
		},
	}
	h := newHTTPHandler(services{favorites: favorites})

	assert.Equal(t, http.StatusNoContent, request(t, h, http.MethodDelete, "/favorites?article=a1", user, nil).Code)
	assert.Equal(t, http.StatusNotFound, request(t, h, http.MethodDelete, "/favorites?article=missing", user, nil).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, request(t, h, http.MethodDelete, "/favorites", user, nil).Code)
}

func TestRemoveArticleFavorites_DecodesPath(t *testing.T) {
	favorites := &mockFavoriteServicer{
		removeByArticle: func(_ context.Context, article string) (int64, error) {
			assert.Equal(t, "summer trips", article)
			return 3, nil
		},
	}

	rec := serviceRequest(t, newHTTPHandler(services{favorites: favorites}), http.MethodDelete,
		"/internal/articles/summer%20trips/favorites")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(3), decode[handler.RemovedCount](t, rec).Removed)
}

// An end user must not be able to wipe other users' favorites of an article.
func TestRemoveArticleFavorites_RejectsUserToken(t *testing.T) {
	called := false
	favorites := &mockFavoriteServicer{
		removeByArticle: func(context.Context, string) (int64, error) {
			called = true
			return 7, nil
		},
	}
	h := newHTTPHandler(services{favorites: favorites})

	rec := request(t, h, http.MethodDelete, "/internal/articles/a1/favorites", uuid.New(), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = request(t, h, http.MethodDelete, "/internal/articles/a1/favorites", uuid.Nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// the old user-facing path is gone
	rec = request(t, h, http.MethodDelete, "/articles/a1/favorites", uuid.New(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.False(t, called)
}

func TestRoutes_WithoutServiceAuthLeavesCascadeUnmounted(t *testing.T) {
	called := false
	favorites := &mockFavoriteServicer{
		removeByArticle: func(context.Context, string) (int64, error) {
			called = true
			return 0, nil
		},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := handler.NewServer(&mockTripServicer{}, &mockReservationServicer{}, favorites, &mockUserServicer{}, log)
	h := srv.Routes(middleware.NewAuthenticator(testSecret).Require(), nil)

	rec := serviceRequest(t, h, http.MethodDelete, "/internal/articles/a1/favorites")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, called)
}
