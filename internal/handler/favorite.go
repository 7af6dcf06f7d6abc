package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/pkordes/rideshare/internal/domain"
)

type addFavoriteRequest struct {
	Article string `json:"article" validate:"required"`
}

// FavoriteStatus is the body of GET /favorites/has.
type FavoriteStatus struct {
	Favorited bool `json:"favorited"`
}

// FavoriteCount is the body of GET /favorites/count.
type FavoriteCount struct {
	Count int64 `json:"count"`
}

// RemovedCount reports how many rows a cascade removed.
type RemovedCount struct {
	Removed int64 `json:"removed"`
}

// AddFavorite handles POST /favorites.
func (s *Server) AddFavorite(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req addFavoriteRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	fav, err := s.favorites.Add(r.Context(), actorID, req.Article)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, fav)
}

// HasFavorite handles GET /favorites/has?article=&user=.
func (s *Server) HasFavorite(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		article string
		user    uuid.UUID
	)
	if err := requireQuery(q, "article", &article); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := requireQuery(q, "user", &user); err != nil {
		s.writeError(w, r, err)
		return
	}

	ok, err := s.favorites.Has(r.Context(), article, user)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, FavoriteStatus{Favorited: ok})
}

// CountFavorites handles GET /favorites/count with optional article and user
// filters.
func (s *Server) CountFavorites(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		article *string
		user    *uuid.UUID
	)
	if err := bindQuery(q, "article", &article); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := bindQuery(q, "user", &user); err != nil {
		s.writeError(w, r, err)
		return
	}

	f := domain.FavoriteFilter{UserID: user}
	if article != nil {
		f.Article = *article
	}
	n, err := s.favorites.Count(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, FavoriteCount{Count: n})
}

// DeleteFavorite handles DELETE /favorites?article=, removing the caller's
// own favorite.
func (s *Server) DeleteFavorite(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var article string
	if err := requireQuery(r.URL.Query(), "article", &article); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.favorites.Delete(r.Context(), actorID, article); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveArticleFavorites handles DELETE /internal/articles/{article}/favorites,
// the hook the article service calls when an article goes away. It is only
// mounted behind the service credential.
func (s *Server) RemoveArticleFavorites(w http.ResponseWriter, r *http.Request) {
	article, err := pathString(r, "article")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	n, err := s.favorites.RemoveByArticle(r.Context(), article)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RemovedCount{Removed: n})
}
