package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/rideshare/internal/cache"
	"github.com/pkordes/rideshare/internal/domain"
	"github.com/pkordes/rideshare/internal/repo"
)

// favoriteReadTags are the domains cached favorite reads depend on.
var favoriteReadTags = []cache.Tag{cache.TagFavorites, cache.TagArticles}

// FavoriteService implements favorites: at most one per (article, user).
type FavoriteService struct {
	favorites repo.FavoriteRepo
	reader    *cache.Reader
	inval     Invalidation
	log       *slog.Logger
}

// NewFavoriteService constructs a FavoriteService backed by the provided repo.
func NewFavoriteService(favorites repo.FavoriteRepo, reader *cache.Reader, inval Invalidation, log *slog.Logger) *FavoriteService {
	return &FavoriteService{favorites: favorites, reader: reader, inval: inval, log: log}
}

// Add favorites article for actor.
// Returns domain.ErrAlreadyFavorited if actor already did.
func (s *FavoriteService) Add(ctx context.Context, actor uuid.UUID, article string) (domain.Favorite, error) {
	article = strings.TrimSpace(article)
	if err := domain.ValidateArticle(article); err != nil {
		return domain.Favorite{}, err
	}
	fav, err := s.favorites.Create(ctx, domain.Favorite{Article: article, UserID: actor})
	if err != nil {
		return domain.Favorite{}, fmt.Errorf("service.FavoriteService.Add: %w", err)
	}
	if err := s.inval.committed(ctx); err != nil {
		return domain.Favorite{}, fmt.Errorf("service.FavoriteService.Add: invalidate: %w", err)
	}
	s.log.InfoContext(ctx, "favorite added", "article", article, "user_id", actor)
	return fav, nil
}

// Has reports whether user has favorited article.
func (s *FavoriteService) Has(ctx context.Context, article string, user uuid.UUID) (bool, error) {
	article = strings.TrimSpace(article)
	if err := domain.ValidateArticle(article); err != nil {
		return false, err
	}
	key := "favorites:has:" + user.String() + ":" + article
	ok, err := cache.Fetch(ctx, s.reader, favoriteReadTags, key, func(ctx context.Context) (bool, error) {
		_, err := s.favorites.FindByArticleAndUser(ctx, article, user)
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return err == nil, err
	})
	if err != nil {
		return false, fmt.Errorf("service.FavoriteService.Has: %w", err)
	}
	return ok, nil
}

// Count returns the number of favorites matching f. An empty filter counts all.
func (s *FavoriteService) Count(ctx context.Context, f domain.FavoriteFilter) (int64, error) {
	key := "favorites:count:" + f.Article
	if f.UserID != nil {
		key += ":" + f.UserID.String()
	}
	n, err := cache.Fetch(ctx, s.reader, favoriteReadTags, key, func(ctx context.Context) (int64, error) {
		return s.favorites.Count(ctx, f)
	})
	if err != nil {
		return 0, fmt.Errorf("service.FavoriteService.Count: %w", err)
	}
	return n, nil
}

// Delete removes actor's favorite of article.
// Returns domain.ErrNotFound if actor has not favorited it.
func (s *FavoriteService) Delete(ctx context.Context, actor uuid.UUID, article string) error {
	fav, err := s.favorites.FindByArticleAndUser(ctx, strings.TrimSpace(article), actor)
	if err != nil {
		return fmt.Errorf("service.FavoriteService.Delete: %w", err)
	}
	if err := domain.RequireOwner(fav, actor, "favorite"); err != nil {
		return fmt.Errorf("service.FavoriteService.Delete: %w", err)
	}
	if err := s.favorites.Delete(ctx, fav.ID); err != nil {
		return fmt.Errorf("service.FavoriteService.Delete: %w", err)
	}
	if err := s.inval.committed(ctx); err != nil {
		return fmt.Errorf("service.FavoriteService.Delete: invalidate: %w", err)
	}
	s.log.InfoContext(ctx, "favorite removed", "article", fav.Article, "user_id", actor)
	return nil
}

// RemoveByArticle deletes every favorite of article. It is the hook called
// when an article disappears; removing an article nobody favorited is a no-op.
func (s *FavoriteService) RemoveByArticle(ctx context.Context, article string) (int64, error) {
	article = strings.TrimSpace(article)
	if err := domain.ValidateArticle(article); err != nil {
		return 0, err
	}
	n, err := s.favorites.RemoveByArticle(ctx, article)
	if err != nil {
		return 0, fmt.Errorf("service.FavoriteService.RemoveByArticle: %w", err)
	}
	if err := s.inval.committed(ctx); err != nil {
		return 0, fmt.Errorf("service.FavoriteService.RemoveByArticle: invalidate: %w", err)
	}
	s.log.InfoContext(ctx, "article favorites removed", "article", article, "count", n)
	return n, nil
}
