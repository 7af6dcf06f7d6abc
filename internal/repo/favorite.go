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

const favoriteColumns = `id, article, user_id, created_at`

// FavoriteRepo defines the persistence operations for Favorites.
type FavoriteRepo interface {
	// Create returns domain.ErrAlreadyFavorited when the pair already exists.
	Create(ctx context.Context, fav domain.Favorite) (domain.Favorite, error)

	// FindByArticleAndUser returns domain.ErrNotFound when the user has not favorited the article.
	FindByArticleAndUser(ctx context.Context, article string, userID uuid.UUID) (domain.Favorite, error)

	// Count returns the number of favorites matching f.
	Count(ctx context.Context, f domain.FavoriteFilter) (int64, error)

	// Delete removes a favorite by ID. Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// RemoveByArticle deletes every favorite of an article and reports how many went.
	RemoveByArticle(ctx context.Context, article string) (int64, error)
}

type pgFavoriteRepo struct {
	db        db
	favorites table[domain.Favorite]
}

// NewFavoriteRepo constructs a FavoriteRepo backed by the provided db connection.
func NewFavoriteRepo(db db) FavoriteRepo {
	return &pgFavoriteRepo{
		db: db,
		favorites: table[domain.Favorite]{
			db:      db,
			from:    "favorites",
			columns: favoriteColumns,
			scan:    scanFavorite,
		},
	}
}

func (r *pgFavoriteRepo) Create(ctx context.Context, fav domain.Favorite) (domain.Favorite, error) {
	const q = `
		INSERT INTO favorites (article, user_id)
		VALUES (@article, @user_id)
		RETURNING ` + favoriteColumns

	result, err := scanFavorite(r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"article": fav.Article,
		"user_id": fav.UserID,
	}))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Favorite{}, fmt.Errorf("repo.FavoriteRepo.Create: %w", domain.ErrAlreadyFavorited)
		}
		return domain.Favorite{}, fmt.Errorf("repo.FavoriteRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgFavoriteRepo) FindByArticleAndUser(ctx context.Context, article string, userID uuid.UUID) (domain.Favorite, error) {
	result, err := r.favorites.findOne(ctx, "article = @article AND user_id = @user_id",
		pgx.NamedArgs{"article": article, "user_id": userID})
	if err != nil {
		return domain.Favorite{}, fmt.Errorf("repo.FavoriteRepo.FindByArticleAndUser: %w", err)
	}
	return result, nil
}

func (r *pgFavoriteRepo) Count(ctx context.Context, f domain.FavoriteFilter) (int64, error) {
	clauses := []string{"TRUE"}
	args := pgx.NamedArgs{}
	if f.Article != "" {
		clauses = append(clauses, "article = @article")
		args["article"] = f.Article
	}
	if f.UserID != nil {
		clauses = append(clauses, "user_id = @user_id")
		args["user_id"] = *f.UserID
	}

	n, err := r.favorites.count(ctx, strings.Join(clauses, " AND "), args)
	if err != nil {
		return 0, fmt.Errorf("repo.FavoriteRepo.Count: %w", err)
	}
	return n, nil
}

func (r *pgFavoriteRepo) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := r.favorites.removeMany(ctx, "id = @id", pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.FavoriteRepo.Delete: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("repo.FavoriteRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgFavoriteRepo) RemoveByArticle(ctx context.Context, article string) (int64, error) {
	n, err := r.favorites.removeMany(ctx, "article = @article", pgx.NamedArgs{"article": article})
	if err != nil {
		return 0, fmt.Errorf("repo.FavoriteRepo.RemoveByArticle: %w", err)
	}
	return n, nil
}

func scanFavorite(s scanner) (domain.Favorite, error) {
	var (
		f        domain.Favorite
		id, user pgtype.UUID
	)
	if err := s.Scan(&id, &f.Article, &user, &f.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Favorite{}, domain.ErrNotFound
		}
		return domain.Favorite{}, err
	}
	f.ID = uuid.UUID(id.Bytes)
	f.UserID = uuid.UUID(user.Bytes)
	return f, nil
}
