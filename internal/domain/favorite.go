package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Favorite marks an article as favorited by a user.
// At most one favorite exists per (Article, UserID) pair.
type Favorite struct {
	ID        uuid.UUID `json:"id"`
	Article   string    `json:"article"`
	UserID    uuid.UUID `json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

// OwnerID returns the user who created the favorite.
func (f Favorite) OwnerID() uuid.UUID { return f.UserID }

// FavoriteFilter selects favorites for counting. Empty fields are ignored.
type FavoriteFilter struct {
	Article string
	UserID  *uuid.UUID
}

// ValidateArticle rejects blank article references.
func ValidateArticle(article string) error {
	if strings.TrimSpace(article) == "" {
		return NewFieldError("article", "is required")
	}
	return nil
}
