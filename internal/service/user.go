package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pkordes/rideshare/internal/cache"
	"github.com/pkordes/rideshare/internal/domain"
	"github.com/pkordes/rideshare/internal/repo"
)

// UserService exposes the acting user's own account and everyone's public
// profile.
type UserService struct {
	users  repo.UserRepo
	reader *cache.Reader
	inval  Invalidation
	log    *slog.Logger
}

// NewUserService constructs a UserService backed by the provided repo.
func NewUserService(users repo.UserRepo, reader *cache.Reader, inval Invalidation, log *slog.Logger) *UserService {
	return &UserService{users: users, reader: reader, inval: inval, log: log}
}

// Me returns actor's profile.
func (s *UserService) Me(ctx context.Context, actor uuid.UUID) (domain.User, error) {
	u, err := cache.Fetch(ctx, s.reader, []cache.Tag{cache.TagUser}, "user:"+actor.String(),
		func(ctx context.Context) (domain.User, error) {
			return s.users.GetByID(ctx, actor)
		})
	if err != nil {
		return domain.User{}, fmt.Errorf("service.UserService.Me: %w", err)
	}
	return u, nil
}

// Profile returns the public profile of user id.
func (s *UserService) Profile(ctx context.Context, id uuid.UUID) (domain.Profile, error) {
	p, err := cache.Fetch(ctx, s.reader, []cache.Tag{cache.TagUser}, "profile:"+id.String(),
		func(ctx context.Context) (domain.Profile, error) {
			u, err := s.users.GetByID(ctx, id)
			if err != nil {
				return domain.Profile{}, err
			}
			return u.Profile(), nil
		})
	if err != nil {
		return domain.Profile{}, fmt.Errorf("service.UserService.Profile: %w", err)
	}
	return p, nil
}

// UpdateProfile changes actor's identity fields and travel preferences.
// Existing trips keep the preferences they were published with.
func (s *UserService) UpdateProfile(ctx context.Context, actor uuid.UUID, upd domain.ProfileUpdate) (domain.User, error) {
	current, err := s.users.GetByID(ctx, actor)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.UserService.UpdateProfile: %w", err)
	}
	next, err := upd.Apply(current)
	if err != nil {
		return domain.User{}, err
	}
	result, err := s.users.UpdateProfile(ctx, next)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.UserService.UpdateProfile: %w", err)
	}
	if err := s.inval.committed(ctx); err != nil {
		return domain.User{}, fmt.Errorf("service.UserService.UpdateProfile: invalidate: %w", err)
	}
	s.log.InfoContext(ctx, "profile updated", "user_id", actor)
	return result, nil
}

// Delete removes actor's account together with their favorites. It is refused
// with domain.ErrHasActiveReservations while actor still publishes trips or
// holds reservations; those must be removed first.
func (s *UserService) Delete(ctx context.Context, actor uuid.UUID) error {
	if err := s.users.Delete(ctx, actor); err != nil {
		return fmt.Errorf("service.UserService.Delete: %w", err)
	}
	if err := s.inval.with(cache.TagFavorites, cache.TagArticles).committed(ctx); err != nil {
		return fmt.Errorf("service.UserService.Delete: invalidate: %w", err)
	}
	s.log.InfoContext(ctx, "account deleted", "user_id", actor)
	return nil
}
