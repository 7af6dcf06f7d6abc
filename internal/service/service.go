// Package service contains the business logic of the rideshare API: trip
// publication, seat admission, the reservation lifecycle, favorites and
// profiles. Services validate inputs, enforce ownership, orchestrate repo
// calls and notify the cache coordinator after every committed write.
// No SQL lives here; services depend on repo interfaces, not implementations.
//
// Every operation that acts on behalf of a user takes that user explicitly
// as actor; nothing is read from ambient request state.
package service

import (
	"context"

	"github.com/pkordes/rideshare/internal/cache"
)

// Invalidator is the part of cache.Coordinator the services need.
type Invalidator interface {
	Invalidate(ctx context.Context, tags ...cache.Tag) error
}

// Invalidation is a service's cache-cleanup behaviour: the coordinator to
// notify and the domain tags every committed write of that service affects.
type Invalidation struct {
	Invalidator Invalidator
	Tags        []cache.Tag
}

// Tag sets passed to each service at construction.
var (
	TripTags        = []cache.Tag{cache.TagTrip, cache.TagUser, cache.TagReservation}
	ReservationTags = []cache.Tag{cache.TagReservation, cache.TagUser, cache.TagTrip}
	FavoriteTags    = []cache.Tag{cache.TagFavorites, cache.TagArticles, cache.TagUser}
	UserTags        = []cache.Tag{cache.TagUser, cache.TagFollows}
)

// committed must be called after a write commits and before the caller is
// told it succeeded. A nil Invalidator disables invalidation.
func (i Invalidation) committed(ctx context.Context) error {
	if i.Invalidator == nil {
		return nil
	}
	return i.Invalidator.Invalidate(ctx, i.Tags...)
}

// with returns a copy of i that also invalidates extra, for writes whose
// cascades reach beyond the service's own tags.
func (i Invalidation) with(extra ...cache.Tag) Invalidation {
	tags := make([]cache.Tag, 0, len(i.Tags)+len(extra))
	tags = append(tags, i.Tags...)
	i.Tags = append(tags, extra...)
	return i
}
