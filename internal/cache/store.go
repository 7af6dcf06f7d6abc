// Package cache holds the read-through caches and the invalidation
// coordinator that keeps them consistent with the database.
//
// Every cached value is stored under a key qualified by the generation of
// each tag it depends on, captured at lookup time. Invalidating a tag bumps
// its generation, which makes every dependent key unreachable in one step.
// A value loaded before an invalidation is written under the old
// generations, so it can never be served after the invalidation returns.
// Caches are projections only and are never consulted for capacity decisions.
package cache

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Tag is a logical invalidation domain spanning many cached keys.
type Tag string

const (
	TagUser        Tag = "user"
	TagTrip        Tag = "trip"
	TagReservation Tag = "reservation"
	TagFavorites   Tag = "favorites"
	TagArticles    Tag = "articles"
	TagFollows     Tag = "follows"
)

// Invalidator drops every entry that depends on a tag.
// Invalidating a tag with no entries is a no-op.
type Invalidator interface {
	Invalidate(ctx context.Context, tag Tag) error
}

// Lookup is the result of Store.Get. Key is the generation-qualified key the
// caller must pass to Store.Put when filling a miss.
type Lookup struct {
	Key   string
	Value []byte
	Hit   bool
}

// Store is a tag-aware byte cache.
type Store interface {
	Invalidator

	// Get resolves key against the current generations of tags.
	Get(ctx context.Context, tags []Tag, key string) (Lookup, error)

	// Put stores value under a qualified key obtained from Get.
	Put(ctx context.Context, qualifiedKey string, value []byte, ttl time.Duration) error
}

// qualify builds the physical key from the logical key and the generation of
// each tag, e.g. "trips:list?page=1@trip=4@user=2".
func qualify(prefix, key string, tags []Tag, gens []int64) string {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(key)
	for i, tag := range tags {
		b.WriteByte('@')
		b.WriteString(string(tag))
		b.WriteByte('=')
		b.WriteString(strconv.FormatInt(gens[i], 10))
	}
	return b.String()
}

// outdated reports whether any tag generation recorded in qualifiedKey is
// older than the current one in gens.
func outdated(qualifiedKey string, gens map[Tag]int64) bool {
	parts := strings.Split(qualifiedKey, "@")
	for _, part := range parts[1:] {
		tag, gen, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(gen, 10, 64)
		if err != nil {
			continue
		}
		if n < gens[Tag(tag)] {
			return true
		}
	}
	return false
}

// dependsOn reports whether a qualified key was built with tag.
func dependsOn(qualifiedKey string, tag Tag) bool {
	return strings.Contains(qualifiedKey, "@"+string(tag)+"=")
}
