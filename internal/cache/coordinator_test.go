package cache_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/rideshare/internal/cache"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// recordingStore records every invalidated tag and optionally fails.
type recordingStore struct {
	mu   sync.Mutex
	tags []cache.Tag
	err  error
}

func (s *recordingStore) Invalidate(_ context.Context, tag cache.Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tags = append(s.tags, tag)
	return s.err
}

func TestCoordinator_BroadcastsToEveryStore(t *testing.T) {
	a, b := &recordingStore{}, &recordingStore{}
	c := cache.NewCoordinator(discard, a, b)

	err := c.Invalidate(context.Background(), cache.TagTrip, cache.TagUser, cache.TagReservation)

	require.NoError(t, err)
	want := []cache.Tag{cache.TagTrip, cache.TagUser, cache.TagReservation}
	assert.Equal(t, want, a.tags)
	assert.Equal(t, want, b.tags)
}

func TestCoordinator_DeduplicatesTags(t *testing.T) {
	s := &recordingStore{}
	c := cache.NewCoordinator(discard, s)

	require.NoError(t, c.Invalidate(context.Background(), cache.TagUser, cache.TagUser, cache.TagTrip))

	assert.Equal(t, []cache.Tag{cache.TagUser, cache.TagTrip}, s.tags)
}

func TestCoordinator_NoTagsIsNoop(t *testing.T) {
	s := &recordingStore{}
	c := cache.NewCoordinator(discard, s)

	require.NoError(t, c.Invalidate(context.Background()))
	assert.Empty(t, s.tags)
}

func TestCoordinator_FailureIsReportedButOtherStoresStillRun(t *testing.T) {
	bad := &recordingStore{err: errors.New("redis down")}
	good := &recordingStore{}
	c := cache.NewCoordinator(discard, bad, good)

	err := c.Invalidate(context.Background(), cache.TagTrip, cache.TagUser)

	assert.ErrorContains(t, err, "redis down")
	assert.Equal(t, []cache.Tag{cache.TagTrip, cache.TagUser}, bad.tags, "all tags attempted")
	assert.Equal(t, []cache.Tag{cache.TagTrip, cache.TagUser}, good.tags)
}

// After Invalidate returns, a cached projection under an affected tag is
// never served again.
func TestCoordinator_InvalidatesMemoryStoreSynchronously(t *testing.T) {
	m := cache.NewMemory()
	c := cache.NewCoordinator(discard, m)
	ctx := context.Background()

	lk, _ := m.Get(ctx, []cache.Tag{cache.TagTrip}, "trip:1")
	require.NoError(t, m.Put(ctx, lk.Key, []byte("3 seats left"), time.Minute))

	require.NoError(t, c.Invalidate(ctx, cache.TagTrip, cache.TagUser, cache.TagReservation))

	lk, _ = m.Get(ctx, []cache.Tag{cache.TagTrip}, "trip:1")
	assert.False(t, lk.Hit)
}
