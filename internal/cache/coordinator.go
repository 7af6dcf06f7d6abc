package cache

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/pkordes/rideshare/internal/metrics"
)

// Coordinator fans invalidations out to every registered store.
// Invalidate returns only once every store has processed every tag, so a
// mutation that waits for it never acknowledges while stale entries remain
// reachable.
type Coordinator struct {
	stores []Invalidator
	log    *slog.Logger
}

// NewCoordinator returns a Coordinator broadcasting to stores.
func NewCoordinator(log *slog.Logger, stores ...Invalidator) *Coordinator {
	return &Coordinator{stores: stores, log: log}
}

// Invalidate drops the given tags from every store. Duplicate tags are
// collapsed; an empty tag list is a no-op.
// Every store is attempted even if another fails; the first failure is
// returned.
func (c *Coordinator) Invalidate(ctx context.Context, tags ...Tag) error {
	tags = uniq(tags)
	if len(tags) == 0 || len(c.stores) == 0 {
		return nil
	}

	var g errgroup.Group
	for _, s := range c.stores {
		g.Go(func() error {
			var first error
			for _, tag := range tags {
				if err := s.Invalidate(ctx, tag); err != nil && first == nil {
					first = err
				}
			}
			return first
		})
	}
	if err := g.Wait(); err != nil {
		c.log.ErrorContext(ctx, "cache invalidation failed", "tags", tags, "error", err)
		return fmt.Errorf("cache.Coordinator.Invalidate: %w", err)
	}

	for _, tag := range tags {
		metrics.CacheInvalidations.WithLabelValues(string(tag)).Inc()
	}
	c.log.DebugContext(ctx, "cache invalidated", "tags", tags)
	return nil
}

func uniq(tags []Tag) []Tag {
	seen := make(map[Tag]struct{}, len(tags))
	out := make([]Tag, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
