package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/goccy/go-json"

	"github.com/pkordes/rideshare/internal/metrics"
)

// Reader performs read-through lookups against a Store.
// A nil *Reader disables caching: Fetch always calls load.
type Reader struct {
	store Store
	ttl   time.Duration
	log   *slog.Logger
}

// NewReader returns a Reader storing entries for ttl.
func NewReader(store Store, ttl time.Duration, log *slog.Logger) *Reader {
	return &Reader{store: store, ttl: ttl, log: log}
}

// Fetch returns the cached value for key, or calls load and caches its result.
//
// The cache never fails a read: lookup, decode and store errors are logged
// and the value is served from load. Errors from load are returned unchanged
// and nothing is cached.
func Fetch[T any](ctx context.Context, r *Reader, tags []Tag, key string, load func(context.Context) (T, error)) (T, error) {
	if r == nil || r.store == nil {
		return load(ctx)
	}

	lk, err := r.store.Get(ctx, tags, key)
	switch {
	case err != nil:
		metrics.CacheRequests.WithLabelValues("error").Inc()
		r.log.WarnContext(ctx, "cache lookup failed", "key", key, "error", err)
		return load(ctx)
	case lk.Hit:
		var v T
		if err := json.Unmarshal(lk.Value, &v); err == nil {
			metrics.CacheRequests.WithLabelValues("hit").Inc()
			return v, nil
		}
		r.log.WarnContext(ctx, "cache entry undecodable", "key", key)
	}
	metrics.CacheRequests.WithLabelValues("miss").Inc()

	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	b, err := json.Marshal(v)
	if err != nil {
		r.log.WarnContext(ctx, "cache encode failed", "key", key, "error", err)
		return v, nil
	}
	if err := r.store.Put(ctx, lk.Key, b, r.ttl); err != nil {
		r.log.WarnContext(ctx, "cache store failed", "key", key, "error", err)
	}
	return v, nil
}
