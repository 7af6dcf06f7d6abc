package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Store backed by a shared Redis instance, so every API process
// sees the same tag generations.
//
// Layout:
//
//	<prefix>gen:<tag>          INCR counter, one per tag
//	<prefix>c:<key>@<tag>=<n>  cached value, SET with EX
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis wraps client. prefix namespaces every key (e.g. "rideshare:").
func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

// NewRedisClient parses url (redis://...) and returns a pooled client.
// A plain host:port is accepted as well.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		opts = &redis.Options{Addr: url}
	}
	opts.PoolSize = 50
	opts.MinIdleConns = 5
	opts.MaxRetries = 3

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache.NewRedisClient: ping: %w", err)
	}
	return client, nil
}

func (r *Redis) genKey(tag Tag) string {
	return r.prefix + "gen:" + string(tag)
}

// Get reads the tag generations in one MGET, then the qualified key.
func (r *Redis) Get(ctx context.Context, tags []Tag, key string) (Lookup, error) {
	gens := make([]int64, len(tags))
	if len(tags) > 0 {
		keys := make([]string, len(tags))
		for i, tag := range tags {
			keys[i] = r.genKey(tag)
		}
		vals, err := r.client.MGet(ctx, keys...).Result()
		if err != nil {
			return Lookup{}, fmt.Errorf("cache.Redis.Get: generations: %w", err)
		}
		for i, v := range vals {
			s, ok := v.(string)
			if !ok {
				continue // never invalidated
			}
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return Lookup{}, fmt.Errorf("cache.Redis.Get: generation %q: %w", keys[i], err)
			}
			gens[i] = n
		}
	}

	qk := qualify(r.prefix+"c:", key, tags, gens)
	val, err := r.client.Get(ctx, qk).Bytes()
	if errors.Is(err, redis.Nil) {
		return Lookup{Key: qk}, nil
	}
	if err != nil {
		return Lookup{}, fmt.Errorf("cache.Redis.Get: %w", err)
	}
	return Lookup{Key: qk, Value: val, Hit: true}, nil
}

// Put stores value under the qualified key with a TTL.
func (r *Redis) Put(ctx context.Context, qualifiedKey string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, qualifiedKey, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache.Redis.Put: %w", err)
	}
	return nil
}

// Invalidate increments the tag generation. Entries under older generations
// are left to expire.
func (r *Redis) Invalidate(ctx context.Context, tag Tag) error {
	if err := r.client.Incr(ctx, r.genKey(tag)).Err(); err != nil {
		return fmt.Errorf("cache.Redis.Invalidate %s: %w", tag, err)
	}
	return nil
}
