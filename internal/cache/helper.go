package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a JSON cache over Redis. A Cache with a nil client is a no-op
// that always misses.
type Cache struct {
	rdb *redis.Client
}

// New wraps rdb, which may be nil.
func New(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if c == nil || c.rdb == nil {
		return false, nil
	}
	s, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, err
	}
	return true, nil
}

// Aside tries Redis first; on a miss it calls fetch (which must populate
// dest) and stores dest with ttl. The store is guarded by versionKey: it is
// skipped if versionKey was bumped by Invalidate while fetch ran, so a slow
// fetch cannot repopulate the cache with data older than the last
// invalidation. Redis failures fall through to fetch.
func (c *Cache) Aside(ctx context.Context, key, versionKey string, dest any, ttl time.Duration, fetch func() error) error {
	if c == nil || c.rdb == nil {
		return fetch()
	}
	if found, err := c.GetJSON(ctx, key, dest); err == nil && found {
		return nil
	}

	before, err := c.rdb.Get(ctx, versionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fetch()
	}

	if err := fetch(); err != nil {
		return err
	}

	b, err := json.Marshal(dest)
	if err != nil {
		return nil
	}
	// Best-effort: a version change during fetch or during the WATCH aborts the write.
	_ = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		now, err := tx.Get(ctx, versionKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if now != before {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, ttl)
			return nil
		})
		return err
	}, versionKey)
	return nil
}

// Invalidate bumps versionKey and deletes keys in one transaction.
func (c *Cache) Invalidate(ctx context.Context, versionKey string, keys ...string) {
	if c == nil || c.rdb == nil {
		return
	}
	_, _ = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey)
		if len(keys) > 0 {
			pipe.Del(ctx, keys...)
		}
		return nil
	})
}
