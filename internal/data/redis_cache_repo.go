package data

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/srijeethT/cytomind/internal/core"
	apperrors "github.com/srijeethT/cytomind/internal/errors"
)

// RedisCacheRepo caches rendered report documents so repeat downloads skip
// both the renderer and the filesystem.
type RedisCacheRepo struct {
	client *redis.Client
	prefix string
}

// NewRedisCacheRepo creates a Redis-backed cache repository. The prefix
// namespaces keys so the cache can share a Redis instance.
func NewRedisCacheRepo(client *redis.Client, prefix string) *RedisCacheRepo {
	if prefix == "" {
		prefix = "cytomind:doc:"
	}
	return &RedisCacheRepo{client: client, prefix: prefix}
}

// Set stores a value with the given TTL.
func (r *RedisCacheRepo) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.prefix+key, value, ttl).Err(); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeInternal, "cache set %s", key)
	}
	return nil
}

// Get returns the cached value, or a NotFound error on a miss.
func (r *RedisCacheRepo) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFoundf("cache key %s not found", key)
		}
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeInternal, "cache get %s", key)
	}
	return val, nil
}

// Delete removes a key, reporting whether it existed.
func (r *RedisCacheRepo) Delete(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Del(ctx, r.prefix+key).Result()
	if err != nil {
		return false, apperrors.Wrapf(err, apperrors.ErrCodeInternal, "cache delete %s", key)
	}
	return n > 0, nil
}

var _ core.CacheRepository = (*RedisCacheRepo)(nil)
