package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Store backed by Redis, for deployments where several nodes
// serve the same visitors. Each profile is one hash.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis wraps client. A non-zero ttl expires idle profiles; every write
// refreshes it.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func profileKey(profile string) string {
	return fmt.Sprintf("storefront:profile:%s", profile)
}

func (r *Redis) Get(ctx context.Context, profile, key string) ([]byte, error) {
	data, err := r.client.HGet(ctx, profileKey(profile), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis hget failed: %w", err)
	}
	return data, nil
}

func (r *Redis) Put(ctx context.Context, profile, key string, value []byte) error {
	pk := profileKey(profile)
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, pk, key, value)
	if r.ttl > 0 {
		pipe.Expire(ctx, pk, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis hset failed: %w", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, profile string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.HDel(ctx, profileKey(profile), keys...).Err(); err != nil {
		return fmt.Errorf("redis hdel failed: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

var _ Store = (*Redis)(nil)
