package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const DefaultRedisPrefix = "tradejournal:"

// RedisStore keeps the token in Redis so several terminals share one login.
type RedisStore struct {
	rdb redis.Cmdable
	key string
	ttl time.Duration
}

// NewRedisStore stores the token under prefix+"token". A zero ttl keeps it
// until cleared.
func NewRedisStore(rdb redis.Cmdable, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{rdb: rdb, key: prefix + TokenKey, ttl: ttl}
}

func (r *RedisStore) Get(ctx context.Context) (string, error) {
	v, err := r.rdb.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", r.key, err)
	}
	return v, nil
}

func (r *RedisStore) Set(ctx context.Context, token string) error {
	if err := r.rdb.Set(ctx, r.key, token, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.rdb.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", r.key, err)
	}
	return nil
}
