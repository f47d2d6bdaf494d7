package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisSequencer hands out the per-tenant daily order sequence via INCR.
// Keys expire after two days so abandoned tenants do not pile up.
type RedisSequencer struct {
	rdb *redis.Client
}

func NewRedisSequencer(url string) (*RedisSequencer, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisSequencer{rdb: rdb}, nil
}

func (s *RedisSequencer) Next(ctx context.Context, tenantID string, day time.Time) (int64, error) {
	key := fmt.Sprintf("orders:seq:%s:%s", tenantID, day.UTC().Format("20060102"))
	n, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		s.rdb.Expire(ctx, key, 48*time.Hour)
	}
	return n, nil
}

func (s *RedisSequencer) Close() error { return s.rdb.Close() }
