// Package redissvc wraps the Redis client with the few primitives the
// storefront needs: time-boxed markers and a FIFO list.
package redissvc

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisService struct {
	rdb *redis.Client
}

func NewRedisService(rdb *redis.Client) *RedisService {
	return &RedisService{rdb: rdb}
}

func (s *RedisService) Rdb() *redis.Client {
	return s.rdb
}

func (s *RedisService) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// MarkIfAbsent sets key with a ttl unless it already exists. It reports
// whether this call created the marker.
func (s *RedisService) MarkIfAbsent(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, key, time.Now().Unix(), ttl).Result()
}

// Release removes a marker before it expires.
func (s *RedisService) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

// Push appends payload to the tail of the list at key.
func (s *RedisService) Push(ctx context.Context, key string, payload []byte) error {
	return s.rdb.RPush(ctx, key, payload).Err()
}

// Pop waits up to timeout for the head of the list at key. It returns
// nil, nil when the wait times out.
func (s *RedisService) Pop(ctx context.Context, key string, timeout time.Duration) ([]byte, error) {
	res, err := s.rdb.BLPop(ctx, timeout, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// BLPOP replies with [key, value]
	return []byte(res[1]), nil
}
