package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore handles the cross-run crawl markers.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr string) *RedisStore {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	return &RedisStore{client: rdb}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// MarkAsCrawled sets a key with a TTL to prevent re-crawling.
func (s *RedisStore) MarkAsCrawled(ctx context.Context, url string, ttl time.Duration) error {
	key := fmt.Sprintf("crawled:%s", url)
	return s.client.Set(ctx, key, "1", ttl).Err()
}

// IsRecentlyCrawled checks if a URL has been crawled within the TTL.
func (s *RedisStore) IsRecentlyCrawled(ctx context.Context, url string) (bool, error) {
	key := fmt.Sprintf("crawled:%s", url)
	val, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return val == 1, nil
}

// IncrementExhaustedCount counts how often a URL has defeated every
// strategy, so repeat offenders stand out in logs and dashboards.
func (s *RedisStore) IncrementExhaustedCount(ctx context.Context, url string) (int64, error) {
	key := fmt.Sprintf("exhausted:%s", url)
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	// Expire the counter so it doesn't live forever
	s.client.Expire(ctx, key, 24*time.Hour)
	return count, nil
}
