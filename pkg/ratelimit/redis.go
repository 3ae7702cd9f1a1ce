package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCounter provides fixed-window counters shared by every instance.
// Algorithm: INCR a per-window key and set its expiry on first hit.
type RedisCounter struct {
	client *redis.Client
	prefix string
}

// NewRedisCounter creates a counter storing keys as "<prefix><key>:<windowStart>".
func NewRedisCounter(client *redis.Client, prefix string) *RedisCounter {
	if prefix == "" {
		prefix = "rl:"
	}
	return &RedisCounter{client: client, prefix: prefix}
}

func (r *RedisCounter) Name() string { return "redis" }

func (r *RedisCounter) Incr(ctx context.Context, key string, windowStart time.Time, window time.Duration) (int64, error) {
	redisKey := fmt.Sprintf("%s%s:%d", r.prefix, key, windowStart.Unix())
	cnt, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", redisKey, err)
	}
	if cnt == 1 {
		// set expiration for the bucket
		_ = r.client.Expire(ctx, redisKey, window+time.Second).Err()
	}
	return cnt, nil
}
