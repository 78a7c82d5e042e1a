// README: Redis-backed window store for multi-replica deployments.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// takeScript trims the sorted set to the window, admits if below the limit,
// and records the new timestamp, all server-side so check-and-record stays
// atomic across replicas. Returns {1, 0} when admitted, {0, oldestScore}
// when rejected.
var takeScript = redis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], 0, ARGV[1])
local n = redis.call('ZCARD', KEYS[1])
if n < tonumber(ARGV[2]) then
  redis.call('ZADD', KEYS[1], ARGV[3], ARGV[4])
  redis.call('PEXPIRE', KEYS[1], ARGV[5])
  return {1, 0}
end
local oldest = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')
return {0, oldest[2]}
`)

// RedisStore implements WindowStore on a Redis sorted set per client.
// Keys expire one window after the last admission, so idle clients cost
// nothing.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Take(ctx context.Context, key string, now time.Time, window time.Duration, max int) (bool, time.Duration, error) {
	redisKey := s.prefix + ":" + key
	minScore := now.Add(-window).UnixNano()
	member := fmt.Sprintf("%d-%s", now.UnixNano(), uuid.NewString()[:8])

	res, err := takeScript.Run(ctx, s.client, []string{redisKey},
		minScore, max, now.UnixNano(), member, window.Milliseconds()).Slice()
	if err != nil {
		return false, 0, fmt.Errorf("ratelimit redis take: %w", err)
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("ratelimit redis take: unexpected reply shape %v", res)
	}

	allowed, _ := res[0].(int64)
	if allowed == 1 {
		return true, 0, nil
	}

	var oldest int64
	switch v := res[1].(type) {
	case int64:
		oldest = v
	case string:
		fmt.Sscanf(v, "%d", &oldest)
	}
	retryAfter := time.Unix(0, oldest).Add(window).Sub(now)
	if retryAfter < 0 {
		retryAfter = 0
	}
	return false, retryAfter, nil
}
