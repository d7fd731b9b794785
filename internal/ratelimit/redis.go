package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/admin-platform/internal/ids"
)

// slidingWindowScript keeps one sorted set per key, scored by request time
// in milliseconds.  It prunes, counts and conditionally records atomically.
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local now_ms = tonumber(ARGV[1])
	local window_ms = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local member = ARGV[4]

	redis.call('ZREMRANGEBYSCORE', key, '-inf', now_ms - window_ms)
	local count = redis.call('ZCARD', key)

	if count >= limit then
		local retry_ms = window_ms
		local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
		if oldest[2] then
			retry_ms = tonumber(oldest[2]) + window_ms - now_ms
		end
		return { 0, 0, retry_ms }
	end

	redis.call('ZADD', key, now_ms, member)
	redis.call('PEXPIRE', key, window_ms)
	return { 1, limit - count - 1, 0 }
`)

// RedisStore shares counters between every instance pointing at the same
// Redis server, making the configured limit global.
type RedisStore struct {
	rdb    redis.Scripter
	prefix string
}

// NewRedisStore namespaces every key under prefix.
func NewRedisStore(rdb redis.Scripter, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) Allow(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (Result, error) {
	args := []any{
		now.UnixMilli(),
		window.Milliseconds(),
		limit,
		strconv.FormatInt(now.UnixNano(), 10) + "-" + ids.New(),
	}
	vals, err := slidingWindowScript.Run(ctx, s.rdb, []string{s.prefix + ":" + key}, args...).Result()
	if err != nil {
		return Result{}, fmt.Errorf("rate limit script: %w", err)
	}
	return parseScriptResult(vals, limit)
}

func parseScriptResult(vals any, limit int) (Result, error) {
	arr, ok := vals.([]any)
	if !ok || len(arr) != 3 {
		return Result{}, fmt.Errorf("unexpected rate limit script result %#v", vals)
	}
	return Result{
		Allowed:    asInt64(arr[0]) == 1,
		Limit:      limit,
		Remaining:  int(asInt64(arr[1])),
		RetryAfter: time.Duration(asInt64(arr[2])) * time.Millisecond,
	}, nil
}

func asInt64(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}
