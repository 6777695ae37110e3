package service

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisEmailAllowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`

type redisEmailRateLimiter struct {
	client redisEvaler
	window time.Duration
	max    int
	prefix string
}

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// NewRedisEmailRateLimiter creates a redis-backed limiter shared across
// instances.
func NewRedisEmailRateLimiter(client *redis.Client, window time.Duration, max int) EmailRateLimiter {
	if client == nil {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &redisEmailRateLimiter{
		client: client,
		window: window,
		max:    max,
		prefix: "email:rl:",
	}
}

func (l *redisEmailRateLimiter) Allow(key string) bool {
	if l == nil || l.client == nil {
		return true
	}
	normalizedKey := strings.ToLower(strings.TrimSpace(key))
	if normalizedKey == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	redisKey := l.prefix + normalizedKey
	seconds := int(l.window.Seconds())
	count, err := l.client.Eval(ctx, redisEmailAllowScript, []string{redisKey}, seconds).Int64()
	if err != nil {
		// fail open when redis is unavailable
		return true
	}
	return count <= int64(l.max)
}
