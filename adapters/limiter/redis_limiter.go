package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/layer-3/encore/core"
	"github.com/redis/go-redis/v9"
)

// admitScript increments the window counter and starts the window on the
// first hit. Running it as one script keeps concurrent admits from racing.
var admitScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisLimiter is a fixed-window counter shared by every instance using the
// same Redis. Windows expire through key TTLs.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	config Config
}

// NewRedisLimiter creates a Redis-backed limiter
func NewRedisLimiter(client *redis.Client, cfg Config) *RedisLimiter {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.Max <= 0 {
		cfg.Max = DefaultMax
	}
	return &RedisLimiter{
		client: client,
		prefix: "encore:ratelimit:",
		config: cfg,
	}
}

// Admit charges one request to key and reports whether it is within the limit
func (l *RedisLimiter) Admit(ctx context.Context, key string) (core.Decision, error) {
	res, err := admitScript.Run(ctx, l.client, []string{l.prefix + key}, l.config.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return core.Decision{}, fmt.Errorf("failed to admit request: %w", err)
	}
	if len(res) != 2 {
		return core.Decision{}, fmt.Errorf("unexpected rate limit script result: %v", res)
	}

	count, ttl := int(res[0]), time.Duration(res[1])*time.Millisecond
	return decide(count, l.config.Max, time.Now().Add(ttl)), nil
}
