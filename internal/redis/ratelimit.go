package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Key pattern: ratelimit:{ip}:uploads, expiring with the window.

type RateLimitConfig struct {
	UploadLimit  int           // Max uploads per window per client IP
	UploadWindow time.Duration // Upload rate limit window
}

func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		UploadLimit:  10,
		UploadWindow: 60 * time.Second,
	}
}

// RateLimiter handles rate limiting using Redis
type RateLimiter struct {
	client *goredis.Client
	config RateLimitConfig
}

// RateLimitResult contains the result of a rate limit check
type RateLimitResult struct {
	Allowed   bool          // Whether the action is allowed
	Remaining int           // Remaining actions in the window
	ResetIn   time.Duration // Time until the window resets
	Limit     int           // The limit for this action
}

func NewRateLimiter(client *goredis.Client, config RateLimitConfig) *RateLimiter {
	if config.UploadLimit <= 0 || config.UploadWindow <= 0 {
		config = DefaultRateLimitConfig()
	}
	return &RateLimiter{
		client: client,
		config: config,
	}
}

// AllowUpload counts one upload attempt from ip against the window.
func (r *RateLimiter) AllowUpload(ctx context.Context, ip string) (*RateLimitResult, error) {
	return r.checkLimit(ctx, uploadKey(ip), r.config.UploadLimit, r.config.UploadWindow)
}

func uploadKey(ip string) string {
	return fmt.Sprintf("ratelimit:%s:uploads", ip)
}

// Atomic fixed-window counter. Returns {allowed, remaining, ttl}.
var limitScript = goredis.NewScript(`
	local key = KEYS[1]
	local limit = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])

	local current = redis.call('GET', key)
	if current == false then
		current = 0
	else
		current = tonumber(current)
	end

	local ttl = redis.call('TTL', key)
	if ttl < 0 then
		ttl = window
	end

	if current < limit then
		redis.call('INCR', key)
		if ttl == window then
			redis.call('EXPIRE', key, window)
		end
		return {1, limit - current - 1, ttl}
	else
		return {0, 0, ttl}
	end
`)

func (r *RateLimiter) checkLimit(ctx context.Context, key string, limit int, window time.Duration) (*RateLimitResult, error) {
	result, err := limitScript.Run(ctx, r.client, []string{key}, limit, int(window.Seconds())).Result()
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}
	return parseLimitResult(result, limit)
}

func parseLimitResult(result interface{}, limit int) (*RateLimitResult, error) {
	resultSlice, ok := result.([]interface{})
	if !ok || len(resultSlice) < 3 {
		return nil, fmt.Errorf("unexpected rate limit result format")
	}

	allowed, ok1 := resultSlice[0].(int64)
	remaining, ok2 := resultSlice[1].(int64)
	resetIn, ok3 := resultSlice[2].(int64)
	if !ok1 || !ok2 || !ok3 {
		return nil, fmt.Errorf("unexpected rate limit result format")
	}

	return &RateLimitResult{
		Allowed:   allowed == 1,
		Remaining: int(remaining),
		ResetIn:   time.Duration(resetIn) * time.Second,
		Limit:     limit,
	}, nil
}
