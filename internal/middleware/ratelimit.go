// Package middleware provides request-scoped logging, identity, metrics, tracing and rate limiting.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
)

var errNoRateLimitStore = errors.New("redis client is nil")

// RateLimitRule is a fixed-window limit on one named resource.
type RateLimitRule struct {
	Name   string
	Limit  int
	Window time.Duration
	Policy FailPolicy
}

// RateLimitResult is the outcome of one counter increment.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

func rateLimitBypassed() bool {
	switch os.Getenv("APP_ENV") {
	case "", "test", "development", "stress":
		return true
	}
	return false
}

// CheckRateLimit increments the window counter for (resource, id).
// Rate limiting is disabled when APP_ENV is unset, "test", "development" or "stress".
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (RateLimitResult, error) {
	if rateLimitBypassed() {
		return RateLimitResult{Allowed: true, Remaining: limit}, nil
	}
	if rdb == nil {
		return RateLimitResult{}, errNoRateLimitStore
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	cnt, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return RateLimitResult{}, err
	}
	if cnt == 1 {
		rdb.Expire(ctx, key, window)
	}

	remaining := limit - int(cnt)
	if remaining >= 0 {
		return RateLimitResult{Allowed: true, Remaining: remaining}, nil
	}

	retry, err := rdb.TTL(ctx, key).Result()
	if err != nil || retry < 0 {
		retry = window
	}
	return RateLimitResult{Allowed: false, RetryAfter: retry}, nil
}

// RateLimit returns a FailOpen middleware enforcing limit requests per window on name.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name string) fiber.Handler {
	return RateLimitRule{Name: name, Limit: limit, Window: window, Policy: FailOpen}.Handler(rdb)
}

// Handler keys by the resolved local user (set by SetUserID) or else by remote IP.
func (r RateLimitRule) Handler(rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := "ip:" + c.IP()
		if uid, ok := c.Locals(LocalUserID).(string); ok && uid != "" {
			id = "user:" + uid
		}

		resource := r.Name
		if resource == "" {
			resource = c.Path()
		}

		res, err := CheckRateLimit(c.UserContext(), rdb, resource, id, r.Limit, r.Window)
		if err != nil {
			if r.Policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit store unavailable, failing closed",
					"resource", resource, "error", err.Error())
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"message": "Rate limit unavailable",
				})
			}
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(r.Limit))
		if !res.Allowed {
			c.Set("X-RateLimit-Remaining", "0")
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(res.RetryAfter.Seconds())))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"message": "Rate limit exceeded",
			})
		}
		c.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		return c.Next()
	}
}
