package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"virtuefeed/internal/middleware"
	"virtuefeed/internal/observability"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const (
	UserExternalKeyPrefix = "user:ext:"
	PostKeyPrefix         = "post:"
)

const (
	UserTTL = 5 * time.Minute
	PostTTL = 2 * time.Minute
)

// UserExternalKey caches the local user for an identity-provider id.
func UserExternalKey(externalID string) string {
	return UserExternalKeyPrefix + externalID
}

// PostKey caches the anonymous detail view of a post, counts included.
func PostKey(postID string) string {
	return PostKeyPrefix + postID
}

// Aside implements cache-aside: dest is filled from Redis on a hit, otherwise
// fetch fills it and the result is stored for ttl. Redis failures fall back to
// fetch; errors from fetch are returned unchanged and never cached.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	if client == nil {
		return fetch()
	}

	ctx, span := observability.GetTraceLayer().TraceRedisOperation(ctx, "aside")
	defer span.End()

	raw, err := client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(raw, dest); jsonErr == nil {
			return nil
		}
		// Undecodable payload, typically from an older struct layout.
		client.Del(ctx, key)
	case !errors.Is(err, redis.Nil):
		middleware.Logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}

	if err := fetch(); err != nil {
		return err
	}

	payload, err := json.Marshal(dest)
	if err != nil {
		return nil
	}
	if err := client.Set(ctx, key, payload, ttl).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return nil
}

// Invalidate removes keys; a nil client makes this a no-op.
func Invalidate(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	if err := client.Del(ctx, keys...).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "cache invalidation failed", slog.Any("keys", keys), slog.String("error", err.Error()))
	}
}

// InvalidatePost drops the cached detail view of a post.
func InvalidatePost(ctx context.Context, postID string) {
	Invalidate(ctx, PostKey(postID))
}

// InvalidateUser drops the cached identity lookup for an external id.
func InvalidateUser(ctx context.Context, externalID string) {
	Invalidate(ctx, UserExternalKey(externalID))
}
