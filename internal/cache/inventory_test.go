package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedThing struct {
	ID    string `json:"id"`
	Count int64  `json:"count"`
}

func useMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(Close)
	return mr
}

func TestAside_MissThenHit(t *testing.T) {
	mr := useMiniredis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *cachedThing) func() error {
		return func() error {
			calls++
			*dest = cachedThing{ID: "p1", Count: 3}
			return nil
		}
	}

	var first cachedThing
	require.NoError(t, Aside(ctx, PostKey("p1"), &first, PostTTL, fetch(&first)))
	assert.Equal(t, int64(3), first.Count)
	assert.True(t, mr.Exists("post:p1"))

	var second cachedThing
	require.NoError(t, Aside(ctx, PostKey("p1"), &second, PostTTL, fetch(&second)))
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	InvalidatePost(ctx, "p1")
	assert.False(t, mr.Exists("post:p1"))

	var third cachedThing
	require.NoError(t, Aside(ctx, PostKey("p1"), &third, PostTTL, fetch(&third)))
	assert.Equal(t, 2, calls)
}

func TestAside_ErrorsAreNotCached(t *testing.T) {
	mr := useMiniredis(t)
	boom := errors.New("not found")

	var dest cachedThing
	err := Aside(context.Background(), UserExternalKey("user_1"), &dest, UserTTL, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("user:ext:user_1"))
}

func TestAside_TTL(t *testing.T) {
	mr := useMiniredis(t)

	var dest cachedThing
	require.NoError(t, Aside(context.Background(), PostKey("p2"), &dest, time.Minute, func() error {
		dest = cachedThing{ID: "p2"}
		return nil
	}))

	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists("post:p2"))
}

func TestAside_NoClient(t *testing.T) {
	Close()

	var dest cachedThing
	err := Aside(context.Background(), PostKey("p3"), &dest, PostTTL, func() error {
		dest.ID = "p3"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "p3", dest.ID)

	assert.NotPanics(t, func() { InvalidateUser(context.Background(), "user_1") })
}

func TestAside_CorruptPayload(t *testing.T) {
	mr := useMiniredis(t)
	require.NoError(t, mr.Set("post:p4", "{not json"))

	var dest cachedThing
	require.NoError(t, Aside(context.Background(), PostKey("p4"), &dest, PostTTL, func() error {
		dest = cachedThing{ID: "p4", Count: 1}
		return nil
	}))
	assert.Equal(t, int64(1), dest.Count)
}
