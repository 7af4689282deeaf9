package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	ID    string  `json:"id"`
	Value float64 `json:"value"`
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc, err := NewRedisCache(WithRedisAddr(mr.Addr()), WithRedisPrefix("test"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })
	return rc, mr
}

func TestRedisCacheRoundTripAndPrefix(t *testing.T) {
	ctx := context.Background()
	rc, mr := newRedis(t)

	require.NoError(t, rc.Set(ctx, "a", payload{ID: "x", Value: 1.5}, 0))
	require.NoError(t, rc.Set(ctx, "s", "plain", 0))

	got, err := GetTyped[payload](ctx, rc, "a")
	require.NoError(t, err)
	assert.Equal(t, payload{ID: "x", Value: 1.5}, got)

	raw, err := mr.Get("test:s")
	require.NoError(t, err)
	assert.Equal(t, "plain", raw)

	var missing payload
	assert.ErrorIs(t, rc.Get(ctx, "nope", &missing), ErrCacheMiss)
}

func TestRedisCacheDefaultKeysUnprefixed(t *testing.T) {
	mr := miniredis.RunT(t)
	rc, err := NewRedisCache(WithRedisAddr(mr.Addr()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })

	require.NoError(t, rc.Set(context.Background(), Key("notified", "vix_high"), "true", time.Hour))
	assert.Equal(t, []string{"notified:vix_high"}, mr.Keys())
}

func TestRedisCacheExpiry(t *testing.T) {
	ctx := context.Background()
	rc, mr := newRedis(t)

	require.NoError(t, rc.Set(ctx, "k", "1", time.Hour))
	ttl, err := rc.TTL(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, ttl)

	mr.FastForward(time.Hour + time.Second)

	ok, err := rc.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = rc.TTL(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCacheLock(t *testing.T) {
	ctx := context.Background()
	rc, _ := newRedis(t)

	ok, err := rc.TryLock(ctx, "lock", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = rc.TryLock(ctx, "lock", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, rc.Unlock(ctx, "lock"))
	ok, err = rc.TryLock(ctx, "lock", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisCacheUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	rc, err := NewRedisCache(WithRedisAddr(mr.Addr()))
	require.NoError(t, err)
	defer rc.Close()

	mr.Close()
	_, err = rc.Exists(context.Background(), "k")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	mc := NewMemoryCache(WithMemoryClock(clock.Now))

	require.NoError(t, mc.Set(ctx, "k", payload{ID: "a"}, 12*time.Hour))
	clock.Advance(12*time.Hour - time.Second)

	ok, err := mc.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	ttl, err := mc.TTL(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, time.Second, ttl)

	clock.Advance(time.Second)
	ok, err = mc.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	var p payload
	assert.ErrorIs(t, mc.Get(ctx, "k", &p), ErrCacheMiss)
}

func TestMemoryCacheStoresCopies(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()

	in := []payload{{ID: "a"}}
	require.NoError(t, mc.Set(ctx, "list", in, 0))
	in[0].ID = "mutated"

	out, err := GetTyped[[]payload](ctx, mc, "list")
	require.NoError(t, err)
	assert.Equal(t, "a", out[0].ID)
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Unix(0, 0)}
	mc := NewMemoryCache(WithMemoryMaxSize(2), WithMemoryClock(clock.Now))

	require.NoError(t, mc.Set(ctx, "a", "1", 0))
	clock.Advance(time.Second)
	require.NoError(t, mc.Set(ctx, "b", "2", 0))
	clock.Advance(time.Second)

	var s string
	require.NoError(t, mc.Get(ctx, "a", &s))
	clock.Advance(time.Second)
	require.NoError(t, mc.Set(ctx, "c", "3", 0))

	assert.ErrorIs(t, mc.Get(ctx, "b", &s), ErrCacheMiss)
	require.NoError(t, mc.Get(ctx, "a", &s))
	assert.Equal(t, "1", s)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "notified:vix_high", Key("notified", "vix_high"))
	assert.Equal(t, "latest-signals", Key("", "latest-signals"))
}
