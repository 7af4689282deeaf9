package repository

import (
	"context"
	"testing"
	"time"

	"SignalWatch/internal/domain"
	"SignalWatch/internal/domain/models"
	"SignalWatch/pkg/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc, err := cache.NewRedisCache(cache.WithRedisAddr(mr.Addr()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })
	return rc, mr
}

func TestDedupStoreCooldown(t *testing.T) {
	ctx := context.Background()
	rc, mr := newRedis(t)
	s := NewDedupStore(rc)

	ok, err := s.HasRecentNotification(ctx, "vix_high")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.MarkNotified(ctx, "vix_high", 12*time.Hour))
	raw, err := mr.Get("notified:vix_high")
	require.NoError(t, err)
	assert.Equal(t, "true", raw)
	assert.Equal(t, 12*time.Hour, mr.TTL("notified:vix_high"))

	ok, err = s.HasRecentNotification(ctx, "vix_high")
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(12*time.Hour + time.Second)
	ok, err = s.HasRecentNotification(ctx, "vix_high")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDedupStoreUnavailable(t *testing.T) {
	rc, mr := newRedis(t)
	mr.Close()

	_, err := NewDedupStore(rc).HasRecentNotification(context.Background(), "pbr_low")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestSignalStorePublishClearRead(t *testing.T) {
	ctx := context.Background()
	rc, mr := newRedis(t)
	s := NewSignalStore(rc)

	got, err := s.ReadLatest(ctx)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	sigs := []models.Signal{{ID: "pbr_low", Indicator: "大盤股價淨值比", ApplicableTo: []string{"0050.TW"}}}
	require.NoError(t, s.Publish(ctx, sigs, 12*time.Hour))
	assert.Equal(t, 12*time.Hour, mr.TTL(latestKey))

	got, err = s.ReadLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, sigs, got)

	require.NoError(t, s.Clear(ctx))
	raw, err := mr.Get(latestKey)
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)

	got, err = s.ReadLatest(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSignalStoreMemoryBackend(t *testing.T) {
	ctx := context.Background()
	s := NewSignalStore(cache.NewMemoryCache())

	require.NoError(t, s.Publish(ctx, nil, time.Hour))
	got, err := s.ReadLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Signal{}, got)
}
