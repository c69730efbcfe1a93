package scan

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CalTopSoft/backend-devhub/internal/model"
)

func TestRedisCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewRedisCacheFromClient(rdb, time.Hour)

	hash := ContentHash([]byte("payload"))

	_, err := cache.Get(ctx, hash)
	assert.ErrorIs(t, err, ErrCacheMiss)

	v := &model.ScanVerdict{
		Safe:      false,
		ScanID:    "scan-1",
		SHA256:    hash,
		ScannedAt: time.Now().UTC().Truncate(time.Second),
		Threats:   []string{"alpha:Trojan.Generic"},
	}
	require.NoError(t, cache.Put(ctx, hash, v))

	got, err := cache.Get(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, v.ScanID, got.ScanID)
	assert.Equal(t, v.Threats, got.Threats)
	assert.False(t, got.Safe)
}

func TestRedisCache_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewRedisCacheFromClient(rdb, time.Minute)

	hash := ContentHash([]byte("short lived"))
	require.NoError(t, cache.Put(ctx, hash, &model.ScanVerdict{Safe: true, ScanID: "scan-2", SHA256: hash}))

	mr.FastForward(2 * time.Minute)

	_, err := cache.Get(ctx, hash)
	assert.ErrorIs(t, err, ErrCacheMiss)
}
