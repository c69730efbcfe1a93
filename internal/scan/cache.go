package scan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/CalTopSoft/backend-devhub/internal/config"
	"github.com/CalTopSoft/backend-devhub/internal/model"
)

// ErrCacheMiss is returned when no verdict is cached for a hash.
var ErrCacheMiss = errors.New("verdict not cached")

// VerdictCache stores normalized verdicts keyed by content hash so identical
// content never triggers a second remote call.
type VerdictCache interface {
	Get(ctx context.Context, sha256 string) (*model.ScanVerdict, error)
	Put(ctx context.Context, sha256 string, v *model.ScanVerdict) error
}

const verdictKeyPrefix = "scan:verdict:"

// redisCache is a Redis-backed VerdictCache with a bounded TTL.
type redisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache connects to Redis and returns a VerdictCache.
func NewRedisCache(cfg config.RedisConfig, ttl time.Duration) (VerdictCache, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &redisCache{rdb: rdb, ttl: ttl}, nil
}

// NewRedisCacheFromClient wraps an existing client; used by tests.
func NewRedisCacheFromClient(rdb *redis.Client, ttl time.Duration) VerdictCache {
	return &redisCache{rdb: rdb, ttl: ttl}
}

func (c *redisCache) Get(ctx context.Context, sha256 string) (*model.ScanVerdict, error) {
	b, err := c.rdb.Get(ctx, verdictKeyPrefix+sha256).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("cache get: %w", err)
	}
	var v model.ScanVerdict
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("decode cached verdict: %w", err)
	}
	return &v, nil
}

func (c *redisCache) Put(ctx context.Context, sha256 string, v *model.ScanVerdict) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode verdict: %w", err)
	}
	if err := c.rdb.Set(ctx, verdictKeyPrefix+sha256, b, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}
