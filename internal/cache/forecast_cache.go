package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/skucast/forecasting-service/internal/config"
	"github.com/skucast/forecasting-service/internal/domain"
)

const (
	forecastKeyPrefix = "forecast:item"
	forecastScanBatch = 100
)

// ForecastCache holds recently computed forecast responses keyed by the
// full request payload. Only successful responses are cached.
type ForecastCache interface {
	Get(ctx context.Context, req domain.ForecastRequest) (domain.ForecastResponse, bool, error)
	Set(ctx context.Context, req domain.ForecastRequest, resp domain.ForecastResponse) error
	InvalidateAll(ctx context.Context) error
}

type redisForecastCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopForecastCache struct{}

func NewForecastCache(cfg config.CacheConfig) (ForecastCache, error) {
	if !cfg.Enabled {
		return &noopForecastCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisForecastCache{client: client, ttl: ttl}, nil
}

func NewNoopForecastCache() ForecastCache {
	return &noopForecastCache{}
}

func (c *redisForecastCache) Get(ctx context.Context, req domain.ForecastRequest) (domain.ForecastResponse, bool, error) {
	key, err := buildForecastKey(req)
	if err != nil {
		return domain.ForecastResponse{}, false, err
	}

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return domain.ForecastResponse{}, false, nil
	}
	if err != nil {
		return domain.ForecastResponse{}, false, fmt.Errorf("redis get failed: %w", err)
	}

	var resp domain.ForecastResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return domain.ForecastResponse{}, false, fmt.Errorf("decode forecast cache: %w", err)
	}
	return resp, true, nil
}

func (c *redisForecastCache) Set(ctx context.Context, req domain.ForecastRequest, resp domain.ForecastResponse) error {
	if !resp.Success {
		return nil
	}

	key, err := buildForecastKey(req)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode forecast cache: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisForecastCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, forecastKeyPrefix, forecastScanBatch)
}

func (n *noopForecastCache) Get(ctx context.Context, req domain.ForecastRequest) (domain.ForecastResponse, bool, error) {
	return domain.ForecastResponse{}, false, nil
}

func (n *noopForecastCache) Set(ctx context.Context, req domain.ForecastRequest, resp domain.ForecastResponse) error {
	return nil
}

func (n *noopForecastCache) InvalidateAll(ctx context.Context) error {
	return nil
}

// buildForecastKey hashes the canonical JSON encoding of the request so
// any change in history, stock or horizon yields a distinct key.
func buildForecastKey(req domain.ForecastRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode forecast cache key: %w", err)
	}
	digest := sha1.Sum(payload)
	return fmt.Sprintf("%s:%s", forecastKeyPrefix, hex.EncodeToString(digest[:])), nil
}
