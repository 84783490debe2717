package services

import (
	"context"
	"encoding/json"
	"time"

	"assetfolio/src/utils"
	redis_utils "assetfolio/src/utils/redis"
)

// ReportCache stores rendered report payloads for a short time.
type ReportCache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// Invalidate drops every cached report.
	Invalidate(ctx context.Context) error
}

const (
	summaryReport           = "summary"
	bankDistributionReport  = "bank-distribution"
	stockDistributionReport = "stock-distribution"
)

var cachedReports = []string{summaryReport, bankDistributionReport, stockDistributionReport}

type redisReportCache struct {
	handler *redis_utils.RedisHandler
}

// NewRedisReportCache keeps reports in Redis, shared by every API replica.
func NewRedisReportCache(handler *redis_utils.RedisHandler) ReportCache {
	return &redisReportCache{handler: handler}
}

func (c *redisReportCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	return c.handler.Get(ctx, key, dst)
}

func (c *redisReportCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return c.handler.Set(ctx, key, value, ttl)
}

func (c *redisReportCache) Invalidate(ctx context.Context) error {
	keys := make([]string, 0, len(cachedReports))
	for _, name := range cachedReports {
		keys = append(keys, reportKey(name))
	}
	return c.handler.Delete(ctx, keys...)
}

type memoryReportCache struct {
	entries *utils.KeyedCache[[]byte]
}

// NewMemoryReportCache keeps reports in process memory.
func NewMemoryReportCache() ReportCache {
	return &memoryReportCache{entries: utils.NewKeyedCache[[]byte]()}
}

func (c *memoryReportCache) Get(_ context.Context, key string, dst any) (bool, error) {
	data, ok := c.entries.Get(key)
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dst)
}

func (c *memoryReportCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries.Set(key, data, ttl)
	return nil
}

func (c *memoryReportCache) Invalidate(context.Context) error {
	c.entries.Clear()
	return nil
}

func reportKey(name string) string {
	return "report:" + redis_utils.GenerateUUID("report", name)
}

// invalidateReports runs after a committed write. A failure only leaves reports
// stale until their TTL runs out, so it is logged and not returned.
func invalidateReports(ctx context.Context, cache ReportCache) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx); err != nil {
		utils.LoggerFromContext(ctx).WithError(err).Warn("Report cache invalidation failed")
	}
}

// cached serves a report from the cache when possible and stores fresh results.
// Cache failures are logged and never fail the report.
func cached[T any](ctx context.Context, cache ReportCache, ttl time.Duration, key string, build func() (T, error)) (T, error) {
	if cache == nil || ttl <= 0 {
		return build()
	}
	logger := utils.LoggerFromContext(ctx).WithField("cache_key", key)

	var hit T
	found, err := cache.Get(ctx, key, &hit)
	if err != nil {
		logger.WithError(err).Warn("Report cache read failed")
	} else if found {
		return hit, nil
	}

	fresh, err := build()
	if err != nil {
		return fresh, err
	}
	if err := cache.Set(ctx, key, fresh, ttl); err != nil {
		logger.WithError(err).Warn("Report cache write failed")
	}
	return fresh, nil
}
