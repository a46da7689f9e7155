package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zeebo/xxh3"

	"github.com/GregMSThompson/analytics-dashboard/internal/models"
)

const widgetCachePrefix = "widget:data:"

// widgetCache stores widget datasets in Redis. Entries are addressed by
// their content coordinates, so widgets reading the same source, path and
// filters share one entry.
type widgetCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewWidgetCache(rdb *redis.Client, ttl time.Duration) *widgetCache {
	return &widgetCache{rdb: rdb, ttl: ttl}
}

// CacheKey hashes source, path and canonical filter key.
func CacheKey(source, path, filterKey string) string {
	h := xxh3.HashString(source + "|" + path + "|" + filterKey)
	return widgetCachePrefix + strconv.FormatUint(h, 16)
}

func (c *widgetCache) Get(ctx context.Context, key string) (models.Dataset, bool, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Dataset{}, false, nil
	}
	if err != nil {
		return models.Dataset{}, false, err
	}
	ds, err := models.ParseDataset(b)
	if err != nil {
		return models.Dataset{}, false, err
	}
	return ds, true, nil
}

func (c *widgetCache) Set(ctx context.Context, key string, ds models.Dataset) error {
	b, err := json.Marshal(ds)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, c.ttl).Err()
}

// Clear removes every widget entry and reports how many were dropped.
func (c *widgetCache) Clear(ctx context.Context) (int, error) {
	iter := c.rdb.Scan(ctx, 0, widgetCachePrefix+"*", 100).Iterator()
	var removed int
	for iter.Next(ctx) {
		full := iter.Val()
		if !strings.HasPrefix(full, widgetCachePrefix) {
			continue
		}
		if err := c.rdb.Del(ctx, full).Err(); err != nil {
			return removed, err
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		return removed, err
	}
	return removed, nil
}

func (c *widgetCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *widgetCache) TTL() time.Duration { return c.ttl }
