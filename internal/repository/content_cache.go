package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/literexia/assignment-engine/internal/config"
	"github.com/literexia/assignment-engine/internal/model"
)

// ContentCache memoizes resolved content items in Redis.
type ContentCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewContentCache(rdb *redis.Client, ttl time.Duration) *ContentCache {
	return &ContentCache{rdb: rdb, ttl: ttl}
}

func (c *ContentCache) Get(ctx context.Context, ref model.ContentRef) (model.ContentItem, bool, error) {
	raw, err := c.rdb.Get(ctx, config.CacheKey.ResolvedContentKey(ref.Collection, ref.ContentID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var stored model.StoredContent
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, false, err
	}
	return stored.Item, stored.Item != nil, nil
}

func (c *ContentCache) Set(ctx context.Context, ref model.ContentRef, item model.ContentItem) error {
	raw, err := json.Marshal(model.StoredContent{Item: item})
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, config.CacheKey.ResolvedContentKey(ref.Collection, ref.ContentID), raw, c.ttl).Err()
}
