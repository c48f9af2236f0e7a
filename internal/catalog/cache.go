package catalog

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rmendes/storefront-api/internal/domain"
)

// Cache is a read-through product cache over Redis. A nil *Cache is valid
// and disables caching, so callers never need to branch on configuration.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{client: client, ttl: ttl, logger: logger}
}

func (c *Cache) key(id string) string {
	return "product:" + id
}

func (c *Cache) Get(ctx context.Context, id string) (*domain.Product, bool) {
	if c == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("product cache read failed", "error", err, "product_id", id)
		}
		return nil, false
	}

	var product domain.Product
	if err := json.Unmarshal(data, &product); err != nil {
		c.logger.Warn("product cache entry corrupt", "error", err, "product_id", id)
		return nil, false
	}

	return &product, true
}

func (c *Cache) Set(ctx context.Context, product *domain.Product) {
	if c == nil {
		return
	}

	data, err := json.Marshal(product)
	if err != nil {
		c.logger.Warn("product cache encode failed", "error", err, "product_id", product.ID)
		return
	}

	if err := c.client.Set(ctx, c.key(product.ID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("product cache write failed", "error", err, "product_id", product.ID)
	}
}

// Invalidate drops cached entries after a stock decrement or review append.
func (c *Cache) Invalidate(ctx context.Context, ids ...string) {
	if c == nil || len(ids) == 0 {
		return
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.key(id)
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("product cache invalidation failed", "error", err)
	}
}
