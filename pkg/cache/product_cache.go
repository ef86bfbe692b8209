package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultProductCacheTTL is used when NewProductCache is given a zero TTL.
const DefaultProductCacheTTL = 10 * time.Minute

const productCacheKeyPrefix = "product"

// CachedProduct is the denormalized read model stored in Redis.
// Price is kept in its canonical decimal string form.
type CachedProduct struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Category      string    `json:"category"`
	Description   string    `json:"description"`
	Price         string    `json:"price"`
	StockQuantity int       `json:"stock_quantity"`
	CreatedBy     string    `json:"created_by"`
	UpdatedBy     string    `json:"updated_by"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ProductCache stores product read models as Redis hashes.
// Key format: "product:{productID}"
type ProductCache struct {
	client *RedisClient
	ttl    time.Duration
}

// NewProductCache creates a ProductCache backed by the given RedisClient.
func NewProductCache(r *RedisClient, ttl time.Duration) *ProductCache {
	if ttl <= 0 {
		ttl = DefaultProductCacheTTL
	}
	return &ProductCache{client: r, ttl: ttl}
}

// Get retrieves a cached product.
// Returns redis.Nil error when the key does not exist or has expired.
func (c *ProductCache) Get(ctx context.Context, id uuid.UUID) (*CachedProduct, error) {
	vals, err := c.client.Client().HGetAll(ctx, c.key(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	if len(vals) == 0 {
		return nil, redis.Nil
	}
	return parseCachedProduct(vals)
}

// Set writes the product hash and its TTL in one pipeline.
func (c *ProductCache) Set(ctx context.Context, p *CachedProduct) error {
	pipe := c.client.Client().Pipeline()
	c.writeHash(ctx, pipe, p)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Version returns the invalidation counter for id. Every Delete bumps it;
// a missing counter reads as 0.
func (c *ProductCache) Version(ctx context.Context, id uuid.UUID) (int64, error) {
	v, err := c.client.Client().Get(ctx, c.versionKey(id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache version: %w", err)
	}
	return v, nil
}

// SetIfVersion writes p only while the invalidation counter still equals
// version, so a read taken before a concurrent Delete is never cached.
// It reports whether the entry was written.
func (c *ProductCache) SetIfVersion(ctx context.Context, p *CachedProduct, version int64) (bool, error) {
	verKey := c.versionKey(p.ID)
	written := false
	err := c.client.Client().Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, verKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			c.writeHash(ctx, pipe, p)
			return nil
		})
		written = err == nil
		return err
	}, verKey)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache set: %w", err)
	}
	return written, nil
}

func (c *ProductCache) writeHash(ctx context.Context, pipe redis.Pipeliner, p *CachedProduct) {
	key := c.key(p.ID)
	pipe.HSet(ctx, key,
		"id", p.ID.String(),
		"name", p.Name,
		"category", p.Category,
		"description", p.Description,
		"price", p.Price,
		"stock_quantity", strconv.Itoa(p.StockQuantity),
		"created_by", p.CreatedBy,
		"updated_by", p.UpdatedBy,
		"created_at", p.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at", p.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	pipe.Expire(ctx, key, c.ttl)
}

// Delete removes the cached entries for ids and bumps their invalidation
// counters. Missing keys are ignored.
func (c *ProductCache) Delete(ctx context.Context, ids ...uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.key(id)
	}
	pipe := c.client.Client().TxPipeline()
	pipe.Del(ctx, keys...)
	for _, id := range ids {
		// The counter outlives any entry written under the old version.
		pipe.Incr(ctx, c.versionKey(id))
		pipe.Expire(ctx, c.versionKey(id), 2*c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

func (c *ProductCache) key(id uuid.UUID) string {
	return fmt.Sprintf("%s:%s", productCacheKeyPrefix, id)
}

func (c *ProductCache) versionKey(id uuid.UUID) string {
	return c.key(id) + ":version"
}

func parseCachedProduct(vals map[string]string) (*CachedProduct, error) {
	id, err := uuid.Parse(vals["id"])
	if err != nil {
		return nil, fmt.Errorf("cache parse id: %w", err)
	}
	stock, err := strconv.Atoi(vals["stock_quantity"])
	if err != nil {
		return nil, fmt.Errorf("cache parse stock_quantity: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, vals["created_at"])
	if err != nil {
		return nil, fmt.Errorf("cache parse created_at: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, vals["updated_at"])
	if err != nil {
		return nil, fmt.Errorf("cache parse updated_at: %w", err)
	}

	return &CachedProduct{
		ID:            id,
		Name:          vals["name"],
		Category:      vals["category"],
		Description:   vals["description"],
		Price:         vals["price"],
		StockQuantity: stock,
		CreatedBy:     vals["created_by"],
		UpdatedBy:     vals["updated_by"],
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}, nil
}
