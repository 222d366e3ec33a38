package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	perrors "github.com/abgdnv/productapi/internal/errors"
	"github.com/abgdnv/productapi/internal/model"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	productCachePrefix = "product:id:"
	keyCachePrefix     = "product:key:"
)

// CachedStore decorates a ProductStore with a Redis read-through cache for FindByExternalID.
// Update and DeleteByKey evict the cached entry after the underlying store succeeds.
// Lookups under WithoutCache read the underlying store and drop the cached entry of a missing product,
// which clears a row written back by a fill that raced a delete.
// Cache failures are logged and never fail the call.
type CachedStore struct {
	ProductStore
	rdb    redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

// cacheEntry is the cached form of a product. It keeps the key, which model.Product hides from JSON.
type cacheEntry struct {
	Key         int64           `json:"key"`
	ExternalID  uuid.UUID       `json:"external_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func NewCachedStore(next ProductStore, rdb redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *CachedStore {
	return &CachedStore{
		ProductStore: next,
		rdb:          rdb,
		ttl:          ttl,
		logger:       logger.With("component", "product-cache"),
	}
}

func (c *CachedStore) FindByExternalID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	if BypassesCache(ctx) {
		product, err := c.ProductStore.FindByExternalID(ctx, id)
		if errors.Is(err, perrors.ErrProductNotFound) {
			if delErr := c.rdb.Del(ctx, productCachePrefix+id.String()).Err(); delErr != nil {
				c.logger.WarnContext(ctx, "Cache eviction failed", "ID", id, "error", delErr)
			}
		}
		return product, err
	}
	if product, ok := c.get(ctx, id); ok {
		return product, nil
	}
	product, err := c.ProductStore.FindByExternalID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.set(ctx, product)
	return product, nil
}

func (c *CachedStore) Update(ctx context.Context, product model.Product) (*model.Product, error) {
	updated, err := c.ProductStore.Update(ctx, product)
	if err != nil {
		return nil, err
	}
	c.evict(ctx, updated.Key)
	return updated, nil
}

func (c *CachedStore) DeleteByKey(ctx context.Context, key model.InternalKey) error {
	if err := c.ProductStore.DeleteByKey(ctx, key); err != nil {
		return err
	}
	c.evict(ctx, key)
	return nil
}

// Ping checks both the cache and the underlying store.
func (c *CachedStore) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	if p, ok := c.ProductStore.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (c *CachedStore) get(ctx context.Context, id uuid.UUID) (*model.Product, bool) {
	data, err := c.rdb.Get(ctx, productCachePrefix+id.String()).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "Cache read failed", "ID", id, "error", err)
		}
		return nil, false
	}
	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.logger.WarnContext(ctx, "Discarding malformed cache entry", "ID", id, "error", err)
		return nil, false
	}
	return &model.Product{
		Key:         model.InternalKey(entry.Key),
		ExternalID:  entry.ExternalID,
		Name:        entry.Name,
		Description: entry.Description,
		Price:       entry.Price,
		CreatedAt:   entry.CreatedAt,
		UpdatedAt:   entry.UpdatedAt,
	}, true
}

func (c *CachedStore) set(ctx context.Context, product *model.Product) {
	data, err := json.Marshal(cacheEntry{
		Key:         int64(product.Key),
		ExternalID:  product.ExternalID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	})
	if err != nil {
		c.logger.WarnContext(ctx, "Cache encode failed", "ID", product.ExternalID, "error", err)
		return
	}
	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, productCachePrefix+product.ExternalID.String(), data, c.ttl)
		pipe.Set(ctx, keyCachePrefix+fmt.Sprint(int64(product.Key)), product.ExternalID.String(), c.ttl)
		return nil
	})
	if err != nil {
		c.logger.WarnContext(ctx, "Cache write failed", "ID", product.ExternalID, "error", err)
	}
}

// evict removes the entry cached for key. Entries are only ever written together with their key mapping.
func (c *CachedStore) evict(ctx context.Context, key model.InternalKey) {
	keyRef := keyCachePrefix + fmt.Sprint(int64(key))
	id, err := c.rdb.Get(ctx, keyRef).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "Cache eviction lookup failed", "error", err)
		}
		return
	}
	if err := c.rdb.Del(ctx, productCachePrefix+id, keyRef).Err(); err != nil {
		c.logger.WarnContext(ctx, "Cache eviction failed", "ID", id, "error", err)
	}
}
