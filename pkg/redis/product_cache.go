package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/sepehr-data/mithra-pay/pkg/models"
	"github.com/sepehr-data/mithra-pay/pkg/money"
)

// ProductLookup is the source of truth behind the cache.
type ProductLookup interface {
	GetByID(ctx context.Context, id string) (*models.Product, error)
}

// ProductCache is a read-through cache of products by id. Redis failures
// are logged and fall through to the backing lookup.
type ProductCache struct {
	client *redis.Client
	source ProductLookup
	ttl    time.Duration
	log    *slog.Logger
	sfg    singleflight.Group
}

// fetchTimeout bounds a shared source read once it is detached from the
// caller that started it.
const fetchTimeout = 5 * time.Second

func NewProductCache(client *redis.Client, source ProductLookup, ttl time.Duration, log *slog.Logger) *ProductCache {
	return &ProductCache{client: client, source: source, ttl: ttl, log: log}
}

// cachedProduct keeps prices as exact decimal strings; the product's own
// JSON form rounds them for display.
type cachedProduct struct {
	Product        *models.Product `json:"product"`
	Price          string          `json:"price"`
	CompareAtPrice *string         `json:"compare_at_price,omitempty"`
}

func productKey(id string) string {
	return fmt.Sprintf("catalog:product:%s", id)
}

func (c *ProductCache) GetByID(ctx context.Context, id string) (*models.Product, error) {
	p, err := c.get(ctx, id)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, redis.Nil) {
		c.log.WarnContext(ctx, "product cache read failed", "product_id", id, "error", err)
	}

	v, err, _ := c.sfg.Do(id, func() (any, error) {
		// Every waiter shares this read; one caller going away must not fail the rest.
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()

		p, err := c.source.GetByID(fetchCtx, id)
		if err != nil {
			return nil, err
		}
		if err := c.set(fetchCtx, p); err != nil {
			c.log.WarnContext(ctx, "product cache write failed", "product_id", id, "error", err)
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	// Callers may mutate the product; hand each one its own copy.
	cp := *v.(*models.Product)
	return &cp, nil
}

func (c *ProductCache) Invalidate(ctx context.Context, productID string) error {
	if err := c.client.Del(ctx, productKey(productID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (c *ProductCache) get(ctx context.Context, id string) (*models.Product, error) {
	data, err := c.client.Get(ctx, productKey(id)).Bytes()
	if err != nil {
		return nil, err
	}
	var entry cachedProduct
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("unmarshal product failed: %w", err)
	}
	if entry.Product == nil {
		return nil, redis.Nil
	}
	if entry.Product.Price, err = money.Parse(entry.Price); err != nil {
		return nil, err
	}
	if entry.CompareAtPrice != nil {
		compare, err := money.Parse(*entry.CompareAtPrice)
		if err != nil {
			return nil, err
		}
		entry.Product.CompareAtPrice = &compare
	}
	return entry.Product, nil
}

func (c *ProductCache) set(ctx context.Context, p *models.Product) error {
	entry := cachedProduct{Product: p, Price: p.Price.Exact()}
	if p.CompareAtPrice != nil {
		compare := p.CompareAtPrice.Exact()
		entry.CompareAtPrice = &compare
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal product failed: %w", err)
	}
	return c.client.Set(ctx, productKey(p.ID), data, c.ttl).Err()
}
