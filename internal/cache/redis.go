package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/nutricoach/nutricoach/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const catalogKey = "catalog:products"

func NewRedisCache(client *redis.Client, baseTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: baseTTL,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

// cachedProduct keeps prices as decimal strings so cached values round-trip exactly.
type cachedProduct struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
}

func (r RedisCache) Get(ctx context.Context) ([]*domain.Product, error) {
	data, err := r.client.Get(ctx, catalogKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cached []cachedProduct
	if err2 := json.Unmarshal(data, &cached); err2 != nil {
		return nil, fmt.Errorf("unmarshal catalog failed: %w", err2)
	}

	products := make([]*domain.Product, len(cached))
	for i, c := range cached {
		products[i] = &domain.Product{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			Price:       c.Price,
			ImageURL:    c.ImageURL,
		}
	}
	return products, nil
}

func (r RedisCache) Set(ctx context.Context, products []*domain.Product) error {
	cached := make([]cachedProduct, len(products))
	for i, p := range products {
		cached[i] = cachedProduct{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			ImageURL:    p.ImageURL,
		}
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("marshal catalog failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(5)) * time.Minute
	ttl := r.baseTTL + jitter
	if err := r.client.Set(ctx, catalogKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r RedisCache) Delete(ctx context.Context) error {
	if err := r.client.Del(ctx, catalogKey).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}
