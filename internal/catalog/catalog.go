package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nutricoach/nutricoach/internal/cache"
	"github.com/nutricoach/nutricoach/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

type ProductStore interface {
	GetAllProducts(ctx context.Context) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	UpdateProductPrice(ctx context.Context, id int64, price decimal.Decimal) error
}

// Catalog serves the store screen. Listing may come from cache; order
// pricing never does, it goes through the ledger.
type Catalog struct {
	store ProductStore
	cache cache.CatalogCache
	sfg   singleflight.Group // Prevents cache stampede
	log   zerolog.Logger
}

func New(store ProductStore, c cache.CatalogCache, log zerolog.Logger) *Catalog {
	return &Catalog{
		store: store,
		cache: c,
		log:   log.With().Str("component", "catalog").Logger(),
	}
}

// loadTimeout bounds a shared catalog load, which outlives any one caller.
const loadTimeout = 5 * time.Second

func (c *Catalog) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	ch := c.sfg.DoChan("products", func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		return c.load(loadCtx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]*domain.Product), nil
	}
}

func (c *Catalog) load(ctx context.Context) ([]*domain.Product, error) {
	products, err := c.cache.Get(ctx)
	if err == nil {
		return products, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		c.log.Warn().Err(err).Msg("catalog cache get failed")
	}

	products, err = c.store.GetAllProducts(ctx)
	if err != nil {
		return nil, err
	}

	go func() {
		setCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if errSet := c.cache.Set(setCtx, products); errSet != nil {
			c.log.Warn().Err(errSet).Msg("catalog cache set failed")
		}
	}()

	return products, nil
}

func (c *Catalog) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return c.store.GetProduct(ctx, id)
}

// UpdatePrice reprices a product that no order references yet and drops
// the cached listing.
func (c *Catalog) UpdatePrice(ctx context.Context, id int64, price decimal.Decimal) error {
	if price.IsNegative() {
		return fmt.Errorf("price must not be negative: %w", domain.ErrValidation)
	}
	if err := c.store.UpdateProductPrice(ctx, id, price); err != nil {
		return err
	}
	c.Invalidate(ctx)
	return nil
}

// Invalidate drops the cached listing, e.g. after repricing.
func (c *Catalog) Invalidate(ctx context.Context) {
	if err := c.cache.Delete(ctx); err != nil {
		c.log.Warn().Err(err).Msg("catalog cache invalidate failed")
	}
}
