package cache

import (
	"context"
	"errors"

	"github.com/nutricoach/nutricoach/internal/domain"
)

type CatalogCache interface {
	Get(ctx context.Context) ([]*domain.Product, error)
	Set(ctx context.Context, products []*domain.Product) error
	Delete(ctx context.Context) error
}

var ErrCacheMiss = errors.New("cache miss")

// Noop is used when no Redis address is configured; every Get misses.
type Noop struct{}

func (Noop) Get(context.Context) ([]*domain.Product, error) { return nil, ErrCacheMiss }

func (Noop) Set(context.Context, []*domain.Product) error { return nil }

func (Noop) Delete(context.Context) error { return nil }
