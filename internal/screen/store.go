package screen

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nutricoach/nutricoach/pkg/cart"
	"github.com/nutricoach/nutricoach/pkg/client"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var ErrUnknownProduct = errors.New("product is not in the catalog")

// Store backs the supplement store screen: a product listing plus the
// session cart.
type Store struct {
	api    API
	placer cart.OrderPlacer
	cart   *cart.Cart
	log    zerolog.Logger

	mu       sync.RWMutex
	state    State
	products []client.Product
}

func NewStore(api API, placer cart.OrderPlacer, userID int64, log zerolog.Logger) *Store {
	return &Store{
		api:    api,
		placer: placer,
		cart:   cart.New(userID),
		log:    log.With().Str("screen", "store").Logger(),
		state:  StateEmpty,
	}
}

func (s *Store) Title() string { return "Tienda de suplementos" }

func (s *Store) Load(ctx context.Context) State {
	products, err := s.api.ListProducts(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.log.Warn().Err(err).Msg("failed to load products")
		s.state = StateFailed
		s.products = nil
		return s.state
	}
	s.products = products
	s.state = listState(len(products))
	return s.state
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) Products() []client.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]client.Product(nil), s.products...)
}

func (s *Store) Add(productID int64) error {
	p, ok := s.product(productID)
	if !ok {
		return fmt.Errorf("add %d: %w", productID, ErrUnknownProduct)
	}
	return s.cart.Add(p.CartProduct())
}

func (s *Store) RemoveOne(productID int64) error {
	return s.cart.RemoveOne(productID)
}

func (s *Store) Cart() []cart.Entry {
	return s.cart.Items()
}

func (s *Store) Total() decimal.Decimal {
	return s.cart.Total()
}

// Checkout places the order. The server total on the receipt is the one
// to show; it may differ from Total if prices moved.
func (s *Store) Checkout(ctx context.Context) (*cart.Receipt, error) {
	receipt, err := s.cart.Checkout(ctx, s.placer)
	if err != nil {
		s.log.Warn().Err(err).Msg("checkout failed")
		return nil, err
	}
	s.log.Info().Int64("order_id", receipt.OrderID).Str("total", receipt.Total.String()).Msg("order placed")
	return receipt, nil
}

func (s *Store) product(id int64) (client.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return client.Product{}, false
}
