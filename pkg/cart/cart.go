// Package cart holds the client-side shopping cart. Prices here are for
// display only; the server reprices every order on checkout.
package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
)

var (
	ErrCheckoutInFlight = errors.New("checkout already in progress")
	ErrEmptyCart        = errors.New("cart is empty")
	ErrInvalidProduct   = errors.New("invalid product")
)

type Product struct {
	ID    int64
	Name  string
	Price decimal.Decimal
}

type Entry struct {
	Product  Product
	Quantity int
}

// Line is what travels to the server: no price.
type Line struct {
	ProductID int64
	Quantity  int
}

type Receipt struct {
	OrderID int64
	Status  string
	Total   decimal.Decimal
}

type OrderPlacer interface {
	PlaceOrder(ctx context.Context, userID int64, lines []Line) (*Receipt, error)
}

// Cart is safe for concurrent use. Entries keep insertion order and
// never hold a quantity below 1.
type Cart struct {
	mu       sync.Mutex
	userID   int64
	entries  []*Entry
	inFlight bool
}

func New(userID int64) *Cart {
	return &Cart{userID: userID}
}

// Add puts one unit of p in the cart. Products need a positive id and a
// positive price, so the total is zero only for an empty cart.
func (c *Cart) Add(p Product) error {
	if p.ID <= 0 || !p.Price.IsPositive() {
		return ErrInvalidProduct
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inFlight {
		return ErrCheckoutInFlight
	}

	if e := c.find(p.ID); e != nil {
		e.Quantity++
		return nil
	}
	c.entries = append(c.entries, &Entry{Product: p, Quantity: 1})
	return nil
}

// RemoveOne drops one unit of the product, deleting the entry at zero.
// Unknown products are ignored.
func (c *Cart) RemoveOne(productID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inFlight {
		return ErrCheckoutInFlight
	}

	for i, e := range c.entries {
		if e.Product.ID != productID {
			continue
		}
		if e.Quantity > 1 {
			e.Quantity--
			return nil
		}
		c.entries = append(c.entries[:i], c.entries[i+1:]...)
		return nil
	}
	return nil
}

func (c *Cart) Items() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, *e)
	}
	return out
}

func (c *Cart) Quantity(productID int64) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e := c.find(productID); e != nil {
		return e.Quantity
	}
	return 0
}

// Total is recomputed from the entries on every call.
func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := decimal.Zero
	for _, e := range c.entries {
		total = total.Add(e.Product.Price.Mul(decimal.NewFromInt(int64(e.Quantity))))
	}
	return total
}

func (c *Cart) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries) == 0
}

func (c *Cart) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Checkout sends the current lines to placer. Entries are cleared only
// when the order is accepted; on failure the cart is left as it was.
// Mutations and a second checkout are rejected while one is pending.
func (c *Cart) Checkout(ctx context.Context, placer OrderPlacer) (*Receipt, error) {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return nil, ErrCheckoutInFlight
	}
	if len(c.entries) == 0 {
		c.mu.Unlock()
		return nil, ErrEmptyCart
	}
	lines := make([]Line, 0, len(c.entries))
	for _, e := range c.entries {
		lines = append(lines, Line{ProductID: e.Product.ID, Quantity: e.Quantity})
	}
	c.inFlight = true
	c.mu.Unlock()

	receipt, err := placer.PlaceOrder(ctx, c.userID, lines)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false
	if err != nil {
		return nil, err
	}
	c.entries = nil
	return receipt, nil
}

func (c *Cart) find(productID int64) *Entry {
	for _, e := range c.entries {
		if e.Product.ID == productID {
			return e
		}
	}
	return nil
}
