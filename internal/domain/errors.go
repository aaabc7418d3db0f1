package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrUpstream   = errors.New("upstream unavailable")
	ErrStorage    = errors.New("storage error")
)

// InvalidOrderError rejects an order before anything is persisted.
// ProductID is set when a specific product caused the rejection.
type InvalidOrderError struct {
	Reason    string
	ProductID int64
}

func (e *InvalidOrderError) Error() string {
	if e.ProductID != 0 {
		return fmt.Sprintf("invalid order: %s (product %d)", e.Reason, e.ProductID)
	}
	return "invalid order: " + e.Reason
}

func (e *InvalidOrderError) Unwrap() error {
	return ErrValidation
}

func InvalidOrder(reason string) error {
	return &InvalidOrderError{Reason: reason}
}

func InvalidOrderProduct(reason string, productID int64) error {
	return &InvalidOrderError{Reason: reason, ProductID: productID}
}
