package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusCreated OrderStatus = "created"
	// reserved for payment and cancellation flows
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
)

const EventOrderCreated = "order.created"

// LineRequest is one requested cart line. Prices never travel with it.
type LineRequest struct {
	ProductID int64
	Quantity  int
}

type OrderLine struct {
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
}

type Order struct {
	ID        int64
	UserID    int64
	Status    OrderStatus
	Total     decimal.Decimal
	Lines     []OrderLine
	CreatedAt time.Time
}

type OrderEvent struct {
	ID          int64
	OrderID     int64
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
	PublishedAt *time.Time
}
