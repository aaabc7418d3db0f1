package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/nutricoach/nutricoach/internal/domain"
	"github.com/nutricoach/nutricoach/internal/orders"
)

type OrderCreator interface {
	CreateOrder(ctx context.Context, userID int64, lines []domain.LineRequest) (*orders.Result, error)
}

type OrderReader interface {
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
}

type OrderHandler struct {
	creator OrderCreator
	reader  OrderReader
	timeout time.Duration
}

func NewOrderHandler(creator OrderCreator, reader OrderReader, timeout time.Duration) *OrderHandler {
	return &OrderHandler{
		creator: creator,
		reader:  reader,
		timeout: timeout,
	}
}

// CreateOrderRequestDTO carries no prices; any the client sends are dropped
// by the decoder.
type CreateOrderRequestDTO struct {
	UserID int64          `json:"userId" validate:"required,gt=0"`
	Items  []OrderItemDTO `json:"items" validate:"required,min=1,dive"`
}

type OrderItemDTO struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

type CreateOrderResponseDTO struct {
	OrderID int64   `json:"orderId"`
	Status  string  `json:"status"`
	Total   float64 `json:"total"`
}

type OrderLineDTO struct {
	ProductID int64   `json:"productId"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

type OrderDTO struct {
	OrderID   int64          `json:"orderId"`
	UserID    int64          `json:"userId"`
	Status    string         `json:"status"`
	Total     float64        `json:"total"`
	CreatedAt time.Time      `json:"created_at"`
	Items     []OrderLineDTO `json:"items"`
}

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CreateOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if err := validateStruct(req); err != nil {
		handleError(w, r, err)
		return
	}

	lines := make([]domain.LineRequest, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, domain.LineRequest{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	res, err := h.creator.CreateOrder(ctx, req.UserID, lines)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, CreateOrderResponseDTO{
		OrderID: res.OrderID,
		Status:  string(res.Status),
		Total:   res.Total.InexactFloat64(),
	})
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "id must be a positive integer")
		return
	}

	order, err := h.reader.GetOrder(ctx, id)
	if err != nil {
		handleError(w, r, err)
		return
	}

	items := make([]OrderLineDTO, 0, len(order.Lines))
	for _, l := range order.Lines {
		items = append(items, OrderLineDTO{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice.InexactFloat64(),
		})
	}

	respondJSON(w, http.StatusOK, OrderDTO{
		OrderID:   order.ID,
		UserID:    order.UserID,
		Status:    string(order.Status),
		Total:     order.Total.InexactFloat64(),
		CreatedAt: order.CreatedAt,
		Items:     items,
	})
}
