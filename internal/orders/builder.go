package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nutricoach/nutricoach/internal/domain"
	"github.com/nutricoach/nutricoach/internal/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type PriceLedger interface {
	Prices(ctx context.Context, q repository.Querier, ids []int64) (map[int64]decimal.Decimal, error)
}

type Store interface {
	WithTx(ctx context.Context, fn func(tx *repository.Tx) error) error
}

type Result struct {
	OrderID int64
	Status  domain.OrderStatus
	Total   decimal.Decimal
}

// Builder turns a cart payload into a persisted order. Prices come only
// from the ledger, read inside the same transaction that writes the order.
type Builder struct {
	store  Store
	ledger PriceLedger
	log    zerolog.Logger
}

func NewBuilder(store Store, ledger PriceLedger, log zerolog.Logger) *Builder {
	return &Builder{
		store:  store,
		ledger: ledger,
		log:    log.With().Str("component", "order_builder").Logger(),
	}
}

func (b *Builder) CreateOrder(ctx context.Context, userID int64, lines []domain.LineRequest) (*Result, error) {
	if err := validate(userID, lines); err != nil {
		return nil, err
	}

	ids := distinctProductIDs(lines)
	var order *domain.Order

	err := b.store.WithTx(ctx, func(tx *repository.Tx) error {
		exists, err := tx.UserExists(ctx, userID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.InvalidOrder("unknown user")
		}

		prices, err := b.ledger.Prices(ctx, tx, ids)
		if err != nil {
			return err
		}
		if len(prices) == 0 {
			return domain.InvalidOrder("no matching products")
		}

		order, err = price(userID, lines, prices)
		if err != nil {
			return err
		}

		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}
		for _, line := range order.Lines {
			if err := tx.InsertOrderLine(ctx, order.ID, line); err != nil {
				return err
			}
		}

		payload, err := eventPayload(order)
		if err != nil {
			return err
		}
		return tx.InsertOrderEvent(ctx, order.ID, domain.EventOrderCreated, payload)
	})
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			b.log.Info().Err(err).Int64("user_id", userID).Msg("order rejected")
			return nil, err
		}
		b.log.Error().Err(err).Int64("user_id", userID).Msg("order persistence failed")
		return nil, fmt.Errorf("create order: %w: %w", domain.ErrStorage, err)
	}

	b.log.Info().
		Int64("order_id", order.ID).
		Int64("user_id", userID).
		Int("lines", len(order.Lines)).
		Str("total", order.Total.String()).
		Msg("order created")

	return &Result{
		OrderID: order.ID,
		Status:  order.Status,
		Total:   order.Total,
	}, nil
}

func validate(userID int64, lines []domain.LineRequest) error {
	if userID <= 0 {
		return domain.InvalidOrder("userId is required")
	}
	if len(lines) == 0 {
		return domain.InvalidOrder("cart is empty")
	}
	for _, l := range lines {
		if l.ProductID <= 0 {
			return domain.InvalidOrder("productId must be a positive integer")
		}
		if l.Quantity <= 0 {
			return domain.InvalidOrderProduct("quantity must be a positive integer", l.ProductID)
		}
	}
	return nil
}

func distinctProductIDs(lines []domain.LineRequest) []int64 {
	seen := make(map[int64]struct{}, len(lines))
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}
	return ids
}

// price builds the order in request order; one missing product rejects all.
func price(userID int64, lines []domain.LineRequest, prices map[int64]decimal.Decimal) (*domain.Order, error) {
	order := &domain.Order{
		UserID: userID,
		Status: domain.OrderStatusCreated,
		Total:  decimal.Zero,
		Lines:  make([]domain.OrderLine, 0, len(lines)),
	}

	for _, l := range lines {
		unit, ok := prices[l.ProductID]
		if !ok {
			return nil, domain.InvalidOrderProduct("unknown product", l.ProductID)
		}
		order.Lines = append(order.Lines, domain.OrderLine{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: unit,
		})
		order.Total = order.Total.Add(unit.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return order, nil
}

type eventLine struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type orderCreatedEvent struct {
	OrderID   int64           `json:"order_id"`
	UserID    int64           `json:"user_id"`
	Status    string          `json:"status"`
	Total     decimal.Decimal `json:"total"`
	Items     []eventLine     `json:"items"`
	CreatedAt time.Time       `json:"created_at"`
}

func eventPayload(order *domain.Order) ([]byte, error) {
	ev := orderCreatedEvent{
		OrderID:   order.ID,
		UserID:    order.UserID,
		Status:    string(order.Status),
		Total:     order.Total,
		Items:     make([]eventLine, 0, len(order.Lines)),
		CreatedAt: order.CreatedAt,
	}
	for _, l := range order.Lines {
		ev.Items = append(ev.Items, eventLine{ProductID: l.ProductID, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal order event: %w", err)
	}
	return payload, nil
}
