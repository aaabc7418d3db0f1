package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nutricoach/nutricoach/internal/domain"
)

// InsertOrder writes the order header and sets order.ID and order.CreatedAt.
func (t *Tx) InsertOrder(ctx context.Context, order *domain.Order) error {
	createdAt := time.Now().UTC()
	query := `INSERT INTO orders (user_id, status, total, created_at) VALUES ($1, $2, $3, $4)`

	res, err := t.ExecContext(ctx, query,
		order.UserID,
		string(order.Status),
		order.Total.InexactFloat64(),
		createdAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	order.ID = id
	order.CreatedAt = createdAt
	return nil
}

func (t *Tx) InsertOrderLine(ctx context.Context, orderID int64, line domain.OrderLine) error {
	query := `INSERT INTO order_items (order_id, product_id, quantity, unit_price) VALUES ($1, $2, $3, $4)`

	_, err := t.ExecContext(ctx, query,
		orderID,
		line.ProductID,
		line.Quantity,
		line.UnitPrice.InexactFloat64())
	if err != nil {
		return fmt.Errorf("insert order line for product %d: %w", line.ProductID, err)
	}
	return nil
}

func (r *Repository) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	query := `SELECT id, user_id, status, total, created_at FROM orders WHERE id = $1`

	var (
		order  domain.Order
		status string
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.UserID,
		&status,
		&order.Total,
		&order.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}
	order.Status = domain.OrderStatus(status)

	lines, err := r.getOrderLines(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Lines = lines

	return &order, nil
}

func (r *Repository) CountOrders(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}

func (r *Repository) CountOrderLines(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM order_items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count order lines: %w", err)
	}
	return n, nil
}

func (r *Repository) getOrderLines(ctx context.Context, orderID int64) ([]domain.OrderLine, error) {
	query := `SELECT product_id, quantity, unit_price FROM order_items WHERE order_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	lines := make([]domain.OrderLine, 0)
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.ProductID, &line.Quantity, &line.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return lines, nil
}
