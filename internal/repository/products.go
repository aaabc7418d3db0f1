package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/nutricoach/nutricoach/internal/domain"
	"github.com/shopspring/decimal"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

func (r *Repository) GetAllProducts(ctx context.Context) ([]*domain.Product, error) {
	query := `
		SELECT id, name, description, price, image_url
		FROM products
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]*domain.Product, 0)
	for rows.Next() {
		p := &domain.Product{}
		err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Description,
			&p.Price,
			&p.ImageURL,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return products, nil
}

func (r *Repository) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	query := `
		SELECT id, name, description, price, image_url
		FROM products
		WHERE id = $1
	`

	p := &domain.Product{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.ImageURL,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product: %w", err)
	}
	return p, nil
}

// UpdateProductPrice reprices a product. Products already referenced by an
// order line keep their price and the call fails with ErrPriceLocked.
func (r *Repository) UpdateProductPrice(ctx context.Context, id int64, price decimal.Decimal) error {
	if price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", domain.ErrValidation)
	}

	res, err := r.db.ExecContext(ctx, `UPDATE products SET price = $1 WHERE id = $2`, price.InexactFloat64(), id)
	if err != nil {
		if isPriceLocked(err) {
			return ErrPriceLocked
		}
		return fmt.Errorf("update product price: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update product price: %w", err)
	}
	if n == 0 {
		return ErrProductNotFound
	}
	return nil
}

// isPriceLocked reports whether err was raised by the products_price_locked
// trigger. The message check covers drivers built without extended result codes.
func isPriceLocked(err error) bool {
	var sqlErr *sqlite.Error
	if !errors.As(err, &sqlErr) {
		return false
	}
	switch sqlErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_TRIGGER:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(sqlErr.Error(), "price is locked")
	}
	return false
}
