// Package ledger resolves product identifiers to their current,
// authoritative unit prices.
package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/nutricoach/nutricoach/internal/repository"
	"github.com/shopspring/decimal"
)

type Ledger struct{}

func New() *Ledger {
	return &Ledger{}
}

// Prices returns the unit price of every id that exists. Unknown ids are
// absent from the result. An empty id set never reaches q.
func (l *Ledger) Prices(ctx context.Context, q repository.Querier, ids []int64) (map[int64]decimal.Decimal, error) {
	prices := make(map[int64]decimal.Decimal, len(ids))
	if len(ids) == 0 {
		return prices, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf(`SELECT id, price FROM products WHERE id IN (%s)`, strings.Join(placeholders, ", "))

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query prices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id    int64
			price decimal.Decimal
		)
		if err := rows.Scan(&id, &price); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		prices[id] = price
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return prices, nil
}
