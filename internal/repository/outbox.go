package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/nutricoach/nutricoach/internal/domain"
)

func (t *Tx) InsertOrderEvent(ctx context.Context, orderID int64, eventType string, payload []byte) error {
	query := `INSERT INTO order_events (order_id, event_type, payload, created_at) VALUES ($1, $2, $3, $4)`

	_, err := t.ExecContext(ctx, query, orderID, eventType, string(payload), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert order event: %w", err)
	}
	return nil
}

func (r *Repository) GetUnpublishedEvents(ctx context.Context, limit int) ([]*domain.OrderEvent, error) {
	query := `
		SELECT id, order_id, event_type, payload, created_at
		FROM order_events
		WHERE published_at IS NULL
		ORDER BY id
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query unpublished events: %w", err)
	}
	defer rows.Close()

	events := make([]*domain.OrderEvent, 0)
	for rows.Next() {
		var (
			e       domain.OrderEvent
			payload string
		)
		if err := rows.Scan(&e.ID, &e.OrderID, &e.EventType, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order event: %w", err)
		}
		e.Payload = []byte(payload)
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return events, nil
}

func (r *Repository) MarkEventPublished(ctx context.Context, id int64) error {
	query := `UPDATE order_events SET published_at = $1 WHERE id = $2 AND published_at IS NULL`

	if _, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("mark event %d published: %w", id, err)
	}
	return nil
}
