package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nutricoach/nutricoach/internal/domain"
)

func (r *Repository) GetLatestPlan(ctx context.Context, userID int64) (*domain.Plan, error) {
	query := `
		SELECT id, user_id, title, description, created_at
		FROM plans
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	var p domain.Plan
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.ID,
		&p.UserID,
		&p.Title,
		&p.Description,
		&p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query latest plan: %w", err)
	}
	return &p, nil
}

func (r *Repository) ListMetrics(ctx context.Context, userID int64) ([]*domain.Metric, error) {
	query := `
		SELECT id, date, weight, body_fat, notes
		FROM metrics
		WHERE user_id = $1
		ORDER BY date ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer rows.Close()

	metrics := make([]*domain.Metric, 0)
	for rows.Next() {
		var (
			m       domain.Metric
			weight  sql.NullFloat64
			bodyFat sql.NullFloat64
			notes   sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.Date, &weight, &bodyFat, &notes); err != nil {
			return nil, fmt.Errorf("scan metric row: %w", err)
		}
		if weight.Valid {
			m.Weight = &weight.Float64
		}
		if bodyFat.Valid {
			m.BodyFat = &bodyFat.Float64
		}
		if notes.Valid {
			m.Notes = &notes.String
		}
		metrics = append(metrics, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return metrics, nil
}

func (r *Repository) ListCalendarEvents(ctx context.Context, userID int64) ([]*domain.CalendarEvent, error) {
	query := `
		SELECT id, date, title, type
		FROM calendar_events
		WHERE user_id = $1
		ORDER BY date ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query calendar events: %w", err)
	}
	defer rows.Close()

	events := make([]*domain.CalendarEvent, 0)
	for rows.Next() {
		var e domain.CalendarEvent
		if err := rows.Scan(&e.ID, &e.Date, &e.Title, &e.Type); err != nil {
			return nil, fmt.Errorf("scan calendar event row: %w", err)
		}
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return events, nil
}
