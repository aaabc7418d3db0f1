package domain

import "time"

type User struct {
	ID    int64
	Name  string
	Email string
}

type Plan struct {
	ID          int64
	UserID      int64
	Title       string
	Description string
	CreatedAt   time.Time
}

// Metric values are nullable in the store; nil means "not measured".
type Metric struct {
	ID      int64
	Date    string
	Weight  *float64
	BodyFat *float64
	Notes   *string
}

type CalendarEvent struct {
	ID    int64
	Date  string
	Title string
	Type  string
}
