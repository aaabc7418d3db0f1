package http

import (
	"context"
	"net/http"
	"time"

	"github.com/nutricoach/nutricoach/internal/domain"
)

type PatientStore interface {
	GetLatestPlan(ctx context.Context, userID int64) (*domain.Plan, error)
	ListMetrics(ctx context.Context, userID int64) ([]*domain.Metric, error)
	ListCalendarEvents(ctx context.Context, userID int64) ([]*domain.CalendarEvent, error)
}

// PatientHandler serves the read-only plan, progress and calendar views.
type PatientHandler struct {
	store   PatientStore
	timeout time.Duration
}

func NewPatientHandler(store PatientStore, timeout time.Duration) *PatientHandler {
	return &PatientHandler{
		store:   store,
		timeout: timeout,
	}
}

type PlanDTO struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type MetricDTO struct {
	ID      int64    `json:"id"`
	Date    string   `json:"date"`
	Weight  *float64 `json:"weight"`
	BodyFat *float64 `json:"body_fat"`
	Notes   *string  `json:"notes"`
}

type CalendarEventDTO struct {
	ID    int64  `json:"id"`
	Date  string `json:"date"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

func (h *PatientHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID, ok := pathID(r, "userId")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_user_id", "userId must be a positive integer")
		return
	}

	plan, err := h.store.GetLatestPlan(ctx, userID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, PlanDTO{
		ID:          plan.ID,
		Title:       plan.Title,
		Description: plan.Description,
		CreatedAt:   plan.CreatedAt,
	})
}

func (h *PatientHandler) ListMetrics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID, ok := pathID(r, "userId")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_user_id", "userId must be a positive integer")
		return
	}

	metrics, err := h.store.ListMetrics(ctx, userID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	out := make([]MetricDTO, 0, len(metrics))
	for _, m := range metrics {
		out = append(out, MetricDTO{ID: m.ID, Date: m.Date, Weight: m.Weight, BodyFat: m.BodyFat, Notes: m.Notes})
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *PatientHandler) ListCalendar(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID, ok := pathID(r, "userId")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_user_id", "userId must be a positive integer")
		return
	}

	events, err := h.store.ListCalendarEvents(ctx, userID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	out := make([]CalendarEventDTO, 0, len(events))
	for _, e := range events {
		out = append(out, CalendarEventDTO{ID: e.ID, Date: e.Date, Title: e.Title, Type: e.Type})
	}
	respondJSON(w, http.StatusOK, out)
}
