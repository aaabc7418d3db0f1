// Package screen holds the view models behind the client screens. Loading
// failures are folded into the view state and never returned to callers.
package screen

import (
	"context"

	"github.com/nutricoach/nutricoach/pkg/client"
	"github.com/rs/zerolog"
)

type State int

const (
	StateReady State = iota
	StateEmpty
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateEmpty:
		return "empty"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type API interface {
	ListProducts(ctx context.Context) ([]client.Product, error)
	GetPlan(ctx context.Context, userID int64) (*client.Plan, error)
	ListMetrics(ctx context.Context, userID int64) ([]client.Metric, error)
	ListCalendar(ctx context.Context, userID int64) ([]client.CalendarEvent, error)
	Chat(ctx context.Context, message string) (string, error)
}

type Home struct {
	Title    string
	Subtitle string
	Intro    string
}

func NewHome() Home {
	return Home{
		Title:    "Bienvenid@",
		Subtitle: "App Dra. Laura Rozo",
		Intro:    "Aquí vas a ver tu plan nutricional, tu progreso, tu calendario y nuestros suplementos seleccionados.",
	}
}

type PlanView struct {
	Title string
	State State
	Plan  *client.Plan
}

func LoadPlan(ctx context.Context, api API, userID int64, log zerolog.Logger) PlanView {
	v := PlanView{Title: "Tu plan nutricional"}

	plan, err := api.GetPlan(ctx, userID)
	switch {
	case client.IsNotFound(err):
		v.State = StateEmpty
	case err != nil:
		log.Warn().Err(err).Msg("failed to load plan")
		v.State = StateFailed
	default:
		v.State = StateReady
		v.Plan = plan
	}
	return v
}

type ProgressView struct {
	Title   string
	State   State
	Metrics []client.Metric
}

func LoadProgress(ctx context.Context, api API, userID int64, log zerolog.Logger) ProgressView {
	v := ProgressView{Title: "Tu progreso"}

	metrics, err := api.ListMetrics(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load metrics")
		v.State = StateFailed
		return v
	}
	v.Metrics = metrics
	v.State = listState(len(metrics))
	return v
}

type CalendarView struct {
	Title  string
	State  State
	Events []client.CalendarEvent
}

func LoadCalendar(ctx context.Context, api API, userID int64, log zerolog.Logger) CalendarView {
	v := CalendarView{Title: "Calendario"}

	events, err := api.ListCalendar(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load calendar")
		v.State = StateFailed
		return v
	}
	v.Events = events
	v.State = listState(len(events))
	return v
}

func listState(n int) State {
	if n == 0 {
		return StateEmpty
	}
	return StateReady
}
