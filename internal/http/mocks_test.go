package http

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nutricoach/nutricoach/internal/domain"
	"github.com/nutricoach/nutricoach/internal/orders"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type mockProducts struct {
	products []*domain.Product
	err      error
}

func (m *mockProducts) ListProducts(context.Context) ([]*domain.Product, error) {
	return m.products, m.err
}

func (m *mockProducts) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, domain.ErrNotFound
}

type mockOrders struct {
	result    *orders.Result
	order     *domain.Order
	err       error
	calls     int
	gotUserID int64
	gotLines  []domain.LineRequest
}

func (m *mockOrders) CreateOrder(_ context.Context, userID int64, lines []domain.LineRequest) (*orders.Result, error) {
	m.calls++
	m.gotUserID = userID
	m.gotLines = lines
	return m.result, m.err
}

func (m *mockOrders) GetOrder(context.Context, int64) (*domain.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

type mockPatient struct {
	plan    *domain.Plan
	metrics []*domain.Metric
	events  []*domain.CalendarEvent
	err     error
	userID  int64
}

func (m *mockPatient) GetLatestPlan(_ context.Context, userID int64) (*domain.Plan, error) {
	m.userID = userID
	if m.err != nil {
		return nil, m.err
	}
	if m.plan == nil {
		return nil, domain.ErrNotFound
	}
	return m.plan, nil
}

func (m *mockPatient) ListMetrics(_ context.Context, userID int64) ([]*domain.Metric, error) {
	m.userID = userID
	return m.metrics, m.err
}

func (m *mockPatient) ListCalendarEvents(_ context.Context, userID int64) ([]*domain.CalendarEvent, error) {
	m.userID = userID
	return m.events, m.err
}

type mockChat struct {
	configured bool
	reply      string
	err        error
	got        string
}

func (m *mockChat) Configured() bool { return m.configured }

func (m *mockChat) Reply(_ context.Context, message string) (string, error) {
	m.got = message
	return m.reply, m.err
}

type testDeps struct {
	products *mockProducts
	orders   *mockOrders
	patient  *mockPatient
	chat     *mockChat
}

func newTestDeps() *testDeps {
	return &testDeps{
		products: &mockProducts{products: []*domain.Product{
			{ID: 1, Name: "Omega 3 Premium", Description: "Cápsulas", Price: decimal.NewFromInt(80)},
			{ID: 2, Name: "Multivitamínico Mujer", Price: decimal.NewFromInt(65), ImageURL: "https://example.com/m.png"},
		}},
		orders:  &mockOrders{},
		patient: &mockPatient{},
		chat:    &mockChat{configured: true},
	}
}

func (d *testDeps) router() *chi.Mux {
	return NewRouter(RouterConfig{
		RequestTimeout: 5 * time.Second,
		MaxBodyBytes:   1 << 20,
		CORSOrigins:    []string{"*"},
	}, Handlers{
		Products: NewProductHandler(d.products, 5*time.Second),
		Orders:   NewOrderHandler(d.orders, d.orders, 5*time.Second),
		Patient:  NewPatientHandler(d.patient, 5*time.Second),
		Chat:     NewChatHandler(d.chat),
	}, zerolog.Nop())
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
