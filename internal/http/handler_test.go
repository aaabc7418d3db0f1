package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nutricoach/nutricoach/internal/domain"
	"github.com/nutricoach/nutricoach/internal/orders"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestRoot(t *testing.T) {
	rec := do(t, newTestDeps().router(), "GET", "/", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"message":"API Dra Laura funcionando"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestDeps().router(), "GET", "/health", "")

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestRequestID_Propagated(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-ID", "test-request-123")
	rec := httptest.NewRecorder()

	newTestDeps().router().ServeHTTP(rec, req)

	assert.Equal(t, "test-request-123", rec.Header().Get("X-Request-ID"))
}

func TestListProducts_Success(t *testing.T) {
	rec := do(t, newTestDeps().router(), "GET", "/products", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[
		{"id":1,"name":"Omega 3 Premium","description":"Cápsulas","price":80},
		{"id":2,"name":"Multivitamínico Mujer","description":"","price":65,"image_url":"https://example.com/m.png"}
	]`, rec.Body.String())
}

func TestListProducts_EmptyIsArray(t *testing.T) {
	d := newTestDeps()
	d.products.products = nil

	rec := do(t, d.router(), "GET", "/products", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestListProducts_StorageError(t *testing.T) {
	d := newTestDeps()
	d.products.err = errors.New("disk I/O error")

	rec := do(t, d.router(), "GET", "/products", "")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "internal_error", resp.Code)
	assert.NotContains(t, resp.Error, "disk")
}

func TestGetProduct(t *testing.T) {
	router := newTestDeps().router()

	rec := do(t, router, "GET", "/products/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var p ProductDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))
	assert.Equal(t, "Multivitamínico Mujer", p.Name)

	rec = do(t, router, "GET", "/products/42", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, "GET", "/products/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_product_id", decodeError(t, rec).Code)
}

func TestCreateOrder_Success(t *testing.T) {
	d := newTestDeps()
	d.orders.result = &orders.Result{OrderID: 7, Status: domain.OrderStatusCreated, Total: decimal.NewFromInt(225)}

	rec := do(t, d.router(), "POST", "/orders",
		`{"userId":1,"items":[{"productId":1,"quantity":2,"price":1},{"productId":2,"quantity":1}]}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"orderId":7,"status":"created","total":225}`, rec.Body.String())
	assert.Equal(t, int64(1), d.orders.gotUserID)
	assert.Equal(t, []domain.LineRequest{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}}, d.orders.gotLines)
}

func TestCreateOrder_ValidationFailuresNeverReachBuilder(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `invalid json`},
		{"missing items", `{"userId":1}`},
		{"empty items", `{"userId":1,"items":[]}`},
		{"missing user", `{"items":[{"productId":1,"quantity":1}]}`},
		{"zero quantity", `{"userId":1,"items":[{"productId":1,"quantity":0}]}`},
		{"negative quantity", `{"userId":1,"items":[{"productId":1,"quantity":-2}]}`},
		{"zero product", `{"userId":1,"items":[{"productId":0,"quantity":1}]}`},
		{"string quantity", `{"userId":1,"items":[{"productId":1,"quantity":"2"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDeps()

			rec := do(t, d.router(), "POST", "/orders", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decodeError(t, rec).Error)
			assert.Zero(t, d.orders.calls)
		})
	}
}

func TestCreateOrder_InvalidOrder(t *testing.T) {
	d := newTestDeps()
	d.orders.err = domain.InvalidOrderProduct("unknown product", 999)

	rec := do(t, d.router(), "POST", "/orders", `{"userId":1,"items":[{"productId":999,"quantity":1}]}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Error, "999")
}

func TestCreateOrder_StorageError(t *testing.T) {
	d := newTestDeps()
	d.orders.err = fmt.Errorf("create order: %w: %w", domain.ErrStorage, errors.New("database is locked"))

	rec := do(t, d.router(), "POST", "/orders", `{"userId":1,"items":[{"productId":1,"quantity":1}]}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "storage_error", decodeError(t, rec).Code)
}

func TestCreateOrder_StorageTimeoutIsStorageError(t *testing.T) {
	d := newTestDeps()
	d.orders.err = fmt.Errorf("create order: %w: %w", domain.ErrStorage,
		fmt.Errorf("begin transaction: %w", context.DeadlineExceeded))

	rec := do(t, d.router(), "POST", "/orders", `{"userId":1,"items":[{"productId":1,"quantity":1}]}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "storage_error", resp.Code)
	assert.NotContains(t, resp.Error, "deadline")
}

func TestCreateOrder_BodyTooLarge(t *testing.T) {
	d := newTestDeps()
	router := NewRouter(RouterConfig{RequestTimeout: time.Second, MaxBodyBytes: 16, CORSOrigins: []string{"*"}},
		Handlers{
			Products: NewProductHandler(d.products, time.Second),
			Orders:   NewOrderHandler(d.orders, d.orders, time.Second),
			Patient:  NewPatientHandler(d.patient, time.Second),
			Chat:     NewChatHandler(d.chat),
		}, testLogger())

	rec := do(t, router, "POST", "/orders", `{"userId":1,"items":[{"productId":1,"quantity":1}]}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, d.orders.calls)
}

func TestGetOrder(t *testing.T) {
	d := newTestDeps()
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	d.orders.order = &domain.Order{
		ID: 3, UserID: 1, Status: domain.OrderStatusCreated, Total: decimal.NewFromInt(160), CreatedAt: created,
		Lines: []domain.OrderLine{{ProductID: 1, Quantity: 2, UnitPrice: decimal.NewFromInt(80)}},
	}

	rec := do(t, d.router(), "GET", "/orders/3", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"orderId":3,"userId":1,"status":"created","total":160,
		"created_at":"2025-01-02T03:04:05Z","items":[{"productId":1,"quantity":2,"unitPrice":80}]}`, rec.Body.String())
}

func TestGetOrder_NotFoundAndBadID(t *testing.T) {
	d := newTestDeps()
	d.orders.err = fmt.Errorf("order %w", domain.ErrNotFound)
	router := d.router()

	assert.Equal(t, http.StatusNotFound, do(t, router, "GET", "/orders/5", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, "GET", "/orders/x", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, "GET", "/orders/-1", "").Code)
}

func TestGetPlan(t *testing.T) {
	d := newTestDeps()
	d.patient.plan = &domain.Plan{ID: 1, UserID: 1, Title: "Plan inicial", Description: "Desayuno", CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}

	rec := do(t, d.router(), "GET", "/plan/1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":1,"title":"Plan inicial","description":"Desayuno","created_at":"2025-01-01T00:00:00Z"}`, rec.Body.String())
	assert.Equal(t, int64(1), d.patient.userID)
}

func TestGetPlan_NotFound(t *testing.T) {
	rec := do(t, newTestDeps().router(), "GET", "/plan/2", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Code)
}

func TestPatientRoutes_NonNumericUser(t *testing.T) {
	router := newTestDeps().router()

	for _, path := range []string{"/plan/abc", "/metrics/abc", "/calendar/abc"} {
		rec := do(t, router, "GET", path, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		assert.Equal(t, "invalid_user_id", decodeError(t, rec).Code, path)
	}
}

func TestListMetrics_NullsPreserved(t *testing.T) {
	d := newTestDeps()
	w := 70.5
	notes := "Inicio"
	d.patient.metrics = []*domain.Metric{
		{ID: 1, Date: "2025-01-01", Weight: &w, Notes: &notes},
		{ID: 2, Date: "2025-01-15"},
	}

	rec := do(t, d.router(), "GET", "/metrics/1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[
		{"id":1,"date":"2025-01-01","weight":70.5,"body_fat":null,"notes":"Inicio"},
		{"id":2,"date":"2025-01-15","weight":null,"body_fat":null,"notes":null}
	]`, rec.Body.String())
}

func TestListCalendar(t *testing.T) {
	d := newTestDeps()
	d.patient.events = []*domain.CalendarEvent{{ID: 1, Date: "2025-02-01", Title: "Control", Type: "consulta"}}

	rec := do(t, d.router(), "GET", "/calendar/1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1,"date":"2025-02-01","title":"Control","type":"consulta"}]`, rec.Body.String())
}

func TestListCalendar_EmptyIsArray(t *testing.T) {
	rec := do(t, newTestDeps().router(), "GET", "/calendar/9", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestChat_Success(t *testing.T) {
	d := newTestDeps()
	d.chat.reply = "Hola, ¿en qué puedo ayudarte?"

	rec := do(t, d.router(), "POST", "/chat", `{"message":"hola"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"reply":"Hola, ¿en qué puedo ayudarte?"}`, rec.Body.String())
	assert.Equal(t, "hola", d.chat.got)
}

func TestChat_BadMessage(t *testing.T) {
	for _, body := range []string{`{}`, `{"message":""}`, `{"message":42}`, `{"message":null}`, `nope`} {
		rec := do(t, newTestDeps().router(), "POST", "/chat", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestChat_NotConfiguredCheckedFirst(t *testing.T) {
	d := newTestDeps()
	d.chat.configured = false

	rec := do(t, d.router(), "POST", "/chat", `{}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "chat_not_configured", decodeError(t, rec).Code)
}

func TestChat_UpstreamFailure(t *testing.T) {
	d := newTestDeps()
	d.chat.err = fmt.Errorf("generate reply: %w", domain.ErrUpstream)

	rec := do(t, d.router(), "POST", "/chat", `{"message":"hola"}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "upstream_error", decodeError(t, rec).Code)
}

func TestCORS_Preflight(t *testing.T) {
	req := httptest.NewRequest("OPTIONS", "/orders", nil)
	req.Header.Set("Origin", "http://localhost:8081")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()

	newTestDeps().router().ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
