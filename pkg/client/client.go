// Package client is a typed HTTP client for the nutricoach API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nutricoach/nutricoach/pkg/cart"
	"github.com/shopspring/decimal"
)

const (
	DefaultTimeout = 30 * time.Second

	maxErrorBody = 64 << 10
)

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default client. A nil client is ignored.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   5 * time.Second,
				ResponseHeaderTimeout: DefaultTimeout,
				MaxIdleConns:          10,
				IdleConnTimeout:       90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"image_url,omitempty"`
}

// CartProduct converts the listing into the cart's view of a product.
func (p Product) CartProduct() cart.Product {
	return cart.Product{ID: p.ID, Name: p.Name, Price: decimal.NewFromFloat(p.Price)}
}

type Plan struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type Metric struct {
	ID      int64    `json:"id"`
	Date    string   `json:"date"`
	Weight  *float64 `json:"weight"`
	BodyFat *float64 `json:"body_fat"`
	Notes   *string  `json:"notes"`
}

type CalendarEvent struct {
	ID    int64  `json:"id"`
	Date  string `json:"date"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

type OrderItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type OrderCreated struct {
	OrderID int64   `json:"orderId"`
	Status  string  `json:"status"`
	Total   float64 `json:"total"`
}

type OrderLine struct {
	ProductID int64   `json:"productId"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

type Order struct {
	OrderID   int64       `json:"orderId"`
	UserID    int64       `json:"userId"`
	Status    string      `json:"status"`
	Total     float64     `json:"total"`
	CreatedAt time.Time   `json:"created_at"`
	Items     []OrderLine `json:"items"`
}

type createOrderRequest struct {
	UserID int64       `json:"userId"`
	Items  []OrderItem `json:"items"`
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var out []Product
	if err := c.do(ctx, http.MethodGet, "/products", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetProduct(ctx context.Context, id int64) (*Product, error) {
	var out Product
	if err := c.do(ctx, http.MethodGet, "/products/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateOrder(ctx context.Context, userID int64, items []OrderItem) (*OrderCreated, error) {
	var out OrderCreated
	if err := c.do(ctx, http.MethodPost, "/orders", createOrderRequest{UserID: userID, Items: items}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetOrder(ctx context.Context, id int64) (*Order, error) {
	var out Order
	if err := c.do(ctx, http.MethodGet, "/orders/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetPlan(ctx context.Context, userID int64) (*Plan, error) {
	var out Plan
	if err := c.do(ctx, http.MethodGet, "/plan/"+strconv.FormatInt(userID, 10), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListMetrics(ctx context.Context, userID int64) ([]Metric, error) {
	var out []Metric
	if err := c.do(ctx, http.MethodGet, "/metrics/"+strconv.FormatInt(userID, 10), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListCalendar(ctx context.Context, userID int64) ([]CalendarEvent, error) {
	var out []CalendarEvent
	if err := c.do(ctx, http.MethodGet, "/calendar/"+strconv.FormatInt(userID, 10), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	var out chatResponse
	if err := c.do(ctx, http.MethodPost, "/chat", chatRequest{Message: message}, &out); err != nil {
		return "", err
	}
	return out.Reply, nil
}

// PlaceOrder lets the client act as the cart's order placer.
func (c *Client) PlaceOrder(ctx context.Context, userID int64, lines []cart.Line) (*cart.Receipt, error) {
	items := make([]OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, OrderItem{ProductID: l.ProductID, Quantity: l.Quantity})
	}

	created, err := c.CreateOrder(ctx, userID, items)
	if err != nil {
		return nil, err
	}
	return &cart.Receipt{
		OrderID: created.OrderID,
		Status:  created.Status,
		Total:   decimal.NewFromFloat(created.Total),
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return apiErr
	}

	var body errorResponse
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.Code = body.Code
	}
	return apiErr
}
