package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

type RouterConfig struct {
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	CORSOrigins    []string
}

type Handlers struct {
	Products *ProductHandler
	Orders   *OrderHandler
	Patient  *PatientHandler
	Chat     *ChatHandler
}

func NewRouter(cfg RouterConfig, hs Handlers, logger zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(MaxBodyMiddleware(cfg.MaxBodyBytes))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "message": "API Dra Laura funcionando"})
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", hs.Products.ListProducts)
		r.Get("/{id}", hs.Products.GetProduct)
	})
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", hs.Orders.CreateOrder)
		r.Get("/{id}", hs.Orders.GetOrder)
	})
	r.Get("/plan/{userId}", hs.Patient.GetPlan)
	r.Get("/metrics/{userId}", hs.Patient.ListMetrics)
	r.Get("/calendar/{userId}", hs.Patient.ListCalendar)
	r.Post("/chat", hs.Chat.Chat)

	return r
}
