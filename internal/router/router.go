package router

import (
	"net/http"

	"caffinity/internal/auth"
	"caffinity/internal/handler"
	"caffinity/internal/metrics"
	"caffinity/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Products *handler.ProductHandler
	Cart     *handler.CartHandler
	Orders   *handler.OrderHandler
	Stats    *handler.StatsHandler
}

// Options configures the router.
type Options struct {
	Auth     auth.Config
	Metrics  *metrics.StoreMetrics
	Gatherer prometheus.Gatherer
	Logger   zerolog.Logger
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, opts Options) http.Handler {
	r := chi.NewRouter()

	// Recovery -> Logging -> Metrics -> CORS
	r.Use(middleware.Recovery(opts.Logger))
	r.Use(middleware.Logging(opts.Logger))
	r.Use(middleware.Metrics(opts.Metrics))
	r.Use(middleware.CORS)

	// Health check endpoint (no authentication required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	if opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	operatorOnly := middleware.RequireOperator(opts.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.BearerAuth(opts.Auth, opts.Logger))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Products.GetAll)
			r.Get("/{id}", h.Products.GetByID)

			r.Group(func(r chi.Router) {
				r.Use(operatorOnly)
				r.Post("/", h.Products.Create)
				r.Put("/{id}", h.Products.Update)
				r.Delete("/{id}", h.Products.Delete)
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.Cart.List)
			r.Post("/", h.Cart.Add)
			r.Delete("/", h.Cart.Clear)
			r.Put("/{lineId}", h.Cart.Update)
			r.Delete("/{lineId}", h.Cart.Remove)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.Orders.Create)
			r.Get("/", h.Orders.Mine)

			r.Group(func(r chi.Router) {
				r.Use(operatorOnly)
				r.Get("/admin/all", h.Orders.All)
				r.Put("/{id}/status", h.Orders.UpdateStatus)
			})

			r.Get("/{id}", h.Orders.GetByID)
		})

		r.With(operatorOnly).Get("/dashboard/stats", h.Stats.Dashboard)
	})

	return r
}
