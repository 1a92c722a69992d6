package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"caffinity/internal/auth"
	"caffinity/internal/handler"
	"caffinity/internal/metrics"
	"caffinity/internal/model"
	"caffinity/internal/service"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAuth = auth.Config{Secret: "router-secret", Issuer: "caffinity", TTL: time.Hour}

type stubProducts struct{ service.ProductService }

func (stubProducts) GetAll(context.Context, int, int) ([]model.Product, error) {
	return []model.Product{{ID: "P001", Name: "Espresso", Price: decimal.NewFromInt(20000)}}, nil
}

type stubCart struct{ service.CartService }

func (stubCart) List(context.Context, string) ([]model.CartLine, error) {
	return []model.CartLine{}, nil
}

type stubOrders struct{ service.OrderService }

func (stubOrders) ListAll(context.Context) ([]model.Order, error) {
	return []model.Order{}, nil
}

func (stubOrders) GetByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	return &model.Order{ID: id, UserID: "user-1", Status: model.StatusPending}, nil
}

type stubStats struct{ service.StatsService }

func (stubStats) Dashboard(context.Context) (*model.DashboardStats, error) {
	return &model.DashboardStats{RecentOrders: []model.OrderSummary{}}, nil
}

func newTestRouter(t *testing.T) (http.Handler, *prometheus.Registry) {
	t.Helper()
	logger := zerolog.Nop()
	reg := prometheus.NewRegistry()

	h := Handlers{
		Products: handler.NewProductHandler(stubProducts{}, logger),
		Cart:     handler.NewCartHandler(stubCart{}, logger),
		Orders:   handler.NewOrderHandler(stubOrders{}, logger),
		Stats:    handler.NewStatsHandler(stubStats{}, logger),
	}
	return New(h, Options{
		Auth:     testAuth,
		Metrics:  metrics.NewStoreMetrics(reg),
		Gatherer: reg,
		Logger:   logger,
	}), reg
}

func bearer(t *testing.T, userID, role string) string {
	t.Helper()
	token, err := auth.MintAccessToken(testAuth, time.Now(), userID, role)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRouter_Routes(t *testing.T) {
	r, _ := newTestRouter(t)
	orderID := uuid.New()

	tests := []struct {
		name           string
		method         string
		path           string
		role           string
		expectedStatus int
	}{
		{name: "Health is public", method: http.MethodGet, path: "/health", expectedStatus: http.StatusOK},
		{name: "API requires a token", method: http.MethodGet, path: "/api/products", expectedStatus: http.StatusUnauthorized},
		{name: "Customer lists products", method: http.MethodGet, path: "/api/products", role: auth.RoleCustomer, expectedStatus: http.StatusOK},
		{name: "Customer cannot create products", method: http.MethodPost, path: "/api/products", role: auth.RoleCustomer, expectedStatus: http.StatusForbidden},
		{name: "Customer reads cart", method: http.MethodGet, path: "/api/cart", role: auth.RoleCustomer, expectedStatus: http.StatusOK},
		{name: "Customer reads own order", method: http.MethodGet, path: "/api/orders/" + orderID.String(), role: auth.RoleCustomer, expectedStatus: http.StatusOK},
		{name: "Customer cannot list all orders", method: http.MethodGet, path: "/api/orders/admin/all", role: auth.RoleCustomer, expectedStatus: http.StatusForbidden},
		{name: "Operator lists all orders", method: http.MethodGet, path: "/api/orders/admin/all", role: auth.RoleOperator, expectedStatus: http.StatusOK},
		{name: "Customer cannot change status", method: http.MethodPut, path: "/api/orders/" + orderID.String() + "/status", role: auth.RoleCustomer, expectedStatus: http.StatusForbidden},
		{name: "Customer cannot see dashboard", method: http.MethodGet, path: "/api/dashboard/stats", role: auth.RoleCustomer, expectedStatus: http.StatusForbidden},
		{name: "Operator sees dashboard", method: http.MethodGet, path: "/api/dashboard/stats", role: auth.RoleOperator, expectedStatus: http.StatusOK},
		{name: "Unknown route", method: http.MethodGet, path: "/api/nope", role: auth.RoleCustomer, expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.role != "" {
				req.Header.Set("Authorization", bearer(t, "user-1", tt.role))
			}
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Authorization", bearer(t, "user-1", auth.RoleCustomer))
	r.ServeHTTP(httptest.NewRecorder(), req)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_request_duration_seconds")
	assert.Contains(t, w.Body.String(), `route="/api/products`)
}

func TestRouter_CORSPreflight(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/orders", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
