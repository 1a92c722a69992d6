package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"caffinity/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCredentials records expiries.
type fakeCredentials struct {
	token   string
	expired atomic.Int32
}

func (f *fakeCredentials) Token() string { return f.token }

func (f *fakeCredentials) Expire(ctx context.Context) { f.expired.Add(1) }

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *fakeCredentials) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	creds := &fakeCredentials{token: "token-123"}
	client := NewClient(Config{
		BaseURL:            server.URL + "/",
		Timeout:            2 * time.Second,
		BreakerFailures:    2,
		BreakerOpenTimeout: time.Minute,
	}, creds, zerolog.Nop())
	return client, creds
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_GetCart(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/cart", r.URL.Path)
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, []model.CartLine{
			{LineID: "l1", ProductID: "latte", Name: "Latte", UnitPrice: decimal.NewFromInt(25000), Quantity: 2},
		})
	})

	lines, err := client.GetCart(context.Background())

	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "l1", lines[0].LineID)
	assert.True(t, decimal.NewFromInt(25000).Equal(lines[0].UnitPrice))
}

func TestClient_AddCartItemSendsPayload(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req model.AddToCartRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "latte", req.ProductID)
		assert.Equal(t, 3, req.Quantity)

		writeJSON(w, http.StatusCreated, model.CartLine{LineID: "l1"})
	})

	require.NoError(t, client.AddCartItem(context.Background(), "latte", 3))
}

func TestClient_UpdateAndRemoveCartItemPaths(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Method+" "+r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	ctx := context.Background()

	require.NoError(t, client.UpdateCartItem(ctx, "line-1", 4))
	require.NoError(t, client.RemoveCartItem(ctx, "line-1"))
	require.NoError(t, client.ClearCart(ctx))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		"PUT /api/cart/line-1",
		"DELETE /api/cart/line-1",
		"DELETE /api/cart",
	}, seen)
}

func TestClient_ErrorMessageIsSurfaced(t *testing.T) {
	client, creds := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "total amount does not reconcile"})
	})

	_, err := client.CreateOrder(context.Background(), model.CreateOrderRequest{})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "total amount does not reconcile", apiErr.Message)
	assert.Equal(t, int32(0), creds.expired.Load())
}

func TestClient_UnauthorisedExpiresCredentials(t *testing.T) {
	client, creds := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "token expired"})
	})

	_, err := client.MyOrders(context.Background())

	assert.True(t, IsUnauthorised(err))
	assert.Equal(t, int32(1), creds.expired.Load())
}

func TestClient_NotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := client.GetOrder(context.Background(), uuid.New())

	assert.True(t, IsNotFound(err))
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Empty(t, apiErr.Message, "non-JSON body leaves the message empty")
}

func TestClient_BreakerOpensOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "boom"})
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := client.GetCart(ctx)
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "boom", apiErr.Message)
	}

	_, err := client.GetCart(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(2), calls.Load(), "open breaker must not reach the server")
}

func TestClient_ClientErrorsDoNotTripBreaker(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad"})
	})

	for i := 0; i < 5; i++ {
		_, err := client.GetCart(context.Background())
		assert.NotErrorIs(t, err, ErrUnavailable)
	}
	assert.Equal(t, int32(5), calls.Load())
}

func TestClient_UpdateOrderStatus(t *testing.T) {
	id := uuid.New()
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/orders/"+id.String()+"/status", r.URL.Path)

		var req model.UpdateStatusRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, model.StatusProcessing, req.Status)

		writeJSON(w, http.StatusOK, model.Order{ID: id, Status: model.StatusProcessing})
	})

	order, err := client.UpdateOrderStatus(context.Background(), id, model.StatusProcessing)

	require.NoError(t, err)
	assert.Equal(t, model.StatusProcessing, order.Status)
}

func TestClient_NoTokenSendsNoAuthorization(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, []model.Product{{ID: "latte"}})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Timeout: time.Second}, &fakeCredentials{}, zerolog.Nop())

	products, err := client.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 1)
}
