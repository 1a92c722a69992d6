package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"caffinity/internal/auth"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAuth = auth.Config{Secret: "test-secret", Issuer: "caffinity", TTL: time.Hour}

func mint(t *testing.T, cfg auth.Config, userID, role string) string {
	t.Helper()
	token, err := auth.MintAccessToken(cfg, time.Now(), userID, role)
	require.NoError(t, err)
	return token
}

func TestBearerAuth(t *testing.T) {
	otherIssuer := testAuth
	otherIssuer.Issuer = "someone-else"

	tests := []struct {
		name           string
		header         string
		expectedStatus int
		expectHandler  bool
	}{
		{name: "Valid token", header: "Bearer " + mint(t, testAuth, "user-1", auth.RoleCustomer), expectedStatus: http.StatusOK, expectHandler: true},
		{name: "Missing header", header: "", expectedStatus: http.StatusUnauthorized},
		{name: "Wrong scheme", header: "Basic abc", expectedStatus: http.StatusUnauthorized},
		{name: "Empty token", header: "Bearer ", expectedStatus: http.StatusUnauthorized},
		{name: "Garbage token", header: "Bearer not.a.jwt", expectedStatus: http.StatusUnauthorized},
		{name: "Wrong issuer", header: "Bearer " + mint(t, otherIssuer, "user-1", auth.RoleCustomer), expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser string
			handlerCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				claims, ok := ClaimsFromContext(r.Context())
				require.True(t, ok)
				gotUser = claims.UserID
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			BearerAuth(testAuth, zerolog.Nop())(next).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectHandler, handlerCalled)
			if tt.expectHandler {
				assert.Equal(t, "user-1", gotUser)
			} else {
				assert.Contains(t, w.Body.String(), `"error"`)
			}
		})
	}
}

func TestRequireOperator(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := BearerAuth(testAuth, zerolog.Nop())(RequireOperator(zerolog.Nop())(next))

	tests := []struct {
		name           string
		role           string
		expectedStatus int
	}{
		{name: "Operator", role: auth.RoleOperator, expectedStatus: http.StatusOK},
		{name: "Customer", role: auth.RoleCustomer, expectedStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/dashboard/stats", nil)
			req.Header.Set("Authorization", "Bearer "+mint(t, testAuth, "u", tt.role))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}

	t.Run("No claims", func(t *testing.T) {
		w := httptest.NewRecorder()
		RequireOperator(zerolog.Nop())(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
