package middleware

import (
	"context"
	"net/http"
	"strings"

	"caffinity/internal/auth"
	"caffinity/internal/model"

	"github.com/rs/zerolog"
)

type claimsKey struct{}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the verified claims of the caller.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return claims, ok && claims != nil
}

// BearerAuth verifies the Authorization bearer token and stores its claims in
// the request context. Missing or invalid tokens get a 401.
func BearerAuth(cfg auth.Config, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || strings.TrimSpace(token) == "" {
				logger.Warn().Str("path", r.URL.Path).Msg("missing bearer token")
				writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, model.ErrUnauthorised.Message)
				return
			}

			claims, err := auth.ParseAccessToken(cfg, strings.TrimSpace(token))
			if err != nil {
				logger.Warn().Err(err).Str("path", r.URL.Path).Msg("invalid bearer token")
				writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, model.ErrUnauthorised.Message)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireOperator rejects callers without the operator role with a 403.
func RequireOperator(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, model.ErrUnauthorised.Message)
				return
			}
			if !claims.IsOperator() {
				logger.Warn().
					Str("user_id", claims.UserID).
					Str("path", r.URL.Path).
					Msg("operator role required")
				writeError(w, http.StatusForbidden, model.ErrCodeForbidden, model.ErrForbidden.Message)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
