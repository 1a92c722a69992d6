// Package auth mints and parses the bearer access tokens used by the remote store.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Roles carried in access tokens.
const (
	RoleCustomer = "customer"
	RoleOperator = "operator"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// ErrInvalidToken is returned for any token that fails parsing or validation.
var ErrInvalidToken = errors.New("invalid access token")

// Claims represents the typed JWT issued to clients.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// IsOperator reports whether the claims grant operator access.
func (c *Claims) IsOperator() bool {
	return c.Role == RoleOperator
}

// ValidRole reports whether role is a known role.
func ValidRole(role string) bool {
	return role == RoleCustomer || role == RoleOperator
}

// Config holds token signing settings.
type Config struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// MintAccessToken issues a signed JWT for userID with role.
func MintAccessToken(cfg Config, now time.Time, userID, role string) (string, error) {
	if cfg.Secret == "" {
		return "", fmt.Errorf("jwt secret is required")
	}
	if cfg.Issuer == "" {
		return "", fmt.Errorf("jwt issuer is required")
	}
	if cfg.TTL <= 0 {
		return "", fmt.Errorf("jwt ttl must be positive")
	}
	if strings.TrimSpace(userID) == "" {
		return "", fmt.Errorf("user id is required")
	}
	if !ValidRole(role) {
		return "", fmt.Errorf("invalid role %q", role)
	}

	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwtSigningMethod, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseAccessToken validates the JWT string and returns typed claims.
func ParseAccessToken(cfg Config, tokenString string) (*Claims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == "" || !ValidRole(claims.Role) {
		return nil, fmt.Errorf("%w: missing user or role", ErrInvalidToken)
	}

	return claims, nil
}

// ParseUnverified decodes claims without checking the signature.
// Clients use it to read the role and expiry of a token they were handed;
// it grants nothing by itself.
func ParseUnverified(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
