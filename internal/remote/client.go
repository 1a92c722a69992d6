// Package remote is the HTTP client for the caffinity remote store.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// ErrUnavailable is returned while the circuit breaker is open.
var ErrUnavailable = errors.New("remote store unavailable")

// APIError is a non-2xx response from the remote store.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote store returned %d", e.StatusCode)
	}
	return fmt.Sprintf("remote store returned %d: %s", e.StatusCode, e.Message)
}

// IsUnauthorised reports whether err is a rejected credential.
func IsUnauthorised(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 from the remote store.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Credentials supplies the bearer token and is told when the store rejects it.
type Credentials interface {
	Token() string
	Expire(ctx context.Context)
}

// Config holds remote client settings.
type Config struct {
	BaseURL string
	Timeout time.Duration

	// BreakerFailures is the number of consecutive transport or 5xx failures
	// that opens the breaker.
	BreakerFailures    uint32
	BreakerOpenTimeout time.Duration
}

// Client talks to the remote store over JSON.
type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      Credentials
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	logger     zerolog.Logger
}

// NewClient creates a remote store client.
func NewClient(cfg Config, creds Credentials, logger zerolog.Logger) *Client {
	logger = logger.With().Str("component", "remote-client").Logger()

	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "remote-store",
		MaxRequests: 1,
		Timeout:     cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		creds:      creds,
		breaker:    breaker,
		logger:     logger,
	}
}

// do sends a JSON request and decodes a JSON response into out when out is non-nil.
// A 401 expires the credentials before the error is returned.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token := c.creds.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			defer resp.Body.Close()
			return nil, decodeError(resp)
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%s %s: %w", method, path, ErrUnavailable)
		}
		c.logger.Error().
			Err(err).
			Str("method", method).
			Str("path", path).
			Msg("remote request failed")
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := decodeError(resp)
		if apiErr.StatusCode == http.StatusUnauthorized {
			c.logger.Warn().Str("path", path).Msg("credential rejected by remote store")
			c.creds.Expire(ctx)
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

// decodeError reads an {"error": "..."} body. A body that is not JSON leaves Message empty.
func decodeError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return apiErr
	}

	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil {
		apiErr.Message = body.Error
	}
	return apiErr
}
