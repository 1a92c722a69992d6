// Package session holds the signed-in state of a client process.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"caffinity/internal/auth"

	"github.com/rs/zerolog"
)

// Listener is notified after every authentication state change.
type Listener func(ctx context.Context, authenticated bool)

// Session is the credential holder shared by every client component.
// The zero value is not usable; create one with New.
type Session struct {
	mu        sync.RWMutex
	token     string
	claims    *auth.Claims
	listeners []Listener
	onExpire  func()
	now       func() time.Time
	logger    zerolog.Logger
}

// New creates a signed-out session.
func New(logger zerolog.Logger) *Session {
	return &Session{
		now:    time.Now,
		logger: logger.With().Str("component", "session").Logger(),
	}
}

// Subscribe registers l for authentication state changes.
func (s *Session) Subscribe(l Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

// OnExpire sets the hook run when the remote store rejects the credential,
// typically navigating the user back to sign-in.
func (s *Session) OnExpire(fn func()) {
	s.mu.Lock()
	s.onExpire = fn
	s.mu.Unlock()
}

// Login stores token and notifies listeners. The token's claims are decoded
// but not verified; the remote store is the authority.
func (s *Session) Login(ctx context.Context, token string) error {
	claims, err := auth.ParseUnverified(token)
	if err != nil {
		return fmt.Errorf("failed to read access token: %w", err)
	}
	if claims.ExpiresAt != nil && !claims.ExpiresAt.After(s.now()) {
		return fmt.Errorf("failed to read access token: %w: token expired", auth.ErrInvalidToken)
	}

	s.mu.Lock()
	s.token = token
	s.claims = claims
	s.mu.Unlock()

	s.logger.Info().
		Str("user_id", claims.UserID).
		Str("role", claims.Role).
		Msg("signed in")

	s.notify(ctx, true)
	return nil
}

// Logout clears the credential and notifies listeners.
func (s *Session) Logout(ctx context.Context) {
	if !s.clear() {
		return
	}
	s.logger.Info().Msg("signed out")
	s.notify(ctx, false)
}

// Expire is Logout triggered by an authorization failure. It also runs the
// OnExpire hook. Repeated calls after the first are no-ops.
func (s *Session) Expire(ctx context.Context) {
	if !s.clear() {
		return
	}
	s.logger.Warn().Msg("credential rejected, forcing sign-out")
	s.notify(ctx, false)

	s.mu.RLock()
	hook := s.onExpire
	s.mu.RUnlock()
	if hook != nil {
		hook()
	}
}

// Close drops every listener and the credential without notifying anyone.
func (s *Session) Close() {
	s.mu.Lock()
	s.token = ""
	s.claims = nil
	s.listeners = nil
	s.onExpire = nil
	s.mu.Unlock()
}

// Authenticated reports whether a credential is held.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// Token returns the bearer credential, or an empty string when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// UserID returns the signed-in user's id.
func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.claims == nil {
		return ""
	}
	return s.claims.UserID
}

// IsOperator reports whether the signed-in user holds the operator role.
func (s *Session) IsOperator() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.claims != nil && s.claims.IsOperator()
}

func (s *Session) clear() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return false
	}
	s.token = ""
	s.claims = nil
	return true
}

// notify runs listeners outside the lock so they may call back into the session.
func (s *Session) notify(ctx context.Context, authenticated bool) {
	s.mu.RLock()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()

	for _, l := range listeners {
		l(ctx, authenticated)
	}
}
