// Package cart keeps the client's cart consistent with the remote store.
//
// Every mutation is applied to local state first, then sent to the store, then
// reconciled by refetching the whole cart and replacing local state with it.
// Failed writes are rolled back the same way. There is no queue: concurrent
// mutations each reconcile independently, and a refetch older than one already
// applied is dropped.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"caffinity/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ErrNotAuthenticated is returned when adding to the cart while signed out.
var ErrNotAuthenticated = errors.New("sign in to add items to the cart")

// Store is the remote cart resource.
type Store interface {
	GetCart(ctx context.Context) ([]model.CartLine, error)
	AddCartItem(ctx context.Context, productID string, quantity int) error
	UpdateCartItem(ctx context.Context, lineID string, quantity int) error
	RemoveCartItem(ctx context.Context, lineID string) error
	ClearCart(ctx context.Context) error
}

// AuthState reports whether a credential is held.
type AuthState interface {
	Authenticated() bool
}

// Synchronizer owns the cart collection. All other components read snapshots.
type Synchronizer struct {
	store  Store
	auth   AuthState
	logger zerolog.Logger

	// mu guards lines, applied and listeners. It is never held across a store call.
	mu        sync.Mutex
	lines     []model.CartLine
	applied   uint64
	listeners []func([]model.CartLine)

	// seq orders refetches and local resets.
	seq atomic.Uint64

	pending sync.WaitGroup
}

// New creates an empty synchronizer.
func New(store Store, auth AuthState, logger zerolog.Logger) *Synchronizer {
	return &Synchronizer{
		store:  store,
		auth:   auth,
		logger: logger.With().Str("component", "cart-synchronizer").Logger(),
	}
}

// Subscribe registers fn to receive a snapshot after every change to the cart.
func (s *Synchronizer) Subscribe(fn func([]model.CartLine)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Lines returns a snapshot of the cart.
func (s *Synchronizer) Lines() []model.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneLines(s.lines)
}

// Count returns the total quantity across all lines.
func (s *Synchronizer) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

// Subtotal returns the sum of line totals.
func (s *Synchronizer) Subtotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, l := range s.lines {
		total = total.Add(l.LineTotal())
	}
	return total
}

// AddItem adds quantity of product. An existing line for the product is
// incremented, otherwise a local-only line is inserted; either change is
// visible before the store is contacted.
func (s *Synchronizer) AddItem(ctx context.Context, product model.Product, quantity int) error {
	if !s.auth.Authenticated() {
		return ErrNotAuthenticated
	}
	if quantity < 1 || quantity > model.MaxQuantity {
		return model.ErrInvalidQuantity
	}
	if s.quantityOf(product.ID)+quantity > model.MaxQuantity {
		return model.ErrInvalidQuantity
	}

	snapshot := s.mutate(func(lines []model.CartLine) []model.CartLine {
		for i := range lines {
			if lines[i].ProductID == product.ID {
				lines[i].Quantity += quantity
				return lines
			}
		}
		return append(lines, model.NewCartLine(product, quantity))
	})

	if err := s.store.AddCartItem(ctx, product.ID, quantity); err != nil {
		s.logger.Error().
			Err(err).
			Str("product_id", product.ID).
			Int("quantity", quantity).
			Msg("failed to add item, rolling back")
		s.rollback(ctx, snapshot)
		return fmt.Errorf("failed to add item to cart: %w", err)
	}

	s.reconcile(ctx)
	return nil
}

// RemoveItem removes the line with lineID.
func (s *Synchronizer) RemoveItem(ctx context.Context, lineID string) error {
	if !s.has(lineID) {
		return model.ErrCartLineNotFound
	}

	snapshot := s.mutate(func(lines []model.CartLine) []model.CartLine {
		kept := lines[:0]
		for _, l := range lines {
			if l.LineID != lineID {
				kept = append(kept, l)
			}
		}
		return kept
	})

	if err := s.store.RemoveCartItem(ctx, lineID); err != nil {
		s.logger.Error().
			Err(err).
			Str("line_id", lineID).
			Msg("failed to remove item, rolling back")
		s.rollback(ctx, snapshot)
		return fmt.Errorf("failed to remove item from cart: %w", err)
	}

	s.reconcile(ctx)
	return nil
}

// SetQuantity changes the quantity of the line with lineID. Zero removes the line.
func (s *Synchronizer) SetQuantity(ctx context.Context, lineID string, quantity int) error {
	if quantity < 0 || quantity > model.MaxQuantity {
		return model.ErrInvalidQuantity
	}
	if quantity == 0 {
		return s.RemoveItem(ctx, lineID)
	}
	if !s.has(lineID) {
		return model.ErrCartLineNotFound
	}

	snapshot := s.mutate(func(lines []model.CartLine) []model.CartLine {
		for i := range lines {
			if lines[i].LineID == lineID {
				lines[i].Quantity = quantity
			}
		}
		return lines
	})

	if err := s.store.UpdateCartItem(ctx, lineID, quantity); err != nil {
		s.logger.Error().
			Err(err).
			Str("line_id", lineID).
			Int("quantity", quantity).
			Msg("failed to update quantity, rolling back")
		s.rollback(ctx, snapshot)
		return fmt.Errorf("failed to update cart quantity: %w", err)
	}

	s.reconcile(ctx)
	return nil
}

// Clear empties the cart immediately and clears the store in the background.
// The background call is not tied to ctx's cancellation; Wait blocks until it finishes.
func (s *Synchronizer) Clear(ctx context.Context) {
	s.reset()

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		if err := s.store.ClearCart(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn().Err(err).Msg("remote cart clear failed")
		}
	}()
}

// Wait blocks until every background store call has finished.
func (s *Synchronizer) Wait() {
	s.pending.Wait()
}

// Refresh replaces the cart with the store's copy. On failure the current
// cart is kept and the error is returned for display.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	if err := s.refetch(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("cart refresh failed, keeping current cart")
		return fmt.Errorf("failed to fetch cart: %w", err)
	}
	return nil
}

// OnAuthChange fetches the cart on sign-in and clears it locally on sign-out.
// Its signature matches session.Listener.
func (s *Synchronizer) OnAuthChange(ctx context.Context, authenticated bool) {
	if !authenticated {
		s.reset()
		return
	}
	_ = s.Refresh(ctx)
}

func (s *Synchronizer) has(lineID string) bool {
	if lineID == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range s.lines {
		if l.LineID == lineID {
			return true
		}
	}
	return false
}

func (s *Synchronizer) quantityOf(productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range s.lines {
		if l.ProductID == productID {
			return l.Quantity
		}
	}
	return 0
}

// mutate applies fn to a copy of the cart, installs the result and returns the
// cart as it was before.
func (s *Synchronizer) mutate(fn func([]model.CartLine) []model.CartLine) []model.CartLine {
	s.mu.Lock()
	before := cloneLines(s.lines)
	s.lines = fn(cloneLines(s.lines))
	after := cloneLines(s.lines)
	listeners := s.listeners
	s.mu.Unlock()

	notify(listeners, after)
	return before
}

// reset empties the cart and invalidates every refetch issued so far.
func (s *Synchronizer) reset() {
	s.mu.Lock()
	s.lines = nil
	s.applied = s.seq.Add(1)
	listeners := s.listeners
	s.mu.Unlock()

	notify(listeners, nil)
}

// refetch loads the store's cart and installs it unless a newer state has
// already been applied.
func (s *Synchronizer) refetch(ctx context.Context) error {
	ticket := s.seq.Add(1)

	lines, err := s.store.GetCart(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if ticket < s.applied {
		s.mu.Unlock()
		s.logger.Debug().
			Uint64("ticket", ticket).
			Uint64("applied", s.applied).
			Msg("discarding stale cart refetch")
		return nil
	}
	s.applied = ticket
	s.lines = cloneLines(lines)
	listeners := s.listeners
	s.mu.Unlock()

	notify(listeners, cloneLines(lines))
	return nil
}

// reconcile follows a successful write. A failed refetch leaves the
// optimistic state in place until the next natural refresh.
func (s *Synchronizer) reconcile(ctx context.Context) {
	if err := s.refetch(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("cart refetch after write failed")
	}
}

// rollback follows a failed write. The store's copy wins; if it cannot be
// read, the cart as it was before the mutation is restored.
func (s *Synchronizer) rollback(ctx context.Context, snapshot []model.CartLine) {
	ctx = context.WithoutCancel(ctx)

	err := s.refetch(ctx)
	if err == nil {
		return
	}
	s.logger.Warn().Err(err).Msg("cart refetch after failed write failed, restoring snapshot")

	s.mu.Lock()
	s.lines = snapshot
	s.applied = s.seq.Add(1)
	listeners := s.listeners
	s.mu.Unlock()

	notify(listeners, cloneLines(snapshot))
}

func notify(listeners []func([]model.CartLine), lines []model.CartLine) {
	for _, fn := range listeners {
		fn(cloneLines(lines))
	}
}

func cloneLines(lines []model.CartLine) []model.CartLine {
	if lines == nil {
		return nil
	}
	out := make([]model.CartLine, len(lines))
	copy(out, lines)
	return out
}
