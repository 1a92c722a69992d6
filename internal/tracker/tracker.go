// Package tracker is the client view of order status: listings, the operator
// dashboard and status changes.
package tracker

import (
	"context"
	"fmt"
	"sync"

	"caffinity/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Store is the remote order and stats resource.
type Store interface {
	MyOrders(ctx context.Context) ([]model.Order, error)
	AllOrders(ctx context.Context) ([]model.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (*model.Order, error)
	DashboardStats(ctx context.Context) (*model.DashboardStats, error)
}

// Tracker caches derived order views until a status change invalidates them.
// Every Invalidate bumps gen; a fetch that started under an older gen returns
// its result to the caller but does not install it.
type Tracker struct {
	store  Store
	logger zerolog.Logger

	mu    sync.Mutex
	gen   uint64
	mine  []model.Order
	all   []model.Order
	stats *model.DashboardStats
}

// New creates a tracker with empty caches.
func New(store Store, logger zerolog.Logger) *Tracker {
	return &Tracker{
		store:  store,
		logger: logger.With().Str("component", "order-tracker").Logger(),
	}
}

// Options returns the statuses an operator may choose for order.
func Options(order model.Order) []model.OrderStatus {
	return order.Status.NextStatuses()
}

// MyOrders returns the signed-in user's orders, cached until the next invalidation.
func (t *Tracker) MyOrders(ctx context.Context) ([]model.Order, error) {
	t.mu.Lock()
	cached, gen := t.mine, t.gen
	t.mu.Unlock()
	if cached != nil {
		return cloneOrders(cached), nil
	}

	orders, err := t.store.MyOrders(ctx)
	if err != nil {
		t.logger.Warn().Err(err).Msg("failed to fetch orders")
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}
	if orders == nil {
		orders = []model.Order{}
	}

	t.install(gen, func() { t.mine = orders })
	return cloneOrders(orders), nil
}

// AllOrders returns every order. Operator only.
func (t *Tracker) AllOrders(ctx context.Context) ([]model.Order, error) {
	t.mu.Lock()
	cached, gen := t.all, t.gen
	t.mu.Unlock()
	if cached != nil {
		return cloneOrders(cached), nil
	}

	orders, err := t.store.AllOrders(ctx)
	if err != nil {
		t.logger.Warn().Err(err).Msg("failed to fetch all orders")
		return nil, fmt.Errorf("failed to fetch all orders: %w", err)
	}
	if orders == nil {
		orders = []model.Order{}
	}

	t.install(gen, func() { t.all = orders })
	return cloneOrders(orders), nil
}

// Stats returns the operator dashboard aggregates.
func (t *Tracker) Stats(ctx context.Context) (*model.DashboardStats, error) {
	t.mu.Lock()
	cached, gen := t.stats, t.gen
	t.mu.Unlock()
	if cached != nil {
		s := *cached
		return &s, nil
	}

	stats, err := t.store.DashboardStats(ctx)
	if err != nil {
		t.logger.Warn().Err(err).Msg("failed to fetch dashboard stats")
		return nil, fmt.Errorf("failed to fetch dashboard stats: %w", err)
	}

	t.install(gen, func() { t.stats = stats })

	s := *stats
	return &s, nil
}

// Order fetches a single order. It is never cached.
func (t *Tracker) Order(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := t.store.GetOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order %s: %w", id, err)
	}
	return order, nil
}

// UpdateStatus asks the store to move order id to next. The store enforces the
// transition table. Cached listings and stats are dropped whatever the outcome,
// since the order may have changed underneath either way.
func (t *Tracker) UpdateStatus(ctx context.Context, id uuid.UUID, next model.OrderStatus) (*model.Order, error) {
	order, err := t.store.UpdateOrderStatus(ctx, id, next)
	t.Invalidate()

	if err != nil {
		t.logger.Warn().
			Err(err).
			Str("order_id", id.String()).
			Str("status", next.String()).
			Msg("status change rejected")
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	t.logger.Info().
		Str("order_id", id.String()).
		Str("status", order.Status.String()).
		Msg("order status updated")
	return order, nil
}

// Invalidate drops every cached view. Fetches already in flight will not
// repopulate them.
func (t *Tracker) Invalidate() {
	t.mu.Lock()
	t.gen++
	t.mine = nil
	t.all = nil
	t.stats = nil
	t.mu.Unlock()
}

// install runs set under the lock unless an Invalidate happened since gen was read.
func (t *Tracker) install(gen uint64, set func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.gen != gen {
		t.logger.Debug().Msg("views invalidated during fetch, not caching")
		return
	}
	set()
}

func cloneOrders(orders []model.Order) []model.Order {
	out := make([]model.Order, len(orders))
	copy(out, orders)
	return out
}
