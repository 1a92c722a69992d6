package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"caffinity/internal/metrics"
	"caffinity/internal/model"
	"caffinity/internal/pricing"
	"caffinity/internal/promotion"
	"caffinity/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PromotionLookup finds a promotion rule by code.
type PromotionLookup interface {
	Lookup(code string) (promotion.Descriptor, bool)
}

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	cartRepo    repository.CartRepository
	promotions  PromotionLookup
	calculator  *pricing.Calculator
	stats       StatsService
	metrics     *metrics.StoreMetrics
	logger      zerolog.Logger
}

// OrderDeps groups the collaborators of the order service.
type OrderDeps struct {
	Orders     repository.OrderRepository
	Products   repository.ProductRepository
	Cart       repository.CartRepository
	Promotions PromotionLookup
	Stats      StatsService
	Metrics    *metrics.StoreMetrics
}

// NewOrderService creates a new order service. Totals are reconciled with checkout fees.
func NewOrderService(deps OrderDeps, logger zerolog.Logger) OrderService {
	return &orderService{
		orderRepo:   deps.Orders,
		productRepo: deps.Products,
		cartRepo:    deps.Cart,
		promotions:  deps.Promotions,
		calculator:  pricing.NewCalculator(pricing.CheckoutFees()),
		stats:       deps.Stats,
		metrics:     deps.Metrics,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// CreateOrder recomputes the breakdown from catalogue prices, rejects a submitted
// total that does not match, and persists a pending order while clearing the
// customer's cart in the same transaction.
func (s *orderService) CreateOrder(ctx context.Context, userID string, req *model.CreateOrderRequest) (*model.CreateOrderResponse, error) {
	if err := s.validateOrderRequest(req); err != nil {
		s.reject(err)
		return nil, err
	}

	var promo *promotion.Descriptor
	if code := strings.TrimSpace(req.PromoCode); code != "" {
		d, ok := s.promotions.Lookup(code)
		if !ok {
			s.logger.Warn().Str("promo_code", code).Msg("invalid promo code")
			s.reject(model.ErrInvalidPromoCode)
			return nil, model.ErrInvalidPromoCode
		}
		promo = &d
	}

	lines, err := s.priceLines(ctx, req.Items)
	if err != nil {
		s.reject(err)
		return nil, err
	}

	breakdown := s.calculator.Compute(lines, promo, req.Tip)
	if !breakdown.Total.Equal(req.TotalAmount) {
		s.logger.Warn().
			Str("submitted", req.TotalAmount.String()).
			Str("computed", breakdown.Total.String()).
			Msg("order total mismatch")
		s.reject(model.ErrTotalMismatch)
		return nil, model.ErrTotalMismatch
	}

	now := time.Now().UTC()
	order := &model.Order{
		ID:              uuid.New(),
		UserID:          userID,
		Totals:          breakdown,
		Status:          model.StatusPending,
		ShippingAddress: strings.TrimSpace(req.ShippingAddress),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if promo != nil {
		code := promo.Code
		order.PromoCode = &code
	}

	order.Lines = make([]model.OrderLine, len(lines))
	for i, l := range lines {
		order.Lines[i] = model.OrderLine{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		}
	}

	if err := s.persist(ctx, order); err != nil {
		return nil, err
	}

	s.stats.Invalidate(ctx)
	s.metrics.IncOrderCreated()

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("user_id", userID).
		Int("line_count", len(order.Lines)).
		Str("total", breakdown.Total.String()).
		Msg("order created successfully")

	return &model.CreateOrderResponse{
		OrderID:   order.ID,
		Status:    order.Status,
		CreatedAt: order.CreatedAt,
	}, nil
}

func (s *orderService) persist(ctx context.Context, order *model.Order) (err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to create order: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	if err = s.orderRepo.CreateOrderItems(ctx, tx, order.ID, order.Lines); err != nil {
		return fmt.Errorf("failed to create order items: %w", err)
	}

	if err = s.cartRepo.ClearTx(ctx, tx, order.UserID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

// priceLines resolves each requested item against the catalogue, keeping request order.
func (s *orderService) priceLines(ctx context.Context, items []model.OrderItemRequest) ([]model.CartLine, error) {
	ids := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}

	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve product details: %w", err)
	}

	byID := make(map[string]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines := make([]model.CartLine, len(items))
	for i, item := range items {
		p, ok := byID[item.ProductID]
		if !ok {
			s.logger.Warn().Str("product_id", item.ProductID).Msg("ordered product not found")
			return nil, model.ErrProductNotFound
		}
		lines[i] = model.NewCartLine(p, item.Quantity)
	}

	return lines, nil
}

// GetByID retrieves an order by its ID.
func (s *orderService) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order == nil {
		s.logger.Debug().Str("order_id", id.String()).Msg("order not found")
		return nil, model.ErrOrderNotFound
	}

	return order, nil
}

// ListByUser returns a customer's orders, newest first.
func (s *orderService) ListByUser(ctx context.Context, userID string) ([]model.Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// ListAll returns every order, newest first.
func (s *orderService) ListAll(ctx context.Context) ([]model.Order, error) {
	orders, err := s.orderRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus applies next if the transition table allows it from the order's
// current status. Terminal orders reject every transition.
func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, next model.OrderStatus) (*model.Order, error) {
	if !next.IsValid() {
		return nil, model.ErrInvalidStatus
	}

	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	from := current.Status
	if !from.CanTransitionTo(next) {
		s.logger.Warn().
			Str("order_id", id.String()).
			Str("from", from.String()).
			Str("to", next.String()).
			Msg("order status transition rejected")
		s.metrics.IncStatusTransition(from.String(), next.String(), "rejected")
		return nil, model.ErrInvalidTransition
	}

	updated, err := s.orderRepo.UpdateStatus(ctx, id, from, next)
	if err != nil {
		s.metrics.IncStatusTransition(from.String(), next.String(), "failed")
		return nil, err
	}

	s.stats.Invalidate(ctx)
	s.metrics.IncStatusTransition(from.String(), next.String(), "ok")

	s.logger.Info().
		Str("order_id", id.String()).
		Str("from", from.String()).
		Str("to", next.String()).
		Msg("order status updated")

	return updated, nil
}

// validateOrderRequest validates the order request.
func (s *orderService) validateOrderRequest(req *model.CreateOrderRequest) error {
	if req == nil {
		return fmt.Errorf("order request is nil")
	}

	if len(req.Items) == 0 {
		return model.ErrEmptyOrder
	}

	if strings.TrimSpace(req.ShippingAddress) == "" {
		return model.ErrAddressRequired
	}

	if req.Tip.IsNegative() {
		return model.ErrNegativeTip
	}

	for i, item := range req.Items {
		if item.ProductID == "" {
			return model.ErrProductNotFound
		}

		if item.Quantity <= 0 || item.Quantity > model.MaxQuantity {
			s.logger.Warn().
				Int("item_index", i).
				Str("product_id", item.ProductID).
				Int("quantity", item.Quantity).
				Msg("invalid quantity")
			return model.ErrInvalidQuantity
		}
	}

	return nil
}

func (s *orderService) reject(err error) {
	var de *model.DomainError
	if errors.As(err, &de) {
		s.metrics.IncOrderRejected(de.Code)
		return
	}
	s.metrics.IncOrderRejected("invalid")
}
