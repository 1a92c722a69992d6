package service

import (
	"context"
	"fmt"

	"caffinity/internal/metrics"
	"caffinity/internal/model"
	"caffinity/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// cartService implements CartService.
type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	metrics     *metrics.StoreMetrics
	logger      zerolog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	m *metrics.StoreMetrics,
	logger zerolog.Logger,
) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		metrics:     m,
		logger:      logger.With().Str("service", "cart").Logger(),
	}
}

// List returns the user's cart lines.
func (s *cartService) List(ctx context.Context, userID string) ([]model.CartLine, error) {
	lines, err := s.cartRepo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return lines, nil
}

// Add adds quantity of a product to the user's cart, merging with an existing line.
func (s *cartService) Add(ctx context.Context, userID string, req *model.AddToCartRequest) (*model.CartLine, error) {
	if req.Quantity < 1 || req.Quantity > model.MaxQuantity {
		return nil, model.ErrInvalidQuantity
	}

	product, err := s.productRepo.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		s.logger.Warn().Str("product_id", req.ProductID).Msg("add to cart for unknown product")
		return nil, model.ErrProductNotFound
	}

	line, err := s.cartRepo.Add(ctx, userID, req.ProductID, req.Quantity)
	if err != nil {
		return nil, fmt.Errorf("failed to add to cart: %w", err)
	}

	s.metrics.IncCartMutation("add")
	s.logger.Debug().
		Str("user_id", userID).
		Str("product_id", req.ProductID).
		Int("quantity", line.Quantity).
		Msg("cart line added")

	return line, nil
}

// SetQuantity sets a line's quantity. Zero removes the line.
func (s *cartService) SetQuantity(ctx context.Context, userID, lineID string, quantity int) error {
	if quantity < 0 || quantity > model.MaxQuantity {
		return model.ErrInvalidQuantity
	}
	if quantity == 0 {
		return s.Remove(ctx, userID, lineID)
	}

	id, err := uuid.Parse(lineID)
	if err != nil {
		return model.ErrCartLineNotFound
	}

	if err := s.cartRepo.UpdateQuantity(ctx, userID, id, quantity); err != nil {
		return err
	}

	s.metrics.IncCartMutation("update")
	return nil
}

// Remove deletes a line.
func (s *cartService) Remove(ctx context.Context, userID, lineID string) error {
	id, err := uuid.Parse(lineID)
	if err != nil {
		return model.ErrCartLineNotFound
	}

	if err := s.cartRepo.Remove(ctx, userID, id); err != nil {
		return err
	}

	s.metrics.IncCartMutation("remove")
	return nil
}

// Clear empties the user's cart.
func (s *cartService) Clear(ctx context.Context, userID string) error {
	if err := s.cartRepo.Clear(ctx, userID); err != nil {
		return err
	}

	s.metrics.IncCartMutation("clear")
	return nil
}
