package service

import (
	"context"
	"fmt"
	"time"

	"caffinity/internal/model"
	"caffinity/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	stats       StatsService
	logger      zerolog.Logger
}

// NewProductService creates a new product service. Catalogue writes invalidate stats.
func NewProductService(productRepo repository.ProductRepository, stats StatsService, logger zerolog.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		stats:       stats,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// GetAll retrieves all products with pagination.
func (s *productService) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	products, err := s.productRepo.GetAll(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to get all products")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	s.logger.Debug().
		Int("count", len(products)).
		Int("limit", limit).
		Int("offset", offset).
		Msg("retrieved products")

	return products, nil
}

// GetByID retrieves a single product by ID.
func (s *productService) GetByID(ctx context.Context, id string) (*model.Product, error) {
	if id == "" {
		s.logger.Warn().Msg("product ID is empty")
		return nil, model.ErrProductNotFound
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to get product by ID")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if product == nil {
		s.logger.Debug().Str("product_id", id).Msg("product not found")
		return nil, model.ErrProductNotFound
	}

	return product, nil
}

// Create adds a product to the catalogue.
func (s *productService) Create(ctx context.Context, req *model.ProductRequest) (*model.Product, error) {
	if req.Price.IsNegative() {
		return nil, model.ErrInvalidPrice
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	now := time.Now().UTC()
	product := &model.Product{
		ID:          id,
		Name:        req.Name,
		Category:    req.Category,
		Price:       req.Price,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.stats.Invalidate(ctx)
	s.logger.Info().Str("product_id", id).Msg("product created")

	return product, nil
}

// Update replaces a product's mutable fields.
func (s *productService) Update(ctx context.Context, id string, req *model.ProductRequest) (*model.Product, error) {
	if req.Price.IsNegative() {
		return nil, model.ErrInvalidPrice
	}

	product := &model.Product{
		ID:          id,
		Name:        req.Name,
		Category:    req.Category,
		Price:       req.Price,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		UpdatedAt:   time.Now().UTC(),
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info().Str("product_id", id).Msg("product updated")

	return product, nil
}

// Delete removes a product.
func (s *productService) Delete(ctx context.Context, id string) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.stats.Invalidate(ctx)
	s.logger.Info().Str("product_id", id).Msg("product deleted")

	return nil
}
