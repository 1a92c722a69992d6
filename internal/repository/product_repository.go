package repository

import (
	"context"
	"errors"
	"fmt"

	"caffinity/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const productColumns = `id, name, category, price, description, image_url, created_at, updated_at`

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

func scanProduct(row pgx.Row) (model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Description, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *productRepository) queryProducts(ctx context.Context, query string, args ...any) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// GetAll retrieves all products with pagination support.
func (r *productRepository) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		ORDER BY category, name
		LIMIT $1 OFFSET $2
	`
	return r.queryProducts(ctx, query, limit, offset)
}

// GetByID retrieves a single product by its ID.
func (r *productRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = $1
	`

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("product_id", id).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", id).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return &p, nil
}

// GetByIDs retrieves multiple products by their IDs.
func (r *productRepository) GetByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = ANY($1)
		ORDER BY name
	`
	return r.queryProducts(ctx, query, ids)
}

// ValidateProductsExist checks if all provided product IDs exist in the database.
func (r *productRepository) ValidateProductsExist(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	unique := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		unique[id] = struct{}{}
	}

	query := `
		SELECT COUNT(DISTINCT id)
		FROM products
		WHERE id = ANY($1)
	`

	var count int
	if err := r.pool.QueryRow(ctx, query, ids).Scan(&count); err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to validate products exist")
		return fmt.Errorf("failed to validate products exist: %w", err)
	}

	if count != len(unique) {
		r.logger.Warn().
			Int("expected", len(unique)).
			Int("found", count).
			Msg("not all product IDs exist")
		return model.ErrProductNotFound
	}

	return nil
}

// Create inserts a product.
func (r *productRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
		INSERT INTO products (id, name, category, price, description, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query, p.ID, p.Name, p.Category, p.Price, p.Description, p.ImageURL, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", p.ID).Msg("failed to create product")
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update overwrites a product's mutable fields.
func (r *productRepository) Update(ctx context.Context, p *model.Product) error {
	query := `
		UPDATE products
		SET name = $2, category = $3, price = $4, description = $5, image_url = $6, updated_at = $7
		WHERE id = $1
		RETURNING created_at
	`

	err := r.pool.QueryRow(ctx, query, p.ID, p.Name, p.Category, p.Price, p.Description, p.ImageURL, p.UpdatedAt).
		Scan(&p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrProductNotFound
		}
		r.logger.Error().Err(err).Str("product_id", p.ID).Msg("failed to update product")
		return fmt.Errorf("failed to update product: %w", err)
	}

	return nil
}

// Delete removes a product.
func (r *productRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", id).Msg("failed to delete product")
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}
	return nil
}

// Count returns the number of products.
func (r *productRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		r.logger.Error().Err(err).Msg("failed to count products")
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}
