package repository

import (
	"context"
	"errors"
	"fmt"

	"caffinity/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// cartRepository implements the CartRepository interface using PostgreSQL.
type cartRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCartRepository creates a new PostgreSQL-backed cart repository.
func NewCartRepository(pool *pgxpool.Pool, logger zerolog.Logger) CartRepository {
	return &cartRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "cart").Logger(),
	}
}

// List returns the user's cart lines in insertion order.
func (r *cartRepository) List(ctx context.Context, userID string) ([]model.CartLine, error) {
	query := `
		SELECT c.id, c.product_id, p.name, p.price, c.quantity, p.category, p.image_url
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY c.created_at, c.id
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to query cart")
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}
	defer rows.Close()

	lines := []model.CartLine{}
	for rows.Next() {
		var (
			l  model.CartLine
			id uuid.UUID
		)
		if err := rows.Scan(&id, &l.ProductID, &l.Name, &l.UnitPrice, &l.Quantity, &l.Category, &l.ImageRef); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan cart row")
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		l.LineID = id.String()
		lines = append(lines, l)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating cart rows")
		return nil, fmt.Errorf("error iterating cart: %w", err)
	}

	return lines, nil
}

// Add inserts a line or adds quantity to the existing line for the product.
func (r *cartRepository) Add(ctx context.Context, userID, productID string, quantity int) (*model.CartLine, error) {
	query := `
		WITH upsert AS (
			INSERT INTO cart_items (id, user_id, product_id, quantity)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id, product_id)
			DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()
			WHERE cart_items.quantity + EXCLUDED.quantity <= $5
			RETURNING id, product_id, quantity
		)
		SELECT u.id, u.product_id, p.name, p.price, u.quantity, p.category, p.image_url
		FROM upsert u
		JOIN products p ON p.id = u.product_id
	`

	var (
		l  model.CartLine
		id uuid.UUID
	)
	err := r.pool.QueryRow(ctx, query, uuid.New(), userID, productID, quantity, model.MaxQuantity).
		Scan(&id, &l.ProductID, &l.Name, &l.UnitPrice, &l.Quantity, &l.Category, &l.ImageRef)
	if errors.Is(err, pgx.ErrNoRows) {
		// The conflict branch skipped the update: the merged line would exceed the cap.
		return nil, model.ErrInvalidQuantity
	}
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("user_id", userID).
			Str("product_id", productID).
			Msg("failed to add cart item")
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}
	l.LineID = id.String()

	return &l, nil
}

// UpdateQuantity sets the quantity of one of the user's lines.
func (r *cartRepository) UpdateQuantity(ctx context.Context, userID string, lineID uuid.UUID, quantity int) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE cart_items SET quantity = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`, lineID, userID, quantity)
	if err != nil {
		r.logger.Error().Err(err).Str("line_id", lineID.String()).Msg("failed to update cart item")
		return fmt.Errorf("failed to update cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrCartLineNotFound
	}
	return nil
}

// Remove deletes one of the user's lines.
func (r *cartRepository) Remove(ctx context.Context, userID string, lineID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE id = $1 AND user_id = $2`, lineID, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("line_id", lineID.String()).Msg("failed to remove cart item")
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrCartLineNotFound
	}
	return nil
}

// Clear deletes every line of the user's cart.
func (r *cartRepository) Clear(ctx context.Context, userID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to clear cart")
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// ClearTx deletes every line of the user's cart within tx.
func (r *cartRepository) ClearTx(ctx context.Context, tx pgx.Tx, userID string) error {
	if tx == nil {
		return errors.New("transaction is required")
	}
	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to clear cart in transaction")
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
