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

const orderColumns = `id, user_id, status, shipping_address, promo_code,
	subtotal, tax, delivery_fee, platform_fee, discount, tip, total, created_at, updated_at`

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

func scanOrder(row pgx.Row) (model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.Status,
		&o.ShippingAddress,
		&o.PromoCode,
		&o.Totals.Subtotal,
		&o.Totals.Tax,
		&o.Totals.DeliveryFee,
		&o.Totals.PlatformFee,
		&o.Totals.Discount,
		&o.Totals.Tip,
		&o.Totals.Total,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	return o, err
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	t := order.Totals
	_, err := tx.Exec(ctx, query,
		order.ID,
		order.UserID,
		order.Status,
		order.ShippingAddress,
		order.PromoCode,
		t.Subtotal,
		t.Tax,
		t.DeliveryFee,
		t.PlatformFee,
		t.Discount,
		t.Tip,
		t.Total,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Msg("order created successfully")

	return nil
}

// CreateOrderItems inserts the order's lines within the provided transaction.
func (r *orderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, lines []model.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (id, order_id, product_id, name, quantity, unit_price, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	batch := &pgx.Batch{}
	for i, line := range lines {
		id := line.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		batch.Queue(query, id, orderID, line.ProductID, line.Name, line.Quantity, line.UnitPrice, i)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(lines); i++ {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", orderID.String()).
				Str("product_id", lines[i].ProductID).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(lines)).
		Msg("order items created successfully")

	return nil
}

// GetByID retrieves an order by its ID along with its lines.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	orders := []model.Order{order}
	if err := r.attachLines(ctx, orders); err != nil {
		return nil, err
	}

	return &orders[0], nil
}

// ListByUser returns a user's orders, newest first.
func (r *orderRepository) ListByUser(ctx context.Context, userID string) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id`
	return r.listOrders(ctx, query, userID)
}

// ListAll returns every order, newest first.
func (r *orderRepository) ListAll(ctx context.Context) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC, id`
	return r.listOrders(ctx, query)
}

// UpdateStatus moves an order from one status to another with a compare-and-set.
func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.OrderStatus) (*model.Order, error) {
	query := `
		UPDATE orders
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + orderColumns

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id, from, to))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn().
				Str("order_id", id.String()).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("order status changed concurrently")
			return nil, model.ErrStaleStatus
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to update order status")
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	orders := []model.Order{order}
	if err := r.attachLines(ctx, orders); err != nil {
		return nil, err
	}

	return &orders[0], nil
}

func (r *orderRepository) listOrders(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	if err := r.attachLines(ctx, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

// attachLines loads the lines of every order in one query.
func (r *orderRepository) attachLines(ctx context.Context, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(orders))
	index := make(map[uuid.UUID]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
		orders[i].Lines = []model.OrderLine{}
	}

	query := `
		SELECT id, order_id, product_id, name, quantity, unit_price
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, position
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("order_count", len(ids)).Msg("failed to query order items")
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line model.OrderLine
		if err := rows.Scan(&line.ID, &line.OrderID, &line.ProductID, &line.Name, &line.Quantity, &line.UnitPrice); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		i := index[line.OrderID]
		orders[i].Lines = append(orders[i].Lines, line)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return fmt.Errorf("error iterating order items: %w", err)
	}

	return nil
}
