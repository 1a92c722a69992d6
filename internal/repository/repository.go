package repository

import (
	"context"

	"caffinity/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// GetAll retrieves all products with pagination support.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by its ID. A missing product yields nil, nil.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs.
	GetByIDs(ctx context.Context, ids []string) ([]model.Product, error)

	// ValidateProductsExist returns model.ErrProductNotFound unless every ID exists.
	ValidateProductsExist(ctx context.Context, ids []string) error

	// Create inserts a product.
	Create(ctx context.Context, p *model.Product) error

	// Update overwrites a product's mutable fields.
	Update(ctx context.Context, p *model.Product) error

	// Delete removes a product.
	Delete(ctx context.Context, id string) error

	// Count returns the number of products.
	Count(ctx context.Context) (int, error)
}

// CartRepository defines the interface for per-user cart storage.
type CartRepository interface {
	// List returns the user's cart lines joined with product details.
	List(ctx context.Context, userID string) ([]model.CartLine, error)

	// Add inserts a line or adds quantity to the user's existing line for the product.
	Add(ctx context.Context, userID, productID string, quantity int) (*model.CartLine, error)

	// UpdateQuantity sets the quantity of one of the user's lines.
	UpdateQuantity(ctx context.Context, userID string, lineID uuid.UUID, quantity int) error

	// Remove deletes one of the user's lines.
	Remove(ctx context.Context, userID string, lineID uuid.UUID) error

	// Clear deletes every line of the user's cart.
	Clear(ctx context.Context, userID string) error

	// ClearTx deletes every line of the user's cart within tx.
	ClearTx(ctx context.Context, tx pgx.Tx, userID string) error
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts the order's lines within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, lines []model.OrderLine) error

	// GetByID retrieves an order with its lines. A missing order yields nil, nil.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// ListByUser returns a user's orders, newest first.
	ListByUser(ctx context.Context, userID string) ([]model.Order, error)

	// ListAll returns every order, newest first.
	ListAll(ctx context.Context) ([]model.Order, error)

	// UpdateStatus moves an order from one status to another. It fails with
	// model.ErrStaleStatus when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.OrderStatus) (*model.Order, error)
}

// StatsRepository computes operator dashboard aggregates.
type StatsRepository interface {
	// DashboardStats returns order and catalog aggregates with the most recent orders.
	DashboardStats(ctx context.Context, recent int) (*model.DashboardStats, error)
}
