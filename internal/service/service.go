package service

import (
	"context"

	"caffinity/internal/model"

	"github.com/google/uuid"
)

// ProductService defines operations for catalogue management.
type ProductService interface {
	// GetAll retrieves all products with pagination.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// Create adds a product. An empty ID is generated.
	Create(ctx context.Context, req *model.ProductRequest) (*model.Product, error)

	// Update replaces a product's mutable fields.
	Update(ctx context.Context, id string, req *model.ProductRequest) (*model.Product, error)

	// Delete removes a product.
	Delete(ctx context.Context, id string) error
}

// CartService defines operations on a customer's remote cart.
type CartService interface {
	// List returns the user's cart lines.
	List(ctx context.Context, userID string) ([]model.CartLine, error)

	// Add adds quantity of a product to the user's cart.
	Add(ctx context.Context, userID string, req *model.AddToCartRequest) (*model.CartLine, error)

	// SetQuantity sets a line's quantity. Zero removes the line.
	SetQuantity(ctx context.Context, userID, lineID string, quantity int) error

	// Remove deletes a line.
	Remove(ctx context.Context, userID, lineID string) error

	// Clear empties the user's cart.
	Clear(ctx context.Context, userID string) error
}

// OrderService defines operations for order management.
type OrderService interface {
	// CreateOrder reconciles the submitted total and persists a pending order.
	CreateOrder(ctx context.Context, userID string, req *model.CreateOrderRequest) (*model.CreateOrderResponse, error)

	// GetByID retrieves an order with its lines.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// ListByUser returns a customer's orders, newest first.
	ListByUser(ctx context.Context, userID string) ([]model.Order, error)

	// ListAll returns every order, newest first.
	ListAll(ctx context.Context) ([]model.Order, error)

	// UpdateStatus moves an order along the transition table.
	UpdateStatus(ctx context.Context, id uuid.UUID, next model.OrderStatus) (*model.Order, error)
}

// StatsService serves the operator dashboard.
type StatsService interface {
	// Dashboard returns aggregates, from cache when fresh.
	Dashboard(ctx context.Context) (*model.DashboardStats, error)

	// Invalidate drops cached aggregates.
	Invalidate(ctx context.Context)
}
