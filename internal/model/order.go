package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PricingBreakdown is the itemised decomposition of an order's charge.
type PricingBreakdown struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	PlatformFee decimal.Decimal `json:"platformFee"`
	Discount    decimal.Decimal `json:"discount"`
	Tip         decimal.Decimal `json:"tip"`
	Total       decimal.Decimal `json:"total"`
}

// Order represents a customer order. Everything except Status is frozen at creation.
type Order struct {
	ID              uuid.UUID        `json:"id" db:"id"`
	UserID          string           `json:"userId" db:"user_id"`
	Lines           []OrderLine      `json:"lines"`
	Totals          PricingBreakdown `json:"totals"`
	Status          OrderStatus      `json:"status" db:"status"`
	ShippingAddress string           `json:"shippingAddress" db:"shipping_address"`
	PromoCode       *string          `json:"promoCode,omitempty" db:"promo_code"`
	CreatedAt       time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time        `json:"updatedAt" db:"updated_at"`
}

// OrderLine is a line item frozen at order time.
type OrderLine struct {
	ID        uuid.UUID       `json:"-" db:"id"`
	OrderID   uuid.UUID       `json:"-" db:"order_id"`
	ProductID string          `json:"productId" db:"product_id"`
	Name      string          `json:"name" db:"name"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice" db:"unit_price"`
}

// CreateOrderRequest represents the request payload for creating an order.
type CreateOrderRequest struct {
	TotalAmount     decimal.Decimal    `json:"totalAmount"`
	ShippingAddress string             `json:"shippingAddress" validate:"required,max=500"`
	PromoCode       string             `json:"promoCode,omitempty" validate:"max=50"`
	Tip             decimal.Decimal    `json:"tip"`
	Items           []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// OrderItemRequest represents a single item in an order request.
type OrderItemRequest struct {
	ProductID string          `json:"productId" validate:"required"`
	Quantity  int             `json:"quantity" validate:"min=1,max=999"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// CreateOrderResponse is returned by POST /api/orders.
type CreateOrderResponse struct {
	OrderID   uuid.UUID   `json:"orderId"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
}

// UpdateStatusRequest is the payload for PUT /api/orders/{id}/status.
type UpdateStatusRequest struct {
	Status OrderStatus `json:"status" validate:"required"`
}

// OrderSummary is a compact listing row used by dashboards.
type OrderSummary struct {
	ID        uuid.UUID       `json:"id"`
	UserID    string          `json:"userId"`
	Total     decimal.Decimal `json:"total"`
	Status    OrderStatus     `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
}

// DashboardStats aggregates order state for operators.
type DashboardStats struct {
	Income         decimal.Decimal `json:"income"`
	TotalOrders    int             `json:"totalOrders"`
	TotalCustomers int             `json:"totalCustomers"`
	TotalProducts  int             `json:"totalProducts"`
	RecentOrders   []OrderSummary  `json:"recentOrders"`
}
