package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a menu item in the catalogue.
type Product struct {
	ID          string          `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Category    string          `json:"category" db:"category"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Description string          `json:"description" db:"description"`
	ImageURL    string          `json:"imageUrl" db:"image_url"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// ProductRequest is the operator payload for creating or replacing a product.
type ProductRequest struct {
	ID          string          `json:"id,omitempty" validate:"omitempty,max=50"`
	Name        string          `json:"name" validate:"required,max=255"`
	Category    string          `json:"category" validate:"required,max=100"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description" validate:"max=2000"`
	ImageURL    string          `json:"imageUrl" validate:"omitempty,url"`
}
