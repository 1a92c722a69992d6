package model

import "github.com/shopspring/decimal"

// MaxQuantity bounds a single cart line or order item.
const MaxQuantity = 999

// CartLine is one product entry in a customer's cart.
// LineID stays empty until the remote store has acknowledged the line.
type CartLine struct {
	LineID    string          `json:"lineId,omitempty"`
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	Category  string          `json:"category"`
	ImageRef  string          `json:"imageRef"`
}

// Acknowledged reports whether the line carries a server-assigned id.
func (l CartLine) Acknowledged() bool {
	return l.LineID != ""
}

// LineTotal returns unit price times quantity.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// NewCartLine builds a local-only line for product.
func NewCartLine(p Product, quantity int) CartLine {
	return CartLine{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Quantity:  quantity,
		Category:  p.Category,
		ImageRef:  p.ImageURL,
	}
}

// AddToCartRequest is the payload for POST /api/cart.
type AddToCartRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=999"`
}

// UpdateCartLineRequest is the payload for PUT /api/cart/{lineId}.
type UpdateCartLineRequest struct {
	Quantity int `json:"quantity" validate:"min=0,max=999"`
}
