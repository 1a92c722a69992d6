package remote

import (
	"context"
	"net/http"
	"net/url"

	"caffinity/internal/model"

	"github.com/google/uuid"
)

// GetCart returns the signed-in user's cart lines.
func (c *Client) GetCart(ctx context.Context) ([]model.CartLine, error) {
	var lines []model.CartLine
	if err := c.do(ctx, http.MethodGet, "/api/cart", nil, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// AddCartItem adds quantity of productID to the cart.
func (c *Client) AddCartItem(ctx context.Context, productID string, quantity int) error {
	return c.do(ctx, http.MethodPost, "/api/cart", model.AddToCartRequest{
		ProductID: productID,
		Quantity:  quantity,
	}, nil)
}

// UpdateCartItem sets the quantity of an acknowledged line.
func (c *Client) UpdateCartItem(ctx context.Context, lineID string, quantity int) error {
	return c.do(ctx, http.MethodPut, "/api/cart/"+url.PathEscape(lineID), model.UpdateCartLineRequest{
		Quantity: quantity,
	}, nil)
}

// RemoveCartItem deletes an acknowledged line.
func (c *Client) RemoveCartItem(ctx context.Context, lineID string) error {
	return c.do(ctx, http.MethodDelete, "/api/cart/"+url.PathEscape(lineID), nil, nil)
}

// ClearCart deletes every line in the cart.
func (c *Client) ClearCart(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/cart", nil, nil)
}

// ListProducts returns the catalog.
func (c *Client) ListProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := c.do(ctx, http.MethodGet, "/api/products", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct returns a single catalog entry.
func (c *Client) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	if err := c.do(ctx, http.MethodGet, "/api/products/"+url.PathEscape(id), nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateOrder submits an order.
func (c *Client) CreateOrder(ctx context.Context, req model.CreateOrderRequest) (*model.CreateOrderResponse, error) {
	var resp model.CreateOrderResponse
	if err := c.do(ctx, http.MethodPost, "/api/orders", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MyOrders returns the signed-in user's orders, newest first.
func (c *Client) MyOrders(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	if err := c.do(ctx, http.MethodGet, "/api/orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// AllOrders returns every order. Operator only.
func (c *Client) AllOrders(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	if err := c.do(ctx, http.MethodGet, "/api/orders/admin/all", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrder returns a single order.
func (c *Client) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := c.do(ctx, http.MethodGet, "/api/orders/"+id.String(), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrderStatus moves an order to status. Operator only.
func (c *Client) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (*model.Order, error) {
	var order model.Order
	if err := c.do(ctx, http.MethodPut, "/api/orders/"+id.String()+"/status", model.UpdateStatusRequest{
		Status: status,
	}, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// DashboardStats returns the operator aggregate view.
func (c *Client) DashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	var stats model.DashboardStats
	if err := c.do(ctx, http.MethodGet, "/api/dashboard/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
