// Package checkout places orders with the remote store.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"caffinity/internal/model"
	"caffinity/internal/promotion"
	"caffinity/internal/remote"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// EstimatedDelivery is the non-binding delivery estimate shown after ordering.
const EstimatedDelivery = "25-40 minutes"

// GenericFailureMessage is shown when the store gives no reason for a failure.
const GenericFailureMessage = "Could not place the order. Check your connection and try again."

var (
	// ErrEmptyCart is returned before any network call when there is nothing to order.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrSubmissionInProgress is returned while another submission is in flight.
	ErrSubmissionInProgress = errors.New("an order is already being placed")
)

// SubmitError is a failed submission. Message is safe to show to the user.
type SubmitError struct {
	Message string
	Err     error
}

func (e *SubmitError) Error() string {
	return e.Message
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// OrderStore creates orders remotely.
type OrderStore interface {
	CreateOrder(ctx context.Context, req model.CreateOrderRequest) (*model.CreateOrderResponse, error)
}

// Cart is cleared after a successful submission.
type Cart interface {
	Clear(ctx context.Context)
}

// PromotionHolder is cleared together with the cart.
type PromotionHolder interface {
	Clear()
}

// Request is the snapshot submitted for one order.
type Request struct {
	Lines     []model.CartLine
	Breakdown model.PricingBreakdown
	Promotion *promotion.Descriptor
	// Address is the delivery address. Empty means the configured default.
	Address string
}

// Confirmation describes a placed order.
type Confirmation struct {
	OrderID           uuid.UUID
	OrderNumber       string
	Status            model.OrderStatus
	Lines             []model.CartLine
	Breakdown         model.PricingBreakdown
	Promotion         *promotion.Descriptor
	Address           string
	EstimatedDelivery string
	PlacedAt          time.Time
}

// Submitter places at most one order at a time.
type Submitter struct {
	store          OrderStore
	cart           Cart
	promotions     PromotionHolder
	defaultAddress string
	inFlight       atomic.Bool
	logger         zerolog.Logger
}

// New creates a submitter. promotions may be nil.
func New(store OrderStore, cart Cart, promotions PromotionHolder, defaultAddress string, logger zerolog.Logger) *Submitter {
	return &Submitter{
		store:          store,
		cart:           cart,
		promotions:     promotions,
		defaultAddress: defaultAddress,
		logger:         logger.With().Str("component", "order-submitter").Logger(),
	}
}

// InFlight reports whether a submission is currently running.
func (s *Submitter) InFlight() bool {
	return s.inFlight.Load()
}

// Submit places an order for req. On failure the cart and promotion are left
// exactly as they were and the returned error is a *SubmitError.
func (s *Submitter) Submit(ctx context.Context, req Request) (*Confirmation, error) {
	if len(req.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Debug().Msg("submission already in flight")
		return nil, ErrSubmissionInProgress
	}
	defer s.inFlight.Store(false)

	address := strings.TrimSpace(req.Address)
	if address == "" {
		address = s.defaultAddress
	}

	payload := model.CreateOrderRequest{
		TotalAmount:     req.Breakdown.Total,
		ShippingAddress: address,
		Tip:             req.Breakdown.Tip,
		Items:           make([]model.OrderItemRequest, len(req.Lines)),
	}
	for i, l := range req.Lines {
		payload.Items[i] = model.OrderItemRequest{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		}
	}
	if req.Promotion != nil {
		payload.PromoCode = req.Promotion.Code
	}

	resp, err := s.store.CreateOrder(ctx, payload)
	if err != nil {
		message := GenericFailureMessage
		var apiErr *remote.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			message = apiErr.Message
		}

		s.logger.Error().
			Err(err).
			Int("line_count", len(req.Lines)).
			Str("total", req.Breakdown.Total.String()).
			Msg("order submission failed")
		return nil, &SubmitError{Message: message, Err: fmt.Errorf("failed to create order: %w", err)}
	}

	s.cart.Clear(ctx)
	if s.promotions != nil {
		s.promotions.Clear()
	}

	lines := make([]model.CartLine, len(req.Lines))
	copy(lines, req.Lines)

	var promo *promotion.Descriptor
	if req.Promotion != nil {
		p := *req.Promotion
		promo = &p
	}

	placedAt := resp.CreatedAt
	if placedAt.IsZero() {
		placedAt = time.Now()
	}

	s.logger.Info().
		Str("order_id", resp.OrderID.String()).
		Str("total", req.Breakdown.Total.String()).
		Msg("order placed")

	return &Confirmation{
		OrderID:           resp.OrderID,
		OrderNumber:       OrderNumber(resp.OrderID),
		Status:            resp.Status,
		Lines:             lines,
		Breakdown:         req.Breakdown,
		Promotion:         promo,
		Address:           address,
		EstimatedDelivery: EstimatedDelivery,
		PlacedAt:          placedAt,
	}, nil
}

// OrderNumber is the customer-facing order reference.
func OrderNumber(id uuid.UUID) string {
	return "ORD-" + id.String()
}
