package handler

import (
	"net/http"

	"caffinity/internal/model"
	"caffinity/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// Create handles POST /api/orders requests.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	c, err := claims(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var req model.CreateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	resp, err := h.service.CreateOrder(r.Context(), c.UserID, &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// Mine handles GET /api/orders.
func (h *OrderHandler) Mine(w http.ResponseWriter, r *http.Request) {
	c, err := claims(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	orders, err := h.service.ListByUser(r.Context(), c.UserID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// All handles GET /api/orders/admin/all.
func (h *OrderHandler) All(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListAll(r.Context())
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// GetByID handles GET /api/orders/{id}. Customers only see their own orders.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	c, err := claims(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, model.ErrOrderNotFound, h.logger)
		return
	}

	order, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	if !c.IsOperator() && order.UserID != c.UserID {
		writeError(w, model.ErrOrderNotFound, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// UpdateStatus handles PUT /api/orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, model.ErrOrderNotFound, h.logger)
		return
	}

	var req model.UpdateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}
