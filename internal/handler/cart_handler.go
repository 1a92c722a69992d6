package handler

import (
	"net/http"

	"caffinity/internal/model"
	"caffinity/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// CartHandler handles the caller's cart.
type CartHandler struct {
	service service.CartService
	logger  zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(service service.CartService, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		logger:  logger.With().Str("handler", "cart").Logger(),
	}
}

// List handles GET /api/cart.
func (h *CartHandler) List(w http.ResponseWriter, r *http.Request) {
	c, err := claims(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	lines, err := h.service.List(r.Context(), c.UserID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, lines)
}

// Add handles POST /api/cart.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	c, err := claims(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var req model.AddToCartRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	line, err := h.service.Add(r.Context(), c.UserID, &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, line)
}

// Update handles PUT /api/cart/{lineId}.
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	c, err := claims(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var req model.UpdateCartLineRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	if err := h.service.SetQuantity(r.Context(), c.UserID, chi.URLParam(r, "lineId"), req.Quantity); err != nil {
		writeError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Remove handles DELETE /api/cart/{lineId}.
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	c, err := claims(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	if err := h.service.Remove(r.Context(), c.UserID, chi.URLParam(r, "lineId")); err != nil {
		writeError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Clear handles DELETE /api/cart.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	c, err := claims(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	if err := h.service.Clear(r.Context(), c.UserID); err != nil {
		writeError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
