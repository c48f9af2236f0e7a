package orders

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rmendes/storefront-api/internal/accounts"
	"github.com/rmendes/storefront-api/internal/domain"
)

// Service is the engine surface the handler consumes. *Engine implements it.
type Service interface {
	PlaceOrder(ctx context.Context, userID, shippingAddress string, paymentMethod domain.PaymentMethod) (*domain.Order, error)
	Orders(ctx context.Context, userID string) ([]domain.Order, error)
	Order(ctx context.Context, userID, id string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, userID, id string, status domain.OrderStatus) (*domain.Order, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type placeOrderRequest struct {
	ShippingAddress string               `json:"shippingAddress"`
	PaymentMethod   domain.PaymentMethod `json:"paymentMethod"`
}

func (h *Handler) HandlePlace(w http.ResponseWriter, r *http.Request) {
	userID := accounts.UserIDFromContext(r.Context())

	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.service.PlaceOrder(r.Context(), userID, req.ShippingAddress, req.PaymentMethod)
	if err != nil {
		var validationErr *ValidationError
		var stockErr *InsufficientStockError
		switch {
		case errors.Is(err, ErrEmptyCart):
			h.writeError(w, http.StatusBadRequest, "cart is empty")
		case errors.As(err, &validationErr):
			h.writeError(w, http.StatusBadRequest, validationErr.Reason)
		case errors.As(err, &stockErr):
			h.writeJSON(w, http.StatusConflict, map[string]any{
				"error":    "insufficient stock",
				"products": stockErr.ProductIDs,
			})
		default:
			h.logger.Error("failed to place order", "error", err, "user_id", userID)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID := accounts.UserIDFromContext(r.Context())

	orders, err := h.service.Orders(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list orders", "error", err, "user_id", userID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID := accounts.UserIDFromContext(r.Context())
	id := r.PathValue("id")

	order, err := h.service.Order(r.Context(), userID, id)
	if err != nil {
		h.logger.Error("failed to get order", "error", err, "order_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if order == nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

type updateStatusRequest struct {
	Status domain.OrderStatus `json:"status"`
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID := accounts.UserIDFromContext(r.Context())
	id := r.PathValue("id")

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), userID, id, req.Status)
	if err != nil {
		var validationErr *ValidationError
		switch {
		case errors.As(err, &validationErr):
			h.writeError(w, http.StatusBadRequest, validationErr.Reason)
		case errors.Is(err, ErrInvalidTransition):
			h.writeError(w, http.StatusConflict, err.Error())
		default:
			h.logger.Error("failed to update order status", "error", err, "order_id", id)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	if order == nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
