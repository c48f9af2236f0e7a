package cart

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rmendes/storefront-api/internal/accounts"
)

type Handler struct {
	repo   *Repository
	logger *slog.Logger
}

func NewHandler(repo *Repository, logger *slog.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID := accounts.UserIDFromContext(r.Context())

	items, err := h.repo.Lines(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list cart", "error", err, "user_id", userID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, items)
}

type addLineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	userID := accounts.UserIDFromContext(r.Context())

	var req addLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProductID == "" {
		h.writeError(w, http.StatusBadRequest, "product_id is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	item, err := h.repo.AddLine(r.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, ErrProductNotFound):
			h.writeError(w, http.StatusNotFound, "product not found")
		case errors.Is(err, ErrInvalidQuantity):
			h.writeError(w, http.StatusBadRequest, "quantity must be at least 1")
		default:
			h.logger.Error("failed to add to cart", "error", err, "user_id", userID, "product_id", req.ProductID)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.logger.Info("cart line added", "user_id", userID, "product_id", req.ProductID, "quantity", item.Quantity)
	h.writeJSON(w, http.StatusCreated, item)
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) HandleSetQuantity(w http.ResponseWriter, r *http.Request) {
	userID := accounts.UserIDFromContext(r.Context())
	lineID := r.PathValue("id")

	var req setQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.repo.SetQuantity(r.Context(), userID, lineID, req.Quantity)
	if err != nil {
		if errors.Is(err, ErrInvalidQuantity) {
			h.writeError(w, http.StatusBadRequest, "quantity must be at least 1")
			return
		}
		h.logger.Error("failed to update cart line", "error", err, "user_id", userID, "line_id", lineID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if item == nil {
		h.writeError(w, http.StatusNotFound, "cart item not found")
		return
	}

	h.writeJSON(w, http.StatusOK, item)
}

func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	userID := accounts.UserIDFromContext(r.Context())
	lineID := r.PathValue("id")

	found, err := h.repo.RemoveLine(r.Context(), userID, lineID)
	if err != nil {
		h.logger.Error("failed to remove cart line", "error", err, "user_id", userID, "line_id", lineID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if !found {
		h.writeError(w, http.StatusNotFound, "cart item not found")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"message": "item removed from cart"})
}

func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	userID := accounts.UserIDFromContext(r.Context())

	if err := h.repo.Clear(r.Context(), userID); err != nil {
		h.logger.Error("failed to clear cart", "error", err, "user_id", userID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"message": "cart cleared"})
}

func (h *Handler) HandleTotal(w http.ResponseWriter, r *http.Request) {
	userID := accounts.UserIDFromContext(r.Context())

	total, err := h.repo.Total(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to total cart", "error", err, "user_id", userID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"total": total})
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
