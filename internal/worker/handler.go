package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rmendes/storefront-api/internal/domain"
	"github.com/rmendes/storefront-api/internal/notify"
	"github.com/rmendes/storefront-api/internal/orders"
)

// StatusUpdater is the slice of the order engine the worker needs.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, userID, id string, status domain.OrderStatus) (*domain.Order, error)
}

// Handler reacts to order.created events: send the confirmation email,
// then move the order from Pending to Processing.
type Handler struct {
	updater StatusUpdater
	email   notify.EmailSender
	logger  *slog.Logger
}

func NewHandler(updater StatusUpdater, email notify.EmailSender, logger *slog.Logger) *Handler {
	return &Handler{updater: updater, email: email, logger: logger}
}

func (h *Handler) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderCreatedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order created event: %w", err)
	}

	h.logger.Info("processing order created event", "order_id", event.OrderID, "user_id", event.UserID)

	if event.Email != "" {
		subject, body := notify.ConfirmationEmail(event)
		if err := h.email.Send(ctx, event.Email, subject, body); err != nil {
			h.logger.Error("failed to send confirmation email", "error", err, "order_id", event.OrderID)
			return fmt.Errorf("send confirmation email: %w", err)
		}
	}

	order, err := h.updater.UpdateStatus(ctx, event.UserID, event.OrderID, domain.OrderStatusProcessing)
	if err != nil {
		// The order may have been cancelled between placement and delivery
		// of the event; that is not a processing failure.
		if errors.Is(err, orders.ErrInvalidTransition) {
			h.logger.Warn("order no longer pending, skipping", "order_id", event.OrderID)
			return nil
		}
		h.logger.Error("failed to advance order", "error", err, "order_id", event.OrderID)
		return fmt.Errorf("advance order %s: %w", event.OrderID, err)
	}
	if order == nil {
		h.logger.Warn("order not found for event", "order_id", event.OrderID)
		return nil
	}

	h.logger.Info("order processing", "order_id", event.OrderID)
	return nil
}
