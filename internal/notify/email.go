package notify

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/rmendes/storefront-api/internal/domain"
)

// EmailSender delivers order notifications. The log implementation stands
// in for a real provider.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogSender writes the email to the log after a simulated provider delay.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, to, subject, body string) error {
	delay := time.Duration(50+rand.Intn(151)) * time.Millisecond
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return ctx.Err()
	}

	s.logger.Info("email sent", "to", to, "subject", subject)
	return nil
}

// ConfirmationEmail renders the order confirmation message.
func ConfirmationEmail(event domain.OrderCreatedEvent) (subject, body string) {
	subject = "Order Confirmation: " + event.OrderID
	body = fmt.Sprintf("Your order %s has been received with %d items and is being processed.",
		event.OrderID, len(event.Items))
	return subject, body
}
