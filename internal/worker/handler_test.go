package worker

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmendes/storefront-api/internal/domain"
	"github.com/rmendes/storefront-api/internal/orders"
)

type fakeUpdater struct {
	err    error
	order  *domain.Order
	calls  []domain.OrderStatus
	lastID string
}

func (f *fakeUpdater) UpdateStatus(_ context.Context, _, id string, status domain.OrderStatus) (*domain.Order, error) {
	f.calls = append(f.calls, status)
	f.lastID = id
	return f.order, f.err
}

type fakeSender struct {
	sent []string
	err  error
}

func (f *fakeSender) Send(_ context.Context, to, subject, _ string) error {
	f.sent = append(f.sent, to+": "+subject)
	return f.err
}

func newTestHandler(u *fakeUpdater, s *fakeSender) *Handler {
	return NewHandler(u, s, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func eventPayload(t *testing.T, event domain.OrderCreatedEvent) []byte {
	t.Helper()
	data, err := json.Marshal(event)
	require.NoError(t, err)
	return data
}

func TestHandle(t *testing.T) {
	event := domain.OrderCreatedEvent{
		OrderID: "order-1",
		UserID:  "user-1",
		Email:   "shopper@example.com",
		Items:   []domain.OrderItem{{ProductID: "p-1", Quantity: 2}},
	}

	t.Run("sends email and advances to Processing", func(t *testing.T) {
		updater := &fakeUpdater{order: &domain.Order{ID: "order-1"}}
		sender := &fakeSender{}

		err := newTestHandler(updater, sender).Handle(t.Context(), eventPayload(t, event))

		require.NoError(t, err)
		require.Len(t, sender.sent, 1)
		assert.Equal(t, "shopper@example.com: Order Confirmation: order-1", sender.sent[0])
		require.Equal(t, []domain.OrderStatus{domain.OrderStatusProcessing}, updater.calls)
		assert.Equal(t, "order-1", updater.lastID)
	})

	t.Run("skips email when address is unknown", func(t *testing.T) {
		updater := &fakeUpdater{order: &domain.Order{ID: "order-1"}}
		sender := &fakeSender{}

		noEmail := event
		noEmail.Email = ""
		err := newTestHandler(updater, sender).Handle(t.Context(), eventPayload(t, noEmail))

		require.NoError(t, err)
		assert.Empty(t, sender.sent)
		assert.Len(t, updater.calls, 1)
	})

	t.Run("cancelled order is not an error", func(t *testing.T) {
		updater := &fakeUpdater{err: orders.ErrInvalidTransition}
		sender := &fakeSender{}

		err := newTestHandler(updater, sender).Handle(t.Context(), eventPayload(t, event))

		assert.NoError(t, err)
	})

	t.Run("malformed payload fails", func(t *testing.T) {
		err := newTestHandler(&fakeUpdater{}, &fakeSender{}).Handle(t.Context(), []byte("{broken"))
		assert.Error(t, err)
	})

	t.Run("email failure is retried by returning the error", func(t *testing.T) {
		updater := &fakeUpdater{}
		sender := &fakeSender{err: context.DeadlineExceeded}

		err := newTestHandler(updater, sender).Handle(t.Context(), eventPayload(t, event))

		assert.Error(t, err)
		assert.Empty(t, updater.calls, "status must not advance when the email fails")
	})
}
