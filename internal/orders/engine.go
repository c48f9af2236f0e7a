package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmendes/storefront-api/internal/accounts"
	"github.com/rmendes/storefront-api/internal/cart"
	"github.com/rmendes/storefront-api/internal/catalog"
	"github.com/rmendes/storefront-api/internal/domain"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ValidationError reports a missing or malformed placement input.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// InsufficientStockError lists every product whose requested quantity
// exceeds available stock. Placement performs no mutation when it is
// returned.
type InsufficientStockError struct {
	ProductIDs []string
}

func (e *InsufficientStockError) Error() string {
	return "insufficient stock for: " + strings.Join(e.ProductIDs, ", ")
}

// EventPublisher is the slice of the Kafka producer the engine uses.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// Engine converts a cart into an immutable order. The three effects of
// placement — insert the order, decrement stock per line, clear the cart —
// run in one Postgres transaction, so concurrent placements racing for the
// same stock serialize on the row-level CAS decrement and a failed guard
// rolls everything back.
type Engine struct {
	db       *sql.DB
	carts    *cart.Repository
	products *catalog.Repository
	orders   *Repository
	users    *accounts.Repository
	cache    *catalog.Cache
	producer EventPublisher
	logger   *slog.Logger
}

func NewEngine(db *sql.DB, carts *cart.Repository, products *catalog.Repository,
	orders *Repository, users *accounts.Repository, cache *catalog.Cache,
	producer EventPublisher, logger *slog.Logger) *Engine {
	return &Engine{
		db:       db,
		carts:    carts,
		products: products,
		orders:   orders,
		users:    users,
		cache:    cache,
		producer: producer,
		logger:   logger,
	}
}

func (e *Engine) PlaceOrder(ctx context.Context, userID, shippingAddress string, paymentMethod domain.PaymentMethod) (*domain.Order, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin placement: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	lines, err := e.carts.CheckoutLines(ctx, tx, userID)
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	if err := validatePlacement(shippingAddress, paymentMethod); err != nil {
		return nil, err
	}

	// Pre-check against the snapshot so the response names every failing
	// product. The CAS decrement below remains the authoritative guard.
	if short := shortLines(lines); len(short) > 0 {
		return nil, &InsufficientStockError{ProductIDs: short}
	}

	for _, line := range lines {
		if err := e.products.DecrementStock(ctx, tx, line.ProductID, line.Quantity); err != nil {
			if errors.Is(err, catalog.ErrInsufficientStock) {
				return nil, &InsufficientStockError{ProductIDs: []string{line.ProductID}}
			}
			return nil, fmt.Errorf("decrement stock for %s: %w", line.ProductID, err)
		}
	}

	order := buildOrder(userID, lines, shippingAddress, paymentMethod, time.Now().UTC())
	if err := e.orders.Create(ctx, tx, order); err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	if err := e.carts.ClearWith(ctx, tx, userID); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit placement: %w", err)
	}

	productIDs := make([]string, len(lines))
	for i, line := range lines {
		productIDs[i] = line.ProductID
	}
	e.cache.Invalidate(ctx, productIDs...)

	e.publishCreated(ctx, order)

	e.logger.Info("order placed", "order_id", order.ID, "user_id", userID,
		"total_amount", order.TotalAmount, "items", len(order.Items))
	return order, nil
}

func validatePlacement(shippingAddress string, paymentMethod domain.PaymentMethod) error {
	if strings.TrimSpace(shippingAddress) == "" {
		return &ValidationError{Reason: "shippingAddress is required"}
	}
	if !paymentMethod.Valid() {
		return &ValidationError{Reason: "unknown payment method"}
	}
	return nil
}

// shortLines returns the products whose requested quantity exceeds the
// stock observed in the placement transaction.
func shortLines(lines []domain.CheckoutLine) []string {
	var short []string
	for _, line := range lines {
		if line.Quantity > line.Stock {
			short = append(short, line.ProductID)
		}
	}
	return short
}

// buildOrder freezes the cart into order line snapshots and computes the
// total once. Later catalog edits never change it.
func buildOrder(userID string, lines []domain.CheckoutLine, shippingAddress string, paymentMethod domain.PaymentMethod, now time.Time) *domain.Order {
	items := make([]domain.OrderItem, len(lines))
	total := decimal.Zero
	for i, line := range lines {
		items[i] = domain.OrderItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			Price:     line.Price,
			ImageURL:  line.ImageURL,
		}
		total = total.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	return &domain.Order{
		ID:                uuid.New().String(),
		UserID:            userID,
		Items:             items,
		TotalAmount:       total,
		Status:            domain.OrderStatusPending,
		ShippingAddress:   shippingAddress,
		PaymentMethod:     paymentMethod,
		OrderDate:         now,
		EstimatedDelivery: now.Add(domain.DeliveryEstimate),
	}
}

func (e *Engine) publishCreated(ctx context.Context, order *domain.Order) {
	if e.producer == nil {
		return
	}

	event := domain.OrderCreatedEvent{
		OrderID:   order.ID,
		UserID:    order.UserID,
		Items:     order.Items,
		Timestamp: order.OrderDate,
	}
	if user, err := e.users.UserByID(ctx, order.UserID); err == nil && user != nil {
		event.Email = user.Email
	}

	if err := e.producer.Publish(ctx, order.ID, event); err != nil {
		e.logger.Error("failed to publish order created event", "error", err, "order_id", order.ID)
	}
}

func (e *Engine) Orders(ctx context.Context, userID string) ([]domain.Order, error) {
	return e.orders.ListByUser(ctx, userID)
}

func (e *Engine) Order(ctx context.Context, userID, id string) (*domain.Order, error) {
	return e.orders.GetByID(ctx, userID, id)
}

// UpdateStatus advances an order through the status state machine. Any
// transition the machine rejects returns ErrInvalidTransition; the stored
// status is untouched.
func (e *Engine) UpdateStatus(ctx context.Context, userID, id string, next domain.OrderStatus) (*domain.Order, error) {
	if !next.Valid() {
		return nil, &ValidationError{Reason: "unknown order status"}
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin status update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, found, err := e.orders.statusForUpdate(ctx, tx, userID, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	if !current.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, next)
	}

	if err := e.orders.updateStatus(ctx, tx, id, next); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit status update: %w", err)
	}

	e.logger.Info("order status updated", "order_id", id, "status", next)
	return e.orders.GetByID(ctx, userID, id)
}
