//go:build integration

package test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rmendes/storefront-api/internal/accounts"
	"github.com/rmendes/storefront-api/internal/cart"
	"github.com/rmendes/storefront-api/internal/catalog"
	"github.com/rmendes/storefront-api/internal/domain"
	"github.com/rmendes/storefront-api/internal/orders"
	"github.com/rmendes/storefront-api/internal/worker"
)

type fixture struct {
	db       *sql.DB
	products *catalog.Repository
	carts    *cart.Repository
	users    *accounts.Repository
	orders   *orders.Repository
	engine   *orders.Engine
}

func newFixture(t *testing.T, connStr string) *fixture {
	t.Helper()

	db, err := OpenDB(connStr)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	products := catalog.NewRepository(db, nil)
	carts := cart.NewRepository(db)
	users := accounts.NewRepository(db)
	orderRepo := orders.NewRepository(db)
	engine := orders.NewEngine(db, carts, products, orderRepo, users, nil, nil, logger)

	return &fixture{
		db:       db,
		products: products,
		carts:    carts,
		users:    users,
		orders:   orderRepo,
		engine:   engine,
	}
}

func (f *fixture) seedProduct(t *testing.T, id, name, price string, stock int) {
	t.Helper()
	_, err := f.db.Exec(`
		INSERT INTO products (id, name, description, price, image_url, category, stock, rating, created_at)
		VALUES ($1, $2, '', $3, '', 'Electronics', $4, 0, now())
	`, id, name, price, stock)
	if err != nil {
		t.Fatalf("failed to seed product %s: %v", id, err)
	}
}

func (f *fixture) newUser(t *testing.T, name, email string) *domain.User {
	t.Helper()
	user, err := f.users.CreateUser(context.Background(), name, email, "not-a-real-hash")
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func (f *fixture) stock(t *testing.T, productID string) int {
	t.Helper()
	var stock int
	if err := f.db.QueryRow(`SELECT stock FROM products WHERE id = $1`, productID).Scan(&stock); err != nil {
		t.Fatalf("failed to read stock: %v", err)
	}
	return stock
}

func TestOrderPlacementFlow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	f := newFixture(t, pg.ConnStr)
	f.seedProduct(t, "prod-1", "Wireless Headphones", "12.50", 10)
	user := f.newUser(t, "Test Shopper", "shopper@example.com")

	if _, err := f.carts.AddLine(ctx, user.ID, "prod-1", 2); err != nil {
		t.Fatalf("failed to add to cart: %v", err)
	}

	order, err := f.engine.PlaceOrder(ctx, user.ID, "1 Main St, Springfield", domain.PaymentCreditCard)
	if err != nil {
		t.Fatalf("placement failed: %v", err)
	}

	if order.Status != domain.OrderStatusPending {
		t.Fatalf("expected status %s, got %s", domain.OrderStatusPending, order.Status)
	}
	if want := decimal.RequireFromString("25.00"); !order.TotalAmount.Equal(want) {
		t.Fatalf("expected total %s, got %s", want, order.TotalAmount)
	}
	if len(order.Items) != 1 || order.Items[0].Quantity != 2 {
		t.Fatalf("unexpected order items: %+v", order.Items)
	}
	wantDelivery := order.OrderDate.Add(domain.DeliveryEstimate)
	if !order.EstimatedDelivery.Equal(wantDelivery) {
		t.Fatalf("expected estimated delivery %s, got %s", wantDelivery, order.EstimatedDelivery)
	}

	if got := f.stock(t, "prod-1"); got != 8 {
		t.Fatalf("expected stock 8 after placement, got %d", got)
	}

	lines, err := f.carts.Lines(ctx, user.ID)
	if err != nil {
		t.Fatalf("failed to read cart: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("expected empty cart after placement, got %d lines", len(lines))
	}

	fetched, err := f.engine.Order(ctx, user.ID, order.ID)
	if err != nil {
		t.Fatalf("failed to fetch order: %v", err)
	}
	if fetched == nil {
		t.Fatal("order not found after placement")
	}
	if !fetched.TotalAmount.Equal(order.TotalAmount) {
		t.Fatalf("stored total %s does not match placed total %s", fetched.TotalAmount, order.TotalAmount)
	}
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	f := newFixture(t, pg.ConnStr)
	user := f.newUser(t, "Empty Cart", "empty@example.com")

	_, err := f.engine.PlaceOrder(ctx, user.ID, "1 Main St", domain.PaymentPayPal)
	if !errors.Is(err, orders.ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}

	list, err := f.engine.Orders(ctx, user.ID)
	if err != nil {
		t.Fatalf("failed to list orders: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no orders, got %d", len(list))
	}
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	f := newFixture(t, pg.ConnStr)
	f.seedProduct(t, "prod-a", "Laptop Stand", "49.99", 5)
	f.seedProduct(t, "prod-b", "Water Bottle", "24.99", 1)
	user := f.newUser(t, "Over Asker", "over@example.com")

	if _, err := f.carts.AddLine(ctx, user.ID, "prod-a", 2); err != nil {
		t.Fatalf("failed to add to cart: %v", err)
	}
	if _, err := f.carts.AddLine(ctx, user.ID, "prod-b", 3); err != nil {
		t.Fatalf("failed to add to cart: %v", err)
	}

	_, err := f.engine.PlaceOrder(ctx, user.ID, "1 Main St", domain.PaymentCreditCard)

	var stockErr *orders.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if len(stockErr.ProductIDs) != 1 || stockErr.ProductIDs[0] != "prod-b" {
		t.Fatalf("expected failing product [prod-b], got %v", stockErr.ProductIDs)
	}

	// A failed placement must leave no trace.
	if got := f.stock(t, "prod-a"); got != 5 {
		t.Fatalf("expected prod-a stock untouched at 5, got %d", got)
	}
	if got := f.stock(t, "prod-b"); got != 1 {
		t.Fatalf("expected prod-b stock untouched at 1, got %d", got)
	}

	lines, err := f.carts.Lines(ctx, user.ID)
	if err != nil {
		t.Fatalf("failed to read cart: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected cart to survive failed placement, got %d lines", len(lines))
	}

	list, err := f.engine.Orders(ctx, user.ID)
	if err != nil {
		t.Fatalf("failed to list orders: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no orders, got %d", len(list))
	}
}

func TestConcurrentPlacementLastUnit(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	f := newFixture(t, pg.ConnStr)
	f.seedProduct(t, "prod-last", "Smart Watch Pro", "299.99", 1)

	userA := f.newUser(t, "Racer A", "racer-a@example.com")
	userB := f.newUser(t, "Racer B", "racer-b@example.com")

	for _, id := range []string{userA.ID, userB.ID} {
		if _, err := f.carts.AddLine(ctx, id, "prod-last", 1); err != nil {
			t.Fatalf("failed to add to cart: %v", err)
		}
	}

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for _, id := range []string{userA.ID, userB.ID} {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			_, err := f.engine.PlaceOrder(ctx, userID, "1 Main St", domain.PaymentDebitCard)
			results <- err
		}(id)
	}
	wg.Wait()
	close(results)

	var succeeded, outOfStock int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		default:
			var stockErr *orders.InsufficientStockError
			if !errors.As(err, &stockErr) {
				t.Fatalf("unexpected placement error: %v", err)
			}
			outOfStock++
		}
	}

	if succeeded != 1 || outOfStock != 1 {
		t.Fatalf("expected exactly one winner, got %d successes and %d stock failures", succeeded, outOfStock)
	}
	if got := f.stock(t, "prod-last"); got != 0 {
		t.Fatalf("expected stock 0 after the race, got %d", got)
	}
}

func TestCartMergeAndClear(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	f := newFixture(t, pg.ConnStr)
	f.seedProduct(t, "prod-merge", "Cotton T-Shirt", "29.99", 100)
	user := f.newUser(t, "Merger", "merge@example.com")

	first, err := f.carts.AddLine(ctx, user.ID, "prod-merge", 2)
	if err != nil {
		t.Fatalf("failed to add line: %v", err)
	}
	second, err := f.carts.AddLine(ctx, user.ID, "prod-merge", 3)
	if err != nil {
		t.Fatalf("failed to add line again: %v", err)
	}

	if first.ID != second.ID {
		t.Fatalf("expected the same line to be merged, got %s and %s", first.ID, second.ID)
	}
	if second.Quantity != 5 {
		t.Fatalf("expected merged quantity 5, got %d", second.Quantity)
	}

	total, err := f.carts.Total(ctx, user.ID)
	if err != nil {
		t.Fatalf("failed to compute total: %v", err)
	}
	if want := decimal.RequireFromString("149.95"); !total.Equal(want) {
		t.Fatalf("expected total %s, got %s", want, total)
	}

	if err := f.carts.Clear(ctx, user.ID); err != nil {
		t.Fatalf("failed to clear cart: %v", err)
	}
	// Clearing an already empty cart stays a no-op.
	if err := f.carts.Clear(ctx, user.ID); err != nil {
		t.Fatalf("failed to clear empty cart: %v", err)
	}

	lines, err := f.carts.Lines(ctx, user.ID)
	if err != nil {
		t.Fatalf("failed to read cart: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(lines))
	}
}

func TestOrderStatusLifecycle(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	f := newFixture(t, pg.ConnStr)
	f.seedProduct(t, "prod-life", "LED Desk Lamp", "44.99", 10)
	user := f.newUser(t, "Lifecycle", "lifecycle@example.com")

	if _, err := f.carts.AddLine(ctx, user.ID, "prod-life", 1); err != nil {
		t.Fatalf("failed to add to cart: %v", err)
	}
	order, err := f.engine.PlaceOrder(ctx, user.ID, "1 Main St", domain.PaymentCashOnDelivery)
	if err != nil {
		t.Fatalf("placement failed: %v", err)
	}

	for _, next := range []domain.OrderStatus{
		domain.OrderStatusProcessing,
		domain.OrderStatusShipped,
		domain.OrderStatusDelivered,
	} {
		updated, err := f.engine.UpdateStatus(ctx, user.ID, order.ID, next)
		if err != nil {
			t.Fatalf("transition to %s failed: %v", next, err)
		}
		if updated.Status != next {
			t.Fatalf("expected status %s, got %s", next, updated.Status)
		}
	}

	// Delivered is terminal.
	_, err = f.engine.UpdateStatus(ctx, user.ID, order.ID, domain.OrderStatusCancelled)
	if !errors.Is(err, orders.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	fetched, err := f.engine.Order(ctx, user.ID, order.ID)
	if err != nil {
		t.Fatalf("failed to fetch order: %v", err)
	}
	if fetched.Status != domain.OrderStatusDelivered {
		t.Fatalf("expected stored status to remain Delivered, got %s", fetched.Status)
	}
}

type captureSender struct {
	mu   sync.Mutex
	sent []string
}

func (c *captureSender) Send(_ context.Context, to, subject, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, to+": "+subject)
	return nil
}

func TestWorkerAdvancesPlacedOrder(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	f := newFixture(t, pg.ConnStr)
	f.seedProduct(t, "prod-worker", "Bluetooth Speaker", "89.99", 10)
	user := f.newUser(t, "Worker Flow", "worker-flow@example.com")

	if _, err := f.carts.AddLine(ctx, user.ID, "prod-worker", 1); err != nil {
		t.Fatalf("failed to add to cart: %v", err)
	}
	order, err := f.engine.PlaceOrder(ctx, user.ID, "1 Main St", domain.PaymentCreditCard)
	if err != nil {
		t.Fatalf("placement failed: %v", err)
	}

	event := domain.OrderCreatedEvent{
		OrderID:   order.ID,
		UserID:    user.ID,
		Email:     user.Email,
		Items:     order.Items,
		Timestamp: order.OrderDate,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("failed to marshal event: %v", err)
	}

	sender := &captureSender{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := worker.NewHandler(f.engine, sender, logger)

	if err := handler.Handle(ctx, payload); err != nil {
		t.Fatalf("worker handler failed: %v", err)
	}

	fetched, err := f.engine.Order(ctx, user.ID, order.ID)
	if err != nil {
		t.Fatalf("failed to fetch order: %v", err)
	}
	if fetched.Status != domain.OrderStatusProcessing {
		t.Fatalf("expected status %s, got %s", domain.OrderStatusProcessing, fetched.Status)
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()
	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(sender.sent))
	}
}
