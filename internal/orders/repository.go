package orders

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/rmendes/storefront-api/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the order and its line snapshots on the caller's
// transaction; the engine owns the commit.
func (r *Repository) Create(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, total_amount, status, shipping_address, payment_method, order_date, estimated_delivery)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, order.ID, order.UserID, order.TotalAmount, order.Status,
		order.ShippingAddress, order.PaymentMethod, order.OrderDate, order.EstimatedDelivery)
	if err != nil {
		return err
	}

	for _, item := range order.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, name, quantity, price, image_url)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, uuid.New().String(), order.ID, item.ProductID, item.Name, item.Quantity, item.Price, item.ImageURL)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *Repository) GetByID(ctx context.Context, userID, id string) (*domain.Order, error) {
	order := &domain.Order{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, total_amount, status, shipping_address, payment_method, order_date, estimated_delivery
		FROM orders
		WHERE id = $1 AND user_id = $2
	`, id, userID).Scan(&order.ID, &order.UserID, &order.TotalAmount, &order.Status,
		&order.ShippingAddress, &order.PaymentMethod, &order.OrderDate, &order.EstimatedDelivery)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, name, quantity, price, image_url
		FROM order_items
		WHERE order_id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ProductID, &item.Name, &item.Quantity, &item.Price, &item.ImageURL); err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return order, nil
}

// ListByUser returns the user's orders, newest first, loading line items
// in a single batch query.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, total_amount, status, shipping_address, payment_method, order_date, estimated_delivery
		FROM orders
		WHERE user_id = $1
		ORDER BY order_date DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[string]*domain.Order)
	var orderIDs []string

	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(&order.ID, &order.UserID, &order.TotalAmount, &order.Status,
			&order.ShippingAddress, &order.PaymentMethod, &order.OrderDate, &order.EstimatedDelivery); err != nil {
			return nil, err
		}
		order.Items = []domain.OrderItem{}
		orderMap[order.ID] = &order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}

	itemRows, err := r.db.QueryContext(ctx, `
		SELECT order_id, product_id, name, quantity, price, image_url
		FROM order_items
		WHERE order_id = ANY($1)
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = itemRows.Close() }()

	for itemRows.Next() {
		var orderID string
		var item domain.OrderItem
		if err := itemRows.Scan(&orderID, &item.ProductID, &item.Name, &item.Quantity, &item.Price, &item.ImageURL); err != nil {
			return nil, err
		}
		order := orderMap[orderID]
		order.Items = append(order.Items, item)
	}

	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *orderMap[id])
	}

	return orders, nil
}

func (r *Repository) statusForUpdate(ctx context.Context, tx *sql.Tx, userID, id string) (domain.OrderStatus, bool, error) {
	var status domain.OrderStatus
	err := tx.QueryRowContext(ctx, `
		SELECT status FROM orders
		WHERE id = $1 AND user_id = $2
		FOR UPDATE
	`, id, userID).Scan(&status)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, err
	}
	return status, true, nil
}

func (r *Repository) updateStatus(ctx context.Context, tx *sql.Tx, id string, status domain.OrderStatus) error {
	_, err := tx.ExecContext(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, id, status)
	return err
}
