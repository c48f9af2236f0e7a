package cart

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmendes/storefront-api/internal/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// DBTX is satisfied by *sql.DB and *sql.Tx. The order engine passes its
// placement transaction to CheckoutLines and ClearWith.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const lineColumns = `
	ci.id, ci.user_id, ci.product_id, ci.quantity, ci.added_at,
	p.id, p.name, p.description, p.price, p.image_url, p.category, p.stock, p.rating, p.created_at`

func scanLine(row interface{ Scan(dest ...any) error }) (*domain.CartItem, error) {
	item := &domain.CartItem{Product: &domain.Product{}}
	p := item.Product
	err := row.Scan(&item.ID, &item.UserID, &item.ProductID, &item.Quantity, &item.AddedAt,
		&p.ID, &p.Name, &p.Description, &p.Price, &p.ImageURL, &p.Category, &p.Stock, &p.Rating, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Lines returns the user's cart with products expanded, newest first.
func (r *Repository) Lines(ctx context.Context, userID string) ([]domain.CartItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+lineColumns+`
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.added_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []domain.CartItem{}
	for rows.Next() {
		item, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	return items, rows.Err()
}

// AddLine merges into an existing line for the same product by adding
// quantities, or creates a new line.
func (r *Repository) AddLine(ctx context.Context, userID, productID string, quantity int) (*domain.CartItem, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID,
	).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrProductNotFound
	}

	var lineID string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO cart_items (id, user_id, product_id, quantity, added_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING id
	`, uuid.New().String(), userID, productID, quantity, time.Now().UTC()).Scan(&lineID)
	if err != nil {
		return nil, err
	}

	return r.line(ctx, userID, lineID)
}

// SetQuantity replaces a line's quantity. Quantities below 1 are rejected;
// removal is RemoveLine's job. Returns nil when the line does not exist.
func (r *Repository) SetQuantity(ctx context.Context, userID, lineID string, quantity int) (*domain.CartItem, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE cart_items SET quantity = $3
		WHERE id = $1 AND user_id = $2
	`, lineID, userID, quantity)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, nil
	}

	return r.line(ctx, userID, lineID)
}

// RemoveLine deletes a line, reporting whether it existed.
func (r *Repository) RemoveLine(ctx context.Context, userID, lineID string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_items
		WHERE id = $1 AND user_id = $2
	`, lineID, userID)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

// Clear empties the user's cart. Clearing an empty cart is a no-op.
func (r *Repository) Clear(ctx context.Context, userID string) error {
	return r.ClearWith(ctx, r.db, userID)
}

func (r *Repository) ClearWith(ctx context.Context, ex DBTX, userID string) error {
	_, err := ex.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	return err
}

// Total sums quantity times the current catalog price over the cart. Cart
// totals are live; order totals are frozen at placement.
func (r *Repository) Total(ctx context.Context, userID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(ci.quantity * p.price), 0)
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
	`, userID).Scan(&total)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return total, nil
}

// CheckoutLines reads the cart joined with current product snapshots for
// order placement, on the engine's transaction.
func (r *Repository) CheckoutLines(ctx context.Context, q DBTX, userID string) ([]domain.CheckoutLine, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT ci.id, ci.product_id, p.name, p.price, p.image_url, ci.quantity, p.stock
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.added_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var lines []domain.CheckoutLine
	for rows.Next() {
		var line domain.CheckoutLine
		if err := rows.Scan(&line.LineID, &line.ProductID, &line.Name, &line.Price,
			&line.ImageURL, &line.Quantity, &line.Stock); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	return lines, rows.Err()
}

func (r *Repository) line(ctx context.Context, userID, lineID string) (*domain.CartItem, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+lineColumns+`
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.id = $1 AND ci.user_id = $2
	`, lineID, userID)

	item, err := scanLine(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return item, nil
}
