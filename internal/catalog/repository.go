package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rmendes/storefront-api/internal/domain"
)

var ErrInsufficientStock = errors.New("insufficient stock")

// Execer is satisfied by both *sql.DB and *sql.Tx. DecrementStock takes it
// as a parameter so the order engine can run the decrement inside its
// placement transaction.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Repository struct {
	db    *sql.DB
	cache *Cache
}

func NewRepository(db *sql.DB, cache *Cache) *Repository {
	return &Repository{db: db, cache: cache}
}

func (r *Repository) Get(ctx context.Context, id string) (*domain.Product, error) {
	if p, ok := r.cache.Get(ctx, id); ok {
		return p, nil
	}

	product := &domain.Product{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, price, image_url, category, stock, rating, created_at
		FROM products
		WHERE id = $1
	`, id).Scan(&product.ID, &product.Name, &product.Description, &product.Price,
		&product.ImageURL, &product.Category, &product.Stock, &product.Rating, &product.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	reviews, err := r.reviews(ctx, id)
	if err != nil {
		return nil, err
	}
	product.Reviews = reviews

	r.cache.Set(ctx, product)
	return product, nil
}

func (r *Repository) reviews(ctx context.Context, productID string) ([]domain.Review, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, author, comment, rating, created_at
		FROM product_reviews
		WHERE product_id = $1
		ORDER BY created_at
	`, productID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	reviews := []domain.Review{}
	for rows.Next() {
		var rev domain.Review
		if err := rows.Scan(&rev.ID, &rev.Author, &rev.Comment, &rev.Rating, &rev.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, rev)
	}

	return reviews, rows.Err()
}

func (r *Repository) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	query, args := buildListQuery(filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	products := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price,
			&p.ImageURL, &p.Category, &p.Stock, &p.Rating, &p.CreatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	return products, rows.Err()
}

// buildListQuery assembles the filtered listing statement. Default ordering
// is insertion order; sort filters override it.
func buildListQuery(filter domain.ProductFilter) (string, []any) {
	var b strings.Builder
	b.WriteString(`
		SELECT id, name, description, price, image_url, category, stock, rating, created_at
		FROM products`)

	var conds []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Category != "" {
		conds = append(conds, "category = "+arg(filter.Category))
	}
	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		conds = append(conds, fmt.Sprintf("(name ILIKE %s OR description ILIKE %s)", p, p))
	}
	if filter.MinPrice != nil {
		conds = append(conds, "price >= "+arg(*filter.MinPrice))
	}
	if filter.MaxPrice != nil {
		conds = append(conds, "price <= "+arg(*filter.MaxPrice))
	}
	if filter.MinRating != nil {
		conds = append(conds, "rating >= "+arg(*filter.MinRating))
	}

	if len(conds) > 0 {
		b.WriteString("\n\t\tWHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}

	switch filter.Sort {
	case domain.SortPriceAsc:
		b.WriteString("\n\t\tORDER BY price")
	case domain.SortPriceDesc:
		b.WriteString("\n\t\tORDER BY price DESC")
	case domain.SortRatingDesc:
		b.WriteString("\n\t\tORDER BY rating DESC")
	default:
		b.WriteString("\n\t\tORDER BY created_at")
	}

	return b.String(), args
}

// DecrementStock is the only stock-mutating primitive. The guard and the
// write are one statement, so two orders racing for the last unit cannot
// both succeed.
func (r *Repository) DecrementStock(ctx context.Context, ex Execer, id string, amount int) error {
	result, err := ex.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - $2
		WHERE id = $1 AND stock >= $2
	`, id, amount)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrInsufficientStock
	}

	return nil
}

// AddReview appends a review and recomputes the product's average rating.
// Returns nil when the product does not exist.
func (r *Repository) AddReview(ctx context.Context, productID, author, comment string, rating int) (*domain.Product, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID,
	).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO product_reviews (id, product_id, author, comment, rating, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.New().String(), productID, author, comment, rating, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE products
		SET rating = (SELECT ROUND(AVG(rating)::numeric, 1) FROM product_reviews WHERE product_id = $1)
		WHERE id = $1
	`, productID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	r.cache.Invalidate(ctx, productID)
	return r.Get(ctx, productID)
}
