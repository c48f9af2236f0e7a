package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CartItem struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
	Product   *Product  `json:"product,omitempty"`
}

// CheckoutLine is a cart line joined with the product fields the order
// engine snapshots at placement time. Stock is the value observed inside
// the placement transaction.
type CheckoutLine struct {
	LineID    string
	ProductID string
	Name      string
	Price     decimal.Decimal
	ImageURL  string
	Quantity  int
	Stock     int
}
