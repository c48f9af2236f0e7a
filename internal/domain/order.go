package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the status state machine allows moving
// from s to next. Statuses only move forward; Cancelled is reachable from
// Pending and Processing, and Delivered/Cancelled are terminal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return next == OrderStatusProcessing || next == OrderStatusCancelled
	case OrderStatusProcessing:
		return next == OrderStatusShipped || next == OrderStatusCancelled
	case OrderStatusShipped:
		return next == OrderStatusDelivered
	}
	return false
}

type PaymentMethod string

const (
	PaymentCreditCard     PaymentMethod = "Credit Card"
	PaymentDebitCard      PaymentMethod = "Debit Card"
	PaymentPayPal         PaymentMethod = "PayPal"
	PaymentCashOnDelivery PaymentMethod = "Cash on Delivery"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCreditCard, PaymentDebitCard, PaymentPayPal, PaymentCashOnDelivery:
		return true
	}
	return false
}

// DeliveryEstimate is added to the order date to produce estimatedDelivery.
const DeliveryEstimate = 7 * 24 * time.Hour

// OrderItem is a frozen snapshot of a product at placement time. Later
// catalog edits never alter it.
type OrderItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"image_url"`
}

type Order struct {
	ID                string          `json:"id"`
	UserID            string          `json:"user_id"`
	Items             []OrderItem     `json:"items"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	Status            OrderStatus     `json:"status"`
	ShippingAddress   string          `json:"shippingAddress"`
	PaymentMethod     PaymentMethod   `json:"paymentMethod"`
	OrderDate         time.Time       `json:"order_date"`
	EstimatedDelivery time.Time       `json:"estimatedDelivery"`
}
