package domain

import "time"

// OrderCreatedEvent is published to Kafka after a successful placement
// commit. The notification worker consumes it.
type OrderCreatedEvent struct {
	OrderID   string      `json:"order_id"`
	UserID    string      `json:"user_id"`
	Email     string      `json:"email"`
	Items     []OrderItem `json:"items"`
	Timestamp time.Time   `json:"timestamp"`
}
