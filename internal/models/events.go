package models

import "time"

// Event types
const (
	EventTypeOrderCreated     = "ORDER_CREATED"
	EventTypePaymentConfirmed = "PAYMENT_CONFIRMED"
	EventTypePaymentRejected  = "PAYMENT_REJECTED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderCreatedEvent published when a pending order and its items are persisted
type OrderCreatedEvent struct {
	BaseEvent
	OrderID     string          `json:"order_id"`
	UserID      string          `json:"user_id"`
	TotalAmount string          `json:"total_amount"`
	Items       []OrderItemData `json:"items"`
}

// PaymentConfirmedEvent published when the gateway reports a successful payment
type PaymentConfirmedEvent struct {
	BaseEvent
	OrderID     string `json:"order_id"`
	UserID      string `json:"user_id"`
	MinorAmount int64  `json:"minor_amount"`
}

// PaymentRejectedEvent published when the gateway reports a failed payment
type PaymentRejectedEvent struct {
	BaseEvent
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id"`
	Reason  string `json:"reason"`
}

// OrderItemData represents item data in events
type OrderItemData struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}
