package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order represents a persisted purchase intent. Its id doubles as the
// gateway's merchant transaction reference (merchant_oid).
type Order struct {
	ID              string          `db:"id" json:"id"`
	UserID          string          `db:"user_id" json:"user_id"`
	TotalAmount     decimal.Decimal `db:"total_amount" json:"total_amount"`
	ShippingAddress string          `db:"shipping_address" json:"shipping_address"`
	Status          string          `db:"status" json:"status"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// OrderItem is a line of an order. UnitPrice is a snapshot taken at order
// creation, not a reference to the live product price.
type OrderItem struct {
	ID        int64           `db:"id" json:"id"`
	OrderID   string          `db:"order_id" json:"order_id"`
	ProductID string          `db:"product_id" json:"product_id"`
	Name      string          `db:"name" json:"name"`
	Quantity  int             `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`
}

// Profile holds buyer contact details used when composing the gateway payload.
type Profile struct {
	UserID string `db:"id" json:"id"`
	Name   string `db:"name" json:"name"`
	Phone  string `db:"phone" json:"phone"`
	Email  string `db:"email" json:"email"`
}

// WebhookLogEntry records one inbound gateway callback for operator review.
type WebhookLogEntry struct {
	ID            int64     `db:"id"`
	OrderID       string    `db:"order_id"`
	GatewayStatus string    `db:"gateway_status"`
	TotalAmount   string    `db:"total_amount"`
	SignatureOK   bool      `db:"signature_ok"`
	ReceivedAt    time.Time `db:"received_at"`
}

// Order statuses. The webhook reconciler only performs pending->processing and
// pending->cancelled; shipped/delivered belong to fulfillment.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// ValidStatus reports whether s is a known order status.
func ValidStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}
