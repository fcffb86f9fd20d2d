package service

import (
	"context"
	"time"

	"checkout-service/internal/models"
)

// OrderStore is the persistence surface the services depend on. The sqlx
// store implements it; tests substitute an in-memory fake.
type OrderStore interface {
	CreateOrderWithItems(ctx context.Context, order *models.Order, items []models.OrderItem) error
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	GetOrderForUser(ctx context.Context, id, userID string) (*models.Order, error)
	GetOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error)
	GetOrdersByUser(ctx context.Context, userID string) ([]models.Order, error)
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	FinalizeOrderStatus(ctx context.Context, orderID, newStatus string) (bool, error)
	UpdateOrderStatus(ctx context.Context, orderID, status string) error
	RecordWebhookResult(ctx context.Context, orderID, gatewayStatus, totalAmount string, signatureOK bool) error
}

// EventPublisher publishes domain events. Publishing is best effort on both
// the checkout and webhook paths; a broker outage must not fail a payment.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error
	PublishPaymentConfirmed(ctx context.Context, event *models.PaymentConfirmedEvent) error
	PublishPaymentRejected(ctx context.Context, event *models.PaymentRejectedEvent) error
}

// StatusCache is the Redis-backed order status cache and webhook duplicate
// filter. All of it is advisory; the database is the source of truth.
type StatusCache interface {
	MarkWebhookDelivery(ctx context.Context, orderID, gatewayStatus string, ttl time.Duration) (bool, error)
	CacheOrderStatus(ctx context.Context, orderID, status string, ttl time.Duration) error
	GetCachedOrderStatus(ctx context.Context, orderID string) (string, error)
}
