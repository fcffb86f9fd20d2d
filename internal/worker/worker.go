package worker

import (
	"context"
	"log"
	"time"

	"checkout-service/internal/broker"
	"checkout-service/internal/models"
	"checkout-service/internal/redisclient"
)

const cacheTTL = 30 * time.Minute

// EventWorker consumes order domain events and keeps the Redis status cache
// in sync, so the confirmation-page polling reads never miss after a webhook
// lands on a different instance.
type EventWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	cache        *redisclient.Client
}

// NewEventWorker creates a new event worker
func NewEventWorker(consumer *broker.Consumer, cache *redisclient.Client) *EventWorker {
	w := &EventWorker{
		consumer: consumer,
		cache:    cache,
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderCreated(w.handleOrderCreated)
	eventHandler.OnPaymentConfirmed(w.handlePaymentConfirmed)
	eventHandler.OnPaymentRejected(w.handlePaymentRejected)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *EventWorker) Start(ctx context.Context) error {
	log.Println("Starting event worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *EventWorker) Stop() error {
	log.Println("Stopping event worker...")
	return w.consumer.Close()
}

func (w *EventWorker) handleOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	return w.cacheStatus(ctx, event.OrderID, models.OrderStatusPending)
}

func (w *EventWorker) handlePaymentConfirmed(ctx context.Context, event *models.PaymentConfirmedEvent) error {
	return w.cacheStatus(ctx, event.OrderID, models.OrderStatusProcessing)
}

func (w *EventWorker) handlePaymentRejected(ctx context.Context, event *models.PaymentRejectedEvent) error {
	return w.cacheStatus(ctx, event.OrderID, models.OrderStatusCancelled)
}

func (w *EventWorker) cacheStatus(ctx context.Context, orderID, status string) error {
	if err := w.cache.CacheOrderStatus(ctx, orderID, status, cacheTTL); err != nil {
		log.Printf("Failed to cache status for order %s: %v", orderID, err)
		return err
	}
	return nil
}
