package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"checkout-service/internal/models"
	"checkout-service/internal/paytr"
	"checkout-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const webhookDedupTTL = 24 * time.Hour

// WebhookService reconciles the gateway's asynchronous payment notifications
// against pending orders. The callback is unauthenticated by network
// identity; the keyed hash is the only thing standing between the open
// internet and an order status change.
type WebhookService struct {
	store    OrderStore
	cache    StatusCache
	events   EventPublisher
	merchant paytr.MerchantConfig
	logger   *zap.Logger
}

// NewWebhookService creates a new webhook service. cache and events may be
// nil.
func NewWebhookService(store OrderStore, cache StatusCache, events EventPublisher, merchant paytr.MerchantConfig) *WebhookService {
	return &WebhookService{
		store:    store,
		cache:    cache,
		events:   events,
		merchant: merchant,
		logger:   util.GetLogger(),
	}
}

// Callback holds the form fields of one gateway notification.
type Callback struct {
	MerchantOID string
	Status      string
	TotalAmount string
	Hash        string
}

// gatewayStatusSuccess is the only gateway status that confirms a payment;
// every other verified status cancels the order.
const gatewayStatusSuccess = "success"

// HandleCallback verifies the callback signature and applies the resulting
// status transition. A verified redelivery is a no-op and returns nil, so the
// HTTP layer still acknowledges it and the gateway stops retrying. An invalid
// signature returns ErrSignatureMismatch and mutates nothing.
func (ws *WebhookService) HandleCallback(ctx context.Context, cb Callback) error {
	ctx, span := util.StartSpan(ctx, "WebhookService.HandleCallback")
	defer span.End()

	util.WebhooksReceivedTotal.Inc()
	start := time.Now()
	defer func() {
		util.WebhookProcessingLatency.Observe(time.Since(start).Seconds())
	}()

	if cb.MerchantOID == "" || cb.Status == "" || cb.TotalAmount == "" || cb.Hash == "" {
		util.WebhooksRejectedTotal.WithLabelValues("malformed").Inc()
		return fmt.Errorf("incomplete callback: merchant_oid, status, total_amount and hash are required")
	}

	if err := ws.merchant.Validate(); err != nil {
		util.WebhooksRejectedTotal.WithLabelValues("configuration").Inc()
		return err
	}

	fields := paytr.CallbackFields(cb.MerchantOID, ws.merchant.Salt, cb.Status, cb.TotalAmount)
	if !paytr.Verify(fields, ws.merchant.Key, cb.Hash) {
		util.WebhooksRejectedTotal.WithLabelValues("signature").Inc()
		ws.logger.Warn("Webhook signature mismatch",
			zap.String("order_id", cb.MerchantOID),
			zap.String("gateway_status", cb.Status))
		ws.recordResult(ctx, cb, false)
		return models.ErrSignatureMismatch
	}

	target := models.OrderStatusCancelled
	if cb.Status == gatewayStatusSuccess {
		target = models.OrderStatusProcessing
	}

	if ws.cache != nil {
		firstSeen, err := ws.cache.MarkWebhookDelivery(ctx, cb.MerchantOID, cb.Status, webhookDedupTTL)
		if err != nil {
			ws.logger.Warn("Webhook dedup mark failed", zap.Error(err))
		} else if !firstSeen {
			ws.logger.Info("Webhook redelivery detected",
				zap.String("order_id", cb.MerchantOID),
				zap.String("gateway_status", cb.Status))
		}
	}

	changed, err := ws.store.FinalizeOrderStatus(ctx, cb.MerchantOID, target)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			util.WebhooksRejectedTotal.WithLabelValues("unknown_order").Inc()
			ws.logger.Warn("Webhook for unknown order",
				zap.String("order_id", cb.MerchantOID))
			return err
		}
		return fmt.Errorf("failed to finalize order %s: %w", cb.MerchantOID, err)
	}

	ws.recordResult(ctx, cb, true)

	if !changed {
		// Order already left pending; a stale duplicate must not flip a
		// terminal decision.
		util.WebhooksDuplicateTotal.Inc()
		ws.logger.Info("Webhook no-op, order already finalized",
			zap.String("order_id", cb.MerchantOID),
			zap.String("gateway_status", cb.Status))
		return nil
	}

	if ws.cache != nil {
		if err := ws.cache.CacheOrderStatus(ctx, cb.MerchantOID, target, statusCacheTTL); err != nil {
			ws.logger.Warn("Failed to cache order status", zap.Error(err))
		}
	}

	ws.logger.Info("Order finalized by gateway",
		zap.String("order_id", cb.MerchantOID),
		zap.String("gateway_status", cb.Status),
		zap.String("status", target))

	if target == models.OrderStatusProcessing {
		util.PaymentsConfirmedTotal.Inc()
	} else {
		util.PaymentsCancelledTotal.Inc()
	}

	ws.publishOutcome(ctx, cb, target)
	return nil
}

func (ws *WebhookService) recordResult(ctx context.Context, cb Callback, signatureOK bool) {
	if err := ws.store.RecordWebhookResult(ctx, cb.MerchantOID, cb.Status, cb.TotalAmount, signatureOK); err != nil {
		ws.logger.Error("Failed to record webhook audit entry",
			zap.String("order_id", cb.MerchantOID),
			zap.Error(err))
	}
}

func (ws *WebhookService) publishOutcome(ctx context.Context, cb Callback, target string) {
	if ws.events == nil {
		return
	}

	userID := ""
	if order, err := ws.store.GetOrderByID(ctx, cb.MerchantOID); err == nil {
		userID = order.UserID
	} else {
		ws.logger.Warn("Could not load order for event payload", zap.Error(err))
	}

	base := models.BaseEvent{
		EventID:   uuid.New().String(),
		Timestamp: time.Now(),
	}

	var err error
	if target == models.OrderStatusProcessing {
		minorAmount, _ := strconv.ParseInt(cb.TotalAmount, 10, 64)
		base.EventType = models.EventTypePaymentConfirmed
		err = ws.events.PublishPaymentConfirmed(ctx, &models.PaymentConfirmedEvent{
			BaseEvent:   base,
			OrderID:     cb.MerchantOID,
			UserID:      userID,
			MinorAmount: minorAmount,
		})
	} else {
		base.EventType = models.EventTypePaymentRejected
		err = ws.events.PublishPaymentRejected(ctx, &models.PaymentRejectedEvent{
			BaseEvent: base,
			OrderID:   cb.MerchantOID,
			UserID:    userID,
			Reason:    cb.Status,
		})
	}
	if err != nil {
		ws.logger.Error("Failed to publish payment outcome event", zap.Error(err))
	}
}
