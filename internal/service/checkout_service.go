package service

import (
	"context"
	"fmt"
	"time"

	"checkout-service/internal/models"
	"checkout-service/internal/money"
	"checkout-service/internal/paytr"
	"checkout-service/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const statusCacheTTL = 30 * time.Minute

// CheckoutService handles the create-payment flow: it persists the order with
// its items and returns the signed gateway payload for the client redirect.
type CheckoutService struct {
	store    OrderStore
	events   EventPublisher
	cache    StatusCache
	merchant paytr.MerchantConfig
	logger   *zap.Logger
}

// NewCheckoutService creates a new checkout service. events and cache may be
// nil; both are best-effort collaborators.
func NewCheckoutService(store OrderStore, events EventPublisher, cache StatusCache, merchant paytr.MerchantConfig) *CheckoutService {
	return &CheckoutService{
		store:    store,
		events:   events,
		cache:    cache,
		merchant: merchant,
		logger:   util.GetLogger(),
	}
}

// CartItem is one row of the submitted cart.
type CartItem struct {
	ID       string          `json:"id" binding:"required"`
	Name     string          `json:"name" binding:"required"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// CheckoutRequest is the create-payment input.
type CheckoutRequest struct {
	Items           []CartItem `json:"items"`
	UserID          string     `json:"userId" binding:"required"`
	ShippingAddress string     `json:"shippingAddress"`
	BuyerIP         string     `json:"-"`
}

// CheckoutResponse carries the signed gateway payload and the order id.
type CheckoutResponse struct {
	PaytrData *paytr.Request `json:"paytrData"`
	OrderID   string         `json:"orderId"`
}

// CreatePayment validates the cart, persists the pending order and its items
// in one transaction, and builds the signed gateway request. Nothing is
// persisted when validation or configuration checks fail.
func (s *CheckoutService) CreatePayment(ctx context.Context, req *CheckoutRequest) (*CheckoutResponse, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.CreatePayment")
	defer span.End()

	start := time.Now()
	defer func() {
		util.CheckoutLatency.Observe(time.Since(start).Seconds())
	}()

	if err := s.merchant.Validate(); err != nil {
		util.CheckoutsFailedTotal.WithLabelValues("configuration").Inc()
		return nil, err
	}

	lineItems := make([]money.LineItem, 0, len(req.Items))
	for _, it := range req.Items {
		lineItems = append(lineItems, money.LineItem{
			ProductID: it.ID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}

	total, err := money.Total(lineItems)
	if err != nil {
		util.CheckoutsFailedTotal.WithLabelValues("invalid_items").Inc()
		return nil, err
	}

	order := &models.Order{
		ID:              uuid.New().String(),
		UserID:          req.UserID,
		TotalAmount:     total,
		ShippingAddress: req.ShippingAddress,
		Status:          models.OrderStatusPending,
	}

	orderItems := make([]models.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		orderItems = append(orderItems, models.OrderItem{
			ProductID: it.ID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.Price.Round(2),
		})
	}

	if err := s.store.CreateOrderWithItems(ctx, order, orderItems); err != nil {
		util.CheckoutsFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	s.logger.Info("Order created",
		zap.String("order_id", order.ID),
		zap.String("user_id", order.UserID),
		zap.String("total", total.StringFixed(2)))

	buyer := s.buyerDetails(ctx, req.UserID, req.BuyerIP)

	payload, err := paytr.BuildRequest(order, orderItems, buyer, s.merchant)
	if err != nil {
		util.CheckoutsFailedTotal.WithLabelValues("gateway_request").Inc()
		return nil, err
	}

	util.CheckoutsCreatedTotal.Inc()

	if s.cache != nil {
		if err := s.cache.CacheOrderStatus(ctx, order.ID, order.Status, statusCacheTTL); err != nil {
			s.logger.Warn("Failed to cache order status", zap.Error(err))
		}
	}

	if s.events != nil {
		event := &models.OrderCreatedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOrderCreated,
				Timestamp: time.Now(),
			},
			OrderID:     order.ID,
			UserID:      order.UserID,
			TotalAmount: total.StringFixed(2),
			Items:       eventItems(orderItems),
		}
		if err := s.events.PublishOrderCreated(ctx, event); err != nil {
			s.logger.Error("Failed to publish OrderCreated event", zap.Error(err))
		}
	}

	return &CheckoutResponse{PaytrData: payload, OrderID: order.ID}, nil
}

// buyerDetails resolves contact info from the profile store, falling back to
// defaults when the profile is missing or incomplete.
func (s *CheckoutService) buyerDetails(ctx context.Context, userID, ip string) paytr.Buyer {
	buyer := paytr.Buyer{
		IP:    ip,
		Email: s.merchant.DefaultEmail,
		Name:  "Customer",
	}

	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		s.logger.Warn("Profile lookup failed, using defaults",
			zap.String("user_id", userID),
			zap.Error(err))
		return buyer
	}

	if profile.Name != "" {
		buyer.Name = profile.Name
	}
	if profile.Email != "" {
		buyer.Email = profile.Email
	}
	buyer.Phone = profile.Phone
	return buyer
}

// GetOrder retrieves an order and its items, scoped to the requesting owner.
func (s *CheckoutService) GetOrder(ctx context.Context, orderID, userID string) (*models.Order, []models.OrderItem, error) {
	order, err := s.store.GetOrderForUser(ctx, orderID, userID)
	if err != nil {
		return nil, nil, err
	}

	items, err := s.store.GetOrderItems(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	return order, items, nil
}

// GetOrderStatus returns the order status, preferring the Redis cache. The
// confirmation page polls this right after the gateway redirect.
func (s *CheckoutService) GetOrderStatus(ctx context.Context, orderID, userID string) (string, error) {
	if s.cache != nil {
		status, err := s.cache.GetCachedOrderStatus(ctx, orderID)
		if err != nil {
			s.logger.Warn("Status cache read failed", zap.Error(err))
		} else if status != "" {
			// Ownership still has to hold even on a cache hit.
			if _, err := s.store.GetOrderForUser(ctx, orderID, userID); err != nil {
				return "", err
			}
			return status, nil
		}
	}

	order, err := s.store.GetOrderForUser(ctx, orderID, userID)
	if err != nil {
		return "", err
	}
	return order.Status, nil
}

// ListOrders returns a user's order history, newest first.
func (s *CheckoutService) ListOrders(ctx context.Context, userID string) ([]models.Order, error) {
	return s.store.GetOrdersByUser(ctx, userID)
}

// AdvanceFulfillment applies a fulfillment status change (shipped, delivered,
// or an operator cancel). Pending orders belong to the payment handshake and
// cannot be set directly.
func (s *CheckoutService) AdvanceFulfillment(ctx context.Context, orderID, status string) error {
	if !models.ValidStatus(status) || status == models.OrderStatusPending {
		return fmt.Errorf("invalid fulfillment status %q", status)
	}

	if err := s.store.UpdateOrderStatus(ctx, orderID, status); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.CacheOrderStatus(ctx, orderID, status, statusCacheTTL); err != nil {
			s.logger.Warn("Failed to refresh status cache", zap.Error(err))
		}
	}

	s.logger.Info("Order status updated",
		zap.String("order_id", orderID),
		zap.String("status", status))
	return nil
}

func eventItems(items []models.OrderItem) []models.OrderItemData {
	data := make([]models.OrderItemData, 0, len(items))
	for _, it := range items {
		data = append(data, models.OrderItemData{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice.StringFixed(2),
		})
	}
	return data
}
