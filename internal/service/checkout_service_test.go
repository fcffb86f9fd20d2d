package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"checkout-service/internal/models"
	"checkout-service/internal/paytr"
)

func cartItem(id, name, price string, qty int) CartItem {
	return CartItem{ID: id, Name: name, Price: decimal.RequireFromString(price), Quantity: qty}
}

func checkoutRequest() *CheckoutRequest {
	return &CheckoutRequest{
		Items: []CartItem{
			cartItem("p1", "Laptop", "1000.00", 1),
			cartItem("p2", "Headset", "250.50", 2),
		},
		UserID:          "user-1",
		ShippingAddress: "Test Street 1",
		BuyerIP:         "10.0.0.9",
	}
}

func TestCreatePayment(t *testing.T) {
	store := newFakeStore()
	store.profiles["user-1"] = &models.Profile{
		UserID: "user-1", Name: "Ayşe", Phone: "5551234567", Email: "ayse@example.com",
	}
	svc := NewCheckoutService(store, nil, nil, webhookMerchant())

	resp, err := svc.CreatePayment(context.Background(), checkoutRequest())
	require.NoError(t, err)
	require.NotNil(t, resp.PaytrData)
	require.NotEmpty(t, resp.OrderID)

	assert.Equal(t, resp.OrderID, resp.PaytrData.MerchantOID)
	assert.Equal(t, int64(150100), resp.PaytrData.PaymentAmount)
	assert.Equal(t, "ayse@example.com", resp.PaytrData.Email)
	assert.Equal(t, "Ayşe", resp.PaytrData.UserName)

	order, err := store.GetOrderByID(context.Background(), resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("1501.00")))

	items, err := store.GetOrderItems(context.Background(), resp.OrderID)
	require.NoError(t, err)
	require.Len(t, items, 2)

	// Items invariant: sum(quantity * unitPrice) == order total.
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	assert.True(t, sum.Equal(order.TotalAmount))
}

func TestCreatePaymentProfileDefaults(t *testing.T) {
	store := newFakeStore()
	svc := NewCheckoutService(store, nil, nil, webhookMerchant())

	resp, err := svc.CreatePayment(context.Background(), checkoutRequest())
	require.NoError(t, err)

	assert.Equal(t, "customer@example.com", resp.PaytrData.Email)
	assert.Equal(t, "Customer", resp.PaytrData.UserName)
	assert.Equal(t, "", resp.PaytrData.UserPhone)
}

func TestCreatePaymentEmptyCart(t *testing.T) {
	store := newFakeStore()
	svc := NewCheckoutService(store, nil, nil, webhookMerchant())

	req := checkoutRequest()
	req.Items = nil

	_, err := svc.CreatePayment(context.Background(), req)
	assert.ErrorIs(t, err, models.ErrInvalidLineItem)
	assert.Empty(t, store.orders, "nothing may be persisted for an invalid cart")
}

func TestCreatePaymentInvalidItem(t *testing.T) {
	store := newFakeStore()
	svc := NewCheckoutService(store, nil, nil, webhookMerchant())

	req := checkoutRequest()
	req.Items[0].Quantity = 0

	_, err := svc.CreatePayment(context.Background(), req)
	assert.ErrorIs(t, err, models.ErrInvalidLineItem)
	assert.Empty(t, store.orders)
}

func TestCreatePaymentMissingMerchantConfig(t *testing.T) {
	store := newFakeStore()
	svc := NewCheckoutService(store, nil, nil, paytr.MerchantConfig{DefaultEmail: "x@y.z"})

	_, err := svc.CreatePayment(context.Background(), checkoutRequest())
	assert.ErrorIs(t, err, models.ErrConfiguration)
	assert.Empty(t, store.orders, "config errors fail before persistence")
}

func TestCreatePaymentPersistenceError(t *testing.T) {
	store := newFakeStore()
	store.createErr = errors.New("connection refused")
	svc := NewCheckoutService(store, nil, nil, webhookMerchant())

	_, err := svc.CreatePayment(context.Background(), checkoutRequest())
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrInvalidLineItem)
}

func TestGetOrderOwnershipIsolation(t *testing.T) {
	store := newFakeStore()
	svc := NewCheckoutService(store, nil, nil, webhookMerchant())

	resp, err := svc.CreatePayment(context.Background(), checkoutRequest())
	require.NoError(t, err)

	// The owner sees the order; anyone else gets an opaque not-found.
	order, items, err := svc.GetOrder(context.Background(), resp.OrderID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, resp.OrderID, order.ID)
	assert.Len(t, items, 2)

	_, _, err = svc.GetOrder(context.Background(), resp.OrderID, "user-2")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAdvanceFulfillment(t *testing.T) {
	store := newFakeStore()
	svc := NewCheckoutService(store, nil, nil, webhookMerchant())

	resp, err := svc.CreatePayment(context.Background(), checkoutRequest())
	require.NoError(t, err)

	require.NoError(t, svc.AdvanceFulfillment(context.Background(), resp.OrderID, models.OrderStatusShipped))
	assert.Equal(t, models.OrderStatusShipped, store.status(resp.OrderID))

	assert.Error(t, svc.AdvanceFulfillment(context.Background(), resp.OrderID, "exploded"))
	assert.Error(t, svc.AdvanceFulfillment(context.Background(), resp.OrderID, models.OrderStatusPending))
	assert.ErrorIs(t, svc.AdvanceFulfillment(context.Background(), "missing", models.OrderStatusShipped), models.ErrNotFound)
}

func TestEndToEndHandshake(t *testing.T) {
	store := newFakeStore()
	cfg := webhookMerchant()
	checkout := NewCheckoutService(store, nil, nil, cfg)
	webhook := NewWebhookService(store, nil, nil, cfg)

	resp, err := checkout.CreatePayment(context.Background(), checkoutRequest())
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, store.status(resp.OrderID))

	// The gateway confirms with a hash over the same amount it was asked to
	// charge.
	cb := signedCallback(cfg, resp.OrderID, "success", resp.PaytrData.PaymentAmount)
	require.NoError(t, webhook.HandleCallback(context.Background(), cb))
	assert.Equal(t, models.OrderStatusProcessing, store.status(resp.OrderID))

	status, err := checkout.GetOrderStatus(context.Background(), resp.OrderID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, status)
}
