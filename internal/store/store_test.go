package store

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"checkout-service/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("Integration test - set TEST_DATABASE_URL to run")
	}

	s, err := NewStore(url)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func pendingOrder(userID string) (*models.Order, []models.OrderItem) {
	order := &models.Order{
		ID:              uuid.New().String(),
		UserID:          userID,
		TotalAmount:     decimal.RequireFromString("1501.00"),
		ShippingAddress: "Test Street 1",
		Status:          models.OrderStatusPending,
	}
	items := []models.OrderItem{
		{ProductID: "p1", Name: "Laptop", Quantity: 1, UnitPrice: decimal.RequireFromString("1000.00")},
		{ProductID: "p2", Name: "Headset", Quantity: 2, UnitPrice: decimal.RequireFromString("250.50")},
	}
	return order, items
}

func TestCreateOrderWithItems(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	order, items := pendingOrder("user-store-1")
	require.NoError(t, s.CreateOrderWithItems(ctx, order, items))
	assert.False(t, order.CreatedAt.IsZero())

	got, err := s.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, got.Status)
	assert.True(t, got.TotalAmount.Equal(order.TotalAmount))

	gotItems, err := s.GetOrderItems(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, gotItems, 2)
	assert.Equal(t, order.ID, gotItems[0].OrderID)
}

func TestGetOrderForUserScoping(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	order, items := pendingOrder("owner-user")
	require.NoError(t, s.CreateOrderWithItems(ctx, order, items))

	_, err := s.GetOrderForUser(ctx, order.ID, "other-user")
	assert.ErrorIs(t, err, models.ErrNotFound)

	got, err := s.GetOrderForUser(ctx, order.ID, "owner-user")
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
}

func TestFinalizeOrderStatus(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	order, items := pendingOrder("user-finalize")
	require.NoError(t, s.CreateOrderWithItems(ctx, order, items))

	changed, err := s.FinalizeOrderStatus(ctx, order.ID, models.OrderStatusProcessing)
	require.NoError(t, err)
	assert.True(t, changed)

	// Second finalize is a no-op; the CAS guard holds the terminal state.
	changed, err = s.FinalizeOrderStatus(ctx, order.ID, models.OrderStatusCancelled)
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := s.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, got.Status)

	_, err = s.FinalizeOrderStatus(ctx, uuid.New().String(), models.OrderStatusProcessing)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
