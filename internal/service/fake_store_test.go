package service

import (
	"context"
	"sync"
	"time"

	"checkout-service/internal/models"
)

// fakeStore is an in-memory OrderStore with the same scoping and CAS
// semantics as the Postgres store.
type fakeStore struct {
	mu         sync.Mutex
	orders     map[string]*models.Order
	items      map[string][]models.OrderItem
	profiles   map[string]*models.Profile
	webhookLog []models.WebhookLogEntry
	createErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders:   make(map[string]*models.Order),
		items:    make(map[string][]models.OrderItem),
		profiles: make(map[string]*models.Profile),
	}
}

func (f *fakeStore) CreateOrderWithItems(_ context.Context, order *models.Order, items []models.OrderItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return f.createErr
	}

	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now

	stored := *order
	f.orders[order.ID] = &stored

	copied := make([]models.OrderItem, len(items))
	for i, it := range items {
		it.OrderID = order.ID
		it.ID = int64(i + 1)
		copied[i] = it
	}
	f.items[order.ID] = copied
	return nil
}

func (f *fakeStore) GetOrderByID(_ context.Context, id string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.orders[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *order
	return &copied, nil
}

func (f *fakeStore) GetOrderForUser(_ context.Context, id, userID string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.orders[id]
	if !ok || order.UserID != userID {
		return nil, models.ErrNotFound
	}
	copied := *order
	return &copied, nil
}

func (f *fakeStore) GetOrderItems(_ context.Context, orderID string) ([]models.OrderItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.OrderItem(nil), f.items[orderID]...), nil
}

func (f *fakeStore) GetOrdersByUser(_ context.Context, userID string) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.Order
	for _, order := range f.orders {
		if order.UserID == userID {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (f *fakeStore) GetProfile(_ context.Context, userID string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	profile, ok := f.profiles[userID]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *profile
	return &copied, nil
}

func (f *fakeStore) FinalizeOrderStatus(_ context.Context, orderID, newStatus string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.orders[orderID]
	if !ok {
		return false, models.ErrNotFound
	}
	if order.Status != models.OrderStatusPending {
		return false, nil
	}
	order.Status = newStatus
	order.UpdatedAt = time.Now()
	return true, nil
}

func (f *fakeStore) UpdateOrderStatus(_ context.Context, orderID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.orders[orderID]
	if !ok {
		return models.ErrNotFound
	}
	order.Status = status
	order.UpdatedAt = time.Now()
	return nil
}

func (f *fakeStore) RecordWebhookResult(_ context.Context, orderID, gatewayStatus, totalAmount string, signatureOK bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.webhookLog = append(f.webhookLog, models.WebhookLogEntry{
		ID:            int64(len(f.webhookLog) + 1),
		OrderID:       orderID,
		GatewayStatus: gatewayStatus,
		TotalAmount:   totalAmount,
		SignatureOK:   signatureOK,
		ReceivedAt:    time.Now(),
	})
	return nil
}

func (f *fakeStore) status(orderID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if order, ok := f.orders[orderID]; ok {
		return order.Status
	}
	return ""
}
