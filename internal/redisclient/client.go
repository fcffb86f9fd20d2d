package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// MarkWebhookDelivery records that a webhook for (order, status) was seen.
// Returns false if the same delivery was already marked. This is a fast-path
// duplicate filter only; the database CAS remains the authority on whether a
// transition happens, since marks expire and multiple instances may race.
func (c *Client) MarkWebhookDelivery(ctx context.Context, orderID, gatewayStatus string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("webhook:%s:%s", orderID, gatewayStatus)
	return c.rdb.SetNX(ctx, key, "1", ttl).Result()
}

// CacheOrderStatus stores the latest known status for an order. The
// order-confirmation page polls for status right after the gateway redirect;
// serving it from Redis keeps that burst off Postgres.
func (c *Client) CacheOrderStatus(ctx context.Context, orderID, status string, ttl time.Duration) error {
	return c.rdb.Set(ctx, statusKey(orderID), status, ttl).Err()
}

// GetCachedOrderStatus returns the cached status for an order, or "" on a
// cache miss.
func (c *Client) GetCachedOrderStatus(ctx context.Context, orderID string) (string, error) {
	status, err := c.rdb.Get(ctx, statusKey(orderID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return status, nil
}

func statusKey(orderID string) string {
	return fmt.Sprintf("order-status:%s", orderID)
}
