package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"checkout-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// GetProfile retrieves buyer contact details. A missing profile returns
// ErrNotFound; callers on the checkout path fall back to defaults instead of
// failing the request.
func (s *Store) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var profile models.Profile
	err := s.db.GetContext(ctx, &profile,
		"SELECT id, name, phone, email FROM profiles WHERE id = $1", userID)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// RecordWebhookResult appends an inbound gateway callback to the audit log.
// Rejected callbacks are recorded too; a silently-failing webhook leaves an
// order permanently pending, and this log is how operators find out.
func (s *Store) RecordWebhookResult(ctx context.Context, orderID, gatewayStatus, totalAmount string, signatureOK bool) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO payment_webhook_log (order_id, gateway_status, total_amount, signature_ok)
		 VALUES ($1, $2, $3, $4)`,
		orderID, gatewayStatus, totalAmount, signatureOK)
	return err
}
