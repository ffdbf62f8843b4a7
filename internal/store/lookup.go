package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// LatestOrder returns the user's most recent order.
// Returns ErrNotFound if the user has no orders.
func (s *Store) LatestOrder(ctx context.Context, userID string) (*Order, error) {
	var o Order
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, status, tracking, created_at
		 FROM orders
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT 1`,
		userID,
	).Scan(&o.ID, &o.UserID, &o.Status, &o.Tracking, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying latest order: %w", err)
	}
	return &o, nil
}

// OrderByTracking returns the order with the given tracking id.
// Returns ErrNotFound if no order matches.
func (s *Store) OrderByTracking(ctx context.Context, tracking string) (*Order, error) {
	var o Order
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, status, tracking, created_at
		 FROM orders
		 WHERE tracking = $1
		 LIMIT 1`,
		tracking,
	).Scan(&o.ID, &o.UserID, &o.Status, &o.Tracking, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying order by tracking: %w", err)
	}
	return &o, nil
}

// LatestPayment returns the user's most recent payment.
// Returns ErrNotFound if the user has no payments.
func (s *Store) LatestPayment(ctx context.Context, userID string) (*Payment, error) {
	var p Payment
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, amount, status, created_at
		 FROM payments
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT 1`,
		userID,
	).Scan(&p.ID, &p.UserID, &p.Amount, &p.Status, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying latest payment: %w", err)
	}
	return &p, nil
}
