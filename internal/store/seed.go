package store

import (
	"context"
	"fmt"
)

// SeedDemo inserts demo users, orders, and payments for local development.
// Idempotent on users (keyed by email); orders and payments are inserted
// fresh on every run.
func (s *Store) SeedDemo(ctx context.Context) error {
	users := []struct {
		email string
		name  string
	}{
		{"alice@example.com", "Alice"},
		{"bob@example.com", "Bob"},
	}

	userIDs := make([]string, 0, len(users))
	for _, u := range users {
		var id string
		err := s.pool.QueryRow(ctx,
			`INSERT INTO users (email, name) VALUES ($1, $2)
			 ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
			 RETURNING id`,
			u.email, u.name,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("seeding user %s: %w", u.email, err)
		}
		userIDs = append(userIDs, id)
	}

	orders := []struct {
		userID   string
		status   string
		tracking string
	}{
		{userIDs[0], "shipped", "TRACK123"},
		{userIDs[1], "pending", "TRACK456"},
	}
	for _, o := range orders {
		if _, err := s.pool.Exec(ctx,
			`INSERT INTO orders (user_id, status, tracking) VALUES ($1, $2, $3)`,
			o.userID, o.status, o.tracking,
		); err != nil {
			return fmt.Errorf("seeding order %s: %w", o.tracking, err)
		}
	}

	payments := []struct {
		userID string
		amount int
		status string
	}{
		{userIDs[0], 499, "paid"},
		{userIDs[1], 199, "refunded"},
	}
	for _, p := range payments {
		if _, err := s.pool.Exec(ctx,
			`INSERT INTO payments (user_id, amount, status) VALUES ($1, $2, $3)`,
			p.userID, p.amount, p.status,
		); err != nil {
			return fmt.Errorf("seeding payment for %s: %w", p.userID, err)
		}
	}

	s.logger.Info("seeded demo data", "users", len(users), "orders", len(orders), "payments", len(payments))
	return nil
}
