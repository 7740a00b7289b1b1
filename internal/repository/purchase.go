package repository

import (
	"context"
	"fmt"
)

// RecordPurchase stores a category unlock. The (user_id, category_id)
// primary key decides races: only the first insert affects a row.
func (s *PostgresStore) RecordPurchase(ctx context.Context, userID int64, categoryID string) error {
	tag, err := s.q.Exec(ctx, `
		INSERT INTO purchases (user_id, category_id, purchased_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, category_id) DO NOTHING
	`, userID, categoryID)
	if err != nil {
		return fmt.Errorf("failed to record purchase: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyPurchased
	}
	return nil
}

// HasPurchase reports whether the user already unlocked the category.
func (s *PostgresStore) HasPurchase(ctx context.Context, userID int64, categoryID string) (bool, error) {
	var exists bool
	err := s.q.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM purchases WHERE user_id = $1 AND category_id = $2)`,
		userID, categoryID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check purchase: %w", err)
	}
	return exists, nil
}

// ListPurchases returns unlocked category ids in purchase order.
func (s *PostgresStore) ListPurchases(ctx context.Context, userID int64) ([]string, error) {
	rows, err := s.q.Query(ctx,
		`SELECT category_id FROM purchases WHERE user_id = $1 ORDER BY purchased_at, category_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating purchases: %w", err)
	}
	return ids, nil
}
