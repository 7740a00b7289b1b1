package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Foy7er/FinQuest/internal/model"
)

// UpsertInventory increments, creates or decrements a holding. A holding
// that would drop to zero or below is deleted instead of stored.
func (s *PostgresStore) UpsertInventory(ctx context.Context, userID, itemID int64, delta int) (*model.InventoryEntry, error) {
	entry := &model.InventoryEntry{UserID: userID, ItemID: itemID}

	switch {
	case delta == 0:
		return nil, ErrInvalidDelta
	case delta > 0:
		const query = `
			INSERT INTO inventory (user_id, item_id, quantity)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id, item_id)
			DO UPDATE SET quantity = inventory.quantity + EXCLUDED.quantity
			RETURNING quantity
		`
		if err := s.q.QueryRow(ctx, query, userID, itemID, delta).Scan(&entry.Quantity); err != nil {
			return nil, fmt.Errorf("failed to add inventory: %w", err)
		}
		return entry, nil
	}

	const decrement = `
		UPDATE inventory SET quantity = quantity + $3
		WHERE user_id = $1 AND item_id = $2 AND quantity + $3 > 0
		RETURNING quantity
	`
	err := s.q.QueryRow(ctx, decrement, userID, itemID, delta).Scan(&entry.Quantity)
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to decrement inventory: %w", err)
	}

	tag, err := s.q.Exec(ctx, `DELETE FROM inventory WHERE user_id = $1 AND item_id = $2`, userID, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to remove inventory: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	entry.Quantity = 0
	return entry, nil
}

// ListInventory returns the user's holdings joined with the catalog.
func (s *PostgresStore) ListInventory(ctx context.Context, userID int64) ([]model.InventoryItem, error) {
	const query = `
		SELECT m.id, m.name, m.description, m.current_price, m.reference_price, i.quantity
		FROM inventory i
		JOIN market_items m ON m.id = i.item_id
		WHERE i.user_id = $1
		ORDER BY m.id
	`

	rows, err := s.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	defer rows.Close()

	var items []model.InventoryItem
	for rows.Next() {
		var it model.InventoryItem
		if err := rows.Scan(&it.Item.ID, &it.Item.Name, &it.Item.Description,
			&it.Item.Price, &it.Item.ReferencePrice, &it.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan inventory: %w", err)
		}
		items = append(items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating inventory: %w", err)
	}

	return items, nil
}
