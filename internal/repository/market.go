package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Foy7er/FinQuest/internal/model"
)

const marketColumns = `id, name, description, current_price, reference_price`

func scanMarketItem(row pgx.Row) (*model.MarketItem, error) {
	var item model.MarketItem
	if err := row.Scan(&item.ID, &item.Name, &item.Description, &item.Price, &item.ReferencePrice); err != nil {
		return nil, err
	}
	return &item, nil
}

// ListMarketItems returns the catalog ordered by id.
func (s *PostgresStore) ListMarketItems(ctx context.Context) ([]model.MarketItem, error) {
	rows, err := s.q.Query(ctx, `SELECT `+marketColumns+` FROM market_items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list market items: %w", err)
	}
	defer rows.Close()

	var items []model.MarketItem
	for rows.Next() {
		item, err := scanMarketItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan market item: %w", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating market items: %w", err)
	}

	return items, nil
}

// GetMarketItem retrieves an item by id.
func (s *PostgresStore) GetMarketItem(ctx context.Context, itemID int64) (*model.MarketItem, error) {
	item, err := scanMarketItem(s.q.QueryRow(ctx,
		`SELECT `+marketColumns+` FROM market_items WHERE id = $1`, itemID))
	if err != nil {
		return nil, wrapNoRows(err, "get market item")
	}
	return item, nil
}

// GetMarketItemByName retrieves an item by its unique name.
func (s *PostgresStore) GetMarketItemByName(ctx context.Context, name string) (*model.MarketItem, error) {
	item, err := scanMarketItem(s.q.QueryRow(ctx,
		`SELECT `+marketColumns+` FROM market_items WHERE name = $1`, name))
	if err != nil {
		return nil, wrapNoRows(err, "get market item by name")
	}
	return item, nil
}

// SetMarketPrice stores a new current price.
func (s *PostgresStore) SetMarketPrice(ctx context.Context, itemID int64, price int64) error {
	if price < 1 {
		return ErrInvalidPrice
	}
	tag, err := s.q.Exec(ctx, `UPDATE market_items SET current_price = $2 WHERE id = $1`, itemID, price)
	if err != nil {
		return fmt.Errorf("failed to set market price: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SeedMarket fills an empty catalog.
func (s *PostgresStore) SeedMarket(ctx context.Context, items []model.MarketItem) error {
	var count int
	if err := s.q.QueryRow(ctx, `SELECT COUNT(*) FROM market_items`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count market items: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, item := range items {
		_, err := s.q.Exec(ctx, `
			INSERT INTO market_items (name, description, current_price, reference_price)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (name) DO NOTHING
		`, item.Name, item.Description, item.Price, item.ReferencePrice)
		if err != nil {
			return fmt.Errorf("failed to seed market item %q: %w", item.Name, err)
		}
	}
	return nil
}
