package repository

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

var postgresMigrations = []struct {
	name string
	sql  string
}{
	{"accounts table", `
		CREATE TABLE IF NOT EXISTS accounts (
			telegram_id BIGINT PRIMARY KEY,
			username VARCHAR(255) NOT NULL DEFAULT '',
			character_name VARCHAR(64) NOT NULL,
			character_class VARCHAR(32) NOT NULL,
			level INT NOT NULL DEFAULT 1,
			wallet BIGINT NOT NULL DEFAULT 0 CHECK (wallet >= 0),
			savings BIGINT NOT NULL DEFAULT 0 CHECK (savings >= 0),
			savings_since TIMESTAMPTZ,
			age INT NOT NULL CHECK (age BETWEEN 5 AND 99),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`},
	{"market_items table", `
		CREATE TABLE IF NOT EXISTS market_items (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(128) NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			current_price BIGINT NOT NULL CHECK (current_price >= 1),
			reference_price BIGINT NOT NULL CHECK (reference_price >= 1)
		);
	`},
	{"inventory table", `
		CREATE TABLE IF NOT EXISTS inventory (
			user_id BIGINT NOT NULL REFERENCES accounts(telegram_id) ON DELETE CASCADE,
			item_id BIGINT NOT NULL REFERENCES market_items(id),
			quantity INT NOT NULL CHECK (quantity > 0),
			PRIMARY KEY (user_id, item_id)
		);
	`},
	{"purchases table", `
		CREATE TABLE IF NOT EXISTS purchases (
			user_id BIGINT NOT NULL,
			category_id VARCHAR(64) NOT NULL,
			purchased_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_id, category_id)
		);
	`},
	{"journal table", `
		CREATE TABLE IF NOT EXISTS journal (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES accounts(telegram_id) ON DELETE CASCADE,
			amount BIGINT NOT NULL,
			field VARCHAR(16) NOT NULL,
			type VARCHAR(50) NOT NULL,
			description TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_journal_user_time ON journal(user_id, created_at DESC);
	`},
}

// Migrate creates the PostgreSQL schema. It is safe to run repeatedly.
func Migrate(ctx context.Context, db querier) error {
	log.Info().Msg("Running database migrations...")

	for i, m := range postgresMigrations {
		if _, err := db.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("failed to run migration %d (%s): %w", i+1, m.name, err)
		}
		log.Info().Int("migration", i+1).Msgf("Migration %d: %s created", i+1, m.name)
	}

	log.Info().Msg("All migrations completed successfully")
	return nil
}
