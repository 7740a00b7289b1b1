package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Foy7er/FinQuest/internal/model"
)

const accountColumns = `telegram_id, username, character_name, character_class, level,
	wallet, savings, savings_since, age, created_at, updated_at`

func scanAccount(row pgx.Row) (*model.Account, error) {
	var acc model.Account
	err := row.Scan(
		&acc.TelegramID,
		&acc.Username,
		&acc.CharacterName,
		&acc.CharacterClass,
		&acc.Level,
		&acc.Wallet,
		&acc.Savings,
		&acc.SavingsSince,
		&acc.Age,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// CreateAccount registers a new account with empty balances.
// Registration never overwrites: a taken id yields ErrAlreadyExists.
func (s *PostgresStore) CreateAccount(ctx context.Context, acc model.NewAccount) (*model.Account, error) {
	const query = `
		INSERT INTO accounts (telegram_id, username, character_name, character_class, level, wallet, savings, age, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 1, 0, 0, $5, NOW(), NOW())
		ON CONFLICT (telegram_id) DO NOTHING
		RETURNING ` + accountColumns

	created, err := scanAccount(s.q.QueryRow(ctx, query,
		acc.TelegramID, acc.Username, acc.CharacterName, string(acc.CharacterClass), acc.Age))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return created, nil
}

// GetAccount retrieves an account by Telegram ID.
// Returns ErrNotFound if the account does not exist.
func (s *PostgresStore) GetAccount(ctx context.Context, telegramID int64) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE telegram_id = $1`

	acc, err := scanAccount(s.q.QueryRow(ctx, query, telegramID))
	if err != nil {
		return nil, wrapNoRows(err, "get account")
	}
	return acc, nil
}

// AdjustBalance adds delta to the wallet or savings in a single conditional
// statement, so a concurrent debit can never drive the balance negative.
func (s *PostgresStore) AdjustBalance(ctx context.Context, telegramID int64, field model.BalanceField, delta int64) (*model.Account, error) {
	var query string
	switch field {
	case model.FieldWallet:
		query = `
			UPDATE accounts
			SET wallet = wallet + $2, updated_at = NOW()
			WHERE telegram_id = $1 AND wallet + $2 >= 0
			RETURNING ` + accountColumns
	case model.FieldSavings:
		query = `
			UPDATE accounts
			SET savings = savings + $2,
				savings_since = CASE
					WHEN savings + $2 = 0 THEN NULL
					WHEN savings = 0 THEN NOW()
					ELSE savings_since
				END,
				updated_at = NOW()
			WHERE telegram_id = $1 AND savings + $2 >= 0
			RETURNING ` + accountColumns
	default:
		return nil, ErrInvalidField
	}

	acc, err := scanAccount(s.q.QueryRow(ctx, query, telegramID, delta))
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to adjust balance: %w", err)
	}

	// Either the account is missing or the guard rejected the update.
	if _, err := s.GetAccount(ctx, telegramID); err != nil {
		return nil, err
	}
	return nil, ErrInsufficientFunds
}

// DeleteAccount removes an account. Inventory and journal rows go with it
// through ON DELETE CASCADE; purchases only when asked.
func (s *PostgresStore) DeleteAccount(ctx context.Context, telegramID int64, cascadePurchases bool) error {
	if cascadePurchases {
		if _, err := s.q.Exec(ctx, `DELETE FROM purchases WHERE user_id = $1`, telegramID); err != nil {
			return fmt.Errorf("failed to delete purchases: %w", err)
		}
	}
	if _, err := s.q.Exec(ctx, `DELETE FROM accounts WHERE telegram_id = $1`, telegramID); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}
