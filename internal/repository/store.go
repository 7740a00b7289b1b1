// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"

	"github.com/Foy7er/FinQuest/internal/model"
)

// Common errors for repository operations.
var (
	ErrNotFound          = errors.New("record not found")
	ErrAlreadyExists     = errors.New("account already exists")
	ErrAlreadyPurchased  = errors.New("category already purchased")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidPrice      = errors.New("invalid price: must be at least 1")
	ErrInvalidDelta      = errors.New("invalid delta: must be non-zero")
	ErrInvalidField      = errors.New("invalid balance field")
)

// Store is the ledger: accounts, market items, inventory, purchases and the
// balance journal. Every single-record mutation is atomic on its own; use
// WithTx to compose several into one durable unit.
type Store interface {
	// CreateAccount inserts a new account with zero balances and level 1.
	// It returns ErrAlreadyExists without touching the existing row.
	CreateAccount(ctx context.Context, acc model.NewAccount) (*model.Account, error)
	GetAccount(ctx context.Context, telegramID int64) (*model.Account, error)
	// AdjustBalance adds delta to one balance field. The update is rejected
	// with ErrInsufficientFunds if the result would be negative.
	AdjustBalance(ctx context.Context, telegramID int64, field model.BalanceField, delta int64) (*model.Account, error)
	// DeleteAccount removes the account with its inventory and journal, and
	// its purchase records when cascadePurchases is set. Missing accounts are
	// not an error.
	DeleteAccount(ctx context.Context, telegramID int64, cascadePurchases bool) error

	ListMarketItems(ctx context.Context) ([]model.MarketItem, error)
	GetMarketItem(ctx context.Context, itemID int64) (*model.MarketItem, error)
	GetMarketItemByName(ctx context.Context, name string) (*model.MarketItem, error)
	SetMarketPrice(ctx context.Context, itemID int64, price int64) error
	// SeedMarket inserts items only when the market is empty.
	SeedMarket(ctx context.Context, items []model.MarketItem) error

	// UpsertInventory changes a holding by delta. Rows reaching zero are
	// deleted and reported with Quantity 0. Decrementing a missing row
	// returns ErrNotFound.
	UpsertInventory(ctx context.Context, userID, itemID int64, delta int) (*model.InventoryEntry, error)
	ListInventory(ctx context.Context, userID int64) ([]model.InventoryItem, error)

	// RecordPurchase returns ErrAlreadyPurchased when the pair already exists.
	RecordPurchase(ctx context.Context, userID int64, categoryID string) error
	HasPurchase(ctx context.Context, userID int64, categoryID string) (bool, error)
	ListPurchases(ctx context.Context, userID int64) ([]string, error)

	AppendJournal(ctx context.Context, entry *model.JournalEntry) error
	ListJournal(ctx context.Context, userID int64, limit int) ([]model.JournalEntry, error)

	// WithTx runs fn against a transactional view of the store. All writes
	// made through that view commit together, or none do if fn fails.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// ValidField reports whether f names a balance field.
func ValidField(f model.BalanceField) bool {
	return f == model.FieldWallet || f == model.FieldSavings
}
