// Package model defines the data models for the FinQuest economy.
package model

import "time"

// CharacterClass is the hero class picked during registration.
type CharacterClass string

// Character classes. The values are the labels shown to players and stored as-is.
const (
	ClassMage     CharacterClass = "Маг"
	ClassEngineer CharacterClass = "Инженер"
	ClassWarrior  CharacterClass = "Воин"
)

// CharacterClasses returns the selectable classes in menu order.
func CharacterClasses() []CharacterClass {
	return []CharacterClass{ClassMage, ClassEngineer, ClassWarrior}
}

// ParseCharacterClass resolves a label to a class.
func ParseCharacterClass(s string) (CharacterClass, bool) {
	for _, c := range CharacterClasses() {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Age limits accepted at registration.
const (
	MinAge = 5
	MaxAge = 99
)

// Account is a registered player. Wallet and Savings are never negative.
type Account struct {
	TelegramID     int64          `db:"telegram_id"`
	Username       string         `db:"username"`
	CharacterName  string         `db:"character_name"`
	CharacterClass CharacterClass `db:"character_class"`
	Level          int            `db:"level"`
	Wallet         int64          `db:"wallet"`
	Savings        int64          `db:"savings"`
	SavingsSince   *time.Time     `db:"savings_since"`
	Age            int            `db:"age"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

// Total returns wallet plus savings.
func (a *Account) Total() int64 {
	return a.Wallet + a.Savings
}

// NewAccount carries the fields captured by the registration flow.
type NewAccount struct {
	TelegramID     int64
	Username       string
	CharacterName  string
	CharacterClass CharacterClass
	Age            int
}

// BalanceField selects one of the two balances on an account.
type BalanceField string

const (
	FieldWallet  BalanceField = "wallet"
	FieldSavings BalanceField = "savings"
)

// MarketItem is a tradable catalog entry.
type MarketItem struct {
	ID             int64  `db:"id"`
	Name           string `db:"name"`
	Description    string `db:"description"`
	Price          int64  `db:"current_price"`
	ReferencePrice int64  `db:"reference_price"`
}

// InventoryEntry is the quantity of one item held by one account.
type InventoryEntry struct {
	UserID   int64 `db:"user_id"`
	ItemID   int64 `db:"item_id"`
	Quantity int   `db:"quantity"`
}

// InventoryItem is an inventory entry joined with its catalog item.
type InventoryItem struct {
	Item     MarketItem
	Quantity int
}

// PurchaseRecord is a one-time premium category unlock.
type PurchaseRecord struct {
	UserID      int64     `db:"user_id"`
	CategoryID  string    `db:"category_id"`
	PurchasedAt time.Time `db:"purchased_at"`
}

// JournalEntry records a single balance change.
type JournalEntry struct {
	ID          int64        `db:"id"`
	UserID      int64        `db:"user_id"`
	Amount      int64        `db:"amount"`
	Field       BalanceField `db:"field"`
	Type        string       `db:"type"`
	Description *string      `db:"description"`
	CreatedAt   time.Time    `db:"created_at"`
}

// Journal entry types for categorizing balance changes.
const (
	TxTypeEarn         = "earn"          // Reward for a correct quiz answer
	TxTypeDeposit      = "deposit"       // Wallet to savings
	TxTypeWithdraw     = "withdraw"      // Savings to wallet
	TxTypeMarketBuy    = "market_buy"    // Market item bought
	TxTypeMarketSell   = "market_sell"   // Market item sold
	TxTypeShopPurchase = "shop_purchase" // Premium category unlocked
	TxTypeAdminAdd     = "admin_add"     // Admin added balance
)

// DefaultMarketItems returns the catalog seeded into an empty market.
func DefaultMarketItems() []MarketItem {
	return []MarketItem{
		{Name: "Rare Card", Description: "A shiny rare collectible card", Price: 100, ReferencePrice: 100},
		{Name: "Vintage Toy", Description: "A classic toy from the 90s", Price: 250, ReferencePrice: 250},
		{Name: "Digital Art", Description: "A unique piece of digital art", Price: 500, ReferencePrice: 500},
		{Name: "Logic Pack", Description: "Unlock 50 new logic puzzles", Price: 1000, ReferencePrice: 1000},
	}
}
