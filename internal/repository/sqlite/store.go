// Package sqlite provides a SQLite-backed repository.Store for single-node
// deployments.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Foy7er/FinQuest/internal/model"
	"github.com/Foy7er/FinQuest/internal/repository"
)

// dbtx is the subset shared by *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the SQLite-backed ledger.
type Store struct {
	sqlDB *sql.DB
	q     dbtx
	now   func() time.Time
}

// Open opens and migrates a SQLite store. Use ":memory:" for a throwaway
// database.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path)
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// SQLite only supports one writer; a single connection also keeps
	// ":memory:" databases alive and makes conditional updates serial.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	pragmas := []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000"}
	if path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL", "PRAGMA synchronous = NORMAL")
	}
	for _, p := range pragmas {
		if _, err := sqlDB.Exec(p); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("apply %q: %w", p, err)
		}
	}

	store := &Store{sqlDB: sqlDB, q: sqlDB, now: time.Now}
	if err := store.runMigrations(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) runMigrations() error {
	for _, stmt := range schema {
		if _, err := s.sqlDB.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		telegram_id INTEGER PRIMARY KEY,
		username TEXT NOT NULL DEFAULT '',
		character_name TEXT NOT NULL,
		character_class TEXT NOT NULL,
		level INTEGER NOT NULL DEFAULT 1,
		wallet INTEGER NOT NULL DEFAULT 0 CHECK (wallet >= 0),
		savings INTEGER NOT NULL DEFAULT 0 CHECK (savings >= 0),
		savings_since INTEGER,
		age INTEGER NOT NULL CHECK (age BETWEEN 5 AND 99),
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS market_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		current_price INTEGER NOT NULL CHECK (current_price >= 1),
		reference_price INTEGER NOT NULL CHECK (reference_price >= 1)
	)`,
	`CREATE TABLE IF NOT EXISTS inventory (
		user_id INTEGER NOT NULL REFERENCES accounts(telegram_id) ON DELETE CASCADE,
		item_id INTEGER NOT NULL REFERENCES market_items(id),
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		PRIMARY KEY (user_id, item_id)
	)`,
	`CREATE TABLE IF NOT EXISTS purchases (
		user_id INTEGER NOT NULL,
		category_id TEXT NOT NULL,
		purchased_at INTEGER NOT NULL,
		PRIMARY KEY (user_id, category_id)
	)`,
	`CREATE TABLE IF NOT EXISTS journal (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES accounts(telegram_id) ON DELETE CASCADE,
		amount INTEGER NOT NULL,
		field TEXT NOT NULL,
		type TEXT NOT NULL,
		description TEXT,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_journal_user_time ON journal(user_id, created_at DESC)`,
}

// WithTx runs fn in a single SQLite transaction.
func (s *Store) WithTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.sqlDB == nil {
		return fn(s)
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&Store{q: tx, now: s.now}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

const accountColumns = `telegram_id, username, character_name, character_class, level,
	wallet, savings, savings_since, age, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*model.Account, error) {
	var (
		acc                  model.Account
		class                string
		since                sql.NullInt64
		createdAt, updatedAt int64
	)
	err := row.Scan(&acc.TelegramID, &acc.Username, &acc.CharacterName, &class, &acc.Level,
		&acc.Wallet, &acc.Savings, &since, &acc.Age, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	acc.CharacterClass = model.CharacterClass(class)
	if since.Valid {
		t := time.Unix(since.Int64, 0).UTC()
		acc.SavingsSince = &t
	}
	acc.CreatedAt = time.Unix(createdAt, 0).UTC()
	acc.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &acc, nil
}

func notFound(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *Store) CreateAccount(ctx context.Context, acc model.NewAccount) (*model.Account, error) {
	now := s.now().Unix()
	row := s.q.QueryRowContext(ctx, `
		INSERT INTO accounts (telegram_id, username, character_name, character_class, level, wallet, savings, age, created_at, updated_at)
		VALUES (?1, ?2, ?3, ?4, 1, 0, 0, ?5, ?6, ?6)
		ON CONFLICT (telegram_id) DO NOTHING
		RETURNING `+accountColumns,
		acc.TelegramID, acc.Username, acc.CharacterName, string(acc.CharacterClass), acc.Age, now)
	created, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrAlreadyExists
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	return created, nil
}

func (s *Store) GetAccount(ctx context.Context, telegramID int64) (*model.Account, error) {
	acc, err := scanAccount(s.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE telegram_id = ?1`, telegramID))
	if err != nil {
		return nil, notFound(err, "get account")
	}
	return acc, nil
}

func (s *Store) AdjustBalance(ctx context.Context, telegramID int64, field model.BalanceField, delta int64) (*model.Account, error) {
	var query string
	switch field {
	case model.FieldWallet:
		query = `UPDATE accounts SET wallet = wallet + ?2, updated_at = ?3
			WHERE telegram_id = ?1 AND wallet + ?2 >= 0
			RETURNING ` + accountColumns
	case model.FieldSavings:
		query = `UPDATE accounts SET savings = savings + ?2,
				savings_since = CASE
					WHEN savings + ?2 = 0 THEN NULL
					WHEN savings = 0 THEN ?3
					ELSE savings_since
				END,
				updated_at = ?3
			WHERE telegram_id = ?1 AND savings + ?2 >= 0
			RETURNING ` + accountColumns
	default:
		return nil, repository.ErrInvalidField
	}

	acc, err := scanAccount(s.q.QueryRowContext(ctx, query, telegramID, delta, s.now().Unix()))
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("adjust balance: %w", err)
	}
	if _, err := s.GetAccount(ctx, telegramID); err != nil {
		return nil, err
	}
	return nil, repository.ErrInsufficientFunds
}

func (s *Store) DeleteAccount(ctx context.Context, telegramID int64, cascadePurchases bool) error {
	if cascadePurchases {
		if _, err := s.q.ExecContext(ctx, `DELETE FROM purchases WHERE user_id = ?1`, telegramID); err != nil {
			return fmt.Errorf("delete purchases: %w", err)
		}
	}
	if _, err := s.q.ExecContext(ctx, `DELETE FROM accounts WHERE telegram_id = ?1`, telegramID); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

const marketColumns = `id, name, description, current_price, reference_price`

func scanItem(row scanner) (*model.MarketItem, error) {
	var it model.MarketItem
	if err := row.Scan(&it.ID, &it.Name, &it.Description, &it.Price, &it.ReferencePrice); err != nil {
		return nil, err
	}
	return &it, nil
}

func (s *Store) ListMarketItems(ctx context.Context) ([]model.MarketItem, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+marketColumns+` FROM market_items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list market items: %w", err)
	}
	defer rows.Close()

	var items []model.MarketItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan market item: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

func (s *Store) GetMarketItem(ctx context.Context, itemID int64) (*model.MarketItem, error) {
	it, err := scanItem(s.q.QueryRowContext(ctx,
		`SELECT `+marketColumns+` FROM market_items WHERE id = ?1`, itemID))
	if err != nil {
		return nil, notFound(err, "get market item")
	}
	return it, nil
}

func (s *Store) GetMarketItemByName(ctx context.Context, name string) (*model.MarketItem, error) {
	it, err := scanItem(s.q.QueryRowContext(ctx,
		`SELECT `+marketColumns+` FROM market_items WHERE name = ?1`, name))
	if err != nil {
		return nil, notFound(err, "get market item by name")
	}
	return it, nil
}

func (s *Store) SetMarketPrice(ctx context.Context, itemID int64, price int64) error {
	if price < 1 {
		return repository.ErrInvalidPrice
	}
	res, err := s.q.ExecContext(ctx, `UPDATE market_items SET current_price = ?2 WHERE id = ?1`, itemID, price)
	if err != nil {
		return fmt.Errorf("set market price: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) SeedMarket(ctx context.Context, items []model.MarketItem) error {
	var count int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM market_items`).Scan(&count); err != nil {
		return fmt.Errorf("count market items: %w", err)
	}
	if count > 0 {
		return nil
	}
	for _, it := range items {
		_, err := s.q.ExecContext(ctx, `
			INSERT INTO market_items (name, description, current_price, reference_price)
			VALUES (?1, ?2, ?3, ?4)
			ON CONFLICT (name) DO NOTHING`,
			it.Name, it.Description, it.Price, it.ReferencePrice)
		if err != nil {
			return fmt.Errorf("seed market item %q: %w", it.Name, err)
		}
	}
	return nil
}

func (s *Store) UpsertInventory(ctx context.Context, userID, itemID int64, delta int) (*model.InventoryEntry, error) {
	entry := &model.InventoryEntry{UserID: userID, ItemID: itemID}
	if delta == 0 {
		return nil, repository.ErrInvalidDelta
	}
	if delta > 0 {
		err := s.q.QueryRowContext(ctx, `
			INSERT INTO inventory (user_id, item_id, quantity) VALUES (?1, ?2, ?3)
			ON CONFLICT (user_id, item_id) DO UPDATE SET quantity = quantity + excluded.quantity
			RETURNING quantity`, userID, itemID, delta).Scan(&entry.Quantity)
		if err != nil {
			return nil, fmt.Errorf("add inventory: %w", err)
		}
		return entry, nil
	}

	err := s.q.QueryRowContext(ctx, `
		UPDATE inventory SET quantity = quantity + ?3
		WHERE user_id = ?1 AND item_id = ?2 AND quantity + ?3 > 0
		RETURNING quantity`, userID, itemID, delta).Scan(&entry.Quantity)
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("decrement inventory: %w", err)
	}

	res, err := s.q.ExecContext(ctx, `DELETE FROM inventory WHERE user_id = ?1 AND item_id = ?2`, userID, itemID)
	if err != nil {
		return nil, fmt.Errorf("remove inventory: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, repository.ErrNotFound
	}
	entry.Quantity = 0
	return entry, nil
}

func (s *Store) ListInventory(ctx context.Context, userID int64) ([]model.InventoryItem, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT m.id, m.name, m.description, m.current_price, m.reference_price, i.quantity
		FROM inventory i JOIN market_items m ON m.id = i.item_id
		WHERE i.user_id = ?1
		ORDER BY m.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	defer rows.Close()

	var items []model.InventoryItem
	for rows.Next() {
		var it model.InventoryItem
		if err := rows.Scan(&it.Item.ID, &it.Item.Name, &it.Item.Description,
			&it.Item.Price, &it.Item.ReferencePrice, &it.Quantity); err != nil {
			return nil, fmt.Errorf("scan inventory: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *Store) RecordPurchase(ctx context.Context, userID int64, categoryID string) error {
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO purchases (user_id, category_id, purchased_at) VALUES (?1, ?2, ?3)
		ON CONFLICT (user_id, category_id) DO NOTHING`, userID, categoryID, s.now().Unix())
	if err != nil {
		return fmt.Errorf("record purchase: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrAlreadyPurchased
	}
	return nil
}

func (s *Store) HasPurchase(ctx context.Context, userID int64, categoryID string) (bool, error) {
	var exists bool
	err := s.q.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM purchases WHERE user_id = ?1 AND category_id = ?2)`,
		userID, categoryID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check purchase: %w", err)
	}
	return exists, nil
}

func (s *Store) ListPurchases(ctx context.Context, userID int64) ([]string, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT category_id FROM purchases WHERE user_id = ?1 ORDER BY purchased_at, category_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) AppendJournal(ctx context.Context, entry *model.JournalEntry) error {
	now := s.now()
	err := s.q.QueryRowContext(ctx, `
		INSERT INTO journal (user_id, amount, field, type, description, created_at)
		VALUES (?1, ?2, ?3, ?4, ?5, ?6)
		RETURNING id`,
		entry.UserID, entry.Amount, string(entry.Field), entry.Type, entry.Description, now.Unix(),
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("append journal: %w", err)
	}
	entry.CreatedAt = time.Unix(now.Unix(), 0).UTC()
	return nil
}

func (s *Store) ListJournal(ctx context.Context, userID int64, limit int) ([]model.JournalEntry, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, user_id, amount, field, type, description, created_at
		FROM journal WHERE user_id = ?1
		ORDER BY created_at DESC, id DESC
		LIMIT ?2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list journal: %w", err)
	}
	defer rows.Close()

	var entries []model.JournalEntry
	for rows.Next() {
		var (
			e         model.JournalEntry
			field     string
			desc      sql.NullString
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount, &field, &e.Type, &desc, &createdAt); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		e.Field = model.BalanceField(field)
		if desc.Valid {
			d := desc.String
			e.Description = &d
		}
		e.CreatedAt = time.Unix(createdAt, 0).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

var _ repository.Store = (*Store)(nil)
