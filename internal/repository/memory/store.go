// Package memory provides an in-process repository.Store used for local runs
// and property tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Foy7er/FinQuest/internal/model"
	"github.com/Foy7er/FinQuest/internal/repository"
)

type purchaseKey struct {
	userID     int64
	categoryID string
}

type invKey struct {
	userID int64
	itemID int64
}

type state struct {
	accounts  map[int64]model.Account
	items     map[int64]model.MarketItem
	nextItem  int64
	inventory map[invKey]int
	purchases map[purchaseKey]time.Time
	journal   []model.JournalEntry
	nextEntry int64
}

func newState() *state {
	return &state{
		accounts:  make(map[int64]model.Account),
		items:     make(map[int64]model.MarketItem),
		inventory: make(map[invKey]int),
		purchases: make(map[purchaseKey]time.Time),
	}
}

func (st *state) clone() *state {
	c := &state{
		accounts:  make(map[int64]model.Account, len(st.accounts)),
		items:     make(map[int64]model.MarketItem, len(st.items)),
		nextItem:  st.nextItem,
		inventory: make(map[invKey]int, len(st.inventory)),
		purchases: make(map[purchaseKey]time.Time, len(st.purchases)),
		journal:   append([]model.JournalEntry(nil), st.journal...),
		nextEntry: st.nextEntry,
	}
	for k, v := range st.accounts {
		c.accounts[k] = v
	}
	for k, v := range st.items {
		c.items[k] = v
	}
	for k, v := range st.inventory {
		c.inventory[k] = v
	}
	for k, v := range st.purchases {
		c.purchases[k] = v
	}
	return c
}

// Store is a mutex-guarded in-memory ledger.
type Store struct {
	mu   *sync.Mutex
	st   **state
	inTx bool
	now  func() time.Time
}

// New creates an empty Store.
func New() *Store {
	st := newState()
	return &Store{mu: &sync.Mutex{}, st: &st, now: time.Now}
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) state() *state { return *s.st }

// WithTx holds the store lock for the whole of fn and restores a snapshot
// if fn fails.
func (s *Store) WithTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state().clone()
	tx := &Store{mu: s.mu, st: s.st, inTx: true, now: s.now}
	if err := fn(tx); err != nil {
		*s.st = snapshot
		return err
	}
	if err := ctx.Err(); err != nil {
		*s.st = snapshot
		return err
	}
	return nil
}

func (s *Store) CreateAccount(_ context.Context, acc model.NewAccount) (*model.Account, error) {
	defer s.lock()()
	st := s.state()
	if _, ok := st.accounts[acc.TelegramID]; ok {
		return nil, repository.ErrAlreadyExists
	}
	now := s.now()
	a := model.Account{
		TelegramID:     acc.TelegramID,
		Username:       acc.Username,
		CharacterName:  acc.CharacterName,
		CharacterClass: acc.CharacterClass,
		Level:          1,
		Age:            acc.Age,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	st.accounts[a.TelegramID] = a
	return &a, nil
}

func (s *Store) GetAccount(_ context.Context, telegramID int64) (*model.Account, error) {
	defer s.lock()()
	a, ok := s.state().accounts[telegramID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (s *Store) AdjustBalance(_ context.Context, telegramID int64, field model.BalanceField, delta int64) (*model.Account, error) {
	if !repository.ValidField(field) {
		return nil, repository.ErrInvalidField
	}
	defer s.lock()()
	st := s.state()
	a, ok := st.accounts[telegramID]
	if !ok {
		return nil, repository.ErrNotFound
	}

	now := s.now()
	switch field {
	case model.FieldWallet:
		if a.Wallet+delta < 0 {
			return nil, repository.ErrInsufficientFunds
		}
		a.Wallet += delta
	case model.FieldSavings:
		if a.Savings+delta < 0 {
			return nil, repository.ErrInsufficientFunds
		}
		switch {
		case a.Savings+delta == 0:
			a.SavingsSince = nil
		case a.Savings == 0:
			a.SavingsSince = &now
		}
		a.Savings += delta
	}
	a.UpdatedAt = now
	st.accounts[telegramID] = a
	return &a, nil
}

func (s *Store) DeleteAccount(_ context.Context, telegramID int64, cascadePurchases bool) error {
	defer s.lock()()
	st := s.state()
	delete(st.accounts, telegramID)
	for k := range st.inventory {
		if k.userID == telegramID {
			delete(st.inventory, k)
		}
	}
	if cascadePurchases {
		for k := range st.purchases {
			if k.userID == telegramID {
				delete(st.purchases, k)
			}
		}
	}
	kept := st.journal[:0]
	for _, e := range st.journal {
		if e.UserID != telegramID {
			kept = append(kept, e)
		}
	}
	st.journal = kept
	return nil
}

func (s *Store) ListMarketItems(_ context.Context) ([]model.MarketItem, error) {
	defer s.lock()()
	st := s.state()
	items := make([]model.MarketItem, 0, len(st.items))
	for _, it := range st.items {
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (s *Store) GetMarketItem(_ context.Context, itemID int64) (*model.MarketItem, error) {
	defer s.lock()()
	it, ok := s.state().items[itemID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &it, nil
}

func (s *Store) GetMarketItemByName(_ context.Context, name string) (*model.MarketItem, error) {
	defer s.lock()()
	for _, it := range s.state().items {
		if it.Name == name {
			return &it, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) SetMarketPrice(_ context.Context, itemID int64, price int64) error {
	if price < 1 {
		return repository.ErrInvalidPrice
	}
	defer s.lock()()
	st := s.state()
	it, ok := st.items[itemID]
	if !ok {
		return repository.ErrNotFound
	}
	it.Price = price
	st.items[itemID] = it
	return nil
}

func (s *Store) SeedMarket(_ context.Context, items []model.MarketItem) error {
	defer s.lock()()
	st := s.state()
	if len(st.items) > 0 {
		return nil
	}
	for _, it := range items {
		st.nextItem++
		it.ID = st.nextItem
		st.items[it.ID] = it
	}
	return nil
}

func (s *Store) UpsertInventory(_ context.Context, userID, itemID int64, delta int) (*model.InventoryEntry, error) {
	if delta == 0 {
		return nil, repository.ErrInvalidDelta
	}
	defer s.lock()()
	st := s.state()
	key := invKey{userID: userID, itemID: itemID}
	qty, ok := st.inventory[key]
	if !ok && delta < 0 {
		return nil, repository.ErrNotFound
	}
	if delta > 0 {
		if _, ok := st.accounts[userID]; !ok {
			return nil, repository.ErrNotFound
		}
		if _, ok := st.items[itemID]; !ok {
			return nil, repository.ErrNotFound
		}
	}

	qty += delta
	if qty <= 0 {
		delete(st.inventory, key)
		qty = 0
	} else {
		st.inventory[key] = qty
	}
	return &model.InventoryEntry{UserID: userID, ItemID: itemID, Quantity: qty}, nil
}

func (s *Store) ListInventory(_ context.Context, userID int64) ([]model.InventoryItem, error) {
	defer s.lock()()
	st := s.state()
	var items []model.InventoryItem
	for k, qty := range st.inventory {
		if k.userID != userID {
			continue
		}
		items = append(items, model.InventoryItem{Item: st.items[k.itemID], Quantity: qty})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Item.ID < items[j].Item.ID })
	return items, nil
}

func (s *Store) RecordPurchase(_ context.Context, userID int64, categoryID string) error {
	defer s.lock()()
	st := s.state()
	key := purchaseKey{userID: userID, categoryID: categoryID}
	if _, ok := st.purchases[key]; ok {
		return repository.ErrAlreadyPurchased
	}
	st.purchases[key] = s.now()
	return nil
}

func (s *Store) HasPurchase(_ context.Context, userID int64, categoryID string) (bool, error) {
	defer s.lock()()
	_, ok := s.state().purchases[purchaseKey{userID: userID, categoryID: categoryID}]
	return ok, nil
}

func (s *Store) ListPurchases(_ context.Context, userID int64) ([]string, error) {
	defer s.lock()()
	type rec struct {
		id string
		at time.Time
	}
	var recs []rec
	for k, at := range s.state().purchases {
		if k.userID == userID {
			recs = append(recs, rec{k.categoryID, at})
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].at.Equal(recs[j].at) {
			return recs[i].at.Before(recs[j].at)
		}
		return recs[i].id < recs[j].id
	})
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.id
	}
	return ids, nil
}

func (s *Store) AppendJournal(_ context.Context, entry *model.JournalEntry) error {
	defer s.lock()()
	st := s.state()
	if _, ok := st.accounts[entry.UserID]; !ok {
		return repository.ErrNotFound
	}
	st.nextEntry++
	entry.ID = st.nextEntry
	entry.CreatedAt = s.now()
	st.journal = append(st.journal, *entry)
	return nil
}

func (s *Store) ListJournal(_ context.Context, userID int64, limit int) ([]model.JournalEntry, error) {
	defer s.lock()()
	var out []model.JournalEntry
	j := s.state().journal
	for i := len(j) - 1; i >= 0 && len(out) < limit; i-- {
		if j[i].UserID == userID {
			out = append(out, j[i])
		}
	}
	return out, nil
}

var _ repository.Store = (*Store)(nil)
