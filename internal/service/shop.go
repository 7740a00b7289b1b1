package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Foy7er/FinQuest/internal/model"
	"github.com/Foy7er/FinQuest/internal/quiz"
	"github.com/Foy7er/FinQuest/internal/repository"
)

// ShopEntry is a premium category as shown in the shop.
type ShopEntry struct {
	Category quiz.Category
	Owned    bool
}

// PurchaseResult is the outcome of a category purchase.
type PurchaseResult struct {
	Category quiz.Category
	Account  *model.Account
}

// ShopEntries lists premium categories with ownership for telegramID.
func (s *EconomyService) ShopEntries(ctx context.Context, telegramID int64) ([]ShopEntry, error) {
	owned, err := s.store.ListPurchases(ctx, telegramID)
	if err != nil {
		return nil, mapStoreErr(err, "list purchases")
	}
	set := make(map[string]bool, len(owned))
	for _, id := range owned {
		set[id] = true
	}

	premium := s.catalog.Premium()
	entries := make([]ShopEntry, 0, len(premium))
	for _, cat := range premium {
		entries = append(entries, ShopEntry{Category: cat, Owned: set[cat.ID]})
	}
	return entries, nil
}

// PurchaseCategory unlocks a premium category exactly once. The ownership
// pre-check only saves a transaction; the store's unique constraint is what
// rejects a racing second purchase, and its rejection rolls back the debit.
func (s *EconomyService) PurchaseCategory(ctx context.Context, telegramID int64, categoryID string) (*PurchaseResult, error) {
	cat, err := s.catalog.Get(categoryID)
	if err != nil || !cat.Premium {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, categoryID)
	}

	if err := s.userLock.LockContext(ctx, telegramID); err != nil {
		return nil, err
	}
	defer s.userLock.Unlock(telegramID)

	owned, err := s.store.HasPurchase(ctx, telegramID, cat.ID)
	if err != nil {
		return nil, mapStoreErr(err, "check purchase")
	}
	if owned {
		return nil, ErrAlreadyPurchased
	}

	res := &PurchaseResult{Category: cat}
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		acc, err := tx.GetAccount(ctx, telegramID)
		if err != nil {
			return err
		}
		if acc.Wallet < cat.Price {
			return &InsufficientFundsError{Need: cat.Price, Have: acc.Wallet}
		}
		acc, err = tx.AdjustBalance(ctx, telegramID, model.FieldWallet, -cat.Price)
		if err != nil {
			return err
		}
		if err := tx.RecordPurchase(ctx, telegramID, cat.ID); err != nil {
			return err
		}
		if err := appendJournal(ctx, tx, telegramID, -cat.Price, model.FieldWallet, model.TxTypeShopPurchase, cat.ID); err != nil {
			return err
		}
		res.Account = acc
		return nil
	})
	if err != nil {
		return nil, mapStoreErr(err, "purchase category")
	}

	log.Info().
		Int64("user_id", telegramID).
		Str("category", cat.ID).
		Int64("price", cat.Price).
		Msg("Category purchased")
	return res, nil
}

// EarnSubjects returns the base subjects followed by the premium categories
// telegramID owns.
func (s *EconomyService) EarnSubjects(ctx context.Context, telegramID int64) ([]quiz.Category, error) {
	subjects := s.catalog.Base()
	entries, err := s.ShopEntries(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.Owned {
			subjects = append(subjects, e.Category)
		}
	}
	return subjects, nil
}

// CanEarnIn reports whether telegramID may play categoryID.
func (s *EconomyService) CanEarnIn(ctx context.Context, telegramID int64, categoryID string) (quiz.Category, bool, error) {
	cat, err := s.catalog.Get(categoryID)
	if err != nil {
		return quiz.Category{}, false, ErrUnknownCategory
	}
	if !cat.Premium {
		return cat, true, nil
	}
	owned, err := s.store.HasPurchase(ctx, telegramID, cat.ID)
	if err != nil {
		return cat, false, mapStoreErr(err, "check purchase")
	}
	return cat, owned, nil
}
