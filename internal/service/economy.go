package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/Foy7er/FinQuest/internal/market"
	"github.com/Foy7er/FinQuest/internal/model"
	"github.com/Foy7er/FinQuest/internal/pkg/lock"
	"github.com/Foy7er/FinQuest/internal/quiz"
	"github.com/Foy7er/FinQuest/internal/repository"
)

// EconomyService composes balance mutations into atomic economy operations.
// Every operation validates against account state read inside the same
// store transaction that mutates it.
type EconomyService struct {
	store    repository.Store
	market   *market.Engine
	catalog  *quiz.Catalog
	userLock *lock.UserLock
}

// NewEconomyService creates a new EconomyService instance.
func NewEconomyService(
	store repository.Store,
	engine *market.Engine,
	catalog *quiz.Catalog,
	userLock *lock.UserLock,
) *EconomyService {
	return &EconomyService{
		store:    store,
		market:   engine,
		catalog:  catalog,
		userLock: userLock,
	}
}

// Market exposes the pricing engine for quote rendering.
func (s *EconomyService) Market() *market.Engine {
	return s.market
}

// CreditEarnedReward pays a quiz reward into the wallet.
func (s *EconomyService) CreditEarnedReward(ctx context.Context, telegramID int64, amount int64, categoryID string) (*model.Account, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	if err := s.userLock.LockContext(ctx, telegramID); err != nil {
		return nil, err
	}
	defer s.userLock.Unlock(telegramID)

	var acc *model.Account
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		var err error
		acc, err = tx.AdjustBalance(ctx, telegramID, model.FieldWallet, amount)
		if err != nil {
			return err
		}
		return appendJournal(ctx, tx, telegramID, amount, model.FieldWallet, model.TxTypeEarn, "quiz: "+categoryID)
	})
	if err != nil {
		return nil, mapStoreErr(err, "credit reward")
	}

	log.Info().
		Int64("user_id", telegramID).
		Int64("amount", amount).
		Str("category", categoryID).
		Msg("Reward credited")
	return acc, nil
}

func appendJournal(ctx context.Context, tx repository.Store, userID, amount int64, field model.BalanceField, txType, desc string) error {
	return tx.AppendJournal(ctx, &model.JournalEntry{
		UserID:      userID,
		Amount:      amount,
		Field:       field,
		Type:        txType,
		Description: &desc,
	})
}
