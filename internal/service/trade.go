package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/Foy7er/FinQuest/internal/model"
	"github.com/Foy7er/FinQuest/internal/repository"
)

// TradeResult is the outcome of a market buy or sell.
type TradeResult struct {
	Item model.MarketItem
	// Price is what was paid on a buy or received on a sell.
	Price    int64
	Quantity int
	Account  *model.Account
}

// BuyItem buys one unit at the current price. The price is read inside the
// settlement, so a concurrent refresh either lands before it or after it.
func (s *EconomyService) BuyItem(ctx context.Context, telegramID int64, itemID int64) (*TradeResult, error) {
	if err := s.userLock.LockContext(ctx, telegramID); err != nil {
		return nil, err
	}
	defer s.userLock.Unlock(telegramID)

	res := &TradeResult{}
	err := s.market.Settle(func() error {
		return s.store.WithTx(ctx, func(tx repository.Store) error {
			item, err := tx.GetMarketItem(ctx, itemID)
			if errors.Is(err, repository.ErrNotFound) {
				return ErrItemNotFound
			}
			if err != nil {
				return err
			}
			acc, err := tx.GetAccount(ctx, telegramID)
			if err != nil {
				return err
			}
			if acc.Wallet < item.Price {
				return &InsufficientFundsError{Need: item.Price, Have: acc.Wallet}
			}

			acc, err = tx.AdjustBalance(ctx, telegramID, model.FieldWallet, -item.Price)
			if err != nil {
				return err
			}
			entry, err := tx.UpsertInventory(ctx, telegramID, item.ID, 1)
			if err != nil {
				return err
			}
			if err := appendJournal(ctx, tx, telegramID, -item.Price, model.FieldWallet, model.TxTypeMarketBuy, item.Name); err != nil {
				return err
			}

			res.Item = *item
			res.Price = item.Price
			res.Quantity = entry.Quantity
			res.Account = acc
			return nil
		})
	})
	if err != nil {
		return nil, mapStoreErr(err, "buy item")
	}

	log.Info().
		Int64("user_id", telegramID).
		Str("item", res.Item.Name).
		Int64("price", res.Price).
		Msg("Market item bought")
	return res, nil
}

// SellItem sells one unit of the named item at the current sell quote.
func (s *EconomyService) SellItem(ctx context.Context, telegramID int64, itemName string) (*TradeResult, error) {
	if err := s.userLock.LockContext(ctx, telegramID); err != nil {
		return nil, err
	}
	defer s.userLock.Unlock(telegramID)

	res := &TradeResult{}
	err := s.market.Settle(func() error {
		return s.store.WithTx(ctx, func(tx repository.Store) error {
			item, err := tx.GetMarketItemByName(ctx, itemName)
			if errors.Is(err, repository.ErrNotFound) {
				return ErrItemNotFound
			}
			if err != nil {
				return err
			}
			acc, err := tx.GetAccount(ctx, telegramID)
			if err != nil {
				return err
			}

			entry, err := tx.UpsertInventory(ctx, telegramID, item.ID, -1)
			if errors.Is(err, repository.ErrNotFound) {
				return ErrItemNotOwned
			}
			if err != nil {
				return err
			}

			quote := s.market.SellQuote(item.Price)
			if quote > 0 {
				acc, err = tx.AdjustBalance(ctx, telegramID, model.FieldWallet, quote)
				if err != nil {
					return err
				}
				if err := appendJournal(ctx, tx, telegramID, quote, model.FieldWallet, model.TxTypeMarketSell, item.Name); err != nil {
					return err
				}
			}

			res.Item = *item
			res.Price = quote
			res.Quantity = entry.Quantity
			res.Account = acc
			return nil
		})
	})
	if err != nil {
		return nil, mapStoreErr(err, "sell item")
	}

	log.Info().
		Int64("user_id", telegramID).
		Str("item", res.Item.Name).
		Int64("price", res.Price).
		Msg("Market item sold")
	return res, nil
}
