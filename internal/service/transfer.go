package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Foy7er/FinQuest/internal/model"
	"github.com/Foy7er/FinQuest/internal/repository"
)

// Direction is the way money moves between wallet and savings.
type Direction string

const (
	ToSavings Direction = "to_savings"
	ToWallet  Direction = "to_wallet"
)

func (d Direction) fields() (from, to model.BalanceField, txType string, ok bool) {
	switch d {
	case ToSavings:
		return model.FieldWallet, model.FieldSavings, model.TxTypeDeposit, true
	case ToWallet:
		return model.FieldSavings, model.FieldWallet, model.TxTypeWithdraw, true
	}
	return "", "", "", false
}

// TransferResult is the outcome of a wallet/savings transfer.
type TransferResult struct {
	Amount  int64
	Account *model.Account
}

// Transfer moves amount between wallet and savings. Debit and credit commit
// together; a failure of either leaves both balances as they were.
func (s *EconomyService) Transfer(ctx context.Context, telegramID int64, dir Direction, amount int64) (*TransferResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return s.transfer(ctx, telegramID, dir, amount)
}

// TransferAll moves the whole source balance, as read when the transfer
// executes rather than when it was offered.
func (s *EconomyService) TransferAll(ctx context.Context, telegramID int64, dir Direction) (*TransferResult, error) {
	return s.transfer(ctx, telegramID, dir, 0)
}

// transfer treats amount 0 as "everything".
func (s *EconomyService) transfer(ctx context.Context, telegramID int64, dir Direction, amount int64) (*TransferResult, error) {
	from, to, txType, ok := dir.fields()
	if !ok {
		return nil, fmt.Errorf("unknown transfer direction %q", dir)
	}

	if err := s.userLock.LockContext(ctx, telegramID); err != nil {
		return nil, err
	}
	defer s.userLock.Unlock(telegramID)

	res := &TransferResult{}
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		acc, err := tx.GetAccount(ctx, telegramID)
		if err != nil {
			return err
		}
		have := acc.Wallet
		if from == model.FieldSavings {
			have = acc.Savings
		}

		want := amount
		if want == 0 {
			if have == 0 {
				return ErrInvalidAmount
			}
			want = have
		}
		if have < want {
			return &InsufficientFundsError{Need: want, Have: have}
		}

		if _, err := tx.AdjustBalance(ctx, telegramID, from, -want); err != nil {
			return err
		}
		credited, err := tx.AdjustBalance(ctx, telegramID, to, want)
		if err != nil {
			return err
		}
		if err := appendJournal(ctx, tx, telegramID, -want, from, txType, string(dir)); err != nil {
			return err
		}
		if err := appendJournal(ctx, tx, telegramID, want, to, txType, string(dir)); err != nil {
			return err
		}

		res.Amount = want
		res.Account = credited
		return nil
	})
	if err != nil {
		return nil, mapStoreErr(err, "transfer")
	}

	log.Info().
		Int64("user_id", telegramID).
		Str("direction", string(dir)).
		Int64("amount", res.Amount).
		Msg("Transfer completed")
	return res, nil
}
