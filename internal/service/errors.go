// Package service provides business logic implementations.
package service

import (
	"errors"
	"fmt"

	"github.com/Foy7er/FinQuest/internal/quiz"
	"github.com/Foy7er/FinQuest/internal/repository"
)

// Economy errors.
var (
	ErrInvalidAmount     = errors.New("invalid amount: must be positive")
	ErrInvalidAccount    = errors.New("invalid account details")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAlreadyExists     = errors.New("account already exists")
	ErrAlreadyPurchased  = errors.New("category already purchased")
	ErrNotFound          = errors.New("account not found")
	ErrItemNotFound      = errors.New("market item not found")
	ErrItemNotOwned      = errors.New("market item not owned")
	ErrUnknownCategory   = errors.New("unknown category")
)

// InsufficientFundsError reports how much was needed and how much the
// source balance held. It matches ErrInsufficientFunds with errors.Is.
type InsufficientFundsError struct {
	Need int64
	Have int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: need %d, have %d", e.Need, e.Have)
}

// Is lets errors.Is(err, ErrInsufficientFunds) match.
func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// Shortfall is the missing amount.
func (e *InsufficientFundsError) Shortfall() int64 {
	return e.Need - e.Have
}

// mapStoreErr translates repository sentinels into service sentinels and
// wraps anything else.
func mapStoreErr(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrAlreadyExists):
		return ErrAlreadyExists
	case errors.Is(err, repository.ErrAlreadyPurchased):
		return ErrAlreadyPurchased
	case errors.Is(err, repository.ErrInsufficientFunds):
		return ErrInsufficientFunds
	case errors.Is(err, quiz.ErrUnknownCategory):
		return ErrUnknownCategory
	}
	var ife *InsufficientFundsError
	if errors.As(err, &ife) {
		return err
	}
	for _, sentinel := range []error{ErrInvalidAmount, ErrItemNotFound, ErrItemNotOwned, ErrUnknownCategory, ErrNotFound, ErrAlreadyPurchased} {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
