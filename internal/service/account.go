package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/Foy7er/FinQuest/internal/model"
	"github.com/Foy7er/FinQuest/internal/pkg/lock"
	"github.com/Foy7er/FinQuest/internal/repository"
)

// MaxNameLength is the longest accepted character name, in runes.
const MaxNameLength = 32

// AccountService handles registration, profile reads and resets.
type AccountService struct {
	store            repository.Store
	userLock         *lock.UserLock
	cascadePurchases bool
}

// NewAccountService creates a new AccountService instance. cascadePurchases
// controls whether a reset also forgets premium unlocks.
func NewAccountService(store repository.Store, userLock *lock.UserLock, cascadePurchases bool) *AccountService {
	return &AccountService{
		store:            store,
		userLock:         userLock,
		cascadePurchases: cascadePurchases,
	}
}

// ValidateName trims and checks a character name.
func ValidateName(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return "", false
	}
	return name, true
}

// ValidateAge reports whether age is accepted at registration.
func ValidateAge(age int) bool {
	return age >= model.MinAge && age <= model.MaxAge
}

// Register creates the account at the end of the registration flow. It is
// create-if-absent: an existing account is never touched and ErrAlreadyExists
// is returned.
func (s *AccountService) Register(ctx context.Context, acc model.NewAccount) (*model.Account, error) {
	name, ok := ValidateName(acc.CharacterName)
	if !ok {
		return nil, fmt.Errorf("%w: name", ErrInvalidAccount)
	}
	if _, ok := model.ParseCharacterClass(string(acc.CharacterClass)); !ok {
		return nil, fmt.Errorf("%w: class", ErrInvalidAccount)
	}
	if !ValidateAge(acc.Age) {
		return nil, fmt.Errorf("%w: age", ErrInvalidAccount)
	}
	acc.CharacterName = name

	if err := s.userLock.LockContext(ctx, acc.TelegramID); err != nil {
		return nil, err
	}
	defer s.userLock.Unlock(acc.TelegramID)

	created, err := s.store.CreateAccount(ctx, acc)
	if err != nil {
		return nil, mapStoreErr(err, "register account")
	}

	log.Info().
		Int64("user_id", created.TelegramID).
		Str("class", string(created.CharacterClass)).
		Int("age", created.Age).
		Msg("Account registered")
	return created, nil
}

// GetAccount retrieves an account by Telegram ID.
func (s *AccountService) GetAccount(ctx context.Context, telegramID int64) (*model.Account, error) {
	acc, err := s.store.GetAccount(ctx, telegramID)
	if err != nil {
		return nil, mapStoreErr(err, "get account")
	}
	return acc, nil
}

// Exists reports whether telegramID has an account.
func (s *AccountService) Exists(ctx context.Context, telegramID int64) (bool, error) {
	_, err := s.GetAccount(ctx, telegramID)
	switch {
	case err == nil:
		return true, nil
	case err == ErrNotFound:
		return false, nil
	default:
		return false, err
	}
}

// Reset deletes the account with its inventory and journal. Purchases go
// too when the service was built with cascadePurchases. Missing accounts
// are not an error.
func (s *AccountService) Reset(ctx context.Context, telegramID int64) error {
	if err := s.userLock.LockContext(ctx, telegramID); err != nil {
		return err
	}
	defer s.userLock.Unlock(telegramID)

	if err := s.store.DeleteAccount(ctx, telegramID, s.cascadePurchases); err != nil {
		return fmt.Errorf("failed to reset account: %w", err)
	}
	log.Info().Int64("user_id", telegramID).Bool("cascade_purchases", s.cascadePurchases).Msg("Account reset")
	return nil
}

// Inventory lists an account's holdings.
func (s *AccountService) Inventory(ctx context.Context, telegramID int64) ([]model.InventoryItem, error) {
	items, err := s.store.ListInventory(ctx, telegramID)
	if err != nil {
		return nil, mapStoreErr(err, "list inventory")
	}
	return items, nil
}

// Purchases lists the premium categories an account has unlocked.
func (s *AccountService) Purchases(ctx context.Context, telegramID int64) ([]string, error) {
	ids, err := s.store.ListPurchases(ctx, telegramID)
	if err != nil {
		return nil, mapStoreErr(err, "list purchases")
	}
	return ids, nil
}

// AdminCredit adds amount to an account's wallet.
func (s *AccountService) AdminCredit(ctx context.Context, telegramID int64, amount int64) (*model.Account, error) {
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
		desc := "admin credit"
		return tx.AppendJournal(ctx, &model.JournalEntry{
			UserID:      telegramID,
			Amount:      amount,
			Field:       model.FieldWallet,
			Type:        model.TxTypeAdminAdd,
			Description: &desc,
		})
	})
	if err != nil {
		return nil, mapStoreErr(err, "credit account")
	}

	log.Info().Int64("user_id", telegramID).Int64("amount", amount).Msg("Admin credit applied")
	return acc, nil
}

// Journal returns the latest balance changes, newest first.
func (s *AccountService) Journal(ctx context.Context, telegramID int64, limit int) ([]model.JournalEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	entries, err := s.store.ListJournal(ctx, telegramID, limit)
	if err != nil {
		return nil, mapStoreErr(err, "list journal")
	}
	return entries, nil
}
