package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Foy7er/FinQuest/internal/model"
	"github.com/Foy7er/FinQuest/internal/pkg/lock"
	"github.com/Foy7er/FinQuest/internal/quiz"
	"github.com/Foy7er/FinQuest/internal/repository"
)

func TestPurchaseCategory(t *testing.T) {
	env := newTestEnv(true)
	ctx := context.Background()
	_, err := env.register(1, 60)
	require.NoError(t, err)

	res, err := env.economy.PurchaseCategory(ctx, 1, "capitals")
	require.NoError(t, err)
	assert.Equal(t, int64(10), res.Account.Wallet)
	assert.Equal(t, 2.0, res.Category.Multiplier)

	_, err = env.economy.PurchaseCategory(ctx, 1, "capitals")
	assert.ErrorIs(t, err, ErrAlreadyPurchased)

	_, err = env.economy.PurchaseCategory(ctx, 1, "history")
	var ife *InsufficientFundsError
	require.True(t, errors.As(err, &ife))
	assert.Equal(t, int64(75), ife.Need)
	assert.Equal(t, int64(10), ife.Have)

	_, err = env.economy.PurchaseCategory(ctx, 1, "math")
	assert.ErrorIs(t, err, ErrUnknownCategory)
	_, err = env.economy.PurchaseCategory(ctx, 1, "astrology")
	assert.ErrorIs(t, err, ErrUnknownCategory)

	subjects, err := env.economy.EarnSubjects(ctx, 1)
	require.NoError(t, err)
	var ids []string
	for _, s := range subjects {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"math", "logic", "world", "capitals"}, ids)

	_, ok, err := env.economy.CanEarnIn(ctx, 1, "flags")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = env.economy.CanEarnIn(ctx, 1, "capitals")
	require.NoError(t, err)
	assert.True(t, ok)
}

// TestIdempotentPurchaseProperty races several purchases of the same
// category and checks exactly one is charged and recorded.
func TestIdempotentPurchaseProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		env := newTestEnv(true)
		ctx := context.Background()
		wallet := rapid.Int64Range(50, 1000).Draw(t, "wallet")
		if _, err := env.register(1, wallet); err != nil {
			t.Fatalf("register: %v", err)
		}
		workers := rapid.IntRange(2, 8).Draw(t, "workers")

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
			already   int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := env.economy.PurchaseCategory(ctx, 1, "flags")
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					successes++
				case errors.Is(err, ErrAlreadyPurchased):
					already++
				}
			}()
		}
		wg.Wait()

		if successes != 1 || already != workers-1 {
			t.Fatalf("expected 1 success and %d duplicates, got %d and %d", workers-1, successes, already)
		}
		purchases, _ := env.accounts.Purchases(ctx, 1)
		if len(purchases) != 1 {
			t.Fatalf("expected one purchase record, got %v", purchases)
		}
		acc, _ := env.accounts.GetAccount(ctx, 1)
		if acc.Wallet != wallet-50 {
			t.Fatalf("expected wallet %d, got %d", wallet-50, acc.Wallet)
		}
	})
}

// staleCheckStore answers the ownership pre-check as if a concurrent
// purchase had not landed yet.
type staleCheckStore struct {
	repository.Store
}

func (staleCheckStore) HasPurchase(context.Context, int64, string) (bool, error) {
	return false, nil
}

// TestPurchaseRaceRejectedAtWrite checks that a purchase slipping past the
// pre-check is rejected by the store and its debit rolled back.
func TestPurchaseRaceRejectedAtWrite(t *testing.T) {
	env := newTestEnv(true)
	ctx := context.Background()
	_, err := env.register(1, 100)
	require.NoError(t, err)
	require.NoError(t, env.store.RecordPurchase(ctx, 1, "science"))

	economy := NewEconomyService(staleCheckStore{env.store}, env.engine, quiz.DefaultCatalog(), lock.NewUserLock())
	_, err = economy.PurchaseCategory(ctx, 1, "science")
	assert.ErrorIs(t, err, ErrAlreadyPurchased)

	acc, err := env.accounts.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), acc.Wallet)

	journal, err := env.accounts.Journal(ctx, 1, 10)
	require.NoError(t, err)
	for _, e := range journal {
		assert.NotEqual(t, model.TxTypeShopPurchase, e.Type)
	}
}
