package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestBuyInsufficientFundsScenario tries to buy a 100-coin item with 40.
func TestBuyInsufficientFundsScenario(t *testing.T) {
	env := newTestEnv(true)
	ctx := context.Background()
	_, err := env.register(1, 40)
	require.NoError(t, err)
	card := env.itemByName("Rare Card")
	require.Equal(t, int64(100), card.Price)

	_, err = env.economy.BuyItem(ctx, 1, card.ID)
	require.ErrorIs(t, err, ErrInsufficientFunds)
	var ife *InsufficientFundsError
	require.True(t, errors.As(err, &ife))
	assert.Equal(t, int64(60), ife.Shortfall())

	acc, err := env.accounts.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(40), acc.Wallet)
	inv, err := env.accounts.Inventory(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, inv)
}

func TestBuyAndSell(t *testing.T) {
	env := newTestEnv(true)
	ctx := context.Background()
	_, err := env.register(1, 300)
	require.NoError(t, err)
	card := env.itemByName("Rare Card")

	res, err := env.economy.BuyItem(ctx, 1, card.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), res.Price)
	assert.Equal(t, 1, res.Quantity)
	assert.Equal(t, int64(200), res.Account.Wallet)

	res, err = env.economy.BuyItem(ctx, 1, card.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Quantity)

	res, err = env.economy.SellItem(ctx, 1, "Rare Card")
	require.NoError(t, err)
	assert.Equal(t, int64(80), res.Price)
	assert.Equal(t, 1, res.Quantity)
	assert.Equal(t, int64(180), res.Account.Wallet)

	res, err = env.economy.SellItem(ctx, 1, "Rare Card")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Quantity)

	inv, err := env.accounts.Inventory(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, inv)

	_, err = env.economy.SellItem(ctx, 1, "Rare Card")
	assert.ErrorIs(t, err, ErrItemNotOwned)
	_, err = env.economy.SellItem(ctx, 1, "Moon Rock")
	assert.ErrorIs(t, err, ErrItemNotFound)
	_, err = env.economy.BuyItem(ctx, 1, 9999)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

// TestSellThenRebuyNeverProfitsProperty checks that a sell followed by a
// buy of the same item at an unchanged price always costs the player.
func TestSellThenRebuyNeverProfitsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		env := newTestEnv(true)
		ctx := context.Background()
		if _, err := env.register(1, 5000); err != nil {
			t.Fatalf("register: %v", err)
		}
		items, _ := env.store.ListMarketItems(ctx)
		item := rapid.SampledFrom(items).Draw(t, "item")
		price := rapid.Int64Range(1, 1500).Draw(t, "price")
		if err := env.store.SetMarketPrice(ctx, item.ID, price); err != nil {
			t.Fatalf("set price: %v", err)
		}
		if _, err := env.economy.BuyItem(ctx, 1, item.ID); err != nil {
			t.Fatalf("buy: %v", err)
		}

		before, _ := env.accounts.GetAccount(ctx, 1)
		sold, err := env.economy.SellItem(ctx, 1, item.Name)
		if err != nil {
			t.Fatalf("sell: %v", err)
		}
		if sold.Price != env.engine.SellQuote(price) {
			t.Fatalf("sold for %d, quote is %d", sold.Price, env.engine.SellQuote(price))
		}
		bought, err := env.economy.BuyItem(ctx, 1, item.ID)
		if err != nil {
			t.Fatalf("rebuy: %v", err)
		}
		if bought.Account.Wallet > before.Wallet {
			t.Fatalf("round trip profited: %d -> %d", before.Wallet, bought.Account.Wallet)
		}
	})
}

// TestConcurrentBuyScenario has two players buy the same item at once with
// 150 coins each. Wallets are per account, so both succeed, and the price
// row is never touched by a buy.
func TestConcurrentBuyScenario(t *testing.T) {
	env := newTestEnv(true)
	ctx := context.Background()
	for _, id := range []int64{1, 2} {
		_, err := env.register(id, 150)
		require.NoError(t, err)
	}
	card := env.itemByName("Rare Card")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []int64{1, 2} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = env.economy.BuyItem(ctx, id, card.ID)
		}()
	}
	wg.Wait()

	for i, id := range []int64{1, 2} {
		require.NoError(t, errs[i])
		acc, err := env.accounts.GetAccount(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(50), acc.Wallet)
	}
	assert.Equal(t, int64(100), env.itemByName("Rare Card").Price)
}

// TestBuyDuringRefreshProperty interleaves refreshes with buys and checks
// every buy was charged a price that existed in the table at some point.
func TestBuyDuringRefreshProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		env := newTestEnv(true)
		ctx := context.Background()
		if _, err := env.register(1, 1_000_000); err != nil {
			t.Fatalf("register: %v", err)
		}
		card := env.itemByName("Rare Card")
		rounds := rapid.IntRange(1, 10).Draw(t, "rounds")

		var (
			wg     sync.WaitGroup
			mu     sync.Mutex
			prices = map[int64]bool{card.Price: true}
			paid   []int64
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				items, err := env.engine.Refresh(ctx)
				if err != nil {
					return
				}
				mu.Lock()
				for _, it := range items {
					if it.ID == card.ID {
						prices[it.Price] = true
					}
				}
				mu.Unlock()
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				res, err := env.economy.BuyItem(ctx, 1, card.ID)
				if err != nil {
					return
				}
				mu.Lock()
				paid = append(paid, res.Price)
				mu.Unlock()
			}
		}()
		wg.Wait()

		if len(paid) != rounds {
			t.Fatalf("expected %d buys, got %d", rounds, len(paid))
		}
		for _, p := range paid {
			if !prices[p] {
				t.Fatalf("paid %d, which was never a listed price", p)
			}
		}
		acc, _ := env.accounts.GetAccount(ctx, 1)
		var spent int64
		for _, p := range paid {
			spent += p
		}
		if acc.Wallet != 1_000_000-spent {
			t.Fatalf("wallet %d does not match spend %d", acc.Wallet, spent)
		}
	})
}
