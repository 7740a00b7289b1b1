package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Foy7er/FinQuest/internal/model"
)

// TestRegistrationScenario registers a fresh player and checks the
// starting state of the account.
func TestRegistrationScenario(t *testing.T) {
	env := newTestEnv(true)
	ctx := context.Background()

	acc, err := env.accounts.Register(ctx, model.NewAccount{
		TelegramID:     42,
		Username:       "nova_kid",
		CharacterName:  "  Nova ",
		CharacterClass: model.ClassMage,
		Age:            11,
	})
	require.NoError(t, err)
	assert.Equal(t, "Nova", acc.CharacterName)
	assert.Equal(t, model.ClassMage, acc.CharacterClass)
	assert.Equal(t, int64(0), acc.Wallet)
	assert.Equal(t, int64(0), acc.Savings)
	assert.Equal(t, 1, acc.Level)
	assert.Equal(t, 11, acc.Age)
	assert.Nil(t, acc.SavingsSince)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(true)
	ctx := context.Background()
	base := model.NewAccount{TelegramID: 1, CharacterName: "Nova", CharacterClass: model.ClassWarrior, Age: 10}

	bad := []model.NewAccount{base, base, base, base, base}
	bad[0].CharacterName = "   "
	bad[1].CharacterName = strings.Repeat("я", MaxNameLength+1)
	bad[2].CharacterClass = "Бард"
	bad[3].Age = model.MinAge - 1
	bad[4].Age = model.MaxAge + 1

	for _, acc := range bad {
		_, err := env.accounts.Register(ctx, acc)
		assert.ErrorIs(t, err, ErrInvalidAccount)
	}

	exists, err := env.accounts.Exists(ctx, 1)
	require.NoError(t, err)
	assert.False(t, exists)
}

// TestRegistrationUniquenessProperty checks that registering an existing id
// never changes the stored account.
func TestRegistrationUniquenessProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		env := newTestEnv(true)
		ctx := context.Background()
		id := rapid.Int64Range(1, 1<<40).Draw(t, "id")
		wallet := rapid.Int64Range(0, 10000).Draw(t, "wallet")

		before, err := env.register(id, wallet)
		if err != nil {
			t.Fatalf("register: %v", err)
		}

		_, err = env.accounts.Register(ctx, model.NewAccount{
			TelegramID:     id,
			CharacterName:  rapid.StringMatching(`[A-Za-z]{1,12}`).Draw(t, "name"),
			CharacterClass: rapid.SampledFrom(model.CharacterClasses()).Draw(t, "class"),
			Age:            rapid.IntRange(model.MinAge, model.MaxAge).Draw(t, "age"),
		})
		if !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}

		after, err := env.accounts.GetAccount(ctx, id)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if after.CharacterName != before.CharacterName || after.CharacterClass != before.CharacterClass ||
			after.Age != before.Age || after.Wallet != before.Wallet || after.Savings != before.Savings {
			t.Fatalf("account changed: before=%+v after=%+v", before, after)
		}
	})
}

// TestResetScenario resets a player with inventory and a premium unlock.
func TestResetScenario(t *testing.T) {
	for _, cascade := range []bool{true, false} {
		env := newTestEnv(cascade)
		ctx := context.Background()

		_, err := env.register(7, 1000)
		require.NoError(t, err)
		_, err = env.economy.BuyItem(ctx, 7, env.itemByName("Rare Card").ID)
		require.NoError(t, err)
		_, err = env.economy.PurchaseCategory(ctx, 7, "capitals")
		require.NoError(t, err)

		require.NoError(t, env.accounts.Reset(ctx, 7))

		_, err = env.accounts.GetAccount(ctx, 7)
		assert.ErrorIs(t, err, ErrNotFound)
		inv, err := env.accounts.Inventory(ctx, 7)
		require.NoError(t, err)
		assert.Empty(t, inv)

		purchases, err := env.accounts.Purchases(ctx, 7)
		require.NoError(t, err)
		if cascade {
			assert.Empty(t, purchases)
		} else {
			assert.Equal(t, []string{"capitals"}, purchases)
		}

		// Reset is idempotent.
		require.NoError(t, env.accounts.Reset(ctx, 7))
	}
}

func TestAdminCredit(t *testing.T) {
	env := newTestEnv(true)
	ctx := context.Background()

	_, err := env.accounts.AdminCredit(ctx, 99, 10)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.register(99, 0)
	require.NoError(t, err)
	_, err = env.accounts.AdminCredit(ctx, 99, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	acc, err := env.accounts.AdminCredit(ctx, 99, 250)
	require.NoError(t, err)
	assert.Equal(t, int64(250), acc.Wallet)

	journal, err := env.accounts.Journal(ctx, 99, 5)
	require.NoError(t, err)
	require.Len(t, journal, 1)
	assert.Equal(t, model.TxTypeAdminAdd, journal[0].Type)
	assert.Equal(t, int64(250), journal[0].Amount)
}
