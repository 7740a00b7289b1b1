package service

import (
	"context"
	"math/rand/v2"

	"github.com/Foy7er/FinQuest/internal/market"
	"github.com/Foy7er/FinQuest/internal/model"
	"github.com/Foy7er/FinQuest/internal/pkg/lock"
	"github.com/Foy7er/FinQuest/internal/quiz"
	"github.com/Foy7er/FinQuest/internal/repository/memory"
)

type testEnv struct {
	store    *memory.Store
	engine   *market.Engine
	accounts *AccountService
	economy  *EconomyService
}

// newTestEnv wires the services over a seeded in-memory store.
func newTestEnv(cascadePurchases bool) *testEnv {
	store := memory.New()
	if err := store.SeedMarket(context.Background(), model.DefaultMarketItems()); err != nil {
		panic(err)
	}
	userLock := lock.NewUserLock()
	engine := market.NewEngine(store, market.DefaultConfig(), rand.New(rand.NewPCG(7, 11)))
	return &testEnv{
		store:    store,
		engine:   engine,
		accounts: NewAccountService(store, userLock, cascadePurchases),
		economy:  NewEconomyService(store, engine, quiz.DefaultCatalog(), userLock),
	}
}

// register creates an account and funds its wallet.
func (e *testEnv) register(id int64, wallet int64) (*model.Account, error) {
	ctx := context.Background()
	acc, err := e.accounts.Register(ctx, model.NewAccount{
		TelegramID:     id,
		Username:       "tester",
		CharacterName:  "Nova",
		CharacterClass: model.ClassMage,
		Age:            11,
	})
	if err != nil {
		return nil, err
	}
	if wallet > 0 {
		return e.accounts.AdminCredit(ctx, id, wallet)
	}
	return acc, nil
}

// itemByName returns a seeded market item.
func (e *testEnv) itemByName(name string) model.MarketItem {
	item, err := e.store.GetMarketItemByName(context.Background(), name)
	if err != nil {
		panic(err)
	}
	return *item
}
