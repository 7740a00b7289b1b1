// Package market maintains current item prices and produces buy and sell
// quotes.
package market

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/Foy7er/FinQuest/internal/model"
	"github.com/Foy7er/FinQuest/internal/repository"
)

// Config holds pricing parameters.
type Config struct {
	// Fluctuation is the half-width of the multiplier range, so 0.1 draws
	// from [0.9, 1.1].
	Fluctuation float64
	// SellRatio is the share of the current price paid to sellers.
	SellRatio float64
	// PriceBand, when positive, clamps prices to ±PriceBand around the
	// reference price. Zero leaves the walk unbounded.
	PriceBand float64
}

// DefaultConfig returns the stock pricing parameters.
func DefaultConfig() Config {
	return Config{Fluctuation: 0.1, SellRatio: 0.8}
}

// Engine owns the price table. Refresh takes the write side of mu, trade
// settlement takes the read side, so no trade settles against a price that
// a refresh is halfway through rewriting.
type Engine struct {
	store repository.Store
	cfg   Config
	ratio decimal.Decimal

	mu sync.RWMutex

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewEngine creates a pricing engine. A nil rng is seeded from the clock.
func NewEngine(store repository.Store, cfg Config, rng *rand.Rand) *Engine {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return &Engine{
		store: store,
		cfg:   cfg,
		ratio: decimal.NewFromFloat(cfg.SellRatio),
		rng:   rng,
	}
}

func (e *Engine) multiplier() float64 {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return 1 - e.cfg.Fluctuation + e.rng.Float64()*2*e.cfg.Fluctuation
}

// NextPrice applies multiplier m to the current price, clamps to the band
// if one is configured and never returns less than 1.
func (e *Engine) NextPrice(item model.MarketItem, m float64) int64 {
	next := decimal.NewFromInt(item.Price).Mul(decimal.NewFromFloat(m)).Floor()

	if e.cfg.PriceBand > 0 && item.ReferencePrice > 0 {
		ref := decimal.NewFromInt(item.ReferencePrice)
		band := decimal.NewFromFloat(e.cfg.PriceBand)
		lo := ref.Mul(decimal.NewFromInt(1).Sub(band)).Ceil()
		hi := ref.Mul(decimal.NewFromInt(1).Add(band)).Floor()
		if next.LessThan(lo) {
			next = lo
		}
		if next.GreaterThan(hi) {
			next = hi
		}
	}

	price := next.IntPart()
	if price < 1 {
		price = 1
	}
	return price
}

// Refresh redraws every item's price from its current price and persists
// the whole table in one transaction.
func (e *Engine) Refresh(ctx context.Context) ([]model.MarketItem, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var items []model.MarketItem
	err := e.store.WithTx(ctx, func(tx repository.Store) error {
		current, err := tx.ListMarketItems(ctx)
		if err != nil {
			return err
		}
		for i := range current {
			price := e.NextPrice(current[i], e.multiplier())
			if err := tx.SetMarketPrice(ctx, current[i].ID, price); err != nil {
				return err
			}
			current[i].Price = price
		}
		items = current
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to refresh prices: %w", err)
	}

	log.Debug().Int("items", len(items)).Msg("Market prices refreshed")
	return items, nil
}

// Items returns the catalog at current prices without refreshing.
func (e *Engine) Items(ctx context.Context) ([]model.MarketItem, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.ListMarketItems(ctx)
}

// SellQuote is floor(price × SellRatio).
func (e *Engine) SellQuote(price int64) int64 {
	return decimal.NewFromInt(price).Mul(e.ratio).Floor().IntPart()
}

// SellQuoteFor returns the sell quote for an item at its current price.
func (e *Engine) SellQuoteFor(ctx context.Context, itemID int64) (int64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	item, err := e.store.GetMarketItem(ctx, itemID)
	if err != nil {
		return 0, err
	}
	return e.SellQuote(item.Price), nil
}

// Settle runs fn while no refresh can change prices.
func (e *Engine) Settle(fn func() error) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return fn()
}
