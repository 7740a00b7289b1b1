package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/Foy7er/FinQuest/internal/model"
	"github.com/Foy7er/FinQuest/internal/service"
)

func (e *Engine) enterMarket(sess *Session) []Outbound {
	sess.reset(StageMarketChoosingAction)
	return []Outbound{{Text: msgMarketMenu, Keyboard: marketMenu(), Markdown: true}}
}

// market handles the four sibling market views. Opening the buy list is
// what moves prices; buys and sells settle and re-render against the
// current table.
func (e *Engine) market(ctx context.Context, sess *Session, ev Event) ([]Outbound, error) {
	switch ev.Action {
	case ActionMarketMenu:
		return e.enterMarket(sess), nil
	case ActionMarketBuyList:
		return e.buyList(ctx, sess, true)
	case ActionMarketSellList:
		return e.sellList(ctx, sess)
	case ActionMarketInventory:
		return e.inventory(ctx, sess)
	case ActionBuy:
		return e.buy(ctx, sess, ev.Arg)
	case ActionSell:
		return e.sell(ctx, sess, ev.Arg)
	}
	return []Outbound{{Text: msgMarketChoose}}, nil
}

func (e *Engine) buyList(ctx context.Context, sess *Session, refresh bool) ([]Outbound, error) {
	engine := e.economy.Market()
	refreshOrRead := engine.Items
	if refresh {
		refreshOrRead = engine.Refresh
	}
	current, err := refreshOrRead(ctx)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString(msgMarketBuyHeader)
	for _, it := range current {
		fmt.Fprintf(&b, msgMarketBuyItem, it.Name, it.Price, it.Description)
	}

	sess.Stage = StageMarketBuyList
	return []Outbound{{Text: b.String(), Keyboard: buyMenu(current), Markdown: true}}, nil
}

func (e *Engine) sellList(ctx context.Context, sess *Session) ([]Outbound, error) {
	inv, err := e.accounts.Inventory(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	sess.Stage = StageMarketSellList
	if len(inv) == 0 {
		return []Outbound{{Text: msgMarketSellEmpty, Keyboard: backToMarket()}}, nil
	}

	engine := e.economy.Market()
	lines := make([]sellLine, 0, len(inv))
	var b strings.Builder
	b.WriteString(msgMarketSellHead)
	for _, entry := range inv {
		quote, err := engine.SellQuoteFor(ctx, entry.Item.ID)
		if err != nil {
			return nil, err
		}
		lines = append(lines, sellLine{item: entry.Item, quote: quote})
		fmt.Fprintf(&b, msgMarketSellItem, entry.Item.Name, entry.Quantity, quote)
	}
	return []Outbound{{Text: b.String(), Keyboard: sellMenu(lines), Markdown: true}}, nil
}

func (e *Engine) inventory(ctx context.Context, sess *Session) ([]Outbound, error) {
	inv, err := e.accounts.Inventory(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	sess.Stage = StageMarketInventory

	var b strings.Builder
	b.WriteString(msgInventoryHeader)
	if len(inv) == 0 {
		b.WriteString(msgInventoryEmpty)
	}
	for _, entry := range inv {
		fmt.Fprintf(&b, msgInventoryItem, entry.Item.Name, entry.Quantity)
	}
	return []Outbound{{Text: b.String(), Keyboard: backToMarket(), Markdown: true}}, nil
}

func (e *Engine) buy(ctx context.Context, sess *Session, arg string) ([]Outbound, error) {
	itemID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return []Outbound{{Text: msgItemUnknown}}, nil
	}

	var result string
	res, err := e.economy.BuyItem(ctx, sess.UserID, itemID)
	var ife *service.InsufficientFundsError
	switch {
	case errors.As(err, &ife):
		result = fmt.Sprintf(msgNoCoins, ife.Need, ife.Have, ife.Shortfall())
	case errors.Is(err, service.ErrItemNotFound):
		result = msgItemUnknown
	case err != nil:
		return nil, err
	default:
		result = fmt.Sprintf(msgBought, res.Item.Name, res.Price)
	}

	list, err := e.buyList(ctx, sess, false)
	if err != nil {
		return nil, err
	}
	return append([]Outbound{{Text: result}}, list...), nil
}

func (e *Engine) sell(ctx context.Context, sess *Session, name string) ([]Outbound, error) {
	var result string
	res, err := e.economy.SellItem(ctx, sess.UserID, name)
	switch {
	case errors.Is(err, service.ErrItemNotOwned):
		result = msgNotOwned
	case errors.Is(err, service.ErrItemNotFound):
		result = msgItemUnknown
	case err != nil:
		return nil, err
	default:
		result = fmt.Sprintf(msgSold, res.Item.Name, res.Price)
	}

	list, err := e.sellList(ctx, sess)
	if err != nil {
		return nil, err
	}
	return append([]Outbound{{Text: result}}, list...), nil
}

// inventorySource lets fuzzy search over item names.
type inventorySource []model.InventoryItem

func (s inventorySource) String(i int) string { return s[i].Item.Name }
func (s inventorySource) Len() int            { return len(s) }

// sellByName sells the owned item whose name best matches query, then
// leaves the user on the sell list.
func (e *Engine) sellByName(ctx context.Context, sess *Session, query string) ([]Outbound, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Outbound{{Text: msgSellUsage, Keyboard: MainMenu()}}, nil
	}

	inv, err := e.accounts.Inventory(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	matches := fuzzy.FindFrom(query, inventorySource(inv))
	if len(matches) == 0 {
		return []Outbound{{Text: fmt.Sprintf(msgSellNoMatch, query), Keyboard: MainMenu()}}, nil
	}

	sess.Stage = StageMarketSellList
	return e.sell(ctx, sess, inv[matches[0].Index].Item.Name)
}
