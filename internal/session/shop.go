package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Foy7er/FinQuest/internal/model"
	"github.com/Foy7er/FinQuest/internal/service"
)

func (e *Engine) enterShop(ctx context.Context, sess *Session, acc *model.Account) ([]Outbound, error) {
	entries, err := e.economy.ShopEntries(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	sess.Stage = StageShopBrowsing

	var b strings.Builder
	fmt.Fprintf(&b, msgShopHeader, acc.Wallet)
	for _, entry := range entries {
		fmt.Fprintf(&b, msgShopItem, entry.Category.Title, entry.Category.Description)
	}
	return []Outbound{{Text: b.String(), Keyboard: shopMenu(entries), Markdown: true}}, nil
}

// shop keeps the user in ShopBrowsing whatever the purchase outcome; only
// back or cancel leave it.
func (e *Engine) shop(ctx context.Context, sess *Session, ev Event) ([]Outbound, error) {
	switch ev.Action {
	case ActionShopOwned:
		return []Outbound{{Text: msgShopOwned}}, nil
	case ActionShopBuy:
	default:
		return []Outbound{{Text: msgShopChoose}}, nil
	}

	res, err := e.economy.PurchaseCategory(ctx, sess.UserID, ev.Arg)
	var ife *service.InsufficientFundsError
	switch {
	case errors.As(err, &ife):
		return []Outbound{{Text: fmt.Sprintf(msgShopNoCoins, ife.Have, ife.Need, ife.Shortfall())}}, nil
	case errors.Is(err, service.ErrAlreadyPurchased):
		return []Outbound{{Text: msgShopOwned}}, nil
	case errors.Is(err, service.ErrUnknownCategory):
		return []Outbound{{Text: msgShopUnknown}}, nil
	case err != nil:
		return nil, err
	}

	out := []Outbound{{Text: fmt.Sprintf(msgShopBought, res.Category.Title, res.Category.Multiplier)}}
	panel, err := e.enterShop(ctx, sess, res.Account)
	if err != nil {
		return nil, err
	}
	return append(out, panel...), nil
}
