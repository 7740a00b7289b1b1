package session

import (
	"fmt"
	"strconv"

	"github.com/Foy7er/FinQuest/internal/model"
	"github.com/Foy7er/FinQuest/internal/quiz"
	"github.com/Foy7er/FinQuest/internal/service"
)

// Main menu labels.
const (
	LabelEarn   = "💰 Фин-Заработок"
	LabelWallet = "👛 Кошелек"
	LabelBank   = "🏦 Сбережения"
	LabelMarket = "📈 Биржа"
	LabelShop   = "🛒 Магазин"
	LabelHero   = "👤 Герой"
)

const (
	labelBack       = "🔙 Назад"
	labelCancel     = "🔙 Отмена"
	labelBackMarket = "🔙 Назад к Бирже"
)

// quickAmounts are the preset bank transfer buttons.
var quickAmounts = []int64{10, 20, 30}

// MainMenu is the persistent reply keyboard shown to registered players.
func MainMenu() *Keyboard {
	return &Keyboard{
		Kind: KeyboardReply,
		Rows: [][]Button{
			{{Label: LabelEarn, Action: ActionEarn}, {Label: LabelWallet, Action: ActionWallet}},
			{{Label: LabelBank, Action: ActionBank}, {Label: LabelMarket, Action: ActionMarket}},
			{{Label: LabelShop, Action: ActionShop}, {Label: LabelHero, Action: ActionHero}},
		},
	}
}

// ReplyLabels maps every reply-keyboard label the engine can show to its
// action, for the transport to translate incoming text.
func ReplyLabels() map[string]Button {
	labels := make(map[string]Button)
	for _, kb := range []*Keyboard{MainMenu(), classMenu()} {
		for _, row := range kb.Rows {
			for _, b := range row {
				labels[b.Label] = b
			}
		}
	}
	return labels
}

func removeKeyboard() *Keyboard {
	return &Keyboard{Kind: KeyboardRemove}
}

func classMenu() *Keyboard {
	var row []Button
	for _, c := range model.CharacterClasses() {
		row = append(row, Button{Label: string(c), Action: ActionChooseClass, Arg: string(c)})
	}
	return &Keyboard{Kind: KeyboardReply, Rows: [][]Button{row}}
}

func inline(rows ...[]Button) *Keyboard {
	return &Keyboard{Kind: KeyboardInline, Rows: rows}
}

func subjectMenu(subjects []quiz.Category) *Keyboard {
	var rows [][]Button
	for _, s := range subjects {
		rows = append(rows, []Button{{Label: s.Title, Action: ActionChooseSubject, Arg: s.ID}})
	}
	rows = append(rows, []Button{{Label: labelCancel, Action: ActionCancel}})
	return inline(rows...)
}

func cancelMenu() *Keyboard {
	return inline([]Button{{Label: labelCancel, Action: ActionCancel}})
}

func bankMenu() *Keyboard {
	return inline(
		[]Button{{Label: "📥 Положить", Action: ActionBankDeposit}, {Label: "📤 Снять", Action: ActionBankWithdraw}},
		[]Button{{Label: labelBack, Action: ActionMenu}},
	)
}

func amountMenu(source int64) *Keyboard {
	var quick []Button
	for _, a := range quickAmounts {
		s := strconv.FormatInt(a, 10)
		quick = append(quick, Button{Label: s, Action: ActionText, Arg: s})
	}
	return inline(
		quick,
		[]Button{{Label: fmt.Sprintf("💰 Все (%d)", source), Action: ActionBankAll}},
		[]Button{{Label: labelCancel, Action: ActionCancel}},
	)
}

func marketMenu() *Keyboard {
	return inline(
		[]Button{{Label: "💰 Купить", Action: ActionMarketBuyList}, {Label: "💸 Продать", Action: ActionMarketSellList}},
		[]Button{{Label: "🎒 Мой Инвентарь", Action: ActionMarketInventory}},
		[]Button{{Label: labelBack, Action: ActionMenu}},
	)
}

func buyMenu(items []model.MarketItem) *Keyboard {
	var rows [][]Button
	for _, it := range items {
		rows = append(rows, []Button{{
			Label:  fmt.Sprintf("Купить %s (%d 💰)", it.Name, it.Price),
			Action: ActionBuy,
			Arg:    strconv.FormatInt(it.ID, 10),
		}})
	}
	rows = append(rows, []Button{{Label: labelBackMarket, Action: ActionMarketMenu}})
	return inline(rows...)
}

type sellLine struct {
	item  model.MarketItem
	quote int64
}

func sellMenu(lines []sellLine) *Keyboard {
	var rows [][]Button
	for _, l := range lines {
		rows = append(rows, []Button{{
			Label:  fmt.Sprintf("Продать %s (%d 💰)", l.item.Name, l.quote),
			Action: ActionSell,
			Arg:    l.item.Name,
		}})
	}
	rows = append(rows, []Button{{Label: labelBackMarket, Action: ActionMarketMenu}})
	return inline(rows...)
}

func backToMarket() *Keyboard {
	return inline([]Button{{Label: labelBackMarket, Action: ActionMarketMenu}})
}

func shopMenu(entries []service.ShopEntry) *Keyboard {
	var rows [][]Button
	for _, e := range entries {
		if e.Owned {
			rows = append(rows, []Button{{
				Label:  e.Category.Title + " ✅ Куплено",
				Action: ActionShopOwned,
				Arg:    e.Category.ID,
			}})
			continue
		}
		rows = append(rows, []Button{{
			Label:  fmt.Sprintf("%s - 💰 %d монет", e.Category.Title, e.Category.Price),
			Action: ActionShopBuy,
			Arg:    e.Category.ID,
		}})
	}
	rows = append(rows, []Button{{Label: labelBack, Action: ActionMenu}})
	return inline(rows...)
}
