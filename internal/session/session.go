// Package session implements the per-user conversation state machine that
// sits between the Telegram transport and the economy services.
package session

import (
	"time"

	"github.com/Foy7er/FinQuest/internal/model"
	"github.com/Foy7er/FinQuest/internal/quiz"
	"github.com/Foy7er/FinQuest/internal/service"
)

// Stage is the current step of a user's conversation.
type Stage string

const (
	StageIdle                 Stage = "idle"
	StageAwaitingName         Stage = "awaiting_name"
	StageAwaitingClass        Stage = "awaiting_class"
	StageAwaitingAge          Stage = "awaiting_age"
	StageRegistered           Stage = "registered"
	StageEarnChoosingSubject  Stage = "earn_choosing_subject"
	StageEarnAwaitingAnswer   Stage = "earn_awaiting_answer"
	StageBankChoosingAction   Stage = "bank_choosing_action"
	StageBankAwaitingAmount   Stage = "bank_awaiting_amount"
	StageMarketChoosingAction Stage = "market_choosing_action"
	StageMarketBuyList        Stage = "market_buy_list"
	StageMarketSellList       Stage = "market_sell_list"
	StageMarketInventory      Stage = "market_inventory"
	StageShopBrowsing         Stage = "shop_browsing"
)

// registering reports whether s is part of the registration flow.
func (s Stage) registering() bool {
	return s == StageAwaitingName || s == StageAwaitingClass || s == StageAwaitingAge
}

// inMarket reports whether s is one of the sibling market views.
func (s Stage) inMarket() bool {
	switch s {
	case StageMarketChoosingAction, StageMarketBuyList, StageMarketSellList, StageMarketInventory:
		return true
	}
	return false
}

// Action is what the user asked for, already translated from commands,
// button labels and callback data by the transport layer.
type Action string

const (
	ActionStart           Action = "start"
	ActionCancel          Action = "cancel"
	ActionReset           Action = "reset"
	ActionMenu            Action = "menu"
	ActionText            Action = "text"
	ActionEarn            Action = "earn"
	ActionWallet          Action = "wallet"
	ActionBank            Action = "bank"
	ActionMarket          Action = "market"
	ActionShop            Action = "shop"
	ActionHero            Action = "hero"
	ActionChooseClass     Action = "class"
	ActionChooseSubject   Action = "subject"
	ActionBankDeposit     Action = "bank_deposit"
	ActionBankWithdraw    Action = "bank_withdraw"
	ActionBankAll         Action = "bank_all"
	ActionMarketBuyList   Action = "market_buy_list"
	ActionMarketSellList  Action = "market_sell_list"
	ActionMarketInventory Action = "market_inventory"
	ActionMarketMenu      Action = "market_menu"
	ActionBuy             Action = "buy"
	ActionSell            Action = "sell"
	ActionShopBuy         Action = "shop_buy"
	ActionShopOwned       Action = "shop_owned"
	ActionSellByName      Action = "sell_by_name"
	ActionJournal         Action = "journal"
)

// Event is one inbound message or button press.
type Event struct {
	Action Action
	// Arg is the action argument: class, subject id, item id or name,
	// category id.
	Arg string
	// Text is the raw message text for ActionText.
	Text string
	// Username is the sender's Telegram handle, stored at registration.
	Username string
}

// KeyboardKind selects how the transport renders a keyboard.
type KeyboardKind int

const (
	// KeyboardInline is attached to the message; buttons send callbacks.
	KeyboardInline KeyboardKind = iota
	// KeyboardReply replaces the input keyboard; buttons send their label.
	KeyboardReply
	// KeyboardRemove hides a reply keyboard.
	KeyboardRemove
)

// Button is a keyboard button bound to an action.
type Button struct {
	Label  string
	Action Action
	Arg    string
}

// Keyboard is a grid of buttons.
type Keyboard struct {
	Kind KeyboardKind
	Rows [][]Button
}

// Outbound is one message to send back.
type Outbound struct {
	Text     string
	Keyboard *Keyboard
	// Markdown enables Telegram Markdown parsing for Text.
	Markdown bool
}

// Session is a user's in-flight conversation. Idle users have no stored
// session.
type Session struct {
	UserID int64 `json:"user_id"`
	Stage  Stage `json:"stage"`

	// Registration scratch.
	Name  string               `json:"name,omitempty"`
	Class model.CharacterClass `json:"class,omitempty"`

	// Earn scratch.
	Question *quiz.Question `json:"question,omitempty"`
	Reward   int64          `json:"reward,omitempty"`

	// Bank scratch.
	Direction service.Direction `json:"direction,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// reset drops all scratch data and moves to stage.
func (s *Session) reset(stage Stage) {
	*s = Session{UserID: s.UserID, Stage: stage}
}
