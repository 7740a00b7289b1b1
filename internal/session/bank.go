package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Foy7er/FinQuest/internal/model"
	"github.com/Foy7er/FinQuest/internal/service"
)

// allTokens are typed answers meaning "the whole balance".
var allTokens = map[string]bool{"все": true, "всё": true, "all": true}

func (e *Engine) enterBank(sess *Session, acc *model.Account) []Outbound {
	sess.reset(StageBankChoosingAction)
	return []Outbound{{
		Text:     fmt.Sprintf(msgBankMenu, acc.Wallet, acc.Savings, e.savingsRate),
		Keyboard: bankMenu(),
		Markdown: true,
	}}
}

func (e *Engine) bankAction(ctx context.Context, sess *Session, ev Event) ([]Outbound, error) {
	acc, err := e.accounts.GetAccount(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}

	switch ev.Action {
	case ActionBankDeposit:
		sess.Direction = service.ToSavings
	case ActionBankWithdraw:
		sess.Direction = service.ToWallet
	default:
		return e.enterBank(sess, acc), nil
	}
	sess.Stage = StageBankAwaitingAmount
	return []Outbound{amountPrompt(sess.Direction, acc)}, nil
}

func sourceBalance(dir service.Direction, acc *model.Account) int64 {
	if dir == service.ToWallet {
		return acc.Savings
	}
	return acc.Wallet
}

func amountPrompt(dir service.Direction, acc *model.Account) Outbound {
	src := sourceBalance(dir, acc)
	text := fmt.Sprintf(msgBankAskDeposit, src)
	if dir == service.ToWallet {
		text = fmt.Sprintf(msgBankAskWithdraw, src)
	}
	return Outbound{Text: text, Keyboard: amountMenu(src)}
}

// bankAmount accepts a positive integer or the "all" token. Anything else,
// a shortfall included, leaves the user in BankAwaitingAmount.
func (e *Engine) bankAmount(ctx context.Context, sess *Session, ev Event) ([]Outbound, error) {
	text := strings.TrimSpace(ev.Text)
	if ev.Action == ActionText && ev.Arg != "" && text == "" {
		text = ev.Arg
	}

	var (
		res *service.TransferResult
		err error
	)
	switch {
	case ev.Action == ActionBankAll, ev.Action == ActionText && allTokens[strings.ToLower(text)]:
		res, err = e.economy.TransferAll(ctx, sess.UserID, sess.Direction)
	case ev.Action == ActionText:
		amount, perr := strconv.ParseInt(text, 10, 64)
		if perr != nil || amount <= 0 {
			return e.bankRetry(ctx, sess, msgBankInvalid)
		}
		res, err = e.economy.Transfer(ctx, sess.UserID, sess.Direction, amount)
	default:
		return e.bankRetry(ctx, sess, msgBankInvalid)
	}

	var ife *service.InsufficientFundsError
	switch {
	case errors.As(err, &ife):
		format := msgBankNoWallet
		if sess.Direction == service.ToWallet {
			format = msgBankNoSavings
		}
		return []Outbound{{Text: fmt.Sprintf(format, ife.Have, ife.Need, ife.Shortfall()), Keyboard: amountMenu(ife.Have)}}, nil
	case errors.Is(err, service.ErrInvalidAmount):
		return e.bankRetry(ctx, sess, msgBankEmpty)
	case err != nil:
		return nil, err
	}

	done := fmt.Sprintf(msgDeposited, res.Amount)
	if sess.Direction == service.ToWallet {
		done = fmt.Sprintf(msgWithdrawn, res.Amount)
	}
	sess.reset(StageIdle)
	return []Outbound{{Text: done, Keyboard: MainMenu()}}, nil
}

func (e *Engine) bankRetry(ctx context.Context, sess *Session, text string) ([]Outbound, error) {
	acc, err := e.accounts.GetAccount(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	return []Outbound{{Text: text, Keyboard: amountMenu(sourceBalance(sess.Direction, acc))}}, nil
}
