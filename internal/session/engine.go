package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Foy7er/FinQuest/internal/model"
	"github.com/Foy7er/FinQuest/internal/pkg/lock"
	"github.com/Foy7er/FinQuest/internal/quiz"
	"github.com/Foy7er/FinQuest/internal/service"
)

// eventWait bounds how long an event queues behind the same user's
// previous one.
const eventWait = 20 * time.Second

// Engine routes inbound events through the per-user state machine.
//
// Events from one user run one at a time; different users run
// concurrently. Everything shared between users (accounts, prices,
// inventory) is protected below this layer by the services.
type Engine struct {
	// inflight has its own lock table; the services lock the same user ids
	// from inside an event.
	inflight    *lock.UserLock
	sessions    Store
	accounts    *service.AccountService
	economy     *service.EconomyService
	oracle      *quiz.Adapter
	savingsRate int
	now         func() time.Time
}

// NewEngine creates a session engine. savingsRate is the daily percentage
// shown in the bank menu.
func NewEngine(
	sessions Store,
	accounts *service.AccountService,
	economy *service.EconomyService,
	oracle *quiz.Adapter,
	savingsRate int,
) *Engine {
	return &Engine{
		inflight:    lock.NewUserLock(),
		sessions:    sessions,
		accounts:    accounts,
		economy:     economy,
		oracle:      oracle,
		savingsRate: savingsRate,
		now:         time.Now,
	}
}

// HandleInboundEvent is the single entry point for the transport layer. It
// returns the stage the user ends up in and the messages to send. The
// returned error is only set when the session itself could not be loaded or
// stored, or the user's previous event never finished; the messages are
// still meant to be sent.
func (e *Engine) HandleInboundEvent(ctx context.Context, userID int64, ev Event) (Stage, []Outbound, error) {
	var (
		stage Stage
		out   []Outbound
		err   error
	)
	lerr := e.inflight.WithLockContext(ctx, userID, eventWait, func() error {
		stage, out, err = e.handle(ctx, userID, ev)
		return nil
	})
	if lerr != nil {
		return StageIdle, []Outbound{{Text: msgBusy}}, fmt.Errorf("failed to wait for previous event: %w", lerr)
	}
	return stage, out, err
}

func (e *Engine) handle(ctx context.Context, userID int64, ev Event) (Stage, []Outbound, error) {
	sess, err := e.sessions.Get(ctx, userID)
	if errors.Is(err, ErrNoSession) {
		sess = &Session{UserID: userID, Stage: StageIdle}
	} else if err != nil {
		return StageIdle, []Outbound{{Text: msgGenericError}}, fmt.Errorf("failed to load session: %w", err)
	}

	from := sess.Stage
	out, err := e.dispatch(ctx, sess, ev)
	if err != nil {
		out = e.abort(ctx, sess, ev, err)
	}

	if err := e.persist(ctx, sess); err != nil {
		return sess.Stage, out, err
	}

	log.Debug().
		Int64("user_id", userID).
		Str("action", string(ev.Action)).
		Str("from", string(from)).
		Str("to", string(sess.Stage)).
		Msg("Session transition")
	return sess.Stage, out, nil
}

// persist stores in-flight sessions and forgets idle ones.
func (e *Engine) persist(ctx context.Context, sess *Session) error {
	if sess.Stage == StageIdle {
		if err := e.sessions.Delete(ctx, sess.UserID); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
		return nil
	}
	sess.UpdatedAt = e.now()
	if err := e.sessions.Save(ctx, sess); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// abort ends the flow after an unexpected error. A vanished account gets
// its own message; anything else is logged and reported generically.
func (e *Engine) abort(ctx context.Context, sess *Session, ev Event, err error) []Outbound {
	sess.reset(StageIdle)
	if errors.Is(err, service.ErrNotFound) {
		return []Outbound{{Text: msgLostAccount, Keyboard: removeKeyboard()}}
	}
	log.Error().
		Err(err).
		Int64("user_id", sess.UserID).
		Str("action", string(ev.Action)).
		Msg("Flow aborted")
	if ctx.Err() != nil {
		return []Outbound{{Text: msgGenericError}}
	}
	return []Outbound{{Text: msgGenericError, Keyboard: MainMenu()}}
}

func (e *Engine) dispatch(ctx context.Context, sess *Session, ev Event) ([]Outbound, error) {
	switch ev.Action {
	case ActionStart:
		return e.start(ctx, sess)
	case ActionCancel:
		return e.cancel(ctx, sess)
	case ActionMenu:
		return e.menu(ctx, sess)
	case ActionReset:
		return e.resetAccount(ctx, sess)
	case ActionEarn, ActionWallet, ActionBank, ActionMarket, ActionShop, ActionHero,
		ActionSellByName, ActionJournal:
		return e.mainMenuEntry(ctx, sess, ev)
	}

	if sess.Stage.registering() {
		return e.register(ctx, sess, ev)
	}
	if sess.Stage.inMarket() {
		return e.market(ctx, sess, ev)
	}
	switch sess.Stage {
	case StageEarnChoosingSubject:
		return e.chooseSubject(ctx, sess, ev)
	case StageEarnAwaitingAnswer:
		return e.answer(ctx, sess, ev)
	case StageBankChoosingAction:
		return e.bankAction(ctx, sess, ev)
	case StageBankAwaitingAmount:
		return e.bankAmount(ctx, sess, ev)
	case StageShopBrowsing:
		return e.shop(ctx, sess, ev)
	}
	return e.idle(ctx, sess, ev)
}

// registered returns the account, or nil if the user has none.
func (e *Engine) registered(ctx context.Context, userID int64) (*model.Account, error) {
	acc, err := e.accounts.GetAccount(ctx, userID)
	if errors.Is(err, service.ErrNotFound) {
		return nil, nil
	}
	return acc, err
}

func (e *Engine) start(ctx context.Context, sess *Session) ([]Outbound, error) {
	acc, err := e.registered(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if acc != nil {
		sess.reset(StageIdle)
		return []Outbound{{Text: fmt.Sprintf(msgWelcomeBack, acc.CharacterName, acc.Wallet), Keyboard: MainMenu()}}, nil
	}
	sess.reset(StageAwaitingName)
	return []Outbound{{Text: msgWelcome, Keyboard: removeKeyboard()}}, nil
}

func (e *Engine) cancel(ctx context.Context, sess *Session) ([]Outbound, error) {
	was := sess.Stage
	sess.reset(StageIdle)
	if was.registering() {
		return []Outbound{{Text: msgRegisterCancel, Keyboard: removeKeyboard()}}, nil
	}

	acc, err := e.registered(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return []Outbound{{Text: msgNeedStart}}, nil
	}
	text := msgCancelled
	if was == StageIdle {
		text = msgMainMenu
	}
	return []Outbound{{Text: text, Keyboard: MainMenu()}}, nil
}

func (e *Engine) menu(ctx context.Context, sess *Session) ([]Outbound, error) {
	sess.reset(StageIdle)
	acc, err := e.registered(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return []Outbound{{Text: msgNeedStart}}, nil
	}
	return []Outbound{{Text: msgMainMenu, Keyboard: MainMenu()}}, nil
}

func (e *Engine) resetAccount(ctx context.Context, sess *Session) ([]Outbound, error) {
	if err := e.accounts.Reset(ctx, sess.UserID); err != nil {
		return nil, err
	}
	sess.reset(StageIdle)
	return []Outbound{{Text: msgProfileReset, Keyboard: removeKeyboard()}}, nil
}

// mainMenuEntry starts a flow from the persistent menu or a top-level
// command, abandoning whatever flow was in progress.
func (e *Engine) mainMenuEntry(ctx context.Context, sess *Session, ev Event) ([]Outbound, error) {
	if sess.Stage.registering() {
		return []Outbound{{Text: msgFinishRegister}}, nil
	}
	acc, err := e.registered(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	sess.reset(StageIdle)
	if acc == nil {
		return []Outbound{{Text: msgNeedStart, Keyboard: removeKeyboard()}}, nil
	}

	switch ev.Action {
	case ActionWallet:
		return []Outbound{{Text: fmt.Sprintf(msgWallet, acc.Wallet, acc.Savings), Keyboard: MainMenu()}}, nil
	case ActionHero:
		return []Outbound{{
			Text:     fmt.Sprintf(msgHero, acc.CharacterName, acc.CharacterClass, acc.Level, acc.Age),
			Keyboard: MainMenu(),
		}}, nil
	case ActionEarn:
		return e.enterEarn(ctx, sess)
	case ActionBank:
		return e.enterBank(sess, acc), nil
	case ActionMarket:
		return e.enterMarket(sess), nil
	case ActionSellByName:
		return e.sellByName(ctx, sess, ev.Text)
	case ActionJournal:
		return e.journal(ctx, sess)
	default:
		return e.enterShop(ctx, sess, acc)
	}
}

func (e *Engine) idle(ctx context.Context, sess *Session, ev Event) ([]Outbound, error) {
	acc, err := e.registered(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return []Outbound{{Text: msgNeedStart}}, nil
	}
	if ev.Action == ActionText {
		return []Outbound{{Text: msgUseMenu, Keyboard: MainMenu()}}, nil
	}
	return []Outbound{{Text: msgStaleButton, Keyboard: MainMenu()}}, nil
}
