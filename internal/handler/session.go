// Package handler adapts Telegram updates to session events and renders the
// engine's replies back to Telegram.
package handler

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"github.com/Foy7er/FinQuest/internal/session"
)

// ContextKey is where middleware stores the per-update context.
const ContextKey = "ctx"

// handleTimeout bounds one update, oracle calls included.
const handleTimeout = 30 * time.Second

// Context returns the context attached to c by middleware, or a background
// context carrying the global logger.
func Context(c tele.Context) context.Context {
	if ctx, ok := c.Get(ContextKey).(context.Context); ok {
		return ctx
	}
	return log.Logger.WithContext(context.Background())
}

// SessionHandler feeds player input to the session engine.
type SessionHandler struct {
	engine *session.Engine
	labels map[string]session.Button
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(engine *session.Engine) *SessionHandler {
	return &SessionHandler{
		engine: engine,
		labels: session.ReplyLabels(),
	}
}

// HandleCommand returns a handler that sends action for a slash command.
func (h *SessionHandler) HandleCommand(action session.Action) tele.HandlerFunc {
	return func(c tele.Context) error {
		return h.dispatch(c, session.Event{Action: action})
	}
}

// HandleSell handles /sell <name>.
func (h *SessionHandler) HandleSell(c tele.Context) error {
	return h.dispatch(c, session.Event{Action: session.ActionSellByName, Text: c.Message().Payload})
}

// HandleText handles plain messages, including reply keyboard presses.
func (h *SessionHandler) HandleText(c tele.Context) error {
	return h.dispatch(c, EventFromText(c.Text(), h.labels))
}

// HandleCallback handles inline button presses.
func (h *SessionHandler) HandleCallback(c tele.Context) error {
	cb := c.Callback()
	if cb == nil {
		return nil
	}
	// Stop the client spinner whatever happens next.
	if err := c.Respond(); err != nil {
		zerolog.Ctx(Context(c)).Debug().Err(err).Msg("Failed to answer callback")
	}

	action, arg := DecodeCallback(cb.Data)
	if action == "" {
		return nil
	}
	return h.dispatch(c, session.Event{Action: action, Arg: arg})
}

func (h *SessionHandler) dispatch(c tele.Context, ev session.Event) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	ev.Username = sender.Username

	ctx, cancel := context.WithTimeout(Context(c), handleTimeout)
	defer cancel()

	stage, out, err := h.engine.HandleInboundEvent(ctx, sender.ID, ev)
	if err != nil {
		zerolog.Ctx(ctx).Error().
			Err(err).
			Int64("user_id", sender.ID).
			Str("action", string(ev.Action)).
			Msg("Session store failed")
	}
	zerolog.Ctx(ctx).Debug().
		Int64("user_id", sender.ID).
		Str("stage", string(stage)).
		Int("replies", len(out)).
		Msg("Event handled")

	for _, o := range out {
		if err := c.Send(o.Text, Render(o)); err != nil {
			return err
		}
	}
	return nil
}

// EventFromText turns message text into an event. Reply keyboard labels map
// to their button's action; anything else is free text.
func EventFromText(text string, labels map[string]session.Button) session.Event {
	if b, ok := labels[strings.TrimSpace(text)]; ok {
		return session.Event{Action: b.Action, Arg: b.Arg, Text: text}
	}
	return session.Event{Action: session.ActionText, Text: text}
}

// EncodeCallback packs an action and its argument as "action:arg".
func EncodeCallback(action session.Action, arg string) string {
	if arg == "" {
		return string(action)
	}
	return string(action) + ":" + arg
}

// DecodeCallback reverses EncodeCallback. Telebot prefixes data built with
// ReplyMarkup.Data with \f; it is dropped here.
func DecodeCallback(data string) (session.Action, string) {
	data = strings.TrimPrefix(data, "\f")
	action, arg, _ := strings.Cut(data, ":")
	return session.Action(action), arg
}

// Render builds send options for an outbound message.
func Render(out session.Outbound) *tele.SendOptions {
	opts := &tele.SendOptions{}
	if out.Markdown {
		opts.ParseMode = tele.ModeMarkdown
	}

	kb := out.Keyboard
	if kb == nil {
		return opts
	}

	markup := &tele.ReplyMarkup{}
	switch kb.Kind {
	case session.KeyboardRemove:
		markup.RemoveKeyboard = true

	case session.KeyboardReply:
		markup.ResizeKeyboard = true
		rows := make([]tele.Row, 0, len(kb.Rows))
		for _, r := range kb.Rows {
			btns := make([]tele.Btn, 0, len(r))
			for _, b := range r {
				btns = append(btns, markup.Text(b.Label))
			}
			rows = append(rows, markup.Row(btns...))
		}
		markup.Reply(rows...)

	default:
		rows := make([]tele.Row, 0, len(kb.Rows))
		for _, r := range kb.Rows {
			btns := make([]tele.Btn, 0, len(r))
			for _, b := range r {
				btns = append(btns, markup.Data(b.Label, EncodeCallback(b.Action, b.Arg)))
			}
			rows = append(rows, markup.Row(btns...))
		}
		markup.Inline(rows...)
	}

	opts.ReplyMarkup = markup
	return opts
}
