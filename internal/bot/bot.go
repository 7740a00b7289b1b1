// Package bot provides the Telegram bot initialization and handler registration.
package bot

import (
	"fmt"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"github.com/Foy7er/FinQuest/internal/config"
	"github.com/Foy7er/FinQuest/internal/handler"
	"github.com/Foy7er/FinQuest/internal/service"
	"github.com/Foy7er/FinQuest/internal/session"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot *tele.Bot
	cfg *config.Config

	sessionHandler *handler.SessionHandler
	adminHandler   *handler.AdminHandler
}

// Dependencies holds all the dependencies needed by the bot handlers.
type Dependencies struct {
	Config         *config.Config
	Engine         *session.Engine
	AccountService *service.AccountService
}

// New creates a new Bot instance with the given dependencies.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  deps.Config.Bot.Token,
		Poller: &tele.LongPoller{Timeout: deps.Config.Bot.PollTimeout},
		OnError: func(err error, c tele.Context) {
			log.Error().Err(err).Msg("Update handling failed")
		},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		bot:            teleBot,
		cfg:            deps.Config,
		sessionHandler: handler.NewSessionHandler(deps.Engine),
		adminHandler:   handler.NewAdminHandler(deps.AccountService),
	}

	b.registerMiddleware()
	b.registerHandlers()

	return b, nil
}

// registerMiddleware registers all middleware.
func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(LoggingMiddleware())
	b.bot.Use(PrivateChatMiddleware())
}

// registerHandlers registers all command and callback handlers.
func (b *Bot) registerHandlers() {
	h := b.sessionHandler
	b.bot.Handle("/start", h.HandleCommand(session.ActionStart))
	b.bot.Handle("/menu", h.HandleCommand(session.ActionMenu))
	b.bot.Handle("/cancel", h.HandleCommand(session.ActionCancel))
	b.bot.Handle("/reset", h.HandleCommand(session.ActionReset))
	b.bot.Handle("/journal", h.HandleCommand(session.ActionJournal))
	b.bot.Handle("/sell", h.HandleSell)

	// Admin handlers (with admin middleware)
	adminGroup := b.bot.Group()
	adminGroup.Use(AdminMiddleware(b.cfg))
	adminGroup.Handle("/admin_add", b.adminHandler.HandleAdminAdd)
	adminGroup.Handle("/admin_reset", b.adminHandler.HandleAdminReset)

	b.bot.Handle(tele.OnText, h.HandleText)
	b.bot.Handle(tele.OnCallback, h.HandleCallback)
}

// Start starts the bot polling. It blocks until Stop is called.
func (b *Bot) Start() {
	log.Info().Str("username", b.bot.Me.Username).Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}
