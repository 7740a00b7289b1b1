package handler

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	tele "gopkg.in/telebot.v3"

	"github.com/Foy7er/FinQuest/internal/service"
)

// AdminHandler handles admin-related commands.
type AdminHandler struct {
	accounts *service.AccountService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(accounts *service.AccountService) *AdminHandler {
	return &AdminHandler{accounts: accounts}
}

// HandleAdminAdd handles the /admin_add command.
// Format: /admin_add <user_id> <amount>
func (h *AdminHandler) HandleAdminAdd(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	args := c.Args()
	if len(args) != 2 {
		return c.Reply("❌ Формат: /admin_add <id> <сумма>")
	}
	targetID, err := parseUserID(args[0])
	if err != nil {
		return c.Reply(err.Error())
	}
	amount, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || amount <= 0 {
		return c.Reply("❌ Сумма должна быть положительным числом")
	}

	ctx := Context(c)
	acc, err := h.accounts.AdminCredit(ctx, targetID, amount)
	if errors.Is(err, service.ErrNotFound) {
		return c.Reply("❌ Игрок не найден")
	}
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("target_id", targetID).Msg("Admin credit failed")
		return c.Reply("❌ Операция не удалась")
	}

	zerolog.Ctx(ctx).Info().
		Int64("admin_id", sender.ID).
		Int64("target_id", targetID).
		Int64("amount", amount).
		Str("operation", "admin_add").
		Msg("Admin operation executed")

	return c.Reply(fmt.Sprintf(
		"✅ Готово\n\n"+
			"👤 Игрок: %s (ID: %d)\n"+
			"➕ Начислено: %d монет\n"+
			"💳 В кошельке: %d монет",
		acc.CharacterName, targetID, amount, acc.Wallet,
	))
}

// HandleAdminReset handles the /admin_reset command.
// Format: /admin_reset <user_id>
func (h *AdminHandler) HandleAdminReset(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	args := c.Args()
	if len(args) != 1 {
		return c.Reply("❌ Формат: /admin_reset <id>")
	}
	targetID, err := parseUserID(args[0])
	if err != nil {
		return c.Reply(err.Error())
	}

	ctx := Context(c)
	exists, err := h.accounts.Exists(ctx, targetID)
	if err == nil && !exists {
		return c.Reply("❌ Игрок не найден")
	}
	if err == nil {
		err = h.accounts.Reset(ctx, targetID)
	}
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("target_id", targetID).Msg("Admin reset failed")
		return c.Reply("❌ Операция не удалась")
	}

	zerolog.Ctx(ctx).Info().
		Int64("admin_id", sender.ID).
		Int64("target_id", targetID).
		Str("operation", "admin_reset").
		Msg("Admin operation executed")

	return c.Reply(fmt.Sprintf("✅ Профиль игрока %d сброшен", targetID))
}

func parseUserID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("❌ Неверный ID игрока")
	}
	return id, nil
}
