package handler

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"

	"github.com/Foy7er/FinQuest/internal/model"
	"github.com/Foy7er/FinQuest/internal/pkg/lock"
	"github.com/Foy7er/FinQuest/internal/repository/memory"
	"github.com/Foy7er/FinQuest/internal/service"
)

// commandContext is a tele.Context for one admin command that records
// replies instead of sending them.
type commandContext struct {
	tele.Context
	sender  *tele.User
	args    []string
	replies []string
}

func (c *commandContext) Sender() *tele.User     { return c.sender }
func (c *commandContext) Args() []string         { return c.args }
func (c *commandContext) Get(string) interface{} { return nil }

func (c *commandContext) Reply(what interface{}, _ ...interface{}) error {
	c.replies = append(c.replies, fmt.Sprint(what))
	return nil
}

func command(args ...string) *commandContext {
	return &commandContext{sender: &tele.User{ID: 1}, args: args}
}

func newAdminHandler(t *testing.T) (*AdminHandler, *service.AccountService) {
	accounts := service.NewAccountService(memory.New(), lock.NewUserLock(), true)
	_, err := accounts.Register(context.Background(), model.NewAccount{
		TelegramID:     42,
		CharacterName:  "Nova",
		CharacterClass: model.ClassMage,
		Age:            11,
	})
	require.NoError(t, err)
	return NewAdminHandler(accounts), accounts
}

func TestHandleAdminAdd(t *testing.T) {
	h, accounts := newAdminHandler(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no args", nil, "❌ Формат: /admin_add <id> <сумма>"},
		{"one arg", []string{"42"}, "❌ Формат: /admin_add <id> <сумма>"},
		{"bad id", []string{"abc", "10"}, "❌ Неверный ID игрока"},
		{"zero id", []string{"0", "10"}, "❌ Неверный ID игрока"},
		{"negative amount", []string{"42", "-5"}, "❌ Сумма должна быть положительным числом"},
		{"bad amount", []string{"42", "ten"}, "❌ Сумма должна быть положительным числом"},
		{"missing player", []string{"99", "10"}, "❌ Игрок не найден"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := command(tt.args...)
			require.NoError(t, h.HandleAdminAdd(c))
			require.Len(t, c.replies, 1)
			assert.Equal(t, tt.want, c.replies[0])
		})
	}

	acc, err := accounts.GetAccount(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(0), acc.Wallet, "rejected commands must not credit")

	c := command("42", "25")
	require.NoError(t, h.HandleAdminAdd(c))
	require.Len(t, c.replies, 1)
	assert.Contains(t, c.replies[0], "Начислено: 25 монет")
	assert.Contains(t, c.replies[0], "В кошельке: 25 монет")

	acc, err = accounts.GetAccount(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(25), acc.Wallet)
}

func TestHandleAdminReset(t *testing.T) {
	h, accounts := newAdminHandler(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no args", nil, "❌ Формат: /admin_reset <id>"},
		{"two args", []string{"42", "1"}, "❌ Формат: /admin_reset <id>"},
		{"bad id", []string{"-3"}, "❌ Неверный ID игрока"},
		{"missing player", []string{"99"}, "❌ Игрок не найден"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := command(tt.args...)
			require.NoError(t, h.HandleAdminReset(c))
			require.Len(t, c.replies, 1)
			assert.Equal(t, tt.want, c.replies[0])
		})
	}

	c := command("42")
	require.NoError(t, h.HandleAdminReset(c))
	require.Len(t, c.replies, 1)
	assert.Equal(t, "✅ Профиль игрока 42 сброшен", c.replies[0])

	exists, err := accounts.Exists(context.Background(), 42)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestAdminCommandsIgnoreSenderless(t *testing.T) {
	h, _ := newAdminHandler(t)
	c := &commandContext{args: []string{"42", "10"}}

	require.NoError(t, h.HandleAdminAdd(c))
	require.NoError(t, h.HandleAdminReset(c))
	assert.Empty(t, c.replies)
}
