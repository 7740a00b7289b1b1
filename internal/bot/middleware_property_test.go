package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"
	"pgregory.net/rapid"

	"github.com/Foy7er/FinQuest/internal/config"
	"github.com/Foy7er/FinQuest/internal/handler"
)

func offlineBot(t testing.TB) *tele.Bot {
	b, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)
	return b
}

func messageUpdate(chatType tele.ChatType, userID int64, text string) tele.Update {
	return tele.Update{Message: &tele.Message{
		Chat:   &tele.Chat{ID: userID, Type: chatType},
		Sender: &tele.User{ID: userID, Username: "kid"},
		Text:   text,
	}}
}

// run passes c through mw and reports whether the inner handler ran.
func run(mw tele.MiddlewareFunc, c tele.Context) (bool, error) {
	called := false
	err := mw(func(tele.Context) error {
		called = true
		return nil
	})(c)
	return called, err
}

// TestAdminPermissionCheckProperty: a user is admin if and only if their id
// is in admin.ids.
func TestAdminPermissionCheckProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		adminIDs := rapid.SliceOfN(rapid.Int64Range(1, 1000000000), 1, 10).Draw(t, "adminIDs")
		cfg := &config.Config{Admin: config.AdminConfig{IDs: adminIDs}}

		userID := rapid.Int64Range(1, 1000000000).Draw(t, "userID")
		expected := false
		for _, id := range adminIDs {
			if id == userID {
				expected = true
				break
			}
		}

		if got := cfg.IsAdmin(userID); got != expected {
			t.Fatalf("Admin check mismatch: userID=%d, adminIDs=%v, expected=%v, got=%v",
				userID, adminIDs, expected, got)
		}

		known := adminIDs[rapid.IntRange(0, len(adminIDs)-1).Draw(t, "adminIndex")]
		if !cfg.IsAdmin(known) {
			t.Fatalf("Known admin ID %d should be recognized as admin, adminIDs=%v", known, adminIDs)
		}
	})
}

func TestAdminMiddlewarePassesAdmins(t *testing.T) {
	b := offlineBot(t)
	cfg := &config.Config{Admin: config.AdminConfig{IDs: []int64{42}}}

	called, err := run(AdminMiddleware(cfg), b.NewContext(messageUpdate(tele.ChatPrivate, 42, "/admin_add 1 10")))
	require.NoError(t, err)
	assert.True(t, called)
}

// TestPrivateChatOnlyProperty: only private chats reach the handlers.
func TestPrivateChatOnlyProperty(t *testing.T) {
	b := offlineBot(t)
	types := []tele.ChatType{tele.ChatPrivate, tele.ChatGroup, tele.ChatSuperGroup, tele.ChatChannel}

	rapid.Check(t, func(t *rapid.T) {
		chatType := rapid.SampledFrom(types).Draw(t, "chatType")
		userID := rapid.Int64Range(1, 1000000000).Draw(t, "userID")

		called, err := run(PrivateChatMiddleware(), b.NewContext(messageUpdate(chatType, userID, "hi")))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if called != (chatType == tele.ChatPrivate) {
			t.Fatalf("chat type %s: handler called=%v", chatType, called)
		}
	})
}

func TestPrivateChatMiddlewareDropsSenderless(t *testing.T) {
	b := offlineBot(t)
	called, err := run(PrivateChatMiddleware(), b.NewContext(tele.Update{}))
	require.NoError(t, err)
	assert.False(t, called)
}

func TestLoggingMiddlewareAttachesContext(t *testing.T) {
	b := offlineBot(t)
	c := b.NewContext(messageUpdate(tele.ChatPrivate, 7, "/start"))

	var seen context.Context
	err := LoggingMiddleware()(func(c tele.Context) error {
		seen = handler.Context(c)
		return nil
	})(c)
	require.NoError(t, err)

	require.NotNil(t, seen)
	_, ok := c.Get(handler.ContextKey).(context.Context)
	assert.True(t, ok)
}
