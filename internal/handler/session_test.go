package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"
	"pgregory.net/rapid"

	"github.com/Foy7er/FinQuest/internal/session"
)

// TestCallbackRoundTripProperty checks that any action and argument survive
// encoding, including telebot's \f prefix and colons inside the argument.
func TestCallbackRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		action := session.Action(rapid.StringMatching(`[a-z_]{1,16}`).Draw(t, "action"))
		arg := rapid.StringMatching(`[A-Za-z0-9 :_-]{0,24}`).Draw(t, "arg")

		data := EncodeCallback(action, arg)
		if rapid.Bool().Draw(t, "prefixed") {
			data = "\f" + data
		}

		gotAction, gotArg := DecodeCallback(data)
		if gotAction != action || gotArg != arg {
			t.Fatalf("round trip of (%q, %q) gave (%q, %q)", action, arg, gotAction, gotArg)
		}
	})
}

func TestDecodeCallback(t *testing.T) {
	tests := []struct {
		data   string
		action session.Action
		arg    string
	}{
		{"\fbuy:3", session.ActionBuy, "3"},
		{"sell:Rare Card", session.ActionSell, "Rare Card"},
		{"\fbank_all", session.ActionBankAll, ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		action, arg := DecodeCallback(tt.data)
		assert.Equal(t, tt.action, action, tt.data)
		assert.Equal(t, tt.arg, arg, tt.data)
	}
}

func TestEventFromText(t *testing.T) {
	labels := session.ReplyLabels()

	ev := EventFromText(session.LabelBank, labels)
	assert.Equal(t, session.ActionBank, ev.Action)

	ev = EventFromText(" Инженер ", labels)
	assert.Equal(t, session.ActionChooseClass, ev.Action)
	assert.Equal(t, "Инженер", ev.Arg)

	ev = EventFromText("42", labels)
	assert.Equal(t, session.ActionText, ev.Action)
	assert.Equal(t, "42", ev.Text)
}

func TestRenderInline(t *testing.T) {
	opts := Render(session.Outbound{
		Text:     "*Биржа*",
		Markdown: true,
		Keyboard: &session.Keyboard{
			Kind: session.KeyboardInline,
			Rows: [][]session.Button{
				{{Label: "Купить", Action: session.ActionBuy, Arg: "2"}},
				{{Label: "Назад", Action: session.ActionMarketMenu}},
			},
		},
	})

	assert.Equal(t, tele.ModeMarkdown, opts.ParseMode)
	require.NotNil(t, opts.ReplyMarkup)
	kb := opts.ReplyMarkup.InlineKeyboard
	require.Len(t, kb, 2)
	assert.Equal(t, "Купить", kb[0][0].Text)
	assert.Equal(t, "buy:2", kb[0][0].Unique)
	assert.Equal(t, "market_menu", kb[1][0].Unique)
}

func TestRenderReplyAndRemove(t *testing.T) {
	opts := Render(session.Outbound{Text: "menu", Keyboard: session.MainMenu()})
	assert.Empty(t, opts.ParseMode)
	require.NotNil(t, opts.ReplyMarkup)
	assert.True(t, opts.ReplyMarkup.ResizeKeyboard)
	require.Len(t, opts.ReplyMarkup.ReplyKeyboard, 3)
	assert.Equal(t, session.LabelEarn, opts.ReplyMarkup.ReplyKeyboard[0][0].Text)

	opts = Render(session.Outbound{Text: "bye", Keyboard: &session.Keyboard{Kind: session.KeyboardRemove}})
	require.NotNil(t, opts.ReplyMarkup)
	assert.True(t, opts.ReplyMarkup.RemoveKeyboard)

	opts = Render(session.Outbound{Text: "plain"})
	assert.Nil(t, opts.ReplyMarkup)
}

func TestParseUserID(t *testing.T) {
	id, err := parseUserID("123456")
	require.NoError(t, err)
	assert.Equal(t, int64(123456), id)

	for _, bad := range []string{"", "abc", "0", "-5"} {
		_, err := parseUserID(bad)
		assert.Error(t, err, bad)
	}
}
