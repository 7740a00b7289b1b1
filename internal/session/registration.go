package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Foy7er/FinQuest/internal/model"
	"github.com/Foy7er/FinQuest/internal/service"
)

// register walks AwaitingName → AwaitingClass → AwaitingAge. Invalid input
// re-prompts without leaving the stage.
func (e *Engine) register(ctx context.Context, sess *Session, ev Event) ([]Outbound, error) {
	switch sess.Stage {
	case StageAwaitingName:
		// Typed text counts even when it matches a keyboard label.
		name, ok := service.ValidateName(ev.Text)
		if !ok {
			return []Outbound{{Text: msgNameInvalid}}, nil
		}
		sess.Name = name
		sess.Stage = StageAwaitingClass
		return []Outbound{{Text: fmt.Sprintf(msgNameAccepted, name), Keyboard: classMenu()}}, nil

	case StageAwaitingClass:
		raw := ev.Text
		if ev.Action == ActionChooseClass {
			raw = ev.Arg
		}
		class, ok := model.ParseCharacterClass(strings.TrimSpace(raw))
		if !ok || (ev.Action != ActionText && ev.Action != ActionChooseClass) {
			return []Outbound{{Text: msgClassInvalid, Keyboard: classMenu()}}, nil
		}
		sess.Class = class
		sess.Stage = StageAwaitingAge
		return []Outbound{{Text: msgAskAge, Keyboard: removeKeyboard()}}, nil

	default:
		if ev.Action != ActionText {
			return []Outbound{{Text: msgAgeNotNumber}}, nil
		}
		age, err := strconv.Atoi(strings.TrimSpace(ev.Text))
		if err != nil {
			return []Outbound{{Text: msgAgeNotNumber}}, nil
		}
		if !service.ValidateAge(age) {
			return []Outbound{{Text: msgAgeOutOfRange}}, nil
		}
		return e.completeRegistration(ctx, sess, ev, age)
	}
}

func (e *Engine) completeRegistration(ctx context.Context, sess *Session, ev Event, age int) ([]Outbound, error) {
	acc, err := e.accounts.Register(ctx, model.NewAccount{
		TelegramID:     sess.UserID,
		Username:       ev.Username,
		CharacterName:  sess.Name,
		CharacterClass: sess.Class,
		Age:            age,
	})
	if errors.Is(err, service.ErrAlreadyExists) {
		existing, err := e.accounts.GetAccount(ctx, sess.UserID)
		if err != nil {
			return nil, err
		}
		sess.reset(StageIdle)
		return []Outbound{{Text: fmt.Sprintf(msgWelcomeBack, existing.CharacterName, existing.Wallet), Keyboard: MainMenu()}}, nil
	}
	if err != nil {
		return nil, err
	}

	sess.Stage = StageRegistered
	log.Debug().Int64("user_id", sess.UserID).Str("stage", string(sess.Stage)).Msg("Registration complete")
	sess.reset(StageIdle)

	return []Outbound{{
		Text:     fmt.Sprintf(msgHeroCreated, acc.CharacterName, acc.CharacterClass, acc.Age),
		Keyboard: MainMenu(),
	}}, nil
}
