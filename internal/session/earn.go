package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Foy7er/FinQuest/internal/quiz"
	"github.com/Foy7er/FinQuest/internal/service"
)

func (e *Engine) enterEarn(ctx context.Context, sess *Session) ([]Outbound, error) {
	subjects, err := e.economy.EarnSubjects(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	sess.Stage = StageEarnChoosingSubject
	return []Outbound{{Text: msgChooseSubject, Keyboard: subjectMenu(subjects)}}, nil
}

// chooseSubject generates the question. The oracle call happens here,
// outside every lock; the reward is only credited after judging.
func (e *Engine) chooseSubject(ctx context.Context, sess *Session, ev Event) ([]Outbound, error) {
	subjects, err := e.economy.EarnSubjects(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	invalid := []Outbound{{Text: msgSubjectInvalid, Keyboard: subjectMenu(subjects)}}

	var id string
	switch ev.Action {
	case ActionChooseSubject:
		id = ev.Arg
	case ActionText:
		id = matchSubject(subjects, ev.Text)
	}
	if id == "" {
		return invalid, nil
	}

	cat, ok, err := e.economy.CanEarnIn(ctx, sess.UserID, id)
	if errors.Is(err, service.ErrUnknownCategory) || (err == nil && !ok) {
		return invalid, nil
	}
	if err != nil {
		return nil, err
	}

	acc, err := e.accounts.GetAccount(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	q, err := e.oracle.GenerateQuestion(ctx, cat, acc.Age)
	if err != nil {
		return nil, err
	}

	sess.Question = &q
	sess.Reward = e.oracle.Reward(cat)
	sess.Stage = StageEarnAwaitingAnswer
	return []Outbound{{Text: fmt.Sprintf(msgQuestion, q.Prompt, sess.Reward), Keyboard: cancelMenu()}}, nil
}

// matchSubject resolves typed text to a subject by id or title.
func matchSubject(subjects []quiz.Category, text string) string {
	text = strings.TrimSpace(text)
	for _, s := range subjects {
		if strings.EqualFold(text, s.ID) || text == s.Title {
			return s.ID
		}
	}
	return ""
}

func (e *Engine) answer(ctx context.Context, sess *Session, ev Event) ([]Outbound, error) {
	if sess.Question == nil {
		return nil, errors.New("earn session without a question")
	}
	q := *sess.Question
	if ev.Action != ActionText {
		return []Outbound{{Text: fmt.Sprintf(msgQuestion, q.Prompt, sess.Reward), Keyboard: cancelMenu()}}, nil
	}

	verdict, err := e.oracle.JudgeAnswer(ctx, q, ev.Text)
	if err != nil {
		return nil, err
	}

	var text string
	if verdict.Correct {
		if _, err := e.economy.CreditEarnedReward(ctx, sess.UserID, sess.Reward, q.CategoryID); err != nil {
			return nil, err
		}
		text = fmt.Sprintf(msgAnswerCorrect, sess.Reward)
	} else {
		text = fmt.Sprintf(msgAnswerIncorrect, q.Answer)
	}
	if verdict.Explanation != "" {
		text += fmt.Sprintf(msgExplanation, verdict.Explanation)
	}

	sess.reset(StageIdle)
	return []Outbound{{Text: text, Keyboard: MainMenu()}}, nil
}
