package quiz

import (
	"context"
	"errors"
)

// ErrUnavailable means the oracle could not produce a usable result:
// network failure, timeout or a reply that did not parse.
var ErrUnavailable = errors.New("question oracle unavailable")

// Question sources.
const (
	SourceOracle = "oracle"
	SourceLocal  = "local"
)

// Question is a prompt with its expected answer.
type Question struct {
	CategoryID string
	Prompt     string
	Answer     string
	Source     string
}

// Verdict is the outcome of judging a submitted answer.
type Verdict struct {
	Correct     bool
	Explanation string
}

// Oracle generates and judges questions.
type Oracle interface {
	GenerateQuestion(ctx context.Context, cat Category, age int) (Question, error)
	JudgeAnswer(ctx context.Context, q Question, submitted string) (Verdict, error)
}
