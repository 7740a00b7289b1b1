package quiz

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultTimeout bounds every remote oracle call.
const DefaultTimeout = 8 * time.Second

// Adapter fronts an optional remote oracle with the local one. Failures,
// timeouts and unparseable replies from the remote fall through to the
// local oracle, so callers never see ErrUnavailable.
type Adapter struct {
	remote  Oracle
	local   *LocalOracle
	timeout time.Duration
}

// NewAdapter creates an adapter. remote may be nil for offline play.
func NewAdapter(remote Oracle, local *LocalOracle, timeout time.Duration) *Adapter {
	if local == nil {
		local = NewLocalOracle(nil)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Adapter{remote: remote, local: local, timeout: timeout}
}

// Reward draws a payout for a correct answer in cat.
func (a *Adapter) Reward(cat Category) int64 {
	return a.local.Reward(cat)
}

// GenerateQuestion returns a question for cat and age.
func (a *Adapter) GenerateQuestion(ctx context.Context, cat Category, age int) (Question, error) {
	if a.remote != nil {
		rctx, cancel := context.WithTimeout(ctx, a.timeout)
		q, err := a.remote.GenerateQuestion(rctx, cat, age)
		cancel()
		if err == nil {
			return q, nil
		}
		if ctx.Err() != nil {
			return Question{}, ctx.Err()
		}
		log.Warn().Err(err).Str("category", cat.ID).Msg("Remote question failed, using local pool")
	}
	return a.local.GenerateQuestion(ctx, cat, age)
}

// JudgeAnswer returns the verdict for submitted. Degenerate answers are
// rejected before any judge is consulted.
func (a *Adapter) JudgeAnswer(ctx context.Context, q Question, submitted string) (Verdict, error) {
	if IsDegenerate(submitted) {
		return Verdict{Correct: false}, nil
	}
	if a.remote != nil {
		rctx, cancel := context.WithTimeout(ctx, a.timeout)
		v, err := a.remote.JudgeAnswer(rctx, q, submitted)
		cancel()
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil {
			return Verdict{}, ctx.Err()
		}
		log.Warn().Err(err).Str("category", q.CategoryID).Msg("Remote judge failed, using exact match")
	}
	return a.local.JudgeAnswer(ctx, q, submitted)
}
