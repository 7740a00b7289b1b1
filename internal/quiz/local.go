package quiz

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"
)

// GeneratorArithmetic builds arithmetic problems instead of drawing from a pool.
const GeneratorArithmetic = "arithmetic"

// LocalOracle is the deterministic offline oracle. It never fails for a
// valid catalog category.
type LocalOracle struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewLocalOracle creates a local oracle. A nil rng is seeded from the clock.
func NewLocalOracle(rng *rand.Rand) *LocalOracle {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
	return &LocalOracle{rng: rng}
}

// intRange returns a uniform int in [lo, hi].
func (o *LocalOracle) intRange(lo, hi int) int {
	return lo + o.rng.IntN(hi-lo+1)
}

// Reward draws a payout from the category's range.
func (o *LocalOracle) Reward(cat Category) int64 {
	lo, hi := cat.RewardRange()
	o.mu.Lock()
	defer o.mu.Unlock()
	return lo + o.rng.Int64N(hi-lo+1)
}

// GenerateQuestion draws from the category's pool for the player's age
// band, or builds an arithmetic problem.
func (o *LocalOracle) GenerateQuestion(_ context.Context, cat Category, age int) (Question, error) {
	band := BandForAge(age)

	o.mu.Lock()
	defer o.mu.Unlock()

	if cat.Generator == GeneratorArithmetic {
		prompt, answer := o.arithmetic(band)
		return Question{CategoryID: cat.ID, Prompt: prompt, Answer: answer, Source: SourceLocal}, nil
	}

	pool := cat.Pool(band)
	if len(pool) == 0 {
		return Question{}, fmt.Errorf("no local questions for %s/%s", cat.ID, band)
	}
	p := pool[o.rng.IntN(len(pool))]
	return Question{CategoryID: cat.ID, Prompt: p.Question, Answer: p.Answer, Source: SourceLocal}, nil
}

// arithmetic picks operands and operators by age band. Young players only
// see addition and subtraction with non-negative results; division for
// teens always comes out whole.
func (o *LocalOracle) arithmetic(band AgeBand) (string, string) {
	var (
		n1, n2 int
		ops    []string
	)
	switch band {
	case BandYoung:
		n1, n2 = o.intRange(1, 10), o.intRange(1, 10)
		ops = []string{"+", "-"}
	case BandMiddle:
		n1, n2 = o.intRange(10, 50), o.intRange(2, 10)
		ops = []string{"+", "-", "*"}
	default:
		n1, n2 = o.intRange(20, 100), o.intRange(5, 20)
		ops = []string{"+", "-", "*", "/"}
	}
	op := ops[o.rng.IntN(len(ops))]

	var ans int
	switch op {
	case "+":
		ans = n1 + n2
	case "-":
		if band == BandYoung && n1 < n2 {
			n1, n2 = n2, n1
		}
		ans = n1 - n2
	case "*":
		ans = n1 * n2
	case "/":
		n1 *= n2
		ans = n1 / n2
	}
	return fmt.Sprintf("%d %s %d = ?", n1, op, n2), strconv.Itoa(ans)
}

// JudgeAnswer applies the exact-match rule.
func (o *LocalOracle) JudgeAnswer(_ context.Context, q Question, submitted string) (Verdict, error) {
	return Verdict{Correct: MatchAnswer(q.Answer, submitted)}, nil
}
