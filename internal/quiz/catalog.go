// Package quiz generates and judges earn-flow questions. A remote language
// model oracle is used when reachable; a local pool and exact-match judge
// cover everything else.
package quiz

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed catalog.toml
var defaultCatalog []byte

// ErrUnknownCategory is returned for an id missing from the catalog.
var ErrUnknownCategory = errors.New("unknown quiz category")

// AgeBand groups players for question difficulty.
type AgeBand string

const (
	BandYoung  AgeBand = "young"  // under 8
	BandMiddle AgeBand = "middle" // 8 to 11
	BandTeen   AgeBand = "teen"   // 12 and up
)

// BandForAge maps an age to its band.
func BandForAge(age int) AgeBand {
	switch {
	case age < 8:
		return BandYoung
	case age < 12:
		return BandMiddle
	default:
		return BandTeen
	}
}

// PoolEntry is one offline question.
type PoolEntry struct {
	Question string    `toml:"question"`
	Answer   string    `toml:"answer"`
	Bands    []AgeBand `toml:"bands"`
}

func (p PoolEntry) fits(band AgeBand) bool {
	if len(p.Bands) == 0 {
		return true
	}
	for _, b := range p.Bands {
		if b == band {
			return true
		}
	}
	return false
}

// Category is a quiz subject. Premium categories are sold in the shop and
// pay Multiplier times their base reward range.
type Category struct {
	ID          string      `toml:"id"`
	Title       string      `toml:"title"`
	Description string      `toml:"description"`
	Premium     bool        `toml:"premium"`
	Price       int64       `toml:"price"`
	Multiplier  float64     `toml:"multiplier"`
	RewardMin   int64       `toml:"reward_min"`
	RewardMax   int64       `toml:"reward_max"`
	Generator   string      `toml:"generator"`
	Prompt      string      `toml:"prompt"`
	Fallback    []PoolEntry `toml:"fallback"`
}

// RewardRange returns the inclusive payout range after the multiplier.
func (c Category) RewardRange() (int64, int64) {
	m := c.Multiplier
	if m <= 0 {
		m = 1
	}
	return int64(math.Round(float64(c.RewardMin) * m)), int64(math.Round(float64(c.RewardMax) * m))
}

// PromptFor renders the question prompt for a player's age.
func (c Category) PromptFor(age int) string {
	return strings.ReplaceAll(c.Prompt, "{age}", strconv.Itoa(age))
}

// Pool returns the offline questions suitable for band.
func (c Category) Pool(band AgeBand) []PoolEntry {
	var out []PoolEntry
	for _, p := range c.Fallback {
		if p.fits(band) {
			out = append(out, p)
		}
	}
	return out
}

// Catalog is the full set of categories and oracle prompts.
type Catalog struct {
	QuestionSystemPrompt string     `toml:"question_system_prompt"`
	JudgeSystemPrompt    string     `toml:"judge_system_prompt"`
	JudgePrompt          string     `toml:"judge_prompt"`
	Categories           []Category `toml:"category"`

	byID map[string]int
}

// LoadCatalog decodes and validates a TOML catalog.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var c Catalog
	if err := toml.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() *Catalog {
	c, err := LoadCatalog(bytes.NewReader(defaultCatalog))
	if err != nil {
		panic(fmt.Sprintf("embedded quiz catalog is invalid: %v", err))
	}
	return c
}

func (c *Catalog) validate() error {
	c.byID = make(map[string]int, len(c.Categories))
	for i, cat := range c.Categories {
		if cat.ID == "" {
			return fmt.Errorf("category %d has no id", i)
		}
		if _, dup := c.byID[cat.ID]; dup {
			return fmt.Errorf("duplicate category %q", cat.ID)
		}
		if cat.RewardMin <= 0 || cat.RewardMax < cat.RewardMin {
			return fmt.Errorf("category %q has invalid reward range %d-%d", cat.ID, cat.RewardMin, cat.RewardMax)
		}
		if cat.Premium && cat.Price <= 0 {
			return fmt.Errorf("premium category %q has no price", cat.ID)
		}
		if cat.Generator == "" {
			for _, band := range []AgeBand{BandYoung, BandMiddle, BandTeen} {
				if len(cat.Pool(band)) == 0 {
					return fmt.Errorf("category %q has no fallback questions for %s band", cat.ID, band)
				}
			}
		} else if cat.Generator != GeneratorArithmetic {
			return fmt.Errorf("category %q has unknown generator %q", cat.ID, cat.Generator)
		}
		c.byID[cat.ID] = i
	}
	return nil
}

// Get looks a category up by id.
func (c *Catalog) Get(id string) (Category, error) {
	i, ok := c.byID[id]
	if !ok {
		return Category{}, fmt.Errorf("%w: %s", ErrUnknownCategory, id)
	}
	return c.Categories[i], nil
}

// Base returns the always-available categories in catalog order.
func (c *Catalog) Base() []Category {
	var out []Category
	for _, cat := range c.Categories {
		if !cat.Premium {
			out = append(out, cat)
		}
	}
	return out
}

// Premium returns the shop categories in catalog order.
func (c *Catalog) Premium() []Category {
	var out []Category
	for _, cat := range c.Categories {
		if cat.Premium {
			out = append(out, cat)
		}
	}
	return out
}

// JudgePromptFor renders the judge prompt.
func (c *Catalog) JudgePromptFor(q Question, submitted string) string {
	return strings.NewReplacer(
		"{question}", q.Prompt,
		"{expected}", q.Answer,
		"{answer}", submitted,
	).Replace(c.JudgePrompt)
}
