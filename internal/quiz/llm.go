package quiz

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog/log"
)

const (
	questionTemperature = 0.6
	questionMaxTokens   = 80
	judgeTemperature    = 0.05
	judgeMaxTokens      = 85
)

// LLMOracle talks to an OpenAI-compatible chat completion endpoint.
type LLMOracle struct {
	client  openai.Client
	model   string
	catalog *Catalog
}

// NewLLMOracle creates a remote oracle. An empty baseURL uses the client
// default.
func NewLLMOracle(apiKey, baseURL, model string, catalog *Catalog) *LLMOracle {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &LLMOracle{
		client:  openai.NewClient(opts...),
		model:   model,
		catalog: catalog,
	}
}

func (o *LLMOracle) complete(ctx context.Context, system, user string, temperature float64, maxTokens int64) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", ErrUnavailable)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// GenerateQuestion asks the model for a question in the category's format.
func (o *LLMOracle) GenerateQuestion(ctx context.Context, cat Category, age int) (Question, error) {
	text, err := o.complete(ctx, o.catalog.QuestionSystemPrompt, cat.PromptFor(age), questionTemperature, questionMaxTokens)
	if err != nil {
		return Question{}, err
	}
	prompt, answer, ok := parseQuestionReply(text)
	if !ok {
		log.Debug().Str("category", cat.ID).Str("reply", text).Msg("Unparseable question reply")
		return Question{}, fmt.Errorf("%w: unparseable question reply", ErrUnavailable)
	}
	return Question{CategoryID: cat.ID, Prompt: prompt, Answer: answer, Source: SourceOracle}, nil
}

// JudgeAnswer asks the model for a verdict and a short explanation.
func (o *LLMOracle) JudgeAnswer(ctx context.Context, q Question, submitted string) (Verdict, error) {
	text, err := o.complete(ctx, o.catalog.JudgeSystemPrompt, o.catalog.JudgePromptFor(q, submitted), judgeTemperature, judgeMaxTokens)
	if err != nil {
		return Verdict{}, err
	}
	v, ok := parseJudgeReply(text)
	if !ok {
		log.Debug().Str("category", q.CategoryID).Str("reply", text).Msg("Unparseable judge reply")
		return Verdict{}, fmt.Errorf("%w: unparseable judge reply", ErrUnavailable)
	}
	return v, nil
}

// parseQuestionReply extracts the ВОПРОС/ОТВЕТ lines. The answer is
// lower-cased.
func parseQuestionReply(text string) (string, string, bool) {
	const (
		qPrefix = "ВОПРОС:"
		aPrefix = "ОТВЕТ:"
	)
	var question, answer string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		upper := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(upper, qPrefix):
			question = strings.TrimSpace(line[len(qPrefix):])
		case strings.HasPrefix(upper, aPrefix):
			answer = strings.ToLower(strings.TrimSpace(line[len(aPrefix):]))
		}
	}
	if question == "" || answer == "" {
		return "", "", false
	}
	return question, answer, true
}

// parseJudgeReply finds the verdict word. "неправильно" contains
// "правильно", so a reply with only a negative verdict indexes the
// positive one after it.
func parseJudgeReply(text string) (Verdict, bool) {
	lower := strings.ToLower(text)
	posCorrect := strings.Index(lower, "правильно")
	if posCorrect == -1 {
		return Verdict{}, false
	}
	posIncorrect := strings.Index(lower, "неправильно")
	correct := posIncorrect == -1 || posCorrect < posIncorrect
	return Verdict{Correct: correct, Explanation: cleanExplanation(text, correct)}, true
}

var verdictNoise = []string{
	"правильно", "неправильно", "проверка", "ответ ученика", "ответ учащегося",
	"вопрос:", "ответ:", "задача:", "задание:",
}

// cleanExplanation drops short verdict and echo lines, keeping the facts.
func cleanExplanation(text string, correct bool) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		if utf8.RuneCountInString(line) < 60 && containsAny(lower, verdictNoise) {
			continue
		}
		if correct && strings.Contains(lower, "правильный ответ") {
			continue
		}
		if utf8.RuneCountInString(line) > 3 {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
