package quiz

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// normalizeAnswer trims, NFC-normalizes, case-folds and collapses inner
// whitespace.
func normalizeAnswer(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	s = cases.Fold().String(s)
	return strings.Join(strings.Fields(s), " ")
}

// MatchAnswer is the local judge: case-insensitive, trimmed exact match.
func MatchAnswer(expected, submitted string) bool {
	if IsDegenerate(submitted) {
		return false
	}
	return normalizeAnswer(expected) == normalizeAnswer(submitted)
}

// nonAnswers never count, in folded form.
var nonAnswers = map[string]bool{}

func init() {
	for _, s := range []string{
		"не понял", "не поняла", "не знаю", "незнаю", "хз", "не помню",
		"без понятия", "понятия не имею",
		"idk", "i don't know", "i dont know", "dont know", "don't know", "no idea",
	} {
		nonAnswers[s] = true
	}
}

// IsDegenerate reports whether a submission is empty, bare punctuation or
// an "I don't know" equivalent. Such answers are always wrong, whatever a
// lenient remote judge might say.
func IsDegenerate(submitted string) bool {
	s := normalizeAnswer(submitted)
	if s == "" {
		return true
	}

	meaningful := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			meaningful = true
			break
		}
	}
	if !meaningful {
		return true
	}

	trimmed := strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r)
	})
	return nonAnswers[trimmed]
}
