package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	minSentenceLen = 3
	maxSentenceLen = 500
)

var injectionPattern = regexp.MustCompile(
	`(?i)(ignore\s+(previous|all|above)|system\s*prompt|you\s+are\s+now|` +
		`act\s+as\s+|pretend\s+|forget\s+(everything|all)|override|` +
		`new\s+instructions)`,
)

var spaceRe = regexp.MustCompile(`\s+`)

// ValidateSentence cleans a model-produced sentence. It returns the cleaned
// sentence and false when the sentence should be discarded.
func ValidateSentence(s string) (string, bool) {
	s = strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
	s = strings.TrimLeft(s, "-*• ")
	n := utf8.RuneCountInString(s)
	if n < minSentenceLen || n > maxSentenceLen {
		return "", false
	}
	if injectionPattern.MatchString(s) {
		return "", false
	}
	if !strings.HasSuffix(s, ".") && !strings.HasSuffix(s, "!") && !strings.HasSuffix(s, "?") {
		s += "."
	}
	return s, true
}

// cleanSentences validates each sentence, drops rejects and caps the result at n.
func cleanSentences(in []string, n int) []string {
	var out []string
	for _, s := range in {
		if len(out) == n {
			break
		}
		if clean, ok := ValidateSentence(s); ok {
			out = append(out, clean)
		}
	}
	return out
}
