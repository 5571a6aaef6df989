package summarize

import (
	"regexp"
	"strings"
)

var (
	definitionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bis a\b`),
		regexp.MustCompile(`\bare\b.*\bthat\b`),
		regexp.MustCompile(`\brefers to\b`),
		regexp.MustCompile(`\bdefined as\b`),
		regexp.MustCompile(`\bmeans\b`),
		regexp.MustCompile(`\binvolves\b`),
		regexp.MustCompile(`\benables\b`),
		regexp.MustCompile(`\ballows\b`),
	}

	conceptKeywords = []string{
		"concept", "principle", "fundamental", "basic", "essential",
		"important", "key", "main", "primary", "core", "crucial",
	}

	introductionKeywords = []string{
		"introduction", "overview", "fundamentals", "basics",
		"understanding", "approach", "method", "technique",
	}

	benefitKeywords = []string{
		"benefits", "advantages", "purpose", "goal", "objective",
		"helps", "provides", "offers", "improves", "enhances",
	}

	technicalTerms = []string{
		"syntax", "parameter", "variable", "function", "method",
		"implementation", "code", "example", "instance",
	}

	processKeywords = []string{"process", "step", "method", "approach", "way", "how"}

	bracketRe     = regexp.MustCompile(`[(){}\[\]]`)
	whatIsRe      = regexp.MustCompile(`\bwhat\b.*\bis\b`)
	demonstrative = regexp.MustCompile(`\b(this|that|these|those)\b.*\b(is|are)\b`)
)

const minScoredLen = 20

// Score rates how well a sentence introduces the chapter's subject.
// position is the sentence index within its paragraph.
func Score(sentence string, position int, paragraphFirst bool) float64 {
	lower := strings.ToLower(strings.TrimSpace(sentence))
	if runeLen(lower) < minScoredLen {
		return 0
	}

	var score float64

	switch position {
	case 0:
		score += 3.0
	case 1:
		score += 2.0
	case 2:
		score += 1.0
	}

	if paragraphFirst {
		score += 2.0
	}

	for _, re := range definitionPatterns {
		if re.MatchString(lower) {
			score += 3.0
			break
		}
	}

	if containsAny(lower, conceptKeywords) {
		score += 2.0
	}

	score += 1.5 * float64(countContained(lower, introductionKeywords))
	score += 1.0 * float64(countContained(lower, benefitKeywords))
	score -= 0.5 * float64(countContained(lower, technicalTerms))

	if len(bracketRe.FindAllStringIndex(sentence, -1)) > 2 {
		score -= 1.0
	}

	words := len(strings.Fields(sentence))
	switch {
	case words >= 15 && words <= 30:
		score += 1.0
	case words >= 10 && words <= 35:
		score += 0.5
	case words < 8 || words > 45:
		score -= 1.0
	}

	if whatIsRe.MatchString(lower) || demonstrative.MatchString(lower) {
		score += 1.5
	}

	if containsAny(lower, processKeywords) {
		score += 0.5
	}

	return max(score, 0)
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func countContained(s string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(s, w) {
			n++
		}
	}
	return n
}
