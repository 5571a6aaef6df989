package summarize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	headingMaxLen     = 50 // first line shorter than this may be a heading
	bodyMinLen        = 50 // second line longer than this confirms it
	sentenceMinLen    = 15 // fragments at or below this length are discarded
	sentenceTerminals = `[.!?]+`
)

var sentenceSplitRe = regexp.MustCompile(sentenceTerminals)

// Paragraph is one blank-line separated block with its candidate sentences.
type Paragraph struct {
	Text      string
	Sentences []string
}

// Segment splits flattened text into paragraphs and sentences. A paragraph
// whose first line is short and second line long is treated as headed, and
// the heading line is dropped.
func Segment(text string) []Paragraph {
	var out []Paragraph
	for _, para := range splitByParagraphs(text) {
		content := para
		lines := strings.Split(para, "\n")
		if len(lines) >= 2 && runeLen(lines[0]) < headingMaxLen && runeLen(lines[1]) > bodyMinLen {
			content = strings.Join(lines[1:], "\n")
		}
		out = append(out, Paragraph{Text: content, Sentences: splitSentences(content)})
	}
	return out
}

// splitByParagraphs splits on double-newlines.
func splitByParagraphs(text string) []string {
	parts := strings.Split(text, "\n\n")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// splitSentences cuts on runs of terminal punctuation and keeps fragments
// longer than sentenceMinLen characters.
func splitSentences(text string) []string {
	var sentences []string
	for _, s := range sentenceSplitRe.Split(text, -1) {
		s = strings.TrimSpace(s)
		if runeLen(s) > sentenceMinLen {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
