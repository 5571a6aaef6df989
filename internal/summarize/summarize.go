// Package summarize selects the sentences that best introduce a chapter.
//
// The heuristic stage never fails outward: it reports an Outcome, and the
// Summarizer decides from that outcome whether to consult its fallback.
package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

const (
	// DefaultSentences is the summary length used when none is requested.
	DefaultSentences = 2
	// MinTextLen is the shortest trimmed text worth summarizing.
	MinTextLen = 100

	TooShortMessage      = "Chapter too short for meaningful summarization."
	UnavailableMessage   = "Summarization not available: no fallback summarizer is configured."
	EmptyFallbackMessage = "Summarization error: fallback summarizer returned no sentences."
)

// Outcome classifies a heuristic run.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeTooShort
	OutcomeEmpty
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeTooShort:
		return "too_short"
	case OutcomeEmpty:
		return "empty"
	}
	return "unknown"
}

// Result is the heuristic stage's answer.
type Result struct {
	Outcome   Outcome
	Sentences []string
	Reason    string
}

// ScoredSentence is a candidate with its score and location in the source text.
type ScoredSentence struct {
	Text      string  `json:"text"`
	Score     float64 `json:"score"`
	Offset    int     `json:"offset"`
	Paragraph int     `json:"paragraph"`
	Position  int     `json:"position"`
}

// Heuristic scores every sentence and returns up to n of the best, in
// reading order when there were more than n strong candidates.
func Heuristic(text string, n int) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Outcome: OutcomeEmpty, Reason: fmt.Sprintf("heuristic panic: %v", r)}
		}
	}()

	if n <= 0 {
		n = DefaultSentences
	}
	if runeLen(strings.TrimSpace(text)) < MinTextLen {
		return Result{Outcome: OutcomeTooShort, Sentences: []string{TooShortMessage}}
	}

	scored := ScoreText(text)
	if len(scored) == 0 {
		return Result{Outcome: OutcomeEmpty, Reason: "no sentence scored above zero"}
	}

	selected := Select(text, scored, n)
	out := make([]string, len(selected))
	for i, s := range selected {
		out[i] = s.Text
	}
	return Result{Outcome: OutcomeOK, Sentences: out}
}

// ScoreText returns every positively scored sentence in text order. Each
// sentence is trimmed and ends with a period.
func ScoreText(text string) []ScoredSentence {
	var scored []ScoredSentence
	for pi, para := range Segment(text) {
		for i, sentence := range para.Sentences {
			score := Score(sentence, i, i == 0)
			if score <= 0 {
				continue
			}
			clean := strings.TrimSpace(sentence)
			if !strings.HasSuffix(clean, ".") {
				clean += "."
			}
			scored = append(scored, ScoredSentence{
				Text:      clean,
				Score:     score,
				Offset:    -1,
				Paragraph: pi,
				Position:  i,
			})
		}
	}
	return scored
}

// Select keeps the top min(2n, len) candidates by score. If that leaves more
// than n, they are re-sorted by where they occur in text and cut to n.
func Select(text string, scored []ScoredSentence, n int) []ScoredSentence {
	ranked := make([]ScoredSentence, len(scored))
	copy(ranked, scored)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	selected := ranked[:min(2*n, len(ranked))]
	if len(selected) <= n {
		return selected
	}

	for i := range selected {
		selected[i].Offset = locate(text, selected[i].Text)
	}
	// Sentences that cannot be located keep score order after the located ones.
	sort.SliceStable(selected, func(i, j int) bool {
		a, b := selected[i].Offset, selected[j].Offset
		if a < 0 || b < 0 {
			return a >= 0 && b < 0
		}
		return a < b
	})
	return selected[:n]
}

// locate finds the approximate offset of a sentence: first the exact text
// without its trailing period, then its first five words. Returns -1 when
// neither is found.
func locate(text, sentence string) int {
	if pos := strings.Index(text, strings.TrimRight(sentence, ".")); pos >= 0 {
		return pos
	}
	words := strings.Fields(sentence)
	if len(words) > 5 {
		words = words[:5]
	}
	return strings.Index(text, strings.Join(words, " "))
}

// Fallback is an external summarizer consulted when the heuristic finds
// nothing. Init is called once, before any Summarize call.
type Fallback interface {
	Name() string
	Init(ctx context.Context) error
	Summarize(ctx context.Context, text string, n int) ([]string, error)
}

// Method names which stage produced a summary.
type Method string

const (
	MethodHeuristic Method = "heuristic"
	MethodSentinel  Method = "sentinel"
)

// Summary is a chapter summary with its provenance.
type Summary struct {
	Sentences []string `json:"sentences"`
	Method    Method   `json:"method"`
}

// Summarizer runs the heuristic and, when it comes back empty, the fallback.
type Summarizer struct {
	fallback Fallback
	log      *slog.Logger

	once    sync.Once
	ready   bool
	initErr error
}

// New creates a Summarizer. fallback may be nil.
func New(fallback Fallback, log *slog.Logger) *Summarizer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Summarizer{fallback: fallback, log: log}
}

// Init prepares the fallback. Only the first call does any work; later calls
// return the first call's error.
func (s *Summarizer) Init(ctx context.Context) error {
	s.once.Do(func() {
		if s.fallback == nil {
			return
		}
		if err := s.fallback.Init(ctx); err != nil {
			s.initErr = fmt.Errorf("init %s fallback: %w", s.fallback.Name(), err)
			s.log.Warn("fallback summarizer unavailable", "fallback", s.fallback.Name(), "error", err)
			return
		}
		s.ready = true
	})
	return s.initErr
}

// Available reports whether an initialized fallback is present.
func (s *Summarizer) Available() bool {
	return s.fallback != nil && s.ready
}

// FallbackName returns the configured fallback's name, or "none".
func (s *Summarizer) FallbackName() string {
	if s.fallback == nil {
		return "none"
	}
	return s.fallback.Name()
}

// Summarize returns n sentences for text, or a single sentinel message.
func (s *Summarizer) Summarize(ctx context.Context, text string, n int) []string {
	return s.SummarizeDetailed(ctx, text, n).Sentences
}

// SummarizeDetailed is Summarize with the producing stage recorded.
func (s *Summarizer) SummarizeDetailed(ctx context.Context, text string, n int) Summary {
	if n <= 0 {
		n = DefaultSentences
	}

	res := Heuristic(text, n)
	switch res.Outcome {
	case OutcomeOK:
		return Summary{Sentences: res.Sentences, Method: MethodHeuristic}
	case OutcomeTooShort:
		return Summary{Sentences: res.Sentences, Method: MethodSentinel}
	}

	s.log.Debug("heuristic summary empty", "reason", res.Reason)
	if !s.Available() {
		return Summary{Sentences: []string{UnavailableMessage}, Method: MethodSentinel}
	}

	sentences, err := s.fallback.Summarize(ctx, text, n)
	if err != nil {
		s.log.Warn("fallback summarizer failed", "fallback", s.fallback.Name(), "error", err)
		return Summary{Sentences: []string{fmt.Sprintf("Summarization error: %s", err)}, Method: MethodSentinel}
	}
	if len(sentences) == 0 {
		s.log.Warn("fallback summarizer returned nothing", "fallback", s.fallback.Name())
		return Summary{Sentences: []string{EmptyFallbackMessage}, Method: MethodSentinel}
	}
	if len(sentences) > n {
		sentences = sentences[:n]
	}
	return Summary{Sentences: sentences, Method: Method(s.fallback.Name())}
}
