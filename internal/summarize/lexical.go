package summarize

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
)

type analyzer interface {
	Analyze([]byte) analysis.TokenStream
}

// Lexical is a term-frequency summarizer. Sentences are analyzed with the
// English analyzer (stop words removed, stems folded) and ranked by the mean
// chapter-wide frequency of their terms.
type Lexical struct {
	analyzer analyzer
}

// NewLexical returns an uninitialized Lexical fallback.
func NewLexical() *Lexical {
	return &Lexical{}
}

func (l *Lexical) Name() string { return "lexical" }

func (l *Lexical) Init(_ context.Context) error {
	m := bleve.NewIndexMapping()
	a := m.AnalyzerNamed(en.AnalyzerName)
	if a == nil {
		return fmt.Errorf("analyzer %q not registered", en.AnalyzerName)
	}
	l.analyzer = a
	return nil
}

// Summarize returns up to n sentences in text order.
func (l *Lexical) Summarize(_ context.Context, text string, n int) ([]string, error) {
	if l.analyzer == nil {
		return nil, errors.New("lexical summarizer not initialized")
	}

	var sentences []string
	for _, p := range splitByParagraphs(text) {
		sentences = append(sentences, splitSentences(p)...)
	}
	if len(sentences) == 0 {
		return nil, errors.New("no sentences found")
	}

	terms := make([][]string, len(sentences))
	freq := make(map[string]int)
	for i, s := range sentences {
		for _, tok := range l.analyzer.Analyze([]byte(s)) {
			t := string(tok.Term)
			terms[i] = append(terms[i], t)
			freq[t]++
		}
	}

	type ranked struct {
		idx   int
		score float64
	}
	var rs []ranked
	for i, ts := range terms {
		if len(ts) == 0 {
			continue
		}
		var sum int
		for _, t := range ts {
			sum += freq[t]
		}
		rs = append(rs, ranked{idx: i, score: float64(sum) / float64(len(ts))})
	}
	if len(rs) == 0 {
		return nil, errors.New("no content terms found")
	}

	sort.SliceStable(rs, func(i, j int) bool { return rs[i].score > rs[j].score })
	rs = rs[:min(n, len(rs))]
	sort.Slice(rs, func(i, j int) bool { return rs[i].idx < rs[j].idx })

	out := make([]string, len(rs))
	for i, r := range rs {
		s := sentences[r.idx]
		if !strings.HasSuffix(s, ".") {
			s += "."
		}
		out[i] = s
	}
	return out, nil
}
