// Package distill runs the per-chapter pipeline over a loaded book: resolve
// the TOC href, cut out its section, flatten it to text and summarize it.
package distill

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/distill/internal/doctree"
	"github.com/dgallion1/distill/internal/flatten"
	"github.com/dgallion1/distill/internal/resolve"
	"github.com/dgallion1/distill/internal/section"
	"github.com/dgallion1/distill/internal/summarize"
)

// Chapter is one TOC entry with its extracted content.
type Chapter struct {
	doctree.Entry
	Found         bool             `json:"found"`
	Resolution    resolve.Strategy `json:"resolution,omitempty"`
	Section       section.Kind     `json:"section,omitempty"`
	Markup        string           `json:"markup,omitempty"`
	Text          string           `json:"-"`
	Summary       []string         `json:"summary,omitempty"`
	SummaryMethod summarize.Method `json:"summary_method,omitempty"`
	Error         string           `json:"error,omitempty"`
}

// Options controls Chapters.
type Options struct {
	Summary   bool
	Sentences int
	// Progress, when set, is called after each chapter is processed.
	Progress func(done, total int)
}

// Distiller processes one loaded book.
type Distiller struct {
	book       *doctree.Book
	docs       []doctree.DocumentItem
	summarizer *summarize.Summarizer
	log        *slog.Logger
}

// New creates a Distiller. summarizer may be nil when no summaries are wanted.
func New(book *doctree.Book, summarizer *summarize.Summarizer, log *slog.Logger) *Distiller {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Distiller{book: book, docs: book.Items, summarizer: summarizer, log: log}
}

func (d *Distiller) Book() *doctree.Book { return d.book }

// Entries returns the flattened TOC with chapter ids.
func (d *Distiller) Entries() []doctree.Entry {
	return doctree.Flatten(d.book.TOC)
}

// ChapterMarkup resolves href and extracts the addressed section. The
// returned Match reports whether a document was found; when it was not, the
// Section is empty.
func (d *Distiller) ChapterMarkup(href string) (section.Section, resolve.Match) {
	m := resolve.Resolve(href, d.docs)
	if d.log.Enabled(context.Background(), slog.LevelDebug) {
		names := make([]string, 0, len(d.docs))
		for _, it := range d.docs {
			if it.IsDocument() {
				names = append(names, it.Name)
			}
		}
		d.log.Debug("resolving href",
			"href", href,
			"path", m.Href.Path,
			"fragment", m.Href.Fragment,
			"available", names,
			"strategy", string(m.Strategy),
			"found", m.Found,
		)
	}
	if !m.Found {
		return section.Section{}, m
	}

	sec := section.Extract(m.Item.Content, m.Href.Fragment, m.Href.HasFragment)
	d.log.Debug("extracted section", "href", href, "kind", string(sec.Kind), "chars", len(sec.Markup), "degraded", sec.Degraded)
	return sec, m
}

// BuildChapterMapping maps every chapter id to its extracted markup, in TOC
// order. Unresolved chapters map to the empty string.
func (d *Distiller) BuildChapterMapping() (*doctree.ChapterMapping, error) {
	mapping := doctree.NewChapterMapping()
	for _, e := range d.Entries() {
		sec, _ := d.ChapterMarkup(e.Href)
		if err := mapping.Set(e.ID, sec.Markup); err != nil {
			return nil, err
		}
	}
	return mapping, nil
}

// Extract resolves and flattens every chapter without summarizing.
func (d *Distiller) Extract(ctx context.Context, progress func(done, total int)) ([]Chapter, error) {
	entries := d.Entries()
	chapters := make([]Chapter, 0, len(entries))
	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			return chapters, err
		}
		chapters = append(chapters, d.extractOne(e))
		if progress != nil {
			progress(i+1, len(entries))
		}
	}
	return chapters, nil
}

// extractOne isolates failures so one bad chapter never stops the rest.
func (d *Distiller) extractOne(e doctree.Entry) (ch Chapter) {
	ch.Entry = e
	defer func() {
		if r := recover(); r != nil {
			d.log.Warn("chapter extraction failed", "chapter", e.ID, "panic", r)
			ch = Chapter{Entry: e, Error: fmt.Sprintf("extraction failed: %v", r)}
		}
	}()

	sec, m := d.ChapterMarkup(e.Href)
	if !m.Found {
		d.log.Debug("no document for href", "chapter", e.ID, "href", e.Href)
		return ch
	}
	ch.Found = true
	ch.Resolution = m.Strategy
	ch.Section = sec.Kind
	ch.Markup = sec.Markup
	ch.Text = flatten.Text(sec.Markup, flatten.Options{SkipTitle: sec.Scope == section.ScopeDocument})
	return ch
}

// Summarize fills in summaries for every found chapter.
func (d *Distiller) Summarize(ctx context.Context, chapters []Chapter, n int, progress func(done, total int)) error {
	if d.summarizer == nil {
		return fmt.Errorf("no summarizer configured")
	}
	for i := range chapters {
		if err := ctx.Err(); err != nil {
			return err
		}
		ch := &chapters[i]
		if ch.Found {
			s := d.summarizer.SummarizeDetailed(ctx, ch.Text, n)
			ch.Summary, ch.SummaryMethod = s.Sentences, s.Method
		}
		if progress != nil {
			progress(i+1, len(chapters))
		}
	}
	return nil
}

// Chapters extracts every chapter and, if requested, summarizes it.
func (d *Distiller) Chapters(ctx context.Context, opts Options) ([]Chapter, error) {
	chapters, err := d.Extract(ctx, opts.Progress)
	if err != nil || !opts.Summary {
		return chapters, err
	}
	return chapters, d.Summarize(ctx, chapters, opts.Sentences, opts.Progress)
}
