// Package report renders distilled chapters as text, JSON or Markdown.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/dgallion1/distill/internal/distill"
	"github.com/dgallion1/distill/internal/doctree"
)

const (
	UnknownTitle  = "Unknown Title"
	UnknownAuthor = "Unknown Author"

	missingContent = "[Could not extract content]"
	bannerWidth    = 60
)

// Format names an output renderer.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// ParseFormat accepts text, json, markdown (or md). Empty means text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// ContentType returns the HTTP content type for a format.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	}
	return "text/plain; charset=utf-8"
}

// Report is the renderable result of one distill run.
type Report struct {
	Title          string            `json:"title"`
	Author         string            `json:"author"`
	Source         string            `json:"source,omitempty"`
	IncludeSummary bool              `json:"-"`
	Chapters       []distill.Chapter `json:"chapters"`
}

// New builds a Report, substituting placeholders for missing metadata.
func New(book *doctree.Book, chapters []distill.Chapter, includeSummary bool) Report {
	r := Report{
		Title:          book.Title,
		Author:         book.Author,
		Source:         book.Source,
		IncludeSummary: includeSummary,
		Chapters:       chapters,
	}
	if strings.TrimSpace(r.Title) == "" {
		r.Title = UnknownTitle
	}
	if strings.TrimSpace(r.Author) == "" {
		r.Author = UnknownAuthor
	}
	return r
}

// Options tunes rendering.
type Options struct {
	Color          bool // style text output when the writer supports it
	IncludeContent bool // include chapter markup (JSON) or converted body (Markdown)
}

// Write renders r in format f.
func Write(w io.Writer, r Report, f Format, opts Options) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, r, opts)
	case FormatMarkdown:
		return WriteMarkdown(w, r, opts)
	default:
		return WriteText(w, r, opts)
	}
}

type textStyles struct {
	enabled                                 bool
	banner, heading, label, bullet, missing lipgloss.Style
}

func newTextStyles(w io.Writer, color bool) textStyles {
	if !color {
		return textStyles{}
	}
	re := lipgloss.NewRenderer(w)
	return textStyles{
		enabled: true,
		banner:  re.NewStyle().Foreground(lipgloss.Color("#888888")),
		heading: re.NewStyle().Bold(true),
		label:   re.NewStyle().Foreground(lipgloss.Color("#666666")),
		bullet:  re.NewStyle().Foreground(lipgloss.Color("#00AA00")),
		missing: re.NewStyle().Foreground(lipgloss.Color("#FFAA00")).Italic(true),
	}
}

func (st textStyles) render(s lipgloss.Style, text string) string {
	if !st.enabled {
		return text
	}
	return s.Render(text)
}

// WriteText prints the classic table-of-contents listing.
func WriteText(w io.Writer, r Report, opts Options) error {
	st := newTextStyles(w, opts.Color)
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", st.render(st.label, "Title:"), st.render(st.heading, r.Title))
	fmt.Fprintf(&b, "%s %s\n", st.render(st.label, "Author:"), r.Author)

	banner := st.render(st.banner, strings.Repeat("=", bannerWidth))
	fmt.Fprintf(&b, "\n%s\n%s\n%s\n", banner, st.render(st.heading, "TABLE OF CONTENTS"), banner)

	for i, ch := range r.Chapters {
		fmt.Fprintf(&b, "%3d. %s\n", i+1, st.render(st.heading, ch.Title))
		fmt.Fprintf(&b, "     %s %s\n", st.render(st.label, "ID:"), ch.ID)
		fmt.Fprintf(&b, "     %s %s\n", st.render(st.label, "File:"), ch.Href)
		if r.IncludeSummary {
			if !ch.Found || ch.Markup == "" {
				fmt.Fprintf(&b, "     %s %s\n", st.render(st.label, "Summary:"), st.render(st.missing, missingContent))
			} else {
				fmt.Fprintf(&b, "     %s\n", st.render(st.label, "Summary:"))
				for _, s := range ch.Summary {
					fmt.Fprintf(&b, "       %s %s\n", st.render(st.bullet, "•"), s)
				}
			}
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\nTotal chapters extracted: %d\n", len(r.Chapters))
	_, err := io.WriteString(w, b.String())
	return err
}

type jsonReport struct {
	Report
	TotalChapters int `json:"total_chapters"`
}

// WriteJSON encodes the report. Chapter markup is omitted unless requested.
func WriteJSON(w io.Writer, r Report, opts Options) error {
	out := jsonReport{Report: r, TotalChapters: len(r.Chapters)}
	out.Chapters = make([]distill.Chapter, len(r.Chapters))
	for i, ch := range r.Chapters {
		if !opts.IncludeContent {
			ch.Markup = ""
		}
		if !r.IncludeSummary {
			ch.Summary, ch.SummaryMethod = nil, ""
		}
		out.Chapters[i] = ch
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// WriteMarkdown renders a Markdown document with a linked table of contents.
func WriteMarkdown(w io.Writer, r Report, opts Options) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n*%s*\n\n## Table of Contents\n\n", r.Title, r.Author)
	for _, ch := range r.Chapters {
		fmt.Fprintf(&b, "%s- [%s](#%s)\n", strings.Repeat("  ", ch.Depth), ch.Title, ch.ID)
	}

	for _, ch := range r.Chapters {
		fmt.Fprintf(&b, "\n<a id=\"%s\"></a>\n\n## %s\n\n", ch.ID, ch.Title)
		fmt.Fprintf(&b, "`%s`\n\n", ch.Href)

		if !ch.Found || ch.Markup == "" {
			b.WriteString("_" + missingContent + "_\n")
			continue
		}
		if r.IncludeSummary && len(ch.Summary) > 0 {
			for _, s := range ch.Summary {
				fmt.Fprintf(&b, "> - %s\n", s)
			}
			b.WriteString("\n")
		}
		if opts.IncludeContent {
			b.WriteString(chapterMarkdown(ch))
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "\n---\n\nTotal chapters extracted: %d\n", len(r.Chapters))
	_, err := io.WriteString(w, b.String())
	return err
}

// chapterMarkdown converts the chapter markup, falling back to its plain text.
func chapterMarkdown(ch distill.Chapter) string {
	md, err := htmltomarkdown.ConvertString(ch.Markup)
	if err != nil || strings.TrimSpace(md) == "" {
		return ch.Text + "\n"
	}
	return strings.TrimSpace(md) + "\n"
}
