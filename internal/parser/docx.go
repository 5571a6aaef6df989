package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/fumiama/go-docx"
	"golang.org/x/net/html"

	"github.com/dgallion1/distill/internal/doctree"
	"github.com/dgallion1/distill/internal/markup"
)

// DOCXLoader converts a .docx into one XHTML document. Heading-styled
// paragraphs become <hN id="section-K"> elements numbered in document order.
type DOCXLoader struct{}

func (l *DOCXLoader) Load(r io.ReaderAt, size int64, filename string) (*doctree.Book, error) {
	doc, err := docx.Parse(r, size)
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var (
		body    strings.Builder
		title   string
		section int
	)
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		txt := docxParagraphText(para)
		if txt == "" {
			continue
		}
		if level := docxHeadingLevel(para); level > 0 {
			section++
			if title == "" {
				title = txt
			}
			fmt.Fprintf(&body, "<h%d id=\"section-%d\">%s</h%d>\n", level, section, html.EscapeString(txt), level)
			continue
		}
		fmt.Fprintf(&body, "<p>%s</p>\n", html.EscapeString(txt))
	}

	if title == "" {
		title = stem(filename)
	}
	data := xhtmlDocument(title, body.String())
	parsed, err := markup.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse converted docx: %w", err)
	}
	return singleDocumentBook(filename, "application/xhtml+xml", data, parsed), nil
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if style == "title" {
		return 1
	}
	if rest, ok := strings.CutPrefix(style, "heading"); ok && len(rest) == 1 && rest[0] >= '1' && rest[0] <= '6' {
		return int(rest[0] - '0')
	}
	return 0
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
