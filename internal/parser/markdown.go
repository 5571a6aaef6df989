package parser

import (
	"bytes"
	"fmt"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmparser "github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/distill/internal/doctree"
	"github.com/dgallion1/distill/internal/markup"
)

// MarkdownLoader renders Markdown to XHTML with goldmark. Headings get
// generated ids so they can serve as TOC targets.
type MarkdownLoader struct{}

func (l *MarkdownLoader) Load(r io.ReaderAt, size int64, filename string) (*doctree.Book, error) {
	src, err := readAll(r, size)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}

	md := goldmark.New(goldmark.WithParserOptions(gmparser.WithAutoHeadingID()))
	root := md.Parser().Parse(text.NewReader(src))

	var body bytes.Buffer
	if err := md.Renderer().Render(&body, src, root); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	title := firstMarkdownHeading(root, src)
	if title == "" {
		title = stem(filename)
	}
	data := xhtmlDocument(title, body.String())
	doc, err := markup.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse rendered markdown: %w", err)
	}

	book := singleDocumentBook(filename, "application/xhtml+xml", data, doc)
	book.Title = title
	return book, nil
}

// firstMarkdownHeading returns the text of the first level-1 heading.
func firstMarkdownHeading(root ast.Node, src []byte) string {
	var title string
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok && h.Level == 1 {
			title = headingText(h, src)
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return title
}

func headingText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(src))
			continue
		}
		buf.WriteString(headingText(c, src))
	}
	return buf.String()
}
