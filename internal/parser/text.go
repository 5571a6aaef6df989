package parser

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/distill/internal/doctree"
)

// TextLoader handles plain text files as a single chapter.
type TextLoader struct{}

func (l *TextLoader) Load(r io.ReaderAt, size int64, filename string) (*doctree.Book, error) {
	data, err := readAll(r, size)
	if err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}

	title := stem(filename)
	return &doctree.Book{
		Title:  title,
		Source: filename,
		Items: []doctree.DocumentItem{{
			Name:      filename,
			Kind:      doctree.KindDocument,
			MediaType: "text/html",
			Content:   xhtmlDocument(title, paragraphsHTML(string(data))),
		}},
		TOC: []doctree.Item{&doctree.Leaf{Title: title, Href: filename}},
	}, nil
}

// splitParagraphs groups non-blank lines into paragraphs.
func splitParagraphs(text string) []string {
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			paragraphs = append(paragraphs, current.String())
			current.Reset()
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	flush()
	return paragraphs
}
