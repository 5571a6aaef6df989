package parser

import (
	"fmt"
	"io"

	"github.com/dgallion1/distill/internal/doctree"
	"github.com/dgallion1/distill/internal/markup"
)

// HTMLLoader handles standalone HTML and XHTML files. The file is its own
// single document item.
type HTMLLoader struct{}

func (l *HTMLLoader) Load(r io.ReaderAt, size int64, filename string) (*doctree.Book, error) {
	data, err := readAll(r, size)
	if err != nil {
		return nil, fmt.Errorf("read html: %w", err)
	}
	doc, err := markup.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return singleDocumentBook(filename, "application/xhtml+xml", data, doc), nil
}

// singleDocumentBook wraps one rendered document as a Book. The TOC comes
// from its id-bearing headings, or is one entry for the whole document.
func singleDocumentBook(filename, mediaType string, data []byte, doc *markup.Document) *doctree.Book {
	title := documentTitle(doc, stem(filename))
	book := &doctree.Book{
		Title:  title,
		Source: filename,
		Items: []doctree.DocumentItem{{
			Name:      filename,
			Kind:      doctree.KindDocument,
			MediaType: mediaType,
			Content:   data,
		}},
	}
	book.TOC = headingTOC(filename, doc)
	if len(book.TOC) == 0 {
		book.TOC = []doctree.Item{&doctree.Leaf{Title: title, Href: filename}}
	}
	return book
}
