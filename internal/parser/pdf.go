package parser

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
	"golang.org/x/net/html"

	"github.com/dgallion1/distill/internal/doctree"
)

// PDFLoader handles PDF files. Each non-empty page becomes one document
// item and one TOC entry. When the Go library fails and FallbackPdftotext
// is set, pdftotext is tried instead.
type PDFLoader struct {
	FallbackPdftotext bool
}

func (l *PDFLoader) Load(r io.ReaderAt, size int64, filename string) (*doctree.Book, error) {
	pages, err := pdfPages(r, size)
	if err != nil && l.FallbackPdftotext {
		pages, err = pdftotextPages(r, size)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	book := &doctree.Book{Title: stem(filename), Source: filename}
	for i, page := range pages {
		page = strings.TrimSpace(page)
		if page == "" {
			continue
		}
		name := fmt.Sprintf("page-%03d.xhtml", i+1)
		label := fmt.Sprintf("Page %d", i+1)
		book.Items = append(book.Items, doctree.DocumentItem{
			Name:      name,
			Kind:      doctree.KindDocument,
			MediaType: "application/xhtml+xml",
			Content:   xhtmlDocument(label, paragraphsHTML(page)),
		})
		book.TOC = append(book.TOC, &doctree.Leaf{Title: label, Href: name})
	}
	return book, nil
}

func pdfPages(r io.ReaderAt, size int64) (pages []string, err error) {
	defer func() {
		if p := recover(); p != nil {
			pages, err = nil, fmt.Errorf("pdf reader panic: %v", p)
		}
	}()

	reader, err := pdflib.NewReader(r, size)
	if err != nil {
		return nil, err
	}
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// pdftotextPages shells out to pdftotext, which needs a file on disk.
func pdftotextPages(r io.ReaderAt, size int64) ([]string, error) {
	tmp, err := os.CreateTemp("", "distill-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, io.NewSectionReader(r, 0, size)); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	out, err := exec.Command("pdftotext", "-layout", tmpPath, "-").Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	return strings.Split(string(out), "\f"), nil
}

// paragraphsHTML turns blank-line separated text into <p> elements.
func paragraphsHTML(text string) string {
	var sb strings.Builder
	for _, para := range splitParagraphs(text) {
		sb.WriteString("<p>")
		sb.WriteString(html.EscapeString(strings.Join(strings.Fields(para), " ")))
		sb.WriteString("</p>\n")
	}
	return sb.String()
}
