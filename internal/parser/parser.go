// Package parser loads book containers into a doctree.Book: the container's
// items plus a nested table of contents whose hrefs name those items.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/distill/internal/doctree"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrNoRootfile        = errors.New("no rootfile found in epub")
)

// Loader converts a container file into a Book.
type Loader interface {
	Load(r io.ReaderAt, size int64, filename string) (*doctree.Book, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".epub":     true,
	".html":     true,
	".htm":      true,
	".xhtml":    true,
	".md":       true,
	".markdown": true,
	".docx":     true,
	".pdf":      true,
	".txt":      true,
}

// Options tunes loader behavior.
type Options struct {
	PDFFallbackPdftotext bool
}

// ForFile returns the appropriate loader for a filename.
func ForFile(filename string, opts Options) (Loader, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".epub":
		return &EPUBLoader{}, nil
	case ".html", ".htm", ".xhtml":
		return &HTMLLoader{}, nil
	case ".md", ".markdown":
		return &MarkdownLoader{}, nil
	case ".docx":
		return &DOCXLoader{}, nil
	case ".pdf":
		return &PDFLoader{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".txt":
		return &TextLoader{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// LoadFile opens path and loads it with the loader for its extension.
func LoadFile(path string, opts Options) (*doctree.Book, error) {
	l, err := ForFile(path, opts)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open book: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat book: %w", err)
	}
	return l.Load(f, info.Size(), filepath.Base(path))
}

// LoadBytes loads an in-memory container, e.g. an uploaded file.
func LoadBytes(data []byte, filename string, opts Options) (*doctree.Book, error) {
	l, err := ForFile(filename, opts)
	if err != nil {
		return nil, err
	}
	return l.Load(bytes.NewReader(data), int64(len(data)), filepath.Base(filename))
}

func stem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func readAll(r io.ReaderAt, size int64) ([]byte, error) {
	return io.ReadAll(io.NewSectionReader(r, 0, size))
}
