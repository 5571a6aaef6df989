package parser

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/distill/internal/doctree"
)

func loadEPUB(t *testing.T, data []byte) *doctree.Book {
	t.Helper()
	book, err := (&EPUBLoader{}).Load(bytes.NewReader(data), int64(len(data)), "test.epub")
	require.NoError(t, err)
	return book
}

func TestEPUB_ManifestItemsAndMetadata(t *testing.T) {
	book := loadEPUB(t, ncxBook(t))

	assert.Equal(t, "Test Book", book.Title)
	assert.Equal(t, "Ada Writer", book.Author)
	assert.Equal(t, "en", book.Language)
	assert.Equal(t, "test.epub", book.Source)

	require.Len(t, book.Items, 4)
	names := make([]string, len(book.Items))
	for i, it := range book.Items {
		names[i] = it.Name
	}
	assert.Equal(t, []string{"toc.ncx", "style.css", "ch1.xhtml", "ch2.xhtml"}, names)

	docs := book.Documents()
	require.Len(t, docs, 2)
	assert.Equal(t, "ch1.xhtml", docs[0].Name)
	assert.Contains(t, string(docs[0].Content), "Opening words.")
	assert.False(t, book.Items[1].IsDocument())
}

func TestEPUB_NCXTableOfContents(t *testing.T) {
	book := loadEPUB(t, ncxBook(t))

	require.Len(t, book.TOC, 2)
	part, ok := book.TOC[0].(*doctree.Branch)
	require.True(t, ok, "first entry should be a branch")
	assert.Equal(t, "Part One", part.Title)
	assert.Equal(t, "ch1.xhtml", part.Href)
	require.Len(t, part.Children, 1)
	assert.Equal(t, "ch1.xhtml#s11", part.Children[0].Target())

	leaf, ok := book.TOC[1].(*doctree.Leaf)
	require.True(t, ok)
	assert.Equal(t, "Chapter Two", leaf.Title)

	entries := doctree.Flatten(book.TOC)
	require.Len(t, entries, 3)
	assert.Equal(t, "chapter_001", entries[0].ID)
	assert.Equal(t, "chapter_003", entries[2].ID)
}

func TestEPUB_NavDocumentTableOfContents(t *testing.T) {
	data := buildEPUB(t, map[string]string{
		"META-INF/container.xml": containerXML,
		"OEBPS/content.opf": opf(`
    <item id="nav" href="nav.xhtml" media-type="application/xhtml+xml" properties="nav"/>
    <item id="ch1" href="ch1.xhtml" media-type="application/xhtml+xml"/>
    <item id="ch2" href="ch2.xhtml" media-type="application/xhtml+xml"/>`,
			`<itemref idref="ch1"/><itemref idref="ch2"/>`),
		"OEBPS/nav.xhtml": navDoc,
		"OEBPS/ch1.xhtml": chapterOne,
		"OEBPS/ch2.xhtml": chapterTwo,
	})
	book := loadEPUB(t, data)

	require.Len(t, book.TOC, 2)
	assert.Equal(t, "Part One", book.TOC[0].Label())
	branch, ok := book.TOC[0].(*doctree.Branch)
	require.True(t, ok)
	assert.Equal(t, "ch1.xhtml#s11", branch.Children[0].Target())
	assert.Equal(t, "ch2.xhtml", book.TOC[1].Target())
}

func TestEPUB_SpineFallback(t *testing.T) {
	data := buildEPUB(t, map[string]string{
		"META-INF/container.xml": containerXML,
		"OEBPS/content.opf": opf(`
    <item id="ch1" href="text/ch1.xhtml" media-type="application/xhtml+xml"/>
    <item id="ch2" href="text/ch2.xhtml" media-type="application/xhtml+xml"/>`,
			`<itemref idref="ch2"/><itemref idref="ch1"/>`),
		"OEBPS/text/ch1.xhtml": chapterOne,
		"OEBPS/text/ch2.xhtml": chapterTwo,
	})
	book := loadEPUB(t, data)

	require.Len(t, book.TOC, 2)
	assert.Equal(t, "Chapter Two", book.TOC[0].Label())
	assert.Equal(t, "text/ch2.xhtml", book.TOC[0].Target())
	assert.Equal(t, "Part One", book.TOC[1].Label())
}

func TestEPUB_NotAZip(t *testing.T) {
	data := []byte("definitely not a zip archive")
	_, err := (&EPUBLoader{}).Load(bytes.NewReader(data), int64(len(data)), "bad.epub")
	assert.Error(t, err)
}

func TestRebase(t *testing.T) {
	assert.Equal(t, "text/ch1.xhtml#a", rebase("text", "ch1.xhtml#a"))
	assert.Equal(t, "ch1.xhtml", rebase(".", "ch1.xhtml"))
	assert.Equal(t, "images/x.png", rebase("text", "../images/x.png"))
	assert.Equal(t, "#frag", rebase("text", "#frag"))
}
