package distill

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/distill/internal/doctree"
	"github.com/dgallion1/distill/internal/resolve"
	"github.com/dgallion1/distill/internal/section"
	"github.com/dgallion1/distill/internal/summarize"
)

const largeDoc = `<html><head><title>Large</title><script>track()</script></head><body>
<h1 id="intro">Introduction</h1>
<p>The introduction is a overview of the fundamental concepts that this book covers in depth for new readers.</p>
<p>It explains why the topic matters and how the chapters build on one another over the course of the text.</p>
<h1 id="methods">Methods</h1>
<p>Supervised learning uses labels.</p>
</body></html>`

const appendixDoc = `<html><head><title>Appendix</title><style>p{color:red}</style></head><body>
<h1>Appendix Title</h1>
<p>Reference tables and further reading for the curious reader who wants to explore the subject in more depth.</p>
</body></html>`

func testBook() *doctree.Book {
	return &doctree.Book{
		Title:  "Sample",
		Author: "A. Writer",
		Items: []doctree.DocumentItem{
			{Name: "OEBPS/styles.css", Kind: doctree.KindAsset, Content: []byte("p{}")},
			{Name: "OEBPS/large.xhtml", Kind: doctree.KindDocument, Content: []byte(largeDoc)},
			{Name: "OEBPS/appendix.xhtml", Kind: doctree.KindDocument, Content: []byte(appendixDoc)},
		},
		TOC: []doctree.Item{
			&doctree.Branch{Title: "Introduction", Href: "large.xhtml#intro", Children: []doctree.Item{
				&doctree.Leaf{Title: "Methods", Href: "large.xhtml#methods"},
			}},
			&doctree.Leaf{Title: "Appendix", Href: "appendix.xhtml"},
			&doctree.Leaf{Title: "Missing", Href: "nowhere.xhtml"},
		},
	}
}

func TestEntries(t *testing.T) {
	d := New(testBook(), nil, nil)
	entries := d.Entries()
	require.Len(t, entries, 4)
	assert.Equal(t, "chapter_001", entries[0].ID)
	assert.Equal(t, "chapter_002", entries[1].ID)
	assert.Equal(t, 1, entries[1].Depth)
	assert.Equal(t, "chapter_004", entries[3].ID)
}

func TestChapterMarkup_FragmentsAreDisjoint(t *testing.T) {
	d := New(testBook(), nil, nil)

	intro, m := d.ChapterMarkup("large.xhtml#intro")
	require.True(t, m.Found)
	assert.Equal(t, resolve.StrategySuffix, m.Strategy)
	assert.Equal(t, section.KindHeading, intro.Kind)

	methods, _ := d.ChapterMarkup("large.xhtml#methods")
	assert.Contains(t, intro.Markup, "fundamental concepts")
	assert.NotContains(t, intro.Markup, "Supervised learning")
	assert.Contains(t, methods.Markup, "Supervised learning")
	assert.NotContains(t, methods.Markup, "fundamental concepts")
}

func TestChapterMarkup_Unresolved(t *testing.T) {
	d := New(testBook(), nil, nil)
	sec, m := d.ChapterMarkup("nowhere.xhtml")
	assert.False(t, m.Found)
	assert.Empty(t, sec.Markup)
}

func TestBuildChapterMapping(t *testing.T) {
	d := New(testBook(), nil, nil)
	mapping, err := d.BuildChapterMapping()
	require.NoError(t, err)

	assert.Equal(t, []string{"chapter_001", "chapter_002", "chapter_003", "chapter_004"}, mapping.Keys())
	missing, ok := mapping.Get("chapter_004")
	assert.True(t, ok)
	assert.Empty(t, missing)
	appendix, _ := mapping.Get("chapter_003")
	assert.Contains(t, appendix, "Reference tables")
	assert.NotContains(t, appendix, "color:red")
}

func TestChapters_ExtractOnly(t *testing.T) {
	d := New(testBook(), nil, nil)
	var calls int
	chapters, err := d.Chapters(context.Background(), Options{Progress: func(done, total int) {
		calls++
		assert.Equal(t, 4, total)
	}})
	require.NoError(t, err)
	require.Len(t, chapters, 4)
	assert.Equal(t, 4, calls)

	assert.True(t, chapters[0].Found)
	assert.True(t, strings.HasPrefix(chapters[0].Text, "Introduction\n"))
	assert.Empty(t, chapters[0].Summary)

	// Whole-document chapters drop their title heading.
	assert.True(t, chapters[2].Found)
	assert.NotContains(t, chapters[2].Text, "Appendix Title")
	assert.Contains(t, chapters[2].Text, "Reference tables")

	assert.False(t, chapters[3].Found)
	assert.Empty(t, chapters[3].Text)
}

func TestChapters_WithSummaries(t *testing.T) {
	s := summarize.New(nil, nil)
	require.NoError(t, s.Init(context.Background()))
	d := New(testBook(), s, nil)

	chapters, err := d.Chapters(context.Background(), Options{Summary: true, Sentences: 1})
	require.NoError(t, err)

	require.NotEmpty(t, chapters[0].Summary)
	assert.LessOrEqual(t, len(chapters[0].Summary), 1)
	assert.Equal(t, summarize.MethodHeuristic, chapters[0].SummaryMethod)

	// Too short for a summary.
	assert.Equal(t, []string{summarize.TooShortMessage}, chapters[1].Summary)

	assert.Nil(t, chapters[3].Summary)
}

func TestChapters_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := New(testBook(), nil, nil)
	_, err := d.Chapters(ctx, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSummarize_RequiresSummarizer(t *testing.T) {
	d := New(testBook(), nil, nil)
	chapters, err := d.Extract(context.Background(), nil)
	require.NoError(t, err)
	assert.Error(t, d.Summarize(context.Background(), chapters, 2, nil))
}
