package doctree

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatten_DepthFirstParentBeforeChildren(t *testing.T) {
	toc := []Item{
		&Branch{Title: "Part One", Href: "part1.xhtml", Children: []Item{
			&Leaf{Title: "Chapter 1", Href: "ch1.xhtml"},
			&Branch{Title: "Chapter 2", Href: "ch2.xhtml", Children: []Item{
				&Leaf{Title: "Section 2.1", Href: "ch2.xhtml#s1"},
			}},
		}},
		&Leaf{Title: "Appendix", Href: "appendix.xhtml"},
	}

	entries := Flatten(toc)
	require.Len(t, entries, 5)

	wantTitles := []string{"Part One", "Chapter 1", "Chapter 2", "Section 2.1", "Appendix"}
	wantDepths := []int{0, 1, 1, 2, 0}
	for i, e := range entries {
		assert.Equal(t, fmt.Sprintf("chapter_%03d", i+1), e.ID)
		assert.Equal(t, wantTitles[i], e.Title)
		assert.Equal(t, wantDepths[i], e.Depth)
	}
}

func TestFlatten_BranchWithoutHrefNumbersChildrenOnly(t *testing.T) {
	toc := []Item{
		&Branch{Title: "Group", Children: []Item{
			&Leaf{Title: "A", Href: "a.xhtml"},
			&Leaf{Title: "B", Href: "b.xhtml"},
		}},
	}

	entries := Flatten(toc)
	require.Len(t, entries, 2)
	assert.Equal(t, "chapter_001", entries[0].ID)
	assert.Equal(t, "A", entries[0].Title)
	assert.Equal(t, "chapter_002", entries[1].ID)
}

func TestFlatten_IDsUniqueAndContiguous(t *testing.T) {
	var toc []Item
	for i := range 12 {
		children := []Item{
			&Leaf{Title: "x", Href: fmt.Sprintf("c%d.xhtml#a", i)},
			&Leaf{Title: "y", Href: fmt.Sprintf("c%d.xhtml#b", i)},
		}
		toc = append(toc, &Branch{Title: "c", Href: fmt.Sprintf("c%d.xhtml", i), Children: children})
	}

	entries := Flatten(toc)
	require.Len(t, entries, 36)
	seen := make(map[string]bool)
	for i, e := range entries {
		assert.False(t, seen[e.ID], "duplicate id %s", e.ID)
		seen[e.ID] = true
		assert.Equal(t, ChapterID(i+1), e.ID)
	}
	assert.Equal(t, "chapter_036", entries[35].ID)
}

func TestFlatten_Empty(t *testing.T) {
	assert.Empty(t, Flatten(nil))
}

func TestChapterMapping_PreservesOrder(t *testing.T) {
	m := NewChapterMapping()
	require.NoError(t, m.Set("chapter_002", "<p>b</p>"))
	require.NoError(t, m.Set("chapter_001", "<p>a</p>"))

	assert.Equal(t, []string{"chapter_002", "chapter_001"}, m.Keys())
	assert.Equal(t, 2, m.Len())

	v, ok := m.Get("chapter_001")
	assert.True(t, ok)
	assert.Equal(t, "<p>a</p>", v)

	var visited []string
	m.Each(func(id, _ string) { visited = append(visited, id) })
	assert.Equal(t, m.Keys(), visited)
}

func TestChapterMapping_RejectsDuplicate(t *testing.T) {
	m := NewChapterMapping()
	require.NoError(t, m.Set("chapter_001", ""))
	err := m.Set("chapter_001", "again")
	assert.ErrorIs(t, err, ErrDuplicateChapter)
	v, _ := m.Get("chapter_001")
	assert.Empty(t, v)
}

func TestBook_Documents(t *testing.T) {
	b := &Book{Items: []DocumentItem{
		{Name: "style.css", Kind: KindAsset},
		{Name: "ch1.xhtml", Kind: KindDocument},
		{Name: "cover.jpg", Kind: KindAsset},
		{Name: "ch2.xhtml", Kind: KindDocument},
	}}
	docs := b.Documents()
	require.Len(t, docs, 2)
	assert.Equal(t, "ch1.xhtml", docs[0].Name)
	assert.Equal(t, "ch2.xhtml", docs[1].Name)
}
