package doctree

import (
	"errors"
	"fmt"
)

// ItemKind separates readable documents from other container assets.
type ItemKind int

const (
	KindAsset ItemKind = iota
	KindDocument
)

// DocumentItem is one file inside a loaded book container.
type DocumentItem struct {
	Name      string // Path as referenced by the container manifest
	Kind      ItemKind
	MediaType string
	Content   []byte // Raw bytes; never modified after load
}

// IsDocument reports whether the item holds readable markup.
func (d DocumentItem) IsDocument() bool {
	return d.Kind == KindDocument
}

// Book is the result of loading a container file.
type Book struct {
	Title    string
	Author   string
	Language string
	Source   string         // Original filename
	Items    []DocumentItem // Container order
	TOC      []Item         // Nested table of contents
}

// Documents returns only the document items, in container order.
func (b *Book) Documents() []DocumentItem {
	var out []DocumentItem
	for _, it := range b.Items {
		if it.IsDocument() {
			out = append(out, it)
		}
	}
	return out
}

// Item is a table-of-contents node: either a *Leaf or a *Branch.
type Item interface {
	tocItem()
	Label() string
	Target() string
}

// Leaf is a TOC entry without children.
type Leaf struct {
	Title string
	Href  string
}

// Branch is a TOC entry with nested children. An empty Href means the
// branch is only a grouping heading and produces no entry of its own.
type Branch struct {
	Title    string
	Href     string
	Children []Item
}

func (*Leaf) tocItem()   {}
func (*Branch) tocItem() {}

func (l *Leaf) Label() string    { return l.Title }
func (l *Leaf) Target() string   { return l.Href }
func (b *Branch) Label() string  { return b.Title }
func (b *Branch) Target() string { return b.Href }

// Entry is a flattened TOC item with its generated chapter identifier.
type Entry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Href  string `json:"href"`
	Depth int    `json:"depth"`
}

// ChapterID formats the 1-based chapter identifier.
func ChapterID(n int) string {
	return fmt.Sprintf("chapter_%03d", n)
}

// Walk visits items depth-first, parent before children. The visitor
// receives the nesting depth starting at 0.
func Walk(items []Item, visit func(it Item, depth int)) {
	var walk func(items []Item, depth int)
	walk = func(items []Item, depth int) {
		for _, it := range items {
			if it == nil {
				continue
			}
			visit(it, depth)
			if b, ok := it.(*Branch); ok {
				walk(b.Children, depth+1)
			}
		}
	}
	walk(items, 0)
}

// Flatten assigns chapter identifiers in traversal order. Branches without
// an href are skipped but their children are still numbered.
func Flatten(items []Item) []Entry {
	var entries []Entry
	Walk(items, func(it Item, depth int) {
		if it.Target() == "" {
			return
		}
		entries = append(entries, Entry{
			ID:    ChapterID(len(entries) + 1),
			Title: it.Label(),
			Href:  it.Target(),
			Depth: depth,
		})
	})
	return entries
}

// ErrDuplicateChapter is returned when a chapter id is inserted twice.
var ErrDuplicateChapter = errors.New("duplicate chapter id")

// ChapterMapping maps chapter ids to extracted markup, preserving insertion order.
type ChapterMapping struct {
	keys   []string
	values map[string]string
}

func NewChapterMapping() *ChapterMapping {
	return &ChapterMapping{values: make(map[string]string)}
}

// Set inserts a chapter. Keys are unique.
func (m *ChapterMapping) Set(id, markup string) error {
	if _, ok := m.values[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateChapter, id)
	}
	m.keys = append(m.keys, id)
	m.values[id] = markup
	return nil
}

func (m *ChapterMapping) Get(id string) (string, bool) {
	v, ok := m.values[id]
	return v, ok
}

// Keys returns chapter ids in insertion order.
func (m *ChapterMapping) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

func (m *ChapterMapping) Len() int {
	return len(m.keys)
}

// Each calls fn for every chapter in insertion order.
func (m *ChapterMapping) Each(fn func(id, markup string)) {
	for _, k := range m.keys {
		fn(k, m.values[k])
	}
}
