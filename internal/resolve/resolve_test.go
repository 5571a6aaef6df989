package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/distill/internal/doctree"
)

func docs(names ...string) []doctree.DocumentItem {
	out := make([]doctree.DocumentItem, 0, len(names))
	for _, n := range names {
		out = append(out, doctree.DocumentItem{Name: n, Kind: doctree.KindDocument})
	}
	return out
}

func TestSplit(t *testing.T) {
	h := Split("large.xhtml#intro")
	assert.Equal(t, Href{Path: "large.xhtml", Fragment: "intro", HasFragment: true}, h)

	h = Split("large.xhtml")
	assert.Equal(t, Href{Path: "large.xhtml"}, h)

	h = Split("a.xhtml#b#c")
	assert.Equal(t, "a.xhtml", h.Path)
	assert.Equal(t, "b#c", h.Fragment)

	h = Split("a.xhtml#")
	assert.True(t, h.HasFragment)
	assert.Empty(t, h.Fragment)
}

func TestResolve_Exact(t *testing.T) {
	m := Resolve("ch1.xhtml#intro", docs("ch0.xhtml", "ch1.xhtml"))
	require.True(t, m.Found)
	assert.Equal(t, "ch1.xhtml", m.Item.Name)
	assert.Equal(t, StrategyExact, m.Strategy)
	assert.Equal(t, "intro", m.Href.Fragment)
}

func TestResolve_ItemHasPathPrefix(t *testing.T) {
	m := Resolve("chapter1.xhtml", docs("OEBPS/Text/chapter1.xhtml"))
	require.True(t, m.Found)
	assert.Equal(t, StrategySuffix, m.Strategy)
}

func TestResolve_HrefHasPathPrefix(t *testing.T) {
	m := Resolve("../Text/chapter1.xhtml", docs("chapter1.xhtml"))
	require.True(t, m.Found)
	assert.Equal(t, StrategyReverse, m.Strategy)
}

func TestResolve_Basename(t *testing.T) {
	m := Resolve("OPS/a/chapter1.xhtml", docs("Text/b/chapter1.xhtml"))
	require.True(t, m.Found)
	assert.Equal(t, StrategyBasename, m.Strategy)
	assert.Equal(t, "Text/b/chapter1.xhtml", m.Item.Name)
}

func TestResolve_ExactBeatsEarlierSuffixMatch(t *testing.T) {
	m := Resolve("ch1.xhtml", docs("OEBPS/ch1.xhtml", "ch1.xhtml"))
	require.True(t, m.Found)
	assert.Equal(t, "ch1.xhtml", m.Item.Name)
	assert.Equal(t, StrategyExact, m.Strategy)
}

func TestResolve_TieWithinStrategyTakesFirstItem(t *testing.T) {
	m := Resolve("ch1.xhtml", docs("a/ch1.xhtml", "b/ch1.xhtml"))
	require.True(t, m.Found)
	assert.Equal(t, "a/ch1.xhtml", m.Item.Name)
}

func TestResolve_SkipsAssets(t *testing.T) {
	items := []doctree.DocumentItem{
		{Name: "ch1.xhtml", Kind: doctree.KindAsset},
		{Name: "text/ch1.xhtml", Kind: doctree.KindDocument},
	}
	m := Resolve("ch1.xhtml", items)
	require.True(t, m.Found)
	assert.Equal(t, "text/ch1.xhtml", m.Item.Name)
}

func TestResolve_NoMatch(t *testing.T) {
	m := Resolve("missing.xhtml#x", docs("ch1.xhtml", "ch2.xhtml"))
	assert.False(t, m.Found)
	assert.Equal(t, StrategyNone, m.Strategy)
	assert.Equal(t, "x", m.Href.Fragment)
}

func TestResolve_TrailingSlashHasNoBasename(t *testing.T) {
	m := Resolve("x/dir/", docs("y/dir/"))
	assert.False(t, m.Found)
}

func TestResolve_Deterministic(t *testing.T) {
	items := docs("OEBPS/a.xhtml", "OEBPS/b.xhtml", "a.xhtml", "c/b.xhtml")
	first := Resolve("b.xhtml#s", items)
	for range 20 {
		assert.Equal(t, first, Resolve("b.xhtml#s", items))
	}
}
