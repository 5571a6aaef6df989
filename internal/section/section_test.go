package section

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/large_chapter.xhtml")
	require.NoError(t, err)
	return data
}

func TestExtract_NoFragmentReturnsCleanedDocument(t *testing.T) {
	content := loadFixture(t)
	s := Extract(content, "", false)

	assert.Equal(t, ScopeDocument, s.Scope)
	assert.Equal(t, KindWhole, s.Kind)
	assert.False(t, s.Degraded)
	assert.Contains(t, s.Markup, "Introduction Section")
	assert.Contains(t, s.Markup, "Future Directions")
	assert.NotContains(t, s.Markup, "trackSection")
	assert.NotContains(t, s.Markup, "color: #333")
}

func TestExtract_UnknownFragmentFallsBackToDocument(t *testing.T) {
	s := Extract(loadFixture(t), "does-not-exist", true)
	assert.Equal(t, ScopeDocument, s.Scope)
	assert.Equal(t, KindNotFound, s.Kind)
	assert.Contains(t, s.Markup, "Real-world Applications")
	assert.NotContains(t, s.Markup, "trackSection")
}

func TestExtract_EmptyFragmentIsWholeDocument(t *testing.T) {
	s := Extract(loadFixture(t), "", true)
	assert.Equal(t, KindWhole, s.Kind)
}

func TestExtract_HeadingStopsAtSameLevel(t *testing.T) {
	s := Extract(loadFixture(t), "intro", true)

	assert.Equal(t, ScopeFragment, s.Scope)
	assert.Equal(t, KindHeading, s.Kind)
	assert.True(t, strings.HasPrefix(s.Markup, `<h1 id="intro">`))
	assert.Contains(t, s.Markup, "fundamentals of machine learning")
	assert.Contains(t, s.Markup, "evolved significantly")
	assert.NotContains(t, s.Markup, "Methods and Approaches")
	assert.NotContains(t, s.Markup, "Supervised learning")
}

func TestExtract_HeadingIncludesDeeperSubsections(t *testing.T) {
	s := Extract(loadFixture(t), "methods", true)

	assert.Contains(t, s.Markup, "Supervised learning involves")
	assert.Contains(t, s.Markup, "Unsupervised Learning")
	assert.Contains(t, s.Markup, "Clustering algorithms")
	assert.NotContains(t, s.Markup, "Real-world Applications")
}

func TestExtract_SubheadingStopsAtShallowerHeading(t *testing.T) {
	s := Extract(loadFixture(t), "unsupervised", true)

	assert.Contains(t, s.Markup, "Clustering algorithms")
	assert.NotContains(t, s.Markup, "Supervised learning involves")
	assert.NotContains(t, s.Markup, "healthcare")
}

func TestExtract_AdjacentSameLevelHeadingYieldsHeadingOnly(t *testing.T) {
	s := Extract(loadFixture(t), "future", true)

	assert.Equal(t, KindHeading, s.Kind)
	assert.Equal(t, `<h1 id="future">Future Directions</h1>`, s.Markup)
}

func TestExtract_ContainerSubtree(t *testing.T) {
	s := Extract(loadFixture(t), "finance", true)

	assert.Equal(t, KindContainer, s.Kind)
	assert.True(t, strings.HasPrefix(s.Markup, `<div id="finance" class="case">`))
	assert.Contains(t, s.Markup, "fraud detection")
	assert.Contains(t, s.Markup, "financial institutions")
	assert.NotContains(t, s.Markup, "healthcare")
}

func TestExtract_OtherElementUsesContainerAncestor(t *testing.T) {
	s := Extract(loadFixture(t), "finance-note", true)

	assert.Equal(t, KindAncestor, s.Kind)
	assert.True(t, strings.HasPrefix(s.Markup, `<div id="finance"`))
	assert.Contains(t, s.Markup, "fraud detection")
}

func TestExtract_OtherElementFallsBackToBody(t *testing.T) {
	s := Extract(loadFixture(t), "inline-anchor", true)

	assert.Equal(t, KindAncestor, s.Kind)
	assert.True(t, strings.HasPrefix(s.Markup, "<body>"))
	assert.Contains(t, s.Markup, "Introduction Section")
	assert.NotContains(t, s.Markup, "trackSection")
}

func TestExtract_SiblingFragmentsAreDisjoint(t *testing.T) {
	content := loadFixture(t)
	intro := Extract(content, "intro", true)
	methods := Extract(content, "methods", true)

	for _, phrase := range []string{"introduction section of the large chapter", "evolved significantly"} {
		assert.Contains(t, intro.Markup, phrase)
		assert.NotContains(t, methods.Markup, phrase)
	}
	for _, phrase := range []string{"Supervised learning involves", "Clustering algorithms"} {
		assert.Contains(t, methods.Markup, phrase)
		assert.NotContains(t, intro.Markup, phrase)
	}
}

func TestExtract_DoesNotMutateSource(t *testing.T) {
	content := loadFixture(t)
	orig := bytes.Clone(content)

	_ = Extract(content, "intro", true)
	_ = Extract(content, "finance", true)
	_ = Extract(content, "", false)

	assert.Equal(t, orig, content)

	again := Extract(content, "intro", true)
	first := Extract(orig, "intro", true)
	assert.Equal(t, first, again)
}

const xhtmlSelfClosing = `<?xml version="1.0" encoding="utf-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>T</title><script type="text/javascript" src="a.js"/></head>
<body>
<h1>Title</h1>
<h2 id="a">Alpha</h2>
<p>Alpha body text here.</p>
<h2 id="b">Beta</h2>
<a id="x"/>
<p>Beta body text here.</p>
</body>
</html>`

func TestExtract_SelfClosingScriptKeepsBody(t *testing.T) {
	content := []byte(xhtmlSelfClosing)

	s := Extract(content, "", false)
	assert.Equal(t, KindWhole, s.Kind)
	assert.Contains(t, s.Markup, "Alpha body text here.")
	assert.Contains(t, s.Markup, "Beta body text here.")

	a := Extract(content, "a", true)
	assert.Equal(t, KindHeading, a.Kind)
	assert.Contains(t, a.Markup, "Alpha body text here.")
	assert.NotContains(t, a.Markup, "Beta")

	b := Extract(content, "b", true)
	assert.Equal(t, KindHeading, b.Kind)
	assert.Contains(t, b.Markup, "Beta body text here.")
}

func TestExtract_SelfClosingAnchorUsesAncestor(t *testing.T) {
	s := Extract([]byte(xhtmlSelfClosing), "x", true)
	assert.Equal(t, KindAncestor, s.Kind)
	assert.True(t, strings.HasPrefix(s.Markup, "<body>"))
	assert.Contains(t, s.Markup, `<a id="x"></a>`)
}
