package flatten

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText_HeadingsAndParagraphs(t *testing.T) {
	src := `<html><head><title>T</title><style>h1{}</style></head><body>
<h1>Chapter Title</h1>
<p>First paragraph   here.</p>
<h2>Section</h2>
<p>Second <em>paragraph</em>.</p>
<script>alert(1)</script>
</body></html>`

	got := Text(src, Options{SkipTitle: true})
	assert.Equal(t, "First paragraph here.\n\nSection\nSecond paragraph.", got)
}

func TestText_FragmentKeepsFirstHeading(t *testing.T) {
	src := `<h1 id="intro">Introduction</h1><p>Body text.</p>`
	got := Text(src, Options{})
	assert.Equal(t, "Introduction\nBody text.", got)
}

func TestText_SkipsOnlyFirstHeadingOfAnyLevel(t *testing.T) {
	src := `<body><h2>Title</h2><p>a</p><h2>Next</h2><p>b</p></body>`
	got := Text(src, Options{SkipTitle: true})
	assert.Equal(t, "a\n\nNext\nb", got)
}

func TestText_DivDirectTextOnly(t *testing.T) {
	src := `<body><div>Loose words<p>Inner para.</p></div><section><p>Only nested.</p></section></body>`
	got := Text(src, Options{})
	assert.Equal(t, "Loose words\n\nInner para.\n\nOnly nested.", got)
}

func TestText_DropsNoiseTags(t *testing.T) {
	src := `<html><head><meta charset="utf-8"><link rel="stylesheet" href="x.css"></head>
<body><p>Visible.</p><script>hidden()</script><style>.x{}</style></body></html>`
	got := Text(src, Options{})
	assert.Equal(t, "Visible.", got)
}

func TestText_FallbackToAllText(t *testing.T) {
	src := `<body><span>one</span> <span>two</span><ul><li>three</li></ul></body>`
	got := Text(src, Options{})
	assert.Equal(t, "one two three", got)
}

func TestText_Empty(t *testing.T) {
	assert.Equal(t, "", Text("", Options{}))
}

func TestNormalize(t *testing.T) {
	in := "  a\n \n\n\n b\t\tc  \n\n\n"
	assert.Equal(t, "a\n\n b c", Normalize(in))
}

func TestNormalize_CompatibilityForms(t *testing.T) {
	assert.Equal(t, "fine art", Normalize("ﬁne art"))
}

func TestNormalize_FixedPoint(t *testing.T) {
	inputs := []string{
		"a  b\n\n\n\nc",
		"\t x \n \t \n y \n",
		"one\n\ntwo\nthree   four",
		"",
		"\n\n\n",
		"α  β  γ\n \n\n δ",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestText_OutputIsNormalized(t *testing.T) {
	src := `<body><h1>T</h1><p>a   b</p><h2>  H </h2><p>c</p><div>d <b>e</b></div></body>`
	out := Text(src, Options{SkipTitle: true})
	assert.Equal(t, out, Normalize(out))
}

func TestText_SelfClosingHeadTags(t *testing.T) {
	src := `<?xml version="1.0" encoding="utf-8"?>
<html xmlns="http://www.w3.org/1999/xhtml"><head><title/><script type="text/javascript" src="a.js"/></head>
<body><h1>Title</h1><p>Alpha body text here.</p></body></html>`

	got := Text(src, Options{SkipTitle: true})
	assert.Equal(t, "Alpha body text here.", got)
}

func TestText_SelfClosingAnchorIsEmpty(t *testing.T) {
	src := `<body><a id="x"/><h2>Sec</h2><p>After text here.</p></body>`
	got := Text(src, Options{})
	assert.Equal(t, "Sec\nAfter text here.", got)
}
