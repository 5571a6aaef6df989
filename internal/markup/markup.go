// Package markup wraps parsed HTML/XHTML documents with the small set of
// navigation helpers the section extractor and flattener need.
package markup

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Document is a parsed markup tree. Each Document owns its nodes; parsing
// the same bytes twice yields two independent trees.
type Document struct {
	doc *goquery.Document
}

// Parse builds a Document from raw bytes. Self-closing tags are honored as
// XHTML does, so <title/> or <a id="x"/> end where they start.
func Parse(content []byte) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(ExpandSelfClosing(content)))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}
	return &Document{doc: doc}, nil
}

var selfClosingRe = regexp.MustCompile(`<([A-Za-z][A-Za-z0-9:_.-]*)((?:\s+[^\s"'<>/=]+(?:\s*=\s*(?:"[^"]*"|'[^']*'|[^\s"'<>]+))?)*)\s*/>`)

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
	"basefont": true, "frame": true, "keygen": true,
}

// ExpandSelfClosing rewrites <tag .../> as <tag ...></tag> for every tag that
// is not an HTML void element. The HTML5 tokenizer ignores the trailing
// slash, which would leave <title/> or <script/> open as raw text.
func ExpandSelfClosing(content []byte) []byte {
	if !bytes.Contains(content, []byte("/>")) {
		return content
	}
	return selfClosingRe.ReplaceAllFunc(content, func(m []byte) []byte {
		sub := selfClosingRe.FindSubmatch(m)
		tag := string(sub[1])
		if voidElements[strings.ToLower(tag)] {
			return m
		}
		out := make([]byte, 0, len(m)+len(tag)+3)
		out = append(out, '<')
		out = append(out, sub[1]...)
		out = append(out, sub[2]...)
		out = append(out, "></"...)
		out = append(out, sub[1]...)
		return append(out, '>')
	})
}

// ParseString is Parse for string input.
func ParseString(s string) (*Document, error) {
	return Parse([]byte(s))
}

// Selection exposes the goquery selection rooted at the document node.
func (d *Document) Selection() *goquery.Selection {
	return d.doc.Selection
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	return d.doc.Nodes[0]
}

// Remove deletes every element with one of the given tag names, including descendants.
func (d *Document) Remove(tags ...string) {
	if len(tags) == 0 {
		return
	}
	d.doc.Find(strings.Join(tags, ", ")).Remove()
}

// FindByID returns the first element whose id attribute equals id exactly.
// Attribute comparison avoids CSS selector escaping for ids such as "1.2".
func (d *Document) FindByID(id string) *html.Node {
	var found *html.Node
	d.doc.Find("[id]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, _ := s.Attr("id"); v == id {
			found = s.Nodes[0]
			return false
		}
		return true
	})
	return found
}

// Body returns the body element, or nil if the tree has none.
func (d *Document) Body() *html.Node {
	return findElement(d.Root(), "body")
}

// Title returns the text of the <title> element, if any.
func (d *Document) Title() string {
	if n := findElement(d.Root(), "title"); n != nil {
		return TextContent(n)
	}
	return ""
}

// FirstHeading returns the text of the first h1-h6 in document order.
func (d *Document) FirstHeading() string {
	var out string
	d.doc.Find("h1, h2, h3, h4, h5, h6").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		out = strings.Join(strings.Fields(s.Text()), " ")
		return out == ""
	})
	return out
}

// HTML renders the whole document.
func (d *Document) HTML() (string, error) {
	return d.doc.Html()
}

// Render serializes nodes in order, concatenated.
func Render(nodes ...*html.Node) (string, error) {
	var buf bytes.Buffer
	for _, n := range nodes {
		if n.Type == html.TextNode {
			buf.WriteString(html.EscapeString(n.Data))
			continue
		}
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("render %s: %w", Tag(n), err)
		}
	}
	return buf.String(), nil
}

// Tag returns the element name, or "" for non-element nodes.
func Tag(n *html.Node) string {
	if n == nil || n.Type != html.ElementNode {
		return ""
	}
	return n.Data
}

// Attr returns the value of an attribute on n.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// HeadingLevel returns 1-6 for h1-h6 and 0 for anything else.
func HeadingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

// IsBlockContainer reports whether tag is a sectioning container.
func IsBlockContainer(tag string) bool {
	switch tag {
	case "div", "section", "article", "main":
		return true
	}
	return false
}

// TextContent concatenates all descendant text with runs of whitespace
// collapsed to one space.
func TextContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

// DirectText joins the text children of n, ignoring text inside child elements.
func DirectText(n *html.Node) string {
	var buf strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			buf.WriteString(c.Data)
		}
	}
	return strings.Join(strings.Fields(buf.String()), " ")
}

// TextNodes returns each non-blank text node's trimmed content in document order.
func TextNodes(n *html.Node) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				out = append(out, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

// IsBlank reports whether n is a text node holding only whitespace.
func IsBlank(n *html.Node) bool {
	return n.Type == html.TextNode && strings.TrimSpace(n.Data) == ""
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}
