// Package flatten converts a markup span into plain text with paragraph and
// heading boundaries kept as blank lines.
package flatten

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"

	"github.com/dgallion1/distill/internal/markup"
)

// Options controls flattening.
type Options struct {
	// SkipTitle drops the first heading encountered. Set for whole-document
	// spans, where that heading is the chapter title.
	SkipTitle bool
}

var noiseTags = []string{"script", "style", "meta", "link"}

// Text flattens markup into readable text.
func Text(src string, opts Options) string {
	doc, err := markup.ParseString(src)
	if err != nil {
		return Normalize(src)
	}
	doc.Remove(noiseTags...)

	root := doc.Body()
	if root == nil {
		root = doc.Root()
	}

	var parts []string
	skipTitle := opts.SkipTitle

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				switch tag := c.Data; {
				case markup.HeadingLevel(tag) > 0:
					if skipTitle {
						skipTitle = false
					} else if t := markup.TextContent(c); t != "" {
						parts = append(parts, "\n\n"+t+"\n")
					}
				case tag == "p":
					if t := markup.TextContent(c); t != "" {
						parts = append(parts, t+"\n\n")
					}
				case tag == "div" || tag == "section":
					// Only direct text; nested elements are visited on their own.
					if t := markup.DirectText(c); t != "" {
						parts = append(parts, t+"\n\n")
					}
				}
			}
			walk(c)
		}
	}
	walk(root)

	if len(parts) == 0 {
		parts = append(parts, strings.Join(markup.TextNodes(root), " "))
	}

	return Normalize(strings.Join(parts, ""))
}

var (
	blankLinesRe = regexp.MustCompile(`\n\s*\n+`)
	spacesRe     = regexp.MustCompile(`[ \t]+`)
)

// Normalize applies NFKC, collapses blank-line runs to a single blank line,
// collapses spaces and tabs, and trims. Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	s = blankLinesRe.ReplaceAllString(s, "\n\n")
	s = spacesRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
