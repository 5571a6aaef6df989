// Package section cuts the markup span addressed by a TOC fragment out of a
// document.
package section

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/dgallion1/distill/internal/markup"
)

// Scope tells the flattener whether a span is a whole document or a fragment.
type Scope int

const (
	ScopeDocument Scope = iota
	ScopeFragment
)

// Kind records which rule selected the span.
type Kind string

const (
	KindWhole     Kind = "whole"
	KindNotFound  Kind = "fragment-not-found"
	KindHeading   Kind = "heading"
	KindContainer Kind = "container"
	KindAncestor  Kind = "ancestor"
	KindElement   Kind = "element"
	KindRaw       Kind = "raw"
)

// Section is an extracted markup span.
type Section struct {
	Markup   string
	Scope    Scope
	Kind     Kind
	Degraded bool // extraction failed and Markup is the raw input
}

// Extract returns the span of content addressed by fragment. With no
// fragment, or an unknown one, the whole document is returned with scripts
// and styles removed. content is never modified.
func Extract(content []byte, fragment string, hasFragment bool) (sec Section) {
	defer func() {
		if r := recover(); r != nil {
			sec = raw(content)
		}
	}()

	doc, err := markup.Parse(content)
	if err != nil {
		return raw(content)
	}
	doc.Remove("script", "style")

	if hasFragment && fragment != "" {
		if target := doc.FindByID(fragment); target != nil {
			s, err := extractTarget(target)
			if err == nil {
				return s
			}
		}
		return whole(doc, content, KindNotFound)
	}
	return whole(doc, content, KindWhole)
}

func whole(doc *markup.Document, content []byte, kind Kind) Section {
	out, err := doc.HTML()
	if err != nil {
		return raw(content)
	}
	return Section{Markup: out, Scope: ScopeDocument, Kind: kind}
}

func raw(content []byte) Section {
	return Section{Markup: string(content), Scope: ScopeDocument, Kind: KindRaw, Degraded: true}
}

func extractTarget(target *html.Node) (Section, error) {
	tag := markup.Tag(target)

	if level := markup.HeadingLevel(tag); level > 0 {
		out, err := markup.Render(headingSpan(target, level)...)
		return Section{Markup: out, Scope: ScopeFragment, Kind: KindHeading}, err
	}

	if markup.IsBlockContainer(tag) {
		out, err := markup.Render(target)
		return Section{Markup: out, Scope: ScopeFragment, Kind: KindContainer}, err
	}

	for p := target.Parent; p != nil; p = p.Parent {
		if pt := markup.Tag(p); markup.IsBlockContainer(pt) || pt == "body" {
			out, err := markup.Render(p)
			return Section{Markup: out, Scope: ScopeFragment, Kind: KindAncestor}, err
		}
	}

	out, err := markup.Render(target)
	if err != nil {
		return Section{}, fmt.Errorf("render target: %w", err)
	}
	return Section{Markup: out, Scope: ScopeFragment, Kind: KindElement}, nil
}

// headingSpan collects the heading and its following siblings up to the
// next heading of the same or shallower level. Blank text nodes are dropped.
func headingSpan(heading *html.Node, level int) []*html.Node {
	nodes := []*html.Node{heading}
	for n := heading.NextSibling; n != nil; n = n.NextSibling {
		if l := markup.HeadingLevel(markup.Tag(n)); l > 0 && l <= level {
			break
		}
		if n.Type == html.CommentNode || markup.IsBlank(n) {
			continue
		}
		nodes = append(nodes, n)
	}
	return nodes
}
