package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/dgallion1/distill/internal/doctree"
	"github.com/dgallion1/distill/internal/markup"
)

// heading is a TOC candidate before nesting.
type heading struct {
	level int
	title string
	href  string
}

type tocNode struct {
	heading
	children []*tocNode
}

func (n *tocNode) item() doctree.Item {
	if len(n.children) == 0 {
		return &doctree.Leaf{Title: n.title, Href: n.href}
	}
	b := &doctree.Branch{Title: n.title, Href: n.href}
	for _, c := range n.children {
		b.Children = append(b.Children, c.item())
	}
	return b
}

// nestByLevel turns a flat heading list into a TOC, nesting each heading
// under the closest preceding heading of a lower level.
func nestByLevel(hs []heading) []doctree.Item {
	root := &tocNode{}
	stack := []*tocNode{root}

	for _, h := range hs {
		node := &tocNode{heading: h}
		for len(stack) > 1 && stack[len(stack)-1].level >= h.level {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1]
		parent.children = append(parent.children, node)
		stack = append(stack, node)
	}

	items := make([]doctree.Item, len(root.children))
	for i, c := range root.children {
		items[i] = c.item()
	}
	return items
}

// headingTOC builds a TOC from the id-bearing headings of one document.
// Headings without ids cannot be addressed and are skipped.
func headingTOC(name string, doc *markup.Document) []doctree.Item {
	var hs []heading
	doc.Selection().Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		id, ok := s.Attr("id")
		title := strings.TrimSpace(markup.TextContent(s.Get(0)))
		if !ok || id == "" || title == "" {
			return
		}
		hs = append(hs, heading{
			level: markup.HeadingLevel(goquery.NodeName(s)),
			title: title,
			href:  name + "#" + id,
		})
	})
	return nestByLevel(hs)
}

// documentTitle returns the <title>, else the first heading, else fallback.
func documentTitle(doc *markup.Document, fallback string) string {
	if t := doc.Title(); t != "" {
		return t
	}
	if h := doc.FirstHeading(); h != "" {
		return h
	}
	return fallback
}

// xhtmlDocument wraps a body fragment in a minimal XHTML page.
func xhtmlDocument(title, body string) []byte {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
	sb.WriteString(`<html xmlns="http://www.w3.org/1999/xhtml"><head><title>`)
	sb.WriteString(html.EscapeString(title))
	sb.WriteString("</title></head><body>\n")
	sb.WriteString(body)
	sb.WriteString("\n</body></html>\n")
	return []byte(sb.String())
}
