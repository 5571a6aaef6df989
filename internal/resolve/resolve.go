// Package resolve maps table-of-contents hrefs to document items.
package resolve

import (
	"path"
	"strings"

	"github.com/dgallion1/distill/internal/doctree"
)

// Strategy names the rule that produced a match.
type Strategy string

const (
	StrategyNone     Strategy = ""
	StrategyExact    Strategy = "exact"
	StrategySuffix   Strategy = "endswith"
	StrategyReverse  Strategy = "reverse endswith"
	StrategyBasename Strategy = "basename"
)

// Href is a TOC href split on its first '#'.
type Href struct {
	Path        string
	Fragment    string
	HasFragment bool
}

// Split separates the path and optional fragment.
func Split(href string) Href {
	p, frag, ok := strings.Cut(href, "#")
	return Href{Path: p, Fragment: frag, HasFragment: ok}
}

// Match is the outcome of resolving one href.
type Match struct {
	Href     Href
	Item     doctree.DocumentItem
	Strategy Strategy
	Found    bool
}

var strategies = []struct {
	name  Strategy
	match func(name, clean string) bool
}{
	{StrategyExact, func(name, clean string) bool { return name == clean }},
	{StrategySuffix, strings.HasSuffix},
	{StrategyReverse, func(name, clean string) bool { return strings.HasSuffix(clean, name) }},
	{StrategyBasename, func(name, clean string) bool {
		hb, ib := basename(clean), basename(name)
		return hb != "" && ib != "" && hb == ib
	}},
}

// Resolve returns the document item matching href. Strategies are tried in
// priority order; within a strategy the first item in container order wins.
// Non-document items are never candidates.
func Resolve(href string, items []doctree.DocumentItem) Match {
	h := Split(href)
	for _, s := range strategies {
		for _, item := range items {
			if item.IsDocument() && s.match(item.Name, h.Path) {
				return Match{Href: h, Item: item, Strategy: s.name, Found: true}
			}
		}
	}
	return Match{Href: h}
}

// basename returns the final path component, or "" for paths ending in a
// separator.
func basename(p string) string {
	if p == "" || strings.HasSuffix(p, "/") {
		return ""
	}
	return path.Base(p)
}
