package parser

import (
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/taylorskalyo/goreader/epub"

	"github.com/dgallion1/distill/internal/doctree"
	"github.com/dgallion1/distill/internal/markup"
)

const ncxMediaType = "application/x-dtbncx+xml"

// EPUBLoader handles .epub files.
type EPUBLoader struct{}

func (l *EPUBLoader) Load(r io.ReaderAt, size int64, filename string) (*doctree.Book, error) {
	rc, err := epub.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open epub: %w", err)
	}
	if len(rc.Rootfiles) == 0 {
		return nil, ErrNoRootfile
	}
	pkg := rc.Rootfiles[0]

	book := &doctree.Book{
		Title:    strings.TrimSpace(pkg.Metadata.Title),
		Author:   strings.TrimSpace(pkg.Metadata.Creator),
		Language: strings.TrimSpace(pkg.Metadata.Language),
		Source:   filename,
	}

	for i := range pkg.Manifest.Items {
		item := &pkg.Manifest.Items[i]
		// A manifest entry without a readable file is kept as an empty asset.
		data, err := readItem(item)
		if err != nil {
			data = nil
		}
		kind := doctree.KindAsset
		if data != nil && isDocumentMediaType(item.MediaType) {
			kind = doctree.KindDocument
		}
		book.Items = append(book.Items, doctree.DocumentItem{
			Name:      item.HREF,
			Kind:      kind,
			MediaType: item.MediaType,
			Content:   data,
		})
		if item.MediaType == ncxMediaType && len(book.TOC) == 0 {
			book.TOC = ncxTOC(data, path.Dir(item.HREF))
		}
	}

	if len(book.TOC) == 0 {
		book.TOC = navTOC(book.Items)
	}
	if len(book.TOC) == 0 {
		book.TOC = spineTOC(pkg, book.Items)
	}
	return book, nil
}

func readItem(item *epub.Item) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			data, err = nil, fmt.Errorf("open %s: %v", item.HREF, r)
		}
	}()
	rc, err := item.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func isDocumentMediaType(mt string) bool {
	switch strings.ToLower(mt) {
	case "application/xhtml+xml", "text/html":
		return true
	}
	return false
}

type ncxDoc struct {
	NavMap struct {
		NavPoints []navPoint `xml:"navPoint"`
	} `xml:"navMap"`
}

type navPoint struct {
	ID        string     `xml:"id,attr"`
	PlayOrder int        `xml:"playOrder,attr"`
	Label     navLabel   `xml:"navLabel"`
	Content   navContent `xml:"content"`
	Children  []navPoint `xml:"navPoint"`
}

type navLabel struct {
	Text string `xml:"text"`
}

type navContent struct {
	Src string `xml:"src,attr"`
}

// ncxTOC parses an NCX navMap. Hrefs are rebased from the NCX's directory
// onto the package directory so they match manifest names.
func ncxTOC(data []byte, dir string) []doctree.Item {
	if len(data) == 0 {
		return nil
	}
	var doc ncxDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil
	}

	var convert func([]navPoint) []doctree.Item
	convert = func(points []navPoint) []doctree.Item {
		var out []doctree.Item
		for _, np := range points {
			title := strings.Join(strings.Fields(np.Label.Text), " ")
			href := rebase(dir, np.Content.Src)
			if len(np.Children) == 0 {
				out = append(out, &doctree.Leaf{Title: title, Href: href})
				continue
			}
			out = append(out, &doctree.Branch{Title: title, Href: href, Children: convert(np.Children)})
		}
		return out
	}
	return convert(doc.NavMap.NavPoints)
}

// navTOC finds an EPUB3 navigation document and reads its toc list.
func navTOC(items []doctree.DocumentItem) []doctree.Item {
	for _, it := range items {
		if !it.IsDocument() || !strings.Contains(string(it.Content), "nav") {
			continue
		}
		doc, err := markup.Parse(it.Content)
		if err != nil {
			continue
		}
		var nav *goquery.Selection
		doc.Selection().Find("nav").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if t, _ := s.Attr("epub:type"); t == "toc" {
				nav = s
				return false
			}
			return true
		})
		if nav == nil {
			continue
		}
		if ol := nav.ChildrenFiltered("ol"); ol.Length() > 0 {
			return navList(ol.First(), path.Dir(it.Name))
		}
	}
	return nil
}

func navList(ol *goquery.Selection, dir string) []doctree.Item {
	var out []doctree.Item
	ol.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
		link := li.ChildrenFiltered("a, span").First()
		title := strings.Join(strings.Fields(link.Text()), " ")
		href, _ := link.Attr("href")
		if href != "" {
			href = rebase(dir, href)
		}
		sub := li.ChildrenFiltered("ol")
		if sub.Length() == 0 {
			out = append(out, &doctree.Leaf{Title: title, Href: href})
			return
		}
		out = append(out, &doctree.Branch{Title: title, Href: href, Children: navList(sub.First(), dir)})
	})
	return out
}

// spineTOC lists spine documents in reading order, titled from their markup.
func spineTOC(pkg *epub.Rootfile, items []doctree.DocumentItem) []doctree.Item {
	byName := make(map[string]doctree.DocumentItem, len(items))
	for _, it := range items {
		byName[it.Name] = it
	}

	var out []doctree.Item
	for _, ref := range pkg.Spine.Itemrefs {
		if ref.Item == nil {
			continue
		}
		it, ok := byName[ref.Item.HREF]
		if !ok || !it.IsDocument() {
			continue
		}
		title := path.Base(it.Name)
		if doc, err := markup.Parse(it.Content); err == nil {
			title = documentTitle(doc, title)
		}
		out = append(out, &doctree.Leaf{Title: title, Href: it.Name})
	}
	return out
}

// rebase resolves href against dir, keeping any fragment.
func rebase(dir, href string) string {
	if href == "" || strings.Contains(href, "://") {
		return href
	}
	p, frag, hasFrag := strings.Cut(href, "#")
	if p != "" && dir != "." && dir != "" {
		p = path.Clean(path.Join(dir, p))
	}
	if hasFrag {
		return p + "#" + frag
	}
	return p
}
