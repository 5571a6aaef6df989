package parser

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
)

const containerXML = `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const chapterOne = `<?xml version="1.0" encoding="utf-8"?>
<html xmlns="http://www.w3.org/1999/xhtml"><head><title>Part One</title></head>
<body>
<h1 id="top">Part One</h1>
<p>Opening words.</p>
<h2 id="s11">Section 1.1</h2>
<p>Details of the first section.</p>
</body></html>`

const chapterTwo = `<?xml version="1.0" encoding="utf-8"?>
<html xmlns="http://www.w3.org/1999/xhtml"><head><title>Chapter Two</title></head>
<body><h1>Chapter Two</h1><p>Second chapter body.</p></body></html>`

func opf(manifest, spine string) string {
	return `<?xml version="1.0" encoding="utf-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>Test Book</dc:title>
    <dc:creator>Ada Writer</dc:creator>
    <dc:language>en</dc:language>
  </metadata>
  <manifest>` + manifest + `</manifest>
  <spine>` + spine + `</spine>
</package>`
}

const ncx = `<?xml version="1.0" encoding="utf-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <navMap>
    <navPoint id="p1" playOrder="1">
      <navLabel><text>Part One</text></navLabel>
      <content src="ch1.xhtml"/>
      <navPoint id="p2" playOrder="2">
        <navLabel><text>Section 1.1</text></navLabel>
        <content src="ch1.xhtml#s11"/>
      </navPoint>
    </navPoint>
    <navPoint id="p3" playOrder="3">
      <navLabel><text>Chapter  Two</text></navLabel>
      <content src="ch2.xhtml"/>
    </navPoint>
  </navMap>
</ncx>`

const navDoc = `<?xml version="1.0" encoding="utf-8"?>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">
<head><title>Contents</title></head>
<body>
<nav epub:type="landmarks"><ol><li><a href="ch2.xhtml">Ignored</a></li></ol></nav>
<nav epub:type="toc"><ol>
  <li><a href="ch1.xhtml">Part One</a>
    <ol><li><a href="ch1.xhtml#s11">Section 1.1</a></li></ol>
  </li>
  <li><a href="ch2.xhtml">Chapter Two</a></li>
</ol></nav>
</body></html>`

// buildEPUB creates an in-memory EPUB archive from path → content. The
// mimetype entry is written first.
func buildEPUB(t *testing.T, files map[string]string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	write := func(name, content string) {
		fw, err := zw.Create(name)
		if err != nil {
			t.Fatalf("buildEPUB: create %s: %v", name, err)
		}
		if _, err := io.WriteString(fw, content); err != nil {
			t.Fatalf("buildEPUB: write %s: %v", name, err)
		}
	}
	write("mimetype", "application/epub+zip")
	for name, content := range files {
		write(name, content)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("buildEPUB: close writer: %v", err)
	}
	return buf.Bytes()
}

func ncxBook(t *testing.T) []byte {
	return buildEPUB(t, map[string]string{
		"META-INF/container.xml": containerXML,
		"OEBPS/content.opf": opf(`
    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
    <item id="css" href="style.css" media-type="text/css"/>
    <item id="ch1" href="ch1.xhtml" media-type="application/xhtml+xml"/>
    <item id="ch2" href="ch2.xhtml" media-type="application/xhtml+xml"/>`,
			`<itemref idref="ch1"/><itemref idref="ch2"/>`),
		"OEBPS/toc.ncx":   ncx,
		"OEBPS/style.css": "p { margin: 0 }",
		"OEBPS/ch1.xhtml": chapterOne,
		"OEBPS/ch2.xhtml": chapterTwo,
	})
}
