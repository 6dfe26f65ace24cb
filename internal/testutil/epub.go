// Package testutil builds minimal EPUB archives for tests.
package testutil

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"
)

// Chapter is one spine document in a generated test book.
type Chapter struct {
	Title string
	Href  string
	// Body is the inner XHTML body markup, typically <p> paragraphs.
	Body string
}

// BuildEPUB returns the bytes of a valid single-rootfile EPUB containing the
// given chapters in spine order, each with a matching NCX entry. The mimetype
// entry is written first, as the format requires.
func BuildEPUB(t *testing.T, title, author string, chapters ...Chapter) []byte {
	t.Helper()
	if len(chapters) == 0 {
		t.Fatal("BuildEPUB: at least one chapter required")
	}

	var manifest, spine, navMap strings.Builder
	files := make(map[string]string)
	for i, ch := range chapters {
		id := fmt.Sprintf("ch%d", i+1)
		fmt.Fprintf(&manifest,
			`    <item id=%q href=%q media-type="application/xhtml+xml"/>`+"\n", id, ch.Href)
		fmt.Fprintf(&spine, `    <itemref idref=%q/>`+"\n", id)
		fmt.Fprintf(&navMap, `    <navPoint id="np%d" playOrder="%d">
      <navLabel><text>%s</text></navLabel>
      <content src=%q/>
    </navPoint>
`, i+1, i+1, ch.Title, ch.Href)
		files["OEBPS/"+ch.Href] = chapterXHTML(ch)
	}

	files["mimetype"] = "application/epub+zip"
	files["META-INF/container.xml"] = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`
	files["OEBPS/content.opf"] = fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0" unique-identifier="uid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>%s</dc:title>
    <dc:creator>%s</dc:creator>
    <dc:language>en</dc:language>
    <dc:identifier id="uid">test-id-001</dc:identifier>
  </metadata>
  <manifest>
%s    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
  </manifest>
  <spine toc="ncx">
%s  </spine>
</package>`, title, author, manifest.String(), spine.String())
	files["OEBPS/toc.ncx"] = fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <navMap>
%s  </navMap>
</ncx>`, navMap.String())

	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	write := func(name, content string) {
		fw, err := zw.Create(name)
		if err != nil {
			t.Fatalf("BuildEPUB: create %s: %v", name, err)
		}
		if _, err := io.WriteString(fw, content); err != nil {
			t.Fatalf("BuildEPUB: write %s: %v", name, err)
		}
	}
	write("mimetype", files["mimetype"])
	for name, content := range files {
		if name == "mimetype" {
			continue
		}
		write(name, content)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("BuildEPUB: close writer: %v", err)
	}
	return buf.Bytes()
}

// SimpleBook returns a two-chapter book with a handful of paragraphs,
// suitable for most session and surface tests.
func SimpleBook(t *testing.T) []byte {
	t.Helper()
	return BuildEPUB(t, "Test Book", "Test Author",
		Chapter{
			Title: "Chapter One",
			Href:  "chapter01.xhtml",
			Body: `<h1>Chapter One</h1>
<p>The quick brown fox jumps over the lazy dog.</p>
<p>Second paragraph of the first chapter.</p>`,
		},
		Chapter{
			Title: "Chapter Two",
			Href:  "chapter02.xhtml",
			Body: `<h1>Chapter Two</h1>
<p>Opening line of the second chapter.</p>`,
		},
	)
}

func chapterXHTML(ch Chapter) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>%s</title></head>
<body>
%s
</body>
</html>`, ch.Title, ch.Body)
}
