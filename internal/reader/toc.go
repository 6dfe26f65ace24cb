package reader

import (
	"strings"

	"github.com/simp-lee/epub"
)

// TOCEntry is one node of the table-of-contents tree.
type TOCEntry struct {
	Label    string     `json:"label"`
	Href     string     `json:"href"`
	Children []TOCEntry `json:"children,omitempty"`
}

// convertTOC maps the parser's TOC tree onto the session's.
func convertTOC(items []epub.TOCItem) []TOCEntry {
	if len(items) == 0 {
		return nil
	}
	out := make([]TOCEntry, len(items))
	for i, it := range items {
		out[i] = TOCEntry{
			Label:    it.Title,
			Href:     it.Href,
			Children: convertTOC(it.Children),
		}
	}
	return out
}

// ChapterLabel searches the TOC tree depth-first for the first entry whose
// fragment-stripped href is a substring of the current href and returns its
// label. Display only, never persisted.
func ChapterLabel(toc []TOCEntry, href string) (string, bool) {
	if href == "" {
		return "", false
	}
	for _, entry := range toc {
		base := stripFragment(entry.Href)
		if base != "" && strings.Contains(href, base) {
			return entry.Label, true
		}
		if label, ok := ChapterLabel(entry.Children, href); ok {
			return label, true
		}
	}
	return "", false
}

// stripFragment drops a "#..." suffix.
func stripFragment(href string) string {
	if i := strings.IndexByte(href, '#'); i >= 0 {
		return href[:i]
	}
	return href
}
