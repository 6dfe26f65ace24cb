package reader

import "testing"

func TestChapterLabel(t *testing.T) {
	toc := []TOCEntry{
		{Label: "Part One", Href: "part1.xhtml", Children: []TOCEntry{
			{Label: "Chapter 1", Href: "ch1.xhtml#start"},
			{Label: "Chapter 2", Href: "ch2.xhtml"},
		}},
		{Label: "Part Two", Href: "part2.xhtml"},
	}

	tests := []struct {
		href string
		want string
		ok   bool
	}{
		{"ch1.xhtml", "Chapter 1", true},
		{"OEBPS/ch2.xhtml", "Chapter 2", true},
		{"part2.xhtml", "Part Two", true},
		{"unknown.xhtml", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ChapterLabel(toc, tt.href)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ChapterLabel(%q) = %q, %v", tt.href, got, ok)
		}
	}
}
