package stanza

import "testing"

func TestHeadingDetectorMatchesCaseInsensitively(t *testing.T) {
	d, err := NewHeadingDetector(DefaultHeadings)
	if err != nil {
		t.Fatalf("NewHeadingDetector: %v", err)
	}
	cases := []struct {
		line    string
		keyword string
		title   string
	}{
		{line: "CHAPTER One\n", keyword: "CHAPTER", title: "One"},
		{line: "chapter one\n", keyword: "chapter", title: "one"},
		{line: "Part - The Ending\r\n", keyword: "Part", title: "The Ending"},
		{line: "Volume 2", keyword: "Volume", title: "2"},
		{line: "Section\t\tRules\n", keyword: "Section", title: "Rules"},
	}
	for _, tc := range cases {
		h, ok := d.Match(tc.line)
		if !ok {
			t.Fatalf("expected %q to be a heading", tc.line)
		}
		if h.Keyword != tc.keyword || h.Title != tc.title {
			t.Fatalf("Match(%q) = %+v", tc.line, h)
		}
	}
}

func TestHeadingDetectorRejectsContentLines(t *testing.T) {
	d, err := NewHeadingDetector(DefaultHeadings)
	if err != nil {
		t.Fatalf("NewHeadingDetector: %v", err)
	}
	for _, line := range []string{
		"Chapters of life\n",
		" Chapter One\n",
		"The Chapter One\n",
		"Bookcase is a container.\n",
		"\n",
	} {
		if h, ok := d.Match(line); ok {
			t.Fatalf("did not expect %q to match, got %+v", line, h)
		}
	}
}

func TestHeadingDetectorCustomKeywords(t *testing.T) {
	d, err := NewHeadingDetector([]string{"Act", " ", "Scene"})
	if err != nil {
		t.Fatalf("NewHeadingDetector: %v", err)
	}
	if _, ok := d.Match("Scene 3\n"); !ok {
		t.Fatal("expected custom keyword to match")
	}
	if _, ok := d.Match("Chapter 3\n"); ok {
		t.Fatal("default keywords must not match once replaced")
	}
	if _, err := NewHeadingDetector(nil); err == nil {
		t.Fatal("expected error without keywords")
	}
}

func TestHeadingText(t *testing.T) {
	if got := (Heading{Keyword: "Chapter", Title: "One: Beginnings"}).Text(); got != "Chapter One: Beginnings" {
		t.Fatalf("unexpected heading text %q", got)
	}
	if got := (Heading{Keyword: "Book"}).Text(); got != "Book" {
		t.Fatalf("unexpected bare heading text %q", got)
	}
}
