package stanza

import (
	"errors"
	"regexp"
	"strings"
)

// Heading is a recognized heading line.
type Heading struct {
	Keyword string
	Title   string
}

// Text returns the heading as it is slugged: keyword and title separated by a
// single space.
func (h Heading) Text() string {
	if h.Title == "" {
		return h.Keyword
	}
	return h.Keyword + " " + h.Title
}

// HeadingDetector recognizes heading lines one line at a time.
type HeadingDetector struct {
	pattern *regexp.Regexp
}

// NewHeadingDetector builds a detector for the given keywords. Keywords are
// matched literally and case-insensitively.
func NewHeadingDetector(keywords []string) (*HeadingDetector, error) {
	alternatives := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		alternatives = append(alternatives, regexp.QuoteMeta(keyword))
	}
	if len(alternatives) == 0 {
		return nil, errors.New("heading detector: no keywords")
	}
	pattern, err := regexp.Compile(`(?i)^(` + strings.Join(alternatives, "|") + `)[\s\-]+(.*)`)
	if err != nil {
		return nil, err
	}
	return &HeadingDetector{pattern: pattern}, nil
}

// Match reports whether line opens a new section. The line may still carry
// its terminating newline; it never becomes part of the title.
func (d *HeadingDetector) Match(line string) (Heading, bool) {
	m := d.pattern.FindStringSubmatch(line)
	if m == nil {
		return Heading{}, false
	}
	return Heading{
		Keyword: m[1],
		Title:   strings.TrimRight(m[2], "\r\n"),
	}, true
}
