package stanza

import (
	"strconv"

	"stanza/internal/textutil"
)

const fallbackSlug = "heading"

// namer hands out fragment file names for one extraction. Names are unique
// within the namer; a repeated slug gets the smallest free numeric suffix
// placed before the extension.
type namer struct {
	extension    string
	allowUnicode bool
	used         map[string]struct{}
	order        []string
}

func newNamer(format Format) *namer {
	return &namer{
		extension:    format.Extension,
		allowUnicode: format.AllowUnicode,
		used:         make(map[string]struct{}),
	}
}

// forHeading slugs the heading and claims a file name for it.
func (n *namer) forHeading(h Heading) string {
	slug := textutil.Slugify(h.Text(), n.allowUnicode)
	if slug == "" {
		slug = textutil.Slugify(h.Keyword, n.allowUnicode)
	}
	if slug == "" {
		slug = fallbackSlug
	}
	return n.claim(slug)
}

// claim reserves the first free name derived from base.
func (n *namer) claim(base string) string {
	name := base + n.extension
	for i := 1; n.taken(name); i++ {
		name = base + strconv.Itoa(i) + n.extension
	}
	n.used[name] = struct{}{}
	n.order = append(n.order, name)
	return name
}

func (n *namer) taken(name string) bool {
	_, ok := n.used[name]
	return ok
}

// names returns the claimed names in claim order.
func (n *namer) names() []string {
	out := make([]string, len(n.order))
	copy(out, n.order)
	return out
}
