package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slugify converts heading text into a lowercase, hyphen-separated identifier
// that is safe to use as a file name.
//
// With allowUnicode the text is NFKC-normalized and Unicode letters survive.
// Without it the text is NFKD-decomposed and every non-ASCII rune is dropped,
// so accented letters fold to their base letter. In both modes anything that
// is not a letter, number, underscore, whitespace, or hyphen is removed, and
// runs of whitespace and hyphens collapse to a single hyphen.
func Slugify(value string, allowUnicode bool) string {
	if allowUnicode {
		value = norm.NFKC.String(value)
	} else {
		value = foldASCII(value)
	}

	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if isSlugRune(r) {
			b.WriteRune(r)
		}
	}
	cleaned := strings.ToLower(strings.TrimSpace(b.String()))

	b.Reset()
	pendingSep := false
	for _, r := range cleaned {
		if r == '-' || unicode.IsSpace(r) {
			pendingSep = true
			continue
		}
		if pendingSep {
			b.WriteByte('-')
			pendingSep = false
		}
		b.WriteRune(r)
	}
	if pendingSep {
		b.WriteByte('-')
	}
	return b.String()
}

func foldASCII(value string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
	folded, _, err := transform.String(t, value)
	if err != nil {
		return value
	}
	return folded
}

func isSlugRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' || r == '-' || unicode.IsSpace(r)
}
