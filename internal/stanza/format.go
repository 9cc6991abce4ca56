package stanza

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	DefaultExtension    = ".i7x"
	DefaultFrontmatter  = "frontmatter"
	DefaultManifestName = "manifest.yaml"
	DefaultWrapWidth    = 72
)

// DefaultHeadings lists the Inform 7 heading keywords, from outermost to
// innermost.
var DefaultHeadings = []string{"Volume", "Book", "Part", "Chapter", "Section"}

// Format describes the dialect-specific knobs of the stanza form.
type Format struct {
	// Headings are the keywords that open a new fragment, matched
	// case-insensitively at the start of a line.
	Headings []string
	// Extension is appended to every fragment name, including the dot.
	Extension string
	// Frontmatter names the fragment holding content before the first heading.
	Frontmatter string
	// ManifestName is the manifest file name inside the destination.
	ManifestName string
	// WrapWidth caps the physical line width of fragments in columns.
	WrapWidth int
	// AllowUnicode keeps NFKC-normalized Unicode letters in slugs; when false
	// slugs are folded to ASCII.
	AllowUnicode bool
}

// DefaultFormat returns the Inform 7 stanza format.
func DefaultFormat() Format {
	headings := make([]string, len(DefaultHeadings))
	copy(headings, DefaultHeadings)
	return Format{
		Headings:     headings,
		Extension:    DefaultExtension,
		Frontmatter:  DefaultFrontmatter,
		ManifestName: DefaultManifestName,
		WrapWidth:    DefaultWrapWidth,
		AllowUnicode: true,
	}
}

// Validate reports the first problem that would make the format unusable.
func (f Format) Validate() error {
	if len(f.Headings) == 0 {
		return errors.New("format: at least one heading keyword is required")
	}
	for _, keyword := range f.Headings {
		if strings.TrimSpace(keyword) == "" {
			return errors.New("format: heading keywords must not be blank")
		}
	}
	if !strings.HasPrefix(f.Extension, ".") || len(f.Extension) < 2 {
		return fmt.Errorf("format: extension %q must start with a dot", f.Extension)
	}
	if !isPlainName(f.Frontmatter) {
		return fmt.Errorf("format: frontmatter name %q must be a plain file name", f.Frontmatter)
	}
	if !isPlainName(f.ManifestName) {
		return fmt.Errorf("format: manifest name %q must be a plain file name", f.ManifestName)
	}
	if strings.HasSuffix(f.ManifestName, f.Extension) {
		return fmt.Errorf("format: manifest name %q must not use the fragment extension", f.ManifestName)
	}
	if f.WrapWidth <= 0 {
		return fmt.Errorf("format: wrap width must be positive, got %d", f.WrapWidth)
	}
	return nil
}

// isPlainName reports whether name is a single path element that stays inside
// its directory.
func isPlainName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if filepath.IsAbs(name) || strings.ContainsAny(name, `/\`) {
		return false
	}
	return filepath.Base(name) == name
}
