package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize(baseDir string, fromFile bool) error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeFormat()
	if err := c.normalizeIndex(); err != nil {
		return err
	}
	c.normalizeLogging()
	if !fromFile {
		baseDir = ""
	}
	return c.normalizeDocuments(baseDir)
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.StateDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeFormat() {
	headings := make([]string, 0, len(c.Format.Headings))
	seen := make(map[string]struct{}, len(c.Format.Headings))
	for _, keyword := range c.Format.Headings {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		key := strings.ToLower(keyword)
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		headings = append(headings, keyword)
	}
	if len(headings) == 0 {
		headings = append(headings, defaultHeadings...)
	}
	c.Format.Headings = headings

	c.Format.Extension = strings.TrimSpace(c.Format.Extension)
	if c.Format.Extension == "" {
		c.Format.Extension = defaultExtension
	}
	if !strings.HasPrefix(c.Format.Extension, ".") {
		c.Format.Extension = "." + c.Format.Extension
	}
	c.Format.Frontmatter = strings.TrimSpace(c.Format.Frontmatter)
	if c.Format.Frontmatter == "" {
		c.Format.Frontmatter = defaultFrontmatter
	}
	c.Format.Manifest = strings.TrimSpace(c.Format.Manifest)
	if c.Format.Manifest == "" {
		c.Format.Manifest = defaultManifest
	}
	if c.Format.WrapWidth == 0 {
		c.Format.WrapWidth = defaultWrapWidth
	}
}

func (c *Config) normalizeIndex() error {
	c.Index.Path = strings.TrimSpace(c.Index.Path)
	if c.Index.Path == "" {
		c.Index.Path = filepath.Join(c.Paths.StateDir, defaultIndexFile)
	}
	var err error
	if c.Index.Path, err = expandPath(c.Index.Path); err != nil {
		return fmt.Errorf("index.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	if value, ok := os.LookupEnv("STANZA_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// normalizeDocuments resolves relative document paths against baseDir, or the
// working directory when baseDir is empty.
func (c *Config) normalizeDocuments(baseDir string) error {
	for i := range c.Documents {
		doc := &c.Documents[i]
		doc.Name = strings.TrimSpace(doc.Name)
		var err error
		if doc.Source, err = resolveAgainst(baseDir, doc.Source); err != nil {
			return fmt.Errorf("documents[%d].source: %w", i, err)
		}
		if doc.Destination, err = resolveAgainst(baseDir, doc.Destination); err != nil {
			return fmt.Errorf("documents[%d].destination: %w", i, err)
		}
	}
	return nil
}

func resolveAgainst(baseDir, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" || baseDir == "" || strings.HasPrefix(value, "~") || filepath.IsAbs(value) {
		return expandPath(value)
	}
	return expandPath(filepath.Join(baseDir, value))
}
