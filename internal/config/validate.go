package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateFormat(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateDocuments(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateFormat() error {
	if c.Format.WrapWidth < 1 {
		return fmt.Errorf("format.wrap_width must be positive, got %d", c.Format.WrapWidth)
	}
	if len(c.Format.Extension) < 2 || strings.ContainsAny(c.Format.Extension, `/\`) {
		return fmt.Errorf("format.extension %q must be a dot followed by a suffix", c.Format.Extension)
	}
	if !isPlainName(c.Format.Frontmatter) {
		return fmt.Errorf("format.frontmatter %q must be a plain file name", c.Format.Frontmatter)
	}
	if !isPlainName(c.Format.Manifest) {
		return fmt.Errorf("format.manifest %q must be a plain file name", c.Format.Manifest)
	}
	if strings.HasSuffix(c.Format.Manifest, c.Format.Extension) {
		return fmt.Errorf("format.manifest %q must not end with the fragment extension %q", c.Format.Manifest, c.Format.Extension)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}

func (c *Config) validateDocuments() error {
	seen := make(map[string]struct{}, len(c.Documents))
	for i, doc := range c.Documents {
		if doc.Name == "" {
			return fmt.Errorf("documents[%d].name must be set", i)
		}
		if _, dup := seen[doc.Name]; dup {
			return fmt.Errorf("documents[%d].name %q is declared more than once", i, doc.Name)
		}
		seen[doc.Name] = struct{}{}
		if doc.Source == "" {
			return fmt.Errorf("documents[%d].source must be set", i)
		}
		if doc.Destination == "" {
			return fmt.Errorf("documents[%d].destination must be set", i)
		}
		if doc.Source == doc.Destination {
			return fmt.Errorf("documents[%d]: source and destination must differ", i)
		}
	}
	return nil
}

func isPlainName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}
