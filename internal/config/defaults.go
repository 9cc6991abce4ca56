package config

const (
	defaultConfigPath   = "~/.config/stanza/config.toml"
	defaultStateDir     = "~/.local/share/stanza"
	defaultLogDir       = "~/.local/share/stanza/logs"
	defaultIndexFile    = "index.db"
	defaultExtension    = ".i7x"
	defaultFrontmatter  = "frontmatter"
	defaultManifest     = "manifest.yaml"
	defaultWrapWidth    = 72
	defaultAllowUnicode = true
	defaultIndexEnabled = true
	defaultLogFormat    = "console"
	defaultLogLevel     = "info"
)

// defaultHeadings are the Inform 7 heading keywords, outermost first.
var defaultHeadings = []string{"Volume", "Book", "Part", "Chapter", "Section"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	headings := make([]string, len(defaultHeadings))
	copy(headings, defaultHeadings)
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Format: Format{
			Headings:     headings,
			Extension:    defaultExtension,
			Frontmatter:  defaultFrontmatter,
			Manifest:     defaultManifest,
			WrapWidth:    defaultWrapWidth,
			AllowUnicode: defaultAllowUnicode,
		},
		Index: Index{
			Enabled: defaultIndexEnabled,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
