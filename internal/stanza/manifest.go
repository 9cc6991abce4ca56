package stanza

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"stanza/internal/fileutil"
)

// LoadManifest decodes an ordered list of fragment names.
func LoadManifest(r io.Reader) ([]string, error) {
	var names []string
	if err := yaml.NewDecoder(r).Decode(&names); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("manifest is empty")
		}
		return nil, err
	}
	if len(names) == 0 {
		return nil, errors.New("manifest is empty")
	}
	seen := make(map[string]struct{}, len(names))
	for i, name := range names {
		if !isPlainName(name) {
			return nil, fmt.Errorf("manifest entry %d: %q is not a plain file name", i+1, name)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("manifest entry %d: %q listed twice", i+1, name)
		}
		seen[name] = struct{}{}
	}
	return names, nil
}

// DumpManifest encodes names as a YAML block sequence.
func DumpManifest(w io.Writer, names []string) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(names); err != nil {
		return err
	}
	return enc.Close()
}

// ReadManifest loads the manifest stored in dir.
func ReadManifest(dir string, format Format) ([]string, error) {
	path := filepath.Join(dir, format.ManifestName)
	f, err := os.Open(path)
	if err != nil {
		return nil, wrap(ErrManifestUnreadable, "open", path, err)
	}
	defer f.Close()

	names, err := LoadManifest(f)
	if err != nil {
		return nil, wrap(ErrManifestUnreadable, "decode", path, err)
	}
	return names, nil
}

// writeManifest replaces the manifest in dir wholesale.
func writeManifest(dir string, format Format, names []string) (string, error) {
	path := filepath.Join(dir, format.ManifestName)
	out, err := fileutil.CreateAtomic(path, 0o644)
	if err != nil {
		return "", wrap(ErrDestinationUnwritable, "create", path, err)
	}
	defer out.Abort()

	if err := DumpManifest(out, names); err != nil {
		return "", wrap(ErrDestinationUnwritable, "write", path, err)
	}
	if err := out.Commit(); err != nil {
		return "", wrap(ErrDestinationUnwritable, "commit", path, err)
	}
	return path, nil
}
