package stanza

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestManifestDumpLoad(t *testing.T) {
	names := []string{"frontmatter.i7x", "chapter-one-beginnings.i7x", "chapter-one-beginnings1.i7x"}
	var buf bytes.Buffer
	if err := DumpManifest(&buf, names); err != nil {
		t.Fatalf("DumpManifest: %v", err)
	}
	want := "- frontmatter.i7x\n- chapter-one-beginnings.i7x\n- chapter-one-beginnings1.i7x\n"
	if buf.String() != want {
		t.Fatalf("unexpected manifest encoding:\n%s", buf.String())
	}
	got, err := LoadManifest(&buf)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if !reflect.DeepEqual(got, names) {
		t.Fatalf("manifest order changed: %v", got)
	}
}

func TestLoadManifestRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"empty":      "",
		"empty list": "[]\n",
		"mapping":    "a: b\n",
		"traversal":  "- ../escape.i7x\n",
		"nested":     "- dir/file.i7x\n",
		"absolute":   "- /etc/passwd\n",
		"duplicate":  "- a.i7x\n- a.i7x\n",
		"blank name": "- \"\"\n",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadManifest(strings.NewReader(input)); err == nil {
				t.Fatalf("expected %q to be rejected", input)
			}
		})
	}
}

func TestReadManifestClassifiesFailures(t *testing.T) {
	dir := t.TempDir()
	if _, err := ReadManifest(dir, DefaultFormat()); !errors.Is(err, ErrManifestUnreadable) {
		t.Fatalf("expected ErrManifestUnreadable for missing manifest, got %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, DefaultManifestName), []byte("{not yaml"), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	if _, err := ReadManifest(dir, DefaultFormat()); !errors.Is(err, ErrManifestUnreadable) {
		t.Fatalf("expected ErrManifestUnreadable for malformed manifest, got %v", err)
	}
}

func TestWriteManifestReplacesWholesale(t *testing.T) {
	dir := t.TempDir()
	format := DefaultFormat()
	if _, err := writeManifest(dir, format, []string{"a.i7x", "b.i7x", "c.i7x"}); err != nil {
		t.Fatalf("writeManifest: %v", err)
	}
	path, err := writeManifest(dir, format, []string{"b.i7x"})
	if err != nil {
		t.Fatalf("writeManifest: %v", err)
	}
	if path != filepath.Join(dir, DefaultManifestName) {
		t.Fatalf("unexpected manifest path %q", path)
	}
	names, err := ReadManifest(dir, format)
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"b.i7x"}) {
		t.Fatalf("expected wholesale replacement, got %v", names)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected no leftover temp files, got %d entries", len(entries))
	}
}

func TestSnapshotFromManifest(t *testing.T) {
	snap := SnapshotFromManifest("/stanza", DefaultFormat(), []string{"a.i7x"})
	for _, path := range []string{"/stanza/a.i7x", "/stanza/manifest.yaml"} {
		if _, ok := snap[path]; !ok {
			t.Fatalf("expected %s in snapshot %v", path, snap)
		}
	}
}
