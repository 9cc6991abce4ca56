package stanza_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"stanza/internal/stanza"
)

func newCombiner(t *testing.T) *stanza.Combiner {
	t.Helper()
	c, err := stanza.NewCombiner(stanza.DefaultFormat(), nil)
	if err != nil {
		t.Fatalf("NewCombiner: %v", err)
	}
	return c
}

func roundTrip(t *testing.T, document string) string {
	t.Helper()
	src := writeSource(t, document)
	dest := filepath.Join(t.TempDir(), "story.stanza")
	if _, err := newSplitter(t).Extract(context.Background(), stanza.ExtractRequest{Source: src, Destination: dest}); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	target := filepath.Join(t.TempDir(), "rebuilt", "story.ni")
	result, err := newCombiner(t).Combine(context.Background(), dest, target)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if result.Change.Path != dest || result.Change.Kind != stanza.ChangeWritten || result.Change.At.IsZero() {
		t.Fatalf("unexpected completion event %+v", result.Change)
	}
	got := readFile(t, target)
	if result.Bytes != int64(len(got)) {
		t.Fatalf("reported %d bytes, wrote %d", result.Bytes, len(got))
	}
	return got
}

func TestCombineRoundTrip(t *testing.T) {
	documents := map[string]string{
		"example": exampleDocument,
		"rich": "\"Cloak of Darkness\" by Roger Firth\n\n" +
			"Volume 1 - Setup\n" +
			"The Foyer is a room. \"You are standing in a spacious hall, splendidly decorated in red and gold, with glittering chandeliers overhead.\"\n" +
			"\tTabbed\tline\t\n" +
			"A literal ¶ pilcrow and an escaped \\¶ one.\n" +
			"BOOK two\r\n" +
			"windows\r\n" +
			"section - last\n" +
			strings.Repeat("averyveryverylongtokenwithoutanyspaces", 4) + "\n" +
			"no trailing newline",
		"headings only": "Part A\nPart A\nPart A\n",
		"unicode":       "Chapter Été\nÀ bientôt, 東京.\n",
	}
	for name, document := range documents {
		t.Run(name, func(t *testing.T) {
			if got := roundTrip(t, document); got != document {
				t.Fatalf("round trip mismatch:\n got %q\nwant %q", got, document)
			}
		})
	}
}

func TestCombineFollowsManifestOrder(t *testing.T) {
	dest := t.TempDir()
	files := map[string]string{
		"b.i7x": "second\n¶",
		"a.i7x": "first\n¶",
		stanza.DefaultManifestName: "- b.i7x\n- a.i7x\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dest, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	target := filepath.Join(t.TempDir(), "out.ni")
	result, err := newCombiner(t).Combine(context.Background(), dest, target)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if got := readFile(t, target); got != "second\nfirst\n" {
		t.Fatalf("expected manifest order, got %q", got)
	}
	if !reflect.DeepEqual(result.Fragments, []string{"b.i7x", "a.i7x"}) {
		t.Fatalf("unexpected fragments %v", result.Fragments)
	}
}

func TestCombineMissingFragmentLeavesTargetUntouched(t *testing.T) {
	dest := t.TempDir()
	if err := os.WriteFile(filepath.Join(dest, stanza.DefaultManifestName), []byte("- gone.i7x\n"), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	target := filepath.Join(t.TempDir(), "out.ni")
	if err := os.WriteFile(target, []byte("previous"), 0o644); err != nil {
		t.Fatalf("write target: %v", err)
	}

	_, err := newCombiner(t).Combine(context.Background(), dest, target)
	if !errors.Is(err, stanza.ErrFragmentMissing) {
		t.Fatalf("expected ErrFragmentMissing, got %v", err)
	}
	if got := readFile(t, target); got != "previous" {
		t.Fatalf("target changed after failed combine: %q", got)
	}
}

func TestCombineMissingManifest(t *testing.T) {
	_, err := newCombiner(t).Combine(context.Background(), t.TempDir(), filepath.Join(t.TempDir(), "out.ni"))
	if !errors.Is(err, stanza.ErrManifestUnreadable) {
		t.Fatalf("expected ErrManifestUnreadable, got %v", err)
	}
}

func TestCombineRejectsFragmentWithoutLineBoundary(t *testing.T) {
	dest := t.TempDir()
	files := map[string]string{
		"a.i7x":                    "dangling",
		"b.i7x":                    "Chapter B\n¶",
		stanza.DefaultManifestName: "- a.i7x\n- b.i7x\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dest, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	_, err := newCombiner(t).Combine(context.Background(), dest, filepath.Join(t.TempDir(), "out.ni"))
	if !errors.Is(err, stanza.ErrEncodingInconsistency) {
		t.Fatalf("expected ErrEncodingInconsistency, got %v", err)
	}
}

func TestCombineKeepsTargetMode(t *testing.T) {
	src := writeSource(t, exampleDocument)
	dest := filepath.Join(t.TempDir(), "story.stanza")
	if _, err := newSplitter(t).Extract(context.Background(), stanza.ExtractRequest{Source: src, Destination: dest}); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	target := filepath.Join(t.TempDir(), "story.ni")
	if err := os.WriteFile(target, []byte("old"), 0o600); err != nil {
		t.Fatalf("write target: %v", err)
	}
	if _, err := newCombiner(t).Combine(context.Background(), dest, target); err != nil {
		t.Fatalf("Combine: %v", err)
	}
	info, err := os.Stat(target)
	if err != nil {
		t.Fatalf("stat target: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected mode 0600 to survive, got %v", info.Mode().Perm())
	}
}
