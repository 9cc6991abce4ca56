package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stanza/internal/testsupport"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	source     string
	dest       string
}

func setupCLITestEnv(t *testing.T, indexEnabled bool) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("STANZA_LOG_LEVEL", "error")

	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "stanza.toml"),
		source:     filepath.Join(base, "story.ni"),
		dest:       filepath.Join(base, "story.stanza"),
	}
	content := fmt.Sprintf(`[paths]
state_dir = %q

[index]
enabled = %t

[[documents]]
name = "story"
source = "story.ni"
destination = "story.stanza"
`, filepath.Join(base, "state"), indexEnabled)
	testsupport.WriteFile(t, env.configPath, content)
	return env
}

func (e *cliTestEnv) writeSource(t *testing.T, content string) {
	t.Helper()
	testsupport.WriteFile(t, e.source, content)
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestCLIExtractCombineExplicitPaths(t *testing.T) {
	env := setupCLITestEnv(t, true)
	document := "Intro line.\nChapter One: Beginnings\nFirst content line.\nChapter One: Beginnings\nSecond heading with duplicate title.\n"
	env.writeSource(t, document)
	dest := filepath.Join(env.baseDir, "adhoc")

	out, _, err := runCLI(t, []string{"extract", env.source, dest}, env.configPath)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	requireContains(t, out, "[OK] 3 fragments")
	requireContains(t, out, "wrote   frontmatter.i7x")
	requireContains(t, out, "wrote   chapter-one-beginnings1.i7x")
	requireContains(t, out, "wrote   manifest.yaml")

	target := filepath.Join(env.baseDir, "rebuilt.ni")
	out, _, err = runCLI(t, []string{"combine", dest, target}, env.configPath)
	if err != nil {
		t.Fatalf("combine: %v", err)
	}
	requireContains(t, out, "3 fragments")
	if got := testsupport.ReadFile(t, target); got != document {
		t.Fatalf("round trip mismatch: %q", got)
	}
}

func TestCLINamedDocumentPruneStatusAndHistory(t *testing.T) {
	env := setupCLITestEnv(t, true)
	env.writeSource(t, "Intro\nChapter A\nx\nChapter B\ny\n")

	if _, _, err := runCLI(t, []string{"extract", "story"}, env.configPath); err != nil {
		t.Fatalf("extract: %v", err)
	}

	env.writeSource(t, "Intro\nChapter A\nx\n")
	out, _, err := runCLI(t, []string{"extract"}, env.configPath)
	if err != nil {
		t.Fatalf("extract all: %v", err)
	}
	requireContains(t, out, "1 removed (run with --prune")
	requireContains(t, out, "removed chapter-b.i7x")

	if err := os.WriteFile(filepath.Join(env.dest, "notes.i7x"), []byte("stray"), 0o644); err != nil {
		t.Fatalf("write stray fragment: %v", err)
	}
	out, _, err = runCLI(t, []string{"status", "story"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== story ==")
	requireContains(t, out, "chapter-a.i7x")
	requireContains(t, out, "present")
	requireContains(t, out, "untracked")
	requireContains(t, out, "chapter-b.i7x")
	requireContains(t, out, "Last run:")

	// The index stopped tracking chapter-b when it was reported, so a pruning
	// run leaves the now untracked file alone.
	out, _, err = runCLI(t, []string{"extract", "--prune", "story"}, env.configPath)
	if err != nil {
		t.Fatalf("extract --prune: %v", err)
	}
	if strings.Contains(out, "chapter-b.i7x") {
		t.Fatalf("chapter-b is no longer tracked and must not be reported again: %q", out)
	}
	if _, err := os.Stat(filepath.Join(env.dest, "chapter-b.i7x")); err != nil {
		t.Fatalf("untracked file should survive: %v", err)
	}

	out, _, err = runCLI(t, []string{"history", "story", "--limit", "5"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "extract")
	requireContains(t, out, "story.stanza")
	requireContains(t, out, "ok")
}

func TestCLIExtractPruneDeletesStaleFragments(t *testing.T) {
	env := setupCLITestEnv(t, false)
	env.writeSource(t, "Chapter A\nChapter B\n")
	if _, _, err := runCLI(t, []string{"extract", "story"}, env.configPath); err != nil {
		t.Fatalf("extract: %v", err)
	}
	env.writeSource(t, "Chapter A\n")
	out, _, err := runCLI(t, []string{"extract", "--prune", "story"}, env.configPath)
	if err != nil {
		t.Fatalf("extract --prune: %v", err)
	}
	requireContains(t, out, "removed chapter-b.i7x (pruned)")
	if _, err := os.Stat(filepath.Join(env.dest, "chapter-b.i7x")); !os.IsNotExist(err) {
		t.Fatalf("expected stale fragment deleted, stat err %v", err)
	}
}

func TestCLICombineReportsMissingFragment(t *testing.T) {
	env := setupCLITestEnv(t, true)
	env.writeSource(t, "Intro\nChapter A\nx\n")
	if _, _, err := runCLI(t, []string{"extract", "story"}, env.configPath); err != nil {
		t.Fatalf("extract: %v", err)
	}
	if err := os.Remove(filepath.Join(env.dest, "chapter-a.i7x")); err != nil {
		t.Fatalf("remove fragment: %v", err)
	}

	out, _, err := runCLI(t, []string{"combine", "story"}, env.configPath)
	if err == nil {
		t.Fatal("expected combine to fail")
	}
	requireContains(t, out, "fragment missing")

	out, _, err = runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "1 missing")
	requireContains(t, out, "fragment_missing")
}

func TestCLIArgumentErrors(t *testing.T) {
	env := setupCLITestEnv(t, false)

	if _, _, err := runCLI(t, []string{"combine", "unknown"}, env.configPath); err == nil || !strings.Contains(err.Error(), `no document named "unknown"`) {
		t.Fatalf("expected unknown document error, got %v", err)
	}
	if _, _, err := runCLI(t, []string{"history"}, env.configPath); err == nil || !strings.Contains(err.Error(), "sync index is disabled") {
		t.Fatalf("expected disabled index error, got %v", err)
	}
	if _, _, err := runCLI(t, []string{"extract", "a", "b", "c"}, env.configPath); err == nil {
		t.Fatal("expected too many arguments to fail")
	}

	empty := filepath.Join(env.baseDir, "empty.toml")
	if err := os.WriteFile(empty, []byte(fmt.Sprintf("[paths]\nstate_dir = %q\n", filepath.Join(env.baseDir, "state"))), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, err := runCLI(t, []string{"extract"}, empty); err == nil || !strings.Contains(err.Error(), "no documents configured") {
		t.Fatalf("expected missing documents error, got %v", err)
	}
}

func TestCLIStatusBeforeExtraction(t *testing.T) {
	env := setupCLITestEnv(t, false)
	out, _, err := runCLI(t, []string{"status", "story"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "not extracted yet")
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t, true)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "1 configured")
	requireContains(t, out, "source "+env.source+" missing")
	requireContains(t, out, filepath.Join(env.baseDir, "state", "index.db"))

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}

	out, _, err = runCLI(t, []string{"config", "validate"}, target)
	if err != nil {
		t.Fatalf("validate sample: %v", err)
	}
	requireContains(t, out, "Configuration valid")
}
