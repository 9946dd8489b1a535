package msgcat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmbeddedCatalogRenders(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := c.Render("chess.status.checkmate", map[string]any{"Winner": "White"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "Checkmate! White wins" {
		t.Fatalf("got %q", got)
	}
	got, err = c.Render("chess.evaluation", map[string]any{"Score": 1.5})
	if err != nil || got != "Evaluation +1.5" {
		t.Fatalf("evaluation = %q, %v", got, err)
	}
}

func TestRenderErrors(t *testing.T) {
	c := Must()
	if _, err := c.Render("chess.nope", nil); err == nil {
		t.Fatalf("expected missing template error")
	}
	if _, err := c.Render("chess.status.playing", map[string]any{}); err == nil {
		t.Fatalf("expected missing key error")
	}
	if got := c.RenderOr("chess.nope", nil, "fallback"); got != "fallback" {
		t.Fatalf("RenderOr = %q", got)
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	override := "chess:\n  status:\n    playing: \"Your move, {{.Turn}}\"\n"
	if err := os.WriteFile(filepath.Join(dir, "custom.yaml"), []byte(override), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := c.Render("chess.status.playing", map[string]any{"Turn": "Black"})
	if err != nil || got != "Your move, Black" {
		t.Fatalf("got %q, %v", got, err)
	}
	if _, err := c.Render("chess.status.check", map[string]any{"Turn": "Black"}); err != nil {
		t.Fatalf("embedded key lost: %v", err)
	}
}

func TestOverrideDuplicateKeys(t *testing.T) {
	dir := t.TempDir()
	body := []byte("chess:\n  clock: \"x\"\n")
	for _, name := range []string{"a.yaml", "b.yml"} {
		if err := os.WriteFile(filepath.Join(dir, name), body, 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if _, err := New(dir); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("err = %v", err)
	}
}

func TestNonStringLeafRejected(t *testing.T) {
	if _, err := parseYAMLToFlat([]byte("chess:\n  limit: 10\n")); err == nil {
		t.Fatalf("expected error for numeric leaf")
	}
}

func TestKeysSorted(t *testing.T) {
	keys := Must().Keys()
	if len(keys) == 0 {
		t.Fatalf("no keys")
	}
	for i := 1; i < len(keys); i++ {
		if keys[i-1] > keys[i] {
			t.Fatalf("keys not sorted at %d: %s > %s", i, keys[i-1], keys[i])
		}
	}
}
