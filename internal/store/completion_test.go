package store_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/aad-go/aad/internal/store"
)

func TestFromPatterns_RejectsEmptyList(t *testing.T) {
	if _, err := store.FromPatterns(nil); err == nil {
		t.Fatal("expected empty pattern list to be rejected")
	}
}

func TestFromPatterns_RejectsInvalidRegex(t *testing.T) {
	if _, err := store.FromPatterns([]string{"(unclosed"}); err == nil {
		t.Fatal("expected invalid regex to be rejected")
	}
}

func TestCompletionDetector_IsCompletedMatchesAnyPattern(t *testing.T) {
	detector, err := store.FromPatterns([]string{`(?i)all tests pass`, `(?i)task complete`})
	if err != nil {
		t.Fatalf("FromPatterns: %v", err)
	}

	matched, err := detector.IsCompleted("Running suite... ALL TESTS PASS")
	if err != nil {
		t.Fatalf("IsCompleted: %v", err)
	}
	if !matched {
		t.Fatal("expected match on case-insensitive pattern")
	}

	matched, err = detector.IsCompleted("still working")
	if err != nil {
		t.Fatalf("IsCompleted: %v", err)
	}
	if matched {
		t.Fatal("expected no match")
	}
}

func TestCompletionDetector_PatternCount(t *testing.T) {
	detector, err := store.FromPatterns([]string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("FromPatterns: %v", err)
	}
	if got := detector.PatternCount(); got != 3 {
		t.Fatalf("expected 3 patterns, got %d", got)
	}
}

func TestFromConfig_LoadsPatternsFromJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patterns.json")
	data, err := json.Marshal(store.CompletionPatterns{Patterns: []string{"done", "finished"}})
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	detector, err := store.FromConfig(path)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if got := detector.PatternCount(); got != 2 {
		t.Fatalf("expected 2 patterns, got %d", got)
	}
}

func TestFromConfig_FailsWhenFileMissing(t *testing.T) {
	if _, err := store.FromConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected missing config file to fail")
	}
}
