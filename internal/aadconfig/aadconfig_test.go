package aadconfig_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aad-go/aad/internal/aadconfig"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := aadconfig.Load(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != aadconfig.Default() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoad_OverridesLayerOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := "max_parallel_sessions = 8\ncontext_threshold = 50\nunknown_future_key = \"ignored\"\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := aadconfig.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxParallelSessions != 8 {
		t.Fatalf("expected override to 8, got %d", cfg.MaxParallelSessions)
	}
	if cfg.ContextThreshold != 50 {
		t.Fatalf("expected override to 50, got %d", cfg.ContextThreshold)
	}
	if cfg.MaxRetryAttempts != aadconfig.Default().MaxRetryAttempts {
		t.Fatalf("expected unset field to keep default, got %d", cfg.MaxRetryAttempts)
	}
}

func TestLoad_RejectsContextThresholdOutOfRange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("context_threshold = 150\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := aadconfig.Load(path); err == nil {
		t.Fatal("expected out-of-range context_threshold to be rejected")
	}
}

func TestConfig_ToOrchestratorConfigConvertsSecondsToDurations(t *testing.T) {
	cfg := aadconfig.Default()
	oc := cfg.ToOrchestratorConfig()
	if oc.SessionTimeout != 3600*time.Second {
		t.Fatalf("expected 3600s session timeout, got %v", oc.SessionTimeout)
	}
	if oc.MonitorInterval != time.Second {
		t.Fatalf("expected 1s monitor interval, got %v", oc.MonitorInterval)
	}
}

func TestLoadStyle_MissingFileReturnsDefaultStyle(t *testing.T) {
	name, tokens, err := aadconfig.LoadStyle(filepath.Join(t.TempDir(), "style.toml"))
	if err != nil {
		t.Fatalf("LoadStyle: %v", err)
	}
	if name.String() != "default" {
		t.Fatalf("expected default style name, got %q", name.String())
	}
	if tokens == nil {
		t.Fatal("expected a non-nil token map")
	}
}

func TestLoadStyle_ParsesNameAndTokens(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "style.toml")
	contents := "[style]\nname = \"verbose\"\n\n[tokens]\nfeature = \"auth\"\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write style: %v", err)
	}

	name, tokens, err := aadconfig.LoadStyle(path)
	if err != nil {
		t.Fatalf("LoadStyle: %v", err)
	}
	if name.String() != "verbose" {
		t.Fatalf("expected verbose style name, got %q", name.String())
	}
	got, ok := tokens.Get("feature")
	if !ok || got != "auth" {
		t.Fatalf("expected feature token auth, got %q (ok=%v)", got, ok)
	}
}
