package doctor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aad-go/aad/internal/aadconfig"
)

func TestCheckConfig_MissingFileWarns(t *testing.T) {
	home := t.TempDir()
	result := checkConfig(context.Background(), aadconfig.Default(), home)
	if result.Status != "WARN" {
		t.Fatalf("expected WARN for missing config.toml, got %s: %s", result.Status, result.Message)
	}
}

func TestCheckConfig_PresentFilePasses(t *testing.T) {
	home := t.TempDir()
	if err := os.MkdirAll(filepath.Join(home, ".aad"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(home, ".aad", "config.toml"), []byte("max_parallel_sessions = 2\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	result := checkConfig(context.Background(), aadconfig.Default(), home)
	if result.Status != "PASS" {
		t.Fatalf("expected PASS, got %s: %s", result.Status, result.Message)
	}
}

func TestCheckConfig_OutOfRangeThresholdFails(t *testing.T) {
	home := t.TempDir()
	if err := os.MkdirAll(filepath.Join(home, ".aad"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(home, ".aad", "config.toml"), []byte(""), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg := aadconfig.Default()
	cfg.ContextThreshold = 150
	result := checkConfig(context.Background(), cfg, home)
	if result.Status != "FAIL" {
		t.Fatalf("expected FAIL for out-of-range threshold, got %s", result.Status)
	}
}

func TestCheckDataDir_CreatesAndWrites(t *testing.T) {
	home := t.TempDir()
	result := checkDataDir(context.Background(), aadconfig.Default(), home)
	if result.Status != "PASS" {
		t.Fatalf("expected PASS, got %s: %s", result.Status, result.Message)
	}
	if _, err := os.Stat(filepath.Join(home, ".aad", "data")); err != nil {
		t.Fatalf("expected data dir to exist: %v", err)
	}
}

func TestCheckEscalationDir_CreatesAndWrites(t *testing.T) {
	home := t.TempDir()
	result := checkEscalationDir(context.Background(), aadconfig.Default(), home)
	if result.Status != "PASS" {
		t.Fatalf("expected PASS, got %s: %s", result.Status, result.Message)
	}
}

func TestCheckBackupDir_CreatesAndWrites(t *testing.T) {
	home := t.TempDir()
	result := checkBackupDir(context.Background(), aadconfig.Default(), home)
	if result.Status != "PASS" {
		t.Fatalf("expected PASS, got %s: %s", result.Status, result.Message)
	}
}

func TestCheckStateFiles_MissingWarns(t *testing.T) {
	home := t.TempDir()
	result := checkStateFiles(context.Background(), aadconfig.Default(), home)
	if result.Status != "WARN" {
		t.Fatalf("expected WARN when no state exists yet, got %s", result.Status)
	}
}

func TestCheckStateFiles_PresentPasses(t *testing.T) {
	home := t.TempDir()
	dir := filepath.Join(home, ".aad", "orchestration")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "state.json"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("write state: %v", err)
	}
	result := checkStateFiles(context.Background(), aadconfig.Default(), home)
	if result.Status != "PASS" {
		t.Fatalf("expected PASS, got %s: %s", result.Status, result.Message)
	}
}

func TestRun_AggregatesAllChecks(t *testing.T) {
	home := t.TempDir()
	d := Run(context.Background(), aadconfig.Default(), home, "test-version")
	if len(d.Results) != 5 {
		t.Fatalf("expected 5 checks, got %d", len(d.Results))
	}
	if d.System.Version != "test-version" {
		t.Fatalf("expected version propagation, got %q", d.System.Version)
	}
}

func TestDiagnosis_ExitCodeReflectsFailures(t *testing.T) {
	d := Diagnosis{Results: []CheckResult{{Status: "PASS"}, {Status: "WARN"}}}
	if d.ExitCode() != 0 {
		t.Fatalf("expected exit code 0 with no failures")
	}
	d.Results = append(d.Results, CheckResult{Status: "FAIL"})
	if d.ExitCode() != 1 {
		t.Fatalf("expected exit code 1 with a failure present")
	}
}
