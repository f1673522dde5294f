// Package doctor runs environment diagnostics for the orchestrator: is
// config.toml readable, are the data/escalation/backup directories present
// and writable, and is the on-disk state in a sane shape.
package doctor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/aad-go/aad/internal/aadconfig"
)

// CheckResult is the outcome of one diagnostic check.
type CheckResult struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "PASS", "FAIL", "WARN", "SKIP"
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// Diagnosis is the full report produced by Run.
type Diagnosis struct {
	Timestamp time.Time     `json:"timestamp"`
	System    SystemInfo    `json:"system"`
	Results   []CheckResult `json:"results"`
}

// SystemInfo is static runtime information included in every report.
type SystemInfo struct {
	OS      string `json:"os"`
	Arch    string `json:"arch"`
	Go      string `json:"go_version"`
	Version string `json:"version"`
}

// ExitCode returns 1 if any check FAILed, else 0.
func (d Diagnosis) ExitCode() int {
	for _, r := range d.Results {
		if r.Status == "FAIL" {
			return 1
		}
	}
	return 0
}

// Run executes all diagnostic checks against the loaded config.
func Run(ctx context.Context, cfg aadconfig.Config, homeDir, version string) Diagnosis {
	d := Diagnosis{
		Timestamp: time.Now().UTC(),
		System: SystemInfo{
			OS:      runtime.GOOS,
			Arch:    runtime.GOARCH,
			Go:      runtime.Version(),
			Version: version,
		},
	}

	checks := []func(context.Context, aadconfig.Config, string) CheckResult{
		checkConfig,
		checkDataDir,
		checkEscalationDir,
		checkBackupDir,
		checkStateFiles,
	}

	for _, check := range checks {
		d.Results = append(d.Results, check(ctx, cfg, homeDir))
	}

	return d
}

func checkConfig(_ context.Context, cfg aadconfig.Config, homeDir string) CheckResult {
	configPath := filepath.Join(homeDir, ".aad", "config.toml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return CheckResult{Name: "Config", Status: "WARN", Message: fmt.Sprintf("%s missing, using defaults", configPath)}
	}
	if cfg.ContextThreshold < 0 || cfg.ContextThreshold > 100 {
		return CheckResult{Name: "Config", Status: "FAIL", Message: "context_threshold out of range"}
	}
	return CheckResult{Name: "Config", Status: "PASS", Message: fmt.Sprintf("Loaded from %s", configPath)}
}

func checkDataDir(_ context.Context, cfg aadconfig.Config, homeDir string) CheckResult {
	return checkWritableDir("Data Dir", resolveDir(homeDir, cfg.DataDir))
}

func checkEscalationDir(_ context.Context, cfg aadconfig.Config, homeDir string) CheckResult {
	return checkWritableDir("Escalation Dir", resolveDir(homeDir, cfg.EscalationDir))
}

func checkBackupDir(_ context.Context, cfg aadconfig.Config, homeDir string) CheckResult {
	return checkWritableDir("Backup Dir", resolveDir(homeDir, cfg.BackupDir))
}

func checkStateFiles(_ context.Context, _ aadconfig.Config, homeDir string) CheckResult {
	statePath := filepath.Join(homeDir, ".aad", "orchestration", "state.json")
	if _, err := os.Stat(statePath); os.IsNotExist(err) {
		return CheckResult{Name: "Orchestrator State", Status: "WARN", Message: "no orchestration state yet (nothing has run)"}
	} else if err != nil {
		return CheckResult{Name: "Orchestrator State", Status: "FAIL", Message: fmt.Sprintf("stat failed: %v", err)}
	}
	return CheckResult{Name: "Orchestrator State", Status: "PASS", Message: fmt.Sprintf("found at %s", statePath)}
}

func checkWritableDir(name, dir string) CheckResult {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return CheckResult{Name: name, Status: "FAIL", Message: fmt.Sprintf("cannot create %s: %v", dir, err)}
	}
	probe := filepath.Join(dir, ".doctor_write_test")
	if err := os.WriteFile(probe, []byte("ok"), 0o600); err != nil {
		return CheckResult{Name: name, Status: "FAIL", Message: fmt.Sprintf("%s unwritable: %v", dir, err)}
	}
	os.Remove(probe)
	return CheckResult{Name: name, Status: "PASS", Message: fmt.Sprintf("%s writable", dir)}
}

func resolveDir(homeDir, configured string) string {
	if filepath.IsAbs(configured) {
		return configured
	}
	return filepath.Join(homeDir, configured)
}
