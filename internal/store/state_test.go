package store_test

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aad-go/aad/internal/store"
)

func TestOrchestratorState_MarkTransitionsMoveBetweenLists(t *testing.T) {
	s := store.NewOrchestratorState([]string{"a", "b", "c"}, time.Now())

	s.MarkRunning("a")
	if len(s.Pending) != 2 || len(s.Running) != 1 {
		t.Fatalf("expected a to move to running, got pending=%v running=%v", s.Pending, s.Running)
	}

	s.MarkCompleted("a")
	if len(s.Running) != 0 || len(s.Completed) != 1 {
		t.Fatalf("expected a to move to completed, got running=%v completed=%v", s.Running, s.Completed)
	}

	s.MarkFailed("b")
	if len(s.Pending) != 1 || len(s.Failed) != 1 {
		t.Fatalf("expected b to move to failed, got pending=%v failed=%v", s.Pending, s.Failed)
	}
}

func TestOrchestratorState_ProgressPercent(t *testing.T) {
	s := store.NewOrchestratorState([]string{"a", "b", "c", "d"}, time.Now())
	if got := s.ProgressPercent(); got != 0 {
		t.Fatalf("expected 0%%, got %d", got)
	}
	s.MarkCompleted("a")
	if got := s.ProgressPercent(); got != 25 {
		t.Fatalf("expected 25%%, got %d", got)
	}
	s.MarkFailed("b")
	if got := s.ProgressPercent(); got != 50 {
		t.Fatalf("expected 50%%, got %d", got)
	}
}

func TestOrchestratorState_ProgressPercentEmptyIsComplete(t *testing.T) {
	s := store.NewOrchestratorState(nil, time.Now())
	if got := s.ProgressPercent(); got != 100 {
		t.Fatalf("expected 100%% for no specs, got %d", got)
	}
	if !s.IsComplete() {
		t.Fatal("expected empty state to be complete")
	}
}

func TestSaveStateRestoreStateRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	s := store.NewOrchestratorState([]string{"a", "b"}, time.Now())
	s.AddDependency("b", "a")
	s.MarkRunning("a")

	if err := store.SaveState(s, path); err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	restored, err := store.RestoreState(path)
	if err != nil {
		t.Fatalf("RestoreState: %v", err)
	}
	if len(restored.Running) != 1 || restored.Running[0] != "a" {
		t.Fatalf("expected a restored as running, got %v", restored.Running)
	}
	if deps := restored.Dependencies["b"]; len(deps) != 1 || deps[0] != "a" {
		t.Fatalf("expected b to depend on a, got %v", deps)
	}
}

func TestRestoreState_FailsWhenMissing(t *testing.T) {
	if _, err := store.RestoreState(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected restore of missing state file to fail")
	}
}

func TestPrintExecutionPlan_ReportsWavesAndParallelism(t *testing.T) {
	s := store.NewOrchestratorState([]string{"a", "b", "c"}, time.Now())
	s.AddDependency("b", "a")
	s.AddDependency("c", "a")

	report, err := store.PrintExecutionPlan(s)
	if err != nil {
		t.Fatalf("PrintExecutionPlan: %v", err)
	}
	if report == "" {
		t.Fatal("expected non-empty report")
	}
	if want := "Maximum parallelism: 2 specs"; !strings.Contains(report, want) {
		t.Fatalf("expected report to mention %q, got:\n%s", want, report)
	}
}
